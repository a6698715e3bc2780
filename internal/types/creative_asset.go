package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	AssetStatusGenerating = "generating"
	AssetStatusCompleted  = "completed"
	AssetStatusFlagged    = "flagged"
	AssetStatusFailed     = "failed"
)

const (
	DirectionA = "A"
	DirectionB = "B"
	DirectionC = "C"
)

const (
	AspectRatioSquare   = "1:1"
	AspectRatioPortrait = "4:5"
	AspectRatioStory    = "9:16"
)

const (
	ComplianceRiskLow    = "low"
	ComplianceRiskMedium = "medium"
	ComplianceRiskHigh   = "high"
)

// CreativeAsset is one generated image. Flagged means the image exists but
// missed the quality bar; failed is reserved for generation/infra errors.
// The unique (pack, direction, ratio) key makes concurrent generation of the
// same slot a constraint violation instead of a duplicate row. Rows are hard
// deleted on direction regeneration, so no soft-delete column here.
type CreativeAsset struct {
	ID                  uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	PackID              uuid.UUID                   `gorm:"type:uuid;not null;index;uniqueIndex:idx_creative_asset_slot,priority:1" json:"pack_id"`
	BriefID             uuid.UUID                   `gorm:"type:uuid;not null;index" json:"brief_id"`
	Direction           string                      `gorm:"not null;uniqueIndex:idx_creative_asset_slot,priority:2" json:"direction"`
	DirectionName       string                      `json:"direction_name"`
	AspectRatio         string                      `gorm:"not null;uniqueIndex:idx_creative_asset_slot,priority:3" json:"aspect_ratio"`
	PromptUsed          string                      `json:"prompt_used"`
	NegativePrompt      string                      `json:"negative_prompt"`
	ModelUsed           string                      `json:"model_used"`
	HeadlineText        string                      `json:"headline_text"`
	CTAText             string                      `gorm:"column:cta_text" json:"cta_text"`
	Status              string                      `gorm:"not null;index" json:"status"`
	ResultURL           string                      `json:"result_url"`
	BrandAlignmentScore float64                     `gorm:"not null;default:0" json:"brand_alignment_score"`
	ReadabilityScore    float64                     `gorm:"not null;default:0" json:"readability_score"`
	PlatformFitScore    float64                     `gorm:"not null;default:0" json:"platform_fit_score"`
	ComplianceRisk      string                      `gorm:"not null;default:'low'" json:"compliance_risk"`
	QualityIssues       datatypes.JSONSlice[string] `gorm:"type:jsonb" json:"quality_issues"`
	Error               string                      `json:"error,omitempty"`
	GenerationAttempts  int                         `gorm:"not null;default:0" json:"generation_attempts"`
	CreatedAt           time.Time                   `gorm:"not null;index" json:"created_at"`
	UpdatedAt           time.Time                   `gorm:"not null" json:"updated_at"`
}

func (CreativeAsset) TableName() string { return "creative_asset" }
