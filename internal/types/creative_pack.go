package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	PackStatusGenerating = "generating"
	PackStatusCompleted  = "completed"
	PackStatusFailed     = "failed"
)

const (
	ComplianceStatusPending = "pending"
	ComplianceStatusPassed  = "passed"
	ComplianceStatusFlagged = "flagged"
)

// CreativePack is one generation run of nine assets, pinned to the brand
// memory version that was active when the run started. BrandMemoryVersion is
// written once at insert and never re-resolved.
type CreativePack struct {
	ID                 uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	OrgID              uuid.UUID      `gorm:"type:uuid;not null;index" json:"org_id"`
	BriefID            uuid.UUID      `gorm:"type:uuid;not null;index" json:"brief_id"`
	BrandMemoryVersion int            `gorm:"not null" json:"brand_memory_version"`
	Name               string         `gorm:"not null" json:"name"`
	Status             string         `gorm:"not null;index" json:"status"`
	ModelUsed          string         `json:"model_used"`
	GenerationConfig   datatypes.JSON `gorm:"type:jsonb" json:"generation_config"`
	AvgBrandAlignment  float64        `gorm:"not null;default:0" json:"avg_brand_alignment"`
	AvgReadability     float64        `gorm:"not null;default:0" json:"avg_readability"`
	AvgPlatformFit     float64        `gorm:"not null;default:0" json:"avg_platform_fit"`
	ComplianceStatus   string         `gorm:"not null;default:'pending'" json:"compliance_status"`
	CreatedAt          time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt          time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (CreativePack) TableName() string { return "creative_pack" }
