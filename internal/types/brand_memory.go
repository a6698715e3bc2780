package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	LayoutStyleModern  = "modern"
	LayoutStyleMinimal = "minimal"
	LayoutStyleBold    = "bold"
	LayoutStyleUGC     = "ugc"
	LayoutStylePremium = "premium"
)

const (
	LogoPlacementTopLeft     = "top-left"
	LogoPlacementTopRight    = "top-right"
	LogoPlacementBottomLeft  = "bottom-left"
	LogoPlacementBottomRight = "bottom-right"
	LogoPlacementCenter      = "center"
)

type BrandColor struct {
	Name string `json:"name"`
	Hex  string `json:"hex"`
}

type StyleTokens struct {
	Vibe string `json:"vibe"`
	Mood string `json:"mood"`
}

type VoiceRules struct {
	Tone string `json:"tone"`
}

// BrandMemory is an append-only versioned snapshot of an org's brand identity.
// Rows are never mutated after insert; an update inserts version N+1 and flips
// the active flag, so packs generated against an older version stay reproducible.
type BrandMemory struct {
	ID              uuid.UUID                       `gorm:"type:uuid;primaryKey" json:"id"`
	OrgID           uuid.UUID                       `gorm:"type:uuid;not null;index;uniqueIndex:idx_brand_memory_org_version,priority:1" json:"org_id"`
	Version         int                             `gorm:"not null;uniqueIndex:idx_brand_memory_org_version,priority:2" json:"version"`
	IsActive        bool                            `gorm:"not null;index" json:"is_active"`
	BrandName       string                          `gorm:"not null" json:"brand_name"`
	Tagline         string                          `json:"tagline"`
	LogoURL         string                          `json:"logo_url"`
	PrimaryColors   datatypes.JSONSlice[BrandColor] `gorm:"type:jsonb" json:"primary_colors"`
	SecondaryColors datatypes.JSONSlice[BrandColor] `gorm:"type:jsonb" json:"secondary_colors"`
	Fonts           datatypes.JSONSlice[string]     `gorm:"type:jsonb" json:"fonts"`
	StyleTokens     datatypes.JSONType[StyleTokens] `gorm:"type:jsonb" json:"style_tokens"`
	LayoutStyle     string                          `gorm:"not null;default:'modern'" json:"layout_style"`
	LogoPlacement   string                          `gorm:"not null;default:'bottom-right'" json:"logo_placement"`
	TextSafeZones   datatypes.JSONSlice[string]     `gorm:"type:jsonb" json:"text_safe_zones"`
	VoiceRules      datatypes.JSONType[VoiceRules]  `gorm:"type:jsonb" json:"voice_rules"`
	DoList          datatypes.JSONSlice[string]     `gorm:"type:jsonb" json:"do_list"`
	DontList        datatypes.JSONSlice[string]     `gorm:"type:jsonb" json:"dont_list"`
	ComplianceRules datatypes.JSONSlice[string]     `gorm:"type:jsonb" json:"compliance_rules"`
	PerformanceData datatypes.JSON                  `gorm:"type:jsonb" json:"performance_data"`
	FatiguedStyles  datatypes.JSONSlice[string]     `gorm:"type:jsonb" json:"fatigued_styles"`
	CreatedAt       time.Time                       `gorm:"not null;index" json:"created_at"`
	UpdatedAt       time.Time                       `gorm:"not null" json:"updated_at"`
}

func (BrandMemory) TableName() string { return "brand_memory" }
