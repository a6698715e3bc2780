package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type BrandKitColor struct {
	Name      string `json:"name"`
	Hex       string `json:"hex"`
	IsPrimary bool   `json:"is_primary"`
}

type BrandKitStrategy struct {
	VoiceTone string `json:"voice_tone"`
	Mood      string `json:"mood"`
	Vibe      string `json:"vibe"`
}

// BrandKit is the raw brand-kit record produced by the onboarding wizard.
// Brand memory versions are derived from it, never the other way around.
type BrandKit struct {
	ID        uuid.UUID                            `gorm:"type:uuid;primaryKey" json:"id"`
	OrgID     uuid.UUID                            `gorm:"type:uuid;not null;index" json:"org_id"`
	Name      string                               `gorm:"not null" json:"name"`
	Tagline   string                               `json:"tagline"`
	LogoURL   string                               `json:"logo_url"`
	Colors    datatypes.JSONSlice[BrandKitColor]   `gorm:"type:jsonb" json:"colors"`
	Fonts     datatypes.JSONSlice[string]          `gorm:"type:jsonb" json:"fonts"`
	Strategy  datatypes.JSONType[BrandKitStrategy] `gorm:"type:jsonb" json:"strategy"`
	CreatedAt time.Time                            `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time                            `gorm:"not null" json:"updated_at"`
}

func (BrandKit) TableName() string { return "brand_kit" }
