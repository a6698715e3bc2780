package types

import (
	"time"

	"github.com/google/uuid"
)

const (
	AICallKindChat    = "chat"
	AICallKindImage   = "image"
	AICallKindQuality = "quality"
)

// AICallLog is the usage ledger billing reads from. One row per provider call
// (or per batch, with Units > 1).
type AICallLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	OrgID      uuid.UUID  `gorm:"type:uuid;not null;index" json:"org_id"`
	BriefID    *uuid.UUID `gorm:"type:uuid;index" json:"brief_id,omitempty"`
	PackID     *uuid.UUID `gorm:"type:uuid;index" json:"pack_id,omitempty"`
	Provider   string     `gorm:"not null" json:"provider"`
	Kind       string     `gorm:"not null;index" json:"kind"`
	Model      string     `json:"model"`
	Units      int        `gorm:"not null;default:1" json:"units"`
	DurationMS int64      `gorm:"column:duration_ms" json:"duration_ms"`
	CreatedAt  time.Time  `gorm:"not null;index" json:"created_at"`
}

func (AICallLog) TableName() string { return "ai_call_log" }
