package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	BriefStatusIntake        = "intake"
	BriefStatusCopyPending   = "copy_pending"
	BriefStatusCopyConfirmed = "copy_confirmed"
	BriefStatusGenerating    = "generating"
	BriefStatusCompleted     = "completed"
	BriefStatusFailed        = "failed"
)

const (
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
)

type ChatMessage struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// CreativeBrief is one ad-copy intake/approval session. Headline, primary text
// and CTA become immutable once copy_confirmed flips true; reverting requires
// a new brief.
type CreativeBrief struct {
	ID              uuid.UUID                        `gorm:"type:uuid;primaryKey" json:"id"`
	OrgID           uuid.UUID                        `gorm:"type:uuid;not null;index" json:"org_id"`
	UserID          uuid.UUID                        `gorm:"type:uuid;not null;index" json:"user_id"`
	Name            string                           `gorm:"not null" json:"name"`
	Objective       string                           `json:"objective"`
	TargetAudience  string                           `json:"target_audience"`
	ProductService  string                           `json:"product_service"`
	KeyMessage      string                           `json:"key_message"`
	Status          string                           `gorm:"not null;index" json:"status"`
	ChatHistory     datatypes.JSONSlice[ChatMessage] `gorm:"type:jsonb" json:"chat_history"`
	Headline        string                           `json:"headline"`
	PrimaryText     string                           `json:"primary_text"`
	CTAText         string                           `gorm:"column:cta_text" json:"cta_text"`
	CopyConfirmed   bool                             `gorm:"not null;default:false" json:"copy_confirmed"`
	CopyConfirmedAt *time.Time                       `json:"copy_confirmed_at,omitempty"`
	StyleDirection  string                           `json:"style_direction"`
	ReferenceImages datatypes.JSONSlice[string]      `gorm:"type:jsonb" json:"reference_images"`
	CreatedAt       time.Time                        `gorm:"not null;index" json:"created_at"`
	UpdatedAt       time.Time                        `gorm:"not null" json:"updated_at"`
	DeletedAt       gorm.DeletedAt                   `gorm:"index" json:"deleted_at,omitempty"`
}

func (CreativeBrief) TableName() string { return "creative_brief" }

// HasCompleteCopy reports whether all three copy fields are present.
func (b *CreativeBrief) HasCompleteCopy() bool {
	return b.Headline != "" && b.PrimaryText != "" && b.CTAText != ""
}
