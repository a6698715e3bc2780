package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/brandpilot/brandpilot-backend/internal/logger"
	"github.com/brandpilot/brandpilot-backend/internal/repos"
	"github.com/brandpilot/brandpilot-backend/internal/types"
)

// BriefWorkflowService drives a creative brief through
// intake -> copy_pending -> copy_confirmed -> generating -> completed/failed.
// ConfirmCopy is the hard gate: after it succeeds the three copy fields are
// frozen and generation becomes reachable.
type BriefWorkflowService interface {
	Create(ctx context.Context, input CreateBriefInput) (*types.CreativeBrief, error)
	Get(ctx context.Context, id uuid.UUID) (*types.CreativeBrief, error)
	List(ctx context.Context, orgID uuid.UUID, limit int) ([]*types.CreativeBrief, error)
	AddChatMessage(ctx context.Context, briefID uuid.UUID, content string) (*ChatReply, error)
	ProposeCopy(ctx context.Context, briefID uuid.UUID, proposal ConfirmedCopy) (*types.CreativeBrief, error)
	ConfirmCopy(ctx context.Context, briefID uuid.UUID) (*types.CreativeBrief, error)
	UpdateCopy(ctx context.Context, briefID uuid.UUID, updates CopyUpdate) (*types.CreativeBrief, error)
	CanGenerateCreatives(brief *types.CreativeBrief) (bool, string)
	UpdateStatus(ctx context.Context, briefID uuid.UUID, status string) error
}

type CreateBriefInput struct {
	OrgID          uuid.UUID
	UserID         uuid.UUID
	Name           string
	Objective      string
	TargetAudience string
	ProductService string
	KeyMessage     string
	StyleDirection string
}

// CopyUpdate carries partial copy edits; nil means "leave unchanged".
type CopyUpdate struct {
	Headline    *string
	PrimaryText *string
	CTAText     *string
}

type ChatReply struct {
	Brief    *types.CreativeBrief
	Reply    string
	Proposal *ConfirmedCopy
}

type briefWorkflowService struct {
	db  *gorm.DB
	log *logger.Logger

	briefRepo  repos.CreativeBriefRepo
	memoryRepo repos.BrandMemoryRepo
	usageRepo  repos.AICallLogRepo
	ai         OpenAIClient
}

func NewBriefWorkflowService(
	db *gorm.DB,
	baseLog *logger.Logger,
	briefRepo repos.CreativeBriefRepo,
	memoryRepo repos.BrandMemoryRepo,
	usageRepo repos.AICallLogRepo,
	ai OpenAIClient,
) BriefWorkflowService {
	return &briefWorkflowService{
		db:         db,
		log:        baseLog.With("service", "BriefWorkflowService"),
		briefRepo:  briefRepo,
		memoryRepo: memoryRepo,
		usageRepo:  usageRepo,
		ai:         ai,
	}
}

func (s *briefWorkflowService) Create(ctx context.Context, input CreateBriefInput) (*types.CreativeBrief, error) {
	if input.OrgID == uuid.Nil {
		return nil, fmt.Errorf("missing org_id")
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, fmt.Errorf("brief name is required")
	}

	now := time.Now().UTC()
	brief := &types.CreativeBrief{
		ID:              uuid.New(),
		OrgID:           input.OrgID,
		UserID:          input.UserID,
		Name:            input.Name,
		Objective:       input.Objective,
		TargetAudience:  input.TargetAudience,
		ProductService:  input.ProductService,
		KeyMessage:      input.KeyMessage,
		Status:          types.BriefStatusIntake,
		ChatHistory:     datatypes.NewJSONSlice([]types.ChatMessage{}),
		StyleDirection:  input.StyleDirection,
		ReferenceImages: datatypes.NewJSONSlice([]string{}),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	return s.briefRepo.Create(ctx, nil, brief)
}

func (s *briefWorkflowService) Get(ctx context.Context, id uuid.UUID) (*types.CreativeBrief, error) {
	return s.briefRepo.GetByID(ctx, nil, id)
}

func (s *briefWorkflowService) List(ctx context.Context, orgID uuid.UUID, limit int) ([]*types.CreativeBrief, error) {
	return s.briefRepo.ListByOrg(ctx, nil, orgID, limit)
}

// AddChatMessage appends the user message, asks the copy model for a reply,
// and scans the reply for a proposed-copy block. A proposal moves the brief
// to copy_pending unless copy is already confirmed, in which case the copy
// fields and status are left untouched.
func (s *briefWorkflowService) AddChatMessage(ctx context.Context, briefID uuid.UUID, content string) (*ChatReply, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("message content is required")
	}
	brief, err := s.briefRepo.GetByID(ctx, nil, briefID)
	if err != nil {
		return nil, err
	}
	if brief == nil {
		return nil, fmt.Errorf("brief not found")
	}

	brand, err := s.memoryRepo.GetActive(ctx, nil, brief.OrgID)
	if err != nil {
		return nil, err
	}

	history := append([]types.ChatMessage{}, brief.ChatHistory...)
	history = append(history, types.ChatMessage{
		Role:      types.ChatRoleUser,
		Content:   content,
		Timestamp: time.Now().UTC(),
	})

	system := buildBriefSystemPrompt(brief, brand)
	started := time.Now()
	reply, err := s.ai.Chat(ctx, system, history)
	if err != nil {
		return nil, fmt.Errorf("chat provider: %w", err)
	}
	s.recordUsage(ctx, brief, types.AICallKindChat, 1, time.Since(started))

	history = append(history, types.ChatMessage{
		Role:      types.ChatRoleAssistant,
		Content:   reply,
		Timestamp: time.Now().UTC(),
	})

	updates := map[string]interface{}{
		"chat_history": datatypes.NewJSONSlice(history),
	}

	proposal, found := ParseCopyProposal(reply)
	if !found && strings.Contains(reply, copyProposalStart) {
		// Malformed block: fall back to structured extraction.
		proposal, found = s.extractProposalStructured(ctx, brief, reply)
	}

	if found && !brief.CopyConfirmed {
		updates["headline"] = proposal.Headline
		updates["primary_text"] = proposal.PrimaryText
		updates["cta_text"] = proposal.CTAText
		updates["status"] = types.BriefStatusCopyPending
	} else {
		proposal = nil
	}

	if err := s.briefRepo.UpdateFields(ctx, nil, brief.ID, updates); err != nil {
		return nil, err
	}

	brief, err = s.briefRepo.GetByID(ctx, nil, brief.ID)
	if err != nil {
		return nil, err
	}
	return &ChatReply{Brief: brief, Reply: reply, Proposal: proposal}, nil
}

func (s *briefWorkflowService) extractProposalStructured(ctx context.Context, brief *types.CreativeBrief, reply string) (*ConfirmedCopy, bool) {
	obj, err := s.ai.GenerateJSON(ctx,
		"Extract the proposed ad copy from the assistant reply. Set has_proposal false if none is present.",
		reply,
		"copy_proposal",
		copyProposalSchema,
	)
	if err != nil {
		s.log.Warn("Structured proposal extraction failed", "brief_id", brief.ID, "error", err)
		return nil, false
	}
	return proposalFromJSON(obj)
}

func (s *briefWorkflowService) ProposeCopy(ctx context.Context, briefID uuid.UUID, proposal ConfirmedCopy) (*types.CreativeBrief, error) {
	brief, err := s.briefRepo.GetByID(ctx, nil, briefID)
	if err != nil {
		return nil, err
	}
	if brief == nil {
		return nil, fmt.Errorf("brief not found")
	}
	if brief.CopyConfirmed {
		return nil, fmt.Errorf("cannot update copy after confirmation")
	}

	err = s.briefRepo.UpdateFields(ctx, nil, briefID, map[string]interface{}{
		"headline":     proposal.Headline,
		"primary_text": proposal.PrimaryText,
		"cta_text":     proposal.CTAText,
		"status":       types.BriefStatusCopyPending,
	})
	if err != nil {
		return nil, err
	}
	return s.briefRepo.GetByID(ctx, nil, briefID)
}

// ConfirmCopy flips the one-way gate. The row lock closes the race against a
// concurrent UpdateCopy; there is no unlock path short of a new brief.
func (s *briefWorkflowService) ConfirmCopy(ctx context.Context, briefID uuid.UUID) (*types.CreativeBrief, error) {
	var out *types.CreativeBrief
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		brief, err := s.briefRepo.LockByID(ctx, tx, briefID)
		if err != nil {
			return err
		}
		if missing := missingCopyFields(brief); len(missing) > 0 {
			return fmt.Errorf("cannot confirm copy: missing %s", strings.Join(missing, ", "))
		}
		if brief.CopyConfirmed {
			out = brief
			return nil
		}

		now := time.Now().UTC()
		if err := s.briefRepo.UpdateFields(ctx, tx, briefID, map[string]interface{}{
			"copy_confirmed":    true,
			"copy_confirmed_at": now,
			"status":            types.BriefStatusCopyConfirmed,
		}); err != nil {
			return err
		}
		brief.CopyConfirmed = true
		brief.CopyConfirmedAt = &now
		brief.Status = types.BriefStatusCopyConfirmed
		out = brief
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *briefWorkflowService) UpdateCopy(ctx context.Context, briefID uuid.UUID, updates CopyUpdate) (*types.CreativeBrief, error) {
	var out *types.CreativeBrief
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		brief, err := s.briefRepo.LockByID(ctx, tx, briefID)
		if err != nil {
			return err
		}
		if brief.CopyConfirmed {
			return fmt.Errorf("cannot update copy after confirmation")
		}

		fields := map[string]interface{}{}
		if updates.Headline != nil {
			fields["headline"] = *updates.Headline
		}
		if updates.PrimaryText != nil {
			fields["primary_text"] = *updates.PrimaryText
		}
		if updates.CTAText != nil {
			fields["cta_text"] = *updates.CTAText
		}
		if len(fields) == 0 {
			out = brief
			return nil
		}
		fields["status"] = types.BriefStatusCopyPending
		return s.briefRepo.UpdateFields(ctx, tx, briefID, fields)
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		return s.briefRepo.GetByID(ctx, nil, briefID)
	}
	return out, nil
}

func (s *briefWorkflowService) CanGenerateCreatives(brief *types.CreativeBrief) (bool, string) {
	return canGenerateCreatives(brief)
}

// canGenerateCreatives is the guard every generation entry point must pass.
func canGenerateCreatives(brief *types.CreativeBrief) (bool, string) {
	if brief == nil {
		return false, "brief not found"
	}
	if !brief.CopyConfirmed {
		return false, "copy has not been confirmed"
	}
	if missing := missingCopyFields(brief); len(missing) > 0 {
		return false, "missing " + strings.Join(missing, ", ")
	}
	if brief.Status == types.BriefStatusGenerating {
		return false, "a generation is already in progress"
	}
	return true, ""
}

func missingCopyFields(brief *types.CreativeBrief) []string {
	var missing []string
	if strings.TrimSpace(brief.Headline) == "" {
		missing = append(missing, "headline")
	}
	if strings.TrimSpace(brief.PrimaryText) == "" {
		missing = append(missing, "primary_text")
	}
	if strings.TrimSpace(brief.CTAText) == "" {
		missing = append(missing, "cta_text")
	}
	return missing
}

func (s *briefWorkflowService) UpdateStatus(ctx context.Context, briefID uuid.UUID, status string) error {
	return s.briefRepo.UpdateFields(ctx, nil, briefID, map[string]interface{}{"status": status})
}

func (s *briefWorkflowService) recordUsage(ctx context.Context, brief *types.CreativeBrief, kind string, units int, took time.Duration) {
	row := &types.AICallLog{
		ID:         uuid.New(),
		OrgID:      brief.OrgID,
		BriefID:    &brief.ID,
		Provider:   "openai",
		Kind:       kind,
		Units:      units,
		DurationMS: took.Milliseconds(),
		CreatedAt:  time.Now().UTC(),
	}
	if _, err := s.usageRepo.Create(ctx, nil, []*types.AICallLog{row}); err != nil {
		s.log.Warn("Failed to record AI usage", "brief_id", brief.ID, "error", err)
	}
}
