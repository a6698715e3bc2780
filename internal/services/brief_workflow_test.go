package services

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/brandpilot/brandpilot-backend/internal/repos"
	"github.com/brandpilot/brandpilot-backend/internal/types"
)

func newWorkflowFixture(t *testing.T, ai *fakeAIClient) (BriefWorkflowService, uuid.UUID) {
	t.Helper()
	db := testDB(t)
	log := testLogger(t)
	briefRepo := repos.NewCreativeBriefRepo(db, log)
	memoryRepo := repos.NewBrandMemoryRepo(db, log)
	usageRepo := repos.NewAICallLogRepo(db, log)
	svc := NewBriefWorkflowService(db, log, briefRepo, memoryRepo, usageRepo, ai)
	return svc, uuid.New()
}

func createTestBrief(t *testing.T, svc BriefWorkflowService, orgID uuid.UUID) *types.CreativeBrief {
	t.Helper()
	brief, err := svc.Create(context.Background(), CreateBriefInput{
		OrgID:          orgID,
		UserID:         uuid.New(),
		Name:           "Spring launch",
		Objective:      "conversions",
		TargetAudience: "urban commuters",
		ProductService: "cold brew subscription",
	})
	if err != nil {
		t.Fatalf("create brief: %v", err)
	}
	if brief.Status != types.BriefStatusIntake {
		t.Fatalf("expected intake status, got %q", brief.Status)
	}
	return brief
}

func TestCanGenerateCreatives(t *testing.T) {
	confirmed := &types.CreativeBrief{
		Headline:      "H",
		PrimaryText:   "P",
		CTAText:       "C",
		CopyConfirmed: true,
		Status:        types.BriefStatusCopyConfirmed,
	}

	tests := []struct {
		name   string
		brief  *types.CreativeBrief
		want   bool
		reason string
	}{
		{"nil brief", nil, false, "brief not found"},
		{"unconfirmed", &types.CreativeBrief{Headline: "H", PrimaryText: "P", CTAText: "C"}, false, "copy has not been confirmed"},
		{"confirmed complete", confirmed, true, ""},
		{
			"generation in progress",
			&types.CreativeBrief{Headline: "H", PrimaryText: "P", CTAText: "C", CopyConfirmed: true, Status: types.BriefStatusGenerating},
			false,
			"a generation is already in progress",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, reason := canGenerateCreatives(tt.brief)
			if ok != tt.want {
				t.Fatalf("expected ok=%v, got %v (%q)", tt.want, ok, reason)
			}
			if reason != tt.reason {
				t.Fatalf("expected reason %q, got %q", tt.reason, reason)
			}
		})
	}
}

func TestMissingCopyFields(t *testing.T) {
	brief := &types.CreativeBrief{Headline: "H"}
	missing := missingCopyFields(brief)
	if len(missing) != 2 {
		t.Fatalf("expected 2 missing fields, got %v", missing)
	}
	if missing[0] != "primary_text" || missing[1] != "cta_text" {
		t.Fatalf("unexpected missing fields %v", missing)
	}
}

func TestConfirmCopy_RejectsIncompleteCopy(t *testing.T) {
	svc, orgID := newWorkflowFixture(t, &fakeAIClient{})
	brief := createTestBrief(t, svc, orgID)

	_, err := svc.ConfirmCopy(context.Background(), brief.ID)
	if err == nil {
		t.Fatalf("expected confirmation to fail without copy")
	}
	if !strings.Contains(err.Error(), "cannot confirm copy: missing") {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestConfirmCopy_FlipsGateOnce(t *testing.T) {
	svc, orgID := newWorkflowFixture(t, &fakeAIClient{})
	brief := createTestBrief(t, svc, orgID)

	if _, err := svc.ProposeCopy(context.Background(), brief.ID, testConfirmedCopy()); err != nil {
		t.Fatalf("propose copy: %v", err)
	}

	confirmed, err := svc.ConfirmCopy(context.Background(), brief.ID)
	if err != nil {
		t.Fatalf("confirm copy: %v", err)
	}
	if !confirmed.CopyConfirmed || confirmed.CopyConfirmedAt == nil {
		t.Fatalf("expected confirmed flags set: %+v", confirmed)
	}
	if confirmed.Status != types.BriefStatusCopyConfirmed {
		t.Fatalf("expected copy_confirmed status, got %q", confirmed.Status)
	}

	// Confirming again is a no-op, not an error.
	again, err := svc.ConfirmCopy(context.Background(), brief.ID)
	if err != nil {
		t.Fatalf("second confirm: %v", err)
	}
	if !again.CopyConfirmed {
		t.Fatalf("expected idempotent confirmation")
	}
}

func TestUpdateCopy_RejectedAfterConfirmation(t *testing.T) {
	svc, orgID := newWorkflowFixture(t, &fakeAIClient{})
	brief := createTestBrief(t, svc, orgID)

	if _, err := svc.ProposeCopy(context.Background(), brief.ID, testConfirmedCopy()); err != nil {
		t.Fatalf("propose copy: %v", err)
	}
	if _, err := svc.ConfirmCopy(context.Background(), brief.ID); err != nil {
		t.Fatalf("confirm copy: %v", err)
	}

	newHeadline := "Different"
	_, err := svc.UpdateCopy(context.Background(), brief.ID, CopyUpdate{Headline: &newHeadline})
	if err == nil || !strings.Contains(err.Error(), "cannot update copy after confirmation") {
		t.Fatalf("expected immutability error, got %v", err)
	}

	got, err := svc.Get(context.Background(), brief.ID)
	if err != nil {
		t.Fatalf("reload brief: %v", err)
	}
	if got.Headline != testConfirmedCopy().Headline {
		t.Fatalf("expected headline unchanged, got %q", got.Headline)
	}
}

func TestUpdateCopy_PartialEditBeforeConfirmation(t *testing.T) {
	svc, orgID := newWorkflowFixture(t, &fakeAIClient{})
	brief := createTestBrief(t, svc, orgID)

	if _, err := svc.ProposeCopy(context.Background(), brief.ID, testConfirmedCopy()); err != nil {
		t.Fatalf("propose copy: %v", err)
	}

	newHeadline := "Sharper"
	updated, err := svc.UpdateCopy(context.Background(), brief.ID, CopyUpdate{Headline: &newHeadline})
	if err != nil {
		t.Fatalf("update copy: %v", err)
	}
	if updated.Headline != "Sharper" {
		t.Fatalf("expected updated headline, got %q", updated.Headline)
	}
	if updated.PrimaryText != testConfirmedCopy().PrimaryText {
		t.Fatalf("expected primary text untouched, got %q", updated.PrimaryText)
	}
}

func TestAddChatMessage_AppliesProposal(t *testing.T) {
	ai := &fakeAIClient{
		chatReply: "How about this?\n" +
			"---COPY_PROPOSAL---\n" +
			"HEADLINE: Brew Bold\n" +
			"PRIMARY_TEXT: Cold brew that keeps up.\n" +
			"CTA: Try It\n" +
			"---END_PROPOSAL---",
	}
	svc, orgID := newWorkflowFixture(t, ai)
	brief := createTestBrief(t, svc, orgID)

	reply, err := svc.AddChatMessage(context.Background(), brief.ID, "Suggest some copy")
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if reply.Proposal == nil || reply.Proposal.Headline != "Brew Bold" {
		t.Fatalf("expected parsed proposal, got %+v", reply.Proposal)
	}
	if reply.Brief.Status != types.BriefStatusCopyPending {
		t.Fatalf("expected copy_pending status, got %q", reply.Brief.Status)
	}
	if reply.Brief.Headline != "Brew Bold" || reply.Brief.CTAText != "Try It" {
		t.Fatalf("expected copy fields applied, got %+v", reply.Brief)
	}
	if len(reply.Brief.ChatHistory) != 2 {
		t.Fatalf("expected user+assistant history, got %d entries", len(reply.Brief.ChatHistory))
	}
}

func TestAddChatMessage_StructuredFallbackForMalformedBlock(t *testing.T) {
	ai := &fakeAIClient{
		chatReply: "---COPY_PROPOSAL---\nheadline Brew Bold, cta Try It\n---END_PROPOSAL---",
		jsonReply: map[string]any{
			"has_proposal": true,
			"headline":     "Brew Bold",
			"primary_text": "Cold brew that keeps up.",
			"cta":          "Try It",
		},
	}
	svc, orgID := newWorkflowFixture(t, ai)
	brief := createTestBrief(t, svc, orgID)

	reply, err := svc.AddChatMessage(context.Background(), brief.ID, "Suggest some copy")
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if ai.jsonCalls != 1 {
		t.Fatalf("expected structured extraction fallback, got %d calls", ai.jsonCalls)
	}
	if reply.Proposal == nil || reply.Proposal.Headline != "Brew Bold" {
		t.Fatalf("expected fallback proposal, got %+v", reply.Proposal)
	}
}

func TestAddChatMessage_LeavesConfirmedCopyUntouched(t *testing.T) {
	ai := &fakeAIClient{
		chatReply: "---COPY_PROPOSAL---\n" +
			"HEADLINE: Other\n" +
			"PRIMARY_TEXT: Other text.\n" +
			"CTA: Other\n" +
			"---END_PROPOSAL---",
	}
	svc, orgID := newWorkflowFixture(t, ai)
	brief := createTestBrief(t, svc, orgID)

	if _, err := svc.ProposeCopy(context.Background(), brief.ID, testConfirmedCopy()); err != nil {
		t.Fatalf("propose copy: %v", err)
	}
	if _, err := svc.ConfirmCopy(context.Background(), brief.ID); err != nil {
		t.Fatalf("confirm copy: %v", err)
	}

	reply, err := svc.AddChatMessage(context.Background(), brief.ID, "Can we change it?")
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if reply.Proposal != nil {
		t.Fatalf("expected no applied proposal after confirmation")
	}
	if reply.Brief.Headline != testConfirmedCopy().Headline {
		t.Fatalf("expected confirmed copy untouched, got %q", reply.Brief.Headline)
	}
	if reply.Brief.Status != types.BriefStatusCopyConfirmed {
		t.Fatalf("expected status unchanged, got %q", reply.Brief.Status)
	}
}
