package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/brandpilot/brandpilot-backend/internal/types"
)

func TestPassesQuality_Boundaries(t *testing.T) {
	tests := []struct {
		name           string
		brandAlignment float64
		readability    float64
		platformFit    float64
		risk           string
		want           bool
	}{
		{"all at threshold", 6, 6, 6, types.ComplianceRiskLow, true},
		{"one below threshold", 5, 10, 10, types.ComplianceRiskLow, false},
		{"high risk overrides scores", 10, 10, 10, types.ComplianceRiskHigh, false},
		{"medium risk passes", 7, 7, 7, types.ComplianceRiskMedium, true},
		{"all zero", 0, 0, 0, types.ComplianceRiskLow, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := passesQuality(tt.brandAlignment, tt.readability, tt.platformFit, tt.risk)
			if got != tt.want {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestCheckImageQuality_ParsesVerdict(t *testing.T) {
	ai := &fakeAIClient{
		visionReply: `{"brand_alignment": 8, "readability": 7.5, "platform_fit": 9, "compliance_risk": "low", "issues": [], "needs_regeneration": false, "suggestions": ["tighten crop"]}`,
	}
	qc := NewQualityCheckerService(testLogger(t), ai)

	result := qc.CheckImageQuality(context.Background(), "https://cdn.test/x.png", testBrandMemory(), testConfirmedCopy(), types.AspectRatioSquare)
	if result.BrandAlignment != 8 || result.Readability != 7.5 || result.PlatformFit != 9 {
		t.Fatalf("unexpected scores: %+v", result)
	}
	if !result.PassesQuality {
		t.Fatalf("expected passing verdict")
	}
}

func TestCheckImageQuality_StripsCodeFences(t *testing.T) {
	ai := &fakeAIClient{
		visionReply: "```json\n{\"brand_alignment\": 6, \"readability\": 6, \"platform_fit\": 6, \"compliance_risk\": \"low\"}\n```",
	}
	qc := NewQualityCheckerService(testLogger(t), ai)

	result := qc.CheckImageQuality(context.Background(), "https://cdn.test/x.png", testBrandMemory(), testConfirmedCopy(), types.AspectRatioSquare)
	if result.BrandAlignment != 6 {
		t.Fatalf("expected fenced JSON to parse, got %+v", result)
	}
}

func TestCheckImageQuality_FailsOpenOnProviderError(t *testing.T) {
	ai := &fakeAIClient{visionErr: fmt.Errorf("model unavailable")}
	qc := NewQualityCheckerService(testLogger(t), ai)

	result := qc.CheckImageQuality(context.Background(), "https://cdn.test/x.png", testBrandMemory(), testConfirmedCopy(), types.AspectRatioSquare)
	if !result.PassesQuality {
		t.Fatalf("expected fail-open pass")
	}
	if result.BrandAlignment != 5 || result.Readability != 5 || result.PlatformFit != 5 {
		t.Fatalf("expected neutral scores, got %+v", result)
	}
	if len(result.Issues) != 1 || result.Issues[0] != "Quality check could not be completed" {
		t.Fatalf("expected neutral issue marker, got %v", result.Issues)
	}
}

func TestCheckImageQuality_FailsOpenOnGarbageReply(t *testing.T) {
	ai := &fakeAIClient{visionReply: "I think the image looks great overall!"}
	qc := NewQualityCheckerService(testLogger(t), ai)

	result := qc.CheckImageQuality(context.Background(), "https://cdn.test/x.png", testBrandMemory(), testConfirmedCopy(), types.AspectRatioSquare)
	if !result.PassesQuality || result.BrandAlignment != 5 {
		t.Fatalf("expected neutral verdict for unparseable reply, got %+v", result)
	}
}

func TestCheckImageQuality_ClampsAndNormalizes(t *testing.T) {
	ai := &fakeAIClient{
		visionReply: `{"brand_alignment": 14, "readability": -2, "platform_fit": 8, "compliance_risk": "CRITICAL"}`,
	}
	qc := NewQualityCheckerService(testLogger(t), ai)

	result := qc.CheckImageQuality(context.Background(), "https://cdn.test/x.png", testBrandMemory(), testConfirmedCopy(), types.AspectRatioSquare)
	if result.BrandAlignment != 10 || result.Readability != 0 {
		t.Fatalf("expected clamped scores, got %+v", result)
	}
	if result.ComplianceRisk != types.ComplianceRiskLow {
		t.Fatalf("expected unknown risk normalized to low, got %q", result.ComplianceRisk)
	}
}

func TestCalculatePackScores_AveragesAndFlags(t *testing.T) {
	qc := NewQualityCheckerService(testLogger(t), &fakeAIClient{})

	assets := []*types.CreativeAsset{
		{BrandAlignmentScore: 8, ReadabilityScore: 7, PlatformFitScore: 9, ComplianceRisk: types.ComplianceRiskLow},
		{BrandAlignmentScore: 4, ReadabilityScore: 9, PlatformFitScore: 9, ComplianceRisk: types.ComplianceRiskMedium},
	}
	scores := qc.CalculatePackScores(assets)
	if scores.AvgBrandAlignment != 6.0 {
		t.Fatalf("expected avg brand alignment 6.0, got %v", scores.AvgBrandAlignment)
	}
	if scores.AvgReadability != 8.0 {
		t.Fatalf("expected avg readability 8.0, got %v", scores.AvgReadability)
	}
	if scores.AvgPlatformFit != 9.0 {
		t.Fatalf("expected avg platform fit 9.0, got %v", scores.AvgPlatformFit)
	}
	if scores.ComplianceStatus != types.ComplianceStatusFlagged {
		t.Fatalf("expected flagged status, got %q", scores.ComplianceStatus)
	}
}

func TestCalculatePackScores_AllLowRiskPasses(t *testing.T) {
	qc := NewQualityCheckerService(testLogger(t), &fakeAIClient{})

	assets := []*types.CreativeAsset{
		{BrandAlignmentScore: 7, ReadabilityScore: 7, PlatformFitScore: 7, ComplianceRisk: types.ComplianceRiskLow},
		{BrandAlignmentScore: 8, ReadabilityScore: 8, PlatformFitScore: 8, ComplianceRisk: types.ComplianceRiskLow},
	}
	scores := qc.CalculatePackScores(assets)
	if scores.ComplianceStatus != types.ComplianceStatusPassed {
		t.Fatalf("expected passed status, got %q", scores.ComplianceStatus)
	}
	if scores.AvgBrandAlignment != 7.5 {
		t.Fatalf("expected 7.5, got %v", scores.AvgBrandAlignment)
	}
}

func TestCalculatePackScores_EmptyPackIsPending(t *testing.T) {
	qc := NewQualityCheckerService(testLogger(t), &fakeAIClient{})

	scores := qc.CalculatePackScores(nil)
	if scores.ComplianceStatus != types.ComplianceStatusPending {
		t.Fatalf("expected pending status, got %q", scores.ComplianceStatus)
	}
	if scores.AvgBrandAlignment != 0 || scores.AvgReadability != 0 || scores.AvgPlatformFit != 0 {
		t.Fatalf("expected zero averages, got %+v", scores)
	}
}
