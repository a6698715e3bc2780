package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/brandpilot/brandpilot-backend/internal/logger"
	"github.com/brandpilot/brandpilot-backend/internal/types"
)

const qualityPassThreshold = 6.0

// QualityCheckResult is the parsed verdict for one generated image.
type QualityCheckResult struct {
	BrandAlignment    float64  `json:"brand_alignment"`
	Readability       float64  `json:"readability"`
	PlatformFit       float64  `json:"platform_fit"`
	ComplianceRisk    string   `json:"compliance_risk"`
	Issues            []string `json:"issues"`
	NeedsRegeneration bool     `json:"needs_regeneration"`
	Suggestions       []string `json:"suggestions"`
	PassesQuality     bool     `json:"passes_quality"`
}

// PackScores is the aggregate over all assets of a pack.
type PackScores struct {
	AvgBrandAlignment float64
	AvgReadability    float64
	AvgPlatformFit    float64
	ComplianceStatus  string
}

type QualityCheckerService interface {
	// CheckImageQuality never returns an error: an unreachable scoring model
	// degrades to a neutral pass so generation is never blocked by QA.
	CheckImageQuality(ctx context.Context, imageURL string, brand *types.BrandMemory, adCopy ConfirmedCopy, aspectRatio string) *QualityCheckResult
	CalculatePackScores(assets []*types.CreativeAsset) PackScores
}

type qualityCheckerService struct {
	log *logger.Logger
	ai  OpenAIClient
}

func NewQualityCheckerService(log *logger.Logger, ai OpenAIClient) QualityCheckerService {
	return &qualityCheckerService{
		log: log.With("service", "QualityCheckerService"),
		ai:  ai,
	}
}

const qualityCheckSystemPrompt = "You are a strict advertising creative reviewer. " +
	"Evaluate the provided ad image against the rubric and respond with ONLY a JSON object, no prose, no markdown. " +
	`The JSON shape is {"brand_alignment": 0-10, "readability": 0-10, "platform_fit": 0-10, ` +
	`"compliance_risk": "low"|"medium"|"high", "issues": [string], "needs_regeneration": bool, "suggestions": [string]}.`

func (s *qualityCheckerService) CheckImageQuality(ctx context.Context, imageURL string, brand *types.BrandMemory, adCopy ConfirmedCopy, aspectRatio string) *QualityCheckResult {
	rubric := buildQualityRubric(brand, adCopy, aspectRatio)

	raw, err := s.ai.ChatVision(ctx, qualityCheckSystemPrompt, rubric, imageURL)
	if err != nil {
		s.log.Warn("Quality check call failed, passing through neutral scores", "error", err)
		return neutralQualityResult()
	}

	result, err := parseQualityVerdict(raw)
	if err != nil {
		s.log.Warn("Quality verdict unparseable, passing through neutral scores", "error", err)
		return neutralQualityResult()
	}
	return result
}

func buildQualityRubric(brand *types.BrandMemory, adCopy ConfirmedCopy, aspectRatio string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Brand: %s\n", brand.BrandName)
	fmt.Fprintf(&b, "Expected headline: %q\n", adCopy.Headline)
	fmt.Fprintf(&b, "Expected call-to-action: %q\n", adCopy.CTAText)
	if colors := formatColorList(brand); colors != "" {
		fmt.Fprintf(&b, "Brand colors: %s\n", colors)
	}
	fmt.Fprintf(&b, "Layout style: %s\n", brand.LayoutStyle)
	fmt.Fprintf(&b, "Aspect ratio: %s\n", aspectRatio)
	b.WriteString("Score brand_alignment (palette, style, tone fit), readability (is the headline legible and correct), ")
	b.WriteString("and platform_fit (composition suits the aspect ratio). Flag compliance_risk for claims, prohibited content, or trademark issues.")
	return b.String()
}

// neutralQualityResult is the fail-open verdict: generation proceeds unscored
// rather than blocked when the scoring model is unreachable.
func neutralQualityResult() *QualityCheckResult {
	return &QualityCheckResult{
		BrandAlignment: 5,
		Readability:    5,
		PlatformFit:    5,
		ComplianceRisk: types.ComplianceRiskLow,
		Issues:         []string{"Quality check could not be completed"},
		PassesQuality:  true,
	}
}

func parseQualityVerdict(raw string) (*QualityCheckResult, error) {
	cleaned := stripCodeFences(raw)

	var verdict struct {
		BrandAlignment    float64  `json:"brand_alignment"`
		Readability       float64  `json:"readability"`
		PlatformFit       float64  `json:"platform_fit"`
		ComplianceRisk    string   `json:"compliance_risk"`
		Issues            []string `json:"issues"`
		NeedsRegeneration bool     `json:"needs_regeneration"`
		Suggestions       []string `json:"suggestions"`
	}
	if err := json.Unmarshal([]byte(cleaned), &verdict); err != nil {
		return nil, fmt.Errorf("parse quality verdict: %w", err)
	}

	risk := strings.ToLower(strings.TrimSpace(verdict.ComplianceRisk))
	switch risk {
	case types.ComplianceRiskLow, types.ComplianceRiskMedium, types.ComplianceRiskHigh:
	default:
		risk = types.ComplianceRiskLow
	}

	result := &QualityCheckResult{
		BrandAlignment:    clampScore(verdict.BrandAlignment),
		Readability:       clampScore(verdict.Readability),
		PlatformFit:       clampScore(verdict.PlatformFit),
		ComplianceRisk:    risk,
		Issues:            verdict.Issues,
		NeedsRegeneration: verdict.NeedsRegeneration,
		Suggestions:       verdict.Suggestions,
	}
	result.PassesQuality = passesQuality(result.BrandAlignment, result.Readability, result.PlatformFit, result.ComplianceRisk)
	return result, nil
}

// passesQuality is the sole gate between completed and flagged asset status.
func passesQuality(brandAlignment, readability, platformFit float64, complianceRisk string) bool {
	if complianceRisk == types.ComplianceRiskHigh {
		return false
	}
	return brandAlignment >= qualityPassThreshold &&
		readability >= qualityPassThreshold &&
		platformFit >= qualityPassThreshold
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 10 {
		return 10
	}
	return v
}

func stripCodeFences(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}
	return s
}

// CalculatePackScores averages per-asset scores to one decimal and derives
// the pack compliance status: flagged as soon as any asset carries medium or
// high risk.
func (s *qualityCheckerService) CalculatePackScores(assets []*types.CreativeAsset) PackScores {
	if len(assets) == 0 {
		return PackScores{ComplianceStatus: types.ComplianceStatusPending}
	}

	var sumBrand, sumRead, sumFit float64
	flagged := false
	for _, a := range assets {
		sumBrand += a.BrandAlignmentScore
		sumRead += a.ReadabilityScore
		sumFit += a.PlatformFitScore
		if a.ComplianceRisk == types.ComplianceRiskMedium || a.ComplianceRisk == types.ComplianceRiskHigh {
			flagged = true
		}
	}

	n := float64(len(assets))
	status := types.ComplianceStatusPassed
	if flagged {
		status = types.ComplianceStatusFlagged
	}
	return PackScores{
		AvgBrandAlignment: round1(sumBrand / n),
		AvgReadability:    round1(sumRead / n),
		AvgPlatformFit:    round1(sumFit / n),
		ComplianceStatus:  status,
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
