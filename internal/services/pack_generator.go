package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/brandpilot/brandpilot-backend/internal/logger"
	"github.com/brandpilot/brandpilot-backend/internal/repos"
	"github.com/brandpilot/brandpilot-backend/internal/sse"
	"github.com/brandpilot/brandpilot-backend/internal/types"
)

type GeneratePackInput struct {
	BriefID  uuid.UUID
	OrgID    uuid.UUID
	Provider string // "openai" (default) or "gemini"
	Name     string
}

// GenerationResult is the single shape every generation entry point returns;
// failures are carried in Error instead of propagating.
type GenerationResult struct {
	Success bool                   `json:"success"`
	Error   string                 `json:"error,omitempty"`
	PackID  uuid.UUID              `json:"pack_id,omitempty"`
	BriefID uuid.UUID              `json:"brief_id,omitempty"`
	Assets  []*types.CreativeAsset `json:"assets,omitempty"`
}

// PackGeneratorService orchestrates a full creative pack run: gate check,
// brand-memory pinning, 3x3 prompt fan-out, bounded-concurrency asset
// generation with per-asset quality scoring, and aggregate pack scoring.
// Individual asset failures never abort the batch; only setup failures flip
// the brief to failed.
type PackGeneratorService interface {
	GenerateCreativePack(ctx context.Context, input GeneratePackInput) *GenerationResult
	RegenerateDirection(ctx context.Context, orgID, packID uuid.UUID, direction string) *GenerationResult
	RegenerateAsset(ctx context.Context, orgID, assetID uuid.UUID) *GenerationResult
}

type packGeneratorService struct {
	db  *gorm.DB
	log *logger.Logger

	sseHub *sse.SSEHub

	briefRepo  repos.CreativeBriefRepo
	memoryRepo repos.BrandMemoryRepo
	packRepo   repos.CreativePackRepo
	assetRepo  repos.CreativeAssetRepo
	usageRepo  repos.AICallLogRepo

	prompts PromptBuilderService
	quality QualityCheckerService
	bucket  BucketService

	providers       map[string]ImageProvider
	defaultProvider string
	concurrency     int
}

func NewPackGeneratorService(
	db *gorm.DB,
	baseLog *logger.Logger,
	sseHub *sse.SSEHub,
	briefRepo repos.CreativeBriefRepo,
	memoryRepo repos.BrandMemoryRepo,
	packRepo repos.CreativePackRepo,
	assetRepo repos.CreativeAssetRepo,
	usageRepo repos.AICallLogRepo,
	prompts PromptBuilderService,
	quality QualityCheckerService,
	bucket BucketService,
	providers map[string]ImageProvider,
	defaultProvider string,
	concurrency int,
) PackGeneratorService {
	if concurrency <= 0 {
		concurrency = 3
	}
	return &packGeneratorService{
		db:              db,
		log:             baseLog.With("service", "PackGeneratorService"),
		sseHub:          sseHub,
		briefRepo:       briefRepo,
		memoryRepo:      memoryRepo,
		packRepo:        packRepo,
		assetRepo:       assetRepo,
		usageRepo:       usageRepo,
		prompts:         prompts,
		quality:         quality,
		bucket:          bucket,
		providers:       providers,
		defaultProvider: defaultProvider,
		concurrency:     concurrency,
	}
}

func failResult(briefID uuid.UUID, err error) *GenerationResult {
	return &GenerationResult{Success: false, BriefID: briefID, Error: err.Error()}
}

func (s *packGeneratorService) provider(name string) (ImageProvider, error) {
	if name == "" {
		name = s.defaultProvider
	}
	p, ok := s.providers[name]
	if !ok || p == nil {
		return nil, fmt.Errorf("unknown image provider %q", name)
	}
	return p, nil
}

func (s *packGeneratorService) GenerateCreativePack(ctx context.Context, input GeneratePackInput) *GenerationResult {
	brief, err := s.briefRepo.GetByID(ctx, nil, input.BriefID)
	if err != nil {
		return failResult(input.BriefID, err)
	}
	if brief == nil || brief.OrgID != input.OrgID {
		return failResult(input.BriefID, fmt.Errorf("brief not found"))
	}

	if ok, reason := canGenerateCreatives(brief); !ok {
		return failResult(brief.ID, fmt.Errorf("%s", reason))
	}

	// The gate guarantees complete copy; this is the defensive re-check.
	if !brief.HasCompleteCopy() {
		return failResult(brief.ID, fmt.Errorf("confirmed copy is incomplete"))
	}
	adCopy := ConfirmedCopy{
		Headline:    brief.Headline,
		PrimaryText: brief.PrimaryText,
		CTAText:     brief.CTAText,
	}

	brand, err := s.memoryRepo.GetActive(ctx, nil, brief.OrgID)
	if err != nil {
		return failResult(brief.ID, err)
	}
	if brand == nil {
		return failResult(brief.ID, fmt.Errorf("brand memory not found"))
	}

	provider, err := s.provider(input.Provider)
	if err != nil {
		return failResult(brief.ID, err)
	}

	if err := s.briefRepo.UpdateFields(ctx, nil, brief.ID, map[string]interface{}{
		"status": types.BriefStatusGenerating,
	}); err != nil {
		return failResult(brief.ID, err)
	}

	// Everything past this point flips the brief to failed on error.
	fail := func(err error) *GenerationResult {
		s.log.Error("Pack generation failed", "brief_id", brief.ID, "error", err)
		_ = s.briefRepo.UpdateFields(ctx, nil, brief.ID, map[string]interface{}{
			"status": types.BriefStatusFailed,
		})
		s.broadcast(brief.OrgID, sse.SSEEventPackGenerationFailed, map[string]any{
			"brief_id": brief.ID,
			"error":    err.Error(),
		})
		return failResult(brief.ID, err)
	}

	name := input.Name
	if name == "" {
		name = brief.Name + " pack"
	}

	now := time.Now().UTC()
	genConfig, _ := json.Marshal(map[string]any{
		"provider":        provider.Name(),
		"concurrency":     s.concurrency,
		"style_direction": brief.StyleDirection,
	})
	pack := &types.CreativePack{
		ID:                 uuid.New(),
		OrgID:              brief.OrgID,
		BriefID:            brief.ID,
		BrandMemoryVersion: brand.Version,
		Name:               name,
		Status:             types.PackStatusGenerating,
		ModelUsed:          provider.Model(),
		GenerationConfig:   datatypes.JSON(genConfig),
		ComplianceStatus:   types.ComplianceStatusPending,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if _, err := s.packRepo.Create(ctx, nil, pack); err != nil {
		return fail(fmt.Errorf("create pack: %w", err))
	}

	s.broadcast(brief.OrgID, sse.SSEEventPackGenerationStarted, map[string]any{
		"pack_id":  pack.ID,
		"brief_id": brief.ID,
	})

	prompts := s.prompts.BuildPackPrompts(brand, adCopy, brief.StyleDirection)

	assets, err := s.createAssetRows(ctx, pack, brief, adCopy, prompts)
	if err != nil {
		return fail(fmt.Errorf("create asset rows: %w", err))
	}

	s.runAssetLoop(ctx, pack, brand, adCopy, provider, assets, prompts)

	if err := s.finalizePack(ctx, pack); err != nil {
		return fail(err)
	}

	if err := s.briefRepo.UpdateFields(ctx, nil, brief.ID, map[string]interface{}{
		"status": types.BriefStatusCompleted,
	}); err != nil {
		return fail(err)
	}

	s.recordUsage(ctx, pack, provider, len(assets))

	final, err := s.assetRepo.ListByPack(ctx, nil, pack.ID)
	if err != nil {
		return fail(err)
	}

	s.broadcast(brief.OrgID, sse.SSEEventPackGenerationDone, map[string]any{
		"pack_id":  pack.ID,
		"brief_id": brief.ID,
	})

	return &GenerationResult{Success: true, PackID: pack.ID, BriefID: brief.ID, Assets: final}
}

// RegenerateDirection replaces one direction's three assets. It pins the
// pack's captured brand memory version rather than re-reading the active one,
// so regenerated assets share brand context with their siblings.
func (s *packGeneratorService) RegenerateDirection(ctx context.Context, orgID, packID uuid.UUID, direction string) *GenerationResult {
	pack, err := s.packRepo.GetByID(ctx, nil, packID)
	if err != nil {
		return failResult(uuid.Nil, err)
	}
	if pack == nil || pack.OrgID != orgID {
		return failResult(uuid.Nil, fmt.Errorf("pack not found"))
	}

	brief, err := s.briefRepo.GetByID(ctx, nil, pack.BriefID)
	if err != nil {
		return failResult(pack.BriefID, err)
	}
	if brief == nil {
		return failResult(pack.BriefID, fmt.Errorf("brief not found"))
	}
	if ok, reason := canGenerateCreatives(brief); !ok {
		return failResult(brief.ID, fmt.Errorf("%s", reason))
	}
	adCopy := ConfirmedCopy{
		Headline:    brief.Headline,
		PrimaryText: brief.PrimaryText,
		CTAText:     brief.CTAText,
	}

	brand, err := s.memoryRepo.GetVersion(ctx, nil, pack.OrgID, pack.BrandMemoryVersion)
	if err != nil {
		return failResult(brief.ID, err)
	}
	if brand == nil {
		return failResult(brief.ID, fmt.Errorf("brand memory version %d not found", pack.BrandMemoryVersion))
	}

	provider, err := s.provider(s.packProviderName(pack))
	if err != nil {
		return failResult(brief.ID, err)
	}

	prompts, err := s.prompts.BuildDirectionPrompts(brand, adCopy, direction, brief.StyleDirection)
	if err != nil {
		return failResult(brief.ID, err)
	}

	if err := s.assetRepo.DeleteByPackDirection(ctx, nil, pack.ID, direction); err != nil {
		return failResult(brief.ID, fmt.Errorf("delete direction assets: %w", err))
	}

	assets, err := s.createAssetRows(ctx, pack, brief, adCopy, prompts)
	if err != nil {
		return failResult(brief.ID, fmt.Errorf("create asset rows: %w", err))
	}

	s.runAssetLoop(ctx, pack, brand, adCopy, provider, assets, prompts)

	if err := s.finalizePack(ctx, pack); err != nil {
		return failResult(brief.ID, err)
	}

	s.recordUsage(ctx, pack, provider, len(assets))

	final, err := s.assetRepo.ListByPack(ctx, nil, pack.ID)
	if err != nil {
		return failResult(brief.ID, err)
	}
	return &GenerationResult{Success: true, PackID: pack.ID, BriefID: brief.ID, Assets: final}
}

// RegenerateAsset re-runs the single-asset procedure for one slot, keeping
// the row (and its attempt counter) in place.
func (s *packGeneratorService) RegenerateAsset(ctx context.Context, orgID, assetID uuid.UUID) *GenerationResult {
	asset, err := s.assetRepo.GetByID(ctx, nil, assetID)
	if err != nil {
		return failResult(uuid.Nil, err)
	}
	if asset == nil {
		return failResult(uuid.Nil, fmt.Errorf("asset not found"))
	}

	pack, err := s.packRepo.GetByID(ctx, nil, asset.PackID)
	if err != nil {
		return failResult(asset.BriefID, err)
	}
	// Tenant check happens here, not in the handler: the asset id is the only
	// thing the route carries, so ownership can only be resolved via its pack.
	if pack == nil || pack.OrgID != orgID {
		return failResult(asset.BriefID, fmt.Errorf("asset not found"))
	}

	brief, err := s.briefRepo.GetByID(ctx, nil, pack.BriefID)
	if err != nil {
		return failResult(pack.BriefID, err)
	}
	if brief == nil {
		return failResult(pack.BriefID, fmt.Errorf("brief not found"))
	}
	if ok, reason := canGenerateCreatives(brief); !ok {
		return failResult(brief.ID, fmt.Errorf("%s", reason))
	}
	adCopy := ConfirmedCopy{
		Headline:    brief.Headline,
		PrimaryText: brief.PrimaryText,
		CTAText:     brief.CTAText,
	}

	brand, err := s.memoryRepo.GetVersion(ctx, nil, pack.OrgID, pack.BrandMemoryVersion)
	if err != nil {
		return failResult(brief.ID, err)
	}
	if brand == nil {
		return failResult(brief.ID, fmt.Errorf("brand memory version %d not found", pack.BrandMemoryVersion))
	}

	provider, err := s.provider(s.packProviderName(pack))
	if err != nil {
		return failResult(brief.ID, err)
	}

	dir, ok := DirectionByKey(asset.Direction)
	if !ok {
		return failResult(brief.ID, fmt.Errorf("unknown direction %q", asset.Direction))
	}
	prompt := PackPrompt{
		Direction:      dir,
		AspectRatio:    asset.AspectRatio,
		Prompt:         s.prompts.BuildImagePrompt(ImagePromptContext{Brand: brand, Copy: adCopy, Direction: dir, AspectRatio: asset.AspectRatio, StyleDirection: brief.StyleDirection}),
		NegativePrompt: s.prompts.BuildNegativePrompt(brand),
	}

	if err := s.assetRepo.UpdateFields(ctx, nil, asset.ID, map[string]interface{}{
		"status":     types.AssetStatusGenerating,
		"error":      "",
		"result_url": "",
	}); err != nil {
		return failResult(brief.ID, err)
	}

	if err := s.generateAsset(ctx, pack, brand, adCopy, provider, asset, prompt); err != nil {
		s.log.Warn("Asset regeneration failed", "asset_id", asset.ID, "error", err)
	}

	if err := s.finalizePack(ctx, pack); err != nil {
		return failResult(brief.ID, err)
	}

	s.recordUsage(ctx, pack, provider, 1)

	final, err := s.assetRepo.ListByPack(ctx, nil, pack.ID)
	if err != nil {
		return failResult(brief.ID, err)
	}
	return &GenerationResult{Success: true, PackID: pack.ID, BriefID: brief.ID, Assets: final}
}

func (s *packGeneratorService) packProviderName(pack *types.CreativePack) string {
	var cfg struct {
		Provider string `json:"provider"`
	}
	if len(pack.GenerationConfig) > 0 {
		_ = json.Unmarshal(pack.GenerationConfig, &cfg)
	}
	return cfg.Provider
}

func (s *packGeneratorService) createAssetRows(ctx context.Context, pack *types.CreativePack, brief *types.CreativeBrief, adCopy ConfirmedCopy, prompts []PackPrompt) ([]*types.CreativeAsset, error) {
	now := time.Now().UTC()
	rows := make([]*types.CreativeAsset, 0, len(prompts))
	for _, p := range prompts {
		rows = append(rows, &types.CreativeAsset{
			ID:             uuid.New(),
			PackID:         pack.ID,
			BriefID:        brief.ID,
			Direction:      p.Direction.Key,
			DirectionName:  p.Direction.Name,
			AspectRatio:    p.AspectRatio,
			PromptUsed:     p.Prompt,
			NegativePrompt: p.NegativePrompt,
			HeadlineText:   adCopy.Headline,
			CTAText:        adCopy.CTAText,
			Status:         types.AssetStatusGenerating,
			ComplianceRisk: types.ComplianceRiskLow,
			QualityIssues:  datatypes.NewJSONSlice([]string{}),
			CreatedAt:      now,
			UpdatedAt:      now,
		})
	}
	return s.assetRepo.Create(ctx, nil, rows)
}

// runAssetLoop generates the given assets with bounded concurrency. Failures
// are recorded on the individual rows; the loop itself never errors.
func (s *packGeneratorService) runAssetLoop(ctx context.Context, pack *types.CreativePack, brand *types.BrandMemory, adCopy ConfirmedCopy, provider ImageProvider, assets []*types.CreativeAsset, prompts []PackPrompt) {
	total := len(assets)
	var done atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i := range assets {
		asset := assets[i]
		prompt := prompts[i]
		g.Go(func() error {
			if err := s.generateAsset(gctx, pack, brand, adCopy, provider, asset, prompt); err != nil {
				s.log.Warn("Asset generation failed",
					"pack_id", pack.ID,
					"asset_id", asset.ID,
					"direction", asset.Direction,
					"aspect_ratio", asset.AspectRatio,
					"error", err,
				)
			}
			s.broadcast(pack.OrgID, sse.SSEEventPackGenerationProgress, map[string]any{
				"pack_id":   pack.ID,
				"completed": done.Add(1),
				"total":     total,
			})
			return nil
		})
	}
	_ = g.Wait()
}

func (s *packGeneratorService) generateAsset(ctx context.Context, pack *types.CreativePack, brand *types.BrandMemory, adCopy ConfirmedCopy, provider ImageProvider, asset *types.CreativeAsset, prompt PackPrompt) error {
	markFailed := func(err error) error {
		_ = s.assetRepo.UpdateFields(ctx, nil, asset.ID, map[string]interface{}{
			"status":              types.AssetStatusFailed,
			"error":               err.Error(),
			"generation_attempts": asset.GenerationAttempts + 1,
		})
		return err
	}

	img, err := provider.GenerateImage(ctx, prompt.Prompt, prompt.NegativePrompt, prompt.AspectRatio)
	if err != nil {
		return markFailed(fmt.Errorf("image generation: %w", err))
	}

	key := assetStorageKey(pack.ID, asset)
	var publicURL string
	if img.B64 != "" {
		publicURL, err = s.bucket.UploadBase64(ctx, key, img.B64, img.MimeType)
	} else {
		publicURL, err = s.bucket.UploadFromURL(ctx, key, img.URL)
	}
	if err != nil {
		return markFailed(fmt.Errorf("upload asset: %w", err))
	}

	verdict := s.quality.CheckImageQuality(ctx, publicURL, brand, adCopy, asset.AspectRatio)

	status := types.AssetStatusCompleted
	if !verdict.PassesQuality {
		status = types.AssetStatusFlagged
	}
	issues := verdict.Issues
	if issues == nil {
		issues = []string{}
	}

	return s.assetRepo.UpdateFields(ctx, nil, asset.ID, map[string]interface{}{
		"status":                status,
		"result_url":            publicURL,
		"model_used":            img.Model,
		"brand_alignment_score": verdict.BrandAlignment,
		"readability_score":     verdict.Readability,
		"platform_fit_score":    verdict.PlatformFit,
		"compliance_risk":       verdict.ComplianceRisk,
		"quality_issues":        datatypes.NewJSONSlice(issues),
		"generation_attempts":   asset.GenerationAttempts + 1,
	})
}

// finalizePack recomputes aggregates from every asset the pack currently has
// (partial results included) and marks the pack completed.
func (s *packGeneratorService) finalizePack(ctx context.Context, pack *types.CreativePack) error {
	assets, err := s.assetRepo.ListByPack(ctx, nil, pack.ID)
	if err != nil {
		return fmt.Errorf("load pack assets: %w", err)
	}
	scores := s.quality.CalculatePackScores(assets)
	return s.packRepo.UpdateFields(ctx, nil, pack.ID, map[string]interface{}{
		"status":              types.PackStatusCompleted,
		"avg_brand_alignment": scores.AvgBrandAlignment,
		"avg_readability":     scores.AvgReadability,
		"avg_platform_fit":    scores.AvgPlatformFit,
		"compliance_status":   scores.ComplianceStatus,
	})
}

func (s *packGeneratorService) recordUsage(ctx context.Context, pack *types.CreativePack, provider ImageProvider, units int) {
	row := &types.AICallLog{
		ID:        uuid.New(),
		OrgID:     pack.OrgID,
		BriefID:   &pack.BriefID,
		PackID:    &pack.ID,
		Provider:  provider.Name(),
		Kind:      types.AICallKindImage,
		Model:     provider.Model(),
		Units:     units,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := s.usageRepo.Create(ctx, nil, []*types.AICallLog{row}); err != nil {
		s.log.Warn("Failed to record AI usage", "pack_id", pack.ID, "error", err)
	}
}

func (s *packGeneratorService) broadcast(orgID uuid.UUID, event sse.SSEEvent, data map[string]any) {
	if s.sseHub == nil {
		return
	}
	s.sseHub.Broadcast(sse.SSEMessage{
		Channel: orgID.String(),
		Event:   event,
		Data:    data,
	})
}

func assetStorageKey(packID uuid.UUID, asset *types.CreativeAsset) string {
	ratio := strings.ReplaceAll(asset.AspectRatio, ":", "x")
	return fmt.Sprintf("creative-packs/%s/%s-%s-%s.png", packID, strings.ToLower(asset.Direction), ratio, asset.ID)
}
