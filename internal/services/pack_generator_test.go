package services

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/brandpilot/brandpilot-backend/internal/repos"
	"github.com/brandpilot/brandpilot-backend/internal/sse"
	"github.com/brandpilot/brandpilot-backend/internal/types"
)

type packFixture struct {
	db        *gorm.DB
	orgID     uuid.UUID
	svc       PackGeneratorService
	memory    BrandMemoryService
	workflow  BriefWorkflowService
	briefRepo repos.CreativeBriefRepo
	packRepo  repos.CreativePackRepo
	assetRepo repos.CreativeAssetRepo
	provider  *fakeImageProvider
	bucket    *fakeBucket
	quality   *fakeQualityChecker
}

func newPackFixture(t *testing.T) *packFixture {
	t.Helper()
	db := testDB(t)
	log := testLogger(t)

	briefRepo := repos.NewCreativeBriefRepo(db, log)
	memoryRepo := repos.NewBrandMemoryRepo(db, log)
	kitRepo := repos.NewBrandKitRepo(db, log)
	packRepo := repos.NewCreativePackRepo(db, log)
	assetRepo := repos.NewCreativeAssetRepo(db, log)
	usageRepo := repos.NewAICallLogRepo(db, log)

	provider := &fakeImageProvider{}
	bucket := &fakeBucket{}
	quality := &fakeQualityChecker{
		verdict: QualityCheckResult{
			BrandAlignment: 8,
			Readability:    7,
			PlatformFit:    9,
			ComplianceRisk: types.ComplianceRiskLow,
			PassesQuality:  true,
		},
	}

	svc := NewPackGeneratorService(
		db,
		log,
		sse.NewSSEHub(log),
		briefRepo,
		memoryRepo,
		packRepo,
		assetRepo,
		usageRepo,
		NewPromptBuilderService(),
		quality,
		bucket,
		map[string]ImageProvider{"fake": provider},
		"fake",
		3,
	)

	return &packFixture{
		db:        db,
		orgID:     uuid.New(),
		svc:       svc,
		memory:    NewBrandMemoryService(db, log, memoryRepo, kitRepo),
		workflow:  NewBriefWorkflowService(db, log, briefRepo, memoryRepo, usageRepo, &fakeAIClient{}),
		briefRepo: briefRepo,
		packRepo:  packRepo,
		assetRepo: assetRepo,
		provider:  provider,
		bucket:    bucket,
		quality:   quality,
	}
}

func (f *packFixture) seedBrandMemory(t *testing.T, brandName string) {
	t.Helper()
	if _, err := f.memory.Create(context.Background(), f.orgID, BrandMemoryInput{BrandName: brandName}); err != nil {
		t.Fatalf("seed brand memory: %v", err)
	}
}

func (f *packFixture) seedConfirmedBrief(t *testing.T) *types.CreativeBrief {
	t.Helper()
	ctx := context.Background()
	brief, err := f.workflow.Create(ctx, CreateBriefInput{
		OrgID:  f.orgID,
		UserID: uuid.New(),
		Name:   "Spring launch",
	})
	if err != nil {
		t.Fatalf("create brief: %v", err)
	}
	if _, err := f.workflow.ProposeCopy(ctx, brief.ID, testConfirmedCopy()); err != nil {
		t.Fatalf("propose copy: %v", err)
	}
	confirmed, err := f.workflow.ConfirmCopy(ctx, brief.ID)
	if err != nil {
		t.Fatalf("confirm copy: %v", err)
	}
	return confirmed
}

func TestGenerateCreativePack_RejectsUnconfirmedBrief(t *testing.T) {
	f := newPackFixture(t)
	f.seedBrandMemory(t, "Acme Coffee")

	brief, err := f.workflow.Create(context.Background(), CreateBriefInput{
		OrgID:  f.orgID,
		UserID: uuid.New(),
		Name:   "Unconfirmed",
	})
	if err != nil {
		t.Fatalf("create brief: %v", err)
	}

	result := f.svc.GenerateCreativePack(context.Background(), GeneratePackInput{BriefID: brief.ID, OrgID: f.orgID})
	if result.Success {
		t.Fatalf("expected gate rejection")
	}
	if !strings.Contains(result.Error, "copy has not been confirmed") {
		t.Fatalf("unexpected error %q", result.Error)
	}

	packs, err := f.packRepo.ListByBrief(context.Background(), nil, brief.ID)
	if err != nil {
		t.Fatalf("list packs: %v", err)
	}
	if len(packs) != 0 {
		t.Fatalf("expected no pack rows, got %d", len(packs))
	}

	got, _ := f.briefRepo.GetByID(context.Background(), nil, brief.ID)
	if got.Status != types.BriefStatusIntake {
		t.Fatalf("expected brief status untouched, got %q", got.Status)
	}
}

func TestGenerateCreativePack_RequiresBrandMemory(t *testing.T) {
	f := newPackFixture(t)
	brief := f.seedConfirmedBrief(t)

	result := f.svc.GenerateCreativePack(context.Background(), GeneratePackInput{BriefID: brief.ID, OrgID: f.orgID})
	if result.Success {
		t.Fatalf("expected failure without brand memory")
	}
	if !strings.Contains(result.Error, "brand memory not found") {
		t.Fatalf("unexpected error %q", result.Error)
	}

	got, _ := f.briefRepo.GetByID(context.Background(), nil, brief.ID)
	if got.Status != types.BriefStatusCopyConfirmed {
		t.Fatalf("expected brief status untouched, got %q", got.Status)
	}
}

func TestGenerateCreativePack_NineAssetsAndAggregates(t *testing.T) {
	f := newPackFixture(t)
	f.seedBrandMemory(t, "Acme Coffee")
	brief := f.seedConfirmedBrief(t)
	ctx := context.Background()

	result := f.svc.GenerateCreativePack(ctx, GeneratePackInput{BriefID: brief.ID, OrgID: f.orgID})
	if !result.Success {
		t.Fatalf("expected success, got %q", result.Error)
	}
	if len(result.Assets) != 9 {
		t.Fatalf("expected 9 assets, got %d", len(result.Assets))
	}
	for _, a := range result.Assets {
		if a.Status != types.AssetStatusCompleted {
			t.Fatalf("expected completed asset, got %q (%s)", a.Status, a.Error)
		}
		if a.ResultURL == "" || !strings.HasPrefix(a.ResultURL, "https://cdn.test/") {
			t.Fatalf("expected uploaded result url, got %q", a.ResultURL)
		}
		if a.HeadlineText != testConfirmedCopy().Headline {
			t.Fatalf("expected headline snapshot, got %q", a.HeadlineText)
		}
	}

	pack, err := f.packRepo.GetByID(ctx, nil, result.PackID)
	if err != nil {
		t.Fatalf("load pack: %v", err)
	}
	if pack.Status != types.PackStatusCompleted {
		t.Fatalf("expected completed pack, got %q", pack.Status)
	}
	if pack.BrandMemoryVersion != 1 {
		t.Fatalf("expected pinned brand memory version 1, got %d", pack.BrandMemoryVersion)
	}
	if pack.AvgBrandAlignment != 8 || pack.AvgReadability != 7 || pack.AvgPlatformFit != 9 {
		t.Fatalf("unexpected aggregates %+v", pack)
	}
	if pack.ComplianceStatus != types.ComplianceStatusPassed {
		t.Fatalf("expected passed compliance, got %q", pack.ComplianceStatus)
	}

	got, _ := f.briefRepo.GetByID(ctx, nil, brief.ID)
	if got.Status != types.BriefStatusCompleted {
		t.Fatalf("expected completed brief, got %q", got.Status)
	}

	if n := f.provider.calls.Load(); n != 9 {
		t.Fatalf("expected 9 provider calls, got %d", n)
	}
	if n := f.bucket.uploads.Load(); n != 9 {
		t.Fatalf("expected 9 uploads, got %d", n)
	}
}

func TestGenerateCreativePack_PartialFailureStillCompletes(t *testing.T) {
	f := newPackFixture(t)
	f.provider.failCall = 5
	f.seedBrandMemory(t, "Acme Coffee")
	brief := f.seedConfirmedBrief(t)
	ctx := context.Background()

	result := f.svc.GenerateCreativePack(ctx, GeneratePackInput{BriefID: brief.ID, OrgID: f.orgID})
	if !result.Success {
		t.Fatalf("expected success despite one failed asset, got %q", result.Error)
	}

	completed, failed := 0, 0
	for _, a := range result.Assets {
		switch a.Status {
		case types.AssetStatusCompleted:
			completed++
		case types.AssetStatusFailed:
			failed++
			if a.Error == "" {
				t.Fatalf("expected error recorded on failed asset")
			}
		}
	}
	if completed != 8 || failed != 1 {
		t.Fatalf("expected 8 completed + 1 failed, got %d/%d", completed, failed)
	}

	pack, _ := f.packRepo.GetByID(ctx, nil, result.PackID)
	if pack.Status != types.PackStatusCompleted {
		t.Fatalf("expected pack completed with partial results, got %q", pack.Status)
	}
}

func TestGenerateCreativePack_FlaggedVerdict(t *testing.T) {
	f := newPackFixture(t)
	f.quality.verdict = QualityCheckResult{
		BrandAlignment: 4,
		Readability:    8,
		PlatformFit:    8,
		ComplianceRisk: types.ComplianceRiskMedium,
		Issues:         []string{"headline misspelled"},
		PassesQuality:  false,
	}
	f.seedBrandMemory(t, "Acme Coffee")
	brief := f.seedConfirmedBrief(t)

	result := f.svc.GenerateCreativePack(context.Background(), GeneratePackInput{BriefID: brief.ID, OrgID: f.orgID})
	if !result.Success {
		t.Fatalf("expected success, got %q", result.Error)
	}
	for _, a := range result.Assets {
		if a.Status != types.AssetStatusFlagged {
			t.Fatalf("expected flagged asset, got %q", a.Status)
		}
		if len(a.QualityIssues) != 1 {
			t.Fatalf("expected quality issues persisted, got %v", a.QualityIssues)
		}
	}

	pack, _ := f.packRepo.GetByID(context.Background(), nil, result.PackID)
	if pack.ComplianceStatus != types.ComplianceStatusFlagged {
		t.Fatalf("expected flagged compliance, got %q", pack.ComplianceStatus)
	}
}

func TestRegenerateDirection_PinsBrandMemoryVersion(t *testing.T) {
	f := newPackFixture(t)
	f.seedBrandMemory(t, "Acme Coffee")
	brief := f.seedConfirmedBrief(t)
	ctx := context.Background()

	first := f.svc.GenerateCreativePack(ctx, GeneratePackInput{BriefID: brief.ID, OrgID: f.orgID})
	if !first.Success {
		t.Fatalf("generate: %q", first.Error)
	}

	// A rebrand after generation must not leak into regenerated assets.
	newName := "Totally Rebranded Co"
	if _, err := f.memory.Update(ctx, f.orgID, BrandMemoryUpdate{BrandName: &newName}); err != nil {
		t.Fatalf("update memory: %v", err)
	}

	result := f.svc.RegenerateDirection(ctx, f.orgID, first.PackID, types.DirectionB)
	if !result.Success {
		t.Fatalf("regenerate: %q", result.Error)
	}
	if len(result.Assets) != 9 {
		t.Fatalf("expected full pack after regeneration, got %d assets", len(result.Assets))
	}

	for _, a := range result.Assets {
		if a.Direction != types.DirectionB {
			continue
		}
		if !strings.Contains(a.PromptUsed, "Acme Coffee") {
			t.Fatalf("expected prompt built from pinned version, got:\n%s", a.PromptUsed)
		}
		if strings.Contains(a.PromptUsed, newName) {
			t.Fatalf("regenerated prompt leaked the new brand memory version")
		}
	}

	pack, _ := f.packRepo.GetByID(ctx, nil, first.PackID)
	if pack.BrandMemoryVersion != 1 {
		t.Fatalf("expected version pin unchanged, got %d", pack.BrandMemoryVersion)
	}
}

func TestRegenerateDirection_ReplacesOnlyThatDirection(t *testing.T) {
	f := newPackFixture(t)
	f.seedBrandMemory(t, "Acme Coffee")
	brief := f.seedConfirmedBrief(t)
	ctx := context.Background()

	first := f.svc.GenerateCreativePack(ctx, GeneratePackInput{BriefID: brief.ID, OrgID: f.orgID})
	if !first.Success {
		t.Fatalf("generate: %q", first.Error)
	}
	originalIDs := map[uuid.UUID]string{}
	for _, a := range first.Assets {
		originalIDs[a.ID] = a.Direction
	}

	result := f.svc.RegenerateDirection(ctx, f.orgID, first.PackID, types.DirectionC)
	if !result.Success {
		t.Fatalf("regenerate: %q", result.Error)
	}

	for _, a := range result.Assets {
		dir, existed := originalIDs[a.ID]
		if a.Direction == types.DirectionC {
			if existed {
				t.Fatalf("expected direction C asset %s to be replaced", a.ID)
			}
		} else if !existed || dir != a.Direction {
			t.Fatalf("expected non-regenerated asset %s to survive", a.ID)
		}
	}
}

func TestRegenerateDirection_UnknownDirection(t *testing.T) {
	f := newPackFixture(t)
	f.seedBrandMemory(t, "Acme Coffee")
	brief := f.seedConfirmedBrief(t)
	ctx := context.Background()

	first := f.svc.GenerateCreativePack(ctx, GeneratePackInput{BriefID: brief.ID, OrgID: f.orgID})
	if !first.Success {
		t.Fatalf("generate: %q", first.Error)
	}

	result := f.svc.RegenerateDirection(ctx, f.orgID, first.PackID, "Z")
	if result.Success {
		t.Fatalf("expected unknown direction rejection")
	}
}

func TestRegenerateAsset_KeepsSlotAndCountsAttempts(t *testing.T) {
	f := newPackFixture(t)
	f.seedBrandMemory(t, "Acme Coffee")
	brief := f.seedConfirmedBrief(t)
	ctx := context.Background()

	first := f.svc.GenerateCreativePack(ctx, GeneratePackInput{BriefID: brief.ID, OrgID: f.orgID})
	if !first.Success {
		t.Fatalf("generate: %q", first.Error)
	}
	target := first.Assets[0]

	result := f.svc.RegenerateAsset(ctx, f.orgID, target.ID)
	if !result.Success {
		t.Fatalf("regenerate asset: %q", result.Error)
	}

	got, err := f.assetRepo.GetByID(ctx, nil, target.ID)
	if err != nil {
		t.Fatalf("load asset: %v", err)
	}
	if got == nil {
		t.Fatalf("expected asset row to survive regeneration")
	}
	if got.Status != types.AssetStatusCompleted {
		t.Fatalf("expected completed asset, got %q", got.Status)
	}
	if got.GenerationAttempts != target.GenerationAttempts+1 {
		t.Fatalf("expected attempts %d, got %d", target.GenerationAttempts+1, got.GenerationAttempts)
	}
}

func TestRegenerateAsset_RejectsForeignOrg(t *testing.T) {
	f := newPackFixture(t)
	f.seedBrandMemory(t, "Acme Coffee")
	brief := f.seedConfirmedBrief(t)
	ctx := context.Background()

	first := f.svc.GenerateCreativePack(ctx, GeneratePackInput{BriefID: brief.ID, OrgID: f.orgID})
	if !first.Success {
		t.Fatalf("generate: %q", first.Error)
	}
	target := first.Assets[0]
	callsBefore := f.provider.calls.Load()

	result := f.svc.RegenerateAsset(ctx, uuid.New(), target.ID)
	if result.Success {
		t.Fatalf("expected cross-org regeneration to be rejected")
	}
	if result.Error != "asset not found" {
		t.Fatalf("unexpected error %q", result.Error)
	}
	if n := f.provider.calls.Load(); n != callsBefore {
		t.Fatalf("expected no provider calls for foreign org, got %d extra", n-callsBefore)
	}

	got, err := f.assetRepo.GetByID(ctx, nil, target.ID)
	if err != nil {
		t.Fatalf("load asset: %v", err)
	}
	if got.Status != types.AssetStatusCompleted || got.GenerationAttempts != target.GenerationAttempts {
		t.Fatalf("expected asset untouched, got status %q attempts %d", got.Status, got.GenerationAttempts)
	}
}

func TestRegenerateDirection_RejectsForeignOrg(t *testing.T) {
	f := newPackFixture(t)
	f.seedBrandMemory(t, "Acme Coffee")
	brief := f.seedConfirmedBrief(t)
	ctx := context.Background()

	first := f.svc.GenerateCreativePack(ctx, GeneratePackInput{BriefID: brief.ID, OrgID: f.orgID})
	if !first.Success {
		t.Fatalf("generate: %q", first.Error)
	}

	result := f.svc.RegenerateDirection(ctx, uuid.New(), first.PackID, types.DirectionA)
	if result.Success {
		t.Fatalf("expected cross-org regeneration to be rejected")
	}
	if result.Error != "pack not found" {
		t.Fatalf("unexpected error %q", result.Error)
	}

	assets, err := f.assetRepo.ListByPack(ctx, nil, first.PackID)
	if err != nil {
		t.Fatalf("list assets: %v", err)
	}
	if len(assets) != 9 {
		t.Fatalf("expected all 9 assets to survive, got %d", len(assets))
	}
}
