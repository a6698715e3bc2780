package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/brandpilot/brandpilot-backend/internal/repos"
	"github.com/brandpilot/brandpilot-backend/internal/types"
)

func newMemoryFixture(t *testing.T) (BrandMemoryService, *gorm.DB, uuid.UUID) {
	t.Helper()
	db := testDB(t)
	log := testLogger(t)
	memoryRepo := repos.NewBrandMemoryRepo(db, log)
	kitRepo := repos.NewBrandKitRepo(db, log)
	svc := NewBrandMemoryService(db, log, memoryRepo, kitRepo)
	return svc, db, uuid.New()
}

func TestBrandMemoryCreate_StartsAtVersionOne(t *testing.T) {
	svc, _, orgID := newMemoryFixture(t)

	memory, err := svc.Create(context.Background(), orgID, BrandMemoryInput{BrandName: "Acme Coffee"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if memory.Version != 1 || !memory.IsActive {
		t.Fatalf("expected active version 1, got v%d active=%v", memory.Version, memory.IsActive)
	}
	if memory.LayoutStyle != types.LayoutStyleModern {
		t.Fatalf("expected default layout style, got %q", memory.LayoutStyle)
	}
	if memory.LogoPlacement != types.LogoPlacementBottomRight {
		t.Fatalf("expected default logo placement, got %q", memory.LogoPlacement)
	}
}

func TestBrandMemoryCreate_RejectsSecondInit(t *testing.T) {
	svc, _, orgID := newMemoryFixture(t)

	if _, err := svc.Create(context.Background(), orgID, BrandMemoryInput{BrandName: "Acme"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Create(context.Background(), orgID, BrandMemoryInput{BrandName: "Acme"}); err == nil {
		t.Fatalf("expected second init to be rejected")
	}
}

func TestBrandMemoryUpdate_VersionsAreMonotonicAndSingleActive(t *testing.T) {
	svc, _, orgID := newMemoryFixture(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, orgID, BrandMemoryInput{BrandName: "Acme"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	tagline := "Wake up better"
	v2, err := svc.Update(ctx, orgID, BrandMemoryUpdate{Tagline: &tagline})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if v2.Version != 2 {
		t.Fatalf("expected version 2, got %d", v2.Version)
	}

	layout := types.LayoutStylePremium
	v3, err := svc.Update(ctx, orgID, BrandMemoryUpdate{LayoutStyle: &layout})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if v3.Version != 3 {
		t.Fatalf("expected version 3, got %d", v3.Version)
	}
	// Untouched fields carry over.
	if v3.Tagline != tagline {
		t.Fatalf("expected tagline carried forward, got %q", v3.Tagline)
	}

	versions, err := svc.ListVersions(ctx, orgID)
	if err != nil {
		t.Fatalf("list versions: %v", err)
	}
	if len(versions) != 3 {
		t.Fatalf("expected 3 versions, got %d", len(versions))
	}
	active := 0
	for _, v := range versions {
		if v.IsActive {
			active++
		}
	}
	if active != 1 {
		t.Fatalf("expected exactly one active version, got %d", active)
	}

	current, err := svc.GetActive(ctx, orgID)
	if err != nil {
		t.Fatalf("get active: %v", err)
	}
	if current.Version != 3 {
		t.Fatalf("expected active version 3, got %d", current.Version)
	}
}

func TestBrandMemoryUpdate_PastVersionsStayIntact(t *testing.T) {
	svc, _, orgID := newMemoryFixture(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, orgID, BrandMemoryInput{BrandName: "Acme", Tagline: "Original"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	tagline := "Changed"
	if _, err := svc.Update(ctx, orgID, BrandMemoryUpdate{Tagline: &tagline}); err != nil {
		t.Fatalf("update: %v", err)
	}

	v1, err := svc.GetVersion(ctx, orgID, 1)
	if err != nil {
		t.Fatalf("get version 1: %v", err)
	}
	if v1 == nil || v1.Tagline != "Original" {
		t.Fatalf("expected version 1 unchanged, got %+v", v1)
	}
	if v1.IsActive {
		t.Fatalf("expected version 1 deactivated")
	}
}

func TestBrandMemoryGetActive_NoMemory(t *testing.T) {
	svc, _, orgID := newMemoryFixture(t)

	memory, err := svc.GetActive(context.Background(), orgID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if memory != nil {
		t.Fatalf("expected nil memory for fresh org")
	}
}

func TestInitFromBrandKit_MapsColorsAndStrategy(t *testing.T) {
	svc, db, orgID := newMemoryFixture(t)
	ctx := context.Background()

	now := time.Now().UTC()
	kit := &types.BrandKit{
		ID:      uuid.New(),
		OrgID:   orgID,
		Name:    "Acme Coffee",
		Tagline: "Wake up better",
		LogoURL: "https://cdn.test/logo.png",
		Colors: datatypes.NewJSONSlice([]types.BrandKitColor{
			{Name: "Espresso", Hex: "#3B2F2F", IsPrimary: true},
			{Name: "Copper", Hex: "#B87333"},
		}),
		Fonts:     datatypes.NewJSONSlice([]string{"Inter"}),
		Strategy:  datatypes.NewJSONType(types.BrandKitStrategy{VoiceTone: "confident", Mood: "energetic", Vibe: "bold"}),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := db.Create(kit).Error; err != nil {
		t.Fatalf("seed kit: %v", err)
	}

	memory, err := svc.InitFromBrandKit(ctx, orgID, kit.ID)
	if err != nil {
		t.Fatalf("init from kit: %v", err)
	}
	if memory.BrandName != "Acme Coffee" || memory.Version != 1 {
		t.Fatalf("unexpected memory %+v", memory)
	}
	if len(memory.PrimaryColors) != 1 || memory.PrimaryColors[0].Hex != "#3B2F2F" {
		t.Fatalf("expected primary color split, got %v", memory.PrimaryColors)
	}
	if len(memory.SecondaryColors) != 1 || memory.SecondaryColors[0].Name != "Copper" {
		t.Fatalf("expected secondary color split, got %v", memory.SecondaryColors)
	}
	if memory.VoiceRules.Data().Tone != "confident" {
		t.Fatalf("expected voice tone mapped, got %q", memory.VoiceRules.Data().Tone)
	}
	if memory.StyleTokens.Data().Mood != "energetic" || memory.StyleTokens.Data().Vibe != "bold" {
		t.Fatalf("expected style tokens mapped, got %+v", memory.StyleTokens.Data())
	}
}

func TestInitFromBrandKit_ExistingMemoryBecomesNewVersion(t *testing.T) {
	svc, db, orgID := newMemoryFixture(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, orgID, BrandMemoryInput{BrandName: "Old Name"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	now := time.Now().UTC()
	kit := &types.BrandKit{
		ID:        uuid.New(),
		OrgID:     orgID,
		Name:      "New Name",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := db.Create(kit).Error; err != nil {
		t.Fatalf("seed kit: %v", err)
	}

	memory, err := svc.InitFromBrandKit(ctx, orgID, kit.ID)
	if err != nil {
		t.Fatalf("init from kit: %v", err)
	}
	if memory.Version != 2 || memory.BrandName != "New Name" {
		t.Fatalf("expected version 2 with kit name, got v%d %q", memory.Version, memory.BrandName)
	}
}

func TestInitFromBrandKit_WrongOrg(t *testing.T) {
	svc, db, orgID := newMemoryFixture(t)

	now := time.Now().UTC()
	kit := &types.BrandKit{ID: uuid.New(), OrgID: uuid.New(), Name: "Other", CreatedAt: now, UpdatedAt: now}
	if err := db.Create(kit).Error; err != nil {
		t.Fatalf("seed kit: %v", err)
	}

	if _, err := svc.InitFromBrandKit(context.Background(), orgID, kit.ID); err == nil {
		t.Fatalf("expected ownership error")
	}
}
