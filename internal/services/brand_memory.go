package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/brandpilot/brandpilot-backend/internal/logger"
	"github.com/brandpilot/brandpilot-backend/internal/repos"
	"github.com/brandpilot/brandpilot-backend/internal/types"
)

// BrandMemoryService owns the versioned brand identity record. Updates never
// mutate a row: they deactivate every prior version and insert version N+1 in
// one transaction, so there is no window with two active versions and packs
// pinned to old versions keep reading the exact context they were built with.
type BrandMemoryService interface {
	GetActive(ctx context.Context, orgID uuid.UUID) (*types.BrandMemory, error)
	GetVersion(ctx context.Context, orgID uuid.UUID, version int) (*types.BrandMemory, error)
	ListVersions(ctx context.Context, orgID uuid.UUID) ([]*types.BrandMemory, error)
	Create(ctx context.Context, orgID uuid.UUID, input BrandMemoryInput) (*types.BrandMemory, error)
	Update(ctx context.Context, orgID uuid.UUID, updates BrandMemoryUpdate) (*types.BrandMemory, error)
	InitFromBrandKit(ctx context.Context, orgID uuid.UUID, brandKitID uuid.UUID) (*types.BrandMemory, error)
}

type BrandMemoryInput struct {
	BrandName       string
	Tagline         string
	LogoURL         string
	PrimaryColors   []types.BrandColor
	SecondaryColors []types.BrandColor
	Fonts           []string
	StyleTokens     types.StyleTokens
	LayoutStyle     string
	LogoPlacement   string
	TextSafeZones   []string
	VoiceRules      types.VoiceRules
	DoList          []string
	DontList        []string
	ComplianceRules []string
	FatiguedStyles  []string
}

// BrandMemoryUpdate carries partial updates; nil pointers and nil slices mean
// "keep the current value".
type BrandMemoryUpdate struct {
	BrandName       *string
	Tagline         *string
	LogoURL         *string
	PrimaryColors   []types.BrandColor
	SecondaryColors []types.BrandColor
	Fonts           []string
	StyleTokens     *types.StyleTokens
	LayoutStyle     *string
	LogoPlacement   *string
	TextSafeZones   []string
	VoiceRules      *types.VoiceRules
	DoList          []string
	DontList        []string
	ComplianceRules []string
	FatiguedStyles  []string
}

type brandMemoryService struct {
	db  *gorm.DB
	log *logger.Logger

	memoryRepo repos.BrandMemoryRepo
	kitRepo    repos.BrandKitRepo
}

func NewBrandMemoryService(db *gorm.DB, baseLog *logger.Logger, memoryRepo repos.BrandMemoryRepo, kitRepo repos.BrandKitRepo) BrandMemoryService {
	return &brandMemoryService{
		db:         db,
		log:        baseLog.With("service", "BrandMemoryService"),
		memoryRepo: memoryRepo,
		kitRepo:    kitRepo,
	}
}

func (s *brandMemoryService) GetActive(ctx context.Context, orgID uuid.UUID) (*types.BrandMemory, error) {
	return s.memoryRepo.GetActive(ctx, nil, orgID)
}

func (s *brandMemoryService) GetVersion(ctx context.Context, orgID uuid.UUID, version int) (*types.BrandMemory, error) {
	return s.memoryRepo.GetVersion(ctx, nil, orgID, version)
}

func (s *brandMemoryService) ListVersions(ctx context.Context, orgID uuid.UUID) ([]*types.BrandMemory, error) {
	return s.memoryRepo.ListVersions(ctx, nil, orgID)
}

func (s *brandMemoryService) Create(ctx context.Context, orgID uuid.UUID, input BrandMemoryInput) (*types.BrandMemory, error) {
	if orgID == uuid.Nil {
		return nil, fmt.Errorf("missing org_id")
	}
	if input.BrandName == "" {
		return nil, fmt.Errorf("brand_name is required")
	}

	row := newMemoryRow(orgID, 1, input)
	var out *types.BrandMemory
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.memoryRepo.GetActive(ctx, tx, orgID)
		if err != nil {
			return err
		}
		if existing != nil {
			return fmt.Errorf("brand memory already initialized for org; use update")
		}
		out, err = s.memoryRepo.Create(ctx, tx, row)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *brandMemoryService) Update(ctx context.Context, orgID uuid.UUID, updates BrandMemoryUpdate) (*types.BrandMemory, error) {
	if orgID == uuid.Nil {
		return nil, fmt.Errorf("missing org_id")
	}

	// Concurrent updates race on version N+1; the unique (org, version) index
	// turns the loser into a duplicate-key error, which we retry once.
	var out *types.BrandMemory
	var err error
	for attempt := 0; attempt < 2; attempt++ {
		out, err = s.updateOnce(ctx, orgID, updates)
		if err == nil || !errors.Is(err, gorm.ErrDuplicatedKey) {
			return out, err
		}
		s.log.Warn("Brand memory version collision, retrying", "org_id", orgID)
	}
	return nil, err
}

func (s *brandMemoryService) updateOnce(ctx context.Context, orgID uuid.UUID, updates BrandMemoryUpdate) (*types.BrandMemory, error) {
	var out *types.BrandMemory
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := s.memoryRepo.GetActive(ctx, tx, orgID)
		if err != nil {
			return err
		}

		row := mergeMemoryUpdate(orgID, current, updates)
		if row.BrandName == "" {
			return fmt.Errorf("brand_name is required")
		}

		if err := s.memoryRepo.DeactivateAll(ctx, tx, orgID); err != nil {
			return fmt.Errorf("deactivate prior versions: %w", err)
		}
		out, err = s.memoryRepo.Create(ctx, tx, row)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *brandMemoryService) InitFromBrandKit(ctx context.Context, orgID uuid.UUID, brandKitID uuid.UUID) (*types.BrandMemory, error) {
	kit, err := s.kitRepo.GetByID(ctx, nil, brandKitID)
	if err != nil {
		return nil, err
	}
	if kit == nil {
		return nil, fmt.Errorf("brand kit not found")
	}
	if kit.OrgID != orgID {
		return nil, fmt.Errorf("brand kit not owned by org")
	}

	input := mapKitToMemory(kit)

	active, err := s.memoryRepo.GetActive(ctx, nil, orgID)
	if err != nil {
		return nil, err
	}
	if active != nil {
		return s.Update(ctx, orgID, kitInputToUpdate(input))
	}
	return s.Create(ctx, orgID, input)
}

func newMemoryRow(orgID uuid.UUID, version int, input BrandMemoryInput) *types.BrandMemory {
	now := time.Now().UTC()
	layout := input.LayoutStyle
	if layout == "" {
		layout = types.LayoutStyleModern
	}
	placement := input.LogoPlacement
	if placement == "" {
		placement = types.LogoPlacementBottomRight
	}
	return &types.BrandMemory{
		ID:              uuid.New(),
		OrgID:           orgID,
		Version:         version,
		IsActive:        true,
		BrandName:       input.BrandName,
		Tagline:         input.Tagline,
		LogoURL:         input.LogoURL,
		PrimaryColors:   datatypes.NewJSONSlice(emptyIfNilColors(input.PrimaryColors)),
		SecondaryColors: datatypes.NewJSONSlice(emptyIfNilColors(input.SecondaryColors)),
		Fonts:           datatypes.NewJSONSlice(emptyIfNil(input.Fonts)),
		StyleTokens:     datatypes.NewJSONType(input.StyleTokens),
		LayoutStyle:     layout,
		LogoPlacement:   placement,
		TextSafeZones:   datatypes.NewJSONSlice(emptyIfNil(input.TextSafeZones)),
		VoiceRules:      datatypes.NewJSONType(input.VoiceRules),
		DoList:          datatypes.NewJSONSlice(emptyIfNil(input.DoList)),
		DontList:        datatypes.NewJSONSlice(emptyIfNil(input.DontList)),
		ComplianceRules: datatypes.NewJSONSlice(emptyIfNil(input.ComplianceRules)),
		PerformanceData: datatypes.JSON([]byte(`{}`)),
		FatiguedStyles:  datatypes.NewJSONSlice(emptyIfNil(input.FatiguedStyles)),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// mergeMemoryUpdate builds version current+1 (or 1 when the org has no
// memory yet), taking each field from the update when present and from the
// current active version otherwise.
func mergeMemoryUpdate(orgID uuid.UUID, current *types.BrandMemory, upd BrandMemoryUpdate) *types.BrandMemory {
	base := BrandMemoryInput{}
	version := 1
	if current != nil {
		version = current.Version + 1
		base = BrandMemoryInput{
			BrandName:       current.BrandName,
			Tagline:         current.Tagline,
			LogoURL:         current.LogoURL,
			PrimaryColors:   current.PrimaryColors,
			SecondaryColors: current.SecondaryColors,
			Fonts:           current.Fonts,
			StyleTokens:     current.StyleTokens.Data(),
			LayoutStyle:     current.LayoutStyle,
			LogoPlacement:   current.LogoPlacement,
			TextSafeZones:   current.TextSafeZones,
			VoiceRules:      current.VoiceRules.Data(),
			DoList:          current.DoList,
			DontList:        current.DontList,
			ComplianceRules: current.ComplianceRules,
			FatiguedStyles:  current.FatiguedStyles,
		}
	}

	if upd.BrandName != nil {
		base.BrandName = *upd.BrandName
	}
	if upd.Tagline != nil {
		base.Tagline = *upd.Tagline
	}
	if upd.LogoURL != nil {
		base.LogoURL = *upd.LogoURL
	}
	if upd.PrimaryColors != nil {
		base.PrimaryColors = upd.PrimaryColors
	}
	if upd.SecondaryColors != nil {
		base.SecondaryColors = upd.SecondaryColors
	}
	if upd.Fonts != nil {
		base.Fonts = upd.Fonts
	}
	if upd.StyleTokens != nil {
		base.StyleTokens = *upd.StyleTokens
	}
	if upd.LayoutStyle != nil {
		base.LayoutStyle = *upd.LayoutStyle
	}
	if upd.LogoPlacement != nil {
		base.LogoPlacement = *upd.LogoPlacement
	}
	if upd.TextSafeZones != nil {
		base.TextSafeZones = upd.TextSafeZones
	}
	if upd.VoiceRules != nil {
		base.VoiceRules = *upd.VoiceRules
	}
	if upd.DoList != nil {
		base.DoList = upd.DoList
	}
	if upd.DontList != nil {
		base.DontList = upd.DontList
	}
	if upd.ComplianceRules != nil {
		base.ComplianceRules = upd.ComplianceRules
	}
	if upd.FatiguedStyles != nil {
		base.FatiguedStyles = upd.FatiguedStyles
	}

	row := newMemoryRow(orgID, version, base)
	// Preserve performance data across versions; it is accumulated, not edited.
	if current != nil && len(current.PerformanceData) > 0 {
		row.PerformanceData = current.PerformanceData
	}
	return row
}

func mapKitToMemory(kit *types.BrandKit) BrandMemoryInput {
	var primary, secondary []types.BrandColor
	for _, c := range kit.Colors {
		col := types.BrandColor{Name: c.Name, Hex: c.Hex}
		if c.IsPrimary {
			primary = append(primary, col)
		} else {
			secondary = append(secondary, col)
		}
	}
	strategy := kit.Strategy.Data()
	return BrandMemoryInput{
		BrandName:       kit.Name,
		Tagline:         kit.Tagline,
		LogoURL:         kit.LogoURL,
		PrimaryColors:   primary,
		SecondaryColors: secondary,
		Fonts:           kit.Fonts,
		StyleTokens:     types.StyleTokens{Vibe: strategy.Vibe, Mood: strategy.Mood},
		VoiceRules:      types.VoiceRules{Tone: strategy.VoiceTone},
		LayoutStyle:     types.LayoutStyleModern,
		LogoPlacement:   types.LogoPlacementBottomRight,
	}
}

func kitInputToUpdate(in BrandMemoryInput) BrandMemoryUpdate {
	styleTokens := in.StyleTokens
	voiceRules := in.VoiceRules
	return BrandMemoryUpdate{
		BrandName:       &in.BrandName,
		Tagline:         &in.Tagline,
		LogoURL:         &in.LogoURL,
		PrimaryColors:   emptyIfNilColors(in.PrimaryColors),
		SecondaryColors: emptyIfNilColors(in.SecondaryColors),
		Fonts:           emptyIfNil(in.Fonts),
		StyleTokens:     &styleTokens,
		VoiceRules:      &voiceRules,
	}
}

func emptyIfNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}

func emptyIfNilColors(in []types.BrandColor) []types.BrandColor {
	if in == nil {
		return []types.BrandColor{}
	}
	return in
}
