package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/brandpilot/brandpilot-backend/internal/logger"
	"github.com/brandpilot/brandpilot-backend/internal/repos"
	"github.com/brandpilot/brandpilot-backend/internal/types"
)

// PackWithAssets is the read shape the pack endpoints return.
type PackWithAssets struct {
	Pack   *types.CreativePack    `json:"pack"`
	Assets []*types.CreativeAsset `json:"assets"`
}

type PackQueryService interface {
	GetWithAssets(ctx context.Context, orgID, packID uuid.UUID) (*PackWithAssets, error)
	ListByBrief(ctx context.Context, briefID uuid.UUID) ([]*types.CreativePack, error)
}

type packQueryService struct {
	log       *logger.Logger
	packRepo  repos.CreativePackRepo
	assetRepo repos.CreativeAssetRepo
}

func NewPackQueryService(baseLog *logger.Logger, packRepo repos.CreativePackRepo, assetRepo repos.CreativeAssetRepo) PackQueryService {
	return &packQueryService{
		log:       baseLog.With("service", "PackQueryService"),
		packRepo:  packRepo,
		assetRepo: assetRepo,
	}
}

func (s *packQueryService) GetWithAssets(ctx context.Context, orgID, packID uuid.UUID) (*PackWithAssets, error) {
	pack, err := s.packRepo.GetByID(ctx, nil, packID)
	if err != nil {
		return nil, err
	}
	if pack == nil || pack.OrgID != orgID {
		return nil, fmt.Errorf("pack not found")
	}
	assets, err := s.assetRepo.ListByPack(ctx, nil, packID)
	if err != nil {
		return nil, err
	}
	return &PackWithAssets{Pack: pack, Assets: assets}, nil
}

func (s *packQueryService) ListByBrief(ctx context.Context, briefID uuid.UUID) ([]*types.CreativePack, error) {
	return s.packRepo.ListByBrief(ctx, nil, briefID)
}
