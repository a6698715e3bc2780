package repos

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/brandpilot/brandpilot-backend/internal/logger"
	"github.com/brandpilot/brandpilot-backend/internal/types"
)

type BrandKitRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *types.BrandKit) (*types.BrandKit, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.BrandKit, error)
}

type brandKitRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewBrandKitRepo(db *gorm.DB, baseLog *logger.Logger) BrandKitRepo {
	return &brandKitRepo{db: db, log: baseLog.With("repo", "BrandKitRepo")}
}

func (r *brandKitRepo) Create(ctx context.Context, tx *gorm.DB, row *types.BrandKit) (*types.BrandKit, error) {
	if row == nil {
		return nil, fmt.Errorf("missing brand kit row")
	}
	txx := tx
	if txx == nil {
		txx = r.db
	}
	if err := txx.WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *brandKitRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.BrandKit, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("missing id")
	}
	txx := tx
	if txx == nil {
		txx = r.db
	}
	var out types.BrandKit
	err := txx.WithContext(ctx).Where("id = ?", id).Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}
