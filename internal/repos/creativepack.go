package repos

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/brandpilot/brandpilot-backend/internal/logger"
	"github.com/brandpilot/brandpilot-backend/internal/types"
)

type CreativePackRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *types.CreativePack) (*types.CreativePack, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.CreativePack, error)
	ListByBrief(ctx context.Context, tx *gorm.DB, briefID uuid.UUID) ([]*types.CreativePack, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
}

type creativePackRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCreativePackRepo(db *gorm.DB, baseLog *logger.Logger) CreativePackRepo {
	return &creativePackRepo{db: db, log: baseLog.With("repo", "CreativePackRepo")}
}

func (r *creativePackRepo) Create(ctx context.Context, tx *gorm.DB, row *types.CreativePack) (*types.CreativePack, error) {
	if row == nil {
		return nil, fmt.Errorf("missing pack row")
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

func (r *creativePackRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.CreativePack, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("missing id")
	}
	txx := tx
	if txx == nil {
		txx = r.db
	}
	var out types.CreativePack
	err := txx.WithContext(ctx).Where("id = ?", id).Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *creativePackRepo) ListByBrief(ctx context.Context, tx *gorm.DB, briefID uuid.UUID) ([]*types.CreativePack, error) {
	if briefID == uuid.Nil {
		return nil, fmt.Errorf("missing brief_id")
	}
	txx := tx
	if txx == nil {
		txx = r.db
	}
	var out []*types.CreativePack
	if err := txx.WithContext(ctx).
		Where("brief_id = ?", briefID).
		Order("created_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *creativePackRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	if id == uuid.Nil {
		return fmt.Errorf("missing id")
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["updated_at"] = time.Now().UTC()
	txx := tx
	if txx == nil {
		txx = r.db
	}
	return txx.WithContext(ctx).
		Model(&types.CreativePack{}).
		Where("id = ?", id).
		Updates(updates).Error
}
