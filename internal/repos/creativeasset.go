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

type CreativeAssetRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rows []*types.CreativeAsset) ([]*types.CreativeAsset, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.CreativeAsset, error)
	ListByPack(ctx context.Context, tx *gorm.DB, packID uuid.UUID) ([]*types.CreativeAsset, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
	// DeleteByPackDirection hard-deletes the direction's assets so regenerated
	// rows can reuse the (pack, direction, ratio) slots.
	DeleteByPackDirection(ctx context.Context, tx *gorm.DB, packID uuid.UUID, direction string) error
	DeleteByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type creativeAssetRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCreativeAssetRepo(db *gorm.DB, baseLog *logger.Logger) CreativeAssetRepo {
	return &creativeAssetRepo{db: db, log: baseLog.With("repo", "CreativeAssetRepo")}
}

func (r *creativeAssetRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.CreativeAsset) ([]*types.CreativeAsset, error) {
	if len(rows) == 0 {
		return []*types.CreativeAsset{}, nil
	}
	txx := tx
	if txx == nil {
		txx = r.db
	}
	if err := txx.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *creativeAssetRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.CreativeAsset, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("missing id")
	}
	txx := tx
	if txx == nil {
		txx = r.db
	}
	var out types.CreativeAsset
	err := txx.WithContext(ctx).Where("id = ?", id).Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *creativeAssetRepo) ListByPack(ctx context.Context, tx *gorm.DB, packID uuid.UUID) ([]*types.CreativeAsset, error) {
	if packID == uuid.Nil {
		return nil, fmt.Errorf("missing pack_id")
	}
	txx := tx
	if txx == nil {
		txx = r.db
	}
	var out []*types.CreativeAsset
	if err := txx.WithContext(ctx).
		Where("pack_id = ?", packID).
		Order("direction ASC, aspect_ratio ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *creativeAssetRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
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
		Model(&types.CreativeAsset{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *creativeAssetRepo) DeleteByPackDirection(ctx context.Context, tx *gorm.DB, packID uuid.UUID, direction string) error {
	if packID == uuid.Nil {
		return fmt.Errorf("missing pack_id")
	}
	if direction == "" {
		return fmt.Errorf("missing direction")
	}
	txx := tx
	if txx == nil {
		txx = r.db
	}
	return txx.WithContext(ctx).
		Where("pack_id = ? AND direction = ?", packID, direction).
		Delete(&types.CreativeAsset{}).Error
}

func (r *creativeAssetRepo) DeleteByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	if id == uuid.Nil {
		return fmt.Errorf("missing id")
	}
	txx := tx
	if txx == nil {
		txx = r.db
	}
	return txx.WithContext(ctx).
		Where("id = ?", id).
		Delete(&types.CreativeAsset{}).Error
}
