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

type BrandMemoryRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *types.BrandMemory) (*types.BrandMemory, error)
	// GetActive returns nil without error when the org has no active memory.
	GetActive(ctx context.Context, tx *gorm.DB, orgID uuid.UUID) (*types.BrandMemory, error)
	GetVersion(ctx context.Context, tx *gorm.DB, orgID uuid.UUID, version int) (*types.BrandMemory, error)
	ListVersions(ctx context.Context, tx *gorm.DB, orgID uuid.UUID) ([]*types.BrandMemory, error)
	// DeactivateAll clears is_active on every version of the org. Callers must
	// run this inside the same transaction as the insert of the replacement.
	DeactivateAll(ctx context.Context, tx *gorm.DB, orgID uuid.UUID) error
}

type brandMemoryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewBrandMemoryRepo(db *gorm.DB, baseLog *logger.Logger) BrandMemoryRepo {
	return &brandMemoryRepo{db: db, log: baseLog.With("repo", "BrandMemoryRepo")}
}

func (r *brandMemoryRepo) Create(ctx context.Context, tx *gorm.DB, row *types.BrandMemory) (*types.BrandMemory, error) {
	if row == nil {
		return nil, fmt.Errorf("missing brand memory row")
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

func (r *brandMemoryRepo) GetActive(ctx context.Context, tx *gorm.DB, orgID uuid.UUID) (*types.BrandMemory, error) {
	if orgID == uuid.Nil {
		return nil, fmt.Errorf("missing org_id")
	}
	txx := tx
	if txx == nil {
		txx = r.db
	}
	var out types.BrandMemory
	err := txx.WithContext(ctx).
		Where("org_id = ? AND is_active = ?", orgID, true).
		Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *brandMemoryRepo) GetVersion(ctx context.Context, tx *gorm.DB, orgID uuid.UUID, version int) (*types.BrandMemory, error) {
	if orgID == uuid.Nil {
		return nil, fmt.Errorf("missing org_id")
	}
	txx := tx
	if txx == nil {
		txx = r.db
	}
	var out types.BrandMemory
	err := txx.WithContext(ctx).
		Where("org_id = ? AND version = ?", orgID, version).
		Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *brandMemoryRepo) ListVersions(ctx context.Context, tx *gorm.DB, orgID uuid.UUID) ([]*types.BrandMemory, error) {
	if orgID == uuid.Nil {
		return nil, fmt.Errorf("missing org_id")
	}
	txx := tx
	if txx == nil {
		txx = r.db
	}
	var out []*types.BrandMemory
	if err := txx.WithContext(ctx).
		Where("org_id = ?", orgID).
		Order("version DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *brandMemoryRepo) DeactivateAll(ctx context.Context, tx *gorm.DB, orgID uuid.UUID) error {
	if orgID == uuid.Nil {
		return fmt.Errorf("missing org_id")
	}
	if tx == nil {
		return fmt.Errorf("DeactivateAll requires a transaction")
	}
	return tx.WithContext(ctx).
		Model(&types.BrandMemory{}).
		Where("org_id = ? AND is_active = ?", orgID, true).
		Update("is_active", false).Error
}
