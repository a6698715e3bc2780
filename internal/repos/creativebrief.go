package repos

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/brandpilot/brandpilot-backend/internal/logger"
	"github.com/brandpilot/brandpilot-backend/internal/types"
)

type CreativeBriefRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *types.CreativeBrief) (*types.CreativeBrief, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.CreativeBrief, error)
	ListByOrg(ctx context.Context, tx *gorm.DB, orgID uuid.UUID, limit int) ([]*types.CreativeBrief, error)
	// LockByID takes a row lock; it requires a transaction and is the guard
	// around the confirm-copy / update-copy race.
	LockByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.CreativeBrief, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
}

type creativeBriefRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCreativeBriefRepo(db *gorm.DB, baseLog *logger.Logger) CreativeBriefRepo {
	return &creativeBriefRepo{db: db, log: baseLog.With("repo", "CreativeBriefRepo")}
}

func (r *creativeBriefRepo) Create(ctx context.Context, tx *gorm.DB, row *types.CreativeBrief) (*types.CreativeBrief, error) {
	if row == nil {
		return nil, fmt.Errorf("missing brief row")
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

func (r *creativeBriefRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.CreativeBrief, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("missing id")
	}
	txx := tx
	if txx == nil {
		txx = r.db
	}
	var out types.CreativeBrief
	err := txx.WithContext(ctx).Where("id = ?", id).Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *creativeBriefRepo) ListByOrg(ctx context.Context, tx *gorm.DB, orgID uuid.UUID, limit int) ([]*types.CreativeBrief, error) {
	if orgID == uuid.Nil {
		return nil, fmt.Errorf("missing org_id")
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	txx := tx
	if txx == nil {
		txx = r.db
	}
	var out []*types.CreativeBrief
	if err := txx.WithContext(ctx).
		Where("org_id = ?", orgID).
		Order("updated_at DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *creativeBriefRepo) LockByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.CreativeBrief, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("missing id")
	}
	if tx == nil {
		return nil, fmt.Errorf("LockByID requires a transaction")
	}
	var out types.CreativeBrief
	if err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		Take(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *creativeBriefRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
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
		Model(&types.CreativeBrief{}).
		Where("id = ?", id).
		Updates(updates).Error
}
