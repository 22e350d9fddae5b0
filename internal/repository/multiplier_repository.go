package repository

import (
	"context"
	"time"

	"github.com/shinyyama/ctrl-alt-block/internal/model"
	"gorm.io/gorm"
)

type MultiplierRepository interface {
	// ListActive returns active rows not expired at now, in activation order.
	ListActive(ctx context.Context, userID string, now time.Time) ([]model.UserMultiplier, error)
	Activate(ctx context.Context, m *model.UserMultiplier) error
	SetDB(db *gorm.DB)
}

type multiplierRepository struct {
	db *gorm.DB
}

func NewMultiplierRepository(db *gorm.DB) MultiplierRepository {
	return &multiplierRepository{db: db}
}

func (r *multiplierRepository) ListActive(ctx context.Context, userID string, now time.Time) ([]model.UserMultiplier, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var list []model.UserMultiplier
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_active = ? AND expires_at > ?", userID, true, now).
		Order("activated_at ASC, id ASC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *multiplierRepository) Activate(ctx context.Context, m *model.UserMultiplier) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *multiplierRepository) SetDB(db *gorm.DB) {
	r.db = db
}
