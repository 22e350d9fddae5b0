package repository

import (
	"context"
	"errors"

	"github.com/shinyyama/ctrl-alt-block/internal/model"
	"gorm.io/gorm"
)

type StreakBonusRepository interface {
	Exists(ctx context.Context, userID, streakType string, streakDays int) (bool, error)
	// Grant inserts the bonus record and posts its ledger credit in one
	// transaction. A duplicate record returns ErrAlreadyGranted.
	Grant(ctx context.Context, rec *model.StreakBonus, p Posting) (*model.LedgerEntry, error)
	ListByUser(ctx context.Context, userID string) ([]model.StreakBonus, error)
	SetDB(db *gorm.DB)
}

type streakBonusRepository struct {
	db *gorm.DB
}

func NewStreakBonusRepository(db *gorm.DB) StreakBonusRepository {
	return &streakBonusRepository{db: db}
}

func (r *streakBonusRepository) Exists(ctx context.Context, userID, streakType string, streakDays int) (bool, error) {
	if r.db == nil {
		return false, ErrDBNotReady
	}
	var cnt int64
	if err := r.db.WithContext(ctx).
		Model(&model.StreakBonus{}).
		Where("user_id = ? AND streak_type = ? AND streak_days = ?", userID, streakType, streakDays).
		Count(&cnt).Error; err != nil {
		return false, err
	}
	return cnt > 0, nil
}

func (r *streakBonusRepository) Grant(ctx context.Context, rec *model.StreakBonus, p Posting) (*model.LedgerEntry, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var entry *model.LedgerEntry
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(rec).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadyGranted
			}
			return err
		}
		e, err := post(tx, p)
		if err != nil {
			return err
		}
		entry = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (r *streakBonusRepository) ListByUser(ctx context.Context, userID string) ([]model.StreakBonus, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var list []model.StreakBonus
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC, id ASC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *streakBonusRepository) SetDB(db *gorm.DB) {
	r.db = db
}
