package repository

import (
	"context"
	"errors"

	"github.com/shinyyama/ctrl-alt-block/internal/model"
	"gorm.io/gorm"
)

// AchievementGrant is everything one unlocked achievement writes.
// Posting is nil for achievements without a byte reward.
type AchievementGrant struct {
	Record      model.UserAchievement
	Posting     *Posting
	Multipliers []model.UserMultiplier
}

type AchievementRepository interface {
	EarnedIDs(ctx context.Context, userID string) (map[string]bool, error)
	ListByUser(ctx context.Context, userID string) ([]model.UserAchievement, error)
	// Grant writes the record, the reward credit and the unlocked multipliers
	// in one transaction. A duplicate record returns ErrAlreadyGranted.
	Grant(ctx context.Context, g AchievementGrant) error
	SetDB(db *gorm.DB)
}

type achievementRepository struct {
	db *gorm.DB
}

func NewAchievementRepository(db *gorm.DB) AchievementRepository {
	return &achievementRepository{db: db}
}

func (r *achievementRepository) EarnedIDs(ctx context.Context, userID string) (map[string]bool, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var ids []string
	if err := r.db.WithContext(ctx).
		Model(&model.UserAchievement{}).
		Where("user_id = ?", userID).
		Pluck("achievement_id", &ids).Error; err != nil {
		return nil, err
	}
	earned := make(map[string]bool, len(ids))
	for _, id := range ids {
		earned[id] = true
	}
	return earned, nil
}

func (r *achievementRepository) ListByUser(ctx context.Context, userID string) ([]model.UserAchievement, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var list []model.UserAchievement
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("awarded_at ASC, id ASC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *achievementRepository) Grant(ctx context.Context, g AchievementGrant) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec := g.Record
		if err := tx.Create(&rec).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadyGranted
			}
			return err
		}
		if g.Posting != nil {
			if _, err := post(tx, *g.Posting); err != nil {
				return err
			}
		}
		if len(g.Multipliers) > 0 {
			ms := append([]model.UserMultiplier(nil), g.Multipliers...)
			if err := tx.Create(&ms).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *achievementRepository) SetDB(db *gorm.DB) {
	r.db = db
}
