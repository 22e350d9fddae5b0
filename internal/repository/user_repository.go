package repository

import (
	"context"
	"errors"

	"github.com/shinyyama/ctrl-alt-block/internal/model"
	"gorm.io/gorm"
)

type UserRepository interface {
	Get(ctx context.Context, id string) (*model.User, error)
	// Ensure returns the user row, creating it with defaults on first sight.
	Ensure(ctx context.Context, id string) (*model.User, error)
	UpdateProfile(ctx context.Context, id string, archetype *string, tier *model.UserTier) (*model.User, error)
	Count(ctx context.Context) (int64, error)
	SetDB(db *gorm.DB)
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Get(ctx context.Context, id string) (*model.User, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var u model.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *userRepository) Ensure(ctx context.Context, id string) (*model.User, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var u model.User
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		FirstOrCreate(&u, &model.User{ID: id, Tier: model.UserTierFree}).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepository) UpdateProfile(ctx context.Context, id string, archetype *string, tier *model.UserTier) (*model.User, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	updates := map[string]interface{}{}
	if archetype != nil {
		updates["archetype"] = *archetype
	}
	if tier != nil {
		updates["tier"] = *tier
	}
	if len(updates) > 0 {
		res := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Updates(updates)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, ErrUserNotFound
		}
	}
	return r.Get(ctx, id)
}

func (r *userRepository) Count(ctx context.Context) (int64, error) {
	if r.db == nil {
		return 0, ErrDBNotReady
	}
	var cnt int64
	if err := r.db.WithContext(ctx).Model(&model.User{}).Count(&cnt).Error; err != nil {
		return 0, err
	}
	return cnt, nil
}

func (r *userRepository) SetDB(db *gorm.DB) {
	r.db = db
}
