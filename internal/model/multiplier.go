package model

import "time"

// UserMultiplier is a timed earning boost unlocked by an achievement.
// Expiry is checked lazily against ExpiresAt.
type UserMultiplier struct {
	ID           uint64    `gorm:"primaryKey;autoIncrement"`
	UserID       string    `gorm:"column:user_id;size:128;not null;index:idx_multiplier_user_active,priority:1"`
	MultiplierID string    `gorm:"column:multiplier_id;size:64;not null"`
	Factor       float64   `gorm:"column:factor;not null"`
	ActivatedAt  time.Time `gorm:"column:activated_at;not null"`
	ExpiresAt    time.Time `gorm:"column:expires_at;not null;index:idx_multiplier_user_active,priority:2"`
	IsActive     bool      `gorm:"column:is_active;not null"`
}

func (m UserMultiplier) ActiveAt(t time.Time) bool {
	return m.IsActive && t.Before(m.ExpiresAt)
}

func (UserMultiplier) TableName() string {
	return "user_multipliers"
}
