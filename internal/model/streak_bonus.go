package model

import "time"

// StreakBonus marks a streak threshold as paid out. One row per
// (user, streak type, streak days).
type StreakBonus struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement"`
	UserID      string    `gorm:"column:user_id;size:128;not null;uniqueIndex:uniq_streak_bonus,priority:1"`
	StreakType  string    `gorm:"column:streak_type;size:32;not null;uniqueIndex:uniq_streak_bonus,priority:2"`
	StreakDays  int       `gorm:"column:streak_days;not null;uniqueIndex:uniq_streak_bonus,priority:3"`
	RewardBytes int64     `gorm:"column:reward_bytes;not null"`
	Badge       string    `gorm:"column:badge;size:64"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}

func (StreakBonus) TableName() string {
	return "streak_bonuses"
}
