package model

import "time"

type UserAchievement struct {
	ID            uint64    `gorm:"primaryKey;autoIncrement"`
	UserID        string    `gorm:"column:user_id;size:128;not null;uniqueIndex:uniq_user_achievement,priority:1"`
	AchievementID string    `gorm:"column:achievement_id;size:64;not null;uniqueIndex:uniq_user_achievement,priority:2"`
	RewardBytes   int64     `gorm:"column:reward_bytes;not null"`
	AwardedAt     time.Time `gorm:"column:awarded_at;not null"`
}

func (UserAchievement) TableName() string {
	return "user_achievements"
}
