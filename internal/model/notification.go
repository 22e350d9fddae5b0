package model

import "time"

const (
	NotificationAchievementUnlocked = "achievement_unlocked"
	NotificationStreakBonus         = "streak_bonus"
	NotificationGlitchBonus         = "glitch_bonus"
)

type Notification struct {
	ID            uint64     `gorm:"primaryKey;autoIncrement"`
	UserID        string     `gorm:"column:user_id;size:128;index;not null"`
	Type          string     `gorm:"column:type;size:64;not null"`
	Title         string     `gorm:"column:title;size:255"`
	Body          string     `gorm:"column:body;type:text"`
	AchievementID *string    `gorm:"column:achievement_id;size:64"`
	LedgerEntryID *uint64    `gorm:"column:ledger_entry_id"`
	ReadAt        *time.Time `gorm:"column:read_at"`
	CreatedAt     time.Time  `gorm:"column:created_at;index"`
}

func (Notification) TableName() string {
	return "notifications"
}
