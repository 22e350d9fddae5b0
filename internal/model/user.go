package model

import "time"

type UserTier string

const (
	UserTierFree UserTier = "free"
	UserTierPaid UserTier = "paid"
)

// User holds the byte balance and the profile tags the economy reads.
// The balance only changes together with a LedgerEntry.
type User struct {
	ID          string    `gorm:"column:id;primaryKey;size:128"`
	ByteBalance int64     `gorm:"column:byte_balance;not null;default:0"`
	Tier        UserTier  `gorm:"column:tier;size:16;not null;default:free"`
	Archetype   string    `gorm:"column:archetype;size:64"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

func (User) TableName() string {
	return "users"
}
