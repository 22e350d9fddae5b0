package model

import (
	"time"

	"gorm.io/datatypes"
)

type LedgerEntryType string

const (
	LedgerEntryEarned LedgerEntryType = "earned"
	LedgerEntrySpent  LedgerEntryType = "spent"
	LedgerEntryBonus  LedgerEntryType = "bonus"
)

// LedgerEntry is an append-only record of one balance change.
// BalanceAfter always equals BalanceBefore + Amount.
type LedgerEntry struct {
	ID            uint64            `gorm:"primaryKey;autoIncrement"`
	UserID        string            `gorm:"column:user_id;size:128;not null;index:idx_ledger_user_activity,priority:1;index:idx_ledger_user_created,priority:1"`
	Type          LedgerEntryType   `gorm:"column:type;size:16;not null"`
	Activity      string            `gorm:"column:activity;size:64;not null;index:idx_ledger_user_activity,priority:2"`
	Amount        int64             `gorm:"column:amount;not null"`
	BalanceBefore int64             `gorm:"column:balance_before;not null"`
	BalanceAfter  int64             `gorm:"column:balance_after;not null"`
	Description   string            `gorm:"column:description;size:255"`
	RelatedID     *string           `gorm:"column:related_id;size:128"`
	Metadata      datatypes.JSONMap `gorm:"column:metadata"`
	CreatedAt     time.Time         `gorm:"column:created_at;index:idx_ledger_user_created,priority:2"`
}

func (LedgerEntry) TableName() string {
	return "ledger_entries"
}
