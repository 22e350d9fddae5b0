package repository

import (
	"context"
	"errors"
	"time"

	"github.com/shinyyama/ctrl-alt-block/internal/model"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrDBNotReady          = errors.New("database not initialized")
	ErrUserNotFound        = errors.New("user not found")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrAlreadyGranted      = errors.New("already granted")
	ErrZeroPosting         = errors.New("posting amount must be non-zero")
	ErrLimitReached        = errors.New("limit reached")
)

// Limit rejects a credit once the user's positive entries for the posting's
// activity since Since reach MaxSum bytes or MaxCount rows. Zero disables
// either bound.
type Limit struct {
	Window   string
	Since    time.Time
	MaxSum   int64
	MaxCount int64
}

// LimitError names the window whose Limit rejected a posting. It matches
// ErrLimitReached.
type LimitError struct {
	Window string
}

func (e *LimitError) Error() string {
	return e.Window + " limit reached"
}

func (e *LimitError) Is(target error) bool {
	return target == ErrLimitReached
}

// Posting is one balance change together with the ledger row that explains it.
// Negative amounts are debits.
type Posting struct {
	UserID      string
	Type        model.LedgerEntryType
	Activity    string
	Amount      int64
	Description string
	RelatedID   *string
	Metadata    map[string]interface{}
	At          time.Time
	Limits      []Limit
}

// post is the only code path that changes users.byte_balance. It must run
// inside tx: the balance update locks the user row until commit, so the
// balance read back and the limit sums belong to this posting alone.
func post(tx *gorm.DB, p Posting) (*model.LedgerEntry, error) {
	if p.Amount == 0 {
		return nil, ErrZeroPosting
	}
	q := tx.Model(&model.User{}).Where("id = ?", p.UserID)
	if p.Amount < 0 {
		q = q.Where("byte_balance >= ?", -p.Amount)
	}
	res := q.Update("byte_balance", gorm.Expr("byte_balance + ?", p.Amount))
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		var cnt int64
		if err := tx.Model(&model.User{}).Where("id = ?", p.UserID).Count(&cnt).Error; err != nil {
			return nil, err
		}
		if cnt == 0 {
			return nil, ErrUserNotFound
		}
		return nil, ErrInsufficientBalance
	}
	if err := checkLimits(tx, p); err != nil {
		return nil, err
	}

	var after int64
	if err := tx.Model(&model.User{}).
		Select("byte_balance").
		Where("id = ?", p.UserID).
		Row().Scan(&after); err != nil {
		return nil, err
	}

	entry := &model.LedgerEntry{
		UserID:        p.UserID,
		Type:          p.Type,
		Activity:      p.Activity,
		Amount:        p.Amount,
		BalanceBefore: after - p.Amount,
		BalanceAfter:  after,
		Description:   p.Description,
		RelatedID:     p.RelatedID,
		CreatedAt:     p.At,
	}
	if p.Metadata != nil {
		entry.Metadata = datatypes.JSONMap(p.Metadata)
	}
	if err := tx.Create(entry).Error; err != nil {
		return nil, err
	}
	return entry, nil
}

func checkLimits(tx *gorm.DB, p Posting) error {
	for _, l := range p.Limits {
		var row struct {
			Total int64
			Cnt   int64
		}
		if err := tx.Model(&model.LedgerEntry{}).
			Select("COALESCE(SUM(amount), 0) AS total, COUNT(*) AS cnt").
			Where("user_id = ? AND activity = ? AND amount > 0 AND created_at >= ?", p.UserID, p.Activity, l.Since).
			Scan(&row).Error; err != nil {
			return err
		}
		if (l.MaxSum > 0 && row.Total >= l.MaxSum) || (l.MaxCount > 0 && row.Cnt >= l.MaxCount) {
			return &LimitError{Window: l.Window}
		}
	}
	return nil
}

type LedgerRepository interface {
	Post(ctx context.Context, p Posting) (*model.LedgerEntry, error)
	// SumEarned sums positive amounts at or after since. Empty activity
	// matches every activity; zero since matches all time.
	SumEarned(ctx context.Context, userID, activity string, since time.Time) (int64, error)
	CountEarned(ctx context.Context, userID, activity string) (int64, error)
	// EarningTimes returns timestamps of earned entries at or after since,
	// newest first, optionally restricted to activities. Bonus entries never
	// count as activity.
	EarningTimes(ctx context.Context, userID string, since time.Time, activities ...string) ([]time.Time, error)
	// Recent and List return entries in posting order, newest first.
	Recent(ctx context.Context, userID string, limit int) ([]model.LedgerEntry, error)
	List(ctx context.Context, userID string, limit, offset int) ([]model.LedgerEntry, int64, error)
	// After returns up to limit entries with id greater than afterID, oldest first.
	After(ctx context.Context, userID string, afterID uint64, limit int) ([]model.LedgerEntry, error)
	SetDB(db *gorm.DB)
}

type ledgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) LedgerRepository {
	return &ledgerRepository{db: db}
}

func (r *ledgerRepository) Post(ctx context.Context, p Posting) (*model.LedgerEntry, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var entry *model.LedgerEntry
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
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

func (r *ledgerRepository) earned(ctx context.Context, userID, activity string) *gorm.DB {
	q := r.db.WithContext(ctx).
		Model(&model.LedgerEntry{}).
		Where("user_id = ? AND amount > 0", userID)
	if activity != "" {
		q = q.Where("activity = ?", activity)
	}
	return q
}

func (r *ledgerRepository) SumEarned(ctx context.Context, userID, activity string, since time.Time) (int64, error) {
	if r.db == nil {
		return 0, ErrDBNotReady
	}
	q := r.earned(ctx, userID, activity)
	if !since.IsZero() {
		q = q.Where("created_at >= ?", since)
	}
	var sum int64
	if err := q.Select("COALESCE(SUM(amount), 0)").Row().Scan(&sum); err != nil {
		return 0, err
	}
	return sum, nil
}

func (r *ledgerRepository) CountEarned(ctx context.Context, userID, activity string) (int64, error) {
	if r.db == nil {
		return 0, ErrDBNotReady
	}
	var cnt int64
	if err := r.earned(ctx, userID, activity).Count(&cnt).Error; err != nil {
		return 0, err
	}
	return cnt, nil
}

func (r *ledgerRepository) EarningTimes(ctx context.Context, userID string, since time.Time, activities ...string) ([]time.Time, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	q := r.earned(ctx, userID, "").
		Where("type = ? AND created_at >= ?", model.LedgerEntryEarned, since)
	if len(activities) > 0 {
		q = q.Where("activity IN ?", activities)
	}
	var times []time.Time
	if err := q.Order("created_at DESC").Pluck("created_at", &times).Error; err != nil {
		return nil, err
	}
	return times, nil
}

func (r *ledgerRepository) Recent(ctx context.Context, userID string, limit int) ([]model.LedgerEntry, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var list []model.LedgerEntry
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id DESC").
		Limit(limit).
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *ledgerRepository) List(ctx context.Context, userID string, limit, offset int) ([]model.LedgerEntry, int64, error) {
	if r.db == nil {
		return nil, 0, ErrDBNotReady
	}
	var (
		list  []model.LedgerEntry
		total int64
	)
	if err := r.db.WithContext(ctx).Model(&model.LedgerEntry{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *ledgerRepository) After(ctx context.Context, userID string, afterID uint64, limit int) ([]model.LedgerEntry, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var list []model.LedgerEntry
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND id > ?", userID, afterID).
		Order("id ASC").
		Limit(limit).
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *ledgerRepository) SetDB(db *gorm.DB) {
	r.db = db
}
