package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shinyyama/ctrl-alt-block/internal/db"
	"github.com/shinyyama/ctrl-alt-block/internal/model"
	"github.com/shinyyama/ctrl-alt-block/internal/repository"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// Wednesday noon; the week started on Monday 2026-03-02.
var t0 = time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	db           *gorm.DB
	clock        *testClock
	users        repository.UserRepository
	ledger       repository.LedgerRepository
	streaks      repository.StreakBonusRepository
	achRepo      repository.AchievementRepository
	multRepo     repository.MultiplierRepository
	achievements AchievementService
	bytes        ByteService
}

func setupTestDB(t *testing.T) *gorm.DB {
	conn, err := db.OpenSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.Migrate(conn))
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return conn
}

// newFixture wires the services over an in-memory database. With
// withAchievements false the byte service runs without multipliers or
// achievement checks.
func newFixture(t *testing.T, withAchievements bool, opts ...Option) *fixture {
	conn := setupTestDB(t)
	f := &fixture{
		db:       conn,
		clock:    &testClock{now: t0},
		users:    repository.NewUserRepository(conn),
		ledger:   repository.NewLedgerRepository(conn),
		streaks:  repository.NewStreakBonusRepository(conn),
		achRepo:  repository.NewAchievementRepository(conn),
		multRepo: repository.NewMultiplierRepository(conn),
	}
	opts = append([]Option{WithClock(f.clock.Now)}, opts...)
	f.achievements = NewAchievementService(f.achRepo, f.multRepo, f.ledger, opts...)
	var ach AchievementService
	if withAchievements {
		ach = f.achievements
	}
	f.bytes = NewByteService(f.users, f.ledger, f.streaks, ach, opts...)
	return f
}

func (f *fixture) createUser(t *testing.T, id string) {
	_, err := f.users.Ensure(context.Background(), id)
	require.NoError(t, err)
}

func (f *fixture) post(t *testing.T, uid, activity string, amount int64, at time.Time) {
	_, err := f.ledger.Post(context.Background(), repository.Posting{
		UserID:   uid,
		Type:     model.LedgerEntryEarned,
		Activity: activity,
		Amount:   amount,
		At:       at,
	})
	require.NoError(t, err)
}

func (f *fixture) balance(t *testing.T, uid string) int64 {
	u, err := f.users.Get(context.Background(), uid)
	require.NoError(t, err)
	return u.ByteBalance
}

func (f *fixture) entries(t *testing.T, uid string) []model.LedgerEntry {
	var list []model.LedgerEntry
	require.NoError(t, f.db.Where("user_id = ?", uid).Order("id ASC").Find(&list).Error)
	return list
}
