package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shinyyama/ctrl-alt-block/internal/economy"
	"github.com/shinyyama/ctrl-alt-block/internal/model"
	"github.com/shinyyama/ctrl-alt-block/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func activate(t *testing.T, f *fixture, id string, factor float64, activated, expires time.Time, active bool) {
	require.NoError(t, f.multRepo.Activate(context.Background(), &model.UserMultiplier{
		UserID: "u1", MultiplierID: id, Factor: factor,
		ActivatedAt: activated, ExpiresAt: expires, IsActive: active,
	}))
}

func TestApplyMultipliers(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)
	f.createUser(t, "u1")

	activate(t, f, economy.MultiplierStreakFire, 1.5, t0.Add(-2*time.Hour), t0.Add(time.Hour), true)
	activate(t, f, economy.MultiplierReflectionBoost, 2.0, t0.Add(-time.Hour), t0.Add(time.Hour), true)
	activate(t, f, economy.MultiplierByteMagnet, 1.25, t0.Add(-3*time.Hour), t0.Add(-time.Minute), true)
	activate(t, f, economy.MultiplierByteMagnet, 1.25, t0.Add(-3*time.Hour), t0.Add(time.Hour), false)

	got, err := f.achievements.ApplyMultipliers(ctx, "u1", 100, economy.ActivityJournalEntry)
	require.NoError(t, err)
	assert.Equal(t, int64(300), got)

	got, err = f.achievements.ApplyMultipliers(ctx, "u1", 100, economy.ActivityDailyLogin)
	require.NoError(t, err)
	assert.Equal(t, int64(150), got)

	got, err = f.achievements.ApplyMultipliers(ctx, "u1", 15, economy.ActivityDailyLogin)
	require.NoError(t, err)
	assert.Equal(t, int64(22), got)

	got, err = f.achievements.ApplyMultipliers(ctx, "nobody", 100, economy.ActivityJournalEntry)
	require.NoError(t, err)
	assert.Equal(t, int64(100), got)

	active, err := f.achievements.GetActiveMultipliers(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, economy.MultiplierStreakFire, active[0].MultiplierID)
	assert.Equal(t, economy.MultiplierReflectionBoost, active[1].MultiplierID)
}

func TestApplyMultipliers_CombinedBound(t *testing.T) {
	ctx := context.Background()
	for _, tc := range []struct {
		name  string
		limit float64
		want  int64
	}{
		{"default bound", defaultMaxCombinedMultiplier, 400},
		{"unbounded", 0, 675},
	} {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, true, WithMaxCombinedMultiplier(tc.limit))
			f.createUser(t, "u1")
			for i := 0; i < 3; i++ {
				activate(t, f, economy.MultiplierStreakFire, 1.5, t0.Add(-time.Duration(i+1)*time.Minute), t0.Add(time.Hour), true)
			}
			activate(t, f, economy.MultiplierReflectionBoost, 2.0, t0, t0.Add(time.Hour), true)

			got, err := f.achievements.ApplyMultipliers(ctx, "u1", 100, economy.ActivityJournalEntry)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestCheckAchievements_NeverTwice(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)
	f.createUser(t, "u1")
	f.post(t, "u1", economy.ActivityDailyRitual1, 50, t0)

	unlocked, err := f.achievements.CheckAchievements(ctx, "u1", economy.ActivityDailyRitual1, nil)
	require.NoError(t, err)
	require.Len(t, unlocked, 1)
	assert.Equal(t, "FIRST_BOOT", unlocked[0].ID)
	assert.Equal(t, int64(75), f.balance(t, "u1"))

	for i := 0; i < 3; i++ {
		unlocked, err = f.achievements.CheckAchievements(ctx, "u1", economy.ActivityDailyRitual1, nil)
		require.NoError(t, err)
		assert.Empty(t, unlocked)
	}
	assert.Equal(t, int64(75), f.balance(t, "u1"))

	var records int64
	require.NoError(t, f.db.Model(&model.UserAchievement{}).Where("user_id = ?", "u1").Count(&records).Error)
	assert.Equal(t, int64(1), records)
}

func TestCheckAchievements_UnlocksTimedMultiplier(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)
	f.createUser(t, "u1")
	for i := 0; i < 25; i++ {
		f.post(t, "u1", economy.ActivityJournalEntry, 20, t0.Add(-time.Duration(i)*time.Minute))
	}

	unlocked, err := f.achievements.CheckAchievements(ctx, "u1", economy.ActivityJournalEntry, map[string]interface{}{"entry_id": "j-25"})
	require.NoError(t, err)
	require.Len(t, unlocked, 2)
	assert.Equal(t, "DEAR_DIARY", unlocked[0].ID)
	assert.Equal(t, "LOG_KEEPER", unlocked[1].ID)
	assert.Equal(t, []string{economy.MultiplierReflectionBoost}, unlocked[1].Multipliers)
	assert.Equal(t, int64(500+25+250), f.balance(t, "u1"))

	active, err := f.achievements.GetActiveMultipliers(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.True(t, active[0].ExpiresAt.Equal(t0.Add(48*time.Hour)))

	got, err := f.achievements.ApplyMultipliers(ctx, "u1", 20, economy.ActivityJournalEntry)
	require.NoError(t, err)
	assert.Equal(t, int64(40), got)

	f.clock.Advance(49 * time.Hour)
	active, err = f.achievements.GetActiveMultipliers(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, active)
	got, err = f.achievements.ApplyMultipliers(ctx, "u1", 20, economy.ActivityJournalEntry)
	require.NoError(t, err)
	assert.Equal(t, int64(20), got)
}

func TestCheckAchievements_StreakAndPerfectWeek(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)
	f.createUser(t, "u1")
	for i := 0; i < 7; i++ {
		f.post(t, "u1", economy.ActivityDailyLogin, 10, t0.Add(-time.Duration(i)*24*time.Hour))
	}

	unlocked, err := f.achievements.CheckAchievements(ctx, "u1", economy.ActivityDailyLogin, nil)
	require.NoError(t, err)
	var ids []string
	for _, u := range unlocked {
		ids = append(ids, u.ID)
	}
	assert.Equal(t, []string{"STREAK_STARTER", "WEEK_WARRIOR", "PERFECT_WEEK"}, ids)
	assert.Equal(t, int64(70+50+150+300), f.balance(t, "u1"))

	active, err := f.achievements.GetActiveMultipliers(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, economy.MultiplierStreakFire, active[0].MultiplierID)
	assert.Equal(t, economy.MultiplierPerfectWeek, active[1].MultiplierID)
}

type flakyAchievementRepo struct {
	repository.AchievementRepository
	failFor  string
	hideEarn bool
}

func (r *flakyAchievementRepo) EarnedIDs(ctx context.Context, userID string) (map[string]bool, error) {
	if r.hideEarn {
		return map[string]bool{}, nil
	}
	return r.AchievementRepository.EarnedIDs(ctx, userID)
}

func (r *flakyAchievementRepo) Grant(ctx context.Context, g repository.AchievementGrant) error {
	if g.Record.AchievementID == r.failFor {
		return errors.New("deadlock detected")
	}
	return r.AchievementRepository.Grant(ctx, g)
}

func TestCheckAchievements_FailureIsIsolated(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)
	f.createUser(t, "u1")
	f.post(t, "u1", economy.ActivityDailyRitual1, 50, t0)
	f.post(t, "u1", economy.ActivityJournalEntry, 20, t0)

	svc := NewAchievementService(&flakyAchievementRepo{AchievementRepository: f.achRepo, failFor: "FIRST_BOOT"}, f.multRepo, f.ledger, WithClock(f.clock.Now))
	unlocked, err := svc.CheckAchievements(ctx, "u1", economy.ActivityJournalEntry, nil)
	require.NoError(t, err)
	require.Len(t, unlocked, 1)
	assert.Equal(t, "DEAR_DIARY", unlocked[0].ID)
	assert.Equal(t, int64(70+25), f.balance(t, "u1"))
}

func TestCheckAchievements_DuplicateGrantSkipped(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)
	f.createUser(t, "u1")
	f.post(t, "u1", economy.ActivityDailyRitual1, 50, t0)

	_, err := f.achievements.CheckAchievements(ctx, "u1", economy.ActivityDailyRitual1, nil)
	require.NoError(t, err)

	// A stale earned set makes the service retry FIRST_BOOT; the unique
	// record stops the second reward.
	svc := NewAchievementService(&flakyAchievementRepo{AchievementRepository: f.achRepo, hideEarn: true}, f.multRepo, f.ledger, WithClock(f.clock.Now))
	unlocked, err := svc.CheckAchievements(ctx, "u1", economy.ActivityDailyRitual1, nil)
	require.NoError(t, err)
	assert.Empty(t, unlocked)
	assert.Equal(t, int64(75), f.balance(t, "u1"))
	assert.Len(t, f.entries(t, "u1"), 2)
}

func TestListAchievements(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)
	f.createUser(t, "u1")
	f.post(t, "u1", economy.ActivityDailyRitual1, 50, t0)
	_, err := f.achievements.CheckAchievements(ctx, "u1", economy.ActivityDailyRitual1, nil)
	require.NoError(t, err)

	list, err := f.achievements.ListAchievements(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, len(economy.Achievements))
	for _, st := range list {
		if st.ID == "FIRST_BOOT" {
			assert.True(t, st.Unlocked)
			require.NotNil(t, st.UnlockedAt)
			assert.True(t, st.UnlockedAt.Equal(t0))
		} else {
			assert.False(t, st.Unlocked, st.ID)
			assert.Nil(t, st.UnlockedAt)
		}
	}
}
