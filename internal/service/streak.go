package service

import (
	"context"
	"time"

	"github.com/shinyyama/ctrl-alt-block/internal/economy"
	"github.com/shinyyama/ctrl-alt-block/internal/repository"
)

const (
	streakLookbackDays = 30
	perfectWeekDays    = 7
)

func startOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// startOfWeek returns Monday 00:00 of t's week in loc.
func startOfWeek(t time.Time, loc *time.Location) time.Time {
	d := startOfDay(t, loc)
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

func dayKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("2006-01-02")
}

// DistinctDays returns the calendar days in loc that contain a timestamp.
func DistinctDays(times []time.Time, loc *time.Location) map[string]bool {
	days := make(map[string]bool, len(times))
	for _, t := range times {
		days[dayKey(t, loc)] = true
	}
	return days
}

// CountStreak counts consecutive active days ending at today, scanning at
// most maxDays back and stopping at the first day without activity.
func CountStreak(times []time.Time, today time.Time, loc *time.Location, maxDays int) int {
	days := DistinctDays(times, loc)
	start := startOfDay(today, loc)
	streak := 0
	for i := 0; i < maxDays; i++ {
		if !days[dayKey(start.AddDate(0, 0, -i), loc)] {
			break
		}
		streak++
	}
	return streak
}

func currentStreak(ctx context.Context, ledger repository.LedgerRepository, userID string, now time.Time, loc *time.Location) (int, error) {
	since := startOfDay(now, loc).AddDate(0, 0, -(streakLookbackDays - 1))
	times, err := ledger.EarningTimes(ctx, userID, since.UTC())
	if err != nil {
		return 0, err
	}
	return CountStreak(times, now, loc, streakLookbackDays), nil
}

// typedStreak counts consecutive days ending today on which the user earned
// one of the streak type's activities, looking back at most maxDays.
func typedStreak(ctx context.Context, ledger repository.LedgerRepository, userID, streakType string, maxDays int, now time.Time, loc *time.Location) (int, error) {
	since := startOfDay(now, loc).AddDate(0, 0, -(maxDays - 1))
	times, err := ledger.EarningTimes(ctx, userID, since.UTC(), economy.StreakActivities[streakType]...)
	if err != nil {
		return 0, err
	}
	return CountStreak(times, now, loc, maxDays), nil
}

// activeDaysLastWeek counts distinct active days among today and the six
// days before it.
func activeDaysLastWeek(ctx context.Context, ledger repository.LedgerRepository, userID string, now time.Time, loc *time.Location) (int, error) {
	since := startOfDay(now, loc).AddDate(0, 0, -(perfectWeekDays - 1))
	times, err := ledger.EarningTimes(ctx, userID, since.UTC())
	if err != nil {
		return 0, err
	}
	return len(DistinctDays(times, loc)), nil
}
