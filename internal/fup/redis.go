package fup

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/shinyyama/ctrl-alt-block/internal/model"
)

// RedisClient is the subset of *redis.Client the enforcer needs.
type RedisClient interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	TTL(ctx context.Context, key string) *redis.DurationCmd
}

type RedisEnforcer struct {
	rds    RedisClient
	policy Policy
	opts   options
}

func NewRedisEnforcer(rds RedisClient, policy Policy, opts ...Option) *RedisEnforcer {
	return &RedisEnforcer{rds: rds, policy: policy, opts: buildOptions(opts)}
}

func HourKey(userID string, hourStart time.Time) string {
	return fmt.Sprintf("fup:therapy:%s:h:%s", userID, hourStart.Format("2006010215"))
}

func DayKey(userID string, dayStart time.Time) string {
	return fmt.Sprintf("fup:therapy:%s:d:%s", userID, dayStart.Format("20060102"))
}

func (e *RedisEnforcer) EnforceTherapy(ctx context.Context, userID string, tier model.UserTier) (Decision, error) {
	limits := e.policy.For(tier)
	now := e.opts.now()
	hourStart, dayStart := windows(now, e.opts.loc)

	dayKey := DayKey(userID, dayStart)
	dayEnd := dayStart.AddDate(0, 0, 1)
	over, wait, err := e.hit(ctx, dayKey, limits.PerDay, dayEnd.Sub(now))
	if err != nil {
		return Decision{}, err
	}
	if over {
		return deny(WindowDay, limits.PerDay, wait), nil
	}

	hourKey := HourKey(userID, hourStart)
	hourEnd := hourStart.Add(time.Hour)
	over, wait, err = e.hit(ctx, hourKey, limits.PerHour, hourEnd.Sub(now))
	if err != nil {
		return Decision{}, err
	}
	if over {
		return deny(WindowHour, limits.PerHour, wait), nil
	}
	return allow(), nil
}

// hit counts one attempt in key. The key expires with its window; when the
// limit is exceeded the remaining TTL is the cooldown.
func (e *RedisEnforcer) hit(ctx context.Context, key string, limit int, remaining time.Duration) (bool, time.Duration, error) {
	n, err := e.rds.Incr(ctx, key).Result()
	if err != nil {
		return false, 0, fmt.Errorf("fup incr %s: %w", key, err)
	}
	if n == 1 {
		if err := e.rds.Expire(ctx, key, remaining).Err(); err != nil {
			return false, 0, fmt.Errorf("fup expire %s: %w", key, err)
		}
	}
	if n <= int64(limit) {
		return false, 0, nil
	}
	ttl, err := e.rds.TTL(ctx, key).Result()
	if err != nil {
		return false, 0, fmt.Errorf("fup ttl %s: %w", key, err)
	}
	if ttl <= 0 {
		ttl = remaining
	}
	return true, ttl, nil
}
