// Package fup enforces the fair-use policy for voice therapy sessions.
// Every attempt counts against fixed calendar windows: one per hour and
// one per day, per user.
package fup

import (
	"context"
	"fmt"
	"time"

	"github.com/shinyyama/ctrl-alt-block/internal/model"
)

const (
	WindowHour = "hour"
	WindowDay  = "day"
)

type Decision struct {
	Allowed         bool
	Reason          string
	CooldownMinutes *int
	Window          string
}

type Limits struct {
	PerHour int
	PerDay  int
}

type Policy struct {
	Free Limits
	Paid Limits
}

func DefaultPolicy() Policy {
	return Policy{
		Free: Limits{PerHour: 2, PerDay: 5},
		Paid: Limits{PerHour: 10, PerDay: 50},
	}
}

func (p Policy) For(tier model.UserTier) Limits {
	if tier == model.UserTierPaid {
		return p.Paid
	}
	return p.Free
}

type Enforcer interface {
	EnforceTherapy(ctx context.Context, userID string, tier model.UserTier) (Decision, error)
}

type Option func(*options)

type options struct {
	now func() time.Time
	loc *time.Location
}

func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func WithLocation(loc *time.Location) Option {
	return func(o *options) {
		if loc != nil {
			o.loc = loc
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now, loc: time.UTC}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// windows returns the hour and day window starts of t in loc.
func windows(t time.Time, loc *time.Location) (hour, day time.Time) {
	t = t.In(loc)
	hour = time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, loc)
	day = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	return hour, day
}

func cooldownMinutes(d time.Duration) *int {
	m := int((d + time.Minute - 1) / time.Minute)
	if m < 1 {
		m = 1
	}
	return &m
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(window string, limit int, wait time.Duration) Decision {
	var reason string
	switch window {
	case WindowHour:
		reason = fmt.Sprintf("Hourly voice therapy limit of %d sessions reached", limit)
	default:
		reason = fmt.Sprintf("Daily voice therapy limit of %d sessions reached", limit)
	}
	return Decision{
		Allowed:         false,
		Reason:          reason,
		CooldownMinutes: cooldownMinutes(wait),
		Window:          window,
	}
}
