package service

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"go.uber.org/zap"
)

const defaultMaxCombinedMultiplier = 4.0

type Option func(*options)

type options struct {
	logger        *zap.Logger
	now           func() time.Time
	loc           *time.Location
	rng           *lockedRand
	maxMultiplier float64
	glitchChance  float64
	notifier      Notifier
}

func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithClock replaces time.Now; stored timestamps are always UTC.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithLocation sets the zone whose calendar days and weeks bound caps,
// streaks and stats.
func WithLocation(loc *time.Location) Option {
	return func(o *options) {
		if loc != nil {
			o.loc = loc
		}
	}
}

func WithRand(r *rand.Rand) Option {
	return func(o *options) { o.rng = &lockedRand{r: r} }
}

// WithMaxCombinedMultiplier bounds the product of stacked multipliers.
// Zero or less disables the bound.
func WithMaxCombinedMultiplier(limit float64) Option {
	return func(o *options) { o.maxMultiplier = limit }
}

// WithGlitchChance sets the probability that a successful award also rolls
// a glitch bonus. Zero disables the roll.
func WithGlitchChance(p float64) Option {
	return func(o *options) { o.glitchChance = p }
}

// WithNotifier receives unlock and bonus events after they committed.
func WithNotifier(n Notifier) Option {
	return func(o *options) {
		if n != nil {
			o.notifier = n
		}
	}
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, string, string, string, string, NotificationRef) {}

func buildOptions(opts []Option) options {
	o := options{
		logger:        zap.NewNop(),
		now:           time.Now,
		loc:           time.UTC,
		maxMultiplier: defaultMaxCombinedMultiplier,
		notifier:      nopNotifier{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.rng == nil {
		seed := uint64(time.Now().UnixNano())
		o.rng = &lockedRand{r: rand.New(rand.NewPCG(seed, seed>>1|1))}
	}
	return o
}

func (o options) nowUTC() time.Time {
	return o.now().UTC()
}

type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (l *lockedRand) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Float64()
}

// Int64Range returns a uniform integer in [lo, hi].
func (l *lockedRand) Int64Range(lo, hi int64) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return lo + l.r.Int64N(hi-lo+1)
}
