// Package metrics holds the Prometheus collectors of the byte economy.
// They register on the default registry, which /metrics serves.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var BytesAwarded = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "ctrlaltblock",
	Subsystem: "bytes",
	Name:      "awarded_total",
	Help:      "Bytes credited to users, by activity.",
}, []string{"activity"})

var BytesSpent = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "ctrlaltblock",
	Subsystem: "bytes",
	Name:      "spent_total",
	Help:      "Bytes debited from users.",
})

// CapHits counts awards refused because the daily or weekly cap was met.
var CapHits = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "ctrlaltblock",
	Subsystem: "bytes",
	Name:      "cap_hits_total",
	Help:      "Awards refused by an earning cap.",
}, []string{"activity", "window"})

var InsufficientBalance = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "ctrlaltblock",
	Subsystem: "bytes",
	Name:      "insufficient_balance_total",
	Help:      "Spends refused for insufficient balance.",
})

var GlitchBonuses = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "ctrlaltblock",
	Subsystem: "bytes",
	Name:      "glitch_bonuses_total",
	Help:      "Glitch bonuses granted, by tier.",
}, []string{"tier"})

var AchievementsUnlocked = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "ctrlaltblock",
	Subsystem: "achievements",
	Name:      "unlocked_total",
	Help:      "Achievements unlocked, by achievement id.",
}, []string{"achievement"})

var AchievementGrantErrors = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "ctrlaltblock",
	Subsystem: "achievements",
	Name:      "grant_errors_total",
	Help:      "Achievement grants that failed and were skipped.",
})

var TherapySessions = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "ctrlaltblock",
	Subsystem: "therapy",
	Name:      "sessions_total",
	Help:      "Voice therapy sessions, by voice and session type.",
}, []string{"voice", "session_type"})

var FUPDenials = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "ctrlaltblock",
	Subsystem: "therapy",
	Name:      "fup_denials_total",
	Help:      "Therapy sessions denied by the fair-use policy, by window.",
}, []string{"window"})
