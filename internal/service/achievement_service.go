package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/shinyyama/ctrl-alt-block/internal/economy"
	"github.com/shinyyama/ctrl-alt-block/internal/metrics"
	"github.com/shinyyama/ctrl-alt-block/internal/model"
	"github.com/shinyyama/ctrl-alt-block/internal/repository"
	"github.com/shinyyama/ctrl-alt-block/internal/reqctx"
	"go.uber.org/zap"
)

type UnlockedAchievement struct {
	ID          string
	Name        string
	Description string
	Badge       string
	Title       string
	RewardBytes int64
	Multipliers []string
}

type AchievementStatus struct {
	ID          string
	Name        string
	Description string
	Category    string
	Badge       string
	Title       string
	RewardBytes int64
	Unlocked    bool
	UnlockedAt  *time.Time
}

type AchievementService interface {
	// CheckAchievements grants every unearned achievement whose requirement
	// holds now. A failing grant is logged and skipped.
	CheckAchievements(ctx context.Context, userID, activity string, metadata map[string]interface{}) ([]UnlockedAchievement, error)
	GetActiveMultipliers(ctx context.Context, userID string) ([]model.UserMultiplier, error)
	ApplyMultipliers(ctx context.Context, userID string, baseAmount int64, activity string) (int64, error)
	ListAchievements(ctx context.Context, userID string) ([]AchievementStatus, error)
}

type achievementService struct {
	achievements repository.AchievementRepository
	multipliers  repository.MultiplierRepository
	ledger       repository.LedgerRepository
	opts         options
}

func NewAchievementService(
	achievements repository.AchievementRepository,
	multipliers repository.MultiplierRepository,
	ledger repository.LedgerRepository,
	opts ...Option,
) AchievementService {
	return &achievementService{
		achievements: achievements,
		multipliers:  multipliers,
		ledger:       ledger,
		opts:         buildOptions(opts),
	}
}

func (s *achievementService) CheckAchievements(ctx context.Context, userID, activity string, metadata map[string]interface{}) ([]UnlockedAchievement, error) {
	earned, err := s.achievements.EarnedIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load earned achievements: %w", err)
	}
	log := s.opts.logger.With(reqctx.Fields(ctx)...)
	now := s.opts.nowUTC()
	ev := &evaluator{ledger: s.ledger, userID: userID, now: now, loc: s.opts.loc}

	var pending []economy.Achievement
	for _, a := range economy.Achievements {
		if earned[a.ID] {
			continue
		}
		ok, err := ev.satisfied(ctx, a.Requirement)
		if err != nil {
			log.Warn("achievement evaluation failed", zap.String("achievement", a.ID), zap.Error(err))
			continue
		}
		if ok {
			pending = append(pending, a)
		}
	}

	var unlocked []UnlockedAchievement
	for _, a := range pending {
		grant := s.buildGrant(userID, activity, metadata, a, now)
		if err := s.achievements.Grant(ctx, grant); err != nil {
			if errors.Is(err, repository.ErrAlreadyGranted) {
				log.Debug("achievement already granted", zap.String("achievement", a.ID))
				continue
			}
			metrics.AchievementGrantErrors.Inc()
			log.Error("achievement grant failed", zap.String("achievement", a.ID), zap.Error(err))
			continue
		}
		metrics.AchievementsUnlocked.WithLabelValues(a.ID).Inc()
		ua := UnlockedAchievement{
			ID:          a.ID,
			Name:        a.Name,
			Description: a.Description,
			Badge:       a.Badge,
			Title:       a.Title,
			RewardBytes: a.RewardBytes,
		}
		for _, m := range grant.Multipliers {
			ua.Multipliers = append(ua.Multipliers, m.MultiplierID)
		}
		log.Info("achievement unlocked",
			zap.String("achievement", a.ID),
			zap.Int64("reward", a.RewardBytes),
			zap.Strings("multipliers", ua.Multipliers))
		achievementID := a.ID
		s.opts.notifier.Notify(ctx, userID, model.NotificationAchievementUnlocked,
			"Achievement unlocked: "+a.Name,
			fmt.Sprintf("%s (+%d bytes)", a.Description, a.RewardBytes),
			NotificationRef{AchievementID: &achievementID})
		unlocked = append(unlocked, ua)
	}
	return unlocked, nil
}

func (s *achievementService) buildGrant(userID, activity string, metadata map[string]interface{}, a economy.Achievement, now time.Time) repository.AchievementGrant {
	g := repository.AchievementGrant{
		Record: model.UserAchievement{
			UserID:        userID,
			AchievementID: a.ID,
			RewardBytes:   a.RewardBytes,
			AwardedAt:     now,
		},
	}
	if a.RewardBytes > 0 {
		id := a.ID
		meta := map[string]interface{}{
			"achievement_id":   a.ID,
			"trigger_activity": activity,
		}
		if len(metadata) > 0 {
			meta["trigger_metadata"] = metadata
		}
		g.Posting = &repository.Posting{
			UserID:      userID,
			Type:        model.LedgerEntryBonus,
			Activity:    economy.ActivityAchievement,
			Amount:      a.RewardBytes,
			Description: "Achievement unlocked: " + a.Name,
			RelatedID:   &id,
			Metadata:    meta,
			At:          now,
		}
	}
	for _, mid := range a.Unlocks {
		def, ok := economy.MultiplierByID(mid)
		if !ok {
			s.opts.logger.Warn("achievement unlocks unknown multiplier",
				zap.String("achievement", a.ID), zap.String("multiplier", mid))
			continue
		}
		g.Multipliers = append(g.Multipliers, model.UserMultiplier{
			UserID:       userID,
			MultiplierID: def.ID,
			Factor:       def.Factor,
			ActivatedAt:  now,
			ExpiresAt:    now.Add(time.Duration(def.DurationHours) * time.Hour),
			IsActive:     true,
		})
	}
	return g
}

func (s *achievementService) GetActiveMultipliers(ctx context.Context, userID string) ([]model.UserMultiplier, error) {
	return s.multipliers.ListActive(ctx, userID, s.opts.nowUTC())
}

// ApplyMultipliers compounds every matching active multiplier in activation
// order, bounds the product and floors the result.
func (s *achievementService) ApplyMultipliers(ctx context.Context, userID string, baseAmount int64, activity string) (int64, error) {
	if baseAmount <= 0 {
		return baseAmount, nil
	}
	active, err := s.GetActiveMultipliers(ctx, userID)
	if err != nil {
		return 0, err
	}
	factor := 1.0
	for _, m := range active {
		def, ok := economy.MultiplierByID(m.MultiplierID)
		if !ok || !def.AppliesTo(activity) {
			continue
		}
		factor *= m.Factor
	}
	if s.opts.maxMultiplier > 0 && factor > s.opts.maxMultiplier {
		factor = s.opts.maxMultiplier
	}
	return int64(math.Floor(float64(baseAmount) * factor)), nil
}

func (s *achievementService) ListAchievements(ctx context.Context, userID string) ([]AchievementStatus, error) {
	records, err := s.achievements.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	unlockedAt := make(map[string]time.Time, len(records))
	for _, r := range records {
		unlockedAt[r.AchievementID] = r.AwardedAt
	}
	out := make([]AchievementStatus, 0, len(economy.Achievements))
	for _, a := range economy.Achievements {
		st := AchievementStatus{
			ID:          a.ID,
			Name:        a.Name,
			Description: a.Description,
			Category:    a.Category,
			Badge:       a.Badge,
			Title:       a.Title,
			RewardBytes: a.RewardBytes,
		}
		if at, ok := unlockedAt[a.ID]; ok {
			at := at
			st.Unlocked = true
			st.UnlockedAt = &at
		}
		out = append(out, st)
	}
	return out, nil
}

// evaluator memoizes ledger aggregates across one CheckAchievements call.
type evaluator struct {
	ledger repository.LedgerRepository
	userID string
	now    time.Time
	loc    *time.Location

	counts     map[string]int64
	total      *int64
	streak     *int
	activeDays *int
}

func (e *evaluator) satisfied(ctx context.Context, req economy.Requirement) (bool, error) {
	switch req.Kind {
	case economy.RequirementCount:
		n, err := e.count(ctx, req.Activity)
		return n >= req.Target, err
	case economy.RequirementTotal:
		if e.total == nil {
			sum, err := e.ledger.SumEarned(ctx, e.userID, "", time.Time{})
			if err != nil {
				return false, err
			}
			e.total = &sum
		}
		return *e.total >= req.Target, nil
	case economy.RequirementStreak:
		if e.streak == nil {
			n, err := currentStreak(ctx, e.ledger, e.userID, e.now, e.loc)
			if err != nil {
				return false, err
			}
			e.streak = &n
		}
		return int64(*e.streak) >= req.Target, nil
	case economy.RequirementCombination:
		if req.Activity != economy.ComboPerfectWeek {
			return false, fmt.Errorf("unknown combination %q", req.Activity)
		}
		if e.activeDays == nil {
			n, err := activeDaysLastWeek(ctx, e.ledger, e.userID, e.now, e.loc)
			if err != nil {
				return false, err
			}
			e.activeDays = &n
		}
		return int64(*e.activeDays) >= req.Target, nil
	default:
		return false, fmt.Errorf("unknown requirement kind %q", req.Kind)
	}
}

func (e *evaluator) count(ctx context.Context, activity string) (int64, error) {
	if n, ok := e.counts[activity]; ok {
		return n, nil
	}
	n, err := e.ledger.CountEarned(ctx, e.userID, activity)
	if err != nil {
		return 0, err
	}
	if e.counts == nil {
		e.counts = make(map[string]int64)
	}
	e.counts[activity] = n
	return n, nil
}
