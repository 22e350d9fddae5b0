package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shinyyama/ctrl-alt-block/internal/economy"
	"github.com/shinyyama/ctrl-alt-block/internal/metrics"
	"github.com/shinyyama/ctrl-alt-block/internal/model"
	"github.com/shinyyama/ctrl-alt-block/internal/repository"
	"github.com/shinyyama/ctrl-alt-block/internal/reqctx"
	"go.uber.org/zap"
)

const (
	recentTransactions  = 10
	defaultPageSize     = 20
	maxPageSize         = 100
	windowDaily         = "daily"
	windowWeekly        = "weekly"
	msgInsufficient     = "Insufficient balance"
	msgNoStreakBonus    = "No bonus for this streak length"
	msgStreakBonusTaken = "Streak bonus already awarded"
	msgStreakTooShort   = "Streak not long enough yet"
)

type AwardResult struct {
	Success      bool
	Message      string
	BaseBytes    int64
	BytesAwarded int64
	NewBalance   int64
	LimitReached bool
	Entry        *model.LedgerEntry
	Achievements []UnlockedAchievement
	Glitch       *GlitchBonusResult
}

type SpendResult struct {
	Success    bool
	Message    string
	BytesSpent int64
	NewBalance int64
	Entry      *model.LedgerEntry
}

type StreakBonusResult struct {
	Success        bool
	Message        string
	AlreadyAwarded bool
	StreakType     string
	StreakDays     int
	CurrentStreak  int
	BytesAwarded   int64
	Badge          string
	NewBalance     int64
}

type GlitchBonusResult struct {
	Success      bool
	Message      string
	Tier         string
	BytesAwarded int64
	NewBalance   int64
}

type EarningStats struct {
	Today         int64
	ThisWeek      int64
	AllTime       int64
	CurrentStreak int
}

type ByteInfo struct {
	UserID             string
	Balance            int64
	Tier               model.UserTier
	Archetype          string
	RecentTransactions []model.LedgerEntry
	Stats              EarningStats
}

type TransactionPage struct {
	Items  []model.LedgerEntry
	Total  int64
	Limit  int
	Offset int
}

type ByteService interface {
	AwardBytes(ctx context.Context, userID, activity string, metadata map[string]interface{}) (*AwardResult, error)
	SpendBytes(ctx context.Context, userID string, amount int64, description string, relatedID *string, metadata map[string]interface{}) (*SpendResult, error)
	AwardStreakBonus(ctx context.Context, userID, streakType string, streakDays int) (*StreakBonusResult, error)
	GenerateGlitchBonus(ctx context.Context, userID string) (*GlitchBonusResult, error)
	GetUserByteInfo(ctx context.Context, userID string) (*ByteInfo, error)
	GetEarningStats(ctx context.Context, userID string) (*EarningStats, error)
	ListTransactions(ctx context.Context, userID string, limit, offset int) (*TransactionPage, error)
}

type byteService struct {
	users        repository.UserRepository
	ledger       repository.LedgerRepository
	streaks      repository.StreakBonusRepository
	achievements AchievementService
	opts         options
}

func NewByteService(
	users repository.UserRepository,
	ledger repository.LedgerRepository,
	streaks repository.StreakBonusRepository,
	achievements AchievementService,
	opts ...Option,
) ByteService {
	return &byteService{
		users:        users,
		ledger:       ledger,
		streaks:      streaks,
		achievements: achievements,
		opts:         buildOptions(opts),
	}
}

func (s *byteService) logger(ctx context.Context) *zap.Logger {
	return s.opts.logger.With(reqctx.Fields(ctx)...)
}

func (s *byteService) getUser(ctx context.Context, userID string) (*model.User, error) {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

func mapPostErr(err error) error {
	if errors.Is(err, repository.ErrUserNotFound) {
		return ErrNotFound
	}
	return err
}

func (s *byteService) AwardBytes(ctx context.Context, userID, activity string, metadata map[string]interface{}) (*AwardResult, error) {
	act, ok := economy.ActivityFor(activity)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownActivity, activity)
	}
	u, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := s.opts.nowUTC()

	amount := act.Bytes
	if s.achievements != nil {
		amount, err = s.achievements.ApplyMultipliers(ctx, userID, act.Bytes, act.Key)
		if err != nil {
			return nil, fmt.Errorf("apply multipliers: %w", err)
		}
	}
	entry, err := s.ledger.Post(ctx, repository.Posting{
		UserID:      userID,
		Type:        model.LedgerEntryEarned,
		Activity:    act.Key,
		Amount:      amount,
		Description: act.Description,
		Metadata:    metadata,
		At:          now,
		Limits:      s.capLimits(act, now),
	})
	if err != nil {
		var le *repository.LimitError
		if errors.As(err, &le) {
			metrics.CapHits.WithLabelValues(act.Key, le.Window).Inc()
			return &AwardResult{
				Success:      false,
				Message:      fmt.Sprintf("%s limit reached for %s", capLabel(le.Window), act.Key),
				BaseBytes:    act.Bytes,
				NewBalance:   s.balanceOr(ctx, userID, u.ByteBalance),
				LimitReached: true,
			}, nil
		}
		return nil, mapPostErr(err)
	}
	metrics.BytesAwarded.WithLabelValues(act.Key).Add(float64(amount))
	s.logger(ctx).Info("bytes awarded",
		zap.String("user_id", userID),
		zap.String("activity", act.Key),
		zap.Int64("base", act.Bytes),
		zap.Int64("amount", amount),
		zap.Int64("balance", entry.BalanceAfter))

	res := &AwardResult{
		Success:      true,
		Message:      fmt.Sprintf("Earned %d bytes", amount),
		BaseBytes:    act.Bytes,
		BytesAwarded: amount,
		NewBalance:   entry.BalanceAfter,
		Entry:        entry,
	}
	res.Achievements = s.checkAchievements(ctx, userID, act.Key, metadata)
	if len(res.Achievements) > 0 {
		res.NewBalance = s.balanceOr(ctx, userID, res.NewBalance)
	}
	if g := s.rollGlitch(ctx, userID, now); g != nil {
		res.Glitch = g
		res.NewBalance = g.NewBalance
	}
	return res, nil
}

// rollGlitch gives a successful award its chance at a glitch bonus, at most
// GlitchRollsPerDay times per calendar day.
func (s *byteService) rollGlitch(ctx context.Context, userID string, now time.Time) *GlitchBonusResult {
	if s.opts.glitchChance <= 0 || s.opts.rng.Float64() >= s.opts.glitchChance {
		return nil
	}
	g, err := s.glitch(ctx, userID, []repository.Limit{{
		Window:   windowDaily,
		Since:    startOfDay(now, s.opts.loc).UTC(),
		MaxCount: economy.GlitchRollsPerDay,
	}})
	if err != nil {
		if !errors.Is(err, repository.ErrLimitReached) {
			s.logger(ctx).Warn("glitch roll failed", zap.String("user_id", userID), zap.Error(err))
		}
		return nil
	}
	return g
}

// capLimits bounds the bytes the activity may earn today and this week.
// Multiplied amounts count against the cap.
func (s *byteService) capLimits(act economy.Activity, now time.Time) []repository.Limit {
	var limits []repository.Limit
	if act.DailyCap > 0 {
		limits = append(limits, repository.Limit{
			Window: windowDaily,
			Since:  startOfDay(now, s.opts.loc).UTC(),
			MaxSum: act.DailyCap,
		})
	}
	if act.WeeklyCap > 0 {
		limits = append(limits, repository.Limit{
			Window: windowWeekly,
			Since:  startOfWeek(now, s.opts.loc).UTC(),
			MaxSum: act.WeeklyCap,
		})
	}
	return limits
}

func capLabel(window string) string {
	if window == windowWeekly {
		return "Weekly"
	}
	return "Daily"
}

// checkAchievements runs after the credit committed; its failures never
// undo the credit.
func (s *byteService) checkAchievements(ctx context.Context, userID, activity string, metadata map[string]interface{}) []UnlockedAchievement {
	if s.achievements == nil {
		return nil
	}
	unlocked, err := s.achievements.CheckAchievements(ctx, userID, activity, metadata)
	if err != nil {
		s.logger(ctx).Warn("achievement check failed", zap.String("user_id", userID), zap.Error(err))
		return nil
	}
	return unlocked
}

func (s *byteService) balanceOr(ctx context.Context, userID string, fallback int64) int64 {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return fallback
	}
	return u.ByteBalance
}

func (s *byteService) SpendBytes(ctx context.Context, userID string, amount int64, description string, relatedID *string, metadata map[string]interface{}) (*SpendResult, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if description == "" {
		description = "Spent bytes"
	}
	entry, err := s.ledger.Post(ctx, repository.Posting{
		UserID:      userID,
		Type:        model.LedgerEntrySpent,
		Activity:    economy.ActivitySpend,
		Amount:      -amount,
		Description: description,
		RelatedID:   relatedID,
		Metadata:    metadata,
		At:          s.opts.nowUTC(),
	})
	if err != nil {
		if errors.Is(err, repository.ErrInsufficientBalance) {
			metrics.InsufficientBalance.Inc()
			u, gerr := s.getUser(ctx, userID)
			if gerr != nil {
				return nil, gerr
			}
			return &SpendResult{Success: false, Message: msgInsufficient, NewBalance: u.ByteBalance}, nil
		}
		return nil, mapPostErr(err)
	}
	metrics.BytesSpent.Add(float64(amount))
	s.logger(ctx).Info("bytes spent",
		zap.String("user_id", userID),
		zap.Int64("amount", amount),
		zap.Int64("balance", entry.BalanceAfter))
	return &SpendResult{
		Success:    true,
		Message:    fmt.Sprintf("Spent %d bytes", amount),
		BytesSpent: amount,
		NewBalance: entry.BalanceAfter,
		Entry:      entry,
	}, nil
}

func (s *byteService) AwardStreakBonus(ctx context.Context, userID, streakType string, streakDays int) (*StreakBonusResult, error) {
	if !economy.IsStreakType(streakType) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidStreakType, streakType)
	}
	if _, err := s.getUser(ctx, userID); err != nil {
		return nil, err
	}
	res := &StreakBonusResult{StreakType: streakType, StreakDays: streakDays}
	bonus, ok := economy.StreakBonusFor(streakDays)
	if !ok {
		res.Message = msgNoStreakBonus
		return res, nil
	}
	exists, err := s.streaks.Exists(ctx, userID, streakType, streakDays)
	if err != nil {
		return nil, err
	}
	if exists {
		res.Message = msgStreakBonusTaken
		res.AlreadyAwarded = true
		return res, nil
	}

	now := s.opts.nowUTC()
	current, err := typedStreak(ctx, s.ledger, userID, streakType, streakDays, now, s.opts.loc)
	if err != nil {
		return nil, err
	}
	res.CurrentStreak = current
	if current < streakDays {
		res.Message = msgStreakTooShort
		return res, nil
	}
	entry, err := s.streaks.Grant(ctx, &model.StreakBonus{
		UserID:      userID,
		StreakType:  streakType,
		StreakDays:  streakDays,
		RewardBytes: bonus.Bytes,
		Badge:       bonus.Badge,
	}, repository.Posting{
		UserID:      userID,
		Type:        model.LedgerEntryBonus,
		Activity:    economy.ActivityStreakBonus,
		Amount:      bonus.Bytes,
		Description: fmt.Sprintf("%d-day %s streak bonus", streakDays, streakType),
		Metadata: map[string]interface{}{
			"streak_type": streakType,
			"streak_days": streakDays,
			"badge":       bonus.Badge,
		},
		At: now,
	})
	if err != nil {
		if errors.Is(err, repository.ErrAlreadyGranted) {
			res.Message = msgStreakBonusTaken
			res.AlreadyAwarded = true
			return res, nil
		}
		return nil, mapPostErr(err)
	}
	metrics.BytesAwarded.WithLabelValues(economy.ActivityStreakBonus).Add(float64(bonus.Bytes))
	s.logger(ctx).Info("streak bonus awarded",
		zap.String("user_id", userID),
		zap.String("streak_type", streakType),
		zap.Int("streak_days", streakDays),
		zap.Int64("amount", bonus.Bytes))

	entryID := entry.ID
	s.opts.notifier.Notify(ctx, userID, model.NotificationStreakBonus,
		fmt.Sprintf("%d-day %s streak", streakDays, streakType),
		fmt.Sprintf("Streak bonus: +%d bytes", bonus.Bytes),
		NotificationRef{LedgerEntryID: &entryID})

	res.Success = true
	res.Message = fmt.Sprintf("Earned %d bytes for a %d-day streak", bonus.Bytes, streakDays)
	res.BytesAwarded = bonus.Bytes
	res.Badge = bonus.Badge
	res.NewBalance = entry.BalanceAfter
	if len(s.checkAchievements(ctx, userID, economy.ActivityStreakBonus, nil)) > 0 {
		res.NewBalance = s.balanceOr(ctx, userID, res.NewBalance)
	}
	return res, nil
}

func (s *byteService) GenerateGlitchBonus(ctx context.Context, userID string) (*GlitchBonusResult, error) {
	return s.glitch(ctx, userID, nil)
}

func (s *byteService) glitch(ctx context.Context, userID string, limits []repository.Limit) (*GlitchBonusResult, error) {
	tier := economy.PickGlitchTier(s.opts.rng.Float64())
	amount := s.opts.rng.Int64Range(tier.Min, tier.Max)
	entry, err := s.ledger.Post(ctx, repository.Posting{
		UserID:      userID,
		Type:        model.LedgerEntryBonus,
		Activity:    economy.ActivityGlitchBonus,
		Amount:      amount,
		Description: fmt.Sprintf("Glitch bonus (%s)", tier.Name),
		Metadata:    map[string]interface{}{"tier": tier.Name},
		At:          s.opts.nowUTC(),
		Limits:      limits,
	})
	if err != nil {
		return nil, mapPostErr(err)
	}
	metrics.GlitchBonuses.WithLabelValues(tier.Name).Inc()
	metrics.BytesAwarded.WithLabelValues(economy.ActivityGlitchBonus).Add(float64(amount))
	s.logger(ctx).Info("glitch bonus",
		zap.String("user_id", userID),
		zap.String("tier", tier.Name),
		zap.Int64("amount", amount))
	if tier.Name == economy.GlitchTierLarge {
		entryID := entry.ID
		s.opts.notifier.Notify(ctx, userID, model.NotificationGlitchBonus,
			"Major glitch detected",
			fmt.Sprintf("The system slipped you %d bytes", amount),
			NotificationRef{LedgerEntryID: &entryID})
	}
	return &GlitchBonusResult{
		Success:      true,
		Message:      fmt.Sprintf("Glitch in the system! +%d bytes", amount),
		Tier:         tier.Name,
		BytesAwarded: amount,
		NewBalance:   entry.BalanceAfter,
	}, nil
}

func (s *byteService) GetUserByteInfo(ctx context.Context, userID string) (*ByteInfo, error) {
	u, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	recent, err := s.ledger.Recent(ctx, userID, recentTransactions)
	if err != nil {
		return nil, err
	}
	stats, err := s.GetEarningStats(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &ByteInfo{
		UserID:             u.ID,
		Balance:            u.ByteBalance,
		Tier:               u.Tier,
		Archetype:          u.Archetype,
		RecentTransactions: recent,
		Stats:              *stats,
	}, nil
}

func (s *byteService) GetEarningStats(ctx context.Context, userID string) (*EarningStats, error) {
	now := s.opts.nowUTC()
	today, err := s.ledger.SumEarned(ctx, userID, "", startOfDay(now, s.opts.loc).UTC())
	if err != nil {
		return nil, err
	}
	week, err := s.ledger.SumEarned(ctx, userID, "", startOfWeek(now, s.opts.loc).UTC())
	if err != nil {
		return nil, err
	}
	all, err := s.ledger.SumEarned(ctx, userID, "", time.Time{})
	if err != nil {
		return nil, err
	}
	streak, err := currentStreak(ctx, s.ledger, userID, now, s.opts.loc)
	if err != nil {
		return nil, err
	}
	return &EarningStats{Today: today, ThisWeek: week, AllTime: all, CurrentStreak: streak}, nil
}

func (s *byteService) ListTransactions(ctx context.Context, userID string, limit, offset int) (*TransactionPage, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	items, total, err := s.ledger.List(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	return &TransactionPage{Items: items, Total: total, Limit: limit, Offset: offset}, nil
}
