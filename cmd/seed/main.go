package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shinyyama/ctrl-alt-block/internal/config"
	"github.com/shinyyama/ctrl-alt-block/internal/db"
	"github.com/shinyyama/ctrl-alt-block/internal/economy"
	"github.com/shinyyama/ctrl-alt-block/internal/logging"
	"github.com/shinyyama/ctrl-alt-block/internal/model"
	"github.com/shinyyama/ctrl-alt-block/internal/repository"
	"github.com/shinyyama/ctrl-alt-block/internal/service"
	"github.com/shinyyama/ctrl-alt-block/internal/therapy"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type seedUser struct {
	ID         string
	Archetype  string
	Tier       model.UserTier
	LoginDays  int // consecutive DAILY_LOGIN days ending today
	Activities []string
}

func main() {
	if err := run(); err != nil {
		log.Fatalf("seed failed: %v", err)
	}
}

func run() error {
	ctx := context.Background()
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.Setup(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	gdb, err := db.Connect(cfg)
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	if err := db.Migrate(gdb); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	users := repository.NewUserRepository(gdb)
	canSeed, err := shouldSeed(ctx, users)
	if err != nil {
		return err
	}
	if !canSeed {
		logger.Info("users already exist; skipping seed (set FORCE_SEED=true to override)")
		return nil
	}

	ledger := repository.NewLedgerRepository(gdb)
	opts := []service.Option{service.WithLogger(logger), service.WithLocation(cfg.Location())}
	achievements := service.NewAchievementService(
		repository.NewAchievementRepository(gdb), repository.NewMultiplierRepository(gdb), ledger, opts...)
	bytes := service.NewByteService(users, ledger, repository.NewStreakBonusRepository(gdb), achievements, opts...)

	seeded := 0
	for _, su := range buildSeedUsers() {
		created, err := insertUser(ctx, gdb, su)
		if err != nil {
			return err
		}
		if !created {
			logger.Info("seed user exists; skipping", zap.String("user_id", su.ID))
			continue
		}
		if err := backfillLogins(ctx, ledger, su, cfg.Location()); err != nil {
			return err
		}
		for _, act := range su.Activities {
			if _, err := bytes.AwardBytes(ctx, su.ID, act, map[string]interface{}{"source": "seed"}); err != nil {
				return fmt.Errorf("award %s to %s: %w", act, su.ID, err)
			}
		}
		if _, err := achievements.CheckAchievements(ctx, su.ID, "", nil); err != nil {
			return fmt.Errorf("check achievements for %s: %w", su.ID, err)
		}
		seeded++
	}
	logger.Info("seeded users", zap.Int("count", seeded))
	return nil
}

func buildSeedUsers() []seedUser {
	return []seedUser{
		{
			ID: "demo-hoarder", Archetype: therapy.ArchetypeDataHoarder, Tier: model.UserTierFree, LoginDays: 3,
			Activities: []string{economy.ActivityProfileCompleted, economy.ActivityDailyRitual1, economy.ActivityJournalEntry},
		},
		{
			ID: "demo-firewall", Archetype: therapy.ArchetypeFirewallBuilder, Tier: model.UserTierPaid, LoginDays: 7,
			Activities: []string{economy.ActivityProfileCompleted, economy.ActivityDailyRitual1, economy.ActivityDailyRitual2, economy.ActivityDailyRitual3},
		},
		{
			ID: "demo-ghost", Archetype: therapy.ArchetypeGhostRunner, Tier: model.UserTierFree, LoginDays: 1,
			Activities: []string{economy.ActivityProfileCompleted, economy.ActivityNoContactDay},
		},
		{
			ID: "demo-debugger", Archetype: therapy.ArchetypeLoopDebugger, Tier: model.UserTierFree, LoginDays: 0,
			Activities: []string{economy.ActivityProfileCompleted},
		},
		{
			ID: "demo-resetter", Archetype: therapy.ArchetypeSecureResetter, Tier: model.UserTierPaid, LoginDays: 14,
			Activities: []string{economy.ActivityProfileCompleted, economy.ActivityWallPost, economy.ActivityChallengeCompleted},
		},
	}
}

// insertUser reports false when the id is already taken.
func insertUser(ctx context.Context, gdb *gorm.DB, su seedUser) (bool, error) {
	u := model.User{ID: su.ID, Tier: su.Tier, Archetype: su.Archetype}
	res := gdb.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&u)
	if res.Error != nil {
		return false, fmt.Errorf("insert user %q: %w", su.ID, res.Error)
	}
	return res.RowsAffected == 1, nil
}

// backfillLogins writes one DAILY_LOGIN per day at local noon, so the demo
// users start with a running streak.
func backfillLogins(ctx context.Context, ledger repository.LedgerRepository, su seedUser, loc *time.Location) error {
	act, _ := economy.ActivityFor(economy.ActivityDailyLogin)
	now := time.Now().In(loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 12, 0, 0, 0, loc)
	if today.After(now) {
		today = now
	}
	for i := su.LoginDays - 1; i >= 0; i-- {
		at := today.AddDate(0, 0, -i).UTC()
		if _, err := ledger.Post(ctx, repository.Posting{
			UserID:      su.ID,
			Type:        model.LedgerEntryEarned,
			Activity:    act.Key,
			Amount:      act.Bytes,
			Description: act.Description,
			Metadata:    map[string]interface{}{"source": "seed"},
			At:          at,
		}); err != nil {
			return fmt.Errorf("backfill login for %s: %w", su.ID, err)
		}
	}
	return nil
}

func shouldSeed(ctx context.Context, users repository.UserRepository) (bool, error) {
	cnt, err := users.Count(ctx)
	if err != nil {
		return false, fmt.Errorf("count users: %w", err)
	}
	if cnt == 0 {
		return true, nil
	}
	return strings.EqualFold(os.Getenv("FORCE_SEED"), "true"), nil
}
