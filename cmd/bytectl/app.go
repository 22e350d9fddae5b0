package main

import (
	"fmt"
	"io"

	"github.com/joho/godotenv"
	"github.com/shinyyama/ctrl-alt-block/internal/config"
	"github.com/shinyyama/ctrl-alt-block/internal/db"
	"github.com/shinyyama/ctrl-alt-block/internal/logging"
	"github.com/shinyyama/ctrl-alt-block/internal/repository"
	"github.com/shinyyama/ctrl-alt-block/internal/service"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// app holds the services a command runs against. It is filled on first use
// unless a test has wired it already.
type app struct {
	cfg          *config.Config
	logger       *zap.Logger
	users        repository.UserRepository
	ledger       repository.LedgerRepository
	bytes        service.ByteService
	achievements service.AchievementService
}

func (a *app) init() error {
	if a.bytes != nil {
		return nil
	}
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.Setup(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	conn, err := db.Connect(cfg)
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	if err := db.Migrate(conn); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	a.cfg = cfg
	a.wire(conn, logger, service.WithLocation(cfg.Location()), service.WithMaxCombinedMultiplier(cfg.MaxCombinedMultiplier))
	return nil
}

func (a *app) wire(conn *gorm.DB, logger *zap.Logger, extra ...service.Option) {
	opts := append([]service.Option{service.WithLogger(logger)}, extra...)
	a.logger = logger
	a.users = repository.NewUserRepository(conn)
	a.ledger = repository.NewLedgerRepository(conn)
	a.achievements = service.NewAchievementService(
		repository.NewAchievementRepository(conn), repository.NewMultiplierRepository(conn), a.ledger, opts...)
	a.bytes = service.NewByteService(a.users, a.ledger, repository.NewStreakBonusRepository(conn), a.achievements, opts...)
}

func printf(w io.Writer, format string, args ...interface{}) {
	_, _ = fmt.Fprintf(w, format, args...)
}
