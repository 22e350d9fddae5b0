package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/shinyyama/ctrl-alt-block/internal/config"
	"github.com/shinyyama/ctrl-alt-block/internal/db"
	"github.com/shinyyama/ctrl-alt-block/internal/fup"
	"github.com/shinyyama/ctrl-alt-block/internal/logging"
	appmw "github.com/shinyyama/ctrl-alt-block/internal/middleware"
	"github.com/shinyyama/ctrl-alt-block/internal/server"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}
	logger, err := logging.Setup(cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger setup error: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	auth, err := newAuthenticator(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to init firebase auth", zap.Error(err))
	}

	srv := server.New(server.Deps{
		Logger:                logger,
		Auth:                  auth,
		Enforcer:              newEnforcer(ctx, cfg, logger),
		Location:              cfg.Location(),
		MaxCombinedMultiplier: cfg.MaxCombinedMultiplier,
		GlitchChance:          cfg.GlitchChance,
	})

	addr := ":" + cfg.Port
	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", zap.String("addr", addr))
		errCh <- srv.Start(addr)
	}()

	go func() {
		conn, err := db.Connect(cfg)
		if err != nil {
			logger.Error("db connect error", zap.Error(err))
			return
		}
		if err := db.Migrate(conn); err != nil {
			logger.Error("auto migrate error", zap.Error(err))
			return
		}
		srv.SetDB(conn)
		logger.Info("database ready", zap.String("driver", cfg.DBDriver))
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server stopped", zap.Error(err))
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown error", zap.Error(err))
		}
	}
}

func newAuthenticator(ctx context.Context, cfg *config.Config, logger *zap.Logger) (appmw.Authenticator, error) {
	if cfg.AuthDisabled {
		logger.Warn("AUTH_DISABLED is set; trusting the " + appmw.DebugUIDHeader + " header")
		return appmw.DebugAuth{}, nil
	}
	return appmw.NewAuthMiddleware(ctx, cfg.FirebaseProjectID)
}

// newEnforcer prefers Redis so quotas hold across instances; without
// REDIS_ADDR, or when Redis is unreachable at boot, counters stay in process.
func newEnforcer(ctx context.Context, cfg *config.Config, logger *zap.Logger) fup.Enforcer {
	policy := fup.Policy{
		Free: fup.Limits{PerHour: cfg.FUPFreePerHour, PerDay: cfg.FUPFreePerDay},
		Paid: fup.Limits{PerHour: cfg.FUPPaidPerHour, PerDay: cfg.FUPPaidPerDay},
	}
	opts := []fup.Option{fup.WithLocation(cfg.Location())}

	if cfg.RedisAddr != "" {
		rds := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		err := rds.Ping(pingCtx).Err()
		if err == nil {
			logger.Info("fair-use counters in redis", zap.String("addr", cfg.RedisAddr))
			return fup.NewRedisEnforcer(rds, policy, opts...)
		}
		logger.Warn("redis unreachable; using in-memory fair-use counters", zap.Error(err))
		_ = rds.Close()
	}
	mem := fup.NewMemoryEnforcer(policy, opts...)
	go mem.Run(ctx, 10*time.Minute)
	return mem
}
