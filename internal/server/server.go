package server

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shinyyama/ctrl-alt-block/internal/fup"
	"github.com/shinyyama/ctrl-alt-block/internal/handler"
	appmw "github.com/shinyyama/ctrl-alt-block/internal/middleware"
	"github.com/shinyyama/ctrl-alt-block/internal/repository"
	"github.com/shinyyama/ctrl-alt-block/internal/service"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Deps struct {
	DB                    *gorm.DB // nil until the database is connected; see SetDB
	Logger                *zap.Logger
	Auth                  appmw.Authenticator
	Enforcer              fup.Enforcer
	Location              *time.Location
	MaxCombinedMultiplier float64 // zero or less disables the clamp
	GlitchChance          float64
}

type dbSetter interface {
	SetDB(db *gorm.DB)
}

type Server struct {
	e       *echo.Echo
	repos   []dbSetter
	dbReady atomic.Bool
}

func New(d Deps) *Server {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Location == nil {
		d.Location = time.UTC
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(appmw.RequestID())
	e.Use(appmw.RequestLogger(d.Logger))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{"Content-Type", "Authorization", appmw.DebugUIDHeader, echo.HeaderXRequestID},
		ExposeHeaders:    []string{echo.HeaderXRequestID, "Retry-After"},
		AllowCredentials: true,
		AllowOriginFunc:  allowOrigin,
	}))

	users := repository.NewUserRepository(d.DB)
	ledger := repository.NewLedgerRepository(d.DB)
	streaks := repository.NewStreakBonusRepository(d.DB)
	achRepo := repository.NewAchievementRepository(d.DB)
	multRepo := repository.NewMultiplierRepository(d.DB)
	notifRepo := repository.NewNotificationRepository(d.DB)

	opts := []service.Option{
		service.WithLogger(d.Logger),
		service.WithLocation(d.Location),
		service.WithMaxCombinedMultiplier(d.MaxCombinedMultiplier),
		service.WithGlitchChance(d.GlitchChance),
	}
	notifySvc := service.NewNotificationService(notifRepo, opts...)
	opts = append(opts, service.WithNotifier(notifySvc))
	achSvc := service.NewAchievementService(achRepo, multRepo, ledger, opts...)
	byteSvc := service.NewByteService(users, ledger, streaks, achSvc, opts...)
	therapySvc := service.NewVoiceTherapyService(users, d.Enforcer, opts...)
	profileSvc := service.NewProfileService(users)

	userHandler := handler.NewUserHandler(profileSvc)
	byteHandler := handler.NewByteHandler(byteSvc)
	achHandler := handler.NewAchievementHandler(achSvc)
	therapyHandler := handler.NewTherapyHandler(therapySvc)
	notifyHandler := handler.NewNotificationHandler(notifySvc)

	s := &Server{e: e, repos: []dbSetter{users, ledger, streaks, achRepo, multRepo, notifRepo}}
	if d.DB != nil {
		s.dbReady.Store(true)
	}

	e.GET("/healthz", func(c echo.Context) error {
		status := "connecting"
		if s.dbReady.Load() {
			status = "ready"
		}
		return c.JSON(http.StatusOK, map[string]string{
			"ok": "true",
			"db": status,
		})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api", s.requireDB, d.Auth.RequireAuth)
	api.POST("/me", userHandler.Ensure)
	api.GET("/me", userHandler.Get)
	api.GET("/me/bytes", byteHandler.Info)
	api.GET("/me/bytes/stats", byteHandler.Stats)
	api.GET("/me/bytes/transactions", byteHandler.Transactions)
	api.POST("/me/bytes/award", byteHandler.Award)
	api.POST("/me/bytes/spend", byteHandler.Spend)
	api.POST("/me/bytes/streak-bonus", byteHandler.StreakBonus)
	api.GET("/me/achievements", achHandler.List)
	api.POST("/me/achievements/check", achHandler.Check)
	api.GET("/me/multipliers", achHandler.Multipliers)
	api.POST("/me/therapy/sessions", therapyHandler.StartSession)
	api.GET("/me/notifications", notifyHandler.List)
	api.POST("/me/notifications/read", notifyHandler.MarkAllRead)

	return s
}

func allowOrigin(origin string) (bool, error) {
	low := strings.ToLower(origin)
	if strings.HasPrefix(low, "http://localhost:") || strings.HasPrefix(low, "http://127.0.0.1:") ||
		strings.HasPrefix(low, "https://localhost:") || strings.HasPrefix(low, "https://127.0.0.1:") {
		return true, nil
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false, nil
	}
	if u.Scheme != "https" {
		return false, nil
	}
	return strings.HasSuffix(u.Hostname(), ".vercel.app"), nil
}

func (s *Server) requireDB(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !s.dbReady.Load() {
			return c.JSON(http.StatusServiceUnavailable, handler.NewErrorResponse("db_not_ready", "database is not ready"))
		}
		return next(c)
	}
}

func (s *Server) Handler() http.Handler {
	return s.e
}

func (s *Server) Start(addr string) error {
	return s.e.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.e.Shutdown(ctx)
}

// SetDB hands a late-connected database to every repository and then opens
// the /api routes.
func (s *Server) SetDB(db *gorm.DB) {
	for _, r := range s.repos {
		r.SetDB(db)
	}
	s.dbReady.Store(db != nil)
}
