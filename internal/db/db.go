package db

import (
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/shinyyama/ctrl-alt-block/internal/config"
	"github.com/shinyyama/ctrl-alt-block/internal/model"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func BuildDSN(cfg *config.Config) string {
	addr := cfg.DBHost

	// Prefer Cloud SQL unix socket when INSTANCE_CONNECTION_NAME is provided.
	switch {
	case cfg.InstanceConnectionName != "":
		addr = fmt.Sprintf("unix(/cloudsql/%s)", cfg.InstanceConnectionName)
	case strings.HasPrefix(cfg.DBHost, "tcp("), strings.HasPrefix(cfg.DBHost, "unix("):
	case strings.HasPrefix(cfg.DBHost, "/"):
		addr = fmt.Sprintf("unix(%s)", cfg.DBHost)
	default:
		addr = fmt.Sprintf("tcp(%s:%s)", cfg.DBHost, cfg.DBPort)
	}

	return fmt.Sprintf("%s:%s@%s/%s?charset=utf8mb4&parseTime=True&loc=UTC", cfg.DBUser, cfg.DBPassword, addr, cfg.DBName)
}

func gormConfig() *gorm.Config {
	return &gorm.Config{
		PrepareStmt:    true,
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
		NowFunc:        func() time.Time { return time.Now().UTC() },
	}
}

func Connect(cfg *config.Config) (*gorm.DB, error) {
	switch cfg.DBDriver {
	case config.DriverSQLite:
		return OpenSQLite(cfg.SQLitePath)
	case config.DriverMySQL, "":
	default:
		return nil, fmt.Errorf("unsupported db driver %q", cfg.DBDriver)
	}

	db, err := gorm.Open(mysql.Open(BuildDSN(cfg)), gormConfig())
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetConnMaxLifetime(5 * time.Minute)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(10)

	return db, nil
}

// OpenSQLite opens a pure-Go SQLite database. SQLite allows one writer, so
// the pool is a single connection; ":memory:" also relies on that to keep
// one database.
func OpenSQLite(path string) (*gorm.DB, error) {
	dsn := path
	if path != ":memory:" && !strings.Contains(path, "?") {
		dsn = path + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	}
	gcfg := gormConfig()
	gcfg.PrepareStmt = false
	db, err := gorm.Open(sqlite.Open(dsn), gcfg)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.LedgerEntry{},
		&model.StreakBonus{},
		&model.UserAchievement{},
		&model.UserMultiplier{},
		&model.Notification{},
	)
}
