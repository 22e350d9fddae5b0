package config

import (
	"errors"
	"fmt"
	"time"
	_ "time/tzdata"

	"github.com/caarlos0/env/v9"
)

const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

type Config struct {
	Port string `env:"PORT" envDefault:"8080"`

	DBDriver               string `env:"DB_DRIVER" envDefault:"mysql"`
	DBUser                 string `env:"DB_USER"`
	DBPassword             string `env:"DB_PASSWORD"`
	DBHost                 string `env:"DB_HOST"` // e.g. tcp(host:3306) or unix(/cloudsql/instance)
	DBName                 string `env:"DB_NAME"`
	DBPort                 string `env:"DB_PORT" envDefault:"3306"`
	InstanceConnectionName string `env:"INSTANCE_CONNECTION_NAME"`
	SQLitePath             string `env:"SQLITE_PATH" envDefault:"ctrl-alt-block.db"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	LogLevel          string `env:"LOG_LEVEL" envDefault:"info"`
	FirebaseProjectID string `env:"FIREBASE_PROJECT_ID"`
	AuthDisabled      bool   `env:"AUTH_DISABLED" envDefault:"false"`

	EconomyTimezone       string  `env:"ECONOMY_TIMEZONE" envDefault:"UTC"`
	MaxCombinedMultiplier float64 `env:"MAX_COMBINED_MULTIPLIER" envDefault:"4.0"`
	GlitchChance          float64 `env:"GLITCH_CHANCE" envDefault:"0.05"`

	FUPFreePerHour int `env:"FUP_FREE_PER_HOUR" envDefault:"2"`
	FUPFreePerDay  int `env:"FUP_FREE_PER_DAY" envDefault:"5"`
	FUPPaidPerHour int `env:"FUP_PAID_PER_HOUR" envDefault:"10"`
	FUPPaidPerDay  int `env:"FUP_PAID_PER_DAY" envDefault:"50"`

	ExportBucket string `env:"EXPORT_BUCKET"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.DBDriver {
	case DriverMySQL:
		if c.DBUser == "" || c.DBName == "" {
			return errors.New("DB_USER and DB_NAME are required for mysql")
		}
		if c.DBHost == "" && c.InstanceConnectionName == "" {
			return errors.New("DB_HOST or INSTANCE_CONNECTION_NAME is required for mysql")
		}
	case DriverSQLite:
		if c.SQLitePath == "" {
			return errors.New("SQLITE_PATH is required for sqlite")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if _, err := time.LoadLocation(c.EconomyTimezone); err != nil {
		return fmt.Errorf("ECONOMY_TIMEZONE: %w", err)
	}
	if c.GlitchChance < 0 || c.GlitchChance > 1 {
		return errors.New("GLITCH_CHANCE must be between 0 and 1")
	}
	for name, v := range map[string]int{
		"FUP_FREE_PER_HOUR": c.FUPFreePerHour,
		"FUP_FREE_PER_DAY":  c.FUPFreePerDay,
		"FUP_PAID_PER_HOUR": c.FUPPaidPerHour,
		"FUP_PAID_PER_DAY":  c.FUPPaidPerDay,
	} {
		if v < 0 {
			return fmt.Errorf("%s must not be negative", name)
		}
	}
	return nil
}

// Location returns the zone for economy days and weeks. Validate has
// already checked the name.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.EconomyTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
