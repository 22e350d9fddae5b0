package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_SQLiteDefaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "ctrl-alt-block.db", cfg.SQLitePath)
	assert.Equal(t, 4.0, cfg.MaxCombinedMultiplier)
	assert.Equal(t, 0.05, cfg.GlitchChance)
	assert.Equal(t, 2, cfg.FUPFreePerHour)
	assert.Equal(t, 50, cfg.FUPPaidPerDay)
	assert.Equal(t, time.UTC, cfg.Location())
	assert.False(t, cfg.AuthDisabled)
}

func TestLoad_MySQLRequiresCredentials(t *testing.T) {
	t.Setenv("DB_DRIVER", "mysql")
	t.Setenv("DB_USER", "")
	t.Setenv("DB_NAME", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_MySQL(t *testing.T) {
	t.Setenv("DB_DRIVER", "mysql")
	t.Setenv("DB_USER", "app")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_NAME", "economy")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("ECONOMY_TIMEZONE", "Asia/Tokyo")
	t.Setenv("AUTH_DISABLED", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Tokyo", cfg.Location().String())
	assert.True(t, cfg.AuthDisabled)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"unknown driver", Config{DBDriver: "postgres", EconomyTimezone: "UTC"}, true},
		{"bad timezone", Config{DBDriver: DriverSQLite, SQLitePath: "x.db", EconomyTimezone: "Mars/Olympus"}, true},
		{"glitch chance above one", Config{DBDriver: DriverSQLite, SQLitePath: "x.db", EconomyTimezone: "UTC", GlitchChance: 1.5}, true},
		{"negative limit", Config{DBDriver: DriverSQLite, SQLitePath: "x.db", EconomyTimezone: "UTC", FUPFreePerDay: -1}, true},
		{"cloud sql socket", Config{DBDriver: DriverMySQL, DBUser: "u", DBName: "n", InstanceConnectionName: "p:r:i", EconomyTimezone: "UTC"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
