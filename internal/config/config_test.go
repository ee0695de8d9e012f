package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("POSTGRES_HOST", "db")

	cfg, err := Parse()
	require.NoError(t, err)
	assert.Equal(t, DriverPostgres, cfg.StoreDriver)
	assert.Equal(t, "postgres://homegame:homegame@db:5432/homegame?sslmode=disable", cfg.DatabaseURL)
	assert.Equal(t, 5*time.Minute, cfg.ProfileCacheTTL)
	assert.Equal(t, 3*time.Second, cfg.PollInterval)
	assert.Equal(t, 6, cfg.ShortCodeLength)
	assert.Equal(t, "game_changes", cfg.NotifyChannel)
}

func TestParse_Overrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", "/tmp/hg.db")
	t.Setenv("DATABASE_URL", "postgres://x")
	t.Setenv("POLL_INTERVAL", "500ms")

	cfg, err := Parse()
	require.NoError(t, err)
	assert.Equal(t, DriverSQLite, cfg.StoreDriver)
	assert.Equal(t, "/tmp/hg.db", cfg.SQLitePath)
	assert.Equal(t, "postgres://x", cfg.DatabaseURL)
	assert.Equal(t, 500*time.Millisecond, cfg.PollInterval)
}

func TestParse_Invalid(t *testing.T) {
	t.Setenv("STORE_DRIVER", "mongo")
	_, err := Parse()
	assert.Error(t, err)

	t.Setenv("STORE_DRIVER", "sqlite")
	t.Setenv("SHORT_CODE_LENGTH", "2")
	_, err = Parse()
	assert.Error(t, err)

	t.Setenv("SHORT_CODE_LENGTH", "abc")
	_, err = Parse()
	assert.Error(t, err)
}
