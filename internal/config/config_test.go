package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Listen)
	assert.Equal(t, 365, cfg.Feed.HorizonDays)
	assert.Equal(t, "*/15 * * * *", cfg.Feed.RefreshCron)
	assert.Empty(t, cfg.Database.DSN)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
listen: ":9090"
base_url: "https://meetups.example.org"
feed:
  name: "Meetup calendar"
  horizon_days: 90
logging:
  level: debug
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Listen)
	assert.Equal(t, "https://meetups.example.org", cfg.BaseURL)
	assert.Equal(t, "Meetup calendar", cfg.Feed.Name)
	assert.Equal(t, 90, cfg.Feed.HorizonDays)
	// Unset keys keep their defaults.
	assert.Equal(t, "*/15 * * * *", cfg.Feed.RefreshCron)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("DATABASE_DSN", "postgres://feed:secret@db/eventcal")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "postgres://feed:secret@db/eventcal", cfg.Database.DSN)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
