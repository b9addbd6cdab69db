package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "test-token")
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "test-token", cfg.Telegram.BotToken)
	assert.Equal(t, "data/media_bot_stats.db", cfg.Database.Path)
	assert.False(t, cfg.Kafka.Enabled)
	assert.Equal(t, "downloads.events", cfg.Kafka.Topic)

	assert.Equal(t, 1, cfg.Downloads.MaxPerUser)
	assert.Equal(t, 5, cfg.Downloads.SearchResults)
	assert.Equal(t, []int{1080, 720, 480, 360, 240}, cfg.Downloads.FallbackHeights)
	assert.Equal(t, "mp3", cfg.Downloads.Audio.Format)
	assert.Equal(t, "bestaudio/best", cfg.Downloads.Audio.Qualities["high"])

	assert.Equal(t, 1, cfg.Platforms.YouTube.RetryAttempts)
	assert.Equal(t, 3, cfg.Platforms.TikTok.RetryAttempts)
	assert.Equal(t, 3, cfg.Platforms.Instagram.RetryAttempts)
}

func TestLoadMissingToken(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := Load()
	assert.Error(t, err)
}

func TestApplyPresetsOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := []byte(`
downloads:
  max_per_user: 2
  privileged_ids: [42]
platforms:
  tiktok:
    retry_attempts: 5
`)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	t.Setenv("TELEGRAM_BOT_TOKEN", "test-token")
	t.Setenv("CONFIG_PATH", path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Downloads.MaxPerUser)
	assert.Equal(t, []int64{42}, cfg.Downloads.PrivilegedIDs)
	assert.Equal(t, 5, cfg.Platforms.TikTok.RetryAttempts)
	// Untouched sections keep defaults
	assert.Equal(t, 1, cfg.Platforms.YouTube.RetryAttempts)
}

func TestPlatformsByName(t *testing.T) {
	p := defaultPlatforms()

	assert.Equal(t, p.TikTok, p.ByName("tiktok"))
	assert.Equal(t, p.Instagram, p.ByName("instagram"))
	assert.Equal(t, p.YouTube, p.ByName("youtube"))
	assert.Equal(t, p.YouTube, p.ByName("unknown"))
}
