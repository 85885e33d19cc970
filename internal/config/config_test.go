package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "configuration.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("minimal config gets defaults", func(t *testing.T) {
		path := writeConfigFile(t, `{
			"telegram": {"bot_token": "123:abc", "chat_id": "42"}
		}`)

		cfg, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, 60, cfg.CheckInterval)
		assert.Equal(t, "ipbot_state.json", cfg.StateFile)
		assert.Equal(t, []string{
			"https://api.ipify.org",
			"https://ifconfig.me/ip",
			"https://icanhazip.com",
		}, cfg.Providers)
		assert.True(t, cfg.History.Enabled)
		assert.Equal(t, 90, cfg.History.RetentionDays)
		assert.Equal(t, "ipbot_history.db", cfg.History.Path)
		assert.Equal(t, "info", cfg.Log.Level)
		assert.Equal(t, 32, cfg.Log.MaxSize)
	})

	t.Run("explicit values survive", func(t *testing.T) {
		path := writeConfigFile(t, `{
			"check_interval": 120,
			"providers": ["https://api.ipify.org"],
			"telegram": {"bot_token": "123:abc", "chat_id": "42"},
			"history": {"enabled": false, "retention_days": 0}
		}`)

		cfg, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, 120, cfg.CheckInterval)
		assert.Equal(t, []string{"https://api.ipify.org"}, cfg.Providers)
		assert.False(t, cfg.History.Enabled)
		assert.Equal(t, 0, cfg.History.RetentionDays)
	})

	t.Run("missing explicit path", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
		require.Error(t, err)
	})

	t.Run("malformed JSON", func(t *testing.T) {
		path := writeConfigFile(t, `{not json`)
		_, err := Load(path)
		require.Error(t, err)
	})

	t.Run("missing credentials", func(t *testing.T) {
		path := writeConfigFile(t, `{"telegram": {"chat_id": "42"}}`)
		_, err := Load(path)
		require.Error(t, err)
	})

	t.Run("interval below floor", func(t *testing.T) {
		path := writeConfigFile(t, `{
			"check_interval": 5,
			"telegram": {"bot_token": "123:abc", "chat_id": "42"}
		}`)
		_, err := Load(path)
		require.Error(t, err)
	})

	t.Run("invalid provider URL", func(t *testing.T) {
		path := writeConfigFile(t, `{
			"providers": ["ftp://example.com"],
			"telegram": {"bot_token": "123:abc", "chat_id": "42"}
		}`)
		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid provider URL")
	})

	t.Run("duplicate provider URL", func(t *testing.T) {
		path := writeConfigFile(t, `{
			"providers": ["https://api.ipify.org", "https://api.ipify.org"],
			"telegram": {"bot_token": "123:abc", "chat_id": "42"}
		}`)
		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "duplicate provider URL")
	})
}

func TestLoadGeneratesTemplate(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		_ = os.Chdir(wd)
	})

	_, err = Load("")
	require.ErrorIs(t, err, ErrCreatedTemplate)

	data, err := os.ReadFile(filepath.Join(dir, DefaultConfigFile))
	require.NoError(t, err)

	var generated Config
	require.NoError(t, json.Unmarshal(data, &generated))
	assert.Equal(t, "bot token here", generated.Telegram.BotToken)
	assert.Equal(t, "telegram chat ID here", generated.Telegram.ChatID)
	assert.Equal(t, 60, generated.CheckInterval)

	// The generated template is itself loadable
	cfg, err := Load(filepath.Join(dir, DefaultConfigFile))
	require.NoError(t, err)
	assert.Equal(t, "bot token here", cfg.Telegram.BotToken)
}

func TestWriteTemplateNeverOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "configuration.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"keep": true}`), 0600))

	err := writeTemplate(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrExist))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"keep": true}`, string(data))
}
