package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDefaults(t *testing.T) {
	cfg := &Config{Telegram: TelegramConfig{Token: "t"}}
	require.NoError(t, Normalize(cfg))

	assert.Equal(t, RunModeLongpoll, cfg.Telegram.RunMode)
	assert.Equal(t, InteractiveSync, cfg.Interactive.RunMode)
	assert.Equal(t, InputButtons, cfg.Interactive.Input)
	assert.Equal(t, 15, cfg.Interactive.JumpTimeoutSeconds)
	assert.Equal(t, 10, cfg.Interactive.InfoDeleteSeconds)
	assert.Zero(t, cfg.Interactive.DefaultTimeoutSeconds)
}

func TestNormalizeRejectsInvalidInteractive(t *testing.T) {
	cases := map[string]InteractiveConfig{
		"run mode":        {RunMode: "parallel"},
		"input":           {Input: "voice"},
		"default timeout": {DefaultTimeoutSeconds: -1},
		"jump timeout":    {JumpTimeoutSeconds: -5},
	}
	for name, ic := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := &Config{Telegram: TelegramConfig{Token: "t"}, Interactive: ic}
			assert.Error(t, Normalize(cfg))
		})
	}
}

func TestNormalizeRequiresToken(t *testing.T) {
	assert.Error(t, Normalize(&Config{}))
	assert.Error(t, Normalize(nil))
}

func TestNormalizeWebhookRequiresListen(t *testing.T) {
	cfg := &Config{
		Telegram: TelegramConfig{Token: "t", RunMode: "webhook"},
		Webhook:  WebhookConfig{URL: "https://example.org/hook"},
	}
	assert.Error(t, Normalize(cfg))

	cfg.Webhook.Listen = "0.0.0.0"
	cfg.Webhook.Port = 8443
	require.NoError(t, Normalize(cfg))
	assert.Equal(t, RunModeWebhook, cfg.Telegram.RunMode)
}

func TestLoadYAMLThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
telegram:
  token: from-file
  run_mode: polling
interactive:
  run_mode: ASYNC
  default_timeout_seconds: 120
rate_limit:
  exclude_updates: [" Callback "]
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))
	t.Setenv("INTERACTIVE_INPUT", "reactions")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.Telegram.Token)
	assert.Equal(t, RunModeLongpoll, cfg.Telegram.RunMode)
	assert.Equal(t, InteractiveAsync, cfg.Interactive.RunMode)
	assert.Equal(t, InputReactions, cfg.Interactive.Input)
	assert.Equal(t, 120, cfg.Interactive.DefaultTimeoutSeconds)
	assert.Equal(t, []string{UpdateCallback}, cfg.RateLimit.ExcludeUpdates)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestNormalizeReportsEveryProblem(t *testing.T) {
	cfg := &Config{
		Telegram:    TelegramConfig{RunMode: "carrier-pigeon"},
		RateLimit:   RateLimitConfig{ExcludeUpdates: []string{"poll"}},
		Interactive: InteractiveConfig{Input: "voice"},
	}
	err := Normalize(cfg)
	require.ErrorIs(t, err, ErrInvalid)
	for _, want := range []string{"telegram.token", "telegram.run_mode", "exclude_updates", "interactive.input"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestDurations(t *testing.T) {
	ic := InteractiveConfig{DefaultTimeoutSeconds: 90, JumpTimeoutSeconds: 15, InfoDeleteSeconds: 10}
	assert.Equal(t, 90*time.Second, ic.DefaultTimeout())
	assert.Equal(t, 15*time.Second, ic.JumpTimeout())
	assert.Equal(t, 10*time.Second, ic.InfoDelay())

	assert.Equal(t, 10*time.Second, TelegramConfig{}.LongPollTimeout())
	assert.Equal(t, 30*time.Second, TelegramConfig{LongPollTimeoutSeconds: 30}.LongPollTimeout())
	assert.Equal(t, 250*time.Millisecond, RateLimitConfig{IntervalMS: 250}.Interval())
}

func TestLoadLoggingEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("telegram:\n  token: x\nlogging:\n  level: info\n"), 0o600))
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logging.Level)
}
