package logger

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreconfig "github.com/d4n3436/fergun/core/config"
)

func TestResolveSettingsDefaults(t *testing.T) {
	s := resolveSettings(nil)
	assert.Equal(t, slog.LevelInfo, s.level)
	assert.Equal(t, formatJSON, s.format)
	assert.Equal(t, defaultKeyOrder, s.keyOrder)

	s = resolveSettings(&coreconfig.Config{})
	assert.Equal(t, "prod", s.profile)
	assert.Equal(t, formatJSON, s.format)
}

func TestResolveSettings(t *testing.T) {
	cfg := &coreconfig.Config{}
	cfg.Logging.Level = "WARNING"
	cfg.Logging.Profile = "Dev"
	cfg.Logging.KeysOrder = " ts , event ,,"
	cfg.Logging.DebugSample = "interactive=1/5"

	s := resolveSettings(cfg)
	assert.Equal(t, slog.LevelWarn, s.level)
	assert.Equal(t, "dev", s.profile)
	assert.Equal(t, formatKV, s.format)
	assert.Equal(t, []string{"ts", "event"}, s.keyOrder)
	assert.Equal(t, "interactive=1/5", s.sample)

	cfg.Logging.Format = "json"
	assert.Equal(t, formatJSON, resolveSettings(cfg).format)
}

func TestOpenOutputs(t *testing.T) {
	main, errs, closers, err := openOutputs(settings{})
	require.NoError(t, err)
	assert.Equal(t, []io.Writer{os.Stdout}, main)
	assert.Empty(t, errs)
	assert.Empty(t, closers)

	dir := filepath.Join(t.TempDir(), "logs")
	main, errs, closers, err = openOutputs(settings{dir: dir, botFile: "bot.log", errFile: "errors.log"})
	require.NoError(t, err)
	defer closeAll(closers)
	assert.Len(t, main, 2)
	assert.Len(t, errs, 1)
	assert.Len(t, closers, 2)
	assert.FileExists(t, filepath.Join(dir, "bot.log"))
	assert.FileExists(t, filepath.Join(dir, "errors.log"))
}
