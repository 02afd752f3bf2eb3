package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	coreconfig "github.com/d4n3436/fergun/core/config"
)

// settings is the resolved form of the logging config section.
type settings struct {
	level    slog.Level
	format   logFormat
	keyOrder []string
	profile  string
	sample   string
	dir      string
	botFile  string
	errFile  string
}

func resolveSettings(cfg *coreconfig.Config) settings {
	s := settings{level: slog.LevelInfo, format: formatJSON, keyOrder: defaultKeys()}
	if cfg == nil {
		return s
	}
	lc := cfg.Logging
	s.profile = strings.ToLower(strings.TrimSpace(lc.Profile))
	if s.profile == "" {
		s.profile = "prod"
	}
	s.level = parseLevel(lc.Level)
	s.format = parseFormat(lc.Format, s.profile)
	if order := parseKeyOrder(lc.KeysOrder); len(order) > 0 {
		s.keyOrder = order
	}
	s.sample = lc.DebugSample
	s.dir = strings.TrimSpace(lc.Dir)
	s.botFile = strings.TrimSpace(lc.BotFile)
	s.errFile = strings.TrimSpace(lc.ErrorsFile)
	return s
}

func defaultKeys() []string {
	return append([]string(nil), defaultKeyOrder...)
}

func parseLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// parseFormat picks kv for "kv", "text" and "pretty", json for "json", and
// otherwise kv only under the debug and dev profiles.
func parseFormat(raw, profile string) logFormat {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "kv", "text", "pretty":
		return formatKV
	case "json":
		return formatJSON
	}
	if profile == "debug" || profile == "dev" {
		return formatKV
	}
	return formatJSON
}

func parseKeyOrder(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "default" {
		return nil
	}
	var order []string
	for _, key := range strings.Split(raw, ",") {
		if key = strings.TrimSpace(key); key != "" {
			order = append(order, key)
		}
	}
	return order
}

// openOutputs returns stdout plus the optional main log file, and the
// optional errors file separately.
func openOutputs(s settings) (main []io.Writer, errs []io.Writer, closers []io.Closer, err error) {
	main = []io.Writer{os.Stdout}
	if s.dir == "" || (s.botFile == "" && s.errFile == "") {
		return main, nil, nil, nil
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, nil, nil, fmt.Errorf("logger: create log dir: %w", err)
	}
	open := func(name string) (*os.File, error) {
		f, err := os.OpenFile(filepath.Join(s.dir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("logger: open %s: %w", name, err)
		}
		closers = append(closers, f)
		return f, nil
	}
	if s.botFile != "" {
		f, err := open(s.botFile)
		if err != nil {
			closeAll(closers)
			return nil, nil, nil, err
		}
		main = append(main, f)
	}
	if s.errFile != "" {
		f, err := open(s.errFile)
		if err != nil {
			closeAll(closers)
			return nil, nil, nil, err
		}
		errs = append(errs, f)
	}
	return main, errs, closers, nil
}

func closeAll(closers []io.Closer) {
	for _, c := range closers {
		_ = c.Close()
	}
}
