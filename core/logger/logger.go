// Package logger provides the process-wide structured logger: flat JSON or
// key=value lines, correlation fields taken from the context, and per
// component loggers.
package logger

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/d4n3436/fergun/core/buildinfo"
	coreconfig "github.com/d4n3436/fergun/core/config"
)

var (
	initOnce sync.Once

	sinksMu sync.Mutex
	sinks   []*asyncWriter
	closers []io.Closer

	levelVar slog.LevelVar

	debugSampling = newDebugSampler("")
	traceAll      atomic.Bool

	components sync.Map // name -> *slog.Logger

	// L is the base logger; component loggers below derive from it.
	L *slog.Logger

	// DB logs database events.
	DB *slog.Logger
	// TWire logs Telegram wiring steps.
	TWire *slog.Logger
)

// Until InitLogger runs, every logger discards its output.
func init() {
	setBase(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func setBase(base *slog.Logger) {
	L = base
	components.Range(func(key, _ any) bool {
		components.Delete(key)
		return true
	})
	DB = Component("db")
	TWire = Component("tg.wire")
}

// InitLogger installs the structured logger described by cfg. Only the
// first call has any effect.
func InitLogger(cfg *coreconfig.Config) error {
	var initErr error
	initOnce.Do(func() {
		s := resolveSettings(cfg)
		levelVar.Set(s.level)
		debugSampling.Set(s.sample)
		traceAll.Store(isTruthy(os.Getenv("TRACE")) || isTruthy(os.Getenv("LOG_TRACE")))

		main, errOut, fileClosers, err := openOutputs(s)
		if err != nil {
			initErr = err
			return
		}
		hc := handlerConfig{
			level:    &levelVar,
			writer:   newAsyncWriter(main, 64*1024),
			format:   s.format,
			keyOrder: s.keyOrder,
		}
		if len(errOut) > 0 {
			hc.errWriter = newAsyncWriter(errOut, 16*1024)
		}

		sinksMu.Lock()
		sinks = []*asyncWriter{hc.writer}
		if hc.errWriter != nil {
			sinks = append(sinks, hc.errWriter)
		}
		closers = fileClosers
		sinksMu.Unlock()

		base := slog.New(newStructuredHandler(hc))
		slog.SetDefault(base)
		setBase(base)

		L.LogAttrs(context.Background(), slog.LevelInfo, "startup",
			slog.String("component", "app"),
			slog.String("event", "startup"),
			slog.String("go_version", runtime.Version()),
			slog.String("build_commit", buildinfo.Commit),
			slog.String("build_time", buildinfo.Date),
			slog.String("cfg_profile", s.profile),
		)
	})
	return initErr
}

// Shutdown flushes buffered output and closes the log files. Later calls
// are no-ops.
func Shutdown() error {
	sinksMu.Lock()
	defer sinksMu.Unlock()
	var errs []error
	for _, w := range sinks {
		errs = append(errs, w.Close())
	}
	for _, c := range closers {
		errs = append(errs, c.Close())
	}
	sinks, closers = nil, nil
	return errors.Join(errs...)
}

// SetLevel changes the minimum level at runtime.
func SetLevel(level slog.Level) {
	levelVar.Set(level)
}

// LogEvent logs event on logg, falling back to the context logger and then L.
func LogEvent(ctx context.Context, logg *slog.Logger, level slog.Level, event string, attrs ...slog.Attr) {
	if logg == nil {
		logg = FromContext(ctx)
	}
	if logg == nil {
		logg = L
	}
	if event != "" {
		attrs = append([]slog.Attr{slog.String("event", event)}, attrs...)
	}
	logg.LogAttrs(ctx, level, "", attrs...)
}

// Component returns the logger tagged with component name. Loggers are
// cached per name until the base logger changes.
func Component(name string) *slog.Logger {
	name = strings.TrimSpace(name)
	if name == "" {
		return L
	}
	if cached, ok := components.Load(name); ok {
		return cached.(*slog.Logger)
	}
	logg, _ := components.LoadOrStore(name, L.With("component", name))
	return logg.(*slog.Logger)
}

// Debug logs a debug-level event for component.
func Debug(ctx context.Context, component, event string, attrs ...slog.Attr) {
	LogEvent(ctx, Component(component), slog.LevelDebug, event, attrs...)
}

// Info logs an info-level event for component.
func Info(ctx context.Context, component, event string, attrs ...slog.Attr) {
	LogEvent(ctx, Component(component), slog.LevelInfo, event, attrs...)
}

// Warn logs a warn-level event for component.
func Warn(ctx context.Context, component, event string, attrs ...slog.Attr) {
	LogEvent(ctx, Component(component), slog.LevelWarn, event, attrs...)
}

// Error logs an error-level event for component.
func Error(ctx context.Context, component, event string, attrs ...slog.Attr) {
	LogEvent(ctx, Component(component), slog.LevelError, event, attrs...)
}

func isTruthy(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}

// ShouldSample reports whether the next high-volume debug event of
// component should be logged. TRACE=1 or LOG_TRACE=1 logs everything.
func ShouldSample(component string) bool {
	return traceAll.Load() || debugSampling.Allow(component)
}
