package router

import (
	"errors"
	"log/slog"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/d4n3436/fergun/core/interactive"
	"github.com/d4n3436/fergun/core/logger"
	tghelpers "github.com/d4n3436/fergun/core/telegram/helpers"
	"github.com/d4n3436/fergun/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// summary logs one handler.handled line per routed update.
type summary struct {
	c       tele.Context
	handler string
	start   time.Time
	attrs   []slog.Attr
}

func begin(c tele.Context, handler string, attrs ...slog.Attr) *summary {
	tghelpers.WithHandler(c, handler)
	return &summary{c: c, handler: handler, start: time.Now(), attrs: slices.Clip(attrs)}
}

// run calls fn and logs its result.
func (s *summary) run(fn func() error) error {
	err := fn()
	s.log(err)
	return err
}

// skip logs that the update was deliberately not handled.
func (s *summary) skip(reason string) error {
	s.emit("skip", "ok", append(s.attrs, slog.String("reason", reason)))
	return nil
}

func (s *summary) log(err error) {
	if err == nil {
		s.emit("ok", "ok", s.attrs)
		return
	}
	attrs := append(s.attrs,
		slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		slog.String("err_code", errorCode(err)),
	)
	s.emit("fail", "fail", attrs)
}

func (s *summary) emit(status, outcome string, extra []slog.Attr) {
	ctx := tghelpers.BuildContext(s.c)
	msgs, kb := middleware.GetCounters(s.c)
	attrs := append([]slog.Attr{
		slog.String("status", status),
		slog.String("handler", s.handler),
		slog.String("outcome", outcome),
		slog.Int("messages", msgs),
		slog.Bool("kb", kb),
		slog.Duration("duration", time.Since(s.start)),
	}, extra...)
	logger.LogEvent(ctx, logger.Component("tg"), slog.LevelInfo, "handler.handled", attrs...)
}

func handlerName(name string) string {
	name = strings.TrimPrefix(strings.TrimSpace(name), "/")
	if name == "" {
		return "unknown"
	}
	return strings.ToLower(strings.ReplaceAll(name, " ", "_"))
}

var sessionErrorCodes = map[error]string{
	interactive.ErrRegistryClosed:  "SESSIONS_CLOSED",
	interactive.ErrMessageNotFound: "MESSAGE_NOT_FOUND",
	interactive.ErrNilSession:      "NIL_SESSION",
}

// errorCode names err for log aggregation. Errors exposing Code() win, then
// known session errors, then the concrete type name.
func errorCode(err error) string {
	var coded interface{ Code() string }
	if errors.As(err, &coded) {
		if code := strings.TrimSpace(coded.Code()); code != "" {
			return strings.ToUpper(strings.ReplaceAll(code, " ", "_"))
		}
	}
	for target, code := range sessionErrorCodes {
		if errors.Is(err, target) {
			return code
		}
	}
	t := reflect.TypeOf(err)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Name() == "" {
		return "UNKNOWN_ERROR"
	}
	return strings.ToUpper(t.Name())
}
