package middleware

import (
	"context"
	"log/slog"

	"github.com/d4n3436/fergun/core/logger"
	tghelpers "github.com/d4n3436/fergun/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// UsageRecorder counts command invocations.
type UsageRecorder interface {
	Increment(ctx context.Context, command string) error
}

// UsageMiddleware records one use of command after the handler returns
// without error. Recording failures are logged, never surfaced.
func UsageMiddleware(rec UsageRecorder, command string) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		if rec == nil {
			return next
		}
		return func(c tele.Context) error {
			if err := next(c); err != nil {
				return err
			}
			ctx := tghelpers.BuildContext(c)
			if err := rec.Increment(ctx, command); err != nil {
				logger.Warn(ctx, "tg", "usage.record_failed",
					slog.String("command", command),
					slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
				)
			}
			return nil
		}
	}
}
