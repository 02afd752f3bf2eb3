package middleware

import (
	"context"
	"log/slog"

	"github.com/d4n3436/fergun/core/logger"
	tghelpers "github.com/d4n3436/fergun/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// AdminOptions defines how admin-only checks should behave.
type AdminOptions struct {
	AdminID  int64
	OnReject tele.HandlerFunc
}

// AdminOnlyMiddleware ensures that only the admin user can invoke downstream handlers.
func AdminOnlyMiddleware(opts AdminOptions) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			if opts.AdminID != 0 && (c.Sender() == nil || c.Sender().ID != opts.AdminID) {
				if opts.OnReject != nil {
					return opts.OnReject(c)
				}
				return nil
			}
			return next(c)
		}
	}
}

// BlacklistChecker reports whether a user is barred from using commands.
type BlacklistChecker interface {
	IsBlacklisted(ctx context.Context, userID int64) (bool, error)
}

// BlacklistOptions configures BlacklistMiddleware.
type BlacklistOptions struct {
	Checker BlacklistChecker
	// Exempt users are never checked; the admin belongs here.
	Exempt   []int64
	OnReject tele.HandlerFunc
}

// BlacklistMiddleware drops updates from blacklisted users. Lookup failures
// let the update through.
func BlacklistMiddleware(opts BlacklistOptions) tele.MiddlewareFunc {
	exempt := make(map[int64]struct{}, len(opts.Exempt))
	for _, id := range opts.Exempt {
		exempt[id] = struct{}{}
	}
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		if opts.Checker == nil {
			return next
		}
		return func(c tele.Context) error {
			user := c.Sender()
			if user == nil {
				return next(c)
			}
			if _, ok := exempt[user.ID]; ok {
				return next(c)
			}
			ctx := tghelpers.BuildContext(c)
			banned, err := opts.Checker.IsBlacklisted(ctx, user.ID)
			if err != nil {
				logger.Warn(ctx, "tg", "blacklist.lookup_failed",
					slog.Int64("user_id", user.ID),
					slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
				)
				return next(c)
			}
			if banned {
				logger.Debug(ctx, "tg", "blacklist.reject",
					slog.String("status", "skip"),
					slog.Int64("user_id", user.ID),
				)
				if opts.OnReject != nil {
					return opts.OnReject(c)
				}
				return nil
			}
			return next(c)
		}
	}
}
