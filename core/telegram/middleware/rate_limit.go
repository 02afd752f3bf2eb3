package middleware

import (
	"log/slog"
	"sync"
	"time"

	"github.com/d4n3436/fergun/core/clock"
	coreconfig "github.com/d4n3436/fergun/core/config"
	"github.com/d4n3436/fergun/core/logger"
	tghelpers "github.com/d4n3436/fergun/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// RateLimitOptions configures RateLimitMiddleware.
type RateLimitOptions struct {
	// Interval is the minimum gap between two updates of one user.
	Interval time.Duration
	// Exclude holds update kinds that are never limited, see UpdateKind.
	Exclude   map[string]struct{}
	OnLimited tele.HandlerFunc
	Clock     clock.Clock
}

// UpdateKind classifies an update using the rate_limit.exclude_updates names.
func UpdateKind(upd tele.Update) string {
	switch {
	case upd.Callback != nil:
		return coreconfig.UpdateCallback
	case upd.Message != nil:
		return coreconfig.UpdateMessage
	case upd.Query != nil:
		return coreconfig.UpdateInlineQuery
	case upd.MessageReaction != nil:
		return coreconfig.UpdateReaction
	}
	return "other"
}

// userLimiter tracks the last accepted update per user. Entries older than
// the interval no longer matter and are swept once the map grows.
type userLimiter struct {
	mu       sync.Mutex
	interval time.Duration
	last     map[int64]time.Time
	sweepAt  int
}

func newUserLimiter(interval time.Duration) *userLimiter {
	return &userLimiter{interval: interval, last: make(map[int64]time.Time), sweepAt: 1024}
}

// allow reports whether user may proceed at now, recording it if so.
func (l *userLimiter) allow(user int64, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if prev, ok := l.last[user]; ok && now.Sub(prev) < l.interval {
		return false
	}
	l.last[user] = now
	if len(l.last) >= l.sweepAt {
		for id, ts := range l.last {
			if now.Sub(ts) >= l.interval {
				delete(l.last, id)
			}
		}
		l.sweepAt = max(1024, 2*len(l.last))
	}
	return true
}

// RateLimitMiddleware drops updates arriving from the same user faster than
// opts.Interval.
func RateLimitMiddleware(opts RateLimitOptions) tele.MiddlewareFunc {
	clk := opts.Clock
	if clk == nil {
		clk = clock.Real()
	}
	limiter := newUserLimiter(opts.Interval)
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			o := tghelpers.OriginOf(c)
			if o.UserID == 0 || opts.Interval <= 0 {
				return next(c)
			}
			kind := UpdateKind(c.Update())
			if _, skip := opts.Exclude[kind]; skip {
				return next(c)
			}
			if limiter.allow(o.UserID, clk.Now()) {
				return next(c)
			}

			logger.Warn(tghelpers.BuildContext(c), "tg", "update.rate_limited",
				slog.String("outcome", "rate_limited"),
				slog.String("update_kind", kind),
				slog.Duration("interval", opts.Interval),
			)
			if opts.OnLimited != nil {
				_ = opts.OnLimited(c)
			}
			return nil
		}
	}
}
