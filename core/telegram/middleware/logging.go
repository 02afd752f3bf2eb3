package middleware

import (
	"log/slog"
	"sync"

	"github.com/d4n3436/fergun/core/logger"
	"github.com/d4n3436/fergun/core/telegram/callbacks"
	tghelpers "github.com/d4n3436/fergun/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// updateWindow remembers the last few update ids. LoggerMiddleware wraps
// both the global chain and individual routes, so the same update passes
// through it more than once.
type updateWindow struct {
	mu   sync.Mutex
	ids  []int
	next int
	seen map[int]struct{}
}

func newUpdateWindow(size int) *updateWindow {
	return &updateWindow{ids: make([]int, size), seen: make(map[int]struct{}, size)}
}

// first reports whether id is new, recording it when it is.
func (w *updateWindow) first(id int) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.seen[id]; ok {
		return false
	}
	if old := w.ids[w.next]; old != 0 {
		delete(w.seen, old)
	}
	w.ids[w.next] = id
	w.seen[id] = struct{}{}
	w.next = (w.next + 1) % len(w.ids)
	return true
}

var received = newUpdateWindow(512)

// LoggerMiddleware sets up the per-update logging context and logs one
// receipt line per update.
func LoggerMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		o := tghelpers.OriginOf(c)
		ctx := tghelpers.NewContext(c, o)
		tghelpers.StoreContext(c, ctx)

		if !received.first(o.UpdateID) || !logger.ShouldSample("tg") {
			return next(c)
		}

		attrs := []slog.Attr{slog.String("status", "ok")}
		if o.ChatType != "" {
			attrs = append(attrs, slog.String("chat_type", string(o.ChatType)))
		}
		if user := c.Sender(); user != nil {
			if user.Username != "" {
				attrs = append(attrs, slog.String("username", logger.SanitizeLimit(user.Username, 64)))
			}
			if user.LanguageCode != "" {
				attrs = append(attrs, slog.String("lang", user.LanguageCode))
			}
		}

		upd := c.Update()
		switch {
		case upd.Callback != nil:
			key, payload := callbacks.Split(upd.Callback)
			attrs = append(attrs, slog.String("kind", "component"))
			if key != "" {
				attrs = append(attrs, slog.String("cb_key", logger.SanitizeLimit(key, 128)))
			}
			if payload != "" {
				attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(payload, 256)))
			}
		case upd.MessageReaction != nil:
			attrs = append(attrs, slog.String("kind", "reaction"))
		case upd.Message != nil:
			attrs = append(attrs, slog.String("kind", "message"))
			if t := c.Text(); t != "" {
				attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(t, 256)))
			}
		}
		logger.LogEvent(ctx, logger.Component("tg"), slog.LevelDebug, "update.received", attrs...)
		return next(c)
	}
}
