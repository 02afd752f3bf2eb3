package router

import (
	"log/slog"

	tg "github.com/d4n3436/fergun/core/telegram"
	"github.com/d4n3436/fergun/core/telegram/callbacks"
	tghelpers "github.com/d4n3436/fergun/core/telegram/helpers"
	"github.com/d4n3436/fergun/core/telegram/keyboard"
	"github.com/d4n3436/fergun/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// CallbackOptions customises fallback behaviour for callbacks.
type CallbackOptions struct {
	NotFound tele.HandlerFunc
	// Events receives presses on interactive session buttons.
	Events tg.Publisher
}

// CallbackRoute returns a handler that routes callbacks. Interactive
// component presses go to opts.Events; everything else goes through the
// registry.
func CallbackRoute(reg *tg.Registry, opts CallbackOptions) tg.Route {
	handler := func(c tele.Context) error {
		cb := c.Callback()
		if cb == nil {
			return nil
		}
		_ = c.Respond()

		if cb.Data == keyboard.DisabledData {
			return begin(c, "callback.disabled").skip("disabled")
		}
		if ev, ok := tg.ComponentEvent(cb); ok {
			s := begin(c, "callback.interactive", slog.String("cb_key", ev.CustomID))
			if opts.Events == nil {
				return s.skip("no_events")
			}
			return s.run(func() error {
				return opts.Events.Publish(tghelpers.BuildContext(c), ev)
			})
		}

		key, _ := callbacks.Split(cb)
		s := begin(c, "callback."+handlerName(key), slog.String("cb_key", key))
		h, ok := reg.GetCallback(key)
		if !ok || h == nil {
			h = reg.CallbackNotFound()
			if h == nil {
				h = opts.NotFound
			}
			if h == nil {
				return s.skip("not_found")
			}
			s.attrs = append(s.attrs, slog.String("reason", "not_found"))
		}
		return s.run(func() error { return h(c) })
	}
	return tg.Route{
		Endpoint: tele.OnCallback,
		Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(handler)),
	}
}
