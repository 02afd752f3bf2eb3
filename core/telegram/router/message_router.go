package router

import (
	"strings"

	tg "github.com/d4n3436/fergun/core/telegram"
	tghelpers "github.com/d4n3436/fergun/core/telegram/helpers"
	"github.com/d4n3436/fergun/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// TextOptions controls fallback behaviour for text/document updates.
type TextOptions struct {
	// Events receives every text message before command lookup, so open
	// selections and jump prompts can consume it.
	Events          tg.Publisher
	UnknownText     tele.HandlerFunc
	UnknownDocument tele.HandlerFunc
}

// TextRoutes builds handlers for text and document routing.
func TextRoutes(reg *tg.Registry, opts TextOptions) []tg.Route {
	handler := func(c tele.Context) error {
		if opts.Events != nil {
			if ev, ok := tg.MessageEvent(c.Message()); ok {
				s := begin(c, "interactive_text")
				if err := opts.Events.Publish(tghelpers.BuildContext(c), ev); err != nil {
					s.log(err)
				}
			}
		}

		if reg != nil {
			if key, cmd, ok := reg.LookupCommand(commandWord(c.Text())); ok && cmd.Handler != nil {
				return begin(c, handlerName(key)).run(func() error { return cmd.Handler(c) })
			}
			if fb := reg.TextFallback(); fb != nil {
				return begin(c, "fallback").run(func() error { return fb(c) })
			}
		}

		s := begin(c, "unknown_text")
		if opts.UnknownText == nil {
			return s.skip("unhandled")
		}
		return s.run(func() error { return opts.UnknownText(c) })
	}

	docHandler := func(c tele.Context) error {
		s := begin(c, "unexpected_document")
		if opts.UnknownDocument == nil {
			return s.skip("unhandled")
		}
		return s.run(func() error { return opts.UnknownDocument(c) })
	}

	return []tg.Route{
		{
			Endpoint: tele.OnText,
			Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(handler)),
		},
		{
			Endpoint: tele.OnDocument,
			Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(docHandler)),
		},
	}
}

// commandWord returns the leading "/name" of text without any "@bot" suffix,
// or "" when text is not a command.
func commandWord(text string) string {
	if len(text) < 2 || text[0] != '/' {
		return ""
	}
	word, _, _ := strings.Cut(text, " ")
	word, _, _ = strings.Cut(word, "@")
	return word
}
