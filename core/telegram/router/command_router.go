package router

import (
	"log/slog"
	"strings"

	"github.com/d4n3436/fergun/core/logger"
	tg "github.com/d4n3436/fergun/core/telegram"
	"github.com/d4n3436/fergun/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// CommandRouteOptions configures how commands are wrapped and exposed.
type CommandRouteOptions struct {
	AdminID       int64
	OnAdminReject tele.HandlerFunc

	// Usage, when set, counts successful invocations per command.
	Usage middleware.UsageRecorder
	// Blacklist, when set, drops commands from blacklisted users. The admin
	// is exempt.
	Blacklist     middleware.BlacklistChecker
	OnBlacklisted tele.HandlerFunc
}

// CommandRoutes prepares command handlers wrapped with shared middleware.
func CommandRoutes(reg *tg.Registry, opts CommandRouteOptions) []tg.Route {
	if reg == nil {
		return nil
	}

	adminOpts := middleware.AdminOptions{
		AdminID:  opts.AdminID,
		OnReject: opts.OnAdminReject,
	}
	var blacklist tele.MiddlewareFunc
	if opts.Blacklist != nil {
		exempt := []int64{}
		if opts.AdminID != 0 {
			exempt = append(exempt, opts.AdminID)
		}
		blacklist = middleware.BlacklistMiddleware(middleware.BlacklistOptions{
			Checker:  opts.Blacklist,
			Exempt:   exempt,
			OnReject: opts.OnBlacklisted,
		})
	}

	entries := reg.Entries()
	routes := make([]tg.Route, 0, len(entries))
	aliases := 0
	for _, e := range entries {
		h := e.Handler
		if opts.Usage != nil {
			h = middleware.UsageMiddleware(opts.Usage, e.Name)(h)
		}
		h = middleware.RecoverMiddleware(h)
		if e.AdminOnly {
			h = middleware.AdminOnlyMiddleware(adminOpts)(h)
		}
		if blacklist != nil {
			h = blacklist(h)
		}
		h = middleware.LoggerMiddleware(h)
		routes = append(routes, tg.Route{Endpoint: e.Name, Handler: h})
		// Aliases share the wrapped handler, so usage counts under the
		// canonical name.
		for _, alias := range e.Aliases {
			if !strings.HasPrefix(alias, "/") {
				alias = "/" + alias
			}
			routes = append(routes, tg.Route{Endpoint: strings.ToLower(alias), Handler: h})
			aliases++
		}
	}

	logger.TWire.Info("tg.wire",
		slog.String("event", "complete"),
		slog.Int("commands", len(entries)),
		slog.Int("aliases", aliases),
		slog.Int("callbacks", len(reg.ListCallbacks())),
		slog.Bool("usage", opts.Usage != nil),
		slog.Bool("blacklist", opts.Blacklist != nil),
	)

	return routes
}
