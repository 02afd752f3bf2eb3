package bot

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/jmoiron/sqlx"

	"github.com/d4n3436/fergun/core/database"
	"github.com/d4n3436/fergun/core/interactive"
	"github.com/d4n3436/fergun/core/logger"
	tg "github.com/d4n3436/fergun/core/telegram"
	"github.com/d4n3436/fergun/core/telegram/router"
)

// App wires the bot's commands onto the shared Telegram runtime.
type App struct {
	cfg *Config
	db  *sqlx.DB

	// usage and blacklist are nil without a database.
	usage     *database.UsageStore
	blacklist *database.BlacklistStore

	hub      *interactive.Hub
	sessions atomic.Pointer[interactive.Registry]
	commands *tg.Registry
	// wireErr is a command registration failure, reported by
	// TelegramRunOptions.
	wireErr error
}

// New builds the app. db may be nil.
func New(cfg *Config, db *sqlx.DB) *App {
	a := &App{
		cfg:      cfg,
		db:       db,
		hub:      interactive.NewHub(),
		commands: tg.NewRegistry(),
	}
	if db != nil {
		a.usage = database.NewUsageStore(db)
		a.blacklist = database.NewBlacklistStore(db)
	}
	a.wireErr = a.registerCommands()
	return a
}

// TelegramRunOptions assembles middlewares, routes and lifecycle hooks.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	if a.wireErr != nil {
		return tg.RunOptions{}, a.wireErr
	}
	core := a.cfg.CoreConfig()

	cmdOpts := router.CommandRouteOptions{
		AdminID:       core.Telegram.AdminID,
		OnAdminReject: reply("This command is for the bot owner only."),
	}
	if a.usage != nil {
		cmdOpts.Usage = a.usage
	}
	if a.blacklist != nil {
		cmdOpts.Blacklist = a.blacklist
		cmdOpts.OnBlacklisted = reply("You are blacklisted.")
	}

	routes := router.CommandRoutes(a.commands, cmdOpts)
	routes = append(routes, router.CallbackRoute(a.commands, router.CallbackOptions{Events: a.hub}))
	routes = append(routes, router.TextRoutes(a.commands, router.TextOptions{Events: a.hub})...)

	return tg.RunOptions{
		Config:      core,
		Registry:    a.commands,
		Hub:         a.hub,
		Middlewares: tg.DefaultMiddlewares(core, nil),
		Routes:      routes,
		OnStart: func(ctx context.Context, rt tg.Runtime) error {
			a.sessions.Store(rt.Sessions)
			return nil
		},
		OnStop: func(ctx context.Context, rt tg.Runtime) error {
			a.sessions.Store(nil)
			if a.db == nil {
				return nil
			}
			if err := a.db.Close(); err != nil {
				logger.DB.Warn("db close failed",
					slog.String("event", "db.close"),
					slog.String("err", err.Error()),
				)
			}
			return nil
		},
	}, nil
}

func (a *App) interactiveInput() interactive.InputType {
	return interactive.ParseInputType(a.cfg.Interactive.Input)
}
