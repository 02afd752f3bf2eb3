package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	coreconfig "github.com/d4n3436/fergun/core/config"
	"github.com/d4n3436/fergun/core/interactive"
	"github.com/d4n3436/fergun/core/logger"
	tghelpers "github.com/d4n3436/fergun/core/telegram/helpers"
	tgsender "github.com/d4n3436/fergun/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

// Middleware is a named global middleware installed with bot.Use.
type Middleware struct {
	Name string
	Use  func(next tele.HandlerFunc) tele.HandlerFunc
}

// Route binds Handler to Endpoint, which is passed to tele.Bot.Handle as is.
type Route struct {
	Endpoint any
	Handler  tele.HandlerFunc
}

// RunOptions controls RunTelegram.
type RunOptions struct {
	Config   *coreconfig.Config
	Registry *Registry

	// Hub is the event source sessions listen on. Routes must publish to
	// the same hub; a nil hub is replaced by a fresh one.
	Hub *interactive.Hub

	DispatcherOptions tgsender.Options
	Dispatcher        *tgsender.Dispatcher

	Middlewares []Middleware
	Routes      []Route

	// DisableWebhookCleanup keeps a previously set webhook in long-poll mode.
	DisableWebhookCleanup   bool
	DisableHelperDispatcher bool

	OnStart func(ctx context.Context, rt Runtime) error
	OnStop  func(ctx context.Context, rt Runtime) error
}

// Runtime is what lifecycle hooks get to see of the running bot.
type Runtime struct {
	Dispatcher *tgsender.Dispatcher
	Registry   *Registry
	Hub        *interactive.Hub
	Platform   *Platform
	Sessions   *interactive.Registry
}

// SessionOptions maps the interactive config section onto registry options.
func SessionOptions(cfg coreconfig.InteractiveConfig, async interactive.Enqueuer) interactive.RegistryOptions {
	return interactive.RegistryOptions{
		RunMode:        interactive.ParseRunMode(cfg.RunMode),
		Async:          async,
		DefaultTimeout: cfg.DefaultTimeout(),
		JumpTimeout:    cfg.JumpTimeout(),
		InfoDelay:      cfg.InfoDelay(),
	}
}

// RunTelegram starts the bot described by opts and blocks until ctx is
// done or the poller stops. Cancellation is a clean exit.
func RunTelegram(ctx context.Context, opts RunOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.Config == nil {
		return errors.New("telegram: nil config")
	}
	if opts.Registry == nil {
		opts.Registry = NewRegistry()
	}
	if opts.Hub == nil {
		opts.Hub = interactive.NewHub()
	}

	bot, err := newBot(ctx, opts.Config, opts.Hub)
	if err != nil {
		return err
	}
	if opts.Config.Telegram.RunMode != coreconfig.RunModeWebhook && !opts.DisableWebhookCleanup {
		removeWebhook(ctx, bot)
	}

	rt, shutdown := startRuntime(bot, opts)
	install(bot, opts)

	if opts.OnStart != nil {
		if err := opts.OnStart(ctx, rt); err != nil {
			shutdown()
			return err
		}
	}

	runErr := serve(ctx, bot)

	var stopErr error
	if opts.OnStop != nil {
		stopErr = opts.OnStop(context.WithoutCancel(ctx), rt)
	}
	shutdown()

	if stopErr != nil {
		return stopErr
	}
	if errors.Is(runErr, context.Canceled) {
		return nil
	}
	return runErr
}

// newBot creates the bot. Reaction updates are taken off the poller and
// published to events.
func newBot(ctx context.Context, cfg *coreconfig.Config, events Publisher) (*tele.Bot, error) {
	start := time.Now()
	poller := NewPoller(cfg)
	bot, err := tele.NewBot(tele.Settings{
		Token:  cfg.Telegram.Token,
		Poller: WithReactions(poller, events),
		Client: BuildHTTPClient(),
		OnError: func(err error, c tele.Context) {
			errCtx := ctx
			if c != nil {
				errCtx = tghelpers.BuildContext(c)
			}
			logger.Error(errCtx, "tg", "bot.error",
				slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("telegram: create bot: %w", err)
	}

	attrs := []slog.Attr{
		slog.String("mode", cfg.Telegram.RunMode),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	}
	switch p := poller.(type) {
	case *tele.Webhook:
		attrs = append(attrs,
			slog.String("listen", p.Listen),
			slog.String("public_url", p.Endpoint.PublicURL),
		)
	case *tele.LongPoller:
		attrs = append(attrs, slog.Duration("timeout", p.Timeout))
	}
	logger.Info(ctx, "tg", "bot.ready", attrs...)
	return bot, nil
}

// removeWebhook drops a webhook left over from a webhook deployment, which
// would otherwise make getUpdates fail. Pending updates are kept.
func removeWebhook(ctx context.Context, bot *tele.Bot) {
	if err := bot.RemoveWebhook(false); err != nil {
		logger.Warn(ctx, "tg", "webhook.remove",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
		return
	}
	logger.Debug(ctx, "tg", "webhook.remove", slog.String("status", "ok"))
}

// startRuntime builds the dispatcher, platform and session registry. The
// returned func tears them down in reverse order.
func startRuntime(bot *tele.Bot, opts RunOptions) (Runtime, func()) {
	dispatcher := opts.Dispatcher
	if dispatcher == nil {
		dispatcher = tgsender.NewDispatcher(opts.DispatcherOptions)
	}
	if !opts.DisableHelperDispatcher {
		tghelpers.SetDispatcher(dispatcher)
	}

	var selfID int64
	if bot.Me != nil {
		selfID = bot.Me.ID
	}
	platform := NewPlatform(bot, selfID)
	ic := opts.Config.Interactive
	sessions := interactive.NewRegistry(platform, opts.Hub, SessionOptions(ic, dispatcher))

	logger.Info(context.Background(), "interactive", "sessions.ready",
		slog.String("run_mode", ic.RunMode),
		slog.String("input", ic.Input),
		slog.Duration("default_timeout", ic.DefaultTimeout()),
	)

	rt := Runtime{
		Dispatcher: dispatcher,
		Registry:   opts.Registry,
		Hub:        opts.Hub,
		Platform:   platform,
		Sessions:   sessions,
	}
	return rt, func() {
		sessions.Close()
		dispatcher.Close()
		if !opts.DisableHelperDispatcher {
			tghelpers.SetDispatcher(nil)
		}
	}
}

func install(bot *tele.Bot, opts RunOptions) {
	var mws, routes int
	for _, mw := range opts.Middlewares {
		if mw.Use != nil {
			bot.Use(mw.Use)
			mws++
		}
	}
	for _, route := range opts.Routes {
		if route.Endpoint != nil && route.Handler != nil {
			bot.Handle(route.Endpoint, route.Handler)
			routes++
		}
	}
	_ = InitBotCommands(bot, opts.Registry)
	logger.Info(context.Background(), "tg.wire", "tg.wire",
		slog.Int("middlewares", mws),
		slog.Int("routes", routes),
	)
}

// serve runs the poller until ctx is done or it stops on its own.
func serve(ctx context.Context, bot *tele.Bot) error {
	done := make(chan struct{})
	go func() {
		defer close(done)
		bot.Start()
	}()
	select {
	case <-ctx.Done():
		bot.Stop()
		<-done
		return ctx.Err()
	case <-done:
		return nil
	}
}
