package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"

	coreconfig "github.com/d4n3436/fergun/core/config"
	"github.com/d4n3436/fergun/core/interactive"
	"github.com/d4n3436/fergun/core/logger"

	tele "gopkg.in/telebot.v4"
)

// AllowedUpdates lists the update kinds requested from Telegram. Reaction
// updates are only delivered when requested explicitly.
var AllowedUpdates = []string{"message", "callback_query", "message_reaction"}

// NewPoller picks the update source for cfg: a webhook listener in webhook
// mode, long polling otherwise.
func NewPoller(cfg *coreconfig.Config) tele.Poller {
	if cfg.Telegram.RunMode == coreconfig.RunModeWebhook {
		return &tele.Webhook{
			Listen:         net.JoinHostPort(cfg.Webhook.Listen, strconv.Itoa(cfg.Webhook.Port)),
			Endpoint:       &tele.WebhookEndpoint{PublicURL: cfg.Webhook.URL},
			AllowedUpdates: AllowedUpdates,
		}
	}
	return &tele.LongPoller{
		Timeout:        cfg.Telegram.LongPollTimeout(),
		AllowedUpdates: AllowedUpdates,
	}
}

// WithReactions wraps p so message_reaction updates are published to events
// before they reach the bot. telebot has no handler endpoint for them.
func WithReactions(p tele.Poller, events Publisher) *tele.MiddlewarePoller {
	return tele.NewMiddlewarePoller(p, ReactionFilter(events, func(f func()) { go f() }))
}

// ReactionFilter returns a poller filter that consumes reaction updates and
// lets everything else through. Each reaction update is published on spawn.
func ReactionFilter(events Publisher, spawn func(func())) func(*tele.Update) bool {
	return func(upd *tele.Update) bool {
		if upd.MessageReaction == nil {
			return true
		}
		evs := ReactionEvents(upd.MessageReaction)
		if len(evs) == 0 || events == nil {
			return false
		}
		id := upd.ID
		spawn(func() { publishReactions(events, id, evs) })
		return false
	}
}

func publishReactions(events Publisher, updateID int, evs []interactive.Event) {
	first := evs[0]
	ctx := logger.WithRID(context.Background(), logger.BuildRID(updateID, first.ChannelID, first.ActorID))
	ctx = logger.WithUpdateMeta(ctx, updateID, first.ActorID, first.ChannelID)
	ctx = logger.WithMessage(ctx, first.Message.String())

	var errs []error
	defer func() {
		if r := recover(); r != nil {
			errs = append(errs, fmt.Errorf("telegram: reaction panic: %v", r))
		}
		if err := errors.Join(errs...); err != nil {
			logger.Error(ctx, "tg", "reaction.publish",
				slog.String("status", "fail"),
				slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			)
			return
		}
		logger.Debug(ctx, "tg", "reaction.publish",
			slog.String("status", "ok"),
			slog.Int("count", len(evs)),
		)
	}()
	for _, ev := range evs {
		errs = append(errs, events.Publish(ctx, ev))
	}
}
