package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/d4n3436/fergun/core/interactive"
	"github.com/d4n3436/fergun/core/logger"
	"github.com/d4n3436/fergun/core/telegram/keyboard"

	tele "gopkg.in/telebot.v4"
)

// BotAPI is the subset of *tele.Bot the platform adapter calls.
type BotAPI interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
	Edit(msg tele.Editable, what interface{}, opts ...interface{}) (*tele.Message, error)
	Delete(msg tele.Editable) error
	React(to tele.Recipient, msg tele.Editable, r tele.Reactions) error
}

// Platform renders interactive sessions through the Telegram Bot API.
type Platform struct {
	api  BotAPI
	self int64

	// reacted tracks messages that already carry the bot's reaction.
	// A bot holds a single reaction per message; see MaxReactions.
	reacted sync.Map
}

var (
	_ interactive.Platform        = (*Platform)(nil)
	_ interactive.ReactionLimiter = (*Platform)(nil)
)

// NewPlatform wraps api. selfID is the bot's own user id.
func NewPlatform(api BotAPI, selfID int64) *Platform {
	return &Platform{api: api, self: selfID}
}

// SelfID returns the bot's user id.
func (p *Platform) SelfID() int64 { return p.self }

// MaxReactions is 1: setMessageReaction replaces the bot's reaction, and
// only premium users may set more than one.
func (p *Platform) MaxReactions() int { return 1 }

// Send posts msg to chatID.
func (p *Platform) Send(ctx context.Context, chatID int64, msg interactive.OutgoingMessage) (interactive.MessageRef, error) {
	opts := []interface{}{}
	if markup := keyboard.FromButtons(msg.Buttons); markup != nil {
		opts = append(opts, markup)
	}
	sent, err := p.api.Send(tele.ChatID(chatID), msg.Text, opts...)
	if err != nil {
		p.logFailure(ctx, "send", interactive.MessageRef{ChatID: chatID}, err)
		return interactive.MessageRef{}, mapError(err)
	}
	ref := interactive.MessageRef{ChatID: chatID, ID: sent.ID}
	if sent.Chat != nil {
		ref.ChatID = sent.Chat.ID
	}
	return ref, nil
}

// Edit replaces the text and keyboard of ref. A message without buttons
// loses its keyboard.
func (p *Platform) Edit(ctx context.Context, ref interactive.MessageRef, msg interactive.OutgoingMessage) error {
	opts := []interface{}{}
	if markup := keyboard.FromButtons(msg.Buttons); markup != nil {
		opts = append(opts, markup)
	}
	_, err := p.api.Edit(stored(ref), msg.Text, opts...)
	if err != nil {
		p.logFailure(ctx, "edit", ref, err)
	}
	return mapError(err)
}

// Delete removes ref.
func (p *Platform) Delete(ctx context.Context, ref interactive.MessageRef) error {
	p.reacted.Delete(ref)
	err := p.api.Delete(stored(ref))
	if err != nil {
		p.logFailure(ctx, "delete", ref, err)
	}
	return mapError(err)
}

// AddReaction attaches emote to ref unless the bot already reacted there,
// in which case the call is a logged no-op.
func (p *Platform) AddReaction(ctx context.Context, ref interactive.MessageRef, emote string) error {
	if _, loaded := p.reacted.LoadOrStore(ref, emote); loaded {
		logger.Debug(ctx, "tg", "reaction.skip",
			slog.String("message", ref.String()),
			slog.String("emote", emote),
		)
		return nil
	}
	err := p.setReactions(ref, tele.Reaction{Type: tele.ReactionTypeEmoji, Emoji: emote})
	if err != nil {
		p.reacted.Delete(ref)
		p.logFailure(ctx, "react", ref, err)
	}
	return mapError(err)
}

// ClearReactions removes the bot's reaction from ref.
func (p *Platform) ClearReactions(ctx context.Context, ref interactive.MessageRef) error {
	p.reacted.Delete(ref)
	err := p.setReactions(ref)
	if err != nil {
		p.logFailure(ctx, "unreact", ref, err)
	}
	return mapError(err)
}

// setReactions replaces the bot's reactions on ref. No reactions clears them.
func (p *Platform) setReactions(ref interactive.MessageRef, reactions ...tele.Reaction) error {
	return p.api.React(tele.ChatID(ref.ChatID), stored(ref), tele.Reactions{
		Reactions: append([]tele.Reaction{}, reactions...),
	})
}

func (p *Platform) logFailure(ctx context.Context, op string, ref interactive.MessageRef, err error) {
	logger.Debug(ctx, "tg", "platform."+op+".failed",
		slog.String("message", ref.String()),
		slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
	)
}

func stored(ref interactive.MessageRef) tele.StoredMessage {
	return tele.StoredMessage{MessageID: strconv.Itoa(ref.ID), ChatID: ref.ChatID}
}

var notFoundMarkers = []string{
	"message to edit not found",
	"message to delete not found",
	"message to react not found",
	"message not found",
	"message_id_invalid",
}

// mapError translates Bot API failures into the engine's vocabulary.
// An unchanged edit is a success.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "message is not modified") {
		return nil
	}
	for _, marker := range notFoundMarkers {
		if strings.Contains(msg, marker) {
			return fmt.Errorf("%w: %v", interactive.ErrMessageNotFound, err)
		}
	}
	return err
}
