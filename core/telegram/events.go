package telegram

import (
	"context"

	"github.com/d4n3436/fergun/core/interactive"

	tele "gopkg.in/telebot.v4"
)

// Publisher receives translated input events. *interactive.Hub satisfies it.
type Publisher interface {
	Publish(ctx context.Context, ev interactive.Event) error
}

// ComponentEvent translates an inline button press. Only callbacks minted by
// the interactive package are translated.
func ComponentEvent(cb *tele.Callback) (interactive.Event, bool) {
	if cb == nil || cb.Message == nil || cb.Message.Chat == nil || cb.Sender == nil {
		return interactive.Event{}, false
	}
	if !interactive.IsComponentID(cb.Data) {
		return interactive.Event{}, false
	}
	chatID := cb.Message.Chat.ID
	return interactive.Event{
		Kind:      interactive.EventComponent,
		Message:   interactive.MessageRef{ChatID: chatID, ID: cb.Message.ID},
		ChannelID: chatID,
		ActorID:   cb.Sender.ID,
		CustomID:  cb.Data,
	}, true
}

// ReactionEvents translates a message_reaction update into one event per
// newly added emoji. Removed reactions produce nothing.
func ReactionEvents(mr *tele.MessageReaction) []interactive.Event {
	if mr == nil || mr.Chat == nil {
		return nil
	}
	var actor int64
	switch {
	case mr.User != nil:
		actor = mr.User.ID
	case mr.ActorChat != nil:
		actor = mr.ActorChat.ID
	default:
		return nil
	}

	before := make(map[string]struct{}, len(mr.OldReaction))
	for _, r := range mr.OldReaction {
		before[r.Emoji] = struct{}{}
	}
	ref := interactive.MessageRef{ChatID: mr.Chat.ID, ID: mr.MessageID}
	var out []interactive.Event
	for _, r := range mr.NewReaction {
		if r.Emoji == "" {
			continue
		}
		if _, had := before[r.Emoji]; had {
			continue
		}
		out = append(out, interactive.Event{
			Kind:      interactive.EventReaction,
			Message:   ref,
			ChannelID: ref.ChatID,
			ActorID:   actor,
			Emote:     r.Emoji,
		})
	}
	return out
}

// MessageEvent translates an incoming text message.
func MessageEvent(m *tele.Message) (interactive.Event, bool) {
	if m == nil || m.Chat == nil || m.Sender == nil || m.Text == "" {
		return interactive.Event{}, false
	}
	return interactive.Event{
		Kind:      interactive.EventMessage,
		Message:   interactive.MessageRef{ChatID: m.Chat.ID, ID: m.ID},
		ChannelID: m.Chat.ID,
		ActorID:   m.Sender.ID,
		Text:      m.Text,
	}, true
}
