package interactive

import (
	"context"
	"errors"
)

// ErrMessageNotFound is returned by a Platform when the target message no
// longer exists. Cleanup paths swallow exactly this error.
var ErrMessageNotFound = errors.New("interactive: message not found")

// Button is one rendered component.
type Button struct {
	Label    string
	CustomID string
	// Disabled mirrors the state machine; the machine never relies on it.
	Disabled bool
}

// OutgoingMessage is what the engine asks the platform to render.
type OutgoingMessage struct {
	Text    string
	Buttons [][]Button
}

// Platform is the set of outbound calls the engine makes.
type Platform interface {
	// SelfID returns the bot's own user id.
	SelfID() int64
	Send(ctx context.Context, chatID int64, msg OutgoingMessage) (MessageRef, error)
	Edit(ctx context.Context, ref MessageRef, msg OutgoingMessage) error
	Delete(ctx context.Context, ref MessageRef) error
	AddReaction(ctx context.Context, ref MessageRef, emote string) error
	ClearReactions(ctx context.Context, ref MessageRef) error
}

// ReactionLimiter is implemented by platforms that keep at most
// MaxReactions of the bot's own reactions on a message. Display attaches
// only that many affordances; users may still react with the others.
type ReactionLimiter interface {
	MaxReactions() int
}

// ignoreNotFound drops the one transport failure cleanup is allowed to hide.
func ignoreNotFound(err error) error {
	if errors.Is(err, ErrMessageNotFound) {
		return nil
	}
	return err
}

func disableButtons(rows [][]Button) [][]Button {
	if len(rows) == 0 {
		return nil
	}
	out := make([][]Button, len(rows))
	for i, row := range rows {
		r := make([]Button, len(row))
		for j, b := range row {
			b.Disabled = true
			r[j] = b
		}
		out[i] = r
	}
	return out
}
