package interactive

import (
	"strconv"
)

// MessageRef identifies a sent message. Telegram message ids are only unique
// within a chat, so the chat id is part of the key.
type MessageRef struct {
	ChatID int64
	ID     int
}

// IsZero reports whether the reference points nowhere.
func (r MessageRef) IsZero() bool {
	return r.ChatID == 0 && r.ID == 0
}

func (r MessageRef) String() string {
	return strconv.FormatInt(r.ChatID, 10) + "/" + strconv.Itoa(r.ID)
}

// InvocationContext is the context a session was created in.
type InvocationContext struct {
	ChannelID int64
	UserID    int64
	// GuildID is zero for private chats.
	GuildID int64
}

// EventKind enumerates the input event families delivered by the platform.
type EventKind int

const (
	// EventReaction is a reaction added to a message.
	EventReaction EventKind = iota + 1
	// EventComponent is an activation of an interactive component (inline button).
	EventComponent
	// EventMessage is a new text message.
	EventMessage
)

func (k EventKind) String() string {
	switch k {
	case EventReaction:
		return "reaction"
	case EventComponent:
		return "component"
	case EventMessage:
		return "message"
	}
	return "unknown"
}

// Event is one input event from the platform. Message is the message the
// reaction or component belongs to; for EventMessage it is the new message.
type Event struct {
	Kind      EventKind
	Message   MessageRef
	ChannelID int64
	ActorID   int64

	Emote    string
	CustomID string
	Text     string
}
