package router

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d4n3436/fergun/core/interactive"
	tg "github.com/d4n3436/fergun/core/telegram"

	tele "gopkg.in/telebot.v4"
)

type codedErr struct{}

func (codedErr) Error() string { return "coded" }
func (codedErr) Code() string  { return "bad input" }

type plainErr struct{}

func (*plainErr) Error() string { return "plain" }

func TestErrorCode(t *testing.T) {
	assert.Equal(t, "BAD_INPUT", errorCode(fmt.Errorf("wrap: %w", codedErr{})))
	assert.Equal(t, "SESSIONS_CLOSED", errorCode(fmt.Errorf("display: %w", interactive.ErrRegistryClosed)))
	assert.Equal(t, "PLAINERR", errorCode(&plainErr{}))
}

func TestHandlerName(t *testing.T) {
	assert.Equal(t, "help", handlerName("/Help"))
	assert.Equal(t, "a_b", handlerName(" a b "))
	assert.Equal(t, "unknown", handlerName("/"))
}

func TestCommandWord(t *testing.T) {
	assert.Equal(t, "/help", commandWord("/help"))
	assert.Equal(t, "/help", commandWord("/help@fergun_bot extra"))
	assert.Equal(t, "", commandWord("help"))
	assert.Equal(t, "", commandWord("/"))
}

type recordingPublisher struct {
	events []interactive.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev interactive.Event) error {
	p.events = append(p.events, ev)
	return p.err
}

func newContext(t *testing.T, upd tele.Update) tele.Context {
	t.Helper()
	bot, err := tele.NewBot(tele.Settings{Offline: true})
	require.NoError(t, err)
	return bot.NewContext(upd)
}

func TestTextRoutesPublishesBeforeLookup(t *testing.T) {
	reg := tg.NewRegistry()
	ran := false
	require.NoError(t, reg.RegisterCommand("/help", tg.Command{
		Handler:     func(tele.Context) error { ran = true; return nil },
		Description: "help",
	}))
	pub := &recordingPublisher{err: errors.New("ignored")}
	routes := TextRoutes(reg, TextOptions{Events: pub})
	require.Len(t, routes, 2)

	c := newContext(t, tele.Update{ID: 10, Message: &tele.Message{
		ID:     4,
		Text:   "/help@fergun_bot",
		Sender: &tele.User{ID: 1},
		Chat:   &tele.Chat{ID: 2, Type: tele.ChatGroup},
	}})
	require.NoError(t, routes[0].Handler(c))
	assert.True(t, ran)
	require.Len(t, pub.events, 1)
	assert.Equal(t, interactive.EventMessage, pub.events[0].Kind)
}
