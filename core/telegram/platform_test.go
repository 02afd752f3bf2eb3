package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/d4n3436/fergun/core/interactive"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tele "gopkg.in/telebot.v4"
)

type reactCall struct {
	chat      string
	message   tele.Editable
	reactions []tele.Reaction
}

type fakeBot struct {
	mu sync.Mutex

	sent    []string
	edited  []string
	markups []*tele.ReplyMarkup
	deleted []tele.Editable
	reacts  []reactCall

	err error
}

func (b *fakeBot) Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return nil, b.err
	}
	b.sent = append(b.sent, what.(string))
	b.markups = append(b.markups, markupOf(opts))
	return &tele.Message{ID: 77, Chat: &tele.Chat{ID: 10}}, nil
}

func (b *fakeBot) Edit(msg tele.Editable, what interface{}, opts ...interface{}) (*tele.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return nil, b.err
	}
	b.edited = append(b.edited, what.(string))
	b.markups = append(b.markups, markupOf(opts))
	return &tele.Message{}, nil
}

func (b *fakeBot) Delete(msg tele.Editable) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return b.err
	}
	b.deleted = append(b.deleted, msg)
	return nil
}

func (b *fakeBot) React(to tele.Recipient, msg tele.Editable, r tele.Reactions) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return b.err
	}
	b.reacts = append(b.reacts, reactCall{chat: to.Recipient(), message: msg, reactions: r.Reactions})
	return nil
}

func markupOf(opts []interface{}) *tele.ReplyMarkup {
	for _, o := range opts {
		if m, ok := o.(*tele.ReplyMarkup); ok {
			return m
		}
	}
	return nil
}

func TestMapError(t *testing.T) {
	assert.NoError(t, mapError(nil))
	assert.NoError(t, mapError(errors.New("telegram: Bad Request: message is not modified: specified new message content and reply markup are exactly the same (400)")))

	for _, msg := range []string{
		"telegram: Bad Request: message to edit not found (400)",
		"telegram: Bad Request: message to delete not found (400)",
		"telegram: Bad Request: MESSAGE_ID_INVALID (400)",
	} {
		err := mapError(errors.New(msg))
		assert.ErrorIs(t, err, interactive.ErrMessageNotFound, msg)
		assert.Contains(t, err.Error(), msg)
	}

	other := errors.New("telegram: Forbidden: bot was blocked by the user (403)")
	assert.Same(t, other, mapError(other))
}

func TestPlatformSendRendersKeyboard(t *testing.T) {
	bot := &fakeBot{}
	p := NewPlatform(bot, 1)
	assert.Equal(t, int64(1), p.SelfID())

	ref, err := p.Send(context.Background(), 10, interactive.OutgoingMessage{
		Text: "page 1",
		Buttons: [][]interactive.Button{{
			{Label: "▶", CustomID: "ia:next"},
			{Label: "⏹", CustomID: "ia:stop", Disabled: true},
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, interactive.MessageRef{ChatID: 10, ID: 77}, ref)

	require.Len(t, bot.markups, 1)
	kb := bot.markups[0]
	require.NotNil(t, kb)
	require.Len(t, kb.InlineKeyboard, 1)
	assert.Equal(t, "ia:next", kb.InlineKeyboard[0][0].Data)
	assert.Equal(t, "▶", kb.InlineKeyboard[0][0].Text)
	assert.Equal(t, "ia:noop", kb.InlineKeyboard[0][1].Data)
}

func TestPlatformEditWithoutButtonsDropsKeyboard(t *testing.T) {
	bot := &fakeBot{}
	p := NewPlatform(bot, 1)

	require.NoError(t, p.Edit(context.Background(), interactive.MessageRef{ChatID: 10, ID: 5}, interactive.OutgoingMessage{Text: "done"}))
	assert.Equal(t, []string{"done"}, bot.edited)
	assert.Nil(t, bot.markups[0])
}

func TestPlatformNotFoundIsTranslated(t *testing.T) {
	bot := &fakeBot{err: errors.New("telegram: Bad Request: message to delete not found (400)")}
	p := NewPlatform(bot, 1)

	err := p.Delete(context.Background(), interactive.MessageRef{ChatID: 10, ID: 5})
	assert.ErrorIs(t, err, interactive.ErrMessageNotFound)
}

func TestPlatformReactionsKeepOnePerMessage(t *testing.T) {
	bot := &fakeBot{}
	p := NewPlatform(bot, 1)
	ref := interactive.MessageRef{ChatID: 10, ID: 5}
	ctx := context.Background()
	assert.Equal(t, 1, p.MaxReactions())

	require.NoError(t, p.AddReaction(ctx, ref, "👍"))
	require.NoError(t, p.AddReaction(ctx, ref, "👎"))
	require.Len(t, bot.reacts, 1)
	first := bot.reacts[0]
	assert.Equal(t, "10", first.chat)
	msgID, chatID := first.message.MessageSig()
	assert.Equal(t, "5", msgID)
	assert.Equal(t, int64(10), chatID)
	assert.Equal(t, []tele.Reaction{{Type: tele.ReactionTypeEmoji, Emoji: "👍"}}, first.reactions)

	require.NoError(t, p.ClearReactions(ctx, ref))
	require.Len(t, bot.reacts, 2)
	require.NotNil(t, bot.reacts[1].reactions, "an empty list clears, a null one is rejected")
	data, err := json.Marshal(bot.reacts[1].reactions)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(data))

	require.NoError(t, p.AddReaction(ctx, ref, "🔥"))
	assert.Len(t, bot.reacts, 3)
}

func TestPlatformFailedReactionCanBeRetried(t *testing.T) {
	bot := &fakeBot{err: errors.New("telegram: Bad Request: REACTION_INVALID (400)")}
	p := NewPlatform(bot, 1)
	ref := interactive.MessageRef{ChatID: 10, ID: 5}

	assert.Error(t, p.AddReaction(context.Background(), ref, "⏮"))
	bot.err = nil
	require.NoError(t, p.AddReaction(context.Background(), ref, "👍"))
	assert.Len(t, bot.reacts, 1)
}
