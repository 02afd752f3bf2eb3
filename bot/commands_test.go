package bot

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d4n3436/fergun/core/database"
	"github.com/d4n3436/fergun/core/interactive"
	tg "github.com/d4n3436/fergun/core/telegram"

	tele "gopkg.in/telebot.v4"
)

func TestHelpPages(t *testing.T) {
	list := []tele.Command{
		{Text: "/a", Description: "A"},
		{Text: "/b", Description: "B"},
		{Text: "/c", Description: "C"},
		{Text: "/d", Description: "D"},
		{Text: "/e", Description: "E"},
		{Text: "/f", Description: "F"},
		{Text: "/g", Description: "G"},
	}

	pages := helpPages(list, 5)
	require.Len(t, pages, 2)
	assert.Contains(t, pages[0].Text, "/a - A")
	assert.Contains(t, pages[0].Text, "/e - E")
	assert.NotContains(t, pages[0].Text, "/f")
	assert.Contains(t, pages[1].Text, "/g - G")

	assert.Empty(t, helpPages(nil, 5))
}

func TestParseChoices(t *testing.T) {
	got, err := parseChoices(" tea | coffee || Tea | water ")
	require.NoError(t, err)
	assert.Equal(t, []string{"tea", "coffee", "water"}, got)

	_, err = parseChoices("only")
	assert.ErrorIs(t, err, errTooFewChoices)

	_, err = parseChoices("a|b|c|d|e|f|g|h|i|j|k")
	assert.ErrorIs(t, err, errTooManyChoices)
}

func TestStatsPagesLoadsLazily(t *testing.T) {
	rows := make([]database.CommandUsage, 12)
	for i := range rows {
		rows[i] = database.CommandUsage{Command: "/cmd", Uses: int64(100 - i)}
	}
	rows[10].Command = "/help"

	src := statsPages(rows, 10)
	require.Equal(t, 1, src.MaxPageIndex())

	page, ok, err := src.Page(context.Background(), 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Contains(t, page.Text, "11. /help - 90")
	assert.NotContains(t, page.Text, "10. ")

	_, ok, err = src.Page(context.Background(), 2)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestParseBlacklist(t *testing.T) {
	op, err := parseBlacklist("add 42 spam and flood")
	require.NoError(t, err)
	assert.Equal(t, blacklistOp{action: "add", userID: 42, reason: "spam and flood"}, op)

	op, err = parseBlacklist("REMOVE 42")
	require.NoError(t, err)
	assert.Equal(t, blacklistOp{action: "remove", userID: 42}, op)

	op, err = parseBlacklist("list")
	require.NoError(t, err)
	assert.Equal(t, "list", op.action)

	for _, bad := range []string{"", "add", "add x", "remove 0", "ban 1"} {
		_, err := parseBlacklist(bad)
		assert.ErrorIs(t, err, errBlacklistUsage, bad)
	}
}

func TestFormatBlacklist(t *testing.T) {
	assert.Equal(t, "The blacklist is empty.", formatBlacklist(nil))

	text := formatBlacklist([]database.BlacklistEntry{
		{UserID: 1, Reason: "spam"},
		{UserID: 2},
	})
	assert.Contains(t, text, "\n1 - spam")
	assert.Contains(t, text, "\n2")
}

func TestInvocation(t *testing.T) {
	bot, err := tele.NewBot(tele.Settings{Offline: true})
	require.NoError(t, err)

	private := bot.NewContext(tele.Update{Message: &tele.Message{
		Sender: &tele.User{ID: 7},
		Chat:   &tele.Chat{ID: 7, Type: tele.ChatPrivate},
	}})
	assert.Equal(t, interactive.InvocationContext{ChannelID: 7, UserID: 7}, invocation(private))

	group := bot.NewContext(tele.Update{Message: &tele.Message{
		Sender: &tele.User{ID: 7},
		Chat:   &tele.Chat{ID: -100, Type: tele.ChatSuperGroup},
	}})
	assert.Equal(t, interactive.InvocationContext{ChannelID: -100, UserID: 7, GuildID: -100}, invocation(group))
}

func TestPaginatorAffordancesUseReactionEmoji(t *testing.T) {
	defaults := interactive.DefaultPaginatorAffordances()
	affs := paginatorAffordances()
	require.Len(t, affs, len(defaults))
	for i, a := range affs {
		assert.Equal(t, defaults[i].CustomID, a.CustomID)
		assert.Equal(t, paginatorEmotes[a.Action.Kind], a.Emote)
	}

	assert.Equal(t, "❤", candidateEmote(0))
	assert.Empty(t, candidateEmote(-1))
	assert.Empty(t, candidateEmote(len(candidateEmotes)))
}

func TestChoiceSelectionWithReactions(t *testing.T) {
	choices := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"}
	sel, err := choiceSelection(choices, 7, interactive.InputReactions, "Pick one:")
	require.NoError(t, err)
	assert.Equal(t, choices, sel.Candidates())
}

func TestNewRegistersCommands(t *testing.T) {
	app := New(&Config{}, nil)

	visible := app.commands.ListCommands(true)
	names := make([]string, 0, len(visible))
	for _, c := range visible {
		names = append(names, c.Text)
	}
	assert.Equal(t, []string{"/ask", "/choose", "/help", "/stats"}, names)

	key, _, ok := app.commands.LookupCommand("commands")
	require.True(t, ok)
	assert.Equal(t, "/help", key)

	_, ok = app.commands.GetCallback(blacklistUndoKey)
	assert.True(t, ok)
	assert.Nil(t, app.usage)
	assert.Nil(t, app.blacklist)
}

func TestTelegramRunOptions(t *testing.T) {
	app := New(&Config{}, nil)

	opts, err := app.TelegramRunOptions()
	require.NoError(t, err)
	assert.Same(t, app.hub, opts.Hub)
	assert.Same(t, app.commands, opts.Registry)
	// five commands, one alias, callbacks, text and documents
	assert.Len(t, opts.Routes, 9)
	require.NotNil(t, opts.OnStart)
	require.NotNil(t, opts.OnStop)

	sessions := interactive.NewRegistry(nil, opts.Hub, interactive.RegistryOptions{})
	defer sessions.Close()
	require.NoError(t, opts.OnStart(context.Background(), tg.Runtime{Sessions: sessions}))
	assert.Same(t, sessions, app.sessions.Load())

	require.NoError(t, opts.OnStop(context.Background(), tg.Runtime{}))
	assert.Nil(t, app.sessions.Load())
}
