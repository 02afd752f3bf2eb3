package middleware

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tele "gopkg.in/telebot.v4"
)

func newTestContext(t *testing.T, userID int64) tele.Context {
	t.Helper()
	bot, err := tele.NewBot(tele.Settings{Offline: true})
	require.NoError(t, err)
	return bot.NewContext(tele.Update{
		ID: 1,
		Message: &tele.Message{
			ID:     3,
			Sender: &tele.User{ID: userID},
			Chat:   &tele.Chat{ID: userID, Type: tele.ChatPrivate},
			Text:   "/stats",
		},
	})
}

type staticBlacklist struct {
	banned map[int64]bool
	err    error
	calls  int
}

func (s *staticBlacklist) IsBlacklisted(_ context.Context, userID int64) (bool, error) {
	s.calls++
	return s.banned[userID], s.err
}

type countingUsage struct {
	commands []string
	err      error
}

func (u *countingUsage) Increment(_ context.Context, command string) error {
	u.commands = append(u.commands, command)
	return u.err
}

func reached(flag *bool) tele.HandlerFunc {
	return func(tele.Context) error {
		*flag = true
		return nil
	}
}

func TestAdminOnlyMiddleware(t *testing.T) {
	var ok, rejected bool
	mw := AdminOnlyMiddleware(AdminOptions{AdminID: 1, OnReject: reached(&rejected)})

	require.NoError(t, mw(reached(&ok))(newTestContext(t, 2)))
	assert.False(t, ok)
	assert.True(t, rejected)

	require.NoError(t, mw(reached(&ok))(newTestContext(t, 1)))
	assert.True(t, ok)
}

func TestBlacklistMiddleware(t *testing.T) {
	bl := &staticBlacklist{banned: map[int64]bool{5: true, 1: true}}
	var ok, rejected bool
	mw := BlacklistMiddleware(BlacklistOptions{Checker: bl, Exempt: []int64{1}, OnReject: reached(&rejected)})

	require.NoError(t, mw(reached(&ok))(newTestContext(t, 5)))
	assert.False(t, ok)
	assert.True(t, rejected)

	require.NoError(t, mw(reached(&ok))(newTestContext(t, 1)))
	assert.True(t, ok, "exempt users skip the lookup")
	assert.Equal(t, 1, bl.calls)

	ok = false
	require.NoError(t, mw(reached(&ok))(newTestContext(t, 6)))
	assert.True(t, ok)
}

func TestBlacklistMiddlewareFailsOpen(t *testing.T) {
	bl := &staticBlacklist{banned: map[int64]bool{5: true}, err: errors.New("db down")}
	var ok bool
	mw := BlacklistMiddleware(BlacklistOptions{Checker: bl})

	require.NoError(t, mw(reached(&ok))(newTestContext(t, 5)))
	assert.True(t, ok)
}

func TestUsageMiddlewareCountsSuccessOnly(t *testing.T) {
	usage := &countingUsage{}
	mw := UsageMiddleware(usage, "/stats")

	var ok bool
	require.NoError(t, mw(reached(&ok))(newTestContext(t, 5)))
	assert.Equal(t, []string{"/stats"}, usage.commands)

	boom := errors.New("boom")
	err := mw(func(tele.Context) error { return boom })(newTestContext(t, 5))
	assert.ErrorIs(t, err, boom)
	assert.Len(t, usage.commands, 1)

	usage.err = errors.New("db down")
	assert.NoError(t, mw(reached(&ok))(newTestContext(t, 5)))
}

func TestRecoverMiddlewareReportsPanic(t *testing.T) {
	err := RecoverMiddleware(func(tele.Context) error { panic("kaboom") })(newTestContext(t, 5))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kaboom")
}
