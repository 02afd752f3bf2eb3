package logger

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T, format logFormat) (*structuredHandler, *asyncWriter, *bytes.Buffer) {
	t.Helper()
	buf := &bytes.Buffer{}
	aw := newAsyncWriter([]io.Writer{buf}, 1024)
	h := newStructuredHandler(handlerConfig{
		level:    slog.LevelInfo,
		writer:   aw,
		format:   format,
		keyOrder: append([]string(nil), defaultKeyOrder...),
	})
	return h, aw, buf
}

func flushLine(t *testing.T, aw *asyncWriter, buf *bytes.Buffer) string {
	t.Helper()
	require.NoError(t, aw.Flush())
	require.NoError(t, aw.Close())
	line := strings.TrimSpace(buf.String())
	require.NotEmpty(t, line, "expected log line")
	return line
}

func TestStructuredHandlerKVOrder(t *testing.T) {
	h, aw, buf := newTestHandler(t, formatKV)
	ctx := WithRID(context.Background(), "rid-123")
	ctx = WithUpdateMeta(ctx, 42, 7, 9)

	log := slog.New(h).With("component", "interactive")
	LogEvent(ctx, log, slog.LevelInfo, "session.registered",
		slog.String("status", "ok"),
		slog.String("cause", "unit"),
	)

	tokens := strings.Split(flushLine(t, aw, buf), " ")
	require.GreaterOrEqual(t, len(tokens), 6)
	expected := []string{"ts=", "level=INFO", "component=interactive", "event=session.registered", "status=ok", "rid=rid-123"}
	for i, prefix := range expected {
		assert.True(t, strings.HasPrefix(tokens[i], prefix), "token %d = %s, want prefix %s", i, tokens[i], prefix)
	}
}

func TestStructuredHandlerJSONOrder(t *testing.T) {
	h, aw, buf := newTestHandler(t, formatJSON)
	ctx := WithRID(context.Background(), "rid-json")
	ctx = WithUpdateMeta(ctx, 11, 22, 33)

	log := slog.New(h).With("component", "tg")
	LogEvent(ctx, log, slog.LevelError, "platform.edit.fail",
		slog.String("status", "fail"),
		slog.String("err", "boom"),
		slog.String("err_code", "TEST_FAIL"),
	)

	line := flushLine(t, aw, buf)
	require.True(t, strings.HasPrefix(line, "{"), "expected JSON, got %s", line)
	prefixes := []string{`{"ts":`, `"level":"ERROR"`, `"component":"tg"`, `"event":"platform.edit.fail"`, `"status":"fail"`, `"rid":"rid-json"`}
	pos := -1
	for _, pref := range prefixes {
		idx := strings.Index(line, pref)
		require.NotEqual(t, -1, idx, "prefix %s missing in %s", pref, line)
		require.Greater(t, idx, pos, "prefix %s out of order in %s", pref, line)
		pos = idx
	}
}

func TestStructuredHandlerSessionFromContext(t *testing.T) {
	h, aw, buf := newTestHandler(t, formatKV)
	ctx := WithSession(WithUpdateMeta(context.Background(), 5, 100, 200), "sess-1")

	log := slog.New(h).With("component", "interactive")
	LogEvent(ctx, log, slog.LevelInfo, "session.completed",
		slog.String("outcome_status", "canceled"),
	)

	line := flushLine(t, aw, buf)
	assert.Contains(t, line, "session_id=sess-1")
	assert.Contains(t, line, "outcome_status=canceled")
	assert.Less(t, strings.Index(line, "chat_id="), strings.Index(line, "session_id="))
}

func TestStructuredHandlerExplicitSessionWins(t *testing.T) {
	h, aw, buf := newTestHandler(t, formatJSON)
	ctx := WithSession(context.Background(), "from-ctx")

	log := slog.New(h).With("component", "interactive")
	LogEvent(ctx, log, slog.LevelInfo, "session.terminated",
		slog.String("session_id", "explicit"),
	)

	line := flushLine(t, aw, buf)
	assert.Contains(t, line, `"session_id":"explicit"`)
	assert.NotContains(t, line, "from-ctx")
}

func TestStructuredHandlerCompactRID(t *testing.T) {
	h, aw, buf := newTestHandler(t, formatKV)
	rawRID := "123:456:789"
	log := slog.New(h).With("component", "app")
	LogEvent(WithRID(context.Background(), rawRID), log, slog.LevelInfo, "rid.test",
		slog.String("status", "ok"),
	)

	line := flushLine(t, aw, buf)
	assert.Contains(t, line, "rid="+CompactRID(rawRID))
	assert.NotContains(t, line, "rid_full=", "rid_full should be omitted in KV output")
}

func TestStructuredHandlerCompactRIDJSON(t *testing.T) {
	h, aw, buf := newTestHandler(t, formatJSON)
	rawRID := "12:34:56"
	log := slog.New(h).With("component", "app")
	LogEvent(WithRID(context.Background(), rawRID), log, slog.LevelInfo, "rid.test",
		slog.String("status", "ok"),
	)

	line := flushLine(t, aw, buf)
	assert.Contains(t, line, `"rid":"`+CompactRID(rawRID)+`"`)
	assert.Contains(t, line, `"rid_full":"`+rawRID+`"`)
	assert.Contains(t, line, `"ts_unix_nano"`)
}

func TestSanitizeLimit(t *testing.T) {
	assert.Equal(t, "ab", SanitizeLimit("a\x00b​c", 2))
	assert.Equal(t, "", SanitizeLimit("abc", 0))
	assert.Equal(t, "line\nnext", Sanitize("line\nnext\x7f"))
}

func TestStructuredHandlerNormalizesEnumerations(t *testing.T) {
	h, aw, buf := newTestHandler(t, formatKV)
	log := slog.New(h).With("component", "interactive")
	LogEvent(context.Background(), log, slog.LevelInfo, "session.done",
		slog.String("status", "Cancelled"),
		slog.String("outcome", "bogus"),
		slog.String("kind", "Reaction"),
		slog.Duration("timeout", 1500*time.Millisecond),
	)

	line := flushLine(t, aw, buf)
	assert.Contains(t, line, "status=canceled")
	assert.Contains(t, line, "kind=reaction")
	assert.Contains(t, line, "timeout_ms=1500")
	assert.NotContains(t, line, "outcome=")
}

func TestStructuredHandlerGroupsAndMessage(t *testing.T) {
	h, aw, buf := newTestHandler(t, formatJSON)
	ctx := WithMessage(context.Background(), "5/77")

	log := slog.New(h).With("component", "tg").WithGroup("req").With("attempt", 2)
	log.InfoContext(ctx, "sent", slog.String("op", "edit"), slog.Group("resp", slog.Int("code", 200)))

	line := flushLine(t, aw, buf)
	assert.Contains(t, line, `"component":"tg"`)
	assert.Contains(t, line, `"event":"sent"`)
	assert.Contains(t, line, `"message":"5/77"`)
	assert.Contains(t, line, `"req.attempt":2`)
	assert.Contains(t, line, `"req.op":"edit"`)
	assert.Contains(t, line, `"req.resp.code":200`)
}

func TestStructuredHandlerCopiesWarningsToErrorSink(t *testing.T) {
	main, errs := &bytes.Buffer{}, &bytes.Buffer{}
	mw := newAsyncWriter([]io.Writer{main}, 1024)
	ew := newAsyncWriter([]io.Writer{errs}, 1024)
	log := slog.New(newStructuredHandler(handlerConfig{
		level:     slog.LevelDebug,
		writer:    mw,
		errWriter: ew,
		format:    formatKV,
	}))
	log.Info("quiet")
	log.Warn("loud")
	require.NoError(t, mw.Close())
	require.NoError(t, ew.Close())

	assert.Equal(t, 2, strings.Count(main.String(), "\n"))
	assert.Equal(t, 1, strings.Count(errs.String(), "\n"))
	assert.Contains(t, errs.String(), "event=loud")
}
