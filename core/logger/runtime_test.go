package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContextMetaIsCopiedOnWrite(t *testing.T) {
	base := WithUpdateMeta(WithRID(context.Background(), "1:2:3"), 1, 3, 2)
	withSession := WithMessage(WithSession(base, "s-1"), "2/10")

	assert.Equal(t, "1:2:3", RIDFrom(withSession))
	assert.Equal(t, 1, UpdateIDFrom(withSession))
	assert.Equal(t, int64(3), UserIDFrom(withSession))
	assert.Equal(t, int64(2), ChatIDFrom(withSession))
	assert.Equal(t, "s-1", SessionFrom(withSession))
	assert.Equal(t, "2/10", MessageFrom(withSession))

	assert.Empty(t, SessionFrom(base))
	assert.Empty(t, MessageFrom(base))
}

func TestContextHelpersTolerateEmptyValues(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, ctx, WithSession(ctx, ""))
	assert.Equal(t, ctx, WithHandler(ctx, ""))
	assert.Equal(t, ctx, WithMessage(ctx, ""))
	assert.Empty(t, HandlerFrom(ctx))
	assert.Same(t, L, FromContext(ctx))
}

func TestCompactRID(t *testing.T) {
	assert.Equal(t, "a.b.c", CompactRID("10:11:12"))
	assert.Equal(t, "-a.0.z", CompactRID("-10:0:35"))
	assert.Equal(t, "not-a-rid", CompactRID(" not-a-rid "))
	assert.Equal(t, "1:x:2", CompactRID("1:x:2"))
	assert.Equal(t, "", CompactRID(""))
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "", Preview(nil, 3))
	assert.Equal(t, "a, b", Preview([]string{"a", "b"}, 3))
	assert.Equal(t, "a, b (+2 more)", Preview([]string{"a", "b", "c", "d"}, 2))
	assert.Equal(t, "+1 more", Preview([]string{"a"}, 0))
}
