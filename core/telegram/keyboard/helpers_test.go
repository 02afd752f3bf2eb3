package keyboard

import (
	"testing"

	"github.com/d4n3436/fergun/core/interactive"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromButtons(t *testing.T) {
	assert.Nil(t, FromButtons(nil))
	assert.Nil(t, FromButtons([][]interactive.Button{{}}))

	kb := FromButtons([][]interactive.Button{
		{{Label: "A", CustomID: "ia:select:0"}, {Label: "B", CustomID: "ia:select:1", Disabled: true}},
		{},
		{{Label: "Cancel", CustomID: "ia:cancel"}},
	})
	require.NotNil(t, kb)
	require.Len(t, kb.InlineKeyboard, 2)
	assert.Equal(t, "ia:select:0", kb.InlineKeyboard[0][0].Data)
	assert.Equal(t, DisabledData, kb.InlineKeyboard[0][1].Data)
	assert.Equal(t, "B", kb.InlineKeyboard[0][1].Text)
	assert.Equal(t, "Cancel", kb.InlineKeyboard[1][0].Text)
}

// The "\f<unique>|" prefix is added by telebot when the markup is sent, so
// the button keeps unique and data apart.
func TestInlineButtonsRowsKeepsUnique(t *testing.T) {
	kb := InlineButtonsRows([]InlineBtn{{Text: "Undo", Unique: "bl_undo", Data: "42"}})
	require.Len(t, kb.InlineKeyboard, 1)
	btn := kb.InlineKeyboard[0][0]
	assert.Equal(t, "Undo", btn.Text)
	assert.Equal(t, "bl_undo", btn.Unique)
	assert.Equal(t, "42", btn.Data)
}

func TestChunkButtons(t *testing.T) {
	btns := []InlineBtn{{Text: "1"}, {Text: "2"}, {Text: "3"}}
	rows := ChunkButtons(btns, 2)
	require.Len(t, rows, 2)
	assert.Len(t, rows[0], 2)
	assert.Len(t, rows[1], 1)
	assert.Len(t, ChunkButtons(btns, 0), 3)
}
