package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildInlineKeyboard(t *testing.T) {
	kb := BuildInlineKeyboard([]Button{
		{Text: "a", CallbackData: "1"},
		{Text: "b", CallbackData: "2"},
		{Text: "c", URL: "https://example.com", CallbackData: "ignored"},
	}, 2)

	require.Len(t, kb.InlineKeyboard, 2)
	assert.Len(t, kb.InlineKeyboard[0], 2)
	assert.Equal(t, " a ", kb.InlineKeyboard[0][0].Text)
	assert.Equal(t, "2", kb.InlineKeyboard[0][1].CallbackData)
	assert.Equal(t, "https://example.com", kb.InlineKeyboard[1][0].URL)
	assert.Empty(t, kb.InlineKeyboard[1][0].CallbackData)
}

func TestBuildInlineKeyboardDefaultsToOnePerRow(t *testing.T) {
	kb := BuildInlineKeyboard([]Button{{Text: "a"}, {Text: "b"}}, 0)
	assert.Len(t, kb.InlineKeyboard, 2)
	assert.Empty(t, BuildInlineKeyboard(nil, 3).InlineKeyboard)
}
