package telegram

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitIntoChunks_ShortTextUntouched(t *testing.T) {
	assert.Equal(t, []string{"Миура"}, splitIntoChunks("Миура", 4096))
	assert.Equal(t, []string{"abc"}, splitIntoChunks("abc", 0))
}

func TestSplitIntoChunks_KeepsLinesWhole(t *testing.T) {
	line := "• <b>Пшеница</b>: 0,5 л/га\n"
	text := strings.Repeat(line, 10)
	n := utf8.RuneCountInString(line)

	chunks := splitIntoChunks(text, n*3+2)
	require.Len(t, chunks, 4)
	for _, c := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(c), n*3+2)
		assert.True(t, strings.HasSuffix(c, "\n"))
	}
	assert.Equal(t, text, strings.Join(chunks, ""))
}

func TestSplitIntoChunks_LongLineIsCut(t *testing.T) {
	text := strings.Repeat("я", 25)
	chunks := splitIntoChunks(text, 10)
	require.Len(t, chunks, 3)
	assert.Equal(t, 10, utf8.RuneCountInString(chunks[0]))
	assert.Equal(t, 5, utf8.RuneCountInString(chunks[2]))
	assert.Equal(t, text, strings.Join(chunks, ""))
}
