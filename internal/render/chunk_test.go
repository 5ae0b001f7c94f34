package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit_ShortInputIsSingleChunk(t *testing.T) {
	parts := Split("hello", 4096)
	require.Len(t, parts, 1)
	assert.Equal(t, "hello", parts[0])
}

func TestSplit_HardCutWithoutLineBreaks(t *testing.T) {
	in := strings.Repeat("a", 9000)

	parts := Split(in, 4096)
	require.Len(t, parts, 3)
	for _, p := range parts {
		assert.LessOrEqual(t, len([]rune(p)), 4096)
	}
	assert.Equal(t, in, strings.Join(parts, ""))
	assert.Len(t, parts[0], 4096)
	assert.Len(t, parts[1], 4096)
	assert.Len(t, parts[2], 808)
}

func TestSplit_PrefersLineBreak(t *testing.T) {
	in := strings.Repeat("a", 4000) + "\n" + strings.Repeat("b", 999)

	parts := Split(in, 4096)
	require.Len(t, parts, 2)
	assert.Equal(t, strings.Repeat("a", 4000), parts[0])
	assert.Equal(t, "\n"+strings.Repeat("b", 999), parts[1])
	assert.Equal(t, in, strings.Join(parts, ""))
}

func TestSplit_LeadingLineBreakDoesNotYieldEmptyChunk(t *testing.T) {
	in := "\n" + strings.Repeat("a", 5000)

	parts := Split(in, 4096)
	assert.Equal(t, in, strings.Join(parts, ""))
	for _, p := range parts {
		assert.NotEmpty(t, p)
		assert.LessOrEqual(t, len([]rune(p)), 4096)
	}
}

func TestSplit_RuneAware(t *testing.T) {
	in := strings.Repeat("я", 5000)

	parts := Split(in, 4096)
	require.Len(t, parts, 2)
	assert.Equal(t, 4096, len([]rune(parts[0])))
	assert.Equal(t, in, strings.Join(parts, ""))
}

func TestSplit_TranslatedContentSurvivesChunking(t *testing.T) {
	in := MarkdownToXHTML(strings.Repeat("word ", 2000))

	parts := Split(in, 4096)
	assert.Equal(t, StripTags(in), StripTags(strings.Join(parts, "")))
}
