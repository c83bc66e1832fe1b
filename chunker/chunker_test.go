package chunker

import (
	"fmt"
	"strings"
	"testing"

	"github.com/poiesic/archivist/core"
	"github.com/poiesic/archivist/tokenizer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wordCounter counts whitespace-separated words, so tests can build sentences
// with exact token counts.
var wordCounter = tokenizer.CounterFunc(func(text string) int {
	return len(strings.Fields(text))
})

// sentence builds a sentence of n words ending in an alphanumeric word.
func sentence(prefix string, n int) string {
	words := make([]string, n)
	for i := range words {
		words[i] = fmt.Sprintf("%s%d", prefix, i)
	}
	return strings.Join(words, " ")
}

func article(content string) *core.Article {
	return &core.Article{
		Title:   "The Wars of the Diadochi",
		URL:     "https://example.com/blog/diadochi",
		Date:    "2020-05-01T09:00:00+00:00",
		Content: content,
	}
}

func joinContents(chunks []core.Chunk) string {
	parts := make([]string, len(chunks))
	for i, c := range chunks {
		parts[i] = c.Content
	}
	return strings.Join(parts, " ")
}

func TestChunk_SmallArticleSingleChunk(t *testing.T) {
	c := New(wordCounter, DefaultConfig())
	content := sentence("w", 50)

	chunks := c.Chunk(article(content))

	require.Len(t, chunks, 1)
	assert.Equal(t, content, chunks[0].Content)
	assert.Equal(t, 50, chunks[0].ContentTokens)
}

func TestChunk_CopiesArticleMetadata(t *testing.T) {
	c := New(wordCounter, DefaultConfig())
	a := article(sentence("w", 10))

	chunks := c.Chunk(a)

	require.Len(t, chunks, 1)
	assert.Equal(t, a.Title, chunks[0].ArticleTitle)
	assert.Equal(t, a.URL, chunks[0].ArticleURL)
	assert.Equal(t, a.Date, chunks[0].ArticleDate)
	assert.NotNil(t, chunks[0].Embedding)
	assert.Empty(t, chunks[0].Embedding)
}

func TestChunk_EmptyContent(t *testing.T) {
	c := New(wordCounter, DefaultConfig())

	chunks := c.Chunk(article(""))

	require.Len(t, chunks, 1)
	assert.Equal(t, "", chunks[0].Content)
	assert.Equal(t, 0, chunks[0].ContentTokens)
}

func TestChunk_ExactlyAtBudget(t *testing.T) {
	c := New(wordCounter, DefaultConfig())
	content := sentence("a", 100) + ". " + sentence("b", 100)

	chunks := c.Chunk(article(content))

	require.Len(t, chunks, 1)
	assert.Equal(t, content, chunks[0].Content)
}

func TestChunk_GreedyFlushWithoutMerge(t *testing.T) {
	c := New(wordCounter, DefaultConfig())
	content := sentence("a", 150) + ". " + sentence("b", 80) + ". " + sentence("c", 40) + "."

	chunks := c.Chunk(article(content))

	require.Len(t, chunks, 2)
	assert.Equal(t, 150, chunks[0].ContentTokens)
	assert.Equal(t, 120, chunks[1].ContentTokens)
	assert.Equal(t, sentence("a", 150)+".", chunks[0].Content)
	assert.Equal(t, content, joinContents(chunks))
}

func TestChunk_TrailingFragmentMerged(t *testing.T) {
	c := New(wordCounter, DefaultConfig())
	content := sentence("a", 180) + ". " + sentence("b", 30) + "."

	chunks := c.Chunk(article(content))

	require.Len(t, chunks, 1)
	assert.Equal(t, 210, chunks[0].ContentTokens)
	assert.Greater(t, chunks[0].ContentTokens, c.Config().MaxTokens)
	assert.Equal(t, content, chunks[0].Content)
}

func TestChunk_OversizedSentenceKeptWhole(t *testing.T) {
	c := New(wordCounter, DefaultConfig())
	big := sentence("x", 260)
	content := sentence("a", 120) + ". " + big + ". " + sentence("b", 120) + "."

	chunks := c.Chunk(article(content))

	require.Len(t, chunks, 3)
	assert.Equal(t, 120, chunks[0].ContentTokens)
	assert.Equal(t, 260, chunks[1].ContentTokens)
	assert.Equal(t, big+".", chunks[1].Content)
	assert.Equal(t, 120, chunks[2].ContentTokens)
	assert.Equal(t, content, joinContents(chunks))
}

func TestChunk_ShortFirstChunkAbsorbsSuccessor(t *testing.T) {
	c := New(wordCounter, DefaultConfig())
	content := sentence("a", 20) + ". " + sentence("x", 250) + ". " + sentence("b", 150) + "."

	chunks := c.Chunk(article(content))

	require.Len(t, chunks, 2)
	assert.Equal(t, 270, chunks[0].ContentTokens)
	assert.Equal(t, 150, chunks[1].ContentTokens)
	assert.Equal(t, content, joinContents(chunks))
}

func TestChunk_SmallBudget(t *testing.T) {
	c := New(wordCounter, Config{MaxTokens: 5, MergeThreshold: 1})
	content := "one two three four five. six seven eight nine ten"

	units := splitUnits(content)
	require.Len(t, units, 2)
	assert.Equal(t, "one two three four five. ", units[0])

	chunks := c.Chunk(article(content))
	require.Len(t, chunks, 2)
	assert.Equal(t, "one two three four five.", chunks[0].Content)
	assert.Equal(t, "six seven eight nine ten", chunks[1].Content)
}

func TestSplitUnits(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{
			name:    "no delimiter",
			content: "single sentence",
			want:    []string{"single sentence"},
		},
		{
			name:    "sentence end restores period",
			content: "First one. Second one",
			want:    []string{"First one. ", "Second one"},
		},
		{
			name:    "abbreviation ending in a letter",
			content: "He left in 301 B.C. Then returned",
			want:    []string{"He left in 301 B.C. ", "Then returned"},
		},
		{
			name:    "non alphanumeric end",
			content: `He said "go". Then left`,
			want:    []string{`He said "go" `, "Then left"},
		},
		{
			name:    "digit end",
			content: "In 323. Alexander died",
			want:    []string{"In 323. ", "Alexander died"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, splitUnits(tt.content))
		})
	}
}

func TestChunk_Deterministic(t *testing.T) {
	c := New(wordCounter, DefaultConfig())
	var sentences []string
	for i := range 30 {
		sentences = append(sentences, sentence(fmt.Sprintf("s%d_", i), 10+(i*7)%40))
	}
	content := strings.Join(sentences, ". ") + "."

	first := c.Chunk(article(content))
	second := c.Chunk(article(content))

	assert.Equal(t, first, second)
}

func TestNew_DefaultsForZeroConfig(t *testing.T) {
	c := New(wordCounter, Config{})
	assert.Equal(t, DefaultConfig(), c.Config())
}

// TestChunk_Invariants checks the chunk invariants against the real tokenizer.
func TestChunk_Invariants(t *testing.T) {
	counter, err := tokenizer.New("")
	require.NoError(t, err)
	c := New(counter, DefaultConfig())

	var sentences []string
	for i := range 80 {
		sentences = append(sentences, fmt.Sprintf(
			"In year %d the garrison at site %d held out for %d days against the besieging army of general number %d",
			300-i, i, 10+i%17, i%9))
	}
	content := strings.Join(sentences, ". ") + "."
	a := article(content)

	chunks := c.Chunk(a)
	require.Greater(t, len(chunks), 1)

	assert.Equal(t, content, joinContents(chunks), "chunks must reproduce content")

	for i, chunk := range chunks {
		assert.Equal(t, counter.Count(chunk.Content), chunk.ContentTokens, "chunk %d token count", i)
		if i < len(chunks)-1 {
			assert.GreaterOrEqual(t, chunk.ContentTokens, DefaultMergeThreshold, "chunk %d below merge threshold", i)
		}
	}

	// Without merging, no chunk is over budget since every sentence fits alone.
	for i, text := range c.Split(content) {
		assert.LessOrEqual(t, counter.Count(text), DefaultMaxTokens, "split %d over budget", i)
	}
}
