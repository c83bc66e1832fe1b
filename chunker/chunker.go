// Package chunker splits article text into token-bounded chunks.
package chunker

import (
	"strings"
	"unicode"

	"github.com/poiesic/archivist/core"
	"github.com/poiesic/archivist/tokenizer"
)

const (
	// DefaultMaxTokens is the chunk token budget.
	DefaultMaxTokens = 200
	// DefaultMergeThreshold is the size below which a chunk is absorbed by its predecessor.
	DefaultMergeThreshold = 100

	sentenceDelimiter = ". "
)

// Config controls chunking behavior.
type Config struct {
	MaxTokens      int // Token budget per chunk.
	MergeThreshold int // Chunks smaller than this are merged backward.
}

// DefaultConfig returns the reference budget and merge threshold.
func DefaultConfig() Config {
	return Config{
		MaxTokens:      DefaultMaxTokens,
		MergeThreshold: DefaultMergeThreshold,
	}
}

// Chunker splits articles into chunks. It is a pure function of the article
// content, the token counter and the two thresholds.
type Chunker struct {
	counter tokenizer.Counter
	cfg     Config
}

// New creates a Chunker. Non-positive config values fall back to defaults.
func New(counter tokenizer.Counter, cfg Config) *Chunker {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.MergeThreshold <= 0 {
		cfg.MergeThreshold = DefaultMergeThreshold
	}
	return &Chunker{
		counter: counter,
		cfg:     cfg,
	}
}

// Config returns the effective configuration.
func (c *Chunker) Config() Config {
	return c.cfg
}

// Chunk splits an article's content into an ordered chunk sequence. Each chunk
// carries the article's title, URL and date and an empty embedding.
func (c *Chunker) Chunk(article *core.Article) []core.Chunk {
	texts := c.Split(article.Content)

	chunks := make([]core.Chunk, 0, len(texts))
	for _, text := range texts {
		chunks = append(chunks, core.Chunk{
			ArticleTitle:  article.Title,
			ArticleURL:    article.URL,
			ArticleDate:   article.Date,
			Content:       text,
			ContentTokens: c.counter.Count(text),
			Embedding:     []float32{},
		})
	}

	return c.merge(chunks)
}

// Split breaks content into chunk texts without the merge pass.
// Content within the budget is returned whole.
func (c *Chunker) Split(content string) []string {
	if c.counter.Count(content) <= c.cfg.MaxTokens {
		return []string{content}
	}

	var result []string
	var current strings.Builder

	for _, unit := range splitUnits(content) {
		unitTokens := c.counter.Count(unit)
		currentTokens := c.counter.Count(current.String())

		// A unit that alone exceeds the budget still goes into a fresh buffer.
		if currentTokens+unitTokens > c.cfg.MaxTokens && current.Len() > 0 {
			result = append(result, strings.TrimSpace(current.String()))
			current.Reset()
		}

		current.WriteString(unit)
	}

	if last := strings.TrimSpace(current.String()); last != "" {
		result = append(result, last)
	}

	return result
}

// splitUnits cuts content on the literal ". " delimiter and restores the
// separator on every unit but the last. A unit ending in a letter or digit is
// a sentence end and gets ". " back; anything else is treated as an
// abbreviation or number and gets a single space.
func splitUnits(content string) []string {
	parts := strings.Split(content, sentenceDelimiter)

	units := make([]string, len(parts))
	for i, part := range parts {
		if i == len(parts)-1 {
			units[i] = part
			continue
		}
		if endsAlphanumeric(part) {
			units[i] = part + sentenceDelimiter
		} else {
			units[i] = part + " "
		}
	}

	return units
}

func endsAlphanumeric(s string) bool {
	if s == "" {
		return false
	}
	r := []rune(s)
	last := r[len(r)-1]
	return last < unicode.MaxASCII && (unicode.IsLetter(last) || unicode.IsDigit(last))
}

// merge absorbs undersized chunks into their predecessor. A short first chunk
// absorbs its successor instead, so only the final chunk may stay below the
// threshold. Merged chunks may exceed the budget and are not re-split.
func (c *Chunker) merge(chunks []core.Chunk) []core.Chunk {
	if len(chunks) < 2 {
		return chunks
	}

	out := make([]core.Chunk, 0, len(chunks))
	for _, chunk := range chunks {
		if len(out) == 0 {
			out = append(out, chunk)
			continue
		}

		prev := &out[len(out)-1]
		if chunk.ContentTokens < c.cfg.MergeThreshold || prev.ContentTokens < c.cfg.MergeThreshold {
			prev.Content = prev.Content + " " + chunk.Content
			prev.ContentTokens = c.counter.Count(prev.Content)
			continue
		}

		out = append(out, chunk)
	}

	return out
}
