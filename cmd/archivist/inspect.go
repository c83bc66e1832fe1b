package main

import (
	"errors"
	"fmt"

	"github.com/poiesic/archivist/chunker"
	"github.com/poiesic/archivist/core"
	"github.com/poiesic/archivist/snapshot"
	"github.com/poiesic/archivist/tokenizer"
	"github.com/urfave/cli/v2"
)

var errTokenMismatch = errors.New("token counts do not match the tokenizer")

func inspectCommand() *cli.Command {
	return &cli.Command{
		Name:   "inspect",
		Usage:  "Summarize a snapshot and re-verify its token counts",
		Action: inspectAction,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "snapshot",
				Aliases: []string{"s"},
				Usage:   "Snapshot file written by crawl",
				Value:   "storage/data.json",
				EnvVars: []string{"ARCHIVIST_SNAPSHOT"},
			},
			encodingFlag(),
			&cli.IntFlag{
				Name:    "max-chunk-tokens",
				Usage:   "Token budget the snapshot was chunked with",
				Value:   chunker.DefaultMaxTokens,
				EnvVars: []string{"ARCHIVIST_MAX_CHUNK_TOKENS"},
			},
		},
	}
}

// stats summarizes a corpus for inspect.
type stats struct {
	articles      int
	chunks        int
	totalTokens   int
	maxChunk      int
	overBudget    int
	mismatches    int
	undated       int
	emptyArticles int
}

func collectStats(corpus *core.Corpus, counter tokenizer.Counter, budget int) stats {
	s := stats{
		articles:    len(corpus.Articles),
		totalTokens: corpus.TotalTokens,
	}
	for i := range corpus.Articles {
		a := &corpus.Articles[i]
		if a.Date == "" {
			s.undated++
		}
		if a.Content == "" {
			s.emptyArticles++
		}
		if counter.Count(a.Content) != a.Tokens {
			s.mismatches++
		}
		for j := range a.Chunks {
			ch := &a.Chunks[j]
			s.chunks++
			if ch.ContentTokens > s.maxChunk {
				s.maxChunk = ch.ContentTokens
			}
			if ch.ContentTokens > budget {
				s.overBudget++
			}
			if counter.Count(ch.Content) != ch.ContentTokens {
				s.mismatches++
			}
		}
	}
	return s
}

func inspectAction(c *cli.Context) error {
	corpus, err := snapshot.Read(c.String("snapshot"))
	if err != nil {
		return fmt.Errorf("failed to read snapshot: %w", err)
	}
	if err := core.ValidateCorpus(corpus); err != nil {
		return err
	}

	counter, err := tokenizer.New(c.String("encoding"))
	if err != nil {
		return fmt.Errorf("failed to create tokenizer: %w", err)
	}

	s := collectStats(corpus, counter, c.Int("max-chunk-tokens"))

	w := c.App.Writer
	fmt.Fprintf(w, "Articles:          %d\n", s.articles)
	fmt.Fprintf(w, "Undated articles:  %d\n", s.undated)
	fmt.Fprintf(w, "Empty articles:    %d\n", s.emptyArticles)
	fmt.Fprintf(w, "Chunks:            %d\n", s.chunks)
	fmt.Fprintf(w, "Total tokens:      %d\n", s.totalTokens)
	fmt.Fprintf(w, "Largest chunk:     %d\n", s.maxChunk)
	fmt.Fprintf(w, "Over budget (%d):  %d\n", c.Int("max-chunk-tokens"), s.overBudget)

	if s.mismatches > 0 {
		return fmt.Errorf("%w: %d mismatches", errTokenMismatch, s.mismatches)
	}
	return nil
}
