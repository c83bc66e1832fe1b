package main

import (
	"fmt"
	"log/slog"

	"github.com/poiesic/archivist/chunker"
	"github.com/poiesic/archivist/core"
	"github.com/poiesic/archivist/crawler"
	"github.com/poiesic/archivist/snapshot"
	"github.com/poiesic/archivist/tokenizer"
	"github.com/urfave/cli/v2"
)

func crawlCommand() *cli.Command {
	return &cli.Command{
		Name:   "crawl",
		Usage:  "Crawl the archive, chunk every article and write a corpus snapshot",
		Action: crawlAction,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "start-url",
				Aliases:  []string{"u"},
				Usage:    "First index page of the archive",
				Required: true,
				EnvVars:  []string{"ARCHIVIST_START_URL"},
			},
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   "Snapshot file to write",
				Value:   "storage/data.json",
				EnvVars: []string{"ARCHIVIST_SNAPSHOT"},
			},
			&cli.StringFlag{
				Name:    "profile",
				Usage:   "YAML site profile with CSS selectors",
				EnvVars: []string{"ARCHIVIST_PROFILE"},
			},
			encodingFlag(),
			&cli.IntFlag{
				Name:    "max-chunk-tokens",
				Usage:   "Token budget per chunk",
				Value:   chunker.DefaultMaxTokens,
				EnvVars: []string{"ARCHIVIST_MAX_CHUNK_TOKENS"},
			},
			&cli.IntFlag{
				Name:    "merge-threshold",
				Usage:   "Chunks below this many tokens are merged into their predecessor",
				Value:   chunker.DefaultMergeThreshold,
				EnvVars: []string{"ARCHIVIST_MERGE_THRESHOLD"},
			},
			&cli.IntFlag{
				Name:    "concurrency",
				Usage:   "Article pages fetched in parallel per index page",
				Value:   crawler.DefaultConcurrency,
				EnvVars: []string{"ARCHIVIST_CONCURRENCY"},
			},
			&cli.Float64Flag{
				Name:    "rate",
				Usage:   "Page requests per second (0 for unlimited)",
				Value:   crawler.DefaultRequestsPerSecond,
				EnvVars: []string{"ARCHIVIST_RATE"},
			},
		},
	}
}

func encodingFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "encoding",
		Usage:   "Tokenizer BPE encoding",
		Value:   tokenizer.DefaultEncoding,
		EnvVars: []string{"ARCHIVIST_ENCODING"},
	}
}

func crawlAction(c *cli.Context) error {
	if c.Int("max-chunk-tokens") <= 0 {
		return fmt.Errorf("max-chunk-tokens must be greater than 0")
	}
	if c.Int("merge-threshold") < 0 {
		return fmt.Errorf("merge-threshold must not be negative")
	}
	if c.Int("concurrency") <= 0 {
		return fmt.Errorf("concurrency must be greater than 0")
	}

	selectors := crawler.DefaultSelectors()
	if path := c.String("profile"); path != "" {
		var err error
		selectors, err = crawler.LoadProfile(path)
		if err != nil {
			return fmt.Errorf("failed to load site profile: %w", err)
		}
	}

	counter, err := tokenizer.New(c.String("encoding"))
	if err != nil {
		return fmt.Errorf("failed to create tokenizer: %w", err)
	}

	ch := chunker.New(counter, chunker.Config{
		MaxTokens:      c.Int("max-chunk-tokens"),
		MergeThreshold: c.Int("merge-threshold"),
	})

	burst := int(c.Float64("rate"))
	if burst < 1 {
		burst = 1
	}
	fetcher := crawler.NewHTTPFetcher(crawler.WithRateLimit(c.Float64("rate"), burst))

	cr, err := crawler.New(fetcher, ch, counter,
		crawler.WithSelectors(selectors),
		crawler.WithConcurrency(c.Int("concurrency")),
	)
	if err != nil {
		return fmt.Errorf("failed to create crawler: %w", err)
	}
	defer cr.Release()

	articles, err := cr.CrawlArchive(c.Context, c.String("start-url"))
	if err != nil {
		return fmt.Errorf("crawl failed: %w", err)
	}

	corpus := core.NewCorpus(articles)
	out := c.String("out")
	if err := snapshot.Write(out, corpus); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}

	slog.Info("snapshot written", "path", out, "articles", len(corpus.Articles), "chunks", corpus.ChunkCount(), "tokens", corpus.TotalTokens)
	fmt.Fprintf(c.App.Writer, "Wrote %d articles (%d chunks, %d tokens) to %s\n",
		len(corpus.Articles), corpus.ChunkCount(), corpus.TotalTokens, out)
	return nil
}
