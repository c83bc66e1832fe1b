package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/poiesic/archivist"
	"github.com/poiesic/archivist/ai"
	"github.com/poiesic/archivist/ingestion"
	"github.com/urfave/cli/v2"
)

func embedCommand() *cli.Command {
	return &cli.Command{
		Name:   "embed",
		Usage:  "Embed every chunk of a snapshot and write the rows to a store",
		Action: embedAction,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "snapshot",
				Aliases: []string{"s"},
				Usage:   "Snapshot file written by crawl",
				Value:   "storage/data.json",
				EnvVars: []string{"ARCHIVIST_SNAPSHOT"},
			},
			&cli.StringFlag{
				Name:     "store",
				Usage:    "Row store DSN (badger:///path or sqlite:///path)",
				Required: true,
				EnvVars:  []string{"ARCHIVIST_STORE"},
			},
			&cli.StringFlag{
				Name:    "embedding-host",
				Usage:   "Embedding service host URL",
				Value:   ai.DefaultEmbeddingHost,
				EnvVars: []string{"ARCHIVIST_EMBEDDING_HOST"},
			},
			&cli.StringFlag{
				Name:    "embedding-model",
				Usage:   "Embedding model name",
				Value:   ai.DefaultEmbeddingModel,
				EnvVars: []string{"ARCHIVIST_EMBEDDING_MODEL"},
			},
			&cli.StringFlag{
				Name:    "api-key",
				Usage:   "Embedding service API key",
				EnvVars: []string{"OPENAI_API_KEY", "ARCHIVIST_API_KEY"},
			},
			&cli.DurationFlag{
				Name:    "interval",
				Usage:   "Delay between consecutive embedding requests",
				Value:   ingestion.DefaultInterval,
				EnvVars: []string{"ARCHIVIST_INTERVAL"},
			},
			&cli.IntFlag{
				Name:  "report-interval",
				Usage: "Report progress every N chunks (0 disables)",
				Value: 10,
			},
		},
	}
}

func embedAction(c *cli.Context) error {
	if c.Duration("interval") < 0 {
		return fmt.Errorf("interval must not be negative")
	}

	aiConfig := ai.NewConfig(
		ai.WithEmbeddingHost(c.String("embedding-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithAPIKey(c.String("api-key")),
	)
	if err := aiConfig.Validate(); err != nil {
		return fmt.Errorf("invalid AI configuration: %w", err)
	}

	archive, err := archivist.NewArchive(c.String("store"), archivist.WithAIConfig(aiConfig))
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer archive.Close()

	opts := []ingestion.Option{ingestion.WithInterval(c.Duration("interval"))}
	if n := c.Int("report-interval"); n > 0 {
		opts = append(opts, ingestion.WithProgress(os.Stderr, n))
	}

	fmt.Fprintf(os.Stderr, "Snapshot: %s\n", c.String("snapshot"))
	fmt.Fprintf(os.Stderr, "Store: %s\n", c.String("store"))
	fmt.Fprintf(os.Stderr, "Embedding host: %s\n", aiConfig.EmbeddingHost)
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n", aiConfig.EmbeddingModel)
	fmt.Fprintln(os.Stderr)

	report, err := archive.EmbedSnapshot(c.Context, c.String("snapshot"), opts...)
	if report != nil {
		printReport(c, report)
	}
	if err != nil {
		return fmt.Errorf("embedding failed: %w", err)
	}
	if !report.Complete() {
		slog.Warn("some chunks were not stored; re-run embed to retry", "failed", len(report.Failures))
	}
	return nil
}

func printReport(c *cli.Context, report *ingestion.Report) {
	fmt.Fprintf(c.App.Writer, "Saved %d of %d chunks (%d failed)\n",
		report.Saved, report.Total, len(report.Failures))
	for _, f := range report.Failures {
		fmt.Fprintf(c.App.Writer, "  %v\n", f)
	}
}
