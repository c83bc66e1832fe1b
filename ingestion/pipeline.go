// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ingestion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/poiesic/archivist/ai"
	"github.com/poiesic/archivist/core"
	"github.com/poiesic/archivist/storage"
)

// DefaultInterval is the minimum delay between consecutive embedding requests.
const DefaultInterval = 300 * time.Millisecond

// Pipeline embeds a corpus chunk by chunk and persists the results.
type Pipeline struct {
	processor      *embeddingProcessor
	interval       time.Duration
	progressWriter io.Writer
	progressEvery  int
	logger         *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithInterval sets the delay between consecutive embedding requests.
// Default is DefaultInterval. Negative values are treated as zero.
func WithInterval(d time.Duration) Option {
	return func(p *Pipeline) error {
		if d < 0 {
			d = 0
		}
		p.interval = d
		return nil
	}
}

// WithProgress writes a progress line to w every n processed chunks.
// Default is no progress output.
func WithProgress(w io.Writer, n int) Option {
	return func(p *Pipeline) error {
		if n < 1 {
			n = 1
		}
		p.progressWriter = w
		p.progressEvery = n
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new embed pipeline writing to writer.
func NewPipeline(writer storage.RowWriter, embedder ai.Embedder, opts ...Option) (*Pipeline, error) {
	if writer == nil {
		return nil, ErrRowWriterRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	p := &Pipeline{
		interval: DefaultInterval,
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	p.logger = p.logger.With("component", "ingestion")

	// Create processor after options are applied so it gets the final logger
	proc, err := newEmbeddingProcessor(writer, embedder, p.logger)
	if err != nil {
		return nil, err
	}
	p.processor = proc

	return p, nil
}

// EmbedAndPersist embeds every chunk of every article in reading order and
// writes one row per embedded chunk.
//
// Chunks are processed strictly one at a time, with the configured interval
// between consecutive requests. A chunk that fails to embed or store is
// logged, recorded in the report and skipped; the run continues. The corpus
// is not modified.
//
// If ctx is cancelled the run stops before the next chunk and the partial
// report is returned together with the context's error.
func (p *Pipeline) EmbedAndPersist(ctx context.Context, corpus *core.Corpus) (*Report, error) {
	if corpus == nil {
		return nil, fmt.Errorf("%w: corpus is nil", core.ErrInvalidCorpus)
	}

	queue := enqueue(corpus)
	report := &Report{Total: len(queue)}

	var tracker *ProgressTracker
	if p.progressWriter != nil {
		tracker = NewProgressTracker(p.progressWriter, len(queue), p.progressEvery)
		tracker.Start()
	}

	p.logger.Info("embedding corpus", "articles", len(corpus.Articles), "chunks", len(queue), "interval", p.interval)

	for i, j := range queue {
		if i > 0 {
			if err := sleep(ctx, p.interval); err != nil {
				p.logger.Warn("embedding interrupted", "processed", report.Processed(), "total", report.Total)
				return report, err
			}
		}
		if err := ctx.Err(); err != nil {
			p.logger.Warn("embedding interrupted", "processed", report.Processed(), "total", report.Total)
			return report, err
		}

		err := p.processor.process(ctx, j)
		switch {
		case err == nil:
			report.Saved++
			p.logger.Info("saved", "article", j.articleIndex, "chunk", j.chunkIndex)
		case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
			p.logger.Warn("embedding interrupted", "processed", report.Processed(), "total", report.Total)
			return report, err
		default:
			report.Failures = append(report.Failures, Failure{
				ArticleIndex: j.articleIndex,
				ChunkIndex:   j.chunkIndex,
				ArticleURL:   j.chunk.ArticleURL,
				Err:          err,
			})
			p.logger.Error("chunk failed", "article", j.articleIndex, "chunk", j.chunkIndex, "url", j.chunk.ArticleURL, "err", err)
		}

		if tracker != nil {
			tracker.Increment(1)
		}
	}

	if tracker != nil {
		tracker.Finish()
	}

	p.logger.Info("embedding complete", "saved", report.Saved, "failed", len(report.Failures), "total", report.Total)
	return report, nil
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
