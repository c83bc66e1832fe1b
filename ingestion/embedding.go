package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/poiesic/archivist/ai"
	"github.com/poiesic/archivist/core"
	"github.com/poiesic/archivist/storage"
)

// job is one queued chunk with its position in the corpus.
type job struct {
	articleIndex int
	chunkIndex   int
	chunk        *core.Chunk
}

// enqueue lists every chunk of every article in reading order.
func enqueue(corpus *core.Corpus) []job {
	queue := make([]job, 0, corpus.ChunkCount())
	for a := range corpus.Articles {
		article := &corpus.Articles[a]
		for ci := range article.Chunks {
			queue = append(queue, job{
				articleIndex: a,
				chunkIndex:   ci,
				chunk:        &article.Chunks[ci],
			})
		}
	}
	return queue
}

// embeddingProcessor embeds one chunk and writes it as a row.
type embeddingProcessor struct {
	writer   storage.RowWriter
	embedder ai.Embedder
	logger   *slog.Logger
}

// newEmbeddingProcessor creates a new embedding processor.
func newEmbeddingProcessor(writer storage.RowWriter, embedder ai.Embedder, logger *slog.Logger) (*embeddingProcessor, error) {
	if writer == nil {
		return nil, ErrRowWriterRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &embeddingProcessor{
		writer:   writer,
		embedder: embedder,
		logger:   logger.With("processor", "embeddings"),
	}, nil
}

// process embeds and stores a single chunk. The chunk itself is not modified.
// Returned errors wrap core.ErrInvalidChunk, core.ErrEmbeddingRequest or
// core.ErrStoreWrite, or are the context's error.
func (ep *embeddingProcessor) process(ctx context.Context, j job) error {
	if err := core.ValidateChunk(j.chunk); err != nil {
		return err
	}

	ep.logger.Debug("requesting embedding", "article", j.articleIndex, "chunk", j.chunkIndex, "tokens", j.chunk.ContentTokens)
	vector, err := ep.embedder.EmbedText(ctx, j.chunk.Content)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if !errors.Is(err, core.ErrEmbeddingRequest) {
			err = fmt.Errorf("%w: %v", core.ErrEmbeddingRequest, err)
		}
		return err
	}
	if len(vector) == 0 {
		return fmt.Errorf("%w: empty vector", core.ErrEmbeddingRequest)
	}

	row := core.NewRow(j.chunk, vector)
	if _, err := ep.writer.AddRows(ctx, row); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if !errors.Is(err, core.ErrStoreWrite) {
			err = fmt.Errorf("%w: %v", core.ErrStoreWrite, err)
		}
		return err
	}

	return nil
}
