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

// Package archivist ties the embed stage together: a row store, an
// embedding provider and the ingestion pipeline that connects them.
package archivist

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/archivist/ai"
	"github.com/poiesic/archivist/ai/openai"
	"github.com/poiesic/archivist/ingestion"
	"github.com/poiesic/archivist/snapshot"
	"github.com/poiesic/archivist/storage"
	"github.com/poiesic/archivist/storage/badger"
	"github.com/poiesic/archivist/storage/sqlite"
)

// Store schemes accepted by OpenStore.
const (
	SchemeBadger = "badger"
	SchemeSQLite = "sqlite"
)

// OpenStore opens a row store from a DSN of the form scheme://path,
// e.g. badger:///var/lib/archivist or sqlite://data/kb.db.
func OpenStore(dsn string) (storage.RowRepository, error) {
	scheme, path, ok := strings.Cut(dsn, "://")
	if !ok || path == "" {
		return nil, fmt.Errorf("%w: %q", storage.ErrUnsupportedStore, dsn)
	}

	switch scheme {
	case SchemeBadger:
		return badger.Open(path)
	case SchemeSQLite:
		return sqlite.Open(path)
	default:
		return nil, fmt.Errorf("%w: scheme %q", storage.ErrUnsupportedStore, scheme)
	}
}

// Archive owns a row store and an embedding provider for the duration of a run.
type Archive struct {
	rows     storage.RowRepository
	provider ai.Provider
	logger   *slog.Logger
}

// ArchiveOption configures an Archive.
type ArchiveOption func(*archiveOptions)

type archiveOptions struct {
	aiConfig *ai.Config
	provider ai.Provider
	logger   *slog.Logger
}

// WithAIConfig sets the embedding service configuration.
// Default is ai.DefaultConfig().
func WithAIConfig(config *ai.Config) ArchiveOption {
	return func(o *archiveOptions) {
		o.aiConfig = config
	}
}

// WithProvider uses an existing provider instead of building an OpenAI one.
// The archive takes ownership and closes it on Close.
func WithProvider(provider ai.Provider) ArchiveOption {
	return func(o *archiveOptions) {
		o.provider = provider
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) ArchiveOption {
	return func(o *archiveOptions) {
		o.logger = logger
	}
}

// NewArchive opens the store named by storeDSN and creates the embedding provider.
func NewArchive(storeDSN string, opts ...ArchiveOption) (*Archive, error) {
	options := &archiveOptions{
		aiConfig: ai.DefaultConfig(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}

	rows, err := OpenStore(storeDSN)
	if err != nil {
		if options.provider != nil {
			options.provider.Close()
		}
		return nil, err
	}

	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			rows.Close()
			return nil, err
		}
	}

	return &Archive{
		rows:     rows,
		provider: provider,
		logger:   options.logger,
	}, nil
}

// Close releases the provider and the store.
func (a *Archive) Close() error {
	if err := a.provider.Close(); err != nil {
		a.logger.Error("error closing AI provider", "err", err)
	}

	if err := a.rows.Close(); err != nil {
		a.logger.Error("error closing row store", "err", err)
		return err
	}
	return nil
}

// Rows returns the archive's row store.
func (a *Archive) Rows() storage.RowRepository {
	return a.rows
}

// Embedder returns the archive's embedder.
func (a *Archive) Embedder() ai.Embedder {
	return a.provider.Embedder()
}

// NewPipeline creates an embed pipeline writing to this archive.
func (a *Archive) NewPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	opts = append([]ingestion.Option{ingestion.WithLogger(a.logger)}, opts...)
	return ingestion.NewPipeline(a.rows, a.provider.Embedder(), opts...)
}

// EmbedSnapshot reads the snapshot at path and embeds every chunk into the archive.
// A malformed snapshot aborts before any request is made.
func (a *Archive) EmbedSnapshot(ctx context.Context, path string, opts ...ingestion.Option) (*ingestion.Report, error) {
	corpus, err := snapshot.Read(path)
	if err != nil {
		return nil, err
	}

	pipeline, err := a.NewPipeline(opts...)
	if err != nil {
		return nil, err
	}
	return pipeline.EmbedAndPersist(ctx, corpus)
}
