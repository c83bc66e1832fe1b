package archivist

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/poiesic/archivist/ai"
	"github.com/poiesic/archivist/ai/mock"
	"github.com/poiesic/archivist/core"
	"github.com/poiesic/archivist/ingestion"
	"github.com/poiesic/archivist/snapshot"
	"github.com/poiesic/archivist/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCorpus() *core.Corpus {
	article := core.Article{
		Title:   "First",
		URL:     "https://example.com/posts/first",
		Date:    "2022-01-02",
		Content: "one two",
		Tokens:  2,
		Chunks: []core.Chunk{
			{ArticleTitle: "First", ArticleURL: "https://example.com/posts/first", ArticleDate: "2022-01-02", Content: "one", ContentTokens: 1},
			{ArticleTitle: "First", ArticleURL: "https://example.com/posts/first", ArticleDate: "2022-01-02", Content: "two", ContentTokens: 1},
		},
	}
	return core.NewCorpus([]core.Article{article})
}

func TestOpenStore(t *testing.T) {
	dir := t.TempDir()

	t.Run("badger", func(t *testing.T) {
		rows, err := OpenStore("badger://" + filepath.Join(dir, "badger"))
		require.NoError(t, err)
		assert.NoError(t, rows.Close())
	})

	t.Run("sqlite", func(t *testing.T) {
		rows, err := OpenStore("sqlite://" + filepath.Join(dir, "kb.db"))
		require.NoError(t, err)
		assert.NoError(t, rows.Close())
	})

	tests := []string{
		"",
		"/just/a/path",
		"postgres://localhost/db",
		"badger://",
	}
	for _, dsn := range tests {
		t.Run("unsupported "+dsn, func(t *testing.T) {
			rows, err := OpenStore(dsn)
			assert.ErrorIs(t, err, storage.ErrUnsupportedStore)
			assert.Nil(t, rows)
		})
	}
}

func TestNewArchive(t *testing.T) {
	t.Run("default provider", func(t *testing.T) {
		archive, err := NewArchive("badger://" + filepath.Join(t.TempDir(), "db"))
		require.NoError(t, err)
		defer archive.Close()

		assert.NotNil(t, archive.Rows())
		assert.NotNil(t, archive.Embedder())
		assert.NotNil(t, archive.logger)
	})

	t.Run("invalid ai config closes store", func(t *testing.T) {
		cfg := ai.NewConfig()
		cfg.EmbeddingModel = ""
		archive, err := NewArchive("badger://"+filepath.Join(t.TempDir(), "db"), WithAIConfig(cfg))
		assert.Error(t, err)
		assert.Nil(t, archive)
	})

	t.Run("bad store closes provider", func(t *testing.T) {
		provider := mock.NewMockProvider()
		archive, err := NewArchive("nope://x", WithProvider(provider))
		assert.ErrorIs(t, err, storage.ErrUnsupportedStore)
		assert.Nil(t, archive)
		assert.True(t, provider.(*mock.MockProvider).Closed())
	})

	t.Run("store path is a file", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "not_a_dir")
		require.NoError(t, os.WriteFile(file, []byte("test"), 0644))

		archive, err := NewArchive("badger://"+file, WithProvider(mock.NewMockProvider()))
		assert.Error(t, err)
		assert.Nil(t, archive)
	})
}

func TestArchive_Close(t *testing.T) {
	provider := mock.NewMockProvider()
	archive, err := NewArchive("badger://"+t.TempDir(), WithProvider(provider))
	require.NoError(t, err)

	assert.NoError(t, archive.Close())
	assert.True(t, provider.(*mock.MockProvider).Closed())
}

func TestArchive_EmbedSnapshot(t *testing.T) {
	for _, scheme := range []string{SchemeBadger, SchemeSQLite} {
		t.Run(scheme, func(t *testing.T) {
			dir := t.TempDir()
			snap := filepath.Join(dir, "data.json")
			require.NoError(t, snapshot.Write(snap, testCorpus()))

			archive, err := NewArchive(scheme+"://"+filepath.Join(dir, "store"), WithProvider(mock.NewMockProvider()))
			require.NoError(t, err)
			defer archive.Close()

			ctx := context.Background()
			report, err := archive.EmbedSnapshot(ctx, snap, ingestion.WithInterval(0))
			require.NoError(t, err)
			assert.Equal(t, 2, report.Saved)
			assert.True(t, report.Complete())

			rows, err := archive.Rows().RowsByArticle(ctx, "https://example.com/posts/first")
			require.NoError(t, err)
			require.Len(t, rows, 2)
			assert.Equal(t, "one", rows[0].Content)
			assert.Equal(t, mock.Vector("two", mock.DefaultDimensions), rows[1].Embedding)
		})
	}
}

func TestArchive_EmbedSnapshot_Malformed(t *testing.T) {
	dir := t.TempDir()
	snap := filepath.Join(dir, "data.json")
	require.NoError(t, os.WriteFile(snap, []byte(`{"tokens": 3}`), 0644))

	provider := mock.NewMockProvider()
	archive, err := NewArchive("badger://"+filepath.Join(dir, "store"), WithProvider(provider))
	require.NoError(t, err)
	defer archive.Close()

	report, err := archive.EmbedSnapshot(context.Background(), snap)
	assert.ErrorIs(t, err, core.ErrSnapshotFormat)
	assert.Nil(t, report)
	assert.Equal(t, 0, provider.(*mock.MockProvider).GetMockEmbedder().CallCount())
}
