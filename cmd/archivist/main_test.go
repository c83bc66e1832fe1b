package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/poiesic/archivist"
	"github.com/poiesic/archivist/core"
	"github.com/poiesic/archivist/snapshot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// archiveServer serves two index pages with three articles in the default
// site layout.
func archiveServer(t *testing.T) *httptest.Server {
	t.Helper()
	pages := map[string][]string{
		"/blog":        {"first", "second"},
		"/blog/page/2": {"third"},
	}
	next := map[string]string{"/blog": "/blog/page/2"}

	r := chi.NewRouter()
	index := func(w http.ResponseWriter, r *http.Request) {
		var b strings.Builder
		b.WriteString(`<html><body><div id="main">`)
		for _, slug := range pages[r.URL.Path] {
			fmt.Fprintf(&b, `<article><h2 class="entry-title"><a href="/posts/%s">Post %s</a></h2></article>`, slug, slug)
		}
		b.WriteString(`<nav class="pagination"><div class="nav-links">`)
		if n, ok := next[r.URL.Path]; ok {
			fmt.Fprintf(&b, `<a class="next" href="%s">Older</a>`, n)
		}
		b.WriteString(`</div></nav></div></body></html>`)
		_, _ = w.Write([]byte(b.String()))
	}
	r.Get("/blog", index)
	r.Get("/blog/page/{n}", index)
	r.Get("/posts/{slug}", func(w http.ResponseWriter, r *http.Request) {
		slug := chi.URLParam(r, "slug")
		fmt.Fprintf(w, `<html><body><h1>Post %s</h1>
<time class="entry-date" datetime="2021-03-04T10:00:00+00:00">March 4</time>
<div class="entry-content"><p>The %s post talks about archives.</p><p>It has two paragraphs.</p></div>
</body></html>`, slug, slug)
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

// embeddingServer answers OpenAI-style embedding requests with a fixed vector.
func embeddingServer(t *testing.T) (*httptest.Server, *atomic.Int64) {
	t.Helper()
	var calls atomic.Int64

	r := chi.NewRouter()
	r.Post("/v1/embeddings", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		var req struct {
			Input []string `json:"input"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)

		data := make([]map[string]any, len(req.Input))
		for i := range req.Input {
			data[i] = map[string]any{"object": "embedding", "index": i, "embedding": []float32{0.25, 0.5, 0.75}}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"data":   data,
			"model":  "test-model",
			"usage":  map[string]int{"prompt_tokens": 1, "total_tokens": 1},
		})
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, &calls
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	defer slog.SetDefault(slog.Default())

	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &out
	err := app.RunContext(context.Background(), append([]string{"archivist"}, args...))
	return out.String(), err
}

func TestSetupLogger_InvalidLevel(t *testing.T) {
	_, err := run(t, "--log-level", "loud", "inspect", "--snapshot", "missing.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestCrawlCommand_RequiresStartURL(t *testing.T) {
	_, err := run(t, "crawl", "--out", filepath.Join(t.TempDir(), "data.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "start-url")
}

func TestCrawlCommand_FlagValidation(t *testing.T) {
	out := filepath.Join(t.TempDir(), "data.json")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"zero budget", []string{"--max-chunk-tokens", "0"}, "max-chunk-tokens"},
		{"negative merge threshold", []string{"--merge-threshold", "-1"}, "merge-threshold"},
		{"zero concurrency", []string{"--concurrency", "0"}, "concurrency"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"crawl", "--start-url", "http://127.0.0.1:1/blog", "--out", out}, tt.args...)
			_, err := run(t, args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestCrawlCommand_UnreachableArchive(t *testing.T) {
	out := filepath.Join(t.TempDir(), "data.json")
	_, err := run(t, "crawl", "--start-url", "http://127.0.0.1:1/blog", "--out", out, "--rate", "0")
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrFetch)

	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr), "no snapshot is written when the crawl fails")
}

func TestCrawlInspectEmbed(t *testing.T) {
	archiveSrv := archiveServer(t)
	embedSrv, calls := embeddingServer(t)
	dir := t.TempDir()
	snap := filepath.Join(dir, "storage", "data.json")

	out, err := run(t, "crawl", "--start-url", archiveSrv.URL+"/blog", "--out", snap, "--rate", "0")
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote 3 articles")

	corpus, err := snapshot.Read(snap)
	require.NoError(t, err)
	require.Len(t, corpus.Articles, 3)
	assert.Equal(t, archiveSrv.URL+"/posts/first", corpus.Articles[0].URL)
	assert.Equal(t, archiveSrv.URL+"/posts/third", corpus.Articles[2].URL)
	assert.Equal(t, "2021-03-04T10:00:00+00:00", corpus.Articles[1].Date)
	assert.Equal(t, "The second post talks about archives. It has two paragraphs.", corpus.Articles[1].Content)

	out, err = run(t, "inspect", "--snapshot", snap)
	require.NoError(t, err)
	assert.Contains(t, out, "Articles:          3")
	assert.Contains(t, out, "Chunks:            3")

	store := "badger://" + filepath.Join(dir, "rows")
	out, err = run(t, "embed",
		"--snapshot", snap,
		"--store", store,
		"--embedding-host", embedSrv.URL,
		"--embedding-model", "test-model",
		"--api-key", "sk-test",
		"--interval", "0s",
		"--report-interval", "0",
	)
	require.NoError(t, err)
	assert.Contains(t, out, "Saved 3 of 3 chunks (0 failed)")
	assert.Equal(t, int64(3), calls.Load())

	rows, err := archivist.OpenStore(store)
	require.NoError(t, err)
	defer rows.Close()

	count, err := rows.CountRows(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	stored, err := rows.RowsByArticle(context.Background(), archiveSrv.URL+"/posts/third")
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, []float32{0.25, 0.5, 0.75}, stored[0].Embedding)
	assert.Equal(t, "Post third", stored[0].ArticleTitle)
}

func TestEmbedCommand_MalformedSnapshot(t *testing.T) {
	embedSrv, calls := embeddingServer(t)
	dir := t.TempDir()
	snap := filepath.Join(dir, "data.json")
	require.NoError(t, os.WriteFile(snap, []byte(`not json`), 0644))

	_, err := run(t, "embed",
		"--snapshot", snap,
		"--store", "sqlite://"+filepath.Join(dir, "kb.db"),
		"--embedding-host", embedSrv.URL,
		"--interval", "0s",
	)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrSnapshotFormat)
	assert.Equal(t, int64(0), calls.Load())
}

func TestEmbedCommand_UnsupportedStore(t *testing.T) {
	_, err := run(t, "embed", "--snapshot", "data.json", "--store", "mongo://localhost")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported store")
}

func TestEmbedCommand_NegativeInterval(t *testing.T) {
	_, err := run(t, "embed", "--store", "badger:///tmp/x", "--interval", "-1s")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "interval")
}

func TestInspectCommand_TokenMismatch(t *testing.T) {
	snap := filepath.Join(t.TempDir(), "data.json")
	corpus := core.NewCorpus([]core.Article{{
		Title:   "Mismatch",
		URL:     "https://example.com/posts/mismatch",
		Content: "hello world",
		Tokens:  99,
		Chunks: []core.Chunk{{
			ArticleTitle:  "Mismatch",
			ArticleURL:    "https://example.com/posts/mismatch",
			Content:       "hello world",
			ContentTokens: 99,
		}},
	}})
	require.NoError(t, snapshot.Write(snap, corpus))

	out, err := run(t, "inspect", "--snapshot", snap)
	assert.ErrorIs(t, err, errTokenMismatch)
	assert.Contains(t, out, "Over budget (200):  0")
	assert.Contains(t, out, "Undated articles:  1")
}

func TestInspectCommand_InvalidCorpus(t *testing.T) {
	snap := filepath.Join(t.TempDir(), "data.json")
	require.NoError(t, os.WriteFile(snap, []byte(`{"tokens": 5, "articles": []}`), 0644))

	_, err := run(t, "inspect", "--snapshot", snap)
	assert.ErrorIs(t, err, core.ErrInvalidCorpus)
}
