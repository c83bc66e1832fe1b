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

package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/archivist/chunker"
	"github.com/poiesic/archivist/core"
	"github.com/poiesic/archivist/tokenizer"
)

// DefaultConcurrency is the number of article pages fetched at once.
const DefaultConcurrency = 4

// Crawler walks an archive and produces chunked articles.
type Crawler struct {
	fetcher     Fetcher
	chunker     *chunker.Chunker
	counter     tokenizer.Counter
	selectors   Selectors
	compiled    *compiledSelectors
	concurrency int
	pool        *ants.Pool
	logger      *slog.Logger
}

// Option configures a Crawler.
type Option func(*Crawler) error

// WithSelectors sets the site profile. Default is DefaultSelectors().
func WithSelectors(sel Selectors) Option {
	return func(c *Crawler) error {
		c.selectors = sel
		return nil
	}
}

// WithConcurrency sets how many article pages are fetched at once.
// Default is DefaultConcurrency, with a minimum of 1.
func WithConcurrency(n int) Option {
	return func(c *Crawler) error {
		if n < 1 {
			n = 1
		}
		c.concurrency = n
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Crawler) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
		return nil
	}
}

// New creates a Crawler. Call Release when done to stop its worker pool.
func New(fetcher Fetcher, ch *chunker.Chunker, counter tokenizer.Counter, opts ...Option) (*Crawler, error) {
	if fetcher == nil {
		return nil, ErrFetcherRequired
	}
	if ch == nil {
		return nil, ErrChunkerRequired
	}
	if counter == nil {
		return nil, ErrCounterRequired
	}

	c := &Crawler{
		fetcher:     fetcher,
		chunker:     ch,
		counter:     counter,
		selectors:   DefaultSelectors(),
		concurrency: DefaultConcurrency,
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	compiled, err := c.selectors.compile()
	if err != nil {
		return nil, err
	}
	c.compiled = compiled

	pool, err := ants.NewPool(c.concurrency)
	if err != nil {
		return nil, fmt.Errorf("create fetch pool: %w", err)
	}
	c.pool = pool
	c.logger = c.logger.With("component", "crawler")

	return c, nil
}

// Release stops the crawler's worker pool.
func (c *Crawler) Release() {
	if c.pool != nil {
		c.pool.Release()
	}
}

// CrawlArchive walks the archive starting at startURL and returns its
// articles in listing order, each with its token count and chunks set.
//
// Index pages are followed through their next-page links until a page has
// none. A next-page link that points at an already visited page ends the
// walk. Failing to retrieve any index page returns core.ErrFetch; article
// pages that fail are logged and skipped.
func (c *Crawler) CrawlArchive(ctx context.Context, startURL string) ([]core.Article, error) {
	if startURL == "" {
		return nil, fmt.Errorf("%w: start url", core.ErrEmptyURL)
	}

	articles := []core.Article{}
	visited := make(map[string]struct{})

	for pageURL := startURL; pageURL != ""; {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if _, seen := visited[pageURL]; seen {
			c.logger.Warn("pagination cycle detected, stopping", "url", pageURL)
			break
		}
		visited[pageURL] = struct{}{}

		page, err := c.fetchIndex(ctx, pageURL)
		if err != nil {
			return nil, err
		}

		c.logger.Info("index page parsed", "url", pageURL, "links", len(page.links), "page", len(visited))

		articles = append(articles, c.collectArticles(ctx, page.links)...)
		pageURL = page.next
	}

	c.logger.Info("crawl complete", "pages", len(visited), "articles", len(articles))
	return articles, nil
}

func (c *Crawler) fetchIndex(ctx context.Context, pageURL string) (indexPage, error) {
	body, err := c.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		if !errors.Is(err, core.ErrFetch) {
			err = fetchError(pageURL, err)
		}
		return indexPage{}, fmt.Errorf("index page: %w", err)
	}

	doc, err := parseHTML(pageURL, body)
	if err != nil {
		return indexPage{}, fmt.Errorf("index page: %w", err)
	}

	return parseIndex(c.compiled, pageURL, doc), nil
}

// collectArticles fetches every linked article on the pool. Results keep the
// order of links; failed articles are dropped.
func (c *Crawler) collectArticles(ctx context.Context, links []link) []core.Article {
	results := make([]*core.Article, len(links))

	var wg sync.WaitGroup
	for i, l := range links {
		wg.Add(1)
		err := c.pool.Submit(func() {
			defer wg.Done()
			article, err := c.fetchArticle(ctx, l)
			if err != nil {
				c.logger.Error("skipping article", "url", l.url, "index", i, "err", err)
				return
			}
			results[i] = article
		})
		if err != nil {
			wg.Done()
			c.logger.Error("skipping article", "url", l.url, "index", i, "err", err)
		}
	}
	wg.Wait()

	articles := make([]core.Article, 0, len(links))
	for _, a := range results {
		if a != nil {
			articles = append(articles, *a)
		}
	}
	return articles
}

// fetchArticle retrieves and extracts one article. Missing date or content
// regions yield empty strings.
func (c *Crawler) fetchArticle(ctx context.Context, l link) (*core.Article, error) {
	body, err := c.fetcher.Fetch(ctx, l.url)
	if err != nil {
		return nil, err
	}

	doc, err := parseHTML(l.url, body)
	if err != nil {
		return nil, err
	}

	date, err := extractDate(c.compiled, doc)
	if err != nil {
		c.logger.Debug("article date unavailable", "url", l.url, "err", err)
	}

	content, err := extractContent(c.compiled, doc)
	if err != nil {
		c.logger.Warn("article content unavailable", "url", l.url, "err", err)
	}

	article := &core.Article{
		Title:   l.title,
		URL:     l.url,
		Date:    date,
		Content: content,
		Tokens:  c.counter.Count(content),
	}
	article.Chunks = c.chunker.Chunk(article)

	c.logger.Debug("article extracted", "url", l.url, "tokens", article.Tokens, "chunks", len(article.Chunks))
	return article, nil
}
