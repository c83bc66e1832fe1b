package snapshot

import (
	"fmt"

	"github.com/poiesic/archivist/core"
)

// Wire types use pointers so a missing field can be told apart from a zero value.

type wireCorpus struct {
	Tokens   *int           `json:"tokens"`
	Articles *[]wireArticle `json:"articles"`
}

type wireArticle struct {
	Title   *string      `json:"title"`
	URL     *string      `json:"url"`
	Date    *string      `json:"date"`
	Content *string      `json:"content"`
	Tokens  *int         `json:"tokens"`
	Chunks  *[]wireChunk `json:"chunks"`
}

type wireChunk struct {
	ArticleTitle  *string    `json:"article_title"`
	ArticleURL    *string    `json:"article_url"`
	ArticleDate   *string    `json:"article_date"`
	Content       *string    `json:"content"`
	ContentTokens *int       `json:"content_tokens"`
	Embedding     *[]float32 `json:"embedding"`
}

func toWire(c *core.Corpus) wireCorpus {
	articles := make([]wireArticle, len(c.Articles))
	for i := range c.Articles {
		a := &c.Articles[i]
		chunks := make([]wireChunk, len(a.Chunks))
		for j := range a.Chunks {
			ch := &a.Chunks[j]
			embedding := ch.Embedding
			if embedding == nil {
				embedding = []float32{}
			}
			chunks[j] = wireChunk{
				ArticleTitle:  &ch.ArticleTitle,
				ArticleURL:    &ch.ArticleURL,
				ArticleDate:   &ch.ArticleDate,
				Content:       &ch.Content,
				ContentTokens: &ch.ContentTokens,
				Embedding:     &embedding,
			}
		}
		articles[i] = wireArticle{
			Title:   &a.Title,
			URL:     &a.URL,
			Date:    &a.Date,
			Content: &a.Content,
			Tokens:  &a.Tokens,
			Chunks:  &chunks,
		}
	}

	return wireCorpus{
		Tokens:   &c.TotalTokens,
		Articles: &articles,
	}
}

func (w *wireCorpus) toCorpus() (*core.Corpus, error) {
	if w.Tokens == nil {
		return nil, missing("tokens")
	}
	if w.Articles == nil {
		return nil, missing("articles")
	}

	corpus := &core.Corpus{
		TotalTokens: *w.Tokens,
		Articles:    make([]core.Article, len(*w.Articles)),
	}
	for i := range *w.Articles {
		article, err := (*w.Articles)[i].toArticle()
		if err != nil {
			return nil, fmt.Errorf("article %d: %w", i, err)
		}
		corpus.Articles[i] = article
	}
	return corpus, nil
}

func (w *wireArticle) toArticle() (core.Article, error) {
	switch {
	case w.Title == nil:
		return core.Article{}, missing("title")
	case w.URL == nil:
		return core.Article{}, missing("url")
	case w.Date == nil:
		return core.Article{}, missing("date")
	case w.Content == nil:
		return core.Article{}, missing("content")
	case w.Tokens == nil:
		return core.Article{}, missing("tokens")
	case w.Chunks == nil:
		return core.Article{}, missing("chunks")
	}

	article := core.Article{
		Title:   *w.Title,
		URL:     *w.URL,
		Date:    *w.Date,
		Content: *w.Content,
		Tokens:  *w.Tokens,
		Chunks:  make([]core.Chunk, len(*w.Chunks)),
	}
	for j := range *w.Chunks {
		chunk, err := (*w.Chunks)[j].toChunk()
		if err != nil {
			return core.Article{}, fmt.Errorf("chunk %d: %w", j, err)
		}
		article.Chunks[j] = chunk
	}
	return article, nil
}

func (w *wireChunk) toChunk() (core.Chunk, error) {
	switch {
	case w.ArticleTitle == nil:
		return core.Chunk{}, missing("article_title")
	case w.ArticleURL == nil:
		return core.Chunk{}, missing("article_url")
	case w.ArticleDate == nil:
		return core.Chunk{}, missing("article_date")
	case w.Content == nil:
		return core.Chunk{}, missing("content")
	case w.ContentTokens == nil:
		return core.Chunk{}, missing("content_tokens")
	case w.Embedding == nil:
		return core.Chunk{}, missing("embedding")
	}

	embedding := *w.Embedding
	if embedding == nil {
		embedding = []float32{}
	}
	return core.Chunk{
		ArticleTitle:  *w.ArticleTitle,
		ArticleURL:    *w.ArticleURL,
		ArticleDate:   *w.ArticleDate,
		Content:       *w.Content,
		ContentTokens: *w.ContentTokens,
		Embedding:     embedding,
	}, nil
}

func missing(field string) error {
	return fmt.Errorf("%w: missing field %q", core.ErrSnapshotFormat, field)
}
