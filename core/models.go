package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for persisted rows and articles.
// Row IDs come from store sequences; article IDs are content hashes of the URL.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Article is one archive entry, extracted from a single fetched page.
// It is immutable once chunked.
type Article struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Date    string  `json:"date"`    // ISO-8601, empty when the page has no date element
	Content string  `json:"content"` // whitespace-normalized body text
	Tokens  int     `json:"tokens"`
	Chunks  []Chunk `json:"chunks"`
}

// ID returns the article's content ID, derived from its URL.
func (a *Article) ID() ID {
	return IDFromContent(a.URL)
}

// Chunk is a bounded slice of one article's text, the atomic unit stored for retrieval.
// Article metadata is copied in so a chunk is self-describing.
type Chunk struct {
	ArticleTitle  string    `json:"article_title"`
	ArticleURL    string    `json:"article_url"`
	ArticleDate   string    `json:"article_date"`
	Content       string    `json:"content"`
	ContentTokens int       `json:"content_tokens"`
	Embedding     []float32 `json:"embedding"` // empty until embedded
}

// Corpus is a fully materialized crawl result.
type Corpus struct {
	TotalTokens int       `json:"tokens"`
	Articles    []Article `json:"articles"`
}

// NewCorpus builds a corpus and computes its token total.
func NewCorpus(articles []Article) *Corpus {
	if articles == nil {
		articles = []Article{}
	}
	total := 0
	for i := range articles {
		total += articles[i].Tokens
	}
	return &Corpus{
		TotalTokens: total,
		Articles:    articles,
	}
}

// ChunkCount returns the number of chunks across all articles.
func (c *Corpus) ChunkCount() int {
	n := 0
	for i := range c.Articles {
		n += len(c.Articles[i].Chunks)
	}
	return n
}

// Row is the store-side representation of an embedded chunk.
type Row struct {
	Id            ID
	ArticleTitle  string
	ArticleURL    string
	ArticleDate   string
	Content       string
	ContentTokens int
	Embedding     []float32
	InsertedAt    time.Time
}

// NewRow copies a chunk and its embedding into a row ready for insertion.
func NewRow(chunk *Chunk, embedding []float32) *Row {
	return &Row{
		ArticleTitle:  chunk.ArticleTitle,
		ArticleURL:    chunk.ArticleURL,
		ArticleDate:   chunk.ArticleDate,
		Content:       chunk.Content,
		ContentTokens: chunk.ContentTokens,
		Embedding:     embedding,
	}
}
