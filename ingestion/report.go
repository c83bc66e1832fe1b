package ingestion

import "fmt"

// Failure describes one chunk that could not be embedded or stored.
type Failure struct {
	ArticleIndex int
	ChunkIndex   int
	ArticleURL   string
	Err          error
}

func (f Failure) Error() string {
	return fmt.Sprintf("article %d chunk %d (%s): %v", f.ArticleIndex, f.ChunkIndex, f.ArticleURL, f.Err)
}

func (f Failure) Unwrap() error {
	return f.Err
}

// Report summarizes an embed run.
type Report struct {
	Total    int       // chunks in the corpus
	Saved    int       // chunks embedded and written
	Failures []Failure // chunks skipped, in queue order
}

// Processed returns the number of chunks attempted so far.
func (r *Report) Processed() int {
	return r.Saved + len(r.Failures)
}

// Complete reports whether every chunk was saved.
func (r *Report) Complete() bool {
	return r.Saved == r.Total
}
