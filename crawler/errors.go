package crawler

import "errors"

// Constructor errors
var (
	// ErrFetcherRequired indicates a nil Fetcher was passed to New.
	ErrFetcherRequired = errors.New("fetcher is required")

	// ErrChunkerRequired indicates a nil Chunker was passed to New.
	ErrChunkerRequired = errors.New("chunker is required")

	// ErrCounterRequired indicates a nil token counter was passed to New.
	ErrCounterRequired = errors.New("token counter is required")

	// ErrInvalidSelector indicates a site profile selector failed to compile.
	ErrInvalidSelector = errors.New("invalid selector")
)
