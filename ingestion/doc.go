// Package ingestion provides the embed stage of the archive pipeline.
//
// The Pipeline reads a chunked corpus, asks the embedding service for one
// vector per chunk and appends each embedded chunk to the row store:
//   - Chunks are drained from a FIFO queue by a single worker, one request
//     and one row write completed before the next begins
//   - A fixed interval separates consecutive embedding requests
//   - A failed chunk is logged, recorded in the Report and skipped
//
// Failed chunks are never retried within a run. Recovery is re-running the
// stage against the same snapshot.
package ingestion
