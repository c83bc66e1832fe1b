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

package core

import "errors"

// Pipeline failure kinds. Item-level failures (one article, one chunk) are
// logged and skipped; setup-level failures abort the run.
var (
	// ErrFetch indicates an archive or article page could not be retrieved.
	ErrFetch = errors.New("fetch failed")

	// ErrExtraction indicates an expected structural element was missing on a page.
	ErrExtraction = errors.New("extraction failed")

	// ErrSnapshotFormat indicates a stored snapshot is structurally invalid.
	ErrSnapshotFormat = errors.New("invalid snapshot format")

	// ErrEmbeddingRequest indicates the embedding service rejected or failed a request.
	ErrEmbeddingRequest = errors.New("embedding request failed")

	// ErrStoreWrite indicates a row could not be written to the store.
	ErrStoreWrite = errors.New("store write failed")
)

// Domain validation errors
var (
	// ErrInvalidArticle indicates an Article failed validation.
	ErrInvalidArticle = errors.New("invalid article")

	// ErrInvalidChunk indicates a Chunk failed validation.
	ErrInvalidChunk = errors.New("invalid chunk")

	// ErrInvalidCorpus indicates a Corpus failed validation.
	ErrInvalidCorpus = errors.New("invalid corpus")

	// ErrEmptyURL indicates the URL field is empty.
	ErrEmptyURL = errors.New("url cannot be empty")

	// ErrNegativeTokens indicates a token count below zero.
	ErrNegativeTokens = errors.New("token count cannot be negative")
)
