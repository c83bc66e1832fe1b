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

import "fmt"

// ValidateChunk validates a Chunk according to domain rules.
//
// Validation rules:
//   - ArticleURL must not be empty
//   - ContentTokens must not be negative
//
// NOT validated:
//   - Embedding (empty until the embed stage runs)
//   - ArticleDate (empty when the page carried no date)
func ValidateChunk(chunk *Chunk) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrInvalidChunk)
	}

	if chunk.ArticleURL == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyURL)
	}

	if chunk.ContentTokens < 0 {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrNegativeTokens)
	}

	return nil
}

// ValidateArticle validates an Article and each of its chunks.
//
// Validation rules:
//   - URL must not be empty
//   - Tokens must not be negative
//   - every chunk must be valid and belong to this article
func ValidateArticle(article *Article) error {
	if article == nil {
		return fmt.Errorf("%w: article is nil", ErrInvalidArticle)
	}

	if article.URL == "" {
		return fmt.Errorf("%w: %w", ErrInvalidArticle, ErrEmptyURL)
	}

	if article.Tokens < 0 {
		return fmt.Errorf("%w: %w", ErrInvalidArticle, ErrNegativeTokens)
	}

	for i := range article.Chunks {
		chunk := &article.Chunks[i]
		if err := ValidateChunk(chunk); err != nil {
			return fmt.Errorf("%w: chunk %d: %w", ErrInvalidArticle, i, err)
		}
		if chunk.ArticleURL != article.URL {
			return fmt.Errorf("%w: chunk %d belongs to %q", ErrInvalidArticle, i, chunk.ArticleURL)
		}
	}

	return nil
}

// ValidateCorpus validates every article and checks the token total.
func ValidateCorpus(corpus *Corpus) error {
	if corpus == nil {
		return fmt.Errorf("%w: corpus is nil", ErrInvalidCorpus)
	}

	total := 0
	for i := range corpus.Articles {
		if err := ValidateArticle(&corpus.Articles[i]); err != nil {
			return fmt.Errorf("%w: article %d: %w", ErrInvalidCorpus, i, err)
		}
		total += corpus.Articles[i].Tokens
	}

	if total != corpus.TotalTokens {
		return fmt.Errorf("%w: token total %d does not match article sum %d", ErrInvalidCorpus, corpus.TotalTokens, total)
	}

	return nil
}
