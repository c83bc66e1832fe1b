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

package storage

import (
	"context"

	"github.com/poiesic/archivist/core"
)

// RowWriter appends embedded chunks to a store.
type RowWriter interface {
	// AddRows appends one or more rows. Every row gets a new ID and an
	// InsertedAt timestamp, whatever those fields held before.
	// Rows are never deduplicated: adding the same chunk twice stores it twice.
	// Returns the rows with IDs and timestamps populated.
	AddRows(ctx context.Context, rows ...*core.Row) ([]*core.Row, error)
}

// RowRepository provides operations for managing persisted rows.
type RowRepository interface {
	RowWriter

	// GetRow retrieves a single row by ID.
	// Returns ErrNotFound if the row doesn't exist.
	GetRow(ctx context.Context, id core.ID) (*core.Row, error)

	// RowsByArticle retrieves every row stored for an article URL, in
	// insertion order. Returns an empty slice when there are none.
	RowsByArticle(ctx context.Context, articleURL string) ([]*core.Row, error)

	// CountRows returns the number of stored rows.
	CountRows(ctx context.Context) (int, error)

	// Close releases the repository's resources.
	Close() error
}
