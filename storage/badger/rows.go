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

package badger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/archivist/core"
	"github.com/poiesic/archivist/storage"
)

// RowRepository implements storage.RowRepository on BadgerDB.
//
// Each row is stored under its sequence ID. A secondary index keyed by the
// article's content ID and the row ID lists an article's rows in insertion
// order.
type RowRepository struct {
	backend     *Backend
	idSeq       *badger.Sequence
	ownsBackend bool
	closeOnce   sync.Once
	closeErr    error
}

var _ storage.RowRepository = (*RowRepository)(nil)

// NewRowRepository creates a RowRepository on an open backend.
// The caller keeps ownership of the backend.
func NewRowRepository(backend *Backend) (*RowRepository, error) {
	idSeq, err := backend.GetSequence(rowIDSeq)
	if err != nil {
		return nil, err
	}

	return &RowRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Open opens or creates a BadgerDB row store in the directory at path.
// Closing the returned repository closes the database.
func Open(path string) (storage.RowRepository, error) {
	return open(path, false)
}

func open(path string, inMemory bool) (*RowRepository, error) {
	backend, err := OpenBackend(path, inMemory)
	if err != nil {
		return nil, err
	}

	repo, err := NewRowRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}
	repo.ownsBackend = true
	return repo, nil
}

// Close releases the ID sequence, and the database when the repository
// opened it.
func (r *RowRepository) Close() error {
	r.closeOnce.Do(func() {
		err := r.idSeq.Release()
		if r.ownsBackend {
			err = errors.Join(err, r.backend.Close())
		}
		r.closeErr = err
	})
	return r.closeErr
}

// AddRows appends rows, assigning sequence IDs and insertion timestamps.
// All rows are written in one transaction.
func (r *RowRepository) AddRows(ctx context.Context, rows ...*core.Row) ([]*core.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		insertedAt := time.Now().UTC().Truncate(time.Microsecond)

		for _, row := range rows {
			if row == nil {
				return fmt.Errorf("%w: nil row", core.ErrInvalidChunk)
			}

			nextID, err := r.idSeq.Next()
			if err != nil {
				return err
			}
			// BadgerDB sequences can return 0 on first call, so we skip it
			if nextID == 0 {
				nextID, err = r.idSeq.Next()
				if err != nil {
					return err
				}
			}
			row.Id = core.ID(nextID)
			row.InsertedAt = insertedAt

			if err := tx.Set(makeRowKey(row.Id), storage.MarshalRow(row)); err != nil {
				return err
			}

			indexKey := makeRowArticleKey(core.IDFromContent(row.ArticleURL), row.Id)
			if err := tx.Set(indexKey, storage.MarshalID(row.Id)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
	if err != nil {
		if errors.Is(err, storage.ErrStorageClosed) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", core.ErrStoreWrite, err)
	}

	return rows, nil
}

// GetRow retrieves a single row by ID.
func (r *RowRepository) GetRow(ctx context.Context, id core.ID) (*core.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var result *core.Row
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readRow(tx, makeRowKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// RowsByArticle retrieves an article's rows in insertion order.
func (r *RowRepository) RowsByArticle(ctx context.Context, articleURL string) ([]*core.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	results := []*core.Row{}
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makePartialRowArticleKey(core.IDFromContent(articleURL))
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var rowID core.ID
			err := iter.Item().Value(func(val []byte) error {
				var err error
				rowID, err = storage.UnmarshalID(val)
				return err
			})
			if err != nil {
				return err
			}

			row, err := readRow(tx, makeRowKey(rowID))
			if err != nil {
				return err
			}
			// Article IDs are hashes; skip rows from a colliding URL.
			if row == nil || row.ArticleURL != articleURL {
				continue
			}
			results = append(results, row)
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return results, nil
}

// CountRows returns the number of stored rows.
func (r *RowRepository) CountRows(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	count := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(rowPrefix)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)
	return count, err
}

// readRow reads a row by key. Returns nil, nil when the key is absent.
func readRow(tx *badger.Txn, key []byte) (*core.Row, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var row *core.Row
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		row, unmarshalErr = storage.UnmarshalRow(val)
		return unmarshalErr
	})
	return row, err
}
