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

package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/poiesic/archivist/core"
	"github.com/poiesic/archivist/storage"
	"github.com/poiesic/archivist/storage/sqlite/migrations"
)

const rowColumns = "id, article_title, article_url, article_date, content, content_tokens, embedding, inserted_at"

// Store implements storage.RowRepository on SQLite.
type Store struct {
	db     *sql.DB
	path   string
	closed atomic.Bool
	logger *slog.Logger
}

var _ storage.RowRepository = (*Store)(nil)

// Open opens or creates a SQLite row store at path and applies pending
// migrations. The parent directory is created if missing.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("sqlite store: path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	// WAL mode lets readers proceed while the embed stage writes.
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:     db,
		path:   path,
		logger: slog.Default().With("component", "sqlite-store"),
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.db.Close()
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_knowledge_base.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
		s.logger.Debug("applied migration", "name", name)
	}

	return nil
}

// AddRows inserts rows in one transaction, assigning IDs and timestamps.
func (s *Store) AddRows(ctx context.Context, rows ...*core.Row) ([]*core.Row, error) {
	if s.closed.Load() {
		return nil, storage.ErrStorageClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: begin: %v", core.ErrStoreWrite, err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO knowledge_base
			(uuid, article_title, article_url, article_date, content, content_tokens, embedding, inserted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: prepare: %v", core.ErrStoreWrite, err)
	}
	defer stmt.Close()

	insertedAt := time.Now().UTC().Truncate(time.Microsecond)
	for _, row := range rows {
		if row == nil {
			return nil, fmt.Errorf("%w: nil row", core.ErrStoreWrite)
		}

		result, err := stmt.ExecContext(ctx,
			uuid.NewString(),
			row.ArticleTitle,
			row.ArticleURL,
			row.ArticleDate,
			row.Content,
			row.ContentTokens,
			encodeEmbedding(row.Embedding),
			insertedAt.UnixMicro(),
		)
		if err != nil {
			return nil, fmt.Errorf("%w: insert: %v", core.ErrStoreWrite, err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("%w: row id: %v", core.ErrStoreWrite, err)
		}
		row.Id = core.ID(id)
		row.InsertedAt = insertedAt
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: commit: %v", core.ErrStoreWrite, err)
	}
	return rows, nil
}

// GetRow retrieves a single row by ID.
func (s *Store) GetRow(ctx context.Context, id core.ID) (*core.Row, error) {
	if s.closed.Load() {
		return nil, storage.ErrStorageClosed
	}

	row := s.db.QueryRowContext(ctx, "SELECT "+rowColumns+" FROM knowledge_base WHERE id = ?", int64(id))
	result, err := scanRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

// RowsByArticle retrieves an article's rows in insertion order.
func (s *Store) RowsByArticle(ctx context.Context, articleURL string) ([]*core.Row, error) {
	if s.closed.Load() {
		return nil, storage.ErrStorageClosed
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+rowColumns+" FROM knowledge_base WHERE article_url = ? ORDER BY id", articleURL)
	if err != nil {
		return nil, fmt.Errorf("querying rows: %w", err)
	}
	defer rows.Close()

	results := []*core.Row{}
	for rows.Next() {
		row, err := scanRow(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, row)
	}
	return results, rows.Err()
}

// CountRows returns the number of stored rows.
func (s *Store) CountRows(ctx context.Context) (int, error) {
	if s.closed.Load() {
		return 0, storage.ErrStorageClosed
	}

	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM knowledge_base").Scan(&count); err != nil {
		return 0, fmt.Errorf("counting rows: %w", err)
	}
	return count, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRow(sc scanner) (*core.Row, error) {
	var (
		row        core.Row
		id         int64
		embedding  []byte
		insertedAt int64
	)
	err := sc.Scan(&id, &row.ArticleTitle, &row.ArticleURL, &row.ArticleDate,
		&row.Content, &row.ContentTokens, &embedding, &insertedAt)
	if err != nil {
		return nil, err
	}

	row.Id = core.ID(id)
	row.InsertedAt = time.UnixMicro(insertedAt).UTC()
	row.Embedding, err = decodeEmbedding(embedding)
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func encodeEmbedding(embedding []float32) []byte {
	buf := make([]byte, len(embedding)*4)
	for i, f := range embedding {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func decodeEmbedding(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("%w: embedding blob of %d bytes", storage.ErrSerializationFailed, len(data))
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats, nil
}
