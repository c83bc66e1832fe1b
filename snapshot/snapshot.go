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

// Package snapshot reads and writes corpus snapshots, the JSON handoff
// between the crawl stage and the embed stage.
//
// A snapshot is one document of the form
//
//	{"tokens": 1234, "articles": [{"title": ..., "chunks": [...]}, ...]}
//
// Writes replace any previous snapshot at the same path atomically. Reads
// fail with core.ErrSnapshotFormat when the document is not valid JSON or a
// required field is missing. Nil slices are written as empty arrays and read
// back as empty slices.
package snapshot

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/poiesic/archivist/core"
)

// Write serializes corpus to path, overwriting any existing snapshot.
// The document is written to a temporary file in the same directory and
// renamed into place, so readers never observe a partial snapshot.
func Write(path string, corpus *core.Corpus) error {
	if corpus == nil {
		return fmt.Errorf("%w: corpus is nil", core.ErrInvalidCorpus)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".snapshot-*.tmp")
	if err != nil {
		return fmt.Errorf("create snapshot temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if err := Encode(tmp, corpus); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("sync snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close snapshot: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}

// Read loads the snapshot at path.
func Read(path string) (*core.Corpus, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()

	return Decode(f)
}

// Encode writes corpus to w as a snapshot document.
func Encode(w io.Writer, corpus *core.Corpus) error {
	if corpus == nil {
		return fmt.Errorf("%w: corpus is nil", core.ErrInvalidCorpus)
	}
	if err := json.NewEncoder(w).Encode(toWire(corpus)); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return nil
}

// Decode reads one snapshot document from r.
func Decode(r io.Reader) (*core.Corpus, error) {
	var doc wireCorpus
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrSnapshotFormat, err)
	}
	return doc.toCorpus()
}
