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

// Package storage provides the row store abstraction for archivist.
//
// The embed stage writes one row per embedded chunk. This package defines the
// repository interfaces that decouple that stage from the store behind it,
// so BadgerDB and SQLite backends can be used interchangeably.
//
// # Constructor Return Type Pattern
//
// Public constructors return interfaces to enforce abstraction:
//
//	repo, err := badger.Open(path)  // returns storage.RowRepository
//
// Internal constructors may return concrete types since they're only used
// within the implementation package.
//
// # Architecture
//
//   - RowWriter: append-only insert, all the embed stage needs
//   - RowRepository: RowWriter plus lookups by ID and by article
//
// Implementations live in storage/badger (embedded key-value store, the
// default) and storage/sqlite (a knowledge_base table).
//
// # Usage
//
//	repo, err := badger.Open("/path/to/db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer repo.Close()
//
// Use in tests with in-memory storage:
//
//	repo, err := badger.NewMemoryRepository()
//
// # Semantics
//
// Rows are append-only. Uniqueness is not enforced, so re-running the embed
// stage over the same snapshot stores duplicate rows.
//
// # Thread Safety
//
// All repository implementations must be safe for concurrent use.
package storage
