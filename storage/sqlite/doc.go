// Package sqlite implements storage.RowRepository on a SQLite database.
//
// Rows live in a knowledge_base table with one column per chunk field. The
// embedding is stored as a little-endian float32 blob. Each row carries an
// integer primary key, returned as the row ID, and a random UUID for use by
// external systems.
//
// The schema is created by embedded migrations when the store is opened.
package sqlite
