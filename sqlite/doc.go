// Package sqlite provides the SQLite dialect for sqlstore, built on mattn/go-sqlite3.
//
// SQLite has no advisory locks, so cleanup passes are not serialized across processes.
// Unique and primary key constraint violations map to consistency.ErrDuplicateKey;
// SQLITE_BUSY and SQLITE_LOCKED map to consistency.ErrStoreFailure.
package sqlite
