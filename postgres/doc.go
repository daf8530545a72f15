// Package postgres provides the PostgreSQL dialect for sqlstore, built on lib/pq.
//
// Bodies are stored as JSONB. Unique violations (23505) map to
// consistency.ErrDuplicateKey; connection exceptions (class 08), serialization failures
// and deadlocks map to consistency.ErrStoreFailure. Cleanup passes are serialized with
// pg_try_advisory_lock.
package postgres
