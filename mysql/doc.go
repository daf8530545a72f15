// Package mysql provides the MySQL 8.0+ dialect for sqlstore.
//
// Messages live in an InnoDB table keyed by id with a JSON body column. Duplicate keys
// (error 1062) map to consistency.ErrDuplicateKey; lock wait timeouts, deadlocks and
// broken connections map to consistency.ErrStoreFailure. Cleanup passes are serialized
// across processes with GET_LOCK.
package mysql
