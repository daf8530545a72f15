// Package sqlstore provides a database/sql backed consistency.MessageStore.
//
// Messages are kept in a single table with three columns:
//   - id, the message key (text)
//   - body, the JSON encoded message
//   - created_at, the insert time used by Cleanup
//
// Dialect-specific parts (placeholders, DDL, error classification, advisory locks) live
// in the mysql, postgres and sqlite packages. Writes join the caller's transaction when
// one is attached with WithExecutor.
package sqlstore
