// Package auditlog persists accepted scan records in SQLite and exposes
// read helpers for reporting.
//
// The log is append-only: records are created exactly once by the scan
// recorder, never mutated, and never deleted by this package. A unique index
// over (session_id, vin) backs the per-session uniqueness invariant at the
// storage layer as well, so even a bypassed ledger cannot let two records
// with the same identifier into one session.
//
// Schema changes bump the version in schema.go; the database is a durable
// archive, so migrations must preserve existing rows.
package auditlog
