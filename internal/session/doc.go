// Package session tracks the identifiers already accepted during an active
// audit session.
//
// The ledger is the authoritative "already seen" set used for duplicate
// rejection. It is scoped per session identifier, not per process history:
// the same VIN may legitimately reappear across sessions and locations. The
// ledger is an injected dependency rather than a process-wide singleton so
// tests can run sessions in isolation and in parallel.
package session
