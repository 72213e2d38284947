// Package scanner owns the append operation of the audit log.
//
// The Recorder is the single component allowed to mutate the audit log and
// the session ledger together. Per session, the duplicate check, the durable
// append, and the ledger update form one serialized unit: of two
// near-simultaneous confirmations of the same identifier exactly one wins and
// the other observes ErrDuplicateIdentifier. Callers never touch the ledger
// directly.
package scanner
