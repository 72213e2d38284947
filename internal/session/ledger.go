package session

import (
	"strings"
	"sync"
)

// Ledger holds the ordered set of identifiers accepted per active session.
// All methods are safe for concurrent use.
type Ledger struct {
	mu       sync.RWMutex
	sessions map[string]*ledgerEntry
}

type ledgerEntry struct {
	seen  map[string]struct{}
	order []string
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{sessions: make(map[string]*ledgerEntry)}
}

// Contains reports whether the identifier was already accepted in the session.
// Comparison is exact-string after uppercase normalization.
func (l *Ledger) Contains(sessionID, identifier string) bool {
	key := normalizeKey(identifier)
	l.mu.RLock()
	defer l.mu.RUnlock()
	entry, ok := l.sessions[sessionID]
	if !ok {
		return false
	}
	_, seen := entry.seen[key]
	return seen
}

// Record marks the identifier as accepted in the session. It is only called
// after a successful persist, so re-recording an identifier is a no-op.
func (l *Ledger) Record(sessionID, identifier string) {
	key := normalizeKey(identifier)
	l.mu.Lock()
	defer l.mu.Unlock()
	entry, ok := l.sessions[sessionID]
	if !ok {
		entry = &ledgerEntry{seen: make(map[string]struct{})}
		l.sessions[sessionID] = entry
	}
	if _, seen := entry.seen[key]; seen {
		return
	}
	entry.seen[key] = struct{}{}
	entry.order = append(entry.order, key)
}

// Identifiers returns the session's accepted identifiers, most recent first.
func (l *Ledger) Identifiers(sessionID string) []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	entry, ok := l.sessions[sessionID]
	if !ok {
		return nil
	}
	out := make([]string, len(entry.order))
	for i, id := range entry.order {
		out[len(entry.order)-1-i] = id
	}
	return out
}

// Count returns the number of identifiers accepted in the session.
func (l *Ledger) Count(sessionID string) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	entry, ok := l.sessions[sessionID]
	if !ok {
		return 0
	}
	return len(entry.order)
}

// Drop forgets the session's in-memory state. Called when a session is
// finished; the durable audit log is unaffected.
func (l *Ledger) Drop(sessionID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.sessions, sessionID)
}

func normalizeKey(identifier string) string {
	return strings.ToUpper(strings.TrimSpace(identifier))
}
