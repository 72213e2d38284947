package capture

import (
	"context"
	"fmt"
	"time"

	"lotscan/internal/auditlog"
	"lotscan/internal/identity"
)

// Session groups the four capture coordinators sharing one audit session.
type Session struct {
	ID        string           `json:"session_id"`
	Location  string           `json:"location"`
	User      identity.Context `json:"-"`
	StartedAt time.Time        `json:"started_at"`

	coordinators map[auditlog.Method]*Coordinator
	deps         deps
}

func newSession(id, location string, user identity.Context, startedAt time.Time, d deps) *Session {
	s := &Session{
		ID:           id,
		Location:     location,
		User:         user,
		StartedAt:    startedAt,
		coordinators: make(map[auditlog.Method]*Coordinator, len(auditlog.Methods())),
		deps:         d,
	}
	for _, method := range auditlog.Methods() {
		s.coordinators[method] = newCoordinator(method, id, location, user, d)
	}
	return s
}

// Coordinator returns the coordinator for the given capture method.
func (s *Session) Coordinator(method auditlog.Method) (*Coordinator, error) {
	coordinator, ok := s.coordinators[method]
	if !ok {
		return nil, fmt.Errorf("unknown capture method %q", method)
	}
	return coordinator, nil
}

// Snapshots returns the current state of every coordinator.
func (s *Session) Snapshots() []Snapshot {
	snapshots := make([]Snapshot, 0, len(auditlog.Methods()))
	for _, method := range auditlog.Methods() {
		snapshots = append(snapshots, s.coordinators[method].Snapshot())
	}
	return snapshots
}

// Summary is the result of finishing a session: every record persisted under
// the session id, snapshotted from the durable log.
type Summary struct {
	SessionID string            `json:"session_id"`
	Location  string            `json:"location"`
	StartedAt time.Time         `json:"started_at"`
	Records   []auditlog.Record `json:"records"`
}

// finish resets every coordinator and snapshots the session's records from
// the store. In-flight recognitions are discarded by the resets.
func (s *Session) finish(ctx context.Context, store *auditlog.Store) (Summary, error) {
	for _, coordinator := range s.coordinators {
		coordinator.Reset()
	}
	records, err := store.BySession(ctx, s.ID)
	if err != nil {
		return Summary{}, fmt.Errorf("finish session %s: %w", s.ID, err)
	}
	return Summary{
		SessionID: s.ID,
		Location:  s.Location,
		StartedAt: s.StartedAt,
		Records:   records,
	}, nil
}
