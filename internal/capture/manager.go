package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"lotscan/internal/auditlog"
	"lotscan/internal/geo"
	"lotscan/internal/identity"
	"lotscan/internal/locations"
	"lotscan/internal/logging"
	"lotscan/internal/scanner"
	"lotscan/internal/session"
)

// ErrUnknownSession indicates an operation referenced a session id that is
// not active.
var ErrUnknownSession = errors.New("unknown session")

// ManagerOptions wires the collaborators a manager hands to its sessions.
type ManagerOptions struct {
	Store      *auditlog.Store
	Recorder   *scanner.Recorder
	Ledger     *session.Ledger
	Recognizer Recognizer
	Sampler    Sampler
	Geo        geo.Provider
	Directory  locations.Directory
	Logger     *slog.Logger
	Now        func() time.Time
}

// Manager owns the active sessions and starts, resolves, and finishes them.
type Manager struct {
	store     *auditlog.Store
	recorder  *scanner.Recorder
	ledger    *session.Ledger
	directory locations.Directory
	deps      deps
	logger    *slog.Logger
	now       func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager builds a session manager from the supplied collaborators.
func NewManager(opts ManagerOptions) *Manager {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	logger := logging.NewComponentLogger(opts.Logger, "capture-manager")
	return &Manager{
		store:     opts.Store,
		recorder:  opts.Recorder,
		ledger:    opts.Ledger,
		directory: opts.Directory,
		deps: deps{
			recorder:   opts.Recorder,
			ledger:     opts.Ledger,
			recognizer: opts.Recognizer,
			sampler:    opts.Sampler,
			geo:        opts.Geo,
			logger:     opts.Logger,
		},
		logger:   logger,
		now:      now,
		sessions: make(map[string]*Session),
	}
}

// Start opens a session at the named location. The name must resolve to an
// active entry in the location directory; the canonical name is used for the
// session id and every record.
func (m *Manager) Start(ctx context.Context, location string, user identity.Context) (*Session, error) {
	if !user.Valid() {
		return nil, errors.New("start session: missing identity")
	}
	canonical, err := locations.Resolve(ctx, m.directory, location)
	if err != nil {
		return nil, err
	}

	startedAt := m.now()
	id := session.DeriveID(canonical, startedAt)

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.sessions[id]; exists {
		return nil, fmt.Errorf("session %s already active", id)
	}
	s := newSession(id, canonical, user, startedAt, m.deps)
	m.sessions[id] = s

	m.logger.Info("session started",
		logging.String(logging.FieldSessionID, id),
		logging.String(logging.FieldLocation, canonical),
	)
	return s, nil
}

// Get returns an active session by id.
func (m *Manager) Get(sessionID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSession, sessionID)
	}
	return s, nil
}

// Active lists the active sessions, oldest first.
func (m *Manager) Active() []*Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	active := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		active = append(active, s)
	}
	for i := 1; i < len(active); i++ {
		for j := i; j > 0 && active[j].StartedAt.Before(active[j-1].StartedAt); j-- {
			active[j], active[j-1] = active[j-1], active[j]
		}
	}
	return active
}

// Finish closes a session: coordinators reset, ledger and per-session lock
// released, and the summary snapshotted from the durable log.
func (m *Manager) Finish(ctx context.Context, sessionID string) (Summary, error) {
	m.mu.Lock()
	s, ok := m.sessions[sessionID]
	if ok {
		delete(m.sessions, sessionID)
	}
	m.mu.Unlock()
	if !ok {
		return Summary{}, fmt.Errorf("%w: %s", ErrUnknownSession, sessionID)
	}

	summary, err := s.finish(ctx, m.store)
	if err != nil {
		return Summary{}, err
	}
	m.ledger.Drop(sessionID)
	m.recorder.ReleaseSession(sessionID)

	m.logger.Info("session finished",
		logging.String(logging.FieldSessionID, sessionID),
		logging.Int("records", len(summary.Records)),
	)
	return summary, nil
}
