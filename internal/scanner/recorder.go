package scanner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"lotscan/internal/auditlog"
	"lotscan/internal/logging"
	"lotscan/internal/session"
	"lotscan/internal/vin"
)

// ErrDuplicateIdentifier indicates the identifier was already accepted in the
// session. An expected business condition, not a system fault: single-capture
// flows reset for retry and video batches skip the entry.
var ErrDuplicateIdentifier = errors.New("identifier already recorded in session")

// Candidate carries everything a scan record needs except the generated
// identity and timestamp.
type Candidate struct {
	VIN       string
	SessionID string
	Location  string
	Latitude  float64
	Longitude float64
	ImageRef  string
	Method    auditlog.Method
	UserID    string
	UserEmail string
}

// Recorder validates candidates and appends accepted scans to the audit log.
type Recorder struct {
	store  *auditlog.Store
	ledger *session.Ledger
	logger *slog.Logger
	now    func() time.Time

	// One mutex per session id serializes check-append-record so duplicate
	// confirmations cannot interleave past the ledger check.
	sessionLocks sync.Map
}

// Option customizes the recorder.
type Option func(*Recorder)

// WithClock overrides the timestamp source (useful for tests).
func WithClock(now func() time.Time) Option {
	return func(r *Recorder) {
		if now != nil {
			r.now = now
		}
	}
}

// NewRecorder constructs a recorder over the supplied store and ledger.
func NewRecorder(store *auditlog.Store, ledger *session.Ledger, logger *slog.Logger, opts ...Option) *Recorder {
	r := &Recorder{
		store:  store,
		ledger: ledger,
		logger: logging.NewComponentLogger(logger, "scan-recorder"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record validates the candidate, stamps identity and time, appends it to the
// audit log, and marks the identifier in the session ledger. From the
// caller's point of view the operation is atomic: a failure at any step
// leaves no partial record visible.
//
// Manual, camera, and upload candidates must carry a complete 17-character
// VIN. Video candidates arrive pre-validated by the lenient multi-frame
// parser and pass through as-is.
func (r *Recorder) Record(ctx context.Context, candidate Candidate) (*auditlog.Record, error) {
	identifier := strings.ToUpper(strings.TrimSpace(candidate.VIN))
	if identifier == "" {
		return nil, &vin.InvalidIdentifierError{Length: 0}
	}
	if candidate.Method != auditlog.MethodVideo && len(identifier) != vin.Length {
		return nil, &vin.InvalidIdentifierError{Length: len(identifier)}
	}
	if candidate.SessionID == "" {
		return nil, errors.New("record: missing session id")
	}

	lock := r.sessionLock(candidate.SessionID)
	lock.Lock()
	defer lock.Unlock()

	if r.ledger.Contains(candidate.SessionID, identifier) {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateIdentifier, identifier)
	}

	record := &auditlog.Record{
		ID:         uuid.NewString(),
		VIN:        identifier,
		SessionID:  candidate.SessionID,
		Location:   candidate.Location,
		CapturedAt: r.now().UTC(),
		Latitude:   candidate.Latitude,
		Longitude:  candidate.Longitude,
		ImageRef:   candidate.ImageRef,
		Method:     candidate.Method,
		UserID:     candidate.UserID,
		UserEmail:  candidate.UserEmail,
	}

	if err := r.store.Append(ctx, record); err != nil {
		if errors.Is(err, auditlog.ErrDuplicateRecord) {
			// The storage index caught what the ledger missed (fresh process
			// over an existing session id). Re-arm the ledger so later checks
			// short-circuit.
			r.ledger.Record(candidate.SessionID, identifier)
			return nil, fmt.Errorf("%w: %s", ErrDuplicateIdentifier, identifier)
		}
		return nil, err
	}
	r.ledger.Record(candidate.SessionID, identifier)

	r.logger.Info("scan recorded",
		logging.String(logging.FieldRecordID, record.ID),
		logging.String(logging.FieldSessionID, record.SessionID),
		logging.String(logging.FieldMethod, string(record.Method)),
		logging.String("vin", record.VIN),
	)
	return record, nil
}

func (r *Recorder) sessionLock(sessionID string) *sync.Mutex {
	if lock, ok := r.sessionLocks.Load(sessionID); ok {
		return lock.(*sync.Mutex)
	}
	lock, _ := r.sessionLocks.LoadOrStore(sessionID, &sync.Mutex{})
	return lock.(*sync.Mutex)
}

// ReleaseSession forgets the per-session lock once a session is finished.
func (r *Recorder) ReleaseSession(sessionID string) {
	r.sessionLocks.Delete(sessionID)
}
