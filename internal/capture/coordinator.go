package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"lotscan/internal/auditlog"
	"lotscan/internal/geo"
	"lotscan/internal/identity"
	"lotscan/internal/logging"
	"lotscan/internal/recognition"
	"lotscan/internal/scanner"
	"lotscan/internal/session"
	"lotscan/internal/vin"
)

// State names one phase of a capture flow.
type State string

const (
	StateIdle          State = "idle"
	StateAwaitingInput State = "awaiting-input"
	StateSampling      State = "sampling"
	StateRecognizing   State = "recognizing"
	StateConfirming    State = "confirming"
	StateReviewing     State = "reviewing"
	StatePersisted     State = "persisted"
	StateErrored       State = "errored"
)

var (
	// ErrInvalidTransition indicates an operation arrived in a state that
	// does not accept it.
	ErrInvalidTransition = errors.New("operation not valid in current state")
	// ErrAbandoned indicates an in-flight recognition completed after the
	// coordinator was reset; its result was discarded.
	ErrAbandoned = errors.New("capture abandoned, result discarded")
	// ErrNoPendingCandidate indicates a confirm with nothing staged.
	ErrNoPendingCandidate = errors.New("no candidate pending confirmation")
)

// Recognizer converts images plus a prompt into recognition text.
// *recognition.Client satisfies it.
type Recognizer interface {
	Recognize(ctx context.Context, images [][]byte, prompt string) (string, error)
}

// Sampler extracts still frames from a video asset.
type Sampler interface {
	Sample(ctx context.Context, path string) ([][]byte, error)
}

// SamplerFunc adapts a function to the Sampler interface.
type SamplerFunc func(ctx context.Context, path string) ([][]byte, error)

func (f SamplerFunc) Sample(ctx context.Context, path string) ([][]byte, error) {
	return f(ctx, path)
}

// Input carries the raw material for one capture attempt. Exactly one of
// Image, VideoPath, or Text is set depending on the coordinator's method.
// Fix is an optional device-supplied coordinate fix; when absent the
// configured provider is consulted at confirm time.
type Input struct {
	Image     []byte
	VideoPath string
	Text      string
	ImageRef  string
	Fix       *geo.Fix
}

// Candidate is one identifier staged for confirmation, flagged when the
// session ledger already holds it.
type Candidate struct {
	Identifier string `json:"identifier"`
	Duplicate  bool   `json:"duplicate"`
}

// Snapshot is a point-in-time view of a coordinator for the operator.
type Snapshot struct {
	Method     auditlog.Method `json:"method"`
	State      State           `json:"state"`
	Candidates []Candidate     `json:"candidates,omitempty"`
	Message    string          `json:"message,omitempty"`
}

// ConfirmResult reports what a confirm persisted.
type ConfirmResult struct {
	Records []auditlog.Record `json:"records"`
	Added   int               `json:"added"`
	Skipped []string          `json:"skipped,omitempty"`
}

type deps struct {
	recorder   *scanner.Recorder
	ledger     *session.Ledger
	recognizer Recognizer
	sampler    Sampler
	geo        geo.Provider
	logger     *slog.Logger
}

// Coordinator is the state machine behind one capture method of one session.
// All exported methods are safe for concurrent use; the recognition and
// sampling phases run without the lock held and are fenced by an epoch so a
// reset while they are in flight discards their result.
type Coordinator struct {
	method    auditlog.Method
	sessionID string
	location  string
	user      identity.Context
	deps      deps
	logger    *slog.Logger

	mu         sync.Mutex
	state      State
	epoch      uint64
	candidates []Candidate
	fix        *geo.Fix
	imageRef   string
	message    string
}

func newCoordinator(method auditlog.Method, sessionID, location string, user identity.Context, d deps) *Coordinator {
	return &Coordinator{
		method:    method,
		sessionID: sessionID,
		location:  location,
		user:      user,
		deps:      d,
		logger: logging.NewComponentLogger(d.logger, "capture").With(
			logging.String(logging.FieldSessionID, sessionID),
			logging.String(logging.FieldMethod, string(method)),
		),
		state: StateIdle,
	}
}

// Method returns the capture method this coordinator drives.
func (c *Coordinator) Method() auditlog.Method { return c.method }

// Snapshot returns the coordinator's current state for display.
func (c *Coordinator) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	snap := Snapshot{Method: c.method, State: c.state, Message: c.message}
	snap.Candidates = append(snap.Candidates, c.candidates...)
	return snap
}

// Begin moves the coordinator from idle to awaiting-input. Idempotent when
// already awaiting input.
func (c *Coordinator) Begin() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.state {
	case StateIdle, StateAwaitingInput, StatePersisted, StateErrored:
		c.resetLocked(StateAwaitingInput)
		return nil
	default:
		return fmt.Errorf("%w: begin in %s", ErrInvalidTransition, c.state)
	}
}

// Submit runs the acquisition phase for the supplied input: recognition for
// camera and upload, sampling plus recognition for video, format validation
// for manual entry. On success the coordinator holds staged candidates in
// confirming (or reviewing, for video). On recognition or decode failure the
// coordinator returns to awaiting-input with no side effects.
func (c *Coordinator) Submit(ctx context.Context, input Input) error {
	c.mu.Lock()
	if c.state != StateAwaitingInput && c.state != StateIdle && c.state != StateErrored {
		c.mu.Unlock()
		return fmt.Errorf("%w: submit in %s", ErrInvalidTransition, c.state)
	}
	epoch := c.epoch
	c.message = ""
	c.fix = input.Fix
	c.imageRef = input.ImageRef

	switch c.method {
	case auditlog.MethodManual:
		identifier, err := vin.ParseSingle(input.Text)
		if err != nil {
			c.state = StateAwaitingInput
			c.message = err.Error()
			c.mu.Unlock()
			return err
		}
		c.stageLocked([]string{identifier}, StateConfirming)
		c.mu.Unlock()
		return nil
	case auditlog.MethodVideo:
		c.state = StateSampling
	default:
		c.state = StateRecognizing
	}
	c.mu.Unlock()

	identifiers, nextState, err := c.acquire(ctx, input)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch != epoch {
		c.logger.Info("discarding stale recognition result")
		return ErrAbandoned
	}
	if err != nil {
		c.state = StateAwaitingInput
		c.message = err.Error()
		return err
	}
	c.stageLocked(identifiers, nextState)
	return nil
}

// acquire performs the lock-free phases of a submit and returns the
// identifiers to stage plus the state to stage them in.
func (c *Coordinator) acquire(ctx context.Context, input Input) ([]string, State, error) {
	if c.method == auditlog.MethodVideo {
		frames, err := c.deps.sampler.Sample(ctx, input.VideoPath)
		if err != nil {
			return nil, "", err
		}
		c.setStateIfCurrent(StateRecognizing)
		text, err := c.deps.recognizer.Recognize(ctx, frames, recognition.MultiVINPrompt)
		if err != nil {
			if errors.Is(err, recognition.ErrEmpty) {
				// Degraded success: a batch with zero detections.
				return nil, StateReviewing, nil
			}
			return nil, "", err
		}
		return vin.ParseCandidates(text), StateReviewing, nil
	}

	if len(input.Image) == 0 {
		return nil, "", fmt.Errorf("%w: missing image", ErrInvalidTransition)
	}
	text, err := c.deps.recognizer.Recognize(ctx, [][]byte{input.Image}, recognition.SingleVINPrompt)
	if err != nil {
		return nil, "", err
	}
	identifier, err := vin.ParseSingle(text)
	if err != nil {
		return nil, "", err
	}
	return []string{identifier}, StateConfirming, nil
}

// Confirm commits the staged candidates through the scan recorder with the
// geolocation fix bound at this moment. Single-capture flows persist exactly
// one record or fail; the video flow persists every non-duplicate candidate
// in sequence, tolerating individual duplicate rejections, and reports how
// many records were newly added.
func (c *Coordinator) Confirm(ctx context.Context) (ConfirmResult, error) {
	c.mu.Lock()
	if c.state != StateConfirming && c.state != StateReviewing {
		c.mu.Unlock()
		return ConfirmResult{}, fmt.Errorf("%w: confirm in %s", ErrInvalidTransition, c.state)
	}
	epoch := c.epoch
	staged := append([]Candidate(nil), c.candidates...)
	fix := c.fix
	imageRef := c.imageRef
	batch := c.state == StateReviewing
	c.mu.Unlock()

	boundFix, err := c.bindFix(ctx, fix, batch)
	if err != nil {
		c.fail(epoch, err)
		return ConfirmResult{}, err
	}

	var result ConfirmResult
	for _, candidate := range staged {
		record, err := c.deps.recorder.Record(ctx, scanner.Candidate{
			VIN:       candidate.Identifier,
			SessionID: c.sessionID,
			Location:  c.location,
			Latitude:  boundFix.Latitude,
			Longitude: boundFix.Longitude,
			ImageRef:  imageRef,
			Method:    c.method,
			UserID:    c.user.UserID,
			UserEmail: c.user.UserEmail,
		})
		switch {
		case err == nil:
			result.Records = append(result.Records, *record)
			result.Added++
		case errors.Is(err, scanner.ErrDuplicateIdentifier):
			result.Skipped = append(result.Skipped, candidate.Identifier)
			if !batch {
				// Duplicate resets the single-capture flow to retry-ready
				// with the message preserved.
				c.resetWith(epoch, StateAwaitingInput, err.Error())
				return ConfirmResult{}, err
			}
		default:
			c.fail(epoch, err)
			return ConfirmResult{}, err
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch != epoch {
		return ConfirmResult{}, ErrAbandoned
	}
	c.state = StatePersisted
	c.candidates = nil
	c.message = fmt.Sprintf("%d record(s) added", result.Added)
	return result, nil
}

// Retry discards any staged or in-flight work and returns the coordinator to
// awaiting-input. A recognition completing after this point is dropped.
func (c *Coordinator) Retry() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked(StateAwaitingInput)
}

// Reset returns the coordinator to idle, discarding in-flight work.
func (c *Coordinator) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked(StateIdle)
}

// bindFix resolves the coordinate fix for a confirm. A device-supplied fix
// wins; otherwise the provider is asked. Provider failure fails the attempt,
// except in the video batch path where a zero fix is the accepted degraded
// fallback so one unavailable fix cannot lose an entire batch.
func (c *Coordinator) bindFix(ctx context.Context, supplied *geo.Fix, batch bool) (geo.Fix, error) {
	if supplied != nil {
		return *supplied, nil
	}
	fix, err := c.deps.geo.CurrentFix(ctx)
	if err != nil {
		if batch {
			c.logger.Warn("location fix unavailable, recording batch at zero coordinates", logging.Error(err))
			return geo.Fix{}, nil
		}
		return geo.Fix{}, err
	}
	return fix, nil
}

func (c *Coordinator) stageLocked(identifiers []string, next State) {
	c.candidates = c.candidates[:0]
	for _, identifier := range identifiers {
		c.candidates = append(c.candidates, Candidate{
			Identifier: identifier,
			Duplicate:  c.deps.ledger.Contains(c.sessionID, identifier),
		})
	}
	c.state = next
}

func (c *Coordinator) resetLocked(to State) {
	c.epoch++
	c.state = to
	c.candidates = nil
	c.fix = nil
	c.imageRef = ""
	c.message = ""
}

func (c *Coordinator) resetWith(epoch uint64, to State, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch != epoch {
		return
	}
	c.state = to
	c.candidates = nil
	c.message = message
}

func (c *Coordinator) fail(epoch uint64, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch != epoch {
		return
	}
	c.state = StateErrored
	c.message = err.Error()
}

// setStateIfCurrent updates the visible state for progress display without
// disturbing an epoch that moved on.
func (c *Coordinator) setStateIfCurrent(state State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateSampling || c.state == StateRecognizing {
		c.state = state
	}
}
