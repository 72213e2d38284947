package capture_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lotscan/internal/auditlog"
	"lotscan/internal/capture"
	"lotscan/internal/geo"
	"lotscan/internal/identity"
	"lotscan/internal/locations"
	"lotscan/internal/logging"
	"lotscan/internal/recognition"
	"lotscan/internal/scanner"
	"lotscan/internal/session"
	"lotscan/internal/testsupport"
	"lotscan/internal/vin"
)

type fakeRecognizer struct {
	text    string
	err     error
	release chan struct{} // when set, Recognize blocks until closed
	calls   int
}

func (f *fakeRecognizer) Recognize(ctx context.Context, images [][]byte, prompt string) (string, error) {
	f.calls++
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.text, f.err
}

type fakeGeo struct {
	fix geo.Fix
	err error
}

func (f fakeGeo) CurrentFix(context.Context) (geo.Fix, error) { return f.fix, f.err }

type harness struct {
	manager *capture.Manager
	store   *auditlog.Store
	ledger  *session.Ledger
	recog   *fakeRecognizer
}

func newHarness(t *testing.T, recog *fakeRecognizer, provider geo.Provider) *harness {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ledger := session.NewLedger()
	if provider == nil {
		provider = fakeGeo{fix: geo.Fix{Latitude: 42.33, Longitude: -83.04}}
	}
	manager := capture.NewManager(capture.ManagerOptions{
		Store:      store,
		Recorder:   scanner.NewRecorder(store, ledger, logging.NewNop()),
		Ledger:     ledger,
		Recognizer: recog,
		Sampler: capture.SamplerFunc(func(ctx context.Context, path string) ([][]byte, error) {
			return [][]byte{{0x01}, {0x02}}, nil
		}),
		Geo:       provider,
		Directory: locations.NewConfigDirectory(cfg),
		Logger:    logging.NewNop(),
	})
	return &harness{manager: manager, store: store, ledger: ledger, recog: recog}
}

func auditor() identity.Context {
	return identity.Context{UserID: "u-100", UserEmail: "auditor@example.com"}
}

func TestManualEntryScenario(t *testing.T) {
	h := newHarness(t, &fakeRecognizer{}, nil)
	ctx := context.Background()

	sess, err := h.manager.Start(ctx, "Dock 7", auditor())
	require.NoError(t, err)
	assert.Equal(t, "Dock 7", sess.Location)

	coordinator, err := sess.Coordinator(auditlog.MethodManual)
	require.NoError(t, err)
	require.NoError(t, coordinator.Begin())

	// First entry persists.
	require.NoError(t, coordinator.Submit(ctx, capture.Input{Text: "1G1FW1R77J4100000"}))
	assert.Equal(t, capture.StateConfirming, coordinator.Snapshot().State)
	result, err := coordinator.Confirm(ctx)
	require.NoError(t, err)
	require.Len(t, result.Records, 1)
	assert.Equal(t, "1G1FW1R77J4100000", result.Records[0].VIN)
	assert.Equal(t, 42.33, result.Records[0].Latitude)

	// Same identifier again is a duplicate; the flow resets to retry-ready
	// with the message preserved and the session size stays 1.
	require.NoError(t, coordinator.Begin())
	require.NoError(t, coordinator.Submit(ctx, capture.Input{Text: "1G1FW1R77J4100000"}))
	assert.True(t, coordinator.Snapshot().Candidates[0].Duplicate, "pre-check flags the duplicate before commit")
	_, err = coordinator.Confirm(ctx)
	require.ErrorIs(t, err, scanner.ErrDuplicateIdentifier)
	snap := coordinator.Snapshot()
	assert.Equal(t, capture.StateAwaitingInput, snap.State)
	assert.NotEmpty(t, snap.Message)

	// Malformed entry is rejected before confirmation.
	var invalid *vin.InvalidIdentifierError
	err = coordinator.Submit(ctx, capture.Input{Text: "SHORT123"})
	require.ErrorAs(t, err, &invalid)

	count, err := h.store.CountBySession(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestCameraCaptureRecognizesAndPersists(t *testing.T) {
	h := newHarness(t, &fakeRecognizer{text: "1G1FW1R77J4100001.\n"}, nil)
	ctx := context.Background()

	sess, err := h.manager.Start(ctx, "dock 7", auditor())
	require.NoError(t, err)
	assert.Equal(t, "Dock 7", sess.Location, "location name is canonicalized")

	coordinator, err := sess.Coordinator(auditlog.MethodCamera)
	require.NoError(t, err)
	require.NoError(t, coordinator.Begin())
	require.NoError(t, coordinator.Submit(ctx, capture.Input{Image: []byte{0xff}, ImageRef: "media/cam-001.jpg"}))

	result, err := coordinator.Confirm(ctx)
	require.NoError(t, err)
	require.Len(t, result.Records, 1)
	assert.Equal(t, "1G1FW1R77J4100001", result.Records[0].VIN)
	assert.Equal(t, "media/cam-001.jpg", result.Records[0].ImageRef)
	assert.Equal(t, auditlog.MethodCamera, result.Records[0].Method)
	assert.Equal(t, capture.StatePersisted, coordinator.Snapshot().State)
}

func TestRecognitionFailureReturnsToAwaitingInput(t *testing.T) {
	h := newHarness(t, &fakeRecognizer{err: recognition.ErrUnavailable}, nil)
	ctx := context.Background()

	sess, err := h.manager.Start(ctx, "Dock 7", auditor())
	require.NoError(t, err)
	coordinator, _ := sess.Coordinator(auditlog.MethodUpload)
	require.NoError(t, coordinator.Begin())

	err = coordinator.Submit(ctx, capture.Input{Image: []byte{0xff}})
	require.ErrorIs(t, err, recognition.ErrUnavailable)
	assert.Equal(t, capture.StateAwaitingInput, coordinator.Snapshot().State)

	count, err := h.store.CountBySession(ctx, sess.ID)
	require.NoError(t, err)
	assert.Zero(t, count, "no partial persistence on recognition failure")
}

func TestAbandonDiscardsInFlightRecognition(t *testing.T) {
	recog := &fakeRecognizer{text: "1G1FW1R77J4100002", release: make(chan struct{})}
	h := newHarness(t, recog, nil)
	ctx := context.Background()

	sess, err := h.manager.Start(ctx, "Dock 7", auditor())
	require.NoError(t, err)
	coordinator, _ := sess.Coordinator(auditlog.MethodCamera)
	require.NoError(t, coordinator.Begin())

	done := make(chan error, 1)
	go func() {
		done <- coordinator.Submit(ctx, capture.Input{Image: []byte{0xff}})
	}()

	// Operator navigates away while recognition is in flight.
	require.Eventually(t, func() bool {
		return coordinator.Snapshot().State == capture.StateRecognizing
	}, time.Second, 5*time.Millisecond)
	coordinator.Retry()
	close(recog.release)

	require.ErrorIs(t, <-done, capture.ErrAbandoned)
	snap := coordinator.Snapshot()
	assert.Equal(t, capture.StateAwaitingInput, snap.State)
	assert.Empty(t, snap.Candidates, "stale result never staged")
	assert.False(t, h.ledger.Contains(sess.ID, "1G1FW1R77J4100002"))
}

func TestVideoBatchPersistsNonDuplicates(t *testing.T) {
	recog := &fakeRecognizer{text: `["1G1FW1R77J4100000","1G1FW1R77J4100001","1G1FW1R77J410"]`}
	h := newHarness(t, recog, nil)
	ctx := context.Background()

	sess, err := h.manager.Start(ctx, "Dock 7", auditor())
	require.NoError(t, err)

	// One identifier is already in the session.
	manual, _ := sess.Coordinator(auditlog.MethodManual)
	require.NoError(t, manual.Begin())
	require.NoError(t, manual.Submit(ctx, capture.Input{Text: "1G1FW1R77J4100000"}))
	_, err = manual.Confirm(ctx)
	require.NoError(t, err)

	video, _ := sess.Coordinator(auditlog.MethodVideo)
	require.NoError(t, video.Begin())
	require.NoError(t, video.Submit(ctx, capture.Input{VideoPath: "walkaround.mp4"}))

	snap := video.Snapshot()
	require.Equal(t, capture.StateReviewing, snap.State)
	require.Len(t, snap.Candidates, 3)
	assert.True(t, snap.Candidates[0].Duplicate)
	assert.False(t, snap.Candidates[1].Duplicate)

	result, err := video.Confirm(ctx)
	require.NoError(t, err, "duplicates never abort a batch")
	assert.Equal(t, 2, result.Added)
	assert.Equal(t, []string{"1G1FW1R77J4100000"}, result.Skipped)

	count, err := h.store.CountBySession(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, count, "pre-existing plus two new")
}

func TestVideoBatchDegradesToZeroFix(t *testing.T) {
	recog := &fakeRecognizer{text: `["1G1FW1R77J4100005"]`}
	h := newHarness(t, recog, fakeGeo{err: geo.ErrUnavailable})
	ctx := context.Background()

	sess, err := h.manager.Start(ctx, "Dock 7", auditor())
	require.NoError(t, err)
	video, _ := sess.Coordinator(auditlog.MethodVideo)
	require.NoError(t, video.Begin())
	require.NoError(t, video.Submit(ctx, capture.Input{VideoPath: "walkaround.mp4"}))

	result, err := video.Confirm(ctx)
	require.NoError(t, err)
	require.Len(t, result.Records, 1)
	assert.Zero(t, result.Records[0].Latitude)
	assert.Zero(t, result.Records[0].Longitude)
}

func TestSingleCaptureFailsWithoutFix(t *testing.T) {
	h := newHarness(t, &fakeRecognizer{}, fakeGeo{err: geo.ErrUnavailable})
	ctx := context.Background()

	sess, err := h.manager.Start(ctx, "Dock 7", auditor())
	require.NoError(t, err)
	manual, _ := sess.Coordinator(auditlog.MethodManual)
	require.NoError(t, manual.Begin())
	require.NoError(t, manual.Submit(ctx, capture.Input{Text: "1G1FW1R77J4100000"}))

	_, err = manual.Confirm(ctx)
	require.ErrorIs(t, err, geo.ErrUnavailable)
	assert.Equal(t, capture.StateErrored, manual.Snapshot().State)

	count, err := h.store.CountBySession(ctx, sess.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestSuppliedFixWinsOverProvider(t *testing.T) {
	h := newHarness(t, &fakeRecognizer{}, fakeGeo{err: geo.ErrUnavailable})
	ctx := context.Background()

	sess, err := h.manager.Start(ctx, "Dock 7", auditor())
	require.NoError(t, err)
	manual, _ := sess.Coordinator(auditlog.MethodManual)
	require.NoError(t, manual.Begin())
	require.NoError(t, manual.Submit(ctx, capture.Input{
		Text: "1G1FW1R77J4100000",
		Fix:  &geo.Fix{Latitude: 40.71, Longitude: -74.0},
	}))

	result, err := manual.Confirm(ctx)
	require.NoError(t, err)
	assert.Equal(t, 40.71, result.Records[0].Latitude)
}

func TestStartRejectsInactiveLocation(t *testing.T) {
	h := newHarness(t, &fakeRecognizer{}, nil)

	_, err := h.manager.Start(context.Background(), "Retired Lot", auditor())
	require.ErrorIs(t, err, locations.ErrUnknownLocation)
}

func TestFinishSnapshotsAndReleasesSession(t *testing.T) {
	h := newHarness(t, &fakeRecognizer{}, nil)
	ctx := context.Background()

	sess, err := h.manager.Start(ctx, "Dock 7", auditor())
	require.NoError(t, err)
	manual, _ := sess.Coordinator(auditlog.MethodManual)
	require.NoError(t, manual.Begin())
	require.NoError(t, manual.Submit(ctx, capture.Input{Text: "1G1FW1R77J4100000"}))
	_, err = manual.Confirm(ctx)
	require.NoError(t, err)

	summary, err := h.manager.Finish(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, summary.SessionID)
	assert.Equal(t, "Dock 7", summary.Location)
	require.Len(t, summary.Records, 1)

	_, err = h.manager.Get(sess.ID)
	require.ErrorIs(t, err, capture.ErrUnknownSession)
	assert.Zero(t, h.ledger.Count(sess.ID), "ledger is per-session, dropped at finish")
}
