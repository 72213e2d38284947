package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/gofrs/flock"

	"lotscan/internal/auditlog"
	"lotscan/internal/capture"
	"lotscan/internal/config"
	"lotscan/internal/geo"
	"lotscan/internal/locations"
	"lotscan/internal/logging"
	"lotscan/internal/media/frames"
	"lotscan/internal/recognition"
	"lotscan/internal/scanner"
	"lotscan/internal/session"
)

// Daemon coordinates the capture service and enforces single-instance execution.
type Daemon struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   *auditlog.Store
	manager *capture.Manager

	lockPath string
	lock     *flock.Flock
	api      *apiServer

	running atomic.Bool
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	AuditLogPath string
	LockFilePath string
	Sessions     []*capture.Session
}

// New constructs a daemon over an opened audit log store.
func New(cfg *config.Config, store *auditlog.Store, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil {
		return nil, errors.New("daemon requires config and store")
	}
	logger = logging.NewComponentLogger(logger, "daemon")

	ledger := session.NewLedger()
	recorder := scanner.NewRecorder(store, ledger, logger)
	provider := geo.NewFromConfig(cfg.Geolocation)
	sampler := capture.SamplerFunc(func(ctx context.Context, path string) ([][]byte, error) {
		return frames.Sample(ctx, path, frames.Options{
			FFmpegBinary:  cfg.Video.FFmpegBinary,
			FFprobeBinary: cfg.Video.FFprobeBinary,
			FrameCount:    cfg.Video.FrameCount,
			Quality:       cfg.Video.FrameQuality,
		})
	})
	manager := capture.NewManager(capture.ManagerOptions{
		Store:      store,
		Recorder:   recorder,
		Ledger:     ledger,
		Recognizer: recognition.NewClient(cfg.Recognition),
		Sampler:    sampler,
		Geo:        provider,
		Directory:  locations.NewConfigDirectory(cfg),
		Logger:     logger,
	})

	lockPath := filepath.Join(cfg.Paths.LogDir, "lotscand.lock")
	d := &Daemon{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		manager:  manager,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}
	d.api = newAPIServer(cfg, d, logger)
	return d, nil
}

// Manager exposes the capture session manager.
func (d *Daemon) Manager() *capture.Manager { return d.manager }

// APIAddr returns the bound API listener address, empty until Start.
func (d *Daemon) APIAddr() string { return d.api.Addr() }

// Start acquires the instance lock and brings up the HTTP API. It returns
// once the listener is accepting; the supplied context stops the server.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another lotscan daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	if err := d.api.start(runCtx); err != nil {
		_ = d.lock.Unlock()
		cancel()
		d.cancel = nil
		return err
	}

	d.running.Store(true)
	d.logger.Info("daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop shuts down the API server and releases the instance lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.api.stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("daemon stopped")
}

// Close stops the daemon and closes the store.
func (d *Daemon) Close() error {
	d.Stop()
	return d.store.Close()
}

// Status reports runtime information for the status endpoint and CLI.
func (d *Daemon) Status() Status {
	return Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		AuditLogPath: d.store.Path(),
		LockFilePath: d.lockPath,
		Sessions:     d.manager.Active(),
	}
}
