package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"studioq/internal/api"
	"studioq/internal/config"
)

// Daemon coordinates the API server and background maintenance and enforces
// single-instance execution.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger
	svc    *api.Service

	lockPath string
	lock     *flock.Flock
	server   *apiServer

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
	sweep   chan struct{}
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	StoreBackend string
	StorePath    string
	ArchivePath  string
	APIBind      string
	LockFilePath string
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, svc *api.Service, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || svc == nil || logger == nil {
		return nil, errors.New("daemon requires config, service, and logger")
	}

	lockPath := filepath.Join(cfg.Paths.DataDir, "studioqd.lock")
	return &Daemon{
		cfg:      cfg,
		logger:   logger,
		svc:      svc,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the daemon lock, reconciles interrupted archive moves, and
// launches the API server and retention sweep.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another studioq daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)

	if dropped, err := d.svc.Reconcile(d.ctx); err != nil {
		d.release()
		return fmt.Errorf("reconcile stores: %w", err)
	} else if dropped > 0 {
		d.logger.Info("startup reconcile dropped duplicated jobs", slog.Int("jobs", dropped))
	}

	server, err := newAPIServer(d.cfg, d, d.logger)
	if err != nil {
		d.release()
		return err
	}
	d.server = server
	if err := d.server.start(d.ctx); err != nil {
		d.release()
		return err
	}

	d.startSweep()

	d.running.Store(true)
	d.logger.Info("studioq daemon started", slog.String("lock", d.lockPath))
	return nil
}

// Stop stops background processing and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if d.server != nil {
		d.server.stop()
		d.server = nil
	}
	if d.sweep != nil {
		<-d.sweep
		d.sweep = nil
	}
	d.release()
	d.running.Store(false)
	d.logger.Info("studioq daemon stopped")
}

// Status reports runtime information.
func (d *Daemon) Status() Status {
	return Status{
		Running:      d.running.Load(),
		StoreBackend: d.cfg.Store.Backend,
		StorePath:    d.cfg.ActiveStorePath(),
		ArchivePath:  d.cfg.ArchiveStorePath(),
		APIBind:      d.cfg.Paths.APIBind,
		LockFilePath: d.lockPath,
	}
}

// APIAddr returns the bound API address, or empty when the server is off.
// Useful when the configured bind uses port 0.
func (d *Daemon) APIAddr() string {
	if d.server == nil {
		return ""
	}
	return d.server.addr()
}

func (d *Daemon) release() {
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", slog.String("error", err.Error()))
	}
	d.ctx = nil
}

// startSweep launches the archive retention loop when configured. A sweep
// interval of zero leaves archival entirely caller-driven.
func (d *Daemon) startSweep() {
	interval := time.Duration(d.cfg.Archive.SweepInterval) * time.Second
	if interval <= 0 {
		return
	}
	retention := time.Duration(d.cfg.Archive.RetentionDays) * 24 * time.Hour

	done := make(chan struct{})
	d.sweep = done
	ctx := d.ctx

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				moved, err := d.svc.ArchiveExpired(ctx, retention)
				if err != nil {
					d.logger.Error("archive sweep failed", slog.String("error", err.Error()))
					continue
				}
				if moved > 0 {
					d.logger.Info("archive sweep moved terminal jobs", slog.Int("jobs", moved))
				}
			}
		}
	}()
}
