package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"marquee/internal/catalog"
	"marquee/internal/config"
	"marquee/internal/enrichment"
	"marquee/internal/logging"
	"marquee/internal/preflight"
	"marquee/internal/store"
)

// Monitor is the connectivity signal the daemon drives.
type Monitor interface {
	Start(ctx context.Context) error
	Stop()
	Online() bool
	Restored() <-chan struct{}
}

// Daemon keeps the catalog enriched and restarts enrichment on reconnect.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *store.Store
	enricher *enrichment.Orchestrator
	monitor  Monitor
	base     []catalog.Entity

	lockPath string
	lock     *flock.Flock

	mu      sync.Mutex
	running atomic.Bool
	cancel  context.CancelFunc
	done    chan struct{}
	started time.Time
}

// Status represents daemon runtime information.
type Status struct {
	Running       bool
	Online        bool
	Loading       bool
	Progress      int
	RunID         string
	Entities      int
	LastPublished time.Time
	Uptime        time.Duration
	DatabasePath  string
	LockFilePath  string
}

// New constructs a daemon and loads the configured catalog. The store may be
// nil for a cache-less watcher.
func New(cfg *config.Config, st *store.Store, enricher *enrichment.Orchestrator, monitor Monitor, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || enricher == nil || monitor == nil {
		return nil, errors.New("daemon requires config, orchestrator, and connectivity monitor")
	}
	base, err := catalog.Load(cfg.Paths.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	return &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    st,
		enricher: enricher,
		monitor:  monitor,
		base:     base,
		lockPath: cfg.LockPath(),
	}, nil
}

// Start acquires the cache lock, starts the connectivity monitor and begins
// watching.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	lock, err := AcquireLock(d.lockPath)
	if err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := d.monitor.Start(runCtx); err != nil {
		cancel()
		_ = lock.Unlock()
		return fmt.Errorf("start connectivity monitor: %w", err)
	}

	for _, result := range preflight.Failed(preflight.RunLocal(d.cfg)) {
		logging.WarnWithContext(d.logger, "preflight check failed", "preflight_failed",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail),
			logging.String(logging.FieldImpact, "enrichment may fall back to uncached data"),
		)
	}

	d.lock = lock
	d.cancel = cancel
	d.done = make(chan struct{})
	d.started = time.Now()
	d.running.Store(true)

	go func(done chan struct{}) {
		defer close(done)
		err := d.enricher.Watch(runCtx, d.base, d.monitor.Restored())
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.ErrorWithContext(d.logger, "enrichment watcher stopped", "watch_failed", logging.Error(err))
		}
	}(d.done)

	d.logger.Info("marquee daemon started",
		logging.String(logging.FieldEventType, "daemon_started"),
		logging.String("lock", d.lockPath),
		logging.Int("entities", len(d.base)),
		logging.Bool("online", d.monitor.Online()),
	)
	return nil
}

// Stop ends watching, stops the monitor and releases the lock.
func (d *Daemon) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.running.Load() {
		return
	}

	d.cancel()
	<-d.done
	d.monitor.Stop()
	if err := d.lock.Unlock(); err != nil {
		logging.WarnWithContext(d.logger, "failed to release daemon lock", "lock_release_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "remove "+d.lockPath+" if no marquee process is running"),
		)
	}
	d.cancel, d.done, d.lock = nil, nil, nil
	d.running.Store(false)
	d.logger.Info("marquee daemon stopped", logging.String(logging.FieldEventType, "daemon_stopped"))
}

// Close stops the daemon and releases the orchestrator and store.
func (d *Daemon) Close() error {
	d.Stop()
	d.enricher.Close()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Status returns the current daemon status.
func (d *Daemon) Status() Status {
	view := d.enricher.View()
	status := Status{
		Running:       d.running.Load(),
		Online:        d.monitor.Online(),
		Loading:       view.Loading,
		Progress:      view.Progress,
		RunID:         view.RunID,
		Entities:      len(view.Entities),
		LastPublished: view.PublishedAt,
		LockFilePath:  d.lockPath,
	}
	if d.store != nil {
		status.DatabasePath = d.store.Path()
	}
	d.mu.Lock()
	if status.Running && !d.started.IsZero() {
		status.Uptime = time.Since(d.started)
	}
	d.mu.Unlock()
	return status
}
