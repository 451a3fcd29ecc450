package daemon

import (
	"context"
	"log/slog"
	"time"

	"github.com/1broseidon/deskgrid/internal/desktopdir"
)

// Rescanner brings an item model up to date.
type Rescanner interface {
	Rescan() (desktopdir.Change, error)
}

// ReconcilerConfig holds configuration for the reconciler.
type ReconcilerConfig struct {
	Interval time.Duration
	Logger   *slog.Logger
}

// Reconciler periodically rescans the desktop directory to pick up changes
// the file watcher missed.
type Reconciler struct {
	interval time.Duration
	target   Rescanner
	logger   *slog.Logger
}

// NewReconciler creates a new reconciler with the given configuration.
func NewReconciler(cfg ReconcilerConfig, target Rescanner) *Reconciler {
	interval := cfg.Interval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Reconciler{
		interval: interval,
		target:   target,
		logger:   logger,
	}
}

// Run starts the reconciliation loop. Blocks until context is cancelled.
func (r *Reconciler) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("reconciler started", "interval", r.interval)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("reconciler stopped")
			return
		case <-ticker.C:
			r.reconcile()
		}
	}
}

// reconcile performs a single reconciliation pass.
func (r *Reconciler) reconcile() {
	// Recover from panics to prevent crashing the daemon
	defer func() {
		if err := recover(); err != nil {
			r.logger.Error("reconciler panic recovered", "error", err)
		}
	}()

	change, err := r.target.Rescan()
	if err != nil {
		r.logger.Error("reconciler: rescan failed", "error", err)
		return
	}
	if !change.Empty() {
		r.logger.Info("reconciler: picked up missed changes",
			"removed", change.Removed,
			"inserted", change.Inserted)
	}
}

// ReconcileNow triggers an immediate reconciliation pass.
func (r *Reconciler) ReconcileNow() {
	r.reconcile()
}
