package daemon

import (
	"context"
	"log/slog"
	"time"

	"github.com/1broseidon/deskgrid/internal/desktopdir"
	"github.com/1broseidon/deskgrid/internal/ipc"
	"golang.org/x/sync/errgroup"
)

// DefaultTopologyDebounce groups the burst of RandR notifications one hotplug
// produces.
const DefaultTopologyDebounce = 200 * time.Millisecond

// RunOptions select the services supervised by Run. Nil services are skipped.
type RunOptions struct {
	Watcher          *desktopdir.Watcher
	Reconciler       *Reconciler
	Server           *ipc.Server
	TopologyDebounce time.Duration
	Logger           *slog.Logger
}

// Run performs the initial topology sync and scan, then supervises the
// watcher, reconciler, IPC server, topology updates and the backend event
// loop until ctx is done or one of them fails. The layout is committed on
// the way out.
func Run(ctx context.Context, d *Desktop, opts RunOptions) error {
	logger := opts.Logger
	if logger == nil {
		logger = d.logger
	}
	debounce := opts.TopologyDebounce
	if debounce <= 0 {
		debounce = DefaultTopologyDebounce
	}

	if err := d.SyncTopology(); err != nil {
		return err
	}
	if _, err := d.Rescan(); err != nil {
		return err
	}
	if err := d.backend.WatchDisplays(d.TopologyChanged); err != nil {
		logger.Warn("screen change notifications unavailable", "error", err)
	}

	g, ctx := errgroup.WithContext(ctx)

	if opts.Watcher != nil {
		g.Go(func() error {
			return opts.Watcher.Run(ctx, func() {
				if _, err := d.Rescan(); err != nil {
					logger.Warn("rescan failed", "error", err)
				}
			})
		})
	}
	if opts.Reconciler != nil {
		g.Go(func() error {
			opts.Reconciler.Run(ctx)
			return nil
		})
	}
	if opts.Server != nil {
		g.Go(func() error {
			return opts.Server.Serve(ctx)
		})
	}
	g.Go(func() error {
		d.topologyLoop(ctx, debounce, logger)
		return nil
	})
	g.Go(func() error {
		go d.backend.EventLoop()
		<-ctx.Done()
		d.backend.Quit()
		return nil
	})

	err := g.Wait()
	if cerr := d.Close(); cerr != nil && err == nil {
		err = cerr
	}
	logger.Info("daemon stopped")
	return err
}

func (d *Desktop) topologyLoop(ctx context.Context, debounce time.Duration, logger *slog.Logger) {
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return
		case <-d.topology:
			fire = time.After(debounce)
		case <-fire:
			fire = nil
			if err := d.SyncTopology(); err != nil {
				logger.Warn("topology sync failed", "error", err)
			}
		}
	}
}
