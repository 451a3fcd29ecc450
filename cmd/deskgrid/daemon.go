package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/1broseidon/deskgrid/internal/config"
	"github.com/1broseidon/deskgrid/internal/daemon"
	"github.com/1broseidon/deskgrid/internal/desktopdir"
	"github.com/1broseidon/deskgrid/internal/hotkeys"
	"github.com/1broseidon/deskgrid/internal/ipc"
	"github.com/1broseidon/deskgrid/internal/platform"
)

func runDaemon(args []string) int {
	fs := newFlagSet("daemon", "deskgrid daemon [--path PATH] [--screens LIST]",
		"Lay out the desktop directory across all screens and serve IPC requests (foreground).")
	path := fs.String("path", "", "Config file path (default: ~/.config/deskgrid/config.yaml)")
	screens := fs.String("screens", "", "Use a fixed screen list instead of X11, e.g. eDP-1*:1920x1080+0+0,HDMI-1:2560x1440+1920+0")
	if code := parseNoArgs(fs, "daemon", args); code >= 0 {
		return code
	}

	res, err := loadConfig(*path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return 1
	}
	cfg := res.Config

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)
	applyDisplayEnv(cfg)

	backend, err := openBackend(cfg, *screens)
	if err != nil {
		logger.Error("failed to connect to display", "error", err)
		return 1
	}
	defer backend.Disconnect()

	d, err := daemon.NewDesktop(daemon.Options{
		Config:  cfg,
		Backend: backend,
		Logger:  logger,
		LoadConfig: func() (*config.Config, error) {
			res, err := loadConfig(*path)
			if err != nil {
				return nil, err
			}
			return res.Config, nil
		},
	})
	if err != nil {
		logger.Error("failed to initialise desktop", "error", err)
		return 1
	}
	logger.Info("deskgrid daemon starting", "desktop_dir", d.Dir(), "zoom", cfg.Zoom().String(), "files", res.Files)

	if h, err := hotkeys.NewHandler(backend, logger.With("component", "hotkeys")); err != nil {
		logger.Warn("global hotkeys unavailable", "error", err)
	} else if err := h.Bind(cfg.Hotkeys, hotkeys.Actions{
		ZoomIn:  func() { d.ZoomIn() },
		ZoomOut: func() { d.ZoomOut() },
		Refresh: d.Refresh,
	}); err != nil {
		logger.Warn("failed to register hotkeys", "error", err)
	}

	server, err := ipc.NewServer(daemon.Controller(d), logger.With("component", "ipc"))
	if err != nil {
		logger.Error("failed to create IPC server", "error", err)
		return 1
	}

	opts := daemon.RunOptions{
		Watcher: desktopdir.NewWatcher(d.Dir(), 0, logger.With("component", "watcher")),
		Server:  server,
		Logger:  logger,
	}
	if interval := cfg.RescanInterval(); interval > 0 {
		opts.Reconciler = daemon.NewReconciler(daemon.ReconcilerConfig{
			Interval: interval,
			Logger:   logger.With("component", "reconciler"),
		}, d)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go reloadOnHangup(ctx, d, logger)

	if err := daemon.Run(ctx, d, opts); err != nil {
		logger.Error("daemon failed", "error", err)
		return 1
	}
	return 0
}

func openBackend(cfg *config.Config, screens string) (platform.Backend, error) {
	if screens != "" {
		displays, err := platform.ParseDisplays(screens)
		if err != nil {
			return nil, err
		}
		return platform.NewStaticBackend(displays), nil
	}
	backend, err := platform.NewLinuxBackendFromDisplay(cfg.Display)
	if err != nil {
		return nil, err
	}
	return backend, nil
}

func applyDisplayEnv(cfg *config.Config) {
	if cfg.Display != "" {
		os.Setenv("DISPLAY", cfg.Display)
	}
	if cfg.XAuthority != "" {
		os.Setenv("XAUTHORITY", cfg.XAuthority)
	}
}

func reloadOnHangup(ctx context.Context, d *daemon.Desktop, logger *slog.Logger) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			logger.Info("received SIGHUP, reloading config")
			if err := d.Reload(); err != nil {
				logger.Warn("config reload failed", "error", err)
			}
		}
	}
}
