// Package main boots the watch shop TCP server.
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/mkrishnan-dev/watch-shop-server/internal/config"
	"github.com/mkrishnan-dev/watch-shop-server/internal/obs"
	"github.com/mkrishnan-dev/watch-shop-server/internal/persist"
	"github.com/mkrishnan-dev/watch-shop-server/internal/server"
	"github.com/mkrishnan-dev/watch-shop-server/internal/store"
)

func main() {
	app := &cli.App{
		Name:  "watch-shop-server",
		Usage: "text-protocol TCP server for the watch shop",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Usage: "listen address (overrides LISTEN_ADDR)"},
			&cli.StringFlag{Name: "data-dir", Usage: "directory for persisted files (overrides DATA_DIR)"},
			&cli.DurationFlag{Name: "shutdown-timeout", Usage: "graceful shutdown budget (overrides SHUTDOWN_TIMEOUT)"},
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if v := c.String("addr"); v != "" {
		cfg.ListenAddr = v
	}
	if v := c.String("data-dir"); v != "" {
		cfg.DataDir = v
	}
	if v := c.Duration("shutdown-timeout"); v > 0 {
		cfg.ShutdownTimeout = v
	}

	obs.InitLogger()
	obs.Logger.Info("service_starting")

	st := store.New(store.DefaultCatalog())
	files := persist.NewFileStore(cfg.DataDir)
	if err := st.Load(files); err != nil {
		// Best-effort at startup: corrupt files are skipped, not fatal.
		obs.Logger.Warn("startup_load_failed", "error", err)
	}

	srv := server.New(cfg, st, files)
	lis, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.ListenAddr, err)
	}
	obs.Logger.Info("tcp_listen", "addr", lis.Addr().String())

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(lis) }()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errc:
		return err
	case sig := <-sigc:
		obs.Logger.Info("shutdown_signal", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		obs.Logger.Warn("shutdown_forced", "error", err)
	}
	obs.Logger.Info("service_stopped")
	return nil
}
