package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/adriangreen/taskboard/internal/logging"
	"github.com/adriangreen/taskboard/internal/storage"
	"github.com/adriangreen/taskboard/internal/taskapi/taskapitest"
)

const shutdownTimeout = 5 * time.Second

type mockServerOptions struct {
	addr    string
	seed    []string
	latency time.Duration
	dataDir string
}

// newMockServerCommand serves an in-memory task service for local use.
func newMockServerCommand() *cobra.Command {
	opts := &mockServerOptions{}

	cmd := &cobra.Command{
		Use:   "mock-server",
		Short: "Run an in-memory task service",
		Long: `Run an in-memory implementation of the task REST service on --addr.
Tasks live only as long as the process unless --data-dir names a
directory, in which case they are kept in a BadgerDB database there.
Useful for trying TaskBoard without a backend.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			level, _ := cmd.Flags().GetString("log-level")
			if level == "" {
				level = "info"
			}
			lvl, err := log.ParseLevel(level)
			if err != nil {
				return fmt.Errorf("invalid --log-level: %w", err)
			}
			logger := logging.New(cmd.ErrOrStderr(), lvl)

			ln, err := net.Listen("tcp", opts.addr)
			if err != nil {
				return fmt.Errorf("listen on %s: %w", opts.addr, err)
			}
			return serveMock(ctx, ln, opts, logger)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", ":3000", "Listen address")
	cmd.Flags().StringSliceVar(&opts.seed, "seed", nil, "Titles of tasks to start with")
	cmd.Flags().DurationVar(&opts.latency, "latency", 0, "Artificial delay added to every request")
	cmd.Flags().StringVar(&opts.dataDir, "data-dir", "", "Keep tasks in a BadgerDB database in this directory")

	return cmd
}

// openMockStore returns the store for the mock service and a func releasing
// it. Seed titles are only added to an empty store.
func openMockStore(ctx context.Context, opts *mockServerOptions, logger *log.Logger) (*taskapitest.Store, func() error, error) {
	store := taskapitest.NewStore()
	closeFn := func() error { return nil }

	if opts.dataDir != "" {
		db, err := storage.OpenBadger(opts.dataDir)
		if err != nil {
			return nil, nil, err
		}
		store, err = taskapitest.OpenStore(ctx, db)
		if err != nil {
			db.Close()
			return nil, nil, err
		}

		gcCtx, stopGC := context.WithCancel(ctx)
		go db.RunGC(gcCtx)
		closeFn = func() error {
			stopGC()
			return db.Close()
		}
		logger.Info("loaded stored tasks", "dir", opts.dataDir, "count", store.Len())
	}

	if store.Len() == 0 {
		for _, title := range opts.seed {
			if _, err := store.Create(title, false); err != nil {
				closeFn()
				return nil, nil, fmt.Errorf("seed %q: %w", title, err)
			}
		}
	}
	store.SetLatency(opts.latency)
	return store, closeFn, nil
}

// serveMock serves the mock handler on ln until ctx is done.
func serveMock(ctx context.Context, ln net.Listener, opts *mockServerOptions, logger *log.Logger) error {
	store, closeStore, err := openMockStore(ctx, opts, logger)
	if err != nil {
		ln.Close()
		return err
	}
	defer closeStore()

	srv := &http.Server{
		Handler:           taskapitest.NewHandler(store, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	logger.Info("mock task service listening", "addr", ln.Addr().String(), "tasks", store.Len())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("mock server shutdown", "err", err)
	}
	logger.Info("mock task service stopped")
	return nil
}
