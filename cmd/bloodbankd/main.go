package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"bloodbank/internal/adapters/httpapi"
	"bloodbank/internal/archive"
	"bloodbank/internal/blob"
	"bloodbank/internal/core"
	"bloodbank/internal/platform/config"
	"bloodbank/internal/platform/httpserver"
	"bloodbank/internal/platform/logger"
	"bloodbank/internal/platform/metrics"
	"bloodbank/internal/platform/tracing"
)

const shutdownTimeout = 10 * time.Second

// main wires configuration, storage and the HTTP API, then blocks until a
// signal arrives.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}
	zl, err := logger.NewLogger(cfg.LogLevel, cfg.LogFormat, cfg.ServiceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(2)
	}
	defer func() { _ = zl.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, zl, nil); err != nil {
		zl.Error("bloodbankd stopped", zap.Error(err))
		os.Exit(1)
	}
}

// run serves until ctx is cancelled. When ready is non-nil it receives the
// bound listener address once the server accepts connections.
func run(ctx context.Context, cfg config.Config, zl *zap.Logger, ready chan<- string) error {
	log := logger.Adapt(zl)

	store, err := core.OpenSnapshotStore(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("open snapshot store: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	svc := core.NewService(store,
		core.WithLogger(log),
		core.WithMetricsRecorder(m),
		core.WithTracer(tracing.New(nil)),
		core.WithInventoryObserver(m),
		core.WithExpiryWarningDays(cfg.ExpiryWarningDays),
		core.WithCascadePolicy(cfg.CascadePolicy),
	)
	defer func() {
		if err := svc.Close(); err != nil {
			log.Warn("close snapshot store", "error", err)
		}
	}()
	if err := svc.Load(ctx); err != nil {
		log.Warn("initial sweep not persisted", "error", err)
	}

	var archiver *archive.Archiver
	if blobs, err := blob.Open(ctx, cfg.Archive); err != nil {
		log.Warn("archive storage unavailable", "driver", string(cfg.Archive.Driver), "error", err)
	} else {
		archiver = archive.New(blobs, cfg.ArchivePrefix, nil)
	}

	router := httpapi.Router(httpapi.New(svc, archiver, log), m.Handler())
	srv := httpserver.New(cfg.Addr, router)
	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.Addr, err)
	}
	log.Info("bloodbankd listening", "addr", ln.Addr().String(), "storage", string(cfg.Storage.Driver))
	if ready != nil {
		ready <- ln.Addr().String()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		runSweeper(gctx, svc, cfg.SweepInterval, log)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// runSweeper expires stale units every interval until ctx is done.
func runSweeper(ctx context.Context, svc *core.Service, interval time.Duration, log core.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			swept, err := svc.SweepExpired(ctx)
			if err != nil {
				log.Error("expiry sweep not persisted", "swept", len(swept), "error", err)
			}
		}
	}
}
