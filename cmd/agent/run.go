package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fystack/depined-agent/internal/account"
	"github.com/fystack/depined-agent/internal/agent"
	"github.com/fystack/depined-agent/internal/metrics"
	"github.com/fystack/depined-agent/internal/worker"
	"github.com/fystack/depined-agent/pkg/common/logger"
)

type RunCmd struct {
	AccountFlags
}

func (c *RunCmd) Run() error {
	cfg, err := c.load()
	if err != nil {
		return err
	}

	bindings, err := agent.CollectBindings(cfg, c.sources())
	if errors.Is(err, account.ErrNoAccounts) {
		logger.Fatal("No accounts configured, nothing to run")
	}
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	if cfg.Metrics.Listen != "" {
		srv := serveMetrics(cfg.Metrics.Listen, m)
		defer shutdownServer(srv)
	}

	emitter := agent.NewEmitter(cfg)

	manager, err := worker.NewManager(ctx, worker.ManagerDeps{
		NewAPI:   agent.NewAPIFactory(cfg, m, logger.L()),
		Emitter:  emitter,
		Metrics:  m,
		Schedule: agent.WorkerSchedule(cfg),
		Stagger:  cfg.Schedule.Stagger,
	}, bindings)
	if err != nil {
		emitter.Close()
		return err
	}

	logger.Info("Agent is running... Press Ctrl+C to stop",
		"accounts", len(bindings),
		"workers", manager.Len(),
	)
	manager.Start()

	<-ctx.Done()
	logger.Info("Shutting down")
	manager.Stop()

	for _, s := range manager.Snapshots() {
		logger.Info("Worker summary",
			"account", s.Account,
			"proxy", s.ProxyEndpoint,
			"last_ping", s.LastPing,
			"last_earnings", s.LastEarnings,
		)
	}
	logger.Info("Agent stopped")
	return nil
}

func serveMetrics(addr string, m *metrics.Metrics) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		logger.Info("Serving metrics", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server failed", "err", err)
		}
	}()
	return srv
}

func shutdownServer(srv *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn("Metrics server shutdown failed", "err", err)
	}
}
