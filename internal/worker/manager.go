package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fystack/depined-agent/internal/account"
	"github.com/fystack/depined-agent/internal/metrics"
	"github.com/fystack/depined-agent/pkg/common/constant"
	"github.com/fystack/depined-agent/pkg/common/logger"
	"github.com/fystack/depined-agent/pkg/events"
)

const defaultShutdownTimeout = 30 * time.Second

// ManagerDeps is shared by every worker the manager builds.
type ManagerDeps struct {
	NewAPI   APIFactory
	Emitter  events.Emitter
	Metrics  *metrics.Metrics
	Schedule Schedule
	// Stagger is the pause between two worker starts.
	Stagger time.Duration
	Logger  *slog.Logger
}

type Manager struct {
	ctx             context.Context
	cancel          context.CancelFunc
	workers         []Worker
	emitter         events.Emitter
	stagger         time.Duration
	shutdownTimeout time.Duration
	logger          *slog.Logger
	stopOnce        sync.Once
}

// NewManager builds one AccountWorker per account and proxy endpoint. An account
// without proxies gets a single direct worker.
func NewManager(ctx context.Context, deps ManagerDeps, bindings []account.Binding) (*Manager, error) {
	if len(bindings) == 0 {
		return nil, account.ErrNoAccounts
	}
	if deps.NewAPI == nil {
		return nil, fmt.Errorf("worker manager: api factory is required")
	}
	if deps.Emitter == nil {
		deps.Emitter = events.NewNopEmitter()
	}
	stagger := deps.Stagger
	if stagger < 0 {
		stagger = constant.DefaultStagger
	}

	m := newManager(ctx, deps.Emitter, stagger, deps.Logger)
	for _, b := range bindings {
		for _, proxy := range b.Endpoints() {
			api, err := deps.NewAPI(b.Account, proxy)
			if err != nil {
				return nil, fmt.Errorf("account %s via %s: %w", b.Account.Label(), account.Redacted(proxy), err)
			}
			m.AddWorkers(NewAccountWorker(m.ctx, b.Account, proxy, Deps{
				API:      api,
				Emitter:  deps.Emitter,
				Metrics:  deps.Metrics,
				Schedule: deps.Schedule,
				Logger:   m.logger,
			}))
		}
	}
	return m, nil
}

func newManager(ctx context.Context, emitter events.Emitter, stagger time.Duration, log *slog.Logger) *Manager {
	if log == nil {
		log = logger.L()
	}
	ctx, cancel := context.WithCancel(ctx)
	return &Manager{
		ctx:             ctx,
		cancel:          cancel,
		emitter:         emitter,
		stagger:         stagger,
		shutdownTimeout: defaultShutdownTimeout,
		logger:          log,
	}
}

// Start launches the workers one after another, pausing Stagger between two
// starts. It returns early once the manager is stopped or its context is done.
func (m *Manager) Start() {
	m.logger.Info("Starting workers", "count", len(m.workers), "stagger", m.stagger)

	for i, w := range m.workers {
		if i > 0 && m.stagger > 0 {
			timer := time.NewTimer(m.stagger)
			select {
			case <-m.ctx.Done():
				timer.Stop()
				m.logger.Info("Startup interrupted", "started", i, "total", len(m.workers))
				return
			case <-timer.C:
			}
		}
		if m.ctx.Err() != nil {
			return
		}
		w.Start()
	}
}

// Stop shuts down all workers concurrently with a timeout, then closes the emitter.
func (m *Manager) Stop() {
	m.stopOnce.Do(m.stop)
}

func (m *Manager) stop() {
	m.cancel()

	done := make(chan struct{})
	go func() {
		var wg sync.WaitGroup
		for _, w := range m.workers {
			if w != nil {
				wg.Add(1)
				go func(w Worker) {
					defer wg.Done()
					w.Stop()
				}(w)
			}
		}
		wg.Wait()
		close(done)
	}()

	timer := time.NewTimer(m.shutdownTimeout)
	defer timer.Stop()
	select {
	case <-done:
		m.logger.Info("All workers stopped")
	case <-timer.C:
		m.logger.Warn("Worker shutdown timed out, proceeding with resource cleanup",
			"timeout", m.shutdownTimeout)
	}

	if m.emitter != nil {
		m.emitter.Close()
	}
	m.logger.Info("Manager stopped")
}

// AddWorkers injects workers into the manager. Call before Start.
func (m *Manager) AddWorkers(workers ...Worker) {
	m.workers = append(m.workers, workers...)
}

func (m *Manager) Len() int { return len(m.workers) }

// Snapshots collects the state of every worker that exposes one.
func (m *Manager) Snapshots() []WorkerState {
	var out []WorkerState
	for _, w := range m.workers {
		if s, ok := w.(interface{ Snapshot() WorkerState }); ok {
			out = append(out, s.Snapshot())
		}
	}
	return out
}
