package worker

import (
	"context"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fystack/depined-agent/internal/account"
	"github.com/fystack/depined-agent/internal/reward"
	"github.com/fystack/depined-agent/pkg/common/enum"
	"github.com/fystack/depined-agent/pkg/common/logger"
	"github.com/fystack/depined-agent/pkg/events"
)

// AccountWorker drives one account through one proxy endpoint: a profile fetch
// and reward check at start, then a ping cycle and a claim cycle until stopped.
type AccountWorker struct {
	*baseWorker

	id      string
	account account.Account
	proxy   *url.URL
	deps    Deps
	claimer *reward.Claimer
	guard   reward.Guard

	mu    sync.RWMutex
	state WorkerState
}

func NewAccountWorker(ctx context.Context, acc account.Account, proxy *url.URL, deps Deps) *AccountWorker {
	deps.Schedule = deps.Schedule.withDefaults()
	if deps.Emitter == nil {
		deps.Emitter = events.NewNopEmitter()
	}
	parent := deps.Logger
	if parent == nil {
		parent = logger.L()
	}

	id := uuid.NewString()
	log := parent.With(
		"worker", id[:8],
		"account", acc.Label()+" "+acc.Masked(),
		"proxy", proxyHost(proxy),
	)

	w := &AccountWorker{
		baseWorker: newBaseWorker(ctx, log),
		id:         id,
		account:    acc,
		proxy:      proxy,
		deps:       deps,
		claimer:    reward.NewClaimer(log, deps.Metrics),
		state: WorkerState{
			ID:            id,
			Account:       acc.Masked(),
			ProxyEndpoint: account.Redacted(proxy),
			State:         StateStarting,
		},
	}
	w.onPanic = w.emitError
	return w
}

func proxyHost(u *url.URL) string {
	if u == nil {
		return "direct"
	}
	return u.Host
}

// Start bootstraps the worker in the background and returns immediately.
func (w *AccountWorker) Start() {
	w.spawn(w.bootstrap)
}

// Stop cancels both cycles and waits for them. No request is issued after it returns.
func (w *AccountWorker) Stop() {
	if !w.halt() {
		return
	}
	w.mu.Lock()
	wasActive := w.state.State == StateActive
	w.state.State = StateStopped
	w.mu.Unlock()
	if wasActive {
		w.deps.Metrics.WorkerStopped()
	}
	if c, ok := w.deps.API.(interface{ Close() }); ok {
		c.Close()
	}
	w.logger.Info("Worker stopped")
}

func (w *AccountWorker) ID() string { return w.id }

func (w *AccountWorker) State() State {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.state.State
}

// Snapshot returns a copy of the worker's current observations.
func (w *AccountWorker) Snapshot() WorkerState {
	w.mu.RLock()
	s := w.state
	w.mu.RUnlock()
	s.ClaimInFlight = w.guard.InFlight()
	return s
}

func (w *AccountWorker) bootstrap() {
	w.logger.Info("Starting worker")

	w.fire("profile", w.loadProfile)
	w.fire("claim", func() { w.claimCycle() })

	w.mu.Lock()
	if w.ctx.Err() != nil {
		w.mu.Unlock()
		return
	}
	w.state.State = StateActive
	w.mu.Unlock()
	w.deps.Metrics.WorkerStarted()

	w.logger.Info("Worker active",
		"ping_interval", w.deps.Schedule.PingInterval,
		"claim_interval", w.deps.Schedule.ClaimInterval,
	)

	w.spawn(func() { w.run("ping", w.deps.Schedule.PingInterval, w.pingCycle) })
	w.run("claim", w.deps.Schedule.ClaimInterval, func() { w.claimCycle() })
}

func (w *AccountWorker) loadProfile() {
	p, ok := w.deps.API.FetchProfile(w.ctx)
	if !ok {
		w.logger.Warn("Profile unavailable, continuing")
		w.emit(enum.EventTypeProfile, false, nil)
		return
	}

	display := &account.DisplayProfile{
		Email:         p.EmailOrUnknown(),
		Verified:      p.VerifiedOrUnknown(),
		Tier:          p.TierOrUnknown(),
		PointsBalance: p.PointsOrUnknown(),
	}
	w.mu.Lock()
	w.state.Profile = display
	w.mu.Unlock()

	w.logger.Info("Profile loaded",
		"email", display.Email,
		"verified", display.Verified,
		"tier", display.Tier,
		"points", display.PointsBalance,
	)
	w.emit(enum.EventTypeProfile, true, display)
}

// pingCycle reports the connection then reads epoch earnings.
func (w *AccountWorker) pingCycle() {
	ack, ok := w.deps.API.SendPing(w.ctx)
	w.mu.Lock()
	w.state.LastPing = time.Now()
	w.state.LastPingOK = ok
	w.mu.Unlock()
	if ok {
		w.logger.Info("Ping sent", "response", ack.Describe())
	} else {
		w.logger.Warn("Ping failed")
	}
	w.emit(enum.EventTypePing, ok, nil)

	if w.ctx.Err() != nil {
		return
	}

	earnings, ok := w.deps.API.FetchEarnings(w.ctx)
	if !ok {
		w.logger.Warn("Earnings unavailable")
		w.emit(enum.EventTypeEarnings, false, nil)
		return
	}
	summary := earnings.Describe()
	w.mu.Lock()
	w.state.LastEarnings = summary
	w.mu.Unlock()
	w.logger.Info("Earnings", "summary", summary)
	w.emit(enum.EventTypeEarnings, true, summary)
}

// claimCycle runs one reward check unless another is already in flight, and
// reports whether it ran.
func (w *AccountWorker) claimCycle() bool {
	ran := w.guard.TryRun(w.checkAndClaim)
	if !ran {
		w.deps.Metrics.ClaimSkipped()
		w.logger.Warn("Reward check already in flight, skipping this tick")
	}
	return ran
}

func (w *AccountWorker) checkAndClaim() {
	out := w.claimer.CheckAndClaim(w.ctx, w.deps.API)

	w.mu.Lock()
	w.state.LastClaim = &out
	w.mu.Unlock()

	data := map[string]string{"outcome": string(out.Kind)}
	if out.Kind == reward.Claimed || out.Kind == reward.ClaimFailed {
		data["amount"] = out.Amount.String()
	}

	switch out.Kind {
	case reward.CheckFailed, reward.ClaimFailed:
		w.logger.Warn("Reward check failed", "outcome", out.String(), "err", out.Err)
		w.emit(enum.EventTypeClaim, false, data)
		w.emitError(out.Err)
	default:
		w.logger.Info("Reward check done", "outcome", out.String())
		w.emit(enum.EventTypeClaim, true, data)
	}
}

func (w *AccountWorker) emit(typ enum.EventType, ok bool, data any) {
	err := w.deps.Emitter.Emit(events.AgentEvent{
		Type:    typ,
		Worker:  w.id,
		Account: w.account.Masked(),
		Proxy:   account.Redacted(w.proxy),
		OK:      ok,
		Data:    data,
	})
	if err != nil {
		w.logger.Debug("Failed to emit event", "type", typ, "err", err)
	}
}

func (w *AccountWorker) emitError(err error) {
	if err := w.deps.Emitter.EmitError(w.id, w.account.Masked(), err); err != nil {
		w.logger.Debug("Failed to emit error event", "err", err)
	}
}
