package worker

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"
)

// baseWorker holds the lifecycle shared by worker types: a cancellable context,
// the goroutines running under it and a logger.
type baseWorker struct {
	ctx    context.Context
	cancel context.CancelFunc
	logger *slog.Logger

	// onPanic, when set, is told about every recovered cycle panic.
	onPanic func(err error)

	lifecycle sync.Mutex
	stopped   bool
	wg        sync.WaitGroup
}

func newBaseWorker(ctx context.Context, log *slog.Logger) *baseWorker {
	ctx, cancel := context.WithCancel(ctx)
	return &baseWorker{ctx: ctx, cancel: cancel, logger: log}
}

// spawn runs fn in a tracked goroutine unless the worker is already stopping.
func (bw *baseWorker) spawn(fn func()) bool {
	bw.lifecycle.Lock()
	defer bw.lifecycle.Unlock()
	if bw.stopped || bw.ctx.Err() != nil {
		return false
	}
	bw.wg.Add(1)
	go func() {
		defer bw.wg.Done()
		fn()
	}()
	return true
}

// halt cancels the context and waits for every spawned goroutine. It reports
// whether this call did the stopping.
func (bw *baseWorker) halt() bool {
	bw.lifecycle.Lock()
	first := !bw.stopped
	bw.stopped = true
	bw.cancel()
	bw.lifecycle.Unlock()

	bw.wg.Wait()
	return first
}

// run fires job every interval until the context is done. The next firing is
// armed only after the current one returns, so a slow job never overlaps itself.
func (bw *baseWorker) run(name string, interval time.Duration, job func()) {
	timer := time.NewTimer(interval)
	defer timer.Stop()

	for {
		select {
		case <-bw.ctx.Done():
			bw.logger.Debug("Context done, stopping cycle", "cycle", name)
			return
		case <-timer.C:
			bw.fire(name, job)
			timer.Reset(interval)
		}
	}
}

// fire runs one cycle firing and contains any panic it raises.
func (bw *baseWorker) fire(name string, job func()) {
	defer func() {
		if r := recover(); r != nil {
			bw.logger.Error("Cycle panicked",
				"cycle", name,
				"panic", r,
				"stack", string(debug.Stack()),
			)
			if bw.onPanic != nil {
				bw.onPanic(fmt.Errorf("%s cycle panicked: %v", name, r))
			}
		}
	}()

	if bw.ctx.Err() != nil {
		return
	}
	job()
}
