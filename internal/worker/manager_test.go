package worker

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fystack/depined-agent/internal/account"
	"github.com/fystack/depined-agent/internal/depined/depinedtest"
)

type fakeWorker struct {
	mu        sync.Mutex
	startedAt time.Time
	stopped   bool
	block     chan struct{}
}

func (f *fakeWorker) Start() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.startedAt = time.Now()
}

func (f *fakeWorker) Stop() {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
}

func (f *fakeWorker) started() (time.Time, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.startedAt, !f.startedAt.IsZero()
}

func (f *fakeWorker) isStopped() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stopped
}

func TestNewManager_NoAccounts(t *testing.T) {
	_, err := NewManager(context.Background(), ManagerDeps{
		NewAPI: func(account.Account, *url.URL) (API, error) { return nil, nil },
	}, nil)
	assert.ErrorIs(t, err, account.ErrNoAccounts)
}

func TestNewManager_OneWorkerPerProxy(t *testing.T) {
	srv := depinedtest.NewServer()
	defer srv.Close()

	p1, _ := url.Parse("http://10.0.0.1:8080")
	p2, _ := url.Parse("http://10.0.0.2:8080")
	bindings := []account.Binding{
		{Account: account.Account{Index: 0, Token: "token-aaaaaaaaaa"}, Proxies: []*url.URL{p1, p2}},
		{Account: account.Account{Index: 1, Token: "token-bbbbbbbbbb"}},
	}

	var (
		mu    sync.Mutex
		calls []string
	)
	m, err := NewManager(context.Background(), ManagerDeps{
		NewAPI: func(acc account.Account, proxy *url.URL) (API, error) {
			mu.Lock()
			calls = append(calls, acc.Token+"@"+account.Redacted(proxy))
			mu.Unlock()
			return testAPI(t, srv, acc.Token), nil
		},
	}, bindings)
	require.NoError(t, err)
	defer m.Stop()

	assert.Equal(t, 3, m.Len())
	assert.Equal(t, []string{
		"token-aaaaaaaaaa@http://10.0.0.1:8080",
		"token-aaaaaaaaaa@http://10.0.0.2:8080",
		"token-bbbbbbbbbb@direct",
	}, calls)

	snaps := m.Snapshots()
	require.Len(t, snaps, 3)
	for _, s := range snaps {
		assert.Equal(t, StateStarting, s.State)
	}
}

func TestNewManager_FactoryError(t *testing.T) {
	boom := errors.New("bad base url")
	_, err := NewManager(context.Background(), ManagerDeps{
		NewAPI: func(account.Account, *url.URL) (API, error) { return nil, boom },
	}, []account.Binding{{Account: account.Account{Token: "t"}}})
	assert.ErrorIs(t, err, boom)
}

func TestManager_StaggeredStart(t *testing.T) {
	const stagger = 30 * time.Millisecond
	m := newManager(context.Background(), &recordingEmitter{}, stagger, nil)
	workers := []*fakeWorker{{}, {}, {}}
	for _, w := range workers {
		m.AddWorkers(w)
	}

	m.Start()
	defer m.Stop()

	var prev time.Time
	for i, w := range workers {
		at, ok := w.started()
		require.True(t, ok, "worker %d not started", i)
		if i > 0 {
			assert.GreaterOrEqual(t, at.Sub(prev), stagger, "gap before worker %d", i)
		}
		prev = at
	}
}

func TestManager_StopInterruptsStagger(t *testing.T) {
	m := newManager(context.Background(), &recordingEmitter{}, time.Hour, nil)
	first, second := &fakeWorker{}, &fakeWorker{}
	m.AddWorkers(first, second)

	done := make(chan struct{})
	go func() {
		m.Start()
		close(done)
	}()

	require.Eventually(t, func() bool {
		_, ok := first.started()
		return ok
	}, time.Second, time.Millisecond)

	m.Stop()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Start did not return after Stop")
	}

	_, ok := second.started()
	assert.False(t, ok)
	assert.True(t, first.isStopped())
	assert.True(t, second.isStopped())
}

func TestManager_StopTimesOutAndClosesEmitter(t *testing.T) {
	emitter := &recordingEmitter{}
	m := newManager(context.Background(), emitter, 0, nil)
	m.shutdownTimeout = 50 * time.Millisecond

	stuck := &fakeWorker{block: make(chan struct{})}
	defer close(stuck.block)
	quick := &fakeWorker{}
	m.AddWorkers(stuck, quick)
	m.Start()

	start := time.Now()
	m.Stop()
	assert.Less(t, time.Since(start), time.Second)
	assert.True(t, emitter.closed.Load())
	assert.True(t, quick.isStopped())

	// second Stop is a no-op
	m.Stop()
}

func TestManager_EndToEndNoRequestsAfterStop(t *testing.T) {
	srv := depinedtest.NewServer()
	defer srv.Close()
	srv.SetUnclaimed("10")

	bindings, err := account.Resolve([]string{"token-aaaaaaaaaa", "token-bbbbbbbbbb"}, nil, "")
	require.NoError(t, err)

	m, err := NewManager(context.Background(), ManagerDeps{
		NewAPI: func(acc account.Account, _ *url.URL) (API, error) {
			return testAPI(t, srv, acc.Token), nil
		},
		Schedule: Schedule{PingInterval: 2 * time.Millisecond, ClaimInterval: 5 * time.Millisecond},
		Stagger:  5 * time.Millisecond,
	}, bindings)
	require.NoError(t, err)

	m.Start()
	require.Eventually(t, func() bool {
		return srv.TokenCount("token-aaaaaaaaaa") > 5 && srv.TokenCount("token-bbbbbbbbbb") > 5
	}, 2*time.Second, 2*time.Millisecond)

	m.Stop()
	time.Sleep(20 * time.Millisecond)
	before := srv.Total()
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, before, srv.Total())

	for _, s := range m.Snapshots() {
		assert.Equal(t, StateStopped, s.State)
	}
}
