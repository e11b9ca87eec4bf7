package worker

import (
	"context"
	"log/slog"
	"net/url"
	"time"

	"github.com/fystack/depined-agent/internal/account"
	"github.com/fystack/depined-agent/internal/depined"
	"github.com/fystack/depined-agent/internal/metrics"
	"github.com/fystack/depined-agent/internal/reward"
	"github.com/fystack/depined-agent/pkg/common/constant"
	"github.com/fystack/depined-agent/pkg/events"
)

// Worker is the interface implemented by all worker types.
type Worker interface {
	Start()
	Stop()
}

// State is the lifecycle position of an AccountWorker.
type State string

const (
	StateStarting State = "starting"
	StateActive   State = "active"
	StateStopped  State = "stopped"
)

// API is the rewards API surface a worker drives. *depined.Gateway satisfies it.
type API interface {
	reward.Gateway
	FetchProfile(ctx context.Context) (*depined.Profile, bool)
	FetchEarnings(ctx context.Context) (*depined.Earnings, bool)
	SendPing(ctx context.Context) (*depined.Ack, bool)
}

// APIFactory builds the API a worker uses for one account and proxy endpoint.
// proxy is nil for a direct connection.
type APIFactory func(acc account.Account, proxy *url.URL) (API, error)

// Schedule holds the two cycle intervals.
type Schedule struct {
	PingInterval  time.Duration
	ClaimInterval time.Duration
}

func DefaultSchedule() Schedule {
	return Schedule{
		PingInterval:  constant.DefaultPingInterval,
		ClaimInterval: constant.DefaultClaimInterval,
	}
}

func (s Schedule) withDefaults() Schedule {
	d := DefaultSchedule()
	if s.PingInterval <= 0 {
		s.PingInterval = d.PingInterval
	}
	if s.ClaimInterval <= 0 {
		s.ClaimInterval = d.ClaimInterval
	}
	return s
}

// Deps groups what an AccountWorker needs. Emitter, Metrics and Logger are optional.
type Deps struct {
	API      API
	Emitter  events.Emitter
	Metrics  *metrics.Metrics
	Schedule Schedule
	Logger   *slog.Logger
}

// WorkerState is a point-in-time copy of a worker's observations.
type WorkerState struct {
	ID            string
	Account       string
	ProxyEndpoint string
	State         State
	Profile       *account.DisplayProfile
	LastPing      time.Time
	LastPingOK    bool
	LastEarnings  string
	LastClaim     *reward.Outcome
	ClaimInFlight bool
}
