package depined

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/fystack/depined-agent/internal/rpc"
	"github.com/fystack/depined-agent/pkg/common/logger"
)

const (
	pathUserDetails   = "/api/user/details"
	pathReferralStats = "/api/referrals/stats"
	pathEpochEarnings = "/api/stats/epoch-earnings"
	pathWidgetConnect = "/api/user/widget-connect"
	pathClaimPoints   = "/api/referrals/claim_points"
)

const (
	OpFetchProfile       = "fetch_profile"
	OpFetchReferralStats = "fetch_referral_stats"
	OpFetchEarnings      = "fetch_earnings"
	OpSendPing           = "send_ping"
	OpClaimPoints        = "claim_points"
)

// Invoker is the transport the gateway is built on; *rpc.Client satisfies it.
type Invoker interface {
	Invoke(ctx context.Context, req rpc.Request) (json.RawMessage, error)
}

// Gateway exposes the rewards API as named operations. Operations never return
// errors: a failed call is logged here and reported as ok == false.
type Gateway struct {
	client Invoker
	logger *slog.Logger
}

func NewGateway(client Invoker, log *slog.Logger) *Gateway {
	if log == nil {
		log = logger.L()
	}
	return &Gateway{client: client, logger: log}
}

// Close releases the underlying transport when it supports it.
func (g *Gateway) Close() {
	if c, ok := g.client.(interface{ Close() }); ok {
		c.Close()
	}
}

func (g *Gateway) FetchProfile(ctx context.Context) (*Profile, bool) {
	env, ok := call[Profile](ctx, g, rpc.Request{Op: OpFetchProfile, Method: http.MethodGet, Path: pathUserDetails})
	if !ok {
		return nil, false
	}
	return env.Data, true
}

func (g *Gateway) FetchReferralStats(ctx context.Context) (*ReferralStats, bool) {
	env, ok := call[ReferralStats](ctx, g, rpc.Request{Op: OpFetchReferralStats, Method: http.MethodGet, Path: pathReferralStats})
	if !ok {
		return nil, false
	}
	if env.Data == nil {
		return &ReferralStats{}, true
	}
	return env.Data, true
}

func (g *Gateway) FetchEarnings(ctx context.Context) (*Earnings, bool) {
	env, ok := call[Earnings](ctx, g, rpc.Request{Op: OpFetchEarnings, Method: http.MethodGet, Path: pathEpochEarnings})
	if !ok {
		return nil, false
	}
	return env.Data, true
}

func (g *Gateway) SendPing(ctx context.Context) (*Ack, bool) {
	return call[json.RawMessage](ctx, g, rpc.Request{
		Op:     OpSendPing,
		Method: http.MethodPost,
		Path:   pathWidgetConnect,
		Body:   map[string]bool{"connected": true},
	})
}

func (g *Gateway) ClaimPoints(ctx context.Context) (*Ack, bool) {
	return call[json.RawMessage](ctx, g, rpc.Request{
		Op:     OpClaimPoints,
		Method: http.MethodPost,
		Path:   pathClaimPoints,
		Body:   struct{}{},
	})
}

func call[T any](ctx context.Context, g *Gateway, req rpc.Request) (env *Envelope[T], ok bool) {
	defer func() {
		if r := recover(); r != nil {
			g.logger.Error("API call panicked", "op", req.Op, "panic", r)
			env, ok = nil, false
		}
	}()

	raw, err := g.client.Invoke(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			g.logger.Debug("API call aborted", "op", req.Op, "err", err)
		} else {
			g.logger.Error("API call failed", "op", req.Op, "err", err)
		}
		return nil, false
	}

	var out Envelope[T]
	if err := json.Unmarshal(raw, &out); err != nil {
		g.logger.Error("API response does not match schema", "op", req.Op, "err", fmt.Errorf("decode: %w", err))
		return nil, false
	}
	return &out, true
}
