package reward

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/fystack/depined-agent/internal/depined"
	"github.com/fystack/depined-agent/internal/metrics"
	"github.com/fystack/depined-agent/pkg/common/logger"
)

var ErrClaimRejected = errors.New("claim rejected")

type Kind string

const (
	NoneDue     Kind = "none_due"
	Claimed     Kind = "claimed"
	CheckFailed Kind = "check_failed"
	ClaimFailed Kind = "claim_failed"
)

// Outcome is the result of one check-then-claim pass. Amount is set for Claimed
// and ClaimFailed.
type Outcome struct {
	Kind   Kind
	Amount decimal.Decimal
	Err    error
}

func (o Outcome) String() string {
	switch o.Kind {
	case Claimed:
		return fmt.Sprintf("claimed %s points", o.Amount)
	case ClaimFailed:
		return fmt.Sprintf("claim of %s points failed", o.Amount)
	default:
		return string(o.Kind)
	}
}

// Gateway is the slice of the rewards API the claimer needs.
type Gateway interface {
	FetchReferralStats(ctx context.Context) (*depined.ReferralStats, bool)
	ClaimPoints(ctx context.Context) (*depined.Ack, bool)
}

type Claimer struct {
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewClaimer(log *slog.Logger, m *metrics.Metrics) *Claimer {
	if log == nil {
		log = logger.L()
	}
	return &Claimer{logger: log, metrics: m}
}

// CheckAndClaim reads the unclaimed balance and claims it when positive.
// Callers must serialise invocations per account, see Guard.
func (c *Claimer) CheckAndClaim(ctx context.Context, gw Gateway) Outcome {
	out := c.checkAndClaim(ctx, gw)
	c.metrics.ObserveClaim(string(out.Kind))
	return out
}

func (c *Claimer) checkAndClaim(ctx context.Context, gw Gateway) Outcome {
	stats, ok := gw.FetchReferralStats(ctx)
	if !ok {
		return Outcome{Kind: CheckFailed, Err: errors.New("referral stats unavailable")}
	}

	unclaimed, known := stats.Unclaimed()
	if !known {
		c.logger.Info("Unclaimed points unknown, skipping claim")
		return Outcome{Kind: NoneDue}
	}
	if !unclaimed.IsPositive() {
		c.logger.Debug("No unclaimed points", "unclaimed", unclaimed)
		return Outcome{Kind: NoneDue}
	}

	c.logger.Info("Unclaimed points found, claiming", "unclaimed", unclaimed)
	ack, ok := gw.ClaimPoints(ctx)
	if !ok {
		return Outcome{Kind: ClaimFailed, Amount: unclaimed, Err: errors.New("claim request failed")}
	}
	if !ack.Succeeded() {
		err := fmt.Errorf("%w: %s", ErrClaimRejected, ack.Describe())
		c.logger.Warn("Claim rejected", "unclaimed", unclaimed, "err", err)
		return Outcome{Kind: ClaimFailed, Amount: unclaimed, Err: err}
	}

	c.logger.Info("Points claimed", "amount", unclaimed)
	return Outcome{Kind: Claimed, Amount: unclaimed}
}
