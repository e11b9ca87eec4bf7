package agent

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/fystack/depined-agent/internal/account"
	"github.com/fystack/depined-agent/internal/metrics"
	"github.com/fystack/depined-agent/internal/reward"
	"github.com/fystack/depined-agent/internal/worker"
	"github.com/fystack/depined-agent/pkg/common/logger"
)

// CheckResult is the one-shot view of a single account.
type CheckResult struct {
	Account account.Account
	Profile *account.DisplayProfile
	Outcome reward.Outcome
}

// Check fetches the profile of every account and runs one reward check for it,
// at most parallel accounts at a time. Each account uses its first endpoint.
func Check(ctx context.Context, bindings []account.Binding, newAPI worker.APIFactory, m *metrics.Metrics, parallel int) ([]CheckResult, error) {
	if len(bindings) == 0 {
		return nil, account.ErrNoAccounts
	}

	results := make([]CheckResult, len(bindings))
	g, gctx := errgroup.WithContext(ctx)
	if parallel > 0 {
		g.SetLimit(parallel)
	}

	for i, b := range bindings {
		g.Go(func() error {
			proxy := b.Endpoints()[0]
			api, err := newAPI(b.Account, proxy)
			if err != nil {
				return fmt.Errorf("account %s: %w", b.Account.Label(), err)
			}
			if c, ok := api.(interface{ Close() }); ok {
				defer c.Close()
			}

			res := CheckResult{Account: b.Account}
			if p, ok := api.FetchProfile(gctx); ok {
				res.Profile = &account.DisplayProfile{
					Email:         p.EmailOrUnknown(),
					Verified:      p.VerifiedOrUnknown(),
					Tier:          p.TierOrUnknown(),
					PointsBalance: p.PointsOrUnknown(),
				}
			}

			log := logger.With("account", b.Account.Label()+" "+b.Account.Masked())
			res.Outcome = reward.NewClaimer(log, m).CheckAndClaim(gctx, api)
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
