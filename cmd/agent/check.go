package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/fystack/depined-agent/internal/agent"
	"github.com/fystack/depined-agent/pkg/common/logger"
)

type CheckCmd struct {
	AccountFlags
	Parallel int `help:"Accounts checked at once." default:"4" name:"parallel"`
}

func (c *CheckCmd) Run() error {
	cfg, err := c.load()
	if err != nil {
		return err
	}

	bindings, err := agent.CollectBindings(cfg, c.sources())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	results, err := agent.Check(ctx, bindings, agent.NewAPIFactory(cfg, nil, logger.L()), nil, c.Parallel)
	if err != nil {
		return err
	}

	for _, r := range results {
		args := []any{"account", r.Account.Label() + " " + r.Account.Masked(), "outcome", r.Outcome.String()}
		if r.Profile != nil {
			args = append(args, "email", r.Profile.Email, "tier", r.Profile.Tier, "points", r.Profile.PointsBalance)
		}
		logger.Info("Account checked", args...)
	}
	return nil
}
