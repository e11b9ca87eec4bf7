// Package agent wires configuration into accounts, API clients and workers.
package agent

import (
	"fmt"
	"log/slog"
	"net/url"

	"github.com/fystack/depined-agent/internal/account"
	"github.com/fystack/depined-agent/internal/depined"
	"github.com/fystack/depined-agent/internal/metrics"
	"github.com/fystack/depined-agent/internal/rpc"
	"github.com/fystack/depined-agent/internal/worker"
	"github.com/fystack/depined-agent/pkg/common/config"
	"github.com/fystack/depined-agent/pkg/common/enum"
	"github.com/fystack/depined-agent/pkg/common/logger"
	"github.com/fystack/depined-agent/pkg/ratelimiter"
)

// Sources are account and proxy inputs given on the command line. They are
// appended to what the config file lists.
type Sources struct {
	Tokens      []string
	TokensFile  string
	Proxies     []string
	ProxiesFile string
	ProxyMode   enum.ProxyMode
}

// CollectBindings gathers tokens and proxies from the config and extra sources
// and resolves them into bindings. Invalid proxies are logged and skipped.
func CollectBindings(cfg config.Config, extra Sources) ([]account.Binding, error) {
	tokens, err := gather(cfg.Accounts.Tokens, extra.Tokens, cfg.Accounts.TokensFile, extra.TokensFile)
	if err != nil {
		return nil, fmt.Errorf("read tokens: %w", err)
	}

	mode := cfg.Proxies.Mode
	if extra.ProxyMode != "" {
		mode = extra.ProxyMode
	}

	var proxies []*url.URL
	if mode != enum.ProxyModeNone {
		raws, err := gather(cfg.Proxies.List, extra.Proxies, cfg.Proxies.File, extra.ProxiesFile)
		if err != nil {
			return nil, fmt.Errorf("read proxies: %w", err)
		}
		var invalid error
		proxies, invalid = account.NormalizeProxies(raws)
		if invalid != nil {
			logger.Warn("Skipping invalid proxies", "err", invalid)
		}
		if len(raws) > 0 && len(proxies) == 0 {
			logger.Warn("No usable proxy, connecting directly")
		}
	}

	return account.Resolve(tokens, proxies, mode)
}

func gather(fromConfig, fromFlags []string, files ...string) ([]string, error) {
	out := append(append([]string(nil), fromConfig...), fromFlags...)
	for _, f := range files {
		if f == "" {
			continue
		}
		lines, err := account.ReadListFile(f)
		if err != nil {
			return nil, err
		}
		out = append(out, lines...)
	}
	return out, nil
}

// NewAPIFactory returns a factory building one rate-limited, retried client per
// worker. Headers and retry policy are built once and shared read-only.
func NewAPIFactory(cfg config.Config, m *metrics.Metrics, log *slog.Logger) worker.APIFactory {
	if log == nil {
		log = logger.L()
	}
	headers := rpc.Headers{UserAgent: cfg.API.UserAgent, Origin: cfg.API.Origin}
	policy := cfg.Retry.Policy()

	return func(acc account.Account, proxy *url.URL) (worker.API, error) {
		clientLog := log.With("account", acc.Label(), "proxy", account.Redacted(proxy))
		client, err := rpc.NewClient(rpc.ClientConfig{
			BaseURL:     cfg.API.BaseURL,
			Token:       acc.Token,
			Headers:     headers,
			Policy:      policy,
			Proxy:       proxy,
			RateLimiter: ratelimiter.NewRateLimiterFromRPS(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst),
			Metrics:     m,
			Logger:      clientLog,
		})
		if err != nil {
			return nil, err
		}
		return depined.NewGateway(client, clientLog), nil
	}
}

// WorkerSchedule maps the schedule section onto worker intervals.
func WorkerSchedule(cfg config.Config) worker.Schedule {
	return worker.Schedule{
		PingInterval:  cfg.Schedule.PingInterval,
		ClaimInterval: cfg.Schedule.ClaimInterval,
	}
}
