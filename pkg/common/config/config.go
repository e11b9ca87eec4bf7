package config

import (
	"github.com/fystack/depined-agent/pkg/common/constant"
	"github.com/fystack/depined-agent/pkg/common/enum"
	"github.com/fystack/depined-agent/pkg/retry"
)

// Default returns the configuration used when no file is given. Loaded files are
// merged on top of it, so any field left empty keeps these values.
func Default() Config {
	return Config{
		Environment: constant.EnvProduction,
		API: APIConfig{
			BaseURL:   constant.DefaultBaseURL,
			Origin:    constant.DefaultOrigin,
			UserAgent: constant.DefaultUserAgent,
		},
		Retry: RetryConfig{
			MaxAttempts:    retry.DefaultMaxAttempts,
			BaseDelay:      retry.DefaultBaseDelay,
			Multiplier:     retry.DefaultMultiplier,
			AttemptTimeout: retry.DefaultAttemptTimeout,
		},
		Schedule: ScheduleConfig{
			PingInterval:  constant.DefaultPingInterval,
			ClaimInterval: constant.DefaultClaimInterval,
			Stagger:       constant.DefaultStagger,
		},
		Proxies: ProxiesConfig{
			Mode: enum.ProxyModeRoundRobin,
		},
		Nats: NatsConfig{
			SubjectPrefix: constant.DefaultSubjectPrefix,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

func (r RetryConfig) Policy() retry.Policy {
	return retry.Policy{
		MaxAttempts:    r.MaxAttempts,
		BaseDelay:      r.BaseDelay,
		Multiplier:     r.Multiplier,
		AttemptTimeout: r.AttemptTimeout,
	}
}
