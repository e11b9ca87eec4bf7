package config

import (
	"time"

	"github.com/fystack/depined-agent/pkg/common/enum"
)

type Config struct {
	Environment string          `yaml:"env"        validate:"required,oneof=production development"`
	API         APIConfig       `yaml:"api"        validate:"required"`
	Retry       RetryConfig     `yaml:"retry"      validate:"required"`
	Schedule    ScheduleConfig  `yaml:"schedule"   validate:"required"`
	RateLimit   RateLimitConfig `yaml:"rate_limit"`
	Accounts    AccountsConfig  `yaml:"accounts"`
	Proxies     ProxiesConfig   `yaml:"proxies"`
	Nats        NatsConfig      `yaml:"nats"`
	Metrics     MetricsConfig   `yaml:"metrics"`
	Log         LogConfig       `yaml:"log"`
}

type APIConfig struct {
	BaseURL   string `yaml:"base_url"   validate:"required,url"`
	Origin    string `yaml:"origin"     validate:"required"`
	UserAgent string `yaml:"user_agent" validate:"required"`
}

type RetryConfig struct {
	MaxAttempts    int           `yaml:"max_attempts"    validate:"min=1"`
	BaseDelay      time.Duration `yaml:"base_delay"      validate:"gt=0"`
	Multiplier     float64       `yaml:"multiplier"      validate:"gte=1"`
	AttemptTimeout time.Duration `yaml:"attempt_timeout" validate:"gt=0"`
}

type ScheduleConfig struct {
	PingInterval  time.Duration `yaml:"ping_interval"  validate:"gt=0"`
	ClaimInterval time.Duration `yaml:"claim_interval" validate:"gt=0"`
	Stagger       time.Duration `yaml:"stagger"        validate:"gte=0"`
}

// RateLimitConfig paces each worker's requests; rps <= 0 disables it.
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"rps"   validate:"gte=0"`
	Burst             int     `yaml:"burst" validate:"gte=0"`
}

type AccountsConfig struct {
	Tokens     []string `yaml:"tokens"`
	TokensFile string   `yaml:"tokens_file"`
}

type ProxiesConfig struct {
	List []string       `yaml:"list"`
	File string         `yaml:"file"`
	Mode enum.ProxyMode `yaml:"mode" validate:"omitempty,oneof=round_robin all none"`
}

type NatsConfig struct {
	URL           string        `yaml:"url"`
	SubjectPrefix string        `yaml:"subject_prefix"`
	Username      string        `yaml:"username"`
	Password      string        `yaml:"password"`
	TLS           NatsTLSConfig `yaml:"tls"`
}

type NatsTLSConfig struct {
	ClientCert string `yaml:"client_cert"`
	ClientKey  string `yaml:"client_key"`
	CACert     string `yaml:"ca_cert"`
}

type MetricsConfig struct {
	Listen string `yaml:"listen"`
}

type LogConfig struct {
	Level   string `yaml:"level"    validate:"omitempty,oneof=debug info warn error"`
	NoColor bool   `yaml:"no_color"`
}
