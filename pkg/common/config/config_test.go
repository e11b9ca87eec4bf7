package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fystack/depined-agent/pkg/common/constant"
	"github.com/fystack/depined-agent/pkg/common/enum"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_EmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_MergesDefaults(t *testing.T) {
	path := writeConfig(t, `
env: development
retry:
  max_attempts: 5
  base_delay: 2s
schedule:
  ping_interval: 45s
accounts:
  tokens: ["tok-a", "tok-b"]
proxies:
  list: ["127.0.0.1:8080"]
  mode: all
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, constant.EnvDevelopment, cfg.Environment)
	assert.Equal(t, 5, cfg.Retry.MaxAttempts)
	assert.Equal(t, 2*time.Second, cfg.Retry.BaseDelay)
	assert.Equal(t, 2.0, cfg.Retry.Multiplier)
	assert.Equal(t, 60*time.Second, cfg.Retry.AttemptTimeout)
	assert.Equal(t, 45*time.Second, cfg.Schedule.PingInterval)
	assert.Equal(t, 24*time.Hour, cfg.Schedule.ClaimInterval)
	assert.Equal(t, constant.DefaultBaseURL, cfg.API.BaseURL)
	assert.Equal(t, []string{"tok-a", "tok-b"}, cfg.Accounts.Tokens)
	assert.Equal(t, enum.ProxyModeAll, cfg.Proxies.Mode)

	p := cfg.Retry.Policy()
	assert.NoError(t, p.Validate())
	assert.Equal(t, 5, p.MaxAttempts)
}

func TestLoad_StaggerZeroDisables(t *testing.T) {
	cfg, err := Load(writeConfig(t, "schedule:\n  stagger: 0s\n"))
	require.NoError(t, err)
	assert.Zero(t, cfg.Schedule.Stagger)

	cfg, err = Load(writeConfig(t, "schedule:\n  ping_interval: 45s\n"))
	require.NoError(t, err)
	assert.Equal(t, constant.DefaultStagger, cfg.Schedule.Stagger)

	cfg, err = Load(writeConfig(t, "schedule:\n  stagger: 2s\n"))
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, cfg.Schedule.Stagger)
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"bad env":          "env: staging\n",
		"bad proxy mode":   "proxies:\n  mode: random\n",
		"bad base url":     "api:\n  base_url: not a url\n",
		"bad multiplier":   "retry:\n  multiplier: 0.5\n",
		"bad log level":    "log:\n  level: verbose\n",
		"negative stagger": "schedule:\n  stagger: -1s\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
