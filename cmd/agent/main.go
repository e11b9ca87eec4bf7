package main

import (
	"log/slog"
	"time"

	"github.com/alecthomas/kong"

	"github.com/fystack/depined-agent/internal/agent"
	"github.com/fystack/depined-agent/pkg/common/config"
	"github.com/fystack/depined-agent/pkg/common/enum"
	"github.com/fystack/depined-agent/pkg/common/logger"
)

// --- CLI definitions --- //

type CLI struct {
	Run    RunCmd    `cmd:"" default:"withargs" help:"Run the agent until interrupted."`
	Check  CheckCmd  `cmd:"" help:"Fetch profiles, claim pending rewards once, then exit."`
	Events EventsCmd `cmd:"" help:"Print agent events published on NATS."`
}

// AccountFlags are shared by commands that need accounts.
type AccountFlags struct {
	ConfigPath  string         `help:"Path to config file." default:"configs/config.yaml" name:"config" type:"path"`
	Tokens      []string       `help:"Bearer token, repeatable." name:"token" env:"DEPINED_TOKENS" sep:","`
	TokensFile  string         `help:"File with one token per line." name:"tokens-file" type:"path"`
	Proxies     []string       `help:"Proxy endpoint, repeatable." name:"proxy" sep:","`
	ProxiesFile string         `help:"File with one proxy per line." name:"proxies-file" type:"path"`
	ProxyMode   enum.ProxyMode `help:"How proxies are spread over accounts (round_robin, all, none)." name:"proxy-mode"`
	Debug       bool           `help:"Enable debug logs." name:"debug"`
}

func (f AccountFlags) sources() agent.Sources {
	return agent.Sources{
		Tokens:      f.Tokens,
		TokensFile:  f.TokensFile,
		Proxies:     f.Proxies,
		ProxiesFile: f.ProxiesFile,
		ProxyMode:   f.ProxyMode,
	}
}

// load reads the config and initialises the process logger from it.
func (f AccountFlags) load() (config.Config, error) {
	cfg, err := config.Load(f.ConfigPath)
	if err != nil {
		return cfg, err
	}

	level := logger.ParseLevel(cfg.Log.Level)
	if f.Debug {
		level = slog.LevelDebug
	}
	logger.Init(&logger.Options{
		Level:      level,
		TimeFormat: time.RFC3339,
		NoColor:    cfg.Log.NoColor,
	})
	logger.Info("Config loaded", "env", cfg.Environment, "base_url", cfg.API.BaseURL)
	return cfg, nil
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("depined-agent"),
		kong.Description("Keeps Depined accounts connected and claims their referral rewards."),
		kong.UsageOnError(),
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
