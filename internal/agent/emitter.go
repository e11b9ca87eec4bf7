package agent

import (
	"github.com/fystack/depined-agent/pkg/common/config"
	"github.com/fystack/depined-agent/pkg/common/logger"
	"github.com/fystack/depined-agent/pkg/events"
	"github.com/fystack/depined-agent/pkg/infra"
)

// NewEmitter publishes events to NATS when configured. Events are optional, so
// an unreachable server only costs a warning and the agent runs without them.
func NewEmitter(cfg config.Config) events.Emitter {
	if cfg.Nats.URL == "" {
		return events.NewNopEmitter()
	}
	nc, err := infra.GetNATSConnection(cfg.Nats, cfg.Environment)
	if err != nil {
		logger.Warn("NATS unreachable, events disabled", "url", cfg.Nats.URL, "err", err)
		return events.NewNopEmitter()
	}
	logger.Info("Publishing events to NATS", "url", nc.ConnectedUrl(), "prefix", cfg.Nats.SubjectPrefix)
	return events.NewEmitter(infra.NewNATSPublisher(nc), cfg.Nats.SubjectPrefix)
}
