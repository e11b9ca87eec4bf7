package infra

import (
	"errors"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/fystack/depined-agent/pkg/common/config"
	"github.com/fystack/depined-agent/pkg/common/constant"
	"github.com/fystack/depined-agent/pkg/common/logger"
	"github.com/fystack/depined-agent/pkg/retry"
)

const (
	connectAttempts = 3
	connectInterval = 2 * time.Second
)

var ErrPublisherClosed = errors.New("publisher closed")

// Publisher is the fire-and-forget side of a message bus.
type Publisher interface {
	Publish(subject string, data []byte) error
	Close()
}

func GetNATSConnection(natsConfig config.NatsConfig, environment string) (*nats.Conn, error) {
	opts := []nats.Option{
		nats.Name("depined-agent"),
		nats.MaxReconnects(-1), // retry forever
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.Warn("Disconnected from NATS", "err", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("Reconnected to NATS", "url", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logger.Info("NATS connection closed")
		}),
		nats.ErrorHandler(natsErrHandler),
	}

	natsURL := natsConfig.URL
	if natsURL == "" {
		natsURL = nats.DefaultURL
	}
	if natsConfig.Username != "" {
		opts = append(opts, nats.UserInfo(natsConfig.Username, natsConfig.Password))
	}
	if environment == constant.EnvProduction && natsConfig.TLS.ClientCert != "" {
		opts = append(opts,
			nats.ClientCert(natsConfig.TLS.ClientCert, natsConfig.TLS.ClientKey),
			nats.RootCAs(natsConfig.TLS.CACert),
		)
	}

	var nc *nats.Conn
	err := retry.Constant(func() error {
		var err error
		nc, err = nats.Connect(natsURL, opts...)
		return err
	}, connectInterval, connectAttempts)
	if err != nil {
		return nil, err
	}
	return nc, nil
}

func natsErrHandler(_ *nats.Conn, sub *nats.Subscription, natsErr error) {
	if sub != nil {
		logger.Error("NATS error", "subject", sub.Subject, "err", natsErr)
		return
	}
	logger.Error("NATS error", "err", natsErr)
}

type natsPublisher struct {
	nc *nats.Conn
}

func NewNATSPublisher(nc *nats.Conn) Publisher {
	return &natsPublisher{nc: nc}
}

func (p *natsPublisher) Publish(subject string, data []byte) error {
	if p.nc == nil || p.nc.IsClosed() {
		return ErrPublisherClosed
	}
	return p.nc.Publish(subject, data)
}

func (p *natsPublisher) Close() {
	if p.nc == nil {
		return
	}
	if err := p.nc.Drain(); err != nil {
		logger.Warn("Drain NATS connection failed", "err", err)
		p.nc.Close()
	}
}
