package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/fystack/depined-agent/pkg/common/constant"
	"github.com/fystack/depined-agent/pkg/common/logger"
	"github.com/fystack/depined-agent/pkg/events"
)

type EventsCmd struct {
	NATSURL string `help:"NATS server URL." default:"nats://127.0.0.1:4222" name:"nats-url"`
	Prefix  string `help:"Subject prefix the agent publishes under." name:"prefix"`
	LogFile string `help:"Also append events to this file." name:"log" type:"path"`
}

func (c *EventsCmd) Run() error {
	logger.Init(&logger.Options{TimeFormat: time.RFC3339})

	prefix := c.Prefix
	if prefix == "" {
		prefix = constant.DefaultSubjectPrefix
	}

	var out io.Writer = os.Stdout
	if c.LogFile != "" {
		f, err := os.OpenFile(c.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return err
		}
		defer f.Close()
		out = io.MultiWriter(os.Stdout, f)
	}

	nc, err := nats.Connect(c.NATSURL)
	if err != nil {
		return fmt.Errorf("nats connect: %w", err)
	}
	defer nc.Close()

	subject := prefix + ".>"
	_, err = nc.Subscribe(subject, func(msg *nats.Msg) {
		var ev events.AgentEvent
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			logger.Error("Unmarshal error", "subject", msg.Subject, "err", err)
			return
		}
		fmt.Fprintf(out, "%s %-8s worker=%s account=%s proxy=%s ok=%t data=%v\n",
			time.Unix(ev.Timestamp, 0).Format(time.RFC3339),
			ev.Type, ev.Worker, ev.Account, ev.Proxy, ev.OK, ev.Data,
		)
	})
	if err != nil {
		return fmt.Errorf("nats subscribe: %w", err)
	}
	logger.Info("Subscribed", "subject", subject)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	return nil
}
