package events

import (
	"encoding/json"
	"time"

	"github.com/fystack/depined-agent/pkg/common/enum"
	"github.com/fystack/depined-agent/pkg/infra"
)

// AgentEvent is one observation made by a worker.
type AgentEvent struct {
	Type      enum.EventType `json:"type"`
	Worker    string         `json:"worker"`
	Account   string         `json:"account"`
	Proxy     string         `json:"proxy,omitempty"`
	OK        bool           `json:"ok"`
	Data      any            `json:"data,omitempty"`
	Timestamp int64          `json:"timestamp"`
}

type Emitter interface {
	Emit(event AgentEvent) error
	EmitError(worker, account string, err error) error
	Close()
}

type emitter struct {
	publisher     infra.Publisher
	subjectPrefix string
}

// NewEmitter publishes every event on "<prefix>.<type>".
func NewEmitter(publisher infra.Publisher, subjectPrefix string) Emitter {
	return &emitter{
		publisher:     publisher,
		subjectPrefix: subjectPrefix,
	}
}

func (e *emitter) Emit(event AgentEvent) error {
	if event.Timestamp == 0 {
		event.Timestamp = time.Now().UTC().Unix()
	}
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return e.publisher.Publish(e.subjectPrefix+"."+string(event.Type), data)
}

func (e *emitter) EmitError(worker, account string, err error) error {
	payload := map[string]string{}
	if err != nil {
		payload["message"] = err.Error()
	}
	return e.Emit(AgentEvent{
		Type:    enum.EventTypeError,
		Worker:  worker,
		Account: account,
		Data:    payload,
	})
}

func (e *emitter) Close() {
	if e.publisher != nil {
		e.publisher.Close()
	}
}

type nopEmitter struct{}

// NewNopEmitter drops every event. Used when no message bus is configured.
func NewNopEmitter() Emitter { return nopEmitter{} }

func (nopEmitter) Emit(AgentEvent) error                  { return nil }
func (nopEmitter) EmitError(string, string, error) error { return nil }
func (nopEmitter) Close()                                 {}
