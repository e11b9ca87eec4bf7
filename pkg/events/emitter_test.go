package events

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fystack/depined-agent/pkg/common/enum"
)

type message struct {
	subject string
	data    []byte
}

type mockPublisher struct {
	mu       sync.Mutex
	messages []message
	closed   bool
}

func (m *mockPublisher) Publish(subject string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, message{subject: subject, data: data})
	return nil
}

func (m *mockPublisher) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
}

func TestEmitter_EmitUsesTypedSubject(t *testing.T) {
	pub := &mockPublisher{}
	e := NewEmitter(pub, "depined.agent")

	err := e.Emit(AgentEvent{
		Type:    enum.EventTypeClaim,
		Worker:  "w-1",
		Account: "abcdef...wxyz",
		OK:      true,
		Data:    map[string]string{"amount": "150"},
	})
	require.NoError(t, err)
	require.Len(t, pub.messages, 1)
	assert.Equal(t, "depined.agent.claim", pub.messages[0].subject)

	var got AgentEvent
	require.NoError(t, json.Unmarshal(pub.messages[0].data, &got))
	assert.Equal(t, enum.EventTypeClaim, got.Type)
	assert.Equal(t, "w-1", got.Worker)
	assert.True(t, got.OK)
	assert.NotZero(t, got.Timestamp)
}

func TestEmitter_EmitError(t *testing.T) {
	pub := &mockPublisher{}
	e := NewEmitter(pub, "p")

	require.NoError(t, e.EmitError("w-2", "acc", errors.New("boom")))
	require.Len(t, pub.messages, 1)
	assert.Equal(t, "p.error", pub.messages[0].subject)
	assert.Contains(t, string(pub.messages[0].data), "boom")

	e.Close()
	assert.True(t, pub.closed)
}

func TestNopEmitter(t *testing.T) {
	e := NewNopEmitter()
	assert.NoError(t, e.Emit(AgentEvent{Type: enum.EventTypePing}))
	assert.NoError(t, e.EmitError("w", "a", errors.New("x")))
	e.Close()
}
