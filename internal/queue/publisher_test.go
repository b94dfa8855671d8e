package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/thesisrouter/internal/contracts"
	"github.com/wonny/thesisrouter/pkg/logger"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestPublisher_Publish(t *testing.T) {
	w := &fakeWriter{}
	p := newPublisher(w, "routes", logger.NewNop())
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	p.now = func() time.Time { return fixed }

	thesis := contracts.Thesis{ID: "fed-cut", Claim: "Fed cuts", Direction: contracts.DirectionLong}
	result := &contracts.RouteResult{RunID: "run-1", ThesisID: "fed-cut", Reason: contracts.ReasonNoCandidates}

	require.NoError(t, p.Publish(context.Background(), thesis, result))
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, "fed-cut", string(msg.Key))
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, "run-1", string(msg.Headers[0].Value))

	var ev RouteEvent
	require.NoError(t, json.Unmarshal(msg.Value, &ev))
	assert.Equal(t, "fed-cut", ev.Thesis.ID)
	assert.Equal(t, "run-1", ev.Result.RunID)
	assert.True(t, fixed.Equal(ev.PublishedAt))

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestPublisher_WriteError(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker down")}
	p := newPublisher(w, "routes", logger.NewNop())

	err := p.Publish(context.Background(), contracts.Thesis{ID: "x"}, &contracts.RouteResult{RunID: "r"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
}

func TestPublisher_NilSafe(t *testing.T) {
	var p *Publisher
	assert.NoError(t, p.Publish(context.Background(), contracts.Thesis{}, &contracts.RouteResult{}))
	assert.NoError(t, p.Close())

	w := &fakeWriter{}
	assert.NoError(t, newPublisher(w, "t", logger.NewNop()).Publish(context.Background(), contracts.Thesis{}, nil))
	assert.Empty(t, w.msgs)
}

func TestNewPublisher_RequiresBrokers(t *testing.T) {
	_, err := NewPublisher(nil, "", logger.NewNop())
	assert.Error(t, err)

	p, err := NewPublisher([]string{"localhost:9092"}, "", logger.NewNop())
	require.NoError(t, err)
	assert.Equal(t, DefaultTopic, p.Topic())
}
