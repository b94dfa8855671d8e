package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/wonny/thesisrouter/internal/contracts"
	"github.com/wonny/thesisrouter/pkg/logger"
)

// DefaultTopic receives one message per routing pass
const DefaultTopic = "thesis.routes"

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// RouteEvent is the message payload published for each routing pass
type RouteEvent struct {
	Thesis      contracts.Thesis       `json:"thesis"`
	Result      *contracts.RouteResult `json:"result"`
	PublishedAt time.Time              `json:"published_at"`
}

// Publisher writes route results to Kafka, keyed by thesis id
type Publisher struct {
	writer messageWriter
	topic  string
	logger *logger.Logger
	now    func() time.Time
}

// NewPublisher creates a Kafka-backed result sink
func NewPublisher(brokers []string, topic string, log *logger.Logger) (*Publisher, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("no brokers configured")
	}
	if topic == "" {
		topic = DefaultTopic
	}

	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		BatchTimeout:           50 * time.Millisecond,
	}
	return newPublisher(w, topic, log), nil
}

func newPublisher(w messageWriter, topic string, log *logger.Logger) *Publisher {
	return &Publisher{
		writer: w,
		topic:  topic,
		logger: log.Module("queue"),
		now:    time.Now,
	}
}

// Topic returns the destination topic
func (p *Publisher) Topic() string {
	return p.topic
}

// Publish implements contracts.ResultSink
func (p *Publisher) Publish(ctx context.Context, thesis contracts.Thesis, result *contracts.RouteResult) error {
	if p == nil || p.writer == nil || result == nil {
		return nil
	}

	payload, err := json.Marshal(RouteEvent{
		Thesis:      thesis,
		Result:      result,
		PublishedAt: p.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal route event %s: %w", result.RunID, err)
	}

	msg := kafka.Message{
		Key:   []byte(thesis.ID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "run_id", Value: []byte(result.RunID)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write route event %s: %w", result.RunID, err)
	}

	p.logger.WithFields(map[string]interface{}{
		"topic":     p.topic,
		"thesis_id": thesis.ID,
		"run_id":    result.RunID,
	}).Debug("Route event published")
	return nil
}

// Close flushes pending writes
func (p *Publisher) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
