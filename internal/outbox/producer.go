package outbox

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaProducer publishes framed progress events. One writer serves every
// topic; the topic travels on each message and the user id key keeps a
// user's events on a single partition.
type KafkaProducer struct {
	writer *kafka.Writer
}

// NewKafkaProducer creates a KafkaProducer for the given brokers.
func NewKafkaProducer(brokers []string) *KafkaProducer {
	return &KafkaProducer{writer: &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Compression:  kafka.Snappy,
		BatchTimeout: 50 * time.Millisecond,
	}}
}

// WriteMessages publishes msgs to topic. The batch succeeds or fails as a
// whole from the dispatcher's point of view.
func (p *KafkaProducer) WriteMessages(ctx context.Context, topic string, msgs ...kafka.Message) error {
	routed := make([]kafka.Message, len(msgs))
	for i, msg := range msgs {
		msg.Topic = topic
		routed[i] = msg
	}
	return p.writer.WriteMessages(ctx, routed...)
}

// Close flushes pending writes.
func (p *KafkaProducer) Close() error {
	return p.writer.Close()
}
