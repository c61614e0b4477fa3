package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/phrazzld/shop-api/internal/redact"
	"github.com/segmentio/kafka-go"
)

// Message is one serialized event ready for delivery.
type Message struct {
	Topic string
	Key   string
	Value []byte
}

// Publisher delivers serialized events to their consumers. Publish sends a
// whole batch; when only part of it is delivered the error is a *BatchError.
type Publisher interface {
	Publish(ctx context.Context, msgs ...Message) error
	Close() error
}

// BatchError reports a partly delivered batch. Errs is indexed like the
// messages handed to Publish and holds nil for every delivered message.
type BatchError struct {
	Errs []error
}

func (e *BatchError) Error() string {
	failed := e.failed()
	if len(failed) == 0 {
		return "batch delivered"
	}
	return fmt.Sprintf("%d of %d messages not delivered: %v", len(failed), len(e.Errs), failed[0])
}

func (e *BatchError) Unwrap() []error {
	return e.failed()
}

func (e *BatchError) failed() []error {
	var out []error
	for _, err := range e.Errs {
		if err != nil {
			out = append(out, err)
		}
	}
	return out
}

// Delivered reports, per message, whether a Publish of n messages that
// returned err delivered it. Any error other than a *BatchError covering
// all n messages counts as nothing delivered.
func Delivered(err error, n int) []bool {
	out := make([]bool, n)
	if err == nil {
		for i := range out {
			out[i] = true
		}
		return out
	}
	var batch *BatchError
	if errors.As(err, &batch) && len(batch.Errs) == n {
		for i, e := range batch.Errs {
			out[i] = e == nil
		}
	}
	return out
}

// messageWriter is the subset of *kafka.Writer used by KafkaPublisher.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher publishes messages to Kafka. The topic is taken from each
// message so one writer serves every outbox topic.
type KafkaPublisher struct {
	writer messageWriter
	logger *slog.Logger
}

// ParseBrokers splits a comma-separated broker list, dropping blanks.
func ParseBrokers(csv string) []string {
	brokers := []string{}
	for _, b := range strings.Split(csv, ",") {
		b = strings.TrimSpace(b)
		if b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

// kafkaBatchTimeout bounds how long the writer waits to fill a partition
// batch before flushing. The relay already hands over whole batches.
const kafkaBatchTimeout = 10 * time.Millisecond

// NewKafkaPublisher creates a publisher writing to the given brokers.
// Messages with the same key land on the same partition.
func NewKafkaPublisher(brokers []string, logger *slog.Logger) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		BatchTimeout:           kafkaBatchTimeout,
		AllowAutoTopicCreation: true,
	}
	return newKafkaPublisher(w, logger)
}

func newKafkaPublisher(w messageWriter, logger *slog.Logger) *KafkaPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &KafkaPublisher{
		writer: w,
		logger: logger.With("component", "kafka_publisher"),
	}
}

// Publish implements Publisher.Publish
// The batch goes out in a single WriteMessages call. Per-message failures
// reported by kafka-go come back as a *BatchError.
func (p *KafkaPublisher) Publish(ctx context.Context, msgs ...Message) error {
	if len(msgs) == 0 {
		return nil
	}
	now := time.Now().UTC()
	batch := make([]kafka.Message, len(msgs))
	for i, msg := range msgs {
		batch[i] = kafka.Message{
			Topic: msg.Topic,
			Key:   []byte(msg.Key),
			Value: msg.Value,
			Time:  now,
		}
	}

	err := p.writer.WriteMessages(ctx, batch...)
	if err == nil {
		return nil
	}

	p.logger.Warn("failed to publish batch to kafka",
		"messages", len(msgs),
		"error", redact.Error(err))

	var perMessage kafka.WriteErrors
	if errors.As(err, &perMessage) && len(perMessage) == len(msgs) {
		return fmt.Errorf("kafka publish: %w", &BatchError{Errs: perMessage})
	}
	return fmt.Errorf("kafka publish: %w", err)
}

// Close flushes pending writes and releases connections.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// EmitterPublisher decodes messages back into events and hands them to an
// in-process emitter. It is used when no Kafka brokers are configured.
type EmitterPublisher struct {
	emitter EventEmitter
}

// NewEmitterPublisher wraps emitter as a Publisher.
func NewEmitterPublisher(emitter EventEmitter) *EmitterPublisher {
	return &EmitterPublisher{emitter: emitter}
}

// Publish implements Publisher.Publish
// Every message is attempted; failures are collected into a *BatchError.
func (p *EmitterPublisher) Publish(ctx context.Context, msgs ...Message) error {
	errs := make([]error, len(msgs))
	failed := false
	for i, msg := range msgs {
		errs[i] = p.emit(ctx, msg)
		failed = failed || errs[i] != nil
	}
	if failed {
		return &BatchError{Errs: errs}
	}
	return nil
}

func (p *EmitterPublisher) emit(ctx context.Context, msg Message) error {
	var event Event
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return fmt.Errorf("decode event from %s: %w", msg.Topic, err)
	}
	return p.emitter.EmitEvent(ctx, &event)
}

// Close implements Publisher.Close
func (p *EmitterPublisher) Close() error {
	return nil
}
