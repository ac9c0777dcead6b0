package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sheikh-saqib/personal-finance-ledger/internal/logging"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// ErrPublisherUnavailable is returned while the circuit breaker is open.
var ErrPublisherUnavailable = errors.New("event publisher unavailable")

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Config struct {
	Brokers     []string
	TopicPrefix string
	// WriteTimeout bounds a single publish, zero means no bound.
	WriteTimeout time.Duration
}

// Publisher writes ledger events as JSON to "<prefix>.<event type>" topics,
// keyed by owner id so one owner's events stay ordered within a partition.
type Publisher struct {
	writer  messageWriter
	prefix  string
	timeout time.Duration
	cb      *gobreaker.CircuitBreaker
	logger  *logging.Logger
}

func NewPublisher(cfg Config, logger *logging.Logger) *Publisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
		RequiredAcks:           kafka.RequireAll,
	}
	return newPublisher(w, cfg, logger)
}

func newPublisher(w messageWriter, cfg Config, logger *logging.Logger) *Publisher {
	if logger == nil {
		logger = logging.L()
	}
	logger = logger.Named("kafka")

	p := &Publisher{
		writer:  w,
		prefix:  cfg.TopicPrefix,
		timeout: cfg.WriteTimeout,
		logger:  logger,
	}
	p.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "kafka-publisher",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	return p
}

// Topic returns the full topic name for an event type.
func (p *Publisher) Topic(eventType string) string {
	if p.prefix == "" {
		return eventType
	}
	return p.prefix + "." + eventType
}

func (p *Publisher) Publish(ctx context.Context, topic, key string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", topic, err)
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	msg := kafka.Message{
		Topic: p.Topic(topic),
		Key:   []byte(key),
		Value: data,
	}
	_, err = p.cb.Execute(func() (interface{}, error) {
		return nil, p.writer.WriteMessages(ctx, msg)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ErrPublisherUnavailable
	}
	if err != nil {
		return fmt.Errorf("write %s: %w", msg.Topic, err)
	}

	p.logger.Debug("event published", zap.String("topic", msg.Topic), zap.String("key", key))
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
