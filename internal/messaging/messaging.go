// Package messaging carries order events over Kafka, with a silent fallback
// when no broker is configured.
package messaging

import (
	"context"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/bazaar/internal/config"
)

// Message is one record consumed from the bus.
type Message struct {
	Topic   string
	Key     []byte
	Value   []byte
	Headers map[string]string
	Offset  int64
	Time    time.Time
}

// Handler processes an inbound message. A non-nil error leaves the message
// uncommitted so the broker redelivers it.
type Handler func(context.Context, Message) error

// Client is what the application publishes to and consumes from.
type Client interface {
	Publish(ctx context.Context, key []byte, value []byte) error
	Consume(ctx context.Context, handler Handler) error
	Topic() string
}

// Module wires the messaging client.
var Module = fx.Provide(NewClient)

// NewClient returns a Kafka-backed client, or a silent one when messaging
// is disabled.
func NewClient(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) (Client, error) {
	if cfg.Messaging.Driver != "kafka" {
		logger.Info("messaging disabled")
		return silentBus{topic: cfg.Messaging.Kafka.Topic}, nil
	}

	bus := &kafkaBus{
		writer: newWriter(cfg.Messaging.Kafka, logger),
		reader: newReader(cfg.Messaging),
		topic:  cfg.Messaging.Kafka.Topic,
		logger: logger,
	}

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			logger.Info("closing kafka client")
			return errors.Join(bus.writer.Close(), bus.reader.Close())
		},
	})

	return bus, nil
}

func newWriter(cfg config.Kafka, logger *zap.Logger) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireAll,
		ErrorLogger:  printf(func(msg string, args ...any) { logger.Sugar().Errorf(msg, args...) }),
	}
}

func newReader(cfg config.Messaging) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Kafka.Brokers,
		GroupID:        cfg.ConsumerGroup,
		Topic:          cfg.Kafka.Topic,
		MinBytes:       cfg.Kafka.MinBytes,
		MaxBytes:       cfg.Kafka.MaxBytes,
		CommitInterval: cfg.Kafka.CommitInterval,
		Dialer: &kafka.Dialer{
			Timeout:  cfg.Kafka.ConnectTimeout,
			ClientID: cfg.Kafka.ClientID,
		},
	})
}

type kafkaBus struct {
	writer *kafka.Writer
	reader *kafka.Reader
	topic  string
	logger *zap.Logger
}

func (b *kafkaBus) Topic() string { return b.topic }

func (b *kafkaBus) Publish(ctx context.Context, key []byte, value []byte) error {
	return b.writer.WriteMessages(ctx, kafka.Message{Key: key, Value: value})
}

func (b *kafkaBus) Consume(ctx context.Context, handler Handler) error {
	for {
		record, err := b.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			b.logger.Error("kafka fetch failed", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}

		if err := handler(ctx, toMessage(record)); err != nil {
			// Leave the offset uncommitted so the message comes back.
			b.logger.Error("message handler failed",
				zap.Int64("offset", record.Offset),
				zap.Error(err),
			)
			continue
		}

		if err := b.reader.CommitMessages(ctx, record); err != nil {
			b.logger.Warn("offset commit failed", zap.Error(err))
		}
	}
}

func toMessage(record kafka.Message) Message {
	msg := Message{
		Topic:  record.Topic,
		Key:    append([]byte(nil), record.Key...),
		Value:  append([]byte(nil), record.Value...),
		Offset: record.Offset,
		Time:   record.Time,
	}
	if len(record.Headers) > 0 {
		msg.Headers = make(map[string]string, len(record.Headers))
		for _, h := range record.Headers {
			msg.Headers[h.Key] = string(h.Value)
		}
	}
	return msg
}

// silentBus drops publishes and consumes nothing.
type silentBus struct {
	topic string
}

func (s silentBus) Publish(context.Context, []byte, []byte) error { return nil }

func (s silentBus) Consume(ctx context.Context, _ Handler) error {
	<-ctx.Done()
	return ctx.Err()
}

func (s silentBus) Topic() string { return s.topic }

// printf adapts a zap sugared method to kafka-go's Logger interface.
type printf func(msg string, args ...any)

func (p printf) Printf(msg string, args ...any) { p(msg, args...) }
