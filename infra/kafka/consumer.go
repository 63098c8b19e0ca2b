package kafka

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"
)

// Message is the kafka-go message type, re-exported so callers do not
// import kafka-go directly.
type Message = kafka.Message

type ConsumerConfig struct {
	Brokers  []string
	Topic    string
	GroupID  string
	MinBytes int
	MaxBytes int
	MaxWait  time.Duration
}

// Consumer reads a topic as part of a consumer group. Offsets are only
// committed through CommitMessages.
type Consumer struct {
	reader *kafka.Reader
}

func NewConsumer(cfg ConsumerConfig) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:        cfg.Brokers,
			Topic:          cfg.Topic,
			GroupID:        cfg.GroupID,
			MinBytes:       cfg.MinBytes,
			MaxBytes:       cfg.MaxBytes,
			MaxWait:        cfg.MaxWait,
			CommitInterval: 0,
			StartOffset:    kafka.LastOffset,
		}),
	}
}

func (c *Consumer) FetchMessage(ctx context.Context) (Message, error) {
	return c.reader.FetchMessage(ctx)
}

func (c *Consumer) CommitMessages(ctx context.Context, msgs ...Message) error {
	return c.reader.CommitMessages(ctx, msgs...)
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
