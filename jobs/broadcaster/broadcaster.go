package broadcaster

import (
	"context"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/rs/zerolog"

	"topbook/domain/orderbook"
	"topbook/infra/codec"
	"topbook/infra/metrics"
	"topbook/snapshot"
)

// QuoteSource is satisfied by service.BookService.
type QuoteSource interface {
	Seq() uint64
	Quote() snapshot.Quote
	Levels(side orderbook.Side) int
}

// Broadcaster publishes the top of book whenever it moved since the
// previous tick.
type Broadcaster struct {
	source   QuoteSource
	producer sarama.SyncProducer
	topic    string
	ser      codec.Serializer
	interval time.Duration
	logger   zerolog.Logger

	lastSeq   uint64
	published bool
}

// ------------------------------------------------
// CONSTRUCTOR
// ------------------------------------------------

// NewProducer dials brokers with acks from all in-sync replicas.
func NewProducer(brokers []string) (sarama.SyncProducer, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 5
	cfg.Producer.Partitioner = sarama.NewHashPartitioner

	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("broadcaster: dial %v: %w", brokers, err)
	}
	return producer, nil
}

func New(
	source QuoteSource,
	producer sarama.SyncProducer,
	topic string,
	ser codec.Serializer,
	interval time.Duration,
	logger zerolog.Logger,
) *Broadcaster {
	return &Broadcaster{
		source:   source,
		producer: producer,
		topic:    topic,
		ser:      ser,
		interval: interval,
		logger:   logger.With().Str("component", "broadcaster").Str("topic", topic).Logger(),
	}
}

// ------------------------------------------------
// LOOP
// ------------------------------------------------

// Run publishes on every tick until ctx is cancelled.
func (b *Broadcaster) Run(ctx context.Context) {
	b.logger.Info().Dur("interval", b.interval).Msg("broadcaster started")

	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			b.logger.Info().Msg("broadcaster stopped")
			return
		case <-ticker.C:
			if _, err := b.PublishOnce(); err != nil {
				b.logger.Error().Err(err).Msg("publish quote")
			}
		}
	}
}

// PublishOnce sends one quote if the book sequence advanced. It reports
// whether a message was sent. A failed send is retried on the next call.
func (b *Broadcaster) PublishOnce() (bool, error) {
	seq := b.source.Seq()
	if b.published && seq == b.lastSeq {
		return false, nil
	}

	q := b.source.Quote()
	b.observe(q)

	payload, err := b.ser.Encode(q)
	if err != nil {
		metrics.PublishErrorsTotal.Inc()
		return false, fmt.Errorf("encode quote: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: b.topic,
		Key:   sarama.StringEncoder(q.Symbol),
		Value: sarama.ByteEncoder(payload),
		Headers: []sarama.RecordHeader{
			{Key: []byte("content-type"), Value: []byte(b.ser.ContentType())},
		},
	}
	if _, _, err := b.producer.SendMessage(msg); err != nil {
		metrics.PublishErrorsTotal.Inc()
		return false, fmt.Errorf("send quote seq=%d: %w", q.Seq, err)
	}

	metrics.QuotesPublishedTotal.Inc()
	b.lastSeq = q.Seq
	b.published = true
	return true, nil
}

func (b *Broadcaster) observe(q snapshot.Quote) {
	metrics.LevelsLive.WithLabelValues("bid").Set(float64(b.source.Levels(orderbook.Bid)))
	metrics.LevelsLive.WithLabelValues("ask").Set(float64(b.source.Levels(orderbook.Ask)))
	if q.HasBid {
		metrics.BestPrice.WithLabelValues("bid").Set(q.Bid.Price)
	}
	if q.HasAsk {
		metrics.BestPrice.WithLabelValues("ask").Set(q.Ask.Price)
	}
	if q.HasBid && q.HasAsk {
		metrics.Spread.Set(q.Spread)
	}
}

// ------------------------------------------------
// SHUTDOWN
// ------------------------------------------------

func (b *Broadcaster) Close() error {
	return b.producer.Close()
}
