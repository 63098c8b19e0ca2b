package feed

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"topbook/domain/orderbook"
	"topbook/infra/codec"
	"topbook/infra/kafka"
	"topbook/infra/memory"
	"topbook/infra/metrics"
)

// MessageReader is the consumer-group surface the ingestor needs.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

// Applier is satisfied by service.BookService.
type Applier interface {
	Apply(ctx context.Context, u orderbook.LevelUpdate) bool
}

type Config struct {
	RingSize    uint64
	CommitBatch int
	Idle        time.Duration
}

// Ingestor moves level updates from a topic into the book. One
// goroutine fetches and decodes, another applies and commits; they
// meet in a single-producer single-consumer ring.
type Ingestor struct {
	reader  MessageReader
	applier Applier
	ser     codec.Serializer
	ring    *memory.Ring[item]
	batch   int
	idle    time.Duration
	logger  zerolog.Logger
	now     func() time.Time
}

type item struct {
	msg kafka.Message
	upd orderbook.LevelUpdate
	ok  bool
}

const drainTimeout = 2 * time.Second

var (
	errMissingField = errors.New("missing field")
	errBadPrice     = errors.New("price is not finite")
)

func New(reader MessageReader, applier Applier, cfg Config, logger zerolog.Logger) *Ingestor {
	if cfg.RingSize == 0 {
		cfg.RingSize = 1 << 10
	}
	if cfg.CommitBatch <= 0 {
		cfg.CommitBatch = 1
	}
	if cfg.Idle <= 0 {
		cfg.Idle = 200 * time.Microsecond
	}
	return &Ingestor{
		reader:  reader,
		applier: applier,
		ser:     codec.JSONSerializer{},
		ring:    memory.NewRing[item](cfg.RingSize),
		batch:   cfg.CommitBatch,
		idle:    cfg.Idle,
		logger:  logger.With().Str("component", "feed").Logger(),
		now:     time.Now,
	}
}

// Run blocks until ctx is cancelled or the reader fails. Updates already
// fetched are applied and committed before it returns.
func (in *Ingestor) Run(ctx context.Context) error {
	in.logger.Info().Int("ring", in.ring.Cap()).Int("commit_batch", in.batch).Msg("feed started")

	var (
		done atomic.Bool
		wg   sync.WaitGroup
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		in.applyLoop(ctx, &done)
	}()

	err := in.fetchLoop(ctx)
	done.Store(true)
	wg.Wait()

	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("feed: fetch: %w", err)
	}
	in.logger.Info().Msg("feed stopped")
	return nil
}

func (in *Ingestor) fetchLoop(ctx context.Context) error {
	for {
		msg, err := in.reader.FetchMessage(ctx)
		if err != nil {
			return err
		}

		it := item{msg: msg}
		it.upd, err = in.decode(msg.Value)
		if err != nil {
			metrics.FeedMessagesTotal.WithLabelValues("malformed").Inc()
			in.logger.Warn().Err(err).Int("partition", msg.Partition).Int64("offset", msg.Offset).Msg("skip malformed level update")
		} else {
			it.ok = true
		}

		if !in.ring.Enqueue(it) {
			metrics.FeedRingFullTotal.Inc()
			for !in.ring.Enqueue(it) {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				time.Sleep(in.idle)
			}
		}
	}
}

func (in *Ingestor) applyLoop(ctx context.Context, done *atomic.Bool) {
	pending := make([]kafka.Message, 0, in.batch)

	// once ctx is cancelled, work switches to a short-lived context so
	// the drained updates and their offsets can still reach the broker
	work, cancel := ctx, context.CancelFunc(func() {})
	defer func() { cancel() }()

	for {
		if work == ctx && ctx.Err() != nil {
			work, cancel = drainContext(ctx)
		}

		finished := done.Load()
		it, ok := in.ring.Dequeue()
		if !ok {
			if len(pending) > 0 {
				pending = in.commit(work, pending)
			}
			if finished {
				return
			}
			time.Sleep(in.idle)
			continue
		}

		if it.ok {
			if in.applier.Apply(work, it.upd) {
				metrics.FeedMessagesTotal.WithLabelValues("applied").Inc()
			} else {
				metrics.FeedMessagesTotal.WithLabelValues("refused").Inc()
			}
		}
		pending = append(pending, it.msg)
		if len(pending) >= in.batch {
			pending = in.commit(work, pending)
		}
	}
}

func drainContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), drainTimeout)
}

func (in *Ingestor) commit(ctx context.Context, msgs []kafka.Message) []kafka.Message {
	if err := in.reader.CommitMessages(ctx, msgs...); err != nil {
		in.logger.Error().Err(err).Int("count", len(msgs)).Msg("commit offsets")
	}
	return msgs[:0]
}

type levelMessage struct {
	Side        string   `json:"side"`
	Price       *float64 `json:"price"`
	Size        *int64   `json:"size"`
	TimestampNs uint64   `json:"ts"`
}

func (in *Ingestor) decode(b []byte) (orderbook.LevelUpdate, error) {
	var m levelMessage
	if err := in.ser.Decode(b, &m); err != nil {
		return orderbook.LevelUpdate{}, err
	}
	side, err := orderbook.ParseSide(m.Side)
	if err != nil {
		return orderbook.LevelUpdate{}, err
	}
	if m.Price == nil {
		return orderbook.LevelUpdate{}, fmt.Errorf("%w: price", errMissingField)
	}
	if m.Size == nil {
		return orderbook.LevelUpdate{}, fmt.Errorf("%w: size", errMissingField)
	}
	if err := checkPrice(*m.Price); err != nil {
		return orderbook.LevelUpdate{}, err
	}
	ts := m.TimestampNs
	if ts == 0 {
		ts = uint64(in.now().UnixNano())
	}
	return orderbook.LevelUpdate{
		Side:        side,
		Price:       *m.Price,
		Size:        *m.Size,
		TimestampNs: ts,
	}, nil
}

// checkPrice refuses NaN and infinities. A NaN never matches its own
// slot, so once stored it could never be withdrawn.
func checkPrice(p float64) error {
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return fmt.Errorf("%w: %v", errBadPrice, p)
	}
	return nil
}
