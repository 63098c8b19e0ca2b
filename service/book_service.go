package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"topbook/domain/orderbook"
	"topbook/infra/metrics"
	"topbook/infra/sequence"
	"topbook/snapshot"
)

// RejectSink receives updates the book refused for lack of capacity.
type RejectSink interface {
	Reject(ctx context.Context, u orderbook.LevelUpdate) error
}

type BookService struct {
	symbol  string
	depth   int
	book    *orderbook.OrderBook
	seq     *sequence.Sequencer
	logger  zerolog.Logger
	rejects RejectSink
}

// NewBookService wires the book with its collaborators. rejects may be nil.
func NewBookService(
	symbol string,
	depth int,
	book *orderbook.OrderBook,
	seq *sequence.Sequencer,
	logger zerolog.Logger,
	rejects RejectSink,
) *BookService {
	return &BookService{
		symbol:  symbol,
		depth:   depth,
		book:    book,
		seq:     seq,
		logger:  logger.With().Str("component", "book").Str("symbol", symbol).Logger(),
		rejects: rejects,
	}
}

//
// ──────────────────────────────────────────────────────────
// Commands
// ──────────────────────────────────────────────────────────
//

// Apply publishes one level update. Safe for concurrent callers.
func (s *BookService) Apply(ctx context.Context, u orderbook.LevelUpdate) bool {
	start := time.Now()
	ok := s.book.Apply(u)
	metrics.UpdateLatencyNs.Observe(float64(time.Since(start).Nanoseconds()))

	side := u.Side.String()
	if ok {
		s.seq.Next()
		kind := "upsert"
		if u.Size == 0 {
			kind = "withdraw"
		}
		metrics.UpdatesAppliedTotal.WithLabelValues(side, kind).Inc()
		return true
	}

	if u.Size < 0 {
		metrics.UpdatesRejectedTotal.WithLabelValues(side, "negative_size").Inc()
		s.logger.Warn().Str("side", side).Float64("price", u.Price).Int64("size", u.Size).Msg("negative size refused")
		return false
	}

	metrics.UpdatesRejectedTotal.WithLabelValues(side, "capacity").Inc()
	s.logger.Warn().
		Str("side", side).
		Float64("price", u.Price).
		Int64("size", u.Size).
		Int("capacity", s.book.Capacity()).
		Msg("side full, novel price refused")
	if s.rejects != nil {
		if err := s.rejects.Reject(ctx, u); err != nil {
			s.logger.Error().Err(err).Msg("forward rejected update")
		}
	}
	return false
}

//
// ──────────────────────────────────────────────────────────
// Queries
// ──────────────────────────────────────────────────────────
//

func (s *BookService) Quote() snapshot.Quote {
	return snapshot.Take(s.symbol, s.seq.Current(), s.book, s.depth)
}

// Ladder returns up to depth levels per side; depth <= 0 uses the
// configured depth.
func (s *BookService) Ladder(depth int) snapshot.Ladder {
	if depth <= 0 {
		depth = s.depth
	}
	return snapshot.TakeLadder(s.symbol, s.seq.Current(), s.book, depth)
}

// Seq is the sequence of the last accepted update.
func (s *BookService) Seq() uint64 { return s.seq.Current() }

func (s *BookService) Symbol() string { return s.symbol }

func (s *BookService) Levels(side orderbook.Side) int { return s.book.Len(side) }
