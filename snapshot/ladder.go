package snapshot

import (
	"time"

	"topbook/domain/orderbook"
)

// Ladder lists the best levels of both sides, best first. BidCum and
// AskCum hold the running size total down each side, which is what a
// depth chart plots.
type Ladder struct {
	Symbol  string                 `json:"symbol"`
	Seq     uint64                 `json:"seq"`
	Bids    []orderbook.PriceLevel `json:"bids"`
	Asks    []orderbook.PriceLevel `json:"asks"`
	BidCum  []float64              `json:"bid_cum"`
	AskCum  []float64              `json:"ask_cum"`
	TakenAt time.Time              `json:"taken_at"`
}

func TakeLadder(symbol string, seq uint64, book *orderbook.OrderBook, depth int) Ladder {
	bids := book.Depth(orderbook.Bid, depth)
	asks := book.Depth(orderbook.Ask, depth)
	return Ladder{
		Symbol:  symbol,
		Seq:     seq,
		Bids:    bids,
		Asks:    asks,
		BidCum:  cumulative(bids),
		AskCum:  cumulative(asks),
		TakenAt: time.Now(),
	}
}

// cumulative sums as float64; int64 totals can wrap on large books.
func cumulative(levels []orderbook.PriceLevel) []float64 {
	out := make([]float64, len(levels))
	var sum float64
	for i, l := range levels {
		sum += float64(l.Size)
		out[i] = sum
	}
	return out
}

func (l Ladder) Fields() map[string]any {
	return map[string]any{
		"symbol":   l.Symbol,
		"seq":      l.Seq,
		"bids":     levelList(l.Bids),
		"asks":     levelList(l.Asks),
		"bid_cum":  floatList(l.BidCum),
		"ask_cum":  floatList(l.AskCum),
		"taken_at": l.TakenAt.UTC().Format(time.RFC3339Nano),
	}
}

func levelList(levels []orderbook.PriceLevel) []any {
	out := make([]any, len(levels))
	for i, l := range levels {
		out[i] = levelFields(l)
	}
	return out
}

func floatList(vals []float64) []any {
	out := make([]any, len(vals))
	for i, v := range vals {
		out[i] = v
	}
	return out
}
