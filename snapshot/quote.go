package snapshot

import (
	"time"

	"topbook/domain/orderbook"
)

// Quote is the top-of-book view of one instrument.
type Quote struct {
	Symbol      string               `json:"symbol"`
	Seq         uint64               `json:"seq"`
	Bid         orderbook.PriceLevel `json:"bid"`
	Ask         orderbook.PriceLevel `json:"ask"`
	HasBid      bool                 `json:"has_bid"`
	HasAsk      bool                 `json:"has_ask"`
	Mid         float64              `json:"mid,omitempty"`
	Spread      float64              `json:"spread,omitempty"`
	SpreadBps   float64              `json:"spread_bps,omitempty"`
	WeightedMid float64              `json:"weighted_mid,omitempty"`
	Imbalance   float64              `json:"imbalance"`
	TakenAt     time.Time            `json:"taken_at"`
}

// Take reads a quote from book. seq is the last sequence applied to
// the book before the read started; depth bounds the imbalance window.
func Take(symbol string, seq uint64, book *orderbook.OrderBook, depth int) Quote {
	q := Quote{
		Symbol:  symbol,
		Seq:     seq,
		TakenAt: time.Now(),
	}
	q.Bid, q.HasBid = book.BestBid()
	q.Ask, q.HasAsk = book.BestAsk()
	if q.HasBid && q.HasAsk {
		// derived from the two levels above rather than rescanning, so
		// these agree with Bid and Ask
		q.Mid = (q.Bid.Price + q.Ask.Price) / 2
		q.Spread = q.Ask.Price - q.Bid.Price
		q.SpreadBps, _ = orderbook.SpreadBpsOf(q.Bid, q.Ask)
		q.WeightedMid = orderbook.WeightedMidOf(q.Bid, q.Ask)
	}
	q.Imbalance = book.Imbalance(depth)
	return q
}

// Fields flattens the quote for protobuf Struct encoding.
func (q Quote) Fields() map[string]any {
	f := map[string]any{
		"symbol":    q.Symbol,
		"seq":       q.Seq,
		"imbalance": q.Imbalance,
		"taken_at":  q.TakenAt.UTC().Format(time.RFC3339Nano),
	}
	if q.HasBid {
		f["bid"] = levelFields(q.Bid)
	}
	if q.HasAsk {
		f["ask"] = levelFields(q.Ask)
	}
	if q.HasBid && q.HasAsk {
		f["mid"] = q.Mid
		f["spread"] = q.Spread
		f["spread_bps"] = q.SpreadBps
		f["weighted_mid"] = q.WeightedMid
	}
	return f
}

func levelFields(l orderbook.PriceLevel) map[string]any {
	return map[string]any{
		"price": l.Price,
		"size":  l.Size,
		"ts":    l.TimestampNs,
	}
}
