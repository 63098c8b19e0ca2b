package service

import (
	"context"
	"fmt"

	"topbook/domain/orderbook"
	"topbook/infra/codec"
)

// Sender is the write half of a message producer.
type Sender interface {
	Send(ctx context.Context, key, value []byte) error
}

// RejectPublisher forwards refused updates to a topic so operators can
// see which prices did not fit.
type RejectPublisher struct {
	symbol string
	sender Sender
	ser    codec.Serializer
}

func NewRejectPublisher(symbol string, sender Sender, ser codec.Serializer) *RejectPublisher {
	return &RejectPublisher{symbol: symbol, sender: sender, ser: ser}
}

type rejectedUpdate struct {
	Symbol      string  `json:"symbol"`
	Side        string  `json:"side"`
	Price       float64 `json:"price"`
	Size        int64   `json:"size"`
	TimestampNs uint64  `json:"ts"`
	Reason      string  `json:"reason"`
}

func (r rejectedUpdate) Fields() map[string]any {
	return map[string]any{
		"symbol": r.Symbol,
		"side":   r.Side,
		"price":  r.Price,
		"size":   r.Size,
		"ts":     r.TimestampNs,
		"reason": r.Reason,
	}
}

func (p *RejectPublisher) Reject(ctx context.Context, u orderbook.LevelUpdate) error {
	payload, err := p.ser.Encode(rejectedUpdate{
		Symbol:      p.symbol,
		Side:        u.Side.String(),
		Price:       u.Price,
		Size:        u.Size,
		TimestampNs: u.TimestampNs,
		Reason:      "capacity",
	})
	if err != nil {
		return fmt.Errorf("encode rejected update: %w", err)
	}
	return p.sender.Send(ctx, []byte(p.symbol), payload)
}
