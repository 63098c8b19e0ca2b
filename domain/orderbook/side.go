package orderbook

import (
	"fmt"
	"strings"
)

type Side uint8

const (
	Bid Side = iota
	Ask
)

func (s Side) String() string {
	switch s {
	case Bid:
		return "bid"
	case Ask:
		return "ask"
	default:
		return "unknown"
	}
}

// Opposite returns the side an aggressor of s trades against.
func (s Side) Opposite() Side {
	if s == Bid {
		return Ask
	}
	return Bid
}

// ParseSide accepts "bid"/"buy" and "ask"/"sell" in any case.
func ParseSide(v string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "bid", "buy", "b":
		return Bid, nil
	case "ask", "sell", "offer", "a", "s":
		return Ask, nil
	default:
		return 0, fmt.Errorf("orderbook: unknown side %q", v)
	}
}

// LevelUpdate is one aggregated size publication for a price.
// Size 0 withdraws the level.
type LevelUpdate struct {
	Side        Side
	Price       float64
	Size        int64
	TimestampNs uint64
}
