package orderbook

import (
	"math"
	"slices"
)

// update publishes size at price on this side.
//
// The first pass overwrites or withdraws an existing live slot for the
// price. Only a positive size reaches the second pass, which claims the
// first empty slot. A claimed slot is published as live after its
// payload is written. Two writers racing on the same novel price can
// both claim a slot; best-of-side scans still pick a correct extremum
// and later updates at that price overwrite the first one found.
func (t *sideTable) update(price float64, size int64, ts uint64) bool {
	if size < 0 {
		return false
	}

	bits := math.Float64bits(price)
	for i := range t.slots {
		s := &t.slots[i]
		if !s.live() || s.loadPrice() != price {
			continue
		}
		if size == 0 {
			s.state.Store(slotEmpty)
			return true
		}
		s.size.Store(size)
		s.timestampNs.Store(ts)
		return true
	}

	if size == 0 {
		// nothing to withdraw
		return true
	}

	for i := range t.slots {
		s := &t.slots[i]
		if s.state.Load() != slotEmpty {
			continue
		}
		if !s.state.CompareAndSwap(slotEmpty, slotClaimed) {
			continue
		}
		s.price.Store(bits)
		s.size.Store(size)
		s.timestampNs.Store(ts)
		s.state.Store(slotLive)
		return true
	}
	return false
}

// best scans for the highest live bid or the lowest live ask. Ties keep
// the first slot found.
func (t *sideTable) best(side Side) (PriceLevel, bool) {
	var (
		out   PriceLevel
		found bool
	)
	bestPrice := 0.0
	if side == Ask {
		bestPrice = math.MaxFloat64
	}

	for i := range t.slots {
		s := &t.slots[i]
		if !s.live() {
			continue
		}
		p := s.loadPrice()
		if (side == Bid && p > bestPrice) || (side == Ask && p < bestPrice) {
			bestPrice = p
			out = s.snapshot(p)
			found = true
		}
	}
	return out, found
}

func (t *sideTable) count() int {
	n := 0
	for i := range t.slots {
		if t.slots[i].live() {
			n++
		}
	}
	return n
}

// levels copies every live slot and orders the copies best first. Prices
// that best could never return (bids <= 0, asks at the sentinel, NaN) are
// left out so the first element always agrees with best.
func (t *sideTable) levels(side Side) []PriceLevel {
	out := make([]PriceLevel, 0, len(t.slots))
	for i := range t.slots {
		s := &t.slots[i]
		if !s.live() {
			continue
		}
		p := s.loadPrice()
		if (side == Bid && !(p > 0)) || (side == Ask && !(p < math.MaxFloat64)) {
			continue
		}
		out = append(out, s.snapshot(p))
	}
	slices.SortStableFunc(out, func(a, b PriceLevel) int {
		if side == Bid {
			return compareFloat(b.Price, a.Price)
		}
		return compareFloat(a.Price, b.Price)
	})
	return out
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
