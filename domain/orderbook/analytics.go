package orderbook

const bpsPerUnit = 10_000

// SpreadBps is the spread expressed in basis points of the mid price.
func (b *OrderBook) SpreadBps() (float64, bool) {
	bid, ask, ok := b.top()
	if !ok {
		return 0, false
	}
	return SpreadBpsOf(bid, ask)
}

// SpreadBpsOf is the spread between bid and ask in basis points of their
// mid. It reports false when the mid is 0.
func SpreadBpsOf(bid, ask PriceLevel) (float64, bool) {
	mid := (bid.Price + ask.Price) / 2
	if mid == 0 {
		return 0, false
	}
	return (ask.Price - bid.Price) / mid * bpsPerUnit, true
}

// Imbalance compares resting size over the top depth levels of each side.
// The result is in [-1, 1]; positive means more bid size. It is 0 when
// either side is empty.
func (b *OrderBook) Imbalance(depth int) float64 {
	bids := b.Depth(Bid, depth)
	asks := b.Depth(Ask, depth)
	if len(bids) == 0 || len(asks) == 0 {
		return 0
	}
	bidVol := totalSize(bids)
	askVol := totalSize(asks)
	total := bidVol + askVol
	if total == 0 {
		return 0
	}
	return (bidVol - askVol) / total
}

// WeightedMid leans the mid toward the side with less resting size at
// the top of book: (bid*askSize + ask*bidSize) / (bidSize + askSize).
func (b *OrderBook) WeightedMid() (float64, bool) {
	bid, ask, ok := b.top()
	if !ok {
		return 0, false
	}
	return WeightedMidOf(bid, ask), true
}

// WeightedMidOf is the size-weighted mid of one bid and one ask level.
// Sizes are summed as float64 so two large int64 sizes cannot wrap.
func WeightedMidOf(bid, ask PriceLevel) float64 {
	bidSize, askSize := float64(bid.Size), float64(ask.Size)
	total := bidSize + askSize
	if total == 0 {
		return (bid.Price + ask.Price) / 2
	}
	return (bid.Price*askSize + ask.Price*bidSize) / total
}

// VWAP is the average price an aggressor on side would pay (Bid) or
// receive (Ask) sweeping qty from the opposite side. It reports false
// when qty is not positive or the opposite side cannot fill it.
func (b *OrderBook) VWAP(side Side, qty int64) (float64, bool) {
	if qty <= 0 {
		return 0, false
	}
	remaining := qty
	cost := 0.0
	for _, lvl := range b.Levels(side.Opposite()) {
		take := min(remaining, lvl.Size)
		cost += float64(take) * lvl.Price
		remaining -= take
		if remaining == 0 {
			return cost / float64(qty), true
		}
	}
	return 0, false
}

func totalSize(levels []PriceLevel) float64 {
	var sum float64
	for _, l := range levels {
		sum += float64(l.Size)
	}
	return sum
}
