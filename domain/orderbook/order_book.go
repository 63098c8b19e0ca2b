package orderbook

// OrderBook holds the bid and ask tables for one instrument. It is safe
// for concurrent use by any number of writers and readers.
type OrderBook struct {
	bids     sideTable
	asks     sideTable
	capacity int
}

// New creates an empty book with room for capacity distinct prices per side.
func New(capacity int) *OrderBook {
	if capacity <= 0 {
		panic("orderbook: capacity must be positive")
	}
	return &OrderBook{
		bids:     newSideTable(capacity),
		asks:     newSideTable(capacity),
		capacity: capacity,
	}
}

func (b *OrderBook) Capacity() int { return b.capacity }

func (b *OrderBook) table(side Side) *sideTable {
	if side == Ask {
		return &b.asks
	}
	return &b.bids
}

// UpdateBid publishes the aggregated bid size at price. Size 0 withdraws
// the level. It returns false when the side is full and price is new,
// or when size is negative.
func (b *OrderBook) UpdateBid(price float64, size int64, tsNs uint64) bool {
	return b.bids.update(price, size, tsNs)
}

// UpdateAsk is the ask-side counterpart of UpdateBid.
func (b *OrderBook) UpdateAsk(price float64, size int64, tsNs uint64) bool {
	return b.asks.update(price, size, tsNs)
}

func (b *OrderBook) Update(side Side, price float64, size int64, tsNs uint64) bool {
	return b.table(side).update(price, size, tsNs)
}

func (b *OrderBook) Apply(u LevelUpdate) bool {
	return b.Update(u.Side, u.Price, u.Size, u.TimestampNs)
}

// BestBid returns a copy of the highest priced live bid.
func (b *OrderBook) BestBid() (PriceLevel, bool) {
	return b.bids.best(Bid)
}

// BestAsk returns a copy of the lowest priced live ask.
func (b *OrderBook) BestAsk() (PriceLevel, bool) {
	return b.asks.best(Ask)
}

func (b *OrderBook) Best(side Side) (PriceLevel, bool) {
	return b.table(side).best(side)
}

// MidPrice is (best bid + best ask) / 2. The two sides are read by
// independent scans.
func (b *OrderBook) MidPrice() (float64, bool) {
	bid, ask, ok := b.top()
	if !ok {
		return 0, false
	}
	return (bid.Price + ask.Price) / 2, true
}

// Spread is best ask minus best bid. A crossed book yields a negative
// spread; it is not clamped.
func (b *OrderBook) Spread() (float64, bool) {
	bid, ask, ok := b.top()
	if !ok {
		return 0, false
	}
	return ask.Price - bid.Price, true
}

func (b *OrderBook) top() (bid, ask PriceLevel, ok bool) {
	bid, okBid := b.BestBid()
	ask, okAsk := b.BestAsk()
	return bid, ask, okBid && okAsk
}

// Len counts live levels on side.
func (b *OrderBook) Len(side Side) int {
	return b.table(side).count()
}

// Levels returns every live level on side, best first.
func (b *OrderBook) Levels(side Side) []PriceLevel {
	return b.table(side).levels(side)
}

// Depth returns at most n levels on side, best first.
func (b *OrderBook) Depth(side Side, n int) []PriceLevel {
	if n <= 0 {
		return nil
	}
	lv := b.Levels(side)
	if len(lv) > n {
		lv = lv[:n]
	}
	return lv
}
