package orderbook

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConcurrentWritersAndReaders(t *testing.T) {
	const (
		writers   = 8
		perWriter = 8
		rounds    = 500
	)
	b := New(writers * perWriter)

	written := make(map[float64]bool)
	for w := 0; w < writers; w++ {
		for i := 0; i < perWriter; i++ {
			written[bidPrice(w, i)] = true
			written[askPrice(w, i)] = true
		}
	}

	var (
		wg      sync.WaitGroup
		stop    atomic.Bool
		bogus   atomic.Int64
		readers sync.WaitGroup
	)
	for r := 0; r < 4; r++ {
		readers.Add(1)
		go func() {
			defer readers.Done()
			for !stop.Load() {
				if bid, ok := b.BestBid(); ok && !written[bid.Price] {
					bogus.Add(1)
				}
				if ask, ok := b.BestAsk(); ok && !written[ask.Price] {
					bogus.Add(1)
				}
				_, _ = b.Spread()
			}
		}()
	}

	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for r := 0; r < rounds; r++ {
				for i := 0; i < perWriter; i++ {
					size := int64(r + 1)
					if r%7 == 3 {
						size = 0
					}
					b.UpdateBid(bidPrice(w, i), size, uint64(r))
					b.UpdateAsk(askPrice(w, i), size, uint64(r))
				}
			}
		}(w)
	}
	wg.Wait()

	// with writers quiesced every price fits again
	for w := 0; w < writers; w++ {
		for i := 0; i < perWriter; i++ {
			require.True(t, b.UpdateBid(bidPrice(w, i), 1, rounds))
			require.True(t, b.UpdateAsk(askPrice(w, i), 1, rounds))
		}
	}
	stop.Store(true)
	readers.Wait()

	assert.Zero(t, bogus.Load(), "reader saw a price no writer published")
	assert.Equal(t, writers*perWriter, b.Len(Bid))
	assert.Equal(t, writers*perWriter, b.Len(Ask))

	bid, ok := b.BestBid()
	require.True(t, ok)
	assert.Equal(t, bidPrice(writers-1, perWriter-1), bid.Price)
	ask, ok := b.BestAsk()
	require.True(t, ok)
	assert.Equal(t, askPrice(0, 0), ask.Price)
}

func TestConcurrentNovelPricesFillExactlyCapacity(t *testing.T) {
	const (
		capacity = 64
		writers  = 8
		each     = 16
	)
	b := New(capacity)

	var (
		wg       sync.WaitGroup
		accepted atomic.Int64
	)
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < each; i++ {
				if b.UpdateAsk(askPrice(w, i), 1, 1) {
					accepted.Add(1)
				}
			}
		}(w)
	}
	wg.Wait()

	assert.Equal(t, int64(capacity), accepted.Load())
	assert.Equal(t, capacity, b.Len(Ask))
}

func TestConcurrentSamePriceConverges(t *testing.T) {
	b := New(16)
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for r := 0; r < 1000; r++ {
				b.UpdateBid(50.0, int64(w*1000+r+1), uint64(r))
			}
		}(w)
	}
	wg.Wait()

	// racing claims may leave duplicates; the first one is both the
	// update target and the best-of-side pick
	require.True(t, b.UpdateBid(50.0, 7, 99))
	for _, lvl := range b.Levels(Bid) {
		assert.Equal(t, 50.0, lvl.Price)
	}
	bid, ok := b.BestBid()
	require.True(t, ok)
	assert.Equal(t, int64(7), bid.Size)
	assert.Equal(t, uint64(99), bid.TimestampNs)
}

func bidPrice(w, i int) float64 { return 100 + float64(w*100+i)/1000 }
func askPrice(w, i int) float64 { return 200 + float64(w*100+i)/1000 }
