package sequence

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSequencerMonotonic(t *testing.T) {
	s := New(10)
	assert.Equal(t, uint64(10), s.Current())
	assert.Equal(t, uint64(11), s.Next())
	assert.Equal(t, uint64(12), s.Next())
	assert.Equal(t, uint64(12), s.Current())
}

func TestSequencerConcurrentUnique(t *testing.T) {
	s := New(0)
	seen := make([]uint64, 0, 8000)
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			local := make([]uint64, 0, 1000)
			for i := 0; i < 1000; i++ {
				local = append(local, s.Next())
			}
			mu.Lock()
			seen = append(seen, local...)
			mu.Unlock()
		}()
	}
	wg.Wait()

	uniq := make(map[uint64]struct{}, len(seen))
	for _, v := range seen {
		uniq[v] = struct{}{}
	}
	assert.Len(t, uniq, 8000)
	assert.Equal(t, uint64(8000), s.Current())
}
