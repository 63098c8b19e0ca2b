package orderbook

import (
	"math"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/cpu"
)

// PriceLevel is a by-value copy of one live slot.
type PriceLevel struct {
	Price       float64 `json:"price"`
	Size        int64   `json:"size"`
	TimestampNs uint64  `json:"ts"`
}

const cacheLineSize = unsafe.Sizeof(cpu.CacheLinePad{})

// Slot states. A claimed slot belongs to a writer that is still filling
// in the payload; readers and price matching only look at live slots.
const (
	slotEmpty uint32 = iota
	slotClaimed
	slotLive
)

type slotFields struct {
	price       atomic.Uint64 // math.Float64bits
	size        atomic.Int64
	timestampNs atomic.Uint64
	state       atomic.Uint32
}

// levelSlot fills exactly one cache line so writers on adjacent slots
// never share a line.
type levelSlot struct {
	slotFields
	_ [cacheLineSize - unsafe.Sizeof(slotFields{})]byte
}

func (s *levelSlot) live() bool {
	return s.state.Load() == slotLive
}

func (s *levelSlot) loadPrice() float64 {
	return math.Float64frombits(s.price.Load())
}

func (s *levelSlot) snapshot(price float64) PriceLevel {
	return PriceLevel{
		Price:       price,
		Size:        s.size.Load(),
		TimestampNs: s.timestampNs.Load(),
	}
}

// sideTable is a contiguous, cache-line aligned array of slots.
type sideTable struct {
	slots []levelSlot
	raw   []byte
}

func newSideTable(n int) sideTable {
	size := int(unsafe.Sizeof(levelSlot{}))
	raw := make([]byte, n*size+int(cacheLineSize))
	base := uintptr(unsafe.Pointer(unsafe.SliceData(raw)))
	skip := (cacheLineSize - base%cacheLineSize) % cacheLineSize

	// Fresh memory is zeroed, so every slot starts as slotEmpty. Nothing
	// can observe the table before the owning book is returned.
	return sideTable{
		slots: unsafe.Slice((*levelSlot)(unsafe.Pointer(&raw[skip])), n),
		raw:   raw,
	}
}
