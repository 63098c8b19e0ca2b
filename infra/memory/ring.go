package memory

import (
	"sync/atomic"

	"golang.org/x/sys/cpu"
)

// Ring is a lock-free SPSC ring buffer. Exactly one goroutine may call
// Enqueue and exactly one may call Dequeue.
type Ring[T any] struct {
	head atomic.Uint64 // next write, owned by the producer
	_    cpu.CacheLinePad
	tail atomic.Uint64 // next read, owned by the consumer
	_    cpu.CacheLinePad
	buf  []T
	mask uint64
}

func NewRing[T any](size uint64) *Ring[T] {
	if size == 0 || size&(size-1) != 0 {
		panic("memory.Ring size must be power of two")
	}
	return &Ring[T]{
		buf:  make([]T, size),
		mask: size - 1,
	}
}

// Enqueue reports false when the ring is full.
func (r *Ring[T]) Enqueue(v T) bool {
	h := r.head.Load()
	if h-r.tail.Load() == uint64(len(r.buf)) {
		return false
	}
	r.buf[h&r.mask] = v
	r.head.Store(h + 1)
	return true
}

// Dequeue reports false when the ring is empty.
func (r *Ring[T]) Dequeue() (T, bool) {
	var zero T
	t := r.tail.Load()
	if t == r.head.Load() {
		return zero, false
	}
	v := r.buf[t&r.mask]
	r.buf[t&r.mask] = zero
	r.tail.Store(t + 1)
	return v, true
}

func (r *Ring[T]) Len() int {
	return int(r.head.Load() - r.tail.Load())
}

func (r *Ring[T]) Cap() int {
	return len(r.buf)
}
