package sequence

import "sync/atomic"

// Sequencer counts accepted book updates. BookService calls Next after
// every update the book took; refused and negative-size updates do not
// advance it. Quotes and ladders carry Current, and the broadcaster
// publishes only when Current differs from the last quote it sent.
type Sequencer struct {
	next atomic.Uint64
}

// New creates a sequencer whose first Next returns start+1.
func New(start uint64) *Sequencer {
	s := &Sequencer{}
	s.next.Store(start)
	return s
}

// Next records one accepted update and returns its sequence.
func (s *Sequencer) Next() uint64 {
	return s.next.Add(1)
}

// Current is the sequence of the last accepted update, or the start
// value if none was accepted yet.
func (s *Sequencer) Current() uint64 {
	return s.next.Load()
}
