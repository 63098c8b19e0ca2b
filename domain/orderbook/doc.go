// Package orderbook implements a fixed-capacity, lock-free top-of-book
// for a single instrument. Each side is a flat, unordered table of
// cache-line sized price level slots. Writers publish aggregated size
// per price and readers scan a side for its best level.
//
// Any number of goroutines may update and read concurrently. No
// operation takes a lock or retries on another goroutine's progress:
// every call finishes in at most two passes over one side. Reads are
// point-in-time copies and may be stale by the time they return.
package orderbook
