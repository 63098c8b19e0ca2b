// Package memory provides low-level lock-free primitives shared by the
// ingest pipeline. Ring is a cache-line padded single-producer,
// single-consumer queue used to hand decoded level updates from the
// fetch goroutine to the goroutine applying them to the book.
package memory
