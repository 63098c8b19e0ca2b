// Package service is the single entry point between transports (the
// Kafka feed, the gRPC API, the quote broadcaster) and the order book.
// It stamps sequences, records metrics and routes refused updates.
package service
