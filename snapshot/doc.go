// Package snapshot builds point-in-time views of the order book for
// publishers and the query API. Every figure in a view comes from its
// own scan of the book, so under concurrent updates the figures may
// disagree slightly with each other; the view is a possibly stale read,
// never a locked copy.
package snapshot
