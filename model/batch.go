package model

// Batch is an ordered, fixed-size group of items collected by a
// processor for a single export attempt. Items are never reordered or
// split once a Batch is formed; a partial export failure applies to the
// whole Batch.
type Batch[T any] struct {
	ID    uint64
	Items []T
}

// Len returns the number of items in the batch.
func (b Batch[T]) Len() int {
	return len(b.Items)
}
