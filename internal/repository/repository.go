// Package repository defines the contract of the document store.
//
// A collection (events, products, users) is persisted as ONE JSON document.
// There is no per-record storage: every read returns the whole collection and
// every write replaces it. The services build their operations out of the
// three methods below.
//
// The jsonfile subpackage is the only implementation.
package repository

import "context"

// Collection is a named, typed collection of records.
//
// CONCURRENCY CONTRACT:
//   - Load may run concurrently with other Loads.
//   - Save and Update are serialized per collection: at most one mutation is
//     in flight, and Update holds that exclusivity across the whole
//     load-mutate-save span so concurrent read-modify-write cycles cannot
//     lose each other's changes.
//   - A Load never observes a partially written document.
type Collection[T any] interface {
	// Name is the collection name used in logs, metrics and errors.
	Name() string

	// Load returns the current records in collection order. A missing
	// backing document is created with the collection's default content.
	Load(ctx context.Context) ([]T, error)

	// Save replaces the entire collection with records.
	Save(ctx context.Context, records []T) error

	// Update runs one read-modify-write cycle. fn receives the current
	// records and returns the records to persist. If fn returns an error,
	// nothing is written and that error is returned unchanged.
	Update(ctx context.Context, fn func(records []T) ([]T, error)) error
}
