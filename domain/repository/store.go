// Package repository provides the shared query option system and generic
// store contracts used by all aggregate persistence interfaces.
package repository

import "context"

// Store defines the read-side persistence operations shared by all
// aggregate stores. Aggregate packages embed it in their own store
// interfaces and add bespoke write methods.
type Store[T any] interface {
	// Find retrieves entities matching the given options.
	Find(ctx context.Context, options ...Option) ([]T, error)

	// FindOne retrieves a single entity matching the given options.
	FindOne(ctx context.Context, options ...Option) (T, error)

	// Exists checks if any entity matches the given options.
	Exists(ctx context.Context, options ...Option) (bool, error)

	// Count returns the number of entities matching the given options.
	Count(ctx context.Context, options ...Option) (int64, error)

	// DeleteBy removes entities matching the given options.
	DeleteBy(ctx context.Context, options ...Option) error
}

// Collection provides read-only query access over a Store. Application
// services embed it so API routers get Find/Get/Count without each
// service re-implementing the plumbing.
type Collection[T any] struct {
	store Store[T]
}

// NewCollection creates a Collection backed by the given store.
func NewCollection[T any](store Store[T]) Collection[T] {
	return Collection[T]{store: store}
}

// Find retrieves entities matching the given options.
func (c Collection[T]) Find(ctx context.Context, options ...Option) ([]T, error) {
	return c.store.Find(ctx, options...)
}

// Get retrieves a single entity matching the given options.
func (c Collection[T]) Get(ctx context.Context, options ...Option) (T, error) {
	return c.store.FindOne(ctx, options...)
}

// Exists checks if any entity matches the given options.
func (c Collection[T]) Exists(ctx context.Context, options ...Option) (bool, error) {
	return c.store.Exists(ctx, options...)
}

// Count returns the number of entities matching the given options.
func (c Collection[T]) Count(ctx context.Context, options ...Option) (int64, error) {
	return c.store.Count(ctx, options...)
}
