// Package engine defines the narrow ordered key-value contract the storage
// layer is built on: point get/put/delete/multi_get plus a transaction scope
// with get_for_update/put/delete/commit. internal/storage never talks to a
// concrete engine directly, only to this interface, so it can run against
// either the badger-backed production engine or the in-memory test fake.
package engine

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get and GetForUpdate when a key has no value.
// It is an ordinary control-flow signal, not a failure: callers that expect
// absence (DEL on a missing key, a fresh key's first write) must check for
// it explicitly rather than treating it as StoreError.
var ErrNotFound = errors.New("engine: key not found")

// ErrConflict is returned by Engine.Update when the commit fails because a
// concurrent transaction wrote a key this transaction read or wrote first.
var ErrConflict = errors.New("engine: transaction conflict")

// Engine is the ordered, transactional key-value store internal/storage is
// built on top of.
type Engine interface {
	Get(ctx context.Context, key []byte) ([]byte, error)
	Put(ctx context.Context, key, value []byte) error
	Delete(ctx context.Context, key []byte) error
	MultiGet(ctx context.Context, keys [][]byte) ([][]byte, error)

	// Update runs fn inside a single transaction scope. fn's returned error
	// aborts the transaction without committing; a non-nil error from
	// Update itself means the transaction was rolled back, either because
	// fn failed or because commit lost a lock conflict (ErrConflict).
	Update(ctx context.Context, fn func(Txn) error) error

	Close() error
}

// Txn is the per-transaction handle passed to an Engine.Update callback.
type Txn interface {
	// GetForUpdate reads key and marks it as read by this transaction, so a
	// concurrent transaction that writes the same key causes this
	// transaction's eventual commit to fail with ErrConflict.
	GetForUpdate(key []byte) ([]byte, error)
	Put(key, value []byte) error
	Delete(key []byte) error
}
