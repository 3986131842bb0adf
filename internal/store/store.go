// Package store defines the key-value persistence capability consumed by
// the credential store, plus in-memory and file-backed implementations.
//
// The interface mirrors NVS-style preference storage on embedded targets:
// a handle is opened against a namespace, used for one short burst of
// reads or writes, and closed again. Durability is per call; there is no
// cross-call transaction.
package store

import "errors"

// Store opens namespaced key-value handles.
type Store interface {
	// Open returns a handle on the namespace. A read-only handle rejects
	// writes. Open may fail if the backing medium is unavailable.
	Open(namespace string, readOnly bool) (Handle, error)
}

// Handle is one open namespace. Callers must Close it after use.
type Handle interface {
	// GetString returns the stored value for key, or def if absent.
	GetString(key, def string) string

	// PutString stores value under key.
	PutString(key, value string) error

	// GetUint returns the stored counter for key, or def if absent or
	// unparsable.
	GetUint(key string, def uint32) uint32

	// PutUint stores a counter under key.
	PutUint(key string, value uint32) error

	// Clear removes every key in the namespace.
	Clear() error

	// Close releases the handle and flushes pending writes.
	Close() error
}

// ErrReadOnly is returned for writes through a read-only handle.
var ErrReadOnly = errors.New("store: handle is read-only")

// ErrClosed is returned when a handle is used after Close.
var ErrClosed = errors.New("store: handle is closed")
