// Package kv is the persistence layer: a small key-value store holding JSON
// values. Theme state is keyed per hostname, settings under fixed keys.
package kv

import "errors"

// ErrNotFound is returned by Get when the key has no value.
var ErrNotFound = errors.New("key not found")

// Store is a string-keyed store of JSON-encoded values.
type Store interface {
	// Get returns the raw value for key, ErrNotFound when absent.
	Get(key string) ([]byte, error)

	// Set writes the value for key, replacing any previous value.
	Set(key string, value []byte) error

	// Delete removes the key. Deleting an absent key is not an error.
	Delete(key string) error

	// Keys returns all keys with the given prefix, sorted.
	Keys(prefix string) ([]string, error)

	Close() error
}
