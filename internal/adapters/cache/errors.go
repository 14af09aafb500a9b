package cache

import "errors"

// Sentinel error kinds for cache backends.
var (
	// ErrMiss reports that no live entry exists for the key.
	ErrMiss = errors.New("cache miss")

	// ErrClosed reports an operation on a closed backend.
	ErrClosed = errors.New("cache backend closed")

	// ErrTimeout reports a backend call exceeding its deadline.
	ErrTimeout = errors.New("cache backend timeout")
)
