package slab

import "errors"

var (
	// ErrOutOfMemory indicates the block source could not supply a new slab.
	// It wraps the source's own error when one was given.
	ErrOutOfMemory = errors.New("slab: out of memory")

	// ErrClosed indicates an allocation was attempted on a closed cache.
	ErrClosed = errors.New("slab: cache closed")
)
