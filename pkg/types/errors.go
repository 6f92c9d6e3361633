package types

import "errors"

// Domain errors shared across pipeline components
var (
	// Validation errors
	ErrEmptyContent    = errors.New("chunk content cannot be empty")
	ErrInvalidLineSpan = errors.New("line span must be positive with start <= end")
	ErrInvalidChunkID  = errors.New("invalid chunk ID")
	ErrInvalidDistance = errors.New("distance must be non-negative")

	// ErrIndexWrite wraps failures writing to the embedding index
	ErrIndexWrite = errors.New("index write failed")
	// ErrIndexRead wraps failures reading from the embedding index
	ErrIndexRead = errors.New("index read failed")
)
