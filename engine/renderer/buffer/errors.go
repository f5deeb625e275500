package buffer

import "errors"

var (
	// ErrEmpty is returned when a buffer is initialized with neither data nor a size.
	ErrEmpty = errors.New("buffer: no data or size provided")

	// ErrNotInitialized is returned when a buffer is written or bound before Init.
	ErrNotInitialized = errors.New("buffer: not initialized")

	// ErrReleased is returned when a buffer is used after Release.
	ErrReleased = errors.New("buffer: already released")

	// ErrOutOfRange is returned when a write does not fit inside the buffer.
	ErrOutOfRange = errors.New("buffer: write out of range")

	// ErrMisaligned is returned when a write offset or size is not a multiple of 4 bytes.
	ErrMisaligned = errors.New("buffer: write not 4-byte aligned")
)
