package buffer

// BufferBuilderOption is a functional option used to configure a Buffer during construction.
type BufferBuilderOption func(*buffer)

// WithData stages the initial buffer contents. The data is copied and padded to a multiple of 4 bytes.
//
// Parameters:
//   - data: the bytes uploaded by Init
//
// Returns:
//   - BufferBuilderOption: a function that stages the data on the buffer
func WithData(data []byte) BufferBuilderOption {
	return func(b *buffer) {
		b.data = padded(data)
	}
}

// WithSize reserves a fixed allocation size. When data is also provided the larger of the two is used.
//
// Parameters:
//   - size: the allocation size in bytes
//
// Returns:
//   - BufferBuilderOption: a function that sets the allocation size on the buffer
func WithSize(size uint64) BufferBuilderOption {
	return func(b *buffer) {
		b.size = size
	}
}
