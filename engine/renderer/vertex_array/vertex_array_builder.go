package vertex_array

import "github.com/Carmen-Shannon/oxy-sandbox/engine/renderer/buffer"

// VertexArrayBuilderOption is a functional option used to configure a VertexArray during construction.
type VertexArrayBuilderOption func(*vertexArray)

// WithAttributes replaces the default common.Vertex attribute layout.
//
// Parameters:
//   - attributes: the attributes of one interleaved vertex
//
// Returns:
//   - VertexArrayBuilderOption: a function that sets the attributes
func WithAttributes(attributes ...Attribute) VertexArrayBuilderOption {
	return func(va *vertexArray) {
		va.attributes = attributes
	}
}

// WithStride sets the byte distance between consecutive vertices.
//
// Parameters:
//   - stride: the array stride in bytes
//
// Returns:
//   - VertexArrayBuilderOption: a function that sets the stride
func WithStride(stride uint64) VertexArrayBuilderOption {
	return func(va *vertexArray) {
		va.stride = stride
	}
}

// WithVertexBuffer attaches the vertex buffer the attributes are read from.
//
// Parameters:
//   - b: a buffer of kind buffer.KindVertex
//
// Returns:
//   - VertexArrayBuilderOption: a function that attaches the vertex buffer
func WithVertexBuffer(b buffer.Buffer) VertexArrayBuilderOption {
	return func(va *vertexArray) {
		va.vertexBuffer = b
	}
}

// WithIndexBuffer attaches a uint32 index buffer, turning draws into indexed draws.
//
// Parameters:
//   - b: a buffer of kind buffer.KindIndex
//
// Returns:
//   - VertexArrayBuilderOption: a function that attaches the index buffer
func WithIndexBuffer(b buffer.Buffer) VertexArrayBuilderOption {
	return func(va *vertexArray) {
		va.indexBuffer = b
	}
}

// WithIndexCount overrides the number of indices drawn. By default every index in the buffer is drawn.
//
// Parameters:
//   - count: the number of indices to draw
//
// Returns:
//   - VertexArrayBuilderOption: a function that sets the index count
func WithIndexCount(count int) VertexArrayBuilderOption {
	return func(va *vertexArray) {
		va.indexCount = count
	}
}
