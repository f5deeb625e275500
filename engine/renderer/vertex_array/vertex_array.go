package vertex_array

import (
	"errors"
	"fmt"
	"log"
	"sort"

	"github.com/Carmen-Shannon/oxy-sandbox/common"
	"github.com/Carmen-Shannon/oxy-sandbox/engine/renderer/buffer"
	"github.com/cogentcore/webgpu/wgpu"
)

// Attribute describes one vertex attribute inside an interleaved vertex buffer.
type Attribute struct {
	// Location is the shader input location (@location(N)) this attribute feeds.
	Location uint32

	// Format is the per-vertex data format.
	Format wgpu.VertexFormat

	// Offset is the byte offset of the attribute from the start of each vertex.
	Offset uint64
}

// formatSizes maps the vertex formats the sandbox understands to their byte size.
var formatSizes = map[wgpu.VertexFormat]uint64{
	wgpu.VertexFormatFloat32:   4,
	wgpu.VertexFormatFloat32x2: 8,
	wgpu.VertexFormatFloat32x3: 12,
	wgpu.VertexFormatFloat32x4: 16,
	wgpu.VertexFormatSint32:    4,
	wgpu.VertexFormatSint32x2:  8,
	wgpu.VertexFormatSint32x3:  12,
	wgpu.VertexFormatSint32x4:  16,
	wgpu.VertexFormatUint32:    4,
	wgpu.VertexFormatUint32x2:  8,
	wgpu.VertexFormatUint32x3:  12,
	wgpu.VertexFormatUint32x4:  16,
	wgpu.VertexFormatFloat16x2: 4,
	wgpu.VertexFormatFloat16x4: 8,
	wgpu.VertexFormatUnorm8x4:  4,
}

// FormatSize returns the byte size of a vertex format, or 0 if the format is not supported.
//
// Parameters:
//   - f: the vertex format
//
// Returns:
//   - uint64: the size in bytes
func FormatSize(f wgpu.VertexFormat) uint64 {
	return formatSizes[f]
}

// DefaultAttributes describes the interleaved layout of common.Vertex:
// position at location 0, normal at location 1 and texture coordinate at location 2.
//
// Returns:
//   - []Attribute: the three attributes of common.Vertex
func DefaultAttributes() []Attribute {
	return []Attribute{
		{Location: 0, Format: wgpu.VertexFormatFloat32x3, Offset: 0},
		{Location: 1, Format: wgpu.VertexFormatFloat32x3, Offset: 12},
		{Location: 2, Format: wgpu.VertexFormatFloat32x2, Offset: 24},
	}
}

// vertexArray is the implementation of the VertexArray interface.
type vertexArray struct {
	label      string
	attributes []Attribute
	stride     uint64

	vertexBuffer buffer.Buffer
	indexBuffer  buffer.Buffer
	indexCount   int // -1 derives the count from the index buffer size

	released bool
}

// VertexArray binds an attribute layout to a vertex buffer and an optional index buffer.
// It is the WebGPU counterpart of a vertex array object: the layout is baked into the render
// pipeline while the buffers are bound on the render pass at draw time.
type VertexArray interface {
	// Label returns the debug label for this vertex array.
	//
	// Returns:
	//   - string: the debug label
	Label() string

	// Attributes returns the attribute layout.
	//
	// Returns:
	//   - []Attribute: the attributes in declaration order
	Attributes() []Attribute

	// Stride returns the byte distance between consecutive vertices.
	//
	// Returns:
	//   - uint64: the array stride
	Stride() uint64

	// Layout converts the attributes into a WebGPU vertex buffer layout for pipeline creation.
	//
	// Returns:
	//   - wgpu.VertexBufferLayout: the layout with per-vertex step mode
	Layout() wgpu.VertexBufferLayout

	// VertexBuffer returns the vertex buffer, or nil if none is attached.
	//
	// Returns:
	//   - buffer.Buffer: the vertex buffer
	VertexBuffer() buffer.Buffer

	// IndexBuffer returns the index buffer, or nil for non-indexed arrays.
	//
	// Returns:
	//   - buffer.Buffer: the index buffer
	IndexBuffer() buffer.Buffer

	// Indexed reports whether draws use the index buffer.
	//
	// Returns:
	//   - bool: true when an index buffer is attached
	Indexed() bool

	// VertexCount returns the number of whole vertices in the vertex buffer.
	//
	// Returns:
	//   - int: the vertex count
	VertexCount() int

	// IndexCount returns the number of indices drawn for indexed arrays.
	//
	// Returns:
	//   - int: the index count, 0 for non-indexed arrays
	IndexCount() int

	// Validate checks that the layout and attached buffers are consistent.
	//
	// Returns:
	//   - error: a description of the first inconsistency found
	Validate() error

	// CompatibleWith checks that this array can feed a shader expecting the given vertex input layout.
	// Every location the shader reads must be present here with the same format.
	//
	// Parameters:
	//   - layout: the layout parsed from the vertex shader
	//
	// Returns:
	//   - error: a description of the first mismatch
	CompatibleWith(layout wgpu.VertexBufferLayout) error

	// Bind sets the vertex and index buffers on a render pass.
	//
	// Parameters:
	//   - pass: the active render pass
	//
	// Returns:
	//   - error: an error if a buffer is not initialized or the array was released
	Bind(pass *wgpu.RenderPassEncoder) error

	// Draw binds the buffers and records an indexed or non-indexed draw.
	//
	// Parameters:
	//   - pass: the active render pass
	//   - instanceCount: the number of instances to draw
	//
	// Returns:
	//   - error: an error if Bind fails
	Draw(pass *wgpu.RenderPassEncoder, instanceCount uint32) error

	// Release releases the attached buffers. Subsequent calls log and return.
	Release()
}

var _ VertexArray = &vertexArray{}

// NewVertexArray creates a new VertexArray. Without options it uses the common.Vertex layout.
//
// Parameters:
//   - label: a debug label
//   - options: functional options configuring attributes and buffers
//
// Returns:
//   - VertexArray: the new vertex array
func NewVertexArray(label string, options ...VertexArrayBuilderOption) VertexArray {
	va := &vertexArray{
		label:      label,
		attributes: DefaultAttributes(),
		stride:     common.VertexSize,
		indexCount: -1,
	}
	for _, opt := range options {
		opt(va)
	}
	return va
}

func (va *vertexArray) Label() string {
	return va.label
}

func (va *vertexArray) Attributes() []Attribute {
	return va.attributes
}

func (va *vertexArray) Stride() uint64 {
	return va.stride
}

func (va *vertexArray) Layout() wgpu.VertexBufferLayout {
	attrs := make([]wgpu.VertexAttribute, 0, len(va.attributes))
	for _, a := range va.attributes {
		attrs = append(attrs, wgpu.VertexAttribute{
			Format:         a.Format,
			Offset:         a.Offset,
			ShaderLocation: a.Location,
		})
	}
	return wgpu.VertexBufferLayout{
		ArrayStride: va.stride,
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes:  attrs,
	}
}

func (va *vertexArray) VertexBuffer() buffer.Buffer {
	return va.vertexBuffer
}

func (va *vertexArray) IndexBuffer() buffer.Buffer {
	return va.indexBuffer
}

func (va *vertexArray) Indexed() bool {
	return va.indexBuffer != nil
}

func (va *vertexArray) VertexCount() int {
	if va.vertexBuffer == nil || va.stride == 0 {
		return 0
	}
	return int(va.vertexBuffer.Size() / va.stride)
}

func (va *vertexArray) IndexCount() int {
	if va.indexBuffer == nil {
		return 0
	}
	if va.indexCount >= 0 {
		return va.indexCount
	}
	return int(va.indexBuffer.Size() / 4)
}

func (va *vertexArray) Validate() error {
	if va.stride == 0 {
		return fmt.Errorf("vertex array %q: stride must be greater than zero", va.label)
	}
	if len(va.attributes) == 0 {
		return fmt.Errorf("vertex array %q: no attributes", va.label)
	}

	sorted := make([]Attribute, len(va.attributes))
	copy(sorted, va.attributes)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Offset < sorted[j].Offset
	})

	seen := make(map[uint32]bool, len(sorted))
	var end uint64
	for i, a := range sorted {
		size := FormatSize(a.Format)
		if size == 0 {
			return fmt.Errorf("vertex array %q: location %d has unsupported format %v", va.label, a.Location, a.Format)
		}
		if seen[a.Location] {
			return fmt.Errorf("vertex array %q: location %d declared twice", va.label, a.Location)
		}
		seen[a.Location] = true
		if i > 0 && a.Offset < end {
			return fmt.Errorf("vertex array %q: location %d at offset %d overlaps previous attribute ending at %d", va.label, a.Location, a.Offset, end)
		}
		end = a.Offset + size
		if end > va.stride {
			return fmt.Errorf("vertex array %q: location %d ends at byte %d past stride %d", va.label, a.Location, end, va.stride)
		}
	}

	if va.vertexBuffer == nil {
		return fmt.Errorf("vertex array %q: no vertex buffer attached", va.label)
	}
	if va.vertexBuffer.Kind() != buffer.KindVertex {
		return fmt.Errorf("vertex array %q: vertex buffer %q is a %s buffer", va.label, va.vertexBuffer.Label(), va.vertexBuffer.Kind())
	}
	if size := va.vertexBuffer.Size(); size == 0 || size%va.stride != 0 {
		return fmt.Errorf("vertex array %q: vertex buffer size %d is not a positive multiple of stride %d", va.label, size, va.stride)
	}

	if va.indexBuffer != nil {
		if va.indexBuffer.Kind() != buffer.KindIndex {
			return fmt.Errorf("vertex array %q: index buffer %q is a %s buffer", va.label, va.indexBuffer.Label(), va.indexBuffer.Kind())
		}
		if va.indexBuffer.Size() == 0 {
			return fmt.Errorf("vertex array %q: index buffer is empty", va.label)
		}
		if available := int(va.indexBuffer.Size() / 4); va.IndexCount() > available {
			return fmt.Errorf("vertex array %q: index count %d exceeds the %d indices in the buffer", va.label, va.IndexCount(), available)
		}
	}
	return nil
}

func (va *vertexArray) CompatibleWith(layout wgpu.VertexBufferLayout) error {
	have := make(map[uint32]wgpu.VertexFormat, len(va.attributes))
	for _, a := range va.attributes {
		have[a.Location] = a.Format
	}
	for _, want := range layout.Attributes {
		got, ok := have[want.ShaderLocation]
		if !ok {
			return fmt.Errorf("vertex array %q: shader reads location %d which is not provided", va.label, want.ShaderLocation)
		}
		if got != want.Format {
			return fmt.Errorf("vertex array %q: location %d is %v, shader expects %v", va.label, want.ShaderLocation, got, want.Format)
		}
	}
	return nil
}

func (va *vertexArray) Bind(pass *wgpu.RenderPassEncoder) error {
	if va.released {
		return fmt.Errorf("vertex array %q: %w", va.label, buffer.ErrReleased)
	}
	if va.vertexBuffer == nil || !va.vertexBuffer.Initialized() {
		return fmt.Errorf("vertex array %q: vertex buffer: %w", va.label, buffer.ErrNotInitialized)
	}
	if va.indexBuffer != nil && !va.indexBuffer.Initialized() {
		return fmt.Errorf("vertex array %q: index buffer: %w", va.label, buffer.ErrNotInitialized)
	}
	if pass == nil {
		return errors.New("vertex array: no active render pass")
	}

	pass.SetVertexBuffer(0, va.vertexBuffer.GPUBuffer(), 0, wgpu.WholeSize)
	if va.indexBuffer != nil {
		pass.SetIndexBuffer(va.indexBuffer.GPUBuffer(), wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
	}
	return nil
}

func (va *vertexArray) Draw(pass *wgpu.RenderPassEncoder, instanceCount uint32) error {
	if err := va.Bind(pass); err != nil {
		return err
	}
	if va.Indexed() {
		pass.DrawIndexed(uint32(va.IndexCount()), instanceCount, 0, 0, 0)
		return nil
	}
	pass.Draw(uint32(va.VertexCount()), instanceCount, 0, 0)
	return nil
}

func (va *vertexArray) Release() {
	if va.released {
		log.Printf("vertex array %q: release called more than once", va.label)
		return
	}
	va.released = true
	if va.vertexBuffer != nil && !va.vertexBuffer.Released() {
		va.vertexBuffer.Release()
	}
	if va.indexBuffer != nil && !va.indexBuffer.Released() {
		va.indexBuffer.Release()
	}
}
