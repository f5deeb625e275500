package buffer

import (
	"fmt"
	"log"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"
)

// Kind identifies what a Buffer holds and therefore how the GPU may use it.
type Kind int

const (
	// KindVertex holds packed vertex records (a VBO).
	KindVertex Kind = iota

	// KindIndex holds uint32 triangle indices (an EBO).
	KindIndex

	// KindUniform holds a small block of shader constants.
	KindUniform
)

// String returns a short lowercase name for the kind.
func (k Kind) String() string {
	switch k {
	case KindVertex:
		return "vertex"
	case KindIndex:
		return "index"
	case KindUniform:
		return "uniform"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// alignment is the copy alignment WebGPU requires for queue writes.
const alignment = 4

// buffer is the implementation of the Buffer interface.
type buffer struct {
	mu *sync.Mutex

	label string
	kind  Kind

	// data is the CPU-side copy of the buffer contents, padded to a multiple of 4 bytes.
	data []byte
	// size is the requested GPU allocation size; the larger of size and len(data) wins.
	size uint64

	gpuBuffer *wgpu.Buffer
	released  bool
}

// Buffer wraps a single GPU buffer object along with its CPU-side staging copy.
//
// A Buffer is created empty on the CPU, uploaded once with Init, optionally updated with Write,
// and deleted exactly once with Release. Using a buffer before Init or after Release is an error.
type Buffer interface {
	// Label returns the debug label for this buffer.
	//
	// Returns:
	//   - string: the debug label
	Label() string

	// Kind returns whether this is a vertex, index or uniform buffer.
	//
	// Returns:
	//   - Kind: the buffer kind
	Kind() Kind

	// Data returns the CPU-side copy of the buffer contents.
	//
	// Returns:
	//   - []byte: the staged data, padded to a multiple of 4 bytes
	Data() []byte

	// Size returns the number of bytes the GPU buffer holds (or will hold once initialized).
	//
	// Returns:
	//   - uint64: the allocation size in bytes
	Size() uint64

	// Usage returns the WebGPU usage flags derived from the buffer kind.
	//
	// Returns:
	//   - wgpu.BufferUsage: the usage flags used when creating the GPU buffer
	Usage() wgpu.BufferUsage

	// Init creates the GPU buffer on the device and uploads the staged data through the queue.
	// Calling Init on an already initialized buffer is a no-op.
	//
	// Parameters:
	//   - device: the device to allocate on
	//   - queue: the queue used for the initial upload
	//
	// Returns:
	//   - error: ErrEmpty, ErrReleased, or a device error
	Init(device *wgpu.Device, queue *wgpu.Queue) error

	// Write replaces a byte range of the buffer on both the CPU copy and the GPU.
	//
	// Parameters:
	//   - queue: the queue used for the upload
	//   - offset: the byte offset to start writing at (multiple of 4)
	//   - data: the bytes to write (length multiple of 4)
	//
	// Returns:
	//   - error: ErrNotInitialized, ErrReleased, ErrOutOfRange or ErrMisaligned
	Write(queue *wgpu.Queue, offset uint64, data []byte) error

	// GPUBuffer returns the underlying GPU buffer, or nil before Init or after Release.
	//
	// Returns:
	//   - *wgpu.Buffer: the GPU buffer handle
	GPUBuffer() *wgpu.Buffer

	// Initialized reports whether Init has completed and the buffer has not been released.
	//
	// Returns:
	//   - bool: true if the GPU buffer is live
	Initialized() bool

	// Released reports whether Release has been called.
	//
	// Returns:
	//   - bool: true once the buffer has been released
	Released() bool

	// Release deletes the GPU buffer. Subsequent calls log and return without touching the GPU.
	Release()
}

var _ Buffer = &buffer{}

// NewBuffer creates a new CPU-side Buffer. No GPU resources exist until Init is called.
//
// Parameters:
//   - label: a debug label shown in GPU validation messages
//   - kind: the kind of data the buffer holds
//   - options: functional options supplying data or a fixed size
//
// Returns:
//   - Buffer: the new buffer
func NewBuffer(label string, kind Kind, options ...BufferBuilderOption) Buffer {
	b := &buffer{
		mu:    &sync.Mutex{},
		label: label,
		kind:  kind,
	}
	for _, opt := range options {
		opt(b)
	}
	return b
}

func (b *buffer) Label() string {
	return b.label
}

func (b *buffer) Kind() Kind {
	return b.kind
}

func (b *buffer) Data() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.data
}

func (b *buffer) Size() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.allocSize()
}

func (b *buffer) Usage() wgpu.BufferUsage {
	switch b.kind {
	case KindIndex:
		return wgpu.BufferUsageIndex | wgpu.BufferUsageCopyDst
	case KindUniform:
		return wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst
	default:
		return wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst
	}
}

func (b *buffer) Init(device *wgpu.Device, queue *wgpu.Queue) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.released {
		return fmt.Errorf("%s: %w", b.label, ErrReleased)
	}
	if b.gpuBuffer != nil {
		return nil
	}
	size := b.allocSize()
	if size == 0 {
		return fmt.Errorf("%s: %w", b.label, ErrEmpty)
	}

	buf, err := device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            b.label + " " + b.kind.String() + " buffer",
		Size:             size,
		Usage:            b.Usage(),
		MappedAtCreation: false,
	})
	if err != nil {
		return fmt.Errorf("%s: create buffer: %w", b.label, err)
	}
	if len(b.data) > 0 {
		queue.WriteBuffer(buf, 0, b.data)
	}
	b.gpuBuffer = buf
	return nil
}

func (b *buffer) Write(queue *wgpu.Queue, offset uint64, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.released {
		return fmt.Errorf("%s: %w", b.label, ErrReleased)
	}
	if b.gpuBuffer == nil {
		return fmt.Errorf("%s: %w", b.label, ErrNotInitialized)
	}
	if err := b.stage(offset, data); err != nil {
		return err
	}
	queue.WriteBuffer(b.gpuBuffer, offset, data)
	return nil
}

func (b *buffer) GPUBuffer() *wgpu.Buffer {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.gpuBuffer
}

func (b *buffer) Initialized() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.gpuBuffer != nil && !b.released
}

func (b *buffer) Released() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.released
}

func (b *buffer) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.released {
		log.Printf("buffer %q: release called more than once", b.label)
		return
	}
	b.released = true
	if b.gpuBuffer != nil {
		b.gpuBuffer.Release()
		b.gpuBuffer = nil
	}
}

// allocSize returns the GPU allocation size. Caller must hold mu.
func (b *buffer) allocSize() uint64 {
	return alignUp(max(b.size, uint64(len(b.data))))
}

// stage validates a write against the allocation and copies it into the CPU-side data.
// Caller must hold mu.
//
// Parameters:
//   - offset: the byte offset of the write
//   - data: the bytes being written
//
// Returns:
//   - error: ErrMisaligned or ErrOutOfRange if the write is invalid
func (b *buffer) stage(offset uint64, data []byte) error {
	n := uint64(len(data))
	if offset%alignment != 0 || n%alignment != 0 {
		return fmt.Errorf("%s: offset %d size %d: %w", b.label, offset, n, ErrMisaligned)
	}
	size := b.allocSize()
	if offset > size || n > size-offset {
		return fmt.Errorf("%s: offset %d size %d exceeds %d bytes: %w", b.label, offset, n, size, ErrOutOfRange)
	}
	if uint64(len(b.data)) < size {
		grown := make([]byte, size)
		copy(grown, b.data)
		b.data = grown
	}
	copy(b.data[offset:], data)
	return nil
}

// alignUp rounds n up to the next multiple of the queue copy alignment.
func alignUp(n uint64) uint64 {
	return (n + alignment - 1) &^ (alignment - 1)
}

// padded returns a copy of data extended with zero bytes to a multiple of the copy alignment.
func padded(data []byte) []byte {
	out := make([]byte, alignUp(uint64(len(data))))
	copy(out, data)
	return out
}
