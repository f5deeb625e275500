// package common contains common types that are used throughout the sandbox. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

import (
	_ "embed"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
)

// VertexSource is the canonical WGSL definition of the VertexInput struct matching Vertex.
// Shaders pull it in with the `//@oxy:include vertex` annotation.
//
//go:embed assets/vertex.wgsl
var VertexSource string

// VertexSize is the packed size of a single Vertex in bytes.
const VertexSize = 32

// Vertex is a single mesh vertex as it is laid out in a vertex buffer.
// Matches the WGSL VertexInput struct layout exactly (see VertexSource).
type Vertex struct {
	Position mgl32.Vec3 // offset  0: position in model space (12 bytes)
	Normal   mgl32.Vec3 // offset 12: surface normal (12 bytes)
	TexCoord mgl32.Vec2 // offset 24: UV texture coordinate (8 bytes)
}

// Marshal serializes the Vertex into a little-endian byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 32-byte buffer ready for GPU upload
func (v *Vertex) Marshal() []byte {
	buf := make([]byte, VertexSize)
	v.put(buf)
	return buf
}

func (v *Vertex) put(buf []byte) {
	fields := [8]float32{
		v.Position[0], v.Position[1], v.Position[2],
		v.Normal[0], v.Normal[1], v.Normal[2],
		v.TexCoord[0], v.TexCoord[1],
	}
	for i, f := range fields {
		binary.LittleEndian.PutUint32(buf[i*4:i*4+4], math.Float32bits(f))
	}
}

// MarshalVertices packs a slice of vertices into one contiguous byte buffer.
//
// Parameters:
//   - vertices: the vertices to pack
//
// Returns:
//   - []byte: len(vertices)*VertexSize bytes, or nil if vertices is empty
func MarshalVertices(vertices []Vertex) []byte {
	if len(vertices) == 0 {
		return nil
	}
	buf := make([]byte, len(vertices)*VertexSize)
	for i := range vertices {
		vertices[i].put(buf[i*VertexSize:])
	}
	return buf
}

// MarshalIndices packs uint32 indices into a little-endian byte buffer.
//
// Parameters:
//   - indices: the triangle indices
//
// Returns:
//   - []byte: len(indices)*4 bytes, or nil if indices is empty
func MarshalIndices(indices []uint32) []byte {
	if len(indices) == 0 {
		return nil
	}
	buf := make([]byte, len(indices)*4)
	for i, idx := range indices {
		binary.LittleEndian.PutUint32(buf[i*4:], idx)
	}
	return buf
}

// TextureStagingData holds RGBA pixel data for a texture pending GPU upload.
type TextureStagingData struct {
	// Pixels is the byte slice representing the actual pixel data for the texture. It should be in RGBA format, with 4 bytes per pixel.
	Pixels []byte
	// Width is the width of the texture in pixels.
	Width uint32
	// Height is the height of the texture in pixels.
	Height uint32
}

// Validate checks that the pixel slice matches the declared dimensions.
//
// Returns:
//   - error: an error if the dimensions are zero or the pixel count does not match
func (t TextureStagingData) Validate() error {
	if t.Width == 0 || t.Height == 0 {
		return fmt.Errorf("texture has zero dimension %dx%d", t.Width, t.Height)
	}
	if want := int(t.Width) * int(t.Height) * 4; len(t.Pixels) != want {
		return fmt.Errorf("texture %dx%d expects %d bytes of RGBA data, got %d", t.Width, t.Height, want, len(t.Pixels))
	}
	return nil
}

// SamplerStagingData holds the configuration for a sampler pending GPU creation.
// Zero fields fall back to linear filtering with repeat addressing.
type SamplerStagingData struct {
	// AddressModeU, AddressModeV, AddressModeW specify the addressing mode for texture coordinates outside the [0, 1] range.
	AddressModeU, AddressModeV, AddressModeW wgpu.AddressMode
	// MagFilter and MinFilter specify the filtering mode for magnification and minification.
	MagFilter, MinFilter wgpu.FilterMode
	// MipmapFilter specifies the filtering mode for mipmap level selection.
	MipmapFilter wgpu.MipmapFilterMode
	// LodMinClamp and LodMaxClamp specify the minimum and maximum level of detail (LOD) for mipmapping.
	LodMinClamp, LodMaxClamp float32
	// MaxAnisotropy specifies the maximum anisotropy level for anisotropic filtering.
	MaxAnisotropy uint16
}
