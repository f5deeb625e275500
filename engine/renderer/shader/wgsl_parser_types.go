package shader

import "github.com/cogentcore/webgpu/wgpu"

// attributeFormat pairs a vertex format with the number of bytes it occupies in a vertex.
type attributeFormat struct {
	format wgpu.VertexFormat
	size   uint64
}

// textureShape describes the view dimension of a sampled WGSL texture type.
type textureShape struct {
	viewDimension wgpu.TextureViewDimension
	multisampled  bool
}

// typeLayout is the host-shareable size and alignment of a WGSL type.
type typeLayout struct {
	size  uint64
	align uint64
}

// structField is one member of a WGSL struct. location is -1 when the member has no @location.
type structField struct {
	name     string
	typeName string
	location int
	builtin  bool
}

// structBlock is a WGSL struct declaration.
type structBlock struct {
	name   string
	fields []structField
}

// resourceDecl is a single @group/@binding variable declaration.
type resourceDecl struct {
	group, binding int
	name           string
	entry          wgpu.BindGroupLayoutEntry
}
