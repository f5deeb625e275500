package renderer

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-sandbox/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// minUniformSize is the smallest uniform buffer created for an unsized buffer binding.
const minUniformSize = 16

// textureBindGroupPlan is where a program expects a diffuse texture and what else lives in the
// same bind group.
type textureBindGroupPlan struct {
	group   int
	texture int
	sampler int
	// buffers maps the uniform bindings sharing the group to the size of their zero-filled buffer.
	buffers map[int]uint64
}

// planTextureBindGroup locates the diffuse texture and sampler bindings of a program.
//
// Parameters:
//   - program: the linked shader program
//
// Returns:
//   - textureBindGroupPlan: the bindings to fill
//   - bool: false when the program does not sample a diffuse texture
//   - error: an error if the sampler is missing, lives in another group, or the group holds a
//     resource the renderer cannot provide
func planTextureBindGroup(program shader.Program) (textureBindGroupPlan, bool, error) {
	group, tex, ok := program.Binding(shader.AnnotationArgDiffuseTexture)
	if !ok {
		return textureBindGroupPlan{}, false, nil
	}
	samplerGroup, samp, ok := program.Binding(shader.AnnotationArgDiffuseSampler)
	if !ok {
		return textureBindGroupPlan{}, false, fmt.Errorf("program %q samples a diffuse texture without a %s binding", program.Key(), shader.AnnotationArgDiffuseSampler)
	}
	if samplerGroup != group {
		return textureBindGroupPlan{}, false, fmt.Errorf("program %q: diffuse texture is in group %d but its sampler is in group %d", program.Key(), group, samplerGroup)
	}

	plan := textureBindGroupPlan{
		group:   group,
		texture: tex,
		sampler: samp,
		buffers: make(map[int]uint64),
	}
	for _, e := range program.BindGroupLayouts()[group].Entries {
		binding := int(e.Binding)
		if binding == tex || binding == samp {
			continue
		}
		switch e.Buffer.Type {
		case wgpu.BufferBindingTypeUniform:
			size := max(e.Buffer.MinBindingSize, minUniformSize)
			plan.buffers[binding] = (size + minUniformSize - 1) / minUniformSize * minUniformSize
		case wgpu.BufferBindingTypeUndefined:
			return textureBindGroupPlan{}, false, fmt.Errorf("program %q: group %d binding %d is not annotated and cannot be filled", program.Key(), group, binding)
		default:
			return textureBindGroupPlan{}, false, fmt.Errorf("program %q: group %d binding %d is a storage buffer and cannot be filled", program.Key(), group, binding)
		}
	}
	return plan, true, nil
}
