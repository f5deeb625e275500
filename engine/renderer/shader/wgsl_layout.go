package shader

import (
	"strconv"
	"strings"
)

// primitiveLayouts holds the size and alignment of the WGSL scalar, vector and matrix types
// that can appear in a uniform block.
var primitiveLayouts = map[string]typeLayout{
	"f32":  {4, 4},
	"i32":  {4, 4},
	"u32":  {4, 4},
	"bool": {4, 4},

	"vec2f": {8, 8}, "vec2<f32>": {8, 8},
	"vec3f": {12, 16}, "vec3<f32>": {12, 16},
	"vec4f": {16, 16}, "vec4<f32>": {16, 16},
	"vec2i": {8, 8}, "vec2<i32>": {8, 8},
	"vec3i": {12, 16}, "vec3<i32>": {12, 16},
	"vec4i": {16, 16}, "vec4<i32>": {16, 16},
	"vec2u": {8, 8}, "vec2<u32>": {8, 8},
	"vec3u": {12, 16}, "vec3<u32>": {12, 16},
	"vec4u": {16, 16}, "vec4<u32>": {16, 16},

	"mat2x2f": {16, 8}, "mat2x2<f32>": {16, 8},
	"mat3x3f": {48, 16}, "mat3x3<f32>": {48, 16},
	"mat4x4f": {64, 16}, "mat4x4<f32>": {64, 16},
}

// roundUp rounds value up to a multiple of align, which must be a power of two.
func roundUp(align, value uint64) uint64 {
	if align == 0 {
		return value
	}
	return (value + align - 1) &^ (align - 1)
}

// resolveLayout sizes a WGSL type from the primitive table, known structs and fixed-size arrays.
//
// Parameters:
//   - typeName: the WGSL type, e.g. "vec4f", "Tint" or "array<vec4f, 4>"
//   - structs: layouts of structs resolved so far
//
// Returns:
//   - typeLayout: the size and alignment
//   - bool: false for unknown types and runtime-sized arrays
func resolveLayout(typeName string, structs map[string]typeLayout) (typeLayout, bool) {
	if l, ok := primitiveLayouts[typeName]; ok {
		return l, true
	}
	if l, ok := structs[typeName]; ok {
		return l, true
	}

	inner, ok := strings.CutPrefix(typeName, "array<")
	if !ok || !strings.HasSuffix(inner, ">") {
		return typeLayout{}, false
	}
	elem, count, fixed := strings.Cut(strings.TrimSuffix(inner, ">"), ",")
	if !fixed {
		return typeLayout{}, false
	}
	el, ok := resolveLayout(strings.TrimSpace(elem), structs)
	if !ok {
		return typeLayout{}, false
	}
	n, err := strconv.ParseUint(strings.TrimSpace(count), 10, 64)
	if err != nil {
		return typeLayout{}, false
	}
	return typeLayout{size: n * roundUp(el.align, el.size), align: el.align}, true
}

// structLayouts sizes every struct, repeating until no more can be resolved so that structs may
// reference structs declared after them.
func structLayouts(blocks []structBlock) map[string]typeLayout {
	resolved := make(map[string]typeLayout, len(blocks))
	for progress := true; progress; {
		progress = false
		for _, sb := range blocks {
			if _, done := resolved[sb.name]; done {
				continue
			}
			if l, ok := sb.layout(resolved); ok {
				resolved[sb.name] = l
				progress = true
			}
		}
	}
	return resolved
}

func (sb structBlock) layout(known map[string]typeLayout) (typeLayout, bool) {
	var offset uint64
	align := uint64(1)
	for _, f := range sb.fields {
		if f.builtin {
			continue
		}
		fl, ok := resolveLayout(f.typeName, known)
		if !ok {
			return typeLayout{}, false
		}
		offset = roundUp(fl.align, offset) + fl.size
		align = max(align, fl.align)
	}
	return typeLayout{size: roundUp(align, offset), align: align}, true
}
