package loader

import (
	"fmt"
	"path/filepath"

	"github.com/Carmen-Shannon/oxy-sandbox/common"
	"github.com/g3n/engine/loader/obj"
	"github.com/go-gl/mathgl/mgl32"
)

// objCorner identifies one face corner by its position, uv and normal indices. Missing uv or
// normal indices are -1.
type objCorner struct {
	v, vt, vn int
}

// objPartBuilder accumulates the de-duplicated vertices of one material.
type objPartBuilder struct {
	part  ImportedPart
	index map[objCorner]uint32
}

// extractOBJModel turns decoded OBJ data into parts, one per material in first-use order. Corners
// sharing the same position, uv and normal become one vertex, and polygons are fan-triangulated.
// Texture coordinates are flipped vertically since textures are stored top row first.
func extractOBJModel(name string, dec *obj.Decoder, dir string) (*ImportedModel, error) {
	positions := len(dec.Vertices) / 3
	uvs := len(dec.Uvs) / 2
	normals := len(dec.Normals) / 3
	if positions == 0 {
		return nil, fmt.Errorf("%s: %w", name, ErrNoGeometry)
	}

	m := &ImportedModel{Name: name, HasUVs: uvs > 0}
	m.BoundsMin = position(dec, 0)
	m.BoundsMax = m.BoundsMin
	for i := 1; i < positions; i++ {
		p := position(dec, i)
		for a := 0; a < 3; a++ {
			m.BoundsMin[a] = min(m.BoundsMin[a], p[a])
			m.BoundsMax[a] = max(m.BoundsMax[a], p[a])
		}
	}

	var order []string
	builders := make(map[string]*objPartBuilder)
	for _, object := range dec.Objects {
		for fi, face := range object.Faces {
			if len(face.Vertices) < 3 {
				continue
			}
			b, ok := builders[face.Material]
			if !ok {
				b = &objPartBuilder{
					part:  ImportedPart{Material: resolveOBJMaterial(dec, face.Material, dir)},
					index: make(map[objCorner]uint32),
				}
				builders[face.Material] = b
				order = append(order, face.Material)
			}

			corners := make([]uint32, len(face.Vertices))
			for i, v := range face.Vertices {
				if v < 0 || v >= positions {
					return nil, fmt.Errorf("%s: object %q face %d: position %d of %d: %w",
						name, object.Name, fi, v+1, positions, ErrIndexOutOfRange)
				}
				c := objCorner{v: v, vt: cornerIndex(face.Uvs, i, uvs), vn: cornerIndex(face.Normals, i, normals)}
				idx, seen := b.index[c]
				if !seen {
					idx = uint32(len(b.part.Vertices))
					b.part.Vertices = append(b.part.Vertices, cornerVertex(dec, c))
					b.index[c] = idx
				}
				corners[i] = idx
			}
			for i := 1; i+1 < len(corners); i++ {
				b.part.Indices = append(b.part.Indices, corners[0], corners[i], corners[i+1])
			}
		}
	}
	if len(order) == 0 {
		return nil, fmt.Errorf("%s: no faces: %w", name, ErrNoGeometry)
	}

	for _, key := range order {
		m.Parts = append(m.Parts, builders[key].part)
	}
	return m, nil
}

// cornerIndex returns the i-th index of a face attribute list, or -1 when it is absent or invalid.
func cornerIndex(indices []int, i, count int) int {
	if i >= len(indices) || indices[i] < 0 || indices[i] >= count {
		return -1
	}
	return indices[i]
}

func position(dec *obj.Decoder, i int) mgl32.Vec3 {
	return mgl32.Vec3{dec.Vertices[3*i], dec.Vertices[3*i+1], dec.Vertices[3*i+2]}
}

func cornerVertex(dec *obj.Decoder, c objCorner) common.Vertex {
	v := common.Vertex{Position: position(dec, c.v)}
	if c.vn >= 0 {
		v.Normal = mgl32.Vec3{dec.Normals[3*c.vn], dec.Normals[3*c.vn+1], dec.Normals[3*c.vn+2]}
	}
	if c.vt >= 0 {
		v.TexCoord = mgl32.Vec2{dec.Uvs[2*c.vt], 1 - dec.Uvs[2*c.vt+1]}
	}
	return v
}

// resolveOBJMaterial converts a decoded material, falling back to the default for names the
// library does not define.
func resolveOBJMaterial(dec *obj.Decoder, name, dir string) ImportedMaterial {
	src, ok := dec.Materials[name]
	if !ok || src == nil {
		return defaultImportedMaterial()
	}
	mat := ImportedMaterial{
		Name:      src.Name,
		Ambient:   [3]float32{src.Ambient.R, src.Ambient.G, src.Ambient.B},
		Diffuse:   [3]float32{src.Diffuse.R, src.Diffuse.G, src.Diffuse.B},
		Specular:  [3]float32{src.Specular.R, src.Specular.G, src.Specular.B},
		Shininess: src.Shininess,
		Opacity:   src.Opacity,
	}
	// files without a d statement leave opacity unset
	if mat.Opacity <= 0 {
		mat.Opacity = 1
	}
	if src.MapKd != "" {
		mat.DiffuseMap = src.MapKd
		if !filepath.IsAbs(mat.DiffuseMap) {
			mat.DiffuseMap = filepath.Join(dir, src.MapKd)
		}
	}
	return mat
}
