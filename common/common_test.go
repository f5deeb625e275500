package common

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestVertexMarshalLayout(t *testing.T) {
	v := Vertex{
		Position: mgl32.Vec3{1, 2, 3},
		Normal:   mgl32.Vec3{0, 0, 1},
		TexCoord: mgl32.Vec2{0.5, 0.25},
	}
	buf := v.Marshal()
	if len(buf) != VertexSize {
		t.Fatalf("len = %d, want %d", len(buf), VertexSize)
	}
	want := []float32{1, 2, 3, 0, 0, 1, 0.5, 0.25}
	for i, w := range want {
		got := math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
		if got != w {
			t.Errorf("float %d = %v, want %v", i, got, w)
		}
	}
}

func TestMarshalVerticesAndIndices(t *testing.T) {
	if MarshalVertices(nil) != nil {
		t.Error("expected nil for no vertices")
	}
	if MarshalIndices(nil) != nil {
		t.Error("expected nil for no indices")
	}

	verts := []Vertex{{Position: mgl32.Vec3{1, 0, 0}}, {Position: mgl32.Vec3{0, 1, 0}}}
	buf := MarshalVertices(verts)
	if len(buf) != 2*VertexSize {
		t.Fatalf("len = %d, want %d", len(buf), 2*VertexSize)
	}
	if got := math.Float32frombits(binary.LittleEndian.Uint32(buf[VertexSize+4:])); got != 1 {
		t.Errorf("second vertex y = %v, want 1", got)
	}

	idx := MarshalIndices([]uint32{0, 1, 70000})
	if len(idx) != 12 {
		t.Fatalf("len = %d, want 12", len(idx))
	}
	if got := binary.LittleEndian.Uint32(idx[8:]); got != 70000 {
		t.Errorf("third index = %d, want 70000", got)
	}
}

func TestFaceNormal(t *testing.T) {
	tests := []struct {
		name    string
		a, b, c mgl32.Vec3
		want    mgl32.Vec3
	}{
		{"ccw xy plane", mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 1, 0}, mgl32.Vec3{0, 0, 1}},
		{"cw xy plane", mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 1, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, -1}},
		{"scaled", mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 0, 5}, mgl32.Vec3{5, 0, 0}, mgl32.Vec3{0, 1, 0}},
		{"degenerate", mgl32.Vec3{1, 1, 1}, mgl32.Vec3{2, 2, 2}, mgl32.Vec3{3, 3, 3}, mgl32.Vec3{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FaceNormal(tt.a, tt.b, tt.c)
			if !got.ApproxEqual(tt.want) {
				t.Errorf("FaceNormal = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestComputeFlatNormals(t *testing.T) {
	verts := []Vertex{
		{Position: mgl32.Vec3{0, 0, 0}},
		{Position: mgl32.Vec3{1, 0, 0}},
		{Position: mgl32.Vec3{0, 1, 0}},
		{Position: mgl32.Vec3{9, 9, 9}},
	}
	if HasNormals(verts) {
		t.Fatal("fresh vertices should not have normals")
	}
	ComputeFlatNormals(verts, nil)
	for i := 0; i < 3; i++ {
		if !verts[i].Normal.ApproxEqual(mgl32.Vec3{0, 0, 1}) {
			t.Errorf("vertex %d normal = %v", i, verts[i].Normal)
		}
	}
	if verts[3].Normal != (mgl32.Vec3{}) {
		t.Errorf("trailing vertex should be untouched, got %v", verts[3].Normal)
	}
	if !HasNormals(verts) {
		t.Error("HasNormals should report true after computing")
	}

	indexed := []Vertex{
		{Position: mgl32.Vec3{0, 0, 0}},
		{Position: mgl32.Vec3{0, 1, 0}},
		{Position: mgl32.Vec3{1, 0, 0}},
	}
	ComputeFlatNormals(indexed, []uint32{0, 1, 2, 0, 1, 7})
	if !indexed[0].Normal.ApproxEqual(mgl32.Vec3{0, 0, -1}) {
		t.Errorf("indexed normal = %v, want (0,0,-1)", indexed[0].Normal)
	}
}

func TestTextureStagingDataValidate(t *testing.T) {
	tests := []struct {
		name    string
		data    TextureStagingData
		wantErr bool
	}{
		{"ok", TextureStagingData{Pixels: make([]byte, 16), Width: 2, Height: 2}, false},
		{"zero width", TextureStagingData{Pixels: nil, Width: 0, Height: 2}, true},
		{"short pixels", TextureStagingData{Pixels: make([]byte, 15), Width: 2, Height: 2}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.data.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCoalesce(t *testing.T) {
	if got := Coalesce(0, 0, 3, 4); got != 3 {
		t.Errorf("Coalesce = %d, want 3", got)
	}
	if got := Coalesce("", ""); got != "" {
		t.Errorf("Coalesce = %q, want empty", got)
	}
}
