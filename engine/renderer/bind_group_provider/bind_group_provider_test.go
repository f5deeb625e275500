package bind_group_provider

import (
	"errors"
	"strings"
	"testing"

	"github.com/Carmen-Shannon/oxy-sandbox/engine/renderer/buffer"
	"github.com/cogentcore/webgpu/wgpu"
)

func materialLayout() wgpu.BindGroupLayoutDescriptor {
	var tex, samp wgpu.BindGroupLayoutEntry
	tex.Binding = 0
	tex.Texture.SampleType = wgpu.TextureSampleTypeFloat
	tex.Texture.ViewDimension = wgpu.TextureViewDimension2D
	samp.Binding = 1
	samp.Sampler.Type = wgpu.SamplerBindingTypeFiltering
	// declared out of order on purpose
	return wgpu.BindGroupLayoutDescriptor{Entries: []wgpu.BindGroupLayoutEntry{samp, tex}}
}

func TestEntries(t *testing.T) {
	tv := &wgpu.TextureView{}
	s := &wgpu.Sampler{}
	p := NewBindGroupProvider("material", 0, WithTextureView(0, tv), WithSampler(1, s))

	entries, err := p.Entries(materialLayout())
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}
	if entries[0].Binding != 0 || entries[0].TextureView != tv {
		t.Errorf("entry 0 = %+v", entries[0])
	}
	if entries[1].Binding != 1 || entries[1].Sampler != s {
		t.Errorf("entry 1 = %+v", entries[1])
	}
}

func TestEntriesMissingResources(t *testing.T) {
	p := NewBindGroupProvider("material", 0, WithSampler(1, &wgpu.Sampler{}))
	if _, err := p.Entries(materialLayout()); err == nil || !strings.Contains(err.Error(), "texture binding 0") {
		t.Errorf("err = %v, want missing texture view", err)
	}

	p.SetTextureView(0, &wgpu.TextureView{})
	var uniform wgpu.BindGroupLayoutEntry
	uniform.Binding = 2
	uniform.Buffer.Type = wgpu.BufferBindingTypeUniform
	layout := materialLayout()
	layout.Entries = append(layout.Entries, uniform)

	p.SetBuffer(2, buffer.NewBuffer("tint", buffer.KindUniform, buffer.WithSize(16)))
	if _, err := p.Entries(layout); !errors.Is(err, buffer.ErrNotInitialized) {
		t.Errorf("err = %v, want ErrNotInitialized", err)
	}
}

func TestReleaseOwnsBuffersOnly(t *testing.T) {
	tint := buffer.NewBuffer("tint", buffer.KindUniform, buffer.WithSize(16))
	p := NewBindGroupProvider("material", 1, WithBuffer(0, tint), WithTextureView(1, &wgpu.TextureView{}))
	if p.Group() != 1 || p.Label() != "material" {
		t.Errorf("Group/Label = %d/%q", p.Group(), p.Label())
	}

	p.Release()
	if !tint.Released() {
		t.Error("owned buffer not released")
	}
	if p.Buffer(0) != nil || p.TextureView(1) != nil {
		t.Error("resources still attached after release")
	}
	p.Release()
	if !p.Released() {
		t.Error("Released() = false")
	}
}
