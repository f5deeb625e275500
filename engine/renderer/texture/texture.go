package texture

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/Carmen-Shannon/oxy-sandbox/common"
	"github.com/cogentcore/webgpu/wgpu"
)

var (
	// ErrNotInitialized is returned when GPU objects are requested before Init.
	ErrNotInitialized = errors.New("texture not initialized")

	// ErrReleased is returned when a released texture is used.
	ErrReleased = errors.New("texture released")
)

// Format is the GPU format textures are uploaded in.
const Format = wgpu.TextureFormatRGBA8UnormSrgb

// texture is the implementation of the Texture interface.
type texture struct {
	mu      *sync.Mutex
	label   string
	path    string
	staging common.TextureStagingData
	sampler common.SamplerStagingData

	gpuTexture *wgpu.Texture
	view       *wgpu.TextureView
	gpuSampler *wgpu.Sampler
	released   bool
}

// Texture is a 2D RGBA texture: CPU-side pixels waiting for upload, and after Init the GPU
// texture, its view and the sampler used to read it.
type Texture interface {
	// Label returns the debug label.
	Label() string

	// Path returns the file the pixels were loaded from, empty for in-memory textures.
	Path() string

	// StagingData returns the CPU-side pixels.
	StagingData() common.TextureStagingData

	// Width and Height return the texture dimensions in pixels.
	Width() uint32
	Height() uint32

	// Init creates the GPU texture, uploads the pixels and creates the view and sampler.
	// A second call on an initialized texture does nothing.
	//
	// Parameters:
	//   - device: the device to create GPU objects on
	//   - queue: the queue used for the pixel upload
	//
	// Returns:
	//   - error: an error if the staging data is invalid, the texture was released or GPU creation fails
	Init(device *wgpu.Device, queue *wgpu.Queue) error

	// View returns the texture view, or ErrNotInitialized / ErrReleased.
	View() (*wgpu.TextureView, error)

	// Sampler returns the sampler, or ErrNotInitialized / ErrReleased.
	Sampler() (*wgpu.Sampler, error)

	Initialized() bool
	Released() bool

	// Release frees the GPU objects once. Later calls log and do nothing.
	Release()
}

var _ Texture = &texture{}

// NewTexture wraps already decoded pixels.
//
// Parameters:
//   - label: the debug label
//   - staging: RGBA8 pixels and dimensions
//   - options: functional options
//
// Returns:
//   - Texture: the texture, not yet on the GPU
func NewTexture(label string, staging common.TextureStagingData, options ...TextureBuilderOption) Texture {
	t := &texture{
		mu:      &sync.Mutex{},
		label:   label,
		staging: staging,
	}
	for _, opt := range options {
		opt(t)
	}
	return t
}

// Load decodes an image file into a new Texture.
//
// Parameters:
//   - label: the debug label
//   - path: the image file
//   - options: functional options
//
// Returns:
//   - Texture: the texture, not yet on the GPU
//   - error: an error if the file cannot be decoded
func Load(label, path string, options ...TextureBuilderOption) (Texture, error) {
	staging, err := LoadStagingData(path)
	if err != nil {
		return nil, err
	}
	t := NewTexture(label, staging, options...).(*texture)
	t.path = path
	return t, nil
}

func (t *texture) Label() string {
	return t.label
}

func (t *texture) Path() string {
	return t.path
}

func (t *texture) StagingData() common.TextureStagingData {
	return t.staging
}

func (t *texture) Width() uint32 {
	return t.staging.Width
}

func (t *texture) Height() uint32 {
	return t.staging.Height
}

func (t *texture) Init(device *wgpu.Device, queue *wgpu.Queue) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.released {
		return fmt.Errorf("texture %q: %w", t.label, ErrReleased)
	}
	if t.gpuTexture != nil {
		return nil
	}
	if err := t.staging.Validate(); err != nil {
		return fmt.Errorf("texture %q: %w", t.label, err)
	}
	if device == nil || queue == nil {
		return fmt.Errorf("texture %q: no device", t.label)
	}

	size := wgpu.Extent3D{Width: t.staging.Width, Height: t.staging.Height, DepthOrArrayLayers: 1}
	tex, err := device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         t.label + " Texture",
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		Dimension:     wgpu.TextureDimension2D,
		Size:          size,
		Format:        Format,
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		return fmt.Errorf("texture %q: create texture: %w", t.label, err)
	}

	queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture:  tex,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{},
			Aspect:   wgpu.TextureAspectAll,
		},
		t.staging.Pixels,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  t.staging.Width * 4,
			RowsPerImage: t.staging.Height,
		},
		&size,
	)

	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return fmt.Errorf("texture %q: create view: %w", t.label, err)
	}

	s := t.sampler
	samp, err := device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         t.label + " Sampler",
		AddressModeU:  common.Coalesce(s.AddressModeU, wgpu.AddressModeRepeat),
		AddressModeV:  common.Coalesce(s.AddressModeV, wgpu.AddressModeRepeat),
		AddressModeW:  common.Coalesce(s.AddressModeW, wgpu.AddressModeRepeat),
		MagFilter:     common.Coalesce(s.MagFilter, wgpu.FilterModeLinear),
		MinFilter:     common.Coalesce(s.MinFilter, wgpu.FilterModeLinear),
		MipmapFilter:  common.Coalesce(s.MipmapFilter, wgpu.MipmapFilterModeLinear),
		LodMinClamp:   s.LodMinClamp,
		LodMaxClamp:   common.Coalesce(s.LodMaxClamp, 32.0),
		MaxAnisotropy: common.Coalesce(s.MaxAnisotropy, 1),
	})
	if err != nil {
		view.Release()
		tex.Release()
		return fmt.Errorf("texture %q: create sampler: %w", t.label, err)
	}

	t.gpuTexture, t.view, t.gpuSampler = tex, view, samp
	return nil
}

func (t *texture) View() (*wgpu.TextureView, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.usable(); err != nil {
		return nil, err
	}
	return t.view, nil
}

func (t *texture) Sampler() (*wgpu.Sampler, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.usable(); err != nil {
		return nil, err
	}
	return t.gpuSampler, nil
}

func (t *texture) Initialized() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.usable() == nil
}

func (t *texture) Released() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.released
}

func (t *texture) Release() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.released {
		log.Printf("texture %q: release called more than once", t.label)
		return
	}
	t.released = true
	if t.gpuSampler != nil {
		t.gpuSampler.Release()
		t.gpuSampler = nil
	}
	if t.view != nil {
		t.view.Release()
		t.view = nil
	}
	if t.gpuTexture != nil {
		t.gpuTexture.Release()
		t.gpuTexture = nil
	}
}

// usable reports why the GPU objects cannot be used. Caller must hold mu.
func (t *texture) usable() error {
	if t.released {
		return fmt.Errorf("texture %q: %w", t.label, ErrReleased)
	}
	if t.gpuTexture == nil {
		return fmt.Errorf("texture %q: %w", t.label, ErrNotInitialized)
	}
	return nil
}
