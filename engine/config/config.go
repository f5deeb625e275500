package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Carmen-Shannon/oxy-sandbox/engine"
	"github.com/Carmen-Shannon/oxy-sandbox/engine/renderer"
	"github.com/Carmen-Shannon/oxy-sandbox/engine/window"
	"gopkg.in/yaml.v3"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// Config is the sandbox configuration read from a YAML file.
type Config struct {
	Window   WindowConfig   `yaml:"window"`
	Renderer RendererConfig `yaml:"renderer"`
	Shaders  ShaderConfig   `yaml:"shaders"`

	// Texture is the image file used by textured meshes, empty for none.
	Texture string `yaml:"texture"`

	// FrameLimit caps the render loop in frames per second. 0 means uncapped.
	FrameLimit float64 `yaml:"frame_limit"`
	Profiling  bool    `yaml:"profiling"`
}

// WindowConfig configures the window.
type WindowConfig struct {
	Title  string `yaml:"title"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
}

// RendererConfig configures presentation and the render target.
type RendererConfig struct {
	PresentMode PresentMode `yaml:"present_mode"`
	MSAA        uint32      `yaml:"msaa"`
	ClearColor  [4]float64  `yaml:"clear_color"`
}

// ShaderConfig names the two stage sources of the shader program.
type ShaderConfig struct {
	Vertex   string `yaml:"vertex"`
	Fragment string `yaml:"fragment"`
}

// PresentMode is renderer.PresentMode spelled "vsync" or "uncapped" in YAML.
type PresentMode renderer.PresentMode

// UnmarshalYAML implements yaml.Unmarshaler for PresentMode.
func (p *PresentMode) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "vsync":
		*p = PresentMode(renderer.PresentModeVSync)
	case "uncapped", "immediate":
		*p = PresentMode(renderer.PresentModeUncapped)
	default:
		return fmt.Errorf("%w: present_mode %q (want vsync or uncapped)", ErrInvalid, s)
	}
	return nil
}

// MarshalYAML implements yaml.Marshaler for PresentMode.
func (p PresentMode) MarshalYAML() (any, error) {
	if renderer.PresentMode(p) == renderer.PresentModeUncapped {
		return "uncapped", nil
	}
	return "vsync", nil
}

// Default returns the configuration used when no file is present.
//
// Returns:
//   - Config: an 800x800 "scop" window, vsync, 4x MSAA and a teal clear color
func Default() Config {
	c := renderer.DefaultClearColor
	return Config{
		Window: WindowConfig{
			Title:  "scop",
			Width:  800,
			Height: 800,
		},
		Renderer: RendererConfig{
			PresentMode: PresentMode(renderer.PresentModeVSync),
			MSAA:        uint32(renderer.MSAA4x),
			ClearColor:  [4]float64{c.R, c.G, c.B, c.A},
		},
	}
}

// Load reads a YAML config file. Keys missing from the file keep their Default values, and a
// missing file yields Default.
//
// Parameters:
//   - path: the YAML file
//
// Returns:
//   - Config: the validated configuration
//   - error: an error if the file cannot be read, has unknown keys or fails Validate
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse decodes a YAML config from r on top of Default and validates it.
//
// Parameters:
//   - r: the YAML source
//
// Returns:
//   - Config: the validated configuration
//   - error: a parse or validation error
func Parse(r io.Reader) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parsing config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every value is usable.
//
// Returns:
//   - error: an error wrapping ErrInvalid naming the first bad value
func (c Config) Validate() error {
	if strings.TrimSpace(c.Window.Title) == "" {
		return fmt.Errorf("%w: window.title is empty", ErrInvalid)
	}
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("%w: window size %dx%d", ErrInvalid, c.Window.Width, c.Window.Height)
	}
	if !renderer.MSAASampleCount(c.Renderer.MSAA).Valid() {
		return fmt.Errorf("%w: msaa %d (want 1, 4, 8 or 16)", ErrInvalid, c.Renderer.MSAA)
	}
	for i, v := range c.Renderer.ClearColor {
		if v < 0 || v > 1 {
			return fmt.Errorf("%w: clear_color[%d] = %v outside [0, 1]", ErrInvalid, i, v)
		}
	}
	if (c.Shaders.Vertex == "") != (c.Shaders.Fragment == "") {
		return fmt.Errorf("%w: shaders need both vertex and fragment paths", ErrInvalid)
	}
	if c.FrameLimit < 0 {
		return fmt.Errorf("%w: frame_limit %v", ErrInvalid, c.FrameLimit)
	}
	return nil
}

// WindowOptions converts the window settings into builder options.
func (c Config) WindowOptions() []window.WindowBuilderOption {
	return []window.WindowBuilderOption{
		window.WithTitle(c.Window.Title),
		window.WithSize(c.Window.Width, c.Window.Height),
	}
}

// RendererOptions converts the renderer settings into builder options.
func (c Config) RendererOptions() []renderer.RendererBuilderOption {
	return []renderer.RendererBuilderOption{
		renderer.WithPresentMode(renderer.PresentMode(c.Renderer.PresentMode)),
		renderer.WithMSAA(renderer.MSAASampleCount(c.Renderer.MSAA)),
		renderer.WithClearColor(c.Renderer.ClearColor),
	}
}

// EngineOptions converts the loop settings into builder options.
func (c Config) EngineOptions() []engine.EngineBuilderOption {
	return []engine.EngineBuilderOption{
		engine.WithProfiling(c.Profiling),
		engine.WithRenderFrameLimit(c.FrameLimit),
	}
}
