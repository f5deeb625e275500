package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Carmen-Shannon/oxy-sandbox/engine/renderer"
	"gopkg.in/yaml.v3"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	if cfg.Window.Title != "scop" || cfg.Window.Width != 800 || cfg.Window.Height != 800 {
		t.Errorf("window = %+v", cfg.Window)
	}
	if cfg.Renderer.ClearColor != [4]float64{0.2, 0.3, 0.3, 1} {
		t.Errorf("clear color = %v", cfg.Renderer.ClearColor)
	}
	if len(cfg.WindowOptions()) != 2 || len(cfg.RendererOptions()) != 3 || len(cfg.EngineOptions()) != 2 {
		t.Error("unexpected option counts")
	}
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "sandbox.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg != Default() {
		t.Errorf("cfg = %+v, want defaults", cfg)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sandbox.yaml")
	src := `window:
  title: textured
  width: 1024
renderer:
  present_mode: uncapped
  msaa: 1
shaders:
  vertex: shaders/basic.vert.wgsl
  fragment: shaders/basic.frag.wgsl
texture: textures/checker.ppm
frame_limit: 120
profiling: true
`
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Window.Title != "textured" || cfg.Window.Width != 1024 || cfg.Window.Height != 800 {
		t.Errorf("window = %+v", cfg.Window)
	}
	if renderer.PresentMode(cfg.Renderer.PresentMode) != renderer.PresentModeUncapped {
		t.Errorf("present mode = %v", cfg.Renderer.PresentMode)
	}
	if cfg.Renderer.MSAA != 1 || cfg.Renderer.ClearColor != Default().Renderer.ClearColor {
		t.Errorf("renderer = %+v", cfg.Renderer)
	}
	if cfg.Texture != "textures/checker.ppm" || cfg.FrameLimit != 120 || !cfg.Profiling {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		invalid bool
	}{
		{"empty title", "window: {title: ' '}", true},
		{"zero width", "window: {width: 0}", true},
		{"bad msaa", "renderer: {msaa: 2}", true},
		{"bad present mode", "renderer: {present_mode: fifo-relaxed}", true},
		{"clear color out of range", "renderer: {clear_color: [0, 0, 2, 1]}", true},
		{"one shader path", "shaders: {vertex: a.wgsl}", true},
		{"negative frame limit", "frame_limit: -1", true},
		{"unknown key", "fullscreen: true", false},
		{"wrong type", "window: {width: wide}", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.src))
			if err == nil {
				t.Fatal("expected an error")
			}
			if errors.Is(err, ErrInvalid) != tt.invalid {
				t.Errorf("errors.Is(err, ErrInvalid) = %v for %v", !tt.invalid, err)
			}
		})
	}
}

func TestParseEmpty(t *testing.T) {
	cfg, err := Parse(strings.NewReader(""))
	if err != nil {
		t.Fatal(err)
	}
	if cfg != Default() {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestPresentModeMarshal(t *testing.T) {
	cfg := Default()
	cfg.Renderer.PresentMode = PresentMode(renderer.PresentModeUncapped)
	out, err := yaml.Marshal(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(out), "present_mode: uncapped") {
		t.Errorf("marshaled config:\n%s", out)
	}
	back, err := Parse(strings.NewReader(string(out)))
	if err != nil {
		t.Fatal(err)
	}
	if back != cfg {
		t.Errorf("round trip = %+v, want %+v", back, cfg)
	}
}
