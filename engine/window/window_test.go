package window

import "testing"

func TestNewEngineWindowDefaults(t *testing.T) {
	w := newEngineWindow()
	if w.Title() != "scop" || w.Width() != 800 || w.Height() != 800 {
		t.Errorf("defaults = %q %dx%d", w.Title(), w.Width(), w.Height())
	}
	if w.IsRunning() {
		t.Error("a window without a platform window is not running")
	}
	if w.SurfaceDescriptor() != nil {
		t.Error("SurfaceDescriptor without a platform window should be nil")
	}
	if err := w.Close(); err == nil {
		t.Error("Close without a platform window should fail")
	}
	w.RequestClose()
}

func TestNewEngineWindowClampsSize(t *testing.T) {
	tests := []struct {
		name          string
		options       []WindowBuilderOption
		width, height int
	}{
		{"within limits", []WindowBuilderOption{WithSize(640, 480)}, 640, 480},
		{"below minimum", []WindowBuilderOption{WithMinSize(300, 300), WithSize(100, 400)}, 300, 400},
		{"above maximum", []WindowBuilderOption{WithMaxSize(1024, 0), WithSize(4000, 3000)}, 1024, 3000},
		{"non-positive minimum", []WindowBuilderOption{WithMinSize(0, -5), WithSize(0, 0)}, 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newEngineWindow(tt.options...)
			if w.Width() != tt.width || w.Height() != tt.height {
				t.Errorf("size = %dx%d, want %dx%d", w.Width(), w.Height(), tt.width, tt.height)
			}
		})
	}
}

func TestCallbacksAreStored(t *testing.T) {
	w := newEngineWindow(WithTitle("test"))
	var down, up uint32
	var resized [2]int
	w.SetKeyDownCallback(func(k uint32) { down = k })
	w.SetKeyUpCallback(func(k uint32) { up = k })
	w.SetResizeCallback(func(width, height int) { resized = [2]int{width, height} })

	w.onKeyDown(32)
	w.onKeyUp(80)
	w.onResize(10, 20)
	if down != 32 || up != 80 || resized != [2]int{10, 20} {
		t.Errorf("callbacks got %d %d %v", down, up, resized)
	}
	if w.Title() != "test" {
		t.Errorf("Title = %q", w.Title())
	}
}
