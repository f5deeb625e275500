package common

// Key codes passed to window key callbacks.
// These values match GLFW key codes which use ASCII values for printable keys.
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Key
const (
	KeySpace  = 32  // Space bar
	KeyC      = 67  // C key (ASCII)
	KeyN      = 78  // N key (ASCII)
	KeyP      = 80  // P key (ASCII)
	KeyQ      = 81  // Q key (ASCII)
	KeyEscape = 256 // Escape, handled by the window itself
)
