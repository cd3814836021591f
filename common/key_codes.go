package common

// Virtual key codes delivered by the window key callbacks.
// These values match GLFW key codes which use ASCII values for printable keys.
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Key
const (
	KeyE     = 69  // E key: request the exit clip
	KeyI     = 73  // I key: request the idle clip
	KeyL     = 76  // L key: request the loading clip
	KeyP     = 80  // P key: toggle the profiler
	KeyR     = 82  // R key: reset the animation state machine
	KeySpace = 32  // Spacebar
	KeyEsc   = 256 // Escape key (GLFW)

	Key1 = 49 // 1 key: talk-1
	Key2 = 50 // 2 key: talk-2
	Key3 = 51 // 3 key: talk-3
)
