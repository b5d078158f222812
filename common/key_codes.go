package common

// KeyCode is a keyboard key as reported by the host window.
// Values match GLFW key codes, which use ASCII for printable keys.
type KeyCode uint32

// Keys bound by the viewer.
const (
	KeySpace KeyCode = 32
	KeyF     KeyCode = 70 // frame the model
	KeyN     KeyCode = 78 // next animation
	KeyP     KeyCode = 80 // previous animation
	KeyR     KeyCode = 82 // reset playback

	KeyEscape KeyCode = 256
	KeyRight  KeyCode = 262
	KeyLeft   KeyCode = 263
	KeyDown   KeyCode = 264
	KeyUp     KeyCode = 265
)

// MouseButton identifies a mouse button as reported by the host window.
type MouseButton int

const (
	MouseButtonLeft MouseButton = iota
	MouseButtonRight
	MouseButtonMiddle
)
