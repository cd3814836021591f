package window

// WindowBuilderOption is a functional option for configuring an engineWindow.
type WindowBuilderOption func(w *engineWindow)

// WithTitle sets the window title displayed in the title bar.
//
// Parameters:
//   - title: the window title text
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithTitle(title string) WindowBuilderOption {
	return func(w *engineWindow) {
		w.title = title
	}
}

// WithSize sets the requested window size. The framebuffer size may differ on high-DPI displays.
//
// Parameters:
//   - width: initial width in pixels
//   - height: initial height in pixels
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithSize(width, height int) WindowBuilderOption {
	return func(w *engineWindow) {
		if width > 0 {
			w.width = width
		}
		if height > 0 {
			w.height = height
		}
	}
}

// WithTransparentFramebuffer requests a transparent framebuffer so the avatar floats over the desktop.
//
// Parameters:
//   - transparent: true to request a transparent framebuffer
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithTransparentFramebuffer(transparent bool) WindowBuilderOption {
	return func(w *engineWindow) {
		w.transparent = transparent
	}
}

// WithDecorated toggles the title bar and border.
//
// Parameters:
//   - decorated: false for a borderless window
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithDecorated(decorated bool) WindowBuilderOption {
	return func(w *engineWindow) {
		w.decorated = decorated
	}
}
