package engine

import (
	"time"

	"github.com/Carmen-Shannon/oxy-avatar/engine/avatar"
	"github.com/Carmen-Shannon/oxy-avatar/engine/camera"
	"github.com/Carmen-Shannon/oxy-avatar/engine/profiler"
	"github.com/Carmen-Shannon/oxy-avatar/engine/window"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithProfiling enables or disables frame statistics logging.
//
// Parameters:
//   - enabled: if true, enables the profiler
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled = enabled
	}
}

// WithProfilerOptions replaces the engine's profiler with one built from the given options.
//
// Parameters:
//   - opts: profiler options
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfilerOptions(opts ...profiler.ProfilerOption) EngineBuilderOption {
	return func(e *engine) {
		e.profiler = profiler.NewProfiler(opts...)
	}
}

// WithWindow sets the window the engine runs in.
//
// Parameters:
//   - w: a created Window instance
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindow(w window.Window) EngineBuilderOption {
	return func(e *engine) {
		e.window = w
	}
}

// WithRenderer sets the renderer the particle cloud is drawn with.
//
// Parameters:
//   - r: the renderer, usually a renderer.Renderer
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderer(r FrameRenderer) EngineBuilderOption {
	return func(e *engine) {
		e.renderer = r
	}
}

// WithCamera sets the camera the avatar is viewed through.
//
// Parameters:
//   - c: the camera
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithCamera(c camera.Camera) EngineBuilderOption {
	return func(e *engine) {
		e.camera = c
	}
}

// WithAvatar mounts an avatar during construction.
//
// Parameters:
//   - av: the avatar
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithAvatar(av avatar.Avatar) EngineBuilderOption {
	return func(e *engine) {
		e.avatar = av
	}
}

// WithKeyBinding binds a key to an action, replacing any default binding.
//
// Parameters:
//   - keyCode: the virtual key code
//   - action: the function to run on key press (nil removes the binding)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithKeyBinding(keyCode uint32, action func()) EngineBuilderOption {
	return func(e *engine) {
		e.BindKey(keyCode, action)
	}
}

// WithRenderFrameLimit sets an optional frame rate cap in frames per second.
// Pass 0 to uncap the loop (default).
//
// Parameters:
//   - fps: maximum frames per second (0 = uncapped)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderFrameLimit(fps float64) EngineBuilderOption {
	return func(e *engine) {
		e.SetRenderFrameLimit(fps)
	}
}

// WithClock replaces time.Now and time.Sleep for the frame loop.
func WithClock(now func() time.Time, sleep func(time.Duration)) EngineBuilderOption {
	return func(e *engine) {
		if now != nil {
			e.now = now
		}
		if sleep != nil {
			e.sleep = sleep
		}
	}
}
