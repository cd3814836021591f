package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/Carmen-Shannon/oxy-avatar/common"
	"github.com/Carmen-Shannon/oxy-avatar/engine/avatar"
	"github.com/Carmen-Shannon/oxy-avatar/engine/camera"
	"github.com/Carmen-Shannon/oxy-avatar/engine/logger"
	"github.com/Carmen-Shannon/oxy-avatar/engine/particle"
	"github.com/Carmen-Shannon/oxy-avatar/engine/profiler"
	"github.com/Carmen-Shannon/oxy-avatar/engine/renderer"
	"github.com/Carmen-Shannon/oxy-avatar/engine/window"
	"go.uber.org/zap"
)

// Errors returned by NewEngine.
var (
	ErrNoWindow   = errors.New("engine: a window is required")
	ErrNoRenderer = errors.New("engine: a renderer is required")
)

// FrameRenderer is the part of renderer.Renderer the frame loop drives.
type FrameRenderer interface {
	renderer.ParticleTarget

	// Resize reconfigures the surface for a new framebuffer size.
	Resize(width, height int)

	// EndFrame ends the render pass and submits it.
	EndFrame()

	// Present presents the surface.
	Present()

	// Release frees the GPU device.
	Release()
}

var _ FrameRenderer = renderer.Renderer(nil)

// engine implements the Engine interface.
// Everything runs on the window's thread: the message loop calls frame once per iteration.
type engine struct {
	window   window.Window
	renderer FrameRenderer
	camera   camera.Camera

	avatar avatar.Avatar
	pass   renderer.ParticlePass

	profiler         *profiler.Profiler
	profilingEnabled bool

	keyBindings   map[uint32]func()
	frameCallback func(deltaTime float32)

	renderFrameLimit time.Duration // minimum frame duration; 0 = uncapped
	now              func() time.Time
	sleep            func(time.Duration)
	lastFrame        time.Time

	log *zap.Logger
}

// Engine is the main entry point for the avatar viewer.
// It owns the single-threaded frame loop: window input, avatar update, particle upload, draw,
// and present all happen in order on one thread.
type Engine interface {
	// Window returns the underlying window.
	//
	// Returns:
	//   - window.Window: the window instance
	Window() window.Window

	// Camera returns the camera the avatar is viewed through.
	//
	// Returns:
	//   - camera.Camera: the camera
	Camera() camera.Camera

	// Avatar returns the mounted avatar, or nil.
	//
	// Returns:
	//   - avatar.Avatar: the avatar
	Avatar() avatar.Avatar

	// SetAvatar mounts an avatar, disposing the previously mounted one first. Passing nil
	// only unmounts.
	//
	// Parameters:
	//   - av: the avatar to mount
	//
	// Returns:
	//   - error: an error if the particle GPU buffers could not be created
	SetAvatar(av avatar.Avatar) error

	// EnableProfiler enables frame statistics logging.
	EnableProfiler()

	// DisableProfiler disables frame statistics logging.
	DisableProfiler()

	// ProfilerEnabled reports whether frame statistics are being logged.
	//
	// Returns:
	//   - bool: true if the profiler is enabled
	ProfilerEnabled() bool

	// BindKey replaces the action run when a key is pressed. A nil action removes the binding.
	//
	// Parameters:
	//   - keyCode: the virtual key code (see common.Key*)
	//   - action: the function to run
	BindKey(keyCode uint32, action func())

	// SetFrameCallback registers a function called at the end of every frame.
	//
	// Parameters:
	//   - callback: function receiving the delta time in seconds
	SetFrameCallback(callback func(deltaTime float32))

	// SetRenderFrameLimit sets an optional frame rate cap in frames per second.
	// Pass 0 to uncap the loop.
	//
	// Parameters:
	//   - fps: maximum frames per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)

	// Run runs the frame loop. Blocks until the window closes, then disposes the avatar and
	// releases the renderer.
	Run()

	// Quit closes the window, ending Run after the current frame.
	Quit()
}

var _ Engine = &engine{}

// NewEngine creates a new Engine from the provided options. A window and a renderer are
// required. When no camera is given, one is created looking down -Z from (0, 0, 5) with the
// window's aspect ratio.
//
// Parameters:
//   - options: functional options for engine configuration
//
// Returns:
//   - Engine: the newly created engine
//   - error: ErrNoWindow, ErrNoRenderer, or an error attaching the avatar
func NewEngine(options ...EngineBuilderOption) (Engine, error) {
	e := &engine{
		profiler:    profiler.NewProfiler(),
		keyBindings: make(map[uint32]func()),
		now:         time.Now,
		sleep:       time.Sleep,
		log:         logger.Named("engine"),
	}
	var mount avatar.Avatar
	e.bindDefaultKeys()

	for _, opt := range options {
		opt(e)
	}
	if e.window == nil {
		return nil, ErrNoWindow
	}
	if e.renderer == nil {
		return nil, ErrNoRenderer
	}
	if e.camera == nil {
		e.camera = camera.NewCamera(camera.WithAspect(aspect(e.window.Width(), e.window.Height())))
	}

	e.window.SetResizeCallback(e.onResize)
	e.window.SetKeyDownCallback(e.onKeyDown)
	e.window.SetPointerMoveCallback(e.onPointerMove)
	e.window.SetPointerLeaveCallback(e.onPointerLeave)

	mount, e.avatar = e.avatar, nil
	if mount != nil {
		if err := e.SetAvatar(mount); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// bindDefaultKeys maps number keys to the talk clips and letters to the scripted clips.
func (e *engine) bindDefaultKeys() {
	clip := func(name string) func() {
		return func() {
			if e.avatar != nil {
				e.avatar.SetActiveClip(name)
			}
		}
	}
	e.keyBindings[common.Key1] = clip("talk-1")
	e.keyBindings[common.Key2] = clip("talk-2")
	e.keyBindings[common.Key3] = clip("talk-3")
	e.keyBindings[common.KeyL] = clip("loading")
	e.keyBindings[common.KeyE] = clip("exit")
	e.keyBindings[common.KeyI] = clip("idle")
	e.keyBindings[common.KeyR] = func() {
		if e.avatar != nil {
			e.avatar.Reset()
		}
	}
	e.keyBindings[common.KeyP] = func() {
		if e.profilingEnabled {
			e.DisableProfiler()
		} else {
			e.EnableProfiler()
		}
	}
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Camera() camera.Camera {
	return e.camera
}

func (e *engine) Avatar() avatar.Avatar {
	return e.avatar
}

func (e *engine) SetAvatar(av avatar.Avatar) error {
	if e.avatar != nil {
		// Releases the particle pass through the avatar's dispose hooks.
		e.avatar.Dispose()
		e.avatar, e.pass = nil, nil
	}
	if av == nil {
		return nil
	}

	pass, err := renderer.AttachAvatar(e.renderer, av)
	if err != nil {
		return fmt.Errorf("attach avatar: %w", err)
	}
	av.SetViewport(float32(e.window.Width()), float32(e.window.Height()))
	e.avatar, e.pass = av, pass
	return nil
}

func (e *engine) EnableProfiler() {
	e.profilingEnabled = true
	e.log.Info("profiler enabled")
}

func (e *engine) DisableProfiler() {
	e.profilingEnabled = false
	e.log.Info("profiler disabled")
}

func (e *engine) ProfilerEnabled() bool {
	return e.profilingEnabled
}

func (e *engine) BindKey(keyCode uint32, action func()) {
	if action == nil {
		delete(e.keyBindings, keyCode)
		return
	}
	e.keyBindings[keyCode] = action
}

func (e *engine) SetFrameCallback(callback func(deltaTime float32)) {
	e.frameCallback = callback
}

func (e *engine) SetRenderFrameLimit(fps float64) {
	if fps <= 0 {
		e.renderFrameLimit = 0
		return
	}
	e.renderFrameLimit = time.Duration(float64(time.Second) / fps)
}

func (e *engine) Run() {
	e.lastFrame = e.now()
	e.window.SetUpdateCallback(e.frame)
	e.window.ProcessMessages()

	e.window.SetUpdateCallback(nil)
	if err := e.SetAvatar(nil); err != nil {
		e.log.Warn("unmount avatar", zap.Error(err))
	}
	e.renderer.Release()
	e.log.Info("engine stopped")
}

func (e *engine) Quit() {
	if !e.window.IsRunning() {
		return
	}
	if err := e.window.Close(); err != nil {
		e.log.Warn("close window", zap.Error(err))
	}
}

// frame runs one iteration of the loop: update, upload, draw, present, then bookkeeping.
func (e *engine) frame() {
	start := e.now()
	dt := float32(start.Sub(e.lastFrame).Seconds())
	e.lastFrame = start

	drawable := e.updateAvatar(dt)

	if err := e.renderer.BeginFrame(); err != nil {
		e.log.Debug("skipping frame", zap.Error(err))
	} else {
		if drawable {
			if err := e.pass.Draw(); err != nil && !errors.Is(err, renderer.ErrBufferReleased) {
				e.log.Warn("draw particles", zap.Error(err))
			}
		}
		e.renderer.EndFrame()
		e.renderer.Present()
	}

	if e.frameCallback != nil {
		e.frameCallback(dt)
	}
	if e.profilingEnabled {
		e.profiler.Tick()
	}

	if e.renderFrameLimit > 0 {
		if remaining := e.renderFrameLimit - e.now().Sub(start); remaining > 0 {
			e.sleep(remaining)
		}
	}
}

// updateAvatar advances the avatar and uploads its particles. It reports whether the pass
// has live buffers to draw.
func (e *engine) updateAvatar(dt float32) bool {
	if e.avatar == nil || e.pass == nil {
		return false
	}

	started := e.now()
	err := e.avatar.Update(dt, e.camera)
	e.profiler.RecordUpdate(e.now().Sub(started))
	switch {
	case errors.Is(err, particle.ErrBufferDisposed):
		// Disposed by the host (for example from a sequence-complete callback).
		e.avatar, e.pass = nil, nil
		return false
	case err != nil:
		e.log.Warn("update avatar", zap.Error(err))
	}

	if err := e.pass.Sync(); err != nil {
		if !errors.Is(err, renderer.ErrBufferReleased) {
			e.log.Warn("upload particles", zap.Error(err))
		}
		return false
	}
	return true
}

func (e *engine) onResize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	e.renderer.Resize(width, height)
	e.camera.SetAspect(aspect(width, height))
	if e.avatar != nil {
		e.avatar.SetViewport(float32(width), float32(height))
	}
}

func (e *engine) onKeyDown(keyCode uint32) {
	if action, ok := e.keyBindings[keyCode]; ok {
		action()
	}
}

func (e *engine) onPointerMove(x, y float32) {
	if e.avatar == nil {
		return
	}
	e.avatar.OnPointerMove(x, y, float32(e.window.Width()), float32(e.window.Height()))
}

// onPointerLeave recentres the pointer so the head returns to looking straight ahead.
func (e *engine) onPointerLeave() {
	w, h := float32(e.window.Width()), float32(e.window.Height())
	if e.avatar == nil {
		return
	}
	e.avatar.OnPointerMove(w/2, h/2, w, h)
}

func aspect(width, height int) float32 {
	if width <= 0 || height <= 0 {
		return 1
	}
	return float32(width) / float32(height)
}
