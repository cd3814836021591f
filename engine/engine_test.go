package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-avatar/common"
	"github.com/Carmen-Shannon/oxy-avatar/engine/avatar"
	"github.com/Carmen-Shannon/oxy-avatar/engine/config"
	"github.com/Carmen-Shannon/oxy-avatar/engine/model"
	"github.com/Carmen-Shannon/oxy-avatar/engine/renderer"
	"github.com/Carmen-Shannon/oxy-avatar/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-avatar/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
)

// fakeWindow runs a fixed number of loop iterations and exposes its callbacks to tests.
type fakeWindow struct {
	width, height int
	running       bool
	iterations    int

	onUpdate       func()
	onResize       func(width, height int)
	onKeyDown      func(keyCode uint32)
	onPointerMove  func(x, y float32)
	onPointerLeave func()
}

func newFakeWindow() *fakeWindow {
	return &fakeWindow{width: 800, height: 400, running: true, iterations: 3}
}

func (w *fakeWindow) SetUpdateCallback(cb func())                  { w.onUpdate = cb }
func (w *fakeWindow) SetResizeCallback(cb func(width, height int)) { w.onResize = cb }
func (w *fakeWindow) SetKeyDownCallback(cb func(keyCode uint32))   { w.onKeyDown = cb }
func (w *fakeWindow) SetPointerMoveCallback(cb func(x, y float32)) { w.onPointerMove = cb }
func (w *fakeWindow) SetPointerLeaveCallback(cb func())            { w.onPointerLeave = cb }
func (w *fakeWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor   { return nil }
func (w *fakeWindow) IsRunning() bool                              { return w.running }
func (w *fakeWindow) Width() int                                   { return w.width }
func (w *fakeWindow) Height() int                                  { return w.height }
func (w *fakeWindow) Close() error                                 { w.running = false; return nil }

func (w *fakeWindow) ProcessMessages() {
	for i := 0; i < w.iterations && w.running; i++ {
		if w.onUpdate != nil {
			w.onUpdate()
		}
	}
	w.running = false
}

type drawCall struct {
	key           string
	instanceCount uint32
}

// fakeRenderer records the frame lifecycle calls.
type fakeRenderer struct {
	registered    []string
	initErr       error
	writes        int
	draws         []drawCall
	begun         int
	ended         int
	presented     int
	width, height int
	released      bool
}

func (r *fakeRenderer) RegisterPipelines(pipelines ...pipeline.Pipeline) error {
	for _, p := range pipelines {
		r.registered = append(r.registered, p.PipelineKey())
	}
	return nil
}

func (r *fakeRenderer) InitInstanceBuffers(string, bind_group_provider.BindGroupProvider, int) error {
	return r.initErr
}

func (r *fakeRenderer) WriteBuffers(writes []bind_group_provider.BufferWrite) {
	r.writes += len(writes)
}

func (r *fakeRenderer) BeginFrame() error {
	r.begun++
	return nil
}

func (r *fakeRenderer) DrawInstances(key string, _ bind_group_provider.BindGroupProvider, _, instanceCount uint32) error {
	r.draws = append(r.draws, drawCall{key: key, instanceCount: instanceCount})
	return nil
}

func (r *fakeRenderer) Resize(width, height int) { r.width, r.height = width, height }
func (r *fakeRenderer) EndFrame()                { r.ended++ }
func (r *fakeRenderer) Present()                 { r.presented++ }
func (r *fakeRenderer) Release()                 { r.released = true }

type fakeClock struct {
	t     time.Time
	slept []time.Duration
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) sleep(d time.Duration) { c.slept = append(c.slept, d) }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

// testAvatar builds a one-bone avatar whose four vertices all become particles.
func testAvatar(t *testing.T) avatar.Avatar {
	t.Helper()
	skel := model.NewSkeleton([]model.Bone{{Name: "Hips", ParentIndex: -1}})
	mesh := &model.RiggedMesh{
		Name:     "quad",
		Skeleton: skel,
		SubMeshes: []model.SubMesh{{
			Name:      "body",
			Positions: [][3]float32{{0, 0, 0}, {0, 1, 0}, {1, 0, 0}, {1, 1, 0}},
			Joints:    [][4]uint32{{0, 0, 0, 0}, {0, 0, 0, 0}, {0, 0, 0, 0}, {0, 0, 0, 0}},
			Weights:   [][4]float32{{1, 0, 0, 0}, {1, 0, 0, 0}, {1, 0, 0, 0}, {1, 0, 0, 0}},
		}},
	}
	clips := []*model.AnimationClip{
		{Name: "idle", Duration: 2},
		{Name: "talk2", Duration: 1},
		{Name: "exit", Duration: 1},
	}
	return avatar.NewAvatar(mesh, clips,
		avatar.WithDensity(1),
		avatar.WithOffset(mgl32.Vec3{}),
		avatar.WithHeadTracking(false),
	)
}

func newTestEngine(t *testing.T, options ...EngineBuilderOption) (*engine, *fakeWindow, *fakeRenderer, *fakeClock) {
	t.Helper()
	w := newFakeWindow()
	r := &fakeRenderer{}
	clock := &fakeClock{t: time.Unix(100, 0)}
	base := []EngineBuilderOption{WithWindow(w), WithRenderer(r), WithClock(clock.now, clock.sleep)}
	e, err := NewEngine(append(base, options...)...)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	eng := e.(*engine)
	eng.lastFrame = clock.t
	return eng, w, r, clock
}

func TestNewEngineRequiresWindowAndRenderer(t *testing.T) {
	if _, err := NewEngine(WithRenderer(&fakeRenderer{})); !errors.Is(err, ErrNoWindow) {
		t.Errorf("no window: got %v, want %v", err, ErrNoWindow)
	}
	if _, err := NewEngine(WithWindow(newFakeWindow())); !errors.Is(err, ErrNoRenderer) {
		t.Errorf("no renderer: got %v, want %v", err, ErrNoRenderer)
	}
}

func TestNewEngineDefaultCamera(t *testing.T) {
	eng, _, _, _ := newTestEngine(t)
	if got := eng.Camera().Aspect(); got != 2 {
		t.Errorf("camera aspect: got %v, want 2", got)
	}
}

func TestFrameDrawsAvatar(t *testing.T) {
	av := testAvatar(t)
	eng, _, r, clock := newTestEngine(t, WithAvatar(av))

	if len(r.registered) != 1 || r.registered[0] != renderer.ParticlePipelineKey {
		t.Fatalf("registered pipelines: got %v, want [%s]", r.registered, renderer.ParticlePipelineKey)
	}

	clock.advance(16 * time.Millisecond)
	eng.frame()

	if r.begun != 1 || r.ended != 1 || r.presented != 1 {
		t.Errorf("frame lifecycle: got begin %d end %d present %d, want 1 each", r.begun, r.ended, r.presented)
	}
	if r.writes == 0 {
		t.Error("writes: got 0, want staged particle uploads")
	}
	if len(r.draws) != 1 {
		t.Fatalf("draws: got %d, want 1", len(r.draws))
	}
	if got, want := r.draws[0].instanceCount, uint32(av.Buffer().Len()); got != want || want != 4 {
		t.Errorf("instance count: got %d, want %d (4 particles)", got, want)
	}
	if got := av.Elapsed(); got < 0.0159 || got > 0.0161 {
		t.Errorf("avatar elapsed: got %v, want 0.016", got)
	}
}

func TestFrameWithoutAvatarStillPresents(t *testing.T) {
	eng, _, r, clock := newTestEngine(t)
	var frames int
	eng.SetFrameCallback(func(float32) { frames++ })

	clock.advance(time.Millisecond)
	eng.frame()
	if r.presented != 1 || len(r.draws) != 0 {
		t.Errorf("got presented %d draws %d, want 1 and 0", r.presented, len(r.draws))
	}
	if frames != 1 {
		t.Errorf("frame callback: got %d calls, want 1", frames)
	}
}

func TestHostDisposeUnmountsAvatar(t *testing.T) {
	av := testAvatar(t)
	eng, _, r, clock := newTestEngine(t, WithAvatar(av))

	av.Dispose()
	clock.advance(time.Millisecond)
	eng.frame()

	if len(r.draws) != 0 {
		t.Errorf("draws after dispose: got %d, want 0", len(r.draws))
	}
	if eng.Avatar() != nil {
		t.Error("Avatar after dispose: got mounted avatar, want nil")
	}
	if r.presented != 1 {
		t.Errorf("presented: got %d, want 1", r.presented)
	}
}

func TestSetAvatarDisposesPrevious(t *testing.T) {
	first := testAvatar(t)
	eng, _, r, _ := newTestEngine(t, WithAvatar(first))

	second := testAvatar(t)
	if err := eng.SetAvatar(second); err != nil {
		t.Fatalf("SetAvatar: %v", err)
	}
	if !first.Disposed() {
		t.Error("first avatar: got live, want disposed")
	}
	if eng.Avatar() != second {
		t.Error("mounted avatar: got first, want second")
	}

	if err := eng.SetAvatar(nil); err != nil {
		t.Fatalf("SetAvatar(nil): %v", err)
	}
	if !second.Disposed() || eng.Avatar() != nil {
		t.Error("unmount: want second disposed and nothing mounted")
	}
	if len(r.registered) != 2 {
		t.Errorf("pipeline registrations: got %d, want 2", len(r.registered))
	}
}

func TestAttachErrorIsReturned(t *testing.T) {
	initErr := errors.New("out of memory")
	_, err := NewEngine(
		WithWindow(newFakeWindow()),
		WithRenderer(&fakeRenderer{initErr: initErr}),
		WithAvatar(testAvatar(t)),
	)
	if !errors.Is(err, initErr) {
		t.Errorf("got %v, want wrapped %v", err, initErr)
	}
}

func TestKeyBindings(t *testing.T) {
	av := testAvatar(t)
	var exitPressed bool
	eng, w, _, _ := newTestEngine(t,
		WithAvatar(av),
		WithKeyBinding(common.KeyE, func() { exitPressed = true }),
	)

	w.onKeyDown(common.Key2)
	if got := av.StateMachine().State().Requested; got != "talk-2" {
		t.Errorf("key 2: got requested %q, want talk-2", got)
	}

	w.onKeyDown(common.KeyE)
	if !exitPressed {
		t.Error("KeyE: custom binding not run")
	}
	if got := av.StateMachine().State().Requested; got != "talk-2" {
		t.Errorf("KeyE: got requested %q, want the default exit binding replaced", got)
	}

	w.onKeyDown(common.KeyP)
	if !eng.ProfilerEnabled() {
		t.Error("KeyP: profiler not enabled")
	}
	w.onKeyDown(common.KeyP)
	if eng.ProfilerEnabled() {
		t.Error("KeyP again: profiler not disabled")
	}

	eng.BindKey(common.Key2, nil)
	w.onKeyDown(common.KeyI)
	w.onKeyDown(common.Key2)
	if got := av.StateMachine().State().Requested; got != "idle" {
		t.Errorf("unbound key 2: got requested %q, want idle", got)
	}
}

func TestResizeUpdatesRendererAndCamera(t *testing.T) {
	eng, w, r, _ := newTestEngine(t, WithAvatar(testAvatar(t)))

	w.onResize(1024, 512)
	if r.width != 1024 || r.height != 512 {
		t.Errorf("renderer size: got %dx%d, want 1024x512", r.width, r.height)
	}
	if got := eng.Camera().Aspect(); got != 2 {
		t.Errorf("camera aspect: got %v, want 2", got)
	}

	w.onResize(0, 0)
	if r.width != 1024 {
		t.Errorf("zero resize: got width %d, want unchanged 1024", r.width)
	}
}

func TestPointerEventsReachTracker(t *testing.T) {
	av := testAvatar(t)
	_, w, _, _ := newTestEngine(t, WithAvatar(av))

	w.onPointerMove(800, 0)
	if got := av.Tracker().Pointer(); got.X() != 1 || got.Y() != 1 {
		t.Errorf("top-right pointer: got %v, want (1, 1)", got)
	}

	w.onPointerLeave()
	if got := av.Tracker().Pointer(); got.X() != 0 || got.Y() != 0 {
		t.Errorf("after leave: got %v, want (0, 0)", got)
	}
}

func TestRenderFrameLimitSleeps(t *testing.T) {
	eng, _, _, clock := newTestEngine(t, WithRenderFrameLimit(50))

	clock.advance(time.Millisecond)
	eng.frame()
	if len(clock.slept) != 1 || clock.slept[0] != 20*time.Millisecond {
		t.Errorf("slept: got %v, want [20ms]", clock.slept)
	}
}

func TestRunReleasesOnExit(t *testing.T) {
	av := testAvatar(t)
	eng, w, r, _ := newTestEngine(t, WithAvatar(av))
	w.iterations = 5

	var frames int
	eng.SetFrameCallback(func(float32) {
		frames++
		if frames == 2 {
			eng.Quit()
		}
	})
	eng.Run()

	if frames != 2 {
		t.Errorf("frames: got %d, want 2", frames)
	}
	if !av.Disposed() {
		t.Error("avatar: got live after Run, want disposed")
	}
	if !r.released {
		t.Error("renderer: got live after Run, want released")
	}
}

func TestAvatarOptionsFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Avatar.Platform = "mobile"
	cfg.Particles.Density = 0.5
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	skel := model.NewSkeleton([]model.Bone{{Name: "Hips", ParentIndex: -1}})
	positions := make([][3]float32, 10)
	for i := range positions {
		positions[i] = [3]float32{0, float32(i), 0}
	}
	mesh := &model.RiggedMesh{
		Name:      "column",
		Skeleton:  skel,
		SubMeshes: []model.SubMesh{{Name: "body", Positions: positions, WorldMatrix: mgl32.Ident4()}},
	}
	av := avatar.NewAvatar(mesh, []*model.AnimationClip{{Name: "idle", Duration: 1}}, AvatarOptions(cfg)...)

	if got := av.StateMachine().Platform(); got != cfg.PlatformValue() {
		t.Errorf("platform: got %v, want %v", got, cfg.PlatformValue())
	}
	if got := av.Buffer().Len(); got != 5 {
		t.Errorf("particles: got %d, want 5", got)
	}

	if got := len(RendererOptions(cfg)); got != 2 {
		t.Errorf("renderer options: got %d, want 2", got)
	}
	cfg.Window.Transparent = true
	if got := len(RendererOptions(cfg)); got != 3 {
		t.Errorf("transparent renderer options: got %d, want 3", got)
	}
	if got := len(WindowOptions(cfg)); got != 4 {
		t.Errorf("window options: got %d, want 4", got)
	}
}
