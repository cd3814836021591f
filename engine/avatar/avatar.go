package avatar

import (
	"fmt"
	"math"
	"sync"

	"github.com/Carmen-Shannon/oxy-avatar/common"
	"github.com/Carmen-Shannon/oxy-avatar/engine/animator"
	"github.com/Carmen-Shannon/oxy-avatar/engine/logger"
	"github.com/Carmen-Shannon/oxy-avatar/engine/model"
	"github.com/Carmen-Shannon/oxy-avatar/engine/particle"
	"github.com/Carmen-Shannon/oxy-avatar/engine/pointer"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

// Placement offsets of the particle cloud per platform.
var (
	DesktopOffset = mgl32.Vec3{-0.6, -0.7, 0}
	MobileOffset  = mgl32.Vec3{-1.4, -0.9, 0}
)

// Breathing motion applied to the avatar root while particles are enabled.
const (
	BreathingAmplitude float32 = 0.02
	BreathingRate      float32 = 0.5
)

// View is the camera state the avatar reads each frame.
type View interface {
	pointer.CameraView

	// ViewProjectionMatrix returns projection * view.
	ViewProjectionMatrix() mgl32.Mat4
}

// Avatar drives one rigged character's animation and particle overlay.
// Update runs the whole per-frame pipeline: clip sequencing, posing, head aim, skinning,
// pointer repulsion, and the render buffer refresh.
type Avatar interface {
	// Update advances the avatar by one frame.
	//
	// Parameters:
	//   - deltaTime: elapsed frame time in seconds
	//   - view: the camera (nil skips pointer interaction for this frame)
	//
	// Returns:
	//   - error: particle.ErrBufferDisposed after Dispose
	Update(deltaTime float32, view View) error

	// SetActiveClip requests an animation clip by name.
	//
	// Parameters:
	//   - name: the requested clip name
	SetActiveClip(name string)

	// SetActiveClipWithCallback requests a clip and registers a one-shot completion callback.
	//
	// Parameters:
	//   - name: the requested clip name
	//   - onComplete: called once when the clip completes
	SetActiveClipWithCallback(name string, onComplete func())

	// OnPointerMove forwards a raw window pointer event.
	//
	// Parameters:
	//   - px, py: pointer position in pixels
	//   - width, height: viewport size in pixels
	OnPointerMove(px, py, width, height float32)

	// SetViewport records the framebuffer size for point-size attenuation.
	//
	// Parameters:
	//   - width, height: framebuffer size in pixels
	SetViewport(width, height float32)

	// Reset re-enables particles after the exit sequence and returns to idle.
	Reset()

	// StateMachine returns the animation state machine.
	//
	// Returns:
	//   - animator.StateMachine: the state machine
	StateMachine() animator.StateMachine

	// Tracker returns the pointer tracker.
	//
	// Returns:
	//   - pointer.Tracker: the tracker
	Tracker() pointer.Tracker

	// Buffer returns the particle render buffer.
	//
	// Returns:
	//   - particle.RenderBuffer: the buffer
	Buffer() particle.RenderBuffer

	// Mesh returns the rigged mesh being animated.
	//
	// Returns:
	//   - *model.RiggedMesh: the mesh
	Mesh() *model.RiggedMesh

	// WorldMatrix returns the avatar root's world matrix for the current frame.
	//
	// Returns:
	//   - mgl32.Mat4: placement times breathing scale
	WorldMatrix() mgl32.Mat4

	// Elapsed returns the seconds accumulated by Update.
	//
	// Returns:
	//   - float32: elapsed time
	Elapsed() float32

	// OnDispose registers a release function run synchronously by Dispose, in reverse order.
	//
	// Parameters:
	//   - release: the function to run
	OnDispose(release func())

	// Dispose stops pointer tracking, releases the particle buffer, and runs the registered
	// release functions. Safe to call more than once.
	Dispose()

	// Disposed reports whether Dispose has been called.
	//
	// Returns:
	//   - bool: true after Dispose
	Disposed() bool
}

type avatarImpl struct {
	mu *sync.Mutex

	mesh  *model.RiggedMesh
	index model.MeshIndex

	stateMachine animator.StateMachine
	tracker      pointer.Tracker
	buffer       particle.RenderBuffer

	platform      animator.Platform
	density       float32
	offset        mgl32.Vec3
	offsetSet     bool
	position      mgl32.Vec3
	groupInverse  mgl32.Mat4
	breathing     bool
	headTracking  bool
	repulsion     bool
	viewportW     float32
	viewportH     float32
	meshMatrices  []mgl32.Mat4
	positions     []mgl32.Vec3
	sizeBoost     []float32
	world         mgl32.Mat4
	elapsed       float32
	releasers     []func()
	disposed      bool
	samplerOpts   []particle.SamplerBuilderOption
	bufferOpts    []particle.RenderBufferBuilderOption
	trackerOpts   []pointer.TrackerBuilderOption
	animatorOpts  []animator.StateMachineBuilderOption
	onFinished    func(name string)
	onSequenceEnd func()

	log *zap.Logger
}

var _ Avatar = &avatarImpl{}

// NewAvatar samples the mesh into particles, registers the clips, and starts idle.
//
// Parameters:
//   - mesh: the decoded rigged mesh (nil yields an avatar with no particles)
//   - clips: the animation clips
//   - options: functional options
//
// Returns:
//   - Avatar: the avatar
func NewAvatar(mesh *model.RiggedMesh, clips []*model.AnimationClip, options ...AvatarBuilderOption) Avatar {
	a := &avatarImpl{
		mu:           &sync.Mutex{},
		mesh:         mesh,
		platform:     animator.PlatformDesktop,
		density:      particle.DefaultDensity,
		breathing:    true,
		headTracking: true,
		repulsion:    true,
		world:        mgl32.Ident4(),
		log:          logger.Named("avatar"),
	}
	for _, opt := range options {
		opt(a)
	}
	if a.mesh == nil {
		a.mesh = &model.RiggedMesh{}
	}
	if !a.offsetSet {
		a.offset = DesktopOffset
		if a.platform == animator.PlatformMobile {
			a.offset = MobileOffset
		}
	}

	a.index = a.mesh.BuildIndex()
	a.meshMatrices = make([]mgl32.Mat4, len(a.mesh.SubMeshes))
	for i := range a.mesh.SubMeshes {
		a.meshMatrices[i] = a.mesh.SubMeshes[i].WorldMatrix
	}

	particles := particle.NewSampler(a.samplerOpts...).Sample(a.mesh, a.density)
	a.buffer = particle.NewRenderBuffer(particles, a.bufferOpts...)
	a.positions = make([]mgl32.Vec3, len(particles))
	a.sizeBoost = make([]float32, len(particles))
	a.tracker = pointer.NewTracker(a.trackerOpts...)

	smOpts := append([]animator.StateMachineBuilderOption{
		animator.WithPlatform(a.platform),
		animator.WithOnClipFinished(a.onFinished),
		animator.WithOnSequenceComplete(a.onSequenceEnd),
	}, a.animatorOpts...)
	a.stateMachine = animator.NewStateMachine(animator.NewClipRegistry(clips...), smOpts...)

	if a.index.HeadBone < 0 && a.headTracking {
		a.log.Warn("head bone not found, pointer aim disabled", zap.String("mesh", a.mesh.Name))
	}
	a.log.Info("avatar ready",
		zap.String("mesh", a.mesh.Name),
		zap.Int("vertices", a.mesh.VertexCount()),
		zap.Int("particles", len(particles)),
		zap.Int("clips", len(clips)),
		zap.String("platform", a.platform.String()),
	)
	return a
}

func (a *avatarImpl) Update(deltaTime float32, view View) error {
	a.mu.Lock()
	if a.disposed {
		a.mu.Unlock()
		return particle.ErrBufferDisposed
	}
	a.elapsed += deltaTime
	a.mu.Unlock()

	// Completion listeners run here and may call back into the avatar, including Dispose.
	a.stateMachine.Update(deltaTime)

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.disposed {
		return nil
	}
	enabled := a.stateMachine.ParticlesEnabled()

	a.world = a.rootMatrix(enabled)
	a.poseSkeleton()

	// Visibility follows the state machine, so resetting it directly brings the cloud back.
	a.buffer.SetVisible(enabled)
	if !enabled {
		return nil
	}

	if view != nil {
		a.tracker.Update(view, &a.world)
	}

	frame := particle.SkinFrame{
		MeshMatrices: a.meshMatrices,
		GroupInverse: a.groupInverse,
		Offset:       a.offset,
	}
	if skel := a.mesh.Skeleton; skel != nil {
		frame.Palette = skel.BoneMatrices
	}
	a.positions = frame.EvaluateAll(a.buffer.Particles(), a.positions)

	field, ok := a.tracker.Field()
	if ok && a.repulsion {
		field.Apply(a.positions, a.sizeBoost)
		a.buffer.SetPointer(field.Center)
	} else {
		for i := range a.sizeBoost {
			a.sizeBoost[i] = 0
		}
	}

	if err := a.buffer.Update(a.positions, a.sizeBoost, a.elapsed); err != nil {
		return fmt.Errorf("update particle buffer: %w", err)
	}
	if view != nil {
		a.buffer.SetView(view.ViewProjectionMatrix().Mul4(a.world), a.viewportW, a.viewportH)
	}
	return nil
}

// rootMatrix returns the placement translation with the breathing scale. Caller must hold the mutex.
func (a *avatarImpl) rootMatrix(enabled bool) mgl32.Mat4 {
	m := mgl32.Translate3D(a.position[0], a.position[1], a.position[2])
	if a.breathing && enabled {
		sy := 1 + BreathingAmplitude*float32(math.Sin(float64(a.elapsed*BreathingRate)))
		m = m.Mul4(mgl32.Scale3D(1, sy, 1))
	}
	return m
}

// poseSkeleton samples the state machine into the skeleton, aims the head, and rebuilds the
// bone matrix palette. Caller must hold the mutex.
func (a *avatarImpl) poseSkeleton() {
	skel := a.mesh.Skeleton
	if skel == nil {
		return
	}
	a.stateMachine.Pose(skel)
	skel.Update()

	head := a.index.HeadBone
	if !a.headTracking || head < 0 {
		return
	}
	inv := a.world.Inv()
	if inv == (mgl32.Mat4{}) {
		return
	}
	target := common.TransformPoint(inv, a.tracker.AimTarget())
	rot, ok := pointer.HeadAimRotation(skel.WorldMatrices[head], skel.ParentWorldMatrix(head), target)
	if !ok {
		return
	}
	skel.SetLocalRotation(head, rot)
	skel.Update()
}

func (a *avatarImpl) SetActiveClip(name string) {
	a.stateMachine.SetActiveClip(name)
}

func (a *avatarImpl) SetActiveClipWithCallback(name string, onComplete func()) {
	a.stateMachine.SetActiveClipWithCallback(name, onComplete)
}

func (a *avatarImpl) OnPointerMove(px, py, width, height float32) {
	a.tracker.OnPointerMove(px, py, width, height)
}

func (a *avatarImpl) SetViewport(width, height float32) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.viewportW, a.viewportH = width, height
}

func (a *avatarImpl) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.disposed {
		return
	}
	a.stateMachine.Reset()
	a.buffer.SetVisible(true)
}

func (a *avatarImpl) StateMachine() animator.StateMachine {
	return a.stateMachine
}

func (a *avatarImpl) Tracker() pointer.Tracker {
	return a.tracker
}

func (a *avatarImpl) Buffer() particle.RenderBuffer {
	return a.buffer
}

func (a *avatarImpl) Mesh() *model.RiggedMesh {
	return a.mesh
}

func (a *avatarImpl) WorldMatrix() mgl32.Mat4 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.world
}

func (a *avatarImpl) Elapsed() float32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.elapsed
}

func (a *avatarImpl) OnDispose(release func()) {
	if release == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.disposed {
		release()
		return
	}
	a.releasers = append(a.releasers, release)
}

func (a *avatarImpl) Dispose() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.disposed {
		return
	}
	a.disposed = true
	a.tracker.Close()
	a.buffer.Dispose()
	for i := len(a.releasers) - 1; i >= 0; i-- {
		a.releasers[i]()
	}
	a.releasers = nil
	a.log.Debug("avatar disposed", zap.String("mesh", a.mesh.Name))
}

func (a *avatarImpl) Disposed() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.disposed
}
