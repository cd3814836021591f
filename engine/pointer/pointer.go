package pointer

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-avatar/common"
	"github.com/Carmen-Shannon/oxy-avatar/engine/logger"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

// CameraView is the camera state the tracker reads once per frame.
type CameraView interface {
	// Position returns the camera's world position.
	Position() mgl32.Vec3

	// Forward returns the camera's unit view direction.
	Forward() mgl32.Vec3

	// InverseViewProjection returns the inverse of the view-projection matrix.
	InverseViewProjection() mgl32.Mat4
}

// Tracker turns raw pointer events into an aim target and a repulsion center.
// Pointer events only store the latest position; the frame loop derives the 3D state in Update.
type Tracker interface {
	// OnPointerMove records the pointer position. Ignored after Close.
	//
	// Parameters:
	//   - px, py: pointer position in pixels from the top-left corner
	//   - width, height: viewport size in pixels
	OnPointerMove(px, py, width, height float32)

	// Update recomputes the repulsion center from the latest pointer position. When the
	// camera or avatar transform is unavailable, or the ray misses the plane, the previous
	// state is kept.
	//
	// Parameters:
	//   - cam: the camera (nil skips the update)
	//   - avatarWorld: the avatar's world matrix (nil skips the update)
	//
	// Returns:
	//   - bool: true if the repulsion center was updated
	Update(cam CameraView, avatarWorld *mgl32.Mat4) bool

	// Pointer returns the latest normalized pointer position.
	//
	// Returns:
	//   - mgl32.Vec2: the position in [-1, 1]
	Pointer() mgl32.Vec2

	// AimTarget returns the head look-at target for the latest pointer position.
	//
	// Returns:
	//   - mgl32.Vec3: the target in world space
	AimTarget() mgl32.Vec3

	// RepulsionCenter returns the last computed repulsion center in the avatar's local space.
	//
	// Returns:
	//   - mgl32.Vec3: the center
	//   - bool: false until the first successful Update
	RepulsionCenter() (mgl32.Vec3, bool)

	// Field returns the repulsion field at the current center.
	//
	// Returns:
	//   - Field: the field
	//   - bool: false until the first successful Update
	Field() (Field, bool)

	// Close stops accepting pointer events.
	Close()

	// Closed reports whether Close has been called.
	//
	// Returns:
	//   - bool: true after Close
	Closed() bool
}

type tracker struct {
	mu *sync.Mutex

	pointer mgl32.Vec2
	moved   bool

	center      mgl32.Vec3
	centerValid bool

	radius      float32
	strength    float32
	sizeBoost   float32
	aimScale    float32
	aimDistance float32

	closed bool
	log    *zap.Logger
}

var _ Tracker = &tracker{}

// NewTracker creates a tracker with the pointer at the viewport center.
//
// Parameters:
//   - options: functional options
//
// Returns:
//   - Tracker: the tracker
func NewTracker(options ...TrackerBuilderOption) Tracker {
	t := &tracker{
		mu:          &sync.Mutex{},
		radius:      DefaultRadius,
		strength:    DefaultStrength,
		sizeBoost:   DefaultSizeBoost,
		aimScale:    DefaultAimScale,
		aimDistance: DefaultAimDistance,
		log:         logger.Named("pointer"),
	}
	for _, opt := range options {
		opt(t)
	}
	return t
}

func (t *tracker) OnPointerMove(px, py, width, height float32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	ndc, ok := NormalizePointer(px, py, width, height)
	if !ok {
		return
	}
	t.pointer = ndc
	t.moved = true
}

func (t *tracker) Update(cam CameraView, avatarWorld *mgl32.Mat4) bool {
	if cam == nil || avatarWorld == nil {
		return false
	}

	t.mu.Lock()
	ndc := t.pointer
	t.mu.Unlock()

	ray, ok := ScreenToRay(cam.InverseViewProjection(), ndc)
	if !ok {
		t.log.Debug("pointer ray unavailable, keeping previous state")
		return false
	}
	plane := Plane{
		Normal: cam.Forward().Normalize(),
		Point:  avatarWorld.Col(3).Vec3(),
	}
	hit, ok := plane.Intersect(ray)
	if !ok {
		return false
	}
	inv := avatarWorld.Inv()
	if inv == (mgl32.Mat4{}) {
		return false
	}
	local := common.TransformPoint(inv, hit)

	t.mu.Lock()
	t.center = local
	t.centerValid = true
	t.mu.Unlock()
	return true
}

func (t *tracker) Pointer() mgl32.Vec2 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pointer
}

func (t *tracker) AimTarget() mgl32.Vec3 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return AimTarget(t.pointer, t.aimScale, t.aimDistance)
}

func (t *tracker) RepulsionCenter() (mgl32.Vec3, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.center, t.centerValid
}

func (t *tracker) Field() (Field, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Field{
		Center:    t.center,
		Radius:    t.radius,
		Strength:  t.strength,
		SizeBoost: t.sizeBoost,
	}, t.centerValid
}

func (t *tracker) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
}

func (t *tracker) Closed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}
