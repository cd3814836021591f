package pointer

import (
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-avatar/common"
	"github.com/go-gl/mathgl/mgl32"
)

func approxEqual(a, b, eps float32) bool {
	return float32(math.Abs(float64(a-b))) <= eps
}

func vecApproxEqual(a, b mgl32.Vec3, eps float32) bool {
	for i := range a {
		if float32(math.Abs(float64(a[i]-b[i]))) > eps {
			return false
		}
	}
	return true
}

type testCamera struct {
	pos    mgl32.Vec3
	target mgl32.Vec3
	invVP  mgl32.Mat4
}

func newTestCamera(pos, target mgl32.Vec3) *testCamera {
	view := mgl32.LookAtV(pos, target, mgl32.Vec3{0, 1, 0})
	proj := common.Perspective(math.Pi/4, 1, 0.1, 100)
	return &testCamera{pos: pos, target: target, invVP: proj.Mul4(view).Inv()}
}

func (c *testCamera) Position() mgl32.Vec3              { return c.pos }
func (c *testCamera) Forward() mgl32.Vec3               { return c.target.Sub(c.pos).Normalize() }
func (c *testCamera) InverseViewProjection() mgl32.Mat4 { return c.invVP }

func TestNormalizePointer(t *testing.T) {
	tests := []struct {
		name         string
		px, py, w, h float32
		want         mgl32.Vec2
		ok           bool
	}{
		{"center", 400, 300, 800, 600, mgl32.Vec2{0, 0}, true},
		{"top left", 0, 0, 800, 600, mgl32.Vec2{-1, 1}, true},
		{"bottom right", 800, 600, 800, 600, mgl32.Vec2{1, -1}, true},
		{"zero viewport", 10, 10, 0, 600, mgl32.Vec2{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NormalizePointer(tt.px, tt.py, tt.w, tt.h)
			if ok != tt.ok || got != tt.want {
				t.Errorf("NormalizePointer: got %v (%v), want %v (%v)", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestPlaneIntersect(t *testing.T) {
	plane := Plane{Normal: mgl32.Vec3{0, 0, 1}, Point: mgl32.Vec3{0, 0, -3}}

	hit, ok := plane.Intersect(Ray{Origin: mgl32.Vec3{1, 2, 0}, Direction: mgl32.Vec3{0, 0, -1}})
	if !ok || !vecApproxEqual(hit, mgl32.Vec3{1, 2, -3}, 1e-6) {
		t.Errorf("Intersect: got %v (%v), want (1, 2, -3)", hit, ok)
	}
	if _, ok := plane.Intersect(Ray{Direction: mgl32.Vec3{1, 0, 0}}); ok {
		t.Error("parallel ray: got a hit")
	}
	if _, ok := plane.Intersect(Ray{Direction: mgl32.Vec3{0, 0, 1}}); ok {
		t.Error("plane behind ray: got a hit")
	}
}

func TestScenarioCenterPointer(t *testing.T) {
	cam := newTestCamera(mgl32.Vec3{0, 0, 5}, mgl32.Vec3{})
	tr := NewTracker()
	tr.OnPointerMove(400, 300, 800, 600)

	if got := tr.Pointer(); got != (mgl32.Vec2{0, 0}) {
		t.Fatalf("Pointer: got %v, want (0, 0)", got)
	}
	if got := tr.AimTarget(); got != (mgl32.Vec3{0, 0, DefaultAimDistance}) {
		t.Errorf("AimTarget: got %v, want (0, 0, %v)", got, DefaultAimDistance)
	}

	world := mgl32.Ident4()
	if !tr.Update(cam, &world) {
		t.Fatal("Update: got false, want true")
	}
	center, ok := tr.RepulsionCenter()
	if !ok || !vecApproxEqual(center, mgl32.Vec3{}, 1e-4) {
		t.Errorf("RepulsionCenter: got %v (%v), want origin", center, ok)
	}
}

func TestRepulsionCenterInAvatarSpace(t *testing.T) {
	cam := newTestCamera(mgl32.Vec3{0, 0, 5}, mgl32.Vec3{})
	tests := []struct {
		name   string
		px     float32
		avatar mgl32.Mat4
		want   mgl32.Vec3
	}{
		{"shifted avatar", 400, mgl32.Translate3D(1, 0, 0), mgl32.Vec3{-1, 0, 0}},
		{"deeper avatar", 400, mgl32.Translate3D(0, 0, -2), mgl32.Vec3{0, 0, 0}},
		{"right edge", 800, mgl32.Ident4(), mgl32.Vec3{5 * float32(math.Tan(math.Pi/8)), 0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewTracker()
			tr.OnPointerMove(tt.px, 300, 800, 600)
			if !tr.Update(cam, &tt.avatar) {
				t.Fatal("Update: got false, want true")
			}
			got, _ := tr.RepulsionCenter()
			if !vecApproxEqual(got, tt.want, 1e-3) {
				t.Errorf("RepulsionCenter: got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUpdateSkipsWithoutContext(t *testing.T) {
	cam := newTestCamera(mgl32.Vec3{0, 0, 5}, mgl32.Vec3{})
	tr := NewTracker()
	world := mgl32.Translate3D(1, 0, 0)
	tr.Update(cam, &world)
	before, _ := tr.RepulsionCenter()

	tr.OnPointerMove(0, 0, 800, 600)
	if tr.Update(nil, &world) {
		t.Error("Update without camera: got true")
	}
	if tr.Update(cam, nil) {
		t.Error("Update without avatar: got true")
	}
	if got, ok := tr.RepulsionCenter(); !ok || got != before {
		t.Errorf("RepulsionCenter after skipped updates: got %v, want %v", got, before)
	}

	fresh := NewTracker()
	if _, ok := fresh.RepulsionCenter(); ok {
		t.Error("RepulsionCenter before any update: got valid")
	}
}

func TestCloseStopsListening(t *testing.T) {
	tr := NewTracker()
	tr.OnPointerMove(0, 0, 100, 100)
	tr.Close()
	tr.OnPointerMove(100, 100, 100, 100)
	if !tr.Closed() || tr.Pointer() != (mgl32.Vec2{-1, 1}) {
		t.Errorf("pointer after Close: got %v, want (-1, 1)", tr.Pointer())
	}
}

func TestFieldFalloff(t *testing.T) {
	f := Field{Radius: 0.6, Strength: 0.15, SizeBoost: 0.4}
	tests := []struct {
		d    float32
		want float32
	}{
		{0, 1},
		{0.24, 1},
		{0.42, 0.5},
		{0.6, 0},
		{2, 0},
	}
	for _, tt := range tests {
		if got := f.Falloff(tt.d); !approxEqual(got, tt.want, 1e-5) {
			t.Errorf("Falloff(%v): got %v, want %v", tt.d, got, tt.want)
		}
	}
}

func TestFieldApply(t *testing.T) {
	f := Field{Center: mgl32.Vec3{1, 0, 0}, Radius: 0.6, Strength: 0.15, SizeBoost: 0.4}
	positions := []mgl32.Vec3{
		{1.1, 0, 0},
		{3, 0, 0},
		{1, 0, 0},
		{1, 0.5, 0},
	}
	boost := []float32{9, 9, 9, 9}

	if n := f.Apply(positions, boost); n != 3 {
		t.Errorf("affected: got %d, want 3", n)
	}
	if !vecApproxEqual(positions[0], mgl32.Vec3{1.25, 0, 0}, 1e-6) || !approxEqual(boost[0], 0.4, 1e-6) {
		t.Errorf("near particle: got %v boost %v, want (1.25, 0, 0) boost 0.4", positions[0], boost[0])
	}
	if positions[1] != (mgl32.Vec3{3, 0, 0}) || boost[1] != 0 {
		t.Errorf("far particle: got %v boost %v, want untouched", positions[1], boost[1])
	}
	if positions[2] != (mgl32.Vec3{1, 0, 0}) || !approxEqual(boost[2], 0.4, 1e-6) {
		t.Errorf("centered particle: got %v boost %v", positions[2], boost[2])
	}
	if positions[3][1] <= 0.5 || boost[3] != 0 {
		t.Errorf("edge particle: got %v boost %v, want pushed outward without boost", positions[3], boost[3])
	}
}

func TestLookRotation(t *testing.T) {
	for _, dir := range []mgl32.Vec3{{1, 0, 0}, {0, 0, 1}, {0, 0, -1}, {0.3, 0.4, 0.5}} {
		fwd := dir.Normalize()
		got := lookRotation(fwd, mgl32.Vec3{0, 1, 0}).Rotate(mgl32.Vec3{0, 0, 1})
		if !vecApproxEqual(got, fwd, 1e-4) {
			t.Errorf("lookRotation(%v) maps +Z to %v", fwd, got)
		}
	}
}

func TestHeadAimRotation(t *testing.T) {
	want := mgl32.QuatRotate(AimCorrectionX, mgl32.Vec3{1, 0, 0}).Mul(mgl32.QuatRotate(AimCorrectionZ, mgl32.Vec3{0, 0, 1}))
	got, ok := HeadAimRotation(mgl32.Ident4(), mgl32.Ident4(), mgl32.Vec3{0, 0, 5})
	if !ok {
		t.Fatal("HeadAimRotation: got false, want true")
	}
	v := mgl32.Vec3{0.2, 0.7, 0.1}
	if !vecApproxEqual(got.Rotate(v), want.Rotate(v), 1e-4) {
		t.Errorf("straight-ahead aim: got %v, want %v", got, want)
	}

	bone := mgl32.Translate3D(0, 1, 0)
	if _, ok := HeadAimRotation(bone, mgl32.Ident4(), mgl32.Vec3{0, 1, 0}); ok {
		t.Error("target at bone position: got true, want false")
	}
}
