package camera

import (
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-avatar/common"
	"github.com/go-gl/mathgl/mgl32"
)

func vecApproxEqual(a, b mgl32.Vec3, eps float32) bool {
	for i := range a {
		if float32(math.Abs(float64(a[i]-b[i]))) > eps {
			return false
		}
	}
	return true
}

func TestCameraDefaults(t *testing.T) {
	c := NewCamera()
	if got := c.Forward(); !vecApproxEqual(got, mgl32.Vec3{0, 0, -1}, 1e-6) {
		t.Errorf("Forward: got %v, want (0, 0, -1)", got)
	}
	if c.Near() != 0.1 || c.Far() != 100 || c.Aspect() != 1 {
		t.Errorf("clip settings: got near %v far %v aspect %v", c.Near(), c.Far(), c.Aspect())
	}
}

func TestTargetProjectsToCenter(t *testing.T) {
	c := NewCamera(WithPosition(1, 2, 6), WithTarget(1, 1, 0), WithAspect(16.0/9.0))
	clip := c.ViewProjectionMatrix().Mul4x1(c.Target().Vec4(1))
	ndc := clip.Vec3().Mul(1 / clip.W())
	if !vecApproxEqual(mgl32.Vec3{ndc[0], ndc[1], 0}, mgl32.Vec3{}, 1e-5) {
		t.Errorf("target NDC: got %v, want center", ndc)
	}
	if ndc[2] < 0 || ndc[2] > 1 {
		t.Errorf("target depth: got %v, want within [0, 1]", ndc[2])
	}
}

func TestInverseViewProjectionRoundTrip(t *testing.T) {
	c := NewCamera(WithPosition(0, 1, 4), WithTarget(0, 1, 0))
	world := mgl32.Vec3{0.3, 1.2, -0.5}
	clip := c.ViewProjectionMatrix().Mul4x1(world.Vec4(1))
	ndc := clip.Vec3().Mul(1 / clip.W())

	got, ok := common.Unproject(c.InverseViewProjection(), ndc)
	if !ok || !vecApproxEqual(got, world, 1e-4) {
		t.Errorf("Unproject: got %v, want %v", got, world)
	}
}

func TestSetAspectRecomputes(t *testing.T) {
	c := NewCamera()
	before := c.ProjectionMatrix()
	c.SetAspect(2)
	if c.ProjectionMatrix() == before {
		t.Error("ProjectionMatrix unchanged after SetAspect")
	}
	c.SetAspect(0)
	if c.Aspect() != 2 {
		t.Errorf("Aspect after invalid value: got %v, want 2", c.Aspect())
	}
}
