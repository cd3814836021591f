package pointer

import (
	"math"

	"github.com/Carmen-Shannon/oxy-avatar/common"
	"github.com/go-gl/mathgl/mgl32"
)

// Ray is a half-line in world space. Direction is unit length.
type Ray struct {
	Origin    mgl32.Vec3
	Direction mgl32.Vec3
}

// At returns the point at distance t along the ray.
func (r Ray) At(t float32) mgl32.Vec3 {
	return r.Origin.Add(r.Direction.Mul(t))
}

// Plane is defined by a unit normal and any point on it.
type Plane struct {
	Normal mgl32.Vec3
	Point  mgl32.Vec3
}

// NormalizePointer maps window pixel coordinates to [-1, 1] with +Y up.
//
// Parameters:
//   - px, py: pointer position in pixels from the top-left corner
//   - width, height: viewport size in pixels
//
// Returns:
//   - mgl32.Vec2: the normalized pointer position
//   - bool: false when the viewport has no area
func NormalizePointer(px, py, width, height float32) (mgl32.Vec2, bool) {
	if width <= 0 || height <= 0 {
		return mgl32.Vec2{}, false
	}
	return mgl32.Vec2{
		px/width*2 - 1,
		-(py/height*2 - 1),
	}, true
}

// ScreenToRay casts a ray from the camera through a normalized pointer position by
// unprojecting it at the near and far depth of a [0, 1] depth range.
//
// Parameters:
//   - invViewProj: inverse of the camera view-projection matrix
//   - ndc: normalized pointer position
//
// Returns:
//   - Ray: the world-space ray
//   - bool: false when the matrix is degenerate
func ScreenToRay(invViewProj mgl32.Mat4, ndc mgl32.Vec2) (Ray, bool) {
	near, ok := common.Unproject(invViewProj, mgl32.Vec3{ndc[0], ndc[1], 0})
	if !ok {
		return Ray{}, false
	}
	far, ok := common.Unproject(invViewProj, mgl32.Vec3{ndc[0], ndc[1], 1})
	if !ok {
		return Ray{}, false
	}
	dir := far.Sub(near)
	if dir.Len() == 0 || math.IsNaN(float64(dir.Len())) {
		return Ray{}, false
	}
	return Ray{Origin: near, Direction: dir.Normalize()}, true
}

// Intersect returns where a ray crosses the plane.
//
// Parameters:
//   - r: the ray
//
// Returns:
//   - mgl32.Vec3: the intersection point
//   - bool: false when the ray is parallel to the plane or the plane lies behind it
func (p Plane) Intersect(r Ray) (mgl32.Vec3, bool) {
	denom := p.Normal.Dot(r.Direction)
	if float32(math.Abs(float64(denom))) < 1e-6 {
		return mgl32.Vec3{}, false
	}
	t := p.Point.Sub(r.Origin).Dot(p.Normal) / denom
	if t < 0 {
		return mgl32.Vec3{}, false
	}
	return r.At(t), true
}
