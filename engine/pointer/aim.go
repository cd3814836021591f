package pointer

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Head aim defaults.
const (
	DefaultAimDistance float32 = 5
	DefaultAimScale    float32 = 2

	// The head bone's rest orientation is not +Z forward; these rotations are applied after
	// the look-at in the bone's own frame.
	AimCorrectionX float32 = -0.1
	AimCorrectionZ float32 = 1.5
)

// AimTarget synthesizes the look-at target for a normalized pointer position.
//
// Parameters:
//   - ndc: normalized pointer position
//   - scale: multiplier for x and y
//   - distance: fixed forward distance
//
// Returns:
//   - mgl32.Vec3: (x*scale, y*scale, distance)
func AimTarget(ndc mgl32.Vec2, scale, distance float32) mgl32.Vec3 {
	return mgl32.Vec3{ndc[0] * scale, ndc[1] * scale, distance}
}

// HeadAimRotation computes the local rotation that turns a bone's +Z axis toward a target,
// followed by the fixed corrective rotations about X then Z.
//
// Parameters:
//   - boneWorld: the bone's current world matrix
//   - parentWorld: the parent's world matrix (identity for roots)
//   - target: the look-at target in the same space as boneWorld
//
// Returns:
//   - mgl32.Quat: the bone's new local rotation
//   - bool: false when the target coincides with the bone position
func HeadAimRotation(boneWorld, parentWorld mgl32.Mat4, target mgl32.Vec3) (mgl32.Quat, bool) {
	position := boneWorld.Col(3).Vec3()
	forward := target.Sub(position)
	if forward.Len() < 1e-6 {
		return mgl32.QuatIdent(), false
	}

	world := lookRotation(forward.Normalize(), mgl32.Vec3{0, 1, 0})
	local := rotationOf(parentWorld).Inverse().Mul(world)
	local = local.Mul(mgl32.QuatRotate(AimCorrectionX, mgl32.Vec3{1, 0, 0}))
	local = local.Mul(mgl32.QuatRotate(AimCorrectionZ, mgl32.Vec3{0, 0, 1}))
	return local.Normalize(), true
}

// lookRotation returns the rotation whose +Z axis is forward and whose +Y is as close to up
// as possible.
func lookRotation(forward, up mgl32.Vec3) mgl32.Quat {
	x := up.Cross(forward)
	if x.Len() < 1e-6 {
		// forward is parallel to up; nudge it like a look-at does.
		if up[2] < 0.999 && up[2] > -0.999 {
			x = mgl32.Vec3{0, 0, 1}.Cross(forward)
		} else {
			x = mgl32.Vec3{1, 0, 0}.Cross(forward)
		}
	}
	x = x.Normalize()
	y := forward.Cross(x)
	m := mgl32.Mat3FromCols(x, y, forward)
	return mgl32.Mat4ToQuat(m.Mat4()).Normalize()
}

// rotationOf extracts the rotation of an affine matrix, removing scale.
func rotationOf(m mgl32.Mat4) mgl32.Quat {
	x := m.Col(0).Vec3()
	y := m.Col(1).Vec3()
	z := m.Col(2).Vec3()
	if x.Len() == 0 || y.Len() == 0 || z.Len() == 0 {
		return mgl32.QuatIdent()
	}
	r := mgl32.Mat3FromCols(x.Normalize(), y.Normalize(), z.Normalize())
	return mgl32.Mat4ToQuat(r.Mat4()).Normalize()
}
