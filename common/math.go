package common

import (
	"math"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
)

// Hash constants for the per-index pseudo-random sequence.
const (
	HashScaleIndex = 12.9898
	HashScaleValue = 43758.5453
)

// SliceToBytes converts any slice to a byte slice for GPU buffer uploads.
// Uses unsafe pointer operations to create a view into the original data.
// WARNING: The returned slice shares memory with the input - do not modify.
//
// Parameters:
//   - data: source slice of any type
//
// Returns:
//   - []byte: byte slice view of the input data, or nil if input is empty
func SliceToBytes[T any](data []T) []byte {
	if len(data) == 0 {
		return nil
	}
	var zero T
	size := unsafe.Sizeof(zero)
	totalBytes := int(size) * len(data)
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), totalBytes)
}

// StructToBytes reinterprets a pointer to a struct as a raw byte slice using unsafe.
//
// Parameters:
//   - v: pointer to the struct to reinterpret
//
// Returns:
//   - []byte: byte slice view of the struct's memory
func StructToBytes[T any](v *T) []byte {
	size := unsafe.Sizeof(*v)
	return unsafe.Slice((*byte)(unsafe.Pointer(v)), int(size))
}

// Fract returns the fractional part of x in [0, 1), also for negative inputs.
//
// Parameters:
//   - x: the input value
//
// Returns:
//   - float64: x - floor(x)
func Fract(x float64) float64 {
	return x - math.Floor(x)
}

// Hash01 returns a deterministic pseudo-random value in [0, 1) for an integer index
// using frac(sin(index * 12.9898) * 43758.5453). The same index always maps to the same value.
//
// Parameters:
//   - index: the integer to hash
//
// Returns:
//   - float32: the hashed value in [0, 1)
func Hash01(index int) float32 {
	v := float32(Fract(math.Sin(float64(index)*HashScaleIndex) * HashScaleValue))
	if v >= 1 {
		// float64 -> float32 rounding can land exactly on 1.
		return 0
	}
	return v
}

// Smoothstep performs Hermite interpolation between 0 and 1 when edge0 < x < edge1.
// Returns 0 at or below edge0 and 1 at or above edge1.
//
// Parameters:
//   - edge0: lower edge
//   - edge1: upper edge
//   - x: the value to interpolate
//
// Returns:
//   - float32: the smoothed value in [0, 1]
func Smoothstep(edge0, edge1, x float32) float32 {
	if edge1 <= edge0 {
		if x < edge0 {
			return 0
		}
		return 1
	}
	t := mgl32.Clamp((x-edge0)/(edge1-edge0), 0, 1)
	return t * t * (3 - 2*t)
}

// Lerp linearly interpolates between a and b.
func Lerp(a, b, t float32) float32 {
	return a + (b-a)*t
}

// TransformPoint multiplies an affine 4x4 matrix with a point (w = 1) and returns the xyz result.
//
// Parameters:
//   - m: the column-major transform
//   - p: the point to transform
//
// Returns:
//   - mgl32.Vec3: the transformed point
func TransformPoint(m mgl32.Mat4, p mgl32.Vec3) mgl32.Vec3 {
	return m.Mul4x1(p.Vec4(1)).Vec3()
}

// Unproject multiplies a clip-space point by an inverse view-projection matrix and
// performs the perspective divide.
//
// Parameters:
//   - invViewProj: inverse of the combined view-projection matrix
//   - ndc: the normalized device coordinates (x, y in [-1, 1], z in the projection's depth range)
//
// Returns:
//   - mgl32.Vec3: the world-space point
//   - bool: false if the homogeneous w is zero
func Unproject(invViewProj mgl32.Mat4, ndc mgl32.Vec3) (mgl32.Vec3, bool) {
	v := invViewProj.Mul4x1(ndc.Vec4(1))
	if v.W() == 0 {
		return mgl32.Vec3{}, false
	}
	return v.Vec3().Mul(1 / v.W()), true
}

// ComposeTRS builds a column-major model matrix from translation, rotation quaternion (x, y, z, w), and scale.
// The result is T * R * S.
//
// Parameters:
//   - t: translation
//   - r: rotation quaternion in (x, y, z, w) order
//   - s: scale
//
// Returns:
//   - mgl32.Mat4: the composed matrix
func ComposeTRS(t [3]float32, r [4]float32, s [3]float32) mgl32.Mat4 {
	q := mgl32.Quat{W: r[3], V: mgl32.Vec3{r[0], r[1], r[2]}}
	m := q.Normalize().Mat4()
	for i := 0; i < 3; i++ {
		m[i] *= s[0]
		m[4+i] *= s[1]
		m[8+i] *= s[2]
	}
	m[12], m[13], m[14] = t[0], t[1], t[2]
	return m
}

// Perspective creates a perspective projection matrix for a [0, 1] clip-space depth range (WebGPU).
//
// Parameters:
//   - fovY: vertical field of view in radians
//   - aspect: viewport aspect ratio (width/height)
//   - near: near clipping plane distance (must be > 0)
//   - far: far clipping plane distance (must be > near)
//
// Returns:
//   - mgl32.Mat4: the projection matrix
func Perspective(fovY, aspect, near, far float32) mgl32.Mat4 {
	f := float32(1.0 / math.Tan(float64(fovY)/2.0))
	var out mgl32.Mat4
	out[0] = f / aspect
	out[5] = f
	out[10] = far / (near - far)
	out[11] = -1.0
	out[14] = (near * far) / (near - far)
	return out
}

// QuatFromArray converts an (x, y, z, w) array into an mgl32 quaternion.
func QuatFromArray(r [4]float32) mgl32.Quat {
	return mgl32.Quat{W: r[3], V: mgl32.Vec3{r[0], r[1], r[2]}}
}

// QuatToArray converts an mgl32 quaternion into (x, y, z, w) order.
func QuatToArray(q mgl32.Quat) [4]float32 {
	return [4]float32{q.V[0], q.V[1], q.V[2], q.W}
}

// ColorFromHex converts a 0xRRGGBB value into normalized RGB components.
//
// Parameters:
//   - hex: the packed colour
//
// Returns:
//   - mgl32.Vec3: red, green, blue in [0, 1]
func ColorFromHex(hex uint32) mgl32.Vec3 {
	return mgl32.Vec3{
		float32((hex>>16)&0xFF) / 255,
		float32((hex>>8)&0xFF) / 255,
		float32(hex&0xFF) / 255,
	}
}
