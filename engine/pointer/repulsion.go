package pointer

import (
	"github.com/Carmen-Shannon/oxy-avatar/common"
	"github.com/go-gl/mathgl/mgl32"
)

// Repulsion defaults.
const (
	DefaultRadius    float32 = 0.6
	DefaultStrength  float32 = 0.15
	DefaultSizeBoost float32 = 0.4

	// innerRadiusFraction is where the falloff reaches full strength.
	innerRadiusFraction float32 = 0.4
)

// Field is a radial repulsion field centered on the pointer.
type Field struct {
	Center    mgl32.Vec3
	Radius    float32
	Strength  float32
	SizeBoost float32
}

// Falloff returns the field's influence at a distance: 1 inside 0.4R, 0 at or beyond R,
// smoothly interpolated between.
//
// Parameters:
//   - distance: distance from the center
//
// Returns:
//   - float32: the influence in [0, 1]
func (f Field) Falloff(distance float32) float32 {
	if f.Radius <= 0 || distance >= f.Radius {
		return 0
	}
	return 1 - common.Smoothstep(innerRadiusFraction*f.Radius, f.Radius, distance)
}

// Apply pushes positions away from the center in place and writes the per-particle size
// boost. Positions outside the radius are untouched and get no boost.
//
// Parameters:
//   - positions: particle positions in the same space as Center
//   - boost: destination for size boosts, parallel to positions (may be nil)
//
// Returns:
//   - int: the number of particles inside the radius
func (f Field) Apply(positions []mgl32.Vec3, boost []float32) int {
	affected := 0
	for i := range positions {
		if boost != nil {
			boost[i] = 0
		}
		away := positions[i].Sub(f.Center)
		d := away.Len()
		falloff := f.Falloff(d)
		if falloff <= 0 {
			continue
		}
		affected++
		if d > 1e-6 {
			positions[i] = positions[i].Add(away.Mul(f.Strength * falloff / d))
		}
		if boost != nil && falloff > 0.5 {
			boost[i] = f.SizeBoost * falloff
		}
	}
	return affected
}
