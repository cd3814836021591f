package particle

import (
	"github.com/Carmen-Shannon/oxy-avatar/common"
	"github.com/go-gl/mathgl/mgl32"
)

// weightEpsilon is the weight at or below which a bone influence contributes nothing.
const weightEpsilon float32 = 1e-6

// SkinFrame carries everything the per-frame skinning pass reads.
type SkinFrame struct {
	// Palette is the skeleton's bone matrix palette for this frame.
	Palette []mgl32.Mat4

	// MeshMatrices are the sub-mesh world matrices, indexed by Particle.SubMesh.
	// Missing entries and zero matrices are treated as identity.
	MeshMatrices []mgl32.Mat4

	// GroupInverse is the inverse world matrix of the particle group. Zero means identity.
	GroupInverse mgl32.Mat4

	// Offset is the fixed per-instance offset added last.
	Offset mgl32.Vec3
}

// BlendSkin applies linear blend skinning to a rest position.
// Influences with weight at or below a near-zero threshold, or with a bone index outside the
// palette, are skipped. The result is divided by the total accepted weight; if none was
// accepted the rest position is returned unchanged.
//
// Parameters:
//   - rest: the rest position in mesh space
//   - indices: four bone indices
//   - weights: four bone weights
//   - palette: the bone matrix palette
//
// Returns:
//   - mgl32.Vec3: the skinned position
func BlendSkin(rest mgl32.Vec3, indices [4]uint32, weights [4]float32, palette []mgl32.Mat4) mgl32.Vec3 {
	restH := rest.Vec4(1)
	var acc mgl32.Vec4
	var tw float32
	for i := 0; i < 4; i++ {
		w := weights[i]
		if w <= weightEpsilon || int(indices[i]) >= len(palette) {
			continue
		}
		acc = acc.Add(palette[indices[i]].Mul4x1(restH).Mul(w))
		tw += w
	}
	if tw <= 0 {
		return rest
	}
	return acc.Vec3().Mul(1 / tw)
}

// Evaluate returns a particle's animated position in the particle group's space.
//
// Parameters:
//   - p: the particle
//
// Returns:
//   - mgl32.Vec3: the rendered position before pointer repulsion
func (f *SkinFrame) Evaluate(p *Particle) mgl32.Vec3 {
	local := p.RestPosition
	if p.Skinned {
		local = BlendSkin(p.RestPosition, p.BoneIndices, p.BoneWeights, f.Palette)
	}
	if p.SubMesh >= 0 && p.SubMesh < len(f.MeshMatrices) {
		if m := f.MeshMatrices[p.SubMesh]; m != (mgl32.Mat4{}) {
			local = common.TransformPoint(m, local)
		}
	}
	if f.GroupInverse != (mgl32.Mat4{}) {
		local = common.TransformPoint(f.GroupInverse, local)
	}
	return local.Add(f.Offset)
}

// EvaluateAll evaluates every particle into out, growing it when needed.
//
// Parameters:
//   - particles: the particles to skin
//   - out: destination slice reused across frames
//
// Returns:
//   - []mgl32.Vec3: positions parallel to particles
func (f *SkinFrame) EvaluateAll(particles []Particle, out []mgl32.Vec3) []mgl32.Vec3 {
	if cap(out) < len(particles) {
		out = make([]mgl32.Vec3, len(particles))
	}
	out = out[:len(particles)]
	for i := range particles {
		out[i] = f.Evaluate(&particles[i])
	}
	return out
}
