package particle

import (
	"github.com/Carmen-Shannon/oxy-avatar/common"
	"github.com/go-gl/mathgl/mgl32"
)

// Default render attributes.
const (
	DefaultBaseSize   float32 = 0.035
	DefaultSizeMin    float32 = 0.85
	DefaultSizeMax    float32 = 1.15
	DefaultOpacityMin float32 = 0.7
	DefaultOpacityMax float32 = 1.0
	DefaultDensity    float32 = 0.25
)

// Density presets for the avatar variants.
const (
	DensityPrimary  float32 = 0.25
	DensityEnhanced float32 = 0.65
	DensitySparse   float32 = 0.08
)

// DefaultPaletteHex is the five-colour metallic palette: gold, platinum, silver, champagne, peach.
var DefaultPaletteHex = []uint32{0xFFD700, 0xE5E4E2, 0xC0C0C0, 0xF7E7CE, 0xFFE5B4}

// DefaultUV is used when the source mesh has no texture coordinates.
var DefaultUV = mgl32.Vec2{0.5, 0.5}

// Particle is one sampled mesh vertex plus its render attributes.
// Every field is fixed at sampling time; the rendered position is recomputed each frame
// and lives only in the RenderBuffer.
type Particle struct {
	// RestPosition is the bind-pose vertex position in its sub-mesh's local space.
	RestPosition mgl32.Vec3

	// RestUV is the vertex texture coordinate, or DefaultUV if absent.
	RestUV mgl32.Vec2

	// BoneIndices are the four influencing bones (zero if unskinned).
	BoneIndices [4]uint32

	// BoneWeights are the four influence weights (zero if unskinned).
	BoneWeights [4]float32

	// Skinned is true when the source sub-mesh carried skin data.
	Skinned bool

	// SubMesh is the index of the owning sub-mesh in the RiggedMesh.
	SubMesh int

	// VertexIndex is the vertex's global index across all sub-meshes (the hash input).
	VertexIndex int

	// Size is the base rendered size.
	Size float32

	// Color is the RGB colour picked from the palette.
	Color mgl32.Vec3

	// Opacity is the base opacity.
	Opacity float32

	// Phase is the animation-phase offset in [0, 1).
	Phase float32
}

// WeightSum returns the sum of the four bone weights.
func (p *Particle) WeightSum() float32 {
	return p.BoneWeights[0] + p.BoneWeights[1] + p.BoneWeights[2] + p.BoneWeights[3]
}

// PaletteFromHex converts packed 0xRRGGBB colours into RGB vectors.
//
// Parameters:
//   - hex: packed colours
//
// Returns:
//   - []mgl32.Vec3: normalized colours
func PaletteFromHex(hex []uint32) []mgl32.Vec3 {
	out := make([]mgl32.Vec3, len(hex))
	for i, h := range hex {
		out[i] = common.ColorFromHex(h)
	}
	return out
}
