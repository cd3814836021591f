package model

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// VertexCount returns the number of vertices in the sub-mesh.
func (s *SubMesh) VertexCount() int {
	return len(s.Positions)
}

// Skinned reports whether the sub-mesh carries per-vertex bone indices and weights.
func (s *SubMesh) Skinned() bool {
	return len(s.Joints) == len(s.Positions) && len(s.Weights) == len(s.Positions) && len(s.Positions) > 0
}

// HasUVs reports whether the sub-mesh carries texture coordinates for every vertex.
func (s *SubMesh) HasUVs() bool {
	return len(s.UVs) == len(s.Positions) && len(s.Positions) > 0
}

// Matrix returns the sub-mesh world matrix, substituting identity for the zero value.
//
// Returns:
//   - mgl32.Mat4: the sub-mesh to avatar transform
func (s *SubMesh) Matrix() mgl32.Mat4 {
	if s.WorldMatrix == (mgl32.Mat4{}) {
		return mgl32.Ident4()
	}
	return s.WorldMatrix
}

// VertexCount returns the total number of vertices across all sub-meshes.
//
// Returns:
//   - int: the vertex count
func (m *RiggedMesh) VertexCount() int {
	n := 0
	for i := range m.SubMeshes {
		n += m.SubMeshes[i].VertexCount()
	}
	return n
}

// Bounds returns the axis-aligned bounding box of all rest-pose positions in mesh-local space.
// An empty mesh returns zero vectors.
//
// Returns:
//   - min: the minimum corner
//   - max: the maximum corner
func (m *RiggedMesh) Bounds() (min, max [3]float32) {
	first := true
	for i := range m.SubMeshes {
		for _, p := range m.SubMeshes[i].Positions {
			if first {
				min, max = p, p
				first = false
				continue
			}
			for a := 0; a < 3; a++ {
				min[a] = float32(math.Min(float64(min[a]), float64(p[a])))
				max[a] = float32(math.Max(float64(max[a]), float64(p[a])))
			}
		}
	}
	return min, max
}
