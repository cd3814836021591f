package model

import (
	"strings"

	"github.com/Carmen-Shannon/oxy-avatar/common"
	"github.com/go-gl/mathgl/mgl32"
)

// NewSkeleton builds a Skeleton from a bone list, deriving root indices, the name index,
// the parent-first traversal order, and the rest-pose matrices.
// Bones with an out-of-range parent are treated as roots.
//
// Parameters:
//   - bones: the bones, each with ParentIndex referring into the same slice
//
// Returns:
//   - *Skeleton: the initialised skeleton, posed at rest
func NewSkeleton(bones []Bone) *Skeleton {
	s := &Skeleton{
		Bones:           bones,
		BoneNameToIndex: make(map[string]int32, len(bones)),
		WorldMatrices:   make([]mgl32.Mat4, len(bones)),
		BoneMatrices:    make([]mgl32.Mat4, len(bones)),
	}

	children := make([][]int32, len(bones))
	for i := range s.Bones {
		b := &s.Bones[i]
		if _, exists := s.BoneNameToIndex[b.Name]; !exists {
			s.BoneNameToIndex[b.Name] = int32(i)
		}
		if b.InverseBindMatrix == (mgl32.Mat4{}) {
			b.InverseBindMatrix = mgl32.Ident4()
		}
		if b.RestTransform == (Transform{}) {
			b.RestTransform = IdentityTransform()
		}
		b.LocalTransform = b.RestTransform

		if b.ParentIndex < 0 || int(b.ParentIndex) >= len(bones) || int(b.ParentIndex) == i {
			b.ParentIndex = -1
			s.RootBoneIndices = append(s.RootBoneIndices, int32(i))
			continue
		}
		children[b.ParentIndex] = append(children[b.ParentIndex], int32(i))
	}

	s.order = make([]int32, 0, len(bones))
	stack := append([]int32(nil), s.RootBoneIndices...)
	for len(stack) > 0 {
		idx := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		s.order = append(s.order, idx)
		stack = append(stack, children[idx]...)
	}

	s.Update()
	return s
}

// BoneCount returns the number of bones in the skeleton.
func (s *Skeleton) BoneCount() int {
	if s == nil {
		return 0
	}
	return len(s.Bones)
}

// FindBone resolves the first candidate name to a bone index. Each candidate is tried as an
// exact match, then case-insensitively, then as a case-insensitive substring of a bone name.
// Returns -1 when nothing matches.
//
// Parameters:
//   - candidates: bone names in priority order (e.g. "head", "neck")
//
// Returns:
//   - int32: the bone index or -1
func (s *Skeleton) FindBone(candidates ...string) int32 {
	if s == nil {
		return -1
	}
	for _, name := range candidates {
		if idx, ok := s.BoneNameToIndex[name]; ok {
			return idx
		}
		lower := strings.ToLower(name)
		for i := range s.Bones {
			if strings.ToLower(s.Bones[i].Name) == lower {
				return int32(i)
			}
		}
		for i := range s.Bones {
			if strings.Contains(strings.ToLower(s.Bones[i].Name), lower) {
				return int32(i)
			}
		}
	}
	return -1
}

// ParentWorldMatrix returns the world matrix of a bone's parent, or identity for roots.
//
// Parameters:
//   - index: the bone index
//
// Returns:
//   - mgl32.Mat4: the parent's mesh-space transform
func (s *Skeleton) ParentWorldMatrix(index int32) mgl32.Mat4 {
	if index < 0 || int(index) >= len(s.Bones) {
		return mgl32.Ident4()
	}
	parent := s.Bones[index].ParentIndex
	if parent < 0 {
		return mgl32.Ident4()
	}
	return s.WorldMatrices[parent]
}

// SetLocalRotation overrides a bone's local rotation for the current frame.
// Out-of-range indices are ignored.
//
// Parameters:
//   - index: the bone index
//   - q: the new local rotation
func (s *Skeleton) SetLocalRotation(index int32, q mgl32.Quat) {
	if index < 0 || int(index) >= len(s.Bones) {
		return
	}
	s.Bones[index].LocalTransform.Rotation = common.QuatToArray(q.Normalize())
}

// ResetToRest copies every bone's rest transform into its local transform.
func (s *Skeleton) ResetToRest() {
	for i := range s.Bones {
		s.Bones[i].LocalTransform = s.Bones[i].RestTransform
	}
}

// Update recomputes WorldMatrices from the bones' local transforms and rebuilds the
// bone matrix palette. Call once per frame after the pose has been applied.
func (s *Skeleton) Update() {
	if len(s.WorldMatrices) != len(s.Bones) {
		s.WorldMatrices = make([]mgl32.Mat4, len(s.Bones))
		s.BoneMatrices = make([]mgl32.Mat4, len(s.Bones))
	}
	for _, idx := range s.order {
		b := &s.Bones[idx]
		local := common.ComposeTRS(b.LocalTransform.Translation, b.LocalTransform.Rotation, b.LocalTransform.Scale)
		if b.ParentIndex >= 0 {
			s.WorldMatrices[idx] = s.WorldMatrices[b.ParentIndex].Mul4(local)
		} else {
			s.WorldMatrices[idx] = local
		}
		s.BoneMatrices[idx] = s.WorldMatrices[idx].Mul4(b.InverseBindMatrix)
	}
}
