package model

// HeadBoneCandidates are tried in order when locating the bone that tracks the pointer.
var HeadBoneCandidates = []string{"head", "neck"}

// MeshIndex caches references resolved once at load time so the per-frame path never walks
// the bone list or sub-mesh list searching by name.
type MeshIndex struct {
	// HeadBone is the index of the head bone, or -1 when the skeleton has none.
	HeadBone int32

	// SkinnedSubMeshes lists the indices of sub-meshes carrying skin data.
	SkinnedSubMeshes []int
}

// BuildIndex resolves the head bone and skinned sub-meshes of a rigged mesh.
//
// Returns:
//   - MeshIndex: the cached lookups
func (m *RiggedMesh) BuildIndex() MeshIndex {
	idx := MeshIndex{HeadBone: -1}
	if m.Skeleton != nil {
		idx.HeadBone = m.Skeleton.FindBone(HeadBoneCandidates...)
	}
	for i := range m.SubMeshes {
		if m.SubMeshes[i].Skinned() {
			idx.SkinnedSubMeshes = append(idx.SkinnedSubMeshes, i)
		}
	}
	return idx
}
