package loader

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-avatar/common"
	"github.com/Carmen-Shannon/oxy-avatar/engine/model"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
)

// extractedSkeleton is a skin converted to engine bones plus what the mesh and animation
// extractors need to stay consistent with it.
type extractedSkeleton struct {
	// Skeleton keeps the skin's joint order, so JOINTS_0 values index it directly.
	Skeleton *model.Skeleton

	// BoneMapping maps glTF node indices to bone indices.
	BoneMapping map[int]int32

	// RootMatrix is the global transform of the non-joint ancestors above the skeleton root.
	// Skinned sub-meshes are placed with it.
	RootMatrix mgl32.Mat4
}

// gltfSkeletonExtractorImpl is the implementation of the gltfSkeletonExtractor interface.
type gltfSkeletonExtractorImpl struct {
	doc gltfDocument
}

// gltfSkeletonExtractor converts glTF skins into engine skeletons.
type gltfSkeletonExtractor interface {
	// ExtractSkeleton converts one skin.
	//
	// Parameters:
	//   - skinIndex: the index of the skin to extract
	//
	// Returns:
	//   - *extractedSkeleton: the skeleton and its node mapping
	//   - error: error if the skin is out of range or its accessors cannot be read
	ExtractSkeleton(skinIndex int) (*extractedSkeleton, error)

	// FindPrimarySkin returns the skin used by the first skinned mesh node, or -1.
	//
	// Returns:
	//   - int: the skin index, or -1 if no mesh node is skinned
	FindPrimarySkin() int
}

var _ gltfSkeletonExtractor = &gltfSkeletonExtractorImpl{}

// newGLTFSkeletonExtractor creates a skeleton extractor for a decoded document.
//
// Parameters:
//   - doc: the decoded document
//
// Returns:
//   - gltfSkeletonExtractor: the skeleton extractor
func newGLTFSkeletonExtractor(doc gltfDocument) gltfSkeletonExtractor {
	return &gltfSkeletonExtractorImpl{doc: doc}
}

func (e *gltfSkeletonExtractorImpl) FindPrimarySkin() int {
	doc := e.doc.Document()
	for _, node := range doc.Nodes {
		if skin := gltfIndex(node.Skin); node.Mesh != nil && skin >= 0 && skin < len(doc.Skins) {
			return skin
		}
	}
	return -1
}

func (e *gltfSkeletonExtractorImpl) ExtractSkeleton(skinIndex int) (*extractedSkeleton, error) {
	doc := e.doc.Document()
	if skinIndex < 0 || skinIndex >= len(doc.Skins) {
		return nil, fmt.Errorf("skin index %d out of range", skinIndex)
	}
	skin := doc.Skins[skinIndex]

	mapping := make(map[int]int32, len(skin.Joints))
	for i, joint := range skin.Joints {
		if _, dup := mapping[int(joint)]; !dup {
			mapping[int(joint)] = int32(i)
		}
	}

	var ibms []mgl32.Mat4
	if skin.InverseBindMatrices != nil {
		var err error
		ibms, err = e.doc.ReadMat4(gltfIndex(skin.InverseBindMatrices))
		if err != nil {
			return nil, fmt.Errorf("skin %d inverse bind matrices: %w", skinIndex, err)
		}
	}

	bones := make([]model.Bone, len(skin.Joints))
	rootNode := -1
	for i, joint := range skin.Joints {
		node := int(joint)
		if node >= len(doc.Nodes) {
			return nil, fmt.Errorf("skin %d joint %d: node %d out of range", skinIndex, i, node)
		}
		n := doc.Nodes[node]

		parent := int32(-1)
		if p, ok := mapping[e.doc.Parent(node)]; ok {
			parent = p
		} else if rootNode < 0 {
			rootNode = node
		}

		bone := model.Bone{
			Name:              n.Name,
			ParentIndex:       parent,
			InverseBindMatrix: mgl32.Ident4(),
			RestTransform:     nodeTransform(n),
		}
		if bone.Name == "" {
			bone.Name = fmt.Sprintf("joint_%d", i)
		}
		if i < len(ibms) {
			bone.InverseBindMatrix = ibms[i]
		}
		bones[i] = bone
	}

	return &extractedSkeleton{
		Skeleton:    model.NewSkeleton(bones),
		BoneMapping: mapping,
		RootMatrix:  e.doc.GlobalMatrix(e.doc.Parent(rootNode)),
	}, nil
}

// nodeTransform returns a node's local transform as translation, rotation and scale,
// decomposing an explicit matrix when the node carries one.
func nodeTransform(n *gltf.Node) model.Transform {
	if m := n.MatrixOrDefault(); m != identityMatrix64 {
		var mat mgl32.Mat4
		for i, v := range m {
			mat[i] = float32(v)
		}
		return decomposeMatrix(mat)
	}

	t := n.TranslationOrDefault()
	r := n.RotationOrDefault()
	s := n.ScaleOrDefault()
	return model.Transform{
		Translation: [3]float32{float32(t[0]), float32(t[1]), float32(t[2])},
		Rotation:    [4]float32{float32(r[0]), float32(r[1]), float32(r[2]), float32(r[3])},
		Scale:       [3]float32{float32(s[0]), float32(s[1]), float32(s[2])},
	}
}

// decomposeMatrix splits an affine matrix without shear into translation, rotation and scale.
func decomposeMatrix(m mgl32.Mat4) model.Transform {
	sx := m.Col(0).Vec3().Len()
	sy := m.Col(1).Vec3().Len()
	sz := m.Col(2).Vec3().Len()
	if m.Mat3().Det() < 0 {
		sx = -sx
	}

	rot := mgl32.Ident4()
	for c, s := range [3]float32{sx, sy, sz} {
		if s == 0 {
			continue
		}
		for r := 0; r < 3; r++ {
			rot[c*4+r] = m[c*4+r] / s
		}
	}

	return model.Transform{
		Translation: [3]float32{m[12], m[13], m[14]},
		Rotation:    common.QuatToArray(mgl32.Mat4ToQuat(rot).Normalize()),
		Scale:       [3]float32{sx, sy, sz},
	}
}
