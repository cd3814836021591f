package loader

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-avatar/engine/logger"
	"github.com/Carmen-Shannon/oxy-avatar/engine/model"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"go.uber.org/zap"
)

// gltfMeshExtractorImpl is the implementation of the gltfMeshExtractor interface.
type gltfMeshExtractorImpl struct {
	doc gltfDocument
	log *zap.Logger
}

// gltfMeshExtractor converts glTF mesh nodes into named sub-meshes.
type gltfMeshExtractor interface {
	// ExtractSubMeshes converts every primitive referenced by a mesh node.
	// Primitives bound to the given skin keep their joints and weights and are placed with the
	// skeleton's root matrix; every other primitive is unskinned and placed with its node's
	// global matrix.
	//
	// Parameters:
	//   - skeleton: the primary skeleton, or nil for a static document
	//   - skinIndex: the skin the skeleton was extracted from, or -1
	//
	// Returns:
	//   - []model.SubMesh: one sub-mesh per primitive with positions
	//   - error: error if an accessor cannot be read
	ExtractSubMeshes(skeleton *extractedSkeleton, skinIndex int) ([]model.SubMesh, error)
}

var _ gltfMeshExtractor = &gltfMeshExtractorImpl{}

// newGLTFMeshExtractor creates a mesh extractor for a decoded document.
//
// Parameters:
//   - doc: the decoded document
//
// Returns:
//   - gltfMeshExtractor: the mesh extractor
func newGLTFMeshExtractor(doc gltfDocument) gltfMeshExtractor {
	return &gltfMeshExtractorImpl{doc: doc, log: logger.Named("loader")}
}

func (e *gltfMeshExtractorImpl) ExtractSubMeshes(skeleton *extractedSkeleton, skinIndex int) ([]model.SubMesh, error) {
	doc := e.doc.Document()
	var subMeshes []model.SubMesh

	for nodeIndex, node := range doc.Nodes {
		meshIndex := gltfIndex(node.Mesh)
		if meshIndex < 0 || meshIndex >= len(doc.Meshes) {
			continue
		}
		mesh := doc.Meshes[meshIndex]
		skinned := skeleton != nil && gltfIndex(node.Skin) == skinIndex

		baseName := mesh.Name
		if baseName == "" {
			baseName = node.Name
		}
		if baseName == "" {
			baseName = fmt.Sprintf("mesh_%d", meshIndex)
		}

		world := e.doc.GlobalMatrix(nodeIndex)
		if skinned {
			world = skeleton.RootMatrix
		}

		for primIndex, prim := range mesh.Primitives {
			name := baseName
			if len(mesh.Primitives) > 1 {
				name = fmt.Sprintf("%s_%d", baseName, primIndex)
			}

			sub, ok, err := e.extractPrimitive(prim, name, skinned)
			if err != nil {
				return nil, fmt.Errorf("mesh %q primitive %d: %w", baseName, primIndex, err)
			}
			if !ok {
				continue
			}
			sub.WorldMatrix = world
			subMeshes = append(subMeshes, sub)
		}
	}

	return subMeshes, nil
}

// extractPrimitive reads one primitive's vertex streams. Primitives without positions are
// skipped. Skin streams whose length disagrees with the positions are dropped.
func (e *gltfMeshExtractorImpl) extractPrimitive(prim *gltf.Primitive, name string, skinned bool) (model.SubMesh, bool, error) {
	doc := e.doc.Document()
	sub := model.SubMesh{Name: name}

	posIndex, ok := prim.Attributes[gltf.POSITION]
	if !ok || int(posIndex) >= len(doc.Accessors) {
		return sub, false, nil
	}
	positions, err := modeler.ReadPosition(doc, doc.Accessors[posIndex], nil)
	if err != nil {
		return sub, false, fmt.Errorf("positions: %w", err)
	}
	if len(positions) == 0 {
		return sub, false, nil
	}
	sub.Positions = positions

	if uvIndex, ok := prim.Attributes[gltf.TEXCOORD_0]; ok && int(uvIndex) < len(doc.Accessors) {
		uvs, err := modeler.ReadTextureCoord(doc, doc.Accessors[uvIndex], nil)
		if err != nil {
			return sub, false, fmt.Errorf("texcoords: %w", err)
		}
		if len(uvs) == len(positions) {
			sub.UVs = uvs
		}
	}

	if !skinned {
		return sub, true, nil
	}

	jointIndex, hasJoints := prim.Attributes[gltf.JOINTS_0]
	weightIndex, hasWeights := prim.Attributes[gltf.WEIGHTS_0]
	if !hasJoints || !hasWeights || int(jointIndex) >= len(doc.Accessors) || int(weightIndex) >= len(doc.Accessors) {
		return sub, true, nil
	}

	joints, err := modeler.ReadJoints(doc, doc.Accessors[jointIndex], nil)
	if err != nil {
		return sub, false, fmt.Errorf("joints: %w", err)
	}
	weights, err := modeler.ReadWeights(doc, doc.Accessors[weightIndex], nil)
	if err != nil {
		return sub, false, fmt.Errorf("weights: %w", err)
	}
	if len(joints) != len(positions) || len(weights) != len(positions) {
		e.log.Warn("skin streams do not match vertex count, treating as unskinned",
			zap.String("submesh", name),
			zap.Int("vertices", len(positions)),
			zap.Int("joints", len(joints)),
			zap.Int("weights", len(weights)),
		)
		return sub, true, nil
	}

	sub.Joints = make([][4]uint32, len(joints))
	for i, j := range joints {
		sub.Joints[i] = [4]uint32{uint32(j[0]), uint32(j[1]), uint32(j[2]), uint32(j[3])}
	}
	sub.Weights = weights
	return sub, true, nil
}
