package loader

import (
	"fmt"
	"io"

	"github.com/Carmen-Shannon/oxy-avatar/engine/logger"
	"github.com/Carmen-Shannon/oxy-avatar/engine/model"
	"github.com/qmuntal/gltf"
	"go.uber.org/zap"
)

// gltfImporterImpl is the implementation of the gltfImporter interface.
type gltfImporterImpl struct {
	log *zap.Logger
}

// gltfImporter decodes a glTF/GLB document and runs the skeleton, mesh and animation
// extractors over it.
type gltfImporter interface {
	// Import decodes a glTF or GLB file.
	//
	// Parameters:
	//   - path: the file path to the glTF or GLB file
	//
	// Returns:
	//   - *Asset: the rigged mesh and its clips
	//   - error: error if decoding or extraction fails
	Import(path string) (*Asset, error)

	// ImportReader decodes a glTF JSON or GLB stream. Buffers must be embedded.
	//
	// Parameters:
	//   - name: the asset name
	//   - r: the reader providing glTF/GLB data
	//
	// Returns:
	//   - *Asset: the rigged mesh and its clips
	//   - error: error if decoding or extraction fails
	ImportReader(name string, r io.Reader) (*Asset, error)
}

var _ gltfImporter = &gltfImporterImpl{}

// newGLTFImporter creates a new glTF importer.
//
// Returns:
//   - gltfImporter: the importer
func newGLTFImporter() gltfImporter {
	return &gltfImporterImpl{log: logger.Named("loader")}
}

func (imp *gltfImporterImpl) Import(path string) (*Asset, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return imp.importDocument(path, doc)
}

func (imp *gltfImporterImpl) ImportReader(name string, r io.Reader) (*Asset, error) {
	doc := new(gltf.Document)
	if err := gltf.NewDecoder(r).Decode(doc); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", name, err)
	}
	return imp.importDocument(name, doc)
}

// importDocument extracts the primary skin, every mesh node and every animation targeting
// the primary skin's joints.
func (imp *gltfImporterImpl) importDocument(name string, raw *gltf.Document) (*Asset, error) {
	doc := newGLTFDocument(raw)

	var skeleton *extractedSkeleton
	skinIndex := newGLTFSkeletonExtractor(doc).FindPrimarySkin()
	if skinIndex >= 0 {
		var err error
		skeleton, err = newGLTFSkeletonExtractor(doc).ExtractSkeleton(skinIndex)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
	}

	subMeshes, err := newGLTFMeshExtractor(doc).ExtractSubMeshes(skeleton, skinIndex)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	asset := &Asset{
		Name: name,
		Mesh: &model.RiggedMesh{
			Name:      name,
			SubMeshes: subMeshes,
		},
	}
	if skeleton != nil {
		asset.Mesh.Skeleton = skeleton.Skeleton
		asset.Clips = newGLTFAnimationExtractor(doc).ExtractAllAnimations(skeleton.BoneMapping)
	}

	imp.log.Info("asset imported",
		zap.String("asset", name),
		zap.Int("submeshes", len(subMeshes)),
		zap.Int("vertices", asset.Mesh.VertexCount()),
		zap.Int("bones", asset.Mesh.Skeleton.BoneCount()),
		zap.Int("clips", len(asset.Clips)),
	)
	return asset, nil
}
