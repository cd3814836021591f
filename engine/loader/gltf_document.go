package loader

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-avatar/common"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// identityMatrix64 is the glTF node matrix default.
var identityMatrix64 = [16]float64{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}

// gltfDocumentImpl is the implementation of the gltfDocument interface.
type gltfDocumentImpl struct {
	doc *gltf.Document

	// parents maps each node to its parent node (-1 for scene roots).
	parents []int

	// globals caches node-to-document matrices, computed lazily.
	globals  []mgl32.Mat4
	computed []bool
}

// gltfDocument wraps a decoded glTF document with node hierarchy lookups and typed accessor reads.
type gltfDocument interface {
	// Document returns the decoded glTF document.
	Document() *gltf.Document

	// Parent returns the parent node of a node, or -1 for a root.
	//
	// Parameters:
	//   - node: the node index
	//
	// Returns:
	//   - int: the parent node index or -1
	Parent(node int) int

	// LocalMatrix returns a node's transform relative to its parent.
	//
	// Parameters:
	//   - node: the node index
	//
	// Returns:
	//   - mgl32.Mat4: the local matrix
	LocalMatrix(node int) mgl32.Mat4

	// GlobalMatrix returns a node's transform relative to the document root.
	//
	// Parameters:
	//   - node: the node index, or -1 for identity
	//
	// Returns:
	//   - mgl32.Mat4: the global matrix
	GlobalMatrix(node int) mgl32.Mat4

	// ReadScalar reads a float SCALAR accessor.
	ReadScalar(accessor int) ([]float32, error)

	// ReadVec3 reads a float VEC3 accessor.
	ReadVec3(accessor int) ([][3]float32, error)

	// ReadVec4 reads a VEC4 accessor, normalizing signed integer components.
	ReadVec4(accessor int) ([][4]float32, error)

	// ReadMat4 reads a float MAT4 accessor into column-major matrices.
	ReadMat4(accessor int) ([]mgl32.Mat4, error)
}

var _ gltfDocument = &gltfDocumentImpl{}

// newGLTFDocument indexes the node hierarchy of a decoded document.
//
// Parameters:
//   - doc: the decoded document
//
// Returns:
//   - gltfDocument: the wrapped document
func newGLTFDocument(doc *gltf.Document) gltfDocument {
	d := &gltfDocumentImpl{
		doc:      doc,
		parents:  make([]int, len(doc.Nodes)),
		globals:  make([]mgl32.Mat4, len(doc.Nodes)),
		computed: make([]bool, len(doc.Nodes)),
	}
	for i := range d.parents {
		d.parents[i] = -1
	}
	for i, n := range doc.Nodes {
		for _, child := range n.Children {
			if c := int(child); c < len(d.parents) && c != i {
				d.parents[c] = i
			}
		}
	}
	return d
}

func (d *gltfDocumentImpl) Document() *gltf.Document {
	return d.doc
}

func (d *gltfDocumentImpl) Parent(node int) int {
	if node < 0 || node >= len(d.parents) {
		return -1
	}
	return d.parents[node]
}

func (d *gltfDocumentImpl) LocalMatrix(node int) mgl32.Mat4 {
	if node < 0 || node >= len(d.doc.Nodes) {
		return mgl32.Ident4()
	}
	n := d.doc.Nodes[node]
	if m := n.MatrixOrDefault(); m != identityMatrix64 {
		var out mgl32.Mat4
		for i, v := range m {
			out[i] = float32(v)
		}
		return out
	}
	t := nodeTransform(n)
	return common.ComposeTRS(t.Translation, t.Rotation, t.Scale)
}

func (d *gltfDocumentImpl) GlobalMatrix(node int) mgl32.Mat4 {
	if node < 0 || node >= len(d.doc.Nodes) {
		return mgl32.Ident4()
	}
	if d.computed[node] {
		return d.globals[node]
	}

	// Walk up to the first cached ancestor, then resolve downwards.
	chain := []int{node}
	for p := d.parents[node]; p >= 0 && !d.computed[p] && len(chain) <= len(d.parents); p = d.parents[p] {
		chain = append(chain, p)
	}
	for i := len(chain) - 1; i >= 0; i-- {
		n := chain[i]
		parent := mgl32.Ident4()
		if p := d.parents[n]; p >= 0 && d.computed[p] {
			parent = d.globals[p]
		}
		d.globals[n] = parent.Mul4(d.LocalMatrix(n))
		d.computed[n] = true
	}
	return d.globals[node]
}

func (d *gltfDocumentImpl) accessor(index int) (*gltf.Accessor, error) {
	if index < 0 || index >= len(d.doc.Accessors) {
		return nil, fmt.Errorf("accessor index %d out of range", index)
	}
	return d.doc.Accessors[index], nil
}

func (d *gltfDocumentImpl) read(index int) (any, error) {
	acr, err := d.accessor(index)
	if err != nil {
		return nil, err
	}
	data, err := modeler.ReadAccessor(d.doc, acr, nil)
	if err != nil {
		return nil, fmt.Errorf("read accessor %d: %w", index, err)
	}
	return data, nil
}

func (d *gltfDocumentImpl) ReadScalar(accessor int) ([]float32, error) {
	data, err := d.read(accessor)
	if err != nil {
		return nil, err
	}
	values, ok := data.([]float32)
	if !ok {
		return nil, fmt.Errorf("accessor %d: got %T, want float scalars", accessor, data)
	}
	return values, nil
}

func (d *gltfDocumentImpl) ReadVec3(accessor int) ([][3]float32, error) {
	data, err := d.read(accessor)
	if err != nil {
		return nil, err
	}
	values, ok := data.([][3]float32)
	if !ok {
		return nil, fmt.Errorf("accessor %d: got %T, want float vec3", accessor, data)
	}
	return values, nil
}

func (d *gltfDocumentImpl) ReadVec4(accessor int) ([][4]float32, error) {
	data, err := d.read(accessor)
	if err != nil {
		return nil, err
	}
	switch values := data.(type) {
	case [][4]float32:
		return values, nil
	case [][4]int8:
		out := make([][4]float32, len(values))
		for i, v := range values {
			for c := 0; c < 4; c++ {
				out[i][c] = max(float32(v[c])/127, -1)
			}
		}
		return out, nil
	case [][4]int16:
		out := make([][4]float32, len(values))
		for i, v := range values {
			for c := 0; c < 4; c++ {
				out[i][c] = max(float32(v[c])/32767, -1)
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("accessor %d: got %T, want vec4", accessor, data)
	}
}

func (d *gltfDocumentImpl) ReadMat4(accessor int) ([]mgl32.Mat4, error) {
	data, err := d.read(accessor)
	if err != nil {
		return nil, err
	}
	values, ok := data.([][4][4]float32)
	if !ok {
		return nil, fmt.Errorf("accessor %d: got %T, want float mat4", accessor, data)
	}
	out := make([]mgl32.Mat4, len(values))
	for i, m := range values {
		for c := 0; c < 4; c++ {
			for r := 0; r < 4; r++ {
				out[i][c*4+r] = m[c][r]
			}
		}
	}
	return out, nil
}

// gltfIndex reads an index field that the glTF schema marks required (uint32) or optional (*uint32).
// A nil optional index yields -1.
func gltfIndex[T uint32 | *uint32](v T) int {
	switch x := any(v).(type) {
	case uint32:
		return int(x)
	case *uint32:
		if x == nil {
			return -1
		}
		return int(*x)
	}
	return -1
}
