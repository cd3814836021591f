package loader

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
)

func approxEqual(a, b, eps float32) bool {
	return float32(math.Abs(float64(a-b))) <= eps
}

func matApproxEqual(a, b mgl32.Mat4, eps float32) bool {
	for i := range a {
		if !approxEqual(a[i], b[i], eps) {
			return false
		}
	}
	return true
}

// riggedBuffer packs positions, joints, weights, keyframe times and rotations for the rigged fixture.
func riggedBuffer(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	parts := []any{
		[]float32{0, 0, 0, 0, 1, 0, 0, 2, 0},                // positions, 36 bytes at 0
		[]uint8{0, 0, 0, 0, 0, 1, 0, 0, 1, 0, 0, 0},         // joints, 12 bytes at 36
		[]float32{1, 0, 0, 0, 0.5, 0.5, 0, 0, 1, 0, 0, 0},   // weights, 48 bytes at 48
		[]float32{0, 1.5},                                   // times, 8 bytes at 96
		[]float32{0, 0, 0, 1, 0, 0.70710677, 0, 0.70710677}, // rotations, 32 bytes at 104
	}
	for _, p := range parts {
		if err := binary.Write(&buf, binary.LittleEndian, p); err != nil {
			t.Fatalf("pack buffer: %v", err)
		}
	}
	return buf.Bytes()
}

func riggedDocument(t *testing.T) string {
	data := riggedBuffer(t)
	return fmt.Sprintf(`{
  "asset": {"version": "2.0"},
  "scene": 0,
  "scenes": [{"nodes": [0]}],
  "nodes": [
    {"name": "Armature", "translation": [1, 0, 0], "children": [1, 3]},
    {"name": "Hips", "translation": [0, 1, 0], "children": [2]},
    {"name": "Head", "translation": [0, 1, 0]},
    {"name": "BodyNode", "mesh": 0, "skin": 0}
  ],
  "skins": [{"joints": [1, 2]}],
  "meshes": [{"name": "Body", "primitives": [{"attributes": {"POSITION": 0, "JOINTS_0": 1, "WEIGHTS_0": 2}}]}],
  "animations": [{
    "name": "talk1",
    "channels": [{"sampler": 0, "target": {"node": 2, "path": "rotation"}}],
    "samplers": [{"input": 3, "output": 4}]
  }],
  "accessors": [
    {"bufferView": 0, "componentType": 5126, "count": 3, "type": "VEC3"},
    {"bufferView": 1, "componentType": 5121, "count": 3, "type": "VEC4"},
    {"bufferView": 2, "componentType": 5126, "count": 3, "type": "VEC4"},
    {"bufferView": 3, "componentType": 5126, "count": 2, "type": "SCALAR"},
    {"bufferView": 4, "componentType": 5126, "count": 2, "type": "VEC4"}
  ],
  "bufferViews": [
    {"buffer": 0, "byteOffset": 0, "byteLength": 36},
    {"buffer": 0, "byteOffset": 36, "byteLength": 12},
    {"buffer": 0, "byteOffset": 48, "byteLength": 48},
    {"buffer": 0, "byteOffset": 96, "byteLength": 8},
    {"buffer": 0, "byteOffset": 104, "byteLength": 32}
  ],
  "buffers": [{"byteLength": %d, "uri": "data:application/octet-stream;base64,%s"}]
}`, len(data), base64.StdEncoding.EncodeToString(data))
}

func staticDocument(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, []float32{0, 0, 0, 1, 0, 0}); err != nil {
		t.Fatalf("pack buffer: %v", err)
	}
	data := buf.Bytes()
	return fmt.Sprintf(`{
  "asset": {"version": "2.0"},
  "nodes": [{"name": "Rock", "translation": [0, 0, 2], "mesh": 0}],
  "meshes": [{"primitives": [{"attributes": {"POSITION": 0}}]}],
  "accessors": [{"bufferView": 0, "componentType": 5126, "count": 2, "type": "VEC3"}],
  "bufferViews": [{"buffer": 0, "byteOffset": 0, "byteLength": 24}],
  "buffers": [{"byteLength": %d, "uri": "data:application/octet-stream;base64,%s"}]
}`, len(data), base64.StdEncoding.EncodeToString(data))
}

func writeFixture(t *testing.T, name, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestLoadRiggedAsset(t *testing.T) {
	path := writeFixture(t, "avatar.gltf", riggedDocument(t))
	l := NewLoader(BackendTypeGLTF, WithRequireSkin(true))

	asset, err := l.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	mesh := asset.Mesh
	if len(mesh.SubMeshes) != 1 {
		t.Fatalf("submeshes: got %d, want 1", len(mesh.SubMeshes))
	}
	sub := mesh.SubMeshes[0]
	if sub.Name != "Body" {
		t.Errorf("submesh name: got %q, want Body", sub.Name)
	}
	if !sub.Skinned() || sub.VertexCount() != 3 {
		t.Fatalf("submesh: got skinned=%v vertices=%d, want skinned with 3", sub.Skinned(), sub.VertexCount())
	}
	if got, want := sub.Joints[1], [4]uint32{0, 1, 0, 0}; got != want {
		t.Errorf("joints[1]: got %v, want %v", got, want)
	}
	if got := sub.Weights[1]; !approxEqual(got[0], 0.5, 1e-6) || !approxEqual(got[1], 0.5, 1e-6) {
		t.Errorf("weights[1]: got %v, want [0.5 0.5 0 0]", got)
	}
	if got, want := sub.WorldMatrix, mgl32.Translate3D(1, 0, 0); !matApproxEqual(got, want, 1e-6) {
		t.Errorf("skinned world matrix: got %v, want %v", got, want)
	}

	skel := mesh.Skeleton
	if skel.BoneCount() != 2 {
		t.Fatalf("bones: got %d, want 2", skel.BoneCount())
	}
	if skel.Bones[0].Name != "Hips" || skel.Bones[0].ParentIndex != -1 {
		t.Errorf("bone 0: got %q parent %d, want Hips parent -1", skel.Bones[0].Name, skel.Bones[0].ParentIndex)
	}
	if skel.Bones[1].Name != "Head" || skel.Bones[1].ParentIndex != 0 {
		t.Errorf("bone 1: got %q parent %d, want Head parent 0", skel.Bones[1].Name, skel.Bones[1].ParentIndex)
	}
	if got := skel.Bones[1].RestTransform.Translation; got != [3]float32{0, 1, 0} {
		t.Errorf("head rest translation: got %v, want [0 1 0]", got)
	}
	if !matApproxEqual(skel.Bones[0].InverseBindMatrix, mgl32.Ident4(), 1e-6) {
		t.Errorf("missing inverse bind matrices: got %v, want identity", skel.Bones[0].InverseBindMatrix)
	}

	if len(asset.Clips) != 1 {
		t.Fatalf("clips: got %d, want 1", len(asset.Clips))
	}
	clip := asset.Clips[0]
	if clip.Name != "talk1" || !approxEqual(clip.Duration, 1.5, 1e-6) {
		t.Errorf("clip: got %q duration %v, want talk1 duration 1.5", clip.Name, clip.Duration)
	}
	if len(clip.Channels) != 1 || clip.Channels[0].BoneIndex != 1 || len(clip.Channels[0].RotationKeys) != 2 {
		t.Errorf("clip channels: got %+v, want one rotation channel on bone 1", clip.Channels)
	}
	if got := asset.ClipNames(); len(got) != 1 || got[0] != "talk1" {
		t.Errorf("ClipNames: got %v, want [talk1]", got)
	}

	again, err := l.Load(path)
	if err != nil || again != asset {
		t.Errorf("cached Load: got %p (%v), want %p", again, err, asset)
	}
	if l.Get(path) != asset || len(l.Assets()) != 1 {
		t.Error("cache: want the asset stored under its path")
	}
}

func TestLoadReader(t *testing.T) {
	l := NewLoader(BackendTypeGLTF)
	asset, err := l.LoadReader("avatar", strings.NewReader(riggedDocument(t)))
	if err != nil {
		t.Fatalf("LoadReader: %v", err)
	}
	if asset.Name != "avatar" || asset.Mesh.VertexCount() != 3 {
		t.Errorf("asset: got %q with %d vertices, want avatar with 3", asset.Name, asset.Mesh.VertexCount())
	}
	if l.Get("avatar") != asset {
		t.Error("Get: want the reader asset cached by name")
	}
}

func TestLoadStaticAsset(t *testing.T) {
	path := writeFixture(t, "rock.gltf", staticDocument(t))

	asset, err := NewLoader(BackendTypeGLTF).Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if asset.Mesh.Skeleton != nil || len(asset.Clips) != 0 {
		t.Errorf("static asset: got skeleton %v and %d clips, want none", asset.Mesh.Skeleton, len(asset.Clips))
	}
	sub := asset.Mesh.SubMeshes[0]
	if sub.Name != "Rock" || sub.Skinned() {
		t.Errorf("submesh: got %q skinned=%v, want unskinned Rock", sub.Name, sub.Skinned())
	}
	if got, want := sub.WorldMatrix, mgl32.Translate3D(0, 0, 2); !matApproxEqual(got, want, 1e-6) {
		t.Errorf("world matrix: got %v, want %v", got, want)
	}

	_, err = NewLoader(BackendTypeGLTF, WithRequireSkin(true)).Load(path)
	if !errors.Is(err, ErrNoSkinnedMesh) {
		t.Errorf("require skin: got %v, want %v", err, ErrNoSkinnedMesh)
	}
}

func TestLoadErrors(t *testing.T) {
	l := NewLoader(BackendTypeGLTF)
	if _, err := l.Load("avatar.fbx"); err == nil {
		t.Error("unsupported extension: got nil error")
	}
	if _, err := l.Load(filepath.Join(t.TempDir(), "missing.glb")); err == nil {
		t.Error("missing file: got nil error")
	}
	if _, err := l.LoadReader("broken", strings.NewReader("{not json")); err == nil {
		t.Error("malformed document: got nil error")
	}
}

func TestDecomposeMatrix(t *testing.T) {
	q := mgl32.QuatRotate(0.5, mgl32.Vec3{0, 1, 0})
	m := mgl32.Translate3D(1, 2, 3).Mul4(q.Mat4()).Mul4(mgl32.Scale3D(2, 2, 2))

	tr := decomposeMatrix(m)
	if tr.Translation != [3]float32{1, 2, 3} {
		t.Errorf("translation: got %v, want [1 2 3]", tr.Translation)
	}
	for i, s := range tr.Scale {
		if !approxEqual(s, 2, 1e-5) {
			t.Errorf("scale[%d]: got %v, want 2", i, s)
		}
	}
	got := mgl32.Quat{W: tr.Rotation[3], V: mgl32.Vec3{tr.Rotation[0], tr.Rotation[1], tr.Rotation[2]}}
	if !got.OrientationEqualThreshold(q, 1e-4) {
		t.Errorf("rotation: got %v, want %v", got, q)
	}
}

func TestSplineValuesKeepsMiddleOfTriplets(t *testing.T) {
	in := []int{10, 1, 11, 20, 2, 21}
	got := splineValues(in, true)
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Errorf("got %v, want [1 2]", got)
	}
	if linear := splineValues(in, false); len(linear) != len(in) {
		t.Errorf("linear: got %d values, want %d", len(linear), len(in))
	}
}

func TestGLTFIndex(t *testing.T) {
	three := uint32(3)
	tests := []struct {
		name string
		got  int
		want int
	}{
		{"required", gltfIndex(uint32(7)), 7},
		{"optional set", gltfIndex(&three), 3},
		{"optional unset", gltfIndex((*uint32)(nil)), -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}
}

func TestDocumentHierarchy(t *testing.T) {
	mesh := uint32(0)
	doc := &gltf.Document{
		Nodes: []*gltf.Node{
			{Name: "root", Translation: [3]float64{1, 0, 0}, Children: []uint32{1}},
			{Name: "child", Translation: [3]float64{0, 2, 0}, Children: []uint32{2}},
			{Name: "leaf", Translation: [3]float64{0, 0, 3}, Mesh: &mesh},
		},
	}
	d := newGLTFDocument(doc)

	for node, want := range []int{-1, 0, 1} {
		if got := d.Parent(node); got != want {
			t.Errorf("parent of %d: got %v, want %v", node, got, want)
		}
	}
	if got := d.GlobalMatrix(2).Col(3).Vec3(); got != (mgl32.Vec3{1, 2, 3}) {
		t.Errorf("leaf translation: got %v, want [1 2 3]", got)
	}
}
