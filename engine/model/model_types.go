package model

import (
	"github.com/go-gl/mathgl/mgl32"
)

// --- Transform & Skeleton Types ---

// Transform represents a decomposed transform for animation interpolation.
type Transform struct {
	// Translation is the position offset.
	Translation [3]float32

	// Rotation is the orientation as a quaternion (x, y, z, w).
	Rotation [4]float32

	// Scale is the scale factor along each axis.
	Scale [3]float32
}

// IdentityTransform returns a transform with no translation, identity rotation, and unit scale.
func IdentityTransform() Transform {
	return Transform{
		Rotation: [4]float32{0, 0, 0, 1},
		Scale:    [3]float32{1, 1, 1},
	}
}

// Bone represents a single bone in a skeleton hierarchy.
type Bone struct {
	// Name is the bone's identifier (for animation targeting and lookups such as the head bone).
	Name string

	// ParentIndex is the index of the parent bone (-1 for root bones).
	ParentIndex int32

	// InverseBindMatrix transforms from mesh space to bone space at bind pose.
	InverseBindMatrix mgl32.Mat4

	// RestTransform is the bone's local transform at bind pose. Clips that do not animate a
	// channel fall back to these values.
	RestTransform Transform

	// LocalTransform is the bone's current transform relative to its parent.
	// Rewritten every frame by the animation mixer.
	LocalTransform Transform
}

// Skeleton represents a bone hierarchy plus its derived per-frame matrices.
// Bones are read-only after load; LocalTransform, WorldMatrices, and BoneMatrices are
// rewritten once per frame by the animation system.
type Skeleton struct {
	// Bones is the array of all bones in the skeleton.
	Bones []Bone

	// RootBoneIndices are indices of bones with no parent.
	RootBoneIndices []int32

	// BoneNameToIndex maps bone names to their indices for quick lookup.
	BoneNameToIndex map[string]int32

	// WorldMatrices holds each bone's current transform in mesh space.
	WorldMatrices []mgl32.Mat4

	// BoneMatrices is the bone matrix palette (WorldMatrices[i] * InverseBindMatrix),
	// recomputed by Update.
	BoneMatrices []mgl32.Mat4

	// order is a parent-before-child traversal of the bones, built once.
	order []int32
}

// --- Animation Types ---

// AnimationClip represents a named, fixed-duration keyframed pose sequence.
// Clips are immutable once loaded.
type AnimationClip struct {
	// Name is the animation identifier.
	Name string

	// Duration is the total length of the animation in seconds.
	Duration float32

	// TicksPerSecond is the sample rate of the animation.
	TicksPerSecond float32

	// Channels contains animation data for each animated bone.
	Channels []AnimationChannel
}

// AnimationChannel contains keyframe data for a single bone.
type AnimationChannel struct {
	// BoneIndex is the index of the bone this channel animates.
	BoneIndex int32

	// PositionKeys are keyframes for translation.
	PositionKeys []VectorKeyframe

	// RotationKeys are keyframes for rotation (quaternion).
	RotationKeys []QuaternionKeyframe

	// ScaleKeys are keyframes for scale.
	ScaleKeys []VectorKeyframe
}

// VectorKeyframe stores a 3D vector value at a specific time.
type VectorKeyframe struct {
	// Time is the keyframe timestamp in seconds.
	Time float32

	// Value is the 3D vector value at this keyframe.
	Value [3]float32
}

// QuaternionKeyframe stores a quaternion rotation at a specific time.
type QuaternionKeyframe struct {
	// Time is the keyframe timestamp in seconds.
	Time float32

	// Value is the quaternion value at this keyframe (x, y, z, w).
	Value [4]float32
}

// --- Mesh Types ---

// SubMesh is one named primitive set of a rigged mesh.
// UVs, Joints, and Weights are nil when the source mesh does not carry them; when present
// they are parallel to Positions.
type SubMesh struct {
	// Name is the sub-mesh identifier (used for anatomical region matching).
	Name string

	// Positions are the rest-pose vertex positions in the sub-mesh's local space.
	Positions [][3]float32

	// UVs are optional texture coordinates.
	UVs [][2]float32

	// Joints are optional bone indices, four influences per vertex.
	Joints [][4]uint32

	// Weights are optional bone weights, four influences per vertex.
	Weights [][4]float32

	// WorldMatrix places the sub-mesh in the avatar's space. The zero value is treated as identity.
	WorldMatrix mgl32.Mat4
}

// RiggedMesh is a decoded character mesh bound to a skeleton. It is owned by the loader
// and read-only to the particle and animation systems.
type RiggedMesh struct {
	// Name is the mesh identifier.
	Name string

	// SubMeshes are the named primitive sets making up the character.
	SubMeshes []SubMesh

	// Skeleton is the bone hierarchy (nil for static meshes).
	Skeleton *Skeleton
}
