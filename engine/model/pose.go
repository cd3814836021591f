package model

import (
	"sort"

	"github.com/Carmen-Shannon/oxy-avatar/common"
	"github.com/go-gl/mathgl/mgl32"
)

// Pose is a set of local bone transforms, one per skeleton bone.
type Pose []Transform

// RestPose returns a new Pose holding every bone's rest transform.
//
// Returns:
//   - Pose: the rest pose
func (s *Skeleton) RestPose() Pose {
	p := make(Pose, len(s.Bones))
	for i := range s.Bones {
		p[i] = s.Bones[i].RestTransform
	}
	return p
}

// ApplyPose writes a pose into the skeleton's local transforms. Extra or missing entries
// are ignored.
//
// Parameters:
//   - p: the pose to apply
func (s *Skeleton) ApplyPose(p Pose) {
	n := min(len(p), len(s.Bones))
	for i := 0; i < n; i++ {
		s.Bones[i].LocalTransform = p[i]
	}
}

// SampleClip evaluates a clip at time t into out. Bones without a channel (or with an empty
// key track) keep the corresponding value from rest. Times outside the keyed range clamp to
// the first or last key.
//
// Parameters:
//   - clip: the animation clip to evaluate (nil copies rest)
//   - t: the clip-local time in seconds
//   - rest: the fallback pose, usually Skeleton.RestPose()
//   - out: destination pose, same length as rest
func SampleClip(clip *AnimationClip, t float32, rest, out Pose) {
	copy(out, rest)
	if clip == nil {
		return
	}
	for c := range clip.Channels {
		ch := &clip.Channels[c]
		if ch.BoneIndex < 0 || int(ch.BoneIndex) >= len(out) {
			continue
		}
		tr := &out[ch.BoneIndex]
		if len(ch.PositionKeys) > 0 {
			tr.Translation = sampleVector(ch.PositionKeys, t)
		}
		if len(ch.RotationKeys) > 0 {
			tr.Rotation = sampleQuaternion(ch.RotationKeys, t)
		}
		if len(ch.ScaleKeys) > 0 {
			tr.Scale = sampleVector(ch.ScaleKeys, t)
		}
	}
}

// BlendPoses mixes two poses: weight 0 yields a, weight 1 yields b. Translations and scales
// are interpolated linearly and rotations with spherical interpolation.
//
// Parameters:
//   - a: the outgoing pose
//   - b: the incoming pose
//   - weight: the incoming pose's weight in [0, 1]
//   - out: destination pose (may alias a or b)
func BlendPoses(a, b Pose, weight float32, out Pose) {
	weight = mgl32.Clamp(weight, 0, 1)
	n := min(len(a), len(b), len(out))
	for i := 0; i < n; i++ {
		ta, tb := a[i], b[i]
		var r Transform
		for k := 0; k < 3; k++ {
			r.Translation[k] = common.Lerp(ta.Translation[k], tb.Translation[k], weight)
			r.Scale[k] = common.Lerp(ta.Scale[k], tb.Scale[k], weight)
		}
		qa := common.QuatFromArray(ta.Rotation)
		qb := common.QuatFromArray(tb.Rotation)
		r.Rotation = common.QuatToArray(slerpShortest(qa, qb, weight))
		out[i] = r
	}
}

// keyIndex returns the index of the last key whose time is <= t, clamped to [0, n-1].
func keyIndex(n int, timeAt func(int) float32, t float32) int {
	i := sort.Search(n, func(i int) bool { return timeAt(i) > t }) - 1
	return max(0, min(i, n-1))
}

func sampleVector(keys []VectorKeyframe, t float32) [3]float32 {
	if len(keys) == 1 || t <= keys[0].Time {
		return keys[0].Value
	}
	last := len(keys) - 1
	if t >= keys[last].Time {
		return keys[last].Value
	}
	i := keyIndex(len(keys), func(i int) float32 { return keys[i].Time }, t)
	k0, k1 := keys[i], keys[i+1]
	f := segmentFactor(k0.Time, k1.Time, t)
	var v [3]float32
	for a := 0; a < 3; a++ {
		v[a] = common.Lerp(k0.Value[a], k1.Value[a], f)
	}
	return v
}

func sampleQuaternion(keys []QuaternionKeyframe, t float32) [4]float32 {
	if len(keys) == 1 || t <= keys[0].Time {
		return keys[0].Value
	}
	last := len(keys) - 1
	if t >= keys[last].Time {
		return keys[last].Value
	}
	i := keyIndex(len(keys), func(i int) float32 { return keys[i].Time }, t)
	k0, k1 := keys[i], keys[i+1]
	f := segmentFactor(k0.Time, k1.Time, t)
	q := slerpShortest(common.QuatFromArray(k0.Value), common.QuatFromArray(k1.Value), f)
	return common.QuatToArray(q)
}

func segmentFactor(t0, t1, t float32) float32 {
	if t1 <= t0 {
		return 0
	}
	return mgl32.Clamp((t-t0)/(t1-t0), 0, 1)
}

// slerpShortest interpolates along the shorter arc between two rotations.
func slerpShortest(a, b mgl32.Quat, f float32) mgl32.Quat {
	if a.Dot(b) < 0 {
		b = b.Scale(-1)
	}
	return mgl32.QuatSlerp(a, b, f).Normalize()
}
