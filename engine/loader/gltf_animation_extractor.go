package loader

import (
	"fmt"
	"sort"

	"github.com/Carmen-Shannon/oxy-avatar/engine/logger"
	"github.com/Carmen-Shannon/oxy-avatar/engine/model"
	"github.com/qmuntal/gltf"
	"go.uber.org/zap"
)

// gltfAnimationExtractorImpl is the implementation of the gltfAnimationExtractor interface.
type gltfAnimationExtractorImpl struct {
	doc gltfDocument
	log *zap.Logger
}

// gltfAnimationExtractor converts glTF animations into engine AnimationClips.
//
// The boneMapping parameter maps glTF node indices to skeleton bone indices. Channels that
// target nodes outside the mapping, or morph weights, are dropped.
type gltfAnimationExtractor interface {
	// ExtractAnimation extracts a single animation by index.
	//
	// Parameters:
	//   - animIndex: the index of the animation in the document
	//   - boneMapping: maps glTF node index to skeleton bone index
	//
	// Returns:
	//   - *model.AnimationClip: the extracted animation clip
	//   - error: error if the animation is out of range or a sampler is malformed
	ExtractAnimation(animIndex int, boneMapping map[int]int32) (*model.AnimationClip, error)

	// ExtractAllAnimations extracts every animation from the document. Animations that fail to
	// decode are logged and skipped.
	//
	// Parameters:
	//   - boneMapping: maps glTF node index to skeleton bone index
	//
	// Returns:
	//   - []*model.AnimationClip: the decoded clips, in document order
	ExtractAllAnimations(boneMapping map[int]int32) []*model.AnimationClip
}

var _ gltfAnimationExtractor = &gltfAnimationExtractorImpl{}

// newGLTFAnimationExtractor creates an animation extractor for a decoded document.
//
// Parameters:
//   - doc: the decoded document
//
// Returns:
//   - gltfAnimationExtractor: the animation extractor
func newGLTFAnimationExtractor(doc gltfDocument) gltfAnimationExtractor {
	return &gltfAnimationExtractorImpl{doc: doc, log: logger.Named("loader")}
}

func (e *gltfAnimationExtractorImpl) ExtractAnimation(animIndex int, boneMapping map[int]int32) (*model.AnimationClip, error) {
	doc := e.doc.Document()
	if animIndex < 0 || animIndex >= len(doc.Animations) {
		return nil, fmt.Errorf("animation index %d out of range", animIndex)
	}
	anim := doc.Animations[animIndex]

	name := anim.Name
	if name == "" {
		name = fmt.Sprintf("animation_%d", animIndex)
	}

	// Translation, rotation and scale channels of one bone merge into one AnimationChannel.
	channelMap := make(map[int32]*model.AnimationChannel)
	var maxTime float32

	for i, ch := range anim.Channels {
		boneIndex, ok := boneMapping[gltfIndex(ch.Target.Node)]
		if !ok || ch.Target.Path == gltf.TRSWeights {
			continue
		}

		samplerIndex := gltfIndex(ch.Sampler)
		if samplerIndex < 0 || samplerIndex >= len(anim.Samplers) {
			return nil, fmt.Errorf("animation %q channel %d: invalid sampler index %d", name, i, samplerIndex)
		}
		sampler := anim.Samplers[samplerIndex]

		times, err := e.doc.ReadScalar(gltfIndex(sampler.Input))
		if err != nil {
			return nil, fmt.Errorf("animation %q channel %d timestamps: %w", name, i, err)
		}
		if len(times) > 0 && times[len(times)-1] > maxTime {
			maxTime = times[len(times)-1]
		}

		animCh, exists := channelMap[boneIndex]
		if !exists {
			animCh = &model.AnimationChannel{BoneIndex: boneIndex}
			channelMap[boneIndex] = animCh
		}

		cubic := sampler.Interpolation == gltf.InterpolationCubicSpline
		output := gltfIndex(sampler.Output)

		switch ch.Target.Path {
		case gltf.TRSTranslation, gltf.TRSScale:
			values, err := e.doc.ReadVec3(output)
			if err != nil {
				return nil, fmt.Errorf("animation %q channel %d values: %w", name, i, err)
			}
			values = splineValues(values, cubic)
			keys := make([]model.VectorKeyframe, min(len(times), len(values)))
			for j := range keys {
				keys[j] = model.VectorKeyframe{Time: times[j], Value: values[j]}
			}
			if ch.Target.Path == gltf.TRSTranslation {
				animCh.PositionKeys = keys
			} else {
				animCh.ScaleKeys = keys
			}

		case gltf.TRSRotation:
			values, err := e.doc.ReadVec4(output)
			if err != nil {
				return nil, fmt.Errorf("animation %q channel %d values: %w", name, i, err)
			}
			values = splineValues(values, cubic)
			keys := make([]model.QuaternionKeyframe, min(len(times), len(values)))
			for j := range keys {
				keys[j] = model.QuaternionKeyframe{Time: times[j], Value: values[j]}
			}
			animCh.RotationKeys = keys
		}
	}

	channels := make([]model.AnimationChannel, 0, len(channelMap))
	for _, ch := range channelMap {
		channels = append(channels, *ch)
	}
	sort.Slice(channels, func(a, b int) bool {
		return channels[a].BoneIndex < channels[b].BoneIndex
	})

	return &model.AnimationClip{
		Name:           name,
		Duration:       maxTime,
		TicksPerSecond: 1.0, // glTF timestamps are always in seconds
		Channels:       channels,
	}, nil
}

func (e *gltfAnimationExtractorImpl) ExtractAllAnimations(boneMapping map[int]int32) []*model.AnimationClip {
	doc := e.doc.Document()
	clips := make([]*model.AnimationClip, 0, len(doc.Animations))
	for i := range doc.Animations {
		clip, err := e.ExtractAnimation(i, boneMapping)
		if err != nil {
			e.log.Warn("skipping animation", zap.Int("index", i), zap.Error(err))
			continue
		}
		clips = append(clips, clip)
	}
	return clips
}

// splineValues keeps the keyframe values of a CUBICSPLINE output stream, which stores
// (in-tangent, value, out-tangent) triplets. The tangents are dropped and the keys are
// interpolated linearly.
func splineValues[T any](values []T, cubic bool) []T {
	if !cubic {
		return values
	}
	out := make([]T, 0, len(values)/3)
	for i := 1; i < len(values); i += 3 {
		out = append(out, values[i])
	}
	return out
}
