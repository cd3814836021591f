package avatar

import (
	"errors"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-avatar/engine/animator"
	"github.com/Carmen-Shannon/oxy-avatar/engine/camera"
	"github.com/Carmen-Shannon/oxy-avatar/engine/model"
	"github.com/Carmen-Shannon/oxy-avatar/engine/particle"
	"github.com/go-gl/mathgl/mgl32"
)

func approxEqual(a, b, eps float32) bool {
	return float32(math.Abs(float64(a-b))) <= eps
}

func vecApproxEqual(a, b mgl32.Vec3, eps float32) bool {
	for i := range a {
		if !approxEqual(a[i], b[i], eps) {
			return false
		}
	}
	return true
}

// riggedFigure builds a two-bone figure: a skinned body sub-mesh with one vertex per bone and
// an unskinned accessory placed one unit forward.
func riggedFigure() *model.RiggedMesh {
	head := model.IdentityTransform()
	head.Translation = [3]float32{0, 1, 0}
	skel := model.NewSkeleton([]model.Bone{
		{Name: "Hips", ParentIndex: -1},
		{Name: "Head", ParentIndex: 0, RestTransform: head, InverseBindMatrix: mgl32.Translate3D(0, -1, 0)},
	})
	return &model.RiggedMesh{
		Name:     "figure",
		Skeleton: skel,
		SubMeshes: []model.SubMesh{
			{
				Name:      "body",
				Positions: [][3]float32{{0, 0, 0}, {0, 1.5, 0}},
				Joints:    [][4]uint32{{0, 0, 0, 0}, {1, 0, 0, 0}},
				Weights:   [][4]float32{{1, 0, 0, 0}, {1, 0, 0, 0}},
			},
			{
				Name:        "accessory",
				Positions:   [][3]float32{{5, 5, 5}},
				WorldMatrix: mgl32.Translate3D(0, 0, 1),
			},
		},
	}
}

// holdClip keeps the hips at a fixed translation for the clip's duration.
func holdClip(name string, duration float32, x float32) *model.AnimationClip {
	return &model.AnimationClip{
		Name:     name,
		Duration: duration,
		Channels: []model.AnimationChannel{{
			BoneIndex: 0,
			PositionKeys: []model.VectorKeyframe{
				{Time: 0, Value: [3]float32{x, 0, 0}},
				{Time: duration, Value: [3]float32{x, 0, 0}},
			},
		}},
	}
}

func figureClips() []*model.AnimationClip {
	return []*model.AnimationClip{
		holdClip("idle", 2, 0),
		holdClip("loading", 1, 0),
		holdClip("exit", 1, 0),
		holdClip("talk1", 2, 2),
	}
}

func staticOptions() []AvatarBuilderOption {
	return []AvatarBuilderOption{
		WithDensity(1),
		WithOffset(mgl32.Vec3{}),
		WithBreathing(false),
		WithHeadTracking(false),
		WithRenderBufferOptions(particle.WithJitterAmplitude(0), particle.WithPulseDepth(0)),
	}
}

func TestNewAvatarSamplesEveryVertexAtFullDensity(t *testing.T) {
	av := NewAvatar(riggedFigure(), figureClips(), WithDensity(1))
	if got := av.Buffer().Len(); got != 3 {
		t.Errorf("particles: got %d, want 3", got)
	}
	if got := av.StateMachine().State().ActiveClip; got != "idle" {
		t.Errorf("initial clip: got %q, want idle", got)
	}
}

func TestUpdateSkinsParticlesToPose(t *testing.T) {
	av := NewAvatar(riggedFigure(), figureClips(), append(staticOptions(), WithRepulsion(false))...)
	av.SetActiveClip("talk1")
	if err := av.Update(0.5, nil); err != nil {
		t.Fatalf("Update: %v", err)
	}

	want := []mgl32.Vec3{{2, 0, 0}, {2, 1.5, 0}, {5, 5, 6}}
	got := av.Buffer().Positions()
	for i := range want {
		if !vecApproxEqual(got[i], want[i], 1e-5) {
			t.Errorf("particle %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestDefaultOffsetFollowsPlatform(t *testing.T) {
	mesh := &model.RiggedMesh{SubMeshes: []model.SubMesh{{Name: "dot", Positions: [][3]float32{{0, 0, 0}}}}}
	tests := []struct {
		platform animator.Platform
		want     mgl32.Vec3
	}{
		{animator.PlatformDesktop, DesktopOffset},
		{animator.PlatformMobile, MobileOffset},
	}
	for _, tt := range tests {
		t.Run(tt.platform.String(), func(t *testing.T) {
			av := NewAvatar(mesh, nil,
				WithPlatform(tt.platform),
				WithDensity(1),
				WithBreathing(false),
				WithRenderBufferOptions(particle.WithJitterAmplitude(0)),
			)
			if err := av.Update(0.016, nil); err != nil {
				t.Fatalf("Update: %v", err)
			}
			if got := av.Buffer().Positions()[0]; !vecApproxEqual(got, tt.want, 1e-6) {
				t.Errorf("offset position: got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPointerRepulsionPushesParticles(t *testing.T) {
	mesh := &model.RiggedMesh{SubMeshes: []model.SubMesh{{
		Name:      "body",
		Positions: [][3]float32{{0.1, 0, 0}, {3, 0, 0}},
	}}}
	av := NewAvatar(mesh, nil, staticOptions()...)
	cam := camera.NewCamera(camera.WithPosition(0, 0, 5))

	av.OnPointerMove(400, 300, 800, 600)
	if err := av.Update(0.016, cam); err != nil {
		t.Fatalf("Update: %v", err)
	}

	pos := av.Buffer().Positions()
	if !vecApproxEqual(pos[0], mgl32.Vec3{0.25, 0, 0}, 1e-3) {
		t.Errorf("near particle: got %v, want (0.25, 0, 0)", pos[0])
	}
	if pos[1] != (mgl32.Vec3{3, 0, 0}) {
		t.Errorf("far particle: got %v, want untouched", pos[1])
	}
	base := av.Buffer().Particles()[0].Size
	if got := av.Buffer().Sizes()[0]; !approxEqual(got, base*1.4, 1e-3) {
		t.Errorf("boosted size: got %v, want %v", got, base*1.4)
	}
}

func TestHeadTrackingRotatesHeadBone(t *testing.T) {
	mesh := riggedFigure()
	av := NewAvatar(mesh, figureClips(), WithDensity(1), WithBreathing(false))
	av.OnPointerMove(800, 0, 800, 600)
	if err := av.Update(0.016, nil); err != nil {
		t.Fatalf("Update: %v", err)
	}
	rot := mesh.Skeleton.Bones[1].LocalTransform.Rotation
	if rot == [4]float32{0, 0, 0, 1} {
		t.Error("head rotation: unchanged from rest, want aimed at pointer")
	}
	if rest := mesh.Skeleton.Bones[0].LocalTransform.Rotation; rest != [4]float32{0, 0, 0, 1} {
		t.Errorf("hips rotation: got %v, want rest", rest)
	}
}

func TestBreathingScalesRoot(t *testing.T) {
	av := NewAvatar(riggedFigure(), figureClips(), WithDensity(0.5))
	if err := av.Update(math.Pi, nil); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got := av.WorldMatrix()[5]; !approxEqual(got, 1+BreathingAmplitude, 1e-5) {
		t.Errorf("breathing scale: got %v, want %v", got, 1+BreathingAmplitude)
	}
}

func TestMobileSequenceHidesParticles(t *testing.T) {
	var sequence int
	av := NewAvatar(riggedFigure(), figureClips(),
		WithDensity(1),
		WithPlatform(animator.PlatformMobile),
		WithOnSequenceComplete(func() { sequence++ }),
	)
	av.SetActiveClip("loading")
	for i := 0; i < 2; i++ {
		if err := av.Update(1, nil); err != nil {
			t.Fatalf("Update %d: %v", i, err)
		}
	}
	if sequence != 1 {
		t.Fatalf("sequence complete: got %d calls, want 1", sequence)
	}
	if av.Buffer().DrawCount() != 0 {
		t.Errorf("DrawCount after exit: got %d, want 0", av.Buffer().DrawCount())
	}

	av.Reset()
	if av.Buffer().DrawCount() != 3 || !av.StateMachine().ParticlesEnabled() {
		t.Errorf("after Reset: draw count %d, enabled %v", av.Buffer().DrawCount(), av.StateMachine().ParticlesEnabled())
	}
}

func TestStateMachineResetRestoresVisibility(t *testing.T) {
	av := NewAvatar(riggedFigure(), figureClips(),
		WithDensity(1),
		WithPlatform(animator.PlatformMobile),
	)
	av.SetActiveClip("loading")
	for i := 0; i < 2; i++ {
		if err := av.Update(1, nil); err != nil {
			t.Fatalf("Update %d: %v", i, err)
		}
	}
	if got := av.Buffer().DrawCount(); got != 0 {
		t.Fatalf("DrawCount after exit: got %v, want 0", got)
	}

	av.StateMachine().Reset()
	if err := av.Update(0.1, nil); err != nil {
		t.Fatalf("Update after reset: %v", err)
	}
	if got := av.Buffer().DrawCount(); got != 3 {
		t.Errorf("DrawCount after state machine reset: got %v, want 3", got)
	}
}

func TestDisposeFromSequenceListener(t *testing.T) {
	var order []string
	var av Avatar
	av = NewAvatar(riggedFigure(), figureClips(),
		WithPlatform(animator.PlatformMobile),
		WithOnSequenceComplete(func() { av.Dispose() }),
	)
	av.OnDispose(func() { order = append(order, "instances") })
	av.OnDispose(func() { order = append(order, "pipeline") })

	av.SetActiveClip("exit")
	if err := av.Update(1, nil); err != nil {
		t.Fatalf("Update: %v", err)
	}

	if !av.Disposed() || !av.Buffer().Disposed() || !av.Tracker().Closed() {
		t.Fatal("listener Dispose: avatar, buffer, or tracker still live")
	}
	if len(order) != 2 || order[0] != "pipeline" || order[1] != "instances" {
		t.Errorf("release order: got %v, want [pipeline instances]", order)
	}
	if err := av.Update(0.016, nil); !errors.Is(err, particle.ErrBufferDisposed) {
		t.Errorf("Update after Dispose: got %v, want ErrBufferDisposed", err)
	}

	released := false
	av.OnDispose(func() { released = true })
	if !released {
		t.Error("OnDispose after Dispose: release not run immediately")
	}
}

func TestEmptyMeshIsNothingToDraw(t *testing.T) {
	av := NewAvatar(nil, nil)
	if err := av.Update(0.016, nil); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if av.Buffer().Len() != 0 || av.Buffer().DrawCount() != 0 {
		t.Errorf("empty avatar: got %d particles, %d draws", av.Buffer().Len(), av.Buffer().DrawCount())
	}
}
