package animator

import (
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-avatar/engine/model"
)

func approxEqual(a, b, eps float32) bool {
	return float32(math.Abs(float64(a-b))) <= eps
}

// clip builds a clip that moves bone 0 along +X from 0 to x over its duration.
func clip(name string, duration, x float32) *model.AnimationClip {
	return &model.AnimationClip{
		Name:     name,
		Duration: duration,
		Channels: []model.AnimationChannel{{
			BoneIndex: 0,
			PositionKeys: []model.VectorKeyframe{
				{Time: 0, Value: [3]float32{0, 0, 0}},
				{Time: duration, Value: [3]float32{x, 0, 0}},
			},
		}},
	}
}

func avatarClips() []*model.AnimationClip {
	return []*model.AnimationClip{
		clip("idle1", 2, 0),
		clip("loading_anim", 2, 1),
		clip("exit", 1, 2),
		clip("talk1", 1, 3),
		clip("talk2", 1, 4),
		clip("talk3", 1, 5),
	}
}

func TestRegistryResolve(t *testing.T) {
	r := NewClipRegistry(avatarClips()...)
	tests := []struct {
		requested string
		want      string
	}{
		{"talk2", "talk2"},
		{"idle", "idle1"},
		{"loading", "loading_anim"},
		{"talk-2", "talk2"},
		{"Talk_3", "talk3"},
		{"exit", "exit"},
		{"dance", "idle1"},
		{"", "idle1"},
	}
	for _, tt := range tests {
		t.Run(tt.requested, func(t *testing.T) {
			got := r.Resolve(tt.requested)
			if got == nil || got.Name != tt.want {
				t.Errorf("Resolve(%q): got %v, want %q", tt.requested, got, tt.want)
			}
		})
	}
}

func TestRegistryCategoryVariant(t *testing.T) {
	r := NewClipRegistry(
		clip("Armature|Idle", 1, 0),
		clip("Armature|Talk_Anim_1", 1, 0),
		clip("Armature|Talk_Anim_2", 1, 0),
	)
	if got := r.Resolve("talk-2"); got == nil || got.Name != "Armature|Talk_Anim_2" {
		t.Errorf("Resolve(talk-2): got %v, want Armature|Talk_Anim_2", got)
	}
}

func TestRegistryEmptyAndReplace(t *testing.T) {
	r := NewClipRegistry()
	if got := r.Resolve("idle"); got != nil {
		t.Errorf("Resolve on empty registry: got %v, want nil", got)
	}

	first := clip("idle", 1, 0)
	second := clip("idle", 3, 0)
	r.Register(first, nil, second)
	if r.Len() != 1 {
		t.Fatalf("Len: got %d, want 1", r.Len())
	}
	if got, ok := r.Lookup("idle"); !ok || got != second {
		t.Errorf("Lookup: got %v, want replaced clip", got)
	}
}

func TestInitialStateIsLoopingIdle(t *testing.T) {
	sm := NewStateMachine(NewClipRegistry(avatarClips()...))
	st := sm.State()
	if st.ActiveClip != "idle1" || st.OneShot || st.Blending || st.PendingCallback || !st.ParticlesEnabled {
		t.Fatalf("initial state: got %+v", st)
	}
	w := sm.Weights()
	if len(w) != 1 || w[0].Weight != 1 {
		t.Errorf("initial weights: got %v, want [idle1:1]", w)
	}

	// Idle wraps instead of completing.
	sm.Update(2.5)
	st = sm.State()
	if st.ActiveClip != "idle1" || !approxEqual(st.Time, 0.5, 1e-5) {
		t.Errorf("idle after 2.5s: got %+v, want idle1 at 0.5", st)
	}
}

func TestCrossfadeHalfway(t *testing.T) {
	sm := NewStateMachine(NewClipRegistry(avatarClips()...))
	sm.SetActiveClip("talk2")
	sm.Update(0.15)

	w := sm.Weights()
	if len(w) != 2 {
		t.Fatalf("weights during crossfade: got %v, want two entries", w)
	}
	if w[0].Name != "talk2" || w[1].Name != "idle1" {
		t.Errorf("weight names: got %v, want talk2 then idle1", w)
	}
	for _, cw := range w {
		if !approxEqual(cw.Weight, 0.5, 1e-4) {
			t.Errorf("weight of %s at t=0.15: got %v, want 0.5", cw.Name, cw.Weight)
		}
	}
}

func TestCrossfadeWeightConservation(t *testing.T) {
	sm := NewStateMachine(NewClipRegistry(avatarClips()...))
	sm.SetActiveClip("talk1")

	for i := 0; i < 40; i++ {
		sm.Update(0.01)
		w := sm.Weights()
		var sum float32
		for _, cw := range w {
			sum += cw.Weight
		}
		if !approxEqual(sum, 1, 1e-5) {
			t.Fatalf("step %d: weight sum got %v, want 1 (%v)", i, sum, w)
		}
		if sm.State().Blending && len(w) != 2 {
			t.Fatalf("step %d: got %d weights while blending, want 2", i, len(w))
		}
	}
	if sm.State().Blending {
		t.Error("crossfade still running after 0.4s, want finished")
	}
}

func TestInterruptedCrossfadeKeepsWeights(t *testing.T) {
	sm := NewStateMachine(NewClipRegistry(avatarClips()...))
	sm.SetActiveClip("talk1")
	sm.Update(0.15)
	sm.SetActiveClip("loading")

	weightsOf := func() map[string]float32 {
		got := make(map[string]float32)
		var sum float32
		for _, cw := range sm.Weights() {
			got[cw.Name] += cw.Weight
			sum += cw.Weight
		}
		if !approxEqual(sum, 1, 1e-5) {
			t.Fatalf("weight sum: got %v, want 1", sum)
		}
		return got
	}

	tests := []struct {
		name string
		step float32
		want map[string]float32
	}{
		{"at request", 0, map[string]float32{"loading_anim": 0, "talk1": 0.5, "idle1": 0.5}},
		{"halfway", 0.15, map[string]float32{"loading_anim": 0.5, "talk1": 0.25, "idle1": 0.25}},
		{"done", 0.2, map[string]float32{"loading_anim": 1}},
	}
	for _, tt := range tests {
		sm.Update(tt.step)
		got := weightsOf()
		if len(got) != len(tt.want) {
			t.Errorf("%s: got %v, want %v", tt.name, got, tt.want)
			continue
		}
		for name, want := range tt.want {
			if !approxEqual(got[name], want, 1e-4) {
				t.Errorf("%s: weight of %s got %v, want %v", tt.name, name, got[name], want)
			}
		}
	}
}

func TestRequestActiveClipIsNoop(t *testing.T) {
	sm := NewStateMachine(NewClipRegistry(avatarClips()...))
	sm.SetActiveClip("talk1")
	sm.Update(0.5)
	before := sm.State()

	sm.SetActiveClip("talk1")
	after := sm.State()
	if after.Time != before.Time || after.ActiveClip != "talk1" {
		t.Errorf("re-request of playing clip: got %+v, want unchanged %+v", after, before)
	}

	sm.SetActiveClip("idle")
	if sm.State().ActiveClip != "idle1" || !sm.State().Blending {
		t.Errorf("switch back to idle: got %+v", sm.State())
	}
}

func TestOneShotCompletionFiresOnceDesktop(t *testing.T) {
	var calls, finished int
	var finishedName string
	sm := NewStateMachine(NewClipRegistry(avatarClips()...),
		WithOnClipFinished(func(name string) {
			finished++
			finishedName = name
		}),
	)
	sm.SetActiveClipWithCallback("talk-2", func() { calls++ })
	if !sm.State().PendingCallback {
		t.Fatal("PendingCallback: got false, want true")
	}

	for i := 0; i < 10; i++ {
		sm.Update(0.25)
	}

	if calls != 1 {
		t.Errorf("completion callback calls: got %d, want 1", calls)
	}
	if finished != 1 || finishedName != "talk-2" {
		t.Errorf("clip finished listener: got %d calls (%q), want 1 (talk-2)", finished, finishedName)
	}
	st := sm.State()
	if st.ActiveClip != "idle1" || st.OneShot || st.PendingCallback {
		t.Errorf("state after completion: got %+v, want idle", st)
	}
}

func TestMissingClipFallbackStillCompletes(t *testing.T) {
	var calls int
	sm := NewStateMachine(NewClipRegistry(clip("idle", 1, 0)))
	sm.SetActiveClipWithCallback("loading", func() { calls++ })

	st := sm.State()
	if st.ActiveClip != "idle" || !st.OneShot || !st.PendingCallback {
		t.Fatalf("state after fallback request: got %+v, want one-shot idle with callback", st)
	}
	for i := 0; i < 10; i++ {
		sm.Update(0.5)
	}
	if calls != 1 {
		t.Errorf("completion callback calls: got %v, want 1", calls)
	}
	if st := sm.State(); st.OneShot || st.PendingCallback {
		t.Errorf("state after completion: got %+v, want looping idle", st)
	}
}

func TestInterruptedCallbackIsDiscarded(t *testing.T) {
	var first, second int
	sm := NewStateMachine(NewClipRegistry(avatarClips()...))
	sm.SetActiveClipWithCallback("talk1", func() { first++ })
	sm.Update(0.5)
	sm.SetActiveClipWithCallback("talk3", func() { second++ })
	for i := 0; i < 8; i++ {
		sm.Update(0.25)
	}
	if first != 0 || second != 1 {
		t.Errorf("callbacks: got first=%d second=%d, want 0 and 1", first, second)
	}
}

func TestCallbackMayRequestNextClip(t *testing.T) {
	var sm StateMachine
	sm = NewStateMachine(NewClipRegistry(avatarClips()...))
	sm.SetActiveClipWithCallback("talk1", func() { sm.SetActiveClip("talk3") })
	sm.Update(0.6)
	sm.Update(0.6)

	if got := sm.State().ActiveClip; got != "talk3" {
		t.Errorf("active clip after callback request: got %q, want talk3", got)
	}
}

func TestDesktopLoadingReturnsToIdle(t *testing.T) {
	var sequence int
	sm := NewStateMachine(NewClipRegistry(avatarClips()...),
		WithPlatform(PlatformDesktop),
		WithOnSequenceComplete(func() { sequence++ }),
	)
	sm.SetActiveClip("loading")
	sm.Update(1)
	sm.Update(1)

	if got := sm.State().ActiveClip; got != "idle1" {
		t.Errorf("desktop after loading: got %q, want idle1", got)
	}
	if sequence != 0 {
		t.Errorf("sequence complete on desktop: got %d calls, want 0", sequence)
	}
}

func TestMobileLoadingExitChain(t *testing.T) {
	var calls, sequence int
	sm := NewStateMachine(NewClipRegistry(avatarClips()...),
		WithPlatform(PlatformMobile),
		WithOnSequenceComplete(func() { sequence++ }),
	)
	sm.SetActiveClipWithCallback("loading", func() { calls++ })
	sm.Update(1)
	sm.Update(1)

	if calls != 1 {
		t.Fatalf("loading callback: got %d calls, want 1", calls)
	}
	st := sm.State()
	if st.ActiveClip != "exit" || !st.OneShot || !st.Blending {
		t.Fatalf("state after loading on mobile: got %+v, want exit crossfading in", st)
	}
	if sequence != 0 || !st.ParticlesEnabled {
		t.Fatalf("sequence fired early: sequence=%d state=%+v", sequence, st)
	}

	for i := 0; i < 10; i++ {
		sm.Update(0.5)
	}
	if sequence != 1 {
		t.Errorf("sequence complete: got %d calls, want 1", sequence)
	}
	if sm.ParticlesEnabled() {
		t.Error("ParticlesEnabled after exit: got true, want false")
	}
	if got := sm.State().ActiveClip; got != "exit" {
		t.Errorf("absorbing state clip: got %q, want exit", got)
	}

	sm.SetActiveClip("talk1")
	if got := sm.State().ActiveClip; got != "exit" {
		t.Errorf("request while disabled: got %q, want exit", got)
	}

	sm.Reset()
	st = sm.State()
	if !st.ParticlesEnabled || st.ActiveClip != "idle1" || st.Blending {
		t.Errorf("after Reset: got %+v, want enabled idle", st)
	}
}

func TestPoseBlendsClips(t *testing.T) {
	skel := model.NewSkeleton([]model.Bone{{Name: "root", ParentIndex: -1}})
	sm := NewStateMachine(NewClipRegistry(
		clip("idle", 1, 0),
		clip("talk", 1, 4),
	))
	sm.SetActiveClip("talk")
	sm.Update(0.15)
	sm.Pose(skel)

	// talk at t=0.15 is x=0.6, idle contributes x=0; weights 0.5/0.5.
	got := skel.Bones[0].LocalTransform.Translation[0]
	if !approxEqual(got, 0.3, 1e-4) {
		t.Errorf("blended translation: got %v, want 0.3", got)
	}
}

func TestInterruptedCrossfadePoseIsContinuous(t *testing.T) {
	skel := model.NewSkeleton([]model.Bone{{Name: "root", ParentIndex: -1}})
	sm := NewStateMachine(NewClipRegistry(
		clip("idle", 1, 0),
		clip("talk", 1, 4),
		clip("exit", 1, 8),
	))
	sm.SetActiveClip("talk")
	sm.Update(0.15)
	sm.Pose(skel)
	before := skel.Bones[0].LocalTransform.Translation[0]

	sm.SetActiveClip("exit")
	sm.Update(0)
	sm.Pose(skel)
	if got := skel.Bones[0].LocalTransform.Translation[0]; !approxEqual(got, before, 1e-4) {
		t.Errorf("translation after interrupting the fade: got %v, want %v", got, before)
	}
}

func TestParsePlatform(t *testing.T) {
	if ParsePlatform("Mobile") != PlatformMobile || ParsePlatform("desktop") != PlatformDesktop || ParsePlatform("?") != PlatformDesktop {
		t.Error("ParsePlatform: unexpected mapping")
	}
	if PlatformMobile.String() != "mobile" {
		t.Errorf("String: got %q, want mobile", PlatformMobile.String())
	}
}
