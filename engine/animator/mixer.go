package animator

import (
	"math"

	"github.com/Carmen-Shannon/oxy-avatar/engine/model"
)

// clipAction tracks playback of a single clip.
// This is CPU-side state only; it holds the time cursor, looping mode, and whether the
// one-shot completion for this play has already been handled.
type clipAction struct {
	clip      *model.AnimationClip
	requested string
	time      float32
	speed     float32
	loop      bool
	completed bool
}

func newClipAction(clip *model.AnimationClip, requested string, loop bool) *clipAction {
	return &clipAction{
		clip:      clip,
		requested: requested,
		speed:     1.0,
		loop:      loop,
	}
}

func (a *clipAction) duration() float32 {
	if a == nil || a.clip == nil {
		return 0
	}
	return a.clip.Duration
}

// advance moves the time cursor. Looping clips wrap; one-shot clips clamp to their last frame.
func (a *clipAction) advance(deltaTime float32) {
	a.time += deltaTime * a.speed
	d := a.duration()
	if d <= 0 {
		return
	}
	if a.loop {
		if a.time >= d {
			a.time = float32(math.Mod(float64(a.time), float64(d)))
		}
		return
	}
	if a.time > d {
		a.time = d
	}
}

// finished reports whether a one-shot action has reached its clip duration.
func (a *clipAction) finished() bool {
	return a != nil && !a.loop && a.time >= a.duration()
}

// fadingAction is an outgoing action and its share of the outgoing weight.
type fadingAction struct {
	action *clipAction
	share  float32
}

// minFadeShare is the outgoing share below which an action is dropped from a fade.
const minFadeShare = 1e-3

// mixer owns the active action and, during a crossfade, the outgoing ones.
// Incoming weight is p = elapsed/duration and the outgoing actions split 1-p by their
// shares, so all weights always sum to 1.
type mixer struct {
	current  *clipAction
	outgoing []fadingAction

	blending      bool
	blendDuration float32
	blendElapsed  float32

	rest    model.Pose
	sampled model.Pose
	blended model.Pose
}

// play switches to an action. With a current action and a positive duration the switch
// crossfades; otherwise the new action takes full weight immediately. A fade already in
// progress is carried over: its actions keep their current weights as the outgoing blend.
func (m *mixer) play(next *clipAction, fadeDuration float32) {
	if m.current == nil || fadeDuration <= 0 {
		m.current = next
		m.outgoing = m.outgoing[:0]
		m.blending = false
		m.blendElapsed = 0
		return
	}

	p := m.progress()
	carried := make([]fadingAction, 0, len(m.outgoing)+1)
	carried = append(carried, fadingAction{action: m.current, share: p})
	if m.blending {
		for _, f := range m.outgoing {
			carried = append(carried, fadingAction{action: f.action, share: f.share * (1 - p)})
		}
	}
	m.outgoing = pruneShares(carried)

	m.current = next
	m.blending = true
	m.blendDuration = fadeDuration
	m.blendElapsed = 0
}

// pruneShares drops negligible shares and renormalizes the rest to sum to 1.
func pruneShares(fading []fadingAction) []fadingAction {
	kept := fading[:0]
	var total float32
	for _, f := range fading {
		if f.share >= minFadeShare {
			kept = append(kept, f)
			total += f.share
		}
	}
	if total <= 0 {
		return kept
	}
	for i := range kept {
		kept[i].share /= total
	}
	return kept
}

// advance steps every action concurrently and finishes the crossfade once it completes.
func (m *mixer) advance(deltaTime float32) {
	if m.current != nil {
		m.current.advance(deltaTime)
	}
	if !m.blending {
		return
	}
	for _, f := range m.outgoing {
		f.action.advance(deltaTime)
	}
	m.blendElapsed += deltaTime
	if m.blendElapsed >= m.blendDuration {
		m.blending = false
		m.blendElapsed = 0
		m.outgoing = m.outgoing[:0]
	}
}

// progress returns the crossfade progress in [0, 1], or 1 when no fade is running.
func (m *mixer) progress() float32 {
	if !m.blending || m.blendDuration <= 0 {
		return 1
	}
	p := m.blendElapsed / m.blendDuration
	if p > 1 {
		return 1
	}
	return p
}

// currentWeight returns the incoming action's weight.
func (m *mixer) currentWeight() float32 {
	if m.current == nil {
		return 0
	}
	if !m.blending || len(m.outgoing) == 0 {
		return 1
	}
	return m.progress()
}

// outgoingWeight returns the weight of the i-th outgoing action.
func (m *mixer) outgoingWeight(i int) float32 {
	if !m.blending || i < 0 || i >= len(m.outgoing) {
		return 0
	}
	return m.outgoing[i].share * (1 - m.progress())
}

// pose samples the active actions and writes the blended pose into the skeleton's local
// transforms. The caller is responsible for calling Skeleton.Update afterwards.
func (m *mixer) pose(skel *model.Skeleton) {
	if skel == nil || m.current == nil {
		return
	}
	n := len(skel.Bones)
	if len(m.rest) != n {
		m.rest = skel.RestPose()
		m.sampled = make(model.Pose, n)
		m.blended = make(model.Pose, n)
	}

	wCur := m.currentWeight()
	if wCur >= 1 {
		model.SampleClip(m.current.clip, m.current.time, m.rest, m.blended)
		skel.ApplyPose(m.blended)
		return
	}

	// Fold the outgoing actions in one at a time, each at its fraction of the running total.
	var total float32
	for i, f := range m.outgoing {
		w := m.outgoingWeight(i)
		if total == 0 {
			model.SampleClip(f.action.clip, f.action.time, m.rest, m.blended)
			total = w
			continue
		}
		model.SampleClip(f.action.clip, f.action.time, m.rest, m.sampled)
		total += w
		model.BlendPoses(m.blended, m.sampled, w/total, m.blended)
	}
	model.SampleClip(m.current.clip, m.current.time, m.rest, m.sampled)
	if total == 0 {
		skel.ApplyPose(m.sampled)
		return
	}
	model.BlendPoses(m.blended, m.sampled, wCur, m.blended)
	skel.ApplyPose(m.blended)
}
