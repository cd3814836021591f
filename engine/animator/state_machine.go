package animator

import (
	"strings"
	"sync"

	"github.com/Carmen-Shannon/oxy-avatar/engine/logger"
	"github.com/Carmen-Shannon/oxy-avatar/engine/model"
	"go.uber.org/zap"
)

// Clip categories recognised by the state machine.
const (
	CategoryIdle    = "idle"
	CategoryLoading = "loading"
	CategoryExit    = "exit"
	CategoryTalk    = "talk"
)

// DefaultCrossfadeDuration is the crossfade length in seconds.
const DefaultCrossfadeDuration float32 = 0.3

// Platform selects the completion policy for one-shot clips.
type Platform int

const (
	// PlatformDesktop returns to idle after any one-shot clip.
	PlatformDesktop Platform = iota

	// PlatformMobile (centered avatar placement) chains loading into exit, and after exit
	// disables the particles and reports the sequence as complete.
	PlatformMobile
)

// String returns the config name of the platform.
func (p Platform) String() string {
	if p == PlatformMobile {
		return "mobile"
	}
	return "desktop"
}

// ParsePlatform maps a config string to a Platform. Unknown values map to PlatformDesktop.
//
// Parameters:
//   - s: "mobile" or "desktop"
//
// Returns:
//   - Platform: the parsed platform
func ParsePlatform(s string) Platform {
	if strings.EqualFold(strings.TrimSpace(s), "mobile") {
		return PlatformMobile
	}
	return PlatformDesktop
}

// State is a snapshot of the state machine used for inspection and tests.
type State struct {
	// ActiveClip is the name of the clip holding (or fading in to) primary weight.
	ActiveClip string

	// Requested is the name the host asked for before resolution.
	Requested string

	// Time is the active clip's time cursor in seconds.
	Time float32

	// OneShot is true when the active clip plays once and clamps to its last frame.
	OneShot bool

	// Blending is true while a crossfade is running.
	Blending bool

	// BlendProgress is the crossfade progress in [0, 1] (1 when not blending).
	BlendProgress float32

	// ParticlesEnabled is false once the mobile exit chain has completed.
	ParticlesEnabled bool

	// PendingCallback is true while a completion callback is waiting on the active clip.
	PendingCallback bool
}

// ClipWeight is the blend weight of one playing clip.
type ClipWeight struct {
	Name   string
	Weight float32
}

// StateMachine sequences animation clips: it tracks the active clip, crossfades between
// clips, detects one-shot completion, and dispatches completion events.
//
// All methods are intended to be called from the frame loop. Callbacks are invoked
// without internal locks held, so they may call back into the state machine.
type StateMachine interface {
	// SetActiveClip requests a clip by name. Requesting the clip that is already active and
	// still playing is a no-op. Requests are ignored once particles have been disabled by the
	// mobile exit chain, until Reset.
	//
	// Parameters:
	//   - name: the requested clip name (resolved through the ClipRegistry)
	SetActiveClip(name string)

	// SetActiveClipWithCallback requests a clip and registers a callback fired exactly once
	// when that one-shot clip completes. A callback still pending from an interrupted clip is
	// discarded without being called.
	//
	// Parameters:
	//   - name: the requested clip name
	//   - onComplete: the completion callback (may be nil)
	SetActiveClipWithCallback(name string, onComplete func())

	// Update advances the clip time cursors and the crossfade, and handles one-shot
	// completion. Call once per frame.
	//
	// Parameters:
	//   - deltaTime: elapsed frame time in seconds
	Update(deltaTime float32)

	// Pose writes the current (possibly blended) clip pose into a skeleton's local
	// transforms. The caller must call Skeleton.Update afterwards.
	//
	// Parameters:
	//   - skel: the skeleton to pose (nil is ignored)
	Pose(skel *model.Skeleton)

	// State returns a snapshot of the current state.
	//
	// Returns:
	//   - State: the snapshot
	State() State

	// Weights returns the blend weight of each playing clip. The weights always sum to 1.
	// A crossfade interrupted by another request keeps its clips fading out at the weights
	// they had, so a clip can appear alongside more than one outgoing clip.
	//
	// Returns:
	//   - []ClipWeight: the playing clips, incoming clip first
	Weights() []ClipWeight

	// ParticlesEnabled reports whether the particle overlay should be simulated and drawn.
	//
	// Returns:
	//   - bool: false in the absorbing disabled state
	ParticlesEnabled() bool

	// Reset leaves the disabled state, drops any pending callback, and returns to idle
	// without a crossfade.
	Reset()

	// Registry returns the clip registry used for name resolution.
	//
	// Returns:
	//   - ClipRegistry: the registry
	Registry() ClipRegistry

	// Platform returns the completion policy in use.
	//
	// Returns:
	//   - Platform: the platform
	Platform() Platform

	// SetOnClipFinished registers a listener invoked with the requested name of every one-shot
	// clip that completes.
	//
	// Parameters:
	//   - fn: the listener (nil to remove)
	SetOnClipFinished(fn func(name string))

	// SetOnSequenceComplete registers a listener invoked once when the mobile exit chain
	// completes and particles are disabled.
	//
	// Parameters:
	//   - fn: the listener (nil to remove)
	SetOnSequenceComplete(fn func())
}

type stateMachine struct {
	mu *sync.Mutex

	registry  ClipRegistry
	platform  Platform
	idleName  string
	crossfade float32

	mixer   mixer
	pending func()

	// generation increments on every accepted request so completion handling can tell
	// whether a callback already started another clip.
	generation uint64

	particlesEnabled bool

	onClipFinished     func(name string)
	onSequenceComplete func()

	log *zap.Logger
}

var _ StateMachine = &stateMachine{}

// NewStateMachine creates a state machine and starts the idle clip, looping, at full weight.
//
// Parameters:
//   - registry: the clip registry used to resolve names (nil creates an empty one)
//   - options: functional options
//
// Returns:
//   - StateMachine: the state machine in its initial idle state
func NewStateMachine(registry ClipRegistry, options ...StateMachineBuilderOption) StateMachine {
	if registry == nil {
		registry = NewClipRegistry()
	}
	sm := &stateMachine{
		mu:               &sync.Mutex{},
		registry:         registry,
		platform:         PlatformDesktop,
		idleName:         CategoryIdle,
		crossfade:        DefaultCrossfadeDuration,
		particlesEnabled: true,
		log:              logger.Named("animator"),
	}
	for _, opt := range options {
		opt(sm)
	}

	sm.mu.Lock()
	sm.playLocked(sm.idleName, nil, 0)
	sm.mu.Unlock()
	return sm
}

func (sm *stateMachine) SetActiveClip(name string) {
	sm.SetActiveClipWithCallback(name, nil)
}

func (sm *stateMachine) SetActiveClipWithCallback(name string, onComplete func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if !sm.particlesEnabled {
		sm.log.Debug("clip request ignored while particles are disabled", zap.String("clip", name))
		return
	}
	sm.playLocked(name, onComplete, sm.crossfade)
}

// playLocked resolves and starts a clip. Caller must hold the mutex.
func (sm *stateMachine) playLocked(name string, onComplete func(), fade float32) {
	clip := sm.registry.Resolve(name)
	if clip == nil {
		return
	}

	// Looping follows the request, so a one-shot that falls back to the idle clip still completes.
	loop := name == sm.idleName || IsIdleName(name)

	cur := sm.mixer.current
	if cur != nil && cur.clip == clip && cur.loop == loop && !cur.finished() {
		// Already active and still playing.
		if onComplete != nil && !cur.loop {
			sm.pending = onComplete
		}
		return
	}

	sm.mixer.play(newClipAction(clip, name, loop), fade)
	sm.pending = onComplete
	sm.generation++

	sm.log.Debug("clip started",
		zap.String("requested", name),
		zap.String("clip", clip.Name),
		zap.Bool("loop", loop),
		zap.Float32("crossfade", fade),
	)
}

func (sm *stateMachine) Update(deltaTime float32) {
	sm.mu.Lock()
	sm.mixer.advance(deltaTime)

	cur := sm.mixer.current
	if cur == nil || !cur.finished() || cur.completed {
		sm.mu.Unlock()
		return
	}

	cur.completed = true
	callback := sm.pending
	sm.pending = nil
	finishedListener := sm.onClipFinished
	generation := sm.generation
	name := cur.requested
	sm.mu.Unlock()

	sm.log.Debug("clip finished", zap.String("clip", name))
	if callback != nil {
		callback()
	}
	if finishedListener != nil {
		finishedListener(name)
	}

	sm.mu.Lock()
	if sm.generation != generation {
		// A listener already requested the next clip.
		sm.mu.Unlock()
		return
	}
	sequenceDone := sm.chainLocked(cur)
	sequenceListener := sm.onSequenceComplete
	sm.mu.Unlock()

	if sequenceDone && sequenceListener != nil {
		sequenceListener()
	}
}

// chainLocked applies the platform completion policy to a finished action and reports
// whether the mobile sequence completed. Caller must hold the mutex.
func (sm *stateMachine) chainLocked(done *clipAction) bool {
	if sm.platform == PlatformMobile {
		switch {
		case hasCategory(done, CategoryLoading):
			sm.playLocked(CategoryExit, nil, sm.crossfade)
			return false
		case hasCategory(done, CategoryExit):
			sm.particlesEnabled = false
			sm.log.Info("exit sequence complete, particles disabled")
			return true
		}
	}
	sm.playLocked(sm.idleName, nil, sm.crossfade)
	return false
}

func hasCategory(a *clipAction, category string) bool {
	return strings.Contains(normalizeClipName(a.requested), category) ||
		(a.clip != nil && strings.Contains(normalizeClipName(a.clip.Name), category))
}

func (sm *stateMachine) Pose(skel *model.Skeleton) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.mixer.pose(skel)
}

func (sm *stateMachine) State() State {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	st := State{
		Blending:         sm.mixer.blending,
		BlendProgress:    sm.mixer.progress(),
		ParticlesEnabled: sm.particlesEnabled,
		PendingCallback:  sm.pending != nil,
	}
	if cur := sm.mixer.current; cur != nil {
		st.ActiveClip = cur.clip.Name
		st.Requested = cur.requested
		st.Time = cur.time
		st.OneShot = !cur.loop
	}
	return st
}

func (sm *stateMachine) Weights() []ClipWeight {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	m := &sm.mixer
	if m.current == nil {
		return nil
	}
	out := []ClipWeight{{Name: m.current.clip.Name, Weight: m.currentWeight()}}
	if !m.blending {
		return out
	}
	for i, f := range m.outgoing {
		out = addClipWeight(out, f.action.clip.Name, m.outgoingWeight(i))
	}
	return out
}

// addClipWeight adds weight to the entry for name, appending one if it is not listed yet.
func addClipWeight(weights []ClipWeight, name string, weight float32) []ClipWeight {
	for i := range weights {
		if weights[i].Name == name {
			weights[i].Weight += weight
			return weights
		}
	}
	return append(weights, ClipWeight{Name: name, Weight: weight})
}

func (sm *stateMachine) ParticlesEnabled() bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.particlesEnabled
}

func (sm *stateMachine) Reset() {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.particlesEnabled = true
	sm.pending = nil
	sm.mixer = mixer{}
	sm.playLocked(sm.idleName, nil, 0)
}

func (sm *stateMachine) Registry() ClipRegistry {
	return sm.registry
}

func (sm *stateMachine) Platform() Platform {
	return sm.platform
}

func (sm *stateMachine) SetOnClipFinished(fn func(name string)) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.onClipFinished = fn
}

func (sm *stateMachine) SetOnSequenceComplete(fn func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.onSequenceComplete = fn
}
