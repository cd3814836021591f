package avatar

import (
	"github.com/Carmen-Shannon/oxy-avatar/engine/animator"
	"github.com/Carmen-Shannon/oxy-avatar/engine/particle"
	"github.com/Carmen-Shannon/oxy-avatar/engine/pointer"
	"github.com/go-gl/mathgl/mgl32"
)

// AvatarBuilderOption is a functional option for configuring an Avatar.
type AvatarBuilderOption func(*avatarImpl)

// WithPlatform selects the completion policy and the default particle offset.
//
// Parameters:
//   - p: the platform
//
// Returns:
//   - AvatarBuilderOption: a function that applies the platform to an avatar
func WithPlatform(p animator.Platform) AvatarBuilderOption {
	return func(a *avatarImpl) {
		a.platform = p
	}
}

// WithDensity sets the fraction of mesh vertices turned into particles.
//
// Parameters:
//   - density: the sampling density in (0, 1]
//
// Returns:
//   - AvatarBuilderOption: a function that applies the density to an avatar
func WithDensity(density float32) AvatarBuilderOption {
	return func(a *avatarImpl) {
		a.density = density
	}
}

// WithOffset overrides the per-instance particle offset.
//
// Parameters:
//   - offset: the offset added to every particle position
//
// Returns:
//   - AvatarBuilderOption: a function that applies the offset to an avatar
func WithOffset(offset mgl32.Vec3) AvatarBuilderOption {
	return func(a *avatarImpl) {
		a.offset = offset
		a.offsetSet = true
	}
}

// WithPosition places the avatar root in the world.
//
// Parameters:
//   - position: the world translation
//
// Returns:
//   - AvatarBuilderOption: a function that applies the position to an avatar
func WithPosition(position mgl32.Vec3) AvatarBuilderOption {
	return func(a *avatarImpl) {
		a.position = position
	}
}

// WithGroupMatrix sets the particle group's transform relative to the avatar root when the
// particle cloud is nested under a different node than the mesh.
//
// Parameters:
//   - m: the group matrix
//
// Returns:
//   - AvatarBuilderOption: a function that applies the group matrix to an avatar
func WithGroupMatrix(m mgl32.Mat4) AvatarBuilderOption {
	return func(a *avatarImpl) {
		a.groupInverse = m.Inv()
	}
}

// WithBreathing toggles the idle breathing scale.
//
// Parameters:
//   - enabled: true to breathe
//
// Returns:
//   - AvatarBuilderOption: a function that applies the flag to an avatar
func WithBreathing(enabled bool) AvatarBuilderOption {
	return func(a *avatarImpl) {
		a.breathing = enabled
	}
}

// WithHeadTracking toggles aiming the head bone at the pointer.
//
// Parameters:
//   - enabled: true to track
//
// Returns:
//   - AvatarBuilderOption: a function that applies the flag to an avatar
func WithHeadTracking(enabled bool) AvatarBuilderOption {
	return func(a *avatarImpl) {
		a.headTracking = enabled
	}
}

// WithRepulsion toggles the pointer repulsion field.
//
// Parameters:
//   - enabled: true to repel particles
//
// Returns:
//   - AvatarBuilderOption: a function that applies the flag to an avatar
func WithRepulsion(enabled bool) AvatarBuilderOption {
	return func(a *avatarImpl) {
		a.repulsion = enabled
	}
}

// WithSamplerOptions forwards options to the vertex sampler.
//
// Parameters:
//   - opts: sampler options
//
// Returns:
//   - AvatarBuilderOption: a function that records the options on an avatar
func WithSamplerOptions(opts ...particle.SamplerBuilderOption) AvatarBuilderOption {
	return func(a *avatarImpl) {
		a.samplerOpts = append(a.samplerOpts, opts...)
	}
}

// WithRenderBufferOptions forwards options to the particle render buffer.
//
// Parameters:
//   - opts: render buffer options
//
// Returns:
//   - AvatarBuilderOption: a function that records the options on an avatar
func WithRenderBufferOptions(opts ...particle.RenderBufferBuilderOption) AvatarBuilderOption {
	return func(a *avatarImpl) {
		a.bufferOpts = append(a.bufferOpts, opts...)
	}
}

// WithTrackerOptions forwards options to the pointer tracker.
//
// Parameters:
//   - opts: tracker options
//
// Returns:
//   - AvatarBuilderOption: a function that records the options on an avatar
func WithTrackerOptions(opts ...pointer.TrackerBuilderOption) AvatarBuilderOption {
	return func(a *avatarImpl) {
		a.trackerOpts = append(a.trackerOpts, opts...)
	}
}

// WithStateMachineOptions forwards options to the animation state machine.
//
// Parameters:
//   - opts: state machine options
//
// Returns:
//   - AvatarBuilderOption: a function that records the options on an avatar
func WithStateMachineOptions(opts ...animator.StateMachineBuilderOption) AvatarBuilderOption {
	return func(a *avatarImpl) {
		a.animatorOpts = append(a.animatorOpts, opts...)
	}
}

// WithOnClipFinished registers the host's clip-finished listener.
//
// Parameters:
//   - fn: called with the requested name of each completed one-shot clip
//
// Returns:
//   - AvatarBuilderOption: a function that applies the listener to an avatar
func WithOnClipFinished(fn func(name string)) AvatarBuilderOption {
	return func(a *avatarImpl) {
		a.onFinished = fn
	}
}

// WithOnSequenceComplete registers the host's listener for the end of the mobile exit sequence.
//
// Parameters:
//   - fn: called once when particles are disabled after exit
//
// Returns:
//   - AvatarBuilderOption: a function that applies the listener to an avatar
func WithOnSequenceComplete(fn func()) AvatarBuilderOption {
	return func(a *avatarImpl) {
		a.onSequenceEnd = fn
	}
}
