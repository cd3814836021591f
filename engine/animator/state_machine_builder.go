package animator

// StateMachineBuilderOption is a functional option for configuring a StateMachine during construction.
type StateMachineBuilderOption func(*stateMachine)

// WithPlatform is an option builder that selects the one-shot completion policy.
//
// Parameters:
//   - platform: PlatformDesktop or PlatformMobile
//
// Returns:
//   - StateMachineBuilderOption: a function that applies the platform option
func WithPlatform(platform Platform) StateMachineBuilderOption {
	return func(sm *stateMachine) {
		sm.platform = platform
	}
}

// WithCrossfadeDuration is an option builder that sets the crossfade length in seconds.
// Non-positive values make clip switches instantaneous.
//
// Parameters:
//   - seconds: the crossfade duration
//
// Returns:
//   - StateMachineBuilderOption: a function that applies the crossfade option
func WithCrossfadeDuration(seconds float32) StateMachineBuilderOption {
	return func(sm *stateMachine) {
		sm.crossfade = seconds
	}
}

// WithIdleClip is an option builder that sets the name requested for the resting state.
//
// Parameters:
//   - name: the idle clip name (resolved through the registry)
//
// Returns:
//   - StateMachineBuilderOption: a function that applies the idle clip option
func WithIdleClip(name string) StateMachineBuilderOption {
	return func(sm *stateMachine) {
		if name != "" {
			sm.idleName = name
		}
	}
}

// WithOnClipFinished is an option builder that registers the clip-finished listener.
//
// Parameters:
//   - fn: listener receiving the requested name of each completed one-shot clip
//
// Returns:
//   - StateMachineBuilderOption: a function that applies the listener
func WithOnClipFinished(fn func(name string)) StateMachineBuilderOption {
	return func(sm *stateMachine) {
		sm.onClipFinished = fn
	}
}

// WithOnSequenceComplete is an option builder that registers the sequence-complete listener
// fired when the mobile exit chain finishes.
//
// Parameters:
//   - fn: the listener
//
// Returns:
//   - StateMachineBuilderOption: a function that applies the listener
func WithOnSequenceComplete(fn func()) StateMachineBuilderOption {
	return func(sm *stateMachine) {
		sm.onSequenceComplete = fn
	}
}
