package pointer

// TrackerBuilderOption is a functional option for configuring a Tracker.
type TrackerBuilderOption func(*tracker)

// WithRadius sets the repulsion radius.
//
// Parameters:
//   - radius: the radius in avatar units
//
// Returns:
//   - TrackerBuilderOption: a function that applies the radius to a tracker
func WithRadius(radius float32) TrackerBuilderOption {
	return func(t *tracker) {
		if radius > 0 {
			t.radius = radius
		}
	}
}

// WithStrength sets the maximum repulsion displacement.
//
// Parameters:
//   - strength: the displacement at full falloff
//
// Returns:
//   - TrackerBuilderOption: a function that applies the strength to a tracker
func WithStrength(strength float32) TrackerBuilderOption {
	return func(t *tracker) {
		if strength >= 0 {
			t.strength = strength
		}
	}
}

// WithSizeBoost sets the maximum fractional size increase under strong repulsion.
//
// Parameters:
//   - boost: the boost at full falloff (0.4 is +40%)
//
// Returns:
//   - TrackerBuilderOption: a function that applies the boost to a tracker
func WithSizeBoost(boost float32) TrackerBuilderOption {
	return func(t *tracker) {
		if boost >= 0 {
			t.sizeBoost = boost
		}
	}
}

// WithAim sets the aim target scale and forward distance.
//
// Parameters:
//   - scale: multiplier for the normalized pointer position
//   - distance: fixed forward distance of the target
//
// Returns:
//   - TrackerBuilderOption: a function that applies the aim settings to a tracker
func WithAim(scale, distance float32) TrackerBuilderOption {
	return func(t *tracker) {
		t.aimScale = scale
		t.aimDistance = distance
	}
}
