package particle

import "github.com/go-gl/mathgl/mgl32"

// SamplerBuilderOption is a functional option for configuring a Sampler.
type SamplerBuilderOption func(*sampler)

// WithBaseSize sets the base particle size before jitter.
//
// Parameters:
//   - size: the base size in world units
//
// Returns:
//   - SamplerBuilderOption: a function that applies the base size to a sampler
func WithBaseSize(size float32) SamplerBuilderOption {
	return func(s *sampler) {
		if size > 0 {
			s.baseSize = size
		}
	}
}

// WithSizeRange sets the multiplicative size jitter range.
//
// Parameters:
//   - min: the smallest multiplier
//   - max: the largest multiplier
//
// Returns:
//   - SamplerBuilderOption: a function that applies the range to a sampler
func WithSizeRange(min, max float32) SamplerBuilderOption {
	return func(s *sampler) {
		if min > 0 && max >= min {
			s.sizeMin, s.sizeMax = min, max
		}
	}
}

// WithOpacityRange sets the range base opacities are drawn from.
//
// Parameters:
//   - min: the lowest opacity
//   - max: the highest opacity
//
// Returns:
//   - SamplerBuilderOption: a function that applies the range to a sampler
func WithOpacityRange(min, max float32) SamplerBuilderOption {
	return func(s *sampler) {
		if min >= 0 && max <= 1 && max >= min {
			s.opacityMin, s.opacityMax = min, max
		}
	}
}

// WithPalette replaces the colour palette. An empty palette keeps the default.
//
// Parameters:
//   - colors: RGB colours in [0, 1]
//
// Returns:
//   - SamplerBuilderOption: a function that applies the palette to a sampler
func WithPalette(colors ...mgl32.Vec3) SamplerBuilderOption {
	return func(s *sampler) {
		if len(colors) > 0 {
			s.palette = append([]mgl32.Vec3(nil), colors...)
		}
	}
}

// WithSeed sets the seed for per-particle size, colour, opacity, and phase.
// Vertex selection does not depend on the seed.
//
// Parameters:
//   - seed: the random seed
//
// Returns:
//   - SamplerBuilderOption: a function that applies the seed to a sampler
func WithSeed(seed int64) SamplerBuilderOption {
	return func(s *sampler) {
		s.seed = seed
	}
}

// WithWorkers sets how many workers score selection keys for large meshes.
// Values of 1 or less score on the calling goroutine.
//
// Parameters:
//   - n: the worker count
//
// Returns:
//   - SamplerBuilderOption: a function that applies the worker count to a sampler
func WithWorkers(n int) SamplerBuilderOption {
	return func(s *sampler) {
		s.workers = n
	}
}
