package particle

// RenderBufferBuilderOption is a functional option for configuring a RenderBuffer.
type RenderBufferBuilderOption func(*renderBuffer)

// WithJitterAmplitude sets the ambient position jitter amplitude. Zero disables jitter.
//
// Parameters:
//   - amplitude: the maximum offset in world units at phase 1
//
// Returns:
//   - RenderBufferBuilderOption: a function that applies the amplitude to a render buffer
func WithJitterAmplitude(amplitude float32) RenderBufferBuilderOption {
	return func(b *renderBuffer) {
		if amplitude >= 0 {
			b.jitter = amplitude
		}
	}
}

// WithPulseDepth sets how far opacity dips during the pulse. Zero disables the pulse.
//
// Parameters:
//   - depth: the pulse depth in [0, 1]
//
// Returns:
//   - RenderBufferBuilderOption: a function that applies the depth to a render buffer
func WithPulseDepth(depth float32) RenderBufferBuilderOption {
	return func(b *renderBuffer) {
		if depth >= 0 && depth <= 1 {
			b.pulse = depth
		}
	}
}

// WithPointScale sets the size-to-pixels factor used for distance attenuation.
//
// Parameters:
//   - scale: the attenuation factor
//
// Returns:
//   - RenderBufferBuilderOption: a function that applies the scale to a render buffer
func WithPointScale(scale float32) RenderBufferBuilderOption {
	return func(b *renderBuffer) {
		if scale > 0 {
			b.uniforms.PointScale = scale
		}
	}
}
