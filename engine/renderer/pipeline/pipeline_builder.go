package pipeline

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// PipelineBuilderOption is a functional option used to configure a Pipeline during construction.
type PipelineBuilderOption func(*pipeline)

// WithShaderSource sets the WGSL module used by both stages.
//
// Parameters:
//   - source: the WGSL code
//
// Returns:
//   - PipelineBuilderOption: a function that sets the shader source for this pipeline
func WithShaderSource(source string) PipelineBuilderOption {
	return func(p *pipeline) {
		p.source = source
	}
}

// WithEntryPoints overrides the vertex and fragment entry point names.
//
// Parameters:
//   - vertex: the vertex stage entry point
//   - fragment: the fragment stage entry point
//
// Returns:
//   - PipelineBuilderOption: a function that sets the entry points for this pipeline
func WithEntryPoints(vertex, fragment string) PipelineBuilderOption {
	return func(p *pipeline) {
		if vertex != "" {
			p.vertexEntry = vertex
		}
		if fragment != "" {
			p.fragmentEntry = fragment
		}
	}
}

// WithInstanceLayout sets the per-instance vertex buffer layout. Attributes are assigned
// shader locations in the order given.
//
// Parameters:
//   - stride: the byte size of one instance record
//   - attributes: the attribute formats and offsets
//
// Returns:
//   - PipelineBuilderOption: a function that sets the instance layout for this pipeline
func WithInstanceLayout(stride uint64, attributes ...wgpu.VertexAttribute) PipelineBuilderOption {
	return func(p *pipeline) {
		attrs := make([]wgpu.VertexAttribute, len(attributes))
		for i, a := range attributes {
			a.ShaderLocation = uint32(i)
			attrs[i] = a
		}
		p.instanceLayout = wgpu.VertexBufferLayout{
			ArrayStride: stride,
			StepMode:    wgpu.VertexStepModeInstance,
			Attributes:  attrs,
		}
	}
}

// WithUniformSize sets the byte size of the uniform block at group 0, binding 0.
//
// Parameters:
//   - size: the uniform buffer size in bytes
//
// Returns:
//   - PipelineBuilderOption: a function that sets the uniform size for this pipeline
func WithUniformSize(size uint64) PipelineBuilderOption {
	return func(p *pipeline) {
		p.uniformSize = size
	}
}

// WithBlendEnabled enables or disables blending for this pipeline.
//
// Parameters:
//   - enabled: true to enable blending, false to disable
//
// Returns:
//   - PipelineBuilderOption: a function that sets the blend enabled flag for this pipeline
func WithBlendEnabled(enabled bool) PipelineBuilderOption {
	return func(p *pipeline) {
		p.blendEnabled = enabled
	}
}

// WithBlendState sets a custom blend state and enables blending.
//
// Parameters:
//   - blendState: the blend state to use for this pipeline
//
// Returns:
//   - PipelineBuilderOption: a function that sets the blend state for this pipeline
func WithBlendState(blendState *wgpu.BlendState) PipelineBuilderOption {
	return func(p *pipeline) {
		p.blendState = blendState
		p.blendEnabled = blendState != nil
	}
}

// WithAdditiveBlending accumulates source color weighted by alpha onto the target, so
// overlapping particles brighten instead of occluding each other.
//
// Returns:
//   - PipelineBuilderOption: a function that sets additive blending for this pipeline
func WithAdditiveBlending() PipelineBuilderOption {
	return WithBlendState(&wgpu.BlendState{
		Color: wgpu.BlendComponent{
			SrcFactor: wgpu.BlendFactorSrcAlpha,
			DstFactor: wgpu.BlendFactorOne,
			Operation: wgpu.BlendOperationAdd,
		},
		Alpha: wgpu.BlendComponent{
			SrcFactor: wgpu.BlendFactorZero,
			DstFactor: wgpu.BlendFactorOne,
			Operation: wgpu.BlendOperationAdd,
		},
	})
}

// WithCullMode sets the cull mode for this pipeline.
//
// Parameters:
//   - cullMode: the cull mode to use (e.g., wgpu.CullModeNone, wgpu.CullModeBack)
//
// Returns:
//   - PipelineBuilderOption: a function that sets the cull mode for this pipeline
func WithCullMode(cullMode wgpu.CullMode) PipelineBuilderOption {
	return func(p *pipeline) {
		p.cullMode = cullMode
	}
}

// WithTopology sets the primitive topology for this pipeline.
//
// Parameters:
//   - topology: the primitive topology to use
//
// Returns:
//   - PipelineBuilderOption: a function that sets the topology for this pipeline
func WithTopology(topology wgpu.PrimitiveTopology) PipelineBuilderOption {
	return func(p *pipeline) {
		p.topology = topology
	}
}

// WithWriteMask sets the color write mask for this pipeline.
//
// Parameters:
//   - writeMask: the color write mask to use
//
// Returns:
//   - PipelineBuilderOption: a function that sets the write mask for this pipeline
func WithWriteMask(writeMask wgpu.ColorWriteMask) PipelineBuilderOption {
	return func(p *pipeline) {
		p.writeMask = writeMask
	}
}
