package pipeline

import (
	"sync"

	"github.com/cogentcore/webgpu/wgpu"
)

// Default WGSL entry points.
const (
	DefaultVertexEntryPoint   = "vs_main"
	DefaultFragmentEntryPoint = "fs_main"
)

// pipeline is the implementation of the Pipeline interface.
type pipeline struct {
	mu *sync.Mutex

	// pipelineKey is the unique identifier for this pipeline, used for caching and lookups
	pipelineKey string

	// source holds the WGSL module shared by the vertex and fragment stages.
	source        string
	vertexEntry   string
	fragmentEntry string

	// instanceLayout describes the per-instance vertex buffer bound at slot 0.
	instanceLayout wgpu.VertexBufferLayout

	// uniformSize is the byte size of the group 0, binding 0 uniform block.
	uniformSize uint64

	blendEnabled bool
	blendState   *wgpu.BlendState
	cullMode     wgpu.CullMode
	topology     wgpu.PrimitiveTopology
	frontFace    wgpu.FrontFace
	writeMask    wgpu.ColorWriteMask

	// renderPipeline is populated by the renderer backend on registration.
	renderPipeline *wgpu.RenderPipeline
	// layout is the uniform bind group layout created alongside the render pipeline.
	layout *wgpu.BindGroupLayout
}

// Pipeline describes a single render pipeline: its WGSL source, instance vertex layout, and
// fixed-function state. The renderer backend creates the GPU objects from it and stores them
// back via SetRenderPipeline.
type Pipeline interface {
	// PipelineKey returns the unique key associated with this pipeline, used for caching and lookups.
	//
	// Returns:
	//   - string: the unique key for this pipeline
	PipelineKey() string

	// ShaderSource returns the WGSL module source.
	//
	// Returns:
	//   - string: the WGSL code
	ShaderSource() string

	// VertexEntryPoint returns the vertex stage entry point name.
	VertexEntryPoint() string

	// FragmentEntryPoint returns the fragment stage entry point name.
	FragmentEntryPoint() string

	// InstanceLayout returns the per-instance vertex buffer layout.
	//
	// Returns:
	//   - wgpu.VertexBufferLayout: the layout with StepMode set to instance
	InstanceLayout() wgpu.VertexBufferLayout

	// UniformSize returns the byte size of the uniform block at group 0, binding 0.
	//
	// Returns:
	//   - uint64: the uniform buffer size, 0 when the pipeline has no uniforms
	UniformSize() uint64

	// BlendEnabled returns whether blending is enabled for this pipeline.
	BlendEnabled() bool

	// BlendState returns the blend state configured for this pipeline.
	//
	// Returns:
	//   - *wgpu.BlendState: the blend state
	BlendState() *wgpu.BlendState

	// CullMode returns the cull mode configured for this pipeline.
	CullMode() wgpu.CullMode

	// Topology returns the primitive topology configured for this pipeline.
	Topology() wgpu.PrimitiveTopology

	// FrontFace returns the front face winding configured for this pipeline.
	FrontFace() wgpu.FrontFace

	// WriteMask returns the color write mask configured for this pipeline.
	WriteMask() wgpu.ColorWriteMask

	// RenderPipeline returns the GPU render pipeline, or nil before registration.
	//
	// Returns:
	//   - *wgpu.RenderPipeline: the render pipeline or nil
	RenderPipeline() *wgpu.RenderPipeline

	// UniformLayout returns the bind group layout for the uniform block, or nil before registration.
	//
	// Returns:
	//   - *wgpu.BindGroupLayout: the layout or nil
	UniformLayout() *wgpu.BindGroupLayout

	// SetRenderPipeline stores the GPU objects created by the renderer backend.
	//
	// Parameters:
	//   - rp: the created render pipeline
	//   - layout: the uniform bind group layout
	SetRenderPipeline(rp *wgpu.RenderPipeline, layout *wgpu.BindGroupLayout)

	// Registered reports whether the GPU pipeline has been created.
	//
	// Returns:
	//   - bool: true after SetRenderPipeline with a non-nil pipeline
	Registered() bool

	// Release frees the GPU pipeline and layout. Safe to call more than once.
	Release()
}

var _ Pipeline = &pipeline{}

// NewPipeline creates a render pipeline description with standard alpha blending,
// triangle-list topology, and no culling.
//
// Parameters:
//   - pipelineKey: the unique key for this pipeline
//   - opts: a variadic list of PipelineBuilderOption functions to configure the pipeline
//
// Returns:
//   - Pipeline: a new Pipeline instance with the specified configuration
func NewPipeline(pipelineKey string, opts ...PipelineBuilderOption) Pipeline {
	p := &pipeline{
		mu:            &sync.Mutex{},
		pipelineKey:   pipelineKey,
		vertexEntry:   DefaultVertexEntryPoint,
		fragmentEntry: DefaultFragmentEntryPoint,
		blendEnabled:  true,
		cullMode:      wgpu.CullModeNone,
		topology:      wgpu.PrimitiveTopologyTriangleList,
		frontFace:     wgpu.FrontFaceCCW,
		writeMask:     wgpu.ColorWriteMaskAll,
		blendState: &wgpu.BlendState{
			Color: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorSrcAlpha,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				Operation: wgpu.BlendOperationAdd,
			},
			Alpha: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorOne,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				Operation: wgpu.BlendOperationAdd,
			},
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *pipeline) PipelineKey() string {
	return p.pipelineKey
}

func (p *pipeline) ShaderSource() string {
	return p.source
}

func (p *pipeline) VertexEntryPoint() string {
	return p.vertexEntry
}

func (p *pipeline) FragmentEntryPoint() string {
	return p.fragmentEntry
}

func (p *pipeline) InstanceLayout() wgpu.VertexBufferLayout {
	return p.instanceLayout
}

func (p *pipeline) UniformSize() uint64 {
	return p.uniformSize
}

func (p *pipeline) BlendEnabled() bool {
	return p.blendEnabled
}

func (p *pipeline) BlendState() *wgpu.BlendState {
	return p.blendState
}

func (p *pipeline) CullMode() wgpu.CullMode {
	return p.cullMode
}

func (p *pipeline) Topology() wgpu.PrimitiveTopology {
	return p.topology
}

func (p *pipeline) FrontFace() wgpu.FrontFace {
	return p.frontFace
}

func (p *pipeline) WriteMask() wgpu.ColorWriteMask {
	return p.writeMask
}

func (p *pipeline) RenderPipeline() *wgpu.RenderPipeline {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.renderPipeline
}

func (p *pipeline) UniformLayout() *wgpu.BindGroupLayout {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.layout
}

func (p *pipeline) SetRenderPipeline(rp *wgpu.RenderPipeline, layout *wgpu.BindGroupLayout) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.renderPipeline = rp
	p.layout = layout
}

func (p *pipeline) Registered() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.renderPipeline != nil
}

func (p *pipeline) Release() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.renderPipeline != nil {
		p.renderPipeline.Release()
		p.renderPipeline = nil
	}
	if p.layout != nil {
		p.layout.Release()
		p.layout = nil
	}
}
