package renderer

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-avatar/engine/logger"
	"github.com/Carmen-Shannon/oxy-avatar/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-avatar/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
	"go.uber.org/zap"
)

// Surface is the window-side source of the GPU surface.
type Surface interface {
	// SurfaceDescriptor returns the platform surface descriptor for WebGPU surface creation.
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// Width returns the framebuffer width in pixels.
	Width() int

	// Height returns the framebuffer height in pixels.
	Height() int
}

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	pipelineCache map[string]pipeline.Pipeline

	backendType RendererBackendType
	backend     RendererBackend

	// Pre-creation config collected from builder options
	forceFallbackAdapter bool
	pendingPresentMode   *PresentMode
	pendingMSAA          *MSAASampleCount
	clearColor           wgpu.Color

	released bool

	log *zap.Logger
}

// Renderer draws instanced particle clouds into a window surface.
//
// A frame is BeginFrame, any number of DrawInstances, EndFrame, then Present. Pipelines
// are registered once and cached by key; per-drawable GPU resources live on a
// BindGroupProvider owned by the caller.
type Renderer interface {
	// Resize reconfigures the surface for a new framebuffer size.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	Resize(width, height int)

	// SetPresentMode sets the surface present mode. A call to Resize is required for it to take effect.
	//
	// Parameters:
	//   - mode: the PresentMode to use
	SetPresentMode(mode PresentMode)

	// Pipeline retrieves the cached Pipeline associated with the given key, or nil.
	//
	// Parameters:
	//   - key: the unique identifier for the Pipeline to retrieve
	//
	// Returns:
	//   - pipeline.Pipeline: the Pipeline associated with the key, or nil if not found
	Pipeline(key string) pipeline.Pipeline

	ParticleTarget

	// EndFrame ends the current render pass and submits the command buffer to the GPU.
	EndFrame()

	// Present presents the surface to the display and releases the swapchain texture.
	Present()

	// Release frees every cached pipeline and the GPU device. Safe to call more than once.
	Release()
}

// ParticleTarget is the subset of the Renderer used to upload and draw one particle cloud.
type ParticleTarget interface {
	// RegisterPipelines creates GPU objects for each pipeline and caches it by key.
	// Pipelines whose keys are already registered are skipped.
	//
	// Parameters:
	//   - pipelines: the Pipelines to register
	//
	// Returns:
	//   - error: an error if pipeline creation fails
	RegisterPipelines(pipelines ...pipeline.Pipeline) error

	// InitInstanceBuffers creates the uniform bind group and instance buffer for a drawable.
	//
	// Parameters:
	//   - pipelineKey: the registered pipeline the resources are laid out for
	//   - provider: the provider to store the resources on
	//   - capacity: the number of instance records
	//
	// Returns:
	//   - error: an error if the pipeline is unknown or creation fails
	InitInstanceBuffers(pipelineKey string, provider bind_group_provider.BindGroupProvider, capacity int) error

	// WriteBuffers writes all staged buffer writes to the GPU queue.
	//
	// Parameters:
	//   - writes: a slice of BufferWrite structs describing the data to write
	WriteBuffers(writes []bind_group_provider.BufferWrite)

	// BeginFrame acquires the swapchain texture and begins the main render pass.
	//
	// Returns:
	//   - error: an error if the swapchain texture could not be acquired
	BeginFrame() error

	// DrawInstances encodes one instanced draw within the current render pass.
	//
	// Parameters:
	//   - pipelineKey: the registered pipeline to draw with
	//   - provider: the provider holding the bind group and instance buffer
	//   - vertexCount: vertices per instance
	//   - instanceCount: the number of instances
	//
	// Returns:
	//   - error: an error if the pipeline is not found
	DrawInstances(pipelineKey string, provider bind_group_provider.BindGroupProvider, vertexCount, instanceCount uint32) error
}

var _ Renderer = &renderer{}

// NewRenderer creates a Renderer bound to the surface of a window.
//
// Parameters:
//   - backendType: the type of rendering backend to use (e.g., WGPU)
//   - surface: the window providing the surface descriptor and size
//   - options: variadic list of RendererBuilderOption functions to configure the Renderer
//
// Returns:
//   - Renderer: a new instance of Renderer configured with the specified backend and options
//   - error: an error if no adapter or device could be obtained
func NewRenderer(backendType RendererBackendType, surface Surface, options ...RendererBuilderOption) (Renderer, error) {
	r := &renderer{
		mu:            &sync.Mutex{},
		pipelineCache: make(map[string]pipeline.Pipeline),
		backendType:   backendType,
		clearColor:    wgpu.Color{R: 0, G: 0, B: 0, A: 1},
		log:           logger.Named("renderer"),
	}

	// Options first so config flags are available before the backend requests an adapter.
	for _, opt := range options {
		opt(r)
	}

	msaa := MSAA4x
	if r.pendingMSAA != nil {
		msaa = *r.pendingMSAA
	}

	var err error
	switch backendType {
	case BackendTypeWGPU:
		fallthrough
	default:
		r.backend, err = newWGPURendererBackend(surface.SurfaceDescriptor(), r.forceFallbackAdapter, msaa)
	}
	if err != nil {
		return nil, fmt.Errorf("init renderer backend: %w", err)
	}

	if r.pendingPresentMode != nil {
		r.backend.SetPresentMode(*r.pendingPresentMode)
	}
	r.backend.SetClearColor(r.clearColor)
	r.backend.ConfigureSurface(surface.Width(), surface.Height())

	r.log.Info("renderer ready",
		zap.Int("width", surface.Width()),
		zap.Int("height", surface.Height()),
		zap.Uint32("msaa", uint32(msaa)),
	)
	return r, nil
}

func (r *renderer) Resize(width, height int) {
	r.backend.ConfigureSurface(width, height)
}

func (r *renderer) SetPresentMode(mode PresentMode) {
	r.backend.SetPresentMode(mode)
}

func (r *renderer) Pipeline(key string) pipeline.Pipeline {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pipelineCache[key]
}

func (r *renderer) RegisterPipelines(pipelines ...pipeline.Pipeline) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range pipelines {
		key := p.PipelineKey()
		if _, exists := r.pipelineCache[key]; exists {
			continue
		}
		if err := r.backend.RegisterRenderPipeline(p); err != nil {
			return fmt.Errorf("register pipeline %q: %w", key, err)
		}
		r.pipelineCache[key] = p
		r.log.Debug("pipeline registered", zap.String("key", key))
	}
	return nil
}

func (r *renderer) InitInstanceBuffers(pipelineKey string, provider bind_group_provider.BindGroupProvider, capacity int) error {
	r.mu.Lock()
	p, exists := r.pipelineCache[pipelineKey]
	r.mu.Unlock()

	if !exists {
		return fmt.Errorf("render pipeline %q not found in cache", pipelineKey)
	}
	return r.backend.InitInstanceBuffers(p, provider, capacity)
}

func (r *renderer) WriteBuffers(writes []bind_group_provider.BufferWrite) {
	r.backend.WriteBuffers(writes)
}

func (r *renderer) BeginFrame() error {
	return r.backend.BeginFrame()
}

func (r *renderer) DrawInstances(pipelineKey string, provider bind_group_provider.BindGroupProvider, vertexCount, instanceCount uint32) error {
	r.mu.Lock()
	p, exists := r.pipelineCache[pipelineKey]
	r.mu.Unlock()

	if !exists {
		return fmt.Errorf("render pipeline %q not found in cache", pipelineKey)
	}

	r.backend.DrawInstances(p, provider, vertexCount, instanceCount)
	return nil
}

func (r *renderer) EndFrame() {
	r.backend.EndFrame()
}

func (r *renderer) Present() {
	r.backend.Present()
}

func (r *renderer) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.released {
		return
	}
	r.released = true
	for key, p := range r.pipelineCache {
		p.Release()
		delete(r.pipelineCache, key)
	}
	r.backend.Release()
	r.log.Debug("renderer released")
}
