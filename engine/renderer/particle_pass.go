package renderer

import (
	_ "embed"
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-avatar/engine/avatar"
	"github.com/Carmen-Shannon/oxy-avatar/engine/logger"
	"github.com/Carmen-Shannon/oxy-avatar/engine/particle"
	"github.com/Carmen-Shannon/oxy-avatar/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-avatar/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
	"go.uber.org/zap"
)

//go:embed shaders/particle.wgsl
var particleShaderSource string

// ParticlePipelineKey is the cache key of the particle sprite pipeline.
const ParticlePipelineKey = "avatar_particles"

const (
	particleUniformBinding = 0
	// quadVertexCount is two triangles per sprite, expanded from the vertex index in the shader.
	quadVertexCount = 6
)

// ErrBufferReleased is returned by a ParticlePass after its GPU buffers have been released.
var ErrBufferReleased = errors.New("particle GPU buffers released")

// NewParticlePipeline describes the additive sprite pipeline that draws GPUParticle instances.
//
// Parameters:
//   - opts: extra options applied after the defaults
//
// Returns:
//   - pipeline.Pipeline: the pipeline description
func NewParticlePipeline(opts ...pipeline.PipelineBuilderOption) pipeline.Pipeline {
	defaults := []pipeline.PipelineBuilderOption{
		pipeline.WithShaderSource(particleShaderSource),
		pipeline.WithAdditiveBlending(),
		pipeline.WithUniformSize(particle.GPUUniformsSize),
		pipeline.WithInstanceLayout(particle.GPUParticleStride,
			wgpu.VertexAttribute{Format: wgpu.VertexFormatFloat32x3, Offset: 0},  // position
			wgpu.VertexAttribute{Format: wgpu.VertexFormatFloat32, Offset: 12},   // size
			wgpu.VertexAttribute{Format: wgpu.VertexFormatFloat32x3, Offset: 16}, // color
			wgpu.VertexAttribute{Format: wgpu.VertexFormatFloat32, Offset: 28},   // opacity
			wgpu.VertexAttribute{Format: wgpu.VertexFormatFloat32, Offset: 32},   // phase
		),
	}
	return pipeline.NewPipeline(ParticlePipelineKey, append(defaults, opts...)...)
}

// particlePass is the implementation of the ParticlePass interface.
type particlePass struct {
	mu *sync.Mutex

	target   ParticleTarget
	buffer   particle.RenderBuffer
	provider bind_group_provider.BindGroupProvider

	released bool

	log *zap.Logger
}

// ParticlePass moves one particle render buffer onto the GPU: Sync uploads whatever the
// buffer has staged since the last frame and Draw encodes the instanced sprite draw.
type ParticlePass interface {
	// Sync uploads the buffer's staged instance and uniform writes.
	//
	// Returns:
	//   - error: ErrBufferReleased after Release
	Sync() error

	// Draw encodes the particle draw into the current frame. Draws nothing while the buffer is
	// hidden or empty.
	//
	// Returns:
	//   - error: ErrBufferReleased after Release, or the target's draw error
	Draw() error

	// Provider returns the GPU resources backing the pass.
	//
	// Returns:
	//   - bind_group_provider.BindGroupProvider: the provider
	Provider() bind_group_provider.BindGroupProvider

	// Release frees the GPU buffers. Safe to call more than once.
	Release()

	// Released reports whether Release has been called.
	//
	// Returns:
	//   - bool: true after Release
	Released() bool
}

var _ ParticlePass = &particlePass{}

// NewParticlePass registers the particle pipeline on the target (once per target) and
// allocates GPU buffers sized for the render buffer.
//
// Parameters:
//   - target: the renderer to upload to and draw with
//   - buffer: the particle render buffer to mirror
//
// Returns:
//   - ParticlePass: the pass
//   - error: an error if pipeline or buffer creation fails
func NewParticlePass(target ParticleTarget, buffer particle.RenderBuffer) (ParticlePass, error) {
	if err := target.RegisterPipelines(NewParticlePipeline()); err != nil {
		return nil, fmt.Errorf("register particle pipeline: %w", err)
	}

	provider := bind_group_provider.NewBindGroupProvider("Avatar Particles")
	if err := target.InitInstanceBuffers(ParticlePipelineKey, provider, buffer.Len()); err != nil {
		provider.Release()
		return nil, fmt.Errorf("init particle buffers: %w", err)
	}

	pass := &particlePass{
		mu:       &sync.Mutex{},
		target:   target,
		buffer:   buffer,
		provider: provider,
		log:      logger.Named("renderer"),
	}
	pass.log.Debug("particle pass ready", zap.Int("capacity", buffer.Len()))
	return pass, nil
}

// AttachAvatar creates a ParticlePass for an avatar's render buffer and ties its GPU buffers
// to the avatar's lifetime: Avatar.Dispose releases them synchronously.
//
// Parameters:
//   - target: the renderer
//   - av: the avatar
//
// Returns:
//   - ParticlePass: the pass
//   - error: an error if the pass could not be created
func AttachAvatar(target ParticleTarget, av avatar.Avatar) (ParticlePass, error) {
	pass, err := NewParticlePass(target, av.Buffer())
	if err != nil {
		return nil, err
	}
	av.OnDispose(pass.Release)
	return pass, nil
}

func (p *particlePass) Sync() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.released {
		return ErrBufferReleased
	}

	staged := p.buffer.StagedWrites(bind_group_provider.InstanceBinding, particleUniformBinding)
	if len(staged) == 0 {
		return nil
	}
	writes := make([]bind_group_provider.BufferWrite, len(staged))
	for i, w := range staged {
		writes[i] = bind_group_provider.BufferWrite{
			Provider: p.provider,
			Binding:  w.Binding,
			Offset:   w.Offset,
			Data:     w.Data,
		}
	}
	p.target.WriteBuffers(writes)
	return nil
}

func (p *particlePass) Draw() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.released {
		return ErrBufferReleased
	}

	count := p.buffer.DrawCount()
	if count == 0 {
		return nil
	}
	return p.target.DrawInstances(ParticlePipelineKey, p.provider, quadVertexCount, count)
}

func (p *particlePass) Provider() bind_group_provider.BindGroupProvider {
	return p.provider
}

func (p *particlePass) Release() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.released {
		return
	}
	p.released = true
	p.provider.Release()
	p.log.Debug("particle pass released")
}

func (p *particlePass) Released() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.released
}
