package particle

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
)

// ErrBufferDisposed is returned when a disposed RenderBuffer is updated.
var ErrBufferDisposed = errors.New("particle: render buffer disposed")

// Ambient motion defaults.
const (
	DefaultJitterAmplitude float32 = 0.01
	DefaultPulseDepth      float32 = 0.2
	DefaultPointScale      float32 = 400
)

// BufferWrite is one pending GPU buffer upload, addressed by shader binding.
type BufferWrite struct {
	Binding int
	Offset  uint64
	Data    []byte
}

// RenderBuffer holds the per-particle attributes the GPU particle program consumes and
// packs them into staged writes once per frame.
type RenderBuffer interface {
	// Len returns the particle count, fixed at construction.
	//
	// Returns:
	//   - int: the number of particles
	Len() int

	// Particles returns the sampled particles backing this buffer. Callers must not mutate them.
	//
	// Returns:
	//   - []Particle: the particles
	Particles() []Particle

	// Update writes this frame's positions and size boosts and applies ambient jitter and
	// opacity pulse for the elapsed time.
	//
	// Parameters:
	//   - positions: animated positions parallel to Particles
	//   - sizeBoost: per-particle fractional size increase (nil for none)
	//   - elapsed: seconds since the avatar was created
	//
	// Returns:
	//   - error: ErrBufferDisposed after Dispose, or a length mismatch error
	Update(positions []mgl32.Vec3, sizeBoost []float32, elapsed float32) error

	// SetPointer sets the pointer world position uniform.
	//
	// Parameters:
	//   - world: the repulsion center in the particle group's space
	SetPointer(world mgl32.Vec3)

	// SetView sets the view-projection uniform and viewport size.
	//
	// Parameters:
	//   - viewProj: the camera view-projection matrix
	//   - width: framebuffer width in pixels
	//   - height: framebuffer height in pixels
	SetView(viewProj mgl32.Mat4, width, height float32)

	// Positions returns the rendered positions from the last Update.
	//
	// Returns:
	//   - []mgl32.Vec3: positions parallel to Particles
	Positions() []mgl32.Vec3

	// Sizes returns the rendered sizes from the last Update.
	//
	// Returns:
	//   - []float32: sizes parallel to Particles
	Sizes() []float32

	// Opacities returns the rendered opacities from the last Update.
	//
	// Returns:
	//   - []float32: opacities parallel to Particles
	Opacities() []float32

	// StagedWrites returns the uploads pending since the last call and clears them.
	//
	// Parameters:
	//   - instanceBinding: binding index of the instance buffer
	//   - uniformBinding: binding index of the uniform buffer
	//
	// Returns:
	//   - []BufferWrite: pending writes (empty when nothing changed, hidden, or disposed)
	StagedWrites(instanceBinding, uniformBinding int) []BufferWrite

	// DrawCount returns how many instances to draw this frame.
	//
	// Returns:
	//   - uint32: zero when hidden, disposed, or empty
	DrawCount() uint32

	// SetVisible shows or hides the particles without discarding them.
	//
	// Parameters:
	//   - visible: the visibility flag
	SetVisible(visible bool)

	// Visible reports the visibility flag.
	//
	// Returns:
	//   - bool: true if visible
	Visible() bool

	// Dispose releases the CPU-side arrays. Further updates return ErrBufferDisposed.
	Dispose()

	// Disposed reports whether Dispose has been called.
	//
	// Returns:
	//   - bool: true after Dispose
	Disposed() bool
}

type renderBuffer struct {
	mu *sync.Mutex

	particles []Particle
	positions []mgl32.Vec3
	sizes     []float32
	opacities []float32

	uniforms GPUParticleUniforms
	packed   []byte

	jitter float32
	pulse  float32

	instancesDirty bool
	uniformsDirty  bool
	visible        bool
	disposed       bool
}

var _ RenderBuffer = &renderBuffer{}

// NewRenderBuffer creates a buffer for the given particles, initialised at their rest
// positions with base sizes and opacities.
//
// Parameters:
//   - particles: the sampled particles (may be empty)
//   - options: functional options
//
// Returns:
//   - RenderBuffer: the buffer
func NewRenderBuffer(particles []Particle, options ...RenderBufferBuilderOption) RenderBuffer {
	n := len(particles)
	b := &renderBuffer{
		mu:             &sync.Mutex{},
		particles:      particles,
		positions:      make([]mgl32.Vec3, n),
		sizes:          make([]float32, n),
		opacities:      make([]float32, n),
		packed:         make([]byte, n*GPUParticleStride),
		jitter:         DefaultJitterAmplitude,
		pulse:          DefaultPulseDepth,
		instancesDirty: n > 0,
		uniformsDirty:  true,
		visible:        true,
	}
	b.uniforms.PointScale = DefaultPointScale
	b.uniforms.ViewProjection = mgl32.Ident4()
	for _, opt := range options {
		opt(b)
	}
	for i := range particles {
		b.positions[i] = particles[i].RestPosition
		b.sizes[i] = particles[i].Size
		b.opacities[i] = particles[i].Opacity
	}
	return b
}

func (b *renderBuffer) Len() int {
	return len(b.particles)
}

func (b *renderBuffer) Particles() []Particle {
	return b.particles
}

func (b *renderBuffer) Update(positions []mgl32.Vec3, sizeBoost []float32, elapsed float32) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.disposed {
		return ErrBufferDisposed
	}
	if len(positions) != len(b.particles) {
		return fmt.Errorf("particle: got %d positions for %d particles", len(positions), len(b.particles))
	}
	if sizeBoost != nil && len(sizeBoost) != len(b.particles) {
		return fmt.Errorf("particle: got %d size boosts for %d particles", len(sizeBoost), len(b.particles))
	}

	t := float64(elapsed)
	for i := range b.particles {
		p := &b.particles[i]
		fi := float64(i)

		pos := positions[i]
		if b.jitter != 0 {
			amp := b.jitter * p.Phase
			pos = pos.Add(mgl32.Vec3{
				amp * float32(math.Sin(t*1.3+fi*0.02)),
				amp * float32(math.Cos(t*1.7+fi*0.02)),
				amp * float32(math.Sin(t*1.1+fi*0.02)),
			})
		}
		b.positions[i] = pos

		size := p.Size
		if sizeBoost != nil {
			size *= 1 + sizeBoost[i]
		}
		b.sizes[i] = size

		opacity := p.Opacity
		if b.pulse != 0 {
			wave := math.Sin(2*t + fi*0.1 + float64(p.Phase)*2*math.Pi)
			opacity *= (1 - b.pulse) + b.pulse*float32(wave)
		}
		b.opacities[i] = opacity
	}
	b.uniforms.Time = elapsed
	b.instancesDirty = len(b.particles) > 0
	b.uniformsDirty = true
	return nil
}

func (b *renderBuffer) SetPointer(world mgl32.Vec3) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.uniforms.PointerWorld = world
	b.uniformsDirty = true
}

func (b *renderBuffer) SetView(viewProj mgl32.Mat4, width, height float32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.uniforms.ViewProjection = viewProj
	b.uniforms.Viewport = [2]float32{width, height}
	b.uniformsDirty = true
}

func (b *renderBuffer) Positions() []mgl32.Vec3 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.positions
}

func (b *renderBuffer) Sizes() []float32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sizes
}

func (b *renderBuffer) Opacities() []float32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.opacities
}

func (b *renderBuffer) StagedWrites(instanceBinding, uniformBinding int) []BufferWrite {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.disposed || !b.visible {
		return nil
	}

	var writes []BufferWrite
	if b.instancesDirty {
		var rec GPUParticle
		for i := range b.particles {
			p := &b.particles[i]
			rec.Position = b.positions[i]
			rec.Size = b.sizes[i]
			rec.Color = p.Color
			rec.Opacity = b.opacities[i]
			rec.Phase = p.Phase
			rec.MarshalTo(b.packed[i*GPUParticleStride : (i+1)*GPUParticleStride])
		}
		writes = append(writes, BufferWrite{Binding: instanceBinding, Data: b.packed})
		b.instancesDirty = false
	}
	if b.uniformsDirty {
		writes = append(writes, BufferWrite{Binding: uniformBinding, Data: b.uniforms.Marshal()})
		b.uniformsDirty = false
	}
	return writes
}

func (b *renderBuffer) DrawCount() uint32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.disposed || !b.visible {
		return 0
	}
	return uint32(len(b.particles))
}

func (b *renderBuffer) SetVisible(visible bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if visible && !b.visible {
		b.instancesDirty = len(b.particles) > 0
		b.uniformsDirty = true
	}
	b.visible = visible
}

func (b *renderBuffer) Visible() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.visible
}

func (b *renderBuffer) Dispose() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.disposed {
		return
	}
	b.disposed = true
	b.visible = false
	b.positions = nil
	b.sizes = nil
	b.opacities = nil
	b.packed = nil
}

func (b *renderBuffer) Disposed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.disposed
}
