package bind_group_provider

import (
	"sync"

	"github.com/cogentcore/webgpu/wgpu"
)

// InstanceBinding addresses the per-instance vertex buffer in a BufferWrite. Non-negative
// bindings address uniform or storage buffers of the bind group.
const InstanceBinding = -1

// bindGroupProvider is the unexported implementation of BindGroupProvider.
type bindGroupProvider struct {
	mu *sync.Mutex

	// label is a debug label added for convenience.
	label string

	// The following fields are GPU allocated resources populated by the Renderer and released by Release.

	// bindGroup is the GPU bind group created for this provider, or nil if not initialized with the Renderer.
	bindGroup *wgpu.BindGroup
	// buffers holds the GPU buffers bound in the bind group, keyed by binding index.
	buffers map[int]*wgpu.Buffer
	// instanceBuffer holds one record per drawn instance, bound as vertex buffer slot 0.
	instanceBuffer *wgpu.Buffer
	// instanceCapacity is the number of records the instance buffer can hold.
	instanceCapacity int

	released bool
}

// BindGroupProvider owns the GPU resources backing one drawable: a bind group with its
// buffers and an optional per-instance vertex buffer. The Renderer creates the resources
// and stores them here; the owner releases them exactly once through Release.
type BindGroupProvider interface {
	// Release releases every GPU resource held by this provider. Safe to call more than once.
	Release()

	// Released reports whether Release has been called.
	//
	// Returns:
	//   - bool: true after Release
	Released() bool

	// Label returns the debug label for this provider.
	//
	// Returns:
	//   - string: the debug label
	Label() string

	// BindGroup returns the created bind group for shader binding.
	// Returns nil if GPU resources have not been initialized.
	//
	// Returns:
	//   - *wgpu.BindGroup: the bind group or nil
	BindGroup() *wgpu.BindGroup

	// Buffer returns the buffer at a binding. InstanceBinding returns the instance buffer.
	// Returns nil if GPU resources have not been initialized.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - *wgpu.Buffer: the buffer or nil
	Buffer(binding int) *wgpu.Buffer

	// InstanceBuffer returns the per-instance vertex buffer, or nil if not initialized.
	//
	// Returns:
	//   - *wgpu.Buffer: the instance buffer or nil
	InstanceBuffer() *wgpu.Buffer

	// InstanceCapacity returns the number of instance records the buffer can hold.
	//
	// Returns:
	//   - int: the capacity
	InstanceCapacity() int

	// SetBindGroup sets the bind group after GPU initialization.
	//
	// Parameters:
	//   - bg: the created bind group
	SetBindGroup(bg *wgpu.BindGroup)

	// SetBuffer stores a bound buffer after GPU initialization.
	//
	// Parameters:
	//   - binding: the binding index
	//   - buf: the created buffer
	SetBuffer(binding int, buf *wgpu.Buffer)

	// SetInstanceBuffer stores the per-instance vertex buffer after GPU initialization.
	//
	// Parameters:
	//   - buf: the created buffer
	//   - capacity: the number of records it holds
	SetInstanceBuffer(buf *wgpu.Buffer, capacity int)
}

// Compile-time check that bindGroupProvider implements BindGroupProvider
var _ BindGroupProvider = &bindGroupProvider{}

// NewBindGroupProvider creates an empty BindGroupProvider.
//
// Parameters:
//   - label: the debug label used for GPU object names
//   - options: a variadic list of options to configure the provider
//
// Returns:
//   - BindGroupProvider: a new provider with no GPU resources
func NewBindGroupProvider(label string, options ...BindGroupProviderOption) BindGroupProvider {
	p := &bindGroupProvider{
		mu:      &sync.Mutex{},
		label:   label,
		buffers: make(map[int]*wgpu.Buffer),
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

func (p *bindGroupProvider) Label() string {
	return p.label
}

func (p *bindGroupProvider) BindGroup() *wgpu.BindGroup {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.bindGroup
}

func (p *bindGroupProvider) Buffer(binding int) *wgpu.Buffer {
	p.mu.Lock()
	defer p.mu.Unlock()
	if binding == InstanceBinding {
		return p.instanceBuffer
	}
	return p.buffers[binding]
}

func (p *bindGroupProvider) InstanceBuffer() *wgpu.Buffer {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.instanceBuffer
}

func (p *bindGroupProvider) InstanceCapacity() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.instanceCapacity
}

func (p *bindGroupProvider) SetBindGroup(bg *wgpu.BindGroup) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.bindGroup = bg
}

func (p *bindGroupProvider) SetBuffer(binding int, buf *wgpu.Buffer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if binding == InstanceBinding {
		p.instanceBuffer = buf
		return
	}
	p.buffers[binding] = buf
}

func (p *bindGroupProvider) SetInstanceBuffer(buf *wgpu.Buffer, capacity int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.instanceBuffer = buf
	p.instanceCapacity = capacity
}

func (p *bindGroupProvider) Released() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.released
}

func (p *bindGroupProvider) Release() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.released {
		return
	}
	p.released = true

	if p.bindGroup != nil {
		p.bindGroup.Release()
		p.bindGroup = nil
	}
	for i, buf := range p.buffers {
		if buf != nil {
			buf.Release()
		}
		delete(p.buffers, i)
	}
	if p.instanceBuffer != nil {
		p.instanceBuffer.Release()
		p.instanceBuffer = nil
	}
	p.instanceCapacity = 0
}
