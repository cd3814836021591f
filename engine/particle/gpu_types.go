package particle

import (
	"encoding/binary"
	"math"
	"unsafe"
)

// GPUParticleStride is the byte size of one GPUParticle instance record.
const GPUParticleStride = 48

// GPUUniformsSize is the byte size of GPUParticleUniforms.
const GPUUniformsSize = 96

// GPUParticle is the per-instance record consumed by the particle vertex stage.
// Size: 48 bytes (std430 aligned).
type GPUParticle struct {
	Position [3]float32 // offset  0: animated position in the particle group's space (12 bytes)
	Size     float32    // offset 12: rendered size including pointer boost (4 bytes)
	Color    [3]float32 // offset 16: RGB colour (12 bytes)
	Opacity  float32    // offset 28: pulsed opacity (4 bytes)
	Phase    float32    // offset 32: animation phase in [0, 1) (4 bytes)
	_        [3]float32 // offset 36: padding (12 bytes)
}

// ByteSize returns the size of the GPUParticle struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (g *GPUParticle) ByteSize() int {
	return int(unsafe.Sizeof(*g))
}

// MarshalTo writes the record into buf, which must be at least GPUParticleStride bytes.
//
// Parameters:
//   - buf: the destination slice
func (g *GPUParticle) MarshalTo(buf []byte) {
	putF32(buf[0:4], g.Position[0])
	putF32(buf[4:8], g.Position[1])
	putF32(buf[8:12], g.Position[2])
	putF32(buf[12:16], g.Size)
	putF32(buf[16:20], g.Color[0])
	putF32(buf[20:24], g.Color[1])
	putF32(buf[24:28], g.Color[2])
	putF32(buf[28:32], g.Opacity)
	putF32(buf[32:36], g.Phase)
	for i := 36; i < GPUParticleStride; i++ {
		buf[i] = 0
	}
}

// Marshal serializes the GPUParticle struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 48-byte buffer ready for GPU upload.
func (g *GPUParticle) Marshal() []byte {
	buf := make([]byte, GPUParticleStride)
	g.MarshalTo(buf)
	return buf
}

// GPUParticleUniforms holds the per-frame globals of the particle program.
// Size: 96 bytes (std140 aligned).
type GPUParticleUniforms struct {
	ViewProjection [16]float32 // offset  0: column-major view-projection (64 bytes)
	PointerWorld   [3]float32  // offset 64: repulsion center in the group's space (12 bytes)
	Time           float32     // offset 76: elapsed seconds (4 bytes)
	Viewport       [2]float32  // offset 80: framebuffer size in pixels (8 bytes)
	PointScale     float32     // offset 88: size-to-pixels factor for attenuation (4 bytes)
	_              float32     // offset 92: padding (4 bytes)
}

// ByteSize returns the size of the GPUParticleUniforms struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (g *GPUParticleUniforms) ByteSize() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the uniforms into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 96-byte buffer ready for GPU upload.
func (g *GPUParticleUniforms) Marshal() []byte {
	buf := make([]byte, GPUUniformsSize)
	for i, v := range g.ViewProjection {
		putF32(buf[i*4:i*4+4], v)
	}
	putF32(buf[64:68], g.PointerWorld[0])
	putF32(buf[68:72], g.PointerWorld[1])
	putF32(buf[72:76], g.PointerWorld[2])
	putF32(buf[76:80], g.Time)
	putF32(buf[80:84], g.Viewport[0])
	putF32(buf[84:88], g.Viewport[1])
	putF32(buf[88:92], g.PointScale)
	return buf
}

func putF32(b []byte, v float32) {
	binary.LittleEndian.PutUint32(b, math.Float32bits(v))
}
