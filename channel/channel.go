/*package channel implements the fixed-stride, time-stamped sample
buffers the legacy solver consumes. Three layouts exist:

	scalar:  [value, time] x N
	vector:  [x, y, z, time] x N
	verts:   [x1,y1,z1, ..., xV,yV,zV, time] x N

N is the bake's frame count and is identical for every channel of one
bake. Writing the same frame twice overwrites the earlier sample. The
scalar/vector distinction is enforced by the type system; there is no
way to write a vector sample into a scalar channel.
*/
package channel

import (
	"fluidbake/geom"
)

// Strides, including the trailing time stamp.
const (
	FloatStride = 2
	VecStride   = 4
)

// Float is a scalar channel of n frames.
type Float struct {
	vals []float32
	n    int
}

// NewFloat allocates a zeroed scalar channel.
func NewFloat(n int) *Float {
	return &Float{vals: make([]float32, n*FloatStride), n: n}
}

// Set writes frame i's sample and time stamp.
func (c *Float) Set(i int, time, v float32) {
	c.vals[i*FloatStride] = v
	c.vals[i*FloatStride+1] = time
}

// Len returns the frame count.
func (c *Float) Len() int { return c.n }

// Values returns the raw stride-2 buffer.
func (c *Float) Values() []float32 { return c.vals }

// Value returns frame i's sample.
func (c *Float) Value(i int) float32 { return c.vals[i*FloatStride] }

// Time returns frame i's time stamp.
func (c *Float) Time(i int) float32 { return c.vals[i*FloatStride+1] }

// Free releases the buffer. Later writes panic; the channel is owned by
// the bake controller and freed exactly once per bake.
func (c *Float) Free() { c.vals = nil }

// Vec is a vector channel of n frames.
type Vec struct {
	vals []float32
	n    int
}

// NewVec allocates a zeroed vector channel.
func NewVec(n int) *Vec {
	return &Vec{vals: make([]float32, n*VecStride), n: n}
}

// Set writes frame i's sample and time stamp.
func (c *Vec) Set(i int, time float32, v geom.Vec) {
	c.vals[i*VecStride] = v[0]
	c.vals[i*VecStride+1] = v[1]
	c.vals[i*VecStride+2] = v[2]
	c.vals[i*VecStride+3] = time
}

// Len returns the frame count.
func (c *Vec) Len() int { return c.n }

// Values returns the raw stride-4 buffer.
func (c *Vec) Values() []float32 { return c.vals }

// Value returns frame i's sample.
func (c *Vec) Value(i int) geom.Vec {
	return geom.Vec{c.vals[i*VecStride], c.vals[i*VecStride+1],
		c.vals[i*VecStride+2]}
}

// Time returns frame i's time stamp.
func (c *Vec) Time(i int) float32 { return c.vals[i*VecStride+3] }

// Free releases the buffer.
func (c *Vec) Free() { c.vals = nil }

// Verts is a vertex-cache channel: V vertices per frame plus a time
// stamp, V fixed at allocation. If an animated mesh changes its vertex
// count mid-bake the channel drops itself: the buffer is released and
// every later Set becomes a no-op. The exporter then falls back to
// transform channels.
type Verts struct {
	vals    []float32
	n       int
	verts   int
	dropped bool
}

// NewVerts allocates a zeroed vertex-cache channel for verts vertices.
func NewVerts(n, verts int) *Verts {
	return &Verts{
		vals:  make([]float32, n*(verts*3+1)),
		n:     n,
		verts: verts,
	}
}

// Stride returns the per-frame entry count, 3*V + 1.
func (c *Verts) Stride() int { return c.verts*3 + 1 }

// NumVerts returns V.
func (c *Verts) NumVerts() int { return c.verts }

// Len returns the frame count.
func (c *Verts) Len() int { return c.n }

// Dropped reports whether the channel invalidated itself.
func (c *Verts) Dropped() bool { return c.dropped }

// Set writes frame i's vertex positions (a flat [x y z ...] array) and
// time stamp. A vertex count that differs from the allocation drops the
// channel.
func (c *Verts) Set(i int, time float32, verts []float32) {
	if c.dropped {
		return
	}
	if len(verts) != c.verts*3 {
		c.drop()
		return
	}

	stride := c.Stride()
	copy(c.vals[i*stride:], verts)
	c.vals[i*stride+stride-1] = time
}

// Values returns the raw buffer, or nil if the channel was dropped.
func (c *Verts) Values() []float32 { return c.vals }

// Time returns frame i's time stamp.
func (c *Verts) Time(i int) float32 {
	stride := c.Stride()
	return c.vals[i*stride+stride-1]
}

func (c *Verts) drop() {
	c.vals = nil
	c.dropped = true
}

// Free releases the buffer without marking the channel dropped.
func (c *Verts) Free() { c.vals = nil }
