/*package geom contains the small amount of vector and matrix math the
bake pipeline needs: float32 vectors, 4x4 transforms, and the Euler
decomposition used to keep rotation channels continuous across frames.
*/
package geom

import (
	"github.com/chewxy/math32"
)

// Vec is a three dimensional vector.
type Vec [3]float32

// Add returns u + v.
func (u Vec) Add(v Vec) Vec {
	return Vec{u[0] + v[0], u[1] + v[1], u[2] + v[2]}
}

// Sub returns u - v.
func (u Vec) Sub(v Vec) Vec {
	return Vec{u[0] - v[0], u[1] - v[1], u[2] - v[2]}
}

// Scale returns u scaled by s.
func (u Vec) Scale(s float32) Vec {
	return Vec{u[0] * s, u[1] * s, u[2] * s}
}

// Max returns the component-wise maximum of u and v.
func (u Vec) Max(v Vec) Vec {
	return Vec{math32.Max(u[0], v[0]), math32.Max(u[1], v[1]),
		math32.Max(u[2], v[2])}
}

// Min returns the component-wise minimum of u and v.
func (u Vec) Min(v Vec) Vec {
	return Vec{math32.Min(u[0], v[0]), math32.Min(u[1], v[1]),
		math32.Min(u[2], v[2])}
}

// Dist returns the Euclidean distance between u and v.
func (u Vec) Dist(v Vec) float32 {
	d := u.Sub(v)
	return math32.Sqrt(d[0]*d[0] + d[1]*d[1] + d[2]*d[2])
}
