package geom

import (
	"github.com/chewxy/math32"
)

// Mat4 is a row-major 4x4 transform acting on column vectors, with the
// translation in the last column.
type Mat4 [4][4]float32

// IdentityMat4 returns the identity transform.
func IdentityMat4() Mat4 {
	return Mat4{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{0, 0, 1, 0},
		{0, 0, 0, 1},
	}
}

// TranslationMat4 returns a pure translation by t.
func TranslationMat4(t Vec) Mat4 {
	m := IdentityMat4()
	m[0][3], m[1][3], m[2][3] = t[0], t[1], t[2]
	return m
}

// ScaleMat4 returns a pure axis-aligned scale by s.
func ScaleMat4(s Vec) Mat4 {
	m := IdentityMat4()
	m[0][0], m[1][1], m[2][2] = s[0], s[1], s[2]
	return m
}

// EulerMat4 builds the rotation Rz(ez) * Ry(ey) * Rx(ex), the same XYZ
// convention CompatibleEuler decomposes.
func EulerMat4(eul Vec) Mat4 {
	cx, sx := math32.Cos(eul[0]), math32.Sin(eul[0])
	cy, sy := math32.Cos(eul[1]), math32.Sin(eul[1])
	cz, sz := math32.Cos(eul[2]), math32.Sin(eul[2])

	m := IdentityMat4()
	m[0][0] = cy * cz
	m[0][1] = sx*sy*cz - cx*sz
	m[0][2] = cx*sy*cz + sx*sz
	m[1][0] = cy * sz
	m[1][1] = sx*sy*sz + cx*cz
	m[1][2] = cx*sy*sz - sx*cz
	m[2][0] = -sy
	m[2][1] = sx * cy
	m[2][2] = cx * cy
	return m
}

// Mul returns m * o.
func (m Mat4) Mul(o Mat4) Mat4 {
	var out Mat4
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			var sum float32
			for k := 0; k < 4; k++ {
				sum += m[i][k] * o[k][j]
			}
			out[i][j] = sum
		}
	}
	return out
}

// MulVec transforms the point p, assuming w = 1.
func (m Mat4) MulVec(p Vec) Vec {
	var out Vec
	for i := 0; i < 3; i++ {
		out[i] = m[i][0]*p[0] + m[i][1]*p[1] + m[i][2]*p[2] + m[i][3]
	}
	return out
}

// Translation returns the translation column.
func (m Mat4) Translation() Vec {
	return Vec{m[0][3], m[1][3], m[2][3]}
}

// TransposedFlat flattens m in transposed (column-major) order. The
// legacy solver consumes its surface transform this way; the transpose
// is load-bearing.
func (m Mat4) TransposedFlat() [16]float32 {
	var out [16]float32
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			out[i*4+j] = m[j][i]
		}
	}
	return out
}

// Invert computes the inverse of m by Gauss-Jordan elimination with
// partial pivoting. ok is false if m is singular to working precision,
// which the legacy controller reports as an invalid object matrix.
func (m Mat4) Invert() (inv Mat4, ok bool) {
	a := m
	inv = IdentityMat4()

	for col := 0; col < 4; col++ {
		pivot := col
		max := math32.Abs(a[col][col])
		for r := col + 1; r < 4; r++ {
			if v := math32.Abs(a[r][col]); v > max {
				max, pivot = v, r
			}
		}
		if max < 1e-12 {
			return IdentityMat4(), false
		}
		a[col], a[pivot] = a[pivot], a[col]
		inv[col], inv[pivot] = inv[pivot], inv[col]

		d := 1 / a[col][col]
		for j := 0; j < 4; j++ {
			a[col][j] *= d
			inv[col][j] *= d
		}
		for r := 0; r < 4; r++ {
			if r == col {
				continue
			}
			f := a[r][col]
			if f == 0 {
				continue
			}
			for j := 0; j < 4; j++ {
				a[r][j] -= f * a[col][j]
				inv[r][j] -= f * inv[col][j]
			}
		}
	}
	return inv, true
}

// CompatibleEuler decomposes the rotation part of m into XYZ Euler
// angles, choosing among the two possible solutions (and their 2-pi
// aliases) the one closest to ref. Feeding each frame's result back as
// the next frame's reference keeps rotation channels free of +-pi jumps.
func (m Mat4) CompatibleEuler(ref Vec) Vec {
	r := m.normalized3()

	cy := math32.Hypot(r[0][0], r[1][0])

	var e1, e2 Vec
	if cy > 16*1e-7 {
		e1[0] = math32.Atan2(r[2][1], r[2][2])
		e1[1] = math32.Atan2(-r[2][0], cy)
		e1[2] = math32.Atan2(r[1][0], r[0][0])

		e2[0] = math32.Atan2(-r[2][1], -r[2][2])
		e2[1] = math32.Atan2(-r[2][0], -cy)
		e2[2] = math32.Atan2(-r[1][0], -r[0][0])
	} else {
		e1[0] = math32.Atan2(-r[1][2], r[1][1])
		e1[1] = math32.Atan2(-r[2][0], cy)
		e1[2] = 0
		e2 = e1
	}

	e1 = foldNear(e1, ref)
	e2 = foldNear(e2, ref)
	if eulDist(e2, ref) < eulDist(e1, ref) {
		return e2
	}
	return e1
}

// normalized3 returns the 3x3 rotation block with per-axis scale divided
// out.
func (m Mat4) normalized3() [3][3]float32 {
	var r [3][3]float32
	for j := 0; j < 3; j++ {
		len := math32.Sqrt(m[0][j]*m[0][j] + m[1][j]*m[1][j] + m[2][j]*m[2][j])
		if len == 0 {
			len = 1
		}
		for i := 0; i < 3; i++ {
			r[i][j] = m[i][j] / len
		}
	}
	return r
}

// foldNear shifts each angle by multiples of 2*pi until it lies within
// pi of the reference.
func foldNear(e, ref Vec) Vec {
	for i := 0; i < 3; i++ {
		for e[i]-ref[i] > math32.Pi {
			e[i] -= 2 * math32.Pi
		}
		for e[i]-ref[i] < -math32.Pi {
			e[i] += 2 * math32.Pi
		}
	}
	return e
}

func eulDist(e, ref Vec) float32 {
	return math32.Abs(e[0]-ref[0]) + math32.Abs(e[1]-ref[1]) +
		math32.Abs(e[2]-ref[2])
}
