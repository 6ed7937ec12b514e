package render

import (
	"math"

	"golang.org/x/image/math/f64"
)

// Identity is the affine transform that leaves points unchanged.
func Identity() f64.Aff3 {
	return f64.Aff3{1, 0, 0, 0, 1, 0}
}

// Mul returns m∘n: n is applied first, then m.
func Mul(m, n f64.Aff3) f64.Aff3 {
	return f64.Aff3{
		m[0]*n[0] + m[1]*n[3],
		m[0]*n[1] + m[1]*n[4],
		m[0]*n[2] + m[1]*n[5] + m[2],
		m[3]*n[0] + m[4]*n[3],
		m[3]*n[1] + m[4]*n[4],
		m[3]*n[2] + m[4]*n[5] + m[5],
	}
}

// Translate, Rotate and Scale append an operation in the current space, the
// same way a 2D canvas context composes its transform.
func Translate(m f64.Aff3, tx, ty float64) f64.Aff3 {
	return Mul(m, f64.Aff3{1, 0, tx, 0, 1, ty})
}

func Rotate(m f64.Aff3, theta float64) f64.Aff3 {
	s, c := math.Sincos(theta)
	return Mul(m, f64.Aff3{c, -s, 0, s, c, 0})
}

func Scale(m f64.Aff3, sx, sy float64) f64.Aff3 {
	return Mul(m, f64.Aff3{sx, 0, 0, 0, sy, 0})
}

// Apply maps the point (x, y) through m.
func Apply(m f64.Aff3, x, y float64) (float64, float64) {
	return m[0]*x + m[1]*y + m[2], m[3]*x + m[4]*y + m[5]
}
