package render

import (
	"image/color"
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// HSL is a CSS-style colour: hue in degrees, saturation and lightness in percent.
type HSL struct {
	H, S, L float64
}

// NRGBA converts the colour to 8-bit RGB with the given alpha in [0,1].
func (c HSL) NRGBA(alpha float64) color.NRGBA {
	h := math.Mod(c.H, 360)
	if h < 0 {
		h += 360
	}
	r, g, b := colorful.Hsl(h, Clamp01(c.S/100), Clamp01(c.L/100)).Clamped().RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: uint8(math.Round(Clamp01(alpha) * 255))}
}

// RGBA builds a non-premultiplied colour with a fractional alpha.
func RGBA(r, g, b uint8, alpha float64) color.NRGBA {
	return color.NRGBA{R: r, G: g, B: b, A: uint8(math.Round(Clamp01(alpha) * 255))}
}

// Clamp01 clamps v to [0,1]; NaN maps to 0.
func Clamp01(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
