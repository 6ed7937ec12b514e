// Package render defines the drawing contract shared by every visual
// component and the host that actually rasterises frames.
package render

import (
	"image"
	"image/color"

	"golang.org/x/image/math/f64"
)

// ImageOptions tune a single image draw. Brightness and Saturation are
// multipliers: 1 keeps the image as is, 0 Brightness draws it black.
type ImageOptions struct {
	Alpha      float64
	Brightness float64
	Saturation float64
}

// Plain draws an image with its own colours at the given alpha.
func Plain(alpha float64) ImageOptions {
	return ImageOptions{Alpha: alpha, Brightness: 1, Saturation: 1}
}

// Surface is a 2D drawing target sized in pixels. Implementations must not
// panic on out-of-bounds geometry; callers draw freely past the edges.
type Surface interface {
	Size() (width, height int)
	Clear()
	FillRect(x, y, w, h float64, c color.Color)
	FillCircle(cx, cy, r float64, c color.Color)
	StrokeLine(x1, y1, x2, y2, width float64, c color.Color)
	// RadialGlow fills the whole surface with c at full strength inside
	// inner, fading linearly to transparent at outer.
	RadialGlow(cx, cy, inner, outer float64, c color.NRGBA)
	// DrawImage draws img with its top-left at the origin of geo.
	DrawImage(img image.Image, geo f64.Aff3, opts ImageOptions)
}

// Layer is a surface beneath the canvas (an external video for example)
// that can only be shown, hidden and adjusted, never drawn into.
type Layer interface {
	SetVisible(visible bool)
	SetTransform(geo f64.Aff3)
	SetBrightness(b float64)
}
