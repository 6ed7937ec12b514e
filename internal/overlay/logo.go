// Package overlay computes the reactive transforms of everything that is
// drawn as an image: the logo, the background picture and the video layer.
package overlay

import (
	"image"
	"math"
	"math/rand/v2"

	"golang.org/x/image/math/f64"

	"github.com/iburimskiy/audio-reactive/internal/config"
	"github.com/iburimskiy/audio-reactive/internal/levels"
	"github.com/iburimskiy/audio-reactive/internal/render"
)

const (
	logoBaseShare   = 0.22
	logoWidthFactor = 1.2
	logoPulse       = 0.45
	logoSwing       = 0.7
	logoSwingRate   = 1.4
	jitterThreshold = 0.4
	jitterGain      = 0.06
	centreLift      = 0.05
)

// Logo is everything the logo transform depends on besides the image.
type Logo struct {
	Width, Height int
	Scale         float64
	Opacity       float64
	Sensitivity   float64
	Time          float64
	Levels        levels.Triple
	// Corner anchors the logo to the top-right instead of the centre.
	Corner bool
}

// Jitter is the per-frame shake amplitude as a fraction of the logo base size.
func Jitter(high float64) float64 {
	if high <= jitterThreshold {
		return 0
	}
	return (high - jitterThreshold) * jitterGain
}

// LogoTransform maps image pixels of an imgW x imgH image to the canvas.
func LogoTransform(l Logo, imgW, imgH int, rng *rand.Rand) f64.Aff3 {
	w, h := float64(l.Width), float64(l.Height)
	base := math.Min(w, h) * logoBaseShare * l.Scale
	scale := 1 + l.Levels.Low*logoPulse*l.Sensitivity
	rotation := math.Sin(l.Time*logoSwingRate) * l.Levels.Mid * logoSwing
	jitter := Jitter(l.Levels.High)

	drawW := base * logoWidthFactor
	drawH := drawW
	if imgW > 0 && imgH > 0 {
		drawH = drawW * float64(imgH) / float64(imgW)
	}

	jx := (rng.Float64() - 0.5) * jitter * base
	jy := (rng.Float64() - 0.5) * jitter * base

	m := render.Identity()
	if l.Corner {
		sw, sh := drawW*scale, drawH*scale
		s, c := math.Sincos(rotation)
		// centre to the top-right corner after rotation
		vx := sw/2*c - sh/2*s
		vy := sw/2*s + sh/2*c
		pad := config.LogoSafePad
		cx := w - config.LogoMarginRight - vx - pad
		cy := config.LogoMarginTop + vy + pad
		// never shake towards the edges
		jx = math.Max(-pad, math.Min(0, jx))
		jy = math.Max(0, math.Min(pad, jy))
		m = render.Translate(m, cx+jx, cy+jy)
	} else {
		m = render.Translate(m, w/2+jx, h/2-base*centreLift+jy)
	}
	m = render.Rotate(m, rotation)
	m = render.Scale(m, scale, scale)
	m = render.Translate(m, -drawW/2, -drawH/2)
	if imgW > 0 && imgH > 0 {
		m = render.Scale(m, drawW/float64(imgW), drawH/float64(imgH))
	}
	return m
}

// DrawLogo draws img when it exists and is visible, and reports whether it
// drew anything.
func DrawLogo(dst render.Surface, img image.Image, visible bool, l Logo, rng *rand.Rand) bool {
	if img == nil || !visible {
		return false
	}
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return false
	}
	geo := LogoTransform(l, b.Dx(), b.Dy(), rng)
	dst.DrawImage(img, geo, render.Plain(render.Clamp01(l.Opacity)))
	return true
}
