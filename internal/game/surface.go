package game

import (
	"image"
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/colorm"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/math/f64"

	"github.com/iburimskiy/audio-reactive/internal/render"
)

const glowTextureSize = 256

// surface rasterises render calls onto an ebiten image.
type surface struct {
	dst *ebiten.Image

	// decoded images uploaded once
	textures map[image.Image]*ebiten.Image
	// radial glow textures keyed by inner/outer ratio in percent
	glows map[int]*ebiten.Image
}

func newSurface() *surface {
	return &surface{
		textures: map[image.Image]*ebiten.Image{},
		glows:    map[int]*ebiten.Image{},
	}
}

var _ render.Surface = (*surface)(nil)

func (s *surface) Size() (int, int) {
	b := s.dst.Bounds()
	return b.Dx(), b.Dy()
}

func (s *surface) Clear() {
	s.dst.Clear()
}

func (s *surface) FillRect(x, y, w, h float64, c color.Color) {
	vector.DrawFilledRect(s.dst, float32(x), float32(y), float32(w), float32(h), c, false)
}

func (s *surface) FillCircle(cx, cy, r float64, c color.Color) {
	vector.DrawFilledCircle(s.dst, float32(cx), float32(cy), float32(r), c, true)
}

func (s *surface) StrokeLine(x1, y1, x2, y2, width float64, c color.Color) {
	vector.StrokeLine(s.dst, float32(x1), float32(y1), float32(x2), float32(y2), float32(width), c, true)
}

func (s *surface) RadialGlow(cx, cy, inner, outer float64, c color.NRGBA) {
	if outer <= 0 || c.A == 0 {
		return
	}
	tex := s.glowTexture(inner / outer)
	op := &ebiten.DrawImageOptions{}
	scale := 2 * outer / glowTextureSize
	op.GeoM.Scale(scale, scale)
	op.GeoM.Translate(cx-outer, cy-outer)
	a := float32(c.A) / 255
	op.ColorScale.Scale(float32(c.R)/255*a, float32(c.G)/255*a, float32(c.B)/255*a, a)
	op.Filter = ebiten.FilterLinear
	s.dst.DrawImage(tex, op)
}

// glowTexture is a white disc at full alpha up to ratio of its radius,
// fading linearly to zero at the edge.
func (s *surface) glowTexture(ratio float64) *ebiten.Image {
	key := int(math.Round(render.Clamp01(ratio) * 100))
	if tex, ok := s.glows[key]; ok {
		return tex
	}
	inner := float64(key) / 100
	const n = glowTextureSize
	pix := make([]byte, 4*n*n)
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			dx := (float64(x)+0.5)/n*2 - 1
			dy := (float64(y)+0.5)/n*2 - 1
			d := math.Hypot(dx, dy)
			var a float64
			switch {
			case d <= inner:
				a = 1
			case d < 1:
				a = 1 - (d-inner)/(1-inner)
			}
			v := byte(a * 255)
			i := 4 * (y*n + x)
			// premultiplied white
			pix[i], pix[i+1], pix[i+2], pix[i+3] = v, v, v, v
		}
	}
	tex := ebiten.NewImage(n, n)
	tex.WritePixels(pix)
	s.glows[key] = tex
	return tex
}

func (s *surface) DrawImage(img image.Image, geo f64.Aff3, opts render.ImageOptions) {
	tex, ok := s.textures[img]
	if !ok {
		tex = ebiten.NewImageFromImage(img)
		s.textures[img] = tex
	}

	drawTexture(s.dst, tex, geo, opts)
}

// drawTexture draws tex through geo with HSV brightness and saturation
// adjustments.
func drawTexture(dst, tex *ebiten.Image, geo f64.Aff3, opts render.ImageOptions) {
	var g ebiten.GeoM
	g.SetElement(0, 0, geo[0])
	g.SetElement(0, 1, geo[1])
	g.SetElement(0, 2, geo[2])
	g.SetElement(1, 0, geo[3])
	g.SetElement(1, 1, geo[4])
	g.SetElement(1, 2, geo[5])

	var cm colorm.ColorM
	cm.ChangeHSV(0, max(0, opts.Saturation), max(0, opts.Brightness))
	cm.Scale(1, 1, 1, render.Clamp01(opts.Alpha))

	colorm.DrawImage(dst, tex, cm, &colorm.DrawImageOptions{GeoM: g, Filter: ebiten.FilterLinear})
}

// forget drops uploaded textures that are no longer in use.
func (s *surface) forget(keep ...image.Image) {
	live := map[image.Image]bool{}
	for _, img := range keep {
		if img != nil {
			live[img] = true
		}
	}
	for img, tex := range s.textures {
		if !live[img] {
			tex.Deallocate()
			delete(s.textures, img)
		}
	}
}
