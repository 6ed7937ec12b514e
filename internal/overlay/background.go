package overlay

import (
	"image"
	"math"
	"math/rand/v2"

	"golang.org/x/image/math/f64"

	"github.com/iburimskiy/audio-reactive/internal/levels"
	"github.com/iburimskiy/audio-reactive/internal/render"
)

// Background is the input of the background image pan and zoom.
type Background struct {
	Width, Height   int
	Intensity       float64
	VideoBrightness float64
	Time            float64
	Levels          levels.Triple
}

// Cover returns the size that fills w x h while keeping the image aspect.
func Cover(w, h, imgW, imgH float64) (float64, float64) {
	ia := imgW / imgH
	if ia > w/h {
		return ia * h, h
	}
	return w, w / ia
}

// BackgroundTransform cover-fits the image, zooms it with low and mid,
// sways it with mid and shakes it slightly with high.
func BackgroundTransform(bg Background, imgW, imgH int, rng *rand.Rand) (f64.Aff3, render.ImageOptions) {
	w, h := float64(bg.Width), float64(bg.Height)
	lv := bg.Levels
	drawW, drawH := Cover(w, h, float64(imgW), float64(imgH))

	zoom := 1 + (lv.Low*0.15+lv.Mid*0.10)*(0.5+bg.Intensity)
	offX := (math.Sin(bg.Time*0.7)*lv.Mid + (rng.Float64()-0.5)*lv.High*0.02) * 40
	offY := math.Cos(bg.Time*0.6) * lv.Mid * 30

	x := (w-drawW*zoom)/2 + offX
	y := (h-drawH*zoom)/2 + offY

	m := render.Translate(render.Identity(), x, y)
	m = render.Scale(m, drawW*zoom/float64(imgW), drawH*zoom/float64(imgH))

	return m, render.ImageOptions{
		Alpha:      1,
		Brightness: bg.VideoBrightness + lv.High*0.25,
		Saturation: 1 + (lv.Mid+lv.Low)*0.3,
	}
}

// DrawBackground draws img and reports whether there was anything to draw.
func DrawBackground(dst render.Surface, img image.Image, bg Background, rng *rand.Rand) bool {
	if img == nil {
		return false
	}
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return false
	}
	geo, opts := BackgroundTransform(bg, b.Dx(), b.Dy(), rng)
	dst.DrawImage(img, geo, opts)
	return true
}

// ApplyVideo sets the video layer's per-frame state. The video itself does
// not move; only its brightness follows the parameter.
func ApplyVideo(layer render.Layer, brightness float64) {
	layer.SetTransform(render.Identity())
	layer.SetBrightness(brightness)
}
