package overlay

import (
	"image"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/math/f64"

	"github.com/iburimskiy/audio-reactive/internal/levels"
	"github.com/iburimskiy/audio-reactive/internal/render"
)

func seeded() *rand.Rand { return rand.New(rand.NewPCG(7, 9)) }

func baseLogo() Logo {
	return Logo{Width: 1000, Height: 800, Scale: 1, Opacity: 0.9, Sensitivity: 1.6}
}

func TestJitter(t *testing.T) {
	assert.Zero(t, Jitter(0.4))
	assert.Zero(t, Jitter(0))
	assert.InDelta(t, 0.036, Jitter(1), 1e-12)
}

func TestLogoCornerAnchoring(t *testing.T) {
	l := baseLogo()
	l.Corner = true
	m := LogoTransform(l, 100, 50, seeded())

	x, y := render.Apply(m, 100, 0)
	assert.InDelta(t, 1000-30-16, x, 1e-9)
	assert.InDelta(t, 30+16, y, 1e-9)

	// drawn width is 1.2 * 0.22 * min(w,h)
	x0, _ := render.Apply(m, 0, 0)
	assert.InDelta(t, 211.2, x-x0, 1e-9)
}

func TestLogoCornerHoldsMarginWhenRotated(t *testing.T) {
	l := baseLogo()
	l.Corner = true
	l.Levels = levels.Triple{Low: 0.5, Mid: 1}
	l.Time = math.Pi / 2 / 1.4

	m := LogoTransform(l, 100, 50, seeded())
	x, _ := render.Apply(m, 100, 50)
	assert.InDelta(t, 1000-30-16, x, 1e-9)
}

func TestLogoCornerJitterOnlyInward(t *testing.T) {
	l := baseLogo()
	l.Corner = true
	l.Levels = levels.Triple{High: 1}
	rng := seeded()
	for i := 0; i < 200; i++ {
		m := LogoTransform(l, 100, 50, rng)
		x, y := render.Apply(m, 100, 0)
		assert.LessOrEqual(t, x, 954+1e-9)
		assert.GreaterOrEqual(t, y, 46-1e-9)
	}
}

func TestLogoCentred(t *testing.T) {
	l := baseLogo()
	m := LogoTransform(l, 100, 50, seeded())
	x, y := render.Apply(m, 50, 25)
	assert.InDelta(t, 500, x, 1e-9)
	assert.InDelta(t, 400-176*0.05, y, 1e-9)

	l.Levels.Low = 1
	m = LogoTransform(l, 100, 50, seeded())
	x0, _ := render.Apply(m, 0, 25)
	x1, _ := render.Apply(m, 100, 25)
	assert.InDelta(t, 211.2*(1+0.45*1.6), x1-x0, 1e-9)
}

func TestDrawLogoNoOp(t *testing.T) {
	rec := render.NewRecorder(100, 100)
	img := image.NewNRGBA(image.Rect(0, 0, 10, 10))

	assert.False(t, DrawLogo(rec, nil, true, baseLogo(), seeded()))
	assert.False(t, DrawLogo(rec, img, false, baseLogo(), seeded()))
	assert.Empty(t, rec.Ops)

	require.True(t, DrawLogo(rec, img, true, baseLogo(), seeded()))
	require.Len(t, rec.Ops, 1)
	assert.Equal(t, render.ImageOptions{Alpha: 0.9, Brightness: 1, Saturation: 1}, rec.Ops[0].Opts)
}

func TestCover(t *testing.T) {
	w, h := Cover(1000, 500, 100, 100)
	assert.Equal(t, []float64{1000, 1000}, []float64{w, h})
	w, h = Cover(1000, 500, 400, 100)
	assert.Equal(t, []float64{2000, 500}, []float64{w, h})
}

func TestBackgroundAtRest(t *testing.T) {
	bg := Background{Width: 1000, Height: 500, Intensity: 0.5, VideoBrightness: 1.1}
	m, opts := BackgroundTransform(bg, 100, 100, seeded())

	assert.InDeltaSlice(t, []float64{10, 0, 0, 0, 10, -250}, m[:], 1e-9)
	assert.Equal(t, render.ImageOptions{Alpha: 1, Brightness: 1.1, Saturation: 1}, opts)
}

func TestZeroBrightnessDrawsBlack(t *testing.T) {
	bg := Background{Width: 1000, Height: 500, Intensity: 0.5, VideoBrightness: 0}
	_, opts := BackgroundTransform(bg, 100, 100, seeded())
	assert.Zero(t, opts.Brightness)
	assert.Equal(t, 1.0, opts.Saturation)
}

func TestBackgroundReacts(t *testing.T) {
	bg := Background{Width: 1000, Height: 500, Intensity: 0.5, VideoBrightness: 1, Levels: levels.Triple{Low: 1, High: 1}}
	m, opts := BackgroundTransform(bg, 100, 100, seeded())

	// zoom 1 + 0.15 * 1.0
	assert.InDelta(t, 11.5, m[0], 1e-9)
	assert.InDelta(t, 1.25, opts.Brightness, 1e-12)
	assert.InDelta(t, 1.3, opts.Saturation, 1e-12)
	// high only shakes by at most 0.01 * 40 px
	assert.InDelta(t, (1000-1150)/2.0, m[2], 0.4+1e-9)
}

func TestDrawBackgroundWithoutImage(t *testing.T) {
	rec := render.NewRecorder(10, 10)
	assert.False(t, DrawBackground(rec, nil, Background{Width: 10, Height: 10}, seeded()))
	assert.Empty(t, rec.Ops)
}

type fakeLayer struct {
	geo        f64.Aff3
	brightness float64
}

func (f *fakeLayer) SetVisible(bool)           {}
func (f *fakeLayer) SetTransform(geo f64.Aff3) { f.geo = geo }
func (f *fakeLayer) SetBrightness(b float64)   { f.brightness = b }

func TestApplyVideoIsStatic(t *testing.T) {
	l := &fakeLayer{}
	ApplyVideo(l, 1.3)
	assert.Equal(t, render.Identity(), l.geo)
	assert.Equal(t, 1.3, l.brightness)
}
