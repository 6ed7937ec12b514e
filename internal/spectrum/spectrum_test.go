package spectrum

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iburimskiy/audio-reactive/internal/levels"
	"github.com/iburimskiy/audio-reactive/internal/render"
)

func TestParseMode(t *testing.T) {
	for s, want := range map[string]Mode{"none": None, "linear": Linear, "Radial ": Radial} {
		m, err := ParseMode(s)
		require.NoError(t, err)
		assert.Equal(t, want, m)
	}
	assert.Equal(t, "radial", Radial.String())
	_, err := ParseMode("bars")
	assert.ErrorIs(t, err, ErrUnknownMode)

	assert.Equal(t, Linear, None.Next())
	assert.Equal(t, None, Radial.Next())
}

func TestParsePalette(t *testing.T) {
	for _, p := range Palettes() {
		got, err := ParsePalette(p.String())
		require.NoError(t, err)
		assert.Equal(t, p, got)
	}
	_, err := ParsePalette("pastel")
	assert.ErrorIs(t, err, ErrUnknownPalette)
	assert.Equal(t, Rainbow, Cyber.Next())
}

func TestPalettesAlwaysValid(t *testing.T) {
	for _, p := range Palettes() {
		for _, ratio := range []float64{0, 0.2, 1.0 / 3, 0.5, 2.0 / 3, 0.99, 1} {
			for _, amp := range []float64{0, 0.5, 1} {
				for _, tm := range []float64{0, 7.3, 1e4} {
					c := p.ColorFor(ratio, tm, amp)
					assert.False(t, math.IsNaN(c.H), "%s %v %v", p, ratio, amp)
					assert.GreaterOrEqual(t, c.S, 0.0)
					assert.LessOrEqual(t, c.S, 100.0)
					assert.GreaterOrEqual(t, c.L, 0.0)
					assert.LessOrEqual(t, c.L, 100.0)
				}
			}
		}
	}
}

func TestPaletteFormulas(t *testing.T) {
	assert.Equal(t, render.HSL{H: 180, S: 90, L: 57.5}, Rainbow.ColorFor(0.5, 0, 0.5))
	// hue shift after 2s is 60 degrees
	assert.InDelta(t, 240, Rainbow.ColorFor(0.5, 2, 0).H, 1e-9)
	assert.Equal(t, render.HSL{H: 90, S: 100, L: 70}, Neon.ColorFor(1, 0, 1))
	assert.InDelta(t, 300+24, Neon.ColorFor(0.5, 2, 0).H, 1e-9)
	assert.Equal(t, render.HSL{H: 35, S: 100, L: 35}, Fire.ColorFor(0.5, 9, 0))
	assert.Equal(t, render.HSL{H: 300, S: 85, L: 67}, Cyber.ColorFor(1, 0, 1))
}

func TestSyntheticMagnitudes(t *testing.T) {
	m := Magnitudes(nil, 4, nil, levels.Triple{Low: 1})
	assert.InDeltaSlice(t, []float64{255, 191.25, 127.5, 63.75}, m, 1e-9)

	m = Magnitudes(m, 4, nil, levels.Triple{Mid: 1})
	assert.InDeltaSlice(t, []float64{127.5, 63.75, 0, 63.75}, m, 1e-9)
}

func TestByteMagnitudesAverageSteps(t *testing.T) {
	bytes := []uint8{10, 20, 30, 40, 50, 60, 70, 80, 90}
	m := Magnitudes(nil, 4, bytes, levels.Triple{High: 1})
	// step 2; the trailing bin is ignored
	assert.Equal(t, []float64{15, 35, 55, 75}, m)

	m = Magnitudes(nil, 4, []uint8{200, 100}, levels.Triple{})
	assert.Equal(t, []float64{200, 100, 0, 0}, m)
}

func TestAmplitude(t *testing.T) {
	assert.InDelta(t, 0.5, Amplitude(51, 2.5), 1e-12)
	assert.Equal(t, 1.0, Amplitude(255, 1.6))
	assert.Equal(t, 0.0, Amplitude(255, 0))
}

func TestDrawNoneIsEmpty(t *testing.T) {
	rec := render.NewRecorder(640, 480)
	New().Draw(rec, Params{Mode: None, Sensitivity: 1}, nil, levels.Triple{Low: 1})
	assert.Empty(t, rec.Ops)
}

func TestDrawLinear(t *testing.T) {
	rec := render.NewRecorder(1280, 720)
	New().Draw(rec, Params{Mode: Linear, Sensitivity: 1}, nil, levels.Triple{Low: 1})

	require.Equal(t, 128, rec.Count(render.OpRect))
	first := rec.Ops[0]
	// full amplitude: 75% of height, 0.9 of a 10px slot
	assert.InDeltaSlice(t, []float64{0, 720 - 540, 9, 540}, first.Coords[:], 1e-9)
	last := rec.Ops[127]
	assert.InDelta(t, 1270, last.Coords[0], 1e-9)
}

func TestDrawRadialSensitivity(t *testing.T) {
	rec := render.NewRecorder(1000, 800)
	bytes := make([]uint8, 1024)
	for i := range bytes {
		bytes[i] = 51
	}
	New().Draw(rec, Params{Mode: Radial, Sensitivity: 2.5}, bytes, levels.Triple{})

	require.Equal(t, 128, rec.Count(render.OpLine))
	ray := rec.Ops[0]
	// theta 0: from R=224 to R + 0.5*800*0.35 = 364
	assert.InDeltaSlice(t, []float64{500 + 224, 400, 500 + 364, 400}, ray.Coords[:], 1e-9)
	assert.InDelta(t, 3, ray.Width, 1e-9)
}
