// Package spectrum draws the frequency spectrum as linear bars or radial
// rays, from real analyser bytes or a profile synthesised from the levels.
package spectrum

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/iburimskiy/audio-reactive/internal/config"
	"github.com/iburimskiy/audio-reactive/internal/levels"
	"github.com/iburimskiy/audio-reactive/internal/render"
)

var ErrUnknownMode = errors.New("unknown spectrum mode")

// Mode selects how the spectrum is rendered.
type Mode int

const (
	None Mode = iota
	Linear
	Radial
)

var modeNames = [...]string{None: "none", Linear: "linear", Radial: "radial"}

func ParseMode(s string) (Mode, error) {
	for i, name := range modeNames {
		if strings.EqualFold(strings.TrimSpace(s), name) {
			return Mode(i), nil
		}
	}
	return None, fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

func (m Mode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return fmt.Sprintf("Mode(%d)", int(m))
	}
	return modeNames[m]
}

// Next cycles none -> linear -> radial -> none.
func (m Mode) Next() Mode {
	return Mode((int(m) + 1) % len(modeNames))
}

const (
	barFill     = 0.9
	barMaxShare = 0.75
	innerRadius = 0.28
	rayReach    = 0.35
)

// Params are the per-frame inputs that do not come from audio.
type Params struct {
	Mode        Mode
	Palette     Palette
	Sensitivity float64
	Time        float64
}

// Magnitudes fills dst with n values in [0,255]. With analyser bytes each
// value averages max(1, len/n) consecutive bins; without them the profile
// blends low into high across the range with mid peaking at both ends.
func Magnitudes(dst []float64, n int, bytes []uint8, lv levels.Triple) []float64 {
	if cap(dst) < n {
		dst = make([]float64, n)
	}
	dst = dst[:n]

	if len(bytes) == 0 {
		for i := range dst {
			r := float64(i) / float64(n)
			dst[i] = 255 * ((1-r)*lv.Low + math.Abs(0.5-r)*lv.Mid + r*lv.High)
		}
		return dst
	}

	step := max(1, len(bytes)/n)
	for i := range dst {
		var sum float64
		for j := 0; j < step; j++ {
			if k := i*step + j; k < len(bytes) {
				sum += float64(bytes[k])
			}
		}
		dst[i] = sum / float64(step)
	}
	return dst
}

// Amplitude scales a magnitude by sensitivity into [0,1].
func Amplitude(m, sensitivity float64) float64 {
	return render.Clamp01(m / 255 * sensitivity)
}

// Visualizer owns the sample scratch buffer between frames.
type Visualizer struct {
	mags []float64
}

func New() *Visualizer {
	return &Visualizer{}
}

// Draw renders one frame of the spectrum. Mode None draws nothing.
func (v *Visualizer) Draw(dst render.Surface, p Params, bytes []uint8, lv levels.Triple) {
	if p.Mode != Linear && p.Mode != Radial {
		return
	}
	const n = config.SpectrumSamples
	v.mags = Magnitudes(v.mags, n, bytes, lv)

	w, h := dst.Size()
	fw, fh := float64(w), float64(h)

	if p.Mode == Linear {
		barW := fw / n
		for i, m := range v.mags {
			amp := Amplitude(m, p.Sensitivity)
			barH := amp * fh * barMaxShare
			c := p.Palette.ColorFor(float64(i)/n, p.Time, amp).NRGBA(1)
			dst.FillRect(float64(i)*barW, fh-barH, barW*barFill, barH, c)
		}
		return
	}

	cx, cy := fw/2, fh/2
	short := math.Min(fw, fh)
	r1 := short * innerRadius
	for i, m := range v.mags {
		amp := Amplitude(m, p.Sensitivity)
		theta := float64(i) / n * 2 * math.Pi
		r2 := r1 + amp*short*rayReach
		cos, sin := math.Cos(theta), math.Sin(theta)
		c := p.Palette.ColorFor(float64(i)/n, p.Time, amp).NRGBA(1)
		dst.StrokeLine(cx+cos*r1, cy+sin*r1, cx+cos*r2, cy+sin*r2, 1.5+amp*3, c)
	}
}
