// Package analyzer turns per-frame frequency-domain magnitudes into the
// bounded low/mid/high control signal.
package analyzer

import (
	"math"

	"github.com/iburimskiy/audio-reactive/internal/config"
	"github.com/iburimskiy/audio-reactive/internal/levels"
	"github.com/iburimskiy/audio-reactive/internal/render"
)

// Frame is one analysis window: decibel magnitudes per bin, the same bins
// scaled to bytes for drawing, and the resolution they were sampled at.
type Frame struct {
	Decibels   []float64
	Bytes      []uint8
	SampleRate float64
	FFTSize    int
}

// BinHz is the width of one frequency bin.
func (f Frame) BinHz() float64 {
	if f.FFTSize <= 0 {
		return 0
	}
	return f.SampleRate / float64(f.FFTSize)
}

// Source yields the latest analysis frame, if any is available.
type Source interface {
	Frame() (Frame, bool)
}

// Band is a frequency range with its own noise gate.
type Band struct {
	FromHz, ToHz float64
	Gate         float64
}

var DefaultBands = [3]Band{
	{FromHz: config.LowBandFromHz, ToHz: config.LowBandToHz, Gate: config.GateLow},
	{FromHz: config.MidBandFromHz, ToHz: config.MidBandToHz, Gate: config.GateMid},
	{FromHz: config.HighBandFromHz, ToHz: config.HighBandToHz, Gate: config.GateHigh},
}

// Peaks are the per-band decaying envelopes used as automatic gain reference.
type Peaks struct {
	Low, Mid, High float64
}

// maxDecibels bounds the dB->linear conversion so energies stay finite.
const maxDecibels = 300

// BandEnergy averages the linear energy 10^(dB/10) of the bins covering
// [fromHz, toHz]. Bin indices are floor(hz/binHz) clamped to the array.
func BandEnergy(db []float64, binHz, fromHz, toHz float64) float64 {
	if len(db) == 0 || binHz <= 0 {
		return 0
	}
	start := int(math.Floor(fromHz / binHz))
	if start < 0 {
		start = 0
	}
	end := int(math.Floor(toHz / binHz))
	if end > len(db)-1 {
		end = len(db) - 1
	}

	var sum float64
	count := 0
	for i := start; i <= end; i++ {
		v := db[i]
		count++
		if math.IsNaN(v) || math.IsInf(v, -1) {
			continue
		}
		if v > maxDecibels {
			v = maxDecibels
		}
		sum += math.Pow(10, v/10)
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

// Analyzer is the local level producer: band energies, peak tracking,
// noise gating and exponential smoothing.
type Analyzer struct {
	bands  [3]Band
	alpha  float64
	decay  float64
	peaks  [3]float64
	levels [3]float64
}

func New() *Analyzer {
	return NewWithBands(DefaultBands)
}

func NewWithBands(bands [3]Band) *Analyzer {
	a := &Analyzer{bands: bands, alpha: config.SmoothingAlpha, decay: config.PeakDecay}
	a.Reset()
	return a
}

// Reset drops all envelope and level state.
func (a *Analyzer) Reset() {
	for i := range a.peaks {
		a.peaks[i] = config.PeakSeed
		a.levels[i] = 0
	}
}

// Update folds one frame into the levels. An empty frame leaves the levels
// untouched and reports false.
func (a *Analyzer) Update(f Frame) (levels.Triple, bool) {
	binHz := f.BinHz()
	if len(f.Decibels) == 0 || binHz <= 0 {
		return a.Levels(), false
	}

	for i, b := range a.bands {
		energy := BandEnergy(f.Decibels, binHz, b.FromHz, b.ToHz)

		a.peaks[i] = math.Max(a.peaks[i]*a.decay, energy)

		n := energy / (a.peaks[i] + config.LevelEpsilon)
		if energy < a.peaks[i]*b.Gate {
			n = 0
		}
		n = render.Clamp01(n)

		a.levels[i] = a.levels[i]*(1-a.alpha) + n*a.alpha
	}
	return a.Levels(), true
}

func (a *Analyzer) Levels() levels.Triple {
	return levels.Triple{Low: a.levels[0], Mid: a.levels[1], High: a.levels[2]}.Clamped()
}

func (a *Analyzer) Peaks() Peaks {
	return Peaks{Low: a.peaks[0], Mid: a.peaks[1], High: a.peaks[2]}
}
