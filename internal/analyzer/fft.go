package analyzer

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"

	"github.com/iburimskiy/audio-reactive/internal/config"
)

// FFTAnalyser turns a window of time-domain samples into a Frame the same
// way a browser AnalyserNode does: Blackman window, |X|/N, temporal
// smoothing between calls, then dB and byte scaling.
type FFTAnalyser struct {
	size       int
	sampleRate float64
	smoothing  float64
	minDB      float64
	maxDB      float64

	fft      *fourier.FFT
	window   []float64
	buf      []float64
	coeffs   []complex128
	smoothed []float64
}

func NewFFTAnalyser(size int, sampleRate float64) *FFTAnalyser {
	if size < 2 {
		size = config.FFTSize
	}
	w := make([]float64, size)
	for i := range w {
		w[i] = 1
	}
	return &FFTAnalyser{
		size:       size,
		sampleRate: sampleRate,
		smoothing:  config.AnalyserSmooth,
		minDB:      config.MinDecibels,
		maxDB:      config.MaxDecibels,
		fft:        fourier.NewFFT(size),
		window:     window.Blackman(w),
		buf:        make([]float64, size),
		smoothed:   make([]float64, size/2),
	}
}

func (a *FFTAnalyser) Size() int { return a.size }

// BinCount is the number of frequency bins in every Frame, size/2.
func (a *FFTAnalyser) BinCount() int { return a.size / 2 }

// Process analyses the most recent Size() samples. It reports false, and
// leaves the smoothing history alone, when fewer samples are available.
func (a *FFTAnalyser) Process(samples []float64) (Frame, bool) {
	if len(samples) < a.size {
		return Frame{}, false
	}
	samples = samples[len(samples)-a.size:]
	for i, s := range samples {
		a.buf[i] = s * a.window[i]
	}

	a.coeffs = a.fft.Coefficients(a.coeffs, a.buf)

	n := a.BinCount()
	frame := Frame{
		Decibels:   make([]float64, n),
		Bytes:      make([]uint8, n),
		SampleRate: a.sampleRate,
		FFTSize:    a.size,
	}
	scale := 1 / float64(a.size)
	byteScale := 255 / (a.maxDB - a.minDB)
	for k := 0; k < n; k++ {
		mag := cmplx.Abs(a.coeffs[k]) * scale
		a.smoothed[k] = a.smoothing*a.smoothed[k] + (1-a.smoothing)*mag

		db := 20 * math.Log10(math.Max(a.smoothed[k], 1e-12))
		frame.Decibels[k] = db

		b := math.Floor(byteScale * (db - a.minDB))
		switch {
		case b < 0:
			b = 0
		case b > 255:
			b = 255
		}
		frame.Bytes[k] = uint8(b)
	}
	return frame, true
}

// Reset clears the smoothing history.
func (a *FFTAnalyser) Reset() {
	for i := range a.smoothed {
		a.smoothed[i] = 0
	}
}
