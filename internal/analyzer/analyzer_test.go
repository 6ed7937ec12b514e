package analyzer

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iburimskiy/audio-reactive/internal/config"
	"github.com/iburimskiy/audio-reactive/internal/levels"
)

func uniformFrame(db float64) Frame {
	d := make([]float64, 1024)
	for i := range d {
		d[i] = db
	}
	return Frame{Decibels: d, SampleRate: 48000, FFTSize: 2048}
}

func assertInRange(t *testing.T, l levels.Triple) {
	t.Helper()
	for _, v := range []float64{l.Low, l.Mid, l.High} {
		assert.False(t, math.IsNaN(v))
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
	}
}

func TestBandEnergy(t *testing.T) {
	db := []float64{-10, -10, 0, 0, 10}

	// 0 dB is unit energy.
	assert.InDelta(t, 1, BandEnergy(db, 1, 2, 3), 1e-12)
	// The end bin is inclusive.
	assert.InDelta(t, (1+1+10)/3.0, BandEnergy(db, 1, 2, 4), 1e-12)
	// Ranges past the array are clamped.
	assert.InDelta(t, 10, BandEnergy(db, 1, 4, 400), 1e-12)

	assert.Zero(t, BandEnergy(db, 1, 10, 20))
	assert.Zero(t, BandEnergy(nil, 1, 0, 10))
	assert.Zero(t, BandEnergy(db, 0, 0, 10))
}

func TestBandEnergyIgnoresNonFiniteBins(t *testing.T) {
	db := []float64{math.NaN(), math.Inf(-1), math.Inf(1)}
	e := BandEnergy(db, 1, 0, 2)
	assert.False(t, math.IsInf(e, 0))
	assert.False(t, math.IsNaN(e))
	assert.Greater(t, e, 0.0)
}

func TestUpdateSkipsEmptyFrame(t *testing.T) {
	a := New()
	_, ok := a.Update(uniformFrame(-20))
	require.True(t, ok)
	before := a.Levels()

	got, ok := a.Update(Frame{SampleRate: 48000, FFTSize: 2048})
	assert.False(t, ok)
	assert.Equal(t, before, got)
}

func TestPeakNeverBelowCurrentEnergy(t *testing.T) {
	a := New()
	for i, db := range []float64{-20, -60, -5, -100, -30} {
		f := uniformFrame(db)
		a.Update(f)
		e := BandEnergy(f.Decibels, f.BinHz(), DefaultBands[0].FromHz, DefaultBands[0].ToHz)
		assert.GreaterOrEqual(t, a.Peaks().Low, e, "frame %d", i)
	}
}

func TestPeakDecaysGeometrically(t *testing.T) {
	a := New()
	a.Update(uniformFrame(0))
	p := a.Peaks()
	for n := 1; n <= 300; n++ {
		a.Update(uniformFrame(-200))
		want := math.Pow(0.995, float64(n))
		got := a.Peaks()
		assert.InDelta(t, p.Low*want, got.Low, 1e-9, "frame %d", n)
		assert.InDelta(t, p.Mid*want, got.Mid, 1e-9, "frame %d", n)
		assert.InDelta(t, p.High*want, got.High, 1e-9, "frame %d", n)
	}
}

func TestGateIsPerBand(t *testing.T) {
	// 0.06 of the peak clears the 0.04 gates of low and mid but not the
	// 0.08 gate of high.
	a := New()
	a.peaks = [3]float64{1, 1, 1}
	l, ok := a.Update(uniformFrame(10 * math.Log10(0.06)))
	require.True(t, ok)
	assert.Zero(t, l.High)
	assert.Greater(t, l.Low, 0.0)
	assert.Greater(t, l.Mid, 0.0)

	// A quiet low band is gated while loud mid and high pass. Bin 10 is
	// shared by low and mid.
	f := uniformFrame(10 * math.Log10(0.3))
	for i := 0; i < 10; i++ {
		f.Decibels[i] = -40
	}
	require.Less(t, BandEnergy(f.Decibels, f.BinHz(), config.LowBandFromHz, config.LowBandToHz), 0.04*0.995)
	a = New()
	a.peaks = [3]float64{1, 1, 1}
	l, ok = a.Update(f)
	require.True(t, ok)
	assert.Zero(t, l.Low)
	assert.Greater(t, l.Mid, 0.0)
	assert.Greater(t, l.High, 0.0)
}

func TestGateBoundary(t *testing.T) {
	f := uniformFrame(-10)
	band := DefaultBands[0]
	e := BandEnergy(f.Decibels, f.BinHz(), band.FromHz, band.ToHz)

	// at is the peak whose gate equals e exactly, above the next one up.
	at := e / band.Gate
	for at*band.Gate > e {
		at = math.Nextafter(at, 0)
	}
	for at*band.Gate < e {
		at = math.Nextafter(at, math.Inf(1))
	}
	require.Equal(t, e, at*band.Gate)
	above := at
	for above*band.Gate <= e {
		above = math.Nextafter(above, math.Inf(1))
	}

	low := func(peak float64) float64 {
		a := New()
		a.decay = 1
		a.peaks = [3]float64{peak, peak, peak}
		l, ok := a.Update(f)
		require.True(t, ok)
		return l.Low
	}
	assert.InDelta(t, config.SmoothingAlpha*band.Gate, low(at), 1e-6, "energy at the gate passes")
	assert.Zero(t, low(above), "energy under the gate is zero")
}

func TestLevelsBoundedForExtremeInput(t *testing.T) {
	a := New()
	for _, db := range []float64{1000, -1000, 0, math.Inf(1), math.NaN(), -100} {
		l, _ := a.Update(uniformFrame(db))
		assertInRange(t, l)
	}
}

func TestUniformInputConvergesUp(t *testing.T) {
	a := New()
	f := uniformFrame(-20)

	prev := a.Levels()
	for i := 0; i < 60; i++ {
		l, ok := a.Update(f)
		require.True(t, ok)
		assertInRange(t, l)
		assert.GreaterOrEqual(t, l.Low, prev.Low)
		prev = l
	}
	assert.InDelta(t, 1, prev.Low, 1e-3)
	assert.InDelta(t, 1, prev.Mid, 1e-3)
	assert.InDelta(t, 1, prev.High, 1e-3)

	p := a.Peaks()
	assert.InDelta(t, p.Low, p.Mid, 1e-12)
	assert.InDelta(t, p.Low, p.High, 1e-12)
}

func TestSilenceAfterSignalDecaysToZero(t *testing.T) {
	a := New()
	for i := 0; i < 60; i++ {
		a.Update(uniformFrame(-20))
	}

	silence := uniformFrame(-100)
	var l levels.Triple
	for i := 0; i < 50; i++ {
		var ok bool
		l, ok = a.Update(silence)
		require.True(t, ok)
		assertInRange(t, l)
	}
	// -100 dB sits far below every gate, so each band is fed zeros and
	// shrinks by 0.7 per frame.
	assert.Less(t, l.Low, 1e-6)
	assert.Less(t, l.Mid, 1e-6)
	assert.Less(t, l.High, 1e-6)
}

func TestFFTAnalyserFindsTone(t *testing.T) {
	const (
		size = 2048
		rate = 48000.0
		bin  = 100
	)
	fa := NewFFTAnalyser(size, rate)
	assert.Equal(t, size/2, fa.BinCount())

	freq := bin * rate / size
	samples := make([]float64, size)
	for i := range samples {
		samples[i] = math.Sin(2 * math.Pi * freq * float64(i) / rate)
	}

	var f Frame
	for i := 0; i < 20; i++ {
		var ok bool
		f, ok = fa.Process(samples)
		require.True(t, ok)
	}
	require.Len(t, f.Decibels, size/2)
	require.Len(t, f.Bytes, size/2)

	best := 0
	for k := range f.Decibels {
		if f.Decibels[k] > f.Decibels[best] {
			best = k
		}
	}
	assert.Equal(t, bin, best)
	assert.Greater(t, f.Bytes[bin], f.Bytes[bin+40])
}

func TestFFTAnalyserSilence(t *testing.T) {
	fa := NewFFTAnalyser(1024, 44100)
	_, ok := fa.Process(make([]float64, 100))
	assert.False(t, ok)

	f, ok := fa.Process(make([]float64, 1500))
	require.True(t, ok)
	require.Len(t, f.Decibels, 512)
	for k := range f.Decibels {
		assert.False(t, math.IsInf(f.Decibels[k], 0))
		assert.Zero(t, f.Bytes[k])
	}

	l, updated := New().Update(f)
	assert.True(t, updated)
	assertInRange(t, l)
}
