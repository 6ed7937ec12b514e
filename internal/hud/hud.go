// Package hud lays out the low/mid/high meters shown over the scene and
// smooths their motion with springs.
package hud

import (
	"github.com/charmbracelet/harmonica"

	"github.com/iburimskiy/audio-reactive/internal/levels"
	"github.com/iburimskiy/audio-reactive/internal/spectrum"
)

const (
	minScale = 0.1

	margin    = 20.0
	labelW    = 44.0
	barH      = 8.0
	rowH      = 22.0
	frequency = 7.0
	damping   = 0.8
)

// BarWidth is the width of a meter at full scale.
const BarWidth = 160.0

// Labels of the three meters, low to high.
var Labels = [3]string{"Low", "Mid", "High"}

// Scale is the drawn width fraction of a meter: the level clamped to
// [0.1, 1] so an idle meter stays visible.
func Scale(level float64) float64 {
	return max(minScale, min(1, level))
}

// Meters smooths the three meter scales between frames.
type Meters struct {
	spring harmonica.Spring
	pos    [3]float64
	vel    [3]float64
}

func NewMeters(fps int) *Meters {
	m := &Meters{spring: harmonica.NewSpring(harmonica.FPS(fps), frequency, damping)}
	for i := range m.pos {
		m.pos[i] = minScale
	}
	return m
}

// Step moves every meter one frame towards its level and returns the
// smoothed scales.
func (m *Meters) Step(lv levels.Triple) [3]float64 {
	targets := [3]float64{Scale(lv.Low), Scale(lv.Mid), Scale(lv.High)}
	var out [3]float64
	for i, target := range targets {
		m.pos[i], m.vel[i] = m.spring.Update(m.pos[i], m.vel[i], target)
		out[i] = Scale(m.pos[i])
	}
	return out
}

// Bar is one meter rectangle at full scale plus its label position.
type Bar struct {
	Label          string
	LabelX, LabelY float64
	X, Y, W, H     float64
}

// Layout places the meters along the bottom edge: on the right while the
// spectrum is linear, on the left otherwise. visible is false when the
// spectrum is off, which hides the meters too. W already includes scale.
func Layout(w, h int, mode spectrum.Mode, scales [3]float64) (bars [3]Bar, visible bool) {
	if mode == spectrum.None {
		return bars, false
	}
	panelW := labelW + BarWidth
	x := margin
	if mode == spectrum.Linear {
		x = float64(w) - margin - panelW
	}
	top := float64(h) - margin - 3*rowH
	for i := range bars {
		y := top + float64(i)*rowH
		bars[i] = Bar{
			Label:  Labels[i],
			LabelX: x,
			LabelY: y - 4,
			X:      x + labelW,
			Y:      y,
			W:      BarWidth * Scale(scales[i]),
			H:      barH,
		}
	}
	return bars, true
}
