// Package starfield is the outward-radial particle background.
package starfield

import (
	"math"
	"math/rand/v2"

	"github.com/iburimskiy/audio-reactive/internal/config"
	"github.com/iburimskiy/audio-reactive/internal/render"
)

const (
	spawnMinRadius = 0.02
	spawnMaxRadius = 0.10
	minSize        = 0.6
	maxSize        = 2.4
	minHue         = 200.0
	maxHue         = 340.0
)

var glowColor = [3]uint8{120, 160, 255}

// Star is one particle.
type Star struct {
	X, Y float64
	Size float64
	Hue  float64
}

// Field is a fixed-size pool of stars moving away from the viewport
// centre. Stars leaving the viewport are respawned, never removed.
type Field struct {
	stars []Star
	w, h  float64
	rng   *rand.Rand
}

// New returns an empty field. A nil rng uses a randomly seeded source.
func New(rng *rand.Rand) *Field {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Field{rng: rng}
}

// Capacity is the pool size for a viewport and background intensity.
func Capacity(w, h int, intensity float64) int {
	n := int(math.Floor(float64(w) * float64(h) * config.StarDensity * (0.5 + intensity)))
	return max(config.StarMin, min(config.StarMax, n))
}

// Initialize resizes the pool and respawns every star.
func (f *Field) Initialize(w, h int, intensity float64) {
	f.w, f.h = float64(w), float64(h)
	n := Capacity(w, h, intensity)
	if cap(f.stars) >= n {
		f.stars = f.stars[:n]
	} else {
		f.stars = make([]Star, n)
	}
	for i := range f.stars {
		f.spawn(&f.stars[i])
	}
}

func (f *Field) spawn(s *Star) {
	angle := f.rng.Float64() * 2 * math.Pi
	r := (f.rng.Float64()*(spawnMaxRadius-spawnMinRadius) + spawnMinRadius) * math.Min(f.w, f.h)
	s.X = f.w/2 + math.Cos(angle)*r
	s.Y = f.h/2 + math.Sin(angle)*r
	s.Size = f.rng.Float64()*(maxSize-minSize) + minSize
	s.Hue = minHue + f.rng.Float64()*(maxHue-minHue)
}

func (f *Field) Len() int { return len(f.stars) }

// Stars exposes the pool for inspection; callers must not keep it across
// Initialize.
func (f *Field) Stars() []Star { return f.stars }

// Speed is the per-frame outward displacement.
func Speed(low, mid, intensity float64) float64 {
	return (0.8 + intensity*2.0) * (1 + low*2.0 + mid)
}

// Advance moves every star one step outward and respawns those past the
// margin on the same step.
func (f *Field) Advance(low, mid, intensity float64) {
	cx, cy := f.w/2, f.h/2
	speed := Speed(low, mid, intensity)
	m := config.StarMargin
	for i := range f.stars {
		s := &f.stars[i]
		dx, dy := s.X-cx, s.Y-cy
		dist := math.Max(1, math.Hypot(dx, dy))
		s.X += dx / dist * speed
		s.Y += dy / dist * speed
		if s.X < -m || s.X > f.w+m || s.Y < -m || s.Y > f.h+m {
			f.spawn(s)
		}
	}
}

// Draw paints the stars and then the centred glow. overlayFactor dims both
// when compositing over video.
func (f *Field) Draw(dst render.Surface, high, intensity, overlayFactor float64) {
	alpha := overlayFactor * math.Min(1, 0.6+high*0.9)
	for _, s := range f.stars {
		c := render.HSL{H: math.Round(s.Hue), S: 80, L: 60}.NRGBA(alpha)
		dst.FillCircle(s.X, s.Y, s.Size, c)
	}

	short := math.Min(f.w, f.h)
	glow := overlayFactor * (0.10 + intensity*0.15 + high*0.20)
	dst.RadialGlow(f.w/2, f.h/2, short*0.10, short*0.50, render.RGBA(glowColor[0], glowColor[1], glowColor[2], glow))
}
