package spectrum

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/iburimskiy/audio-reactive/internal/render"
)

var ErrUnknownPalette = errors.New("unknown palette")

// Palette is a closed set of colour schemes for spectrum samples.
type Palette int

const (
	Rainbow Palette = iota
	Neon
	Fire
	Cyber
)

type paletteDef struct {
	name  string
	color func(ratio, shift, amp float64) render.HSL
}

var neonHues = [3]float64{200, 300, 90}

var palettes = [...]paletteDef{
	Rainbow: {"rainbow", func(ratio, shift, amp float64) render.HSL {
		return render.HSL{H: math.Mod(ratio*360+shift, 360), S: 90, L: 45 + amp*25}
	}},
	Neon: {"neon", func(ratio, shift, amp float64) render.HSL {
		i := min(len(neonHues)-1, max(0, int(math.Floor(ratio*float64(len(neonHues))))))
		return render.HSL{H: neonHues[i] + shift*0.4, S: 100, L: 50 + amp*20}
	}},
	Fire: {"fire", func(ratio, _, amp float64) render.HSL {
		return render.HSL{H: 10 + ratio*50, S: 100, L: 35 + amp*30}
	}},
	Cyber: {"cyber", func(ratio, _, amp float64) render.HSL {
		return render.HSL{H: 180 + ratio*120, S: 85, L: 45 + amp*22}
	}},
}

// Palettes lists every palette in cycling order.
func Palettes() []Palette {
	out := make([]Palette, len(palettes))
	for i := range palettes {
		out[i] = Palette(i)
	}
	return out
}

func ParsePalette(s string) (Palette, error) {
	for i, p := range palettes {
		if strings.EqualFold(strings.TrimSpace(s), p.name) {
			return Palette(i), nil
		}
	}
	return Rainbow, fmt.Errorf("%w: %q", ErrUnknownPalette, s)
}

func (p Palette) valid() bool { return p >= 0 && int(p) < len(palettes) }

func (p Palette) String() string {
	if !p.valid() {
		return fmt.Sprintf("Palette(%d)", int(p))
	}
	return palettes[p].name
}

// Next cycles to the following palette.
func (p Palette) Next() Palette {
	if !p.valid() {
		return Rainbow
	}
	return Palette((int(p) + 1) % len(palettes))
}

// ColorFor maps a sample's position in the spectrum, the animation clock
// and its amplitude to a colour. Inputs outside [0,1] are clamped.
func (p Palette) ColorFor(ratio, t, amp float64) render.HSL {
	if !p.valid() {
		p = Rainbow
	}
	shift := math.Mod(t*30, 360)
	if shift < 0 || math.IsNaN(shift) {
		shift = 0
	}
	return palettes[p].color(render.Clamp01(ratio), shift, render.Clamp01(amp))
}
