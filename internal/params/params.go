// Package params holds the visual parameters read by every drawing step and
// the background-source state machine that changes them.
package params

import (
	"errors"
	"fmt"
	"strings"

	"github.com/iburimskiy/audio-reactive/internal/config"
	"github.com/iburimskiy/audio-reactive/internal/spectrum"
)

var ErrUnknownSource = errors.New("unknown background source")

// Source is the active background.
type Source int

const (
	Starfield Source = iota
	Images
	Video
)

var sourceNames = [...]string{Starfield: "starfield", Images: "images", Video: "video"}

func ParseSource(s string) (Source, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "space" {
		return Starfield, nil
	}
	for i, name := range sourceNames {
		if s == name {
			return Source(i), nil
		}
	}
	return Starfield, fmt.Errorf("%w: %q", ErrUnknownSource, s)
}

func (s Source) String() string {
	if s < 0 || int(s) >= len(sourceNames) {
		return fmt.Sprintf("Source(%d)", int(s))
	}
	return sourceNames[s]
}

// Parameters is the whole tunable state of the scene. It is a plain value:
// handlers copy it, edit the copy and commit it back in one assignment.
type Parameters struct {
	Spectrum    spectrum.Mode
	Palette     spectrum.Palette
	Sensitivity float64

	Source          Source
	SpaceOverlay    bool
	BgIntensity     float64
	VideoBrightness float64
	VideoURL        string
	ImageDir        string
	AutoSwap        bool
	SwapSeconds     int

	ShowLogo    bool
	LogoScale   float64
	LogoOpacity float64
	LogoPath    string

	ShowHUD bool
}

func Defaults() Parameters {
	return Parameters{
		Spectrum:        spectrum.Linear,
		Palette:         spectrum.Rainbow,
		Sensitivity:     1.6,
		Source:          Images,
		SpaceOverlay:    true,
		BgIntensity:     0.5,
		VideoBrightness: 1.1,
		SwapSeconds:     config.DefaultSwapSeconds,
		ShowLogo:        true,
		LogoScale:       1.20,
		LogoOpacity:     0.90,
		ShowHUD:         true,
	}
}

// OverlayFactor dims the starfield over video.
func (p Parameters) OverlayFactor() float64 {
	if p.Source == Video {
		return config.VideoStarFactor
	}
	return 1
}

// CornerLogo reports whether the logo sits in the top-right corner, which
// is the case whenever nothing is drawn in the centre.
func (p Parameters) CornerLogo() bool {
	return p.Spectrum == spectrum.Linear || p.Spectrum == spectrum.None
}
