// Package controlui is a terminal control surface for a running visualizer:
// every edited control is sent as one control message and the latest ack is
// shown below the form.
package controlui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/iburimskiy/audio-reactive/internal/control"
	"github.com/iburimskiy/audio-reactive/internal/params"
	"github.com/iburimskiy/audio-reactive/internal/spectrum"
)

type kind int

const (
	kindChoice kind = iota
	kindToggle
	kindNumber
	kindText
	kindAction
)

// carrier is where a text field's value travels in the message.
type carrier int

const (
	inValue carrier = iota
	inURL
	inPath
)

type field struct {
	label   string
	typ     string
	kind    kind
	carrier carrier

	choices []string
	choice  int
	on      bool
	value   string
}

func (f *field) cycle(delta int) {
	if len(f.choices) == 0 {
		return
	}
	f.choice = (f.choice + delta + len(f.choices)) % len(f.choices)
}

// message builds the control message for the field's current value.
func (f field) message() (control.Message, error) {
	switch f.kind {
	case kindToggle:
		return control.NewMessage(f.typ, f.on)
	case kindChoice:
		return control.NewMessage(f.typ, f.choices[f.choice])
	case kindNumber:
		v, err := strconv.ParseFloat(strings.TrimSpace(f.value), 64)
		if err != nil {
			return control.Message{}, fmt.Errorf("%s: %q is not a number", f.label, f.value)
		}
		return control.NewMessage(f.typ, v)
	case kindText:
		s := strings.TrimSpace(f.value)
		switch f.carrier {
		case inURL:
			return control.Message{Type: f.typ, URL: s}, nil
		case inPath:
			return control.Message{Type: f.typ, Path: s}, nil
		}
		return control.NewMessage(f.typ, s)
	default:
		return control.Message{Type: f.typ}, nil
	}
}

// display is the field value as shown in the form.
func (f field) display() string {
	switch f.kind {
	case kindToggle:
		if f.on {
			return "on"
		}
		return "off"
	case kindChoice:
		return "‹ " + f.choices[f.choice] + " ›"
	case kindAction:
		return "[enter]"
	}
	if f.value == "" {
		return "-"
	}
	return f.value
}

func number(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

func indexOf(choices []string, s string) int {
	for i, c := range choices {
		if c == s {
			return i
		}
	}
	return 0
}

// newFields lays out one field per control message, starting from p.
func newFields(p params.Parameters) []field {
	sources := []string{params.Images.String(), params.Video.String(), params.Starfield.String()}
	modes := []string{spectrum.None.String(), spectrum.Linear.String(), spectrum.Radial.String()}
	var palettes []string
	for _, pal := range spectrum.Palettes() {
		palettes = append(palettes, pal.String())
	}

	return []field{
		{label: "Background", typ: control.SetBgSource, kind: kindChoice, choices: sources, choice: indexOf(sources, p.Source.String())},
		{label: "Space overlay", typ: control.ToggleSpace, kind: kindToggle, on: p.SpaceOverlay},
		{label: "Background intensity", typ: control.SetBgIntensity, kind: kindNumber, value: number(p.BgIntensity)},
		{label: "Image folder", typ: control.SetDirPathAndUse, kind: kindText, carrier: inPath, value: p.ImageDir},
		{label: "Next image", typ: control.NextImage, kind: kindAction},
		{label: "Auto swap", typ: control.SetAutoSwap, kind: kindToggle, on: p.AutoSwap},
		{label: "Swap interval (s)", typ: control.SetSwapInterval, kind: kindNumber, value: strconv.Itoa(p.SwapSeconds)},
		{label: "YouTube URL", typ: control.UseYoutubeURL, kind: kindText, carrier: inURL, value: p.VideoURL},
		{label: "Video brightness", typ: control.SetVideoBrightness, kind: kindNumber, value: number(p.VideoBrightness)},
		{label: "Logo", typ: control.ToggleLogo, kind: kindToggle, on: p.ShowLogo},
		{label: "Logo file", typ: control.SetLogoPathAndUse, kind: kindText, carrier: inPath, value: p.LogoPath},
		{label: "Logo size", typ: control.SetLogoSize, kind: kindNumber, value: number(p.LogoScale)},
		{label: "Logo opacity", typ: control.SetLogoOpacity, kind: kindNumber, value: number(p.LogoOpacity)},
		{label: "Spectrum", typ: control.SetSpectrumType, kind: kindChoice, choices: modes, choice: indexOf(modes, p.Spectrum.String())},
		{label: "Palette", typ: control.SetPalette, kind: kindChoice, choices: palettes, choice: indexOf(palettes, p.Palette.String())},
		{label: "Sensitivity", typ: control.SetSensitivity, kind: kindNumber, value: number(p.Sensitivity)},
		{label: "Meters", typ: control.ToggleHud, kind: kindToggle, on: p.ShowHUD},
	}
}
