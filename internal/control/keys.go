package control

import (
	"github.com/iburimskiy/audio-reactive/internal/params"
)

// Action is a keyboard shortcut of the visualizer window that changes
// parameters. Shortcuts go through the dispatcher like remote messages.
type Action int

const (
	CycleSpectrum Action = iota
	CyclePalette
	ToggleSpaceOverlay
	ToggleLogoVisible
	RequestNextImage
	ToggleHUD
)

// ActionMessage builds the message that performs a on the current
// parameters p.
func ActionMessage(a Action, p params.Parameters) Message {
	var m Message
	switch a {
	case CycleSpectrum:
		m, _ = NewMessage(SetSpectrumType, p.Spectrum.Next().String())
	case CyclePalette:
		m, _ = NewMessage(SetPalette, p.Palette.Next().String())
	case ToggleSpaceOverlay:
		m, _ = NewMessage(ToggleSpace, !p.SpaceOverlay)
	case ToggleLogoVisible:
		m, _ = NewMessage(ToggleLogo, !p.ShowLogo)
	case RequestNextImage:
		m = Message{Type: NextImage}
	case ToggleHUD:
		m, _ = NewMessage(ToggleHud, !p.ShowHUD)
	}
	return m
}
