package params

// Effect is an external consequence of a parameter change. The state
// change itself is already in the returned Parameters; the engine carries
// out the effects on the video layer, image folder and auto-swap ticker.
type Effect int

const (
	StopAutoSwap Effect = iota
	HideVideo
	ShowVideo
	CancelLoads
	DisableSpaceOverlay
	EnableSpaceOverlay
	ActivateFolder
	DeactivateFolder
	RequestFolderImage
	StartAutoSwap
)

var effectNames = [...]string{
	StopAutoSwap:        "stop-auto-swap",
	HideVideo:           "hide-video",
	ShowVideo:           "show-video",
	CancelLoads:         "cancel-loads",
	DisableSpaceOverlay: "disable-space-overlay",
	EnableSpaceOverlay:  "enable-space-overlay",
	ActivateFolder:      "activate-folder",
	DeactivateFolder:    "deactivate-folder",
	RequestFolderImage:  "request-folder-image",
	StartAutoSwap:       "start-auto-swap",
}

func (e Effect) String() string {
	if e < 0 || int(e) >= len(effectNames) {
		return "unknown-effect"
	}
	return effectNames[e]
}

// SwitchSource moves p to the next background source and lists what has to
// happen outside the parameters. Switching to the active source is a no-op.
func SwitchSource(p Parameters, next Source) (Parameters, []Effect) {
	if p.Source == next {
		return p, nil
	}
	var fx []Effect

	// leaving
	switch p.Source {
	case Images:
		fx = append(fx, StopAutoSwap, DeactivateFolder, CancelLoads)
		p.AutoSwap = false
	case Video:
		fx = append(fx, HideVideo)
	}

	// entering
	switch next {
	case Images:
		fx = append(fx, ActivateFolder, RequestFolderImage)
	case Video:
		fx = append(fx, ShowVideo)
		if p.SpaceOverlay {
			fx = append(fx, DisableSpaceOverlay)
			p.SpaceOverlay = false
		}
	case Starfield:
		if !p.SpaceOverlay {
			fx = append(fx, EnableSpaceOverlay)
			p.SpaceOverlay = true
		}
	}

	p.Source = next
	return p, fx
}

// Has reports whether fx contains e.
func Has(fx []Effect, e Effect) bool {
	for _, f := range fx {
		if f == e {
			return true
		}
	}
	return false
}
