package control

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/iburimskiy/audio-reactive/internal/config"
	"github.com/iburimskiy/audio-reactive/internal/metrics"
	"github.com/iburimskiy/audio-reactive/internal/params"
	"github.com/iburimskiy/audio-reactive/internal/spectrum"
)

// Message types understood by the dispatcher.
const (
	SetBgSource        = "setBgSource"
	ToggleSpace        = "toggleSpace"
	UseYoutubeURL      = "useYoutubeUrl"
	SetVideoBrightness = "setVideoBrightness"
	SetDirPathAndUse   = "setDirPathAndUse"
	SetLogoPathAndUse  = "setLogoPathAndUse"
	ToggleLogo         = "toggleLogo"
	SetLogoSize        = "setLogoSize"
	SetLogoOpacity     = "setLogoOpacity"
	SetSpectrumType    = "setSpectrumType"
	SetPalette         = "setPalette"
	SetSensitivity     = "setSensitivity"
	SetAutoSwap        = "setAutoSwap"
	SetSwapInterval    = "setSwapInterval"
	SetBgIntensity     = "setBgIntensity"
	NextImage          = "nextImage"
	ToggleHud          = "toggleHud"
)

// Target is the scene a dispatcher drives. Params and Commit bracket every
// handler; the Use methods perform validated side effects and fail without
// touching anything when their argument is bad.
type Target interface {
	Params() params.Parameters
	Commit(p params.Parameters, fx []params.Effect)

	// UseVideo points the video layer at a YouTube URL. reloaded is false
	// when that video is already loaded.
	UseVideo(rawURL string) (reloaded bool, err error)
	// UseImageDir scans dir and makes it the image folder.
	UseImageDir(dir string) (count int, err error)
	// UseLogo validates path and starts loading it as the logo.
	UseLogo(path string) error
}

// handler edits p in place and returns the effects to carry out. p is a
// copy; it is committed only when the handler returns no error.
type handler func(t Target, p *params.Parameters, m Message) ([]params.Effect, error)

// Dispatcher routes messages to their handler and produces one ack per
// message.
type Dispatcher struct {
	handlers map[string]handler
	log      zerolog.Logger
}

func NewDispatcher(logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		log: logger,
		handlers: map[string]handler{
			SetBgSource:        setBgSource,
			ToggleSpace:        toggleSpace,
			UseYoutubeURL:      useYoutubeURL,
			SetVideoBrightness: setVideoBrightness,
			SetDirPathAndUse:   setDirPathAndUse,
			SetLogoPathAndUse:  setLogoPathAndUse,
			ToggleLogo:         toggleLogo,
			SetLogoSize:        setLogoSize,
			SetLogoOpacity:     setLogoOpacity,
			SetSpectrumType:    setSpectrumType,
			SetPalette:         setPalette,
			SetSensitivity:     setSensitivity,
			SetAutoSwap:        setAutoSwap,
			SetSwapInterval:    setSwapInterval,
			SetBgIntensity:     setBgIntensity,
			NextImage:          nextImage,
			ToggleHud:          toggleHud,
		},
	}
}

// Types lists the known message types, sorted.
func (d *Dispatcher) Types() []string {
	out := make([]string, 0, len(d.handlers))
	for t := range d.handlers {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Dispatch applies m to t and returns its ack. Unknown types change nothing
// and are still acknowledged as OK.
func (d *Dispatcher) Dispatch(t Target, m Message) (ack Ack) {
	h, known := d.handlers[m.Type]
	defer func() {
		if r := recover(); r != nil {
			d.log.Error().Interface("panic", r).Str("type", m.Type).Msg("control handler panicked")
			ack = Failed(m.Type)
		}
		metrics.ControlMessage(m.Type, known, ack.Succeeded())
	}()

	if !known {
		d.log.Debug().Str("type", m.Type).Msg("ignoring unknown control message")
		return OK(m.Type)
	}

	p := t.Params()
	fx, err := h(t, &p, m)
	if err != nil {
		d.log.Warn().Err(err).Str("type", m.Type).Msg("control message rejected")
		return Failed(m.Type)
	}
	t.Commit(p, fx)
	return OK(m.Type)
}

func switchTo(p *params.Parameters, next params.Source) []params.Effect {
	np, fx := params.SwitchSource(*p, next)
	*p = np
	return fx
}

func setBgSource(_ Target, p *params.Parameters, m Message) ([]params.Effect, error) {
	src, err := params.ParseSource(m.Text())
	if err != nil {
		return nil, err
	}
	return switchTo(p, src), nil
}

func toggleSpace(_ Target, p *params.Parameters, m Message) ([]params.Effect, error) {
	p.SpaceOverlay = m.Bool()
	return nil, nil
}

func useYoutubeURL(t Target, p *params.Parameters, m Message) ([]params.Effect, error) {
	raw := strings.TrimSpace(m.URL)
	if raw == "" {
		raw = m.Text()
	}
	if _, err := t.UseVideo(raw); err != nil {
		return nil, err
	}
	p.VideoURL = raw
	return switchTo(p, params.Video), nil
}

func setVideoBrightness(_ Target, p *params.Parameters, m Message) ([]params.Effect, error) {
	v, err := nonNegative(m)
	if err != nil {
		return nil, err
	}
	p.VideoBrightness = v
	return nil, nil
}

func setDirPathAndUse(t Target, p *params.Parameters, m Message) ([]params.Effect, error) {
	dir := strings.TrimSpace(m.Path)
	if dir == "" {
		return nil, fmt.Errorf("%w: %s needs a path", ErrBadValue, m.Type)
	}
	if _, err := t.UseImageDir(dir); err != nil {
		return nil, err
	}
	p.ImageDir = dir
	if p.Source == params.Images {
		return []params.Effect{params.ActivateFolder, params.RequestFolderImage}, nil
	}
	return switchTo(p, params.Images), nil
}

func setLogoPathAndUse(t Target, p *params.Parameters, m Message) ([]params.Effect, error) {
	path := strings.TrimSpace(m.Path)
	if path == "" {
		return nil, fmt.Errorf("%w: %s needs a path", ErrBadValue, m.Type)
	}
	if err := t.UseLogo(path); err != nil {
		return nil, err
	}
	p.LogoPath = path
	p.ShowLogo = true
	return nil, nil
}

func toggleLogo(_ Target, p *params.Parameters, m Message) ([]params.Effect, error) {
	p.ShowLogo = m.Bool()
	return nil, nil
}

func setLogoSize(_ Target, p *params.Parameters, m Message) ([]params.Effect, error) {
	v, err := nonNegative(m)
	if err != nil {
		return nil, err
	}
	p.LogoScale = v
	return nil, nil
}

func setLogoOpacity(_ Target, p *params.Parameters, m Message) ([]params.Effect, error) {
	v, err := m.Float()
	if err != nil {
		return nil, err
	}
	p.LogoOpacity = min(1, max(0, v))
	return nil, nil
}

func setSpectrumType(_ Target, p *params.Parameters, m Message) ([]params.Effect, error) {
	mode, err := spectrum.ParseMode(m.Text())
	if err != nil {
		return nil, err
	}
	p.Spectrum = mode
	return nil, nil
}

func setPalette(_ Target, p *params.Parameters, m Message) ([]params.Effect, error) {
	pal, err := spectrum.ParsePalette(m.Text())
	if err != nil {
		return nil, err
	}
	p.Palette = pal
	return nil, nil
}

func setSensitivity(_ Target, p *params.Parameters, m Message) ([]params.Effect, error) {
	v, err := nonNegative(m)
	if err != nil {
		return nil, err
	}
	p.Sensitivity = v
	return nil, nil
}

func setAutoSwap(_ Target, p *params.Parameters, m Message) ([]params.Effect, error) {
	p.AutoSwap = m.Bool()
	if p.AutoSwap {
		return []params.Effect{params.StartAutoSwap}, nil
	}
	return []params.Effect{params.StopAutoSwap}, nil
}

func setSwapInterval(_ Target, p *params.Parameters, m Message) ([]params.Effect, error) {
	sec, ok := m.Int()
	if !ok || sec <= 0 {
		sec = config.DefaultSwapSeconds
	}
	p.SwapSeconds = sec
	if p.AutoSwap {
		return []params.Effect{params.StartAutoSwap}, nil
	}
	return nil, nil
}

func setBgIntensity(_ Target, p *params.Parameters, m Message) ([]params.Effect, error) {
	v, err := m.Float()
	if err != nil {
		return nil, err
	}
	p.BgIntensity = min(1, max(0, v))
	return nil, nil
}

func nextImage(_ Target, p *params.Parameters, _ Message) ([]params.Effect, error) {
	if p.Source != params.Images {
		return nil, nil
	}
	return []params.Effect{params.RequestFolderImage}, nil
}

func toggleHud(_ Target, p *params.Parameters, m Message) ([]params.Effect, error) {
	if m.hasValue() {
		p.ShowHUD = m.Bool()
	} else {
		p.ShowHUD = !p.ShowHUD
	}
	return nil, nil
}

func nonNegative(m Message) (float64, error) {
	v, err := m.Float()
	if err != nil {
		return 0, err
	}
	if v < 0 {
		return 0, fmt.Errorf("%w: %s must not be negative", ErrBadValue, m.Type)
	}
	return v, nil
}
