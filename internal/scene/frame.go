package scene

import (
	"github.com/iburimskiy/audio-reactive/internal/config"
	"github.com/iburimskiy/audio-reactive/internal/levels"
	"github.com/iburimskiy/audio-reactive/internal/metrics"
	"github.com/iburimskiy/audio-reactive/internal/overlay"
	"github.com/iburimskiy/audio-reactive/internal/params"
	"github.com/iburimskiy/audio-reactive/internal/render"
	"github.com/iburimskiy/audio-reactive/internal/spectrum"
)

// Frame steps, in composition order.
const (
	StepAnalyze    = "analyze"
	StepClear      = "clear"
	StepBackground = "background"
	StepStarfield  = "starfield"
	StepSpectrum   = "spectrum"
	StepVideo      = "video"
	StepLogo       = "logo"
)

var fadeColor = [3]uint8{12, 14, 28}

// marker is implemented by surfaces that label draw calls, such as
// render.Recorder.
type marker interface {
	Mark(tag string)
}

// RenderFrame runs one pass: pending messages and loads are applied first,
// then the scene is drawn background first, spectrum above it and the logo
// on top. A panic in one step is logged and the remaining steps still run.
func (e *Engine) RenderFrame(dst render.Surface) {
	e.step("drain", nil, e.drain)

	e.t += config.TimeStep
	p := e.Snapshot()

	e.step(StepAnalyze, dst, e.analyze)
	lv := e.store.Load()

	w, h := dst.Size()
	e.step(StepClear, dst, func() {
		if p.Source == params.Video {
			dst.Clear()
			return
		}
		alpha := config.FadeAlphaBase + lv.High*config.FadeAlphaScale
		dst.FillRect(0, 0, float64(w), float64(h), render.RGBA(fadeColor[0], fadeColor[1], fadeColor[2], alpha))
	})

	e.step(StepBackground, dst, func() {
		if p.Source != params.Images {
			return
		}
		overlay.DrawBackground(dst, e.background, overlay.Background{
			Width:           w,
			Height:          h,
			Intensity:       p.BgIntensity,
			VideoBrightness: p.VideoBrightness,
			Time:            e.t,
			Levels:          lv,
		}, e.rng)
	})

	e.step(StepStarfield, dst, func() {
		if !p.SpaceOverlay {
			return
		}
		if e.field.Len() == 0 || w != e.fieldW || h != e.fieldH || p.BgIntensity != e.fieldIntensity {
			e.field.Initialize(w, h, p.BgIntensity)
			e.fieldW, e.fieldH, e.fieldIntensity = w, h, p.BgIntensity
			metrics.SetParticleCapacity(e.field.Len())
		}
		e.field.Advance(lv.Low, lv.Mid, p.BgIntensity)
		e.field.Draw(dst, lv.High, p.BgIntensity, p.OverlayFactor())
	})

	e.step(StepSpectrum, dst, func() {
		var bytes []uint8
		if e.selector.Active() == levels.Local {
			bytes = e.bytes
		}
		e.spectrum.Draw(dst, spectrum.Params{
			Mode:        p.Spectrum,
			Palette:     p.Palette,
			Sensitivity: p.Sensitivity,
			Time:        e.t,
		}, bytes, lv)
	})

	e.step(StepVideo, dst, func() {
		if p.Source != params.Video || e.video == nil {
			return
		}
		overlay.ApplyVideo(e.video, p.VideoBrightness)
	})

	e.step(StepLogo, dst, func() {
		overlay.DrawLogo(dst, e.logo, p.ShowLogo, overlay.Logo{
			Width:       w,
			Height:      h,
			Scale:       p.LogoScale,
			Opacity:     p.LogoOpacity,
			Sensitivity: p.Sensitivity,
			Time:        e.t,
			Levels:      lv,
			Corner:      p.CornerLogo(),
		}, e.rng)
	})

	if m, ok := dst.(marker); ok {
		m.Mark("")
	}
	metrics.FrameRendered()
	metrics.SetLevels(lv.Low, lv.Mid, lv.High)
}

// analyze feeds the local analyser when it is the active level source.
func (e *Engine) analyze() {
	if e.local == nil || e.selector.Active() != levels.Local {
		return
	}
	f, ok := e.local.Frame()
	if !ok {
		return
	}
	lv, ok := e.analyzer.Update(f)
	if !ok {
		return
	}
	e.bytes = append(e.bytes[:0], f.Bytes...)
	e.store.Save(lv)
}

func (e *Engine) step(name string, dst render.Surface, fn func()) {
	if m, ok := dst.(marker); ok {
		m.Mark(name)
	}
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		metrics.StepPanicked(name)
		ev := e.log.Debug()
		if !e.warned[name] {
			e.warned[name] = true
			ev = e.log.Warn()
		}
		ev.Interface("panic", r).Str("step", name).Msg("frame step panicked")
	}()
	fn()
}
