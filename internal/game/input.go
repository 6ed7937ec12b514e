package game

import (
	"errors"
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/ncruces/zenity"

	"github.com/iburimskiy/audio-reactive/internal/audio"
	"github.com/iburimskiy/audio-reactive/internal/control"
	"github.com/iburimskiy/audio-reactive/internal/media"
)

var errNoPlayer = errors.New("file playback is disabled")

var actionKeys = map[ebiten.Key]control.Action{
	ebiten.KeyM: control.CycleSpectrum,
	ebiten.KeyP: control.CyclePalette,
	ebiten.KeyS: control.ToggleSpaceOverlay,
	ebiten.KeyL: control.ToggleLogoVisible,
	ebiten.KeyN: control.RequestNextImage,
	ebiten.KeyH: control.ToggleHUD,
}

func (g *Game) handleInput() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) || inpututil.IsKeyJustPressed(ebiten.KeyQ) {
		return ebiten.Termination
	}

	for key, action := range actionKeys {
		if inpututil.IsKeyJustPressed(key) {
			g.post(control.ActionMessage(action, g.engine.Snapshot()))
		}
	}

	if inpututil.IsKeyJustPressed(ebiten.KeySpace) && g.player != nil {
		g.player.TogglePause()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyO) {
		g.pick(g.pickAudio)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF) {
		g.pick(g.pickFolder)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyG) {
		g.pick(g.pickLogo)
	}
	return nil
}

// post hands m to the engine and records a failed ack as the status error.
func (g *Game) post(m control.Message) {
	err := g.engine.Post(m, func(a control.Ack) {
		if a.Succeeded() {
			g.setErr(nil)
			return
		}
		g.setErr(errors.New(a.Message))
	})
	if err != nil {
		g.setErr(fmt.Errorf("%s: %w", m.Type, err))
	}
}

// pick runs a blocking dialog off the frame goroutine, one at a time.
func (g *Game) pick(dialog func() error) {
	if !g.picking.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer g.picking.Store(false)
		err := dialog()
		if errors.Is(err, zenity.ErrCanceled) {
			return
		}
		if err != nil {
			g.log.Warn().Err(err).Msg("picker failed")
		}
		g.setErr(err)
	}()
}

func (g *Game) pickAudio() error {
	if g.player == nil {
		return errNoPlayer
	}
	path, err := zenity.SelectFile(
		zenity.Title("Open Audio File"),
		zenity.FileFilters{{Name: "Audio", Patterns: audio.AudioPatterns}},
	)
	if err != nil {
		return err
	}
	return g.player.Play(path)
}

func (g *Game) pickFolder() error {
	dir, err := zenity.SelectFile(zenity.Title("Choose Image Folder"), zenity.Directory())
	if err != nil {
		return err
	}
	g.post(control.Message{Type: control.SetDirPathAndUse, Path: dir})
	return nil
}

func (g *Game) pickLogo() error {
	path, err := zenity.SelectFile(
		zenity.Title("Choose Logo"),
		zenity.FileFilters{{Name: "Logo", Patterns: media.LogoPatterns}},
	)
	if err != nil {
		return err
	}
	g.post(control.Message{Type: control.SetLogoPathAndUse, Path: path})
	return nil
}
