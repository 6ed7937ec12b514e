package scene

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/math/f64"

	"github.com/iburimskiy/audio-reactive/internal/analyzer"
	"github.com/iburimskiy/audio-reactive/internal/control"
	"github.com/iburimskiy/audio-reactive/internal/levels"
	"github.com/iburimskiy/audio-reactive/internal/media"
	"github.com/iburimskiy/audio-reactive/internal/params"
	"github.com/iburimskiy/audio-reactive/internal/render"
	"github.com/iburimskiy/audio-reactive/internal/starfield"
	"github.com/iburimskiy/audio-reactive/internal/video"
)

type fakeVideo struct {
	visible    bool
	geo        f64.Aff3
	brightness float64
	urls       []string
}

func (f *fakeVideo) SetVisible(v bool)         { f.visible = v }
func (f *fakeVideo) SetTransform(geo f64.Aff3) { f.geo = geo }
func (f *fakeVideo) SetBrightness(b float64)   { f.brightness = b }

func (f *fakeVideo) UseURL(_ context.Context, raw string) (bool, error) {
	id, err := video.VideoID(raw)
	if err != nil {
		return false, err
	}
	f.urls = append(f.urls, id)
	return true, nil
}

type panicSource struct{}

func (panicSource) Frame() (analyzer.Frame, bool) { panic("device gone") }

type constSource struct{ db float64 }

func (s constSource) Frame() (analyzer.Frame, bool) {
	db := make([]float64, 1024)
	bytes := make([]uint8, 1024)
	for i := range db {
		db[i] = s.db
		bytes[i] = 200
	}
	return analyzer.Frame{Decibels: db, Bytes: bytes, SampleRate: 48000, FFTSize: 2048}, true
}

func writePNG(t *testing.T, path string) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 8, 4))
	img.Set(1, 1, color.NRGBA{G: 255, A: 255})
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
}

type fixture struct {
	engine   *Engine
	video    *fakeVideo
	loader   *media.Loader
	selector *levels.Selector
	rec      *render.Recorder
}

func newFixture(t *testing.T, local analyzer.Source) *fixture {
	t.Helper()
	fx := &fixture{
		video:    &fakeVideo{},
		loader:   media.NewLoader(8),
		selector: levels.NewSelector(nil),
		rec:      render.NewRecorder(800, 600),
	}
	fx.engine = New(Options{
		Params:   params.Defaults(),
		Local:    local,
		Selector: fx.selector,
		Loader:   fx.loader,
		Video:    fx.video,
		Rand:     rand.New(rand.NewPCG(3, 4)),
		Logger:   zerolog.Nop(),
	})
	t.Cleanup(fx.engine.Close)
	return fx
}

func (fx *fixture) frame() {
	fx.rec.Reset()
	fx.engine.RenderFrame(fx.rec)
}

func (fx *fixture) post(t *testing.T, m control.Message) *control.Ack {
	t.Helper()
	var ack control.Ack
	require.NoError(t, fx.engine.Post(m, func(a control.Ack) { ack = a }))
	return &ack
}

// frameUntil renders frames until ack has been filled in.
func (fx *fixture) frameUntil(t *testing.T, ack *control.Ack) {
	t.Helper()
	require.Eventually(t, func() bool {
		fx.frame()
		return ack.Message != ""
	}, 2*time.Second, time.Millisecond)
}

func msg(t *testing.T, typ string, v any) control.Message {
	t.Helper()
	m, err := control.NewMessage(typ, v)
	require.NoError(t, err)
	return m
}

func TestCompositionOrder(t *testing.T) {
	fx := newFixture(t, nil)
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "bg.png"))
	logo := filepath.Join(t.TempDir(), "logo.png")
	writePNG(t, logo)

	fx.post(t, control.Message{Type: control.SetDirPathAndUse, Path: dir})
	fx.post(t, control.Message{Type: control.SetLogoPathAndUse, Path: logo})

	require.Eventually(t, func() bool {
		fx.frame()
		return fx.rec.Count(render.OpImage) == 2
	}, 2*time.Second, 5*time.Millisecond)

	assert.Equal(t, []string{StepClear, StepBackground, StepStarfield, StepSpectrum, StepLogo}, fx.rec.Tags())
	assert.Equal(t, render.OpRect, fx.rec.Ops[0].Kind, "images fade instead of clearing")
}

func TestVideoSourceClearsAndDrivesLayer(t *testing.T) {
	fx := newFixture(t, nil)
	ack := fx.post(t, control.Message{Type: control.UseYoutubeURL, URL: "https://youtu.be/abc"})
	fx.post(t, msg(t, control.SetVideoBrightness, 0.7))
	fx.frame()

	assert.Equal(t, control.OK(control.UseYoutubeURL), *ack)
	assert.Equal(t, []string{"abc"}, fx.video.urls)
	assert.True(t, fx.video.visible)
	assert.Equal(t, render.Identity(), fx.video.geo)
	assert.Equal(t, 0.7, fx.video.brightness)

	assert.Equal(t, render.OpClear, fx.rec.Ops[0].Kind)
	assert.False(t, fx.engine.Snapshot().SpaceOverlay)
	assert.Equal(t, []string{StepClear, StepSpectrum}, fx.rec.Tags())

	fx.post(t, msg(t, control.SetBgSource, "space"))
	fx.frame()
	assert.False(t, fx.video.visible)
	assert.True(t, fx.engine.Snapshot().SpaceOverlay)
	assert.Contains(t, fx.rec.Tags(), StepStarfield)
}

func TestSensitivityReachesSpectrum(t *testing.T) {
	fx := newFixture(t, nil)
	fx.selector.Fallback()
	fx.engine.Store().Save(levels.Triple{Low: 0.2, Mid: 0.2, High: 0.2})

	ack := fx.post(t, msg(t, control.SetSensitivity, 2.5))
	fx.frame()
	assert.Equal(t, control.Ack{Type: "ack", Message: "OK: setSensitivity"}, *ack)

	var bars []render.Op
	for _, op := range fx.rec.Ops {
		if op.Tag == StepSpectrum && op.Kind == render.OpRect {
			bars = append(bars, op)
		}
	}
	require.Len(t, bars, 128)
	// first sample: 255*0.2*1.5 scaled by 2.5 gives amplitude 0.75
	assert.InDelta(t, 0.75*600*0.75, bars[0].Coords[3], 1e-9)
}

func TestPanickingStepDoesNotStopFrame(t *testing.T) {
	fx := newFixture(t, panicSource{})
	fx.frame()
	fx.frame()

	assert.Equal(t, []string{StepClear, StepStarfield, StepSpectrum}, fx.rec.Tags())
	assert.InDelta(t, 2*0.016, fx.engine.Time(), 1e-12)
}

func TestLocalAnalysisFeedsStore(t *testing.T) {
	fx := newFixture(t, constSource{db: -20})
	for i := 0; i < 60; i++ {
		fx.frame()
	}
	lv := fx.engine.Levels()
	assert.Greater(t, lv.Low, 0.9)
	assert.Greater(t, lv.High, 0.9)

	fx.selector.Fallback()
	fx.engine.Store().Save(levels.Triple{})
	fx.frame()
	assert.Equal(t, levels.Triple{}, fx.engine.Levels(), "remote source keeps the analyser out")
}

func TestStaleBackgroundIsDropped(t *testing.T) {
	fx := newFixture(t, nil)
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "bg.png"))

	fx.post(t, control.Message{Type: control.SetDirPathAndUse, Path: dir})
	fx.frameUntil(t, fx.post(t, msg(t, control.SetBgSource, "video")))
	fx.loader.Wait()
	fx.frame()

	assert.Nil(t, fx.engine.background)
	assert.False(t, fx.engine.folderActive)
}

func TestAutoSwapTickRequestsImage(t *testing.T) {
	fx := newFixture(t, nil)
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "a.png"))
	writePNG(t, filepath.Join(dir, "b.png"))

	fx.frameUntil(t, fx.post(t, control.Message{Type: control.SetDirPathAndUse, Path: dir}))
	before := fx.loader.Current(media.RoleBackground)

	fx.engine.signalSwap()
	fx.engine.signalSwap()
	fx.frame()
	assert.Equal(t, before+1, fx.loader.Current(media.RoleBackground))

	fx.post(t, msg(t, control.SetBgSource, "space"))
	fx.frame()
	cancelled := fx.loader.Current(media.RoleBackground)
	fx.engine.signalSwap()
	fx.frame()
	assert.Equal(t, cancelled, fx.loader.Current(media.RoleBackground), "ticks are ignored away from images")
}

func TestFolderScanRunsOffFrame(t *testing.T) {
	fx := newFixture(t, nil)
	dir := t.TempDir()
	for _, name := range []string{"a.png", "b.png", "c.png"} {
		writePNG(t, filepath.Join(dir, name))
	}

	dirAck := fx.post(t, control.Message{Type: control.SetDirPathAndUse, Path: dir})
	logoAck := fx.post(t, msg(t, control.ToggleLogo, false))
	fx.frame()
	assert.Empty(t, dirAck.Message, "the scan finishes after the frame")
	assert.Empty(t, logoAck.Message, "later messages wait for the scan")
	assert.True(t, fx.engine.Snapshot().ShowLogo)

	fx.frameUntil(t, logoAck)
	assert.Equal(t, control.OK(control.SetDirPathAndUse), *dirAck)
	assert.Equal(t, control.OK(control.ToggleLogo), *logoAck)
	assert.Equal(t, 3, fx.engine.Folder().Count())
	assert.Equal(t, dir, fx.engine.Snapshot().ImageDir)
	assert.False(t, fx.engine.Snapshot().ShowLogo)
}

func TestFailedFolderScanKeepsPreviousFolder(t *testing.T) {
	fx := newFixture(t, nil)
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "a.png"))
	fx.frameUntil(t, fx.post(t, control.Message{Type: control.SetDirPathAndUse, Path: dir}))

	ack := fx.post(t, control.Message{Type: control.SetDirPathAndUse, Path: filepath.Join(dir, "missing")})
	fx.frameUntil(t, ack)
	assert.Equal(t, control.Failed(control.SetDirPathAndUse), *ack)
	assert.Equal(t, dir, fx.engine.Folder().Dir())
	assert.Equal(t, dir, fx.engine.Snapshot().ImageDir)
}

func TestIntensityChangeRebuildsStarfield(t *testing.T) {
	fx := newFixture(t, nil)
	fx.rec = render.NewRecorder(1920, 1080)
	fx.frame()
	require.Equal(t, starfield.Capacity(1920, 1080, 0.5), fx.engine.field.Len())

	ack := fx.post(t, msg(t, control.SetBgIntensity, 0.75))
	fx.frame()
	assert.Equal(t, control.OK(control.SetBgIntensity), *ack)
	assert.Equal(t, starfield.Capacity(1920, 1080, 0.75), fx.engine.field.Len())
	assert.NotEqual(t, starfield.Capacity(1920, 1080, 0.5), fx.engine.field.Len())
}

func TestListenAcknowledgesOnHub(t *testing.T) {
	fx := newFixture(t, nil)
	hub := control.NewHub("ar-controls", zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client, in := hub.Subscribe(8)
	go fx.engine.Listen(ctx, hub)
	require.Eventually(t, func() bool { return hub.Len() == 2 }, time.Second, time.Millisecond)

	hub.Publish(client, []byte(`{"type":"toggleLogo","value":false}`))
	hub.Publish(client, []byte(`{"type":"ack","message":"OK: elsewhere"}`))

	var payload []byte
	require.Eventually(t, func() bool {
		fx.frame()
		select {
		case payload = <-in:
			return true
		default:
			return false
		}
	}, 2*time.Second, 5*time.Millisecond)

	_, ack, isAck, err := control.Decode(payload)
	require.NoError(t, err)
	assert.True(t, isAck)
	assert.Equal(t, "OK: toggleLogo", ack.Message)
	assert.False(t, fx.engine.Snapshot().ShowLogo)
}
