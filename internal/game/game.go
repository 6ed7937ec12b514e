// Package game hosts the scene in an ebiten window: it rasterises frames,
// draws the video layer beneath them and the meters above, and turns
// keyboard shortcuts into control messages.
package game

import (
	"image"
	"image/color"
	"sync"
	"sync/atomic"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/rs/zerolog"

	"github.com/iburimskiy/audio-reactive/internal/audio"
	"github.com/iburimskiy/audio-reactive/internal/hud"
	"github.com/iburimskiy/audio-reactive/internal/render"
	"github.com/iburimskiy/audio-reactive/internal/scene"
	"github.com/iburimskiy/audio-reactive/internal/video"
)

var (
	hudTrack = color.RGBA{R: 20, G: 25, B: 35, A: 160}
	hudFill  = color.RGBA{R: 120, G: 160, B: 255, A: 220}
)

// Options wires a Game. Video, Player and Done may be nil. Closing Done
// ends the game loop.
type Options struct {
	Engine *scene.Engine
	Done   <-chan struct{}
	Video  *video.Layer
	Player *audio.FilePlayer
	Width  int
	Height int
	Logger zerolog.Logger
}

// Game implements ebiten.Game.
type Game struct {
	engine *scene.Engine
	done   <-chan struct{}
	video  *video.Layer
	player *audio.FilePlayer
	log    zerolog.Logger
	width  int
	height int

	canvas *ebiten.Image
	surf   *surface
	meters *hud.Meters

	videoTex   *ebiten.Image
	videoFrame *image.RGBA

	// a picker dialog is open
	picking atomic.Bool

	mu      sync.Mutex
	lastErr error
}

func New(opts Options) *Game {
	return &Game{
		engine: opts.Engine,
		done:   opts.Done,
		video:  opts.Video,
		player: opts.Player,
		log:    opts.Logger,
		width:  opts.Width,
		height: opts.Height,
		surf:   newSurface(),
		meters: hud.NewMeters(ebiten.TPS()),
	}
}

func (g *Game) Update() error {
	select {
	case <-g.done:
		return ebiten.Termination
	default:
	}
	return g.handleInput()
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(color.Black)
	g.drawVideo(screen)

	b := screen.Bounds()
	g.ensureCanvas(b.Dx(), b.Dy())
	g.engine.RenderFrame(g.surf)
	if len(g.surf.textures) > 2 {
		bg, logo := g.engine.Images()
		g.surf.forget(bg, logo)
	}
	screen.DrawImage(g.canvas, nil)

	g.drawHUD(screen)
	ebitenutil.DebugPrintAt(screen, g.statusLine(), 12, 12)
}

// Layout follows the window so the scene is drawn at native resolution.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	if outsideWidth <= 0 || outsideHeight <= 0 {
		return g.width, g.height
	}
	return outsideWidth, outsideHeight
}

// ensureCanvas keeps one persistent canvas so the translucent fade fill
// leaves trails across frames. A resize starts from a blank canvas.
func (g *Game) ensureCanvas(w, h int) {
	if g.canvas != nil {
		cb := g.canvas.Bounds()
		if cb.Dx() == w && cb.Dy() == h {
			return
		}
		g.canvas.Deallocate()
	}
	g.canvas = ebiten.NewImage(w, h)
	g.surf.dst = g.canvas
}

func (g *Game) drawVideo(screen *ebiten.Image) {
	if g.video == nil || !g.video.Visible() {
		return
	}
	frame := g.video.Frame()
	if frame == nil {
		return
	}
	fb := frame.Bounds()
	if g.videoTex == nil || g.videoTex.Bounds().Dx() != fb.Dx() || g.videoTex.Bounds().Dy() != fb.Dy() {
		if g.videoTex != nil {
			g.videoTex.Deallocate()
		}
		g.videoTex = ebiten.NewImage(fb.Dx(), fb.Dy())
		g.videoFrame = nil
	}
	if g.videoFrame != frame {
		g.videoTex.WritePixels(frame.Pix)
		g.videoFrame = frame
	}

	sb := screen.Bounds()
	sx := float64(sb.Dx()) / float64(fb.Dx())
	sy := float64(sb.Dy()) / float64(fb.Dy())
	s := max(sx, sy)
	ox := (float64(sb.Dx()) - float64(fb.Dx())*s) / 2
	oy := (float64(sb.Dy()) - float64(fb.Dy())*s) / 2
	fit := render.Scale(render.Translate(render.Identity(), ox, oy), s, s)
	geo := render.Mul(g.video.Transform(), fit)

	drawTexture(screen, g.videoTex, geo, render.ImageOptions{Alpha: 1, Brightness: g.video.Brightness(), Saturation: 1})
}

func (g *Game) drawHUD(screen *ebiten.Image) {
	p := g.engine.Snapshot()
	scales := g.meters.Step(g.engine.Levels())
	if !p.ShowHUD {
		return
	}
	b := screen.Bounds()
	bars, visible := hud.Layout(b.Dx(), b.Dy(), p.Spectrum, scales)
	if !visible {
		return
	}
	for _, bar := range bars {
		ebitenutil.DebugPrintAt(screen, bar.Label, int(bar.LabelX), int(bar.LabelY))
		vector.DrawFilledRect(screen, float32(bar.X), float32(bar.Y), float32(hud.BarWidth), float32(bar.H), hudTrack, false)
		vector.DrawFilledRect(screen, float32(bar.X), float32(bar.Y), float32(bar.W), float32(bar.H), hudFill, false)
	}
}

func (g *Game) setErr(err error) {
	g.mu.Lock()
	g.lastErr = err
	g.mu.Unlock()
}

func (g *Game) err() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastErr
}

// Close releases the window resources the game owns.
func (g *Game) Close() {
	if g.canvas != nil {
		g.canvas.Deallocate()
	}
	if g.videoTex != nil {
		g.videoTex.Deallocate()
	}
	g.surf.forget()
}
