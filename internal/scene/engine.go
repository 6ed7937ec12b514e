// Package scene runs the frame scheduler: it owns the visual parameters,
// applies control messages between frames and composes every renderer onto
// a render.Surface in a fixed order.
package scene

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/iburimskiy/audio-reactive/internal/analyzer"
	"github.com/iburimskiy/audio-reactive/internal/control"
	"github.com/iburimskiy/audio-reactive/internal/levels"
	"github.com/iburimskiy/audio-reactive/internal/media"
	"github.com/iburimskiy/audio-reactive/internal/metrics"
	"github.com/iburimskiy/audio-reactive/internal/params"
	"github.com/iburimskiy/audio-reactive/internal/render"
	"github.com/iburimskiy/audio-reactive/internal/spectrum"
	"github.com/iburimskiy/audio-reactive/internal/starfield"
)

var ErrInboxFull = errors.New("control inbox full")

const inboxSize = 64

// VideoLayer is the external video beneath the canvas.
type VideoLayer interface {
	render.Layer
	UseURL(ctx context.Context, rawURL string) (bool, error)
}

// Options wires an Engine. Store, Selector, Folder and Loader are shared
// with other goroutines; nil ones are created.
type Options struct {
	Params   params.Parameters
	Local    analyzer.Source
	Store    *levels.Store
	Selector *levels.Selector
	Folder   *media.Folder
	Loader   *media.Loader
	Logo     *media.LogoFile
	Video    VideoLayer
	Rand     *rand.Rand
	Logger   zerolog.Logger
}

type request struct {
	msg   control.Message
	reply func(control.Ack)
}

// folderScan is a finished background scan for a setDirPathAndUse request.
type folderScan struct {
	req   request
	dir   string
	files []string
	err   error
}

// Engine is the frame scheduler. RenderFrame must only be called from one
// goroutine; everything else is safe for concurrent use.
type Engine struct {
	log    zerolog.Logger
	ctx    context.Context
	cancel context.CancelFunc
	rng    *rand.Rand

	local    analyzer.Source
	store    *levels.Store
	selector *levels.Selector
	folder   *media.Folder
	loader   *media.Loader
	logoFile *media.LogoFile
	video    VideoLayer
	dispatch *control.Dispatcher
	swap     *media.AutoSwap

	inbox   chan request
	swapSig chan struct{}
	scans   chan folderScan

	mu     sync.RWMutex
	params params.Parameters

	// frame goroutine only
	t              float64
	analyzer       *analyzer.Analyzer
	field          *starfield.Field
	fieldW         int
	fieldH         int
	fieldIntensity float64
	spectrum       *spectrum.Visualizer
	bytes          []uint8
	background     image.Image
	logo           image.Image
	folderActive   bool
	warned         map[string]bool
	scanning       bool
	scanned        *folderScan
}

func New(opts Options) *Engine {
	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		log:      opts.Logger,
		ctx:      ctx,
		cancel:   cancel,
		rng:      opts.Rand,
		local:    opts.Local,
		store:    opts.Store,
		selector: opts.Selector,
		folder:   opts.Folder,
		loader:   opts.Loader,
		logoFile: opts.Logo,
		video:    opts.Video,
		dispatch: control.NewDispatcher(opts.Logger),
		inbox:    make(chan request, inboxSize),
		swapSig:  make(chan struct{}, 1),
		scans:    make(chan folderScan, 1),
		params:   opts.Params,
		analyzer: analyzer.New(),
		spectrum: spectrum.New(),
		warned:   make(map[string]bool),
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if e.store == nil {
		e.store = &levels.Store{}
	}
	if e.selector == nil {
		e.selector = levels.NewSelector(nil)
	}
	if e.folder == nil {
		e.folder = media.NewFolder(e.rng)
	}
	if e.loader == nil {
		e.loader = media.NewLoader(8)
	}
	if e.logoFile == nil {
		e.logoFile = &media.LogoFile{}
	}
	e.field = starfield.New(e.rng)
	e.swap = media.NewAutoSwap(e.signalSwap)
	e.folderActive = e.params.Source == params.Images && e.folder.Count() > 0
	return e
}

// Snapshot returns a copy of the current parameters.
func (e *Engine) Snapshot() params.Parameters {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.params
}

func (e *Engine) Levels() levels.Triple { return e.store.Load() }

func (e *Engine) Store() *levels.Store { return e.store }

func (e *Engine) Folder() *media.Folder { return e.folder }

func (e *Engine) Logo() *media.LogoFile { return e.logoFile }

// Time is the scene clock in seconds of fixed steps.
func (e *Engine) Time() float64 { return e.t }

// Images returns the decoded background and logo currently drawn, either
// may be nil. Frame goroutine only.
func (e *Engine) Images() (background, logo image.Image) {
	return e.background, e.logo
}

// Post queues m for the next frame. reply, if set, receives the ack once the
// message has been applied.
func (e *Engine) Post(m control.Message, reply func(control.Ack)) error {
	select {
	case e.inbox <- request{msg: m, reply: reply}:
		return nil
	default:
		return ErrInboxFull
	}
}

// Listen feeds control messages from hub into the engine and publishes the
// acks back on it until ctx ends.
func (e *Engine) Listen(ctx context.Context, hub *control.Hub) {
	id, in := hub.Subscribe(inboxSize)
	defer hub.Unsubscribe(id)
	e.log.Info().Str("channel", hub.Name()).Msg("listening for control messages")

	ack := func(a control.Ack) {
		if _, err := hub.PublishJSON(id, a); err != nil {
			e.log.Warn().Err(err).Msg("publishing ack failed")
		}
	}
	for {
		select {
		case <-ctx.Done():
			return
		case payload, ok := <-in:
			if !ok {
				return
			}
			m, _, isAck, err := control.Decode(payload)
			if err != nil {
				e.log.Warn().Err(err).Msg("dropping malformed control message")
				continue
			}
			if isAck {
				continue
			}
			if err := e.Post(m, ack); err != nil {
				e.log.Warn().Err(err).Str("type", m.Type).Msg("control message not queued")
				ack(control.Failed(m.Type))
			}
		}
	}
}

// Close stops the auto-swap ticker and abandons in-flight loads.
func (e *Engine) Close() {
	e.swap.Stop()
	e.cancel()
}

func (e *Engine) signalSwap() {
	select {
	case e.swapSig <- struct{}{}:
	default:
	}
}

// Params implements control.Target.
func (e *Engine) Params() params.Parameters { return e.Snapshot() }

// Commit implements control.Target: it stores p and carries out fx.
func (e *Engine) Commit(p params.Parameters, fx []params.Effect) {
	prev := e.Snapshot()
	e.mu.Lock()
	e.params = p
	e.mu.Unlock()
	if prev.Source != p.Source {
		e.log.Info().Stringer("from", prev.Source).Stringer("to", p.Source).Msg("background source switched")
	}
	for _, f := range fx {
		e.apply(f, p)
	}
}

func (e *Engine) apply(f params.Effect, p params.Parameters) {
	switch f {
	case params.StopAutoSwap:
		e.swap.Stop()
	case params.StartAutoSwap:
		e.swap.Start(p.SwapSeconds)
	case params.HideVideo:
		if e.video != nil {
			e.video.SetVisible(false)
		}
	case params.ShowVideo:
		if e.video != nil {
			e.video.SetVisible(true)
		}
	case params.CancelLoads:
		e.loader.Cancel(media.RoleBackground)
		e.background = nil
	case params.EnableSpaceOverlay, params.DisableSpaceOverlay:
		// the flag itself is already in p; the field is sized lazily
	case params.ActivateFolder:
		e.folderActive = true
	case params.DeactivateFolder:
		e.folderActive = false
	case params.RequestFolderImage:
		e.requestImage()
	}
}

func (e *Engine) requestImage() {
	if !e.folderActive {
		return
	}
	path, err := e.folder.Random()
	if err != nil {
		e.log.Debug().Err(err).Msg("no image to request")
		return
	}
	e.loader.Load(e.ctx, media.RoleBackground, path)
}

// UseVideo implements control.Target.
func (e *Engine) UseVideo(rawURL string) (bool, error) {
	if e.video == nil {
		return false, errors.New("no video layer")
	}
	return e.video.UseURL(e.ctx, rawURL)
}

// UseImageDir implements control.Target. It commits the folder scanned off
// the frame goroutine for the request being dispatched.
func (e *Engine) UseImageDir(dir string) (int, error) {
	s := e.scanned
	if s == nil || s.dir != dir {
		return 0, fmt.Errorf("%w: %s was not scanned", media.ErrInvalidDir, dir)
	}
	if s.err != nil {
		return 0, s.err
	}
	n := e.folder.Use(dir, s.files)
	e.log.Info().Str("dir", dir).Int("images", n).Msg("image folder set")
	return n, nil
}

// UseLogo implements control.Target.
func (e *Engine) UseLogo(path string) error {
	if err := e.logoFile.Set(path); err != nil {
		return err
	}
	e.loader.Load(e.ctx, media.RoleLogo, path)
	return nil
}

var _ control.Target = (*Engine)(nil)

// drain applies everything that arrived since the last frame: control
// messages, finished loads and auto-swap ticks. While a folder scan is in
// flight the messages queued behind it wait, so they still apply in order.
func (e *Engine) drain() {
	select {
	case s := <-e.scans:
		e.scanning = false
		e.scanned = &s
		e.respond(s.req, e.dispatch.Dispatch(e, s.req.msg))
		e.scanned = nil
	default:
	}

	for done := false; !done && !e.scanning; {
		select {
		case r := <-e.inbox:
			if dir := strings.TrimSpace(r.msg.Path); r.msg.Type == control.SetDirPathAndUse && dir != "" {
				e.scan(r, dir)
				continue
			}
			e.respond(r, e.dispatch.Dispatch(e, r.msg))
		default:
			done = true
		}
	}

	for done := false; !done; {
		select {
		case res := <-e.loader.Results():
			e.receive(res)
		default:
			done = true
		}
	}

	select {
	case <-e.swapSig:
		if e.Snapshot().Source == params.Images {
			e.requestImage()
		}
	default:
	}
}

func (e *Engine) respond(r request, ack control.Ack) {
	if r.reply != nil {
		r.reply(ack)
	}
}

// scan walks dir on its own goroutine; drain dispatches r once it is done.
func (e *Engine) scan(r request, dir string) {
	e.scanning = true
	go func() {
		files, err := media.Scan(dir)
		select {
		case e.scans <- folderScan{req: r, dir: dir, files: files, err: err}:
		case <-e.ctx.Done():
		}
	}()
}

func (e *Engine) receive(res media.Result) {
	role := res.Role.String()
	if !e.loader.Fresh(res) {
		metrics.ImageLoad(role, metrics.LoadStale)
		e.log.Debug().Str("role", role).Str("path", res.Path).Msg("dropping stale image")
		return
	}
	if res.Err != nil {
		metrics.ImageLoad(role, metrics.LoadFailed)
		e.log.Warn().Err(res.Err).Str("role", role).Msg("image load failed")
		if res.Role == media.RoleBackground {
			e.background = nil
		}
		return
	}
	metrics.ImageLoad(role, metrics.LoadApplied)
	if res.Role == media.RoleLogo {
		e.logo = res.Image
		return
	}
	e.background = res.Image
}
