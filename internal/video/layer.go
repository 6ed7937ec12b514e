package video

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/image/math/f64"

	"github.com/iburimskiy/audio-reactive/internal/render"
)

var ErrInvalidFile = errors.New("invalid video file")

// Source produces frames for the layer.
type Source interface {
	Latest() *image.RGBA
	Close() error
}

// Opener starts a Source for a YouTube id or a local file path.
type Opener func(ctx context.Context, ref string, w, h int) (Source, error)

// OpenFFmpeg resolves YouTube ids through yt-dlp and decodes with ffmpeg.
func OpenFFmpeg(ctx context.Context, ref string, w, h int) (Source, error) {
	input := ref
	if _, err := os.Stat(ref); err != nil {
		resolved, err := ResolveURL(ctx, WatchURL(ref))
		if err != nil {
			return nil, err
		}
		input = resolved
	}
	return StartStream(ctx, input, w, h)
}

// Layer is the video surface beneath the canvas. It implements
// render.Layer; the host reads Frame, Visible and Brightness when drawing.
type Layer struct {
	open Opener
	log  zerolog.Logger
	w, h int

	mu         sync.RWMutex
	visible    bool
	geo        f64.Aff3
	brightness float64
	ref        string
	src        Source
	gen        uint64
}

func NewLayer(open Opener, w, h int, logger zerolog.Logger) *Layer {
	if open == nil {
		open = OpenFFmpeg
	}
	return &Layer{open: open, log: logger, w: w, h: h, geo: render.Identity(), brightness: 1}
}

var _ render.Layer = (*Layer)(nil)

func (l *Layer) SetVisible(v bool) {
	l.mu.Lock()
	l.visible = v
	l.mu.Unlock()
}

func (l *Layer) SetTransform(geo f64.Aff3) {
	l.mu.Lock()
	l.geo = geo
	l.mu.Unlock()
}

func (l *Layer) SetBrightness(b float64) {
	l.mu.Lock()
	l.brightness = b
	l.mu.Unlock()
}

func (l *Layer) Visible() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.visible
}

func (l *Layer) Brightness() float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.brightness
}

func (l *Layer) Transform() f64.Aff3 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.geo
}

// Ref is the YouTube id or file path currently loaded.
func (l *Layer) Ref() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.ref
}

// Frame is the newest decoded frame, nil while loading or after a failure.
func (l *Layer) Frame() *image.RGBA {
	l.mu.RLock()
	src := l.src
	l.mu.RUnlock()
	if src == nil {
		return nil
	}
	return src.Latest()
}

// UseURL switches to a YouTube video. The same video as the current one is
// kept playing and reported as not reloaded.
func (l *Layer) UseURL(ctx context.Context, rawURL string) (bool, error) {
	id, err := VideoID(rawURL)
	if err != nil {
		return false, err
	}
	return l.use(ctx, id), nil
}

// UseFile plays a local video file. Reloading the current file is a no-op
// reported as false.
func (l *Layer) UseFile(ctx context.Context, path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return false, fmt.Errorf("%w: %s", ErrInvalidFile, path)
	}
	return l.use(ctx, path), nil
}

func (l *Layer) use(ctx context.Context, ref string) bool {
	l.mu.Lock()
	if ref == l.ref {
		l.mu.Unlock()
		return false
	}
	old := l.src
	l.ref, l.src = ref, nil
	l.gen++
	gen := l.gen
	l.mu.Unlock()

	go func() {
		if old != nil {
			_ = old.Close()
		}
		src, err := l.open(ctx, ref, l.w, l.h)
		if err != nil {
			l.log.Warn().Err(err).Str("ref", ref).Msg("video load failed")
			return
		}
		l.mu.Lock()
		defer l.mu.Unlock()
		if gen != l.gen {
			_ = src.Close()
			return
		}
		l.src = src
		l.log.Info().Str("ref", ref).Msg("video started")
	}()
	return true
}

// Close stops decoding.
func (l *Layer) Close() error {
	l.mu.Lock()
	src := l.src
	l.src, l.ref = nil, ""
	l.gen++
	l.mu.Unlock()
	if src != nil {
		return src.Close()
	}
	return nil
}
