package media

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	_ "golang.org/x/image/webp"
)

// svgSize is the longest side, in pixels, of a rasterised SVG.
const svgSize = 512

// Decode reads and decodes one image file. SVG files are rasterised.
func Decode(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	var img image.Image
	if strings.EqualFold(filepath.Ext(path), ".svg") {
		img, err = decodeSVG(f)
	} else {
		img, _, err = image.Decode(f)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

// decodeSVG draws the icon scaled so its longest side is svgSize, keeping
// the view box aspect ratio.
func decodeSVG(r io.Reader) (image.Image, error) {
	icon, err := oksvg.ReadIconStream(r)
	if err != nil {
		return nil, err
	}
	vw, vh := icon.ViewBox.W, icon.ViewBox.H
	if vw <= 0 || vh <= 0 {
		vw, vh = svgSize, svgSize
	}
	scale := svgSize / math.Max(vw, vh)
	w, h := max(1, int(math.Round(vw*scale))), max(1, int(math.Round(vh*scale)))

	icon.SetTarget(0, 0, float64(w), float64(h))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	scanner := rasterx.NewScannerGV(w, h, img, img.Bounds())
	icon.Draw(rasterx.NewDasher(w, h, scanner), 1)
	return img, nil
}

// Role says which slot a loaded image is meant for.
type Role int

const (
	RoleBackground Role = iota
	RoleLogo
)

func (r Role) String() string {
	if r == RoleLogo {
		return "logo"
	}
	return "background"
}

// Result is one finished load. Generation identifies the request; a result
// whose generation is no longer current must be dropped.
type Result struct {
	Role       Role
	Generation uint64
	Path       string
	Image      image.Image
	Err        error
}

// Loader decodes images off the frame path and publishes results on a
// channel the frame drains.
type Loader struct {
	gen    [2]atomic.Uint64
	out    chan Result
	decode func(string) (image.Image, error)
	wg     sync.WaitGroup
}

func NewLoader(buffer int) *Loader {
	return &Loader{out: make(chan Result, buffer), decode: Decode}
}

// Load starts decoding path for role and returns the request's generation.
// Any earlier request for the same role becomes stale.
func (l *Loader) Load(ctx context.Context, role Role, path string) uint64 {
	gen := l.gen[role].Add(1)
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		img, err := l.decode(path)
		r := Result{Role: role, Generation: gen, Path: path, Image: img, Err: err}
		select {
		case l.out <- r:
		case <-ctx.Done():
		}
	}()
	return gen
}

// Cancel makes every in-flight request for role stale.
func (l *Loader) Cancel(role Role) {
	l.gen[role].Add(1)
}

func (l *Loader) Current(role Role) uint64 {
	return l.gen[role].Load()
}

// Fresh reports whether r answers the latest request for its role.
func (l *Loader) Fresh(r Result) bool {
	return r.Generation == l.gen[r.Role].Load()
}

func (l *Loader) Results() <-chan Result {
	return l.out
}

// Wait blocks until every started load has published or given up.
func (l *Loader) Wait() {
	l.wg.Wait()
}
