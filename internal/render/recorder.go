package render

import (
	"image"
	"image/color"

	"golang.org/x/image/math/f64"
)

type OpKind string

const (
	OpClear  OpKind = "clear"
	OpRect   OpKind = "rect"
	OpCircle OpKind = "circle"
	OpLine   OpKind = "line"
	OpGlow   OpKind = "glow"
	OpImage  OpKind = "image"
)

// Op is one recorded draw call.
type Op struct {
	Kind   OpKind
	Coords [4]float64
	Width  float64
	Color  color.NRGBA
	Image  image.Image
	Geo    f64.Aff3
	Opts   ImageOptions
	Tag    string
}

// Recorder is an in-memory Surface that records every call. It backs the
// renderer tests and headless runs.
type Recorder struct {
	W, H int
	Ops  []Op

	tag string
}

func NewRecorder(w, h int) *Recorder {
	return &Recorder{W: w, H: h}
}

// Mark labels every following op until the next Mark, so tests can assert
// on composition order.
func (r *Recorder) Mark(tag string) { r.tag = tag }

func (r *Recorder) Reset() {
	r.Ops = r.Ops[:0]
	r.tag = ""
}

func (r *Recorder) Size() (int, int) { return r.W, r.H }

func (r *Recorder) Clear() {
	r.Ops = append(r.Ops, Op{Kind: OpClear, Tag: r.tag})
}

func (r *Recorder) FillRect(x, y, w, h float64, c color.Color) {
	r.Ops = append(r.Ops, Op{Kind: OpRect, Coords: [4]float64{x, y, w, h}, Color: toNRGBA(c), Tag: r.tag})
}

func (r *Recorder) FillCircle(cx, cy, rad float64, c color.Color) {
	r.Ops = append(r.Ops, Op{Kind: OpCircle, Coords: [4]float64{cx, cy, rad, 0}, Color: toNRGBA(c), Tag: r.tag})
}

func (r *Recorder) StrokeLine(x1, y1, x2, y2, width float64, c color.Color) {
	r.Ops = append(r.Ops, Op{Kind: OpLine, Coords: [4]float64{x1, y1, x2, y2}, Width: width, Color: toNRGBA(c), Tag: r.tag})
}

func (r *Recorder) RadialGlow(cx, cy, inner, outer float64, c color.NRGBA) {
	r.Ops = append(r.Ops, Op{Kind: OpGlow, Coords: [4]float64{cx, cy, inner, outer}, Color: c, Tag: r.tag})
}

func (r *Recorder) DrawImage(img image.Image, geo f64.Aff3, opts ImageOptions) {
	r.Ops = append(r.Ops, Op{Kind: OpImage, Image: img, Geo: geo, Opts: opts, Tag: r.tag})
}

// Count returns how many ops of the given kind were recorded.
func (r *Recorder) Count(kind OpKind) int {
	n := 0
	for _, op := range r.Ops {
		if op.Kind == kind {
			n++
		}
	}
	return n
}

// Tags returns the distinct op tags in first-seen order.
func (r *Recorder) Tags() []string {
	var tags []string
	seen := map[string]bool{}
	for _, op := range r.Ops {
		if op.Tag == "" || seen[op.Tag] {
			continue
		}
		seen[op.Tag] = true
		tags = append(tags, op.Tag)
	}
	return tags
}

func toNRGBA(c color.Color) color.NRGBA {
	return color.NRGBAModel.Convert(c).(color.NRGBA)
}
