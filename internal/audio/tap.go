package audio

import (
	"sync"

	"github.com/faiface/beep"
)

// Ring keeps the most recent mono samples written by a capture callback or
// a playback tap, so the frame can analyse recently heard audio.
type Ring struct {
	mu     sync.RWMutex
	buf    []float64
	next   int
	filled int
}

func NewRing(size int) *Ring {
	return &Ring{buf: make([]float64, size)}
}

func (r *Ring) Write(samples []float64) {
	r.mu.Lock()
	for _, s := range samples {
		r.put(s)
	}
	r.mu.Unlock()
}

func (r *Ring) put(s float64) {
	r.buf[r.next] = s
	r.next++
	if r.next >= len(r.buf) {
		r.next = 0
	}
	if r.filled < len(r.buf) {
		r.filled++
	}
}

// Reset forgets everything written so far.
func (r *Ring) Reset() {
	r.mu.Lock()
	r.next, r.filled = 0, 0
	r.mu.Unlock()
}

// Silence fills the whole ring with zeros, as if nothing had been heard for
// its full length.
func (r *Ring) Silence() {
	r.mu.Lock()
	clear(r.buf)
	r.next, r.filled = 0, len(r.buf)
	r.mu.Unlock()
}

// Snapshot returns up to the last n samples, most recent last.
func (r *Ring) Snapshot(n int) []float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if n > r.filled {
		n = r.filled
	}
	out := make([]float64, n)
	idx := r.next - n
	if idx < 0 {
		idx += len(r.buf)
	}
	for i := 0; i < n; i++ {
		out[i] = r.buf[idx]
		idx++
		if idx >= len(r.buf) {
			idx = 0
		}
	}
	return out
}

// Tap wraps a beep.Streamer and copies everything it plays, downmixed to
// mono, into a Ring.
type Tap struct {
	Source beep.Streamer
	ring   *Ring
}

func NewTap(src beep.Streamer, ring *Ring) *Tap {
	return &Tap{Source: src, ring: ring}
}

func (t *Tap) Stream(samples [][2]float64) (int, bool) {
	n, ok := t.Source.Stream(samples)
	if n > 0 {
		t.ring.mu.Lock()
		for i := 0; i < n; i++ {
			t.ring.put((samples[i][0] + samples[i][1]) * 0.5)
		}
		t.ring.mu.Unlock()
	}
	return n, ok
}

func (t *Tap) Err() error { return t.Source.Err() }
