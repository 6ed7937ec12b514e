// Package levels holds the (low, mid, high) control signal that drives every
// reactive visual, and decides which producer is allowed to write it.
package levels

import (
	"sync"

	"github.com/iburimskiy/audio-reactive/internal/render"
)

// Triple is the normalised band-energy signal. Every field is in [0,1].
type Triple struct {
	Low  float64 `json:"low"`
	Mid  float64 `json:"mid"`
	High float64 `json:"high"`
}

// Clamped returns t with every band clamped to [0,1] and NaN mapped to 0.
func (t Triple) Clamped() Triple {
	return Triple{Low: render.Clamp01(t.Low), Mid: render.Clamp01(t.Mid), High: render.Clamp01(t.High)}
}

// Kind identifies a level producer.
type Kind int

const (
	Local Kind = iota
	Remote
)

func (k Kind) String() string {
	if k == Remote {
		return "remote"
	}
	return "local"
}

// Store is the shared, mutex-guarded triple. Writers may run on any
// goroutine; the frame reads one snapshot per pass.
type Store struct {
	mu     sync.RWMutex
	levels Triple
}

func (s *Store) Load() Triple {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.levels
}

func (s *Store) Save(t Triple) {
	s.mu.Lock()
	s.levels = t.Clamped()
	s.mu.Unlock()
}

// Selector tracks which producer is active. Exactly one is active at a time;
// the remote feed is only ever selected as a fallback.
type Selector struct {
	mu     sync.Mutex
	active Kind
	onSwap func(Kind)
}

// NewSelector starts with the local analyser active. onSwap, if set, is
// called after every effective change.
func NewSelector(onSwap func(Kind)) *Selector {
	return &Selector{active: Local, onSwap: onSwap}
}

func (s *Selector) Active() Kind {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Fallback switches to the remote feed after local acquisition failed.
// It reports whether the switch happened.
func (s *Selector) Fallback() bool {
	return s.set(Remote)
}

func (s *Selector) set(k Kind) bool {
	s.mu.Lock()
	changed := s.active != k
	s.active = k
	cb := s.onSwap
	s.mu.Unlock()
	if changed && cb != nil {
		cb(k)
	}
	return changed
}
