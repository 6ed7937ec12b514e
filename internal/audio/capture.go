// Package audio acquires the raw signal: microphone capture through
// portaudio or file playback through beep, both feeding a shared Ring that
// Capture turns into analysis frames.
package audio

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/iburimskiy/audio-reactive/internal/analyzer"
	"github.com/iburimskiy/audio-reactive/internal/config"
)

// ErrUnavailable is returned when no local audio input could be opened.
var ErrUnavailable = errors.New("local audio unavailable")

// Input is a running local audio producer.
type Input interface {
	SampleRate() float64
	Close() error
}

// Capture adapts a Ring to analyzer.Source. Frame is meant to be called
// from the frame loop only.
type Capture struct {
	ring *Ring

	mu   sync.Mutex
	rate float64
	fft  *analyzer.FFTAnalyser
}

func NewCapture(ring *Ring, sampleRate float64) *Capture {
	return &Capture{ring: ring, rate: sampleRate, fft: analyzer.NewFFTAnalyser(config.FFTSize, sampleRate)}
}

// SetSampleRate follows the input when it changes, e.g. a new file.
func (c *Capture) SetSampleRate(rate float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if rate == c.rate || rate <= 0 {
		return
	}
	c.rate = rate
	c.fft = analyzer.NewFFTAnalyser(config.FFTSize, rate)
}

func (c *Capture) Frame() (analyzer.Frame, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fft.Process(c.ring.Snapshot(c.fft.Size()))
}

// Open starts the local input selected by cfg.AudioMode. Any failure is
// reported as ErrUnavailable so the caller can fall back to remote levels.
func Open(cfg config.Config, ring *Ring, logger zerolog.Logger) (Input, error) {
	switch cfg.AudioMode {
	case "mic":
		m, err := OpenMic(ring, logger)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return m, nil
	case "file":
		p := NewFilePlayer(ring, logger)
		if cfg.AudioFile == "" {
			return p, nil
		}
		if err := p.Play(cfg.AudioFile); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return p, nil
	case "none", "":
		return nil, fmt.Errorf("%w: disabled", ErrUnavailable)
	default:
		return nil, fmt.Errorf("%w: unknown audio mode %q", ErrUnavailable, cfg.AudioMode)
	}
}
