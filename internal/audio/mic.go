package audio

import (
	"fmt"

	"github.com/gordonklaus/portaudio"
	"github.com/rs/zerolog"

	"github.com/iburimskiy/audio-reactive/internal/config"
)

const micFramesPerBuffer = 1024

// Mic captures the default input device into a Ring.
type Mic struct {
	ring   *Ring
	stream *portaudio.Stream
	rate   float64
	buf    []float64
	log    zerolog.Logger
}

// OpenMic opens the default input device, trying the preferred sample rate
// first and the device's own default second.
func OpenMic(ring *Ring, logger zerolog.Logger) (*Mic, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("portaudio init: %w", err)
	}

	m := &Mic{ring: ring, buf: make([]float64, micFramesPerBuffer), log: logger}

	rates := []float64{config.SampleRate}
	if dev, err := portaudio.DefaultInputDevice(); err == nil && dev.DefaultSampleRate != config.SampleRate {
		rates = append(rates, dev.DefaultSampleRate)
	}

	var lastErr error
	for _, rate := range rates {
		stream, err := portaudio.OpenDefaultStream(1, 0, rate, micFramesPerBuffer, m.process)
		if err != nil {
			lastErr = err
			logger.Warn().Err(err).Float64("rate", rate).Msg("input stream open failed")
			continue
		}
		if err := stream.Start(); err != nil {
			_ = stream.Close()
			lastErr = err
			logger.Warn().Err(err).Float64("rate", rate).Msg("input stream start failed")
			continue
		}
		m.stream = stream
		m.rate = rate
		logger.Info().Float64("rate", rate).Msg("microphone capture started")
		return m, nil
	}

	_ = portaudio.Terminate()
	return nil, fmt.Errorf("open input stream: %w", lastErr)
}

func (m *Mic) process(in []float32) {
	if cap(m.buf) < len(in) {
		m.buf = make([]float64, len(in))
	}
	buf := m.buf[:len(in)]
	for i, v := range in {
		buf[i] = float64(v)
	}
	m.ring.Write(buf)
}

func (m *Mic) SampleRate() float64 { return m.rate }

func (m *Mic) Close() error {
	if m.stream == nil {
		return nil
	}
	err := m.stream.Stop()
	if cerr := m.stream.Close(); err == nil {
		err = cerr
	}
	m.stream = nil
	if terr := portaudio.Terminate(); err == nil {
		err = terr
	}
	return err
}
