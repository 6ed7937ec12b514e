package audio

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bogem/id3v2/v2"
	"github.com/faiface/beep"
	"github.com/faiface/beep/flac"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/vorbis"
	"github.com/faiface/beep/wav"
	"github.com/rs/zerolog"
)

// ErrUnsupportedFormat is returned for audio files beep cannot decode.
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// AudioPatterns are the file dialog filters matching Decode.
var AudioPatterns = []string{"*.wav", "*.mp3", "*.flac", "*.ogg"}

// Decode picks a beep decoder by file extension. The returned streamer owns f.
func Decode(f *os.File) (beep.StreamSeekCloser, beep.Format, error) {
	switch ext := strings.ToLower(filepath.Ext(f.Name())); ext {
	case ".wav":
		return wav.Decode(f)
	case ".mp3":
		return mp3.Decode(f)
	case ".flac":
		return flac.Decode(f)
	case ".ogg":
		return vorbis.Decode(f)
	default:
		return nil, beep.Format{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// FilePlayer plays one audio file at a time through the speaker and taps
// what it plays into a Ring.
type FilePlayer struct {
	ring *Ring
	log  zerolog.Logger

	mu       sync.Mutex
	file     *os.File
	streamer beep.StreamSeekCloser
	format   beep.Format
	ctrl     *beep.Ctrl
	initDone bool
	paused   bool
	title    string

	// OnRate, if set, is called with the sample rate of every newly
	// started file.
	OnRate func(rate float64)
}

func NewFilePlayer(ring *Ring, logger zerolog.Logger) *FilePlayer {
	return &FilePlayer{ring: ring, log: logger}
}

// Play stops whatever is playing and starts path from the beginning.
func (p *FilePlayer) Play(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open audio: %w", err)
	}
	streamer, format, err := Decode(f)
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	bufferSize := format.SampleRate.N(time.Second / 20)
	switch {
	case !p.initDone:
		if err := speaker.Init(format.SampleRate, bufferSize); err != nil {
			_ = streamer.Close()
			return fmt.Errorf("speaker init: %w", err)
		}
		p.initDone = true
	case p.format.SampleRate != format.SampleRate:
		speaker.Clear()
		if err := speaker.Init(format.SampleRate, bufferSize); err != nil {
			_ = streamer.Close()
			return fmt.Errorf("speaker init: %w", err)
		}
	default:
		speaker.Clear()
	}
	p.closeCurrent()

	p.ring.Reset()
	ctrl, tapped := tappedCtrl(streamer, p.ring)
	p.file = f
	p.streamer = streamer
	p.format = format
	p.ctrl = ctrl
	p.paused = false
	p.title = ReadTitle(path)

	// The callback runs under the speaker lock; Play and TogglePause take
	// p.mu before the speaker lock, so release on another goroutine.
	speaker.Play(beep.Seq(tapped, beep.Callback(func() {
		go func() {
			p.mu.Lock()
			if p.ctrl == ctrl {
				p.closeCurrent()
			}
			p.mu.Unlock()
		}()
	})))

	p.log.Info().Str("file", path).Str("title", p.title).Int("rate", int(format.SampleRate)).Msg("playing")
	if p.OnRate != nil {
		p.OnRate(float64(format.SampleRate))
	}
	return nil
}

// tappedCtrl wraps s in a pause control and taps the control's output, so
// the silence of a paused track reaches the ring too.
func tappedCtrl(s beep.Streamer, ring *Ring) (*beep.Ctrl, beep.Streamer) {
	ctrl := &beep.Ctrl{Streamer: s}
	return ctrl, NewTap(ctrl, ring)
}

// closeCurrent releases the current file and leaves silence in the ring.
// Callers hold p.mu.
func (p *FilePlayer) closeCurrent() {
	if p.streamer != nil {
		_ = p.streamer.Close()
		p.streamer = nil
	}
	p.file = nil
	p.ctrl = nil
	p.ring.Silence()
}

func (p *FilePlayer) TogglePause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ctrl == nil {
		return
	}
	speaker.Lock()
	p.paused = !p.paused
	p.ctrl.Paused = p.paused
	speaker.Unlock()
}

// Title is the current track title, empty when nothing is playing.
func (p *FilePlayer) Title() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ctrl == nil {
		return ""
	}
	return p.title
}

func (p *FilePlayer) SampleRate() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return float64(p.format.SampleRate)
}

func (p *FilePlayer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.initDone {
		speaker.Clear()
	}
	p.closeCurrent()
	return nil
}

// ReadTitle returns "Artist - Title" from ID3v2 tags, or the file name
// without extension.
func ReadTitle(path string) string {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err == nil {
		defer tag.Close()
		title := strings.TrimSpace(tag.Title())
		artist := strings.TrimSpace(tag.Artist())
		switch {
		case title != "" && artist != "":
			return artist + " - " + title
		case title != "":
			return title
		}
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
