package video

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os/exec"
	"strings"
	"sync"
)

const streamFPS = 30

// Stream runs ffmpeg and keeps the most recently decoded frame.
type Stream struct {
	w, h   int
	cmd    *exec.Cmd
	stdout io.ReadCloser
	cancel context.CancelFunc
	done   chan struct{}

	mu     sync.RWMutex
	frame  *image.RGBA
	err    error
	frames int64
}

// ResolveURL asks yt-dlp for a direct media URL ffmpeg can open.
func ResolveURL(ctx context.Context, pageURL string) (string, error) {
	ytdlp, err := exec.LookPath("yt-dlp")
	if err != nil {
		return "", errors.New("yt-dlp not found")
	}
	out, err := exec.CommandContext(ctx, ytdlp, "-g", "-f", "best[height<=720][vcodec!=none]/best", pageURL).Output()
	if err != nil {
		return "", fmt.Errorf("yt-dlp: %w", err)
	}
	lines := strings.Fields(string(out))
	if len(lines) == 0 {
		return "", fmt.Errorf("yt-dlp returned no url for %s", pageURL)
	}
	return lines[0], nil
}

// StartStream decodes input, looping, cover-fitted to w x h.
func StartStream(ctx context.Context, input string, w, h int) (*Stream, error) {
	ffmpeg, err := exec.LookPath("ffmpeg")
	if err != nil {
		return nil, errors.New("ffmpeg not found")
	}

	ctx, cancel := context.WithCancel(ctx)
	args := []string{
		"-v", "quiet",
		"-re",
		"-stream_loop", "-1",
		"-i", input,
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-vf", fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=increase,crop=%d:%d,fps=%d", w, h, w, h, streamFPS),
		"-an",
		"pipe:1",
	}
	cmd := exec.CommandContext(ctx, ffmpeg, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("ffmpeg stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("starting ffmpeg: %w", err)
	}

	s := &Stream{w: w, h: h, cmd: cmd, stdout: stdout, cancel: cancel, done: make(chan struct{})}
	go s.run()
	return s, nil
}

func (s *Stream) run() {
	defer close(s.done)
	err := s.readFrames(s.stdout)
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

// readFrames copies complete rgba frames from r until it ends.
func (s *Stream) readFrames(r io.Reader) error {
	for {
		img := image.NewRGBA(image.Rect(0, 0, s.w, s.h))
		if _, err := io.ReadFull(r, img.Pix); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		s.mu.Lock()
		s.frame = img
		s.frames++
		s.mu.Unlock()
	}
}

// Latest returns the newest complete frame, or nil before the first one.
func (s *Stream) Latest() *image.RGBA {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.frame
}

// Err is the decode error once the stream has ended.
func (s *Stream) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

func (s *Stream) Close() error {
	if s.cancel != nil {
		s.cancel()
	}
	// the reader ends once the killed process closes its stdout
	if s.done != nil {
		<-s.done
	}
	if s.cmd != nil {
		_ = s.cmd.Wait()
	}
	return nil
}
