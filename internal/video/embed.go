// Package video is the external video background: a layer beneath the
// canvas that can be shown, hidden and dimmed, fed by an ffmpeg decode of a
// YouTube video or a local file.
package video

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var ErrInvalidURL = errors.New("invalid YouTube URL")

// VideoID extracts the video id from the watch, shorts, embed and youtu.be
// URL forms.
func VideoID(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidURL, raw)
	}
	host := strings.ToLower(u.Hostname())
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")

	var id string
	switch {
	case strings.Contains(host, "youtube.com"):
		switch {
		case strings.HasPrefix(u.Path, "/watch"):
			id = u.Query().Get("v")
		case strings.HasPrefix(u.Path, "/shorts/"), strings.HasPrefix(u.Path, "/embed/"):
			if len(parts) > 1 {
				id = parts[1]
			}
		}
	case strings.Contains(host, "youtu.be"):
		id = parts[0]
	}
	if id == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidURL, raw)
	}
	return id, nil
}

// EmbedURL normalises any supported YouTube URL to a muted, looping,
// chrome-less embed URL.
func EmbedURL(raw string) (string, error) {
	id, err := VideoID(raw)
	if err != nil {
		return "", err
	}
	return "https://www.youtube.com/embed/" + id +
		"?autoplay=1&mute=1&controls=0&showinfo=0&rel=0&loop=1&playlist=" + id, nil
}

// WatchURL is the canonical page URL for an id, which is what yt-dlp wants.
func WatchURL(id string) string {
	return "https://www.youtube.com/watch?v=" + id
}
