package youtube

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/anatolykoptev/go_vidqa/internal/engine"
)

var videoIDRe = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// pathPrefixes are URL path forms that carry the video id as the next
// path segment.
var pathPrefixes = []string{"/embed/", "/shorts/", "/live/", "/v/"}

// ExtractVideoID parses the 11-char video id out of any supported
// YouTube URL form, or accepts a bare id. Returns
// engine.ErrInvalidIdentifier when nothing parses.
func ExtractVideoID(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if videoIDRe.MatchString(raw) {
		return raw, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %q", engine.ErrInvalidIdentifier, raw)
	}

	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	switch host {
	case "youtube.com", "m.youtube.com", "music.youtube.com":
		if id := u.Query().Get("v"); videoIDRe.MatchString(id) {
			return id, nil
		}
		for _, prefix := range pathPrefixes {
			if strings.HasPrefix(u.Path, prefix) {
				id := strings.SplitN(strings.TrimPrefix(u.Path, prefix), "/", 2)[0]
				if videoIDRe.MatchString(id) {
					return id, nil
				}
			}
		}
	case "youtu.be":
		id := strings.SplitN(strings.TrimPrefix(u.Path, "/"), "/", 2)[0]
		if videoIDRe.MatchString(id) {
			return id, nil
		}
	}

	return "", fmt.Errorf("%w: %q", engine.ErrInvalidIdentifier, raw)
}
