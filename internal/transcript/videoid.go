package transcript

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/hpungsan/flowfocus/internal/errors"
)

var (
	videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{3,64}$`)
	bareIDPattern  = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)
)

// ResolveVideoID extracts the video id from a watch, short, embed or youtu.be
// link. A bare 11-character id is accepted as is.
func ResolveVideoID(rawURL string) (string, error) {
	s := strings.TrimSpace(rawURL)
	if s == "" {
		return "", errors.NewInvalidVideoURL(rawURL)
	}
	if bareIDPattern.MatchString(s) {
		return s, nil
	}
	if !strings.Contains(s, "://") {
		s = "https://" + s
	}
	u, err := url.Parse(s)
	if err != nil {
		return "", errors.NewInvalidVideoURL(rawURL)
	}

	host := strings.ToLower(u.Hostname())
	for _, prefix := range []string{"www.", "m.", "music."} {
		host = strings.TrimPrefix(host, prefix)
	}
	segments := strings.FieldsFunc(u.Path, func(r rune) bool { return r == '/' })

	var id string
	switch host {
	case "youtu.be":
		if len(segments) > 0 {
			id = segments[0]
		}
	case "youtube.com", "youtube-nocookie.com":
		switch {
		case len(segments) == 1 && segments[0] == "watch":
			id = u.Query().Get("v")
		case len(segments) >= 2:
			switch segments[0] {
			case "shorts", "embed", "live", "v":
				id = segments[1]
			}
		}
	}

	if !videoIDPattern.MatchString(id) {
		return "", errors.NewInvalidVideoURL(rawURL)
	}
	return id, nil
}
