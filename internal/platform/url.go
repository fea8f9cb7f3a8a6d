package platform

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// URL parameters and paths
const (
	VideoParam    = "v"
	PlaylistParam = "list"
	WatchPath     = "/watch"
	PlaylistPath  = "/playlist"
	DefaultScheme = "https://"
	SchemeMarker  = "://"
	ShortLinkHost = "youtu.be"
	VideoIDLength = 11
)

// URL templates
const (
	YouTubeVideoURLTemplate    = "https://www.youtube.com/watch?v=%s"
	YouTubePlaylistURLTemplate = "https://www.youtube.com/playlist?list=%s"
)

// Path prefixes that carry the video id as the next segment
var videoPathPrefixes = []string{"/embed/", "/v/", "/shorts/", "/live/"}

// Hosts serving the canonical long form
var longFormHosts = map[string]bool{
	"youtube.com":              true,
	"www.youtube.com":          true,
	"m.youtube.com":            true,
	"music.youtube.com":        true,
	"youtube-nocookie.com":     true,
	"www.youtube-nocookie.com": true,
}

var videoIDPattern = regexp.MustCompile(fmt.Sprintf(`^[A-Za-z0-9_-]{%d}$`, VideoIDLength))

// ErrInvalidURL is returned for strings that are not a supported video URL
var ErrInvalidURL = errors.New("invalid YouTube URL")

// URLKind tells a single video apart from a collection URL
type URLKind int

const (
	URLKindVideo URLKind = iota
	URLKindCollection
)

// VideoURL is the parsed form of a supported URL
type VideoURL struct {
	Kind    URLKind
	VideoID string // set for URLKindVideo
	ListID  string // set for URLKindCollection
}

// Canonical returns the normalized long-form URL
func (v VideoURL) Canonical() string {
	if v.Kind == URLKindCollection {
		return fmt.Sprintf(YouTubePlaylistURLTemplate, v.ListID)
	}
	return fmt.Sprintf(YouTubeVideoURLTemplate, v.VideoID)
}

// URLValidator checks whether strings look like a single-video URL.
// It performs no I/O.
type URLValidator struct{}

// NewURLValidator creates a validator
func NewURLValidator() *URLValidator {
	return &URLValidator{}
}

// IsValid reports whether raw has the shape of a supported video URL.
// Collection URLs (/playlist?list=...) have a valid shape; they are rejected
// later by the metadata stage with a dedicated error.
func (v *URLValidator) IsValid(raw string) bool {
	_, err := ParseVideoURL(raw)
	return err == nil
}

// ParseVideoURL accepts the canonical watch form, the short-link form,
// embed/shorts/live paths and bare collection URLs.
func ParseVideoURL(raw string) (VideoURL, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return VideoURL{}, fmt.Errorf("%w: empty", ErrInvalidURL)
	}
	if strings.ContainsAny(s, " \t\r\n") {
		return VideoURL{}, fmt.Errorf("%w: contains whitespace", ErrInvalidURL)
	}
	if !strings.Contains(s, SchemeMarker) {
		s = DefaultScheme + s
	}

	u, err := url.Parse(s)
	if err != nil {
		return VideoURL{}, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return VideoURL{}, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, u.Scheme)
	}

	host := strings.ToLower(u.Hostname())
	switch {
	case host == ShortLinkHost || host == "www."+ShortLinkHost:
		return parseShortLink(u)
	case longFormHosts[host]:
		return parseLongForm(u)
	default:
		return VideoURL{}, fmt.Errorf("%w: unsupported host %q", ErrInvalidURL, host)
	}
}

// NormalizeURL converts any supported form to its canonical long form.
// Short links are expanded and parameters after the video id (list, index,
// t, ...) are dropped.
func NormalizeURL(raw string) (string, error) {
	parsed, err := ParseVideoURL(raw)
	if err != nil {
		return "", err
	}
	return parsed.Canonical(), nil
}

// IsValidVideoID reports whether id is exactly one fixed-length video token
func IsValidVideoID(id string) bool {
	return videoIDPattern.MatchString(id)
}

func parseShortLink(u *url.URL) (VideoURL, error) {
	id := strings.Trim(u.Path, "/")
	if !IsValidVideoID(id) {
		return VideoURL{}, fmt.Errorf("%w: bad video id %q", ErrInvalidURL, id)
	}
	return VideoURL{Kind: URLKindVideo, VideoID: id}, nil
}

func parseLongForm(u *url.URL) (VideoURL, error) {
	path := strings.TrimSuffix(u.Path, "/")
	query := u.Query()

	switch {
	case path == WatchPath:
		id := query.Get(VideoParam)
		if !IsValidVideoID(id) {
			return VideoURL{}, fmt.Errorf("%w: bad video id %q", ErrInvalidURL, id)
		}
		return VideoURL{Kind: URLKindVideo, VideoID: id}, nil
	case path == PlaylistPath:
		list := query.Get(PlaylistParam)
		if list == "" {
			return VideoURL{}, fmt.Errorf("%w: playlist URL without list id", ErrInvalidURL)
		}
		return VideoURL{Kind: URLKindCollection, ListID: list}, nil
	}

	for _, prefix := range videoPathPrefixes {
		if strings.HasPrefix(path, prefix) {
			id := strings.TrimPrefix(path, prefix)
			if !IsValidVideoID(id) {
				return VideoURL{}, fmt.Errorf("%w: bad video id %q", ErrInvalidURL, id)
			}
			return VideoURL{Kind: URLKindVideo, VideoID: id}, nil
		}
	}

	return VideoURL{}, fmt.Errorf("%w: unsupported path %q", ErrInvalidURL, u.Path)
}
