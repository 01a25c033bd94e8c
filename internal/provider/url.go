package provider

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/warpdl/warptube/pkg/tubelib"
	"golang.org/x/net/idna"
)

// URLKind tells what a URL points at.
type URLKind string

const (
	KindVideo    URLKind = "video"
	KindPlaylist URLKind = "playlist"
	KindChannel  URLKind = "channel"
)

// Query parameters that only track where a link was shared from.
var trackingParams = []string{"feature", "t", "index", "si", "pp"}

var hostProfile = idna.New(idna.MapForLookup(), idna.Transitional(true))

// NormalizeURL canonicalizes a user supplied URL so equal resources share
// one cache key: whitespace is trimmed, scheme and host are lowercased,
// the host is converted to its ASCII form, the fragment and tracking
// parameters are dropped. The list parameter is kept only on playlist
// pages.
func NormalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", tubelib.NewError(tubelib.KindInvalidURL, "URL cannot be empty", nil)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", tubelib.NewError(tubelib.KindInvalidURL, fmt.Sprintf("Invalid URL: %s", raw), err)
	}
	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", tubelib.NewError(tubelib.KindInvalidURL, "URL must start with http:// or https://", nil)
	}
	if u.Host == "" {
		return "", tubelib.NewError(tubelib.KindInvalidURL, fmt.Sprintf("Invalid URL: %s", raw), nil)
	}
	host, err := hostProfile.ToASCII(strings.ToLower(u.Hostname()))
	if err != nil {
		return "", tubelib.NewError(tubelib.KindInvalidURL, fmt.Sprintf("Invalid host in URL: %s", raw), err)
	}
	if port := u.Port(); port != "" {
		host += ":" + port
	}
	u.Host = host
	u.User = nil
	u.Fragment = ""
	u.RawFragment = ""

	q := u.Query()
	for _, p := range trackingParams {
		q.Del(p)
	}
	if u.Path != "/playlist" {
		q.Del("list")
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// ClassifyURL tells whether a normalized URL is a video, playlist or
// channel page.
func ClassifyURL(normalized string) URLKind {
	u, err := url.Parse(normalized)
	if err != nil {
		return KindVideo
	}
	p := u.Path
	switch {
	case p == "/playlist" && u.Query().Get("list") != "":
		return KindPlaylist
	case strings.HasPrefix(p, "/@"),
		strings.HasPrefix(p, "/channel/"),
		strings.HasPrefix(p, "/user/"),
		strings.HasPrefix(p, "/c/"):
		return KindChannel
	}
	return KindVideo
}
