// Package stromno talks to the heart-rate widget vendor: it resolves a
// widget id to a socket endpoint and decodes the frames pushed over it.
package stromno

import (
	"net/url"
	"regexp"
	"strings"
)

var uuidSegment = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// ParseWidgetURL extracts the first path segment of an absolute URL that is a
// canonical UUID. It returns false when the URL does not parse or carries no
// such segment.
func ParseWidgetURL(raw string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", false
	}
	for _, part := range strings.Split(u.Path, "/") {
		if uuidSegment.MatchString(part) {
			return part, true
		}
	}
	return "", false
}
