package notify

import (
	"net/url"
	"regexp"
)

var recordPathPattern = regexp.MustCompile(`/records/([^/?#]+)`)

// RecordID extracts the public record identifier from a record landing-page
// URL, or returns "" when the URL carries none.
func RecordID(rawURL string) string {
	if rawURL == "" {
		return ""
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	m := recordPathPattern.FindStringSubmatch(u.Path)
	if m == nil {
		return ""
	}
	return m[1]
}
