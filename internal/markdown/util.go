package markdown

import (
	"bytes"
	"math"
	"strings"
)

const (
	wordsPerMinute = 200
	truncateMarker = "<!--truncate-->"
)

// ReadingTime estimates minutes needed to read body, never less than one for
// a non-empty body.
func ReadingTime(body []byte) int {
	words := len(strings.Fields(string(body)))
	if words == 0 {
		return 0
	}
	return int(math.Ceil(float64(words) / wordsPerMinute))
}

// Summary returns the part of body before the truncate marker. The whole body
// is returned when no marker is present.
func Summary(body []byte) []byte {
	if idx := bytes.Index(body, []byte(truncateMarker)); idx >= 0 {
		return bytes.TrimSpace(body[:idx])
	}
	return body
}

// HasTruncateMarker reports whether body contains the truncate marker.
func HasTruncateMarker(body []byte) bool {
	return bytes.Contains(body, []byte(truncateMarker))
}
