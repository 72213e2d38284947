package session

import (
	"strings"
	"time"
)

// DeriveID builds a deterministic session identifier from the location name
// and the session start time. Second-plus-centisecond resolution makes
// collisions between two deliberate session starts at the same location
// negligible.
func DeriveID(location string, startedAt time.Time) string {
	return slugify(location) + "-" + startedAt.UTC().Format("20060102T150405.00")
}

func slugify(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	lastDash := true
	for _, r := range strings.ToLower(strings.TrimSpace(value)) {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			lastDash = false
		case !lastDash:
			b.WriteByte('-')
			lastDash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
