// Package series holds the tick staging buffer and the growing series the
// chart renders from.
package series

import (
	"fmt"
	"strings"
)

// Retention selects how the buffer and store are bounded. The two policies
// are mutually exclusive.
type Retention string

const (
	// Unbounded keeps every tick for the lifetime of the session.
	Unbounded Retention = "unbounded"
	// Sliding keeps only the newest MaxPoints ticks, evicting the oldest.
	Sliding Retention = "sliding"
)

// Policy configures a Buffer and a Store.
type Policy struct {
	Retention Retention
	MaxPoints int
}

// Capacity returns the ring size to use, or 0 for unbounded storage.
func (p Policy) Capacity() int {
	if p.Retention == Sliding {
		return p.MaxPoints
	}
	return 0
}

// ParseRetention accepts the configuration spelling of a policy.
func ParseRetention(s string) (Retention, error) {
	switch Retention(strings.ToLower(strings.TrimSpace(s))) {
	case "", Unbounded:
		return Unbounded, nil
	case Sliding:
		return Sliding, nil
	default:
		return "", fmt.Errorf("series: unknown retention %q (valid: unbounded, sliding)", s)
	}
}
