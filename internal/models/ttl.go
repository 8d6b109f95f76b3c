package models

import (
	"math"
	"time"
)

// TTL is a loosely-specified time span. Any subset of the components may be
// set, fractional values are allowed, and every component defaults to zero.
// Malformed values (NaN, infinities) contribute nothing rather than failing.
type TTL struct {
	Days         float64 `json:"days,omitempty"`
	Hours        float64 `json:"hours,omitempty"`
	Minutes      float64 `json:"minutes,omitempty"`
	Seconds      float64 `json:"seconds,omitempty"`
	Milliseconds float64 `json:"milliseconds,omitempty"`
}

// Duration sums all components. A nil TTL is a zero duration.
func (t *TTL) Duration() time.Duration {
	if t == nil {
		return 0
	}
	ms := component(t.Days)*float64(24*time.Hour/time.Millisecond) +
		component(t.Hours)*float64(time.Hour/time.Millisecond) +
		component(t.Minutes)*float64(time.Minute/time.Millisecond) +
		component(t.Seconds)*float64(time.Second/time.Millisecond) +
		component(t.Milliseconds)
	return time.Duration(ms) * time.Millisecond
}

// Positive reports whether the TTL describes a span strictly greater than zero.
func (t *TTL) Positive() bool {
	return t.Duration() > 0
}

func component(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
