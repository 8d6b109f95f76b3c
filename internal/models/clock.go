package models

import "time"

// Clock supplies the current time. Injecting it keeps every time-dependent
// decision (expiration, TTL resolution) deterministic under test.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in UTC.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time { return time.Now().UTC() }
