// Package time contains time helpers and the process clock seam
package time

import "time"

// Ptr returns a pointer to t or nil if t is zero
func Ptr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

// Clock is the time source seam. Services that stamp rows or compute
// staleness take a Clock so tests can pin now
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in UTC
type SystemClock struct{}

// Now returns the current UTC instant
func (SystemClock) Now() time.Time { return time.Now().UTC() }

// FrozenClock always reports the same instant; useful in tests
type FrozenClock struct{ T time.Time }

// Now returns the pinned instant
func (f FrozenClock) Now() time.Time { return f.T }
