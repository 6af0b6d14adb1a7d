// Package system provides a real clock implementation.
package system

import "time"

// Clock reports wall time in a fixed location. Run dates, artifact names and
// row timestamps are all derived from it.
type Clock struct {
	loc *time.Location
}

// New creates a Clock reporting UTC.
func New() *Clock {
	return &Clock{loc: time.UTC}
}

// NewInLocation creates a Clock reporting times in loc. A nil loc means UTC.
func NewInLocation(loc *time.Location) *Clock {
	if loc == nil {
		loc = time.UTC
	}
	return &Clock{loc: loc}
}

// Now returns the current time.
func (c Clock) Now() time.Time {
	if c.loc == nil {
		return time.Now().UTC()
	}
	return time.Now().In(c.loc)
}
