package clock

import "time"

// SystemClock returns the current wall-clock time in a fixed location.
// The location decides which calendar day an enrollment is stamped with.
type SystemClock struct {
	loc *time.Location
}

// NewSystemClock returns a clock reporting UTC.
func NewSystemClock() SystemClock { return SystemClock{loc: time.UTC} }

// NewSystemClockIn returns a clock reporting time in loc. A nil loc means UTC.
func NewSystemClockIn(loc *time.Location) SystemClock {
	if loc == nil {
		return NewSystemClock()
	}
	return SystemClock{loc: loc}
}

func (c SystemClock) Now() time.Time {
	if c.loc == nil {
		return time.Now().UTC()
	}
	return time.Now().In(c.loc)
}
