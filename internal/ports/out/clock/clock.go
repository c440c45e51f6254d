package clock

import "time"

// Clock provides time to the application.
// Enrollment day stamps are taken from Now in the location of the returned time,
// so tests can pin both the instant and the calendar day.
type Clock interface {
	Now() time.Time
}
