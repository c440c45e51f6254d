package domain

import "time"

// Trip is a capacity-limited event clients can enroll in.
type Trip struct {
	ID          TripID
	Name        string
	Description string

	DateFrom time.Time // date-only semantics at the edges
	DateTo   time.Time // date-only semantics at the edges

	// MaxPeople is the capacity ceiling; zero means no client can enroll.
	MaxPeople int
}

// TripSummary is the read model returned by trip listings.
type TripSummary struct {
	Trip

	EnrolledCount int
	FreeSlots     int
}

// ClientTrip is a trip the client is enrolled in, with the enrollment dates.
type ClientTrip struct {
	Trip

	RegisteredAt DayStamp
	PaymentDate  *DayStamp
}
