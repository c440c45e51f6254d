package domain

import (
	"fmt"
	"time"
)

// DayStamp is a calendar day encoded as the integer YYYYMMDD.
type DayStamp int

// DayStampOf returns the day stamp of t in t's location.
func DayStampOf(t time.Time) DayStamp {
	y, m, d := t.Date()
	return DayStamp(y*10000 + int(m)*100 + d)
}

// Valid reports whether the stamp encodes a real calendar day.
func (d DayStamp) Valid() bool {
	if d <= 0 {
		return false
	}
	y, m, day := int(d)/10000, time.Month(int(d)/100%100), int(d)%100
	t := time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
	return t.Year() == y && t.Month() == m && t.Day() == day
}

// Time returns midnight UTC of the stamped day.
func (d DayStamp) Time() time.Time {
	return time.Date(int(d)/10000, time.Month(int(d)/100%100), int(d)%100, 0, 0, 0, 0, time.UTC)
}

func (d DayStamp) String() string {
	return fmt.Sprintf("%08d", int(d))
}
