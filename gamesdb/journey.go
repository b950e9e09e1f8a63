package gamesdb

import (
	"time"
)

// Journey is a single scheduled transport instance with a fixed seat
// capacity and a mutable booked-seat counter. The engine maintains
// 0 <= Booked <= Capacity at all times, including under concurrent
// bookings.
type Journey struct {
	JourneyID   int
	VehicleCode string
	OriginName  string
	DestName    string
	Departs     time.Time
	Arrives     time.Time
	Capacity    int
	Booked      int
}

// AvailableSeats returns the number of seats still open on the journey.
func (j Journey) AvailableSeats() int {
	return j.Capacity - j.Booked
}
