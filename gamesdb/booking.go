package gamesdb

import (
	"time"
)

// Booking is the confirmed reservation of one seat on one journey for one
// traveler, recorded by one staff member. Rows are created only by a
// successful reservation transaction and never mutated afterwards.
//
// BookedForName and BookedByName are resolved display names (title, given
// names, family name); they are populated in the fully joined confirmation
// view and in booking-details lookups, but not in booking history rows.
type Booking struct {
	JourneyID     int
	VehicleCode   string
	OriginName    string
	DestName      string
	Departs       time.Time
	Arrives       time.Time
	BookedForName string
	BookedByName  string
	WhenBooked    time.Time
}
