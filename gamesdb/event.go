package gamesdb

import (
	"time"
)

// Sport is a single sport discipline offered at the games.
type Sport struct {
	SportID    int
	SportName  string
	Discipline string
}

// Event is a scheduled competition within one sport.
type Event struct {
	EventID   int
	SportID   int
	EventName string
	Gender    string
	VenueName string
	Start     time.Time
}

// ResultKind tags whether an event's results come from individual or team
// participations. Exactly one kind applies per event: individual if any
// individual-participation rows exist for the event, team otherwise.
type ResultKind string

const (
	ResultKindIndividual ResultKind = "individual"
	ResultKindTeam       ResultKind = "team"
)

// Result is one participation outcome in an event. Participant is the
// athlete's full name for individual events or the team name for team
// events. Medal is one of the medal rank codes, or empty when the
// participation won no medal.
type Result struct {
	Kind        ResultKind
	Participant string
	CountryName string
	Medal       string
}
