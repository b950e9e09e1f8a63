package postgresengine

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gamesops/gamesdb-go/gamesdb"
)

func Test_ListSports_When_SportsExist(t *testing.T) {
	db := newFakeDB(
		rowsStep(
			[]any{1, "Athletics", "Track"},
			[]any{2, "Swimming", "Freestyle"},
		),
	)
	store := newTestStore(db)

	sports, err := store.ListSports(context.Background())

	require.NoError(t, err)
	require.Len(t, sports, 2)
	assert.Equal(t, gamesdb.Sport{SportID: 1, SportName: "Athletics", Discipline: "Track"}, sports[0])
	assert.Contains(t, db.queries[0], "sport_name", "sports must be ordered by name")
}

func Test_ListEvents_When_SportHasEvents(t *testing.T) {
	start := time.Date(2026, time.February, 12, 19, 0, 0, 0, time.UTC)

	db := newFakeDB(
		rowsStep([]any{10, 2, "100m Freestyle", "M", "Aquatic Centre", start}),
	)
	store := newTestStore(db)

	events, err := store.ListEvents(context.Background(), 2)

	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "100m Freestyle", events[0].EventName)
	assert.Equal(t, "Aquatic Centre", events[0].VenueName)
	assert.Equal(t, start, events[0].Start)
}

func Test_ListResults_When_EventIsIndividual(t *testing.T) {
	db := newFakeDB(
		rowsStep([]any{"A000001"}), // individual participation exists
		rowsStep(
			[]any{"Ian Thorpe", "Australia", "G"},
			[]any{"Pieter Hoogenband", "Netherlands", nil}, // no medal won
		),
	)
	store := newTestStore(db)

	results, err := store.ListResults(context.Background(), 10)

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, gamesdb.ResultKindIndividual, results[0].Kind)
	assert.Equal(t, gamesdb.MedalGold, results[0].Medal)
	assert.Empty(t, results[1].Medal, "a medal-less participation must scan to the empty string")
}

func Test_ListResults_When_EventIsTeamBased(t *testing.T) {
	db := newFakeDB(
		rowsStep(), // no individual participations
		rowsStep([]any{"Australia Men", "Australia", "S"}),
	)
	store := newTestStore(db)

	results, err := store.ListResults(context.Background(), 11)

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, gamesdb.ResultKindTeam, results[0].Kind)
	assert.Equal(t, "Australia Men", results[0].Participant)
}

func Test_FindJourneys_When_DateMatchesTheWholeDay(t *testing.T) {
	late := time.Date(2026, time.February, 10, 23, 59, 0, 0, time.UTC)

	db := newFakeDB(
		rowsStep([]any{7, "BUS041", "Olympic Village", "Aquatic Centre", late, late.Add(45 * time.Minute), 40, 12}),
	)
	store := newTestStore(db)

	journeys, err := store.FindJourneys(context.Background(), "Olympic Village", "Aquatic Centre",
		time.Date(2026, time.February, 10, 15, 0, 0, 0, time.UTC))

	require.NoError(t, err)
	require.Len(t, journeys, 1)
	assert.Equal(t, 28, journeys[0].AvailableSeats())

	sqlQuery := db.queries[0]
	assert.Contains(t, sqlQuery, "2026-02-10T00:00:00", "the window must start at the date's midnight")
	assert.Contains(t, sqlQuery, "2026-02-11T00:00:00", "the window must end before the next day's midnight")
	assert.True(t, strings.Contains(sqlQuery, "<"), "the upper bound must be exclusive")
}

func Test_GetJourneyDetails_When_JourneyExists(t *testing.T) {
	departs := time.Date(2026, time.February, 10, 9, 30, 0, 0, time.UTC)

	db := newFakeDB(
		rowsStep([]any{7, "BUS041", "Olympic Village", "Aquatic Centre", departs, departs.Add(45 * time.Minute), 40, 40}),
	)
	store := newTestStore(db)

	journey, err := store.GetJourneyDetails(context.Background(), 7)

	require.NoError(t, err)
	assert.Equal(t, "BUS041", journey.VehicleCode)
	assert.Zero(t, journey.AvailableSeats(), "a full journey has no available seats")
}

func Test_GetJourneyDetails_When_JourneyDoesNotExist(t *testing.T) {
	db := newFakeDB(
		rowsStep(),
	)
	store := newTestStore(db)

	_, err := store.GetJourneyDetails(context.Background(), 999)

	assert.ErrorIs(t, err, gamesdb.ErrNotFound)
}

func Test_GetBookingHistory_When_MemberHasBookings(t *testing.T) {
	first := time.Date(2026, time.February, 12, 9, 0, 0, 0, time.UTC)
	second := time.Date(2026, time.February, 10, 9, 0, 0, 0, time.UTC)

	db := newFakeDB(
		rowsStep(
			[]any{8, "BUS042", "Olympic Village", "Stadium", first, first.Add(time.Hour), first.Add(-24 * time.Hour)},
			[]any{7, "BUS041", "Olympic Village", "Aquatic Centre", second, second.Add(time.Hour), second.Add(-24 * time.Hour)},
		),
	)
	store := newTestStore(db)

	bookings, err := store.GetBookingHistory(context.Background(), "A000001")

	require.NoError(t, err)
	require.Len(t, bookings, 2)
	assert.Equal(t, 8, bookings[0].JourneyID)
	assert.Contains(t, db.queries[0], "DESC", "history must come back newest departure first")
}

func Test_GetBookingHistory_When_MemberHasNoBookings(t *testing.T) {
	db := newFakeDB(
		rowsStep(),
	)
	store := newTestStore(db)

	bookings, err := store.GetBookingHistory(context.Background(), "A000001")

	require.NoError(t, err)
	assert.Empty(t, bookings)
}
