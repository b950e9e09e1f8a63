package postgresengine_test

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gamesops/gamesdb-go/gamesdb"
	"github.com/gamesops/gamesdb-go/gamesdb/postgresengine"
	"github.com/gamesops/gamesdb-go/testutil/postgresengine/config"
	"github.com/gamesops/gamesdb-go/testutil/postgresengine/helper"
)

func integrationPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	helper.SkipWithoutTestDatabase(t)

	pool, err := pgxpool.NewWithConfig(context.Background(), config.PostgresPGXPoolConfig())
	require.NoError(t, err, "failed to connect to test database")
	t.Cleanup(pool.Close)

	helper.CreateSchema(t, pool)
	helper.CleanUpDataBase(t, pool)

	return pool
}

func Test_CheckLogin_AgainstDatabase(t *testing.T) {
	pool := integrationPool(t)

	helper.GivenCountry(t, pool, "AUS", "Australia")
	memberID := helper.GivenMember(t, pool, "Ian", "Thorpe", "AUS", "secret")
	helper.GivenRole(t, pool, memberID, "athlete")

	store, err := postgresengine.NewStoreFromPGXPool(pool)
	require.NoError(t, err)

	profile, err := store.CheckLogin(context.Background(), memberID, "secret")
	require.NoError(t, err)
	assert.Equal(t, "Australia", profile.CountryName)
	assert.True(t, profile.Roles.Has(gamesdb.RoleAthlete))

	_, err = store.CheckLogin(context.Background(), memberID, "wrong")
	assert.ErrorIs(t, err, gamesdb.ErrInvalidCredentials)
}

func Test_FindJourneys_AgainstDatabase(t *testing.T) {
	pool := integrationPool(t)

	village := helper.GivenPlace(t, pool, "Olympic Village")
	aquatic := helper.GivenPlace(t, pool, "Aquatic Centre")

	day := time.Date(2026, time.February, 10, 0, 0, 0, 0, time.UTC)
	helper.GivenJourney(t, pool, "BUS041", village, aquatic, day.Add(9*time.Hour), 40, 0)
	helper.GivenJourney(t, pool, "BUS042", village, aquatic, day.Add(23*time.Hour+59*time.Minute), 40, 0)
	helper.GivenJourney(t, pool, "BUS043", village, aquatic, day.AddDate(0, 0, 1), 40, 0) // next day's midnight

	store, err := postgresengine.NewStoreFromPGXPool(pool)
	require.NoError(t, err)

	journeys, err := store.FindJourneys(context.Background(), "Olympic Village", "Aquatic Centre", day.Add(15*time.Hour))
	require.NoError(t, err)

	require.Len(t, journeys, 2, "the next day's midnight departure must fall outside the window")
	assert.Equal(t, "BUS041", journeys[0].VehicleCode)
	assert.Equal(t, "BUS042", journeys[1].VehicleCode)
}

func Test_Book_AgainstDatabase(t *testing.T) {
	pool := integrationPool(t)

	helper.GivenCountry(t, pool, "AUS", "Australia")
	village := helper.GivenPlace(t, pool, "Olympic Village")
	aquatic := helper.GivenPlace(t, pool, "Aquatic Centre")

	staffID := helper.GivenMember(t, pool, "Dawn", "Fraser", "AUS", "pw")
	helper.GivenRole(t, pool, staffID, "staff")
	travelerID := helper.GivenMember(t, pool, "Ian", "Thorpe", "AUS", "pw")

	departs := time.Date(2026, time.February, 10, 9, 30, 0, 0, time.UTC)
	journeyID := helper.GivenJourney(t, pool, "BUS041", village, aquatic, departs, 2, 1)

	logSpy := helper.NewLogHandlerSpy(false)
	metricsSpy := helper.NewMetricsCollectorSpy(true)

	store, err := postgresengine.NewStoreFromPGXPool(pool,
		postgresengine.WithLogger(slog.New(logSpy)),
		postgresengine.WithMetrics(metricsSpy),
	)
	require.NoError(t, err)

	booking, err := store.Book(context.Background(), staffID, travelerID, "BUS041", departs)
	require.NoError(t, err)
	assert.Equal(t, journeyID, booking.JourneyID)
	assert.Equal(t, "Olympic Village", booking.OriginName)
	assert.Equal(t, 2, helper.BookedCountFor(t, pool, journeyID))
	assert.Equal(t, 1, helper.BookingCountFor(t, pool, travelerID, journeyID))

	assert.True(t,
		metricsSpy.HasDurationRecordForMetric("gamesdb_operation_duration_seconds").
			WithOperation("book").WithStatus("success").Assert())

	// Journey is now full, the next attempt must fail and leave no trace.
	_, err = store.Book(context.Background(), staffID, travelerID, "BUS041", departs)
	assert.ErrorIs(t, err, gamesdb.ErrCapacityExceeded)
	assert.Equal(t, 2, helper.BookedCountFor(t, pool, journeyID))
	assert.Equal(t, 1, helper.BookingCountFor(t, pool, travelerID, journeyID))
	assert.Equal(t, 1, metricsSpy.CountCounterRecordsForMetric("gamesdb_capacity_conflicts_total"))
}

func Test_Book_AgainstDatabase_When_ConcurrentCallersRaceForTheLastSeat(t *testing.T) {
	pool := integrationPool(t)

	helper.GivenCountry(t, pool, "AUS", "Australia")
	village := helper.GivenPlace(t, pool, "Olympic Village")
	stadium := helper.GivenPlace(t, pool, "Stadium")

	staffID := helper.GivenMember(t, pool, "Dawn", "Fraser", "AUS", "pw")
	helper.GivenRole(t, pool, staffID, "staff")

	const contenders = 8
	travelerIDs := make([]string, contenders)
	for i := range travelerIDs {
		travelerIDs[i] = helper.GivenMember(t, pool, "Traveler", "Racing", "AUS", "pw")
	}

	departs := time.Date(2026, time.February, 11, 8, 0, 0, 0, time.UTC)
	journeyID := helper.GivenJourney(t, pool, "BUS050", village, stadium, departs, 5, 4)

	store, err := postgresengine.NewStoreFromPGXPool(pool)
	require.NoError(t, err)

	bookErrs := make([]error, contenders)
	var wg sync.WaitGroup
	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			_, bookErrs[idx] = store.Book(context.Background(), staffID, travelerIDs[idx], "BUS050", departs)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, bookErr := range bookErrs {
		switch {
		case bookErr == nil:
			succeeded++
		case errors.Is(bookErr, gamesdb.ErrCapacityExceeded):
		default:
			t.Fatalf("unexpected booking error: %v", bookErr)
		}
	}

	assert.Equal(t, 1, succeeded, "exactly one contender may take the last seat")
	assert.Equal(t, 5, helper.BookedCountFor(t, pool, journeyID), "the seat counter must never exceed capacity")
}

func Test_Reporting_AgainstDatabase(t *testing.T) {
	pool := integrationPool(t)

	helper.GivenCountry(t, pool, "AUS", "Australia")
	helper.GivenCountry(t, pool, "USA", "United States")
	venue := helper.GivenPlace(t, pool, "Aquatic Centre")

	sportID := helper.GivenSport(t, pool, "Swimming", "Freestyle")
	soloEvent := helper.GivenEvent(t, pool, sportID, "100m Freestyle", venue, time.Date(2026, time.February, 12, 19, 0, 0, 0, time.UTC))
	relayEvent := helper.GivenEvent(t, pool, sportID, "4x100m Relay", venue, time.Date(2026, time.February, 13, 19, 0, 0, 0, time.UTC))

	athleteID := helper.GivenMember(t, pool, "Ian", "Thorpe", "AUS", "pw")
	helper.GivenRole(t, pool, athleteID, "athlete")
	helper.GivenParticipation(t, pool, athleteID, soloEvent, gamesdb.MedalGold)

	helper.GivenTeam(t, pool, relayEvent, "Australia Men", "AUS", gamesdb.MedalSilver)
	helper.GivenTeamMember(t, pool, relayEvent, "Australia Men", athleteID)

	rivalID := helper.GivenMember(t, pool, "Gary", "Hall", "USA", "pw")
	helper.GivenRole(t, pool, rivalID, "athlete")
	helper.GivenParticipation(t, pool, rivalID, soloEvent, gamesdb.MedalSilver)

	store, err := postgresengine.NewStoreFromPGXPool(pool)
	require.NoError(t, err)
	ctx := context.Background()

	sports, err := store.ListSports(ctx)
	require.NoError(t, err)
	require.Len(t, sports, 1)

	events, err := store.ListEvents(ctx, sportID)
	require.NoError(t, err)
	require.Len(t, events, 2)

	soloResults, err := store.ListResults(ctx, soloEvent)
	require.NoError(t, err)
	require.Len(t, soloResults, 2)
	assert.Equal(t, gamesdb.ResultKindIndividual, soloResults[0].Kind)

	relayResults, err := store.ListResults(ctx, relayEvent)
	require.NoError(t, err)
	require.Len(t, relayResults, 1)
	assert.Equal(t, gamesdb.ResultKindTeam, relayResults[0].Kind)

	tally, err := store.CountryMedalTally(ctx)
	require.NoError(t, err)
	require.Len(t, tally, 2)
	assert.Equal(t, gamesdb.TallyRow{CountryName: "Australia", Gold: 1, Silver: 1, Total: 2}, tally[0],
		"individual and team medals for one country must merge into a single row")
	assert.Equal(t, gamesdb.TallyRow{CountryName: "United States", Silver: 1, Total: 1}, tally[1])

	athleteTally, err := store.TallyForMember(ctx, athleteID, gamesdb.Roles{gamesdb.RoleAthlete})
	require.NoError(t, err)
	assert.Equal(t, gamesdb.MedalTally{Gold: 1, Silver: 1}, athleteTally)
}
