package postgresengine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gamesops/gamesdb-go/gamesdb"
)

func Test_TallyForMember_When_MemberIsNotAnAthlete(t *testing.T) {
	db := newFakeDB()
	store := newTestStore(db)

	tally, err := store.TallyForMember(context.Background(), "S000001", gamesdb.Roles{gamesdb.RoleStaff})

	require.NoError(t, err)
	assert.True(t, tally.IsZero())
	assert.Empty(t, db.queries, "non-athletes must not trigger medal queries")
}

func Test_TallyForMember_When_AthleteHasIndividualAndTeamMedals(t *testing.T) {
	db := newFakeDB(
		rowsStep([]any{"G", 1}, []any{"S", 2}), // individual counts per rank
		rowsStep([]any{"G", 1}),                // team counts per rank
	)
	store := newTestStore(db)

	tally, err := store.TallyForMember(context.Background(), "A000001", gamesdb.Roles{gamesdb.RoleAthlete})

	require.NoError(t, err)
	assert.Equal(t, gamesdb.MedalTally{Gold: 2, Silver: 2}, tally,
		"individual and team medals must accumulate per rank")
}

func Test_CountryMedalTally_When_IndividualAndTeamSourcesShareACountry(t *testing.T) {
	db := newFakeDB(
		rowsStep([]any{"Australia", 2}, []any{"United States", 1}), // individual totals
		rowsStep([]any{"Australia", 1}),                            // team totals, merges into Australia
		rowsStep([]any{"Australia", 1}, []any{"United States", 1}), // gold, individual
		rowsStep([]any{"Australia", 1}),                            // gold, team
		rowsStep([]any{"Australia", 1}),                            // silver, individual
		rowsStep(), // silver, team
		rowsStep(), // bronze, individual
		rowsStep(), // bronze, team
	)
	store := newTestStore(db)

	tallyRows, err := store.CountryMedalTally(context.Background())

	require.NoError(t, err)
	require.Len(t, tallyRows, 2, "a country in both sources must yield a single row")

	assert.Equal(t, gamesdb.TallyRow{CountryName: "Australia", Gold: 2, Silver: 1, Total: 3}, tallyRows[0])
	assert.Equal(t, gamesdb.TallyRow{CountryName: "United States", Gold: 1, Total: 1}, tallyRows[1])
}

func Test_CountryMedalTally_When_ACountryHasOnlyTeamMedals(t *testing.T) {
	db := newFakeDB(
		rowsStep([]any{"Australia", 1}),       // individual totals
		rowsStep([]any{"Unified Team", 2}),    // team totals, new row
		rowsStep(),                            // gold, individual
		rowsStep([]any{"Unified Team", 2}),    // gold, team
		rowsStep([]any{"Australia", 1}),       // silver, individual
		rowsStep(),                            // silver, team
		rowsStep(),                            // bronze, individual
		rowsStep(),                            // bronze, team
	)
	store := newTestStore(db)

	tallyRows, err := store.CountryMedalTally(context.Background())

	require.NoError(t, err)
	require.Len(t, tallyRows, 2)

	assert.Equal(t, gamesdb.TallyRow{CountryName: gamesdb.UnifiedTeamName, Gold: 2, Total: 2}, tallyRows[0],
		"rows must be ordered by descending total")
	assert.Equal(t, gamesdb.TallyRow{CountryName: "Australia", Silver: 1, Total: 1}, tallyRows[1])
}

func Test_CountryMedalTally_When_NoMedalsAwarded(t *testing.T) {
	db := newFakeDB(
		rowsStep(), rowsStep(), // totals
		rowsStep(), rowsStep(), // gold
		rowsStep(), rowsStep(), // silver
		rowsStep(), rowsStep(), // bronze
	)
	store := newTestStore(db)

	tallyRows, err := store.CountryMedalTally(context.Background())

	require.NoError(t, err)
	assert.Empty(t, tallyRows)
}
