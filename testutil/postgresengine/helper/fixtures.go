package helper

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// schemaDDL creates the games schema from scratch. Kept in dependency order
// so a single pass works on an empty database.
const schemaDDL = `
CREATE TABLE IF NOT EXISTS country (
	country_code CHAR(3) PRIMARY KEY,
	country_name VARCHAR(80) NOT NULL
);
CREATE TABLE IF NOT EXISTS place (
	place_id     SERIAL PRIMARY KEY,
	place_name   VARCHAR(80) NOT NULL,
	address      VARCHAR(200),
	gps_lat      NUMERIC(9,6),
	gps_long     NUMERIC(9,6)
);
CREATE TABLE IF NOT EXISTS member (
	member_id     CHAR(10) PRIMARY KEY,
	title         VARCHAR(10),
	given_names   VARCHAR(40) NOT NULL,
	family_name   VARCHAR(40) NOT NULL,
	country_code  CHAR(3) REFERENCES country,
	accommodation INTEGER REFERENCES place,
	pass_word     VARCHAR(100) NOT NULL
);
CREATE TABLE IF NOT EXISTS athlete (
	member_id CHAR(10) PRIMARY KEY REFERENCES member
);
CREATE TABLE IF NOT EXISTS official (
	member_id CHAR(10) PRIMARY KEY REFERENCES member
);
CREATE TABLE IF NOT EXISTS staff (
	member_id CHAR(10) PRIMARY KEY REFERENCES member
);
CREATE TABLE IF NOT EXISTS sport (
	sport_id   SERIAL PRIMARY KEY,
	sport_name VARCHAR(50) NOT NULL,
	discipline VARCHAR(50)
);
CREATE TABLE IF NOT EXISTS event (
	event_id     SERIAL PRIMARY KEY,
	sport_id     INTEGER NOT NULL REFERENCES sport,
	event_name   VARCHAR(80) NOT NULL,
	event_gender CHAR(1),
	event_start  TIMESTAMP,
	sport_venue  INTEGER REFERENCES place
);
CREATE TABLE IF NOT EXISTS participates (
	athlete_id CHAR(10) NOT NULL REFERENCES athlete,
	event_id   INTEGER NOT NULL REFERENCES event,
	medal      CHAR(1),
	PRIMARY KEY (athlete_id, event_id)
);
CREATE TABLE IF NOT EXISTS team (
	event_id     INTEGER NOT NULL REFERENCES event,
	team_name    VARCHAR(60) NOT NULL,
	country_code CHAR(3) REFERENCES country,
	medal        CHAR(1),
	PRIMARY KEY (event_id, team_name)
);
CREATE TABLE IF NOT EXISTS team_member (
	event_id   INTEGER NOT NULL,
	team_name  VARCHAR(60) NOT NULL,
	athlete_id CHAR(10) NOT NULL REFERENCES athlete,
	PRIMARY KEY (event_id, team_name, athlete_id),
	FOREIGN KEY (event_id, team_name) REFERENCES team
);
CREATE TABLE IF NOT EXISTS journey (
	journey_id   SERIAL PRIMARY KEY,
	vehicle_code VARCHAR(8) NOT NULL,
	from_place   INTEGER NOT NULL REFERENCES place,
	to_place     INTEGER NOT NULL REFERENCES place,
	depart_time  TIMESTAMP NOT NULL,
	arrivetime   TIMESTAMP NOT NULL,
	capacity     INTEGER NOT NULL,
	nbooked      INTEGER NOT NULL DEFAULT 0,
	UNIQUE (vehicle_code, depart_time)
);
CREATE TABLE IF NOT EXISTS booking (
	booked_for  CHAR(10) NOT NULL REFERENCES member,
	booked_by   CHAR(10) NOT NULL REFERENCES staff,
	when_booked TIMESTAMP NOT NULL DEFAULT current_timestamp,
	journey_id  INTEGER NOT NULL REFERENCES journey,
	PRIMARY KEY (booked_for, journey_id, when_booked)
);
`

// tablesInDeleteOrder lists all tables so CleanUpDataBase can truncate them
// without breaking foreign keys.
var tablesInDeleteOrder = []string{
	"booking", "team_member", "team", "participates", "journey",
	"event", "sport", "athlete", "official", "staff", "member",
	"place", "country",
}

// SkipWithoutTestDatabase skips the test unless a test database is configured.
func SkipWithoutTestDatabase(t *testing.T) {
	t.Helper()

	if os.Getenv("GAMESDB_TEST_DSN") == "" {
		t.Skip("GAMESDB_TEST_DSN not set, skipping database test")
	}
}

// CreateSchema ensures the games schema exists in the test database.
func CreateSchema(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	_, err := pool.Exec(context.Background(), schemaDDL)
	require.NoError(t, err, "failed to create test schema")
}

// CleanUpDataBase empties all tables between tests.
func CleanUpDataBase(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	for _, table := range tablesInDeleteOrder {
		_, err := pool.Exec(context.Background(), "DELETE FROM "+table)
		require.NoError(t, err, "failed to clean up table %s", table)
	}
}

// GenerateMemberID generates a unique 10-character member id.
func GenerateMemberID() string {
	return uuid.New().String()[:10]
}

// HashPassword returns the bcrypt hash stored in the member table.
func HashPassword(t *testing.T, password string) string {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err, "failed to hash password")

	return string(hash)
}

// GivenCountry inserts a country row.
func GivenCountry(t *testing.T, pool *pgxpool.Pool, code string, name string) {
	t.Helper()

	_, err := pool.Exec(context.Background(),
		"INSERT INTO country (country_code, country_name) VALUES ($1, $2)", code, name)
	require.NoError(t, err, "failed to insert country")
}

// GivenPlace inserts a place row and returns its id.
func GivenPlace(t *testing.T, pool *pgxpool.Pool, name string) int {
	t.Helper()

	var placeID int
	err := pool.QueryRow(context.Background(),
		"INSERT INTO place (place_name) VALUES ($1) RETURNING place_id", name).Scan(&placeID)
	require.NoError(t, err, "failed to insert place")

	return placeID
}

// GivenMember inserts a member row with a bcrypt-hashed password and returns
// the generated member id.
func GivenMember(t *testing.T, pool *pgxpool.Pool, givenNames string, familyName string, countryCode string, password string) string {
	t.Helper()

	memberID := GenerateMemberID()
	_, err := pool.Exec(context.Background(),
		`INSERT INTO member (member_id, title, given_names, family_name, country_code, pass_word)
		 VALUES ($1, 'Mx', $2, $3, $4, $5)`,
		memberID, givenNames, familyName, countryCode, HashPassword(t, password))
	require.NoError(t, err, "failed to insert member")

	return memberID
}

// GivenRole puts the member into the named role table.
func GivenRole(t *testing.T, pool *pgxpool.Pool, memberID string, role string) {
	t.Helper()

	_, err := pool.Exec(context.Background(),
		fmt.Sprintf("INSERT INTO %s (member_id) VALUES ($1)", role), memberID)
	require.NoError(t, err, "failed to insert %s role", role)
}

// GivenSport inserts a sport row and returns its id.
func GivenSport(t *testing.T, pool *pgxpool.Pool, name string, discipline string) int {
	t.Helper()

	var sportID int
	err := pool.QueryRow(context.Background(),
		"INSERT INTO sport (sport_name, discipline) VALUES ($1, $2) RETURNING sport_id",
		name, discipline).Scan(&sportID)
	require.NoError(t, err, "failed to insert sport")

	return sportID
}

// GivenEvent inserts an event row and returns its id.
func GivenEvent(t *testing.T, pool *pgxpool.Pool, sportID int, name string, venueID int, start time.Time) int {
	t.Helper()

	var eventID int
	err := pool.QueryRow(context.Background(),
		`INSERT INTO event (sport_id, event_name, event_gender, event_start, sport_venue)
		 VALUES ($1, $2, 'M', $3, $4) RETURNING event_id`,
		sportID, name, start, venueID).Scan(&eventID)
	require.NoError(t, err, "failed to insert event")

	return eventID
}

// GivenParticipation inserts an individual participation, with medal empty
// for a medal-less participation.
func GivenParticipation(t *testing.T, pool *pgxpool.Pool, athleteID string, eventID int, medal string) {
	t.Helper()

	var err error
	if medal == "" {
		_, err = pool.Exec(context.Background(),
			"INSERT INTO participates (athlete_id, event_id) VALUES ($1, $2)", athleteID, eventID)
	} else {
		_, err = pool.Exec(context.Background(),
			"INSERT INTO participates (athlete_id, event_id, medal) VALUES ($1, $2, $3)",
			athleteID, eventID, medal)
	}
	require.NoError(t, err, "failed to insert participation")
}

// GivenTeam inserts a team row, with medal empty for a medal-less team.
func GivenTeam(t *testing.T, pool *pgxpool.Pool, eventID int, teamName string, countryCode string, medal string) {
	t.Helper()

	var err error
	if medal == "" {
		_, err = pool.Exec(context.Background(),
			"INSERT INTO team (event_id, team_name, country_code) VALUES ($1, $2, $3)",
			eventID, teamName, countryCode)
	} else {
		_, err = pool.Exec(context.Background(),
			"INSERT INTO team (event_id, team_name, country_code, medal) VALUES ($1, $2, $3, $4)",
			eventID, teamName, countryCode, medal)
	}
	require.NoError(t, err, "failed to insert team")
}

// GivenTeamMember puts an athlete into a team.
func GivenTeamMember(t *testing.T, pool *pgxpool.Pool, eventID int, teamName string, athleteID string) {
	t.Helper()

	_, err := pool.Exec(context.Background(),
		"INSERT INTO team_member (event_id, team_name, athlete_id) VALUES ($1, $2, $3)",
		eventID, teamName, athleteID)
	require.NoError(t, err, "failed to insert team member")
}

// GivenJourney inserts a journey row and returns its id.
func GivenJourney(t *testing.T, pool *pgxpool.Pool, vehicleCode string, fromPlace int, toPlace int, departs time.Time, capacity int, booked int) int {
	t.Helper()

	var journeyID int
	err := pool.QueryRow(context.Background(),
		`INSERT INTO journey (vehicle_code, from_place, to_place, depart_time, arrivetime, capacity, nbooked)
		 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING journey_id`,
		vehicleCode, fromPlace, toPlace, departs, departs.Add(time.Hour), capacity, booked).Scan(&journeyID)
	require.NoError(t, err, "failed to insert journey")

	return journeyID
}

// BookedCountFor reads the current seat counter of a journey.
func BookedCountFor(t *testing.T, pool *pgxpool.Pool, journeyID int) int {
	t.Helper()

	var booked int
	err := pool.QueryRow(context.Background(),
		"SELECT nbooked FROM journey WHERE journey_id = $1", journeyID).Scan(&booked)
	require.NoError(t, err, "failed to read journey seat counter")

	return booked
}

// BookingCountFor counts the booking rows for a traveler on a journey.
func BookingCountFor(t *testing.T, pool *pgxpool.Pool, travelerID string, journeyID int) int {
	t.Helper()

	var count int
	err := pool.QueryRow(context.Background(),
		"SELECT COUNT(*) FROM booking WHERE booked_for = $1 AND journey_id = $2",
		travelerID, journeyID).Scan(&count)
	require.NoError(t, err, "failed to count bookings")

	return count
}
