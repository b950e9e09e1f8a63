package postgresengine

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect import
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"

	"github.com/gamesops/gamesdb-go/gamesdb"
	"github.com/gamesops/gamesdb-go/gamesdb/postgresengine/internal/adapters"
)

const (
	tableMember       = "member"
	tableCountry      = "country"
	tablePlace        = "place"
	tableSport        = "sport"
	tableEvent        = "event"
	tableParticipates = "participates"
	tableTeam         = "team"
	tableTeamMember   = "team_member"
	tableJourney      = "journey"
	tableBooking      = "booking"

	colMemberID      = "member_id"
	colTitle         = "title"
	colGivenNames    = "given_names"
	colFamilyName    = "family_name"
	colCountryCode   = "country_code"
	colAccommodation = "accommodation"
	colPassWord      = "pass_word"
	colCountryName   = "country_name"
	colPlaceID       = "place_id"
	colPlaceName     = "place_name"
	colSportID       = "sport_id"
	colSportName     = "sport_name"
	colDiscipline    = "discipline"
	colEventID       = "event_id"
	colEventName     = "event_name"
	colEventGender   = "event_gender"
	colEventStart    = "event_start"
	colSportVenue    = "sport_venue"
	colAthleteID     = "athlete_id"
	colMedal         = "medal"
	colTeamName      = "team_name"
	colJourneyID     = "journey_id"
	colVehicleCode   = "vehicle_code"
	colFromPlace     = "from_place"
	colToPlace       = "to_place"
	colDepartTime    = "depart_time"
	colArriveTime    = "arrivetime"
	colBookedCount   = "nbooked"
	colCapacity      = "capacity"
	colBookedFor     = "booked_for"
	colBookedBy      = "booked_by"
	colWhenBooked    = "when_booked"

	dialectPostgres = "postgres"
)

// Store executes the data-access operations of the games logistics system
// against a PostgreSQL backing store. It holds no request state and is safe
// for concurrent use; every operation acquires and releases its own
// connection or transaction.
type Store struct {
	db               adapters.DBAdapter
	logger           Logger
	contextualLogger ContextualLogger
	metricsCollector MetricsCollector
	tracingCollector TracingCollector
}

// NewStoreFromPGXPool creates a new Store using a pgx pool with optional configuration.
func NewStoreFromPGXPool(db *pgxpool.Pool, options ...Option) (*Store, error) {
	if db == nil {
		return nil, gamesdb.ErrNilDatabaseConnection
	}

	return newStore(adapters.NewPGXAdapter(db), options...)
}

// NewStoreFromSQLDB creates a new Store using a sql.DB with optional configuration.
func NewStoreFromSQLDB(db *sql.DB, options ...Option) (*Store, error) {
	if db == nil {
		return nil, gamesdb.ErrNilDatabaseConnection
	}

	return newStore(adapters.NewSQLAdapter(db), options...)
}

// NewStoreFromSQLX creates a new Store using a sqlx.DB with optional configuration.
func NewStoreFromSQLX(db *sqlx.DB, options ...Option) (*Store, error) {
	if db == nil {
		return nil, gamesdb.ErrNilDatabaseConnection
	}

	return newStore(adapters.NewSQLXAdapter(db), options...)
}

func newStore(db adapters.DBAdapter, options ...Option) (*Store, error) {
	s := &Store{db: db}

	for _, option := range options {
		if err := option(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// dbRunner abstracts over the pool adapter and an open transaction so the
// query helpers below work in both scopes.
type dbRunner interface {
	Query(ctx context.Context, query string) (adapters.DBRows, error)
	Exec(ctx context.Context, query string) (adapters.DBResult, error)
}

// builder returns a goqu SQL builder for the postgres dialect.
func builder() goqu.DialectWrapper {
	return goqu.Dialect(dialectPostgres)
}

// toSQL converts a goqu dataset to its SQL string.
func toSQL(ds interface{ ToSQL() (string, []interface{}, error) }) (string, error) {
	sqlQuery, _, err := ds.ToSQL()
	if err != nil {
		return "", errors.Join(gamesdb.ErrBuildingQueryFailed, err)
	}

	return sqlQuery, nil
}

// queryRows executes a select statement and returns its rows with timing.
func (s *Store) queryRows(ctx context.Context, runner dbRunner, sqlQuery string, action string) (adapters.DBRows, error) {
	start := time.Now()
	rows, queryErr := runner.Query(ctx, sqlQuery)
	s.logQueryWithDuration(ctx, sqlQuery, action, time.Since(start))

	if queryErr != nil {
		s.logError(ctx, logMsgDBQueryFailed, queryErr, logAttrQuery, sqlQuery)

		return nil, errors.Join(gamesdb.ErrQueryFailed, queryErr)
	}

	return rows, nil
}

// execStatement executes an insert or update statement and returns the
// affected-row count with timing.
func (s *Store) execStatement(ctx context.Context, runner dbRunner, sqlQuery string, action string) (int64, error) {
	start := time.Now()
	result, execErr := runner.Exec(ctx, sqlQuery)
	s.logQueryWithDuration(ctx, sqlQuery, action, time.Since(start))

	if execErr != nil {
		s.logError(ctx, logMsgDBExecFailed, execErr, logAttrQuery, sqlQuery)

		return 0, errors.Join(gamesdb.ErrQueryFailed, execErr)
	}

	rowsAffected, rowsAffectedErr := result.RowsAffected()
	if rowsAffectedErr != nil {
		s.logError(ctx, logMsgRowsAffectedFailed, rowsAffectedErr)

		return 0, errors.Join(gamesdb.ErrQueryFailed, rowsAffectedErr)
	}

	return rowsAffected, nil
}

// closeRows safely closes database rows and logs any errors.
func (s *Store) closeRows(ctx context.Context, rows adapters.DBRows) {
	if closeErr := rows.Close(); closeErr != nil {
		s.logWarn(ctx, logMsgCloseRowsFailed, logAttrError, closeErr.Error())
	}
}

// scanErr wraps a row scanning failure with the package sentinel.
func (s *Store) scanErr(ctx context.Context, err error) error {
	s.logError(ctx, logMsgScanRowFailed, err)

	return errors.Join(gamesdb.ErrScanningDBRowFailed, err)
}

// nullableString converts a scanned nullable column to its string value,
// with the empty string standing in for NULL.
func nullableString(v sql.NullString) string {
	if !v.Valid {
		return ""
	}

	return v.String
}
