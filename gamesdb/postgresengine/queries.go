package postgresengine

import (
	"context"
	"database/sql"
	"time"

	"github.com/doug-martin/goqu/v9"

	"github.com/gamesops/gamesdb-go/gamesdb"
)

const (
	opListSports        = "list_sports"
	opListEvents        = "list_events"
	opListResults       = "list_results"
	opFindJourneys      = "find_journeys"
	opGetJourneyDetails = "get_journey_details"
	opBookingHistory    = "get_booking_history"

	logAttrSportID  = "sport_id"
	logAttrEventID  = "event_id"
	logAttrRowCount = "row_count"

	aliasParticipant = "participant"
	sqlAthleteName   = "m.given_names || ' ' || m.family_name"
)

// ListSports returns all sports ordered by name.
func (s *Store) ListSports(ctx context.Context) ([]gamesdb.Sport, error) {
	observer, ctx := s.beginOperation(ctx, opListSports)

	stmt := builder().
		From(tableSport).
		Select(colSportID, colSportName, colDiscipline).
		Order(goqu.C(colSportName).Asc())

	sqlQuery, err := toSQL(stmt)
	if err != nil {
		observer.fail(err)
		return nil, err
	}

	rows, err := s.queryRows(ctx, s.db, sqlQuery, opListSports)
	if err != nil {
		observer.fail(err)
		return nil, err
	}
	defer s.closeRows(ctx, rows)

	sports := make([]gamesdb.Sport, 0)

	for rows.Next() {
		var sport gamesdb.Sport
		if scanErr := rows.Scan(&sport.SportID, &sport.SportName, &sport.Discipline); scanErr != nil {
			err = s.scanErr(ctx, scanErr)
			observer.fail(err)

			return nil, err
		}

		sports = append(sports, sport)
	}

	observer.succeed(logAttrRowCount, len(sports))

	return sports, nil
}

// ListEvents returns the events of one sport with their venue names,
// ordered by start time.
func (s *Store) ListEvents(ctx context.Context, sportID int) ([]gamesdb.Event, error) {
	observer, ctx := s.beginOperation(ctx, opListEvents)

	stmt := builder().
		From(goqu.T(tableEvent).As("e")).
		Join(
			goqu.T(tablePlace).As("p"),
			goqu.On(goqu.I("p."+colPlaceID).Eq(goqu.I("e."+colSportVenue))),
		).
		Select(
			goqu.I("e."+colEventID),
			goqu.I("e."+colSportID),
			goqu.I("e."+colEventName),
			goqu.I("e."+colEventGender),
			goqu.I("p."+colPlaceName),
			goqu.I("e."+colEventStart),
		).
		Where(goqu.I("e." + colSportID).Eq(sportID)).
		Order(goqu.I("e." + colEventStart).Asc())

	sqlQuery, err := toSQL(stmt)
	if err != nil {
		observer.fail(err)
		return nil, err
	}

	rows, err := s.queryRows(ctx, s.db, sqlQuery, opListEvents)
	if err != nil {
		observer.fail(err)
		return nil, err
	}
	defer s.closeRows(ctx, rows)

	events := make([]gamesdb.Event, 0)

	for rows.Next() {
		var event gamesdb.Event
		scanErr := rows.Scan(
			&event.EventID,
			&event.SportID,
			&event.EventName,
			&event.Gender,
			&event.VenueName,
			&event.Start,
		)
		if scanErr != nil {
			err = s.scanErr(ctx, scanErr)
			observer.fail(err)

			return nil, err
		}

		events = append(events, event)
	}

	observer.succeed(logAttrSportID, sportID, logAttrRowCount, len(events))

	return events, nil
}

// ListResults returns the results of one event. An event is an individual
// event if any individual-participation rows exist for it and a team event
// otherwise; the two result kinds are mutually exclusive per event.
func (s *Store) ListResults(ctx context.Context, eventID int) ([]gamesdb.Result, error) {
	observer, ctx := s.beginOperation(ctx, opListResults)

	individual, err := s.hasIndividualParticipations(ctx, eventID)
	if err != nil {
		observer.fail(err)
		return nil, err
	}

	var results []gamesdb.Result
	if individual {
		results, err = s.resultRows(ctx, s.individualResultsStmt(eventID), gamesdb.ResultKindIndividual)
	} else {
		results, err = s.resultRows(ctx, s.teamResultsStmt(eventID), gamesdb.ResultKindTeam)
	}

	if err != nil {
		observer.fail(err)
		return nil, err
	}

	observer.succeed(logAttrEventID, eventID, logAttrRowCount, len(results))

	return results, nil
}

func (s *Store) hasIndividualParticipations(ctx context.Context, eventID int) (bool, error) {
	stmt := builder().
		From(tableParticipates).
		Select(colAthleteID).
		Where(goqu.C(colEventID).Eq(eventID)).
		Limit(1)

	sqlQuery, err := toSQL(stmt)
	if err != nil {
		return false, err
	}

	rows, err := s.queryRows(ctx, s.db, sqlQuery, opListResults)
	if err != nil {
		return false, err
	}
	defer s.closeRows(ctx, rows)

	return rows.Next(), nil
}

func (s *Store) individualResultsStmt(eventID int) *goqu.SelectDataset {
	return builder().
		From(goqu.T(tableParticipates).As("p")).
		Join(
			goqu.T(tableMember).As("m"),
			goqu.On(goqu.I("m."+colMemberID).Eq(goqu.I("p."+colAthleteID))),
		).
		LeftJoin(
			goqu.T(tableCountry).As("c"),
			goqu.On(goqu.I("c."+colCountryCode).Eq(goqu.I("m."+colCountryCode))),
		).
		Select(
			goqu.L(sqlAthleteName).As(aliasParticipant),
			goqu.COALESCE(goqu.I("c."+colCountryName), goqu.V(gamesdb.UnifiedTeamName)).As(colCountryName),
			goqu.I("p."+colMedal),
		).
		Where(goqu.I("p." + colEventID).Eq(eventID))
}

func (s *Store) teamResultsStmt(eventID int) *goqu.SelectDataset {
	return builder().
		From(goqu.T(tableTeam).As("t")).
		LeftJoin(
			goqu.T(tableCountry).As("c"),
			goqu.On(goqu.I("c."+colCountryCode).Eq(goqu.I("t."+colCountryCode))),
		).
		Select(
			goqu.I("t."+colTeamName),
			goqu.COALESCE(goqu.I("c."+colCountryName), goqu.V(gamesdb.UnifiedTeamName)).As(colCountryName),
			goqu.I("t."+colMedal),
		).
		Where(goqu.I("t." + colEventID).Eq(eventID))
}

func (s *Store) resultRows(ctx context.Context, stmt *goqu.SelectDataset, kind gamesdb.ResultKind) ([]gamesdb.Result, error) {
	sqlQuery, err := toSQL(stmt)
	if err != nil {
		return nil, err
	}

	rows, err := s.queryRows(ctx, s.db, sqlQuery, opListResults)
	if err != nil {
		return nil, err
	}
	defer s.closeRows(ctx, rows)

	results := make([]gamesdb.Result, 0)

	for rows.Next() {
		var medal sql.NullString
		result := gamesdb.Result{Kind: kind}

		if scanErr := rows.Scan(&result.Participant, &result.CountryName, &medal); scanErr != nil {
			return nil, s.scanErr(ctx, scanErr)
		}

		result.Medal = nullableString(medal)
		results = append(results, result)
	}

	return results, nil
}

// FindJourneys returns the journeys from one place to another departing on
// the given date. The date matches the half-open interval from its midnight
// up to, but excluding, the next day's midnight in the date's own location.
func (s *Store) FindJourneys(ctx context.Context, origin string, destination string, date time.Time) ([]gamesdb.Journey, error) {
	observer, ctx := s.beginOperation(ctx, opFindJourneys)

	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	stmt := s.journeyViewStmt().
		Where(
			goqu.I("f."+colPlaceName).Eq(origin),
			goqu.I("t."+colPlaceName).Eq(destination),
			goqu.I("j."+colDepartTime).Gte(dayStart),
			goqu.I("j."+colDepartTime).Lt(dayEnd),
		).
		Order(goqu.I("j." + colDepartTime).Asc())

	journeys, err := s.journeyRows(ctx, stmt)
	if err != nil {
		observer.fail(err)
		return nil, err
	}

	observer.succeed(logAttrRowCount, len(journeys))

	return journeys, nil
}

// GetJourneyDetails returns one journey with origin, destination, capacity,
// and booked seats resolved, or gamesdb.ErrNotFound.
func (s *Store) GetJourneyDetails(ctx context.Context, journeyID int) (gamesdb.Journey, error) {
	observer, ctx := s.beginOperation(ctx, opGetJourneyDetails)

	stmt := s.journeyViewStmt().
		Where(goqu.I("j." + colJourneyID).Eq(journeyID))

	journeys, err := s.journeyRows(ctx, stmt)
	if err != nil {
		observer.fail(err)
		return gamesdb.Journey{}, err
	}

	if len(journeys) == 0 {
		observer.fail(gamesdb.ErrNotFound)
		return gamesdb.Journey{}, gamesdb.ErrNotFound
	}

	observer.succeed(logAttrJourneyID, journeyID)

	return journeys[0], nil
}

// journeyViewStmt is the shared journey projection with origin and
// destination place names resolved.
func (s *Store) journeyViewStmt() *goqu.SelectDataset {
	return builder().
		From(goqu.T(tableJourney).As("j")).
		Join(
			goqu.T(tablePlace).As("f"),
			goqu.On(goqu.I("f."+colPlaceID).Eq(goqu.I("j."+colFromPlace))),
		).
		Join(
			goqu.T(tablePlace).As("t"),
			goqu.On(goqu.I("t."+colPlaceID).Eq(goqu.I("j."+colToPlace))),
		).
		Select(
			goqu.I("j."+colJourneyID),
			goqu.I("j."+colVehicleCode),
			goqu.I("f."+colPlaceName),
			goqu.I("t."+colPlaceName),
			goqu.I("j."+colDepartTime),
			goqu.I("j."+colArriveTime),
			goqu.I("j."+colCapacity),
			goqu.I("j."+colBookedCount),
		)
}

func (s *Store) journeyRows(ctx context.Context, stmt *goqu.SelectDataset) ([]gamesdb.Journey, error) {
	sqlQuery, err := toSQL(stmt)
	if err != nil {
		return nil, err
	}

	rows, err := s.queryRows(ctx, s.db, sqlQuery, opFindJourneys)
	if err != nil {
		return nil, err
	}
	defer s.closeRows(ctx, rows)

	journeys := make([]gamesdb.Journey, 0)

	for rows.Next() {
		var journey gamesdb.Journey
		scanErr := rows.Scan(
			&journey.JourneyID,
			&journey.VehicleCode,
			&journey.OriginName,
			&journey.DestName,
			&journey.Departs,
			&journey.Arrives,
			&journey.Capacity,
			&journey.Booked,
		)
		if scanErr != nil {
			return nil, s.scanErr(ctx, scanErr)
		}

		journeys = append(journeys, journey)
	}

	return journeys, nil
}

// GetBookingHistory returns the bookings made for the member, newest
// departure first. History rows carry the journey view only; display names
// are resolved by GetBookingDetails.
func (s *Store) GetBookingHistory(ctx context.Context, memberID string) ([]gamesdb.Booking, error) {
	observer, ctx := s.beginOperation(ctx, opBookingHistory)

	stmt := builder().
		From(goqu.T(tableBooking).As("b")).
		Join(
			goqu.T(tableJourney).As("j"),
			goqu.On(goqu.I("j."+colJourneyID).Eq(goqu.I("b."+colJourneyID))),
		).
		Join(
			goqu.T(tablePlace).As("f"),
			goqu.On(goqu.I("f."+colPlaceID).Eq(goqu.I("j."+colFromPlace))),
		).
		Join(
			goqu.T(tablePlace).As("t"),
			goqu.On(goqu.I("t."+colPlaceID).Eq(goqu.I("j."+colToPlace))),
		).
		Select(
			goqu.I("j."+colJourneyID),
			goqu.I("j."+colVehicleCode),
			goqu.I("f."+colPlaceName),
			goqu.I("t."+colPlaceName),
			goqu.I("j."+colDepartTime),
			goqu.I("j."+colArriveTime),
			goqu.I("b."+colWhenBooked),
		).
		Where(goqu.I("b." + colBookedFor).Eq(memberID)).
		Order(goqu.I("j." + colDepartTime).Desc())

	sqlQuery, err := toSQL(stmt)
	if err != nil {
		observer.fail(err)
		return nil, err
	}

	rows, err := s.queryRows(ctx, s.db, sqlQuery, opBookingHistory)
	if err != nil {
		observer.fail(err)
		return nil, err
	}
	defer s.closeRows(ctx, rows)

	bookings := make([]gamesdb.Booking, 0)

	for rows.Next() {
		var booking gamesdb.Booking
		scanErr := rows.Scan(
			&booking.JourneyID,
			&booking.VehicleCode,
			&booking.OriginName,
			&booking.DestName,
			&booking.Departs,
			&booking.Arrives,
			&booking.WhenBooked,
		)
		if scanErr != nil {
			err = s.scanErr(ctx, scanErr)
			observer.fail(err)

			return nil, err
		}

		bookings = append(bookings, booking)
	}

	observer.succeed(logAttrMemberID, memberID, logAttrRowCount, len(bookings))

	return bookings, nil
}
