package postgresengine

import (
	"context"
	"errors"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"

	"github.com/gamesops/gamesdb-go/gamesdb"
	"github.com/gamesops/gamesdb-go/gamesdb/postgresengine/internal/adapters"
)

const (
	opBook              = "book"
	opGetBookingDetails = "get_booking_details"

	logAttrStaffID     = "staff_id"
	logAttrTravelerID  = "traveler_id"
	logAttrVehicleCode = "vehicle_code"
	logAttrJourneyID   = "journey_id"

	aliasBookedForName = "booked_for_name"
	aliasBookedByName  = "booked_by_name"

	sqlCurrentTimestamp = "current_timestamp"
	sqlFullNameTraveler = "trav.title || ' ' || trav.given_names || ' ' || trav.family_name"
	sqlFullNameStaff    = "st.title || ' ' || st.given_names || ' ' || st.family_name"
)

// journeySlot is the journey state read under the row lock.
type journeySlot struct {
	journeyID int
	capacity  int
	booked    int
}

// Book reserves one seat for the traveler on the journey identified by
// vehicle code and departure time, recorded against the staff member making
// the booking. The capacity check and both writes execute in one
// transaction with the journey row locked, so two concurrent callers can
// never both take the last seat: exactly one succeeds, the other observes
// gamesdb.ErrCapacityExceeded.
//
// Every failure rolls the whole transaction back; a failed Book leaves no
// booking row and no seat counter change behind. On success the fully
// joined confirmation view is read back and returned.
func (s *Store) Book(
	ctx context.Context,
	staffID string,
	travelerID string,
	vehicleCode string,
	departs time.Time,
) (gamesdb.Booking, error) {

	observer, ctx := s.beginOperation(ctx, opBook)

	tx, beginErr := s.db.Begin(ctx)
	if beginErr != nil {
		err := errors.Join(gamesdb.ErrStoreUnavailable, beginErr)
		s.logError(ctx, logMsgDBExecFailed, beginErr)
		observer.fail(err)

		return gamesdb.Booking{}, err
	}

	journeyID, bookErr := s.bookInTransaction(ctx, tx, staffID, travelerID, vehicleCode, departs)
	if bookErr != nil {
		s.rollback(ctx, tx)

		if errors.Is(bookErr, gamesdb.ErrCapacityExceeded) {
			observer.capacityConflict()
		}

		observer.fail(bookErr)

		return gamesdb.Booking{}, bookErr
	}

	if commitErr := tx.Commit(ctx); commitErr != nil {
		s.rollback(ctx, tx)
		err := errors.Join(gamesdb.ErrBookingWriteFailed, commitErr)
		s.logError(ctx, logMsgDBExecFailed, commitErr)
		observer.fail(err)

		return gamesdb.Booking{}, err
	}

	booking, readErr := s.bookingDetails(ctx, travelerID, journeyID)
	if readErr != nil {
		observer.fail(readErr)
		return gamesdb.Booking{}, readErr
	}

	observer.succeed(
		logAttrStaffID, staffID,
		logAttrTravelerID, travelerID,
		logAttrVehicleCode, vehicleCode,
		logAttrJourneyID, journeyID,
	)

	return booking, nil
}

// GetBookingDetails returns the fully joined view of the booking made for
// the given member on the given journey: traveler and staff display names,
// origin and destination names, vehicle, and timestamps. It returns
// gamesdb.ErrNotFound when no such booking exists.
func (s *Store) GetBookingDetails(ctx context.Context, memberID string, journeyID int) (gamesdb.Booking, error) {
	observer, ctx := s.beginOperation(ctx, opGetBookingDetails)

	booking, err := s.bookingDetails(ctx, memberID, journeyID)
	if err != nil {
		observer.fail(err)
		return gamesdb.Booking{}, err
	}

	observer.succeed(logAttrMemberID, memberID, logAttrJourneyID, journeyID)

	return booking, nil
}

// bookInTransaction runs the reservation sequence on the open transaction
// and returns the booked journey id. The caller owns commit and rollback.
func (s *Store) bookInTransaction(
	ctx context.Context,
	tx adapters.DBTx,
	staffID string,
	travelerID string,
	vehicleCode string,
	departs time.Time,
) (int, error) {

	isStaff, err := s.holdsRole(ctx, tx, staffID, gamesdb.RoleStaff)
	if err != nil {
		return 0, err
	}

	if !isStaff {
		return 0, gamesdb.ErrStaffNotFound
	}

	slot, err := s.lockJourneySlot(ctx, tx, vehicleCode, departs)
	if err != nil {
		return 0, err
	}

	if slot.booked >= slot.capacity {
		return 0, gamesdb.ErrCapacityExceeded
	}

	if err = s.insertBooking(ctx, tx, travelerID, staffID, slot.journeyID); err != nil {
		return 0, err
	}

	if err = s.incrementBookedCount(ctx, tx, slot.journeyID, departs); err != nil {
		return 0, err
	}

	return slot.journeyID, nil
}

// lockJourneySlot re-reads capacity and booked count for the journey inside
// the transaction, taking a row lock so concurrent reservations for the same
// journey serialize. The (vehicle, departure time) pair must identify
// exactly one journey; anything else is a data-integrity defect.
func (s *Store) lockJourneySlot(
	ctx context.Context,
	tx adapters.DBTx,
	vehicleCode string,
	departs time.Time,
) (journeySlot, error) {

	stmt := builder().
		From(tableJourney).
		Select(colJourneyID, colCapacity, colBookedCount).
		Where(
			goqu.C(colVehicleCode).Eq(vehicleCode),
			goqu.C(colDepartTime).Eq(departs),
		).
		ForUpdate(exp.Wait)

	sqlQuery, err := toSQL(stmt)
	if err != nil {
		return journeySlot{}, err
	}

	rows, err := s.queryRows(ctx, tx, sqlQuery, opBook)
	if err != nil {
		return journeySlot{}, err
	}
	defer s.closeRows(ctx, rows)

	if !rows.Next() {
		return journeySlot{}, gamesdb.ErrJourneyNotFound
	}

	var slot journeySlot
	if scanErr := rows.Scan(&slot.journeyID, &slot.capacity, &slot.booked); scanErr != nil {
		return journeySlot{}, s.scanErr(ctx, scanErr)
	}

	if rows.Next() {
		return journeySlot{}, gamesdb.ErrAmbiguousJourney
	}

	return slot, nil
}

// insertBooking writes the booking row with the server-side timestamp.
func (s *Store) insertBooking(
	ctx context.Context,
	tx adapters.DBTx,
	travelerID string,
	staffID string,
	journeyID int,
) error {

	stmt := builder().
		Insert(tableBooking).
		Cols(colBookedFor, colBookedBy, colWhenBooked, colJourneyID).
		Vals(goqu.Vals{travelerID, staffID, goqu.L(sqlCurrentTimestamp), journeyID})

	sqlQuery, err := toSQL(stmt)
	if err != nil {
		return err
	}

	rowsAffected, err := s.execStatement(ctx, tx, sqlQuery, opBook)
	if err != nil {
		return err
	}

	if rowsAffected != 1 {
		return gamesdb.ErrBookingWriteFailed
	}

	return nil
}

// incrementBookedCount bumps the journey's seat counter, conditioned on the
// same identity used by the locked read and guarded by the capacity bound.
// The affected-row check turns any lost-update race or identity change into
// a rollback instead of an oversold seat.
func (s *Store) incrementBookedCount(
	ctx context.Context,
	tx adapters.DBTx,
	journeyID int,
	departs time.Time,
) error {

	stmt := builder().
		Update(tableJourney).
		Set(goqu.Record{colBookedCount: goqu.L(colBookedCount + " + 1")}).
		Where(
			goqu.C(colJourneyID).Eq(journeyID),
			goqu.C(colDepartTime).Eq(departs),
			goqu.C(colBookedCount).Lt(goqu.C(colCapacity)),
		)

	sqlQuery, err := toSQL(stmt)
	if err != nil {
		return err
	}

	rowsAffected, err := s.execStatement(ctx, tx, sqlQuery, opBook)
	if err != nil {
		return err
	}

	if rowsAffected != 1 {
		return gamesdb.ErrBookingWriteFailed
	}

	return nil
}

// rollback rolls the transaction back, logging instead of failing when the
// store refuses; the operation error being surfaced matters more.
func (s *Store) rollback(ctx context.Context, tx adapters.DBTx) {
	if err := tx.Rollback(ctx); err != nil {
		s.logWarn(ctx, logMsgRollbackFailed, logAttrError, err.Error())
	}
}

// bookingDetails reads the fully joined booking view. With several bookings
// for the same member and journey the most recent one is returned.
func (s *Store) bookingDetails(ctx context.Context, memberID string, journeyID int) (gamesdb.Booking, error) {
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
		Join(
			goqu.T(tableMember).As("trav"),
			goqu.On(goqu.I("trav."+colMemberID).Eq(goqu.I("b."+colBookedFor))),
		).
		Join(
			goqu.T(tableMember).As("st"),
			goqu.On(goqu.I("st."+colMemberID).Eq(goqu.I("b."+colBookedBy))),
		).
		Select(
			goqu.I("j."+colJourneyID),
			goqu.I("j."+colVehicleCode),
			goqu.I("f."+colPlaceName),
			goqu.I("t."+colPlaceName),
			goqu.I("j."+colDepartTime),
			goqu.I("j."+colArriveTime),
			goqu.L(sqlFullNameTraveler).As(aliasBookedForName),
			goqu.L(sqlFullNameStaff).As(aliasBookedByName),
			goqu.I("b."+colWhenBooked),
		).
		Where(
			goqu.I("b."+colBookedFor).Eq(memberID),
			goqu.I("j."+colJourneyID).Eq(journeyID),
		).
		Order(goqu.I("b." + colWhenBooked).Desc())

	sqlQuery, err := toSQL(stmt)
	if err != nil {
		return gamesdb.Booking{}, err
	}

	rows, err := s.queryRows(ctx, s.db, sqlQuery, opGetBookingDetails)
	if err != nil {
		return gamesdb.Booking{}, err
	}
	defer s.closeRows(ctx, rows)

	if !rows.Next() {
		return gamesdb.Booking{}, gamesdb.ErrNotFound
	}

	var booking gamesdb.Booking
	scanErr := rows.Scan(
		&booking.JourneyID,
		&booking.VehicleCode,
		&booking.OriginName,
		&booking.DestName,
		&booking.Departs,
		&booking.Arrives,
		&booking.BookedForName,
		&booking.BookedByName,
		&booking.WhenBooked,
	)
	if scanErr != nil {
		return gamesdb.Booking{}, s.scanErr(ctx, scanErr)
	}

	return booking, nil
}
