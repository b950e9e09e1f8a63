package gamesdb

import (
	"errors"
)

// Business outcomes. Entity absence and exhausted capacity are normal
// results of an operation, not store failures.
var (
	// ErrNotFound is returned when the requested entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrInvalidCredentials is returned by CheckLogin when the member id is
	// unknown or the password does not match. The two cases are deliberately
	// indistinguishable.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrStaffNotFound is returned by Book when the booking member does not
	// hold the staff role.
	ErrStaffNotFound = errors.New("booking member is not a staff member")

	// ErrJourneyNotFound is returned by Book when no journey matches the
	// given vehicle and departure time.
	ErrJourneyNotFound = errors.New("no journey for vehicle and departure time")

	// ErrCapacityExceeded is returned by Book when the journey is fully
	// booked. No booking row is created and the seat counter is unchanged.
	ErrCapacityExceeded = errors.New("journey capacity exceeded")

	// ErrBookingWriteFailed is returned by Book when the booking insert or
	// the seat counter update did not affect exactly one row. The whole
	// transaction is rolled back before this error is surfaced.
	ErrBookingWriteFailed = errors.New("booking write failed, transaction rolled back")

	// ErrAmbiguousJourney is returned by Book when more than one journey
	// matches the given vehicle and departure time. This is a data-integrity
	// defect in the backing store; the engine never silently picks one row.
	ErrAmbiguousJourney = errors.New("multiple journeys for vehicle and departure time")
)

// Store failures. These wrap the underlying driver error via errors.Join.
var (
	// ErrStoreUnavailable covers connectivity and transaction-control
	// failures from the backing store. Always fatal to the current
	// operation, never retried by the engine.
	ErrStoreUnavailable = errors.New("backing store unavailable")

	ErrBuildingQueryFailed = errors.New("failed to build sql query")
	ErrQueryFailed         = errors.New("database query execution failed")
	ErrScanningDBRowFailed = errors.New("failed to scan database row")
)

// ErrNilDatabaseConnection is returned by the engine constructors when the
// supplied connection is nil.
var ErrNilDatabaseConnection = errors.New("database connection must not be nil")
