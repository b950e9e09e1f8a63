package postgresengine

import (
	"context"
	"database/sql"

	"github.com/doug-martin/goqu/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/gamesops/gamesdb-go/gamesdb"
)

const (
	opCheckLogin       = "check_login"
	opGetMemberDetails = "get_member_details"
	opResolveRoles     = "resolve_roles"

	logAttrMemberID  = "member_id"
	logAttrRoleCount = "role_count"
)

// CheckLogin validates a member's credentials and returns the member's
// composite profile on success. An unknown member id and a wrong password
// both yield gamesdb.ErrInvalidCredentials.
func (s *Store) CheckLogin(ctx context.Context, memberID string, password string) (gamesdb.Profile, error) {
	observer, ctx := s.beginOperation(ctx, opCheckLogin)

	hash, err := s.passwordHashFor(ctx, memberID)
	if err != nil {
		observer.fail(err)
		return gamesdb.Profile{}, err
	}

	if compareErr := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); compareErr != nil {
		observer.fail(gamesdb.ErrInvalidCredentials)
		return gamesdb.Profile{}, gamesdb.ErrInvalidCredentials
	}

	profile, err := s.memberDetails(ctx, memberID)
	if err != nil {
		observer.fail(err)
		return gamesdb.Profile{}, err
	}

	observer.succeed(logAttrMemberID, memberID)

	return profile, nil
}

// GetMemberDetails returns the composite profile for a member: identity,
// country and residence names, the role set, the medal tally for athletes,
// and the count of bookings made for staff. It returns gamesdb.ErrNotFound
// only when the member id itself does not exist; a member without any role
// rows still resolves.
func (s *Store) GetMemberDetails(ctx context.Context, memberID string) (gamesdb.Profile, error) {
	observer, ctx := s.beginOperation(ctx, opGetMemberDetails)

	profile, err := s.memberDetails(ctx, memberID)
	if err != nil {
		observer.fail(err)
		return gamesdb.Profile{}, err
	}

	observer.succeed(logAttrMemberID, memberID, logAttrRoleCount, len(profile.Roles))

	return profile, nil
}

// ResolveRoles returns the set of roles the member holds: the union of the
// role tables containing the member id. A member with no role rows yields
// the empty set, not an error.
func (s *Store) ResolveRoles(ctx context.Context, memberID string) (gamesdb.Roles, error) {
	observer, ctx := s.beginOperation(ctx, opResolveRoles)

	roles, err := s.resolveRoles(ctx, memberID)
	if err != nil {
		observer.fail(err)
		return nil, err
	}

	observer.succeed(logAttrMemberID, memberID, logAttrRoleCount, len(roles))

	return roles, nil
}

// memberDetails assembles the composite profile. The role set is resolved
// first because the tally and booking-count fields are conditional on it.
func (s *Store) memberDetails(ctx context.Context, memberID string) (gamesdb.Profile, error) {
	profile, err := s.profileRow(ctx, memberID)
	if err != nil {
		return gamesdb.Profile{}, err
	}

	profile.Roles, err = s.resolveRoles(ctx, memberID)
	if err != nil {
		return gamesdb.Profile{}, err
	}

	if profile.Roles.Has(gamesdb.RoleAthlete) {
		profile.Medals, err = s.tallyForAthlete(ctx, memberID)
		if err != nil {
			return gamesdb.Profile{}, err
		}
	}

	if profile.Roles.Has(gamesdb.RoleStaff) {
		profile.BookingsMade, err = s.bookingsMadeBy(ctx, memberID)
		if err != nil {
			return gamesdb.Profile{}, err
		}
	}

	return profile, nil
}

// profileRow reads the base identity row joined with country and residence
// names. Both joins are outer joins: a missing country code or accommodation
// reference leaves the name empty rather than dropping the member.
func (s *Store) profileRow(ctx context.Context, memberID string) (gamesdb.Profile, error) {
	stmt := builder().
		From(goqu.T(tableMember).As("m")).
		Select(
			goqu.I("m."+colTitle),
			goqu.I("m."+colGivenNames),
			goqu.I("m."+colFamilyName),
			goqu.I("c."+colCountryName),
			goqu.I("pl."+colPlaceName),
		).
		LeftJoin(
			goqu.T(tableCountry).As("c"),
			goqu.On(goqu.I("c."+colCountryCode).Eq(goqu.I("m."+colCountryCode))),
		).
		LeftJoin(
			goqu.T(tablePlace).As("pl"),
			goqu.On(goqu.I("pl."+colPlaceID).Eq(goqu.I("m."+colAccommodation))),
		).
		Where(goqu.I("m." + colMemberID).Eq(memberID))

	sqlQuery, err := toSQL(stmt)
	if err != nil {
		return gamesdb.Profile{}, err
	}

	rows, err := s.queryRows(ctx, s.db, sqlQuery, opGetMemberDetails)
	if err != nil {
		return gamesdb.Profile{}, err
	}
	defer s.closeRows(ctx, rows)

	if !rows.Next() {
		return gamesdb.Profile{}, gamesdb.ErrNotFound
	}

	var countryName, placeName sql.NullString
	profile := gamesdb.Profile{MemberID: memberID}

	if scanErr := rows.Scan(&profile.Title, &profile.GivenNames, &profile.FamilyName, &countryName, &placeName); scanErr != nil {
		return gamesdb.Profile{}, s.scanErr(ctx, scanErr)
	}

	profile.CountryName = nullableString(countryName)
	profile.Residence = nullableString(placeName)

	return profile, nil
}

// resolveRoles queries each role table independently and unions the hits.
func (s *Store) resolveRoles(ctx context.Context, memberID string) (gamesdb.Roles, error) {
	roles := make(gamesdb.Roles, 0, len(gamesdb.AllRoles()))

	for _, role := range gamesdb.AllRoles() {
		held, err := s.holdsRole(ctx, s.db, memberID, role)
		if err != nil {
			return nil, err
		}

		if held {
			roles = append(roles, role)
		}
	}

	return roles, nil
}

// holdsRole checks a single role table for the member id. The role tables
// are named after the roles themselves. The runner may be the pool or an
// open transaction; the reservation path checks the staff role inside its
// transaction.
func (s *Store) holdsRole(ctx context.Context, runner dbRunner, memberID string, role gamesdb.Role) (bool, error) {
	stmt := builder().
		From(string(role)).
		Select(colMemberID).
		Where(goqu.C(colMemberID).Eq(memberID))

	sqlQuery, err := toSQL(stmt)
	if err != nil {
		return false, err
	}

	rows, err := s.queryRows(ctx, runner, sqlQuery, opResolveRoles)
	if err != nil {
		return false, err
	}
	defer s.closeRows(ctx, rows)

	return rows.Next(), nil
}

// passwordHashFor reads the stored password hash for the member. A missing
// member reports invalid credentials, not absence, so login probing cannot
// distinguish the two.
func (s *Store) passwordHashFor(ctx context.Context, memberID string) (string, error) {
	stmt := builder().
		From(tableMember).
		Select(colPassWord).
		Where(goqu.C(colMemberID).Eq(memberID))

	sqlQuery, err := toSQL(stmt)
	if err != nil {
		return "", err
	}

	rows, err := s.queryRows(ctx, s.db, sqlQuery, opCheckLogin)
	if err != nil {
		return "", err
	}
	defer s.closeRows(ctx, rows)

	if !rows.Next() {
		return "", gamesdb.ErrInvalidCredentials
	}

	var hash string
	if scanErr := rows.Scan(&hash); scanErr != nil {
		return "", s.scanErr(ctx, scanErr)
	}

	return hash, nil
}

// bookingsMadeBy counts the bookings a staff member has made. Bookings made
// for a member are served by GetBookingHistory instead.
func (s *Store) bookingsMadeBy(ctx context.Context, memberID string) (int, error) {
	stmt := builder().
		From(tableBooking).
		Select(goqu.COUNT(goqu.Star())).
		Where(goqu.C(colBookedBy).Eq(memberID))

	sqlQuery, err := toSQL(stmt)
	if err != nil {
		return 0, err
	}

	rows, err := s.queryRows(ctx, s.db, sqlQuery, opGetMemberDetails)
	if err != nil {
		return 0, err
	}
	defer s.closeRows(ctx, rows)

	count := 0
	if rows.Next() {
		if scanErr := rows.Scan(&count); scanErr != nil {
			return 0, s.scanErr(ctx, scanErr)
		}
	}

	return count, nil
}
