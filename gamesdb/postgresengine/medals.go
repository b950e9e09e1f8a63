package postgresengine

import (
	"context"
	"sort"

	"github.com/doug-martin/goqu/v9"

	"github.com/gamesops/gamesdb-go/gamesdb"
)

const (
	opTallyForMember    = "tally_for_member"
	opCountryMedalTally = "country_medal_tally"

	aliasMedalCount = "medal_count"
	aliasTotal      = "total"

	logAttrCountryCount = "country_count"
)

// medalRanks lists the rank codes in patch-pass order.
var medalRanks = []string{gamesdb.MedalGold, gamesdb.MedalSilver, gamesdb.MedalBronze}

// TallyForMember computes the member's medal tally across individual and
// team participations, with each rank summed independently over both
// sources. Non-athletes and athletes without medal rows get the zero tally,
// never an error.
func (s *Store) TallyForMember(ctx context.Context, memberID string, roles gamesdb.Roles) (gamesdb.MedalTally, error) {
	observer, ctx := s.beginOperation(ctx, opTallyForMember)

	if !roles.Has(gamesdb.RoleAthlete) {
		observer.succeed(logAttrMemberID, memberID)
		return gamesdb.MedalTally{}, nil
	}

	tally, err := s.tallyForAthlete(ctx, memberID)
	if err != nil {
		observer.fail(err)
		return gamesdb.MedalTally{}, err
	}

	observer.succeed(logAttrMemberID, memberID)

	return tally, nil
}

// CountryMedalTally computes the per-country medal table, combining
// individual and team medal sources into one row per distinct country name.
// Rows are ordered by descending total; the per-rank breakdown is patched
// into the rows afterwards without reordering them.
func (s *Store) CountryMedalTally(ctx context.Context) ([]gamesdb.TallyRow, error) {
	observer, ctx := s.beginOperation(ctx, opCountryMedalTally)

	tallyRows, err := s.countryMedalTally(ctx)
	if err != nil {
		observer.fail(err)
		return nil, err
	}

	observer.succeed(logAttrCountryCount, len(tallyRows))

	return tallyRows, nil
}

func (s *Store) countryMedalTally(ctx context.Context) ([]gamesdb.TallyRow, error) {
	tallyRows := make([]gamesdb.TallyRow, 0)

	// Pass one: seed one row per country from individual medals.
	individualTotals, err := s.countryCounts(ctx, s.individualCountryStmt(nil))
	if err != nil {
		return nil, err
	}

	for _, entry := range individualTotals {
		tallyRows = append(tallyRows, gamesdb.TallyRow{CountryName: entry.name, Total: entry.count})
	}

	// Pass two: merge team medals into existing rows by country name.
	teamTotals, err := s.countryCounts(ctx, s.teamCountryStmt(nil))
	if err != nil {
		return nil, err
	}

	for _, entry := range teamTotals {
		if row := findTallyRow(tallyRows, entry.name); row != nil {
			row.Total += entry.count
			continue
		}

		tallyRows = append(tallyRows, gamesdb.TallyRow{CountryName: entry.name, Total: entry.count})
	}

	sort.SliceStable(tallyRows, func(i, j int) bool {
		return tallyRows[i].Total > tallyRows[j].Total
	})

	// Per-rank patch passes: recompute each rank's breakdown from both
	// sources and patch the matching row in place.
	for _, rank := range medalRanks {
		if err = s.patchRankCounts(ctx, tallyRows, rank); err != nil {
			return nil, err
		}
	}

	return tallyRows, nil
}

// patchRankCounts fills one medal rank's counts into the accumulated rows.
func (s *Store) patchRankCounts(ctx context.Context, tallyRows []gamesdb.TallyRow, rank string) error {
	individual, err := s.countryCounts(ctx, s.individualCountryStmt(&rank))
	if err != nil {
		return err
	}

	team, err := s.countryCounts(ctx, s.teamCountryStmt(&rank))
	if err != nil {
		return err
	}

	for _, entry := range append(individual, team...) {
		row := findTallyRow(tallyRows, entry.name)
		if row == nil {
			continue // rank sources are subsets of the total sources
		}

		switch rank {
		case gamesdb.MedalGold:
			row.Gold += entry.count
		case gamesdb.MedalSilver:
			row.Silver += entry.count
		case gamesdb.MedalBronze:
			row.Bronze += entry.count
		}
	}

	return nil
}

// findTallyRow looks a row up by country name with a linear scan. The number
// of distinct countries is small and bounded, so this stays cheap.
func findTallyRow(tallyRows []gamesdb.TallyRow, countryName string) *gamesdb.TallyRow {
	for i := range tallyRows {
		if tallyRows[i].CountryName == countryName {
			return &tallyRows[i]
		}
	}

	return nil
}

// countryCount is one (country name, medal count) aggregation result.
type countryCount struct {
	name  string
	count int
}

// individualCountryStmt aggregates medals per country from individual
// participations. With a rank it counts only that rank; without it counts
// all medals. A participant without a country code counts for the unified
// team.
func (s *Store) individualCountryStmt(rank *string) *goqu.SelectDataset {
	countryName := goqu.COALESCE(goqu.I("c."+colCountryName), goqu.V(gamesdb.UnifiedTeamName))

	stmt := builder().
		From(goqu.T(tableParticipates).As("p")).
		Join(
			goqu.T(tableMember).As("m"),
			goqu.On(goqu.I("m."+colMemberID).Eq(goqu.I("p."+colAthleteID))),
		).
		LeftJoin(
			goqu.T(tableCountry).As("c"),
			goqu.On(goqu.I("c."+colCountryCode).Eq(goqu.I("m."+colCountryCode))),
		).
		Select(countryName.As(colCountryName), goqu.COUNT(goqu.Star()).As(aliasTotal)).
		GroupBy(countryName)

	if rank != nil {
		return stmt.Where(goqu.I("p." + colMedal).Eq(*rank))
	}

	return stmt.Where(goqu.I("p." + colMedal).IsNotNull())
}

// teamCountryStmt aggregates medals per country from team participations.
func (s *Store) teamCountryStmt(rank *string) *goqu.SelectDataset {
	countryName := goqu.COALESCE(goqu.I("c."+colCountryName), goqu.V(gamesdb.UnifiedTeamName))

	stmt := builder().
		From(goqu.T(tableTeam).As("t")).
		LeftJoin(
			goqu.T(tableCountry).As("c"),
			goqu.On(goqu.I("c."+colCountryCode).Eq(goqu.I("t."+colCountryCode))),
		).
		Select(countryName.As(colCountryName), goqu.COUNT(goqu.Star()).As(aliasTotal)).
		GroupBy(countryName)

	if rank != nil {
		return stmt.Where(goqu.I("t." + colMedal).Eq(*rank))
	}

	return stmt.Where(goqu.I("t." + colMedal).IsNotNull())
}

// countryCounts runs one aggregation statement and scans its
// (country name, count) rows.
func (s *Store) countryCounts(ctx context.Context, stmt *goqu.SelectDataset) ([]countryCount, error) {
	sqlQuery, err := toSQL(stmt)
	if err != nil {
		return nil, err
	}

	rows, err := s.queryRows(ctx, s.db, sqlQuery, opCountryMedalTally)
	if err != nil {
		return nil, err
	}
	defer s.closeRows(ctx, rows)

	counts := make([]countryCount, 0)

	for rows.Next() {
		var entry countryCount
		if scanErr := rows.Scan(&entry.name, &entry.count); scanErr != nil {
			return nil, s.scanErr(ctx, scanErr)
		}

		counts = append(counts, entry)
	}

	return counts, nil
}

// tallyForAthlete sums the athlete's medals from individual and team
// participations, rank by rank.
func (s *Store) tallyForAthlete(ctx context.Context, memberID string) (gamesdb.MedalTally, error) {
	tally := gamesdb.MedalTally{}

	individualStmt := builder().
		From(tableParticipates).
		Select(colMedal, goqu.COUNT(goqu.Star()).As(aliasMedalCount)).
		Where(goqu.C(colAthleteID).Eq(memberID), goqu.C(colMedal).IsNotNull()).
		GroupBy(colMedal)

	if err := s.addRankCounts(ctx, &tally, individualStmt); err != nil {
		return gamesdb.MedalTally{}, err
	}

	teamStmt := builder().
		From(goqu.T(tableTeam).As("t")).
		Join(
			goqu.T(tableTeamMember).As("tm"),
			goqu.On(
				goqu.I("tm."+colEventID).Eq(goqu.I("t."+colEventID)),
				goqu.I("tm."+colTeamName).Eq(goqu.I("t."+colTeamName)),
			),
		).
		Select(goqu.I("t."+colMedal), goqu.COUNT(goqu.Star()).As(aliasMedalCount)).
		Where(goqu.I("tm."+colAthleteID).Eq(memberID), goqu.I("t."+colMedal).IsNotNull()).
		GroupBy(goqu.I("t." + colMedal))

	if err := s.addRankCounts(ctx, &tally, teamStmt); err != nil {
		return gamesdb.MedalTally{}, err
	}

	return tally, nil
}

// addRankCounts runs one grouped medal count statement and adds the counts
// into the tally, so individual and team sources accumulate independently
// per rank.
func (s *Store) addRankCounts(ctx context.Context, tally *gamesdb.MedalTally, stmt *goqu.SelectDataset) error {
	sqlQuery, err := toSQL(stmt)
	if err != nil {
		return err
	}

	rows, err := s.queryRows(ctx, s.db, sqlQuery, opTallyForMember)
	if err != nil {
		return err
	}
	defer s.closeRows(ctx, rows)

	for rows.Next() {
		var rank string
		var count int

		if scanErr := rows.Scan(&rank, &count); scanErr != nil {
			return s.scanErr(ctx, scanErr)
		}

		switch rank {
		case gamesdb.MedalGold:
			tally.Gold += count
		case gamesdb.MedalSilver:
			tally.Silver += count
		case gamesdb.MedalBronze:
			tally.Bronze += count
		}
	}

	return nil
}
