package gamesdb

// Medal rank codes as stored in the result tables. A NULL medal column means
// the participation won no medal.
const (
	MedalGold   = "G"
	MedalSilver = "S"
	MedalBronze = "B"
)

// UnifiedTeamName is the display label substituted for participants and
// teams without a country code. A missing code is a supported state, not a
// data-integrity error.
const UnifiedTeamName = "Unified Team"

// MedalTally holds per-rank medal counts for one member, summed over
// individual and team participations.
type MedalTally struct {
	Gold   int
	Silver int
	Bronze int
}

// IsZero reports whether the tally contains no medals.
func (t MedalTally) IsZero() bool {
	return t == MedalTally{}
}

// TallyRow is one country's aggregate in the country medal table. Rows are
// keyed by country name, with UnifiedTeamName standing in for a missing
// country code; one row exists per distinct key.
type TallyRow struct {
	CountryName string
	Gold        int
	Silver      int
	Bronze      int
	Total       int
}
