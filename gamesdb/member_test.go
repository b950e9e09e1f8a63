package gamesdb_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gamesops/gamesdb-go/gamesdb"
)

func Test_Roles_Has(t *testing.T) {
	roles := gamesdb.Roles{gamesdb.RoleAthlete, gamesdb.RoleStaff}

	assert.True(t, roles.Has(gamesdb.RoleAthlete))
	assert.True(t, roles.Has(gamesdb.RoleStaff))
	assert.False(t, roles.Has(gamesdb.RoleOfficial))
	assert.False(t, gamesdb.Roles{}.Has(gamesdb.RoleAthlete))
}

func Test_Profile_FullName(t *testing.T) {
	profile := gamesdb.Profile{Title: "Mr", GivenNames: "Ian", FamilyName: "Thorpe"}

	assert.Equal(t, "Mr Ian Thorpe", profile.FullName())
}

func Test_MedalTally_IsZero(t *testing.T) {
	assert.True(t, gamesdb.MedalTally{}.IsZero())
	assert.False(t, gamesdb.MedalTally{Bronze: 1}.IsZero())
}
