package gamesdb

// Role is a membership tag. A member may hold any combination of roles
// simultaneously; role membership is derived from the role tables, not
// stored as a single field.
type Role string

const (
	RoleAthlete  Role = "athlete"
	RoleOfficial Role = "official"
	RoleStaff    Role = "staff"
)

// AllRoles lists the known roles in the order role checks are performed.
func AllRoles() []Role {
	return []Role{RoleAthlete, RoleOfficial, RoleStaff}
}

// Roles is the set of roles a member holds. A member with no role rows is a
// plain registrant: the empty set is a valid state, not an error.
type Roles []Role

// Has reports whether the set contains the given role.
func (r Roles) Has(role Role) bool {
	for _, held := range r {
		if held == role {
			return true
		}
	}

	return false
}

// Profile is the composite member view assembled by the member directory.
// Medals is only populated for athletes and BookingsMade only for staff;
// both are zero values otherwise.
type Profile struct {
	MemberID     string
	Title        string
	GivenNames   string
	FamilyName   string
	CountryName  string
	Residence    string
	Roles        Roles
	Medals       MedalTally
	BookingsMade int
}

// FullName returns title, given names and family name joined for display,
// matching the format used in booking confirmations.
func (p Profile) FullName() string {
	name := p.Title + " " + p.GivenNames + " " + p.FamilyName

	return name
}
