package auth

// Role is the dashboard role carried in token claims.
type Role string

const (
	RoleFacility Role = "facility"
	RoleDistrict Role = "district"
	RoleAdmin    Role = "admin"
)

// Valid reports whether the role is one of the three known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleFacility, RoleDistrict, RoleAdmin:
		return true
	}
	return false
}

// Actor is the authenticated user as seen by the domain layer: a role plus
// the facility/district scope that bounds which infants it may see and change.
// Facility is set only for facility-level users; District for facility and
// district-level users; admins carry national scope (both empty).
type Actor struct {
	Email    string
	Name     string
	Role     Role
	Facility string
	District string
}

// InScope reports whether a record at the given facility/district is visible
// to the actor.
func (a Actor) InScope(facility, district string) bool {
	switch a.Role {
	case RoleAdmin:
		return true
	case RoleDistrict:
		return district == a.District
	case RoleFacility:
		return facility == a.Facility
	}
	return false
}
