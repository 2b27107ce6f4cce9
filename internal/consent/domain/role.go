package domain

// Role is an application role held by an identity.
type Role string

const (
	RolePartner    Role = "partner"
	RoleDoctor     Role = "doctor"
	RolePatient    Role = "patient"
	RoleSuperAdmin Role = "super_admin"
)

func (r Role) Valid() bool {
	switch r {
	case RolePartner, RoleDoctor, RolePatient, RoleSuperAdmin:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }

// Principal is an authenticated caller. It is resolved once at the edge and
// handed to the core as plain ids.
type Principal struct {
	UserID string
	Email  string
	Roles  []Role
}

func (p Principal) Has(role Role) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}
