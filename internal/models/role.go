package models

type Role string

const (
	RoleStudent   Role = "student"
	RoleOrganiser Role = "organiser"
	RoleAdmin     Role = "admin"
)

type Capability int

const (
	CapRSVP Capability = iota
	CapCheckIn
	CapViewRoster
)

func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleStudent, RoleOrganiser, RoleAdmin:
		return Role(s), true
	}
	return "", false
}

// Can reports whether the role grants the capability. Unknown roles grant
// nothing.
func (r Role) Can(capability Capability) bool {
	switch r {
	case RoleAdmin:
		return true
	case RoleOrganiser:
		switch capability {
		case CapRSVP, CapCheckIn, CapViewRoster:
			return true
		}
	case RoleStudent:
		return capability == CapRSVP
	}
	return false
}
