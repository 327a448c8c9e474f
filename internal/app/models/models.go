package models

// Role defines which profile table an account is linked to
type Role string

const (
	RoleStudent   Role = "STUDENT"
	RoleProfessor Role = "PROFESSOR"
)

// Valid reports whether the role is one of the supported values
func (r Role) Valid() bool {
	return r == RoleStudent || r == RoleProfessor
}

// Term represents a semester term
type Term string

const (
	TermFall   Term = "FALL"
	TermSpring Term = "SPRING"
	TermSummer Term = "SUMMER"
)
