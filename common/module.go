package common

import "strings"

// Role is the part a node plays in a sale: the single conductor or one of the contributors.
type Role string

const (
	RoleConductor   Role = "conductor"
	RoleContributor Role = "contributor"
)

func (r Role) IsSupported() bool {
	switch r {
	case RoleConductor, RoleContributor:
		return true
	}
	return false
}

func (r Role) String() string {
	return string(r)
}

// ParseRole parses a role name, case insensitive.
func ParseRole(s string) Role {
	return Role(strings.ToLower(strings.TrimSpace(s)))
}
