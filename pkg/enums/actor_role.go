package enums

import "fmt"

// ActorRole is the role claim carried by bearer tokens on the admin API.
type ActorRole string

const (
	// ActorRoleAdmin may read and write offers.
	ActorRoleAdmin ActorRole = "admin"
	// ActorRoleMerchandiser may read offers but not change them.
	ActorRoleMerchandiser ActorRole = "merchandiser"
)

var validActorRoles = []ActorRole{
	ActorRoleAdmin,
	ActorRoleMerchandiser,
}

// String implements fmt.Stringer.
func (r ActorRole) String() string {
	return string(r)
}

// IsValid reports whether the value is a known ActorRole.
func (r ActorRole) IsValid() bool {
	for _, candidate := range validActorRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseActorRole converts raw input into an ActorRole.
func ParseActorRole(value string) (ActorRole, error) {
	for _, candidate := range validActorRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid actor role %q", value)
}
