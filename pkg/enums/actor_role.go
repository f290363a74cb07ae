package enums

import "fmt"

// ActorRole represents a platform-level permissions role.
type ActorRole string

const (
	ActorRoleSolicitante   ActorRole = "solicitante"
	ActorRoleRevisor       ActorRole = "revisor"
	ActorRoleAdministrador ActorRole = "administrador"
)

var validActorRoles = []ActorRole{
	ActorRoleSolicitante,
	ActorRoleRevisor,
	ActorRoleAdministrador,
}

// String implements fmt.Stringer.
func (a ActorRole) String() string {
	return string(a)
}

// IsValid reports whether the value is a known ActorRole.
func (a ActorRole) IsValid() bool {
	for _, candidate := range validActorRoles {
		if candidate == a {
			return true
		}
	}
	return false
}

// IsElevated reports whether the role may review requests belonging to
// other users.
func (a ActorRole) IsElevated() bool {
	return a == ActorRoleRevisor || a == ActorRoleAdministrador
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
