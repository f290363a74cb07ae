package auth

import (
	"github.com/google/uuid"

	"github.com/licenciapp/licencias-backend/pkg/enums"
)

// Actor is the authenticated identity attached to a request after the
// middleware re-reads the role from the profiles table. Services receive
// it instead of raw token claims.
type Actor struct {
	ID   uuid.UUID
	Role enums.ActorRole
}

// IsZero reports whether the actor carries no identity.
func (a Actor) IsZero() bool {
	return a.ID == uuid.Nil
}
