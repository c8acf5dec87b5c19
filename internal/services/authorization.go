package services

import (
	"fmt"

	"github.com/stwalsh4118/estate/api/internal/auth"
	"github.com/stwalsh4118/estate/api/internal/models"
)

// Denial reasons reported in a Decision.
const (
	ReasonUnauthenticated = "unauthenticated"
	ReasonRole            = "role does not allow catalog writes"
	ReasonNotCreator      = "only the creator or a super admin may modify this property"
)

// Decision is the outcome of an authorization check. Elevated is set for
// super admins, whose writes bypass ownership.
type Decision struct {
	Reason   string
	Allowed  bool
	Elevated bool
}

// Err converts a denied decision into ErrAuthenticationRequired or
// ErrForbidden. It returns nil when the decision allows the write.
func (d Decision) Err() error {
	switch {
	case d.Allowed:
		return nil
	case d.Reason == ReasonUnauthenticated:
		return ErrAuthenticationRequired
	default:
		return fmt.Errorf("%w: %s", ErrForbidden, d.Reason)
	}
}

// CanCreate decides whether actor may author a new property.
func CanCreate(actor *auth.Actor) Decision {
	if actor == nil {
		return Decision{Reason: ReasonUnauthenticated}
	}
	if !actor.Role.Elevated() {
		return Decision{Reason: ReasonRole}
	}
	return Decision{Allowed: true, Elevated: actor.Role == auth.RoleSuperAdmin}
}

// CanMutate decides whether actor may update or delete property, or any of
// its relations. Super admins may modify everything; admins only what they
// created.
func CanMutate(actor *auth.Actor, property *models.Property) Decision {
	if actor == nil {
		return Decision{Reason: ReasonUnauthenticated}
	}
	switch actor.Role {
	case auth.RoleSuperAdmin:
		return Decision{Allowed: true, Elevated: true}
	case auth.RoleAdmin:
		if property != nil && property.OwnedBy(actor.ID) {
			return Decision{Allowed: true}
		}
		return Decision{Reason: ReasonNotCreator}
	default:
		return Decision{Reason: ReasonRole}
	}
}
