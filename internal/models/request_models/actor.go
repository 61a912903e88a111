package request_models

import (
	"github.com/google/uuid"

	"khaja/internal/models/db_models"
)

// Actor is the authenticated caller of a service operation.
type Actor struct {
	ID   uuid.UUID
	Role db_models.Role
}

func (a Actor) IsAdmin() bool        { return a.Role == db_models.RoleAdmin }
func (a Actor) IsProfessional() bool { return a.Role == db_models.RoleProfessional }
func (a Actor) IsClient() bool       { return a.Role == db_models.RoleClient }

// Owns reports whether the actor is the given owner or an admin.
func (a Actor) Owns(owner uuid.UUID) bool {
	return a.IsAdmin() || a.ID == owner
}
