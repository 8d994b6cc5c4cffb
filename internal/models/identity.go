package models

import "github.com/google/uuid"

// Identity is the authenticated caller supplied by the session layer.
type Identity struct {
	UserID         uuid.UUID
	Role           Role
	OrganisationID *uuid.UUID
}

// Manages reports whether the caller may administer the organisation's
// events: admins manage all, organisers only their own.
func (id Identity) Manages(organisationID uuid.UUID) bool {
	switch id.Role {
	case RoleAdmin:
		return true
	case RoleOrganiser:
		return id.OrganisationID != nil && *id.OrganisationID == organisationID
	default:
		return false
	}
}
