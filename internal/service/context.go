package service

import "github.com/google/uuid"

// AuthContext carries the resolved actor identity for one operation. The
// middleware builds it from the JWT and the actor's membership in the
// organization addressed by the request; services never look roles up
// themselves and hold no ambient state.
type AuthContext struct {
	ActorID        uuid.UUID
	OrganizationID uuid.UUID
	Role           string
}
