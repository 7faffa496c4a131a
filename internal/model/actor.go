package model

import (
	"time"

	"github.com/google/uuid"
)

// Actor is a registered external review or endorsement service.
type Actor struct {
	Base
	ActorID       string  `json:"actor_id" db:"actor_id"`
	Name          string  `json:"name" db:"name"`
	InboxURL      string  `json:"inbox_url" db:"inbox_url"`
	InboxAPIToken *string `json:"-" db:"inbox_api_token"`
	Description   string  `json:"description" db:"description"`
}

// Sendable reports whether the actor is configured for outbound delivery.
func (a *Actor) Sendable() bool {
	return a.InboxURL != "" && a.InboxAPIToken != nil && *a.InboxAPIToken != ""
}

// ActorMember maps a platform user to an actor they may deliver
// notifications on behalf of.
type ActorMember struct {
	ID        uuid.UUID `json:"id" db:"id"`
	ActorID   uuid.UUID `json:"actor_id" db:"actor_id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// ActorAvailability is the per-actor status line shown to record owners when
// choosing where to send an endorsement request.
type ActorAvailability struct {
	ActorID   uuid.UUID `json:"actor_id"`
	ActorURI  string    `json:"actor_uri"`
	ActorName string    `json:"actor_name"`
	Status    string    `json:"status"`
	Available bool      `json:"available"`
}
