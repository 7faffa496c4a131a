package model

import (
	"encoding/json"

	"github.com/google/uuid"
)

// EndorsementRequest is an outbound offer-of-endorsement the repository sent
// to an actor. NotificationID is the id minted for the outbound notification
// and is the correlation token replies carry in inReplyTo.
type EndorsementRequest struct {
	Base
	NotificationID string          `json:"notification_id" db:"notification_id"`
	RecordID       uuid.UUID       `json:"record_id" db:"record_id"`
	UserID         uuid.UUID       `json:"user_id" db:"user_id"`
	ActorID        uuid.UUID       `json:"actor_id" db:"actor_id"`
	Raw            json.RawMessage `json:"raw" db:"raw"`
	LatestStatus   WorkflowStatus  `json:"latest_status" db:"latest_status"`
}

// EndorsementReply is one reply notification correlated to a request.
// Replies are append-only history; the parent request's LatestStatus always
// mirrors the most recently created reply.
type EndorsementReply struct {
	Base
	RequestID uuid.UUID      `json:"endorsement_request_id" db:"endorsement_request_id"`
	InboxID   uuid.UUID      `json:"inbox_id" db:"inbox_id"`
	Status    WorkflowStatus `json:"status" db:"status"`
	Message   *string        `json:"message,omitempty" db:"message"`
}
