package model

import (
	"github.com/google/uuid"
)

// Endorsement is a granted endorsement or review, the durable outcome
// visible to the rest of the platform. ActorName is denormalized so display
// survives actor deletion; InboxID is unique so one inbox entry can never
// produce two endorsements.
type Endorsement struct {
	Base
	RecordID   uuid.UUID  `json:"record_id" db:"record_id"`
	ActorID    *uuid.UUID `json:"actor_id,omitempty" db:"actor_id"`
	ActorName  string     `json:"actor_name" db:"actor_name"`
	ReviewType ReviewType `json:"review_type" db:"review_type"`
	ResultURL  string     `json:"result_url" db:"result_url"`
	InboxID    *uuid.UUID `json:"inbox_id,omitempty" db:"inbox_id"`
	ReplyID    *uuid.UUID `json:"reply_id,omitempty" db:"reply_id"`
}

// EndorsementLink is one review/endorsement line in the per-actor summary.
type EndorsementLink struct {
	Created string `json:"created"`
	URL     string `json:"url"`
}

// ActorEndorsements groups a record's endorsements by actor, the shape the
// search index and read views consume.
type ActorEndorsements struct {
	ActorURI         string            `json:"actor_id"`
	ActorName        string            `json:"actor_name"`
	EndorsementCount int               `json:"endorsement_count"`
	ReviewCount      int               `json:"review_count"`
	EndorsementList  []EndorsementLink `json:"endorsement_list"`
	ReviewList       []EndorsementLink `json:"review_list"`
}
