package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// InboxEntry is one received COAR notification, stored verbatim. Entries are
// append-only: ProcessedAt/ProcessNote are set exactly once by the batch
// driver after terminal processing.
type InboxEntry struct {
	ID             uuid.UUID       `json:"id" db:"id"`
	NotificationID string          `json:"notification_id" db:"notification_id"`
	Raw            json.RawMessage `json:"raw" db:"raw"`
	RecID          string          `json:"recid" db:"recid"`
	UserID         uuid.UUID       `json:"user_id" db:"user_id"`
	ProcessedAt    *time.Time      `json:"processed_at,omitempty" db:"processed_at"`
	ProcessNote    *string         `json:"process_note,omitempty" db:"process_note"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at" db:"updated_at"`
}

// Processed reports whether the entry has reached a terminal outcome.
func (e *InboxEntry) Processed() bool {
	return e.ProcessedAt != nil
}
