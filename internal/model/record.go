package model

import (
	"github.com/google/uuid"
)

// Record is the repository platform's view of a research record, consumed
// read-only: the record lifecycle itself is owned by the surrounding
// platform.
type Record struct {
	Base
	RecID   string    `json:"recid" db:"recid"`
	Title   string    `json:"title" db:"title"`
	URL     string    `json:"url" db:"url"`
	DOI     *string   `json:"doi,omitempty" db:"doi"`
	OwnerID uuid.UUID `json:"owner_id" db:"owner_id"`
}
