package search

import (
	"context"

	"github.com/scholarhub/notify-api/internal/model"
)

// Indexer pushes record endorsement state to the platform search index so
// review and endorsement counts are queryable alongside record metadata.
type Indexer interface {
	IndexRecord(ctx context.Context, record *model.Record, endorsements []model.ActorEndorsements) error
	DeleteRecord(ctx context.Context, recid string) error
}

// NopIndexer is used when no search backend is configured.
type NopIndexer struct{}

func (NopIndexer) IndexRecord(context.Context, *model.Record, []model.ActorEndorsements) error {
	return nil
}

func (NopIndexer) DeleteRecord(context.Context, string) error { return nil }
