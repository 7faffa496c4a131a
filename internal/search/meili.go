package search

import (
	"context"

	"github.com/meilisearch/meilisearch-go"

	"github.com/scholarhub/notify-api/internal/model"
	"github.com/scholarhub/notify-api/pkg/logger"
)

const recordsIndex = "records"

type meiliIndexer struct {
	client meilisearch.ServiceManager
	logger *logger.Logger
}

// NewMeiliIndexer builds an Indexer backed by Meilisearch and configures the
// records index attributes. Attribute setup failures are logged, not fatal:
// the index still accepts documents with default settings.
func NewMeiliIndexer(client meilisearch.ServiceManager, logger *logger.Logger) Indexer {
	m := &meiliIndexer{
		client: client,
		logger: logger,
	}
	m.initIndex()
	return m
}

func (m *meiliIndexer) initIndex() {
	filterable := []string{"endorsement_count", "review_count", "endorsed_by"}
	filterableAny := make([]any, len(filterable))
	for i, v := range filterable {
		filterableAny[i] = v
	}
	if _, err := m.client.Index(recordsIndex).UpdateFilterableAttributes(&filterableAny); err != nil {
		m.logger.Error(err, "Failed to update records filterable attributes")
	}

	sortable := []string{"created_at", "endorsement_count"}
	if _, err := m.client.Index(recordsIndex).UpdateSortableAttributes(&sortable); err != nil {
		m.logger.Error(err, "Failed to update records sortable attributes")
	}
}

type meiliRecordDoc struct {
	ID               string                    `json:"id"`
	RecID            string                    `json:"recid"`
	Title            string                    `json:"title"`
	URL              string                    `json:"url"`
	DOI              string                    `json:"doi,omitempty"`
	EndorsementCount int                       `json:"endorsement_count"`
	ReviewCount      int                       `json:"review_count"`
	EndorsedBy       []string                  `json:"endorsed_by"`
	Endorsements     []model.ActorEndorsements `json:"endorsements"`
	CreatedAt        int64                     `json:"created_at"`
}

func (m *meiliIndexer) IndexRecord(ctx context.Context, record *model.Record, endorsements []model.ActorEndorsements) error {
	doc := meiliRecordDoc{
		ID:           record.ID.String(),
		RecID:        record.RecID,
		Title:        record.Title,
		URL:          record.URL,
		Endorsements: endorsements,
		CreatedAt:    record.CreatedAt.Unix(),
	}
	if record.DOI != nil {
		doc.DOI = *record.DOI
	}
	for _, ae := range endorsements {
		doc.EndorsementCount += ae.EndorsementCount
		doc.ReviewCount += ae.ReviewCount
		if ae.EndorsementCount > 0 || ae.ReviewCount > 0 {
			doc.EndorsedBy = append(doc.EndorsedBy, ae.ActorName)
		}
	}

	task, err := m.client.Index(recordsIndex).AddDocuments([]meiliRecordDoc{doc}, primaryKey("id"))
	if err != nil {
		return err
	}
	m.logger.Debug("Indexed record", "recid", record.RecID, "task_id", task.TaskUID)
	return nil
}

func (m *meiliIndexer) DeleteRecord(ctx context.Context, recid string) error {
	_, err := m.client.Index(recordsIndex).DeleteDocument(recid)
	return err
}

func primaryKey(s string) *string {
	return &s
}
