package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/scholarhub/notify-api/pkg/logger"
	"github.com/scholarhub/notify-api/pkg/metrics"

	"github.com/scholarhub/notify-api/internal/model"
	"github.com/scholarhub/notify-api/internal/repository"
	"github.com/scholarhub/notify-api/internal/search"
	"github.com/scholarhub/notify-api/internal/service/pipeline"
)

// Generic note for entries that died on an unexpected error. The entry is
// still marked processed so a broken payload can never block the queue.
const noteUnexpectedFailure = "Failed to process notification"

type InboxProcessorConfig struct {
	BatchSize    int
	PollInterval time.Duration
}

// Pipeline processes one claimed inbox entry on the given transaction.
type Pipeline interface {
	Process(ctx context.Context, tx *sqlx.Tx, entry *model.InboxEntry) (*pipeline.Outcome, error)
}

// EndorsementReader supplies the aggregated endorsement view pushed to the
// search index after a successful deliverable.
type EndorsementReader interface {
	Info(ctx context.Context, recordID uuid.UUID) ([]model.ActorEndorsements, error)
}

// Notifier fans out owner-facing side effects for a new endorsement.
type Notifier interface {
	EndorsementCreated(ctx context.Context, record *model.Record, endorsement *model.Endorsement)
}

// InboxProcessor drains the unprocessed inbox on a schedule. Each entry is
// claimed with a row lock and processed in its own transaction, so several
// processor instances can run concurrently without double-processing, and a
// crash mid-batch resumes cleanly on the next run.
type InboxProcessor struct {
	transactor   repository.Transactor
	inboxRepo    repository.InboxRepository
	pipeline     Pipeline
	endorsements EndorsementReader
	indexer      search.Indexer
	notifier     Notifier
	config       InboxProcessorConfig
	logger       *logger.Logger
	metrics      *metrics.Metrics
}

func NewInboxProcessor(
	transactor repository.Transactor,
	inboxRepo repository.InboxRepository,
	p Pipeline,
	endorsements EndorsementReader,
	indexer search.Indexer,
	notifier Notifier,
	config InboxProcessorConfig,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) *InboxProcessor {
	if config.BatchSize <= 0 {
		panic("BatchSize must be greater than 0")
	}
	if config.PollInterval <= 0 {
		panic("PollInterval must be greater than 0")
	}

	return &InboxProcessor{
		transactor:   transactor,
		inboxRepo:    inboxRepo,
		pipeline:     p,
		endorsements: endorsements,
		indexer:      indexer,
		notifier:     notifier,
		config:       config,
		logger:       logger,
		metrics:      metrics,
	}
}

func (p *InboxProcessor) Start(ctx context.Context) {
	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	p.logger.Info("Starting inbox processor")

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Shutting down inbox processor")
			return
		case <-ticker.C:
			if _, err := p.RunOnce(ctx); err != nil {
				p.logger.Error(err, "Inbox batch run failed")
			}
		}
	}
}

// RunOnce sweeps up to BatchSize unprocessed entries and returns how many
// reached a terminal outcome. An unexpected per-entry error is logged and
// counted but does not stop the sweep.
func (p *InboxProcessor) RunOnce(ctx context.Context) (int, error) {
	processed := 0
	for i := 0; i < p.config.BatchSize; i++ {
		drained, err := p.processNext(ctx)
		if drained {
			break
		}
		if err != nil {
			p.logger.Error(err, "Failed to process inbox entry")
		}
		processed++
	}
	return processed, nil
}

// processNext claims and processes one entry. Returns drained=true when the
// queue is empty.
func (p *InboxProcessor) processNext(ctx context.Context) (bool, error) {
	timer := prometheus.NewTimer(p.metrics.InboxProcessingLatency)
	defer timer.ObserveDuration()

	var entry *model.InboxEntry
	var outcome *pipeline.Outcome

	err := p.transactor.WithTx(ctx, func(tx *sqlx.Tx) error {
		claimed, err := p.inboxRepo.ClaimNextTx(ctx, tx)
		if err != nil {
			return err
		}
		entry = claimed

		outcome, err = p.pipeline.Process(ctx, tx, claimed)
		return err
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			p.metrics.DatabaseOperations.WithLabelValues("claim_inbox_entry", "success").Inc()
			return true, nil
		}
		// The transaction rolled back, so the entry is still unprocessed.
		// Mark it with a generic note in a fresh transaction: re-running a
		// deterministically bad input would fail the same way.
		p.metrics.DatabaseOperations.WithLabelValues("claim_inbox_entry", "error").Inc()
		p.metrics.InboxEntriesFailed.Inc()
		if entry != nil {
			p.markFailed(ctx, entry.ID)
		}
		return false, fmt.Errorf("pipeline failed for entry: %w", err)
	}

	p.metrics.DatabaseOperations.WithLabelValues("claim_inbox_entry", "success").Inc()
	p.metrics.InboxEntriesProcessed.Inc()
	if outcome.Failed() {
		p.metrics.InboxEntriesFailed.Inc()
		return false, nil
	}

	// Post-commit side effects, best-effort.
	if outcome.Endorsement != nil {
		p.notifier.EndorsementCreated(ctx, outcome.Record, outcome.Endorsement)
		p.reindex(ctx, outcome.Record)
	}
	return false, nil
}

func (p *InboxProcessor) reindex(ctx context.Context, record *model.Record) {
	info, err := p.endorsements.Info(ctx, record.ID)
	if err != nil {
		p.logger.Error(err, "Failed to aggregate endorsements for indexing",
			"record_id", record.ID.String(),
		)
		return
	}
	if err := p.indexer.IndexRecord(ctx, record, info); err != nil {
		p.logger.Error(err, "Failed to reindex record",
			"recid", record.RecID,
		)
	}
}

func (p *InboxProcessor) markFailed(ctx context.Context, entryID uuid.UUID) {
	note := noteUnexpectedFailure
	err := p.transactor.WithTx(ctx, func(tx *sqlx.Tx) error {
		return p.inboxRepo.MarkProcessedTx(ctx, tx, entryID, &note)
	})
	if err != nil {
		p.logger.Error(err, "Failed to mark entry after unexpected failure",
			"entry_id", entryID.String(),
		)
	}
}
