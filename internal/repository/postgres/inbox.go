package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/scholarhub/notify-api/internal/model"
	"github.com/scholarhub/notify-api/internal/repository"
)

const pqUniqueViolation = "23505"

type inboxRepository struct {
	BaseRepository
}

func NewInboxRepository(base BaseRepository) repository.InboxRepository {
	return &inboxRepository{base}
}

func (r *inboxRepository) Create(ctx context.Context, entry *model.InboxEntry) error {
	if entry.Raw == nil {
		return fmt.Errorf("entry payload cannot be nil")
	}

	query := `
		INSERT INTO notify_inbox (
			id, notification_id, raw, recid, user_id, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7
		)
	`
	entry.ID = uuid.New()
	entry.CreatedAt = time.Now()
	entry.UpdatedAt = entry.CreatedAt

	_, err := r.db.ExecContext(ctx, query,
		entry.ID,
		entry.NotificationID,
		entry.Raw,
		entry.RecID,
		entry.UserID,
		entry.CreatedAt,
		entry.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return repository.ErrDuplicateNotification
		}
		return fmt.Errorf("failed to create inbox entry: %w", err)
	}
	return nil
}

func (r *inboxRepository) Get(ctx context.Context, id uuid.UUID) (*model.InboxEntry, error) {
	query := `
		SELECT id, notification_id, raw, recid, user_id, processed_at, process_note, created_at, updated_at
		FROM notify_inbox
		WHERE id = $1
	`
	var entry model.InboxEntry
	if err := r.db.GetContext(ctx, &entry, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get inbox entry: %w", err)
	}
	return &entry, nil
}

func (r *inboxRepository) Unprocessed(ctx context.Context) ([]*model.InboxEntry, error) {
	query := `
		SELECT id, notification_id, raw, recid, user_id, processed_at, process_note, created_at, updated_at
		FROM notify_inbox
		WHERE processed_at IS NULL
		ORDER BY created_at ASC
	`
	var entries []*model.InboxEntry
	if err := r.db.SelectContext(ctx, &entries, query); err != nil {
		return nil, fmt.Errorf("failed to list unprocessed entries: %w", err)
	}
	return entries, nil
}

// ClaimNextTx relies on FOR UPDATE SKIP LOCKED so concurrent batch drivers
// never claim the same entry.
func (r *inboxRepository) ClaimNextTx(ctx context.Context, tx *sqlx.Tx) (*model.InboxEntry, error) {
	query := `
		SELECT id, notification_id, raw, recid, user_id, processed_at, process_note, created_at, updated_at
		FROM notify_inbox
		WHERE processed_at IS NULL
		ORDER BY created_at ASC
		FOR UPDATE SKIP LOCKED
		LIMIT 1
	`
	var entry model.InboxEntry
	if err := tx.GetContext(ctx, &entry, query); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to claim inbox entry: %w", err)
	}
	return &entry, nil
}

func (r *inboxRepository) MarkProcessedTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, note *string) error {
	query := `
		UPDATE notify_inbox
		SET processed_at = NOW(), process_note = $2, updated_at = NOW()
		WHERE id = $1
	`
	if _, err := tx.ExecContext(ctx, query, id, note); err != nil {
		return fmt.Errorf("failed to mark inbox entry processed: %w", err)
	}
	return nil
}

func (r *inboxRepository) Search(ctx context.Context, term string, page model.Pagination) ([]*model.InboxEntry, error) {
	if page.PageSize <= 0 {
		page.PageSize = 25
	}
	if page.Page <= 0 {
		page.Page = 1
	}

	query := `
		SELECT id, notification_id, raw, recid, user_id, processed_at, process_note, created_at, updated_at
		FROM notify_inbox
		WHERE ($1 = '' OR
			notification_id ILIKE '%' || $1 || '%' OR
			recid ILIKE '%' || $1 || '%' OR
			process_note ILIKE '%' || $1 || '%' OR
			raw::text ILIKE '%' || $1 || '%')
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	var entries []*model.InboxEntry
	err := r.db.SelectContext(ctx, &entries, query, term, page.PageSize, (page.Page-1)*page.PageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to search inbox entries: %w", err)
	}
	return entries, nil
}

// Reopen clears the terminal outcome so the batch driver picks the entry up
// again. Operator action only.
func (r *inboxRepository) Reopen(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE notify_inbox
		SET processed_at = NULL, process_note = NULL, updated_at = NOW()
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to reopen inbox entry: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}
