package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/scholarhub/notify-api/internal/model"
	"github.com/scholarhub/notify-api/internal/repository"
)

type endorsementRequestRepository struct {
	BaseRepository
}

func NewEndorsementRequestRepository(base BaseRepository) repository.EndorsementRequestRepository {
	return &endorsementRequestRepository{base}
}

func (r *endorsementRequestRepository) Create(ctx context.Context, req *model.EndorsementRequest) error {
	query := `
		INSERT INTO endorsement_requests (
			id, notification_id, record_id, user_id, actor_id, raw, latest_status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	req.ID = uuid.New()
	req.CreatedAt = time.Now()
	req.UpdatedAt = req.CreatedAt

	_, err := r.db.ExecContext(ctx, query,
		req.ID,
		req.NotificationID,
		req.RecordID,
		req.UserID,
		req.ActorID,
		req.Raw,
		req.LatestStatus,
		req.CreatedAt,
		req.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create endorsement request: %w", err)
	}
	return nil
}

func (r *endorsementRequestRepository) Get(ctx context.Context, id uuid.UUID) (*model.EndorsementRequest, error) {
	query := `SELECT * FROM endorsement_requests WHERE id = $1`

	var req model.EndorsementRequest
	if err := r.db.GetContext(ctx, &req, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get endorsement request: %w", err)
	}
	return &req, nil
}

func (r *endorsementRequestRepository) GetByNotificationID(ctx context.Context, notificationID string) (*model.EndorsementRequest, error) {
	query := `SELECT * FROM endorsement_requests WHERE notification_id = $1`

	var req model.EndorsementRequest
	if err := r.db.GetContext(ctx, &req, query, notificationID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get endorsement request by notification id: %w", err)
	}
	return &req, nil
}

func (r *endorsementRequestRepository) LatestStatus(ctx context.Context, recordID, actorID uuid.UUID) (model.WorkflowStatus, error) {
	query := `
		SELECT latest_status
		FROM endorsement_requests
		WHERE record_id = $1 AND actor_id = $2
		ORDER BY created_at DESC
		LIMIT 1
	`
	var status model.WorkflowStatus
	if err := r.db.GetContext(ctx, &status, query, recordID, actorID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.StatusUnknown, nil
		}
		return model.StatusUnknown, fmt.Errorf("failed to get latest request status: %w", err)
	}
	return status, nil
}

func (r *endorsementRequestRepository) CreateReplyTx(ctx context.Context, tx *sqlx.Tx, reply *model.EndorsementReply) error {
	query := `
		INSERT INTO endorsement_replies (
			id, endorsement_request_id, inbox_id, status, message, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	reply.ID = uuid.New()
	reply.CreatedAt = time.Now()
	reply.UpdatedAt = reply.CreatedAt

	_, err := tx.ExecContext(ctx, query,
		reply.ID,
		reply.RequestID,
		reply.InboxID,
		reply.Status,
		reply.Message,
		reply.CreatedAt,
		reply.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create endorsement reply: %w", err)
	}
	return nil
}

func (r *endorsementRequestRepository) UpdateLatestStatusTx(ctx context.Context, tx *sqlx.Tx, requestID uuid.UUID, status model.WorkflowStatus) error {
	query := `
		UPDATE endorsement_requests
		SET latest_status = $2, updated_at = NOW()
		WHERE id = $1
	`
	if _, err := tx.ExecContext(ctx, query, requestID, status); err != nil {
		return fmt.Errorf("failed to update latest status: %w", err)
	}
	return nil
}

func (r *endorsementRequestRepository) ListReplies(ctx context.Context, requestID uuid.UUID) ([]*model.EndorsementReply, error) {
	query := `
		SELECT * FROM endorsement_replies
		WHERE endorsement_request_id = $1
		ORDER BY created_at ASC
	`
	var replies []*model.EndorsementReply
	if err := r.db.SelectContext(ctx, &replies, query, requestID); err != nil {
		return nil, fmt.Errorf("failed to list endorsement replies: %w", err)
	}
	return replies, nil
}
