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

type endorsementRepository struct {
	BaseRepository
}

func NewEndorsementRepository(base BaseRepository) repository.EndorsementRepository {
	return &endorsementRepository{base}
}

func (r *endorsementRepository) CreateTx(ctx context.Context, tx *sqlx.Tx, endorsement *model.Endorsement) error {
	query := `
		INSERT INTO endorsements (
			id, record_id, actor_id, actor_name, review_type, result_url, inbox_id, reply_id, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	endorsement.ID = uuid.New()
	endorsement.CreatedAt = time.Now()
	endorsement.UpdatedAt = endorsement.CreatedAt

	_, err := tx.ExecContext(ctx, query,
		endorsement.ID,
		endorsement.RecordID,
		endorsement.ActorID,
		endorsement.ActorName,
		endorsement.ReviewType,
		endorsement.ResultURL,
		endorsement.InboxID,
		endorsement.ReplyID,
		endorsement.CreatedAt,
		endorsement.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create endorsement: %w", err)
	}
	return nil
}

func (r *endorsementRepository) ListByRecord(ctx context.Context, recordID uuid.UUID) ([]*model.Endorsement, error) {
	query := `
		SELECT * FROM endorsements
		WHERE record_id = $1
		ORDER BY created_at ASC
	`
	var endorsements []*model.Endorsement
	if err := r.db.SelectContext(ctx, &endorsements, query, recordID); err != nil {
		return nil, fmt.Errorf("failed to list endorsements: %w", err)
	}
	return endorsements, nil
}

func (r *endorsementRepository) LatestReviewType(ctx context.Context, recordID, actorID uuid.UUID) (model.ReviewType, error) {
	query := `
		SELECT review_type
		FROM endorsements
		WHERE record_id = $1 AND actor_id = $2
		ORDER BY created_at DESC
		LIMIT 1
	`
	var reviewType model.ReviewType
	if err := r.db.GetContext(ctx, &reviewType, query, recordID, actorID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("failed to get latest review type: %w", err)
	}
	return reviewType, nil
}
