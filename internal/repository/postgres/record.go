package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/scholarhub/notify-api/internal/model"
	"github.com/scholarhub/notify-api/internal/repository"
)

type recordRepository struct {
	BaseRepository
}

func NewRecordRepository(base BaseRepository) repository.RecordRepository {
	return &recordRepository{base}
}

func (r *recordRepository) Get(ctx context.Context, id uuid.UUID) (*model.Record, error) {
	query := `SELECT * FROM records WHERE id = $1`

	var record model.Record
	if err := r.db.GetContext(ctx, &record, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get record: %w", err)
	}
	return &record, nil
}

func (r *recordRepository) GetByRecID(ctx context.Context, recid string) (*model.Record, error) {
	query := `SELECT * FROM records WHERE recid = $1`

	var record model.Record
	if err := r.db.GetContext(ctx, &record, query, recid); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get record by recid: %w", err)
	}
	return &record, nil
}
