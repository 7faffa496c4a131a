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

type actorRepository struct {
	BaseRepository
}

func NewActorRepository(base BaseRepository) repository.ActorRepository {
	return &actorRepository{base}
}

func (r *actorRepository) Create(ctx context.Context, actor *model.Actor) error {
	query := `
		INSERT INTO actors (
			id, actor_id, name, inbox_url, inbox_api_token, description, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	actor.ID = uuid.New()
	actor.CreatedAt = time.Now()
	actor.UpdatedAt = actor.CreatedAt

	_, err := r.db.ExecContext(ctx, query,
		actor.ID,
		actor.ActorID,
		actor.Name,
		actor.InboxURL,
		actor.InboxAPIToken,
		actor.Description,
		actor.CreatedAt,
		actor.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create actor: %w", err)
	}
	return nil
}

func (r *actorRepository) Get(ctx context.Context, id uuid.UUID) (*model.Actor, error) {
	query := `SELECT * FROM actors WHERE id = $1`

	var actor model.Actor
	if err := r.db.GetContext(ctx, &actor, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get actor: %w", err)
	}
	return &actor, nil
}

func (r *actorRepository) GetByActorURI(ctx context.Context, actorURI string) (*model.Actor, error) {
	query := `SELECT * FROM actors WHERE actor_id = $1`

	var actor model.Actor
	if err := r.db.GetContext(ctx, &actor, query, actorURI); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get actor by uri: %w", err)
	}
	return &actor, nil
}

func (r *actorRepository) Update(ctx context.Context, actor *model.Actor) error {
	query := `
		UPDATE actors
		SET actor_id = $2, name = $3, inbox_url = $4, inbox_api_token = $5,
			description = $6, updated_at = NOW()
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query,
		actor.ID,
		actor.ActorID,
		actor.Name,
		actor.InboxURL,
		actor.InboxAPIToken,
		actor.Description,
	)
	if err != nil {
		return fmt.Errorf("failed to update actor: %w", err)
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

// Delete cascades membership rows via FK; endorsements keep their
// denormalized actor_name with actor_id set null.
func (r *actorRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM actors WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete actor: %w", err)
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

func (r *actorRepository) List(ctx context.Context) ([]*model.Actor, error) {
	query := `SELECT * FROM actors ORDER BY name ASC`

	var actors []*model.Actor
	if err := r.db.SelectContext(ctx, &actors, query); err != nil {
		return nil, fmt.Errorf("failed to list actors: %w", err)
	}
	return actors, nil
}

func (r *actorRepository) AddMember(ctx context.Context, actorID, userID uuid.UUID) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO actor_members (id, actor_id, user_id, created_at)
			VALUES ($1, $2, $3, NOW())
			ON CONFLICT (actor_id, user_id) DO NOTHING
		`
		_, err := tx.ExecContext(ctx, query, uuid.New(), actorID, userID)
		return err
	})
}

func (r *actorRepository) RemoveMember(ctx context.Context, actorID, userID uuid.UUID) error {
	query := `DELETE FROM actor_members WHERE actor_id = $1 AND user_id = $2`
	result, err := r.db.ExecContext(ctx, query, actorID, userID)
	if err != nil {
		return fmt.Errorf("failed to remove actor member: %w", err)
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

func (r *actorRepository) ListMembers(ctx context.Context, actorID uuid.UUID) ([]*model.ActorMember, error) {
	query := `
		SELECT id, actor_id, user_id, created_at
		FROM actor_members
		WHERE actor_id = $1
		ORDER BY created_at ASC
	`
	var members []*model.ActorMember
	if err := r.db.SelectContext(ctx, &members, query, actorID); err != nil {
		return nil, fmt.Errorf("failed to list actor members: %w", err)
	}
	return members, nil
}

// IsMember resolves the claimed actor URI and the delivering user in one
// query. Actor identity is self-asserted in the payload, so this lookup is
// the only thing standing between any authenticated user and any actor.
func (r *actorRepository) IsMember(ctx context.Context, userID uuid.UUID, actorURI string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM actor_members m
			JOIN actors a ON a.id = m.actor_id
			WHERE m.user_id = $1 AND a.actor_id = $2
		)
	`
	var ok bool
	if err := r.db.GetContext(ctx, &ok, query, userID, actorURI); err != nil {
		return false, fmt.Errorf("failed to check actor membership: %w", err)
	}
	return ok, nil
}
