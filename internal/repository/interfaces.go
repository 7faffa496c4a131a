package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/scholarhub/notify-api/internal/model"
)

// Sentinel errors shared by all repository implementations.
var (
	// ErrNotFound signals expected absence; callers treat it as an
	// Option-style miss, not a fault.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateNotification is returned when an insert violates the
	// notification_id uniqueness constraint. Surfaced distinctly so a
	// sender can tell "already delivered" from a server error.
	ErrDuplicateNotification = errors.New("notification id already received")
)

// Transactor runs a function inside one database transaction.
type Transactor interface {
	WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error
}

// All repository interfaces in one file
type (
	// InboxRepository is the durable, append-only store of received
	// notifications.
	InboxRepository interface {
		Create(ctx context.Context, entry *model.InboxEntry) error
		Get(ctx context.Context, id uuid.UUID) (*model.InboxEntry, error)
		Unprocessed(ctx context.Context) ([]*model.InboxEntry, error)
		// ClaimNextTx locks and returns the oldest unprocessed entry, or
		// ErrNotFound when the queue is drained. The row lock is held for
		// the lifetime of tx so concurrent drivers skip it.
		ClaimNextTx(ctx context.Context, tx *sqlx.Tx) (*model.InboxEntry, error)
		MarkProcessedTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, note *string) error
		Search(ctx context.Context, term string, page model.Pagination) ([]*model.InboxEntry, error)
		Reopen(ctx context.Context, id uuid.UUID) error
	}

	ActorRepository interface {
		Create(ctx context.Context, actor *model.Actor) error
		Get(ctx context.Context, id uuid.UUID) (*model.Actor, error)
		GetByActorURI(ctx context.Context, actorURI string) (*model.Actor, error)
		Update(ctx context.Context, actor *model.Actor) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context) ([]*model.Actor, error)
		AddMember(ctx context.Context, actorID, userID uuid.UUID) error
		RemoveMember(ctx context.Context, actorID, userID uuid.UUID) error
		ListMembers(ctx context.Context, actorID uuid.UUID) ([]*model.ActorMember, error)
		IsMember(ctx context.Context, userID uuid.UUID, actorURI string) (bool, error)
	}

	EndorsementRequestRepository interface {
		Create(ctx context.Context, req *model.EndorsementRequest) error
		Get(ctx context.Context, id uuid.UUID) (*model.EndorsementRequest, error)
		GetByNotificationID(ctx context.Context, notificationID string) (*model.EndorsementRequest, error)
		// LatestStatus returns the latest_status of the most recent request
		// for (record, actor), or StatusUnknown when none exists.
		LatestStatus(ctx context.Context, recordID, actorID uuid.UUID) (model.WorkflowStatus, error)
		CreateReplyTx(ctx context.Context, tx *sqlx.Tx, reply *model.EndorsementReply) error
		UpdateLatestStatusTx(ctx context.Context, tx *sqlx.Tx, requestID uuid.UUID, status model.WorkflowStatus) error
		ListReplies(ctx context.Context, requestID uuid.UUID) ([]*model.EndorsementReply, error)
	}

	EndorsementRepository interface {
		CreateTx(ctx context.Context, tx *sqlx.Tx, endorsement *model.Endorsement) error
		ListByRecord(ctx context.Context, recordID uuid.UUID) ([]*model.Endorsement, error)
		// LatestReviewType returns the review type of the most recent
		// endorsement for (record, actor), or "" when none exists.
		LatestReviewType(ctx context.Context, recordID, actorID uuid.UUID) (model.ReviewType, error)
	}

	// RecordRepository resolves platform records; read-only surface.
	RecordRepository interface {
		Get(ctx context.Context, id uuid.UUID) (*model.Record, error)
		GetByRecID(ctx context.Context, recid string) (*model.Record, error)
	}

	// UserRepository looks up platform accounts; read-only surface.
	UserRepository interface {
		Get(ctx context.Context, id uuid.UUID) (*model.User, error)
		GetByEmail(ctx context.Context, email string) (*model.User, error)
	}

	TokenRepository interface {
		Create(ctx context.Context, token *model.APIToken) error
		Get(ctx context.Context, id uuid.UUID) (*model.APIToken, error)
		Revoke(ctx context.Context, id uuid.UUID) error
	}
)
