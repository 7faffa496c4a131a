package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/scholarhub/notify-api/pkg/logger"
	"github.com/scholarhub/notify-api/pkg/metrics"

	"github.com/scholarhub/notify-api/internal/model"
	"github.com/scholarhub/notify-api/internal/notify"
	"github.com/scholarhub/notify-api/internal/repository"
)

// Terminal failure notes written to process_note. These are operator-facing
// strings; tooling greps for their prefixes, so change them carefully.
const (
	noteParseFailed     = "Failed to parse notification"
	noteRecordNotFound  = "Failed to resolve record from notification"
	noteActorNotFound   = "Reviewer/Actor not found"
	noteNotMember       = "User is not a member of actor"
	noteUnsupportedType = "Notification type not supported"
	noteRequestNotFound = "Endorsement request not found"
)

// Membership answers whether a user may deliver notifications for an actor.
type Membership interface {
	IsMember(ctx context.Context, userID uuid.UUID, actorURI string) (bool, error)
}

// Outcome is the terminal result of processing one inbox entry. Note is nil
// on success and holds the failure reason otherwise. Record and Endorsement
// are set on a successful deliverable so the caller can run post-commit side
// effects.
type Outcome struct {
	Note        *string
	Status      model.WorkflowStatus
	Record      *model.Record
	Endorsement *model.Endorsement
}

func (o *Outcome) Failed() bool {
	return o.Note != nil
}

// Service is the inbox processing state machine: it resolves, guards,
// classifies, and correlates one stored notification, appends the resulting
// reply/endorsement rows, and marks the entry processed. All writes happen
// on the caller's transaction, so a mid-flight error rolls back cleanly.
type Service struct {
	inboxRepo       repository.InboxRepository
	actorRepo       repository.ActorRepository
	recordRepo      repository.RecordRepository
	requestRepo     repository.EndorsementRequestRepository
	endorsementRepo repository.EndorsementRepository
	membership      Membership
	metrics         *metrics.Metrics
	logger          *logger.Logger
}

func NewService(
	inboxRepo repository.InboxRepository,
	actorRepo repository.ActorRepository,
	recordRepo repository.RecordRepository,
	requestRepo repository.EndorsementRequestRepository,
	endorsementRepo repository.EndorsementRepository,
	membership Membership,
	m *metrics.Metrics,
	l *logger.Logger,
) *Service {
	return &Service{
		inboxRepo:       inboxRepo,
		actorRepo:       actorRepo,
		recordRepo:      recordRepo,
		requestRepo:     requestRepo,
		endorsementRepo: endorsementRepo,
		membership:      membership,
		metrics:         m,
		logger:          l,
	}
}

// correlation is the result of matching an envelope against the request
// ledger by its inReplyTo token.
type correlation struct {
	request *model.EndorsementRequest
	// unmatched is true when inReplyTo is present but no request carries
	// that notification id: a reply to nothing.
	unmatched bool
}

// Process runs the full pipeline for one claimed entry inside tx. Named
// failures are terminal: the entry is marked processed with a note and a nil
// error is returned. A non-nil error means something unexpected broke and
// the caller must roll back.
func (s *Service) Process(ctx context.Context, tx *sqlx.Tx, entry *model.InboxEntry) (*Outcome, error) {
	env, err := notify.ParseEnvelope(entry.Raw)
	if err != nil {
		return s.fail(ctx, tx, entry, noteParseFailed)
	}

	record, err := s.resolveRecord(ctx, env)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return s.fail(ctx, tx, entry, noteRecordNotFound)
		}
		return nil, err
	}

	actor, err := s.actorRepo.GetByActorURI(ctx, env.Actor.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return s.fail(ctx, tx, entry, noteActorNotFound)
		}
		return nil, err
	}

	// Membership is re-checked here even though receipt already verified
	// it: it can change between receipt and processing.
	member, err := s.membership.IsMember(ctx, entry.UserID, env.Actor.ID)
	if err != nil {
		return nil, err
	}
	if !member {
		return s.fail(ctx, tx, entry, noteNotMember)
	}

	status := notify.Classify(env.Type, notify.Kind(env.Type))
	if status == model.StatusUnknown {
		return s.fail(ctx, tx, entry, noteUnsupportedType)
	}

	corr, err := s.correlate(ctx, env)
	if err != nil {
		return nil, err
	}
	if corr.unmatched {
		return s.fail(ctx, tx, entry, noteRequestNotFound)
	}

	var reply *model.EndorsementReply
	if corr.request != nil {
		reply = &model.EndorsementReply{
			RequestID: corr.request.ID,
			InboxID:   entry.ID,
			Status:    status,
		}
		if err := s.requestRepo.CreateReplyTx(ctx, tx, reply); err != nil {
			return nil, err
		}
		if err := s.requestRepo.UpdateLatestStatusTx(ctx, tx, corr.request.ID, status); err != nil {
			return nil, err
		}
		s.metrics.RepliesCreated.WithLabelValues(string(status)).Inc()
	}

	outcome := &Outcome{Status: status, Record: record}

	if reviewType, ok := model.ReviewTypeFor(status); ok {
		endorsement := &model.Endorsement{
			RecordID:   record.ID,
			ActorID:    &actor.ID,
			ActorName:  actor.Name,
			ReviewType: reviewType,
			ResultURL:  env.ResultURL(),
			InboxID:    &entry.ID,
		}
		if reply != nil {
			endorsement.ReplyID = &reply.ID
		}
		if err := s.endorsementRepo.CreateTx(ctx, tx, endorsement); err != nil {
			return nil, err
		}
		s.metrics.EndorsementsCreated.WithLabelValues(string(reviewType)).Inc()
		outcome.Endorsement = endorsement
	}

	if err := s.inboxRepo.MarkProcessedTx(ctx, tx, entry.ID, nil); err != nil {
		return nil, err
	}

	s.logger.Info("Inbox entry processed",
		"entry_id", entry.ID.String(),
		"status", string(status),
	)
	return outcome, nil
}

func (s *Service) resolveRecord(ctx context.Context, env *notify.Envelope) (*model.Record, error) {
	recid := notify.RecordID(env.RecordURL())
	if recid == "" {
		return nil, repository.ErrNotFound
	}
	return s.recordRepo.GetByRecID(ctx, recid)
}

func (s *Service) correlate(ctx context.Context, env *notify.Envelope) (correlation, error) {
	if env.InReplyTo == "" {
		return correlation{}, nil
	}
	req, err := s.requestRepo.GetByNotificationID(ctx, env.InReplyTo)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return correlation{unmatched: true}, nil
		}
		return correlation{}, fmt.Errorf("failed to correlate reply: %w", err)
	}
	return correlation{request: req}, nil
}

func (s *Service) fail(ctx context.Context, tx *sqlx.Tx, entry *model.InboxEntry, note string) (*Outcome, error) {
	if err := s.inboxRepo.MarkProcessedTx(ctx, tx, entry.ID, &note); err != nil {
		return nil, err
	}
	s.logger.Warn("Inbox entry failed terminally",
		"entry_id", entry.ID.String(),
		"note", note,
	)
	return &Outcome{Note: &note}, nil
}
