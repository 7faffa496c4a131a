package inbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	apperrors "github.com/scholarhub/notify-api/pkg/errors"
	"github.com/scholarhub/notify-api/pkg/logger"
	"github.com/scholarhub/notify-api/pkg/metrics"

	"github.com/scholarhub/notify-api/internal/model"
	"github.com/scholarhub/notify-api/internal/notify"
	"github.com/scholarhub/notify-api/internal/repository"
)

// Membership answers whether a user may deliver notifications for an actor.
type Membership interface {
	IsMember(ctx context.Context, userID uuid.UUID, actorURI string) (bool, error)
}

// Receipt is returned to the sender when a notification is accepted. The
// entry is stored but not yet processed; processing happens asynchronously.
type Receipt struct {
	EntryID  uuid.UUID `json:"entry_id"`
	Location string    `json:"location"`
}

type Service struct {
	repo       repository.InboxRepository
	recordRepo repository.RecordRepository
	membership Membership
	inboxURL   string
	metrics    *metrics.Metrics
	logger     *logger.Logger
}

func NewService(
	repo repository.InboxRepository,
	recordRepo repository.RecordRepository,
	membership Membership,
	inboxURL string,
	m *metrics.Metrics,
	l *logger.Logger,
) *Service {
	return &Service{
		repo:       repo,
		recordRepo: recordRepo,
		membership: membership,
		inboxURL:   inboxURL,
		metrics:    m,
		logger:     l,
	}
}

// Receive validates a delivered notification and appends it to the inbox.
// The checks here are the cheap synchronous ones a sender should hear about
// immediately; everything else is deferred to the processing pipeline.
func (s *Service) Receive(ctx context.Context, raw json.RawMessage, user *model.User) (*Receipt, error) {
	env, err := notify.ParseEnvelope(raw)
	if err != nil {
		var decodeErr *notify.DecodeError
		if errors.As(err, &decodeErr) {
			return nil, apperrors.BadRequest("notification payload is not valid JSON", err)
		}
		return nil, apperrors.BadRequest("notification payload is missing required fields", err)
	}

	recid := notify.RecordID(env.RecordURL())
	if recid == "" {
		return nil, apperrors.Unprocessable("notification does not reference a record", nil)
	}
	if _, err := s.recordRepo.GetByRecID(ctx, recid); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.Unprocessable(fmt.Sprintf("record %s not found", recid), err)
		}
		return nil, apperrors.Internal(err)
	}

	ok, err := s.membership.IsMember(ctx, user.ID, env.Actor.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.Forbidden("user is not a member of the claimed actor", nil)
	}

	if notify.Classify(env.Type, notify.Kind(env.Type)) == model.StatusUnknown {
		return nil, apperrors.Unprocessable("notification type not supported", nil)
	}

	entry := &model.InboxEntry{
		NotificationID: env.ID,
		Raw:            raw,
		RecID:          recid,
		UserID:         user.ID,
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		if errors.Is(err, repository.ErrDuplicateNotification) {
			s.metrics.InboxDuplicateRejects.Inc()
			return nil, apperrors.Conflict("notification id already received", err)
		}
		return nil, apperrors.Internal(err)
	}

	s.metrics.InboxEntriesReceived.Inc()
	s.logger.Info("Notification accepted",
		"entry_id", entry.ID.String(),
		"notification_id", env.ID,
		"recid", recid,
	)

	return &Receipt{
		EntryID:  entry.ID,
		Location: s.inboxURL + "/" + entry.ID.String(),
	}, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.InboxEntry, error) {
	entry, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("inbox entry", err)
		}
		return nil, apperrors.Internal(err)
	}
	return entry, nil
}

func (s *Service) Unprocessed(ctx context.Context) ([]*model.InboxEntry, error) {
	entries, err := s.repo.Unprocessed(ctx)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return entries, nil
}

// Search scans entries by notification id, record id, or note text.
func (s *Service) Search(ctx context.Context, term string, page model.Pagination) ([]*model.InboxEntry, error) {
	if page.Page < 1 {
		page.Page = 1
	}
	if page.PageSize < 1 || page.PageSize > 100 {
		page.PageSize = 25
	}
	entries, err := s.repo.Search(ctx, term, page)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return entries, nil
}

// Reopen clears an entry's terminal outcome so the next batch run picks it
// up again. Meant for operator recovery after a transient failure was marked
// terminal.
func (s *Service) Reopen(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Reopen(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("inbox entry", err)
		}
		return apperrors.Internal(err)
	}
	s.logger.Info("Inbox entry reopened", "entry_id", id.String())
	return nil
}
