package request

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"

	apperrors "github.com/scholarhub/notify-api/pkg/errors"
	"github.com/scholarhub/notify-api/pkg/logger"
	"github.com/scholarhub/notify-api/pkg/metrics"

	"github.com/scholarhub/notify-api/internal/config"
	"github.com/scholarhub/notify-api/internal/model"
	"github.com/scholarhub/notify-api/internal/notify"
	"github.com/scholarhub/notify-api/internal/repository"
)

const contentTypeJSONLD = `application/ld+json`

// Availability status lines shown when choosing where to send a request.
const (
	availabilityAvailable   = "available"
	availabilityUnavailable = "not accepting requests"
	availabilityPending     = "request pending"
	availabilityDeclined    = "previous request declined"
	availabilityEndorsed    = "already endorsed"
	availabilityReviewed    = "already reviewed"
)

// Service sends offer-of-endorsement notifications to actor inboxes. The
// request row is persisted only after the outbound POST succeeds, so the
// ledger never records a request that was not actually delivered.
type Service struct {
	repo            repository.EndorsementRequestRepository
	endorsementRepo repository.EndorsementRepository
	actorRepo       repository.ActorRepository
	recordRepo      repository.RecordRepository
	userRepo        repository.UserRepository
	client          *http.Client
	cfg             config.NotifyConfig
	metrics         *metrics.Metrics
	logger          *logger.Logger
}

func NewService(
	repo repository.EndorsementRequestRepository,
	endorsementRepo repository.EndorsementRepository,
	actorRepo repository.ActorRepository,
	recordRepo repository.RecordRepository,
	userRepo repository.UserRepository,
	cfg config.NotifyConfig,
	m *metrics.Metrics,
	l *logger.Logger,
) *Service {
	return &Service{
		repo:            repo,
		endorsementRepo: endorsementRepo,
		actorRepo:       actorRepo,
		recordRepo:      recordRepo,
		userRepo:        userRepo,
		client:          &http.Client{Timeout: cfg.RequestTimeout()},
		cfg:             cfg,
		metrics:         m,
		logger:          l,
	}
}

// Send builds, delivers, and records an endorsement request from the
// record's owner to the actor.
func (s *Service) Send(ctx context.Context, recordID, userID, actorID uuid.UUID) (*model.EndorsementRequest, error) {
	record, err := s.recordRepo.Get(ctx, recordID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("record", err)
		}
		return nil, apperrors.Internal(err)
	}
	if record.OwnerID != userID {
		return nil, apperrors.Forbidden("only the record owner can request an endorsement", nil)
	}

	user, err := s.userRepo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("user", err)
		}
		return nil, apperrors.Internal(err)
	}

	actor, err := s.actorRepo.Get(ctx, actorID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("actor", err)
		}
		return nil, apperrors.Internal(err)
	}
	if !actor.Sendable() {
		return nil, apperrors.Unprocessable("actor is not accepting requests", nil)
	}

	availability, err := s.availability(ctx, record.ID, actor)
	if err != nil {
		return nil, err
	}
	if !availability.Available {
		return nil, apperrors.Conflict(availability.Status, nil)
	}

	citeAs := ""
	if record.DOI != nil {
		citeAs = *record.DOI
	}
	env := notify.NewEndorsementOffer(notify.OfferParams{
		UserURI:      s.cfg.OriginID + "/users/" + user.ID.String(),
		UserName:     user.DisplayName(),
		RecordURL:    record.URL,
		RecordCiteAs: citeAs,
		OriginID:     s.cfg.OriginID,
		OriginInbox:  s.cfg.InboxURL,
		TargetID:     actor.ActorID,
		TargetInbox:  actor.InboxURL,
	})

	payload, err := json.Marshal(env)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	if err := s.deliver(ctx, actor, payload); err != nil {
		s.metrics.RequestSendFailures.Inc()
		return nil, apperrors.Unprocessable(fmt.Sprintf("failed to deliver request to %s", actor.Name), err)
	}
	s.metrics.RequestsSent.Inc()

	req := &model.EndorsementRequest{
		NotificationID: env.ID,
		RecordID:       record.ID,
		UserID:         userID,
		ActorID:        actor.ID,
		Raw:            payload,
		LatestStatus:   model.StatusRequestEndorsement,
	}
	if err := s.repo.Create(ctx, req); err != nil {
		// Delivered but not recorded: the actor may reply to a request we
		// cannot correlate. Loud log so an operator can reconcile.
		s.logger.Error(err, "Delivered request could not be persisted",
			"notification_id", env.ID,
			"actor", actor.ActorID,
		)
		return nil, apperrors.Internal(err)
	}

	s.logger.Info("Endorsement request sent",
		"notification_id", env.ID,
		"recid", record.RecID,
		"actor", actor.ActorID,
	)
	return req, nil
}

func (s *Service) deliver(ctx context.Context, actor *model.Actor, payload []byte) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, actor.InboxURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", contentTypeJSONLD)
	httpReq.Header.Set("Authorization", "Bearer "+*actor.InboxAPIToken)

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("actor inbox returned %d", resp.StatusCode)
	}
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.EndorsementRequest, error) {
	req, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("endorsement request", err)
		}
		return nil, apperrors.Internal(err)
	}
	return req, nil
}

func (s *Service) ListReplies(ctx context.Context, requestID uuid.UUID) ([]*model.EndorsementReply, error) {
	replies, err := s.repo.ListReplies(ctx, requestID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return replies, nil
}

// AvailableActors reports, per registered actor, whether the record owner
// can currently send it an endorsement request and why not otherwise.
func (s *Service) AvailableActors(ctx context.Context, recordID uuid.UUID) ([]model.ActorAvailability, error) {
	actors, err := s.actorRepo.List(ctx)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	result := make([]model.ActorAvailability, 0, len(actors))
	for _, actor := range actors {
		availability, err := s.availability(ctx, recordID, actor)
		if err != nil {
			return nil, err
		}
		result = append(result, *availability)
	}
	return result, nil
}

// availability applies the business rules gating a new request: the actor
// must be configured for delivery, must not already have granted a
// review/endorsement for the record, and the latest request must be absent
// or tentatively rejected. A firm reject is final and blocks re-requests.
func (s *Service) availability(ctx context.Context, recordID uuid.UUID, actor *model.Actor) (*model.ActorAvailability, error) {
	availability := &model.ActorAvailability{
		ActorID:   actor.ID,
		ActorURI:  actor.ActorID,
		ActorName: actor.Name,
	}

	if !actor.Sendable() {
		availability.Status = availabilityUnavailable
		return availability, nil
	}

	reviewType, err := s.endorsementRepo.LatestReviewType(ctx, recordID, actor.ID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	switch reviewType {
	case model.ReviewTypeEndorsement:
		availability.Status = availabilityEndorsed
		return availability, nil
	case model.ReviewTypeReview:
		availability.Status = availabilityReviewed
		return availability, nil
	}

	status, err := s.repo.LatestStatus(ctx, recordID, actor.ID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	switch status {
	case model.StatusRequestEndorsement, model.StatusTentativeAccept:
		availability.Status = availabilityPending
	case model.StatusTentativeReject:
		availability.Status = availabilityDeclined
		availability.Available = true
	case model.StatusReject:
		availability.Status = availabilityDeclined
	default:
		availability.Status = availabilityAvailable
		availability.Available = true
	}
	return availability, nil
}
