package notification

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/scholarhub/notify-api/pkg/logger"
	"github.com/scholarhub/notify-api/pkg/messaging"

	"github.com/scholarhub/notify-api/internal/email"
	"github.com/scholarhub/notify-api/internal/model"
	"github.com/scholarhub/notify-api/internal/repository"
)

const endorsementsChannel = "endorsements"

// EndorsementEvent is published to the broker when a new endorsement lands,
// for any platform component that wants to react.
type EndorsementEvent struct {
	ID            uuid.UUID        `json:"id"`
	EndorsementID uuid.UUID        `json:"endorsement_id"`
	RecordID      uuid.UUID        `json:"record_id"`
	RecID         string           `json:"recid"`
	OwnerID       uuid.UUID        `json:"owner_id"`
	ActorName     string           `json:"actor_name"`
	ReviewType    model.ReviewType `json:"review_type"`
	ResultURL     string           `json:"result_url"`
	CreatedAt     time.Time        `json:"created_at"`
}

// Service notifies record owners about new endorsements, by email and by a
// broker event. Both paths are best-effort: a delivery failure is logged,
// never propagated, since the endorsement itself is already committed.
type Service struct {
	userRepo repository.UserRepository
	emailSvc email.Service
	broker   messaging.Broker
	logger   *logger.Logger
}

func NewService(userRepo repository.UserRepository, emailSvc email.Service, broker messaging.Broker, l *logger.Logger) *Service {
	return &Service{
		userRepo: userRepo,
		emailSvc: emailSvc,
		broker:   broker,
		logger:   l,
	}
}

// EndorsementCreated fans out the owner-facing side effects for one new
// endorsement.
func (s *Service) EndorsementCreated(ctx context.Context, record *model.Record, endorsement *model.Endorsement) {
	owner, err := s.userRepo.Get(ctx, record.OwnerID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.logger.Error(err, "Failed to look up record owner",
				"record_id", record.ID.String(),
			)
		}
		return
	}

	if err := s.emailSvc.SendEndorsementNotice(ctx, owner, record, endorsement); err != nil {
		s.logger.Error(err, "Failed to email record owner",
			"record_id", record.ID.String(),
			"owner_id", owner.ID.String(),
		)
	}

	event := EndorsementEvent{
		ID:            uuid.New(),
		EndorsementID: endorsement.ID,
		RecordID:      record.ID,
		RecID:         record.RecID,
		OwnerID:       record.OwnerID,
		ActorName:     endorsement.ActorName,
		ReviewType:    endorsement.ReviewType,
		ResultURL:     endorsement.ResultURL,
		CreatedAt:     time.Now(),
	}
	if err := s.broker.Publish(ctx, endorsementsChannel, messaging.Message{
		Type:    "endorsement.created",
		Payload: event,
	}); err != nil {
		s.logger.Error(err, "Failed to publish endorsement event",
			"endorsement_id", endorsement.ID.String(),
		)
	}
}
