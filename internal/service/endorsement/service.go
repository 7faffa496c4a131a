package endorsement

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/scholarhub/notify-api/pkg/errors"

	"github.com/scholarhub/notify-api/internal/model"
	"github.com/scholarhub/notify-api/internal/repository"
)

// Service exposes read views over granted endorsements.
type Service struct {
	repo      repository.EndorsementRepository
	actorRepo repository.ActorRepository
}

func NewService(repo repository.EndorsementRepository, actorRepo repository.ActorRepository) *Service {
	return &Service{
		repo:      repo,
		actorRepo: actorRepo,
	}
}

func (s *Service) ListByRecord(ctx context.Context, recordID uuid.UUID) ([]*model.Endorsement, error) {
	endorsements, err := s.repo.ListByRecord(ctx, recordID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return endorsements, nil
}

// Info groups a record's endorsements by actor, with per-type counts and
// link lists, in order of each actor's first endorsement. Endorsements whose
// actor was deleted are grouped under the denormalized actor name with an
// empty URI.
func (s *Service) Info(ctx context.Context, recordID uuid.UUID) ([]model.ActorEndorsements, error) {
	endorsements, err := s.repo.ListByRecord(ctx, recordID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	var order []string
	groups := make(map[string]*model.ActorEndorsements)
	uris := make(map[uuid.UUID]string)

	for _, e := range endorsements {
		key := e.ActorName
		uri := ""
		if e.ActorID != nil {
			key = e.ActorID.String()
			var ok bool
			if uri, ok = uris[*e.ActorID]; !ok {
				uri, err = s.actorURI(ctx, *e.ActorID)
				if err != nil {
					return nil, err
				}
				uris[*e.ActorID] = uri
			}
		}

		group, ok := groups[key]
		if !ok {
			group = &model.ActorEndorsements{
				ActorURI:  uri,
				ActorName: e.ActorName,
			}
			groups[key] = group
			order = append(order, key)
		}

		link := model.EndorsementLink{
			Created: e.CreatedAt.Format(time.RFC3339),
			URL:     e.ResultURL,
		}
		switch e.ReviewType {
		case model.ReviewTypeEndorsement:
			group.EndorsementCount++
			group.EndorsementList = append(group.EndorsementList, link)
		case model.ReviewTypeReview:
			group.ReviewCount++
			group.ReviewList = append(group.ReviewList, link)
		}
	}

	result := make([]model.ActorEndorsements, 0, len(order))
	for _, key := range order {
		result = append(result, *groups[key])
	}
	return result, nil
}

func (s *Service) actorURI(ctx context.Context, actorID uuid.UUID) (string, error) {
	actor, err := s.actorRepo.Get(ctx, actorID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", nil
		}
		return "", apperrors.Internal(err)
	}
	return actor.ActorID, nil
}
