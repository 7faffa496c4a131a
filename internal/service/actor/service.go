package actor

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	apperrors "github.com/scholarhub/notify-api/pkg/errors"

	"github.com/scholarhub/notify-api/internal/model"
	"github.com/scholarhub/notify-api/internal/repository"
)

const (
	membershipCacheTTL     = 5 * time.Minute
	membershipCacheCleanup = 10 * time.Minute
)

// Service manages the registry of external review and endorsement services
// and their platform-user memberships. Membership lookups sit on the hot
// path of every received notification, so positive and negative results are
// cached briefly.
type Service struct {
	repo     repository.ActorRepository
	userRepo repository.UserRepository
	cache    *cache.Cache
}

func NewService(repo repository.ActorRepository, userRepo repository.UserRepository) *Service {
	return &Service{
		repo:     repo,
		userRepo: userRepo,
		cache:    cache.New(membershipCacheTTL, membershipCacheCleanup),
	}
}

func (s *Service) Create(ctx context.Context, actor *model.Actor) error {
	if err := validateActor(actor); err != nil {
		return err
	}
	if _, err := s.repo.GetByActorURI(ctx, actor.ActorID); err == nil {
		return apperrors.Conflict("actor already registered", nil)
	} else if err != repository.ErrNotFound {
		return apperrors.Internal(err)
	}

	if err := s.repo.Create(ctx, actor); err != nil {
		return apperrors.Internal(fmt.Errorf("failed to create actor: %w", err))
	}
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Actor, error) {
	actor, err := s.repo.Get(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, apperrors.NotFound("actor", err)
		}
		return nil, apperrors.Internal(err)
	}
	return actor, nil
}

func (s *Service) GetByURI(ctx context.Context, actorURI string) (*model.Actor, error) {
	actor, err := s.repo.GetByActorURI(ctx, actorURI)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, apperrors.NotFound("actor", err)
		}
		return nil, apperrors.Internal(err)
	}
	return actor, nil
}

func (s *Service) Update(ctx context.Context, actor *model.Actor) error {
	if err := validateActor(actor); err != nil {
		return err
	}
	if err := s.repo.Update(ctx, actor); err != nil {
		if err == repository.ErrNotFound {
			return apperrors.NotFound("actor", err)
		}
		return apperrors.Internal(err)
	}
	return nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if err == repository.ErrNotFound {
			return apperrors.NotFound("actor", err)
		}
		return apperrors.Internal(err)
	}
	s.cache.Flush()
	return nil
}

func (s *Service) List(ctx context.Context) ([]*model.Actor, error) {
	actors, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return actors, nil
}

func (s *Service) AddMember(ctx context.Context, actorID, userID uuid.UUID) error {
	if _, err := s.repo.Get(ctx, actorID); err != nil {
		if err == repository.ErrNotFound {
			return apperrors.NotFound("actor", err)
		}
		return apperrors.Internal(err)
	}
	if _, err := s.userRepo.Get(ctx, userID); err != nil {
		if err == repository.ErrNotFound {
			return apperrors.NotFound("user", err)
		}
		return apperrors.Internal(err)
	}

	if err := s.repo.AddMember(ctx, actorID, userID); err != nil {
		return apperrors.Internal(err)
	}
	s.cache.Flush()
	return nil
}

func (s *Service) RemoveMember(ctx context.Context, actorID, userID uuid.UUID) error {
	if err := s.repo.RemoveMember(ctx, actorID, userID); err != nil {
		if err == repository.ErrNotFound {
			return apperrors.NotFound("membership", err)
		}
		return apperrors.Internal(err)
	}
	s.cache.Flush()
	return nil
}

func (s *Service) ListMembers(ctx context.Context, actorID uuid.UUID) ([]*model.ActorMember, error) {
	members, err := s.repo.ListMembers(ctx, actorID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return members, nil
}

// IsMember reports whether the user may act on behalf of the actor
// identified by its URI. Results are cached for a short TTL; membership
// changes flush the whole cache.
func (s *Service) IsMember(ctx context.Context, userID uuid.UUID, actorURI string) (bool, error) {
	key := membershipKey(userID, actorURI)
	if v, ok := s.cache.Get(key); ok {
		return v.(bool), nil
	}

	ok, err := s.repo.IsMember(ctx, userID, actorURI)
	if err != nil {
		return false, apperrors.Internal(err)
	}
	s.cache.Set(key, ok, cache.DefaultExpiration)
	return ok, nil
}

func membershipKey(userID uuid.UUID, actorURI string) string {
	return userID.String() + "|" + actorURI
}

func validateActor(actor *model.Actor) error {
	if actor.Name == "" {
		return apperrors.BadRequest("actor name is required", nil)
	}
	if actor.ActorID == "" {
		return apperrors.BadRequest("actor id is required", nil)
	}
	if u, err := url.Parse(actor.ActorID); err != nil || u.Scheme == "" || u.Host == "" {
		return apperrors.BadRequest("actor id must be an absolute URI", err)
	}
	if actor.InboxURL != "" {
		if u, err := url.Parse(actor.InboxURL); err != nil || u.Scheme == "" || u.Host == "" {
			return apperrors.BadRequest("inbox url must be an absolute URI", err)
		}
	}
	return nil
}
