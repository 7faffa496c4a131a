package token

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/scholarhub/notify-api/pkg/errors"
	"github.com/scholarhub/notify-api/pkg/security"

	"github.com/scholarhub/notify-api/internal/model"
	"github.com/scholarhub/notify-api/internal/repository"
)

const secretBytes = 32

// Service issues and validates the bearer tokens actors use to deliver
// notifications. A presented token has the form "<token id>.<secret>": the
// id selects the stored row, the secret is checked against its bcrypt hash.
type Service struct {
	repo     repository.TokenRepository
	userRepo repository.UserRepository
	hasher   security.TokenHasher
}

func NewService(repo repository.TokenRepository, userRepo repository.UserRepository, hasher security.TokenHasher) *Service {
	return &Service{
		repo:     repo,
		userRepo: userRepo,
		hasher:   hasher,
	}
}

// Issue mints a new token for the user with the given scope. The plaintext
// token is returned exactly once; only its hash is stored.
func (s *Service) Issue(ctx context.Context, userID uuid.UUID, scope string, expiresAt *time.Time) (string, *model.APIToken, error) {
	if scope != model.ScopeInbox && scope != model.ScopeAdmin {
		return "", nil, apperrors.BadRequest(fmt.Sprintf("unsupported token scope: %s", scope), nil)
	}
	if _, err := s.userRepo.Get(ctx, userID); err != nil {
		if err == repository.ErrNotFound {
			return "", nil, apperrors.NotFound("user", err)
		}
		return "", nil, apperrors.Internal(err)
	}

	secret, err := security.GenerateSecret(secretBytes)
	if err != nil {
		return "", nil, apperrors.Internal(err)
	}
	hash, err := s.hasher.Hash(secret)
	if err != nil {
		return "", nil, apperrors.Internal(err)
	}

	token := &model.APIToken{
		ID:        uuid.New(),
		UserID:    userID,
		TokenHash: hash,
		Scope:     scope,
		ExpiresAt: expiresAt,
	}
	if err := s.repo.Create(ctx, token); err != nil {
		return "", nil, apperrors.Internal(err)
	}

	return token.ID.String() + "." + secret, token, nil
}

// Validate checks a presented bearer token and returns the user it
// authenticates. Unknown, revoked, expired, and mismatched tokens all fail
// with the same unauthorized error.
func (s *Service) Validate(ctx context.Context, presented string) (*model.APIToken, *model.User, error) {
	id, secret, ok := splitToken(presented)
	if !ok {
		return nil, nil, apperrors.Unauthorized(fmt.Errorf("malformed token"))
	}

	token, err := s.repo.Get(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, nil, apperrors.Unauthorized(err)
		}
		return nil, nil, apperrors.Internal(err)
	}
	if !token.Active(time.Now()) {
		return nil, nil, apperrors.Unauthorized(fmt.Errorf("token inactive"))
	}
	if err := s.hasher.Compare(token.TokenHash, secret); err != nil {
		return nil, nil, apperrors.Unauthorized(err)
	}

	user, err := s.userRepo.Get(ctx, token.UserID)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, nil, apperrors.Unauthorized(err)
		}
		return nil, nil, apperrors.Internal(err)
	}
	return token, user, nil
}

func (s *Service) Revoke(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Revoke(ctx, id); err != nil {
		if err == repository.ErrNotFound {
			return apperrors.NotFound("token", err)
		}
		return apperrors.Internal(err)
	}
	return nil
}

func splitToken(presented string) (uuid.UUID, string, bool) {
	parts := strings.SplitN(presented, ".", 2)
	if len(parts) != 2 || parts[1] == "" {
		return uuid.Nil, "", false
	}
	id, err := uuid.Parse(parts[0])
	if err != nil {
		return uuid.Nil, "", false
	}
	return id, parts[1], true
}
