package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/scholarhub/notify-api/pkg/auth"

	"github.com/scholarhub/notify-api/internal/model"
)

const (
	contextUser  = "current_user"
	contextToken = "current_token"
)

// TokenValidator checks a presented bearer token and resolves the account
// behind it.
type TokenValidator interface {
	Validate(ctx context.Context, presented string) (*model.APIToken, *model.User, error)
}

// SessionValidator checks a platform session token (JWT minted by the
// surrounding platform with the shared secret).
type SessionValidator interface {
	Validate(tokenString string) (*auth.Claims, error)
}

// UserLookup resolves the account behind validated session claims.
type UserLookup interface {
	Get(ctx context.Context, id uuid.UUID) (*model.User, error)
}

type AuthMiddleware struct {
	tokens   TokenValidator
	sessions SessionValidator
	users    UserLookup
}

// NewAuthMiddleware builds the bearer-auth middleware. sessions and users may
// be nil, in which case only API tokens are accepted.
func NewAuthMiddleware(tokens TokenValidator, sessions SessionValidator, users UserLookup) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, sessions: sessions, users: users}
}

// Authenticate verifies the bearer credential and sets the account in
// context. Two credential kinds are accepted: API tokens issued to actor
// members, which also carry a scope, and platform session JWTs, which
// authenticate a user but grant no scopes.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format"})
			c.Abort()
			return
		}

		token, user, err := m.tokens.Validate(c.Request.Context(), parts[1])
		if err == nil {
			c.Set(contextUser, user)
			c.Set(contextToken, token)
			c.Next()
			return
		}

		if m.sessions != nil && m.users != nil {
			if claims, sessErr := m.sessions.Validate(parts[1]); sessErr == nil {
				if user, lookupErr := m.users.Get(c.Request.Context(), claims.UserID); lookupErr == nil {
					c.Set(contextUser, user)
					c.Next()
					return
				}
			}
		}

		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		c.Abort()
	}
}

// RequireScope rejects tokens that were not issued with the given scope. The
// admin scope implies all others.
func (m *AuthMiddleware) RequireScope(scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := CurrentToken(c)
		if !ok {
			// Session credentials authenticate but carry no scopes.
			if _, authed := CurrentUser(c); authed {
				c.JSON(http.StatusForbidden, gin.H{"error": "insufficient scope"})
			} else {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
			}
			c.Abort()
			return
		}
		if token.Scope != scope && token.Scope != model.ScopeAdmin {
			c.JSON(http.StatusForbidden, gin.H{"error": "insufficient scope"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentUser returns the authenticated account set by Authenticate.
func CurrentUser(c *gin.Context) (*model.User, bool) {
	v, ok := c.Get(contextUser)
	if !ok {
		return nil, false
	}
	user, ok := v.(*model.User)
	return user, ok
}

// CurrentToken returns the token that authenticated the request.
func CurrentToken(c *gin.Context) (*model.APIToken, bool) {
	v, ok := c.Get(contextToken)
	if !ok {
		return nil, false
	}
	token, ok := v.(*model.APIToken)
	return token, ok
}
