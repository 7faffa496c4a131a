package model

import (
	"time"

	"github.com/google/uuid"
)

// User is the platform account that authenticated an inbound call. Accounts
// are managed by the surrounding platform; this module only looks them up.
type User struct {
	Base
	Email    string `json:"email" db:"email"`
	Username string `json:"username" db:"username"`
}

// DisplayName prefers the username, falling back to the email address.
func (u *User) DisplayName() string {
	if u.Username != "" {
		return u.Username
	}
	return u.Email
}

// TokenScope values accepted by the auth middleware.
const (
	ScopeInbox = "notify:inbox"
	ScopeAdmin = "notify:admin"
)

// APIToken is a bearer token issued to an actor member for delivering
// notifications. Only the bcrypt hash of the secret is stored.
type APIToken struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	UserID    uuid.UUID  `json:"user_id" db:"user_id"`
	TokenHash string     `json:"-" db:"token_hash"`
	Scope     string     `json:"scope" db:"scope"`
	ExpiresAt *time.Time `json:"expires_at,omitempty" db:"expires_at"`
	RevokedAt *time.Time `json:"revoked_at,omitempty" db:"revoked_at"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}

// Active reports whether the token may still be used.
func (t *APIToken) Active(now time.Time) bool {
	if t.RevokedAt != nil {
		return false
	}
	if t.ExpiresAt != nil && now.After(*t.ExpiresAt) {
		return false
	}
	return true
}
