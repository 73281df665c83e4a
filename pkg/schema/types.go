package schema

import (
	"time"

	"github.com/google/uuid"
)

// Shapes shared by the persistence adapter, the credential verifier
// and the token layer.

// User is a stored profile. Role and Status only ever come from the
// login endpoint; the store does not persist them.
type User struct {
	ID            string     `json:"id"`
	Email         string     `json:"email,omitempty"`
	EmailVerified *time.Time `json:"emailVerified,omitempty"`
	Name          string     `json:"name,omitempty"`
	Image         string     `json:"image,omitempty"`
	Role          string     `json:"role,omitempty"`
	Status        string     `json:"status,omitempty"`
}

// Account links a user to an external provider identity. Token fields
// are stored verbatim, the adapter never inspects them.
type Account struct {
	UserID            string `json:"userId"`
	UserEmail         string `json:"userEmail,omitempty"`
	Provider          string `json:"provider"`
	ProviderAccountID string `json:"providerAccountId"`
	AccessToken       string `json:"access_token,omitempty"`
	RefreshToken      string `json:"refresh_token,omitempty"`
	TokenType         string `json:"token_type,omitempty"`
	Scope             string `json:"scope,omitempty"`
	ExpiresAt         int64  `json:"expires_at,omitempty"`
}

// Session references its user, it does not own it.
type Session struct {
	SessionToken string    `json:"sessionToken"`
	UserID       string    `json:"userId"`
	Expires      time.Time `json:"expires"`
}

// SessionUser pairs a session with the user it resolves to.
type SessionUser struct {
	Session *Session `json:"session"`
	User    *User    `json:"user"`
}

// NewUser copies the partial profile and assigns a fresh id.
func NewUser(partial User) *User {
	return &User{
		ID:            uuid.NewString(),
		Email:         partial.Email,
		EmailVerified: partial.EmailVerified,
		Name:          partial.Name,
		Image:         partial.Image,
	}
}

// NewSession mints a session for userID expiring ttl from now.
func NewSession(userID string, ttl time.Duration) *Session {
	return &Session{
		SessionToken: uuid.NewString(),
		UserID:       userID,
		Expires:      time.Now().Add(ttl),
	}
}
