package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/codemk8/dynauth/pkg/schema"
)

// Claims carried by the issued token. The jti registered claim holds
// the backing store session token, sub holds the user id.
type Claims struct {
	jwt.RegisteredClaims
	Role        string `json:"role,omitempty"`
	Status      string `json:"status,omitempty"`
	AccessToken string `json:"accessToken,omitempty"`
}

// Issue signs an HS256 token for the user. accessToken is only set
// when the identity came from a federated provider exchange.
func Issue(secret []byte, user *schema.User, sessionToken string, accessToken string, expires time.Time) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ID:        sessionToken,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
		Role:        user.Role,
		Status:      user.Status,
		AccessToken: accessToken,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// Parse validates the signature and expiry and returns the claims.
func Parse(secret []byte, raw string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, fmt.Errorf("parse session token: %w", err)
	}
	return claims, nil
}

// UserPayload is the user slice of the outward session shape.
type UserPayload struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Image string `json:"image,omitempty"`
}

// SessionPayload is the session shape returned to clients.
type SessionPayload struct {
	User        UserPayload `json:"user"`
	Expires     time.Time   `json:"expires"`
	AccessToken string      `json:"accessToken,omitempty"`
}

// NewSessionPayload copies the resolved user and session into the
// outward shape, carrying the provider access token through when the
// claims hold one.
func NewSessionPayload(su *schema.SessionUser, claims *Claims) SessionPayload {
	payload := SessionPayload{
		User: UserPayload{
			ID:    su.User.ID,
			Name:  su.User.Name,
			Email: su.User.Email,
			Image: su.User.Image,
		},
		Expires: su.Session.Expires,
	}
	if claims != nil {
		payload.AccessToken = claims.AccessToken
	}
	return payload
}
