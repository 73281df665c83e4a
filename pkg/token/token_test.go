package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/codemk8/dynauth/pkg/schema"
)

var secret = []byte("test-secret")

func TestIssueAndParse(t *testing.T) {
	user := &schema.User{ID: "u1", Role: "admin", Status: "active"}
	signed, err := Issue(secret, user, "tok1", "ya29.access", time.Now().Add(time.Hour))
	assert.Nil(t, err)

	claims, err := Parse(secret, signed)
	assert.Nil(t, err)
	assert.Equal(t, claims.Subject, "u1")
	assert.Equal(t, claims.ID, "tok1", "jti carries the store session token")
	assert.Equal(t, claims.Role, "admin")
	assert.Equal(t, claims.Status, "active")
	assert.Equal(t, claims.AccessToken, "ya29.access")
}

func TestParseWrongSecret(t *testing.T) {
	signed, err := Issue(secret, &schema.User{ID: "u1"}, "tok1", "", time.Now().Add(time.Hour))
	assert.Nil(t, err)

	claims, err := Parse([]byte("other-secret"), signed)
	assert.Nil(t, claims)
	assert.NotNil(t, err)
}

func TestParseExpired(t *testing.T) {
	signed, err := Issue(secret, &schema.User{ID: "u1"}, "tok1", "", time.Now().Add(-time.Hour))
	assert.Nil(t, err)

	claims, err := Parse(secret, signed)
	assert.Nil(t, claims)
	assert.NotNil(t, err)
}

func TestNewSessionPayload(t *testing.T) {
	expires := time.Now().Add(time.Hour)
	su := &schema.SessionUser{
		Session: &schema.Session{SessionToken: "tok1", UserID: "u1", Expires: expires},
		User:    &schema.User{ID: "u1", Name: "A", Email: "a@b.com", Image: "http://img"},
	}

	payload := NewSessionPayload(su, &Claims{AccessToken: "ya29.access"})
	assert.Equal(t, payload.User.ID, "u1")
	assert.Equal(t, payload.User.Name, "A")
	assert.Equal(t, payload.User.Email, "a@b.com")
	assert.Equal(t, payload.User.Image, "http://img")
	assert.Equal(t, payload.Expires, expires)
	assert.Equal(t, payload.AccessToken, "ya29.access")

	plain := NewSessionPayload(su, nil)
	assert.Equal(t, plain.AccessToken, "")
}
