package verify

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func stubLogin(status int, body string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/login" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
}

func TestCredentialsOk(t *testing.T) {
	srv := stubLogin(http.StatusOK,
		`{"id":"u1","name":"A","email":"a@b.com","image":"http://img","role":"admin","status":"active"}`)
	defer srv.Close()

	user, err := Credentials(srv.URL, "a@b.com", "secret")
	assert.Nil(t, err)
	assert.NotNil(t, user)
	assert.Equal(t, user.ID, "u1")
	assert.Equal(t, user.Name, "A")
	assert.Equal(t, user.Email, "a@b.com")
	assert.Equal(t, user.Image, "http://img")
	assert.Equal(t, user.Role, "admin")
	assert.Equal(t, user.Status, "active")
}

func TestCredentialsRejected(t *testing.T) {
	srv := stubLogin(http.StatusUnauthorized, `{"error":"bad credentials"}`)
	defer srv.Close()

	user, err := Credentials(srv.URL, "a@b.com", "wrong")
	assert.Nil(t, user)
	assert.NotNil(t, err)
	assert.Equal(t, err.Error(), `{"error":"bad credentials"}`, "the rejection body is the detail")
}

func TestCredentialsOtherStatusIsNoSession(t *testing.T) {
	srv := stubLogin(http.StatusServiceUnavailable, "upstream down")
	defer srv.Close()

	user, err := Credentials(srv.URL, "a@b.com", "secret")
	assert.Nil(t, err, "a non-401 failure is not an error")
	assert.Nil(t, user)
}

func TestCredentialsMalformedBody(t *testing.T) {
	srv := stubLogin(http.StatusOK, "not json")
	defer srv.Close()

	user, err := Credentials(srv.URL, "a@b.com", "secret")
	assert.Nil(t, user)
	assert.NotNil(t, err)
}

func TestCredentialsTransportError(t *testing.T) {
	srv := stubLogin(http.StatusOK, "{}")
	srv.Close()

	user, err := Credentials(srv.URL, "a@b.com", "secret")
	assert.Nil(t, user)
	assert.NotNil(t, err)
}
