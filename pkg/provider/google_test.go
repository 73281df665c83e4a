package provider

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGoogleAuthCodeURL(t *testing.T) {
	google := Google("client-id", "client-secret", "https://example.com/callback")
	assert.Equal(t, google.ID(), "google")

	url := google.AuthCodeURL("state-1")
	assert.Equal(t, strings.HasPrefix(url, "https://accounts.google.com/o/oauth2/v2/auth"), true)
	assert.Contains(t, url, "client_id=client-id")
	assert.Contains(t, url, "state=state-1")
	assert.Contains(t, url, "access_type=offline")
	assert.Contains(t, url, "prompt=consent")
}
