package provider

import (
	"context"
	"encoding/json"
	"fmt"

	"golang.org/x/oauth2"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"

// UserDetails is the provider identity resolved after the code
// exchange.
type UserDetails struct {
	ProviderAccountID string
	Email             string
	Name              string
	Image             string
}

// Google configures the Google OAuth provider.
func Google(clientID string, clientSecret string, redirectURL string) *GoogleConfig {
	return &GoogleConfig{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint: oauth2.Endpoint{
				AuthURL:  "https://accounts.google.com/o/oauth2/v2/auth",
				TokenURL: "https://oauth2.googleapis.com/token",
			},
			Scopes: []string{"https://www.googleapis.com/auth/userinfo.email", "https://www.googleapis.com/auth/userinfo.profile"},
		},
	}
}

type GoogleConfig struct {
	config *oauth2.Config
}

func (c *GoogleConfig) ID() string {
	return "google"
}

// AuthCodeURL builds the consent URL. Offline access with a forced
// consent prompt so the grant returns a refresh token every time.
func (c *GoogleConfig) AuthCodeURL(state string) string {
	return c.config.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"))
}

// Exchange trades the callback code for a token.
func (c *GoogleConfig) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	return c.config.Exchange(ctx, code)
}

// FetchUserData resolves the userinfo endpoint with the exchanged
// token. An unverified email is rejected.
func (c *GoogleConfig) FetchUserData(ctx context.Context, tok *oauth2.Token) (*UserDetails, error) {
	client := c.config.Client(ctx, tok)
	res, err := client.Get(googleUserInfoURL)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	details := googleUser{}
	if err := json.NewDecoder(res.Body).Decode(&details); err != nil {
		return nil, err
	}

	if !details.EmailVerified {
		return nil, fmt.Errorf("email not verified")
	}

	return &UserDetails{
		ProviderAccountID: details.Sub,
		Email:             details.Email,
		Name:              details.Name,
		Image:             details.Picture,
	}, nil
}

type googleUser struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}
