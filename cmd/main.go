package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/codemk8/dynauth/pkg/adapter"
	"github.com/codemk8/dynauth/pkg/config"
	dynamo "github.com/codemk8/dynauth/pkg/dynamodb"
	"github.com/codemk8/dynauth/pkg/provider"
	"github.com/codemk8/dynauth/pkg/schema"
	"github.com/codemk8/dynauth/pkg/token"
	"github.com/codemk8/dynauth/pkg/verify"
)

var ip = flag.String("addr", "127.0.0.1:8000", "Serving host and port")
var apiRoot = flag.String("api_root", "/v1", "api root path")

const stateCookie = "dynauth_state"

var client adapter.Adapter
var cfg config.Config
var google *provider.GoogleConfig

type LoginJson struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (l LoginJson) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.Email, validation.Required, is.Email),
		validation.Field(&l.Password, validation.Required),
	)
}

type TokenJson struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func bearerClaims(r *http.Request) (*token.Claims, error) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return nil, errors.New("missing bearer token")
	}
	return token.Parse([]byte(cfg.JWTSecret), strings.TrimPrefix(header, prefix))
}

// ensureUser resolves the profile by email, creating it on first
// sign-in.
func ensureUser(partial schema.User) (*schema.User, error) {
	stored, err := client.GetUserByEmail(partial.Email)
	if err != nil {
		return nil, err
	}
	if stored != nil {
		return stored, nil
	}
	return client.CreateUser(partial)
}

func loginHandler(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	var req LoginJson
	if err = json.Unmarshal(body, &req); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	if err = req.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	identity, err := verify.Credentials(cfg.APIURL, req.Email, req.Password)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}
	if identity == nil {
		http.Error(w, "Not authorized", http.StatusUnauthorized)
		return
	}

	user, err := ensureUser(schema.User{Email: identity.Email, Name: identity.Name, Image: identity.Image})
	if err != nil {
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	session, err := client.CreateSession(*schema.NewSession(user.ID, cfg.SessionTTL))
	if err != nil {
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	// role and status travel in the token only, the store does not
	// keep them
	user.Role = identity.Role
	user.Status = identity.Status
	signed, err := token.Issue([]byte(cfg.JWTSecret), user, session.SessionToken, "", session.Expires)
	if err != nil {
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	fmt.Printf("User %s signed in.\n", user.Email)
	writeJSON(w, TokenJson{Token: signed, Expires: session.Expires})
}

func sessionHandler(w http.ResponseWriter, r *http.Request) {
	claims, err := bearerClaims(r)
	if err != nil {
		http.Error(w, "Not authorized", http.StatusUnauthorized)
		return
	}
	sessionUser, err := client.GetSessionAndUser(claims.ID)
	if err != nil {
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	if sessionUser == nil {
		http.Error(w, "Not authorized", http.StatusUnauthorized)
		return
	}
	writeJSON(w, token.NewSessionPayload(sessionUser, claims))
}

func logoutHandler(w http.ResponseWriter, r *http.Request) {
	claims, err := bearerClaims(r)
	if err != nil {
		http.Error(w, "Not authorized", http.StatusUnauthorized)
		return
	}
	if err = client.DeleteSession(claims.ID); err != nil {
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	fmt.Printf("User %s signed out.\n", claims.Subject)
	w.WriteHeader(http.StatusNoContent)
}

func googleLoginHandler(w http.ResponseWriter, r *http.Request) {
	state := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, google.AuthCodeURL(state), http.StatusTemporaryRedirect)
}

func googleCallbackHandler(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(stateCookie)
	if err != nil || cookie.Value == "" || cookie.Value != r.URL.Query().Get("state") {
		http.Error(w, "Invalid state", http.StatusForbidden)
		return
	}
	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "No code provided", http.StatusBadRequest)
		return
	}

	oauthToken, err := google.Exchange(r.Context(), code)
	if err != nil {
		http.Error(w, "Not authorized", http.StatusUnauthorized)
		return
	}
	details, err := google.FetchUserData(r.Context(), oauthToken)
	if err != nil {
		http.Error(w, "Not authorized", http.StatusUnauthorized)
		return
	}

	user, err := client.GetUserByAccount(google.ID(), details.ProviderAccountID)
	if err != nil {
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	if user == nil {
		user, err = ensureUser(schema.User{Email: details.Email, Name: details.Name, Image: details.Image})
		if err != nil {
			http.Error(w, "Internal error", http.StatusInternalServerError)
			return
		}
		err = client.LinkAccount(schema.Account{
			UserID:            user.ID,
			UserEmail:         user.Email,
			Provider:          google.ID(),
			ProviderAccountID: details.ProviderAccountID,
			AccessToken:       oauthToken.AccessToken,
			RefreshToken:      oauthToken.RefreshToken,
			TokenType:         oauthToken.TokenType,
			ExpiresAt:         oauthToken.Expiry.Unix(),
		})
		if err != nil {
			http.Error(w, "Internal error", http.StatusInternalServerError)
			return
		}
	}

	session, err := client.CreateSession(*schema.NewSession(user.ID, cfg.SessionTTL))
	if err != nil {
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	signed, err := token.Issue([]byte(cfg.JWTSecret), user, session.SessionToken, oauthToken.AccessToken, session.Expires)
	if err != nil {
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	fmt.Printf("User %s signed in via %s.\n", user.Email, google.ID())
	writeJSON(w, TokenJson{Token: signed, Expires: session.Expires})
}

func main() {
	flag.Parse()
	var err error
	cfg, err = config.FromEnv()
	if err != nil {
		log.Fatalf("Failed reading environment: %v", err)
	}
	fmt.Printf("Creating AWS client...\n")
	client, err = dynamo.NewClient(dynamo.Config{Table: cfg.Table, Region: cfg.Region})
	if err != nil {
		panic("Failed init dynamoDB, check credentials or table name.")
	}
	fmt.Printf("Creating AWS client done!\n")
	google = provider.Google(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL)

	r := mux.NewRouter()
	r.HandleFunc(*apiRoot+"/auth/login", loginHandler).Methods("POST")
	r.HandleFunc(*apiRoot+"/auth/session", sessionHandler).Methods("GET")
	r.HandleFunc(*apiRoot+"/auth/logout", logoutHandler).Methods("POST")
	r.HandleFunc(*apiRoot+"/auth/google", googleLoginHandler).Methods("GET")
	r.HandleFunc(*apiRoot+"/auth/google/callback", googleCallbackHandler).Methods("GET")
	srv := &http.Server{
		Handler: r,
		Addr:    *ip,
		// Good practice: enforce timeouts for servers you create!
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
	}
	fmt.Printf("Running server on %s%s/auth/login|session|logout|google, table name %s on region %s.\n", *ip, *apiRoot, cfg.Table, cfg.Region)
	log.Fatal(srv.ListenAndServe())
}
