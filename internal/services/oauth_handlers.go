package services

import (
	"net/http"
	"time"

	"github.com/google/uuid"
)

const stateCookie = "oauth_state"

// Login checks the stored token and routes the operator to the right
// place: a fresh authorization, a token refresh, or straight to success.
func (svc *Service) Login(w http.ResponseWriter, r *http.Request) {
	current, err := svc.providers.Tokens.Current()
	if err != nil {
		svc.log.Errorf("failed to load stored token: %s", err)
		http.Redirect(w, r, "/start_oauth", http.StatusFound)
		return
	}

	switch {
	case current == nil, current.RefreshExpired():
		http.Redirect(w, r, "/start_oauth", http.StatusFound)

	case current.Expired():
		http.Redirect(w, r, "/refresh_token", http.StatusFound)

	default:
		http.Redirect(w, r, "/oauth_success", http.StatusFound)
	}
}

// StartOAuth begins the authorization-code flow: a random state is stored
// in a cookie and the operator is redirected to the authorization URL.
func (svc *Service) StartOAuth(w http.ResponseWriter, r *http.Request) {
	state := uuid.NewString()

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		Expires:  time.Now().Add(10 * time.Minute),
		HttpOnly: true,
	})

	svc.log.Info("initiating OAuth flow for user authentication")

	http.Redirect(w, r, svc.providers.Tokens.AuthCodeURL(state), http.StatusFound)
}

// Callback finishes the authorization-code flow and stores the token.
func (svc *Service) Callback(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(stateCookie)
	if err != nil || cookie.Value == "" || cookie.Value != r.URL.Query().Get("state") {
		svc.log.Error("OAuth callback with missing or mismatched state")
		http.Error(w, "invalid OAuth state", http.StatusBadRequest)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "missing authorization code", http.StatusBadRequest)
		return
	}

	if _, err := svc.providers.Tokens.Exchange(r.Context(), code); err != nil {
		svc.log.Errorf("failed to exchange authorization code: %s", err)
		http.Error(w, "failed to obtain access token", http.StatusBadGateway)
		return
	}

	http.Redirect(w, r, "/run_report", http.StatusFound)
}

// RefreshToken forces a token refresh and continues to the report run.
func (svc *Service) RefreshToken(w http.ResponseWriter, r *http.Request) {
	svc.log.Info("starting token refresh")

	// BearerToken refreshes and persists the token when it is expired.
	if _, err := svc.providers.Tokens.BearerToken(r.Context()); err != nil {
		svc.log.Errorf("failed to refresh token: %s", err)
		http.Redirect(w, r, "/start_oauth", http.StatusFound)
		return
	}

	http.Redirect(w, r, "/run_report", http.StatusFound)
}
