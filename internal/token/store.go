// Package token implements the OAuth2 bearer-credential source: token
// file persistence, expiry tracking and refresh.
package token

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/oauth2"
)

// Token is the persisted OAuth2 token plus the bookkeeping needed to
// decide whether the refresh token itself is still usable.
type Token struct {
	oauth2.Token

	// AcquiredAt is the time the token was obtained or last refreshed.
	AcquiredAt time.Time `json:"acquired_at"`

	// RefreshTokenExpiresIn is the refresh-token lifespan in seconds as
	// reported by the authorization server; zero when unknown.
	RefreshTokenExpiresIn int64 `json:"refresh_token_expires_in,omitempty"`
}

// Expired reports whether the access token needs a refresh.
func (t *Token) Expired() bool {
	return !t.Valid()
}

// RefreshExpired reports whether the refresh token itself has lapsed, in
// which case a full re-authorization is required. An unknown lifespan is
// treated as still valid.
func (t *Token) RefreshExpired() bool {
	if t.RefreshTokenExpiresIn <= 0 {
		return false
	}

	expiry := t.AcquiredAt.Add(time.Duration(t.RefreshTokenExpiresIn) * time.Second)

	return time.Now().After(expiry)
}

// Store persists a single token as a JSON file.
type Store struct {
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load reads the stored token. A missing or empty file yields (nil, nil).
func (s *Store) Load() (*Token, error) {
	blob, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to read token file %q: %w", s.path, err)
	}

	if len(blob) == 0 {
		return nil, nil
	}

	var t Token
	if err := json.Unmarshal(blob, &t); err != nil {
		return nil, fmt.Errorf("invalid token file %q: %w", s.path, err)
	}

	return &t, nil
}

// Save writes the token, creating the parent directory if needed.
func (s *Store) Save(t *Token) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	blob, err := json.MarshalIndent(t, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}

	if err := os.WriteFile(s.path, blob, 0o600); err != nil {
		return fmt.Errorf("failed to write token file %q: %w", s.path, err)
	}

	return nil
}
