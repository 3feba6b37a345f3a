package token

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

// ErrNotAuthorized is returned when no usable token is stored and the
// operator has to run through the authorization flow again.
var ErrNotAuthorized = errors.New("not authorized: no usable token stored")

// Provider implements the bearer-credential capability on top of a token
// Store and an OAuth2 authorization-code configuration. Concurrent
// refreshes are collapsed into one.
type Provider struct {
	cfg      *oauth2.Config
	store    *Store
	inflight singleflight.Group
	log      *logrus.Entry
}

func NewProvider(cfg *oauth2.Config, store *Store) *Provider {
	return &Provider{
		cfg:   cfg,
		store: store,
		log:   logrus.WithField("component", "token"),
	}
}

// AuthCodeURL returns the authorization URL to redirect the operator to.
func (p *Provider) AuthCodeURL(state string) string {
	return p.cfg.AuthCodeURL(state)
}

// Exchange swaps an authorization code for a token and persists it.
func (p *Provider) Exchange(ctx context.Context, code string) (*Token, error) {
	t, err := p.cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	stored := &Token{
		Token:      *t,
		AcquiredAt: time.Now(),
	}

	// Webex reports the refresh-token lifespan as an extra field.
	if v, ok := t.Extra("refresh_token_expires_in").(float64); ok {
		stored.RefreshTokenExpiresIn = int64(v)
	}

	if err := p.store.Save(stored); err != nil {
		return nil, err
	}

	p.log.Info("access token obtained and persisted")

	return stored, nil
}

// Current returns the stored token without refreshing it, or nil when
// none is stored.
func (p *Provider) Current() (*Token, error) {
	return p.store.Load()
}

// BearerToken returns a valid access token, refreshing and persisting it
// first when expired. It fails with ErrNotAuthorized when no token is
// stored or the refresh token has lapsed.
func (p *Provider) BearerToken(ctx context.Context) (string, error) {
	t, err := p.store.Load()
	if err != nil {
		return "", err
	}

	if t == nil || t.RefreshExpired() {
		return "", ErrNotAuthorized
	}

	if !t.Expired() {
		return t.AccessToken, nil
	}

	refreshed, err, _ := p.inflight.Do("refresh", func() (any, error) {
		return p.refresh(ctx, t)
	})
	if err != nil {
		return "", err
	}

	return refreshed.(*Token).AccessToken, nil
}

func (p *Provider) refresh(ctx context.Context, t *Token) (*Token, error) {
	p.log.Info("access token expired, refreshing")

	next, err := p.cfg.TokenSource(ctx, &t.Token).Token()
	if err != nil {
		return nil, fmt.Errorf("failed to refresh access token: %w", err)
	}

	stored := &Token{
		Token:                 *next,
		AcquiredAt:            time.Now(),
		RefreshTokenExpiresIn: t.RefreshTokenExpiresIn,
	}

	// the server may rotate the refresh token; keep the old one otherwise.
	if stored.RefreshToken == "" {
		stored.RefreshToken = t.RefreshToken
	}

	if err := p.store.Save(stored); err != nil {
		return nil, err
	}

	return stored, nil
}
