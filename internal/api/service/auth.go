package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/wavecommons/soundvault/internal/api/domain"
	"github.com/wavecommons/soundvault/internal/api/store"
	"github.com/wavecommons/soundvault/pkg/cryptox"
)

// ErrInvalidToken covers unknown, expired or malformed credentials on any
// of the authentication strategies.
var ErrInvalidToken = errors.New("service: invalid token")

// AuthService resolves request credentials into an AuthContext. Strategies
// are interchangeable from the caller's point of view; each one populates a
// different subset of the two identities.
type AuthService struct {
	Store         store.Store
	SessionSecret []byte
}

// AuthenticateBearer resolves an OAuth2 bearer token. Both identities come
// back populated: the resource owner the token was minted for and the
// developer who registered the client.
func (s *AuthService) AuthenticateBearer(ctx context.Context, token string) (domain.AuthContext, error) {
	hash := cryptox.FingerprintToken(token)
	at, err := s.Store.AccessTokens().GetAccessTokenByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.AuthContext{}, ErrInvalidToken
		}
		return domain.AuthContext{}, fmt.Errorf("lookup access token: %w", err)
	}
	if at.Expired(time.Now().UTC()) {
		return domain.AuthContext{}, ErrInvalidToken
	}

	user, err := s.Store.Users().GetUserByID(ctx, at.UserID)
	if err != nil {
		return domain.AuthContext{}, fmt.Errorf("lookup token user: %w", err)
	}
	client, err := s.Store.Clients().GetClientByID(ctx, at.ClientID)
	if err != nil {
		return domain.AuthContext{}, fmt.Errorf("lookup token client: %w", err)
	}
	developer, err := s.Store.Users().GetUserByID(ctx, client.OwnerID)
	if err != nil {
		return domain.AuthContext{}, fmt.Errorf("lookup client owner: %w", err)
	}

	return domain.AuthContext{
		Method:    domain.AuthMethodOAuth2,
		User:      &user,
		Developer: &developer,
		Client:    &client,
	}, nil
}

// AuthenticateAPIKey resolves an opaque client API token. Only the
// developer identity is populated; there is no end user behind the request.
func (s *AuthService) AuthenticateAPIKey(ctx context.Context, key string) (domain.AuthContext, error) {
	hash := cryptox.FingerprintToken(key)
	client, err := s.Store.Clients().GetClientByAPIKeyHash(ctx, hash)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.AuthContext{}, ErrInvalidToken
		}
		return domain.AuthContext{}, fmt.Errorf("lookup client by key: %w", err)
	}
	developer, err := s.Store.Users().GetUserByID(ctx, client.OwnerID)
	if err != nil {
		return domain.AuthContext{}, fmt.Errorf("lookup client owner: %w", err)
	}

	return domain.AuthContext{
		Method:    domain.AuthMethodToken,
		Developer: &developer,
		Client:    &client,
	}, nil
}

// AuthenticateSession resolves a signed session cookie. Only the user
// identity is populated; no API client is involved.
func (s *AuthService) AuthenticateSession(ctx context.Context, cookie string) (domain.AuthContext, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(cookie, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return s.SessionSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || claims.Subject == "" {
		return domain.AuthContext{}, ErrInvalidToken
	}

	user, err := s.Store.Users().GetUserByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.AuthContext{}, ErrInvalidToken
		}
		return domain.AuthContext{}, fmt.Errorf("lookup session user: %w", err)
	}

	return domain.AuthContext{
		Method: domain.AuthMethodSession,
		User:   &user,
	}, nil
}
