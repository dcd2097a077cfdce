package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wavecommons/soundvault/internal/api/domain"
	"github.com/wavecommons/soundvault/internal/api/store"
	"github.com/wavecommons/soundvault/pkg/cryptox"
	"github.com/wavecommons/soundvault/pkg/idx"
)

var (
	// ErrInvalidClient covers unknown clients, bad client secrets and
	// refresh tokens presented by a client that did not mint them.
	ErrInvalidClient = errors.New("service: invalid client")

	// ErrUnsupportedGrantType is returned when a client asks for the
	// password grant without having it enabled.
	ErrUnsupportedGrantType = errors.New("service: unsupported grant type")

	// ErrInvalidCredentials means the username/password pair did not match.
	ErrInvalidCredentials = errors.New("service: invalid credentials")

	// ErrInvalidRefresh means the presented refresh token is unknown,
	// already rotated, or already invalidated.
	ErrInvalidRefresh = errors.New("service: invalid refresh token")
)

// ValidationError carries per-field messages for malformed grant requests.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for k, v := range e.Fields {
		parts = append(parts, k+": "+v)
	}
	return "service: validation failed (" + strings.Join(parts, "; ") + ")"
}

// TokenService mints and rotates OAuth2 token pairs.
type TokenService struct {
	Store     store.Store
	AccessTTL time.Duration
}

// PasswordGrant exchanges resource-owner credentials for a token pair.
// Only clients explicitly flagged for it may use this grant; everyone else
// gets ErrUnsupportedGrantType regardless of credential validity.
func (s *TokenService) PasswordGrant(ctx context.Context, clientID, clientSecret, username, password string, requestedScopes []string) (domain.TokenPair, error) {
	client, err := s.authenticateClient(ctx, clientID, clientSecret)
	if err != nil {
		return domain.TokenPair{}, err
	}
	if !client.AllowPasswordGrant {
		return domain.TokenPair{}, ErrUnsupportedGrantType
	}

	fields := map[string]string{}
	if username == "" {
		fields["username"] = "This field is required."
	}
	if password == "" {
		fields["password"] = "This field is required."
	}
	if len(fields) > 0 {
		return domain.TokenPair{}, &ValidationError{Fields: fields}
	}

	user, err := s.Store.Users().GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.TokenPair{}, ErrInvalidCredentials
		}
		return domain.TokenPair{}, fmt.Errorf("lookup user: %w", err)
	}
	if err := cryptox.VerifyPassword(password, user.PasswordHash); err != nil {
		return domain.TokenPair{}, ErrInvalidCredentials
	}

	scopes := filterScopes(requestedScopes, client.Scopes)
	return s.issuePair(ctx, s.Store, user.ID, client.ID, scopes)
}

// RefreshGrant rotates a token pair. The old access token is deleted first
// (the schema cascades that delete to its refresh token), the presented
// refresh token record is removed, and a fresh pair is minted carrying the
// old scope re-filtered against the client's current allowance. All of it
// happens in one transaction so a crash never leaves a half-rotated pair.
func (s *TokenService) RefreshGrant(ctx context.Context, clientID, clientSecret, refreshToken string) (domain.TokenPair, error) {
	client, err := s.authenticateClient(ctx, clientID, clientSecret)
	if err != nil {
		return domain.TokenPair{}, err
	}

	hash := cryptox.FingerprintToken(refreshToken)
	rt, err := s.Store.RefreshTokens().GetRefreshTokenByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.TokenPair{}, ErrInvalidRefresh
		}
		return domain.TokenPair{}, fmt.Errorf("lookup refresh token: %w", err)
	}
	if rt.ClientID != client.ID {
		return domain.TokenPair{}, ErrInvalidClient
	}

	old, err := s.Store.AccessTokens().GetAccessTokenByID(ctx, rt.AccessTokenID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return domain.TokenPair{}, fmt.Errorf("lookup access token: %w", err)
	}
	scopes := intersectScopes(old.Scopes, client.Scopes)

	var pair domain.TokenPair
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.AccessTokens().DeleteAccessToken(ctx, rt.AccessTokenID); err != nil {
			return fmt.Errorf("delete access token: %w", err)
		}
		if err := tx.RefreshTokens().DeleteRefreshToken(ctx, rt.ID); err != nil {
			return fmt.Errorf("delete refresh token: %w", err)
		}
		p, err := s.issuePair(ctx, tx, rt.UserID, client.ID, scopes)
		if err != nil {
			return err
		}
		pair = p
		return nil
	})
	if err != nil {
		return domain.TokenPair{}, err
	}
	return pair, nil
}

func (s *TokenService) authenticateClient(ctx context.Context, clientID, clientSecret string) (domain.Client, error) {
	client, err := s.Store.Clients().GetClientByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Client{}, ErrInvalidClient
		}
		return domain.Client{}, fmt.Errorf("lookup client: %w", err)
	}
	if client.SecretHash != "" {
		if err := cryptox.VerifyPassword(clientSecret, client.SecretHash); err != nil {
			return domain.Client{}, ErrInvalidClient
		}
	}
	return client, nil
}

// issuePair mints a new opaque access/refresh pair against st, which is
// either the root store or a transaction during rotation.
func (s *TokenService) issuePair(ctx context.Context, st store.Store, userID, clientID string, scopes []string) (domain.TokenPair, error) {
	access, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("generate access token: %w", err)
	}
	refresh, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("generate refresh token: %w", err)
	}

	now := time.Now().UTC()
	at := domain.AccessToken{
		ID:        idx.New().String(),
		UserID:    userID,
		ClientID:  clientID,
		TokenHash: cryptox.FingerprintToken(access),
		Scopes:    scopes,
		ExpiresAt: now.Add(s.AccessTTL),
	}
	if err := st.AccessTokens().CreateAccessToken(ctx, at); err != nil {
		return domain.TokenPair{}, fmt.Errorf("store access token: %w", err)
	}
	rt := domain.RefreshToken{
		ID:            idx.New().String(),
		UserID:        userID,
		ClientID:      clientID,
		AccessTokenID: at.ID,
		TokenHash:     cryptox.FingerprintToken(refresh),
	}
	if err := st.RefreshTokens().CreateRefreshToken(ctx, rt); err != nil {
		return domain.TokenPair{}, fmt.Errorf("store refresh token: %w", err)
	}

	return domain.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    s.AccessTTL,
		Scope:        strings.Join(scopes, " "),
	}, nil
}

// filterScopes intersects the requested scope names with what the client is
// allowed, preserving the client's ordering. An empty request means the
// client's full allowance; an empty intersection silently narrows to none.
func filterScopes(requested, allowed []string) []string {
	if len(requested) == 0 {
		out := make([]string, len(allowed))
		copy(out, allowed)
		return out
	}
	return intersectScopes(requested, allowed)
}

// intersectScopes is the exact intersection: an empty held set stays empty.
// Rotation uses this so a refresh can never widen a token's scope.
func intersectScopes(held, allowed []string) []string {
	want := make(map[string]bool, len(held))
	for _, s := range held {
		want[s] = true
	}
	var out []string
	for _, s := range allowed {
		if want[s] {
			out = append(out, s)
		}
	}
	return out
}
