package sqlite

import (
	"context"
	"time"

	"github.com/wavecommons/soundvault/internal/api/domain"
)

type accessTokensRepo struct {
	db dbtx
}

func (r *accessTokensRepo) CreateAccessToken(ctx context.Context, t domain.AccessToken) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO access_tokens (id, user_id, client_id, token_hash, scopes, expires_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.ClientID, t.TokenHash, joinScopes(t.Scopes),
		t.ExpiresAt.UTC(), time.Now().UTC())
	return mapConstraint(err)
}

func (r *accessTokensRepo) GetAccessTokenByHash(ctx context.Context, hash string) (domain.AccessToken, error) {
	var (
		t      domain.AccessToken
		scopes string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, client_id, token_hash, scopes, expires_at, created_at
		 FROM access_tokens WHERE token_hash = ?`, hash).
		Scan(&t.ID, &t.UserID, &t.ClientID, &t.TokenHash, &scopes, &t.ExpiresAt, &t.CreatedAt)
	if err != nil {
		return domain.AccessToken{}, mapNotFound(err)
	}
	t.Scopes = splitScopes(scopes)
	return t, nil
}

func (r *accessTokensRepo) GetAccessTokenByID(ctx context.Context, id string) (domain.AccessToken, error) {
	var (
		t      domain.AccessToken
		scopes string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, client_id, token_hash, scopes, expires_at, created_at
		 FROM access_tokens WHERE id = ?`, id).
		Scan(&t.ID, &t.UserID, &t.ClientID, &t.TokenHash, &scopes, &t.ExpiresAt, &t.CreatedAt)
	if err != nil {
		return domain.AccessToken{}, mapNotFound(err)
	}
	t.Scopes = splitScopes(scopes)
	return t, nil
}

func (r *accessTokensRepo) DeleteAccessToken(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM access_tokens WHERE id = ?`, id)
	return err
}

func (r *accessTokensRepo) DeleteExpiredAccessTokens(ctx context.Context, now time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM access_tokens WHERE expires_at < ?`, now.UTC())
	return err
}

type refreshTokensRepo struct {
	db dbtx
}

func (r *refreshTokensRepo) CreateRefreshToken(ctx context.Context, t domain.RefreshToken) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO refresh_tokens (id, user_id, client_id, access_token_id, token_hash, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.ClientID, t.AccessTokenID, t.TokenHash, time.Now().UTC())
	return mapConstraint(err)
}

func (r *refreshTokensRepo) GetRefreshTokenByHash(ctx context.Context, hash string) (domain.RefreshToken, error) {
	var t domain.RefreshToken
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, client_id, access_token_id, token_hash, created_at
		 FROM refresh_tokens WHERE token_hash = ?`, hash).
		Scan(&t.ID, &t.UserID, &t.ClientID, &t.AccessTokenID, &t.TokenHash, &t.CreatedAt)
	if err != nil {
		return domain.RefreshToken{}, mapNotFound(err)
	}
	return t, nil
}

func (r *refreshTokensRepo) DeleteRefreshToken(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE id = ?`, id)
	return err
}
