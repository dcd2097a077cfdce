package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/wavecommons/soundvault/internal/api/domain"
)

type clientsRepo struct {
	db dbtx
}

const clientColumns = `id, owner_id, name, secret_hash, api_key_hash, scopes,
	allow_password_grant, created_at, updated_at`

func scanClient(row interface{ Scan(...any) error }) (domain.Client, error) {
	var (
		c          domain.Client
		secretHash sql.NullString
		scopes     string
	)
	err := row.Scan(&c.ID, &c.OwnerID, &c.Name, &secretHash, &c.APIKeyHash,
		&scopes, &c.AllowPasswordGrant, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return domain.Client{}, err
	}
	c.SecretHash = mapNullString(secretHash)
	c.Scopes = splitScopes(scopes)
	return c, nil
}

func (r *clientsRepo) GetClientByID(ctx context.Context, id string) (domain.Client, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+clientColumns+` FROM clients WHERE id = ?`, id)
	c, err := scanClient(row)
	if err != nil {
		return domain.Client{}, mapNotFound(err)
	}
	return c, nil
}

func (r *clientsRepo) GetClientByAPIKeyHash(ctx context.Context, hash string) (domain.Client, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+clientColumns+` FROM clients WHERE api_key_hash = ?`, hash)
	c, err := scanClient(row)
	if err != nil {
		return domain.Client{}, mapNotFound(err)
	}
	return c, nil
}

func (r *clientsRepo) CreateClient(ctx context.Context, c domain.Client) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO clients (id, owner_id, name, secret_hash, api_key_hash,
		 scopes, allow_password_grant, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.OwnerID, c.Name, mapStringNull(c.SecretHash), c.APIKeyHash,
		joinScopes(c.Scopes), c.AllowPasswordGrant, now, now)
	return mapConstraint(err)
}
