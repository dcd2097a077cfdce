package sqlite

import (
	"context"
	"time"

	"github.com/wavecommons/soundvault/internal/api/domain"
)

type packsRepo struct {
	db dbtx
}

func (r *packsRepo) CreatePack(ctx context.Context, p domain.Pack) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO packs (id, user_id, name, created_at) VALUES (?, ?, ?, ?)`,
		p.ID, p.UserID, p.Name, time.Now().UTC())
	return mapConstraint(err)
}

func (r *packsRepo) GetPackByUserAndName(ctx context.Context, userID, name string) (domain.Pack, error) {
	var p domain.Pack
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, created_at FROM packs WHERE user_id = ? AND name = ?`,
		userID, name).
		Scan(&p.ID, &p.UserID, &p.Name, &p.CreatedAt)
	if err != nil {
		return domain.Pack{}, mapNotFound(err)
	}
	return p, nil
}
