package sqlite

import (
	"context"

	"github.com/wavecommons/soundvault/internal/api/domain"
)

type licensesRepo struct {
	db dbtx
}

func (r *licensesRepo) GetLicenseByName(ctx context.Context, name string) (domain.License, error) {
	var l domain.License
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, summary FROM licenses WHERE name = ?`, name).
		Scan(&l.ID, &l.Name, &l.Summary)
	if err != nil {
		return domain.License{}, mapNotFound(err)
	}
	return l, nil
}

func (r *licensesRepo) ListLicenses(ctx context.Context) ([]domain.License, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, summary FROM licenses ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.License
	for rows.Next() {
		var l domain.License
		if err := rows.Scan(&l.ID, &l.Name, &l.Summary); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
