package sqlite

import (
	"context"
	"time"

	"github.com/wavecommons/soundvault/internal/api/domain"
)

type geoTagsRepo struct {
	db dbtx
}

func (r *geoTagsRepo) CreateGeoTag(ctx context.Context, g domain.GeoTag) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO geotags (id, user_id, lat, lon, zoom, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		g.ID, g.UserID, g.Lat, g.Lon, g.Zoom, time.Now().UTC())
	return mapConstraint(err)
}

func (r *geoTagsRepo) GetGeoTagByID(ctx context.Context, id string) (domain.GeoTag, error) {
	var g domain.GeoTag
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, lat, lon, zoom, created_at FROM geotags WHERE id = ?`, id).
		Scan(&g.ID, &g.UserID, &g.Lat, &g.Lon, &g.Zoom, &g.CreatedAt)
	if err != nil {
		return domain.GeoTag{}, mapNotFound(err)
	}
	return g, nil
}
