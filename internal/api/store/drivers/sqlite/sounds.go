package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/wavecommons/soundvault/internal/api/domain"
)

type soundsRepo struct {
	db dbtx
}

const soundColumns = `id, user_id, original_filename, path, filesize, type, md5,
	license_id, pack_id, geotag_id, description, processing_state,
	moderation_state, num_downloads, created_at, updated_at`

func scanSound(row interface{ Scan(...any) error }) (domain.Sound, error) {
	var (
		s        domain.Sound
		packID   sql.NullString
		geotagID sql.NullString
	)
	err := row.Scan(&s.ID, &s.UserID, &s.OriginalFilename, &s.Path, &s.Filesize,
		&s.Type, &s.MD5, &s.LicenseID, &packID, &geotagID, &s.Description,
		&s.ProcessingState, &s.ModerationState, &s.NumDownloads,
		&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return domain.Sound{}, err
	}
	s.PackID = mapNullStringPtr(packID)
	s.GeoTagID = mapNullStringPtr(geotagID)
	return s, nil
}

func (r *soundsRepo) CreateSound(ctx context.Context, s domain.Sound) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sounds (id, user_id, original_filename, path, filesize, type,
		 md5, license_id, pack_id, geotag_id, description, processing_state,
		 moderation_state, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.UserID, s.OriginalFilename, s.Path, s.Filesize, s.Type,
		s.MD5, s.LicenseID, mapOptionalString(s.PackID), mapOptionalString(s.GeoTagID),
		s.Description, s.ProcessingState, s.ModerationState, now, now)
	return mapConstraint(err)
}

func (r *soundsRepo) GetSoundByID(ctx context.Context, id string) (domain.Sound, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+soundColumns+` FROM sounds WHERE id = ?`, id)
	s, err := scanSound(row)
	if err != nil {
		return domain.Sound{}, mapNotFound(err)
	}

	tags, err := r.tagsFor(ctx, id)
	if err != nil {
		return domain.Sound{}, err
	}
	s.Tags = tags
	return s, nil
}

func (r *soundsRepo) ExistsByMD5(ctx context.Context, md5 string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM sounds WHERE md5 = ?`, md5).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *soundsRepo) UpdateSoundPath(ctx context.Context, id, path string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE sounds SET path = ?, updated_at = ? WHERE id = ?`,
		path, time.Now().UTC(), id)
	return err
}

func (r *soundsRepo) UpdateSoundDetails(ctx context.Context, s domain.Sound) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE sounds SET pack_id = ?, geotag_id = ?, description = ?, updated_at = ?
		 WHERE id = ?`,
		mapOptionalString(s.PackID), mapOptionalString(s.GeoTagID),
		s.Description, time.Now().UTC(), s.ID)
	return err
}

func (r *soundsRepo) SetSoundTags(ctx context.Context, soundID string, tags []string) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM sound_tags WHERE sound_id = ?`, soundID); err != nil {
		return err
	}
	for _, tag := range tags {
		// INSERT OR IGNORE lets the UNIQUE(sound_id, tag) constraint
		// collapse duplicates instead of the caller.
		if _, err := r.db.ExecContext(ctx,
			`INSERT OR IGNORE INTO sound_tags (sound_id, tag) VALUES (?, ?)`,
			soundID, tag); err != nil {
			return err
		}
	}
	return nil
}

func (r *soundsRepo) ListSounds(ctx context.Context, limit, offset int) ([]domain.Sound, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+soundColumns+` FROM sounds ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
		limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Sound
	for rows.Next() {
		s, err := scanSound(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		tags, err := r.tagsFor(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Tags = tags
	}
	return out, nil
}

func (r *soundsRepo) CountSounds(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM sounds`).Scan(&n)
	return n, err
}

func (r *soundsRepo) IncrementDownloads(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE sounds SET num_downloads = num_downloads + 1 WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return mapNotFound(sql.ErrNoRows)
	}
	return nil
}

func (r *soundsRepo) ListMisplaced(ctx context.Context, stagingRoot string) ([]domain.Sound, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+soundColumns+` FROM sounds WHERE path LIKE ? ORDER BY created_at`,
		stagingRoot+"%")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Sound
	for rows.Next() {
		s, err := scanSound(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *soundsRepo) tagsFor(ctx context.Context, soundID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT tag FROM sound_tags WHERE sound_id = ? ORDER BY tag`, soundID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tags []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}
