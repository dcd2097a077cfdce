package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/wavecommons/soundvault/internal/api/domain"
	"github.com/wavecommons/soundvault/internal/api/store"
	"github.com/wavecommons/soundvault/pkg/audiox"
	"github.com/wavecommons/soundvault/pkg/idx"
	"github.com/wavecommons/soundvault/pkg/slogx"
)

var (
	// ErrDuplicateSound means the uploaded bytes already exist as another
	// sound. The staged file is removed before this is returned.
	ErrDuplicateSound = errors.New("service: duplicate sound content")

	// ErrLicenseNotFound means the referenced license name is unknown.
	ErrLicenseNotFound = errors.New("service: license not found")

	// ErrMalformedGeotag means the geotag string is not "lat,lon,zoom".
	ErrMalformedGeotag = errors.New("service: malformed geotag")
)

// ServerError is an internal ingestion failure. Detail carries the
// underlying cause only when the service runs with DebugDetail enabled;
// otherwise it is a generic message safe to show callers.
type ServerError struct {
	Detail string
}

func (e *ServerError) Error() string { return e.Detail }

// UploadDescription is the caller-provided metadata describing a staged
// upload. UploadFilename names a file already present under the user's
// staging directory.
type UploadDescription struct {
	UploadFilename string
	Name           string
	License        string
	Pack           string
	Geotag         string
	Description    string
	Tags           string
}

// UploadService turns a staged file plus its description into a persistent
// sound record at its canonical storage location.
type UploadService struct {
	Store       store.Store
	Dispatcher  *Dispatcher
	UploadsRoot string // per-user staging directories live under here
	SoundsRoot  string // canonical storage root
	DebugDetail bool
}

// Ingest runs the full creation procedure. On success the returned sound
// sits at its canonical path, pending processing and moderation. On a
// duplicate the staged file is gone and ErrDuplicateSound comes back; on an
// internal failure the provisional record may remain with its staging path,
// to be reported by housekeeping.
func (s *UploadService) Ingest(ctx context.Context, user domain.User, desc UploadDescription) (domain.Sound, error) {
	log := slogx.FromContext(ctx)

	name := desc.Name
	if name == "" {
		name = desc.UploadFilename
	}
	srcPath := filepath.Join(s.UploadsRoot, user.ID, desc.UploadFilename)

	info, err := os.Stat(srcPath)
	if err != nil {
		return domain.Sound{}, s.serverError("stat uploaded file", err)
	}
	soundType, err := audiox.DetectType(srcPath)
	if err != nil {
		return domain.Sound{}, s.serverError("detect sound type", err)
	}
	license, err := s.Store.Licenses().GetLicenseByName(ctx, desc.License)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Sound{}, fmt.Errorf("%w: %q", ErrLicenseNotFound, desc.License)
		}
		return domain.Sound{}, s.serverError("lookup license", err)
	}

	// Parse the geotag now so a malformed one fails before any record or
	// file move happens; the row itself is created after the sound exists.
	var geotag *domain.GeoTag
	if desc.Geotag != "" {
		lat, lon, zoom, err := parseGeotag(desc.Geotag)
		if err != nil {
			return domain.Sound{}, err
		}
		geotag = &domain.GeoTag{
			UserID: user.ID,
			Lat:    lat,
			Lon:    lon,
			Zoom:   zoom,
		}
	}

	md5, err := audiox.MD5File(srcPath)
	if err != nil {
		return domain.Sound{}, s.serverError("hash uploaded file", err)
	}
	exists, err := s.Store.Sounds().ExistsByMD5(ctx, md5)
	if err != nil {
		return domain.Sound{}, s.serverError("check duplicate", err)
	}
	if exists {
		if rmErr := os.Remove(srcPath); rmErr != nil {
			log.Warn("could not remove duplicate staged file",
				slog.String("path", srcPath),
				slog.String("error", rmErr.Error()))
		}
		return domain.Sound{}, ErrDuplicateSound
	}

	sound := domain.Sound{
		ID:               idx.New().String(),
		UserID:           user.ID,
		OriginalFilename: name,
		Path:             srcPath,
		Filesize:         info.Size(),
		Type:             soundType,
		MD5:              md5,
		LicenseID:        license.ID,
		ProcessingState:  domain.ProcessingPending,
		ModerationState:  domain.ModerationPending,
	}
	if err := s.Store.Sounds().CreateSound(ctx, sound); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			// Raced another upload of identical bytes since the check.
			if rmErr := os.Remove(srcPath); rmErr != nil {
				log.Warn("could not remove duplicate staged file",
					slog.String("path", srcPath),
					slog.String("error", rmErr.Error()))
			}
			return domain.Sound{}, ErrDuplicateSound
		}
		return domain.Sound{}, s.serverError("create sound record", err)
	}

	dstPath := sound.CanonicalPath(s.SoundsRoot, user.Username)
	if dstPath != srcPath {
		// A failed MkdirAll is deliberately ignored; the move itself is
		// the authoritative failure signal.
		_ = os.MkdirAll(filepath.Dir(dstPath), 0o750)
		if err := moveFile(srcPath, dstPath); err != nil {
			return domain.Sound{}, s.serverError("move sound to canonical path", err)
		}
		if err := s.Store.Sounds().UpdateSoundPath(ctx, sound.ID, dstPath); err != nil {
			return domain.Sound{}, s.serverError("persist canonical path", err)
		}
		sound.Path = dstPath
	}

	if desc.Pack != "" {
		pack, err := s.getOrCreatePack(ctx, user.ID, desc.Pack)
		if err != nil {
			return domain.Sound{}, s.serverError("attach pack", err)
		}
		sound.PackID = &pack.ID
	}

	if geotag != nil {
		geotag.ID = idx.New().String()
		if err := s.Store.GeoTags().CreateGeoTag(ctx, *geotag); err != nil {
			return domain.Sound{}, s.serverError("attach geotag", err)
		}
		sound.GeoTagID = &geotag.ID
	}

	sound.Description = desc.Description
	sound.Tags = parseTags(desc.Tags)
	if err := s.Store.Sounds().UpdateSoundDetails(ctx, sound); err != nil {
		return domain.Sound{}, s.serverError("persist sound details", err)
	}
	if err := s.Store.Sounds().SetSoundTags(ctx, sound.ID, sound.Tags); err != nil {
		return domain.Sound{}, s.serverError("persist sound tags", err)
	}

	s.Dispatcher.Dispatch(sound)

	log.Info("sound created",
		slog.String("sound_id", sound.ID),
		slog.String("user_id", user.ID),
		slog.String("type", sound.Type),
		slog.Int64("filesize", sound.Filesize))
	return sound, nil
}

// getOrCreatePack inserts first and falls back to the existing row on a
// unique conflict, so concurrent uploads into the same new pack converge.
func (s *UploadService) getOrCreatePack(ctx context.Context, userID, name string) (domain.Pack, error) {
	pack := domain.Pack{
		ID:     idx.New().String(),
		UserID: userID,
		Name:   name,
	}
	err := s.Store.Packs().CreatePack(ctx, pack)
	if err == nil {
		return pack, nil
	}
	if !errors.Is(err, store.ErrAlreadyExists) {
		return domain.Pack{}, err
	}
	return s.Store.Packs().GetPackByUserAndName(ctx, userID, name)
}

func (s *UploadService) serverError(action string, err error) error {
	if s.DebugDetail {
		return &ServerError{Detail: fmt.Sprintf("%s: %v", action, err)}
	}
	return &ServerError{Detail: "Server error."}
}

// parseGeotag splits "lat,lon,zoom". Coordinate ranges and zoom bounds are
// intentionally not checked.
func parseGeotag(s string) (lat, lon float64, zoom int, err error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("%w: %q", ErrMalformedGeotag, s)
	}
	lat, err = strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("%w: %q", ErrMalformedGeotag, s)
	}
	lon, err = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("%w: %q", ErrMalformedGeotag, s)
	}
	zoom, err = strconv.Atoi(strings.TrimSpace(parts[2]))
	if err != nil {
		return 0, 0, 0, fmt.Errorf("%w: %q", ErrMalformedGeotag, s)
	}
	return lat, lon, zoom, nil
}

// parseTags lower-cases and whitespace-splits the raw tag string. Exact
// duplicates collapse; order of first appearance is kept.
func parseTags(raw string) []string {
	fields := strings.Fields(strings.ToLower(raw))
	seen := make(map[string]bool, len(fields))
	var out []string
	for _, f := range fields {
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	return out
}

// moveFile renames when possible and falls back to copy+remove across
// filesystem boundaries.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Remove(src)
}
