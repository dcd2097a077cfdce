package domain

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/gosimple/slug"
)

// Processing and moderation states. Upload ingestion creates sounds pending
// on both and never mutates them afterwards.
const (
	ProcessingPending = "PE"
	ProcessingOK      = "OK"
	ProcessingFailed  = "FA"

	ModerationPending = "PE"
	ModerationOK      = "OK"
)

// Sound is the domain entity for an uploaded audio asset.
type Sound struct {
	ID               string
	UserID           string
	OriginalFilename string
	Path             string // staging path until the canonical move completes
	Filesize         int64
	Type             string // detected sound type, e.g. "wav"
	MD5              string // content hash, unique across all sounds
	LicenseID        string
	PackID           *string
	GeoTagID         *string
	Description      string
	Tags             []string
	ProcessingState  string
	ModerationState  string
	NumDownloads     int64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// BaseFilenameSlug builds the canonical filename stem from the sound's own
// identifier plus slugified owner and original name (extension stripped).
func (s Sound) BaseFilenameSlug(username string) string {
	base := strings.TrimSuffix(s.OriginalFilename, filepath.Ext(s.OriginalFilename))
	return fmt.Sprintf("%s__%s__%s", s.ID, slug.Make(username), slug.Make(base))
}

// CanonicalPath derives the permanent storage location of the sound under
// root. The original extension is re-attached by path construction.
func (s Sound) CanonicalPath(root, username string) string {
	ext := strings.ToLower(filepath.Ext(s.OriginalFilename))
	return filepath.Join(root, s.UserID, s.BaseFilenameSlug(username)+ext)
}
