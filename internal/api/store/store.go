package store

import (
	"context"
	"errors"
	"time"

	"github.com/wavecommons/soundvault/internal/api/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite for
// now) implement this. It exposes sub-repositories to keep concerns tidy
// and testable.
type Store interface {
	Users() Users
	Clients() Clients
	AccessTokens() AccessTokens
	RefreshTokens() RefreshTokens
	Licenses() Licenses
	Packs() Packs
	GeoTags() GeoTags
	Sounds() Sounds

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction: rolled back when fn errors,
	// committed otherwise. Preferred over Tx for multi-step operations that
	// must be atomic (e.g. refresh token rotation).
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos plus Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByUsername is used during the password grant.
	GetUserByUsername(ctx context.Context, username string) (domain.User, error)

	// CreateUser inserts a new user (id is app-provided ULID).
	CreateUser(ctx context.Context, u domain.User) error
}

type Clients interface {
	// GetClientByID fetches a client for grant handling.
	GetClientByID(ctx context.Context, id string) (domain.Client, error)

	// GetClientByAPIKeyHash resolves the plain-token authentication strategy.
	GetClientByAPIKeyHash(ctx context.Context, hash string) (domain.Client, error)

	// CreateClient inserts a new client (secret hash may be empty for
	// public clients).
	CreateClient(ctx context.Context, c domain.Client) error
}

type AccessTokens interface {
	// CreateAccessToken stores a new access token record.
	CreateAccessToken(ctx context.Context, t domain.AccessToken) error

	// GetAccessTokenByHash returns the token by its fingerprint.
	GetAccessTokenByHash(ctx context.Context, hash string) (domain.AccessToken, error)

	// GetAccessTokenByID returns the token by id; refresh rotation reads
	// the outgoing token's scope through this before deleting it.
	GetAccessTokenByID(ctx context.Context, id string) (domain.AccessToken, error)

	// DeleteAccessToken removes the record; the schema cascades the delete
	// to the refresh token bound to it.
	DeleteAccessToken(ctx context.Context, id string) error

	// DeleteExpiredAccessTokens is housekeeping.
	DeleteExpiredAccessTokens(ctx context.Context, now time.Time) error
}

type RefreshTokens interface {
	// CreateRefreshToken stores a new refresh token record.
	CreateRefreshToken(ctx context.Context, t domain.RefreshToken) error

	// GetRefreshTokenByHash returns the record by its fingerprint.
	GetRefreshTokenByHash(ctx context.Context, hash string) (domain.RefreshToken, error)

	// DeleteRefreshToken removes the record during rotation.
	DeleteRefreshToken(ctx context.Context, id string) error
}

type Licenses interface {
	// GetLicenseByName resolves a license reference during ingestion.
	GetLicenseByName(ctx context.Context, name string) (domain.License, error)

	// ListLicenses returns all licenses ordered by name.
	ListLicenses(ctx context.Context) ([]domain.License, error)
}

type Packs interface {
	// CreatePack inserts a new pack. Returns ErrAlreadyExists when the
	// (user, name) pair is taken; callers re-fetch and reuse on conflict.
	CreatePack(ctx context.Context, p domain.Pack) error

	// GetPackByUserAndName looks a pack up by its natural key.
	GetPackByUserAndName(ctx context.Context, userID, name string) (domain.Pack, error)
}

type GeoTags interface {
	// CreateGeoTag stores a geotag record.
	CreateGeoTag(ctx context.Context, g domain.GeoTag) error

	// GetGeoTagByID returns a geotag by id.
	GetGeoTagByID(ctx context.Context, id string) (domain.GeoTag, error)
}

type Sounds interface {
	// CreateSound inserts the provisional record. Returns ErrAlreadyExists
	// when another sound holds the same content hash.
	CreateSound(ctx context.Context, s domain.Sound) error

	// GetSoundByID returns a sound with its tags loaded.
	GetSoundByID(ctx context.Context, id string) (domain.Sound, error)

	// ExistsByMD5 reports whether any sound shares the content hash.
	ExistsByMD5(ctx context.Context, md5 string) (bool, error)

	// UpdateSoundPath persists the canonical path after the file move.
	UpdateSoundPath(ctx context.Context, id, path string) error

	// UpdateSoundDetails persists pack/geotag attachments and description.
	UpdateSoundDetails(ctx context.Context, s domain.Sound) error

	// SetSoundTags replaces the sound's tag set. Duplicates are collapsed
	// by the tag table's uniqueness constraint.
	SetSoundTags(ctx context.Context, soundID string, tags []string) error

	// ListSounds returns sounds newest first.
	ListSounds(ctx context.Context, limit, offset int) ([]domain.Sound, error)

	// CountSounds returns the total number of sounds, for paging.
	CountSounds(ctx context.Context) (int, error)

	// IncrementDownloads bumps the download counter.
	IncrementDownloads(ctx context.Context, id string) error

	// ListMisplaced returns sounds whose persisted path never reached the
	// canonical location (a failed move left them in staging). Observed by
	// housekeeping, never mutated.
	ListMisplaced(ctx context.Context, stagingRoot string) ([]domain.Sound, error)
}
