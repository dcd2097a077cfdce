package domain

import "time"

// TokenPair is what the token endpoint returns: the opaque access token and
// the opaque refresh token able to renew it.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    time.Duration // until access token expiry
	Scope        string        // space-delimited
}

// AccessToken models the stored access token record. The opaque value is
// never persisted; TokenHash is its SHA-256 fingerprint.
type AccessToken struct {
	ID        string
	UserID    string
	ClientID  string
	TokenHash string
	Scopes    []string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the token is past its expiry at the given time.
func (t AccessToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// RefreshToken models the stored refresh token record. Each refresh token is
// bound one-to-one to the access token it can renew; deleting the access
// token row cascades to this record.
type RefreshToken struct {
	ID            string
	UserID        string
	ClientID      string
	AccessTokenID string
	TokenHash     string
	CreatedAt     time.Time
}
