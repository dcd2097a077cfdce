package domain

import "time"

// Client is a registered API consumer. OwnerID points at the account of the
// developer who registered it; Scopes is the full set of scope names the
// client may ever be granted.
type Client struct {
	ID                 string
	OwnerID            string
	Name               string
	SecretHash         string // empty for public clients
	APIKeyHash         string // fingerprint of the opaque API token credential
	Scopes             []string
	AllowPasswordGrant bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// HasScope reports whether the client is allowed the named scope.
func (c Client) HasScope(name string) bool {
	for _, s := range c.Scopes {
		if s == name {
			return true
		}
	}
	return false
}
