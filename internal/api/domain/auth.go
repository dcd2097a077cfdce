package domain

// Authentication method names, one per interchangeable strategy.
const (
	AuthMethodOAuth2  = "OAuth2"
	AuthMethodToken   = "Token"
	AuthMethodSession = "Session"
)

// AuthContext records which authentication strategy succeeded for a request
// and the two identities derived from it. User is the resource owner
// (OAuth2 and Session); Developer is the account that registered the API
// client (OAuth2 and Token). An anonymous request leaves everything empty.
type AuthContext struct {
	Method    string
	User      *User
	Developer *User
	Client    *Client // resolved API client, when the strategy involves one
}

// Anonymous reports whether no strategy succeeded.
func (a AuthContext) Anonymous() bool { return a.Method == "" }
