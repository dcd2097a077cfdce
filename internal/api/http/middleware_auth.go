package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/wavecommons/soundvault/internal/api/domain"
	"github.com/wavecommons/soundvault/internal/api/service"
	"github.com/wavecommons/soundvault/pkg/httpx"
	"github.com/wavecommons/soundvault/pkg/oauth2x"
	"github.com/wavecommons/soundvault/pkg/slogx"
)

const sessionCookieName = "sessionid"

type authContextKey struct{}

// WithAuthContext stores the resolved authentication context on ctx.
func WithAuthContext(ctx context.Context, actx domain.AuthContext) context.Context {
	return context.WithValue(ctx, authContextKey{}, actx)
}

// AuthContextFrom returns the resolved context; anonymous when resolution
// never ran or nothing authenticated.
func AuthContextFrom(ctx context.Context) domain.AuthContext {
	if actx, ok := ctx.Value(authContextKey{}).(domain.AuthContext); ok {
		return actx
	}
	return domain.AuthContext{}
}

// ResolveAuth resolves request credentials once per request, in strategy
// order: OAuth2 bearer token, opaque API token, session cookie. Explicitly
// presented header credentials that fail to verify reject the request;
// a bad or stale session cookie just leaves the request anonymous.
func ResolveAuth(auth *service.AuthService) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actx, ok := resolve(auth, r)
			if !ok {
				oauth2x.ErrInvalidToken.WriteError(w)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithAuthContext(r.Context(), actx)))
		})
	}
}

func resolve(auth *service.AuthService, r *http.Request) (domain.AuthContext, bool) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	if header := r.Header.Get("Authorization"); header != "" {
		scheme, credential, found := strings.Cut(header, " ")
		if !found {
			return domain.AuthContext{}, false
		}
		switch strings.ToLower(scheme) {
		case "bearer":
			actx, err := auth.AuthenticateBearer(ctx, strings.TrimSpace(credential))
			if err != nil {
				if !errors.Is(err, service.ErrInvalidToken) {
					log.Error("bearer authentication failed", "err", err)
				}
				return domain.AuthContext{}, false
			}
			return actx, true
		case "token":
			actx, err := auth.AuthenticateAPIKey(ctx, strings.TrimSpace(credential))
			if err != nil {
				if !errors.Is(err, service.ErrInvalidToken) {
					log.Error("api token authentication failed", "err", err)
				}
				return domain.AuthContext{}, false
			}
			return actx, true
		default:
			return domain.AuthContext{}, false
		}
	}

	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		actx, err := auth.AuthenticateSession(ctx, cookie.Value)
		if err == nil {
			return actx, true
		}
		if !errors.Is(err, service.ErrInvalidToken) {
			log.Error("session authentication failed", "err", err)
		}
	}

	return domain.AuthContext{}, true
}

// RequireAccount rejects requests that resolved no user identity.
func RequireAccount(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if AuthContextFrom(r.Context()).User == nil {
			oauth2x.ErrUnauthorized.WriteError(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireWriteScope gates write endpoints. Only OAuth2-authenticated
// requests are checked against the client's scope allowance; token and
// session authentication pass through untouched.
func RequireWriteScope(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actx := AuthContextFrom(r.Context())
		if actx.Method == domain.AuthMethodOAuth2 && !actx.Client.HasScope("write") {
			oauth2x.ErrUnauthorized.WriteError(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}
