package http

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/wavecommons/soundvault/internal/api/service"
	"github.com/wavecommons/soundvault/pkg/httpx"
	"github.com/wavecommons/soundvault/pkg/oauth2x"
	"github.com/wavecommons/soundvault/pkg/slogx"
)

// TokenHandler serves POST /v1/oauth2/token
// Accepts application/x-www-form-urlencoded per the RFC 6749 framework.
type TokenHandler struct {
	TokenService *service.TokenService
}

func (h *TokenHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// 1. Ensure the right content-type
	if ct := r.Header.Get("Content-Type"); ct != "" &&
		!strings.HasPrefix(ct, "application/x-www-form-urlencoded") {
		oauth2x.ErrInvalidContentType.WriteError(w)
		return
	}

	// 2. Parse the form body
	if err := r.ParseForm(); err != nil {
		oauth2x.ErrInvalidFormBody.WriteError(w)
		return
	}

	// 3. Handle the grant type
	switch r.Form.Get("grant_type") {
	case "password":
		h.handlePasswordGrant(w, r, r.Form)
	case "refresh_token":
		h.handleRefreshGrant(w, r, r.Form)
	default:
		oauth2x.ErrUnsupportedGrantType.WriteError(w)
	}
}

func (h *TokenHandler) handlePasswordGrant(
	w http.ResponseWriter,
	r *http.Request,
	form url.Values,
) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	clientID := strings.TrimSpace(form.Get("client_id"))
	clientSecret := form.Get("client_secret")
	username := strings.TrimSpace(form.Get("username"))
	password := form.Get("password")
	scopes := httpx.ParseSpaceDelimitedFields(form.Get("scope"))

	if clientID == "" {
		oauth2x.ErrInvalidRequest.WriteError(w)
		return
	}

	pair, err := h.TokenService.PasswordGrant(ctx, clientID, clientSecret, username, password, scopes)
	if err != nil {
		var verr *service.ValidationError
		switch {
		case errors.Is(err, service.ErrInvalidClient):
			oauth2x.ErrInvalidClient.WriteError(w)
		case errors.Is(err, service.ErrUnsupportedGrantType):
			oauth2x.ErrUnsupportedGrantType.WriteError(w)
		case errors.Is(err, service.ErrInvalidCredentials):
			oauth2x.ErrInvalidGrant.WriteError(w)
		case errors.As(err, &verr):
			e := oauth2x.NewError(http.StatusBadRequest, "invalid_grant", "request validation failed")
			e.Fields = verr.Fields
			e.WriteError(w)
		default:
			log.Error("password grant failed", "err", err)
			oauth2x.ErrServerError.WriteError(w)
		}
		return
	}

	writeTokenResponse(w, pair)
}

func (h *TokenHandler) handleRefreshGrant(
	w http.ResponseWriter,
	r *http.Request,
	form url.Values,
) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	clientID := strings.TrimSpace(form.Get("client_id"))
	clientSecret := form.Get("client_secret")
	refreshToken := strings.TrimSpace(form.Get("refresh_token"))

	if clientID == "" || refreshToken == "" {
		oauth2x.ErrInvalidRequest.WriteError(w)
		return
	}

	pair, err := h.TokenService.RefreshGrant(ctx, clientID, clientSecret, refreshToken)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidClient):
			oauth2x.ErrInvalidClient.WriteError(w)
		case errors.Is(err, service.ErrInvalidRefresh):
			oauth2x.ErrInvalidGrant.WriteError(w)
		default:
			log.Error("refresh_token grant failed", "err", err)
			oauth2x.ErrServerError.WriteError(w)
		}
		return
	}

	writeTokenResponse(w, pair)
}
