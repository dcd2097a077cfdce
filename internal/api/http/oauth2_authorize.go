package http

import (
	"embed"
	"errors"
	"html/template"
	"net/http"
	"strings"

	"github.com/wavecommons/soundvault/internal/api/store"
	"github.com/wavecommons/soundvault/pkg/oauth2x"
	"github.com/wavecommons/soundvault/pkg/slogx"
)

//go:embed templates/*.html
var templateFS embed.FS

var authorizeTemplates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// Template variants for the authorization page. The full variant lists the
// requested scopes; the minimal one only names the client.
const (
	TemplateVariantFull    = "full"
	TemplateVariantMinimal = "minimal"
)

// AuthorizeHandler serves GET /v1/oauth2/authorize: the consent page shown
// when a client sends the user's browser over to approve access.
type AuthorizeHandler struct {
	Store           store.Store
	TemplateVariant string
}

type authorizePage struct {
	ClientName string
	Scopes     []string
	State      string
}

func (h *AuthorizeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)
	query := r.URL.Query()

	clientID := strings.TrimSpace(query.Get("client_id"))
	if clientID == "" {
		oauth2x.ErrInvalidRequest.WriteError(w)
		return
	}

	client, err := h.Store.Clients().GetClientByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			oauth2x.ErrInvalidClient.WriteError(w)
			return
		}
		log.Error("authorize client lookup failed", "err", err)
		oauth2x.ErrServerError.WriteError(w)
		return
	}

	page := authorizePage{
		ClientName: client.Name,
		Scopes:     client.Scopes,
		State:      query.Get("state"),
	}

	name := "authorize_full.html"
	if h.TemplateVariant == TemplateVariantMinimal {
		name = "authorize_minimal.html"
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := authorizeTemplates.ExecuteTemplate(w, name, page); err != nil {
		log.Error("authorize template render failed", "err", err)
	}
}
