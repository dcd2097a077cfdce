package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"mime"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/wavecommons/soundvault/internal/api/domain"
	"github.com/wavecommons/soundvault/internal/api/service"
	"github.com/wavecommons/soundvault/internal/api/store"
	"github.com/wavecommons/soundvault/internal/api/store/drivers/sqlite"
	"github.com/wavecommons/soundvault/pkg/cryptox"
	"github.com/wavecommons/soundvault/pkg/idx"
)

type fixture struct {
	store  store.Store
	router *Router
	user   domain.User
	owner  domain.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cryptox.SetPepperPath(filepath.Join(t.TempDir(), "pepper"))

	st, err := sqlite.NewStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	logger := slog.New(slog.DiscardHandler)

	owner := seedUser(t, st, "devaccount", "owner-pass")
	user := seedUser(t, st, "alice", "alice-pass")

	router := NewRouter("test", TemplateVariantFull, st, logger)
	router.TokenService = &service.TokenService{Store: st, AccessTTL: time.Hour}
	router.AuthService = &service.AuthService{Store: st, SessionSecret: []byte("session-secret")}
	router.SoundService = &service.SoundService{Store: st}
	router.UploadService = &service.UploadService{
		Store:       st,
		Dispatcher:  service.NewDispatcher(&service.LoggingProcessor{Logger: logger}, logger),
		UploadsRoot: t.TempDir(),
		SoundsRoot:  t.TempDir(),
	}
	router.ApplyRoutes()

	return &fixture{store: st, router: router, user: user, owner: owner}
}

func seedUser(t *testing.T, st store.Store, username, password string) domain.User {
	t.Helper()
	hash, err := cryptox.HashPassword(password)
	require.NoError(t, err)
	u := domain.User{ID: idx.New().String(), Username: username, PasswordHash: hash}
	require.NoError(t, st.Users().CreateUser(context.Background(), u))
	return u
}

func (f *fixture) seedClient(t *testing.T, scopes []string, allowPassword bool) (domain.Client, string) {
	t.Helper()
	secret := cryptox.MustGenerateToken(cryptox.TokenSize128)
	secretHash, err := cryptox.HashPassword(secret)
	require.NoError(t, err)
	c := domain.Client{
		ID:                 idx.New().String(),
		OwnerID:            f.owner.ID,
		Name:               "Test App",
		SecretHash:         secretHash,
		APIKeyHash:         cryptox.FingerprintToken("key-" + idx.New().String()),
		Scopes:             scopes,
		AllowPasswordGrant: allowPassword,
	}
	require.NoError(t, f.store.Clients().CreateClient(context.Background(), c))
	return c, secret
}

func (f *fixture) bearerToken(t *testing.T, scopes []string) string {
	t.Helper()
	client, secret := f.seedClient(t, scopes, true)
	pair, err := f.router.TokenService.PasswordGrant(
		context.Background(), client.ID, secret, "alice", "alice-pass", nil)
	require.NoError(t, err)
	return pair.AccessToken
}

func (f *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func postForm(path string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestTokenEndpoint(t *testing.T) {
	f := newFixture(t)

	t.Run("password grant issues a pair", func(t *testing.T) {
		client, secret := f.seedClient(t, []string{"read", "write"}, true)

		rec := f.do(postForm("/v1/oauth2/token", url.Values{
			"grant_type":    {"password"},
			"client_id":     {client.ID},
			"client_secret": {secret},
			"username":      {"alice"},
			"password":      {"alice-pass"},
		}))
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

		body := rec.Body.String()
		require.Contains(t, body, `"access_token"`)
		require.Contains(t, body, `"refresh_token"`)
		require.Contains(t, body, `"token_type":"Bearer"`)
		require.Contains(t, body, `"scope":"read write"`)
	})

	t.Run("password grant is refused for flagless clients", func(t *testing.T) {
		client, secret := f.seedClient(t, []string{"read"}, false)

		rec := f.do(postForm("/v1/oauth2/token", url.Values{
			"grant_type":    {"password"},
			"client_id":     {client.ID},
			"client_secret": {secret},
			"username":      {"alice"},
			"password":      {"alice-pass"},
		}))
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Contains(t, rec.Body.String(), "unsupported_grant_type")
	})

	t.Run("unknown grant type", func(t *testing.T) {
		rec := f.do(postForm("/v1/oauth2/token", url.Values{
			"grant_type": {"authorization_code"},
		}))
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Contains(t, rec.Body.String(), "unsupported_grant_type")
	})

	t.Run("refresh grant rotates", func(t *testing.T) {
		client, secret := f.seedClient(t, []string{"read"}, true)
		pair, err := f.router.TokenService.PasswordGrant(
			context.Background(), client.ID, secret, "alice", "alice-pass", nil)
		require.NoError(t, err)

		rec := f.do(postForm("/v1/oauth2/token", url.Values{
			"grant_type":    {"refresh_token"},
			"client_id":     {client.ID},
			"client_secret": {secret},
			"refresh_token": {pair.RefreshToken},
		}))
		require.Equal(t, http.StatusOK, rec.Code)
		require.NotContains(t, rec.Body.String(), pair.AccessToken)

		// Replay of the spent refresh token fails.
		rec = f.do(postForm("/v1/oauth2/token", url.Values{
			"grant_type":    {"refresh_token"},
			"client_id":     {client.ID},
			"client_secret": {secret},
			"refresh_token": {pair.RefreshToken},
		}))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Contains(t, rec.Body.String(), "invalid_grant")
	})

	t.Run("wrong content type", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v1/oauth2/token", strings.NewReader("{}"))
		req.Header.Set("Content-Type", "application/json")
		rec := f.do(req)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestAuthorizeEndpoint(t *testing.T) {
	f := newFixture(t)
	client, _ := f.seedClient(t, []string{"read", "write"}, false)

	t.Run("renders the consent page", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet,
			"/v1/oauth2/authorize?client_id="+client.ID+"&state=xyz", nil)
		rec := f.do(req)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Contains(t, rec.Header().Get("Content-Type"), "text/html")
		require.Contains(t, rec.Body.String(), "Test App")
		require.Contains(t, rec.Body.String(), "write")
		require.Contains(t, rec.Body.String(), `value="xyz"`)
	})

	t.Run("minimal variant omits the scope list", func(t *testing.T) {
		h := &AuthorizeHandler{Store: f.store, TemplateVariant: TemplateVariantMinimal}
		req := httptest.NewRequest(http.MethodGet,
			"/v1/oauth2/authorize?client_id="+client.ID, nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		require.NotContains(t, rec.Body.String(), "<ul>")
	})

	t.Run("unknown client", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/oauth2/authorize?client_id=nope", nil)
		rec := f.do(req)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Contains(t, rec.Body.String(), "invalid_client")
	})

	t.Run("missing client_id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/oauth2/authorize", nil)
		rec := f.do(req)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestUploadEndpoint(t *testing.T) {
	f := newFixture(t)

	stage := func(t *testing.T, name, content string) {
		t.Helper()
		dir := filepath.Join(f.router.UploadService.UploadsRoot, f.user.ID)
		require.NoError(t, os.MkdirAll(dir, 0o750))
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o640))
	}

	upload := func(token, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/v1/sounds/upload", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		return f.do(req)
	}

	t.Run("anonymous requests are refused", func(t *testing.T) {
		rec := upload("", `{"upload_filename":"x.wav","license":"cc0"}`)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("oauth2 clients without write scope are refused", func(t *testing.T) {
		token := f.bearerToken(t, []string{"read"})
		rec := upload(token, `{"upload_filename":"x.wav","license":"cc0"}`)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("write-scoped upload succeeds", func(t *testing.T) {
		stage(t, "loop.wav", "loop bytes")
		token := f.bearerToken(t, []string{"read", "write"})

		rec := upload(token, `{"upload_filename":"loop.wav","license":"cc0","tags":"Loop GUITAR"}`)
		require.Equal(t, http.StatusCreated, rec.Code)
		require.Contains(t, rec.Body.String(), `"type":"wav"`)
		require.Contains(t, rec.Body.String(), `"guitar"`)
	})

	t.Run("duplicate upload conflicts", func(t *testing.T) {
		stage(t, "again.wav", "loop bytes")
		token := f.bearerToken(t, []string{"read", "write"})

		rec := upload(token, `{"upload_filename":"again.wav","license":"cc0"}`)
		require.Equal(t, http.StatusConflict, rec.Code)
		require.Contains(t, rec.Body.String(), "already part of")
	})
}

func TestAuthResolution(t *testing.T) {
	f := newFixture(t)

	stage := func(t *testing.T, name, content string) {
		t.Helper()
		dir := filepath.Join(f.router.UploadService.UploadsRoot, f.user.ID)
		require.NoError(t, os.MkdirAll(dir, 0o750))
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o640))
	}

	t.Run("session cookie authenticates the user for uploads", func(t *testing.T) {
		stage(t, "session.wav", "session bytes")

		claims := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
			Subject:   f.user.ID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		})
		cookie, err := claims.SignedString([]byte("session-secret"))
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPost, "/v1/sounds/upload",
			strings.NewReader(`{"upload_filename":"session.wav","license":"cc0"}`))
		req.Header.Set("Content-Type", "application/json")
		req.AddCookie(&http.Cookie{Name: "sessionid", Value: cookie})

		rec := f.do(req)
		require.Equal(t, http.StatusCreated, rec.Code)
	})

	t.Run("api token carries no user, so uploads are refused", func(t *testing.T) {
		apiKey := cryptox.MustGenerateToken(cryptox.TokenSize256)
		client := domain.Client{
			ID:         idx.New().String(),
			OwnerID:    f.owner.ID,
			Name:       "key client",
			APIKeyHash: cryptox.FingerprintToken(apiKey),
			Scopes:     []string{"read", "write"},
		}
		require.NoError(t, f.store.Clients().CreateClient(context.Background(), client))

		req := httptest.NewRequest(http.MethodPost, "/v1/sounds/upload",
			strings.NewReader(`{"upload_filename":"x.wav","license":"cc0"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Token "+apiKey)

		rec := f.do(req)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("garbage bearer credentials are rejected outright", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/sounds", nil)
		req.Header.Set("Authorization", "Bearer garbage")
		rec := f.do(req)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Contains(t, rec.Body.String(), "invalid_token")
	})

	t.Run("a stale session cookie degrades to anonymous", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/sounds", nil)
		req.AddCookie(&http.Cookie{Name: "sessionid", Value: "not-a-jwt"})
		rec := f.do(req)
		require.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestSoundsReadSurface(t *testing.T) {
	f := newFixture(t)
	token := f.bearerToken(t, []string{"read", "write"})

	// Seed one sound through the upload endpoint.
	dir := filepath.Join(f.router.UploadService.UploadsRoot, f.user.ID)
	require.NoError(t, os.MkdirAll(dir, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "clip.wav"), []byte("clip bytes"), 0o640))

	req := httptest.NewRequest(http.MethodPost, "/v1/sounds/upload",
		strings.NewReader(`{"upload_filename":"clip.wav","license":"cc0"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	rec := f.do(req)
	require.Equal(t, http.StatusCreated, rec.Code)

	sounds, err := f.store.Sounds().ListSounds(context.Background(), 10, 0)
	require.NoError(t, err)
	require.Len(t, sounds, 1)
	id := sounds[0].ID

	t.Run("list", func(t *testing.T) {
		rec := f.do(httptest.NewRequest(http.MethodGet, "/v1/sounds", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		require.Contains(t, rec.Body.String(), `"count":1`)
	})

	t.Run("retrieve", func(t *testing.T) {
		rec := f.do(httptest.NewRequest(http.MethodGet, "/v1/sounds/"+id, nil))
		require.Equal(t, http.StatusOK, rec.Code)
		require.Contains(t, rec.Body.String(), `"num_downloads":0`)
	})

	t.Run("download increments the counter", func(t *testing.T) {
		rec := f.do(httptest.NewRequest(http.MethodGet, "/v1/sounds/"+id+"/download", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "clip bytes", rec.Body.String())

		got, err := f.store.Sounds().GetSoundByID(context.Background(), id)
		require.NoError(t, err)
		require.Equal(t, int64(1), got.NumDownloads)
	})

	t.Run("missing sound", func(t *testing.T) {
		rec := f.do(httptest.NewRequest(http.MethodGet, "/v1/sounds/does-not-exist", nil))
		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("count spans every page", func(t *testing.T) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "second.wav"), []byte("second bytes"), 0o640))

		req := httptest.NewRequest(http.MethodPost, "/v1/sounds/upload",
			strings.NewReader(`{"upload_filename":"second.wav","license":"cc0"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)
		require.Equal(t, http.StatusCreated, f.do(req).Code)

		rec := f.do(httptest.NewRequest(http.MethodGet, "/v1/sounds?limit=1", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var page struct {
			Count   int               `json:"count"`
			Results []json.RawMessage `json:"results"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
		require.Equal(t, 2, page.Count)
		require.Len(t, page.Results, 1)
	})

	t.Run("download quotes awkward filenames", func(t *testing.T) {
		name := `take "two".wav`
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("take two bytes"), 0o640))

		body, err := json.Marshal(map[string]string{"upload_filename": name, "license": "cc0"})
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodPost, "/v1/sounds/upload", strings.NewReader(string(body)))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)
		require.Equal(t, http.StatusCreated, f.do(req).Code)

		sounds, err := f.store.Sounds().ListSounds(context.Background(), 10, 0)
		require.NoError(t, err)
		var id string
		for _, s := range sounds {
			if s.OriginalFilename == name {
				id = s.ID
			}
		}
		require.NotEmpty(t, id)

		rec := f.do(httptest.NewRequest(http.MethodGet, "/v1/sounds/"+id+"/download", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t,
			mime.FormatMediaType("attachment", map[string]string{"filename": name}),
			rec.Header().Get("Content-Disposition"))
	})
}
