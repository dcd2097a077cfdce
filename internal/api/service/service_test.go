package service_test

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wavecommons/soundvault/internal/api/domain"
	"github.com/wavecommons/soundvault/internal/api/store"
	"github.com/wavecommons/soundvault/internal/api/store/drivers/sqlite"
	"github.com/wavecommons/soundvault/pkg/cryptox"
	"github.com/wavecommons/soundvault/pkg/idx"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	cryptox.SetPepperPath(filepath.Join(t.TempDir(), "pepper"))

	st, err := sqlite.NewStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())
	return st
}

func seedUser(t *testing.T, st store.Store, username, password string) domain.User {
	t.Helper()
	hash, err := cryptox.HashPassword(password)
	require.NoError(t, err)

	u := domain.User{
		ID:           idx.New().String(),
		Username:     username,
		PasswordHash: hash,
	}
	require.NoError(t, st.Users().CreateUser(context.Background(), u))
	return u
}

func seedClient(t *testing.T, st store.Store, owner domain.User, scopes []string, allowPassword bool) (domain.Client, string) {
	t.Helper()
	secret := cryptox.MustGenerateToken(cryptox.TokenSize128)
	secretHash, err := cryptox.HashPassword(secret)
	require.NoError(t, err)

	c := domain.Client{
		ID:                 idx.New().String(),
		OwnerID:            owner.ID,
		Name:               "test client",
		SecretHash:         secretHash,
		APIKeyHash:         cryptox.FingerprintToken("apikey-" + idx.New().String()),
		Scopes:             scopes,
		AllowPasswordGrant: allowPassword,
	}
	require.NoError(t, st.Clients().CreateClient(context.Background(), c))
	return c, secret
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
