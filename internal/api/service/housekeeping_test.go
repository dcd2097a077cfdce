package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wavecommons/soundvault/internal/api/domain"
	"github.com/wavecommons/soundvault/internal/api/service"
	"github.com/wavecommons/soundvault/internal/api/store"
	"github.com/wavecommons/soundvault/pkg/idx"
)

func TestHousekeepingPurgesExpiredTokens(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	owner := seedUser(t, st, "devaccount", "owner-pass")
	client, _ := seedClient(t, st, owner, []string{"read"}, true)

	stale := domain.AccessToken{
		ID:        idx.New().String(),
		UserID:    owner.ID,
		ClientID:  client.ID,
		TokenHash: "stale-hash",
		Scopes:    []string{"read"},
		ExpiresAt: time.Now().Add(-time.Hour),
	}
	require.NoError(t, st.AccessTokens().CreateAccessToken(ctx, stale))

	hk := service.NewHousekeepingService(st, discardLogger(), time.Hour, "/uploads")
	hk.Start()
	hk.Stop() // Start runs one pass immediately; Stop waits for it

	_, err := st.AccessTokens().GetAccessTokenByHash(ctx, "stale-hash")
	require.ErrorIs(t, err, store.ErrNotFound)
}
