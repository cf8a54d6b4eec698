package local_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/arthub/backend/internal/models"
	"github.com/arthub/backend/internal/store"
	"github.com/arthub/backend/internal/store/local"
	"github.com/arthub/backend/internal/store/storetest"
)

func openStore(t *testing.T) store.Store {
	st, err := local.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func TestConformance(t *testing.T) {
	storetest.Run(t, openStore)
}

func TestReopenPersistsData(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	st, err := local.Open(dir)
	require.NoError(t, err)
	user := &models.User{
		ID:           "u-1",
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: "hash",
		CreatedAt:    time.Now().UTC(),
	}
	require.NoError(t, st.Users().Create(ctx, user))
	require.NoError(t, st.Close())

	st, err = local.Open(dir)
	require.NoError(t, err)
	defer st.Close()

	got, err := st.Users().GetByUsername(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, "u-1", got.ID)
}

func TestRenameFreesOldUsernameIndex(t *testing.T) {
	st := openStore(t)
	ctx := context.Background()

	alice := &models.User{ID: "u-1", Username: "alice", Email: "alice@example.com", PasswordHash: "h", CreatedAt: time.Now().UTC()}
	require.NoError(t, st.Users().Create(ctx, alice))

	alice.Username = "alicia"
	require.NoError(t, st.Users().Update(ctx, alice))

	// The freed name is claimable by a new account
	bob := &models.User{ID: "u-2", Username: "alice", Email: "bob@example.com", PasswordHash: "h", CreatedAt: time.Now().UTC()}
	require.NoError(t, st.Users().Create(ctx, bob))

	got, err := st.Users().GetByUsername(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, "u-2", got.ID)
}
