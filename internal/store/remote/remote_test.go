package remote_test

import (
	"context"
	"os"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/arthub/backend/internal/store"
	"github.com/arthub/backend/internal/store/remote"
	"github.com/arthub/backend/internal/store/storetest"
)

// Tests need a disposable Redis instance; set REDIS_TEST_ADDR to run them,
// e.g. REDIS_TEST_ADDR=localhost:6379. The selected database is flushed
// before every test.
func openStore(t *testing.T) store.Store {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}

	client := redis.NewClient(&redis.Options{Addr: addr, DB: 15})
	require.NoError(t, client.FlushDB(context.Background()).Err())

	st := remote.NewFromClient(client)
	t.Cleanup(func() { st.Close() })
	return st
}

func TestConformance(t *testing.T) {
	storetest.Run(t, openStore)
}

func TestDisableEnableRoundTrip(t *testing.T) {
	st := openStore(t)
	ctx := context.Background()

	require.NoError(t, st.(*remote.Store).Ping(ctx))
	require.NoError(t, st.(*remote.Store).Disable())
	require.Error(t, st.(*remote.Store).Ping(ctx))
	require.NoError(t, st.(*remote.Store).Enable())
	require.NoError(t, st.(*remote.Store).Ping(ctx))
}

func TestFeedPubSub(t *testing.T) {
	rs, ok := openStore(t).(*remote.Store)
	require.True(t, ok)
	ctx := context.Background()

	sub, err := rs.SubscribeToFeed(ctx)
	require.NoError(t, err)
	defer sub.Close()

	require.NoError(t, rs.PublishFeedEvent(ctx, remote.FeedEvent{Type: remote.FeedEventPostRemoved, ID: "p-1"}))

	ev := <-sub.Events()
	require.Equal(t, remote.FeedEventPostRemoved, ev.Type)
	require.Equal(t, "p-1", ev.ID)
}
