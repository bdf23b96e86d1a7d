package session

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/xxxsen/medassist/internal/config"
)

func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	state, found, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	require.False(t, found)
	require.Empty(t, state.History)

	state.Append("q", "a")
	state.AddDocument("doc-1")
	require.NoError(t, store.Save(ctx, "s1", state))

	loaded, found, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, state.History, loaded.History)
	require.Equal(t, []string{"doc-1"}, loaded.UploadedDocIDs)

	ok, err := store.Exists(ctx, "s1")
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, store.Delete(ctx, "s1"))
	ok, err = store.Exists(ctx, "s1")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore(10, time.Minute))
}

func TestMemoryStoreExpires(t *testing.T) {
	store := NewMemoryStore(10, 20*time.Millisecond)
	require.NoError(t, store.Save(context.Background(), "s", New()))
	time.Sleep(60 * time.Millisecond)
	ok, err := store.Exists(context.Background(), "s")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set, skipping redis test")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	store := newRedisStoreWithClient(client, "medassist:test:"+time.Now().Format("150405.000")+":", time.Minute)
	defer store.Close()
	exerciseStore(t, store)
}

func TestNewStoreRejectsUnknown(t *testing.T) {
	_, err := NewStore(config.SessionConfig{Type: "etcd"})
	require.Error(t, err)
	s, err := NewStore(config.SessionConfig{Type: "memory", TTLMinutes: 1})
	require.NoError(t, err)
	require.NotNil(t, s)
}
