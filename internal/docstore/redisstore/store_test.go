package redisstore

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abelbrown/gitexplorer/internal/docstore"
)

func TestKeyNaming(t *testing.T) {
	coll := docstore.UserCollection("app", "u1", "bookmarks")
	assert.Equal(t, "gitexplorer:coll:artifacts/app/users/u1/bookmarks", CollectionKey(coll))
	assert.Equal(t, "gitexplorer:changed:artifacts/app/users/u1/bookmarks", ChangedChannel(coll))

	got, err := CollectionFromChannel(ChangedChannel(coll))
	require.NoError(t, err)
	assert.Equal(t, coll, got)

	for _, bad := range []string{"", "gitexplorer:changed:", "other:changed:x"} {
		_, err := CollectionFromChannel(bad)
		assert.Error(t, err, "channel %q", bad)
	}
}

func TestSnapshotFromHash(t *testing.T) {
	coll := docstore.Collection("c")
	snap := snapshotFromHash(coll, map[string]string{"1": `{"id":1}`, "2": `{"id":2}`})
	assert.Equal(t, coll, snap.Collection)
	assert.Len(t, snap.Docs, 2)
	assert.JSONEq(t, `{"id":1}`, string(snap.Docs["1"]))

	empty := snapshotFromHash(coll, nil)
	assert.NotNil(t, empty.Docs)
	assert.Empty(t, empty.Docs)
}

func TestOpenRequiresAddr(t *testing.T) {
	_, err := Open(context.Background(), Options{})
	assert.Error(t, err)
}

// openIntegration connects to the Redis named by GITEXPLORER_TEST_REDIS.
func openIntegration(t *testing.T) *Store {
	t.Helper()
	addr := os.Getenv("GITEXPLORER_TEST_REDIS")
	if addr == "" {
		t.Skip("GITEXPLORER_TEST_REDIS not set")
	}
	s, err := Open(context.Background(), Options{Addr: addr})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func nextSnap(t *testing.T, sub docstore.Subscription) docstore.Snapshot {
	t.Helper()
	select {
	case snap, ok := <-sub.Snapshots():
		require.True(t, ok, "subscription closed")
		return snap
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for snapshot")
		return docstore.Snapshot{}
	}
}

func TestIntegrationLiveSnapshots(t *testing.T) {
	s := openIntegration(t)
	ctx := context.Background()
	coll := docstore.UserCollection("test", ulid.Make().String(), "bookmarks")
	t.Cleanup(func() { s.client.Del(context.Background(), CollectionKey(coll)) })

	sub, err := s.Subscribe(ctx, coll)
	require.NoError(t, err)
	defer sub.Close()
	assert.Empty(t, nextSnap(t, sub).Docs)

	require.NoError(t, s.Set(ctx, coll.Doc("42"), []byte(`{"id":42}`)))
	assert.Contains(t, nextSnap(t, sub).Docs, "42")

	require.NoError(t, s.Delete(ctx, coll.Doc("42")))
	assert.Empty(t, nextSnap(t, sub).Docs)

	sub.Close()
	require.NoError(t, s.Set(ctx, coll.Doc("7"), []byte(`{}`)))
	_, ok := <-sub.Snapshots()
	assert.False(t, ok)
}
