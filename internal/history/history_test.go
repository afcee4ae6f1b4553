package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/seancheick/Pharmaguide-sub006/internal/store"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestAdd_CollapsesImmediateRepeats(t *testing.T) {
	tr := New(nil)

	assert.True(t, tr.Add("home"))
	assert.False(t, tr.Add("home"))
	assert.Equal(t, []string{"home"}, tr.Routes())

	tr.Add("product")
	tr.Add("home")
	assert.Equal(t, []string{"home", "product", "home"}, tr.Routes(), "only adjacent repeats collapse")
}

func TestAdd_EvictsOldestPastCap(t *testing.T) {
	tr := New(nil, WithMaxSize(50))

	for i := 0; i < 60; i++ {
		tr.Add(fmt.Sprintf("route-%02d", i))
	}

	routes := tr.Routes()
	require.Len(t, routes, 50)
	assert.Equal(t, "route-10", routes[0])
	assert.Equal(t, "route-59", routes[49])
	assert.Equal(t, "route-59", tr.Last())
}

func TestAdd_IgnoresEmptyName(t *testing.T) {
	tr := New(nil)
	assert.False(t, tr.Add(""))
	assert.Zero(t, tr.Len())
}

func TestAdd_PersistsInBackground(t *testing.T) {
	kv := store.NewMemory()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tr := New(kv, WithNow(func() time.Time { return now }))
	tr.SetIdentity("session-1", "user-1")

	tr.Add("home")
	tr.Add("product")
	tr.Wait()

	raw, ok, err := kv.Get(context.Background(), StorageKey)
	require.NoError(t, err)
	require.True(t, ok)

	var rec Record
	require.NoError(t, json.Unmarshal([]byte(raw), &rec))
	assert.Equal(t, []string{"home", "product"}, rec.Routes)
	assert.Equal(t, now.UnixMilli(), rec.Timestamp)
	assert.Equal(t, "session-1", rec.SessionID)
	assert.Equal(t, "user-1", rec.UserID)
}

type failingKV struct{ store.KV }

func (failingKV) Set(context.Context, string, string) error {
	return &store.Error{Op: "set", Backend: "fake", Key: StorageKey, Err: errors.New("disk full")}
}

func TestAdd_PersistFailureIsLogged(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	tr := New(failingKV{store.NewMemory()}, WithLogger(zap.New(core)))

	assert.True(t, tr.Add("home"))
	tr.Wait()

	assert.Equal(t, []string{"home"}, tr.Routes(), "in-memory history survives storage failure")
	entries := logs.FilterMessage("history persist failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "home", entries[0].ContextMap()["route"])
}

func TestPersist_ReturnsStorageError(t *testing.T) {
	tr := New(failingKV{store.NewMemory()})
	err := tr.Persist(context.Background())
	assert.True(t, store.IsStorageError(err))
}

func TestLoad_SeedsFromRecord(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory()
	require.NoError(t, kv.Set(ctx, StorageKey, `{"routes":["a","a","b","c"],"timestamp":1,"sessionId":"s","userId":"u1"}`))

	tr := New(kv, WithMaxSize(2))
	tr.SetIdentity("s2", "u1")
	require.NoError(t, tr.Load(ctx))
	assert.Equal(t, []string{"b", "c"}, tr.Routes())
}

func TestLoad_IgnoresOtherUser(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory()
	require.NoError(t, kv.Set(ctx, StorageKey, `{"routes":["a"],"timestamp":1,"sessionId":"s","userId":"u1"}`))

	tr := New(kv)
	tr.SetIdentity("s2", "u2")
	require.NoError(t, tr.Load(ctx))
	assert.Empty(t, tr.Routes())
}

func TestLoad_MissingAndCorrupt(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory()
	tr := New(kv)
	assert.NoError(t, tr.Load(ctx))

	require.NoError(t, kv.Set(ctx, StorageKey, `{not json`))
	assert.Error(t, tr.Load(ctx))
}

func TestClear_RemovesRecord(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory()
	tr := New(kv)

	tr.Add("home")
	tr.Add("product")
	require.NoError(t, tr.Clear(ctx))

	assert.Empty(t, tr.Routes())
	_, ok, err := kv.Get(ctx, StorageKey)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestWrite_NewerVersionWins(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory()
	tr := New(kv)

	require.NoError(t, tr.write(ctx, Record{Routes: []string{"new"}}, 2))
	require.NoError(t, tr.write(ctx, Record{Routes: []string{"old"}}, 1))

	raw, _, _ := kv.Get(ctx, StorageKey)
	assert.Contains(t, raw, `"new"`)
}
