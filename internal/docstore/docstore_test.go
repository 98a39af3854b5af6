package docstore

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return New(client, zap.NewNop()), mr
}

func TestGetAll_AbsentDocumentIsEmptyMap(t *testing.T) {
	store, _ := newTestStore(t)

	fields, err := store.GetAll(context.Background(), "ns:missing")
	assert.NoError(t, err)
	assert.Empty(t, fields)
}

func TestMergeFields_PreservesUnnamedFields(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.MergeFields(ctx, "ns:doc", map[string]any{"a": "1", "b": "2"}))
	require.NoError(t, store.MergeFields(ctx, "ns:doc", map[string]any{"b": "20"}))

	assert.Equal(t, "1", mr.HGet("ns:doc", "a"))
	assert.Equal(t, "20", mr.HGet("ns:doc", "b"))
}

func TestGetInt_ReportsPresence(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	_, present, err := store.GetInt(ctx, "ns:doc", "count")
	assert.NoError(t, err)
	assert.False(t, present)

	mr.HSet("ns:doc", "count", "42")

	value, present, err := store.GetInt(ctx, "ns:doc", "count")
	assert.NoError(t, err)
	assert.True(t, present)
	assert.Equal(t, int64(42), value)
}

func TestGetInt_NonNumericFieldIsAnError(t *testing.T) {
	store, mr := newTestStore(t)
	mr.HSet("ns:doc", "count", "not-a-number")

	_, _, err := store.GetInt(context.Background(), "ns:doc", "count")
	assert.Error(t, err)
}

func TestIncrBy_CreatesAndAccumulates(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	value, err := store.IncrBy(ctx, "ns:counter", "count", 10)
	assert.NoError(t, err)
	assert.Equal(t, int64(10), value)

	value, err = store.IncrBy(ctx, "ns:counter", "count", 5)
	assert.NoError(t, err)
	assert.Equal(t, int64(15), value)
}

func TestIncrByMerge_IncrementsAndMergesTogether(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	value, err := store.IncrByMerge(ctx, "ns:counter", "count", 7, map[string]any{"updated": "now"})
	assert.NoError(t, err)
	assert.Equal(t, int64(7), value)
	assert.Equal(t, "now", mr.HGet("ns:counter", "updated"))
}

func TestSetIfAbsent_OnlyFirstWriterWins(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	created, err := store.SetIfAbsent(ctx, "ns:doc", map[string]any{"v": "first"})
	assert.NoError(t, err)
	assert.True(t, created)

	created, err = store.SetIfAbsent(ctx, "ns:doc", map[string]any{"v": "second"})
	assert.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "first", mr.HGet("ns:doc", "v"))
}

func TestScanKeys_MatchesPattern(t *testing.T) {
	store, mr := newTestStore(t)

	mr.HSet("ns:2026-09:user:a", "count", "1")
	mr.HSet("ns:2026-09:user:b", "count", "2")
	mr.HSet("ns:2026-08:user:c", "count", "3")

	keys, err := store.ScanKeys(context.Background(), "ns:2026-09:user:*")
	assert.NoError(t, err)
	assert.ElementsMatch(t, []string{"ns:2026-09:user:a", "ns:2026-09:user:b"}, keys)
}

func TestClosedConnectionIsUnavailable(t *testing.T) {
	store, mr := newTestStore(t)
	mr.Close()

	_, err := store.GetAll(context.Background(), "ns:doc")
	assert.ErrorIs(t, err, ErrUnavailable)

	_, err = store.IncrBy(context.Background(), "ns:doc", "count", 1)
	assert.ErrorIs(t, err, ErrUnavailable)
}
