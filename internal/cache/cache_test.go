package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	assert.Equal(t, "FetchHistory:AAPL:43800h0m0s", Key("FetchHistory", "AAPL", 5*365*24*time.Hour))
	assert.NotEqual(t, Key("FetchNews", "AAPL"), Key("FetchProfile", "AAPL"))
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("LRU")
	require.NoError(t, err)
	assert.Equal(t, PolicyLRU, p)

	p, err = ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, PolicyNone, p)

	_, err = ParsePolicy("fifo")
	assert.Error(t, err)
}

func TestMemoize_LoadsOnce(t *testing.T) {
	store, err := NewMemoryStore(Options{Policy: PolicyNone})
	require.NoError(t, err)
	ctx := context.Background()

	calls := 0
	load := func() ([]float64, error) {
		calls++
		return []float64{1, 2, 3}, nil
	}
	for i := 0; i < 3; i++ {
		v, err := Memoize(ctx, store, Key("closes", "AAPL"), load)
		require.NoError(t, err)
		assert.Equal(t, []float64{1, 2, 3}, v)
	}
	assert.Equal(t, 1, calls)
}

func TestMemoize_ErrorsAreNotCached(t *testing.T) {
	store, err := NewMemoryStore(Options{Policy: PolicyNone})
	require.NoError(t, err)
	ctx := context.Background()

	boom := errors.New("boom")
	_, err = Memoize(ctx, store, "k", func() (int, error) { return 0, boom })
	assert.ErrorIs(t, err, boom)

	v, err := Memoize(ctx, store, "k", func() (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestMemoize_NilStore(t *testing.T) {
	calls := 0
	for i := 0; i < 2; i++ {
		_, err := Memoize(context.Background(), nil, "k", func() (int, error) { calls++; return 1, nil })
		require.NoError(t, err)
	}
	assert.Equal(t, 2, calls)
}

func TestMemoryStore_LRUEvicts(t *testing.T) {
	store, err := NewMemoryStore(Options{Policy: PolicyLRU, Size: 2})
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "a", []byte("1")))
	require.NoError(t, store.Set(ctx, "b", []byte("2")))
	_, _, _ = store.Get(ctx, "a")
	require.NoError(t, store.Set(ctx, "c", []byte("3")))

	_, ok, _ := store.Get(ctx, "b")
	assert.False(t, ok, "least recently used entry should be evicted")
	_, ok, _ = store.Get(ctx, "a")
	assert.True(t, ok)
	assert.Equal(t, 2, store.Len())
}

func TestMemoryStore_TTLExpires(t *testing.T) {
	store, err := NewMemoryStore(Options{Policy: PolicyTTL, TTL: 20 * time.Millisecond})
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "a", []byte("1")))
	_, ok, _ := store.Get(ctx, "a")
	assert.True(t, ok)

	time.Sleep(60 * time.Millisecond)
	_, ok, _ = store.Get(ctx, "a")
	assert.False(t, ok)
}

func TestMemoryStore_InvalidOptions(t *testing.T) {
	_, err := NewMemoryStore(Options{Policy: PolicyLRU})
	assert.Error(t, err)
	_, err = NewMemoryStore(Options{Policy: PolicyTTL})
	assert.Error(t, err)
	_, err = NewMemoryStore(Options{Policy: "random"})
	assert.Error(t, err)
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	store := NewRedisStore(client, "tickerscope:", time.Minute)
	ctx := context.Background()

	_, ok, err := store.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	calls := 0
	for i := 0; i < 2; i++ {
		v, err := Memoize(ctx, store, Key("FetchNews", "MSFT"), func() ([]string, error) {
			calls++
			return []string{"headline"}, nil
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"headline"}, v)
	}
	assert.Equal(t, 1, calls)
	assert.True(t, mr.Exists("tickerscope:FetchNews:MSFT"))
	assert.Equal(t, time.Minute, mr.TTL("tickerscope:FetchNews:MSFT"))
}
