package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TickerScope/internal/model"
)

var tickers = []string{"AAPL", "MSFT", "GOOG", "AMZN"}

func ptr[T any](v T) *T { return &v }

func TestNew_Defaults(t *testing.T) {
	s := New(tickers)
	assert.NotEmpty(t, s.ID)
	assert.Equal(t, TabOverview, s.Tab)
	assert.Equal(t, "AAPL", s.Ticker)
	assert.Equal(t, model.DefaultHorizon, s.Horizon)
	assert.Equal(t, model.ModelARIMA, s.Model)
	assert.NotEqual(t, s.ID, New(tickers).ID)
}

func TestParseTab(t *testing.T) {
	for in, want := range map[string]Tab{
		"Overview":    TabOverview,
		"price-chart": TabPriceChart,
		"Price Chart": TabPriceChart,
		"news":        TabNews,
		"FORECASTING": TabForecasting,
	} {
		got, err := ParseTab(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParseTab("settings")
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestApply(t *testing.T) {
	s := New(tickers)
	err := s.Apply(Change{
		Tab:     ptr("forecasting"),
		Ticker:  ptr("msft"),
		Horizon: ptr(30),
		Model:   ptr("Exponential Smoothing"),
	}, tickers)
	require.NoError(t, err)
	assert.Equal(t, TabForecasting, s.Tab)
	assert.Equal(t, "MSFT", s.Ticker)
	assert.Equal(t, 30, s.Horizon)
	assert.Equal(t, model.ModelExponentialSmoothing, s.Model)
}

func TestApply_RejectsAndLeavesStateUnchanged(t *testing.T) {
	cases := []Change{
		{Horizon: ptr(0)},
		{Horizon: ptr(31)},
		{Ticker: ptr("TSLA")},
		{Model: ptr("prophet")},
		{Tab: ptr("Settings")},
		{Tab: ptr("News"), Horizon: ptr(99)},
	}
	for _, c := range cases {
		s := New(tickers)
		before := *s
		err := s.Apply(c, tickers)
		assert.True(t, errors.Is(err, ErrInvalidState), "%+v", c)
		assert.Equal(t, before, *s)
	}
}

func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	s := New(tickers)
	require.NoError(t, store.Create(ctx, s))

	got, err := store.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.Ticker, got.Ticker)

	updated, err := store.Update(ctx, s.ID, func(st *State) error {
		return st.Apply(Change{Tab: ptr("News")}, tickers)
	})
	require.NoError(t, err)
	assert.Equal(t, TabNews, updated.Tab)

	_, err = store.Update(ctx, s.ID, func(st *State) error {
		return st.Apply(Change{Horizon: ptr(45)}, tickers)
	})
	assert.ErrorIs(t, err, ErrInvalidState)

	got, err = store.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, TabNews, got.Tab)
	assert.Equal(t, model.DefaultHorizon, got.Horizon, "failed update is not persisted")

	require.NoError(t, store.Delete(ctx, s.ID))
	_, err = store.Get(ctx, s.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, store.Delete(ctx, s.ID), ErrSessionNotFound)
	_, err = store.Update(ctx, "missing", func(*State) error { return nil })
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	exerciseStore(t, NewRedisStore(client, time.Hour))
}

func TestRedisStore_Expires(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	store := NewRedisStore(client, time.Minute)
	ctx := context.Background()
	s := New(tickers)
	require.NoError(t, store.Create(ctx, s))

	mr.FastForward(2 * time.Minute)
	_, err := store.Get(ctx, s.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestFileStore(t *testing.T) {
	exerciseStore(t, mustFileStore(t, filepath.Join(t.TempDir(), "sessions.json")))
}

func TestFileStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "sessions.json")
	ctx := context.Background()

	store := mustFileStore(t, path)
	s := New(tickers)
	require.NoError(t, store.Create(ctx, s))
	_, err := store.Update(ctx, s.ID, func(st *State) error {
		return st.Apply(Change{Ticker: ptr("AMZN")}, tickers)
	})
	require.NoError(t, err)

	reopened := mustFileStore(t, path)
	got, err := reopened.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "AMZN", got.Ticker)
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	_, err := NewFileStore(path)
	assert.Error(t, err)
}

func TestFileStore_FailedSaveRollsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.json")
	ctx := context.Background()
	store := mustFileStore(t, path)

	kept := New(tickers)
	require.NoError(t, store.Create(ctx, kept))

	// A directory in place of the temp file makes every save fail.
	require.NoError(t, os.Mkdir(path+".tmp", 0o755))

	fresh := New(tickers)
	assert.Error(t, store.Create(ctx, fresh))
	_, err := store.Get(ctx, fresh.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound, "failed create is not kept in memory")

	assert.Error(t, store.Delete(ctx, kept.ID))
	got, err := store.Get(ctx, kept.ID)
	require.NoError(t, err, "failed delete keeps the session")
	assert.Equal(t, kept.ID, got.ID)

	_, err = store.Update(ctx, kept.ID, func(st *State) error {
		return st.Apply(Change{Tab: ptr("News")}, tickers)
	})
	assert.Error(t, err)
	got, err = store.Get(ctx, kept.ID)
	require.NoError(t, err)
	assert.Equal(t, TabOverview, got.Tab)
}

func mustFileStore(t *testing.T, path string) *FileStore {
	t.Helper()
	store, err := NewFileStore(path)
	require.NoError(t, err)
	return store
}
