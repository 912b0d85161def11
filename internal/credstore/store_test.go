package credstore

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/railops/railops/internal/models"
)

var (
	_ Store = (*Memory)(nil)
	_ Store = (*File)(nil)
	_ Store = (*Redis)(nil)
	_ Store = (*Dynamo)(nil)
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func sampleCredentials() *models.Credentials {
	return &models.Credentials{
		AccessToken:      "access-token",
		RefreshToken:     "refresh-token",
		AccessExpiresAt:  time.Now().Add(15 * time.Minute).UTC().Truncate(time.Second),
		RefreshExpiresAt: time.Now().Add(7 * 24 * time.Hour).UTC().Truncate(time.Second),
	}
}

// Both local backends must behave identically through the interface.
func storesUnderTest(t *testing.T) map[string]Store {
	t.Helper()
	file, err := NewFile(t.TempDir(), testLogger())
	require.NoError(t, err)
	return map[string]Store{
		"memory": NewMemory(),
		"file":   file,
	}
}

func TestStoreRoundTripsCredentials(t *testing.T) {
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, err := store.LoadCredentials(ctx)
			assert.ErrorIs(t, err, ErrNotFound)

			want := sampleCredentials()
			require.NoError(t, store.SaveCredentials(ctx, want))

			got, err := store.LoadCredentials(ctx)
			require.NoError(t, err)
			assert.Equal(t, want.AccessToken, got.AccessToken)
			assert.Equal(t, want.RefreshToken, got.RefreshToken)
			assert.True(t, want.AccessExpiresAt.Equal(got.AccessExpiresAt))
			assert.True(t, want.RefreshExpiresAt.Equal(got.RefreshExpiresAt))
		})
	}
}

func TestStoreRoundTripsProfile(t *testing.T) {
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, err := store.LoadProfile(ctx)
			assert.ErrorIs(t, err, ErrNotFound)

			want := &models.Profile{ID: "u1", Name: "Asha Nair", Email: "asha@railops.in"}
			require.NoError(t, store.SaveProfile(ctx, want))

			got, err := store.LoadProfile(ctx)
			require.NoError(t, err)
			assert.Equal(t, want.Name, got.Name)
			assert.Equal(t, want.Email, got.Email)
		})
	}
}

func TestStoreClearRemovesEverything(t *testing.T) {
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			require.NoError(t, store.SaveCredentials(ctx, sampleCredentials()))
			require.NoError(t, store.SaveProfile(ctx, &models.Profile{ID: "u1"}))

			require.NoError(t, store.Clear(ctx))

			_, err := store.LoadCredentials(ctx)
			assert.ErrorIs(t, err, ErrNotFound)
			_, err = store.LoadProfile(ctx)
			assert.ErrorIs(t, err, ErrNotFound)

			// Clearing an already-empty store is not an error.
			assert.NoError(t, store.Clear(ctx))
		})
	}
}

func TestFileStoreSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	first, err := NewFile(dir, testLogger())
	require.NoError(t, err)
	want := sampleCredentials()
	require.NoError(t, first.SaveCredentials(ctx, want))

	second, err := NewFile(dir, testLogger())
	require.NoError(t, err)
	got, err := second.LoadCredentials(ctx)
	require.NoError(t, err)
	assert.Equal(t, want.RefreshToken, got.RefreshToken)
}

func TestFileStoreCredentialFileMode(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store, err := NewFile(dir, testLogger())
	require.NoError(t, err)
	require.NoError(t, store.SaveCredentials(ctx, sampleCredentials()))

	info, err := os.Stat(filepath.Join(dir, "credentials.json"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm(), "tokens must not be world-readable")
}

func TestFileStoreTreatsCorruptFileAsMissing(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store, err := NewFile(dir, testLogger())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "credentials.json"), []byte("{not json"), 0o600))

	_, err = store.LoadCredentials(ctx)
	assert.ErrorIs(t, err, ErrNotFound)
}

// Runs only when a Redis endpoint is provided, e.g.
// REDIS_TEST_ENDPOINT=localhost:6379 go test ./internal/credstore/...
func TestRedisStoreRoundTrip(t *testing.T) {
	endpoint := os.Getenv("REDIS_TEST_ENDPOINT")
	if endpoint == "" {
		t.Skip("REDIS_TEST_ENDPOINT not set")
	}

	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: endpoint})
	require.NoError(t, client.Ping(ctx).Err())

	store := NewRedis(client, "credstore-test", testLogger())
	require.NoError(t, store.Clear(ctx))

	want := sampleCredentials()
	require.NoError(t, store.SaveCredentials(ctx, want))
	require.NoError(t, store.SaveProfile(ctx, &models.Profile{ID: "u1", Name: "Asha Nair"}))

	got, err := store.LoadCredentials(ctx)
	require.NoError(t, err)
	assert.Equal(t, want.RefreshToken, got.RefreshToken)

	ttl, err := client.TTL(ctx, "railops:credstore-test:credentials").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0), "credentials key carries a TTL")

	require.NoError(t, store.Clear(ctx))
	_, err = store.LoadCredentials(ctx)
	assert.ErrorIs(t, err, ErrNotFound)
}
