package session

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/railops/railops/internal/credstore"
	"github.com/railops/railops/internal/models"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock(t time.Time) *fakeClock { return &fakeClock{t: t} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// fakeRefresher counts refresh calls and hands out a configured result.
type fakeRefresher struct {
	mu        sync.Mutex
	calls     int
	access    string
	expiresAt time.Time
	err       error
	delay     time.Duration
}

func (f *fakeRefresher) Refresh(_ context.Context, _ string) (string, time.Time, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.err != nil {
		return "", time.Time{}, f.err
	}
	return f.access, f.expiresAt, nil
}

func (f *fakeRefresher) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newTestManager(t *testing.T, refresher Refresher) (*Manager, *credstore.Memory, *fakeClock) {
	t.Helper()
	store := credstore.NewMemory()
	clock := newFakeClock(time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC))
	m := NewManager(store, refresher, testLogger())
	m.now = clock.Now
	return m, store, clock
}

func seedCredentials(t *testing.T, store credstore.Store, base time.Time, accessTTL, refreshTTL time.Duration) {
	t.Helper()
	creds := &models.Credentials{
		AccessToken:      "access-0",
		RefreshToken:     "refresh-0",
		AccessExpiresAt:  base.Add(accessTTL),
		RefreshExpiresAt: base.Add(refreshTTL),
	}
	require.NoError(t, store.SaveCredentials(context.Background(), creds))
}

func TestAuthenticatedTracksRefreshExpiry(t *testing.T) {
	refresher := &fakeRefresher{}
	m, store, clock := newTestManager(t, refresher)
	ctx := context.Background()

	assert.False(t, m.Authenticated(ctx), "empty store must not be authenticated")

	seedCredentials(t, store, clock.Now(), -time.Minute, time.Hour)
	assert.True(t, m.Authenticated(ctx), "valid refresh token means authenticated even with stale access")

	clock.Advance(time.Hour) // exactly at refresh expiry
	assert.False(t, m.Authenticated(ctx), "expiry must be strictly in the future")

	clock.Advance(time.Second)
	assert.False(t, m.Authenticated(ctx))
}

func TestAccessTokenFreshMakesNoRefreshCall(t *testing.T) {
	refresher := &fakeRefresher{}
	m, store, clock := newTestManager(t, refresher)
	ctx := context.Background()

	seedCredentials(t, store, clock.Now(), time.Hour, 7*24*time.Hour)

	token, err := m.AccessToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "access-0", token)
	assert.Equal(t, 0, refresher.Calls(), "fresh access token must not trigger a refresh")
}

func TestAccessTokenStaleRefreshesExactlyOnce(t *testing.T) {
	clockBase := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	refresher := &fakeRefresher{access: "access-1", expiresAt: clockBase.Add(2 * time.Hour)}
	m, store, clock := newTestManager(t, refresher)
	ctx := context.Background()

	seedCredentials(t, store, clock.Now(), -time.Minute, 7*24*time.Hour)

	token, err := m.AccessToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "access-1", token)
	assert.Equal(t, 1, refresher.Calls())

	stored, err := store.LoadCredentials(ctx)
	require.NoError(t, err)
	assert.Equal(t, "access-1", stored.AccessToken)
	assert.Equal(t, "refresh-0", stored.RefreshToken, "refresh token must be retained unchanged")
	assert.Equal(t, refresher.expiresAt, stored.AccessExpiresAt)
}

func TestAccessTokenExpiredRefreshPurgesEverything(t *testing.T) {
	refresher := &fakeRefresher{access: "access-1"}
	m, store, clock := newTestManager(t, refresher)
	ctx := context.Background()

	seedCredentials(t, store, clock.Now(), -2*time.Hour, -time.Minute)
	require.NoError(t, store.SaveProfile(ctx, &models.Profile{ID: "u1", Name: "Asha"}))

	var expired bool
	m.OnSessionExpired(func() { expired = true })

	token, err := m.AccessToken(ctx)
	assert.Empty(t, token)
	require.ErrorIs(t, err, ErrSessionExpired)
	assert.Equal(t, 0, refresher.Calls(), "expired refresh token must not be presented to the backend")
	assert.True(t, expired, "expiry handler must fire")

	_, err = store.LoadCredentials(ctx)
	assert.ErrorIs(t, err, credstore.ErrNotFound)
	_, err = store.LoadProfile(ctx)
	assert.ErrorIs(t, err, credstore.ErrNotFound, "cached profile is purged with the credentials")
}

func TestAccessTokenRefreshFailureIsFatal(t *testing.T) {
	refresher := &fakeRefresher{err: errors.New("backend unreachable")}
	m, store, clock := newTestManager(t, refresher)
	ctx := context.Background()

	seedCredentials(t, store, clock.Now(), -time.Minute, 7*24*time.Hour)

	var expired bool
	m.OnSessionExpired(func() { expired = true })

	token, err := m.AccessToken(ctx)
	assert.Empty(t, token)
	require.ErrorIs(t, err, ErrSessionExpired)
	assert.Equal(t, 1, refresher.Calls(), "exactly one attempt, no retry loop")
	assert.True(t, expired)

	_, err = store.LoadCredentials(ctx)
	assert.ErrorIs(t, err, credstore.ErrNotFound)
}

func TestAccessTokenWithoutCredentials(t *testing.T) {
	refresher := &fakeRefresher{}
	m, _, _ := newTestManager(t, refresher)

	var expired bool
	m.OnSessionExpired(func() { expired = true })

	token, err := m.AccessToken(context.Background())
	assert.Empty(t, token)
	assert.ErrorIs(t, err, ErrNotAuthenticated)
	assert.False(t, expired, "being logged out is not a forced expiry")
}

func TestHandleAuthRejectionPurgesRegardlessOfFreshness(t *testing.T) {
	refresher := &fakeRefresher{}
	m, store, clock := newTestManager(t, refresher)
	ctx := context.Background()

	seedCredentials(t, store, clock.Now(), time.Hour, 7*24*time.Hour)
	require.NoError(t, store.SaveProfile(ctx, &models.Profile{ID: "u1"}))

	var expired bool
	m.OnSessionExpired(func() { expired = true })

	m.HandleAuthRejection(ctx)

	assert.True(t, expired)
	_, err := store.LoadCredentials(ctx)
	assert.ErrorIs(t, err, credstore.ErrNotFound)
	_, err = store.LoadProfile(ctx)
	assert.ErrorIs(t, err, credstore.ErrNotFound)
}

func TestPurgeDoesNotFireExpiryHandler(t *testing.T) {
	refresher := &fakeRefresher{}
	m, store, clock := newTestManager(t, refresher)
	ctx := context.Background()

	seedCredentials(t, store, clock.Now(), time.Hour, 7*24*time.Hour)

	var expired bool
	m.OnSessionExpired(func() { expired = true })

	require.NoError(t, m.Purge(ctx))
	assert.False(t, expired, "explicit logout is not a forced expiry")
	_, err := store.LoadCredentials(ctx)
	assert.ErrorIs(t, err, credstore.ErrNotFound)
}

func TestLoginThenRefreshThenExpiryScenario(t *testing.T) {
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	refresher := &fakeRefresher{access: "access-1", expiresAt: base.Add(61*time.Second + time.Minute)}
	m, store, clock := newTestManager(t, refresher)
	ctx := context.Background()

	creds := &models.Credentials{
		AccessToken:      "access-0",
		RefreshToken:     "refresh-0",
		AccessExpiresAt:  base.Add(60 * time.Second),
		RefreshExpiresAt: base.Add(7 * 24 * time.Hour),
	}
	require.NoError(t, m.Establish(ctx, creds, &models.Profile{ID: "u1", Name: "Asha"}))

	// Still fresh: no traffic.
	token, err := m.AccessToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "access-0", token)
	assert.Equal(t, 0, refresher.Calls())

	// 61s later the access token is stale; one refresh succeeds.
	clock.Advance(61 * time.Second)
	token, err = m.AccessToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "access-1", token)
	assert.Equal(t, 1, refresher.Calls())

	stored, err := store.LoadCredentials(ctx)
	require.NoError(t, err)
	assert.Equal(t, "refresh-0", stored.RefreshToken)

	// Past the refresh expiry the same call fails and purges.
	clock.Advance(7 * 24 * time.Hour)
	token, err = m.AccessToken(ctx)
	assert.Empty(t, token)
	require.ErrorIs(t, err, ErrSessionExpired)
	assert.Equal(t, 1, refresher.Calls(), "an expired refresh token is never sent")

	_, err = store.LoadCredentials(ctx)
	assert.ErrorIs(t, err, credstore.ErrNotFound)
}

func TestConcurrentStaleCallsBothSucceed(t *testing.T) {
	clockBase := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	refresher := &fakeRefresher{
		access:    "access-1",
		expiresAt: clockBase.Add(time.Hour),
		delay:     20 * time.Millisecond, // widen the race window
	}
	m, store, clock := newTestManager(t, refresher)
	ctx := context.Background()

	seedCredentials(t, store, clock.Now(), -time.Minute, 7*24*time.Hour)

	const callers = 8
	tokens := make([]string, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tokens[i], errs[i] = m.AccessToken(ctx)
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "access-1", tokens[i])
	}
	// Redundant refreshes are tolerated, but the stored state must be intact.
	assert.GreaterOrEqual(t, refresher.Calls(), 1)
	stored, err := store.LoadCredentials(ctx)
	require.NoError(t, err)
	assert.Equal(t, "access-1", stored.AccessToken)
	assert.Equal(t, "refresh-0", stored.RefreshToken)
}

func TestStateReflectsLifecycle(t *testing.T) {
	refresher := &fakeRefresher{}
	m, store, clock := newTestManager(t, refresher)
	ctx := context.Background()

	assert.Equal(t, StateUnauthenticated, m.State(ctx))

	seedCredentials(t, store, clock.Now(), time.Hour, 7*24*time.Hour)
	assert.Equal(t, StateFresh, m.State(ctx))

	clock.Advance(2 * time.Hour)
	assert.Equal(t, StateStale, m.State(ctx))

	clock.Advance(8 * 24 * time.Hour)
	assert.Equal(t, StateUnauthenticated, m.State(ctx))
}

// blockingRefresher parks the refresh call until released so tests can
// observe the transient refreshing state deterministically.
type blockingRefresher struct {
	started chan struct{}
	release chan struct{}
	access  string
	exp     time.Time
}

func (b *blockingRefresher) Refresh(_ context.Context, _ string) (string, time.Time, error) {
	b.started <- struct{}{}
	<-b.release
	return b.access, b.exp, nil
}

func TestStateReportsRefreshingWhileExchangeInFlight(t *testing.T) {
	clockBase := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	refresher := &blockingRefresher{
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
		access:  "access-1",
		exp:     clockBase.Add(time.Hour),
	}
	m, store, clock := newTestManager(t, refresher)
	ctx := context.Background()

	seedCredentials(t, store, clock.Now(), -time.Minute, 7*24*time.Hour)

	done := make(chan error, 1)
	go func() {
		_, err := m.AccessToken(ctx)
		done <- err
	}()

	<-refresher.started
	assert.Equal(t, StateRefreshing, m.State(ctx))

	close(refresher.release)
	require.NoError(t, <-done)
	assert.Equal(t, StateFresh, m.State(ctx))
}
