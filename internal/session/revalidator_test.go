package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/railops/railops/internal/credstore"
)

func TestRevalidatorRefreshesStaleSession(t *testing.T) {
	clockBase := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	refreshed := make(chan struct{}, 1)
	refresher := RefresherFunc(func(_ context.Context, _ string) (string, time.Time, error) {
		select {
		case refreshed <- struct{}{}:
		default:
		}
		return "access-1", clockBase.Add(2 * time.Hour), nil
	})
	m, store, clock := newTestManager(t, refresher)
	ctx := context.Background()

	seedCredentials(t, store, clock.Now(), -time.Minute, 7*24*time.Hour)

	r := NewRevalidator(m, 10*time.Millisecond, testLogger())
	r.Start(ctx)
	defer r.Stop()

	select {
	case <-refreshed:
	case <-time.After(2 * time.Second):
		t.Fatal("revalidator never triggered a refresh")
	}

	require.Eventually(t, func() bool {
		stored, err := store.LoadCredentials(ctx)
		return err == nil && stored.AccessToken == "access-1"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestRevalidatorEndsExpiredSession(t *testing.T) {
	refresher := &fakeRefresher{}
	m, store, clock := newTestManager(t, refresher)
	ctx := context.Background()

	seedCredentials(t, store, clock.Now(), -2*time.Hour, -time.Minute)

	expired := make(chan struct{}, 1)
	m.OnSessionExpired(func() {
		select {
		case expired <- struct{}{}:
		default:
		}
	})

	r := NewRevalidator(m, 10*time.Millisecond, testLogger())
	r.Start(ctx)
	defer r.Stop()

	select {
	case <-expired:
	case <-time.After(2 * time.Second):
		t.Fatal("revalidator never ended the expired session")
	}

	_, err := store.LoadCredentials(ctx)
	assert.ErrorIs(t, err, credstore.ErrNotFound)
}

func TestRevalidatorStopHaltsTicks(t *testing.T) {
	refresher := &fakeRefresher{access: "access-1"}
	m, store, clock := newTestManager(t, refresher)

	seedCredentials(t, store, clock.Now(), time.Hour, 7*24*time.Hour)

	r := NewRevalidator(m, 5*time.Millisecond, testLogger())
	r.Start(context.Background())
	r.Stop()

	calls := refresher.Calls()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, calls, refresher.Calls(), "no refresh activity after Stop")
}

func TestRevalidatorDefaultsInterval(t *testing.T) {
	m, _, _ := newTestManager(t, &fakeRefresher{})
	r := NewRevalidator(m, 0, testLogger())
	assert.Equal(t, DefaultRevalidateInterval, r.interval)
}
