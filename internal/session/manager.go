// Package session owns the client-side credential lifecycle: storage,
// expiry evaluation, silent refresh, and forced logout on rejection. All
// mutation of the persisted pair funnels through the Manager; there is no
// ambient token state anywhere else in the program.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/railops/railops/internal/credstore"
	"github.com/railops/railops/internal/models"
)

var (
	// ErrNotAuthenticated is returned when no credential pair is stored.
	ErrNotAuthenticated = errors.New("session: not authenticated")
	// ErrSessionExpired is returned when the session cannot be continued:
	// the refresh token expired, the refresh exchange failed, or the
	// backend rejected our credentials. The stored state is already purged
	// by the time callers see it.
	ErrSessionExpired = errors.New("session: expired")
)

// State describes the credential pair at a point in time.
type State int

const (
	StateUnauthenticated State = iota
	StateFresh
	StateStale
	StateRefreshing
)

func (s State) String() string {
	switch s {
	case StateFresh:
		return "fresh"
	case StateStale:
		return "stale"
	case StateRefreshing:
		return "refreshing"
	default:
		return "unauthenticated"
	}
}

// Refresher exchanges a refresh token for a new access token and its
// expiry. Implemented by the API client's refresh endpoint call.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (access string, accessExpiresAt time.Time, err error)
}

// RefresherFunc adapts a function to the Refresher interface.
type RefresherFunc func(ctx context.Context, refreshToken string) (string, time.Time, error)

func (f RefresherFunc) Refresh(ctx context.Context, refreshToken string) (string, time.Time, error) {
	return f(ctx, refreshToken)
}

// Manager is the token lifecycle manager. It reads through the store on
// every operation; concurrent callers that discover staleness at the same
// moment may both refresh (idempotent, last writer wins on the store), a
// deliberately accepted race in exchange for not serializing requests.
type Manager struct {
	store      credstore.Store
	refresher  Refresher
	logger     *logrus.Logger
	now        func() time.Time
	refreshing atomic.Int32

	mu        sync.Mutex
	onExpired func()
}

// NewManager returns a Manager over the given store. refresher performs the
// actual refresh exchange against the backend.
func NewManager(store credstore.Store, refresher Refresher, logger *logrus.Logger) *Manager {
	return &Manager{
		store:     store,
		refresher: refresher,
		logger:    logger,
		now:       time.Now,
	}
}

// OnSessionExpired registers fn to run whenever the session is forcibly
// ended (refresh failure, refresh expiry, or an authentication rejection).
// It does not run on explicit logout. fn is called after the purge.
func (m *Manager) OnSessionExpired(fn func()) {
	m.mu.Lock()
	m.onExpired = fn
	m.mu.Unlock()
}

// AccessToken returns an access token that is valid now. A fresh token is
// returned as-is with no network traffic. A stale token triggers exactly
// one refresh attempt; on success the new access token and expiry replace
// the old (the refresh token itself is retained unchanged). If the refresh
// token has expired or the exchange fails, all stored state is purged and
// ErrSessionExpired is returned. An expired token is never returned.
func (m *Manager) AccessToken(ctx context.Context) (string, error) {
	creds, err := m.store.LoadCredentials(ctx)
	if errors.Is(err, credstore.ErrNotFound) {
		return "", ErrNotAuthenticated
	}
	if err != nil {
		return "", fmt.Errorf("failed to load credentials: %w", err)
	}

	now := m.now()
	if creds.AccessValid(now) {
		return creds.AccessToken, nil
	}
	if !creds.RefreshValid(now) {
		m.logger.Info("Refresh token expired, ending session")
		m.expire(ctx)
		return "", ErrSessionExpired
	}

	m.refreshing.Add(1)
	access, expiresAt, err := m.refresher.Refresh(ctx, creds.RefreshToken)
	m.refreshing.Add(-1)
	if err != nil {
		m.logger.WithError(err).Warn("Token refresh failed, ending session")
		m.expire(ctx)
		return "", fmt.Errorf("%w: refresh failed: %v", ErrSessionExpired, err)
	}

	updated := *creds
	updated.AccessToken = access
	updated.AccessExpiresAt = expiresAt
	if err := m.store.SaveCredentials(ctx, &updated); err != nil {
		return "", fmt.Errorf("failed to save refreshed credentials: %w", err)
	}

	m.logger.WithField("access_expires_at", expiresAt).Debug("Access token refreshed")
	return access, nil
}

// Authenticated reports whether a refresh token is stored and its expiry is
// strictly in the future. Access-token freshness is irrelevant here since
// stale access tokens are refreshed transparently.
func (m *Manager) Authenticated(ctx context.Context) bool {
	creds, err := m.store.LoadCredentials(ctx)
	if err != nil {
		return false
	}
	return creds.RefreshValid(m.now())
}

// State reports the lifecycle state of the stored pair. StateRefreshing is
// reported while any refresh exchange is in flight.
func (m *Manager) State(ctx context.Context) State {
	if m.refreshing.Load() > 0 {
		return StateRefreshing
	}
	creds, err := m.store.LoadCredentials(ctx)
	if err != nil {
		return StateUnauthenticated
	}
	now := m.now()
	switch {
	case creds.AccessValid(now):
		return StateFresh
	case creds.RefreshValid(now):
		return StateStale
	default:
		return StateUnauthenticated
	}
}

// Establish stores a freshly issued credential pair, replacing any previous
// session. The pair is written as one document so the four fields stay
// consistent. A profile, when given, is cached best-effort alongside.
func (m *Manager) Establish(ctx context.Context, creds *models.Credentials, profile *models.Profile) error {
	if err := m.store.SaveCredentials(ctx, creds); err != nil {
		return fmt.Errorf("failed to store credentials: %w", err)
	}
	if profile != nil {
		if err := m.store.SaveProfile(ctx, profile); err != nil {
			m.logger.WithError(err).Warn("Failed to cache profile")
		}
	}
	return nil
}

// Purge clears credentials and cached profile without treating it as a
// forced expiry (used by explicit logout).
func (m *Manager) Purge(ctx context.Context) error {
	return m.store.Clear(ctx)
}

// HandleAuthRejection reacts to an authentication-rejection response from
// any endpoint: the session is fatal regardless of local freshness, so all
// stored state is purged and the expiry handler runs.
func (m *Manager) HandleAuthRejection(ctx context.Context) {
	m.logger.Warn("Authenticated request rejected by backend, ending session")
	m.expire(ctx)
}

// Profile returns the cached profile, or credstore.ErrNotFound when none is
// cached.
func (m *Manager) Profile(ctx context.Context) (*models.Profile, error) {
	return m.store.LoadProfile(ctx)
}

// CacheProfile replaces the cached profile.
func (m *Manager) CacheProfile(ctx context.Context, profile *models.Profile) error {
	return m.store.SaveProfile(ctx, profile)
}

func (m *Manager) expire(ctx context.Context) {
	if err := m.store.Clear(ctx); err != nil {
		m.logger.WithError(err).Error("Failed to clear session state")
	}
	m.mu.Lock()
	fn := m.onExpired
	m.mu.Unlock()
	if fn != nil {
		fn()
	}
}
