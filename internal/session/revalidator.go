package session

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultRevalidateInterval is how often the background check runs when no
// interval is configured.
const DefaultRevalidateInterval = 5 * time.Minute

const revalidateTimeout = 30 * time.Second

// Revalidator periodically re-validates the session through the same
// Manager.AccessToken path used by requests, so expiry is detected even
// while the user is idle. A failed tick purges the session and fires the
// manager's expiry handler (the Manager does both); the revalidator only
// observes. It runs until its context is cancelled or Stop is called; a
// tick already in flight at teardown completes and may still perform its
// store or purge side effect.
type Revalidator struct {
	manager  *Manager
	interval time.Duration
	logger   *logrus.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

// NewRevalidator returns a revalidator for the given manager. interval <= 0
// falls back to DefaultRevalidateInterval.
func NewRevalidator(manager *Manager, interval time.Duration, logger *logrus.Logger) *Revalidator {
	if interval <= 0 {
		interval = DefaultRevalidateInterval
	}
	return &Revalidator{
		manager:  manager,
		interval: interval,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// Start launches the background loop. It must be called at most once.
func (r *Revalidator) Start(ctx context.Context) {
	ctx, r.cancel = context.WithCancel(ctx)
	ticker := time.NewTicker(r.interval)
	go func() {
		defer ticker.Stop()
		defer close(r.done)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				tickCtx, cancel := context.WithTimeout(ctx, revalidateTimeout)
				_, err := r.manager.AccessToken(tickCtx)
				cancel()
				switch {
				case err == nil:
				case errors.Is(err, ErrNotAuthenticated):
					// Nothing stored; nothing to keep alive.
				case errors.Is(err, ErrSessionExpired):
					r.logger.Warn("Background revalidation ended the session")
				default:
					r.logger.WithError(err).Warn("Background revalidation failed")
				}
			}
		}
	}()
}

// Stop cancels the loop and waits for the current tick, if any, to finish.
// Safe to call after the parent context is already cancelled.
func (r *Revalidator) Stop() {
	if r.cancel == nil {
		return
	}
	r.cancel()
	<-r.done
}
