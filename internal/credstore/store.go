// Package credstore persists the locally held credential pair and cached
// user profile behind a small key-value contract. The credential pair is
// always written as a single document so the four fields (both tokens and
// both expiries) can never be observed partially updated.
package credstore

import (
	"context"
	"errors"

	"github.com/railops/railops/internal/models"
)

// ErrNotFound is returned when no value is stored under the requested key.
var ErrNotFound = errors.New("credstore: not found")

// Store is the persistence contract for client session state. All
// implementations are safe for concurrent use; writers follow a
// last-writer-wins discipline.
type Store interface {
	LoadCredentials(ctx context.Context) (*models.Credentials, error)
	SaveCredentials(ctx context.Context, creds *models.Credentials) error
	LoadProfile(ctx context.Context) (*models.Profile, error)
	SaveProfile(ctx context.Context, profile *models.Profile) error
	// Clear removes credentials and cached profile together. Clearing an
	// already empty store is not an error.
	Clear(ctx context.Context) error
}
