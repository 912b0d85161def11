package credstore

import (
	"context"
	"sync"

	"github.com/railops/railops/internal/models"
)

// Memory is an in-process Store for tests and ephemeral sessions.
type Memory struct {
	mu      sync.RWMutex
	creds   *models.Credentials
	profile *models.Profile
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) LoadCredentials(_ context.Context) (*models.Credentials, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.creds == nil {
		return nil, ErrNotFound
	}
	c := *m.creds
	return &c, nil
}

func (m *Memory) SaveCredentials(_ context.Context, creds *models.Credentials) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *creds
	m.creds = &c
	return nil
}

func (m *Memory) LoadProfile(_ context.Context) (*models.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.profile == nil {
		return nil, ErrNotFound
	}
	p := *m.profile
	return &p, nil
}

func (m *Memory) SaveProfile(_ context.Context, profile *models.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := *profile
	m.profile = &p
	return nil
}

func (m *Memory) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds = nil
	m.profile = nil
	return nil
}
