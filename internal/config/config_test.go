package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080/api/v1", cfg.Client.BaseURL)
	assert.Equal(t, 5*time.Minute, cfg.Client.RevalidateInterval)
	assert.Equal(t, "file", cfg.CredStore.Backend)
	assert.NotEmpty(t, cfg.CredStore.Dir)
	assert.Equal(t, 7*24*time.Hour, cfg.Sim.RefreshTTL)
	assert.Equal(t, 5, cfg.Sim.MaxSessions)
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("RAILOPS_API_URL", "https://fleet.example.com/api/v1")
	t.Setenv("RAILOPS_REVALIDATE_INTERVAL", "90s")
	t.Setenv("RAILOPS_CRED_STORE", "redis")
	t.Setenv("REDIS_ENDPOINT", "redis.internal:6380")
	t.Setenv("REDIS_DB", "3")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://fleet.example.com/api/v1", cfg.Client.BaseURL)
	assert.Equal(t, 90*time.Second, cfg.Client.RevalidateInterval)
	assert.Equal(t, "redis", cfg.CredStore.Backend)
	assert.Equal(t, "redis.internal:6380", cfg.Redis.Endpoint)
	assert.Equal(t, 3, cfg.Redis.DB)
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	t.Setenv("RAILOPS_CRED_STORE", "floppy")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RAILOPS_CRED_STORE")
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("RAILOPS_REVALIDATE_INTERVAL", "every now and then")
	t.Setenv("REDIS_DB", "three")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, cfg.Client.RevalidateInterval)
	assert.Equal(t, 0, cfg.Redis.DB)
}
