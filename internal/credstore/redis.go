package credstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/railops/railops/internal/models"
)

// Redis persists session state in Redis, for fleet-automation deployments
// where several workers share one login. The credentials key carries a TTL
// matching the refresh expiry so dead sessions age out on their own.
type Redis struct {
	client *redis.Client
	scope  string
	logger *logrus.Logger
}

// NewRedis returns a Redis-backed store. scope distinguishes logins sharing
// one Redis (e.g. a hostname or worker id).
func NewRedis(client *redis.Client, scope string, logger *logrus.Logger) *Redis {
	if scope == "" {
		scope = "default"
	}
	return &Redis{
		client: client,
		scope:  scope,
		logger: logger,
	}
}

func (r *Redis) credentialsKey() string { return fmt.Sprintf("railops:%s:credentials", r.scope) }
func (r *Redis) profileKey() string     { return fmt.Sprintf("railops:%s:profile", r.scope) }

func (r *Redis) LoadCredentials(ctx context.Context) (*models.Credentials, error) {
	dataJSON, err := r.client.Get(ctx, r.credentialsKey()).Result()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get credentials: %w", err)
	}

	var creds models.Credentials
	if err := json.Unmarshal([]byte(dataJSON), &creds); err != nil {
		return nil, fmt.Errorf("failed to unmarshal credentials: %w", err)
	}
	return &creds, nil
}

func (r *Redis) SaveCredentials(ctx context.Context, creds *models.Credentials) error {
	dataJSON, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}

	ttl := time.Until(creds.RefreshExpiresAt)
	if ttl <= 0 {
		ttl = time.Minute
	}
	if err := r.client.Set(ctx, r.credentialsKey(), dataJSON, ttl).Err(); err != nil {
		r.logger.WithError(err).Error("Failed to store credentials in Redis")
		return fmt.Errorf("failed to store credentials: %w", err)
	}
	return nil
}

func (r *Redis) LoadProfile(ctx context.Context) (*models.Profile, error) {
	dataJSON, err := r.client.Get(ctx, r.profileKey()).Result()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	var profile models.Profile
	if err := json.Unmarshal([]byte(dataJSON), &profile); err != nil {
		return nil, fmt.Errorf("failed to unmarshal profile: %w", err)
	}
	return &profile, nil
}

func (r *Redis) SaveProfile(ctx context.Context, profile *models.Profile) error {
	dataJSON, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}
	if err := r.client.Set(ctx, r.profileKey(), dataJSON, 0).Err(); err != nil {
		r.logger.WithError(err).Error("Failed to store profile in Redis")
		return fmt.Errorf("failed to store profile: %w", err)
	}
	return nil
}

func (r *Redis) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, r.credentialsKey(), r.profileKey()).Err(); err != nil {
		return fmt.Errorf("failed to clear session state: %w", err)
	}
	return nil
}
