package models

import "time"

// Credentials is the locally held token pair issued at login. Both tokens
// are opaque to the client; freshness is judged only by the expiry
// timestamps returned alongside them.
type Credentials struct {
	AccessToken      string    `json:"access_token" dynamodbav:"access_token"`
	RefreshToken     string    `json:"refresh_token" dynamodbav:"refresh_token"`
	AccessExpiresAt  time.Time `json:"access_expires_at" dynamodbav:"access_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at" dynamodbav:"refresh_expires_at"`
}

// AccessValid reports whether the access token is present and not expired
// at the given instant.
func (c *Credentials) AccessValid(now time.Time) bool {
	return c != nil && c.AccessToken != "" && now.Before(c.AccessExpiresAt)
}

// RefreshValid reports whether the refresh token is present and its expiry
// is strictly in the future. This is the definition of "authenticated".
func (c *Credentials) RefreshValid(now time.Time) bool {
	return c != nil && c.RefreshToken != "" && now.Before(c.RefreshExpiresAt)
}
