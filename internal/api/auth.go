package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/railops/railops/internal/models"
	"github.com/railops/railops/internal/session"
)

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// LoginResult is the login response. Expiry instants come from the server so
// client clock drift cannot shorten or extend a session.
type LoginResult struct {
	Access              string         `json:"access"`
	Refresh             string         `json:"refresh"`
	AccessExpiresAt     time.Time      `json:"access_expires_at"`
	RefreshExpiresAt    time.Time      `json:"refresh_expires_at"`
	User                models.Profile `json:"user"`
	SessionID           string         `json:"session_id"`
	MaxSessions         int            `json:"max_sessions"`
	ActiveSessionsCount int            `json:"active_sessions_count"`
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

type refreshResponse struct {
	Access          string    `json:"access"`
	AccessExpiresAt time.Time `json:"access_expires_at"`
}

// Login exchanges credentials for a token pair and establishes the session.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	req := LoginRequest{Email: email, Password: password}
	if err := c.validator.Struct(req); err != nil {
		return nil, err
	}

	var result LoginResult
	if err := c.anonymous(ctx, http.MethodPost, "/auth/login", req, &result); err != nil {
		return nil, err
	}

	creds := &models.Credentials{
		AccessToken:      result.Access,
		RefreshToken:     result.Refresh,
		AccessExpiresAt:  result.AccessExpiresAt,
		RefreshExpiresAt: result.RefreshExpiresAt,
	}
	if err := c.sessions.Establish(ctx, creds, &result.User); err != nil {
		return nil, err
	}

	c.logger.WithFields(logrus.Fields{
		"session_id":      result.SessionID,
		"active_sessions": result.ActiveSessionsCount,
	}).Info("Logged in")
	return &result, nil
}

// refreshAccessToken exchanges the refresh token for a new access token. It
// is wired into the session manager as its Refresher, so it must stay free of
// c.do: calling an authenticated helper from here would recurse into the
// manager.
func (c *Client) refreshAccessToken(ctx context.Context, refreshToken string) (string, time.Time, error) {
	var resp refreshResponse
	err := c.anonymous(ctx, http.MethodPost, "/auth/token/refresh", refreshRequest{Refresh: refreshToken}, &resp)
	if err != nil {
		return "", time.Time{}, err
	}
	return resp.Access, resp.AccessExpiresAt, nil
}

// Logout revokes the session server-side on a best-effort basis and always
// clears local credentials.
func (c *Client) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "/auth/logout", nil, nil)
	if err != nil && !errors.Is(err, session.ErrNotAuthenticated) && !errors.Is(err, session.ErrSessionExpired) {
		c.logger.WithError(err).Warn("Server logout failed; clearing local credentials anyway")
	}
	return c.sessions.Purge(ctx)
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
	ConfirmPassword string `json:"-" validate:"required"`
}

// ChangePassword verifies the confirmation locally before anything goes on
// the wire.
func (c *Client) ChangePassword(ctx context.Context, req ChangePasswordRequest) error {
	if err := c.validator.Struct(req); err != nil {
		return err
	}
	if req.NewPassword != req.ConfirmPassword {
		return errors.New("new password and confirmation do not match")
	}
	return c.do(ctx, http.MethodPost, "/auth/change-password", req, nil)
}
