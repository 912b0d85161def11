package api

import (
	"context"
	"net/http"

	"github.com/railops/railops/internal/models"
)

type sessionListResponse struct {
	Sessions []models.SessionDescriptor `json:"sessions"`
}

// Sessions lists every active login for the account, across devices. The
// entry matching the local credentials carries is_current.
func (c *Client) Sessions(ctx context.Context) ([]models.SessionDescriptor, error) {
	var resp sessionListResponse
	if err := c.do(ctx, http.MethodGet, "/auth/sessions", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Sessions, nil
}

type terminateSessionRequest struct {
	SessionID string `json:"session_id" validate:"required"`
}

// TerminateSession revokes another device's session. Terminating the current
// session is allowed; the next authenticated call will then come back 401 and
// purge local state.
func (c *Client) TerminateSession(ctx context.Context, sessionID string) error {
	req := terminateSessionRequest{SessionID: sessionID}
	if err := c.validator.Struct(req); err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, "/auth/session/terminate", req, nil)
}

// SessionStatus reports the server-side view of the current session.
func (c *Client) SessionStatus(ctx context.Context) (*models.SessionStatus, error) {
	var status models.SessionStatus
	if err := c.do(ctx, http.MethodGet, "/auth/session/status", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}
