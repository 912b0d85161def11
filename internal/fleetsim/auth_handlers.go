package fleetsim

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/railops/railops/internal/models"
)

// expiringSoonWindow is how close to refresh expiry a session is flagged as
// expiring soon.
const expiringSoonWindow = 24 * time.Hour

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Access              string         `json:"access"`
	Refresh             string         `json:"refresh"`
	AccessExpiresAt     time.Time      `json:"access_expires_at"`
	RefreshExpiresAt    time.Time      `json:"refresh_expires_at"`
	User                models.Profile `json:"user"`
	SessionID           string         `json:"session_id"`
	MaxSessions         int            `json:"max_sessions"`
	ActiveSessionsCount int            `json:"active_sessions_count"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "Email and password are required")
		return
	}

	user, err := s.store.authenticate(req.Email, req.Password)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password")
		return
	}

	refreshExpiry := time.Now().Add(s.refreshTTL)
	sess := s.registry.create(user.ID, r.UserAgent(), clientIP(r), refreshExpiry)

	access, accessExpiresAt, err := s.issuer.mintAccess(user.ID, user.Email, sess.ID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to sign access token")
		respondError(w, http.StatusInternalServerError, "TOKEN_GENERATION_FAILED", "Failed to generate tokens")
		return
	}
	refresh, refreshExpiresAt, err := s.issuer.mintRefresh(user.ID, user.Email, sess.ID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to sign refresh token")
		respondError(w, http.StatusInternalServerError, "TOKEN_GENERATION_FAILED", "Failed to generate tokens")
		return
	}

	s.logger.WithFields(logrus.Fields{
		"user":       user.Email,
		"session_id": sess.ID,
	}).Info("User logged in")

	respondJSON(w, http.StatusOK, loginResponse{
		Access:              access,
		Refresh:             refresh,
		AccessExpiresAt:     accessExpiresAt,
		RefreshExpiresAt:    refreshExpiresAt,
		User:                user.Profile,
		SessionID:           sess.ID,
		MaxSessions:         s.maxSessions,
		ActiveSessionsCount: s.registry.countForUser(user.ID),
	})
}

type refreshTokenRequest struct {
	Refresh string `json:"refresh"`
}

type refreshTokenResponse struct {
	Access          string    `json:"access"`
	AccessExpiresAt time.Time `json:"access_expires_at"`
}

// handleRefresh swaps a valid refresh token for a new access token. The
// refresh token itself is not rotated.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}
	if req.Refresh == "" {
		respondError(w, http.StatusBadRequest, "MISSING_TOKEN", "Refresh token is required")
		return
	}

	claims, err := s.issuer.verify(req.Refresh)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid refresh token")
		return
	}
	if claims.Type != "refresh" {
		respondError(w, http.StatusUnauthorized, "INVALID_TOKEN_TYPE", "Token is not a refresh token")
		return
	}
	if _, ok := s.registry.get(claims.SID); !ok {
		respondError(w, http.StatusUnauthorized, "SESSION_TERMINATED", "Session terminated or expired")
		return
	}

	access, accessExpiresAt, err := s.issuer.mintAccess(claims.Subject, claims.Email, claims.SID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to sign access token")
		respondError(w, http.StatusInternalServerError, "TOKEN_GENERATION_FAILED", "Failed to generate tokens")
		return
	}
	s.registry.touch(claims.SID)

	respondJSON(w, http.StatusOK, refreshTokenResponse{
		Access:          access,
		AccessExpiresAt: accessExpiresAt,
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	sid := sessionID(r)
	s.registry.terminate(sid)
	s.logger.WithField("session_id", sid).Info("User logged out")
	respondJSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}
	if len(req.NewPassword) < 8 {
		respondError(w, http.StatusBadRequest, "WEAK_PASSWORD", "New password must be at least 8 characters")
		return
	}

	// A wrong current password is a 403, not a 401: the session itself is
	// still valid and must not be torn down by the client.
	if err := s.store.changePassword(userID(r), req.CurrentPassword, req.NewPassword); err != nil {
		respondError(w, http.StatusForbidden, "INVALID_PASSWORD", "Current password is incorrect")
		return
	}

	s.store.recordActivity(userEmail(r), "changed password", "account")
	respondJSON(w, http.StatusOK, map[string]string{"message": "Password updated"})
}

type sessionListResponse struct {
	Sessions []models.SessionDescriptor `json:"sessions"`
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	current := sessionID(r)
	now := time.Now()

	var out []models.SessionDescriptor
	for _, sess := range s.registry.listForUser(userID(r)) {
		out = append(out, describeSession(sess, current, now))
	}
	respondJSON(w, http.StatusOK, sessionListResponse{Sessions: out})
}

type terminateSessionRequest struct {
	SessionID string `json:"session_id"`
}

func (s *Server) handleTerminateSession(w http.ResponseWriter, r *http.Request) {
	var req terminateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}
	if req.SessionID == "" {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "session_id is required")
		return
	}

	sess, ok := s.registry.get(req.SessionID)
	if !ok || sess.UserID != userID(r) {
		respondError(w, http.StatusNotFound, "SESSION_NOT_FOUND", "No such session")
		return
	}
	s.registry.terminate(req.SessionID)

	s.logger.WithFields(logrus.Fields{
		"session_id": req.SessionID,
		"by":         sessionID(r),
	}).Info("Session terminated")
	respondJSON(w, http.StatusOK, map[string]string{"message": "Session terminated"})
}

func (s *Server) handleSessionStatus(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.registry.get(sessionID(r))
	if !ok {
		respondError(w, http.StatusUnauthorized, "SESSION_TERMINATED", "Session terminated or expired")
		return
	}

	now := time.Now()
	respondJSON(w, http.StatusOK, models.SessionStatus{
		SessionID:      sess.ID,
		ExpiresAt:      sess.ExpiresAt,
		TimeRemaining:  int64(sess.ExpiresAt.Sub(now).Seconds()),
		ExpiringSoon:   sess.ExpiresAt.Sub(now) < expiringSoonWindow,
		ActiveSessions: s.registry.countForUser(sess.UserID),
		MaxSessions:    s.maxSessions,
	})
}

func describeSession(sess Session, currentID string, now time.Time) models.SessionDescriptor {
	remaining := sess.ExpiresAt.Sub(now)
	return models.SessionDescriptor{
		ID:             sess.ID,
		UserAgent:      sess.UserAgent,
		IPAddress:      sess.IPAddress,
		LoginAt:        sess.LoginAt,
		LastActivityAt: sess.LastActivityAt,
		TimeRemaining:  int64(remaining.Seconds()),
		ExpiringSoon:   remaining < expiringSoonWindow,
		IsCurrent:      sess.ID == currentID,
	}
}
