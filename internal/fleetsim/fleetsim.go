// Package fleetsim is a self-contained stand-in for the fleet backend. It
// issues real JWT pairs, enforces per-user session caps and serves the full
// resource surface the client consumes, so the client can be exercised
// end-to-end without network access to the production API.
package fleetsim

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

const (
	DefaultAccessTTL   = 15 * time.Minute
	DefaultRefreshTTL  = 7 * 24 * time.Hour
	DefaultMaxSessions = 5
)

type Config struct {
	// Secret signs tokens; a random one is generated when empty.
	Secret      string
	AccessTTL   time.Duration
	RefreshTTL  time.Duration
	MaxSessions int
}

type Server struct {
	issuer      *tokenIssuer
	registry    *sessionRegistry
	store       *store
	logger      *logrus.Logger
	refreshTTL  time.Duration
	maxSessions int
}

func New(cfg Config, logger *logrus.Logger) (*Server, error) {
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = DefaultAccessTTL
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = DefaultRefreshTTL
	}
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = DefaultMaxSessions
	}

	issuer, err := newTokenIssuer(cfg.Secret, cfg.AccessTTL, cfg.RefreshTTL)
	if err != nil {
		return nil, fmt.Errorf("init token issuer: %w", err)
	}
	st, err := newStore()
	if err != nil {
		return nil, fmt.Errorf("seed store: %w", err)
	}

	return &Server{
		issuer:      issuer,
		registry:    newSessionRegistry(cfg.MaxSessions),
		store:       st,
		logger:      logger,
		refreshTTL:  cfg.RefreshTTL,
		maxSessions: cfg.MaxSessions,
	}, nil
}

// Handler returns the full HTTP surface, mounted under /api/v1.
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()
	router.Use(loggingMiddleware(s.logger))

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	api := router.PathPrefix("/api/v1").Subrouter()

	auth := api.PathPrefix("/auth").Subrouter()
	auth.HandleFunc("/login", s.handleLogin).Methods("POST")
	auth.HandleFunc("/token/refresh", s.handleRefresh).Methods("POST")

	protected := api.PathPrefix("/").Subrouter()
	protected.Use(s.requireAuth)

	protected.HandleFunc("/auth/logout", s.handleLogout).Methods("POST")
	protected.HandleFunc("/auth/change-password", s.handleChangePassword).Methods("POST")
	protected.HandleFunc("/auth/sessions", s.handleListSessions).Methods("GET")
	protected.HandleFunc("/auth/session/terminate", s.handleTerminateSession).Methods("POST")
	protected.HandleFunc("/auth/session/status", s.handleSessionStatus).Methods("GET")

	protected.HandleFunc("/profile", s.handleGetProfile).Methods("GET")
	protected.HandleFunc("/profile", s.handlePutProfile).Methods("PUT")
	protected.HandleFunc("/profile", s.handlePatchProfile).Methods("PATCH")
	protected.HandleFunc("/preferences", s.handleGetPreferences).Methods("GET")
	protected.HandleFunc("/preferences", s.handlePutPreferences).Methods("PUT")

	protected.HandleFunc("/trainsets", s.handleListTrainsets).Methods("GET")
	protected.HandleFunc("/trainsets", s.handleCreateTrainset).Methods("POST")
	protected.HandleFunc("/trainsets/{id}", s.handleGetTrainset).Methods("GET")
	protected.HandleFunc("/trainsets/{id}", s.handleUpdateTrainset).Methods("PUT")
	protected.HandleFunc("/trainsets/{id}", s.handleDeleteTrainset).Methods("DELETE")

	protected.HandleFunc("/components", s.handleListComponents).Methods("GET")
	protected.HandleFunc("/components", s.handleCreateComponent).Methods("POST")
	protected.HandleFunc("/components/{id}", s.handleGetComponent).Methods("GET")
	protected.HandleFunc("/components/{id}", s.handleUpdateComponent).Methods("PUT")
	protected.HandleFunc("/components/{id}", s.handleDeleteComponent).Methods("DELETE")

	protected.HandleFunc("/mileage", s.handleListMileage).Methods("GET")
	protected.HandleFunc("/mileage", s.handleCreateMileage).Methods("POST")
	protected.HandleFunc("/mileage/{id}", s.handleGetMileage).Methods("GET")
	protected.HandleFunc("/mileage/{id}", s.handleUpdateMileage).Methods("PUT")
	protected.HandleFunc("/mileage/{id}", s.handleDeleteMileage).Methods("DELETE")

	protected.HandleFunc("/dashboard/kpis", s.handleKPIs).Methods("GET")
	protected.HandleFunc("/activity", s.handleActivity).Methods("GET")

	return router
}

// TerminateUserSessions drops every session for the account. Tests use it to
// simulate a server-side revocation that the client only discovers through a
// 401.
func (s *Server) TerminateUserSessions(email string) int {
	id, ok := s.store.userIDByEmail(email)
	if !ok {
		return 0
	}

	n := 0
	for _, sess := range s.registry.listForUser(id) {
		if s.registry.terminate(sess.ID) {
			n++
		}
	}
	return n
}
