// Package api is the typed client for the RailOps fleet backend. Every
// authenticated call obtains its bearer token from the session manager, so
// silent refresh and forced logout on rejection happen in one place.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/railops/railops/internal/credstore"
	"github.com/railops/railops/internal/session"
	"github.com/railops/railops/internal/validate"
)

const defaultTimeout = 15 * time.Second

// Error is a normalized backend error. The backend wraps failures in a
// {"error": {"code", "message"}} envelope; anything that does not parse
// falls back to the HTTP status text.
type Error struct {
	Status  int
	Code    string
	Message string
}

func (e *Error) Error() string {
	if e.Code == "" {
		return e.Message
	}
	return fmt.Sprintf("%s (%s)", e.Message, e.Code)
}

type Options struct {
	BaseURL string
	Timeout time.Duration
	// HTTPClient overrides the default client, mainly for tests.
	HTTPClient *http.Client
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	sessions   *session.Manager
	validator  *validate.Validator
	logger     *logrus.Logger
}

// New builds a client around the given credential store. The session manager
// it creates refreshes access tokens through this client's own refresh
// endpoint call.
func New(opts Options, store credstore.Store, logger *logrus.Logger) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	c := &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		httpClient: httpClient,
		validator:  validate.New(),
		logger:     logger,
	}
	c.sessions = session.NewManager(store, session.RefresherFunc(c.refreshAccessToken), logger)
	return c
}

// Session exposes the token lifecycle manager for state queries, revalidation
// and expiry callbacks.
func (c *Client) Session() *session.Manager {
	return c.sessions
}

func (c *Client) Logger() *logrus.Logger {
	return c.logger
}

// do issues an authenticated request. It awaits a valid access token first,
// so a stale token is refreshed before the call ever leaves the process. A
// 401 from the backend ends the session.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	token, err := c.sessions.AccessToken(ctx)
	if err != nil {
		return err
	}

	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	err = c.send(req, out)
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
		c.sessions.HandleAuthRejection(ctx)
		return fmt.Errorf("%s: %w", apiErr.Message, session.ErrSessionExpired)
	}
	return err
}

// anonymous issues a request without a bearer token (login, token refresh).
func (c *Client) anonymous(ctx context.Context, method, path string, body, out interface{}) error {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	return c.send(req, out)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body interface{}) (*http.Request, error) {
	var payload io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s request: %w", method, path, err)
		}
		payload = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, payload)
	if err != nil {
		return nil, fmt.Errorf("build %s %s request: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.New().String())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func (c *Client) send(req *http.Request, out interface{}) error {
	c.logger.WithFields(logrus.Fields{
		"method": req.Method,
		"path":   req.URL.Path,
	}).Debug("API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp)
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", req.Method, req.URL.Path, err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &Error{Status: resp.StatusCode}

	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		apiErr.Code = envelope.Error.Code
		apiErr.Message = envelope.Error.Message
		return apiErr
	}

	apiErr.Message = http.StatusText(resp.StatusCode)
	return apiErr
}
