// Package client talks to a running surat server over HTTP.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sekolah/surat/internal/apperr"
	"github.com/sekolah/surat/internal/model"
)

// DefaultTimeout bounds a single request when no http.Client is supplied.
const DefaultTimeout = 15 * time.Second

// Client is an HTTP client for the surat API. It satisfies
// session.Authenticator.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New returns a Client for the server at baseURL (e.g. http://localhost:8080).
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type identityResponse struct {
	Data *model.Identity `json:"data"`
}

// Authenticate posts the credentials to /api/auth/login. Failures reported
// by the server come back as *apperr.Error with the server's kind and
// message; anything that prevents a readable answer is KindConnection.
func (c *Client) Authenticate(ctx context.Context, email, password string) (*model.Identity, error) {
	body, err := json.Marshal(loginRequest{Email: email, Password: password})
	if err != nil {
		return nil, apperr.System(fmt.Errorf("encode login request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/auth/login", bytes.NewReader(body))
	if err != nil {
		return nil, apperr.Connection(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperr.Connection(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, apperr.Connection(fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp.StatusCode, raw)
	}

	var out identityResponse
	if err := json.Unmarshal(raw, &out); err != nil || out.Data == nil {
		return nil, apperr.Connection(fmt.Errorf("unexpected login response (status %d)", resp.StatusCode))
	}
	return out.Data, nil
}

// decodeError turns an error envelope back into an *apperr.Error.
func decodeError(status int, raw []byte) error {
	var env model.ErrorResponse
	if err := json.Unmarshal(raw, &env); err != nil || env.Error.Message == "" {
		return apperr.Connection(fmt.Errorf("unexpected response status %d", status))
	}
	return &apperr.Error{
		Kind:    apperr.KindFromTag(env.Error.Type),
		Message: env.Error.Message,
		Fields:  env.Error.Fields,
	}
}
