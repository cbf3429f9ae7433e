package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jrsteele09/toolshop-apitest/internal/config"
	apperrors "github.com/jrsteele09/toolshop-apitest/internal/errors"
	"github.com/jrsteele09/toolshop-apitest/oauthmodel"
	"github.com/jrsteele09/toolshop-apitest/token"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	PathLogin   = "/users/login"
	PathRefresh = "/users/refresh"
)

// Client calls the Toolshop auth endpoints over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

var _ token.AuthServer = (*Client)(nil)

type Option func(*Client)

// WithHTTPClient replaces the underlying client. Its Transport is used as is.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a client for baseURL using the configured timeout and default headers.
func New(baseURL string, cfg config.ClientConfig, options ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout:   cfg.GetRequestTimeout(),
			Transport: NewHeaderTransport(nil, cfg.GetDefaultHeaders()),
		},
		logger: log.Logger,
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// Login posts creds to /users/login.
func (c *Client) Login(ctx context.Context, creds oauthmodel.Credentials) (*oauthmodel.Response, error) {
	reqBody, err := json.Marshal(oauthmodel.LoginRequest(creds))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+PathLogin, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.do(req)
}

// Refresh calls /users/refresh with accessToken as bearer. An empty token sends no
// Authorization header.
func (c *Client) Refresh(ctx context.Context, accessToken string) (*oauthmodel.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+PathRefresh, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}
	return c.do(req)
}

func (c *Client) do(req *http.Request) (*oauthmodel.Response, error) {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %w", apperrors.ErrTransport, req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s response: %w", apperrors.ErrTransport, req.URL.Path, err)
	}

	result := oauthmodel.NewResponse(resp.StatusCode, resp.Header, body)
	c.logger.Debug().
		Str("method", req.Method).
		Str("path", req.URL.Path).
		Int("status", resp.StatusCode).
		Stringer("result", result.Result.Kind).
		Dur("elapsed", time.Since(start)).
		Msg("auth request")
	return result, nil
}
