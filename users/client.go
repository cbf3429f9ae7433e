package users

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jrsteele09/toolshop-apitest/authclient"
	apperrors "github.com/jrsteele09/toolshop-apitest/internal/errors"
	"golang.org/x/oauth2"
)

const PathMe = "/users/me"

// Client calls the Toolshop users API. Requests are authenticated by an oauth2.TokenSource.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// MeResponse is the outcome of GET /users/me. User is nil unless StatusCode is 200.
type MeResponse struct {
	StatusCode int
	Body       []byte
	User       *User
}

// NewClient builds a client for baseURL. A nil src sends requests without a bearer token.
func NewClient(baseURL string, src oauth2.TokenSource, timeout time.Duration, headers map[string]string) *Client {
	var transport http.RoundTripper = authclient.NewHeaderTransport(nil, headers)
	if src != nil {
		transport = &oauth2.Transport{Source: src, Base: transport}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}
}

// Me fetches the profile of the authenticated user.
func (c *Client) Me(ctx context.Context) (*MeResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+PathMe, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: GET %s: %w", apperrors.ErrTransport, PathMe, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s response: %w", apperrors.ErrTransport, PathMe, err)
	}

	me := &MeResponse{StatusCode: resp.StatusCode, Body: body}
	if resp.StatusCode != http.StatusOK {
		return me, nil
	}

	var user User
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrMalformedResponse, "decoding %s: %v", PathMe, err)
	}
	me.User = &user
	return me, nil
}
