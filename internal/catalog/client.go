// Package catalog consumes the external catalog service: the services a
// business sells and the staff who perform them.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/Dragonxt022/Express-Services-sub000/pkg/logging"
)

const defaultTimeout = 20 * time.Second

// Client is an HTTP Directory backed by the catalog service's REST API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *logging.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient overrides the underlying HTTP client (tests).
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a catalog API client.
func NewClient(baseURL, apiKey string, logger *logging.Logger, opts ...ClientOption) *Client {
	if logger == nil {
		logger = logging.Default()
	}
	c := &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		logger: logger.Component("catalog"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetService fetches one service by id.
func (c *Client) GetService(ctx context.Context, id string) (*Service, error) {
	var svc Service
	if err := c.get(ctx, "/v1/services/"+url.PathEscape(id), ErrServiceNotFound, &svc); err != nil {
		return nil, err
	}
	return &svc, nil
}

// ProfessionalsForService fetches the professionals eligible for a service.
func (c *Client) ProfessionalsForService(ctx context.Context, serviceID string) ([]Professional, error) {
	var payload struct {
		Professionals []Professional `json:"professionals"`
	}
	path := "/v1/services/" + url.PathEscape(serviceID) + "/professionals"
	if err := c.get(ctx, path, ErrServiceNotFound, &payload); err != nil {
		return nil, err
	}
	return payload.Professionals, nil
}

// IsActive reports whether the professional is currently active.
func (c *Client) IsActive(ctx context.Context, professionalID string) (bool, error) {
	var payload struct {
		Active bool `json:"active"`
	}
	path := "/v1/professionals/" + url.PathEscape(professionalID) + "/status"
	if err := c.get(ctx, path, ErrProfessionalNotFound, &payload); err != nil {
		return false, err
	}
	return payload.Active, nil
}

func (c *Client) get(ctx context.Context, path string, notFound error, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("catalog: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("catalog: request %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return notFound
	case resp.StatusCode >= 400:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		c.logger.Warn("catalog request failed", "path", path, "status", resp.StatusCode)
		return fmt.Errorf("catalog: %s returned %d: %s", path, resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("catalog: decode %s: %w", path, err)
	}
	return nil
}
