package orders

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/Dragonxt022/Express-Services-sub000/internal/schedule"
	"github.com/Dragonxt022/Express-Services-sub000/pkg/logging"
)

const defaultTimeout = 20 * time.Second

// Client is the HTTP Checkout backed by the orders service.
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

// NewClient creates an orders API client.
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
		logger: logger.Component("orders"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SubmitBooking posts the finalized booking to checkout. A 409 from
// the service maps to *schedule.ConflictError so callers route the
// customer back to time selection.
func (c *Client) SubmitBooking(ctx context.Context, req SubmitRequest) (*Receipt, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, &schedule.FatalError{Reason: "orders: encode booking: " + err.Error()}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/bookings", bytes.NewReader(body))
	if err != nil {
		return nil, &schedule.TransientError{Op: "orders: build request", Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &schedule.TransientError{Op: "orders: submit booking", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusConflict:
		var failure struct {
			Reason string `json:"reason"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&failure)
		if failure.Reason == "" {
			failure.Reason = "slot no longer available"
		}
		return nil, &schedule.ConflictError{Reason: failure.Reason}
	case resp.StatusCode == http.StatusUnprocessableEntity:
		var failure struct {
			Field  string `json:"field"`
			Reason string `json:"reason"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&failure)
		return nil, &schedule.ValidationError{Field: failure.Field, Reason: failure.Reason}
	case resp.StatusCode >= 400:
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		c.logger.Warn("checkout failed", "status", resp.StatusCode, "body", string(payload))
		return nil, &schedule.TransientError{
			Op:  "orders: submit booking",
			Err: &statusError{code: resp.StatusCode},
		}
	}

	var receipt Receipt
	if err := json.NewDecoder(resp.Body).Decode(&receipt); err != nil {
		return nil, &schedule.TransientError{Op: "orders: decode receipt", Err: err}
	}
	return &receipt, nil
}

type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return "unexpected status " + http.StatusText(e.code)
}
