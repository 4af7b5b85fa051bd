// Package apiclient is a typed HTTP client for the medicine catalog API.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/giygas/medicine-inventory/catalog"
	"github.com/giygas/medicine-inventory/logging"
)

const defaultTimeout = 15 * time.Second

// maxResponseSize bounds how much of a response body is read.
const maxResponseSize = 16 * 1024 * 1024

// NetworkError reports a failed call: a transport error or a non-2xx response.
type NetworkError struct {
	Op         string
	URL        string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: status %d: %v", e.Op, e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is a 404 response from the API.
func IsNotFound(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr) && netErr.StatusCode == http.StatusNotFound
}

// Client talks to one catalog API base URL. It is safe for concurrent use.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	userAgent  string
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client. A nil client is ignored.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the per-request timeout. The client passed to
// WithHTTPClient is copied, never modified.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		hc := *c.httpClient
		hc.Timeout = d
		c.httpClient = &hc
	}
}

// WithUserAgent sets the User-Agent header sent on every request.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// New returns a client for the API rooted at baseURL, e.g. "http://127.0.0.1:8000".
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid API base URL %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid API base URL %q: scheme must be http or https", baseURL)
	}

	c := &Client{
		baseURL:    u,
		httpClient: &http.Client{Timeout: defaultTimeout},
		userAgent:  "medinv",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Filters fetches the type and dosage form vocabularies.
func (c *Client) Filters(ctx context.Context) (catalog.FilterOptions, error) {
	var out catalog.FilterOptions
	err := c.do(ctx, "filters", http.MethodGet, "/api/filters", nil, nil, &out)
	return out, err
}

// Statistics fetches the catalog aggregates.
func (c *Client) Statistics(ctx context.Context) (catalog.Statistics, error) {
	var out catalog.Statistics
	err := c.do(ctx, "statistics", http.MethodGet, "/api/statistics", nil, nil, &out)
	return out, err
}

// Search fetches one page of medicines matching params.
func (c *Client) Search(ctx context.Context, params catalog.SearchParams) (catalog.SearchResult, error) {
	var out catalog.SearchResult
	err := c.do(ctx, "search", http.MethodGet, "/api/medicines/search", params.Values(), nil, &out)
	if out.Medicines == nil {
		out.Medicines = []catalog.Medicine{}
	}
	return out, err
}

// List fetches medicines in id order without filtering.
func (c *Client) List(ctx context.Context, skip, limit int) (catalog.SearchResult, error) {
	q := url.Values{}
	q.Set("skip", strconv.Itoa(skip))
	q.Set("limit", strconv.Itoa(limit))

	var out catalog.SearchResult
	err := c.do(ctx, "list", http.MethodGet, "/api/medicines", q, nil, &out)
	return out, err
}

// Get fetches a single medicine.
func (c *Client) Get(ctx context.Context, id int) (catalog.Medicine, error) {
	var out catalog.Medicine
	err := c.do(ctx, "get", http.MethodGet, medicinePath(id), nil, nil, &out)
	return out, err
}

// Update sends the given fields of a medicine and returns the stored result.
func (c *Client) Update(ctx context.Context, id int, update catalog.MedicineUpdate) (catalog.Medicine, error) {
	var out catalog.Medicine
	err := c.do(ctx, "update", http.MethodPut, medicinePath(id), nil, update, &out)
	return out, err
}

// Create adds a medicine and returns it with its assigned id.
func (c *Client) Create(ctx context.Context, m catalog.MedicineUpdate) (catalog.Medicine, error) {
	var out catalog.Medicine
	err := c.do(ctx, "create", http.MethodPost, "/api/medicines", nil, m, &out)
	return out, err
}

// Delete removes a medicine.
func (c *Client) Delete(ctx context.Context, id int) error {
	return c.do(ctx, "delete", http.MethodDelete, medicinePath(id), nil, nil, nil)
}

func medicinePath(id int) string {
	return "/api/medicines/" + strconv.Itoa(id)
}

func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body, out any) error {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	target := u.String()

	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return &NetworkError{Op: op, URL: target, Err: fmt.Errorf("failed to encode request: %w", err)}
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return &NetworkError{Op: op, URL: target, Err: err}
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-Id", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &NetworkError{Op: op, URL: target, Err: err}
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logging.Warn("Failed to close response body", "error", err)
		}
	}()

	logging.Debug("API call",
		"op", op,
		"request_id", requestID,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return &NetworkError{Op: op, URL: target, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &NetworkError{Op: op, URL: target, StatusCode: resp.StatusCode, Err: errorFromBody(data)}
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &NetworkError{Op: op, URL: target, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return nil
}

// errorFromBody extracts the message of an API error response.
func errorFromBody(data []byte) error {
	var apiErr struct {
		Error   string `json:"error"`
		Message string `json:"message"`
		Detail  string `json:"detail"`
	}
	if err := json.Unmarshal(data, &apiErr); err == nil {
		switch {
		case apiErr.Message != "":
			return errors.New(apiErr.Message)
		case apiErr.Detail != "":
			return errors.New(apiErr.Detail)
		case apiErr.Error != "":
			return errors.New(apiErr.Error)
		}
	}

	text := strings.TrimSpace(string(data))
	if len(text) > 200 {
		text = text[:200]
	}
	if text == "" {
		text = "empty response"
	}
	return errors.New(text)
}
