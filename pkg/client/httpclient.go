package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	apperrors "reservo/pkg/errors"
)

const (
	headerUserID         = "X-User-ID"
	headerUserRole       = "X-User-Role"
	headerIdempotencyKey = "Idempotency-Key"
)

// HttpClient talks to a reservo API as a given caller. Copies made with As
// and WithIdempotencyKey share the underlying *http.Client.
type HttpClient struct {
	BaseURL        string
	HTTPClient     *http.Client
	UserID         string
	Role           string
	IdempotencyKey string
}

func NewHttpClient(baseURL string) *HttpClient {
	return &HttpClient{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *HttpClient) As(userID, role string) *HttpClient {
	cp := *c
	cp.UserID, cp.Role = userID, role
	return &cp
}

// WithIdempotencyKey returns a copy that sends key on every mutating call.
func (c *HttpClient) WithIdempotencyKey(key string) *HttpClient {
	cp := *c
	cp.IdempotencyKey = key
	return &cp
}

type Response struct {
	*http.Response
	Body []byte
}

func (r *Response) DecodeJSON(target any) error {
	return json.Unmarshal(r.Body, target)
}

// DecodeData unwraps the {"data": ...} envelope used by success responses.
func (r *Response) DecodeData(target any) error {
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(r.Body, &envelope); err != nil {
		return err
	}
	return json.Unmarshal(envelope.Data, target)
}

// APIError decodes the error envelope. It returns nil for 2xx responses.
func (r *Response) APIError() (*apperrors.ErrorResponse, error) {
	if r.StatusCode < http.StatusBadRequest {
		return nil, nil
	}
	var body apperrors.ErrorResponse
	if err := json.Unmarshal(r.Body, &body); err != nil {
		return nil, fmt.Errorf("decode error body (status %d): %w", r.StatusCode, err)
	}
	return &body, nil
}

func (c *HttpClient) GET(ctx context.Context, path string) (*Response, error) {
	return c.do(ctx, http.MethodGet, path, nil)
}

func (c *HttpClient) POST(ctx context.Context, path string, body any) (*Response, error) {
	return c.do(ctx, http.MethodPost, path, body)
}

func (c *HttpClient) PUT(ctx context.Context, path string, body any) (*Response, error) {
	return c.do(ctx, http.MethodPut, path, body)
}

func (c *HttpClient) DELETE(ctx context.Context, path string) (*Response, error) {
	return c.do(ctx, http.MethodDelete, path, nil)
}

func (c *HttpClient) do(ctx context.Context, method, path string, body any) (*Response, error) {
	var payload io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		payload = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, payload)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, path, err)
	}
	c.setHeaders(req, body != nil)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s %s: %w", method, path, err)
	}
	return &Response{Response: resp, Body: raw}, nil
}

func (c *HttpClient) setHeaders(req *http.Request, hasBody bool) {
	if hasBody {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.UserID != "" {
		req.Header.Set(headerUserID, c.UserID)
	}
	if c.Role != "" {
		req.Header.Set(headerUserRole, c.Role)
	}
	if c.IdempotencyKey != "" && req.Method != http.MethodGet {
		req.Header.Set(headerIdempotencyKey, c.IdempotencyKey)
	}
}

// WaitForHealthy polls /ready, which also checks the storage backends.
func (c *HttpClient) WaitForHealthy(ctx context.Context, maxWait time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, maxWait)
	defer cancel()

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	for {
		if resp, err := c.GET(ctx, "/ready"); err == nil && resp.StatusCode == http.StatusOK {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("service not ready within %v: %w", maxWait, ctx.Err())
		case <-ticker.C:
		}
	}
}
