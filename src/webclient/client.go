package webclient

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
)

const defaultTimeout = 30 * time.Second

// MaxResponseBytes caps how much of a response body is read.
const MaxResponseBytes = 1 << 20

// ErrResponseTooLarge is returned when a successful response exceeds the cap.
var ErrResponseTooLarge = errors.New("response body too large")

// NewDefault returns an HTTP client with sane timeouts.
func NewDefault(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

// Client issues authenticated JSON requests against a fixed base URL.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	maxBody    int64
}

// New creates a client. A nil httpClient falls back to NewDefault(0).
func New(baseURL, bearerToken string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = NewDefault(0)
	}
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		token:      bearerToken,
		httpClient: httpClient,
		maxBody:    MaxResponseBytes,
	}
}

// Get performs an authenticated GET and returns the status and raw body.
func (c *Client) Get(ctx context.Context, endpoint string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url(endpoint), nil)
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	return c.do(req)
}

// Post marshals payload as JSON and performs an authenticated POST.
func (c *Client) Post(ctx context.Context, endpoint string, payload any) (int, []byte, error) {
	if payload == nil {
		payload = struct{}{}
	}
	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, fmt.Errorf("marshal body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url(endpoint), bytes.NewReader(jsonBody))
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *Client) do(req *http.Request) (int, []byte, error) {
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response: %w", err)
	}
	tooLarge := int64(len(respBody)) > c.maxBody
	if tooLarge {
		respBody = respBody[:c.maxBody]
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, respBody, &HTTPError{
			StatusCode: resp.StatusCode,
			Body:       respBody,
			RetryAfter: strings.TrimSpace(resp.Header.Get("Retry-After")),
		}
	}

	if tooLarge {
		return resp.StatusCode, nil, fmt.Errorf("read response: %w (limit %d bytes)", ErrResponseTooLarge, c.maxBody)
	}
	return resp.StatusCode, respBody, nil
}

func (c *Client) url(endpoint string) string {
	return c.baseURL + "/" + strings.TrimLeft(endpoint, "/")
}
