package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/brojonat/framprelay/service/metrics"
)

// maxErrorBody bounds how much of a failed response is kept for the error message.
const maxErrorBody = 4 << 10

// Client performs JSON calls against a single named upstream API.
// It holds no per-call state and is safe for concurrent use.
type Client struct {
	service    string
	httpClient *http.Client
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// NewClient creates a client for the named upstream service.
// A nil httpClient gets a 30s timeout client; nil metrics disables recording.
func NewClient(service string, httpClient *http.Client, m *metrics.Metrics, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &Client{
		service:    service,
		httpClient: httpClient,
		metrics:    m,
		logger:     logger,
	}
}

// Service returns the upstream name used in errors and metrics.
func (c *Client) Service() string {
	return c.service
}

// GetJSON issues a GET with the given query and headers and decodes a 2xx
// response body into out.
func (c *Client) GetJSON(ctx context.Context, op, rawURL string, query url.Values, header http.Header, out any) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return &Error{Service: c.service, Op: op, Err: fmt.Errorf("invalid url %q: %w", rawURL, err)}
	}
	if len(query) > 0 {
		q := u.Query()
		for k, vs := range query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return &Error{Service: c.service, Op: op, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	copyHeader(req.Header, header)

	return c.do(req, op, out)
}

// PostJSON marshals body, POSTs it with the given headers and decodes a 2xx
// response body into out.
func (c *Client) PostJSON(ctx context.Context, op, rawURL string, body any, header http.Header, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return &Error{Service: c.service, Op: op, Err: fmt.Errorf("failed to marshal request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, bytes.NewReader(payload))
	if err != nil {
		return &Error{Service: c.service, Op: op, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	copyHeader(req.Header, header)

	return c.do(req, op, out)
}

func (c *Client) do(req *http.Request, op string, out any) error {
	ctx := req.Context()
	req.Header.Set("Accept", "application/json")

	c.logger.DebugContext(ctx, "calling upstream",
		"service", c.service,
		"operation", op,
		"method", req.Method,
		"url", req.URL.Redacted(),
	)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.record(op, "error", start)
		return &Error{Service: c.service, Op: op, Err: fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.record(op, "error", start)
		return parseErrorResponse(c.service, op, resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			c.record(op, "error", start)
			return &Error{Service: c.service, Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to decode response: %w", err)}
		}
	}

	c.record(op, "success", start)
	c.logger.DebugContext(ctx, "upstream call succeeded",
		"service", c.service,
		"operation", op,
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)
	return nil
}

func (c *Client) record(op, status string, start time.Time) {
	if c.metrics != nil {
		c.metrics.RecordUpstreamCall(c.service, op, status, time.Since(start).Seconds())
	}
}

// parseErrorResponse turns a non-2xx response into an Error, surfacing an
// {"error": ...} or {"message": ...} body when the upstream sends one.
func parseErrorResponse(service, op string, resp *http.Response) error {
	var errResp struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	msg := string(bytes.TrimSpace(body))
	if err := json.Unmarshal(body, &errResp); err == nil {
		switch {
		case errResp.Error != "":
			msg = errResp.Error
		case errResp.Message != "":
			msg = errResp.Message
		}
	}

	return &Error{Service: service, Op: op, StatusCode: resp.StatusCode, Message: msg}
}

func copyHeader(dst, src http.Header) {
	for k, vs := range src {
		for _, v := range vs {
			dst.Add(k, v)
		}
	}
}
