package solscan

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/brojonat/framprelay/service/metrics"
	"github.com/brojonat/framprelay/service/upstream"
)

// Status check results, used as metric labels.
const (
	ResultSuccess = "success"
	ResultFailed  = "failed"
	ResultError   = "error"
)

type detailResponse struct {
	Success bool `json:"success"`
	Data    *struct {
		Success bool `json:"success"`
	} `json:"data"`
}

// Client checks transaction outcomes against the Solscan transaction detail API.
type Client struct {
	apiURL  string
	apiKey  string
	timeout time.Duration
	http    *upstream.Client
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewClient creates a status client. apiURL is the full transaction detail
// endpoint; timeout bounds each Verify call and is ignored when zero.
func NewClient(apiURL, apiKey string, timeout time.Duration, httpClient *http.Client, m *metrics.Metrics, logger *slog.Logger) *Client {
	up := upstream.NewClient("solscan", httpClient, m, logger)
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &Client{
		apiURL:  apiURL,
		apiKey:  apiKey,
		timeout: timeout,
		http:    up,
		metrics: m,
		logger:  logger,
	}
}

// Verify reports whether the transaction with the given signature succeeded.
// Every failure to find out, including timeouts and malformed responses,
// is reported as false.
func (c *Client) Verify(ctx context.Context, signature string) bool {
	if signature == "" {
		c.record(ResultError)
		return false
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	header := http.Header{}
	header.Set("token", c.apiKey)

	var resp detailResponse
	if err := c.http.GetJSON(ctx, "transaction_detail", c.apiURL, url.Values{"tx": {signature}}, header, &resp); err != nil {
		c.logger.WarnContext(ctx, "failed to verify transaction",
			"signature", signature,
			"error", err,
		)
		c.record(ResultError)
		return false
	}

	ok := resp.Success && resp.Data != nil && resp.Data.Success
	if ok {
		c.record(ResultSuccess)
	} else {
		c.record(ResultFailed)
	}
	return ok
}

func (c *Client) record(result string) {
	if c.metrics != nil {
		c.metrics.RecordStatusCheck(result)
	}
}
