package client

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

	fsolana "github.com/brojonat/framprelay/service/solana"
)

// Remote calls a relay server instead of the upstream APIs directly, so the
// vendor secret never leaves the server. It offers the same operations as
// Relayer.
type Remote struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewRemote creates a client for the relay server at baseURL.
func NewRemote(baseURL string, httpClient *http.Client, logger *slog.Logger) *Remote {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 90 * time.Second}
	}
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &Remote{
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger,
	}
}

// GiftToken asks the server to build a gift swap.
func (c *Remote) GiftToken(ctx context.Context, params GiftParams) (*TransactionResult, error) {
	return c.buildTransaction(ctx, "gift", "/api/v1/gift", params)
}

// PayServiceFee asks the server to build a fee payment.
func (c *Remote) PayServiceFee(ctx context.Context, params GiftParams) (*TransactionResult, error) {
	return c.buildTransaction(ctx, "fee", "/api/v1/fee", params)
}

// SendAirtime asks the server to build an airtime payment.
func (c *Remote) SendAirtime(ctx context.Context, params AirtimeParams) (*TransactionResult, error) {
	return c.buildTransaction(ctx, "airtime", "/api/v1/airtime", params)
}

// ConfirmAirtime asks the server to finalise an airtime payment.
func (c *Remote) ConfirmAirtime(ctx context.Context, id string) (json.RawMessage, error) {
	if id == "" {
		return nil, &ValidationError{Field: "id", Message: "Transaction id is required"}
	}

	u := fmt.Sprintf("%s/api/v1/airtime/%s/confirm", c.baseURL, url.PathEscape(id))
	req, err := http.NewRequestWithContext(ctx, "POST", u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &UpstreamError{Service: "relay", Op: "confirm", Err: fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, parseErrorResponse("confirm", resp)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &UpstreamError{Service: "relay", Op: "confirm", Err: fmt.Errorf("failed to read response: %w", err)}
	}

	c.logger.Debug("airtime confirmed", "id", id)
	return json.RawMessage(raw), nil
}

// VerifyTransactionStatus asks the server whether a transaction succeeded.
// Any failure to reach the server is reported as false.
func (c *Remote) VerifyTransactionStatus(ctx context.Context, signature string) bool {
	u := fmt.Sprintf("%s/api/v1/transactions/%s/status", c.baseURL, url.PathEscape(signature))
	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		c.logger.Warn("failed to create status request", "error", err)
		return false
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("status request failed", "signature", signature, "error", err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("status request rejected", "signature", signature, "status", resp.StatusCode)
		return false
	}

	var status struct {
		Success bool `json:"success"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		c.logger.Warn("failed to decode status response", "signature", signature, "error", err)
		return false
	}
	return status.Success
}

func (c *Remote) buildTransaction(ctx context.Context, op, path string, params any) (*TransactionResult, error) {
	body, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &UpstreamError{Service: "relay", Op: op, Err: fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, parseErrorResponse(op, resp)
	}

	var result TransactionResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &UpstreamError{Service: "relay", Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	tx, err := fsolana.DecodeTransaction(result.TxBase64)
	if err != nil {
		return nil, &UpstreamError{Service: "relay", Op: op, StatusCode: resp.StatusCode, Err: err}
	}
	result.Transaction = tx

	c.logger.Debug("transaction built", "operation", op, "id", result.ID, "swapped", result.Swapped)
	return &result, nil
}

// parseErrorResponse turns a relay server error into the same error types
// the local Relayer returns: 400 is a ValidationError, anything else an
// UpstreamError.
func parseErrorResponse(op string, resp *http.Response) error {
	var errResp struct {
		Error string `json:"error"`
	}

	body, _ := io.ReadAll(resp.Body)
	msg := string(body)
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		msg = errResp.Error
	}

	if resp.StatusCode == http.StatusBadRequest {
		return &ValidationError{Message: msg}
	}
	return &UpstreamError{Service: "relay", Op: op, StatusCode: resp.StatusCode, Message: msg}
}
