package airbills

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/brojonat/framprelay/service/metrics"
	"github.com/brojonat/framprelay/service/upstream"
	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
)

const serviceName = "airbills"

// ValidationError reports a request field that was missing or malformed.
type ValidationError = upstream.ValidationError

// AirtimeRequest is a request for an unsigned airtime purchase transaction.
// Amount and Fee are in local currency units.
type AirtimeRequest struct {
	PhoneNumber string
	Amount      decimal.Decimal
	Fee         decimal.Decimal
	Token       string // asset symbol the vendor should charge, e.g. "USDC"
	UserAddress string // payer public key, base58
}

// AirtimeResult is the vendor's unsigned transaction and its tracking id.
type AirtimeResult struct {
	TxBase64 string
	ID       string
}

type airtimeRequestBody struct {
	PhoneNumber string      `json:"phoneNumber"`
	Amount      json.Number `json:"amount"`
	Token       string      `json:"token"`
	Fee         json.Number `json:"fee"`
	UserAddress string      `json:"user_address"`
}

type airtimeResponseBody struct {
	IX string `json:"ix"`
	ID string `json:"id"`
}

type confirmRequestBody struct {
	ID string `json:"id"`
}

// Client talks to the AirbillsPay vendor API.
type Client struct {
	baseURL   string
	secretKey string
	http      *upstream.Client
	logger    *slog.Logger
}

// NewClient creates a vendor client rooted at baseURL. secretKey is sent on
// every request in the secretkey header.
func NewClient(baseURL, secretKey string, httpClient *http.Client, m *metrics.Metrics, logger *slog.Logger) *Client {
	up := upstream.NewClient(serviceName, httpClient, m, logger)
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		secretKey: secretKey,
		http:      up,
		logger:    logger,
	}
}

// ValidateAirtime checks that every field the vendor requires is present.
// The payer address must also parse as a public key.
func ValidateAirtime(req AirtimeRequest) error {
	if strings.TrimSpace(req.PhoneNumber) == "" {
		return &ValidationError{Field: "phoneNumber", Message: "Phone number is required"}
	}
	if !req.Amount.IsPositive() {
		return &ValidationError{Field: "amount", Message: "Amount is required"}
	}
	if req.Fee.IsNegative() {
		return &ValidationError{Field: "fee", Message: "Fee cannot be negative"}
	}
	if req.UserAddress == "" {
		return &ValidationError{Field: "userAddress", Message: "User address is required"}
	}
	if _, err := solana.PublicKeyFromBase58(req.UserAddress); err != nil {
		return &ValidationError{Field: "userAddress", Message: fmt.Sprintf("User address is invalid: %v", err)}
	}
	if req.Token == "" {
		return &ValidationError{Field: "token", Message: "Token is required"}
	}
	return nil
}

// AirtimeTransaction asks the vendor to build an unsigned airtime payment.
func (c *Client) AirtimeTransaction(ctx context.Context, req AirtimeRequest) (*AirtimeResult, error) {
	if err := ValidateAirtime(req); err != nil {
		return nil, err
	}

	body := airtimeRequestBody{
		PhoneNumber: req.PhoneNumber,
		Amount:      json.Number(req.Amount.String()),
		Token:       req.Token,
		Fee:         json.Number(req.Fee.String()),
		UserAddress: req.UserAddress,
	}

	var resp airtimeResponseBody
	if err := c.http.PostJSON(ctx, "airtime", c.baseURL+"/airtime/paypoint", body, c.header(), &resp); err != nil {
		return nil, err
	}
	if resp.IX == "" {
		return nil, upstream.MissingField(serviceName, "airtime", "ix")
	}
	if resp.ID == "" {
		return nil, upstream.MissingField(serviceName, "airtime", "id")
	}

	c.logger.DebugContext(ctx, "vendor built airtime transaction",
		"id", resp.ID,
		"token", req.Token,
		"amount", req.Amount.String(),
	)
	return &AirtimeResult{TxBase64: resp.IX, ID: resp.ID}, nil
}

// Confirm finalises a previously submitted payment and returns the vendor's
// response body unchanged.
func (c *Client) Confirm(ctx context.Context, id string) (json.RawMessage, error) {
	if strings.TrimSpace(id) == "" {
		return nil, &ValidationError{Field: "id", Message: "Transaction id is required"}
	}

	var raw json.RawMessage
	if err := c.http.PostJSON(ctx, "confirm", c.baseURL+"/airtime/paypoint/complete", confirmRequestBody{ID: id}, c.header(), &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func (c *Client) header() http.Header {
	h := http.Header{}
	h.Set("secretkey", c.secretKey)
	return h
}
