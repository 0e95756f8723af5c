package jupiter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/brojonat/framprelay/service/metrics"
	"github.com/brojonat/framprelay/service/upstream"
)

const serviceName = "jupiter"

// Client builds swap transactions against a Jupiter v6 compatible API.
// Swaps are requested as legacy transactions so their instructions can be
// spliced into other transactions without resolving address lookup tables.
type Client struct {
	baseURL     string
	slippageBps int
	priorityFee uint64
	http        *upstream.Client
	logger      *slog.Logger
}

// Options carries the per-deployment defaults applied to every request.
type Options struct {
	SlippageBps              int
	PriorityFeeMicroLamports uint64
}

// NewClient creates a quote/swap client rooted at baseURL
// (e.g. https://quote-api.jup.ag/v6).
func NewClient(baseURL string, opts Options, httpClient *http.Client, m *metrics.Metrics, logger *slog.Logger) *Client {
	up := upstream.NewClient(serviceName, httpClient, m, logger)
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		slippageBps: opts.SlippageBps,
		priorityFee: opts.PriorityFeeMicroLamports,
		http:        up,
		logger:      logger,
	}
}

// Quote requests a price quote.
func (c *Client) Quote(ctx context.Context, req QuoteRequest) (*Quote, error) {
	if req.InputMint == "" {
		return nil, &upstream.ValidationError{Field: "inputMint", Message: "Input mint is required"}
	}
	if req.OutputMint == "" {
		return nil, &upstream.ValidationError{Field: "outputMint", Message: "Output mint is required"}
	}
	if req.Amount == 0 {
		return nil, &upstream.ValidationError{Field: "amount", Message: "Amount must be greater than zero"}
	}

	slippage := req.SlippageBps
	if slippage == 0 {
		slippage = c.slippageBps
	}
	mode := req.SwapMode
	if mode == "" {
		mode = SwapModeExactIn
	}

	query := url.Values{}
	query.Set("inputMint", req.InputMint)
	query.Set("outputMint", req.OutputMint)
	query.Set("amount", strconv.FormatUint(req.Amount, 10))
	query.Set("slippageBps", strconv.Itoa(slippage))
	query.Set("swapMode", mode)

	var raw json.RawMessage
	if err := c.http.GetJSON(ctx, "quote", c.baseURL+"/quote", query, nil, &raw); err != nil {
		return nil, err
	}

	var quote Quote
	if err := json.Unmarshal(raw, &quote); err != nil {
		return nil, &upstream.Error{Service: serviceName, Op: "quote", Err: fmt.Errorf("failed to decode quote: %w", err)}
	}
	if quote.OutAmount == "" {
		return nil, upstream.MissingField(serviceName, "quote", "outAmount")
	}
	quote.Raw = raw

	c.logger.DebugContext(ctx, "received quote",
		"input_mint", quote.InputMint,
		"output_mint", quote.OutputMint,
		"in_amount", quote.InAmount,
		"out_amount", quote.OutAmount,
		"swap_mode", quote.SwapMode,
	)
	return &quote, nil
}

// SwapTransaction requests the unsigned transaction realising a quote and
// returns it base64 encoded.
func (c *Client) SwapTransaction(ctx context.Context, req SwapRequest) (string, error) {
	if req.Quote == nil || len(req.Quote.Raw) == 0 {
		return "", &upstream.ValidationError{Field: "quote", Message: "A quote is required"}
	}
	if req.UserPublicKey == "" {
		return "", &upstream.ValidationError{Field: "userPublicKey", Message: "User public key is required"}
	}

	fee := req.PriorityFeeMicroLamports
	if fee == 0 {
		fee = c.priorityFee
	}

	body := swapRequestBody{
		UserPublicKey:                 req.UserPublicKey,
		QuoteResponse:                 req.Quote.Raw,
		DestinationTokenAccount:       req.DestinationTokenAccount,
		ComputeUnitPriceMicroLamports: fee,
		AsLegacyTransaction:           true,
	}

	var resp swapResponseBody
	if err := c.http.PostJSON(ctx, "swap", c.baseURL+"/swap", body, nil, &resp); err != nil {
		return "", err
	}
	if resp.SwapTransaction == "" {
		return "", upstream.MissingField(serviceName, "swap", "swapTransaction")
	}
	return resp.SwapTransaction, nil
}

// BuildSwap quotes and then builds the swap for payer. destination may be
// empty to keep the output in the payer's own token account.
func (c *Client) BuildSwap(ctx context.Context, req QuoteRequest, payer, destination string) (*SwapResult, error) {
	quote, err := c.Quote(ctx, req)
	if err != nil {
		return nil, err
	}

	txB64, err := c.SwapTransaction(ctx, SwapRequest{
		UserPublicKey:           payer,
		Quote:                   quote,
		DestinationTokenAccount: destination,
	})
	if err != nil {
		return nil, err
	}

	return &SwapResult{TxBase64: txB64, Quote: quote}, nil
}
