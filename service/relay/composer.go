package relay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/brojonat/framprelay/service/airbills"
	"github.com/brojonat/framprelay/service/jupiter"
	"github.com/brojonat/framprelay/service/metrics"
	fsolana "github.com/brojonat/framprelay/service/solana"
	"github.com/brojonat/framprelay/service/upstream"
	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
)

// Payment paths, used as metric labels.
const (
	PathDirect = "direct"
	PathSwap   = "swap"
)

// Swapper builds a swap transaction for a quote request.
type Swapper interface {
	BuildSwap(ctx context.Context, req jupiter.QuoteRequest, payer, destination string) (*jupiter.SwapResult, error)
}

// Biller builds a bill-payment transaction.
type Biller interface {
	AirtimeTransaction(ctx context.Context, req airbills.AirtimeRequest) (*airbills.AirtimeResult, error)
}

// AirtimeParams describes an airtime purchase funded with Token.
// Amount and Fee are in local currency units.
type AirtimeParams struct {
	PhoneNumber string
	Amount      decimal.Decimal
	Fee         decimal.Decimal
	Token       string // mint the payer wants to spend
	UserAddress string // payer public key, base58
}

// Payment is an unsigned, ready-to-sign bill payment.
type Payment struct {
	Transaction *solana.Transaction
	TxBase64    string
	ID          string // vendor tracking id, needed to confirm later
	Swapped     bool
	Blockhash   solana.Hash
}

// Options configures which mints are settled directly and how local
// currency amounts map onto the reference asset.
type Options struct {
	ReferenceMint    solana.PublicKey
	AltReferenceMint solana.PublicKey // zero disables the second direct asset
	// FiatPerReferenceUnit is how many local currency units one whole
	// reference-asset unit buys.
	FiatPerReferenceUnit decimal.Decimal
}

// Composer turns airtime requests into single signable transactions,
// prefixing a swap into the reference asset when the payer pays with
// anything else.
type Composer struct {
	swapper Swapper
	biller  Biller
	opts    Options
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewComposer creates a Composer. metrics and logger may be nil.
func NewComposer(swapper Swapper, biller Biller, opts Options, m *metrics.Metrics, logger *slog.Logger) *Composer {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &Composer{
		swapper: swapper,
		biller:  biller,
		opts:    opts,
		metrics: m,
		logger:  logger,
	}
}

// PayAirtime builds the transaction for an airtime purchase.
//
// When the token is one of the reference assets the vendor's transaction is
// returned re-encoded and no swap is requested. Otherwise a swap into the
// reference asset is built first and the vendor's instructions are appended
// to it under the swap's blockhash, with the payer as fee payer.
func (c *Composer) PayAirtime(ctx context.Context, params AirtimeParams) (*Payment, error) {
	req := airbills.AirtimeRequest{
		PhoneNumber: params.PhoneNumber,
		Amount:      params.Amount,
		Fee:         params.Fee,
		Token:       params.Token,
		UserAddress: params.UserAddress,
	}
	if err := airbills.ValidateAirtime(req); err != nil {
		return nil, err
	}
	mint, err := solana.PublicKeyFromBase58(params.Token)
	if err != nil {
		return nil, &airbills.ValidationError{Field: "token", Message: fmt.Sprintf("Token is not a valid mint: %v", err)}
	}
	payer := solana.MustPublicKeyFromBase58(params.UserAddress)

	if symbol, ok := c.directSymbol(mint); ok {
		req.Token = symbol
		p, err := c.payDirect(ctx, req)
		c.record(PathDirect, p, err)
		return p, err
	}

	req.Token = c.referenceSymbol()
	p, err := c.payWithSwap(ctx, req, mint, payer)
	c.record(PathSwap, p, err)
	return p, err
}

func (c *Composer) payDirect(ctx context.Context, req airbills.AirtimeRequest) (*Payment, error) {
	bill, err := c.biller.AirtimeTransaction(ctx, req)
	if err != nil {
		return nil, err
	}

	decoded, err := fsolana.Decode(bill.TxBase64)
	if err != nil {
		return nil, upstream.MalformedPayload("airbills", "airtime", "ix", err)
	}
	txB64, err := fsolana.EncodeTransaction(decoded.Transaction)
	if err != nil {
		return nil, err
	}

	c.logger.InfoContext(ctx, "built direct payment",
		"id", bill.ID,
		"token", req.Token,
		"instructions", len(decoded.Instructions),
	)
	return &Payment{
		Transaction: decoded.Transaction,
		TxBase64:    txB64,
		ID:          bill.ID,
		Blockhash:   decoded.Blockhash,
	}, nil
}

func (c *Composer) payWithSwap(ctx context.Context, req airbills.AirtimeRequest, mint, payer solana.PublicKey) (*Payment, error) {
	units, err := c.referenceUnits(req.Amount)
	if err != nil {
		return nil, err
	}

	swap, err := c.swapper.BuildSwap(ctx, jupiter.QuoteRequest{
		InputMint:  mint.String(),
		OutputMint: c.opts.ReferenceMint.String(),
		Amount:     units,
		SwapMode:   jupiter.SwapModeExactOut,
	}, payer.String(), "")
	if err != nil {
		return nil, err
	}

	swapTx, err := fsolana.Decode(swap.TxBase64)
	if err != nil {
		return nil, upstream.MalformedPayload("jupiter", "swap", "swapTransaction", err)
	}
	if swapTx.Blockhash == (solana.Hash{}) {
		return nil, &fsolana.MissingBlockhashError{Leg: "swap"}
	}

	bill, err := c.biller.AirtimeTransaction(ctx, req)
	if err != nil {
		return nil, err
	}
	payTx, err := fsolana.Decode(bill.TxBase64)
	if err != nil {
		return nil, upstream.MalformedPayload("airbills", "airtime", "ix", err)
	}

	tx, err := fsolana.Compose(swapTx.Instructions, payTx.Instructions, swapTx.Blockhash, payer)
	if err != nil {
		return nil, err
	}
	txB64, err := fsolana.EncodeTransaction(tx)
	if err != nil {
		return nil, err
	}

	c.logger.InfoContext(ctx, "composed swap and payment",
		"id", bill.ID,
		"input_mint", mint.String(),
		"reference_units", units,
		"swap_instructions", len(swapTx.Instructions),
		"payment_instructions", len(payTx.Instructions),
	)
	return &Payment{
		Transaction: tx,
		TxBase64:    txB64,
		ID:          bill.ID,
		Swapped:     true,
		Blockhash:   swapTx.Blockhash,
	}, nil
}

// ReferenceUnits converts a local currency amount into the smallest unit of
// the reference asset, rounding up so the swap never undershoots the bill.
func ReferenceUnits(amount, fiatPerUnit decimal.Decimal) (uint64, error) {
	if !fiatPerUnit.IsPositive() {
		return 0, errors.New("conversion rate must be positive")
	}
	units := amount.Div(fiatPerUnit).Shift(fsolana.ReferenceDecimals).Ceil()
	if !units.IsPositive() {
		return 0, fmt.Errorf("amount %s converts to zero reference units", amount)
	}
	if !units.BigInt().IsUint64() {
		return 0, fmt.Errorf("amount %s is too large", amount)
	}
	return units.BigInt().Uint64(), nil
}

func (c *Composer) referenceUnits(amount decimal.Decimal) (uint64, error) {
	return ReferenceUnits(amount, c.opts.FiatPerReferenceUnit)
}

func (c *Composer) directSymbol(mint solana.PublicKey) (string, bool) {
	switch {
	case mint.Equals(c.opts.ReferenceMint):
		return c.referenceSymbol(), true
	case !c.opts.AltReferenceMint.IsZero() && mint.Equals(c.opts.AltReferenceMint):
		return fsolana.MintSymbol(mint)
	}
	return "", false
}

func (c *Composer) referenceSymbol() string {
	if s, ok := fsolana.MintSymbol(c.opts.ReferenceMint); ok {
		return s
	}
	return "USDC"
}

func (c *Composer) record(path string, p *Payment, err error) {
	if c.metrics == nil {
		return
	}
	n := 0
	if p != nil && p.Transaction != nil {
		n = len(p.Transaction.Message.Instructions)
	}
	c.metrics.RecordPaymentBuilt(path, n, err)
}
