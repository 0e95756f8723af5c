package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/brojonat/framprelay/service/airbills"
	"github.com/brojonat/framprelay/service/config"
	"github.com/brojonat/framprelay/service/jupiter"
	"github.com/brojonat/framprelay/service/metrics"
	"github.com/brojonat/framprelay/service/relay"
	fsolana "github.com/brojonat/framprelay/service/solana"
	"github.com/brojonat/framprelay/service/solscan"
	"github.com/brojonat/framprelay/service/upstream"
	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
)

// Errors callers may want to detect with errors.As.
type (
	UpstreamError         = upstream.Error
	ValidationError       = upstream.ValidationError
	MissingBlockhashError = fsolana.MissingBlockhashError
)

// GiftParams describes a token gift: the payer swaps Amount of MintToPayWith
// into TokenMintToGift, delivered to Recipient.
type GiftParams struct {
	WalletPublicKey string `json:"wallet_public_key"`
	// Recipient is the destination token account for the gifted token.
	Recipient string `json:"recipient"`
	// Amount is in the smallest unit of MintToPayWith (lamports for SOL).
	Amount          uint64 `json:"amount"`
	MintToPayWith   string `json:"mint_to_pay_with,omitempty"`   // defaults to wrapped SOL
	TokenMintToGift string `json:"token_mint_to_gift,omitempty"` // defaults to USDC
}

// AirtimeParams describes an airtime purchase. Amount and Fee are in local
// currency units; Token is the mint the payer spends.
type AirtimeParams struct {
	PhoneNumber string          `json:"phone_number"`
	Amount      decimal.Decimal `json:"amount"`
	Fee         decimal.Decimal `json:"fee"`
	Token       string          `json:"token"`
	UserAddress string          `json:"user_address"`
}

// TransactionResult is an unsigned transaction ready for the payer to sign.
type TransactionResult struct {
	Transaction *solana.Transaction `json:"-"`
	TxBase64    string              `json:"tx_base64"`
	ID          string              `json:"id,omitempty"`
	Swapped     bool                `json:"swapped"`
	Blockhash   string              `json:"blockhash,omitempty"`
}

// Relayer builds gift and bill-payment transactions against Jupiter,
// AirbillsPay and Solscan. It holds only read-only configuration after
// construction and is safe for concurrent use.
type Relayer struct {
	cfg      config.Config
	jupiter  *jupiter.Client
	airbills *airbills.Client
	solscan  *solscan.Client
	composer *relay.Composer
	logger   *slog.Logger
}

// NewRelayer creates a Relayer. A nil cfg is loaded from the environment;
// empty fields of a non-nil cfg fall back to the environment and then to
// built-in defaults. httpClient, m and logger may be nil.
func NewRelayer(cfg *config.Config, httpClient *http.Client, m *metrics.Metrics, logger *slog.Logger) (*Relayer, error) {
	var c config.Config
	if cfg != nil {
		c = *cfg
	}
	if err := c.ApplyDefaults(); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	referenceMint, err := solana.PublicKeyFromBase58(c.ReferenceMint)
	if err != nil {
		return nil, fmt.Errorf("invalid reference mint: %w", err)
	}
	var altReferenceMint solana.PublicKey
	if c.AltReferenceEnabled() {
		altReferenceMint, err = solana.PublicKeyFromBase58(c.AltReferenceMint)
		if err != nil {
			return nil, fmt.Errorf("invalid alternate reference mint: %w", err)
		}
	}

	jup := jupiter.NewClient(c.JupiterAPIURL, jupiter.Options{
		SlippageBps:              c.SlippageBps,
		PriorityFeeMicroLamports: c.PriorityFeeMicroLamports,
	}, httpClient, m, logger)
	bills := airbills.NewClient(c.AirbillsVendorURL, c.AirbillsSecretKey, httpClient, m, logger)
	status := solscan.NewClient(c.SolscanAPIURL, c.SolscanAPIKey, c.StatusTimeout, httpClient, m, logger)
	composer := relay.NewComposer(jup, bills, relay.Options{
		ReferenceMint:        referenceMint,
		AltReferenceMint:     altReferenceMint,
		FiatPerReferenceUnit: c.FiatPerReferenceUnit,
	}, m, logger)

	return &Relayer{
		cfg:      c,
		jupiter:  jup,
		airbills: bills,
		solscan:  status,
		composer: composer,
		logger:   logger,
	}, nil
}

// Config returns the resolved configuration.
func (r *Relayer) Config() config.Config {
	return r.cfg
}

// GiftToken builds a swap that pays with MintToPayWith and delivers
// TokenMintToGift to the recipient's token account.
func (r *Relayer) GiftToken(ctx context.Context, params GiftParams) (*TransactionResult, error) {
	if err := validateGift(params); err != nil {
		return nil, err
	}

	inputMint := params.MintToPayWith
	if inputMint == "" {
		inputMint = r.cfg.DefaultInputMint
	}
	outputMint := params.TokenMintToGift
	if outputMint == "" {
		outputMint = r.cfg.ReferenceMint
	}

	swap, err := r.jupiter.BuildSwap(ctx, jupiter.QuoteRequest{
		InputMint:  inputMint,
		OutputMint: outputMint,
		Amount:     params.Amount,
	}, params.WalletPublicKey, params.Recipient)
	if err != nil {
		return nil, err
	}

	tx, err := fsolana.DecodeTransaction(swap.TxBase64)
	if err != nil {
		return nil, upstream.MalformedPayload("jupiter", "swap", "swapTransaction", err)
	}

	r.logger.InfoContext(ctx, "built gift swap",
		"payer", params.WalletPublicKey,
		"recipient", params.Recipient,
		"input_mint", inputMint,
		"output_mint", outputMint,
		"out_amount", swap.Quote.OutAmount,
	)
	return &TransactionResult{
		Transaction: tx,
		TxBase64:    swap.TxBase64,
		Swapped:     true,
		Blockhash:   tx.Message.RecentBlockhash.String(),
	}, nil
}

// PayServiceFee builds a fee payment. It follows the same swap flow as
// GiftToken, with Recipient as the fee collector's token account.
func (r *Relayer) PayServiceFee(ctx context.Context, params GiftParams) (*TransactionResult, error) {
	return r.GiftToken(ctx, params)
}

// SendAirtime builds an airtime purchase, prefixing a swap into the
// reference asset when Token is not one.
func (r *Relayer) SendAirtime(ctx context.Context, params AirtimeParams) (*TransactionResult, error) {
	p, err := r.composer.PayAirtime(ctx, relay.AirtimeParams{
		PhoneNumber: params.PhoneNumber,
		Amount:      params.Amount,
		Fee:         params.Fee,
		Token:       params.Token,
		UserAddress: params.UserAddress,
	})
	if err != nil {
		return nil, err
	}
	return &TransactionResult{
		Transaction: p.Transaction,
		TxBase64:    p.TxBase64,
		ID:          p.ID,
		Swapped:     p.Swapped,
		Blockhash:   p.Blockhash.String(),
	}, nil
}

// ConfirmAirtime finalises an airtime purchase by its tracking id and
// returns the vendor's response unchanged.
func (r *Relayer) ConfirmAirtime(ctx context.Context, id string) (json.RawMessage, error) {
	return r.airbills.Confirm(ctx, id)
}

// VerifyTransactionStatus reports whether a submitted transaction succeeded.
// Lookup failures are reported as false.
func (r *Relayer) VerifyTransactionStatus(ctx context.Context, signature string) bool {
	return r.solscan.Verify(ctx, signature)
}

func validateGift(p GiftParams) error {
	if p.WalletPublicKey == "" {
		return &ValidationError{Field: "walletPublicKey", Message: "Wallet public key is required"}
	}
	if _, err := solana.PublicKeyFromBase58(p.WalletPublicKey); err != nil {
		return &ValidationError{Field: "walletPublicKey", Message: fmt.Sprintf("Wallet public key is invalid: %v", err)}
	}
	if p.Recipient == "" {
		return &ValidationError{Field: "recipient", Message: "Recipient is required"}
	}
	if _, err := solana.PublicKeyFromBase58(p.Recipient); err != nil {
		return &ValidationError{Field: "recipient", Message: fmt.Sprintf("Recipient is invalid: %v", err)}
	}
	if p.Amount == 0 {
		return &ValidationError{Field: "amount", Message: "Amount is required"}
	}
	for field, mint := range map[string]string{
		"mintToPayWith":   p.MintToPayWith,
		"tokenMintToGift": p.TokenMintToGift,
	} {
		if mint == "" {
			continue
		}
		if _, err := solana.PublicKeyFromBase58(mint); err != nil {
			return &ValidationError{Field: field, Message: fmt.Sprintf("%s is not a valid mint: %v", field, err)}
		}
	}
	return nil
}
