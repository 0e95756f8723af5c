package jupiter

import (
	"encoding/json"
	"strconv"
)

// Swap modes understood by the quote endpoint.
const (
	SwapModeExactIn  = "ExactIn"
	SwapModeExactOut = "ExactOut"
)

// QuoteRequest asks for the price of converting one mint into another.
// Amount is in the smallest unit of the input mint for ExactIn, or of the
// output mint for ExactOut.
type QuoteRequest struct {
	InputMint   string
	OutputMint  string
	Amount      uint64
	SlippageBps int    // zero means the client default
	SwapMode    string // empty means ExactIn
}

// Quote is a priced route. Raw holds the exact bytes the upstream returned
// and is what gets echoed back when building the swap.
type Quote struct {
	InputMint            string          `json:"inputMint"`
	InAmount             string          `json:"inAmount"`
	OutputMint           string          `json:"outputMint"`
	OutAmount            string          `json:"outAmount"`
	OtherAmountThreshold string          `json:"otherAmountThreshold"`
	SwapMode             string          `json:"swapMode"`
	SlippageBps          int             `json:"slippageBps"`
	PriceImpactPct       string          `json:"priceImpactPct"`
	RoutePlan            json.RawMessage `json:"routePlan,omitempty"`
	ContextSlot          uint64          `json:"contextSlot,omitempty"`

	Raw json.RawMessage `json:"-"`
}

// InAmountUint parses InAmount.
func (q *Quote) InAmountUint() (uint64, error) {
	return strconv.ParseUint(q.InAmount, 10, 64)
}

// OutAmountUint parses OutAmount.
func (q *Quote) OutAmountUint() (uint64, error) {
	return strconv.ParseUint(q.OutAmount, 10, 64)
}

// SwapRequest asks for an unsigned transaction that realises a quote.
type SwapRequest struct {
	UserPublicKey string
	Quote         *Quote
	// DestinationTokenAccount overrides where the output lands; empty means
	// the user's own associated token account.
	DestinationTokenAccount string
	// PriorityFeeMicroLamports is the compute unit price hint; zero means the
	// client default.
	PriorityFeeMicroLamports uint64
}

// SwapResult is a built swap: the base64 transaction plus the quote it realises.
type SwapResult struct {
	TxBase64 string
	Quote    *Quote
}

type swapRequestBody struct {
	UserPublicKey                 string          `json:"userPublicKey"`
	QuoteResponse                 json.RawMessage `json:"quoteResponse"`
	DestinationTokenAccount       string          `json:"destinationTokenAccount,omitempty"`
	ComputeUnitPriceMicroLamports uint64          `json:"computeUnitPriceMicroLamports"`
	AsLegacyTransaction           bool            `json:"asLegacyTransaction"`
}

type swapResponseBody struct {
	SwapTransaction      string `json:"swapTransaction"`
	LastValidBlockHeight uint64 `json:"lastValidBlockHeight,omitempty"`
}
