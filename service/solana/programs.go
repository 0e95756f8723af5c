package solana

import (
	"github.com/gagliardetto/solana-go"
)

// Well-known Solana program IDs
var (
	// SystemProgramID is the native SOL transfer program
	SystemProgramID = solana.SystemProgramID

	// TokenProgramID is the SPL Token program
	TokenProgramID = solana.MustPublicKeyFromBase58("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")

	// Token2022ProgramID is the Token Extensions program (Token-2022)
	Token2022ProgramID = solana.MustPublicKeyFromBase58("TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb")

	// AssociatedTokenProgramID creates associated token accounts
	AssociatedTokenProgramID = solana.MustPublicKeyFromBase58("ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL")

	// ComputeBudgetProgramID sets compute unit limits and priority fees
	ComputeBudgetProgramID = solana.MustPublicKeyFromBase58("ComputeBudget111111111111111111111111111111")

	// JupiterV6ProgramID is the Jupiter aggregator v6 program
	JupiterV6ProgramID = solana.MustPublicKeyFromBase58("JUP6LkbZbjS1jKKwapdHNy74zcZ3tLUZoi5QNyVTaV4")

	// MemoProgramIDSPL is the SPL Memo program (most common)
	MemoProgramIDSPL = solana.MustPublicKeyFromBase58("MemoSq4gqABAXKb96qnH8TysNcWxMyWCqXgDLGmfcHr")

	// MemoProgramIDLegacy is the legacy memo program (v1)
	MemoProgramIDLegacy = solana.MustPublicKeyFromBase58("Memo1UhkJRfHyvLMcVucJwxXeuD728EqVDDwQDxFMNo")
)

// Well-known mints
var (
	WrappedSOLMint = solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112")
	USDCMint       = solana.MustPublicKeyFromBase58("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v")
	USDTMint       = solana.MustPublicKeyFromBase58("Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB")
)

// System Program instruction types
const (
	SystemProgramTransferInstruction = uint32(2)
)

// Token Program instruction types
const (
	TokenProgramTransferInstruction        = uint8(3)
	TokenProgramTransferCheckedInstruction = uint8(12)
)

// ReferenceDecimals is the number of decimals of the stablecoin reference
// assets (USDC and USDT both use 6).
const ReferenceDecimals = 6

// MintSymbol returns the ticker the bill-payment vendor expects for a
// stablecoin mint. ok is false for any other mint.
func MintSymbol(mint solana.PublicKey) (symbol string, ok bool) {
	switch {
	case mint.Equals(USDCMint):
		return "USDC", true
	case mint.Equals(USDTMint):
		return "USDT", true
	default:
		return "", false
	}
}

var programNames = map[solana.PublicKey]string{
	SystemProgramID:          "system",
	TokenProgramID:           "spl-token",
	Token2022ProgramID:       "spl-token-2022",
	AssociatedTokenProgramID: "associated-token",
	ComputeBudgetProgramID:   "compute-budget",
	JupiterV6ProgramID:       "jupiter-v6",
	MemoProgramIDSPL:         "memo",
	MemoProgramIDLegacy:      "memo-v1",
}

// ProgramName returns a short human-readable name for well-known programs,
// or the base58 address otherwise.
func ProgramName(id solana.PublicKey) string {
	if name, ok := programNames[id]; ok {
		return name
	}
	return id.String()
}
