package solana

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// MissingBlockhashError means a leg that must supply the recent blockhash for
// a composed transaction did not carry one.
type MissingBlockhashError struct {
	Leg string
}

func (e *MissingBlockhashError) Error() string {
	return fmt.Sprintf("%s transaction has no recent blockhash", e.Leg)
}

// Compose merges two instruction lists into a single unsigned transaction.
// The result contains every swap instruction in order, followed by every
// payment instruction in order, under one recent blockhash and one fee payer.
//
// Compose is pure: it performs no I/O and does not retain its inputs.
func Compose(swap, payment []solana.Instruction, blockhash solana.Hash, feePayer solana.PublicKey) (*solana.Transaction, error) {
	if blockhash == (solana.Hash{}) {
		return nil, &MissingBlockhashError{Leg: "swap"}
	}
	if feePayer.IsZero() {
		return nil, fmt.Errorf("fee payer is required")
	}

	ixs := make([]solana.Instruction, 0, len(swap)+len(payment))
	ixs = append(ixs, swap...)
	ixs = append(ixs, payment...)
	if len(ixs) == 0 {
		return nil, fmt.Errorf("no instructions to compose")
	}

	tx, err := solana.NewTransaction(ixs, blockhash, solana.TransactionPayer(feePayer))
	if err != nil {
		return nil, fmt.Errorf("failed to build composed transaction: %w", err)
	}
	return tx, nil
}
