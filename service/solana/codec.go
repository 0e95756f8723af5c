package solana

import (
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// ErrAddressLookupTables is returned when a transaction references accounts
// through address lookup tables, which cannot be resolved without an RPC node.
var ErrAddressLookupTables = errors.New("transaction uses address lookup tables")

// DecodedTransaction is an unsigned transaction together with the pieces the
// composition layer needs from it.
type DecodedTransaction struct {
	Transaction  *solana.Transaction
	Instructions []solana.Instruction
	Blockhash    solana.Hash
	FeePayer     solana.PublicKey // zero if the message has no accounts
}

// DecodeTransaction parses a base64-encoded wire transaction (legacy or v0).
func DecodeTransaction(b64 string) (*solana.Transaction, error) {
	if b64 == "" {
		return nil, fmt.Errorf("empty transaction payload")
	}
	tx, err := solana.TransactionFromBase64(b64)
	if err != nil {
		return nil, fmt.Errorf("failed to deserialize transaction: %w", err)
	}
	return tx, nil
}

// Decode parses a base64 transaction and resolves its instructions.
func Decode(b64 string) (*DecodedTransaction, error) {
	tx, err := DecodeTransaction(b64)
	if err != nil {
		return nil, err
	}
	ixs, err := Instructions(tx)
	if err != nil {
		return nil, err
	}

	decoded := &DecodedTransaction{
		Transaction:  tx,
		Instructions: ixs,
		Blockhash:    tx.Message.RecentBlockhash,
	}
	if len(tx.Message.AccountKeys) > 0 {
		decoded.FeePayer = tx.Message.AccountKeys[0]
	}
	return decoded, nil
}

// EncodeTransaction serialises tx to base64 without requiring signatures.
// Missing signature slots are zero-filled up to the message's required
// signer count, which is the layout wallets expect for an unsigned
// transaction. tx itself is not modified.
func EncodeTransaction(tx *solana.Transaction) (string, error) {
	if tx == nil {
		return "", fmt.Errorf("nil transaction")
	}

	out := *tx
	required := int(tx.Message.Header.NumRequiredSignatures)
	if len(out.Signatures) < required {
		sigs := make([]solana.Signature, required)
		copy(sigs, tx.Signatures)
		out.Signatures = sigs
	}

	raw, err := out.MarshalBinary()
	if err != nil {
		return "", fmt.Errorf("failed to serialize transaction: %w", err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// Instructions expands the compiled instructions of tx back into
// program/account/data form, in their original order. Signer and writable
// flags are derived from the message header.
func Instructions(tx *solana.Transaction) ([]solana.Instruction, error) {
	if tx == nil {
		return nil, fmt.Errorf("nil transaction")
	}
	msg := tx.Message
	if len(msg.AddressTableLookups) > 0 {
		return nil, ErrAddressLookupTables
	}

	keys := msg.AccountKeys
	out := make([]solana.Instruction, 0, len(msg.Instructions))
	for i, ci := range msg.Instructions {
		if int(ci.ProgramIDIndex) >= len(keys) {
			return nil, fmt.Errorf("instruction %d: program index %d out of bounds", i, ci.ProgramIDIndex)
		}

		metas := make(solana.AccountMetaSlice, 0, len(ci.Accounts))
		for _, idx := range ci.Accounts {
			if int(idx) >= len(keys) {
				return nil, fmt.Errorf("instruction %d: account index %d out of bounds", i, idx)
			}
			metas = append(metas, solana.NewAccountMeta(
				keys[idx],
				isWritableIndex(msg.Header, len(keys), int(idx)),
				isSignerIndex(msg.Header, int(idx)),
			))
		}

		data := make([]byte, len(ci.Data))
		copy(data, ci.Data)
		out = append(out, solana.NewInstruction(keys[ci.ProgramIDIndex], metas, data))
	}
	return out, nil
}

// Account ordering in a message: writable signers, readonly signers,
// writable non-signers, readonly non-signers.
func isSignerIndex(h solana.MessageHeader, idx int) bool {
	return idx < int(h.NumRequiredSignatures)
}

func isWritableIndex(h solana.MessageHeader, numKeys, idx int) bool {
	signers := int(h.NumRequiredSignatures)
	if idx < signers {
		return idx < signers-int(h.NumReadonlySignedAccounts)
	}
	return idx < numKeys-int(h.NumReadonlyUnsignedAccounts)
}
