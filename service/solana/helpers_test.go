package solana

import (
	"encoding/binary"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"
)

func newKey() solana.PublicKey {
	return solana.NewWallet().PublicKey()
}

func transferIx(from, to solana.PublicKey, lamports uint64) solana.Instruction {
	data := make([]byte, 12)
	binary.LittleEndian.PutUint32(data[0:4], SystemProgramTransferInstruction)
	binary.LittleEndian.PutUint64(data[4:12], lamports)
	return solana.NewInstruction(SystemProgramID, solana.AccountMetaSlice{
		solana.NewAccountMeta(from, true, true),
		solana.NewAccountMeta(to, true, false),
	}, data)
}

func memoIx(signer solana.PublicKey, text string) solana.Instruction {
	return solana.NewInstruction(MemoProgramIDSPL, solana.AccountMetaSlice{
		solana.NewAccountMeta(signer, true, true),
	}, []byte(text))
}

func encodeTx(t *testing.T, ixs []solana.Instruction, blockhash solana.Hash, payer solana.PublicKey) string {
	t.Helper()
	tx, err := solana.NewTransaction(ixs, blockhash, solana.TransactionPayer(payer))
	require.NoError(t, err)
	b64, err := EncodeTransaction(tx)
	require.NoError(t, err)
	return b64
}

type flatInstruction struct {
	Program  solana.PublicKey
	Accounts []solana.AccountMeta
	Data     []byte
}

func flatten(t *testing.T, ixs []solana.Instruction) []flatInstruction {
	t.Helper()
	out := make([]flatInstruction, 0, len(ixs))
	for _, ix := range ixs {
		data, err := ix.Data()
		require.NoError(t, err)
		var metas []solana.AccountMeta
		for _, m := range ix.Accounts() {
			metas = append(metas, *m)
		}
		out = append(out, flatInstruction{Program: ix.ProgramID(), Accounts: metas, Data: data})
	}
	return out
}
