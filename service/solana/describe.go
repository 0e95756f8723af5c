package solana

import (
	"encoding/binary"
	"fmt"
	"unicode/utf8"

	"github.com/gagliardetto/solana-go"
)

// InstructionSummary is a human-readable view of one instruction, used when
// printing a transaction for review before signing.
type InstructionSummary struct {
	Index    int    `json:"index"`
	Program  string `json:"program"`
	Kind     string `json:"kind,omitempty"`
	Amount   uint64 `json:"amount,omitempty"`
	Mint     string `json:"mint,omitempty"`
	Source   string `json:"source,omitempty"`
	Memo     string `json:"memo,omitempty"`
	Accounts int    `json:"accounts"`
	DataLen  int    `json:"data_len"`
}

// Describe summarises each instruction: program name plus amounts for
// transfers and text for memos. Instructions it cannot interpret are still
// listed with their program and sizes.
func Describe(ixs []solana.Instruction) []InstructionSummary {
	out := make([]InstructionSummary, 0, len(ixs))
	for i, ix := range ixs {
		data, err := ix.Data()
		if err != nil {
			data = nil
		}
		accounts := ix.Accounts()
		programID := ix.ProgramID()

		s := InstructionSummary{
			Index:    i,
			Program:  ProgramName(programID),
			Accounts: len(accounts),
			DataLen:  len(data),
		}

		switch {
		case programID.Equals(SystemProgramID):
			if amount, from, err := parseSystemTransfer(data, accounts); err == nil {
				s.Kind = "transfer"
				s.Amount = amount
				s.Source = from
			}
		case programID.Equals(TokenProgramID) || programID.Equals(Token2022ProgramID):
			if kind, amount, mint, from, err := parseTokenTransfer(data, accounts); err == nil {
				s.Kind = kind
				s.Amount = amount
				s.Mint = mint
				s.Source = from
			}
		case programID.Equals(MemoProgramIDSPL) || programID.Equals(MemoProgramIDLegacy):
			s.Kind = "memo"
			s.Memo = parseMemo(data)
		}

		out = append(out, s)
	}
	return out
}

// parseSystemTransfer extracts the lamports and source of a System Program Transfer.
func parseSystemTransfer(data []byte, accounts []*solana.AccountMeta) (uint64, string, error) {
	// [0..4]  = instruction type (u32, 2 = Transfer)
	// [4..12] = lamports (u64)
	if len(data) < 12 {
		return 0, "", fmt.Errorf("instruction data too short: %d bytes", len(data))
	}
	if t := binary.LittleEndian.Uint32(data[0:4]); t != SystemProgramTransferInstruction {
		return 0, "", fmt.Errorf("not a transfer instruction: type %d", t)
	}

	var from string
	if len(accounts) >= 1 {
		from = accounts[0].PublicKey.String()
	}
	return binary.LittleEndian.Uint64(data[4:12]), from, nil
}

// parseTokenTransfer extracts amount, mint and authority from an SPL Token
// Transfer or TransferChecked instruction.
func parseTokenTransfer(data []byte, accounts []*solana.AccountMeta) (kind string, amount uint64, mint, from string, err error) {
	if len(data) == 0 {
		return "", 0, "", "", fmt.Errorf("empty instruction data")
	}

	switch data[0] {
	case TokenProgramTransferInstruction:
		// [0] = 3, [1..9] = amount; accounts: [source, destination, authority]
		if len(data) < 9 {
			return "", 0, "", "", fmt.Errorf("transfer instruction data too short")
		}
		if len(accounts) >= 3 {
			from = accounts[2].PublicKey.String()
		}
		return "token-transfer", binary.LittleEndian.Uint64(data[1:9]), "", from, nil

	case TokenProgramTransferCheckedInstruction:
		// [0] = 12, [1..9] = amount, [9] = decimals
		// accounts: [source, mint, destination, authority, ...]
		if len(data) < 10 {
			return "", 0, "", "", fmt.Errorf("transferChecked instruction data too short")
		}
		if len(accounts) < 4 {
			return "", 0, "", "", fmt.Errorf("transferChecked missing accounts")
		}
		return "token-transfer-checked", binary.LittleEndian.Uint64(data[1:9]), accounts[1].PublicKey.String(), accounts[3].PublicKey.String(), nil

	default:
		return "", 0, "", "", fmt.Errorf("unknown token instruction type: %d", data[0])
	}
}

// parseMemo returns memo bytes as text, or as hex when they are not valid UTF-8.
func parseMemo(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}
	return fmt.Sprintf("0x%x", data)
}
