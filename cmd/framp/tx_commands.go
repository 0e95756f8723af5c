package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	fsolana "github.com/brojonat/framprelay/service/solana"
	"github.com/urfave/cli/v2"
)

func describeCommand() *cli.Command {
	return &cli.Command{
		Name:      "describe",
		Usage:     "Decode an unsigned base64 transaction and list its instructions",
		ArgsUsage: "[TX_BASE64]",
		Description: `Reads the transaction from the first argument, or from stdin when no
argument is given, so the output of other commands can be piped in:

  framp --jq .tx_base64 airtime ... | framp describe`,
		Action: func(c *cli.Context) error {
			payload := c.Args().Get(0)
			if payload == "" {
				data, err := io.ReadAll(os.Stdin)
				if err != nil {
					return fmt.Errorf("failed to read stdin: %w", err)
				}
				payload = string(data)
			}
			payload = strings.TrimSpace(payload)

			decoded, err := fsolana.Decode(payload)
			if err != nil {
				return fmt.Errorf("failed to decode transaction: %w", err)
			}
			summaries := fsolana.Describe(decoded.Instructions)

			if wantJSON(c) {
				return printJSON(c, map[string]interface{}{
					"blockhash":    decoded.Blockhash.String(),
					"fee_payer":    decoded.FeePayer.String(),
					"signers":      decoded.Transaction.Message.Header.NumRequiredSignatures,
					"instructions": summaries,
				})
			}

			w := c.App.Writer
			fmt.Fprintf(w, "Blockhash: %s\n", decoded.Blockhash)
			fmt.Fprintf(w, "Fee payer: %s\n", decoded.FeePayer)
			fmt.Fprintf(w, "Instructions (%d):\n", len(summaries))
			for _, s := range summaries {
				fmt.Fprintf(w, "  #%d %s", s.Index, s.Program)
				if s.Kind != "" {
					fmt.Fprintf(w, " %s", s.Kind)
				}
				if s.Amount != 0 {
					fmt.Fprintf(w, " amount=%d", s.Amount)
				}
				if s.Memo != "" {
					fmt.Fprintf(w, " memo=%q", s.Memo)
				}
				fmt.Fprintf(w, " accounts=%d data=%dB\n", s.Accounts, s.DataLen)
			}
			return nil
		},
	}
}
