package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/brojonat/framprelay/client"
	"github.com/brojonat/framprelay/service/config"
	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v2"
)

// relayService is implemented by both client.Relayer (direct) and
// client.Remote (through a relay server).
type relayService interface {
	GiftToken(ctx context.Context, params client.GiftParams) (*client.TransactionResult, error)
	PayServiceFee(ctx context.Context, params client.GiftParams) (*client.TransactionResult, error)
	SendAirtime(ctx context.Context, params client.AirtimeParams) (*client.TransactionResult, error)
	ConfirmAirtime(ctx context.Context, id string) (json.RawMessage, error)
	VerifyTransactionStatus(ctx context.Context, signature string) bool
}

func newRelayService(c *cli.Context) (relayService, error) {
	logger := newLogger(c.String("log-level"))
	if serverURL := c.String("server"); serverURL != "" {
		return client.NewRemote(serverURL, nil, logger), nil
	}

	relayer, err := client.NewRelayer(&config.Config{}, nil, nil, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to configure relayer: %w", err)
	}
	return relayer, nil
}

func giftFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "wallet",
			Aliases:  []string{"w"},
			Usage:    "Payer wallet public key",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "recipient",
			Aliases:  []string{"r"},
			Usage:    "Recipient token account",
			Required: true,
		},
		&cli.Uint64Flag{
			Name:     "amount",
			Aliases:  []string{"a"},
			Usage:    "Amount in the smallest unit of the pay-with mint (lamports for SOL)",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "pay-with",
			Usage: "Mint to pay with (default: wrapped SOL)",
		},
		&cli.StringFlag{
			Name:  "gift-mint",
			Usage: "Mint to deliver (default: USDC)",
		},
	}
}

func giftParams(c *cli.Context) client.GiftParams {
	return client.GiftParams{
		WalletPublicKey: c.String("wallet"),
		Recipient:       c.String("recipient"),
		Amount:          c.Uint64("amount"),
		MintToPayWith:   c.String("pay-with"),
		TokenMintToGift: c.String("gift-mint"),
	}
}

func giftCommand() *cli.Command {
	return &cli.Command{
		Name:  "gift",
		Usage: "Build a transaction that swaps into a token and sends it to a recipient",
		Flags: giftFlags(),
		Action: func(c *cli.Context) error {
			svc, err := newRelayService(c)
			if err != nil {
				return err
			}
			res, err := svc.GiftToken(c.Context, giftParams(c))
			if err != nil {
				return fmt.Errorf("failed to build gift: %w", err)
			}
			return printTransaction(c, res)
		},
	}
}

func feeCommand() *cli.Command {
	return &cli.Command{
		Name:  "fee",
		Usage: "Build a service fee payment transaction",
		Flags: giftFlags(),
		Action: func(c *cli.Context) error {
			svc, err := newRelayService(c)
			if err != nil {
				return err
			}
			res, err := svc.PayServiceFee(c.Context, giftParams(c))
			if err != nil {
				return fmt.Errorf("failed to build fee payment: %w", err)
			}
			return printTransaction(c, res)
		},
	}
}

func airtimeCommand() *cli.Command {
	return &cli.Command{
		Name:  "airtime",
		Usage: "Build an airtime purchase transaction",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "phone",
				Aliases:  []string{"p"},
				Usage:    "Recipient phone number",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "amount",
				Aliases:  []string{"a"},
				Usage:    "Amount in local currency (e.g. 1500 or 1500.50)",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "fee",
				Usage: "Service fee in local currency",
				Value: "0",
			},
			&cli.StringFlag{
				Name:     "token",
				Aliases:  []string{"t"},
				Usage:    "Mint to pay with; USDC and USDT are paid directly, anything else is swapped first",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "wallet",
				Aliases:  []string{"w"},
				Usage:    "Payer wallet public key",
				Required: true,
			},
		},
		Action: func(c *cli.Context) error {
			amount, err := decimal.NewFromString(c.String("amount"))
			if err != nil {
				return fmt.Errorf("invalid amount %q: %w", c.String("amount"), err)
			}
			fee, err := decimal.NewFromString(c.String("fee"))
			if err != nil {
				return fmt.Errorf("invalid fee %q: %w", c.String("fee"), err)
			}

			svc, err := newRelayService(c)
			if err != nil {
				return err
			}
			res, err := svc.SendAirtime(c.Context, client.AirtimeParams{
				PhoneNumber: c.String("phone"),
				Amount:      amount,
				Fee:         fee,
				Token:       c.String("token"),
				UserAddress: c.String("wallet"),
			})
			if err != nil {
				return fmt.Errorf("failed to build airtime payment: %w", err)
			}
			return printTransaction(c, res)
		},
	}
}

func confirmCommand() *cli.Command {
	return &cli.Command{
		Name:      "confirm",
		Usage:     "Confirm an airtime purchase after its transaction has landed",
		ArgsUsage: "TRACKING_ID",
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return fmt.Errorf("tracking id is required")
			}

			svc, err := newRelayService(c)
			if err != nil {
				return err
			}
			raw, err := svc.ConfirmAirtime(c.Context, c.Args().Get(0))
			if err != nil {
				return fmt.Errorf("failed to confirm airtime: %w", err)
			}

			// The vendor payload is opaque, so it is always printed as JSON.
			var v any
			if err := json.Unmarshal(raw, &v); err != nil {
				fmt.Fprintln(c.App.Writer, string(raw))
				return nil
			}
			return printJSON(c, v)
		},
	}
}

func statusCommand() *cli.Command {
	return &cli.Command{
		Name:      "status",
		Usage:     "Check whether a submitted transaction succeeded",
		ArgsUsage: "SIGNATURE",
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return fmt.Errorf("signature is required")
			}
			signature := c.Args().Get(0)

			svc, err := newRelayService(c)
			if err != nil {
				return err
			}
			ok := svc.VerifyTransactionStatus(c.Context, signature)

			if wantJSON(c) {
				return printJSON(c, map[string]interface{}{
					"signature": signature,
					"success":   ok,
				})
			}
			if ok {
				fmt.Fprintf(c.App.Writer, "✓ Transaction succeeded\n")
			} else {
				fmt.Fprintf(c.App.Writer, "✗ Transaction not confirmed as successful\n")
			}
			fmt.Fprintf(c.App.Writer, "  Signature: %s\n", signature)
			return nil
		},
	}
}

func printTransaction(c *cli.Context, res *client.TransactionResult) error {
	if wantJSON(c) {
		return printJSON(c, res)
	}

	w := c.App.Writer
	fmt.Fprintln(w, "Unsigned transaction built")
	if res.ID != "" {
		fmt.Fprintf(w, "  Tracking ID: %s\n", res.ID)
	}
	fmt.Fprintf(w, "  Swapped:     %t\n", res.Swapped)
	if res.Blockhash != "" {
		fmt.Fprintf(w, "  Blockhash:   %s\n", res.Blockhash)
	}
	if res.Transaction != nil {
		fmt.Fprintf(w, "  Instructions: %d\n", len(res.Transaction.Message.Instructions))
	}
	fmt.Fprintf(w, "\n%s\n", res.TxBase64)
	return nil
}
