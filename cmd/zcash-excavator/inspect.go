package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/suffix-labs/zcash-excavator/pkg/api"
)

var inspect = cli.Command{
	Name:      "inspect",
	Usage:     "print a summary of a wallet file",
	ArgsUsage: "<wallet file>",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "print the summary as JSON",
		},
	},
	Action: inspectAction,
}

func inspectAction(ctx *cli.Context) error {
	path, err := walletPath(ctx)
	if err != nil {
		return err
	}

	f, err := api.Open(path, api.DecodeOptions())
	if err != nil {
		return err
	}
	s := api.Summarize(f)

	if ctx.Bool("json") {
		return printJSON(ctx, s)
	}

	w := ctx.App.Writer
	fmt.Fprintf(w, "format:        %s v%d\n", api.FormatZecWalletLite, s.Version)
	fmt.Fprintf(w, "network:       %s\n", s.Network)
	fmt.Fprintf(w, "birthday:      %d\n", s.Birthday)
	fmt.Fprintf(w, "encrypted:     %t\n", s.Encrypted)
	fmt.Fprintf(w, "accounts:      %d\n", s.Accounts)
	fmt.Fprintf(w, "cached blocks: %d\n", s.Blocks)
	fmt.Fprintf(w, "transactions:  %d (%d pending)\n", s.Transactions, s.Pending)
	fmt.Fprintf(w, "received:      %s ZEC\n", s.Received.StringFixed(8))
	fmt.Fprintf(w, "spent:         %s ZEC\n", s.Spent.StringFixed(8))
	fmt.Fprintf(w, "unspent:       %s ZEC\n", s.Unspent.StringFixed(8))
	if s.LastTxID != "" {
		fmt.Fprintf(w, "last txid:     %s\n", s.LastTxID)
	}
	return nil
}
