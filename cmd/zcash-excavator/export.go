package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/suffix-labs/zcash-excavator/pkg/api"
	"github.com/suffix-labs/zcash-excavator/pkg/config"
	"github.com/suffix-labs/zcash-excavator/pkg/export"
)

var exportCmd = cli.Command{
	Name:      "export",
	Usage:     "export the accounts of a wallet file to the local database",
	ArgsUsage: "<wallet file>",
	Action:    exportAction,
	Subcommands: []*cli.Command{
		{
			Name:   "list",
			Usage:  "list exported wallets",
			Action: exportListAction,
		},
		{
			Name:      "show",
			Usage:     "print the accounts of an exported wallet",
			ArgsUsage: "<wallet id>",
			Action:    exportShowAction,
		},
	},
}

func openStore() (*export.Store, error) {
	dir, err := config.GetDbDir()
	if err != nil {
		return nil, err
	}
	return export.Open(export.Options{Dir: dir})
}

func exportAction(ctx *cli.Context) error {
	path, err := walletPath(ctx)
	if err != nil {
		return err
	}

	f, err := api.Open(path, api.DecodeOptions())
	if err != nil {
		return err
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	id, err := api.Export(f, store)
	if err != nil {
		return err
	}
	fmt.Fprintln(ctx.App.Writer, id)
	return nil
}

func exportListAction(ctx *cli.Context) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	wallets, err := store.Wallets()
	if err != nil {
		return err
	}
	return printJSON(ctx, wallets)
}

func exportShowAction(ctx *cli.Context) error {
	id, err := walletPath(ctx)
	if err != nil {
		return err
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	if _, err := store.Wallet(id); err != nil {
		return err
	}
	records, err := store.Accounts(id)
	if err != nil {
		return err
	}
	return printJSON(ctx, records)
}
