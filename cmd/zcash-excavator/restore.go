package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/suffix-labs/zcash-excavator/pkg/api"
)

var (
	accountsFlag = cli.UintFlag{
		Name:  "accounts",
		Usage: "number of HD accounts to derive",
		Value: 1,
	}
	birthdayFlag = cli.Uint64Flag{
		Name:  "birthday",
		Usage: "block height recorded as the wallet birthday",
	}
	restoreExportFlag = cli.BoolFlag{
		Name:  "export",
		Usage: "write the restored accounts to the export database",
	}
)

var restore = cli.Command{
	Name:      "restore",
	Usage:     "derive the accounts of a seed phrase",
	ArgsUsage: "[seed words...]",
	Description: "The phrase is taken from the arguments, or from stdin when\n" +
		"none are given.",
	Flags: []cli.Flag{
		&accountsFlag,
		&birthdayFlag,
		&restoreExportFlag,
		&cli.BoolFlag{
			Name:  "show-secrets",
			Usage: "include the seed phrase and spending keys",
		},
	},
	Action: restoreAction,
}

var stdin io.Reader = os.Stdin

func readPhrase(ctx *cli.Context) (string, error) {
	if ctx.NArg() > 0 {
		return strings.Join(ctx.Args().Slice(), " "), nil
	}

	var words []string
	sc := bufio.NewScanner(stdin)
	for sc.Scan() {
		words = append(words, strings.Fields(sc.Text())...)
	}
	if err := sc.Err(); err != nil {
		return "", fmt.Errorf("reading seed phrase: %w", err)
	}
	if len(words) == 0 {
		return "", &invalidUsageError{ctx, ctx.Command.Name}
	}
	return strings.Join(words, " "), nil
}

func restoreAction(ctx *cli.Context) error {
	phrase, err := readPhrase(ctx)
	if err != nil {
		return err
	}

	w, err := api.Restore(phrase, uint32(ctx.Uint(accountsFlag.Name)), ctx.Uint64(birthdayFlag.Name))
	if err != nil {
		return err
	}

	if ctx.Bool(restoreExportFlag.Name) {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		id, err := api.ExportWallet(w, store)
		if err != nil {
			return err
		}
		fmt.Fprintln(ctx.App.Writer, id)
		return nil
	}

	views, err := accountViews(w.Accounts, ctx.Bool("show-secrets"))
	if err != nil {
		return err
	}
	return printJSON(ctx, views)
}
