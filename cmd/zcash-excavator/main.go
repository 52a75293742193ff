// zcash-excavator reads legacy ZecWallet Lite wallet files and recovers
// their seed, keys and transaction history.
//
// Example usage:
//
//	# Print a summary of a wallet file
//	zcash-excavator inspect zecwallet-light-wallet.dat
//
//	# List the accounts and keys found in it
//	zcash-excavator accounts zecwallet-light-wallet.dat
//
//	# Export the accounts to the local export database
//	zcash-excavator export zecwallet-light-wallet.dat
//
//	# Rebuild the accounts of a seed phrase read from stdin
//	zcash-excavator restore --accounts 3 < phrase.txt
//
// Settings are read from ZEXCAVATOR_* environment variables; global flags
// override them.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/suffix-labs/zcash-excavator/pkg/config"
)

const version = "0.1.0"

var (
	networkFlag = cli.StringFlag{
		Name:  "network",
		Usage: "require wallets to be for this network: main, test or regtest",
	}
	treeEncodingFlag = cli.StringFlag{
		Name:  "tree-encoding",
		Usage: "encoding of the Orchard witness tree: legacy or modern",
	}
	noDeriveFlag = cli.BoolFlag{
		Name:  "no-derive",
		Usage: "skip shielded address derivation",
	}
	datadirFlag = cli.StringFlag{
		Name:  "datadir",
		Usage: "directory holding the export database",
	}
	verboseFlag = cli.BoolFlag{
		Name:    "verbose",
		Aliases: []string{"v"},
		Usage:   "log decoding details",
	}
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fatal(err)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()

	app.Version = version
	app.Name = "zcash-excavator"
	app.Usage = "Recover keys and history from ZecWallet Lite wallet files"
	app.Flags = []cli.Flag{
		&networkFlag,
		&treeEncodingFlag,
		&noDeriveFlag,
		&datadirFlag,
		&verboseFlag,
	}
	app.Before = setupConfig
	app.Commands = append(
		app.Commands,
		&inspect,
		&accounts,
		&transactions,
		&restore,
		&exportCmd,
		&versionCmd,
	)
	return app
}

// setupConfig applies global flags on top of the environment and validates
// the result.
func setupConfig(ctx *cli.Context) error {
	if ctx.IsSet(networkFlag.Name) {
		config.Set(config.NetworkKey, ctx.String(networkFlag.Name))
	}
	if ctx.IsSet(treeEncodingFlag.Name) {
		config.Set(config.TreeEncodingKey, ctx.String(treeEncodingFlag.Name))
	}
	if ctx.IsSet(noDeriveFlag.Name) {
		config.Set(config.NoDeriveKey, ctx.Bool(noDeriveFlag.Name))
	}
	if ctx.IsSet(datadirFlag.Name) {
		config.Set(config.DatadirKey, ctx.String(datadirFlag.Name))
	}
	if ctx.Bool(verboseFlag.Name) {
		config.Set(config.LogLevelKey, int(log.DebugLevel))
	}
	return config.InitConfig()
}

var versionCmd = cli.Command{
	Name:  "version",
	Usage: "print version information",
	Action: func(ctx *cli.Context) error {
		fmt.Fprintf(ctx.App.Writer, "zcash-excavator v%s\n", version)
		fmt.Fprintln(ctx.App.Writer, "Reader for ZecWallet Lite wallet files up to version 25")
		return nil
	},
}

// walletPath returns the single positional argument of a command.
func walletPath(ctx *cli.Context) (string, error) {
	if ctx.NArg() != 1 {
		return "", &invalidUsageError{ctx, ctx.Command.Name}
	}
	return ctx.Args().First(), nil
}

func printJSON(ctx *cli.Context, v interface{}) error {
	b, err := json.MarshalIndent(v, "", "\t")
	if err != nil {
		return fmt.Errorf("unable to encode output: %w", err)
	}
	fmt.Fprintln(ctx.App.Writer, string(b))
	return nil
}

type invalidUsageError struct {
	ctx     *cli.Context
	command string
}

func (e *invalidUsageError) Error() string {
	return fmt.Sprintf("invalid usage of command %s", e.command)
}

func fatal(err error) {
	var e *invalidUsageError
	if errors.As(err, &e) {
		_ = cli.ShowCommandHelp(e.ctx, e.command)
	} else {
		_, _ = fmt.Fprintf(os.Stderr, "[zcash-excavator] %v\n", err)
	}
	os.Exit(1)
}
