package main

import (
	"encoding/hex"

	"github.com/urfave/cli/v2"

	"github.com/suffix-labs/zcash-excavator/pkg/api"
	"github.com/suffix-labs/zcash-excavator/pkg/export"
	"github.com/suffix-labs/zcash-excavator/pkg/wallet"
)

var accounts = cli.Command{
	Name:      "accounts",
	Usage:     "list the accounts and keys of a wallet file",
	ArgsUsage: "<wallet file>",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "show-secrets",
			Usage: "include the seed phrase and spending keys",
		},
	},
	Action: accountsAction,
}

type accountView struct {
	Name          string    `json:"name"`
	HDIndex       *uint32   `json:"hd_index,omitempty"`
	Birthday      uint64    `json:"birthday"`
	Mnemonic      string    `json:"mnemonic,omitempty"`
	EncryptedSeed string    `json:"encrypted_seed,omitempty"`
	SeedNonce     string    `json:"seed_nonce,omitempty"`
	Keys          []keyView `json:"keys"`
}

type keyView struct {
	Pool       string `json:"pool"`
	Kind       string `json:"kind"`
	Mode       string `json:"mode"`
	Address    string `json:"address,omitempty"`
	ViewingKey string `json:"viewing_key,omitempty"`
	Secret     string `json:"secret,omitempty"`
}

func accountsAction(ctx *cli.Context) error {
	path, err := walletPath(ctx)
	if err != nil {
		return err
	}

	f, err := api.Open(path, api.DecodeOptions())
	if err != nil {
		return err
	}

	views, err := accountViews(f.Accounts(), ctx.Bool("show-secrets"))
	if err != nil {
		return err
	}
	return printJSON(ctx, views)
}

// accountViews renders accounts for display. Seeds and secret keys are
// left out unless showSecrets is set.
func accountViews(accounts []*wallet.Account, showSecrets bool) ([]accountView, error) {
	views := make([]accountView, 0, len(accounts))
	for _, a := range accounts {
		v := accountView{
			Name:     a.Name,
			HDIndex:  a.HDIndex,
			Birthday: a.Birthday,
			Keys:     make([]keyView, 0, a.Keys.Len()),
		}
		if showSecrets {
			if a.Seed != nil {
				m, err := export.SeedMnemonic(a.Seed)
				if err != nil {
					return nil, err
				}
				v.Mnemonic = m
			}
			if a.EncSeed != nil {
				v.EncryptedSeed = hex.EncodeToString(a.EncSeed)
				v.SeedNonce = hex.EncodeToString(a.SeedNonce)
			}
		}
		for _, k := range []*wallet.Key{a.Keys.Transparent, a.Keys.Sapling, a.Keys.Orchard} {
			if k == nil {
				continue
			}
			kv := keyView{
				Pool:       k.Pool.String(),
				Kind:       k.Kind.String(),
				Mode:       k.Mode().String(),
				Address:    k.Address,
				ViewingKey: hex.EncodeToString(k.ViewingKey),
			}
			if showSecrets && k.Secret != nil {
				kv.Secret = hex.EncodeToString(k.Secret)
			}
			v.Keys = append(v.Keys, kv)
		}
		views = append(views, v)
	}
	return views, nil
}
