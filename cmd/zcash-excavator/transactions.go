package main

import (
	"github.com/urfave/cli/v2"

	"github.com/suffix-labs/zcash-excavator/pkg/api"
	"github.com/suffix-labs/zcash-excavator/pkg/zwl"
)

var transactions = cli.Command{
	Name:      "transactions",
	Usage:     "list the transaction history of a wallet file",
	ArgsUsage: "<wallet file>",
	Action:    transactionsAction,
}

type txView struct {
	TxID        string         `json:"txid"`
	Block       int32          `json:"block"`
	Unconfirmed bool           `json:"unconfirmed,omitempty"`
	Datetime    uint64         `json:"datetime"`
	Received    string         `json:"received"`
	Spent       string         `json:"spent"`
	Memos       []string       `json:"memos,omitempty"`
	Outgoing    []outgoingView `json:"outgoing,omitempty"`
}

type outgoingView struct {
	Address string `json:"address"`
	Value   string `json:"value"`
	Memo    string `json:"memo,omitempty"`
}

func transactionsAction(ctx *cli.Context) error {
	path, err := walletPath(ctx)
	if err != nil {
		return err
	}

	f, err := api.Open(path, api.DecodeOptions())
	if err != nil {
		return err
	}

	views := make([]txView, 0, f.Txns.Len())
	for _, tx := range f.Txns.All() {
		views = append(views, newTxView(tx))
	}
	return printJSON(ctx, views)
}

func newTxView(tx *zwl.WalletTx) txView {
	v := txView{
		TxID:        tx.TxID.String(),
		Block:       tx.Block,
		Unconfirmed: tx.Unconfirmed,
		Datetime:    tx.Datetime,
		Received:    api.FormatZec(tx.ReceivedValue()),
		Spent:       api.FormatZec(tx.SpentValue()),
	}

	for _, n := range tx.SaplingNotes {
		if n.Memo != nil && n.Memo.Kind == zwl.MemoText {
			v.Memos = append(v.Memos, n.Memo.Text)
		}
	}
	for _, n := range tx.OrchardNotes {
		if n.Memo != nil && n.Memo.Kind == zwl.MemoText {
			v.Memos = append(v.Memos, n.Memo.Text)
		}
	}
	for _, o := range tx.Outgoing {
		ov := outgoingView{
			Address: o.Address,
			Value:   api.FormatZec(o.Value),
		}
		if o.Memo.Kind == zwl.MemoText {
			ov.Memo = o.Memo.Text
		}
		v.Outgoing = append(v.Outgoing, ov)
	}
	return v
}
