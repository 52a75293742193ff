package zwl

import (
	"fmt"
	"sort"

	log "github.com/sirupsen/logrus"

	"github.com/suffix-labs/zcash-excavator/pkg/wallet"
)

// keys returns every key record in file order: Orchard, Sapling, then
// transparent.
func (k *Keys) keys() []*wallet.Key {
	out := make([]*wallet.Key, 0, len(k.OKeys)+len(k.ZKeys)+len(k.TKeys))
	for _, o := range k.OKeys {
		out = append(out, o.Key())
	}
	for _, z := range k.ZKeys {
		out = append(out, z.Key())
	}
	for _, t := range k.TKeys {
		out = append(out, t.Key())
	}
	return out
}

// Accounts groups the key records into accounts.
//
// The file has no account records. Every distinct HD index found in any
// pool becomes one account, in ascending index order, named "Account 1",
// "Account 2" and so on by position. Each pool slot of an account holds the
// first record of that pool with the index; a pool without one leaves the
// slot empty. Imported keys have no index and each becomes an account of its
// own, "Imported 1", "Imported 2", after the HD accounts. HD accounts carry
// the cleartext seed, or the encrypted seed and nonce of an encrypted wallet.
func (f *WalletFile) Accounts() []*wallet.Account {
	keys := f.Keys.keys()

	seen := make(map[uint32]bool)
	var indices []uint32
	for _, k := range keys {
		if k.HDIndex != nil && !seen[*k.HDIndex] {
			seen[*k.HDIndex] = true
			indices = append(indices, *k.HDIndex)
		}
	}
	sort.Slice(indices, func(i, j int) bool { return indices[i] < indices[j] })

	var seed, encSeed, nonce []byte
	if f.Keys.Encrypted {
		encSeed, nonce = f.Keys.EncSeed[:], f.Keys.Nonce
	} else {
		seed = f.Keys.Seed[:]
	}

	accounts := make([]*wallet.Account, 0, len(indices))
	byIndex := make(map[uint32]*wallet.Account, len(indices))
	for i, idx := range indices {
		a := &wallet.Account{
			Name:      fmt.Sprintf("Account %d", i+1),
			HDIndex:   &idx,
			Seed:      cloneBytes(seed),
			Birthday:  f.Birthday,
			EncSeed:   cloneBytes(encSeed),
			SeedNonce: cloneBytes(nonce),
		}
		accounts = append(accounts, a)
		byIndex[idx] = a
	}

	var imported []*wallet.Account
	for _, k := range keys {
		if k.HDIndex == nil {
			a := &wallet.Account{
				Name:     fmt.Sprintf("Imported %d", len(imported)+1),
				Birthday: f.Birthday,
			}
			*a.Keys.Slot(k.Pool) = k
			imported = append(imported, a)
			continue
		}

		a := byIndex[*k.HDIndex]
		slot := a.Keys.Slot(k.Pool)
		if *slot != nil {
			log.WithFields(log.Fields{
				"pool":     k.Pool,
				"hd_index": *k.HDIndex,
				"address":  k.Address,
			}).Warn("duplicate hd index, keeping the first key")
			continue
		}
		*slot = k
	}

	return append(accounts, imported...)
}
