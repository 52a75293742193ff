package zwl

import (
	"fmt"

	"github.com/suffix-labs/zcash-excavator/pkg/wire"
)

// MemoDownloadOption controls which memos the wallet fetched.
type MemoDownloadOption uint8

const (
	NoMemos MemoDownloadOption = iota
	WalletMemos
	AllMemos
)

func (o MemoDownloadOption) String() string {
	switch o {
	case NoMemos:
		return "none"
	case WalletMemos:
		return "wallet"
	case AllMemos:
		return "all"
	default:
		return fmt.Sprintf("MemoDownloadOption(%d)", uint8(o))
	}
}

// WalletOptions are the user settings stored in the wallet.
type WalletOptions struct {
	Version       uint64
	DownloadMemos MemoDownloadOption
	SpamThreshold int64 // -1 disables spam filtering
}

// DefaultWalletOptions are used for wallets that predate the options record.
func DefaultWalletOptions() WalletOptions {
	return WalletOptions{DownloadMemos: WalletMemos, SpamThreshold: -1}
}

func readWalletOptions(r *wire.Reader) (WalletOptions, error) {
	o := WalletOptions{SpamThreshold: -1}
	var err error

	if o.Version, err = r.ReadU64(); err != nil {
		return o, wire.WithField(err, "version")
	}
	if o.Version > OptionsVersion {
		return o, wire.WithField(r.Fail(wire.KindVersionUnsupported,
			"options version %d, newest known is %d", o.Version, OptionsVersion), "version")
	}

	m, err := r.ReadU8()
	if err != nil {
		return o, wire.WithField(err, "download_memos")
	}
	if MemoDownloadOption(m) > AllMemos {
		return o, wire.WithField(r.Fail(wire.KindInvalidTag, "unknown memo download option %d", m), "download_memos")
	}
	o.DownloadMemos = MemoDownloadOption(m)

	if o.Version > optionsSpamThresholdAfter {
		if o.SpamThreshold, err = r.ReadI64(); err != nil {
			return o, wire.WithField(err, "spam_threshold")
		}
	}
	return o, nil
}

// WalletZecPriceInfo is the persisted part of the wallet's price cache. The
// current price itself is never stored.
type WalletZecPriceInfo struct {
	Version                       uint64
	Currency                      string
	LastHistoricalPricesFetchedAt *uint64
	HistoricalPricesRetryCount    uint64
}

// DefaultPriceInfo is used for wallets that predate the price record.
func DefaultPriceInfo() WalletZecPriceInfo {
	return WalletZecPriceInfo{Currency: "USD"}
}

func readPriceInfo(r *wire.Reader) (WalletZecPriceInfo, error) {
	p := DefaultPriceInfo()
	var err error

	if p.Version, err = r.ReadU64(); err != nil {
		return p, wire.WithField(err, "version")
	}
	if p.Version > PriceInfoVersion {
		return p, wire.WithField(r.Fail(wire.KindVersionUnsupported,
			"price info version %d, newest known is %d", p.Version, PriceInfoVersion), "version")
	}
	if p.LastHistoricalPricesFetchedAt, err = wire.ReadOptional(r, wire.U64); err != nil {
		return p, wire.WithField(err, "last_historical_prices_fetched_at")
	}
	if p.HistoricalPricesRetryCount, err = r.ReadU64(); err != nil {
		return p, wire.WithField(err, "historical_prices_retry_count")
	}
	return p, nil
}
