package zwl

// Highest record versions this reader understands. Anything newer fails
// with wire.ErrVersionUnsupported.
const (
	WalletVersion     = 25
	KeysVersion       = 22
	KeyRecordVersion  = 1
	WalletTxnsVersion = 21
	WalletTxVersion   = 23
	UtxoVersion       = 3
	OptionsVersion    = 2
	PriceInfoVersion  = 20
)

// Oldest layouts this reader understands. Earlier wallets stored keys and
// transactions in formats that predate the per-record encodings.
const (
	minWalletVersion = 15
	minKeysVersion   = 7
)

// Wallet file gates. "After" fields are present when version > N, "Since"
// fields when version >= N and "Until" fields when version <= N.
const (
	walletOptionsAfter        = 23
	walletTreeVerifiedAfter   = 12
	walletTreeVerifiedUntil   = 22
	walletVerifiedTreeAfter   = 21
	walletPriceInfoAfter      = 13
	walletOrchardWitnessAfter = 24
)

// Keys gates.
const (
	keysOrchardAfter  = 21
	keysRawTKeysUntil = 20
)

// Block gate.
const blockEcbAfter = 11

// WalletTxns gate.
const txnsMempoolUntil = 20

// WalletTx gates.
const (
	txUnconfirmedAfter  = 20
	txDatetimeSince     = 4
	txOrchardSpentAfter = 22
	txPriceAfter        = 4
	txSaplingSpentAfter = 5
	txOrchardNotesAfter = 21
)

// SaplingNoteData gates.
const (
	noteAccountUntil          = 5
	noteOldRseedUntil         = 3
	noteTopHeightSince        = 20
	noteOldSpentUntil         = 5
	noteOldSpentHeightSince   = 2
	noteUnconfirmedSpentAfter = 4
	noteHaveSpendingKeyAfter  = 2
)

// Utxo gates.
const (
	utxoSpentHeightAfter      = 1
	utxoUnconfirmedSpentAfter = 2
)

// WalletOptions gate.
const optionsSpamThresholdAfter = 1
