package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/btcsuite/btcd/btcutil"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/suffix-labs/zcash-excavator/pkg/crypto"
	"github.com/suffix-labs/zcash-excavator/pkg/merkle"
)

const (
	// NetworkKey forces the network wallets are decoded for. Empty means the
	// chain name stored in each file decides.
	NetworkKey = "NETWORK"
	// LogLevelKey is the logrus level, 0 (panic) to 6 (trace)
	LogLevelKey = "LOG_LEVEL"
	// DatadirKey is the directory holding the export database
	DatadirKey = "DATADIR"
	// TreeEncodingKey selects the Orchard witness tree encoding, "legacy" or "modern"
	TreeEncodingKey = "TREE_ENCODING"
	// NoDeriveKey disables shielded address derivation
	NoDeriveKey = "NO_DERIVE"

	DbLocation = "db"
)

var vip *viper.Viper
var defaultDatadir = btcutil.AppDataDir("zcash-excavator", false)

func init() {
	vip = newViper()
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("ZEXCAVATOR")
	v.AutomaticEnv()

	v.SetDefault(NetworkKey, "")
	v.SetDefault(LogLevelKey, int(log.InfoLevel))
	v.SetDefault(DatadirKey, defaultDatadir)
	v.SetDefault(TreeEncodingKey, merkle.EncodingLegacy.String())
	v.SetDefault(NoDeriveKey, false)
	return v
}

// InitConfig validates the configuration and applies the log level.
func InitConfig() error {
	if err := validate(); err != nil {
		return err
	}
	log.SetLevel(GetLogLevel())
	return nil
}

func GetString(key string) string {
	return vip.GetString(key)
}

func GetInt(key string) int {
	return vip.GetInt(key)
}

func GetBool(key string) bool {
	return vip.GetBool(key)
}

// Set a value for the given key
func Set(key string, value interface{}) {
	vip.Set(key, value)
}

// GetNetwork returns the forced network, or nil when none is configured.
func GetNetwork() *crypto.Network {
	name := GetString(NetworkKey)
	if name == "" {
		return nil
	}
	net, err := crypto.NetworkFromChainName(name)
	if err != nil {
		return nil
	}
	return &net
}

func GetLogLevel() log.Level {
	return log.Level(GetInt(LogLevelKey))
}

func GetDatadir() string {
	return GetString(DatadirKey)
}

// GetDbDir returns the export database directory, creating it if needed.
func GetDbDir() (string, error) {
	dir := filepath.Join(GetDatadir(), DbLocation)
	if err := makeDirectoryIfNotExists(dir); err != nil {
		return "", err
	}
	return dir, nil
}

func GetTreeEncoding() merkle.Encoding {
	enc, err := merkle.ParseEncoding(GetString(TreeEncodingKey))
	if err != nil {
		return merkle.EncodingLegacy
	}
	return enc
}

func validate() error {
	if len(GetDatadir()) <= 0 {
		return fmt.Errorf("datadir must not be null")
	}

	if name := GetString(NetworkKey); name != "" {
		if _, err := crypto.NetworkFromChainName(name); err != nil {
			return fmt.Errorf("network must be one of 'main', 'test' or 'regtest': %w", err)
		}
	}

	level := GetInt(LogLevelKey)
	if level < int(log.PanicLevel) || level > int(log.TraceLevel) {
		return fmt.Errorf("log level must be in range [%d, %d]", log.PanicLevel, log.TraceLevel)
	}

	if _, err := merkle.ParseEncoding(GetString(TreeEncodingKey)); err != nil {
		return err
	}
	return nil
}

func makeDirectoryIfNotExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, os.ModeDir|0755)
	}
	return nil
}
