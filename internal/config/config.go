package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"
)

type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("duration must be a scalar")
	}
	if value.Value == "" {
		d.Duration = 0
		return nil
	}
	if value.Tag == "!!int" {
		var v int64
		if err := value.Decode(&v); err != nil {
			return err
		}
		d.Duration = time.Duration(v) * time.Millisecond
		return nil
	}
	dur, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	d.Duration = dur
	return nil
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

type Account struct {
	PrivateKeyEnv  string `yaml:"private_key_env"`
	MnemonicEnv    string `yaml:"mnemonic_env"`
	DerivationPath string `yaml:"derivation_path"`
	Keystore       struct {
		Path          string `yaml:"path"`
		PassphraseEnv string `yaml:"passphrase_env"`
	} `yaml:"keystore"`
}

type RPC struct {
	Proxy          string   `yaml:"proxy"`
	RequestTimeout Duration `yaml:"request_timeout"`
}

type Tx struct {
	FeeHistoryBlocks    uint64   `yaml:"fee_history_blocks"`
	FeePercentile       float64  `yaml:"fee_percentile"`
	HeadroomMin         float64  `yaml:"headroom_min"`
	HeadroomMax         float64  `yaml:"headroom_max"`
	ReceiptPollInterval Duration `yaml:"receipt_poll_interval"`
	ConfirmTimeout      Duration `yaml:"confirm_timeout"`
	ResubmitMax         int      `yaml:"resubmit_max"`
	ResubmitBackoff     Duration `yaml:"resubmit_backoff"`
}

type Bridge struct {
	RPC         string `yaml:"rpc"`
	Contract    string `yaml:"contract"`
	ABI         string `yaml:"abi"`
	Amount      string `yaml:"amount"`
	MinGasLimit uint32 `yaml:"min_gas_limit"`
	ExtraData   string `yaml:"extra_data"`
}

type Claim struct {
	RPC                string   `yaml:"rpc"`
	ABI                string   `yaml:"abi"`
	NFT                string   `yaml:"nft"`
	Quantity           int64    `yaml:"quantity"`
	MinBalance         string   `yaml:"min_balance"`
	BalanceAttempts    int      `yaml:"balance_attempts"`
	BalanceIntervalMin Duration `yaml:"balance_interval_min"`
	BalanceIntervalMax Duration `yaml:"balance_interval_max"`
}

type Config struct {
	Log     Log     `yaml:"log"`
	Account Account `yaml:"account"`
	RPC     RPC     `yaml:"rpc"`
	ABIDir  string  `yaml:"abi_dir"`
	Tx      Tx      `yaml:"tx"`

	Journal struct {
		Path string `yaml:"path"`
	} `yaml:"journal"`

	Bridge Bridge `yaml:"bridge"`
	Claim  Claim  `yaml:"claim"`

	// NFTs maps a claim target name to its contract address.
	NFTs map[string]string `yaml:"nfts"`
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(b)
}

func Parse(b []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default is the configuration used when no file is given.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

func (c *Config) applyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
	if c.Account.PrivateKeyEnv == "" {
		c.Account.PrivateKeyEnv = "PRIVATE_KEY"
	}
	if c.Account.MnemonicEnv == "" {
		c.Account.MnemonicEnv = "MNEMONIC"
	}
	if c.Account.Keystore.PassphraseEnv == "" {
		c.Account.Keystore.PassphraseEnv = "KEYSTORE_PASSPHRASE"
	}
	if c.RPC.RequestTimeout.Duration == 0 {
		c.RPC.RequestTimeout = Duration{Duration: 30 * time.Second}
	}
	if c.ABIDir == "" {
		c.ABIDir = "abis"
	}
	if c.Tx.FeeHistoryBlocks == 0 {
		c.Tx.FeeHistoryBlocks = 30
	}
	if c.Tx.FeePercentile == 0 {
		c.Tx.FeePercentile = 20
	}
	if c.Tx.HeadroomMin == 0 {
		c.Tx.HeadroomMin = 1.15
	}
	if c.Tx.HeadroomMax == 0 {
		c.Tx.HeadroomMax = 1.30
	}
	if c.Tx.ReceiptPollInterval.Duration == 0 {
		c.Tx.ReceiptPollInterval = Duration{Duration: 2 * time.Second}
	}
	if c.Tx.ResubmitBackoff.Duration == 0 {
		c.Tx.ResubmitBackoff = Duration{Duration: 2 * time.Second}
	}
	if c.Journal.Path == "" {
		c.Journal.Path = "data/results.json"
	}
	if c.Bridge.RPC == "" {
		c.Bridge.RPC = "https://1rpc.io/sepolia"
	}
	if c.Bridge.Contract == "" {
		c.Bridge.Contract = "0xea58fcA6849d79EAd1f26608855c2D6407d54Ce2"
	}
	if c.Bridge.ABI == "" {
		c.Bridge.ABI = "L1StandardBridge"
	}
	if c.Bridge.Amount == "" {
		c.Bridge.Amount = "0.001"
	}
	if c.Bridge.MinGasLimit == 0 {
		c.Bridge.MinGasLimit = 200000
	}
	if c.Bridge.ExtraData == "" {
		c.Bridge.ExtraData = "0x7375706572627269646765"
	}
	if c.Claim.RPC == "" {
		c.Claim.RPC = "https://1301.rpc.thirdweb.com/"
	}
	if c.Claim.ABI == "" {
		c.Claim.ABI = "OpenEditionERC721"
	}
	if c.Claim.NFT == "" {
		c.Claim.NFT = "OROCHIMARU"
	}
	if c.Claim.Quantity == 0 {
		c.Claim.Quantity = 1
	}
	if c.Claim.MinBalance == "" {
		c.Claim.MinBalance = "0.00001"
	}
	if c.Claim.BalanceAttempts == 0 {
		c.Claim.BalanceAttempts = 10
	}
	if c.Claim.BalanceIntervalMin.Duration == 0 {
		c.Claim.BalanceIntervalMin = Duration{Duration: 3 * time.Second}
	}
	if c.Claim.BalanceIntervalMax.Duration == 0 {
		c.Claim.BalanceIntervalMax = Duration{Duration: 5 * time.Second}
	}
	if len(c.NFTs) == 0 {
		c.NFTs = map[string]string{
			"UA":         "0xAdE5aE3e71ff1E6D1E1e849d18A4DF27189a61be",
			"OROCHIMARU": "0x87787cAacb6b928eb122D761eF1424217552Ac5F",
			"Europa":     "0x2188DA4AE1CAaFCf2fBFb3ef34227F3FFdc46AB6",
			"Unicorn":    "0x99F4146B950Ec5B8C6Bc1Aa6f6C9b14b6ADc6256",
		}
	}
}

func (c *Config) validate() error {
	switch strings.ToLower(c.Log.Format) {
	case "console", "json":
	default:
		return fmt.Errorf("log.format must be console or json")
	}
	if c.Tx.HeadroomMin < 1 || c.Tx.HeadroomMax < c.Tx.HeadroomMin {
		return fmt.Errorf("tx headroom must satisfy 1 <= headroom_min <= headroom_max")
	}
	if c.Tx.FeePercentile < 0 || c.Tx.FeePercentile > 100 {
		return fmt.Errorf("tx.fee_percentile must be within [0, 100]")
	}
	if c.Tx.ResubmitMax < 0 {
		return fmt.Errorf("tx.resubmit_max must be >= 0")
	}
	if !common.IsHexAddress(c.Bridge.Contract) {
		return fmt.Errorf("bridge.contract %q is not an address", c.Bridge.Contract)
	}
	if c.Claim.BalanceAttempts < 1 {
		return fmt.Errorf("claim.balance_attempts must be >= 1")
	}
	if c.Claim.BalanceIntervalMax.Duration < c.Claim.BalanceIntervalMin.Duration {
		return fmt.Errorf("claim.balance_interval_max must be >= balance_interval_min")
	}
	for name, addr := range c.NFTs {
		if !common.IsHexAddress(addr) {
			return fmt.Errorf("nfts.%s %q is not an address", name, addr)
		}
	}
	return nil
}

// NFTAddress resolves a registered claim target by name, case-insensitively.
func (c *Config) NFTAddress(name string) (common.Address, error) {
	for k, v := range c.NFTs {
		if strings.EqualFold(k, name) {
			return common.HexToAddress(v), nil
		}
	}
	return common.Address{}, fmt.Errorf("unknown nft %q", name)
}
