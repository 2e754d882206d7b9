package config

type AssetConfig struct {
	Name    string `yaml:"name"`
	Address string `yaml:"address"`
}

type DeploymentsConfig struct {
	Connext       string `yaml:"connext"`
	TokenRegistry string `yaml:"token_registry"`
	StableSwap    string `yaml:"stable_swap"`
}

// DomainConfig is the per-domain chain configuration. Deployments.Connext is
// mandatory for every configured domain.
type DomainConfig struct {
	Assets        []AssetConfig     `yaml:"assets"`
	Providers     []string          `yaml:"providers"`
	Confirmations int               `yaml:"confirmations"`
	Subgraph      string            `yaml:"subgraph"`
	Deployments   DeploymentsConfig `yaml:"deployments"`
}

type Configuration struct {
	// Server config
	Server struct {
		Port       int    `yaml:"port"`
		RedisPort  int    `yaml:"redis_port"`
		RedisHost  string `yaml:"redis_host"`
		AdminToken string `yaml:"admin_token"`
	} `yaml:"server"`
	Network     string `yaml:"network"`
	Environment string `yaml:"environment"`
	MaxSlippage string `yaml:"max_slippage"`
	LogLevel    string `yaml:"log_level"`
	// Worker cadence, seconds
	PollInterval     int `yaml:"poll_interval"`
	ExecutorInterval int `yaml:"executor_interval"`
	// Bidding window applied when an auction is opened, seconds
	AuctionWaitTime int64 `yaml:"auction_wait_time"`
	Relayer         struct {
		URL string `yaml:"url"`
	} `yaml:"relayer"`
	FeeOracle struct {
		URL string `yaml:"url"`
	} `yaml:"fee_oracle"`
	Domains map[string]DomainConfig `yaml:"domains"`
}

// ChainMapping ties a protocol domain to its underlying chain and the on-chain
// router registry used for approval checks (empty when the chain has none).
type ChainMapping struct {
	Name           string
	ChainID        int
	Domain         string
	SubgraphPrefix string
	RouterRegistry string
}

// Chains is the static domain table, keyed by domain identifier. Domains are
// protocol-level identifiers distinct from native chain IDs.
var Chains = map[string]ChainMapping{
	"6648936": {
		Name:           "Eth",
		ChainID:        1,
		Domain:         "6648936",
		SubgraphPrefix: "mainnet",
		RouterRegistry: "0x8898B472C54c31894e3B9bb83cEA802a5d0e63C6",
	}, // Ethereum
	"1869640809": {
		Name:           "Optimism",
		ChainID:        10,
		Domain:         "1869640809",
		SubgraphPrefix: "optimism",
		RouterRegistry: "0x8f7492DE823025b4CfaAB1D34c58963F2af5DEDA",
	}, // Optimism
	"6450786": {
		Name:           "BNB",
		ChainID:        56,
		Domain:         "6450786",
		SubgraphPrefix: "bnb",
		RouterRegistry: "0xCd401c10afa37d641d2F594852DA94C700e4F2CE",
	}, // BNB
	"1634886255": {
		Name:           "Arbitrum",
		ChainID:        42161,
		Domain:         "1634886255",
		SubgraphPrefix: "arbitrum",
		RouterRegistry: "0xEE9deC2712cCE65174B561151701Bf54b99C24C8",
	}, // Arbitrum
	"6778479": {
		Name:           "Gnosis",
		ChainID:        100,
		Domain:         "6778479",
		SubgraphPrefix: "xdai",
		RouterRegistry: "", // no router registry deployed on this chain
	}, // Gnosis
}

// DomainForPrefix resolves a subgraph entity-key prefix back to its domain.
func DomainForPrefix(prefix string) (string, bool) {
	for domain, m := range Chains {
		if m.SubgraphPrefix == prefix {
			return domain, true
		}
	}
	return "", false
}
