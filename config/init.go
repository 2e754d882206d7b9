package config

import (
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	yaml "gopkg.in/yaml.v2"
)

// Load reads the yaml config file and applies env overrides on top. A config
// that fails schema validation is unusable and the caller is expected to exit.
func Load(path string) (*Configuration, error) {
	cfg := &Configuration{}

	if err := readFile(cfg, path); err != nil {
		return nil, err
	}
	if err := readEnv(cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func readFile(cfg *Configuration, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("cannot open config file %s: %w", path, err)
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
		return fmt.Errorf("cannot parse config file %s: %w", path, err)
	}
	return nil
}

func readEnv(cfg *Configuration) error {
	if err := envconfig.Process("", cfg); err != nil {
		return fmt.Errorf("cannot process env config: %w", err)
	}
	return nil
}

func applyDefaults(cfg *Configuration) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RedisPort == 0 {
		cfg.Server.RedisPort = 6379
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = 15
	}
	if cfg.ExecutorInterval == 0 {
		cfg.ExecutorInterval = 5
	}
	if cfg.AuctionWaitTime == 0 {
		cfg.AuctionWaitTime = 30
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
}

// Validate enforces the config schema. Any violation here is startup-fatal:
// a misconfigured deployment table makes all subsequent work incorrect.
func (cfg *Configuration) Validate() error {
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level %q", cfg.LogLevel)
	}

	if len(cfg.Domains) == 0 {
		return fmt.Errorf("no domains configured")
	}

	for domain, dc := range cfg.Domains {
		if _, ok := Chains[domain]; !ok {
			return fmt.Errorf("domain %s is not present in the chain table", domain)
		}
		if len(dc.Providers) == 0 {
			return fmt.Errorf("domain %s: no providers configured", domain)
		}
		if dc.Subgraph == "" {
			return fmt.Errorf("domain %s: no subgraph endpoint configured", domain)
		}
		if dc.Deployments.Connext == "" {
			return fmt.Errorf("domain %s: missing connext deployment address", domain)
		}
	}

	if cfg.Server.AdminToken == "" {
		return fmt.Errorf("admin_token must be set")
	}
	return nil
}
