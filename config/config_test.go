package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validYAML = `
server:
  port: 8080
  redis_host: localhost
  redis_port: 6379
  admin_token: letmein
network: mainnet
environment: production
max_slippage: "0.01"
log_level: info
relayer:
  url: http://localhost:9000
fee_oracle:
  url: http://localhost:9001
domains:
  "6648936":
    providers:
      - https://eth.example.org
    confirmations: 3
    subgraph: https://subgraph.example.org/mainnet
    deployments:
      connext: "0x8898B472C54c31894e3B9bb83cEA802a5d0e63C6"
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, validYAML))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "letmein", cfg.Server.AdminToken)
	assert.Equal(t, "mainnet", cfg.Network)
	require.Contains(t, cfg.Domains, "6648936")
	assert.Equal(t, 3, cfg.Domains["6648936"].Confirmations)

	// defaults applied
	assert.Equal(t, 15, cfg.PollInterval)
	assert.Equal(t, int64(30), cfg.AuctionWaitTime)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	require.Error(t, err)
}

func TestValidate_MissingConnextDeployment(t *testing.T) {
	broken := `
server:
  admin_token: letmein
domains:
  "6648936":
    providers:
      - https://eth.example.org
    subgraph: https://subgraph.example.org/mainnet
    deployments:
      token_registry: "0x0000000000000000000000000000000000000001"
`
	_, err := Load(writeConfig(t, broken))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing connext deployment")
}

func TestValidate_UnknownDomain(t *testing.T) {
	broken := `
server:
  admin_token: letmein
domains:
  "999999":
    providers:
      - https://chain.example.org
    subgraph: https://subgraph.example.org/unknown
    deployments:
      connext: "0x0000000000000000000000000000000000000001"
`
	_, err := Load(writeConfig(t, broken))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not present in the chain table")
}

func TestValidate_BadLogLevel(t *testing.T) {
	cfg, err := Load(writeConfig(t, validYAML))
	require.NoError(t, err)

	cfg.LogLevel = "loud"
	assert.Error(t, cfg.Validate())
}

func TestDomainForPrefix(t *testing.T) {
	domain, ok := DomainForPrefix("optimism")
	require.True(t, ok)
	assert.Equal(t, "1869640809", domain)

	domain, ok = DomainForPrefix("xdai")
	require.True(t, ok)
	assert.Equal(t, "6778479", domain)

	_, ok = DomainForPrefix("unknownchain")
	assert.False(t, ok)
}
