package config

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"escrowchain/crypto"
)

var testAccount = crypto.FormatAccount([20]byte{0x42, 0x24})

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:8080", cfg.RPCAddress)
	require.Len(t, cfg.Tokens, 1)
	require.Equal(t, "ESC", cfg.Tokens[0].Symbol)

	_, err = os.Stat(path)
	require.NoError(t, err)

	again, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg.RPCAddress, again.RPCAddress)
	require.Equal(t, cfg.EventStoreDSN, again.EventStoreDSN)
}

func TestLoadParsesSettings(t *testing.T) {
	path := writeConfig(t, fmt.Sprintf(`RPCAddress = "0.0.0.0:9000"
DataDir = "./data"
Environment = "staging"
LogLevel = "debug"
EventStoreDSN = "postgres://escrow@localhost/events"
AuthSecret = "file-secret"
RateLimitPerMinute = 30
RPCTrustedProxies = ["10.0.0.0/8", "127.0.0.1"]
PausedModules = ["Auction"]

[telemetry]
Endpoint = "otel:4318"
Traces = true
SampleRatio = 0.5

[webhook]
URL = "https://hooks.example.com/escrow"
Secret = "hook-secret"
Types = ["auction.settled"]

[[tokens]]
Symbol = "esc"
Name = "Escrow Coin"
Decimals = 6

[[tokens]]
Symbol = "USD"
Name = "Dollar"
Decimals = 2

[[allocations]]
Address = "%s"
Token = "usd"
Amount = "2500"
`, testAccount))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "0.0.0.0:9000", cfg.RPCAddress)
	require.Equal(t, "staging", cfg.Environment)
	require.Equal(t, "file-secret", cfg.AuthSecret)
	require.Equal(t, 30, cfg.RateLimitPerMinute)
	require.Equal(t, []string{"10.0.0.0/8", "127.0.0.1"}, cfg.RPCTrustedProxies)
	require.True(t, cfg.IsPaused("auction"))
	require.False(t, cfg.IsPaused("crowdfund"))
	require.True(t, cfg.Telemetry.Traces)
	require.Equal(t, 0.5, cfg.Telemetry.SampleRatio)
	require.Len(t, cfg.Tokens, 2)
	require.Equal(t, 15, cfg.RPCReadTimeout)
	require.True(t, cfg.Webhook.Enabled())
	require.Equal(t, []string{"auction.settled"}, cfg.Webhook.Types)

	allocs, err := cfg.GenesisAllocations()
	require.NoError(t, err)
	require.Len(t, allocs, 1)
	require.Equal(t, [20]byte{0x42, 0x24}, allocs[0].Account)
	require.Equal(t, "USD", allocs[0].Token)
	require.Equal(t, int64(2500), allocs[0].Amount.Int64())
}

func TestLoadSecretFromEnv(t *testing.T) {
	t.Setenv(AuthSecretEnv, "env-secret")
	path := writeConfig(t, `RPCAddress = "127.0.0.1:1"`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "env-secret", cfg.AuthSecret)
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]func(*Config){
		"empty rpc":       func(c *Config) { c.RPCAddress = " " },
		"negative limit":  func(c *Config) { c.RateLimitPerMinute = -1 },
		"bad level":       func(c *Config) { c.LogLevel = "loud" },
		"bad proxy":       func(c *Config) { c.RPCTrustedProxies = []string{"proxy.local"} },
		"bad ratio":       func(c *Config) { c.Telemetry.SampleRatio = 2 },
		"nameless token":  func(c *Config) { c.Tokens = []Token{{Symbol: "X"}} },
		"duplicate token": func(c *Config) { c.Tokens = append(c.Tokens, Token{Symbol: "esc", Name: "Again"}) },
		"unknown token": func(c *Config) {
			c.Allocations = []Allocation{{Address: testAccount, Token: "NOPE", Amount: "1"}}
		},
		"bad amount": func(c *Config) {
			c.Allocations = []Allocation{{Address: testAccount, Token: "ESC", Amount: "-5"}}
		},
		"webhook without secret": func(c *Config) { c.Webhook.URL = "http://localhost:1" },
		"bad address": func(c *Config) {
			c.Allocations = []Allocation{{Address: "nope", Token: "ESC", Amount: "5"}}
		},
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(cfg)
			require.Error(t, cfg.Validate())
		})
	}
	require.NoError(t, Default().Validate())
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	path := writeConfig(t, `RPCAddress = `)
	_, err := Load(path)
	require.Error(t, err)
}
