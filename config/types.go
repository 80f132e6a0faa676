package config

import (
	"math/big"
	"strings"
)

// Telemetry controls the OpenTelemetry exporters.
type Telemetry struct {
	Endpoint    string  `toml:"Endpoint"`
	Insecure    bool    `toml:"Insecure"`
	Traces      bool    `toml:"Traces"`
	Metrics     bool    `toml:"Metrics"`
	Headers     string  `toml:"Headers,omitempty"`
	SampleRatio float64 `toml:"SampleRatio,omitempty"`
}

// Webhook forwards committed events to an external endpoint. An empty URL
// disables delivery.
type Webhook struct {
	URL         string   `toml:"URL"`
	Secret      string   `toml:"Secret,omitempty"`
	Types       []string `toml:"Types,omitempty"`
	MaxAttempts int      `toml:"MaxAttempts,omitempty"`
}

// Enabled reports whether a delivery endpoint is configured.
func (w Webhook) Enabled() bool { return strings.TrimSpace(w.URL) != "" }

// Token registers a value asset at genesis.
type Token struct {
	Symbol   string `toml:"Symbol"`
	Name     string `toml:"Name"`
	Decimals uint8  `toml:"Decimals"`
}

// Allocation credits an account at genesis. Amount is a base-10 integer in
// the token's smallest unit.
type Allocation struct {
	Address string `toml:"Address"`
	Token   string `toml:"Token"`
	Amount  string `toml:"Amount"`
}

// GenesisAllocation is a parsed Allocation.
type GenesisAllocation struct {
	Account [20]byte
	Token   string
	Amount  *big.Int
}

// IsPaused reports whether module is listed in PausedModules.
func (c *Config) IsPaused(module string) bool {
	module = strings.ToLower(strings.TrimSpace(module))
	for _, paused := range c.PausedModules {
		if strings.ToLower(strings.TrimSpace(paused)) == module {
			return true
		}
	}
	return false
}
