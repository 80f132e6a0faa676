package config

import (
	"fmt"
	"math/big"
	"net"
	"strings"

	"escrowchain/crypto"
)

var knownLogLevels = map[string]struct{}{
	"": {}, "debug": {}, "info": {}, "warn": {}, "warning": {}, "error": {},
}

// Validate rejects configurations the daemon can not run with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.RPCAddress) == "" {
		return fmt.Errorf("config: RPCAddress must not be empty")
	}
	if c.RateLimitPerMinute < 0 {
		return fmt.Errorf("config: RateLimitPerMinute must not be negative")
	}
	for _, entry := range c.RPCTrustedProxies {
		entry = strings.TrimSpace(entry)
		if _, _, err := net.ParseCIDR(entry); err != nil && net.ParseIP(entry) == nil {
			return fmt.Errorf("config: RPCTrustedProxies entry %q is not an IP or CIDR", entry)
		}
	}
	if _, ok := knownLogLevels[strings.ToLower(strings.TrimSpace(c.LogLevel))]; !ok {
		return fmt.Errorf("config: unknown LogLevel %q", c.LogLevel)
	}
	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("config: telemetry.SampleRatio must be within [0,1]")
	}
	if c.Webhook.Enabled() && strings.TrimSpace(c.Webhook.Secret) == "" {
		return fmt.Errorf("config: webhook.Secret required when webhook.URL is set")
	}
	if c.Webhook.MaxAttempts < 0 {
		return fmt.Errorf("config: webhook.MaxAttempts must not be negative")
	}
	symbols := make(map[string]struct{}, len(c.Tokens))
	for i, token := range c.Tokens {
		symbol := strings.ToUpper(strings.TrimSpace(token.Symbol))
		if symbol == "" || strings.TrimSpace(token.Name) == "" {
			return fmt.Errorf("config: tokens[%d] requires Symbol and Name", i)
		}
		if _, dup := symbols[symbol]; dup {
			return fmt.Errorf("config: token %s declared twice", symbol)
		}
		symbols[symbol] = struct{}{}
	}
	if _, err := c.genesisAllocations(symbols); err != nil {
		return err
	}
	return nil
}

// GenesisAllocations parses the configured allocations.
func (c *Config) GenesisAllocations() ([]GenesisAllocation, error) {
	symbols := make(map[string]struct{}, len(c.Tokens))
	for _, token := range c.Tokens {
		symbols[strings.ToUpper(strings.TrimSpace(token.Symbol))] = struct{}{}
	}
	return c.genesisAllocations(symbols)
}

func (c *Config) genesisAllocations(symbols map[string]struct{}) ([]GenesisAllocation, error) {
	out := make([]GenesisAllocation, 0, len(c.Allocations))
	for i, alloc := range c.Allocations {
		account, err := crypto.ParseAccount(strings.TrimSpace(alloc.Address))
		if err != nil {
			return nil, fmt.Errorf("config: allocations[%d]: %w", i, err)
		}
		token := strings.ToUpper(strings.TrimSpace(alloc.Token))
		if _, ok := symbols[token]; !ok {
			return nil, fmt.Errorf("config: allocations[%d]: unknown token %q", i, alloc.Token)
		}
		amount, ok := new(big.Int).SetString(strings.TrimSpace(alloc.Amount), 10)
		if !ok || amount.Sign() <= 0 {
			return nil, fmt.Errorf("config: allocations[%d]: invalid amount %q", i, alloc.Amount)
		}
		out = append(out, GenesisAllocation{Account: account, Token: token, Amount: amount})
	}
	return out, nil
}
