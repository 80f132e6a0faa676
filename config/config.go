package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// AuthSecretEnv names the environment variable consulted when AuthSecret is
// not set in the file.
const AuthSecretEnv = "ESCROW_RPC_SECRET"

type Config struct {
	RPCAddress         string       `toml:"RPCAddress"`
	RPCReadTimeout     int          `toml:"RPCReadTimeout"`
	RPCWriteTimeout    int          `toml:"RPCWriteTimeout"`
	RPCTrustedProxies  []string     `toml:"RPCTrustedProxies"`
	DataDir            string       `toml:"DataDir"`
	Environment        string       `toml:"Environment"`
	LogFile            string       `toml:"LogFile"`
	LogLevel           string       `toml:"LogLevel"`
	EventStoreDSN      string       `toml:"EventStoreDSN"`
	AuthSecret         string       `toml:"AuthSecret,omitempty"`
	AuthIssuer         string       `toml:"AuthIssuer"`
	RateLimitPerMinute int          `toml:"RateLimitPerMinute"`
	PausedModules      []string     `toml:"PausedModules"`
	Telemetry          Telemetry    `toml:"telemetry"`
	Webhook            Webhook      `toml:"webhook"`
	Tokens             []Token      `toml:"tokens"`
	Allocations        []Allocation `toml:"allocations"`
}

// Load loads the configuration from the given path. A missing file is created
// with defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg, err = createDefault(path)
		if err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	} else if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}

	cfg.applyDefaults()
	if strings.TrimSpace(cfg.AuthSecret) == "" {
		cfg.AuthSecret = strings.TrimSpace(os.Getenv(AuthSecretEnv))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration written for a fresh install.
func Default() *Config {
	cfg := &Config{
		RPCAddress:         "127.0.0.1:8080",
		RPCReadTimeout:     15,
		RPCWriteTimeout:    15,
		DataDir:            "./escrow-data",
		Environment:        "local",
		LogLevel:           "info",
		EventStoreDSN:      "events.db",
		AuthIssuer:         "escrowd",
		RateLimitPerMinute: 600,
		PausedModules:      []string{},
		Telemetry:          Telemetry{Endpoint: "localhost:4318", Insecure: true},
		Tokens:             []Token{{Symbol: "ESC", Name: "Escrow Coin", Decimals: 18}},
		Allocations:        []Allocation{},
	}
	return cfg
}

func (c *Config) applyDefaults() {
	defaults := Default()
	if strings.TrimSpace(c.RPCAddress) == "" {
		c.RPCAddress = defaults.RPCAddress
	}
	if c.RPCReadTimeout <= 0 {
		c.RPCReadTimeout = defaults.RPCReadTimeout
	}
	if c.RPCWriteTimeout <= 0 {
		c.RPCWriteTimeout = defaults.RPCWriteTimeout
	}
	if strings.TrimSpace(c.DataDir) == "" {
		c.DataDir = defaults.DataDir
	}
	if strings.TrimSpace(c.AuthIssuer) == "" {
		c.AuthIssuer = defaults.AuthIssuer
	}
	if c.PausedModules == nil {
		c.PausedModules = []string{}
	}
	if len(c.Tokens) == 0 {
		c.Tokens = defaults.Tokens
	}
	if c.Allocations == nil {
		c.Allocations = []Allocation{}
	}
}

// createDefault creates and saves a default configuration file.
func createDefault(path string) (*Config, error) {
	cfg := Default()
	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}
