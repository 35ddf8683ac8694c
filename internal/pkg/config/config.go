package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration for the local node.
type Config struct {
	RPC     RPCConfig     `yaml:"rpc"`
	Metrics MetricsConfig `yaml:"metrics"`
	Genesis GenesisConfig `yaml:"genesis"`
}

type RPCConfig struct {
	Port int `yaml:"port"`
}

type MetricsConfig struct {
	IsEnabled bool `yaml:"is_enabled"`
	Port      int  `yaml:"port"`
}

// GenesisConfig seeds the ledger on startup.
type GenesisConfig struct {
	// AirdropCap limits a single requestAirdrop, 0 means unlimited.
	AirdropCap uint64           `yaml:"airdrop_cap"`
	Accounts   []GenesisAccount `yaml:"accounts"`
}

type GenesisAccount struct {
	Address  string `yaml:"address"`
	Lamports uint64 `yaml:"lamports"`
}

// LoadFile parses the given YAML file into a Config.
func LoadFile(filename string) (c Config, err error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return c, err
	}
	cfg, err := Load(content)
	if err != nil {
		return c, fmt.Errorf("parsing YAML file %s: %s", filename, err)
	}

	err = cfg.validate()
	if err != nil {
		return c, fmt.Errorf("validate %s: %s", filename, err)
	}

	return cfg, nil
}

// Load parses the YAML input s into a Config.
func Load(s []byte) (cfg Config, err error) {
	d := yaml.NewDecoder(bytes.NewBuffer(s))
	d.KnownFields(true)
	err = d.Decode(&cfg)
	if err != nil {
		return cfg, err
	}

	return cfg, nil
}
