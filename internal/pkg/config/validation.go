package config

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

func (c Config) validate() error {
	if err := c.RPC.validate(); err != nil {
		return fmt.Errorf("rpc: %s", err)
	}
	if err := c.Metrics.validate(); err != nil {
		return fmt.Errorf("metrics: %s", err)
	}
	if err := c.Genesis.validate(); err != nil {
		return fmt.Errorf("genesis: %s", err)
	}

	return nil
}

func (r RPCConfig) validate() error {
	if r.Port <= 0 {
		return fmt.Errorf("invalid port: %d", r.Port)
	}

	return nil
}

func (m MetricsConfig) validate() error {
	if m.IsEnabled && m.Port <= 0 {
		return fmt.Errorf("invalid port: %d", m.Port)
	}

	return nil
}

func (g GenesisConfig) validate() error {
	for i, acc := range g.Accounts {
		if _, err := solana.PublicKeyFromBase58(acc.Address); err != nil {
			return fmt.Errorf("account %d (%s): %s", i, acc.Address, err)
		}
		if acc.Lamports == 0 {
			return fmt.Errorf("account %d (%s): zero lamports", i, acc.Address)
		}
	}

	return nil
}
