package anchor

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// FindProgramAddress derives a PDA for the context's program.
func (c *Context) FindProgramAddress(seeds ...[]byte) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress(seeds, c.ProgramID)
}

// MustFindProgramAddress is FindProgramAddress for fixed test seeds.
func (c *Context) MustFindProgramAddress(seeds ...[]byte) solana.PublicKey {
	addr, _, err := c.FindProgramAddress(seeds...)
	if err != nil {
		panic(fmt.Sprintf("FindProgramAddress: %s", err))
	}

	return addr
}

// AssociatedTokenAddress derives the ATA of wallet for mint.
func AssociatedTokenAddress(wallet, mint solana.PublicKey) (solana.PublicKey, error) {
	addr, _, err := solana.FindAssociatedTokenAddress(wallet, mint)

	return addr, err
}
