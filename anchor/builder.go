package anchor

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// InstructionBuilder is a fluent helper for assembling an instruction
// with named accounts. Account order on the wire is the call order;
// names exist for debugging and never leave the builder.
type InstructionBuilder struct {
	ctx      *Context
	name     string
	accounts solana.AccountMetaSlice
	indices  map[string]int
	signers  []solana.PrivateKey
	args     interface{}
	hasArgs  bool
}

func (b *InstructionBuilder) push(name string, meta *solana.AccountMeta) *InstructionBuilder {
	b.indices[name] = len(b.accounts)
	b.accounts = append(b.accounts, meta)

	return b
}

// Account adds a read-only account.
func (b *InstructionBuilder) Account(name string, pubkey solana.PublicKey) *InstructionBuilder {
	return b.push(name, solana.Meta(pubkey))
}

// AccountMut adds a writable account.
func (b *InstructionBuilder) AccountMut(name string, pubkey solana.PublicKey) *InstructionBuilder {
	return b.push(name, solana.Meta(pubkey).WRITE())
}

// Signer adds a writable signer and remembers its key for Execute.
func (b *InstructionBuilder) Signer(name string, key solana.PrivateKey) *InstructionBuilder {
	b.signers = append(b.signers, key)
	return b.push(name, solana.Meta(key.PublicKey()).WRITE().SIGNER())
}

// SignerReadonly adds a read-only signer and remembers its key for Execute.
func (b *InstructionBuilder) SignerReadonly(name string, key solana.PrivateKey) *InstructionBuilder {
	b.signers = append(b.signers, key)
	return b.push(name, solana.Meta(key.PublicKey()).SIGNER())
}

// SystemProgram adds the system program account.
func (b *InstructionBuilder) SystemProgram() *InstructionBuilder {
	return b.Account("system_program", solana.SystemProgramID)
}

// TokenProgram adds the SPL token program account.
func (b *InstructionBuilder) TokenProgram() *InstructionBuilder {
	return b.Account("token_program", solana.TokenProgramID)
}

// AssociatedTokenProgram adds the associated token account program.
func (b *InstructionBuilder) AssociatedTokenProgram() *InstructionBuilder {
	return b.Account("associated_token_program", solana.SPLAssociatedTokenAccountProgramID)
}

// RentSysvar adds the rent sysvar account.
func (b *InstructionBuilder) RentSysvar() *InstructionBuilder {
	return b.Account("rent", solana.SysVarRentPubkey)
}

// Args sets the instruction arguments, any Borsh-serializable value or
// a Tuple. Call it even for argument-less methods when the program
// expects a bare discriminator: Args(nil) works too.
func (b *InstructionBuilder) Args(args interface{}) *InstructionBuilder {
	b.args = args
	b.hasArgs = true

	return b
}

// AccountByName returns the meta registered under name, nil when absent.
func (b *InstructionBuilder) AccountByName(name string) *solana.AccountMeta {
	idx, ok := b.indices[name]
	if !ok {
		return nil
	}

	return b.accounts[idx]
}

// Accounts returns the metas in wire order.
func (b *InstructionBuilder) Accounts() solana.AccountMetaSlice {
	return b.accounts
}

// Build assembles the instruction.
func (b *InstructionBuilder) Build() (solana.Instruction, error) {
	if !b.hasArgs {
		return nil, fmt.Errorf("no instruction args provided, call Args before Build")
	}

	return b.ctx.BuildInstruction(b.name, b.accounts, b.args)
}

// Execute builds the instruction and submits it in a transaction signed
// by the collected signers plus any extra ones. The first signer pays.
func (b *InstructionBuilder) Execute(extraSigners ...solana.PrivateKey) (*TransactionResult, error) {
	ix, err := b.Build()
	if err != nil {
		return nil, err
	}

	signers := append(append([]solana.PrivateKey{}, b.signers...), extraSigners...)
	res, err := b.ctx.SendInstruction(ix, signers)
	if err != nil {
		return nil, err
	}
	res.instructionName = b.name

	return res, nil
}
