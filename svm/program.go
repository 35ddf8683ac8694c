package svm

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// Program is a native handler registered into the harness in place of
// compiled on-chain bytecode. One Execute call corresponds to one
// top-level instruction targeting the program.
type Program interface {
	Execute(ic *InvokeContext) error
}

// ProgramFunc adapts a plain function to the Program interface.
type ProgramFunc func(ic *InvokeContext) error

func (f ProgramFunc) Execute(ic *InvokeContext) error { return f(ic) }

// BorrowedAccount is an instruction's view of one referenced account.
// Mutations are applied to a working copy and committed only when the
// whole transaction succeeds.
type BorrowedAccount struct {
	Key        solana.PublicKey
	IsSigner   bool
	IsWritable bool

	acc *Account
}

func (b *BorrowedAccount) Lamports() uint64 { return b.acc.Lamports }

func (b *BorrowedAccount) SetLamports(lamports uint64) error {
	if !b.IsWritable {
		return ErrReadonlyModified
	}
	b.acc.Lamports = lamports

	return nil
}

func (b *BorrowedAccount) Data() []byte { return b.acc.Data }

func (b *BorrowedAccount) SetData(data []byte) error {
	if !b.IsWritable {
		return ErrReadonlyModified
	}
	b.acc.Data = data

	return nil
}

func (b *BorrowedAccount) Owner() solana.PublicKey { return b.acc.Owner }

func (b *BorrowedAccount) SetOwner(owner solana.PublicKey) error {
	if !b.IsWritable {
		return ErrReadonlyModified
	}
	b.acc.Owner = owner

	return nil
}

// Account returns a detached copy of the current account state.
func (b *BorrowedAccount) Account() Account { return b.acc.clone() }

// InvokeContext is passed to a Program for a single instruction.
type InvokeContext struct {
	vm         *SVM
	programID  solana.PublicKey
	data       []byte
	accounts   []*BorrowedAccount
	logs       *[]string
	meter      *computeMeter
	returnData []byte
}

func (ic *InvokeContext) ProgramID() solana.PublicKey { return ic.programID }

// Data is the raw instruction payload, discriminator included.
func (ic *InvokeContext) Data() []byte { return ic.data }

func (ic *InvokeContext) NumAccounts() int { return len(ic.accounts) }

func (ic *InvokeContext) Account(idx int) (*BorrowedAccount, error) {
	if idx < 0 || idx >= len(ic.accounts) {
		return nil, fmt.Errorf("account index %d out of range (%d accounts)", idx, len(ic.accounts))
	}

	return ic.accounts[idx], nil
}

// Log appends a program log line, mirroring the on-chain "Program log:" form.
func (ic *InvokeContext) Log(format string, args ...interface{}) {
	*ic.logs = append(*ic.logs, "Program log: "+fmt.Sprintf(format, args...))
}

// Consume charges compute units against the transaction budget.
func (ic *InvokeContext) Consume(units uint64) error {
	return ic.meter.consume(units)
}

func (ic *InvokeContext) SetReturnData(data []byte) {
	ic.returnData = make([]byte, len(data))
	copy(ic.returnData, data)
}

func (ic *InvokeContext) Blockhash() solana.Hash { return ic.vm.latestBlockhashLocked() }

func (ic *InvokeContext) Slot() uint64 { return ic.vm.slot }
