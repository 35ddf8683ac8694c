package svm

import (
	"github.com/gagliardetto/solana-go"
	"github.com/pkg/errors"
)

var (
	ErrAccountNotFound     = errors.New("account not found")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrReadonlyModified    = errors.New("read-only account modified")
	ErrMissingSignature    = errors.New("missing required signature")
	ErrAccountInUse        = errors.New("account already in use")
	ErrInvalidTransaction  = errors.New("invalid transaction")
	ErrBlockhashNotFound   = errors.New("blockhash not found")
	ErrDuplicateSignature  = errors.New("transaction already processed")
	ErrProgramNotFound     = errors.New("program not deployed")
	ErrTransactionNotFound = errors.New("transaction not found")
)

// Account is a single record in the simulated ledger.
type Account struct {
	Lamports   uint64
	Data       []byte
	Owner      solana.PublicKey
	Executable bool
	RentEpoch  uint64
}

func (a Account) clone() Account {
	out := a
	out.Data = make([]byte, len(a.Data))
	copy(out.Data, a.Data)

	return out
}

func newSystemAccount(lamports uint64) Account {
	return Account{
		Lamports: lamports,
		Data:     []byte{},
		Owner:    solana.SystemProgramID,
	}
}
