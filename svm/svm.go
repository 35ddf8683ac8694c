package svm

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/gagliardetto/solana-go"
	"github.com/pkg/errors"

	"anchorsvm/internal/pkg/log"
)

const (
	// blockhashQueueSize matches the runtime's recent blockhash window.
	blockhashQueueSize = 150

	defaultComputeBudget   = 1_400_000
	defaultFeePerSignature = 5_000
	lamportsPerByteYear    = 3_480
	rentExemptionYears     = 2
	accountStorageOverhead = 128
)

// TransactionMetadata describes one processed transaction.
type TransactionMetadata struct {
	Signature            solana.Signature
	Slot                 uint64
	Logs                 []string
	ComputeUnitsConsumed uint64
	ReturnData           []byte
}

// TransactionError carries the failure cause together with the logs
// produced up to the failing instruction. The fee is still charged.
type TransactionError struct {
	Err  error
	Meta *TransactionMetadata
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("transaction failed: %s", e.Err)
}

func (e *TransactionError) Unwrap() error { return e.Err }

// SVM is an in-process ledger and execution engine for tests. All state
// lives in memory and is dropped with the value.
type SVM struct {
	mu sync.Mutex

	accounts map[solana.PublicKey]Account
	programs map[solana.PublicKey]Program
	history  map[solana.Signature]*TransactionMetadata

	blockhashes []solana.Hash
	slot        uint64
	txCount     uint64

	computeBudget   uint64
	feePerSignature uint64
}

// Option configures an SVM instance.
type Option func(*SVM)

func WithComputeBudget(budget uint64) Option {
	return func(vm *SVM) { vm.computeBudget = budget }
}

func WithFeePerSignature(lamports uint64) Option {
	return func(vm *SVM) { vm.feePerSignature = lamports }
}

func WithSlot(slot uint64) Option {
	return func(vm *SVM) { vm.slot = slot }
}

// New creates an empty ledger with the system program installed.
func New(opts ...Option) *SVM {
	vm := &SVM{
		accounts:        make(map[solana.PublicKey]Account),
		programs:        make(map[solana.PublicKey]Program),
		history:         make(map[solana.Signature]*TransactionMetadata),
		computeBudget:   defaultComputeBudget,
		feePerSignature: defaultFeePerSignature,
	}
	for _, opt := range opts {
		opt(vm)
	}

	vm.programs[solana.SystemProgramID] = systemProgram{}
	vm.blockhashes = []solana.Hash{genesisBlockhash()}

	return vm
}

func genesisBlockhash() (h solana.Hash) {
	sum := sha256.Sum256([]byte("anchorsvm genesis"))
	copy(h[:], sum[:])

	return h
}

// AddProgram registers a native handler under the given program id and
// materializes an executable account for it.
func (vm *SVM) AddProgram(programID solana.PublicKey, program Program) {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	vm.programs[programID] = program
	vm.accounts[programID] = Account{
		Lamports:   1,
		Data:       []byte{},
		Owner:      solana.BPFLoaderProgramID,
		Executable: true,
	}
}

// Airdrop mints lamports to pubkey, creating the account when absent.
func (vm *SVM) Airdrop(pubkey solana.PublicKey, lamports uint64) {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	acc, ok := vm.accounts[pubkey]
	if !ok {
		acc = newSystemAccount(0)
	}
	acc.Lamports += lamports
	vm.accounts[pubkey] = acc

	log.Logger.Svm.Debugf("airdrop %d lamports to %s", lamports, pubkey)
}

// GetAccount returns a copy of the stored account.
func (vm *SVM) GetAccount(pubkey solana.PublicKey) (Account, error) {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	acc, ok := vm.accounts[pubkey]
	if !ok {
		return Account{}, errors.Wrap(ErrAccountNotFound, pubkey.String())
	}

	return acc.clone(), nil
}

// SetAccount overwrites the stored account, creating it when absent.
func (vm *SVM) SetAccount(pubkey solana.PublicKey, acc Account) {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	vm.accounts[pubkey] = acc.clone()
}

// GetBalance returns the lamport balance, zero for unknown accounts.
func (vm *SVM) GetBalance(pubkey solana.PublicKey) uint64 {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	return vm.accounts[pubkey].Lamports
}

func (vm *SVM) LatestBlockhash() solana.Hash {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	return vm.latestBlockhashLocked()
}

func (vm *SVM) latestBlockhashLocked() solana.Hash {
	return vm.blockhashes[len(vm.blockhashes)-1]
}

// ExpireBlockhash advances the blockhash queue by one entry. Hashes older
// than the queue window stop validating.
func (vm *SVM) ExpireBlockhash() solana.Hash {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	return vm.advanceBlockhash()
}

func (vm *SVM) advanceBlockhash() (h solana.Hash) {
	prev := vm.latestBlockhashLocked()

	var seed [40]byte
	copy(seed[:32], prev[:])
	binary.LittleEndian.PutUint64(seed[32:], vm.slot)
	sum := sha256.Sum256(seed[:])
	copy(h[:], sum[:])

	vm.blockhashes = append(vm.blockhashes, h)
	if len(vm.blockhashes) > blockhashQueueSize {
		vm.blockhashes = vm.blockhashes[len(vm.blockhashes)-blockhashQueueSize:]
	}

	return h
}

func (vm *SVM) isBlockhashValid(h solana.Hash) bool {
	for _, bh := range vm.blockhashes {
		if bh == h {
			return true
		}
	}

	return false
}

func (vm *SVM) Slot() uint64 {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	return vm.slot
}

// WarpToSlot jumps the clock forward, rotating the blockhash.
func (vm *SVM) WarpToSlot(slot uint64) error {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	if slot < vm.slot {
		return fmt.Errorf("cannot warp backwards: %d < %d", slot, vm.slot)
	}
	vm.slot = slot
	vm.advanceBlockhash()

	return nil
}

// TransactionCount returns the number of successfully processed transactions.
func (vm *SVM) TransactionCount() uint64 {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	return vm.txCount
}

// MinimumBalanceForRentExemption mirrors mainnet rent parameters.
func (vm *SVM) MinimumBalanceForRentExemption(dataLen uint64) uint64 {
	return (accountStorageOverhead + dataLen) * lamportsPerByteYear * rentExemptionYears
}

// GetTransaction looks up metadata of a previously processed transaction.
func (vm *SVM) GetTransaction(sig solana.Signature) (*TransactionMetadata, error) {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	meta, ok := vm.history[sig]
	if !ok {
		return nil, errors.Wrap(ErrTransactionNotFound, sig.String())
	}

	return meta, nil
}

// SendTransaction verifies and executes the transaction. On instruction
// failure all account mutations are rolled back, the fee is still charged
// and the returned error is a *TransactionError carrying the logs.
func (vm *SVM) SendTransaction(tx *solana.Transaction) (*TransactionMetadata, error) {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	msg := &tx.Message
	numRequired := int(msg.Header.NumRequiredSignatures)
	if numRequired == 0 || len(tx.Signatures) != numRequired {
		return nil, errors.Wrapf(ErrInvalidTransaction, "expected %d signatures, got %d", numRequired, len(tx.Signatures))
	}
	if len(msg.AccountKeys) < numRequired {
		return nil, errors.Wrap(ErrInvalidTransaction, "message key count below required signatures")
	}

	msgData, err := msg.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("MarshalBinary: %s", err)
	}
	for i := 0; i < numRequired; i++ {
		key := msg.AccountKeys[i]
		if !ed25519.Verify(ed25519.PublicKey(key[:]), msgData, tx.Signatures[i][:]) {
			return nil, errors.Wrap(ErrMissingSignature, key.String())
		}
	}

	if !vm.isBlockhashValid(msg.RecentBlockhash) {
		return nil, errors.Wrap(ErrBlockhashNotFound, msg.RecentBlockhash.String())
	}

	sig := tx.Signatures[0]
	if _, ok := vm.history[sig]; ok {
		return nil, errors.Wrap(ErrDuplicateSignature, sig.String())
	}

	// Work on copies, commit only on success.
	working := make(map[solana.PublicKey]*Account, len(msg.AccountKeys))
	for _, key := range msg.AccountKeys {
		acc, ok := vm.accounts[key]
		if !ok {
			acc = newSystemAccount(0)
		}
		acc = acc.clone()
		working[key] = &acc
	}

	fee := vm.feePerSignature * uint64(numRequired)
	feePayer := msg.AccountKeys[0]
	if vm.accounts[feePayer].Lamports < fee {
		return nil, errors.Wrapf(ErrInsufficientFunds, "fee payer %s cannot cover %d lamports", feePayer, fee)
	}
	working[feePayer].Lamports -= fee

	meter := newComputeMeter(vm.computeBudget)
	var logs []string
	var returnData []byte

	for i, compiled := range msg.Instructions {
		if int(compiled.ProgramIDIndex) >= len(msg.AccountKeys) {
			return nil, errors.Wrapf(ErrInvalidTransaction, "instruction %d: program index out of range", i)
		}
		programID := msg.AccountKeys[compiled.ProgramIDIndex]

		program, ok := vm.programs[programID]
		if !ok {
			vm.chargeFee(feePayer, fee)
			return nil, &TransactionError{
				Err:  errors.Wrapf(ErrProgramNotFound, "instruction %d: %s", i, programID),
				Meta: vm.finalizeMeta(sig, logs, meter, returnData),
			}
		}

		borrowed := make([]*BorrowedAccount, 0, len(compiled.Accounts))
		for _, accIdx := range compiled.Accounts {
			if int(accIdx) >= len(msg.AccountKeys) {
				return nil, errors.Wrapf(ErrInvalidTransaction, "instruction %d: account index out of range", i)
			}
			key := msg.AccountKeys[accIdx]
			borrowed = append(borrowed, &BorrowedAccount{
				Key:        key,
				IsSigner:   int(accIdx) < numRequired,
				IsWritable: msg.IsWritable(key),
				acc:        working[key],
			})
		}

		logs = append(logs, fmt.Sprintf("Program %s invoke [1]", programID))
		before := meter.consumed()

		ic := &InvokeContext{
			vm:        vm,
			programID: programID,
			data:      []byte(compiled.Data),
			accounts:  borrowed,
			logs:      &logs,
			meter:     meter,
		}

		err = program.Execute(ic)
		logs = append(logs, fmt.Sprintf("Program %s consumed %d of %d compute units",
			programID, meter.consumed()-before, vm.computeBudget))
		if err != nil {
			logs = append(logs, fmt.Sprintf("Program %s failed: %s", programID, err))
			vm.chargeFee(feePayer, fee)
			return nil, &TransactionError{
				Err:  errors.Wrapf(err, "instruction %d", i),
				Meta: vm.finalizeMeta(sig, logs, meter, returnData),
			}
		}
		logs = append(logs, fmt.Sprintf("Program %s success", programID))
		if ic.returnData != nil {
			returnData = ic.returnData
		}
	}

	for key, acc := range working {
		vm.accounts[key] = *acc
	}
	vm.txCount++

	meta := vm.finalizeMeta(sig, logs, meter, returnData)
	vm.history[sig] = meta
	vm.advanceBlockhash()

	log.Logger.Svm.Debugf("processed transaction %s: %d instructions, %d compute units",
		sig, len(msg.Instructions), meta.ComputeUnitsConsumed)

	return meta, nil
}

// chargeFee debits the fee payer on failed transactions where the
// working copies are discarded.
func (vm *SVM) chargeFee(feePayer solana.PublicKey, fee uint64) {
	acc := vm.accounts[feePayer]
	if acc.Lamports < fee {
		acc.Lamports = 0
	} else {
		acc.Lamports -= fee
	}
	vm.accounts[feePayer] = acc
}

func (vm *SVM) finalizeMeta(sig solana.Signature, logs []string, meter *computeMeter, returnData []byte) *TransactionMetadata {
	return &TransactionMetadata{
		Signature:            sig,
		Slot:                 vm.slot,
		Logs:                 logs,
		ComputeUnitsConsumed: meter.consumed(),
		ReturnData:           returnData,
	}
}
