package svm_test

import (
	"bytes"
	"testing"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"anchorsvm/svm"
)

func encodeTransfer(t *testing.T, lamports uint64) []byte {
	t.Helper()

	buf := new(bytes.Buffer)
	enc := bin.NewBinEncoder(buf)
	require.NoError(t, enc.WriteUint32(2, bin.LE))
	require.NoError(t, enc.WriteUint64(lamports, bin.LE))

	return buf.Bytes()
}

func TestTransferRequiresSignature(t *testing.T) {
	vm := svm.New()

	payer := fundedKey(t, vm, 1_000_000)
	alice := fundedKey(t, vm, 1_000_000)
	bob := solana.NewWallet().PublicKey()

	// alice is referenced writable but never signs
	ix := solana.NewInstruction(solana.SystemProgramID, solana.AccountMetaSlice{
		solana.Meta(alice.PublicKey()).WRITE(),
		solana.Meta(bob).WRITE(),
	}, encodeTransfer(t, 500))

	_, err := sendTx(t, vm, []solana.Instruction{ix}, payer)
	require.ErrorIs(t, err, svm.ErrMissingSignature)
	assert.Equal(t, uint64(1_000_000), vm.GetBalance(alice.PublicKey()))
}

func TestCreateAccountAlreadyInUse(t *testing.T) {
	vm := svm.New()

	payer := fundedKey(t, vm, 10_000_000_000)
	existing := fundedKey(t, vm, 1_000) // non-zero balance blocks creation

	ix := system.NewCreateAccountInstruction(
		vm.MinimumBalanceForRentExemption(10), 10,
		solana.NewWallet().PublicKey(),
		payer.PublicKey(), existing.PublicKey(),
	).Build()

	_, err := sendTx(t, vm, []solana.Instruction{ix}, payer, existing)
	require.ErrorIs(t, err, svm.ErrAccountInUse)
}

func TestCreateAccountInsufficientFunding(t *testing.T) {
	vm := svm.New()

	payer := fundedKey(t, vm, 100_000)
	created, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)

	ix := system.NewCreateAccountInstruction(
		50_000_000, 10,
		solana.NewWallet().PublicKey(),
		payer.PublicKey(), created.PublicKey(),
	).Build()

	_, err = sendTx(t, vm, []solana.Instruction{ix}, payer, created)
	require.ErrorIs(t, err, svm.ErrInsufficientFunds)
}

func TestAllocateAndAssign(t *testing.T) {
	vm := svm.New()

	payer := fundedKey(t, vm, 1_000_000)
	target := fundedKey(t, vm, 0)
	owner := solana.NewWallet().PublicKey()

	allocateIx := system.NewAllocateInstruction(64, target.PublicKey()).Build()
	assignIx := system.NewAssignInstruction(owner, target.PublicKey()).Build()

	_, err := sendTx(t, vm, []solana.Instruction{allocateIx, assignIx}, payer, target)
	require.NoError(t, err)

	acc, err := vm.GetAccount(target.PublicKey())
	require.NoError(t, err)
	assert.Len(t, acc.Data, 64)
	assert.Equal(t, owner, acc.Owner)
}

func TestUnsupportedSystemInstruction(t *testing.T) {
	vm := svm.New()

	payer := fundedKey(t, vm, 1_000_000)

	buf := new(bytes.Buffer)
	enc := bin.NewBinEncoder(buf)
	require.NoError(t, enc.WriteUint32(99, bin.LE))

	ix := solana.NewInstruction(solana.SystemProgramID, solana.AccountMetaSlice{
		solana.Meta(payer.PublicKey()).WRITE().SIGNER(),
	}, buf.Bytes())

	_, err := sendTx(t, vm, []solana.Instruction{ix}, payer)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported system instruction")
}
