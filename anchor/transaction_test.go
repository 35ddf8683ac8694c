package anchor_test

import (
	"bytes"
	"fmt"
	"testing"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"anchorsvm/anchor"
	"anchorsvm/svm"
)

type counterState struct {
	Count uint64
}

type setArgs struct {
	Value uint64
}

// counterProgram is a native stand-in for an Anchor counter: it
// dispatches on the method discriminator and keeps Borsh state behind
// an account discriminator header, the same layout Anchor programs use.
func counterProgram(ic *svm.InvokeContext) error {
	if err := ic.Consume(200); err != nil {
		return err
	}

	data := ic.Data()
	if len(data) < anchor.DiscriminatorLen {
		return fmt.Errorf("instruction data too short: %d bytes", len(data))
	}

	acc, err := ic.Account(0)
	if err != nil {
		return err
	}

	header := anchor.AccountDiscriminator("Counter")

	readState := func() (counterState, error) {
		var st counterState
		raw := acc.Data()
		if len(raw) < anchor.DiscriminatorLen || !bytes.Equal(raw[:anchor.DiscriminatorLen], header[:]) {
			return st, anchor.ErrAccountDecode
		}
		err := bin.NewBorshDecoder(raw[anchor.DiscriminatorLen:]).Decode(&st)

		return st, err
	}
	writeState := func(st counterState) error {
		buf := bytes.NewBuffer(header[:])
		if err := bin.NewBorshEncoder(buf).Encode(st); err != nil {
			return err
		}

		return acc.SetData(buf.Bytes())
	}

	var disc [anchor.DiscriminatorLen]byte
	copy(disc[:], data)

	switch disc {
	case anchor.Discriminator("initialize"):
		ic.Log("counter initialized")
		return writeState(counterState{})

	case anchor.Discriminator("increment"):
		st, err := readState()
		if err != nil {
			return err
		}
		st.Count++
		ic.Log("count is %d", st.Count)

		return writeState(st)

	case anchor.Discriminator("set"):
		var args setArgs
		if err := bin.NewBorshDecoder(data[anchor.DiscriminatorLen:]).Decode(&args); err != nil {
			return err
		}
		ic.Log("count set to %d", args.Value)

		return writeState(counterState{Count: args.Value})

	default:
		return fmt.Errorf("unknown method discriminator %x", disc)
	}
}

func setupCounter(t *testing.T) (*anchor.Context, solana.PrivateKey, *solana.Wallet) {
	t.Helper()

	vm := svm.New()
	programID := solana.NewWallet().PublicKey()
	vm.AddProgram(programID, svm.ProgramFunc(counterProgram))
	ctx := anchor.NewContext(vm, programID)

	payer, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	vm.Airdrop(payer.PublicKey(), 10*solana.LAMPORTS_PER_SOL)

	counter := solana.NewWallet()
	space := uint64(anchor.DiscriminatorLen + 8)
	createIx := system.NewCreateAccountInstruction(
		vm.MinimumBalanceForRentExemption(space),
		space,
		programID,
		payer.PublicKey(),
		counter.PublicKey(),
	).Build()

	initIx, err := ctx.Instruction("initialize").
		AccountMut("counter", counter.PublicKey()).
		Args(nil).
		Build()
	require.NoError(t, err)

	res, err := ctx.SendInstructions(
		[]solana.Instruction{createIx, initIx},
		[]solana.PrivateKey{payer, counter.PrivateKey},
	)
	require.NoError(t, err)
	assert.True(t, res.HasLog("counter initialized"))

	return ctx, payer, counter
}

func TestCounterIncrement(t *testing.T) {
	ctx, payer, counter := setupCounter(t)

	res, err := ctx.Instruction("increment").
		Signer("payer", payer).
		AccountMut("counter", counter.PublicKey()).
		Args(nil).
		Execute()
	require.NoError(t, err)
	assert.True(t, res.HasLog("count is 1"))
	assert.Greater(t, res.ComputeUnits(), uint64(0))
	assert.NotEmpty(t, res.Signature())

	var st counterState
	require.NoError(t, ctx.GetAnchorAccount(counter.PublicKey(), &st))
	assert.Equal(t, uint64(1), st.Count)
}

func TestCounterSetWithArgs(t *testing.T) {
	ctx, payer, counter := setupCounter(t)

	res, err := ctx.Execute(
		"set",
		solana.AccountMetaSlice{solana.Meta(counter.PublicKey()).WRITE()},
		setArgs{Value: 42},
		[]solana.PrivateKey{payer},
	)
	require.NoError(t, err)
	assert.True(t, res.HasLog("count set to 42"))

	var st counterState
	require.NoError(t, ctx.GetAnchorAccount(counter.PublicKey(), &st))
	assert.Equal(t, uint64(42), st.Count)
}

func TestCounterFailedInstructionRollsBack(t *testing.T) {
	ctx, payer, counter := setupCounter(t)

	_, err := ctx.Instruction("unknown_method").
		Signer("payer", payer).
		AccountMut("counter", counter.PublicKey()).
		Args(nil).
		Execute()
	require.Error(t, err)

	var txErr *svm.TransactionError
	require.ErrorAs(t, err, &txErr)
	assert.NotEmpty(t, txErr.Meta.Logs)

	var st counterState
	require.NoError(t, ctx.GetAnchorAccount(counter.PublicKey(), &st))
	assert.Equal(t, uint64(0), st.Count)
}

func TestSendInstructionsMultiple(t *testing.T) {
	ctx, payer, counter := setupCounter(t)

	var ixs []solana.Instruction
	for i := 0; i < 3; i++ {
		ix, err := ctx.Instruction("increment").
			AccountMut("counter", counter.PublicKey()).
			Args(nil).
			Build()
		require.NoError(t, err)
		ixs = append(ixs, ix)
	}

	res, err := ctx.SendInstructions(ixs, []solana.PrivateKey{payer})
	require.NoError(t, err)
	assert.True(t, res.HasLog("count is 3"))
	assert.Len(t, res.FindLogs("count is"), 3)

	var st counterState
	require.NoError(t, ctx.GetAnchorAccount(counter.PublicKey(), &st))
	assert.Equal(t, uint64(3), st.Count)
}

func TestSendInstructionsNoSigners(t *testing.T) {
	ctx := newTestContext(t)

	ix, err := ctx.Instruction("noop").Args(nil).Build()
	require.NoError(t, err)

	_, err = ctx.SendInstruction(ix, nil)
	require.Error(t, err)
}

func TestFindProgramAddress(t *testing.T) {
	ctx := newTestContext(t)
	owner := solana.NewWallet().PublicKey()

	addr, bump, err := ctx.FindProgramAddress([]byte("counter"), owner.Bytes())
	require.NoError(t, err)

	want, wantBump, err := solana.FindProgramAddress(
		[][]byte{[]byte("counter"), owner.Bytes()},
		ctx.ProgramID,
	)
	require.NoError(t, err)
	assert.Equal(t, want, addr)
	assert.Equal(t, wantBump, bump)

	assert.NotPanics(t, func() {
		assert.Equal(t, addr, ctx.MustFindProgramAddress([]byte("counter"), owner.Bytes()))
	})
}
