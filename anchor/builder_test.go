package anchor_test

import (
	"testing"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"anchorsvm/anchor"
)

func TestBuilderBasic(t *testing.T) {
	ctx := newTestContext(t)
	payer := solana.NewWallet()
	vault := solana.NewWallet().PublicKey()

	ix, err := ctx.Instruction("initialize").
		Signer("payer", payer.PrivateKey).
		AccountMut("vault", vault).
		SystemProgram().
		Args(makeArgs{Seed: 1, Receive: 2, Amount: 3}).
		Build()
	require.NoError(t, err)

	assert.Equal(t, ctx.ProgramID, ix.ProgramID())

	accounts := ix.Accounts()
	require.Len(t, accounts, 3)
	assert.Equal(t, payer.PublicKey(), accounts[0].PublicKey)
	assert.True(t, accounts[0].IsSigner)
	assert.True(t, accounts[0].IsWritable)
	assert.Equal(t, vault, accounts[1].PublicKey)
	assert.False(t, accounts[1].IsSigner)
	assert.True(t, accounts[1].IsWritable)
	assert.Equal(t, solana.SystemProgramID, accounts[2].PublicKey)
	assert.False(t, accounts[2].IsSigner)
	assert.False(t, accounts[2].IsWritable)

	data, err := ix.Data()
	require.NoError(t, err)
	disc := anchor.Discriminator("initialize")
	require.GreaterOrEqual(t, len(data), anchor.DiscriminatorLen)
	assert.Equal(t, disc[:], data[:anchor.DiscriminatorLen])
}

func TestBuilderTupleArgs(t *testing.T) {
	ctx := newTestContext(t)

	ix, err := ctx.Instruction("make").
		Account("maker", solana.NewWallet().PublicKey()).
		Args(anchor.TupleArgs(uint64(1), uint64(2), uint64(3))).
		Build()
	require.NoError(t, err)

	data, err := ix.Data()
	require.NoError(t, err)
	require.Len(t, data, anchor.DiscriminatorLen+24)

	dec := bin.NewBorshDecoder(data[anchor.DiscriminatorLen:])
	for _, want := range []uint64{1, 2, 3} {
		got, err := dec.ReadUint64(bin.LE)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestBuilderAccountOrderAndLookup(t *testing.T) {
	ctx := newTestContext(t)
	signer := solana.NewWallet()
	a := solana.NewWallet().PublicKey()
	b := solana.NewWallet().PublicKey()

	builder := ctx.Instruction("take").
		SignerReadonly("taker", signer.PrivateKey).
		AccountMut("escrow", a).
		Account("mint", b).
		TokenProgram().
		RentSysvar()

	metas := builder.Accounts()
	require.Len(t, metas, 5)
	assert.Equal(t, signer.PublicKey(), metas[0].PublicKey)
	assert.True(t, metas[0].IsSigner)
	assert.False(t, metas[0].IsWritable)
	assert.Equal(t, a, metas[1].PublicKey)
	assert.Equal(t, b, metas[2].PublicKey)
	assert.Equal(t, solana.TokenProgramID, metas[3].PublicKey)
	assert.Equal(t, solana.SysVarRentPubkey, metas[4].PublicKey)

	escrow := builder.AccountByName("escrow")
	require.NotNil(t, escrow)
	assert.Equal(t, a, escrow.PublicKey)
	assert.True(t, escrow.IsWritable)

	assert.Nil(t, builder.AccountByName("missing"))
}

func TestBuilderRequiresArgs(t *testing.T) {
	ctx := newTestContext(t)

	_, err := ctx.Instruction("initialize").
		Account("payer", solana.NewWallet().PublicKey()).
		Build()
	require.Error(t, err)

	// explicit nil is a valid bare-discriminator instruction
	ix, err := ctx.Instruction("initialize").
		Account("payer", solana.NewWallet().PublicKey()).
		Args(nil).
		Build()
	require.NoError(t, err)

	data, err := ix.Data()
	require.NoError(t, err)
	assert.Len(t, data, anchor.DiscriminatorLen)
}
