package anchor_test

import (
	"crypto/sha256"
	"testing"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"anchorsvm/anchor"
)

type makeArgs struct {
	Seed    uint64
	Receive uint64
	Amount  uint64
}

func TestDiscriminator(t *testing.T) {
	hash := sha256.Sum256([]byte("global:make"))
	var want [8]byte
	copy(want[:], hash[:8])

	assert.Equal(t, want, anchor.Discriminator("make"))
	// deterministic across calls
	assert.Equal(t, anchor.Discriminator("make"), anchor.Discriminator("make"))
	assert.NotEqual(t, anchor.Discriminator("make"), anchor.Discriminator("take"))
}

func TestAccountDiscriminator(t *testing.T) {
	hash := sha256.Sum256([]byte("account:Escrow"))
	var want [8]byte
	copy(want[:], hash[:8])

	assert.Equal(t, want, anchor.AccountDiscriminator("Escrow"))
}

func TestBuildInstructionLayout(t *testing.T) {
	programID := solana.NewWallet().PublicKey()
	signer := solana.NewWallet().PublicKey()
	readonly := solana.NewWallet().PublicKey()

	accounts := solana.AccountMetaSlice{
		solana.Meta(signer).WRITE().SIGNER(),
		solana.Meta(readonly),
	}
	args := makeArgs{Seed: 42, Receive: 500_000_000, Amount: 1_000_000_000}

	ix, err := anchor.BuildInstruction(programID, "make", accounts, args)
	require.NoError(t, err)
	assert.Equal(t, programID, ix.ProgramID())
	assert.Len(t, ix.Accounts(), 2)

	data, err := ix.Data()
	require.NoError(t, err)
	require.Len(t, data, 8+24)

	disc := anchor.Discriminator("make")
	assert.Equal(t, disc[:], data[:8])

	// the remainder is exactly the Borsh encoding of the args
	var decoded makeArgs
	require.NoError(t, bin.NewBorshDecoder(data[8:]).Decode(&decoded))
	assert.Equal(t, args, decoded)
}

func TestBuildInstructionNoArgs(t *testing.T) {
	programID := solana.NewWallet().PublicKey()

	ix, err := anchor.BuildInstruction(programID, "close", nil, nil)
	require.NoError(t, err)

	data, err := ix.Data()
	require.NoError(t, err)

	disc := anchor.Discriminator("close")
	assert.Equal(t, disc[:], data)
}

func TestBuildInstructionTupleArgs(t *testing.T) {
	programID := solana.NewWallet().PublicKey()

	ix, err := anchor.BuildInstruction(programID, "make", nil,
		anchor.TupleArgs(uint64(42), uint64(100), uint64(200)))
	require.NoError(t, err)

	data, err := ix.Data()
	require.NoError(t, err)
	require.Len(t, data, 8+24)

	dec := bin.NewBorshDecoder(data[8:])
	for _, want := range []uint64{42, 100, 200} {
		got, err := dec.ReadUint64(bin.LE)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestEncodeInstructionDataUnserializable(t *testing.T) {
	_, err := anchor.EncodeInstructionData("make", anchor.TupleArgs(make(chan int)))
	require.Error(t, err)
}
