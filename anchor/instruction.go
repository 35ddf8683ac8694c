package anchor

import (
	"bytes"
	"crypto/sha256"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// DiscriminatorLen is the fixed prefix size Anchor puts in front of both
// instruction data and account data.
const DiscriminatorLen = 8

const (
	methodNamespace  = "global"
	accountNamespace = "account"
)

// Discriminator returns the 8-byte method discriminator,
// sha256("global:<name>")[..8].
func Discriminator(name string) (out [DiscriminatorLen]byte) {
	sum := sha256.Sum256([]byte(methodNamespace + ":" + name))
	copy(out[:], sum[:DiscriminatorLen])

	return out
}

// AccountDiscriminator returns the header Anchor writes at account
// creation, sha256("account:<name>")[..8].
func AccountDiscriminator(name string) (out [DiscriminatorLen]byte) {
	sum := sha256.Sum256([]byte(accountNamespace + ":" + name))
	copy(out[:], sum[:DiscriminatorLen])

	return out
}

// Tuple serializes positional instruction arguments without a dedicated
// struct: each element is Borsh-encoded in order.
type Tuple []interface{}

func TupleArgs(values ...interface{}) Tuple { return values }

// BuildInstruction assembles an Anchor instruction: 8-byte method
// discriminator followed by the Borsh encoding of args. A nil args
// produces discriminator-only data.
func BuildInstruction(programID solana.PublicKey, name string, accounts solana.AccountMetaSlice, args interface{}) (solana.Instruction, error) {
	data, err := EncodeInstructionData(name, args)
	if err != nil {
		return nil, err
	}

	return solana.NewInstruction(programID, accounts, data), nil
}

// EncodeInstructionData builds the raw instruction payload.
func EncodeInstructionData(name string, args interface{}) ([]byte, error) {
	disc := Discriminator(name)
	buf := bytes.NewBuffer(disc[:])

	if args == nil {
		return buf.Bytes(), nil
	}

	enc := bin.NewBorshEncoder(buf)
	if tuple, ok := args.(Tuple); ok {
		for i, v := range tuple {
			if err := enc.Encode(v); err != nil {
				return nil, fmt.Errorf("serialize tuple element %d: %s", i, err)
			}
		}
		return buf.Bytes(), nil
	}

	if err := enc.Encode(args); err != nil {
		return nil, fmt.Errorf("serialize args: %s", err)
	}

	return buf.Bytes(), nil
}
