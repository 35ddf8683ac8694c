// Package anchor removes the boilerplate of testing Anchor programs
// against the in-process svm harness: it computes method discriminators,
// serializes instruction arguments with Borsh and decodes typed accounts
// past their discriminator header. Everything else goes straight to the
// embedded SVM instance.
package anchor

import (
	"github.com/gagliardetto/solana-go"

	"anchorsvm/svm"
)

// Context binds an SVM instance to one program under test. The SVM field
// is exported on purpose: every operation the wrapper does not mediate
// (airdrops, raw account access, blockhash queries) is called on it
// directly.
type Context struct {
	SVM       *svm.SVM
	ProgramID solana.PublicKey
}

func NewContext(vm *svm.SVM, programID solana.PublicKey) *Context {
	return &Context{
		SVM:       vm,
		ProgramID: programID,
	}
}

// BuildInstruction assembles an instruction for the context's program.
// See the package-level BuildInstruction for the data layout.
func (c *Context) BuildInstruction(name string, accounts solana.AccountMetaSlice, args interface{}) (solana.Instruction, error) {
	return BuildInstruction(c.ProgramID, name, accounts, args)
}

// Instruction starts a fluent builder for the named program method.
func (c *Context) Instruction(name string) *InstructionBuilder {
	return &InstructionBuilder{
		ctx:     c,
		name:    name,
		indices: make(map[string]int),
	}
}
