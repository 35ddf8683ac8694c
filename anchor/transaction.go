package anchor

import (
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/pkg/errors"

	"anchorsvm/svm"
)

// TransactionResult wraps the harness metadata with lookup helpers that
// keep test assertions short.
type TransactionResult struct {
	meta            *svm.TransactionMetadata
	instructionName string
}

func (r *TransactionResult) Signature() solana.Signature { return r.meta.Signature }

func (r *TransactionResult) Logs() []string { return r.meta.Logs }

// FindLogs returns all log lines containing pattern.
func (r *TransactionResult) FindLogs(pattern string) []string {
	var out []string
	for _, line := range r.meta.Logs {
		if strings.Contains(line, pattern) {
			out = append(out, line)
		}
	}

	return out
}

func (r *TransactionResult) HasLog(pattern string) bool {
	return len(r.FindLogs(pattern)) != 0
}

func (r *TransactionResult) ComputeUnits() uint64 { return r.meta.ComputeUnitsConsumed }

// Meta exposes the underlying harness metadata.
func (r *TransactionResult) Meta() *svm.TransactionMetadata { return r.meta }

func (r *TransactionResult) String() string {
	name := r.instructionName
	if name == "" {
		name = "transaction"
	}

	return fmt.Sprintf("%s: %d log lines, %d compute units", name, len(r.meta.Logs), r.meta.ComputeUnitsConsumed)
}

// SendInstruction submits a single instruction. The first signer pays
// the fee; the latest blockhash is taken from the harness.
func (c *Context) SendInstruction(ix solana.Instruction, signers []solana.PrivateKey) (*TransactionResult, error) {
	return c.SendInstructions([]solana.Instruction{ix}, signers)
}

// SendInstructions submits several instructions as one transaction.
func (c *Context) SendInstructions(ixs []solana.Instruction, signers []solana.PrivateKey) (*TransactionResult, error) {
	if len(signers) == 0 {
		return nil, errors.New("no signers provided")
	}

	tx, err := solana.NewTransaction(ixs, c.SVM.LatestBlockhash(), solana.TransactionPayer(signers[0].PublicKey()))
	if err != nil {
		return nil, fmt.Errorf("NewTransaction: %s", err)
	}

	_, err = tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		for i := range signers {
			if signers[i].PublicKey().Equals(key) {
				return &signers[i]
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("Sign: %s", err)
	}

	meta, err := c.SVM.SendTransaction(tx)
	if err != nil {
		return nil, err
	}

	return &TransactionResult{meta: meta}, nil
}

// Execute builds the named instruction and submits it in one call.
func (c *Context) Execute(name string, accounts solana.AccountMetaSlice, args interface{}, signers []solana.PrivateKey) (*TransactionResult, error) {
	ix, err := c.BuildInstruction(name, accounts, args)
	if err != nil {
		return nil, errors.Wrap(err, "build instruction")
	}

	res, err := c.SendInstruction(ix, signers)
	if err != nil {
		return nil, err
	}
	res.instructionName = name

	return res, nil
}
