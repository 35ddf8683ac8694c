package anchor

import (
	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/pkg/errors"

	"anchorsvm/svm"
)

var (
	// ErrAccountNotFound aliases the harness sentinel so callers can
	// match on either package.
	ErrAccountNotFound = svm.ErrAccountNotFound

	ErrAccountTooSmall = errors.New("account data shorter than discriminator")
	ErrAccountDecode   = errors.New("account data does not match requested type")
)

// GetAnchorAccount fetches the account at address and Borsh-decodes its
// data into out, skipping the 8-byte discriminator header. The out value
// must be a pointer. Lookup and decode failures stay distinguishable:
// a missing account wraps ErrAccountNotFound, malformed or mismatched
// bytes wrap ErrAccountDecode and out is never left as a silently
// zeroed value on success paths.
func (c *Context) GetAnchorAccount(address solana.PublicKey, out interface{}) error {
	acc, err := c.SVM.GetAccount(address)
	if err != nil {
		return err
	}
	if len(acc.Data) < DiscriminatorLen {
		return errors.Wrapf(ErrAccountTooSmall, "%s holds %d bytes", address, len(acc.Data))
	}

	return decodeAccountData(acc.Data[DiscriminatorLen:], out)
}

// GetAnchorAccountUnchecked decodes without validating that a header is
// present: whatever fits past the prefix is handed to the decoder.
// Useful for accounts written by non-Anchor programs.
func (c *Context) GetAnchorAccountUnchecked(address solana.PublicKey, out interface{}) error {
	acc, err := c.SVM.GetAccount(address)
	if err != nil {
		return err
	}

	data := acc.Data
	if len(data) > DiscriminatorLen {
		data = data[DiscriminatorLen:]
	} else {
		data = nil
	}

	return decodeAccountData(data, out)
}

func decodeAccountData(data []byte, out interface{}) error {
	if err := bin.NewBorshDecoder(data).Decode(out); err != nil {
		return errors.Wrap(ErrAccountDecode, err.Error())
	}

	return nil
}
