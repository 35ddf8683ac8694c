package svm

import (
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// System program instruction indices, bincode u32 little-endian on the wire.
const (
	sysCreateAccount uint32 = 0
	sysAssign        uint32 = 1
	sysTransfer      uint32 = 2
	sysAllocate      uint32 = 8
)

const systemProgramComputeUnits = 150

// maxPermittedDataLength mirrors the runtime limit of 10 MiB per account.
const maxPermittedDataLength = 10 * 1024 * 1024

// systemProgram interprets instructions targeting the native system program.
type systemProgram struct{}

func (systemProgram) Execute(ic *InvokeContext) error {
	if err := ic.Consume(systemProgramComputeUnits); err != nil {
		return err
	}

	dec := bin.NewBinDecoder(ic.Data())
	index, err := dec.ReadUint32(bin.LE)
	if err != nil {
		return fmt.Errorf("read instruction index: %s", err)
	}

	switch index {
	case sysCreateAccount:
		return createAccount(ic, dec)
	case sysAssign:
		return assign(ic, dec)
	case sysTransfer:
		return transfer(ic, dec)
	case sysAllocate:
		return allocate(ic, dec)
	default:
		return fmt.Errorf("unsupported system instruction: %d", index)
	}
}

func createAccount(ic *InvokeContext, dec *bin.Decoder) error {
	lamports, err := dec.ReadUint64(bin.LE)
	if err != nil {
		return fmt.Errorf("read lamports: %s", err)
	}
	space, err := dec.ReadUint64(bin.LE)
	if err != nil {
		return fmt.Errorf("read space: %s", err)
	}
	ownerBytes, err := dec.ReadNBytes(32)
	if err != nil {
		return fmt.Errorf("read owner: %s", err)
	}
	owner := solana.PublicKeyFromBytes(ownerBytes)

	funding, err := ic.Account(0)
	if err != nil {
		return err
	}
	created, err := ic.Account(1)
	if err != nil {
		return err
	}

	if !funding.IsSigner || !created.IsSigner {
		return ErrMissingSignature
	}
	if created.Lamports() != 0 || len(created.Data()) != 0 || !created.Owner().Equals(solana.SystemProgramID) {
		return ErrAccountInUse
	}
	if space > maxPermittedDataLength {
		return fmt.Errorf("requested space %d exceeds maximum %d", space, maxPermittedDataLength)
	}
	if funding.Lamports() < lamports {
		return ErrInsufficientFunds
	}

	if err = funding.SetLamports(funding.Lamports() - lamports); err != nil {
		return err
	}
	if err = created.SetLamports(lamports); err != nil {
		return err
	}
	if err = created.SetData(make([]byte, space)); err != nil {
		return err
	}

	return created.SetOwner(owner)
}

func transfer(ic *InvokeContext, dec *bin.Decoder) error {
	lamports, err := dec.ReadUint64(bin.LE)
	if err != nil {
		return fmt.Errorf("read lamports: %s", err)
	}

	from, err := ic.Account(0)
	if err != nil {
		return err
	}
	to, err := ic.Account(1)
	if err != nil {
		return err
	}

	if !from.IsSigner {
		return ErrMissingSignature
	}
	// Only pristine system accounts may move lamports out via transfer.
	if len(from.Data()) != 0 || !from.Owner().Equals(solana.SystemProgramID) {
		return fmt.Errorf("transfer source holds data or is not system-owned")
	}
	if from.Lamports() < lamports {
		return ErrInsufficientFunds
	}

	if err = from.SetLamports(from.Lamports() - lamports); err != nil {
		return err
	}

	return to.SetLamports(to.Lamports() + lamports)
}

func assign(ic *InvokeContext, dec *bin.Decoder) error {
	ownerBytes, err := dec.ReadNBytes(32)
	if err != nil {
		return fmt.Errorf("read owner: %s", err)
	}

	target, err := ic.Account(0)
	if err != nil {
		return err
	}
	if !target.IsSigner {
		return ErrMissingSignature
	}

	return target.SetOwner(solana.PublicKeyFromBytes(ownerBytes))
}

func allocate(ic *InvokeContext, dec *bin.Decoder) error {
	space, err := dec.ReadUint64(bin.LE)
	if err != nil {
		return fmt.Errorf("read space: %s", err)
	}

	target, err := ic.Account(0)
	if err != nil {
		return err
	}
	if !target.IsSigner {
		return ErrMissingSignature
	}
	if len(target.Data()) != 0 || !target.Owner().Equals(solana.SystemProgramID) {
		return ErrAccountInUse
	}
	if space > maxPermittedDataLength {
		return fmt.Errorf("requested space %d exceeds maximum %d", space, maxPermittedDataLength)
	}

	return target.SetData(make([]byte, space))
}
