package svm

import "github.com/gagliardetto/solana-go"

// StateSnapshot is a point-in-time copy of the ledger. Program
// registrations are not part of the snapshot.
type StateSnapshot struct {
	accounts    map[solana.PublicKey]Account
	blockhashes []solana.Hash
	slot        uint64
	txCount     uint64
}

// Snapshot captures the current ledger state for a later Restore.
func (vm *SVM) Snapshot() *StateSnapshot {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	snap := &StateSnapshot{
		accounts:    make(map[solana.PublicKey]Account, len(vm.accounts)),
		blockhashes: make([]solana.Hash, len(vm.blockhashes)),
		slot:        vm.slot,
		txCount:     vm.txCount,
	}
	for key, acc := range vm.accounts {
		snap.accounts[key] = acc.clone()
	}
	copy(snap.blockhashes, vm.blockhashes)

	return snap
}

// Restore rewinds accounts, slot and blockhash queue to the snapshot.
// Transaction history stays intact so already-used signatures keep
// being rejected.
func (vm *SVM) Restore(snap *StateSnapshot) {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	vm.accounts = make(map[solana.PublicKey]Account, len(snap.accounts))
	for key, acc := range snap.accounts {
		vm.accounts[key] = acc.clone()
	}
	vm.blockhashes = make([]solana.Hash, len(snap.blockhashes))
	copy(vm.blockhashes, snap.blockhashes)
	vm.slot = snap.slot
	vm.txCount = snap.txCount
}
