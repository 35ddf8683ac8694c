package svm

import "github.com/pkg/errors"

var ErrComputeBudgetExceeded = errors.New("compute budget exceeded")

// computeMeter tracks compute unit consumption for a single transaction.
type computeMeter struct {
	budget    uint64
	remaining uint64
}

func newComputeMeter(budget uint64) *computeMeter {
	return &computeMeter{budget: budget, remaining: budget}
}

func (m *computeMeter) consume(units uint64) error {
	if units > m.remaining {
		m.remaining = 0
		return ErrComputeBudgetExceeded
	}
	m.remaining -= units

	return nil
}

func (m *computeMeter) consumed() uint64 {
	return m.budget - m.remaining
}
