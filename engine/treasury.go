package engine

import (
	"sync"

	"github.com/shopspring/decimal"

	"github.com/cloudx-io/blindauction/core"
)

// Treasury moves escrowed value out of the engine's custody to a
// principal. It is an external collaborator: the engine assumes each
// Transfer either completes or fails atomically, and always finishes its
// own bookkeeping before calling it. A failed transfer causes the engine
// to roll the bookkeeping for that call back.
type Treasury interface {
	Transfer(to core.Principal, amount decimal.Decimal) error
}

// RecordingTreasury is an in-memory Treasury that tallies transfers per
// principal. Used by tests and by deployments that reconcile value
// movement out of band.
type RecordingTreasury struct {
	mu        sync.Mutex
	transfers map[core.Principal]decimal.Decimal

	// FailNext makes the next Transfer fail with the given error, then
	// resets. Supports testing the rollback path.
	FailNext error
}

func NewRecordingTreasury() *RecordingTreasury {
	return &RecordingTreasury{
		transfers: make(map[core.Principal]decimal.Decimal),
	}
}

func (t *RecordingTreasury) Transfer(to core.Principal, amount decimal.Decimal) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.FailNext != nil {
		err := t.FailNext
		t.FailNext = nil
		return err
	}
	t.transfers[to] = t.transfers[to].Add(amount)
	return nil
}

// Transferred returns the total value transferred to p so far.
func (t *RecordingTreasury) Transferred(p core.Principal) decimal.Decimal {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.transfers[p]
}

// TotalTransferred returns the total value transferred to all principals.
func (t *RecordingTreasury) TotalTransferred() decimal.Decimal {
	t.mu.Lock()
	defer t.mu.Unlock()
	total := decimal.Zero
	for _, amount := range t.transfers {
		total = total.Add(amount)
	}
	return total
}
