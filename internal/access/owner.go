package access

// Single-owner authorization gate. The on-chain version kept the owner in
// diamond storage and checked msg.sender inline; here it is an explicit
// component so business logic never reads identity state directly.

import (
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/alejandrodnm/macrostrike/internal/domain"
)

// Gate guards administrative entry points behind a single mutable owner.
type Gate struct {
	mu    sync.RWMutex
	owner common.Address
}

// NewGate creates a gate owned by addr.
func NewGate(addr common.Address) *Gate {
	return &Gate{owner: addr}
}

// Owner returns the current owner.
func (g *Gate) Owner() common.Address {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.owner
}

// Require fails with ErrNotOwner unless caller is the current owner.
func (g *Gate) Require(caller common.Address) error {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if caller != g.owner {
		return fmt.Errorf("access.Require: %s: %w", caller, domain.ErrNotOwner)
	}
	return nil
}

// Transfer hands ownership to next. Only the current owner may transfer,
// and the zero address is rejected so the gate can never be bricked.
// Returns the previous owner for the audit record.
func (g *Gate) Transfer(caller, next common.Address) (common.Address, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if caller != g.owner {
		return common.Address{}, fmt.Errorf("access.Transfer: %s: %w", caller, domain.ErrNotOwner)
	}
	if next == (common.Address{}) {
		return common.Address{}, fmt.Errorf("access.Transfer: %w", domain.ErrInvalidAddress)
	}
	prev := g.owner
	g.owner = next
	return prev, nil
}
