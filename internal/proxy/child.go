package proxy

// child.go — one child diamond (LongStrike, ShortStrike, or AMM).
//
// A Child wraps a dispatcher over its own storage namespace. The generic
// selector surface stays open for direct facet calls; the cross-cutting
// executeOperation/getStats surface is gated to the single registered
// master caller. Administrative surfaces (cuts, pool registration,
// operation bindings, ownership transfer) sit behind the owner gate.

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/alejandrodnm/macrostrike/internal/access"
	"github.com/alejandrodnm/macrostrike/internal/codec"
	"github.com/alejandrodnm/macrostrike/internal/dispatch"
	"github.com/alejandrodnm/macrostrike/internal/domain"
	"github.com/alejandrodnm/macrostrike/internal/ledger"
	"github.com/alejandrodnm/macrostrike/internal/ports"
)

// Child is one child diamond instance.
type Child struct {
	mu sync.Mutex

	kind   domain.ChildKind
	addr   common.Address
	master common.Address
	gate   *access.Gate
	disp   *dispatch.Dispatcher

	// operation-kind → selector routing for the master surface
	ops      map[domain.OperationKind]domain.Selector
	statsSel domain.Selector

	audit ports.AuditSink
}

// NewChild deploys a child diamond with empty selector table and an
// uninitialized ledger namespace. The AMM kind also gets a pool registry.
func NewChild(kind domain.ChildKind, addr, owner, master common.Address, audit ports.AuditSink) *Child {
	st := &dispatch.Storage{Ledger: ledger.New(kind.String())}
	if kind == domain.ChildAMM {
		st.Pools = domain.NewPoolRegistry()
	}
	return &Child{
		kind:   kind,
		addr:   addr,
		master: master,
		gate:   access.NewGate(owner),
		disp:   dispatch.New(st),
		ops:    make(map[domain.OperationKind]domain.Selector),
		audit:  audit,
	}
}

// Kind returns the child's registered kind.
func (c *Child) Kind() domain.ChildKind { return c.kind }

// Address returns the child's identity.
func (c *Child) Address() common.Address { return c.addr }

// Owner returns the current owner.
func (c *Child) Owner() common.Address { return c.gate.Owner() }

// Table exposes the loupe surface of the child's selector table.
func (c *Child) Table() *dispatch.Table { return c.disp.Table() }

// Cut applies a facet cut batch, owner-gated, with optional initializer.
// A failed initializer rolls the whole batch back and surfaces its own error.
// A cut whose initializer brought the ledger to life additionally emits the
// initialization event with the capital split figures.
func (c *Child) Cut(ctx context.Context, caller common.Address, cuts []dispatch.FacetCut, init dispatch.Initializer) error {
	if err := c.gate.Require(caller); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	wasInitialized := c.disp.Storage().Ledger.IsInitialized()
	if err := c.disp.Cut(cuts, init); err != nil {
		return err
	}
	emit(ctx, c.audit, domain.AuditEvent{
		Op:     domain.EvDiamondCut,
		Actor:  caller,
		Family: c.kind.String(),
		Details: map[string]string{
			"cuts":      fmt.Sprintf("%d", len(cuts)),
			"selectors": fmt.Sprintf("%d", c.disp.Table().Len()),
		},
	})

	led := c.disp.Storage().Ledger
	if !wasInitialized && led.IsInitialized() {
		emit(ctx, c.audit, domain.AuditEvent{
			Op:      domain.EvInitialized,
			Actor:   caller,
			Family:  c.kind.String(),
			Success: true,
			Details: map[string]string{
				"initial_capital": led.InitialCapital().String(),
				"bots":            fmt.Sprintf("%d", led.NumBots()),
				"capital_per_bot": led.CapitalPerBot().String(),
			},
		})
	}
	return nil
}

// BindOperation routes an operation kind of the master surface to a
// selector of this child's table. Owner-gated; part of deployment wiring.
func (c *Child) BindOperation(caller common.Address, kind domain.OperationKind, sel domain.Selector) error {
	if err := c.gate.Require(caller); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ops[kind] = sel
	return nil
}

// BindStats routes the master getStats surface to a selector.
func (c *Child) BindStats(caller common.Address, sel domain.Selector) error {
	if err := c.gate.Require(caller); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.statsSel = sel
	return nil
}

// RegisterPool approves a liquidity pool for the AMM facet. Owner-gated.
func (c *Child) RegisterPool(ctx context.Context, caller, pool common.Address) error {
	if err := c.gate.Require(caller); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	st := c.disp.Storage()
	if st.Pools == nil {
		return fmt.Errorf("proxy.RegisterPool: %s has no pool registry: %w", c.kind, domain.ErrUnknownOperation)
	}
	if err := st.Pools.Register(pool); err != nil {
		return err
	}
	emit(ctx, c.audit, domain.AuditEvent{
		Op:      domain.EvPoolRegistered,
		Actor:   caller,
		Family:  c.kind.String(),
		Success: true,
		Details: map[string]string{"pool": pool.Hex()},
	})
	return nil
}

// TransferOwnership hands the child's owner gate to next.
func (c *Child) TransferOwnership(ctx context.Context, caller, next common.Address) error {
	prev, err := c.gate.Transfer(caller, next)
	if err != nil {
		return err
	}
	emit(ctx, c.audit, domain.AuditEvent{
		Op:      domain.EvOwnerTransferred,
		Actor:   caller,
		Family:  c.kind.String(),
		Success: true,
		Details: map[string]string{"previous": prev.Hex(), "next": next.Hex()},
	})
	return nil
}

// Dispatch is the open selector surface for direct facet calls.
func (c *Child) Dispatch(sel domain.Selector, calldata []byte) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disp.Dispatch(sel, calldata)
}

// ExecuteOperation is the master-only coordinated surface: resolves the
// facet for the operation kind through the child's own selector table,
// runs it, and decodes the (success, profit) result. Routing failures are
// distinct from a resolved facet failing; the latter bubbles verbatim.
func (c *Child) ExecuteOperation(ctx context.Context, caller common.Address, kind domain.OperationKind, payload []byte) (domain.OperationResult, error) {
	if caller != c.master {
		return domain.OperationResult{}, fmt.Errorf("proxy.ExecuteOperation(%s): %s: %w", c.kind, caller, domain.ErrNotMaster)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	sel, ok := c.ops[kind]
	if !ok {
		return domain.OperationResult{}, fmt.Errorf("proxy.ExecuteOperation(%s): %s: %w", c.kind, kind, domain.ErrUnknownOperation)
	}
	if _, mapped := c.disp.Table().Resolve(sel); !mapped {
		return domain.OperationResult{}, fmt.Errorf("proxy.ExecuteOperation(%s): %s → %s: %w", c.kind, kind, sel, domain.ErrFacetNotFound)
	}

	out, err := c.disp.Dispatch(sel, payload)
	if err != nil {
		return domain.OperationResult{}, err
	}
	result, err := codec.UnpackResult(out)
	if err != nil {
		return domain.OperationResult{}, err
	}

	op := domain.EvBatchExecuted
	if kind == domain.OpRebalance {
		op = domain.EvRebalanced
	}
	emit(ctx, c.audit, domain.AuditEvent{
		Op:      op,
		Actor:   caller,
		Family:  c.kind.String(),
		Success: result.Success,
		Profit:  result.Profit,
		WinRate: c.winRateLocked(),
		Details: map[string]string{"kind": kind.String()},
	})
	return result, nil
}

// StatsPayload reads the raw ABI stats snapshot through the selector table.
// Read-only; safe on an uninitialized ledger.
func (c *Child) StatsPayload(_ context.Context) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.statsSel.IsZero() {
		return nil, fmt.Errorf("proxy.StatsPayload(%s): %w", c.kind, domain.ErrFacetNotFound)
	}
	return c.disp.Dispatch(c.statsSel, nil)
}

// StrikeStats decodes the stats surface for strike children.
func (c *Child) StrikeStats(ctx context.Context) (domain.StrikeStats, error) {
	out, err := c.StatsPayload(ctx)
	if err != nil {
		return domain.StrikeStats{}, err
	}
	return codec.UnpackStrikeStats(out)
}

// AmmStats decodes the stats surface for the AMM child.
func (c *Child) AmmStats(ctx context.Context) (domain.AmmStats, error) {
	out, err := c.StatsPayload(ctx)
	if err != nil {
		return domain.AmmStats{}, err
	}
	return codec.UnpackAmmStats(out)
}

// BotCount returns the ledger's bot count (0 while uninitialized).
func (c *Child) BotCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disp.Storage().Ledger.NumBots()
}

// BotStatus is the per-bot read surface; side-effect free.
func (c *Child) BotStatus(i int) (domain.BotStatus, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disp.Storage().Ledger.BotStatus(i)
}

// Bots returns the status of every bot in the ledger.
func (c *Child) Bots() []domain.BotStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disp.Storage().Ledger.Bots()
}

// Storage exposes the child's storage to deployment wiring.
func (c *Child) Storage() *dispatch.Storage { return c.disp.Storage() }

func (c *Child) winRateLocked() uint64 {
	return c.disp.Storage().Ledger.StrikeStats().WinRate
}
