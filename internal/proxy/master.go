package proxy

// master.go — the master diamond: child registry, coordinated fan-out, and
// stats aggregation.
//
// The fan-out is the single place in the system where failure is downgraded
// to data instead of propagated: a child that fails its call contributes
// {false, 0} to the result vector and the coordinated operation continues.
// That asymmetry is deliberate and preserved from the contracts.

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/alejandrodnm/macrostrike/internal/access"
	"github.com/alejandrodnm/macrostrike/internal/codec"
	"github.com/alejandrodnm/macrostrike/internal/domain"
	"github.com/alejandrodnm/macrostrike/internal/ports"
)

// ChildNode is the master's view of a registered child diamond.
type ChildNode interface {
	Kind() domain.ChildKind
	ExecuteOperation(ctx context.Context, caller common.Address, kind domain.OperationKind, payload []byte) (domain.OperationResult, error)
	StatsPayload(ctx context.Context) ([]byte, error)
	BotCount() int
}

type registeredChild struct {
	addr common.Address
	node ChildNode
}

// Master is the top-level coordinator proxy.
type Master struct {
	mu sync.Mutex

	addr     common.Address
	gate     *access.Gate
	children map[domain.ChildKind]registeredChild
	order    []domain.ChildKind

	audit ports.AuditSink
}

// NewMaster deploys a master with an empty child registry.
func NewMaster(addr, owner common.Address, audit ports.AuditSink) *Master {
	return &Master{
		addr:     addr,
		gate:     access.NewGate(owner),
		children: make(map[domain.ChildKind]registeredChild),
		audit:    audit,
	}
}

// Address returns the master's identity — the caller identity children see.
func (m *Master) Address() common.Address { return m.addr }

// Owner returns the current owner.
func (m *Master) Owner() common.Address { return m.gate.Owner() }

// TransferOwnership hands the master's owner gate to next.
func (m *Master) TransferOwnership(ctx context.Context, caller, next common.Address) error {
	prev, err := m.gate.Transfer(caller, next)
	if err != nil {
		return err
	}
	emit(ctx, m.audit, domain.AuditEvent{
		Op:      domain.EvOwnerTransferred,
		Actor:   caller,
		Success: true,
		Details: map[string]string{"previous": prev.Hex(), "next": next.Hex()},
	})
	return nil
}

// RegisterChild registers a child diamond for a kind, exactly once. The
// registry is monotonic: entries are never cleared or replaced.
func (m *Master) RegisterChild(ctx context.Context, caller common.Address, kind domain.ChildKind, addr common.Address, node ChildNode) error {
	if err := m.gate.Require(caller); err != nil {
		return err
	}
	if addr == (common.Address{}) || node == nil {
		return fmt.Errorf("proxy.RegisterChild(%s): %w", kind, domain.ErrInvalidAddress)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.children[kind]; exists {
		return fmt.Errorf("proxy.RegisterChild(%s): %w", kind, domain.ErrAlreadyRegistered)
	}
	m.children[kind] = registeredChild{addr: addr, node: node}
	m.order = append(m.order, kind)

	emit(ctx, m.audit, domain.AuditEvent{
		Op:      domain.EvChildRegistered,
		Actor:   caller,
		Family:  kind.String(),
		Success: true,
		Details: map[string]string{"child": addr.Hex()},
	})
	return nil
}

// RegisteredKinds returns the kinds registered so far, in registration order.
func (m *Master) RegisteredKinds() []domain.ChildKind {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.ChildKind, len(m.order))
	copy(out, m.order)
	return out
}

// ExecuteCoordinated fans one logical operation out to all three children,
// sequentially, capturing each child's result independently. A child whose
// call fails contributes {false, 0}; only a missing registration aborts the
// whole call.
func (m *Master) ExecuteCoordinated(ctx context.Context, kind domain.OperationKind, payload []byte) (domain.CoordinatedResult, error) {
	m.mu.Lock()
	for _, ck := range domain.AllChildKinds {
		if _, ok := m.children[ck]; !ok {
			m.mu.Unlock()
			return domain.CoordinatedResult{}, fmt.Errorf("proxy.ExecuteCoordinated: %s: %w", ck, domain.ErrChildNotRegistered)
		}
	}
	nodes := make(map[domain.ChildKind]ChildNode, len(m.children))
	for ck, rc := range m.children {
		nodes[ck] = rc.node
	}
	m.mu.Unlock()

	result := domain.CoordinatedResult{
		Kind:    kind,
		Results: make(map[domain.ChildKind]domain.OperationResult, len(domain.AllChildKinds)),
	}
	for _, ck := range domain.AllChildKinds {
		r, err := nodes[ck].ExecuteOperation(ctx, m.addr, kind, payload)
		if err != nil {
			slog.Debug("child operation failed, defaulting to zero",
				"child", ck.String(), "kind", kind.String(), "err", err)
			r = domain.ZeroResult()
		}
		if r.Profit == nil {
			r.Profit = new(big.Int)
		}
		result.Results[ck] = r
	}

	emit(ctx, m.audit, domain.AuditEvent{
		Op:      domain.EvCoordinated,
		Actor:   m.addr,
		Success: result.Succeeded() > 0,
		Profit:  result.TotalProfit(),
		Details: map[string]string{
			"kind":      kind.String(),
			"succeeded": fmt.Sprintf("%d/%d", result.Succeeded(), len(domain.AllChildKinds)),
		},
	})
	return result, nil
}

// AggregateStats independently reads each registered child's stats,
// tolerating a failed read as all-zero for that child, and composes the
// aggregate view. The combined rate is the unweighted mean of the three
// family percentages, exactly as the contract reported it.
func (m *Master) AggregateStats(ctx context.Context) domain.AggregateStats {
	m.mu.Lock()
	nodes := make(map[domain.ChildKind]ChildNode, len(m.children))
	for ck, rc := range m.children {
		nodes[ck] = rc.node
	}
	m.mu.Unlock()

	agg := domain.AggregateStats{
		Long:         domain.EmptyStrikeStats(),
		Short:        domain.EmptyStrikeStats(),
		AMM:          domain.EmptyAmmStats(),
		TotalCapital: new(big.Int),
	}

	if node, ok := nodes[domain.ChildLongStrike]; ok {
		if s, err := readStrikeStats(ctx, node); err == nil {
			agg.Long = s
		} else {
			slog.Debug("long stats read failed, zeroed", "err", err)
		}
	}
	if node, ok := nodes[domain.ChildShortStrike]; ok {
		if s, err := readStrikeStats(ctx, node); err == nil {
			agg.Short = s
		} else {
			slog.Debug("short stats read failed, zeroed", "err", err)
		}
	}
	if node, ok := nodes[domain.ChildAMM]; ok {
		if s, err := readAmmStats(ctx, node); err == nil {
			agg.AMM = s
			// The AMM stats tuple carries no bot count; only a child whose
			// read succeeded contributes its bots to the aggregate.
			agg.TotalBots += node.BotCount()
		} else {
			slog.Debug("amm stats read failed, zeroed", "err", err)
		}
	}

	agg.TotalCapital.Add(agg.TotalCapital, agg.Long.TotalCapital)
	agg.TotalCapital.Add(agg.TotalCapital, agg.Short.TotalCapital)
	agg.TotalCapital.Add(agg.TotalCapital, agg.AMM.TotalCapital)
	agg.TotalBots += int(agg.Long.NumBots) + int(agg.Short.NumBots)
	agg.CombinedRate = (agg.Long.WinRate + agg.Short.WinRate + agg.AMM.SuccessRate) / 3
	return agg
}

func readStrikeStats(ctx context.Context, node ChildNode) (domain.StrikeStats, error) {
	out, err := node.StatsPayload(ctx)
	if err != nil {
		return domain.StrikeStats{}, err
	}
	return codec.UnpackStrikeStats(out)
}

func readAmmStats(ctx context.Context, node ChildNode) (domain.AmmStats, error) {
	out, err := node.StatsPayload(ctx)
	if err != nil {
		return domain.AmmStats{}, err
	}
	return codec.UnpackAmmStats(out)
}
