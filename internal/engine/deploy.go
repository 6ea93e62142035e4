package engine

// deploy.go — wires the whole diamond graph in memory.
//
// Mirrors the on-chain deployment sequence: deploy children, cut the
// strategy facets into each child with a one-shot ledger initializer,
// bind the master operation surface, register pools on the AMM child,
// then register all three children on the master.

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/alejandrodnm/macrostrike/internal/dispatch"
	"github.com/alejandrodnm/macrostrike/internal/domain"
	"github.com/alejandrodnm/macrostrike/internal/facet"
	"github.com/alejandrodnm/macrostrike/internal/ports"
	"github.com/alejandrodnm/macrostrike/internal/predict"
	"github.com/alejandrodnm/macrostrike/internal/proxy"
)

// FamilyConfig sizes one strategy family's ledger.
type FamilyConfig struct {
	InitialCapital *big.Int
	Bots           int
}

// DeployConfig parameterizes the graph deployment.
type DeployConfig struct {
	Long  FamilyConfig
	Short FamilyConfig
	AMM   FamilyConfig

	MinConfidence uint8 // 0 → contract default (93)
	Pools         []common.Address
}

// Graph is the deployed diamond graph.
type Graph struct {
	Owner    common.Address
	Master   *proxy.Master
	Children map[domain.ChildKind]*proxy.Child
}

// addrOf derives a deterministic pseudo-address for a deployment label.
func addrOf(label string) common.Address {
	return common.BytesToAddress(crypto.Keccak256([]byte("macrostrike." + label))[12:])
}

// Deploy builds and wires the full graph. Every step goes through the same
// gated surfaces external administration would use, so a deployment
// exercises the cut/registry machinery rather than bypassing it.
func Deploy(ctx context.Context, cfg DeployConfig, audit ports.AuditSink) (*Graph, error) {
	owner := addrOf("owner")
	masterAddr := addrOf("master")

	master := proxy.NewMaster(masterAddr, owner, audit)
	children := make(map[domain.ChildKind]*proxy.Child, len(domain.AllChildKinds))

	families := []struct {
		kind domain.ChildKind
		fam  FamilyConfig
	}{
		{domain.ChildLongStrike, cfg.Long},
		{domain.ChildShortStrike, cfg.Short},
		{domain.ChildAMM, cfg.AMM},
	}

	for _, f := range families {
		childAddr := addrOf("child." + f.kind.String())
		child := proxy.NewChild(f.kind, childAddr, owner, masterAddr, audit)

		facetAddr := addrOf("facet." + f.kind.String())
		fam := f.fam

		var strategy *facet.Strategy
		switch f.kind {
		case domain.ChildLongStrike:
			strategy = strikeStrategy(domain.DirectionLong, cfg.MinConfidence, childAddr)
		case domain.ChildShortStrike:
			strategy = strikeStrategy(domain.DirectionShort, cfg.MinConfidence, childAddr)
		default:
			strategy = ammStrategy(cfg.MinConfidence, childAddr)
		}

		init := func(st *dispatch.Storage) error {
			return strategy.Initialize(st, fam.InitialCapital, fam.Bots)
		}
		if err := child.Cut(ctx, owner, strategy.Cuts(facetAddr), init); err != nil {
			return nil, fmt.Errorf("engine.Deploy: cut %s: %w", f.kind, err)
		}

		opKind := domain.OpStrike
		if f.kind == domain.ChildAMM {
			opKind = domain.OpArbitrage
		}
		if err := child.BindOperation(owner, opKind, strategy.ExecSelector()); err != nil {
			return nil, fmt.Errorf("engine.Deploy: bind %s: %w", f.kind, err)
		}
		if err := child.BindOperation(owner, domain.OpRebalance, facet.SelRebalance); err != nil {
			return nil, fmt.Errorf("engine.Deploy: bind rebalance %s: %w", f.kind, err)
		}
		if err := child.BindStats(owner, strategy.StatsSelector()); err != nil {
			return nil, fmt.Errorf("engine.Deploy: bind stats %s: %w", f.kind, err)
		}

		if f.kind == domain.ChildAMM {
			for _, pool := range cfg.Pools {
				if err := child.RegisterPool(ctx, owner, pool); err != nil {
					return nil, fmt.Errorf("engine.Deploy: register pool %s: %w", pool, err)
				}
			}
		}

		if err := master.RegisterChild(ctx, owner, f.kind, childAddr, child); err != nil {
			return nil, fmt.Errorf("engine.Deploy: register child %s: %w", f.kind, err)
		}
		children[f.kind] = child

		slog.Info("child deployed",
			"kind", f.kind.String(),
			"address", childAddr.Hex(),
			"bots", fam.Bots,
			"capital_wei", fam.InitialCapital,
		)
	}

	return &Graph{Owner: owner, Master: master, Children: children}, nil
}

func strikeStrategy(dir domain.Direction, minConfidence uint8, caller common.Address) *facet.Strategy {
	cfg := facet.Config{
		Family:        familyName(dir),
		Direction:     dir,
		MaxBots:       25,
		MinConfidence: minConfidence,
	}
	return facet.New(cfg, predict.NewEnvEntropy(caller))
}

func ammStrategy(minConfidence uint8, caller common.Address) *facet.Strategy {
	cfg := facet.Config{
		Family:        domain.ChildAMM.String(),
		MaxBots:       50,
		MinConfidence: minConfidence,
		Arbitrage:     true,
	}
	return facet.New(cfg, predict.NewEnvEntropy(caller))
}

func familyName(dir domain.Direction) string {
	if dir == domain.DirectionShort {
		return domain.ChildShortStrike.String()
	}
	return domain.ChildLongStrike.String()
}
