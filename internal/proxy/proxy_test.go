package proxy

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/macrostrike/internal/codec"
	"github.com/alejandrodnm/macrostrike/internal/dispatch"
	"github.com/alejandrodnm/macrostrike/internal/domain"
	"github.com/alejandrodnm/macrostrike/internal/facet"
	"github.com/alejandrodnm/macrostrike/internal/ports"
	"github.com/alejandrodnm/macrostrike/internal/predict"
)

var (
	owner      = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	stranger   = common.HexToAddress("0x00000000000000000000000000000000000000bb")
	masterAddr = common.HexToAddress("0x00000000000000000000000000000000000000cc")

	poolA = common.HexToAddress("0x0000000000000000000000000000000000000a01")
	poolB = common.HexToAddress("0x0000000000000000000000000000000000000a02")
)

func childAddr(kind domain.ChildKind) common.Address {
	var a common.Address
	a[19] = byte(kind) + 1
	return a
}

func facetAddr(kind domain.ChildKind) common.Address {
	var a common.Address
	a[18] = byte(kind) + 1
	return a
}

// deployGraph wires a full master + three children graph with deterministic
// predictors and initialized ledgers.
func deployGraph(t *testing.T, pred ports.Predictor) (*Master, map[domain.ChildKind]*Child) {
	t.Helper()
	ctx := context.Background()

	master := NewMaster(masterAddr, owner, nil)
	children := make(map[domain.ChildKind]*Child)

	for _, kind := range domain.AllChildKinds {
		child := NewChild(kind, childAddr(kind), owner, masterAddr, nil)

		var strategy *facet.Strategy
		switch kind {
		case domain.ChildLongStrike:
			strategy = facet.NewLong(pred)
		case domain.ChildShortStrike:
			strategy = facet.NewShort(pred)
		default:
			strategy = facet.NewAMM(pred)
		}

		bots := 25
		if kind == domain.ChildAMM {
			bots = 50
		}
		init := func(st *dispatch.Storage) error {
			return strategy.Initialize(st, big.NewInt(2_500_000), bots)
		}
		require.NoError(t, child.Cut(ctx, owner, strategy.Cuts(facetAddr(kind)), init))

		opKind := domain.OpStrike
		if kind == domain.ChildAMM {
			opKind = domain.OpArbitrage
		}
		require.NoError(t, child.BindOperation(owner, opKind, strategy.ExecSelector()))
		require.NoError(t, child.BindOperation(owner, domain.OpRebalance, facet.SelRebalance))
		require.NoError(t, child.BindStats(owner, strategy.StatsSelector()))

		if kind == domain.ChildAMM {
			require.NoError(t, child.RegisterPool(ctx, owner, poolA))
			require.NoError(t, child.RegisterPool(ctx, owner, poolB))
		}

		require.NoError(t, master.RegisterChild(ctx, owner, kind, childAddr(kind), child))
		children[kind] = child
	}
	return master, children
}

func longPayload(t *testing.T, confidence uint8) []byte {
	t.Helper()
	data, err := codec.PackStrike(domain.StrikeOpportunity{
		Confidence:     confidence,
		Direction:      domain.DirectionLong,
		ExpectedProfit: big.NewInt(250_000),
		TokenPair:      "ETH/USDC",
		EntryPrice:     big.NewInt(2_000_000_000),
		TargetPrice:    big.NewInt(2_040_000_000),
		StopLoss:       big.NewInt(1_960_000_000),
	})
	require.NoError(t, err)
	return data
}

// memSink captura los eventos de auditoría en memoria.
type memSink struct {
	events []domain.AuditEvent
}

func (m *memSink) Record(_ context.Context, ev domain.AuditEvent) error {
	m.events = append(m.events, ev)
	return nil
}

func (m *memSink) Close() error { return nil }

func (m *memSink) ops() []string {
	out := make([]string, 0, len(m.events))
	for _, ev := range m.events {
		out = append(out, ev.Op)
	}
	return out
}

// --- child surfaces ---

func TestChildCut_OwnerGated(t *testing.T) {
	child := NewChild(domain.ChildLongStrike, childAddr(domain.ChildLongStrike), owner, masterAddr, nil)
	strategy := facet.NewLong(predict.Fixed{})

	err := child.Cut(context.Background(), stranger, strategy.Cuts(facetAddr(domain.ChildLongStrike)), nil)
	assert.ErrorIs(t, err, domain.ErrNotOwner)
	assert.Zero(t, child.Table().Len())
}

func TestChildCut_FailedInitializerRollsBack(t *testing.T) {
	child := NewChild(domain.ChildLongStrike, childAddr(domain.ChildLongStrike), owner, masterAddr, nil)
	strategy := facet.NewLong(predict.Fixed{})
	boom := errors.New("bad genesis")

	err := child.Cut(context.Background(), owner, strategy.Cuts(facetAddr(domain.ChildLongStrike)),
		func(st *dispatch.Storage) error {
			if err := st.Ledger.Init(big.NewInt(1000), 10, 25); err != nil {
				return err
			}
			return boom
		})
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, child.Table().Len())
	assert.False(t, child.Storage().Ledger.IsInitialized())
}

func TestChildCut_InitializerEmitsInitializationEvent(t *testing.T) {
	sink := &memSink{}
	child := NewChild(domain.ChildLongStrike, childAddr(domain.ChildLongStrike), owner, masterAddr, sink)
	strategy := facet.NewLong(predict.Fixed{Favorable: true})

	init := func(st *dispatch.Storage) error {
		return strategy.Initialize(st, big.NewInt(2_500_000), 25)
	}
	require.NoError(t, child.Cut(context.Background(), owner, strategy.Cuts(facetAddr(domain.ChildLongStrike)), init))

	require.Equal(t, []string{domain.EvDiamondCut, domain.EvInitialized}, sink.ops())

	ev := sink.events[1]
	assert.Equal(t, "LONG_STRIKE", ev.Family)
	assert.Equal(t, owner, ev.Actor)
	assert.True(t, ev.Success)
	assert.Equal(t, "2500000", ev.Details["initial_capital"])
	assert.Equal(t, "25", ev.Details["bots"])
	assert.Equal(t, "100000", ev.Details["capital_per_bot"])
	assert.NotEmpty(t, ev.ID)
	assert.False(t, ev.At.IsZero())
}

func TestChildCut_NoInitializationEventTwice(t *testing.T) {
	sink := &memSink{}
	child := NewChild(domain.ChildLongStrike, childAddr(domain.ChildLongStrike), owner, masterAddr, sink)
	strategy := facet.NewLong(predict.Fixed{Favorable: true})

	init := func(st *dispatch.Storage) error {
		return strategy.Initialize(st, big.NewInt(2_500_000), 25)
	}
	require.NoError(t, child.Cut(context.Background(), owner, strategy.Cuts(facetAddr(domain.ChildLongStrike)), init))

	// Un cut posterior sobre un ledger ya vivo solo emite el evento de cut.
	extra := []dispatch.FacetCut{{
		Action:    dispatch.CutAdd,
		Facet:     dispatch.FacetRef{Addr: facetAddr(domain.ChildLongStrike), Handler: dispatch.HandlerFunc(func(*dispatch.Storage, []byte) ([]byte, error) { return nil, nil })},
		Selectors: []domain.Selector{domain.SelectorFromSignature("extra()")},
	}}
	require.NoError(t, child.Cut(context.Background(), owner, extra, nil))

	assert.Equal(t, []string{domain.EvDiamondCut, domain.EvInitialized, domain.EvDiamondCut}, sink.ops())
}

func TestChildCut_FailedInitializerEmitsNothing(t *testing.T) {
	sink := &memSink{}
	child := NewChild(domain.ChildLongStrike, childAddr(domain.ChildLongStrike), owner, masterAddr, sink)
	strategy := facet.NewLong(predict.Fixed{Favorable: true})
	boom := errors.New("bad genesis")

	err := child.Cut(context.Background(), owner, strategy.Cuts(facetAddr(domain.ChildLongStrike)),
		func(*dispatch.Storage) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, sink.events)
}

func TestChildExecuteOperation_MasterOnly(t *testing.T) {
	_, children := deployGraph(t, predict.Fixed{Favorable: true})
	long := children[domain.ChildLongStrike]

	_, err := long.ExecuteOperation(context.Background(), stranger, domain.OpStrike, longPayload(t, 95))
	assert.ErrorIs(t, err, domain.ErrNotMaster)

	_, err = long.ExecuteOperation(context.Background(), owner, domain.OpStrike, longPayload(t, 95))
	assert.ErrorIs(t, err, domain.ErrNotMaster)
}

func TestChildExecuteOperation_UnknownKind(t *testing.T) {
	child := NewChild(domain.ChildLongStrike, childAddr(domain.ChildLongStrike), owner, masterAddr, nil)
	_, err := child.ExecuteOperation(context.Background(), masterAddr, domain.OpStrike, nil)
	assert.ErrorIs(t, err, domain.ErrUnknownOperation)
}

func TestChildExecuteOperation_UnmappedSelector(t *testing.T) {
	child := NewChild(domain.ChildLongStrike, childAddr(domain.ChildLongStrike), owner, masterAddr, nil)
	require.NoError(t, child.BindOperation(owner, domain.OpStrike, facet.SelExecuteStrike))

	_, err := child.ExecuteOperation(context.Background(), masterAddr, domain.OpStrike, nil)
	assert.ErrorIs(t, err, domain.ErrFacetNotFound)
}

func TestChildStatsPayload_UnboundFails(t *testing.T) {
	child := NewChild(domain.ChildLongStrike, childAddr(domain.ChildLongStrike), owner, masterAddr, nil)
	_, err := child.StatsPayload(context.Background())
	assert.ErrorIs(t, err, domain.ErrFacetNotFound)
}

func TestChildRegisterPool_OnlyAMMHasRegistry(t *testing.T) {
	child := NewChild(domain.ChildLongStrike, childAddr(domain.ChildLongStrike), owner, masterAddr, nil)
	err := child.RegisterPool(context.Background(), owner, poolA)
	assert.Error(t, err)
}

func TestChildTransferOwnership_RevokesOldOwner(t *testing.T) {
	_, children := deployGraph(t, predict.Fixed{Favorable: true})
	long := children[domain.ChildLongStrike]

	require.NoError(t, long.TransferOwnership(context.Background(), owner, stranger))
	assert.Equal(t, stranger, long.Owner())

	err := long.BindStats(owner, facet.SelStrikeStats)
	assert.ErrorIs(t, err, domain.ErrNotOwner)
	assert.NoError(t, long.BindStats(stranger, facet.SelStrikeStats))
}

// --- master registry ---

func TestRegisterChild_Guards(t *testing.T) {
	ctx := context.Background()
	master := NewMaster(masterAddr, owner, nil)
	child := NewChild(domain.ChildLongStrike, childAddr(domain.ChildLongStrike), owner, masterAddr, nil)

	assert.ErrorIs(t,
		master.RegisterChild(ctx, stranger, domain.ChildLongStrike, child.Address(), child),
		domain.ErrNotOwner)
	assert.ErrorIs(t,
		master.RegisterChild(ctx, owner, domain.ChildLongStrike, common.Address{}, child),
		domain.ErrInvalidAddress)

	require.NoError(t, master.RegisterChild(ctx, owner, domain.ChildLongStrike, child.Address(), child))
	assert.ErrorIs(t,
		master.RegisterChild(ctx, owner, domain.ChildLongStrike, child.Address(), child),
		domain.ErrAlreadyRegistered)

	assert.Equal(t, []domain.ChildKind{domain.ChildLongStrike}, master.RegisteredKinds())
}

func TestExecuteCoordinated_RequiresAllChildren(t *testing.T) {
	ctx := context.Background()
	master := NewMaster(masterAddr, owner, nil)
	child := NewChild(domain.ChildLongStrike, childAddr(domain.ChildLongStrike), owner, masterAddr, nil)
	require.NoError(t, master.RegisterChild(ctx, owner, domain.ChildLongStrike, child.Address(), child))

	_, err := master.ExecuteCoordinated(ctx, domain.OpStrike, nil)
	assert.ErrorIs(t, err, domain.ErrChildNotRegistered)
}

// --- coordinated fan-out ---

func TestExecuteCoordinated_PartialFailureTolerance(t *testing.T) {
	master, _ := deployGraph(t, predict.Fixed{Favorable: true})

	// Un strike LONG: el hijo long lo acepta; el short lo rechaza por
	// dirección y el AMM no decodifica el payload. Ambos degradan a {false,0}.
	result, err := master.ExecuteCoordinated(context.Background(), domain.OpStrike, longPayload(t, 95))
	require.NoError(t, err)

	assert.Equal(t, 1, result.Succeeded())
	long := result.Results[domain.ChildLongStrike]
	assert.True(t, long.Success)
	assert.Equal(t, big.NewInt(250_000), long.Profit)

	for _, kind := range []domain.ChildKind{domain.ChildShortStrike, domain.ChildAMM} {
		r := result.Results[kind]
		assert.False(t, r.Success)
		assert.Zero(t, r.Profit.Sign())
	}
	assert.Equal(t, big.NewInt(250_000), result.TotalProfit())
}

func TestExecuteCoordinated_PolicyRejectionEverywhere(t *testing.T) {
	master, children := deployGraph(t, predict.Fixed{Favorable: true})

	// Confianza 92 < 93: los tres hijos rechazan; el vector queda a cero
	// y ningún ledger muta.
	result, err := master.ExecuteCoordinated(context.Background(), domain.OpStrike, longPayload(t, 92))
	require.NoError(t, err)
	assert.Zero(t, result.Succeeded())
	assert.Zero(t, result.TotalProfit().Sign())

	long := children[domain.ChildLongStrike]
	stats, err := long.StrikeStats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.TotalStrikes)
	assert.Equal(t, big.NewInt(2_500_000), stats.TotalCapital)
}

func TestExecuteCoordinated_RebalanceFansOutToAll(t *testing.T) {
	master, _ := deployGraph(t, predict.Fixed{Favorable: true})

	result, err := master.ExecuteCoordinated(context.Background(), domain.OpRebalance, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Succeeded())

	// Cada hijo reporta la suma de capital de sus bots antes de rebalancear.
	assert.Equal(t, big.NewInt(2_500_000), result.Results[domain.ChildLongStrike].Profit)
}

// --- aggregate stats ---

func TestAggregateStats_ComposedView(t *testing.T) {
	master, _ := deployGraph(t, predict.Fixed{Favorable: true})
	ctx := context.Background()

	agg := master.AggregateStats(ctx)
	assert.Equal(t, big.NewInt(7_500_000), agg.TotalCapital)
	assert.Equal(t, 25+25+50, agg.TotalBots)
	assert.Zero(t, agg.CombinedRate)

	// Tras un strike LONG exitoso: long 100%, short 0%, amm 0% → media 33.
	_, err := master.ExecuteCoordinated(ctx, domain.OpStrike, longPayload(t, 95))
	require.NoError(t, err)

	agg = master.AggregateStats(ctx)
	assert.Equal(t, uint64(33), agg.CombinedRate)
	assert.Equal(t, big.NewInt(7_750_000), agg.TotalCapital)
}

func TestAggregateStats_FailedReadDropsBotCount(t *testing.T) {
	ctx := context.Background()
	master := NewMaster(masterAddr, owner, nil)

	for _, kind := range domain.AllChildKinds {
		child := NewChild(kind, childAddr(kind), owner, masterAddr, nil)
		if kind == domain.ChildAMM {
			// Ledger vivo con 50 bots pero superficie de stats sin bindear:
			// la lectura falla y el hijo debe reportar todo a cero, bots
			// incluidos.
			strategy := facet.NewAMM(predict.Fixed{})
			init := func(st *dispatch.Storage) error {
				return strategy.Initialize(st, big.NewInt(5_000_000), 50)
			}
			require.NoError(t, child.Cut(ctx, owner, strategy.Cuts(facetAddr(kind)), init))
			require.Equal(t, 50, child.BotCount())
		}
		require.NoError(t, master.RegisterChild(ctx, owner, kind, child.Address(), child))
	}

	agg := master.AggregateStats(ctx)
	assert.Zero(t, agg.TotalBots)
	assert.Zero(t, agg.TotalCapital.Sign())
	assert.Zero(t, agg.CombinedRate)
}

func TestAggregateStats_ToleratesUnwiredChildren(t *testing.T) {
	ctx := context.Background()
	master := NewMaster(masterAddr, owner, nil)

	// Hijos registrados pero sin facets: cada lectura falla y se reporta a cero.
	for _, kind := range domain.AllChildKinds {
		child := NewChild(kind, childAddr(kind), owner, masterAddr, nil)
		require.NoError(t, master.RegisterChild(ctx, owner, kind, child.Address(), child))
	}

	agg := master.AggregateStats(ctx)
	assert.Zero(t, agg.TotalCapital.Sign())
	assert.Zero(t, agg.TotalBots)
	assert.Zero(t, agg.CombinedRate)
}
