package facet

// strategy.go — the one generic strategy facet.
//
// The contracts carried three near-identical facets (LongStrikeBot,
// ShortStrikeBot, AMMBot) differing only in bot cap, direction filter, and
// penalty rule. Here it is a single Strategy parameterized by Config; the
// Long/Short/AMM constructors are presets. A Strategy is stateless beyond
// its config: all capital state lives in the proxy storage it is dispatched
// against, so one Strategy value can serve several proxies.

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/alejandrodnm/macrostrike/internal/codec"
	"github.com/alejandrodnm/macrostrike/internal/dispatch"
	"github.com/alejandrodnm/macrostrike/internal/domain"
	"github.com/alejandrodnm/macrostrike/internal/ledger"
	"github.com/alejandrodnm/macrostrike/internal/ports"
)

// Canonical selectors for the facet surface, derived from the contract
// signatures the external orchestrator calls.
var (
	SelExecuteStrike = domain.SelectorFromSignature(
		"executeCoordinatedStrike((uint8,uint8,uint256,string,uint256,uint256,uint256))")
	SelExecuteArbitrage = domain.SelectorFromSignature(
		"executePredictiveArbitrage((uint8,uint256,string,string),(address,address,uint256,uint256,uint256,uint64))")
	SelRebalance   = domain.SelectorFromSignature("rebalanceBots()")
	SelStrikeStats = domain.SelectorFromSignature("getStrikeBotStats()")
	SelAmmStats    = domain.SelectorFromSignature("getAMMBotStats()")
	SelBotStatus   = domain.SelectorFromSignature("getBotStatus(uint256)")
)

// Default thresholds, straight from the contracts. The confidence gate is
// configurable; 93 is the source default.
const (
	DefaultMinConfidence = 93
	DefaultSuccessPct    = 93
	strikeBotCap         = 25
	ammBotCap            = 50
	strikePenaltyBps     = 200 // 2% of the bot's capital on a failed strike
	ammTradePenaltyBps   = 100 // 1% of the per-bot trade size on a failed arb
)

// Config parameterizes a Strategy.
type Config struct {
	Family        string
	Direction     domain.Direction // DirectionNone disables the direction gate
	MaxBots       int
	MinConfidence uint8
	SuccessPct    uint64 // aggregate success flag threshold (% of bots)
	Arbitrage     bool   // AMM payload + pool gate instead of strike payload
}

// Strategy is the generic batch-strike/arbitrage facet logic.
type Strategy struct {
	cfg  Config
	pred ports.Predictor
}

// NewLong builds the long-strike preset (25 bots, direction gate LONG).
func NewLong(pred ports.Predictor) *Strategy {
	return New(Config{
		Family:        domain.ChildLongStrike.String(),
		Direction:     domain.DirectionLong,
		MaxBots:       strikeBotCap,
		MinConfidence: DefaultMinConfidence,
		SuccessPct:    DefaultSuccessPct,
	}, pred)
}

// NewShort builds the short-strike preset (25 bots, direction gate SHORT).
func NewShort(pred ports.Predictor) *Strategy {
	return New(Config{
		Family:        domain.ChildShortStrike.String(),
		Direction:     domain.DirectionShort,
		MaxBots:       strikeBotCap,
		MinConfidence: DefaultMinConfidence,
		SuccessPct:    DefaultSuccessPct,
	}, pred)
}

// NewAMM builds the AMM preset (50 bots, pool-gated arbitrage payload).
func NewAMM(pred ports.Predictor) *Strategy {
	return New(Config{
		Family:        domain.ChildAMM.String(),
		MaxBots:       ammBotCap,
		MinConfidence: DefaultMinConfidence,
		SuccessPct:    DefaultSuccessPct,
		Arbitrage:     true,
	}, pred)
}

// New builds a Strategy from an explicit config.
func New(cfg Config, pred ports.Predictor) *Strategy {
	if cfg.MinConfidence == 0 {
		cfg.MinConfidence = DefaultMinConfidence
	}
	if cfg.SuccessPct == 0 {
		cfg.SuccessPct = DefaultSuccessPct
	}
	return &Strategy{cfg: cfg, pred: pred}
}

// Config returns the strategy parameters.
func (s *Strategy) Config() Config { return s.cfg }

// MaxBots returns the family's hard bot cap.
func (s *Strategy) MaxBots() int { return s.cfg.MaxBots }

// Initialize splits initialCapital across numBots in the target storage.
// Meant to run as the one-shot initializer of the cut that installs the
// facet; failing it rolls the whole cut back.
func (s *Strategy) Initialize(st *dispatch.Storage, initialCapital *big.Int, numBots int) error {
	return st.Ledger.Init(initialCapital, numBots, s.cfg.MaxBots)
}

// ExecuteHandler is the selector-dispatched batch entry point.
func (s *Strategy) ExecuteHandler() dispatch.Handler {
	if s.cfg.Arbitrage {
		return dispatch.HandlerFunc(s.executeArbitrage)
	}
	return dispatch.HandlerFunc(s.executeStrike)
}

// StatsHandler is the selector-dispatched read-only snapshot. Safe on an
// uninitialized ledger: it returns zeroes, it never fails.
func (s *Strategy) StatsHandler() dispatch.Handler {
	return dispatch.HandlerFunc(func(st *dispatch.Storage, _ []byte) ([]byte, error) {
		if s.cfg.Arbitrage {
			return codec.PackAmmStats(st.Ledger.AmmStats(s.cfg.MinConfidence))
		}
		return codec.PackStrikeStats(st.Ledger.StrikeStats())
	})
}

// BotStatusHandler is the selector-dispatched per-bot read: capital,
// counters, and viability of one bot by index. Side-effect free.
func (s *Strategy) BotStatusHandler() dispatch.Handler {
	return dispatch.HandlerFunc(func(st *dispatch.Storage, calldata []byte) ([]byte, error) {
		i, err := codec.UnpackBotIndex(calldata)
		if err != nil {
			return nil, err
		}
		status, ok := st.Ledger.BotStatus(i)
		if !ok {
			return nil, fmt.Errorf("facet.%s: bot %d: %w", s.cfg.Family, i, domain.ErrInvalidBotCount)
		}
		return codec.PackBotStatus(status)
	})
}

// RebalanceHandler tops up under-funded bots from the free pool,
// best-effort, and reports the pre-rebalance bot capital total.
func (s *Strategy) RebalanceHandler() dispatch.Handler {
	return dispatch.HandlerFunc(func(st *dispatch.Storage, _ []byte) ([]byte, error) {
		before, err := st.Ledger.Rebalance()
		if err != nil {
			return nil, err
		}
		return codec.PackResult(domain.OperationResult{Success: true, Profit: before})
	})
}

// executeStrike gates and applies a directional strike batch. All gates run
// before any mutation: a rejected batch leaves the ledger untouched.
func (s *Strategy) executeStrike(st *dispatch.Storage, calldata []byte) ([]byte, error) {
	op, err := codec.UnpackStrike(calldata)
	if err != nil {
		return nil, err
	}
	if !st.Ledger.IsInitialized() {
		return nil, fmt.Errorf("facet.%s: %w", s.cfg.Family, domain.ErrNotInitialized)
	}
	if op.Confidence < s.cfg.MinConfidence {
		return nil, fmt.Errorf("facet.%s: confidence %d < %d: %w",
			s.cfg.Family, op.Confidence, s.cfg.MinConfidence, domain.ErrConfidenceTooLow)
	}
	if s.cfg.Direction != domain.DirectionNone && op.Direction != s.cfg.Direction {
		return nil, fmt.Errorf("facet.%s: got %s: %w", s.cfg.Family, op.Direction, domain.ErrWrongDirection)
	}

	numBots := big.NewInt(int64(st.Ledger.NumBots()))
	// Integer division: the remainder leaks, as in the contract.
	profitPerBot := new(big.Int).Div(bigOrZero(op.ExpectedProfit), numBots)

	outcome, err := st.Ledger.ApplyBatch(ledger.BatchInput{
		ProfitPerBot: profitPerBot,
		Penalty: func(capital *big.Int) *big.Int {
			return bpsOf(capital, strikePenaltyBps)
		},
		Decide:              func(bot int) bool { return s.pred.Outcome(op.Confidence, bot) },
		JitterBps:           s.pred.JitterBps,
		SuccessThresholdPct: s.cfg.SuccessPct,
	})
	if err != nil {
		return nil, err
	}
	return codec.PackResult(domain.OperationResult{
		Success: outcome.Success,
		Profit:  clampZero(outcome.NetProfit),
	})
}

// executeArbitrage gates and applies an AMM arbitrage batch. Both path legs
// must reference registered pools.
func (s *Strategy) executeArbitrage(st *dispatch.Storage, calldata []byte) ([]byte, error) {
	pred, path, err := codec.UnpackArbitrage(calldata)
	if err != nil {
		return nil, err
	}
	if !st.Ledger.IsInitialized() {
		return nil, fmt.Errorf("facet.%s: %w", s.cfg.Family, domain.ErrNotInitialized)
	}
	if pred.Confidence < s.cfg.MinConfidence {
		return nil, fmt.Errorf("facet.%s: confidence %d < %d: %w",
			s.cfg.Family, pred.Confidence, s.cfg.MinConfidence, domain.ErrConfidenceTooLow)
	}
	if st.Pools == nil || !st.Pools.Contains(path.PoolA) {
		return nil, fmt.Errorf("facet.%s: pool A %s: %w", s.cfg.Family, path.PoolA, domain.ErrPoolNotRegistered)
	}
	if !st.Pools.Contains(path.PoolB) {
		return nil, fmt.Errorf("facet.%s: pool B %s: %w", s.cfg.Family, path.PoolB, domain.ErrPoolNotRegistered)
	}

	numBots := big.NewInt(int64(st.Ledger.NumBots()))
	profitPerBot := new(big.Int).Div(bigOrZero(path.MinProfit), numBots)
	tradePerBot := new(big.Int).Div(bigOrZero(pred.AmountIn), numBots)

	outcome, err := st.Ledger.ApplyBatch(ledger.BatchInput{
		ProfitPerBot: profitPerBot,
		Penalty: func(*big.Int) *big.Int {
			// AMM bots lose a slice of the intended trade size, not of
			// their own capital.
			return bpsOf(tradePerBot, ammTradePenaltyBps)
		},
		Decide:              func(bot int) bool { return s.pred.Outcome(pred.Confidence, bot) },
		JitterBps:           s.pred.JitterBps,
		SuccessThresholdPct: s.cfg.SuccessPct,
	})
	if err != nil {
		return nil, err
	}
	return codec.PackResult(domain.OperationResult{
		Success: outcome.Success,
		Profit:  clampZero(outcome.NetProfit),
	})
}

// Cuts returns the cut batch that installs this facet's full surface at the
// given facet address.
func (s *Strategy) Cuts(addr common.Address) []dispatch.FacetCut {
	if s.cfg.Arbitrage {
		return []dispatch.FacetCut{
			{Action: dispatch.CutAdd, Facet: dispatch.FacetRef{Addr: addr, Handler: s.ExecuteHandler()}, Selectors: []domain.Selector{SelExecuteArbitrage}},
			{Action: dispatch.CutAdd, Facet: dispatch.FacetRef{Addr: addr, Handler: s.RebalanceHandler()}, Selectors: []domain.Selector{SelRebalance}},
			{Action: dispatch.CutAdd, Facet: dispatch.FacetRef{Addr: addr, Handler: s.StatsHandler()}, Selectors: []domain.Selector{SelAmmStats}},
			{Action: dispatch.CutAdd, Facet: dispatch.FacetRef{Addr: addr, Handler: s.BotStatusHandler()}, Selectors: []domain.Selector{SelBotStatus}},
		}
	}
	return []dispatch.FacetCut{
		{Action: dispatch.CutAdd, Facet: dispatch.FacetRef{Addr: addr, Handler: s.ExecuteHandler()}, Selectors: []domain.Selector{SelExecuteStrike}},
		{Action: dispatch.CutAdd, Facet: dispatch.FacetRef{Addr: addr, Handler: s.RebalanceHandler()}, Selectors: []domain.Selector{SelRebalance}},
		{Action: dispatch.CutAdd, Facet: dispatch.FacetRef{Addr: addr, Handler: s.StatsHandler()}, Selectors: []domain.Selector{SelStrikeStats}},
		{Action: dispatch.CutAdd, Facet: dispatch.FacetRef{Addr: addr, Handler: s.BotStatusHandler()}, Selectors: []domain.Selector{SelBotStatus}},
	}
}

// ExecSelector returns the batch-execute selector for this family.
func (s *Strategy) ExecSelector() domain.Selector {
	if s.cfg.Arbitrage {
		return SelExecuteArbitrage
	}
	return SelExecuteStrike
}

// StatsSelector returns the stats selector for this family.
func (s *Strategy) StatsSelector() domain.Selector {
	if s.cfg.Arbitrage {
		return SelAmmStats
	}
	return SelStrikeStats
}

func bigOrZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}

func bpsOf(v *big.Int, bps int64) *big.Int {
	out := new(big.Int).Mul(v, big.NewInt(bps))
	return out.Div(out, big.NewInt(10000))
}

// clampZero floors the wire profit at zero: the on-chain return is a
// uint256, so a net-negative batch reports zero while the ledger still
// takes the true net.
func clampZero(v *big.Int) *big.Int {
	if v.Sign() < 0 {
		return new(big.Int)
	}
	return v
}
