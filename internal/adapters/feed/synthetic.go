package feed

// synthetic.go — stand-in for the external decision process.
//
// The core treats confidence and expected-profit figures as opaque inputs;
// this generator produces plausible-looking signals so the full coordinated
// path (master → children → facets → ledgers) can run end to end without
// any external service. Confidence is drawn around the gate threshold so
// both accepted and policy-rejected batches show up.

import (
	"context"
	"fmt"
	"math/big"
	"math/rand"

	"github.com/ethereum/go-ethereum/common"

	"github.com/alejandrodnm/macrostrike/internal/domain"
)

var pairs = []string{"ETH/USDC", "WBTC/USDC", "ARB/USDC", "MATIC/USDC"}

// Synthetic generates pseudo-random signal batches.
type Synthetic struct {
	rng       *rand.Rand
	pools     []common.Address
	batchSize int
	profitWei *big.Int // expected-profit scale per signal
}

// NewSynthetic creates a generator over the given approved pools.
// batchSize signals are produced per cycle.
func NewSynthetic(seed int64, pools []common.Address, batchSize int, profitWei *big.Int) *Synthetic {
	if batchSize <= 0 {
		batchSize = 3
	}
	if profitWei == nil || profitWei.Sign() <= 0 {
		profitWei = new(big.Int).SetUint64(250_000_000_000_000_000) // 0.25 ETH
	}
	return &Synthetic{
		rng:       rand.New(rand.NewSource(seed)),
		pools:     pools,
		batchSize: batchSize,
		profitWei: profitWei,
	}
}

// NextBatch returns the next cycle's signals.
func (s *Synthetic) NextBatch(_ context.Context) ([]domain.Signal, error) {
	out := make([]domain.Signal, 0, s.batchSize)
	for i := 0; i < s.batchSize; i++ {
		switch s.rng.Intn(3) {
		case 0:
			out = append(out, s.strike(domain.DirectionLong))
		case 1:
			out = append(out, s.strike(domain.DirectionShort))
		default:
			out = append(out, s.arbitrage())
		}
	}
	return out, nil
}

// confidence lands in [88, 99]: mostly above the 93 gate, sometimes below.
func (s *Synthetic) confidence() uint8 {
	return uint8(88 + s.rng.Intn(12))
}

func (s *Synthetic) jittered(base *big.Int) *big.Int {
	// ±20% around the base scale
	bps := int64(8000 + s.rng.Intn(4001))
	out := new(big.Int).Mul(base, big.NewInt(bps))
	return out.Div(out, big.NewInt(10000))
}

func (s *Synthetic) strike(dir domain.Direction) domain.Signal {
	entry := s.jittered(big.NewInt(2_000_000_000)) // pseudo price feed
	target := new(big.Int).Mul(entry, big.NewInt(102))
	target.Div(target, big.NewInt(100))
	stop := new(big.Int).Mul(entry, big.NewInt(98))
	stop.Div(stop, big.NewInt(100))
	if dir == domain.DirectionShort {
		target, stop = stop, target
	}

	return domain.Signal{
		Kind: domain.OpStrike,
		Strike: &domain.StrikeOpportunity{
			Confidence:     s.confidence(),
			Direction:      dir,
			ExpectedProfit: s.jittered(s.profitWei),
			TokenPair:      pairs[s.rng.Intn(len(pairs))],
			EntryPrice:     entry,
			TargetPrice:    target,
			StopLoss:       stop,
		},
	}
}

func (s *Synthetic) arbitrage() domain.Signal {
	var poolA, poolB common.Address
	if len(s.pools) >= 2 {
		i := s.rng.Intn(len(s.pools))
		j := (i + 1 + s.rng.Intn(len(s.pools)-1)) % len(s.pools)
		poolA, poolB = s.pools[i], s.pools[j]
	}

	priceA := s.jittered(big.NewInt(1_000_000))
	priceB := new(big.Int).Mul(priceA, big.NewInt(101))
	priceB.Div(priceB, big.NewInt(100))

	return domain.Signal{
		Kind: domain.OpArbitrage,
		Prediction: &domain.Prediction{
			Confidence: s.confidence(),
			AmountIn:   s.jittered(new(big.Int).Mul(s.profitWei, big.NewInt(10))),
			TokenIn:    "USDC",
			TokenOut:   fmt.Sprintf("TOKEN%d", s.rng.Intn(4)),
		},
		Path: &domain.ArbitragePath{
			PoolA:       poolA,
			PoolB:       poolB,
			PriceA:      priceA,
			PriceB:      priceB,
			MinProfit:   s.jittered(s.profitWei),
			GasEstimate: uint64(150_000 + s.rng.Intn(100_000)),
		},
	}
}
