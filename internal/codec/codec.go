package codec

// codec.go — ABI encoding for the opaque operation payloads.
//
// Master→Child and Child→Facet calls carry an operation-kind tag plus an
// opaque binary payload. The payload keeps the exact ABI shapes the diamond
// contracts exposed on-chain (executeCoordinatedStrike, executePredictiveArbitrage,
// getStrikeBotStats, getAMMBotStats), so the Go core stays wire-compatible
// with the external Rust orchestrator. Malformed payloads fail decoding;
// they are never silently misinterpreted.

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/alejandrodnm/macrostrike/internal/domain"
)

func mustType(t string, components []abi.ArgumentMarshaling) abi.Type {
	typ, err := abi.NewType(t, "", components)
	if err != nil {
		panic(fmt.Sprintf("codec: bad ABI type %q: %v", t, err))
	}
	return typ
}

var (
	uint8T   = mustType("uint8", nil)
	uint64T  = mustType("uint64", nil)
	uint256T = mustType("uint256", nil)
	boolT    = mustType("bool", nil)

	opportunityT = mustType("tuple", []abi.ArgumentMarshaling{
		{Name: "confidence", Type: "uint8"},
		{Name: "direction", Type: "uint8"},
		{Name: "expectedProfit", Type: "uint256"},
		{Name: "tokenPair", Type: "string"},
		{Name: "entryPrice", Type: "uint256"},
		{Name: "targetPrice", Type: "uint256"},
		{Name: "stopLoss", Type: "uint256"},
	})

	predictionT = mustType("tuple", []abi.ArgumentMarshaling{
		{Name: "confidence", Type: "uint8"},
		{Name: "amountIn", Type: "uint256"},
		{Name: "tokenIn", Type: "string"},
		{Name: "tokenOut", Type: "string"},
	})

	pathT = mustType("tuple", []abi.ArgumentMarshaling{
		{Name: "poolA", Type: "address"},
		{Name: "poolB", Type: "address"},
		{Name: "priceA", Type: "uint256"},
		{Name: "priceB", Type: "uint256"},
		{Name: "minProfit", Type: "uint256"},
		{Name: "gasEstimate", Type: "uint64"},
	})

	opportunityArgs = abi.Arguments{{Type: opportunityT}}
	arbitrageArgs   = abi.Arguments{{Type: predictionT}, {Type: pathT}}
	resultArgs      = abi.Arguments{{Type: boolT}, {Type: uint256T}}

	// getBotStatus(uint256) → (capital, attempts, successes, active)
	botIndexArgs  = abi.Arguments{{Type: uint256T}}
	botStatusArgs = abi.Arguments{
		{Type: uint256T}, {Type: uint256T}, {Type: uint256T}, {Type: boolT},
	}

	// Flat stat tuples, same order as the contract getters.
	strikeStatsArgs = abi.Arguments{
		{Type: uint256T}, {Type: uint256T}, {Type: uint256T},
		{Type: uint256T}, {Type: uint8T}, {Type: uint256T},
	}
	ammStatsArgs = abi.Arguments{
		{Type: uint256T}, {Type: uint256T}, {Type: uint256T},
		{Type: uint256T}, {Type: uint256T}, {Type: uint8T},
	}
)

// Wire structs mirror the tuple components; domain types are mapped
// explicitly to keep reflection out of the public surface.
type wireOpportunity struct {
	Confidence     uint8
	Direction      uint8
	ExpectedProfit *big.Int
	TokenPair      string
	EntryPrice     *big.Int
	TargetPrice    *big.Int
	StopLoss       *big.Int
}

type wirePrediction struct {
	Confidence uint8
	AmountIn   *big.Int
	TokenIn    string
	TokenOut   string
}

type wirePath struct {
	PoolA       common.Address
	PoolB       common.Address
	PriceA      *big.Int
	PriceB      *big.Int
	MinProfit   *big.Int
	GasEstimate uint64
}

func bigOrZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}

// PackStrike encodes a StrikeOpportunity payload.
func PackStrike(op domain.StrikeOpportunity) ([]byte, error) {
	data, err := opportunityArgs.Pack(wireOpportunity{
		Confidence:     op.Confidence,
		Direction:      uint8(op.Direction),
		ExpectedProfit: bigOrZero(op.ExpectedProfit),
		TokenPair:      op.TokenPair,
		EntryPrice:     bigOrZero(op.EntryPrice),
		TargetPrice:    bigOrZero(op.TargetPrice),
		StopLoss:       bigOrZero(op.StopLoss),
	})
	if err != nil {
		return nil, fmt.Errorf("codec.PackStrike: %w", err)
	}
	return data, nil
}

// UnpackStrike decodes a StrikeOpportunity payload.
func UnpackStrike(data []byte) (domain.StrikeOpportunity, error) {
	out, err := opportunityArgs.Unpack(data)
	if err != nil {
		return domain.StrikeOpportunity{}, fmt.Errorf("codec.UnpackStrike: %w", err)
	}
	w := *abi.ConvertType(out[0], new(wireOpportunity)).(*wireOpportunity)
	return domain.StrikeOpportunity{
		Confidence:     w.Confidence,
		Direction:      domain.Direction(w.Direction),
		ExpectedProfit: w.ExpectedProfit,
		TokenPair:      w.TokenPair,
		EntryPrice:     w.EntryPrice,
		TargetPrice:    w.TargetPrice,
		StopLoss:       w.StopLoss,
	}, nil
}

// PackArbitrage encodes a (Prediction, ArbitragePath) payload.
func PackArbitrage(p domain.Prediction, path domain.ArbitragePath) ([]byte, error) {
	data, err := arbitrageArgs.Pack(
		wirePrediction{
			Confidence: p.Confidence,
			AmountIn:   bigOrZero(p.AmountIn),
			TokenIn:    p.TokenIn,
			TokenOut:   p.TokenOut,
		},
		wirePath{
			PoolA:       path.PoolA,
			PoolB:       path.PoolB,
			PriceA:      bigOrZero(path.PriceA),
			PriceB:      bigOrZero(path.PriceB),
			MinProfit:   bigOrZero(path.MinProfit),
			GasEstimate: path.GasEstimate,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("codec.PackArbitrage: %w", err)
	}
	return data, nil
}

// UnpackArbitrage decodes a (Prediction, ArbitragePath) payload.
func UnpackArbitrage(data []byte) (domain.Prediction, domain.ArbitragePath, error) {
	out, err := arbitrageArgs.Unpack(data)
	if err != nil {
		return domain.Prediction{}, domain.ArbitragePath{}, fmt.Errorf("codec.UnpackArbitrage: %w", err)
	}
	wp := *abi.ConvertType(out[0], new(wirePrediction)).(*wirePrediction)
	wa := *abi.ConvertType(out[1], new(wirePath)).(*wirePath)
	return domain.Prediction{
			Confidence: wp.Confidence,
			AmountIn:   wp.AmountIn,
			TokenIn:    wp.TokenIn,
			TokenOut:   wp.TokenOut,
		}, domain.ArbitragePath{
			PoolA:       wa.PoolA,
			PoolB:       wa.PoolB,
			PriceA:      wa.PriceA,
			PriceB:      wa.PriceB,
			MinProfit:   wa.MinProfit,
			GasEstimate: wa.GasEstimate,
		}, nil
}

// PackResult encodes the (bool success, uint256 profit) return of a batch.
func PackResult(r domain.OperationResult) ([]byte, error) {
	data, err := resultArgs.Pack(r.Success, bigOrZero(r.Profit))
	if err != nil {
		return nil, fmt.Errorf("codec.PackResult: %w", err)
	}
	return data, nil
}

// UnpackResult decodes a (bool, uint256) operation result.
func UnpackResult(data []byte) (domain.OperationResult, error) {
	out, err := resultArgs.Unpack(data)
	if err != nil {
		return domain.OperationResult{}, fmt.Errorf("codec.UnpackResult: %w", err)
	}
	return domain.OperationResult{
		Success: out[0].(bool),
		Profit:  out[1].(*big.Int),
	}, nil
}

// PackBotIndex encodes the bot index argument of getBotStatus.
func PackBotIndex(i int) ([]byte, error) {
	data, err := botIndexArgs.Pack(big.NewInt(int64(i)))
	if err != nil {
		return nil, fmt.Errorf("codec.PackBotIndex: %w", err)
	}
	return data, nil
}

// UnpackBotIndex decodes the bot index argument of getBotStatus.
func UnpackBotIndex(data []byte) (int, error) {
	out, err := botIndexArgs.Unpack(data)
	if err != nil {
		return 0, fmt.Errorf("codec.UnpackBotIndex: %w", err)
	}
	v := out[0].(*big.Int)
	if !v.IsInt64() {
		return 0, fmt.Errorf("codec.UnpackBotIndex: index %s out of range", v)
	}
	return int(v.Int64()), nil
}

// PackBotStatus encodes the getBotStatus return tuple. The index travels in
// the request, not the response.
func PackBotStatus(s domain.BotStatus) ([]byte, error) {
	data, err := botStatusArgs.Pack(
		bigOrZero(s.Capital),
		new(big.Int).SetUint64(s.Attempts),
		new(big.Int).SetUint64(s.Successes),
		s.Active,
	)
	if err != nil {
		return nil, fmt.Errorf("codec.PackBotStatus: %w", err)
	}
	return data, nil
}

// UnpackBotStatus decodes the getBotStatus return tuple.
func UnpackBotStatus(data []byte) (domain.BotStatus, error) {
	out, err := botStatusArgs.Unpack(data)
	if err != nil {
		return domain.BotStatus{}, fmt.Errorf("codec.UnpackBotStatus: %w", err)
	}
	return domain.BotStatus{
		Capital:   out[0].(*big.Int),
		Attempts:  out[1].(*big.Int).Uint64(),
		Successes: out[2].(*big.Int).Uint64(),
		Active:    out[3].(bool),
	}, nil
}

// PackStrikeStats encodes the getStrikeBotStats tuple.
func PackStrikeStats(s domain.StrikeStats) ([]byte, error) {
	data, err := strikeStatsArgs.Pack(
		bigOrZero(s.TotalCapital),
		new(big.Int).SetUint64(s.TotalStrikes),
		new(big.Int).SetUint64(s.SuccessfulStrikes),
		new(big.Int).SetUint64(s.WinRate),
		s.NumBots,
		bigOrZero(s.CapitalPerBot),
	)
	if err != nil {
		return nil, fmt.Errorf("codec.PackStrikeStats: %w", err)
	}
	return data, nil
}

// UnpackStrikeStats decodes the getStrikeBotStats tuple.
func UnpackStrikeStats(data []byte) (domain.StrikeStats, error) {
	out, err := strikeStatsArgs.Unpack(data)
	if err != nil {
		return domain.StrikeStats{}, fmt.Errorf("codec.UnpackStrikeStats: %w", err)
	}
	return domain.StrikeStats{
		TotalCapital:      out[0].(*big.Int),
		TotalStrikes:      out[1].(*big.Int).Uint64(),
		SuccessfulStrikes: out[2].(*big.Int).Uint64(),
		WinRate:           out[3].(*big.Int).Uint64(),
		NumBots:           out[4].(uint8),
		CapitalPerBot:     out[5].(*big.Int),
	}, nil
}

// PackAmmStats encodes the getAMMBotStats tuple.
func PackAmmStats(s domain.AmmStats) ([]byte, error) {
	data, err := ammStatsArgs.Pack(
		bigOrZero(s.TotalCapital),
		new(big.Int).SetUint64(s.TotalArbitrages),
		new(big.Int).SetUint64(s.SuccessfulArbitrages),
		new(big.Int).SetUint64(s.SuccessRate),
		bigOrZero(s.TotalProfit),
		s.MinConfidence,
	)
	if err != nil {
		return nil, fmt.Errorf("codec.PackAmmStats: %w", err)
	}
	return data, nil
}

// UnpackAmmStats decodes the getAMMBotStats tuple.
func UnpackAmmStats(data []byte) (domain.AmmStats, error) {
	out, err := ammStatsArgs.Unpack(data)
	if err != nil {
		return domain.AmmStats{}, fmt.Errorf("codec.UnpackAmmStats: %w", err)
	}
	return domain.AmmStats{
		TotalCapital:         out[0].(*big.Int),
		TotalArbitrages:      out[1].(*big.Int).Uint64(),
		SuccessfulArbitrages: out[2].(*big.Int).Uint64(),
		SuccessRate:          out[3].(*big.Int).Uint64(),
		TotalProfit:          out[4].(*big.Int),
		MinConfidence:        out[5].(uint8),
	}, nil
}
