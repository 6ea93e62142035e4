package codec

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/macrostrike/internal/domain"
)

func TestStrikeRoundTrip(t *testing.T) {
	op := domain.StrikeOpportunity{
		Confidence:     95,
		Direction:      domain.DirectionShort,
		ExpectedProfit: big.NewInt(250_000),
		TokenPair:      "ETH/USDC",
		EntryPrice:     big.NewInt(2_000_000_000),
		TargetPrice:    big.NewInt(1_960_000_000),
		StopLoss:       big.NewInt(2_040_000_000),
	}

	data, err := PackStrike(op)
	require.NoError(t, err)

	got, err := UnpackStrike(data)
	require.NoError(t, err)
	assert.Equal(t, op, got)
}

func TestStrikePack_NilAmountsBecomeZero(t *testing.T) {
	data, err := PackStrike(domain.StrikeOpportunity{Confidence: 93, TokenPair: "x"})
	require.NoError(t, err)

	got, err := UnpackStrike(data)
	require.NoError(t, err)
	assert.Zero(t, got.ExpectedProfit.Sign())
}

func TestArbitrageRoundTrip(t *testing.T) {
	pred := domain.Prediction{
		Confidence: 97,
		AmountIn:   big.NewInt(5_000_000),
		TokenIn:    "USDC",
		TokenOut:   "WETH",
	}
	path := domain.ArbitragePath{
		PoolA:       common.HexToAddress("0x0000000000000000000000000000000000000a01"),
		PoolB:       common.HexToAddress("0x0000000000000000000000000000000000000a02"),
		PriceA:      big.NewInt(1_000_000),
		PriceB:      big.NewInt(1_010_000),
		MinProfit:   big.NewInt(9_000),
		GasEstimate: 180_000,
	}

	data, err := PackArbitrage(pred, path)
	require.NoError(t, err)

	gotPred, gotPath, err := UnpackArbitrage(data)
	require.NoError(t, err)
	assert.Equal(t, pred, gotPred)
	assert.Equal(t, path, gotPath)
}

func TestResultRoundTrip(t *testing.T) {
	data, err := PackResult(domain.OperationResult{Success: true, Profit: big.NewInt(42)})
	require.NoError(t, err)

	got, err := UnpackResult(data)
	require.NoError(t, err)
	assert.True(t, got.Success)
	assert.Equal(t, big.NewInt(42), got.Profit)
}

func TestStatsRoundTrips(t *testing.T) {
	strike := domain.StrikeStats{
		TotalCapital:      big.NewInt(2_500_000),
		TotalStrikes:      10,
		SuccessfulStrikes: 9,
		WinRate:           90,
		NumBots:           25,
		CapitalPerBot:     big.NewInt(100_000),
	}
	data, err := PackStrikeStats(strike)
	require.NoError(t, err)
	gotStrike, err := UnpackStrikeStats(data)
	require.NoError(t, err)
	assert.Equal(t, strike, gotStrike)

	amm := domain.AmmStats{
		TotalCapital:         big.NewInt(1_000_000),
		TotalArbitrages:      7,
		SuccessfulArbitrages: 5,
		SuccessRate:          71,
		TotalProfit:          big.NewInt(12_345),
		MinConfidence:        93,
	}
	data, err = PackAmmStats(amm)
	require.NoError(t, err)
	gotAmm, err := UnpackAmmStats(data)
	require.NoError(t, err)
	assert.Equal(t, amm, gotAmm)
}

func TestBotStatusRoundTrip(t *testing.T) {
	idx, err := PackBotIndex(7)
	require.NoError(t, err)
	i, err := UnpackBotIndex(idx)
	require.NoError(t, err)
	assert.Equal(t, 7, i)

	status := domain.BotStatus{
		Capital:   big.NewInt(98_000),
		Attempts:  4,
		Successes: 3,
		Active:    true,
	}
	data, err := PackBotStatus(status)
	require.NoError(t, err)
	got, err := UnpackBotStatus(data)
	require.NoError(t, err)
	assert.Equal(t, status, got)
}

func TestUnpack_MalformedPayloadsFail(t *testing.T) {
	garbage := []byte{0xde, 0xad, 0xbe, 0xef}

	_, err := UnpackStrike(garbage)
	assert.Error(t, err)

	_, _, err = UnpackArbitrage(garbage)
	assert.Error(t, err)

	_, err = UnpackResult(nil)
	assert.Error(t, err)
}

func TestUnpack_WrongShapeFails(t *testing.T) {
	// Un payload de resultado no es una oportunidad de strike.
	data, err := PackResult(domain.OperationResult{Success: true, Profit: big.NewInt(1)})
	require.NoError(t, err)

	_, err = UnpackStrike(data)
	assert.Error(t, err)
}
