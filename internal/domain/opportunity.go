package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Direction indica el sentido de una oportunidad de strike.
type Direction uint8

const (
	DirectionNone  Direction = iota // sin dirección (AMM)
	DirectionLong                   // apuesta al alza
	DirectionShort                  // apuesta a la baja
)

func (d Direction) String() string {
	switch d {
	case DirectionLong:
		return "LONG"
	case DirectionShort:
		return "SHORT"
	default:
		return "NONE"
	}
}

// OperationKind es el tag de operación que viaja junto al payload opaco
// en las llamadas Master→Child.
type OperationKind uint8

const (
	OpStrike    OperationKind = iota // batch strike direccional
	OpArbitrage                      // arbitraje predictivo AMM
	OpRebalance                      // redistribución pool→bots
)

func (k OperationKind) String() string {
	switch k {
	case OpStrike:
		return "STRIKE"
	case OpArbitrage:
		return "ARBITRAGE"
	case OpRebalance:
		return "REBALANCE"
	default:
		return "UNKNOWN"
	}
}

// ChildKind identifica cada diamond hijo registrado en el master.
type ChildKind uint8

const (
	ChildLongStrike ChildKind = iota
	ChildShortStrike
	ChildAMM
)

// AllChildKinds enumera los hijos en el orden de fan-out del master.
var AllChildKinds = []ChildKind{ChildLongStrike, ChildShortStrike, ChildAMM}

func (k ChildKind) String() string {
	switch k {
	case ChildLongStrike:
		return "LONG_STRIKE"
	case ChildShortStrike:
		return "SHORT_STRIKE"
	case ChildAMM:
		return "AMM"
	default:
		return "UNKNOWN"
	}
}

// StrikeOpportunity es la señal que dispara un batch strike.
// Los importes van en wei; Confidence es un porcentaje entero 0-100
// producido por el proceso de decisión externo (opaco para este core).
type StrikeOpportunity struct {
	Confidence     uint8
	Direction      Direction
	ExpectedProfit *big.Int
	TokenPair      string
	EntryPrice     *big.Int
	TargetPrice    *big.Int
	StopLoss       *big.Int
}

// Prediction es la señal de arbitraje predictivo para el bot AMM.
type Prediction struct {
	Confidence uint8
	AmountIn   *big.Int
	TokenIn    string
	TokenOut   string
}

// ArbitragePath describe las dos patas del arbitraje entre pools.
type ArbitragePath struct {
	PoolA       common.Address
	PoolB       common.Address
	PriceA      *big.Int
	PriceB      *big.Int
	MinProfit   *big.Int
	GasEstimate uint64
}

// Signal es una señal del proceso de decisión externo, todavía sin codificar:
// un strike direccional o un par predicción+ruta para el AMM.
type Signal struct {
	Kind       OperationKind
	Strike     *StrikeOpportunity
	Prediction *Prediction
	Path       *ArbitragePath
}

// OperationResult es el resultado (success, profit) que burbujea desde un
// facet hasta el master. Profit nunca es nil.
type OperationResult struct {
	Success bool
	Profit  *big.Int
}

// ZeroResult es el resultado por defecto cuando la llamada a un hijo falla:
// el master degrada el fallo a dato en vez de propagarlo.
func ZeroResult() OperationResult {
	return OperationResult{Success: false, Profit: new(big.Int)}
}
