package domain

import "math/big"

// StrikeStats es el snapshot del ledger de un facet de strikes (long o short).
// Mismo shape que la tupla (uint256,uint256,uint256,uint256,uint8,uint256)
// que expone getStrikeBotStats en el contrato.
type StrikeStats struct {
	TotalCapital      *big.Int
	TotalStrikes      uint64
	SuccessfulStrikes uint64
	WinRate           uint64 // porcentaje 0-100, normalizado por bot
	NumBots           uint8
	CapitalPerBot     *big.Int
}

// AmmStats es el snapshot del ledger del facet AMM, tupla
// (uint256,uint256,uint256,uint256,uint256,uint8) de getAMMBotStats.
type AmmStats struct {
	TotalCapital         *big.Int
	TotalArbitrages      uint64
	SuccessfulArbitrages uint64
	SuccessRate          uint64 // porcentaje 0-100
	TotalProfit          *big.Int
	MinConfidence        uint8
}

// BotStatus es el estado de un bot individual dentro de un ledger.
type BotStatus struct {
	Index     int
	Capital   *big.Int
	Attempts  uint64
	Successes uint64
	Active    bool // capital por encima del suelo mínimo viable
}

// AggregateStats es la vista compuesta que el master arma leyendo los tres
// hijos. CombinedRate es la media NO ponderada de tres porcentajes
// heterogéneos (long win rate, short win rate, amm success rate); se
// preserva tal cual del original aunque no pondere por número de bots.
type AggregateStats struct {
	Long  StrikeStats
	Short StrikeStats
	AMM   AmmStats

	TotalCapital *big.Int
	TotalBots    int
	CombinedRate uint64
}

// CoordinatedResult es el vector de resultados de un fan-out del master:
// una entrada por hijo, en el orden de AllChildKinds. Un hijo que falló
// aparece como {false, 0}, nunca como hueco.
type CoordinatedResult struct {
	Kind    OperationKind
	Results map[ChildKind]OperationResult
}

// TotalProfit suma el profit reportado por los hijos que tuvieron éxito.
func (c CoordinatedResult) TotalProfit() *big.Int {
	total := new(big.Int)
	for _, kind := range AllChildKinds {
		if r, ok := c.Results[kind]; ok && r.Success {
			total.Add(total, r.Profit)
		}
	}
	return total
}

// Succeeded cuenta cuántos hijos reportaron success.
func (c CoordinatedResult) Succeeded() int {
	n := 0
	for _, r := range c.Results {
		if r.Success {
			n++
		}
	}
	return n
}

// EmptyStrikeStats devuelve un snapshot a cero (lecturas sobre ledger sin
// inicializar no fallan, devuelven ceros).
func EmptyStrikeStats() StrikeStats {
	return StrikeStats{TotalCapital: new(big.Int), CapitalPerBot: new(big.Int)}
}

// EmptyAmmStats devuelve el snapshot AMM a cero.
func EmptyAmmStats() AmmStats {
	return AmmStats{TotalCapital: new(big.Int), TotalProfit: new(big.Int)}
}
