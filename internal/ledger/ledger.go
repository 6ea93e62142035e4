package ledger

// ledger.go — contabilidad de capital por familia de estrategia.
//
// Un Ledger reparte el capital inicial entre numBots sub-cuentas ("bots") y
// lleva los contadores agregados (strikes totales, éxitos, win rate). Es la
// traducción directa del diamond storage de cada familia (Long, Short, AMM):
// en vez de un namespace hasheado, un struct explícito que los facets reciben
// por referencia.
//
// Importes en wei (*big.Int). La división entera al repartir expectedProfit
// descarta el resto en cada batch — comportamiento heredado del contrato,
// se preserva sin corregir.

import (
	"fmt"
	"math/big"

	"github.com/alejandrodnm/macrostrike/internal/domain"
)

// viabilityDivisor define el suelo mínimo viable: capitalPerBot/10.
// Un bot por debajo del suelo no participa en el batch.
const viabilityDivisor = 10

// Bot es una sub-cuenta individual del ledger.
type Bot struct {
	Capital   *big.Int
	Attempts  uint64
	Successes uint64
}

// Ledger es el estado contable de una familia. No está sincronizado: el
// modelo de ejecución es estrictamente secuencial (la "transacción" es la
// unidad de atomicidad) y el proxy propietario serializa el acceso.
type Ledger struct {
	family string

	initialCapital *big.Int
	totalCapital   *big.Int // pool libre + headline capital, muta con cada batch
	capitalPerBot  *big.Int // derivado una sola vez en Init
	numBots        int

	bots []Bot

	totalAttempts  uint64
	totalSuccesses uint64
	winRate        uint64   // éxitos*100 / (attempts*numBots), normalizado por bot
	totalProfit    *big.Int // profit neto acumulado de todos los batches
	initialized    bool
}

// New crea un ledger sin inicializar para la familia dada.
// Las lecturas sobre un ledger sin inicializar devuelven ceros, no fallan.
func New(family string) *Ledger {
	return &Ledger{
		family:         family,
		initialCapital: new(big.Int),
		totalCapital:   new(big.Int),
		capitalPerBot:  new(big.Int),
		totalProfit:    new(big.Int),
	}
}

// Family devuelve el nombre de la familia (para eventos y logs).
func (l *Ledger) Family() string { return l.family }

// IsInitialized indica si Init ya se ejecutó.
func (l *Ledger) IsInitialized() bool { return l.initialized }

// NumBots devuelve el número de bots (0 si no está inicializado).
func (l *Ledger) NumBots() int { return l.numBots }

// CapitalPerBot devuelve una copia del capital objetivo por bot.
func (l *Ledger) CapitalPerBot() *big.Int { return new(big.Int).Set(l.capitalPerBot) }

// InitialCapital devuelve una copia del capital con que se inicializó.
func (l *Ledger) InitialCapital() *big.Int { return new(big.Int).Set(l.initialCapital) }

// TotalCapital devuelve una copia del capital total actual.
func (l *Ledger) TotalCapital() *big.Int { return new(big.Int).Set(l.totalCapital) }

// Init reparte initialCapital entre numBots y marca el ledger como
// inicializado. Exactamente una vez por vida del ledger.
func (l *Ledger) Init(initialCapital *big.Int, numBots, maxBots int) error {
	if l.initialized {
		return fmt.Errorf("ledger.Init(%s): %w", l.family, domain.ErrAlreadyInitialized)
	}
	if numBots <= 0 || numBots > maxBots {
		return fmt.Errorf("ledger.Init(%s): %d bots (max %d): %w", l.family, numBots, maxBots, domain.ErrInvalidBotCount)
	}
	if initialCapital == nil || initialCapital.Sign() <= 0 {
		return fmt.Errorf("ledger.Init(%s): %w", l.family, domain.ErrZeroCapital)
	}

	l.initialCapital.Set(initialCapital)
	l.totalCapital.Set(initialCapital)
	l.numBots = numBots
	// División entera: el resto se queda sin repartir, como en el contrato.
	l.capitalPerBot.Div(initialCapital, big.NewInt(int64(numBots)))

	l.bots = make([]Bot, numBots)
	for i := range l.bots {
		l.bots[i].Capital = new(big.Int).Set(l.capitalPerBot)
	}
	l.initialized = true
	return nil
}

// BatchInput son los parámetros mecánicos de un batch. El facet decide la
// política (profit por bot, regla de penalización, función de outcome);
// el ledger solo aplica.
type BatchInput struct {
	// ProfitPerBot es expectedProfit/numBots, ya con la división entera hecha.
	ProfitPerBot *big.Int
	// Penalty devuelve la penalización para un bot desfavorable dado su
	// capital actual (2% del capital para strikes, 1% del trade size en AMM).
	Penalty func(capital *big.Int) *big.Int
	// Decide devuelve el outcome favorable/desfavorable por bot.
	Decide func(bot int) bool
	// JitterBps devuelve el jitter en basis points aplicado al profit del
	// bot favorable (p.ej. -1000..+1000 → 90%..110% del profit base).
	JitterBps func(bot int) int64
	// SuccessThresholdPct es el umbral del flag agregado (93 → ≥93% de bots).
	SuccessThresholdPct uint64
}

// BatchOutcome resume lo aplicado en un batch.
type BatchOutcome struct {
	Eligible  int      // bots por encima del suelo mínimo viable
	Succeeded int      // bots con outcome favorable
	NetProfit *big.Int // ganancias - penalizaciones, puede ser negativo
	Success   bool     // flag agregado: Succeeded >= umbral — solo informativo
}

// ApplyBatch ejecuta un batch sobre todos los bots: los que están por debajo
// del suelo (capitalPerBot/10) se saltan; el resto gana profit con jitter o
// pierde la penalización según Decide. Los contadores y totalCapital se
// actualizan al final. El flag Success NO condiciona ninguna mutación: las
// mutaciones por bot ya ocurrieron cuando se calcula (igual que el contrato).
func (l *Ledger) ApplyBatch(in BatchInput) (BatchOutcome, error) {
	if !l.initialized {
		return BatchOutcome{}, fmt.Errorf("ledger.ApplyBatch(%s): %w", l.family, domain.ErrNotInitialized)
	}

	floor := new(big.Int).Div(l.capitalPerBot, big.NewInt(viabilityDivisor))
	net := new(big.Int)
	succeeded := 0
	eligible := 0

	for i := range l.bots {
		bot := &l.bots[i]
		if bot.Capital.Cmp(floor) < 0 {
			// Bot descapitalizado: ni attempt ni profit.
			continue
		}
		eligible++
		bot.Attempts++

		if in.Decide(i) {
			gain := applyJitter(in.ProfitPerBot, in.JitterBps(i))
			bot.Capital.Add(bot.Capital, gain)
			net.Add(net, gain)
			bot.Successes++
			succeeded++
		} else {
			penalty := in.Penalty(bot.Capital)
			bot.Capital.Sub(bot.Capital, penalty)
			net.Sub(net, penalty)
		}
	}

	l.totalCapital.Add(l.totalCapital, net)
	l.totalProfit.Add(l.totalProfit, net)
	l.totalAttempts++
	l.totalSuccesses += uint64(succeeded)
	l.recomputeWinRate()

	success := uint64(succeeded)*100 >= in.SuccessThresholdPct*uint64(l.numBots)
	return BatchOutcome{
		Eligible:  eligible,
		Succeeded: succeeded,
		NetProfit: net,
		Success:   success,
	}, nil
}

// applyJitter escala base por (10000+bps)/10000 con aritmética entera.
func applyJitter(base *big.Int, bps int64) *big.Int {
	out := new(big.Int).Mul(base, big.NewInt(10000+bps))
	return out.Div(out, big.NewInt(10000))
}

// recomputeWinRate aplica siempre la misma fórmula; winRate nunca deriva
// de otra fuente.
func (l *Ledger) recomputeWinRate() {
	denom := l.totalAttempts * uint64(l.numBots)
	if denom == 0 {
		l.winRate = 0
		return
	}
	l.winRate = l.totalSuccesses * 100 / denom
}

// Rebalance reparte capital del pool libre hacia los bots por debajo del
// objetivo (media de capital por bot). Best-effort: si el pool no alcanza
// para un bot, ese bot se queda corto sin señalizar error. Conserva la suma
// Σ bots + pool. Devuelve el total de capital en bots ANTES de rebalancear.
func (l *Ledger) Rebalance() (*big.Int, error) {
	if !l.initialized {
		return nil, fmt.Errorf("ledger.Rebalance(%s): %w", l.family, domain.ErrNotInitialized)
	}

	before := new(big.Int)
	for i := range l.bots {
		before.Add(before, l.bots[i].Capital)
	}
	target := new(big.Int).Div(before, big.NewInt(int64(l.numBots)))

	for i := range l.bots {
		bot := &l.bots[i]
		if bot.Capital.Cmp(target) >= 0 {
			continue
		}
		shortfall := new(big.Int).Sub(target, bot.Capital)
		if l.totalCapital.Cmp(shortfall) < 0 {
			continue // pool insuficiente: no-op, no error
		}
		l.totalCapital.Sub(l.totalCapital, shortfall)
		bot.Capital.Add(bot.Capital, shortfall)
	}
	return before, nil
}

// StrikeStats devuelve el snapshot en formato strike (long/short).
func (l *Ledger) StrikeStats() domain.StrikeStats {
	return domain.StrikeStats{
		TotalCapital:      new(big.Int).Set(l.totalCapital),
		TotalStrikes:      l.totalAttempts,
		SuccessfulStrikes: l.totalSuccesses,
		WinRate:           l.winRate,
		NumBots:           uint8(l.numBots),
		CapitalPerBot:     new(big.Int).Set(l.capitalPerBot),
	}
}

// AmmStats devuelve el snapshot en formato AMM.
func (l *Ledger) AmmStats(minConfidence uint8) domain.AmmStats {
	return domain.AmmStats{
		TotalCapital:         new(big.Int).Set(l.totalCapital),
		TotalArbitrages:      l.totalAttempts,
		SuccessfulArbitrages: l.totalSuccesses,
		SuccessRate:          l.winRate,
		TotalProfit:          new(big.Int).Set(l.totalProfit),
		MinConfidence:        minConfidence,
	}
}

// BotStatus devuelve el estado de un bot concreto.
func (l *Ledger) BotStatus(i int) (domain.BotStatus, bool) {
	if i < 0 || i >= len(l.bots) {
		return domain.BotStatus{}, false
	}
	floor := new(big.Int).Div(l.capitalPerBot, big.NewInt(viabilityDivisor))
	bot := l.bots[i]
	return domain.BotStatus{
		Index:     i,
		Capital:   new(big.Int).Set(bot.Capital),
		Attempts:  bot.Attempts,
		Successes: bot.Successes,
		Active:    bot.Capital.Cmp(floor) >= 0,
	}, true
}

// Bots devuelve el estado de todos los bots.
func (l *Ledger) Bots() []domain.BotStatus {
	out := make([]domain.BotStatus, 0, len(l.bots))
	for i := range l.bots {
		st, _ := l.BotStatus(i)
		out = append(out, st)
	}
	return out
}

// BotCapitalSum devuelve Σ capital de los bots (para tests de conservación).
func (l *Ledger) BotCapitalSum() *big.Int {
	sum := new(big.Int)
	for i := range l.bots {
		sum.Add(sum, l.bots[i].Capital)
	}
	return sum
}

// Clone devuelve una copia profunda del ledger. Se usa para el rollback
// transaccional de los diamond cuts con initializer.
func (l *Ledger) Clone() *Ledger {
	c := &Ledger{
		family:         l.family,
		initialCapital: new(big.Int).Set(l.initialCapital),
		totalCapital:   new(big.Int).Set(l.totalCapital),
		capitalPerBot:  new(big.Int).Set(l.capitalPerBot),
		numBots:        l.numBots,
		totalAttempts:  l.totalAttempts,
		totalSuccesses: l.totalSuccesses,
		winRate:        l.winRate,
		totalProfit:    new(big.Int).Set(l.totalProfit),
		initialized:    l.initialized,
	}
	c.bots = make([]Bot, len(l.bots))
	for i, b := range l.bots {
		c.bots[i] = Bot{
			Capital:   new(big.Int).Set(b.Capital),
			Attempts:  b.Attempts,
			Successes: b.Successes,
		}
	}
	return c
}
