package engine

// engine.go — the coordinator loop.
//
// Pulls signal batches from the opportunity source, encodes each one as an
// opaque operation payload, and drives it through the master's coordinated
// fan-out. Per-operation pacing goes through a rate limiter; every
// RebalanceEvery cycles a coordinated rebalance tops the bots back up.

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/alejandrodnm/macrostrike/internal/codec"
	"github.com/alejandrodnm/macrostrike/internal/domain"
	"github.com/alejandrodnm/macrostrike/internal/ports"
	"github.com/alejandrodnm/macrostrike/internal/proxy"
)

// Config controls the coordinator loop.
type Config struct {
	CycleInterval  time.Duration
	RebalanceEvery int     // cycles between coordinated rebalances; 0 disables
	OpsPerSec      float64 // operation pacing inside a cycle
	DryRun         bool    // run one cycle and stop
}

// DefaultConfig returns a sensible production configuration.
func DefaultConfig() Config {
	return Config{
		CycleInterval:  30 * time.Second,
		RebalanceEvery: 10,
		OpsPerSec:      5,
	}
}

// Engine drives the deployed graph from an opportunity source.
type Engine struct {
	cfg      Config
	master   *proxy.Master
	source   ports.OpportunitySource
	notifier ports.Notifier
	limiter  *rate.Limiter

	cycles int
}

// New creates an Engine with all dependencies injected.
func New(cfg Config, master *proxy.Master, source ports.OpportunitySource, notifier ports.Notifier) *Engine {
	ops := cfg.OpsPerSec
	if ops <= 0 {
		ops = 5
	}
	return &Engine{
		cfg:      cfg,
		master:   master,
		source:   source,
		notifier: notifier,
		limiter:  rate.NewLimiter(rate.Limit(ops), 1),
	}
}

// Run executes the coordinator loop until the context is canceled.
// In DryRun mode it executes exactly one cycle.
func (e *Engine) Run(ctx context.Context) error {
	slog.Info("engine starting",
		"interval", e.cfg.CycleInterval,
		"rebalance_every", e.cfg.RebalanceEvery,
		"dry_run", e.cfg.DryRun,
	)

	if err := e.runCycle(ctx); err != nil {
		slog.Error("cycle failed", "err", err)
		if e.cfg.DryRun {
			return err
		}
	}
	if e.cfg.DryRun {
		return nil
	}

	ticker := time.NewTicker(e.cfg.CycleInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("engine stopped")
			return nil
		case <-ticker.C:
			if err := e.runCycle(ctx); err != nil {
				slog.Error("cycle failed", "err", err)
			}
		}
	}
}

// RunOnce executes exactly one cycle.
func (e *Engine) RunOnce(ctx context.Context) error {
	return e.runCycle(ctx)
}

func (e *Engine) runCycle(ctx context.Context) error {
	start := time.Now()

	signals, err := e.source.NextBatch(ctx)
	if err != nil {
		return fmt.Errorf("engine.runCycle: source: %w", err)
	}

	executed := 0
	for _, sig := range signals {
		if err := e.limiter.Wait(ctx); err != nil {
			return err
		}
		if err := e.execute(ctx, sig); err != nil {
			// A coordinated call only fails on registry problems; signal-level
			// rejections are already folded into the result vector.
			slog.Warn("coordinated operation failed", "kind", sig.Kind.String(), "err", err)
			continue
		}
		executed++
	}

	e.cycles++
	if e.cfg.RebalanceEvery > 0 && e.cycles%e.cfg.RebalanceEvery == 0 {
		if err := e.rebalance(ctx); err != nil {
			slog.Warn("coordinated rebalance failed", "err", err)
		}
	}

	slog.Debug("cycle complete",
		"signals", len(signals),
		"executed", executed,
		"elapsed", time.Since(start),
	)
	return nil
}

func (e *Engine) execute(ctx context.Context, sig domain.Signal) error {
	payload, err := encodeSignal(sig)
	if err != nil {
		return err
	}

	result, err := e.master.ExecuteCoordinated(ctx, sig.Kind, payload)
	if err != nil {
		return err
	}

	stats := e.master.AggregateStats(ctx)
	if e.notifier != nil {
		if err := e.notifier.Notify(ctx, result, stats); err != nil {
			slog.Warn("notifier error", "err", err)
		}
	}
	return nil
}

func (e *Engine) rebalance(ctx context.Context) error {
	result, err := e.master.ExecuteCoordinated(ctx, domain.OpRebalance, nil)
	if err != nil {
		return err
	}
	slog.Info("rebalance fanned out", "children_ok", result.Succeeded())
	return nil
}

// encodeSignal packs a signal into the opaque payload for its kind.
func encodeSignal(sig domain.Signal) ([]byte, error) {
	switch sig.Kind {
	case domain.OpStrike:
		if sig.Strike == nil {
			return nil, fmt.Errorf("engine.encodeSignal: strike signal without opportunity")
		}
		return codec.PackStrike(*sig.Strike)
	case domain.OpArbitrage:
		if sig.Prediction == nil || sig.Path == nil {
			return nil, fmt.Errorf("engine.encodeSignal: arbitrage signal missing prediction or path")
		}
		return codec.PackArbitrage(*sig.Prediction, *sig.Path)
	case domain.OpRebalance:
		return nil, nil
	default:
		return nil, fmt.Errorf("engine.encodeSignal: %s: %w", sig.Kind, domain.ErrUnknownOperation)
	}
}
