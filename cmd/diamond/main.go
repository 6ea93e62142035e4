package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"

	"github.com/alejandrodnm/macrostrike/config"
	"github.com/alejandrodnm/macrostrike/internal/adapters/feed"
	"github.com/alejandrodnm/macrostrike/internal/adapters/notify"
	"github.com/alejandrodnm/macrostrike/internal/adapters/storage"
	"github.com/alejandrodnm/macrostrike/internal/engine"
	"github.com/alejandrodnm/macrostrike/internal/ports"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	once := flag.Bool("once", false, "run one coordinated cycle and exit")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	table := flag.Bool("table", false, "print full per-family table (default: compact 1-line)")
	noJournal := flag.Bool("no-journal", false, "skip the SQLite audit journal")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	setupLogger(cfg.Log)

	slog.Info("macrostrike starting",
		"config", *configPath,
		"interval", cfg.CycleInterval(),
		"once", *once,
		"min_confidence", cfg.Diamond.MinConfidence,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var audit ports.AuditSink
	if !*noJournal {
		journal, err := storage.NewJournal(cfg.Storage.DSN)
		if err != nil {
			slog.Error("failed to open journal", "err", err, "dsn", cfg.Storage.DSN)
			os.Exit(1)
		}
		defer journal.Close()
		audit = journal
	}

	deployCfg, err := buildDeployConfig(cfg)
	if err != nil {
		slog.Error("invalid diamond config", "err", err)
		os.Exit(1)
	}

	graph, err := engine.Deploy(ctx, deployCfg, audit)
	if err != nil {
		slog.Error("failed to deploy diamond graph", "err", err)
		os.Exit(1)
	}

	source := feed.NewSynthetic(cfg.Engine.FeedSeed, deployCfg.Pools, cfg.Engine.FeedBatch, nil)
	notifier := notify.NewConsole(*table)

	engCfg := engine.DefaultConfig()
	engCfg.CycleInterval = cfg.CycleInterval()
	engCfg.RebalanceEvery = cfg.Engine.RebalanceEvery
	engCfg.OpsPerSec = cfg.Engine.OpsPerSec
	engCfg.DryRun = *once

	e := engine.New(engCfg, graph.Master, source, notifier)
	if err := e.Run(ctx); err != nil {
		slog.Error("engine exited with error", "err", err)
		os.Exit(1)
	}

	slog.Info("macrostrike stopped cleanly")
}

func buildDeployConfig(cfg *config.Config) (engine.DeployConfig, error) {
	var out engine.DeployConfig
	out.MinConfidence = cfg.Diamond.MinConfidence

	families := []struct {
		fam *engine.FamilyConfig
		src config.FamilyConfig
	}{
		{&out.Long, cfg.Diamond.Long},
		{&out.Short, cfg.Diamond.Short},
		{&out.AMM, cfg.Diamond.AMM},
	}
	for _, f := range families {
		capital, err := f.src.Capital()
		if err != nil {
			return out, err
		}
		f.fam.InitialCapital = capital
		f.fam.Bots = f.src.Bots
	}

	for _, hex := range cfg.Diamond.Pools {
		out.Pools = append(out.Pools, common.HexToAddress(hex))
	}
	if len(out.Pools) == 0 {
		// deterministic demo pools so the synthetic feed has two legs
		out.Pools = []common.Address{
			common.HexToAddress("0x0000000000000000000000000000000000000a01"),
			common.HexToAddress("0x0000000000000000000000000000000000000a02"),
		}
	}
	return out, nil
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
