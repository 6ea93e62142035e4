package config

import (
	"fmt"
	"math/big"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config es la configuración completa del coordinador.
type Config struct {
	Diamond DiamondConfig `yaml:"diamond"`
	Engine  EngineConfig  `yaml:"engine"`
	Storage StorageConfig `yaml:"storage"`
	Log     LogConfig     `yaml:"log"`
}

// FamilyConfig dimensiona el ledger de una familia de estrategia.
type FamilyConfig struct {
	Bots              int    `yaml:"bots"`
	InitialCapitalWei string `yaml:"initial_capital_wei"`
}

// DiamondConfig controla el grafo de diamonds.
type DiamondConfig struct {
	MinConfidence uint8        `yaml:"min_confidence"` // gate del contrato, 93 por defecto
	Long          FamilyConfig `yaml:"long"`
	Short         FamilyConfig `yaml:"short"`
	AMM           FamilyConfig `yaml:"amm"`
	Pools         []string     `yaml:"pools"` // direcciones hex de pools aprobados
}

// EngineConfig controla el loop del coordinador.
type EngineConfig struct {
	IntervalSeconds int     `yaml:"interval_seconds"`
	RebalanceEvery  int     `yaml:"rebalance_every"`
	OpsPerSec       float64 `yaml:"ops_per_sec"`
	FeedBatch       int     `yaml:"feed_batch"`
	FeedSeed        int64   `yaml:"feed_seed"`
}

// StorageConfig controla dónde se persiste el journal de auditoría.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // ruta al archivo SQLite, o ":memory:"
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si
// existe. Las variables de entorno sobreescriben las keys que correspondan.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// CycleInterval devuelve el intervalo del loop como time.Duration.
func (c *Config) CycleInterval() time.Duration {
	return time.Duration(c.Engine.IntervalSeconds) * time.Second
}

// Capital parsea initial_capital_wei a *big.Int.
func (f FamilyConfig) Capital() (*big.Int, error) {
	v, ok := new(big.Int).SetString(f.InitialCapitalWei, 10)
	if !ok || v.Sign() <= 0 {
		return nil, fmt.Errorf("config: initial_capital_wei %q no es un entero positivo", f.InitialCapitalWei)
	}
	return v, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("STORAGE_DSN"); v != "" {
		cfg.Storage.DSN = v
	}
}

func setDefaults(cfg *Config) {
	if cfg.Diamond.MinConfidence == 0 {
		cfg.Diamond.MinConfidence = 93
	}
	if cfg.Diamond.Long.Bots <= 0 {
		cfg.Diamond.Long.Bots = 25
	}
	if cfg.Diamond.Short.Bots <= 0 {
		cfg.Diamond.Short.Bots = 25
	}
	if cfg.Diamond.AMM.Bots <= 0 {
		cfg.Diamond.AMM.Bots = 50
	}
	// 2.5M unidades a 1e18, el capital del escenario de referencia
	defaultCapital := "2500000000000000000000000"
	if cfg.Diamond.Long.InitialCapitalWei == "" {
		cfg.Diamond.Long.InitialCapitalWei = defaultCapital
	}
	if cfg.Diamond.Short.InitialCapitalWei == "" {
		cfg.Diamond.Short.InitialCapitalWei = defaultCapital
	}
	if cfg.Diamond.AMM.InitialCapitalWei == "" {
		cfg.Diamond.AMM.InitialCapitalWei = defaultCapital
	}
	if cfg.Engine.IntervalSeconds <= 0 {
		cfg.Engine.IntervalSeconds = 30
	}
	if cfg.Engine.RebalanceEvery < 0 {
		cfg.Engine.RebalanceEvery = 0
	}
	if cfg.Engine.OpsPerSec <= 0 {
		cfg.Engine.OpsPerSec = 5
	}
	if cfg.Engine.FeedBatch <= 0 {
		cfg.Engine.FeedBatch = 3
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "macrostrike.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}

func validate(cfg *Config) error {
	for _, f := range []struct {
		name string
		fam  FamilyConfig
		max  int
	}{
		{"long", cfg.Diamond.Long, 25},
		{"short", cfg.Diamond.Short, 25},
		{"amm", cfg.Diamond.AMM, 50},
	} {
		if f.fam.Bots > f.max {
			return fmt.Errorf("config: %s.bots %d supera el cap %d", f.name, f.fam.Bots, f.max)
		}
		if _, err := f.fam.Capital(); err != nil {
			return fmt.Errorf("config: %s: %w", f.name, err)
		}
	}
	return nil
}
