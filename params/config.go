package params

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type API struct {
	Addr        string
	CORSOrigins []string // empty = allow all (development)
}

type Log struct {
	File  string // empty = stdout only
	Level string
}

type Engine struct {
	// Settlement delay bounds for pending limit orders.
	// The delay is derived from the order id, so it is stable per order.
	SettleMin time.Duration
	SettleMax time.Duration

	StartUSD decimal.Decimal
	StartJPY decimal.Decimal
	StartCNY decimal.Decimal

	SeedDemo bool
	Seed     int64 // 0 = time-based
}

type Journal struct {
	Path string // empty = disabled
}

type Config struct {
	API     API
	Log     Log
	Engine  Engine
	Journal Journal
}

func Default() Config {
	return Config{
		API: API{Addr: ":8080"},
		Log: Log{File: "data/trader.log", Level: "info"},
		Engine: Engine{
			SettleMin: 60 * time.Second,
			SettleMax: 300 * time.Second,
			StartUSD:  decimal.NewFromInt(100_000),
			StartJPY:  decimal.NewFromInt(10_000_000),
			StartCNY:  decimal.NewFromInt(500_000),
			SeedDemo:  true,
		},
	}
}

// LoadFromEnv loads configuration from .env file (if exists) and environment variables
// Priority: ENV > .env file > defaults
func LoadFromEnv(envPath string) Config {
	cfg := Default()

	// Try to load .env file (optional - won't fail if not exists)
	if envPath != "" {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load() // loads .env from current directory
	}

	cfg.API.Addr = getEnv("API_ADDR", cfg.API.Addr)
	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.API.CORSOrigins = append(cfg.API.CORSOrigins, o)
			}
		}
	}

	// LOG_FILE="" explicitly disables the file sink
	if f, ok := os.LookupEnv("LOG_FILE"); ok {
		cfg.Log.File = f
	}
	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)

	if ms := os.Getenv("SETTLE_MIN_MS"); ms != "" {
		if v, err := strconv.Atoi(ms); err == nil && v > 0 {
			cfg.Engine.SettleMin = time.Duration(v) * time.Millisecond
		}
	}
	if ms := os.Getenv("SETTLE_MAX_MS"); ms != "" {
		if v, err := strconv.Atoi(ms); err == nil && v > 0 {
			cfg.Engine.SettleMax = time.Duration(v) * time.Millisecond
		}
	}
	if cfg.Engine.SettleMax < cfg.Engine.SettleMin {
		cfg.Engine.SettleMax = cfg.Engine.SettleMin
	}

	cfg.Engine.StartUSD = getEnvDecimal("START_USD", cfg.Engine.StartUSD)
	cfg.Engine.StartJPY = getEnvDecimal("START_JPY", cfg.Engine.StartJPY)
	cfg.Engine.StartCNY = getEnvDecimal("START_CNY", cfg.Engine.StartCNY)

	if seedDemo := os.Getenv("SEED_DEMO"); seedDemo != "" {
		cfg.Engine.SeedDemo = seedDemo == "true"
	}
	if seed := os.Getenv("SEED"); seed != "" {
		if v, err := strconv.ParseInt(seed, 10, 64); err == nil {
			cfg.Engine.Seed = v
		}
	}

	cfg.Journal.Path = getEnv("JOURNAL_PATH", cfg.Journal.Path)

	return cfg
}

// getEnv returns environment variable value or default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvDecimal parses a non-negative amount, keeping the default on bad input
func getEnvDecimal(key string, defaultValue decimal.Decimal) decimal.Decimal {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := decimal.NewFromString(value)
	if err != nil || d.IsNegative() {
		return defaultValue
	}
	return d
}
