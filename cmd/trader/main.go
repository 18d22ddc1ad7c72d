package main

import (
	"context"
	"errors"
	"log"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/uhyunpark/papertrader/params"
	"github.com/uhyunpark/papertrader/pkg/api"
	"github.com/uhyunpark/papertrader/pkg/storage"
	"github.com/uhyunpark/papertrader/pkg/tools"
	"github.com/uhyunpark/papertrader/pkg/trade"
	"github.com/uhyunpark/papertrader/pkg/util"
)

func main() {
	// Load config from .env file and environment variables
	cfg := params.LoadFromEnv("") // "" means load from .env in current directory

	logger, err := util.NewLoggerWithFile(cfg.Log.File, cfg.Log.Level)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)
	sugar := logger.Sugar()
	sugar.Infow("logger_initialized", "log_file", cfg.Log.File, "level", cfg.Log.Level)

	// ---- Journal (optional) ----
	journal, reader, closeJournal, err := openJournal(cfg.Journal.Path)
	if err != nil {
		sugar.Fatalw("journal_open_failed", "path", cfg.Journal.Path, "err", err)
	}
	defer closeJournal()
	if cfg.Journal.Path != "" {
		sugar.Infow("journal_enabled", "path", cfg.Journal.Path)
	}

	// ---- Engine ----
	engine := trade.New(trade.Options{
		Logger:  logger,
		Journal: journal,
		StartingCash: map[trade.Currency]decimal.Decimal{
			trade.USD: cfg.Engine.StartUSD,
			trade.JPY: cfg.Engine.StartJPY,
			trade.CNY: cfg.Engine.StartCNY,
		},
		SettleMin: cfg.Engine.SettleMin,
		SettleMax: cfg.Engine.SettleMax,
	})

	if cfg.Engine.SeedDemo {
		seed := uint64(cfg.Engine.Seed)
		if seed == 0 {
			seed = uint64(time.Now().UnixNano())
		}
		engine.SeedDemo(rand.New(rand.NewPCG(seed, seed>>1|1)))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sugar.Infow("engine_starting",
		"settle_min_ms", cfg.Engine.SettleMin.Milliseconds(),
		"settle_max_ms", cfg.Engine.SettleMax.Milliseconds(),
		"seed_demo", cfg.Engine.SeedDemo)

	// Settlement loop fills pending limit orders as they come due
	engineDone := make(chan struct{})
	go func() {
		defer close(engineDone)
		if err := engine.Run(ctx); err != nil && ctx.Err() == nil {
			sugar.Errorw("engine_failed", "err", err)
		}
	}()

	// ---- API Server ----
	apiServer := api.NewServer(api.Options{
		Engine:      engine,
		Dispatcher:  tools.NewDispatcher(engine, tools.NewTickets(), logger),
		Journal:     reader,
		CORSOrigins: cfg.API.CORSOrigins,
		Logger:      logger,
	})

	sugar.Infow("api_server_starting", "addr", cfg.API.Addr)
	if err := apiServer.Start(ctx, cfg.API.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		sugar.Errorw("api_server_failed", "err", err)
		stop()
	}

	<-engineDone
	sugar.Infow("shutdown_complete", "pending_orders", engine.PendingCount())
}

// openJournal picks the journal backend from the path: "" disables it,
// *.jsonl appends JSON lines, anything else is a Pebble directory. Only the
// Pebble journal can serve audit queries.
func openJournal(path string) (trade.Journal, api.JournalReader, func(), error) {
	if path == "" {
		return trade.NopJournal{}, nil, func() {}, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, nil, err
	}

	if strings.HasSuffix(path, ".jsonl") {
		j, err := storage.NewFileJournal(path)
		if err != nil {
			return nil, nil, nil, err
		}
		return j, nil, closeLogged(j.Close), nil
	}

	j, err := storage.NewPebbleJournal(path)
	if err != nil {
		return nil, nil, nil, err
	}
	return j, j, closeLogged(j.Close), nil
}

func closeLogged(closeFn func() error) func() {
	return func() {
		if err := closeFn(); err != nil {
			zap.L().Warn("journal_close_failed", zap.Error(err))
		}
	}
}
