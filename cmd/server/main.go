package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"goxbridge/auction"
	"goxbridge/config"
	"goxbridge/redis"
	"goxbridge/relayer"
	"goxbridge/workers"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	configPath := "config.yml"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	// errors bubble up here so deferred cleanup in run still executes
	if err := run(configPath); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(2)
	}
}

func run(configPath string) error {
	// a config that fails validation makes every later step incorrect
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("cannot build logger: %w", err)
	}
	defer logger.Sync()

	logger.Infow("starting cross-chain sequencer",
		"network", cfg.Network, "environment", cfg.Environment, "domains", len(cfg.Domains))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// all cross-process state lives in the shared cache; without it do not
	// continue
	store := redis.New(cfg.Server.RedisHost, cfg.Server.RedisPort)
	if err := store.Ping(ctx); err != nil {
		return fmt.Errorf("cannot reach redis: %w", err)
	}

	engine := auction.NewEngine(logger, store, store, cfg.Server.AdminToken,
		time.Duration(cfg.AuctionWaitTime)*time.Second)

	poller := workers.NewPoller(logger, cfg, store, engine)
	executor := workers.NewExecutor(logger, cfg, store, engine,
		relayer.New(logger, cfg.Relayer.URL), relayer.NewFeeOracle(cfg.FeeOracle.URL))
	server := workers.NewHTTPServer(logger, engine, store, cfg.Server.Port)

	go poller.Run(ctx)
	go executor.Run(ctx)

	// the bid service doubles as the main thread
	if err := server.Run(ctx); err != nil {
		return fmt.Errorf("bid service failed: %w", err)
	}
	return nil
}

func newLogger(level string) (*zap.SugaredLogger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}

	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(lvl)
	logger, err := zapCfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.Sugar(), nil
}
