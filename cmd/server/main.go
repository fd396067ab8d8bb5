// Package main is the entry point for the riskcalc portfolio risk engine.
// It wires the price store, calculation cache, risk service and HTTP
// server, then blocks until a shutdown signal arrives.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aristath/riskcalc/internal/config"
	"github.com/aristath/riskcalc/internal/database"
	"github.com/aristath/riskcalc/internal/modules/marketdata"
	"github.com/aristath/riskcalc/internal/modules/risk"
	riskhandlers "github.com/aristath/riskcalc/internal/modules/risk/handlers"
	"github.com/aristath/riskcalc/internal/scheduler"
	"github.com/aristath/riskcalc/internal/server"
	"github.com/aristath/riskcalc/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().Msg("Starting riskcalc")

	historyDB, err := database.New(database.Config{
		Path:    cfg.HistoryDBPath(),
		Profile: database.ProfileStandard,
		Name:    "history",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open history database")
	}
	defer historyDB.Close()

	cacheDB, err := database.New(database.Config{
		Path:    cfg.CacheDBPath(),
		Profile: database.ProfileCache,
		Name:    "cache",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open cache database")
	}
	defer cacheDB.Close()

	store := marketdata.NewStore(historyDB.Conn(), log)
	if err := store.Init(); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize price store")
	}

	cache := marketdata.NewCache(cacheDB.Conn(), cfg.CacheTTL, log)
	if err := cache.Init(); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize calculation cache")
	}

	provider := marketdata.NewProvider(store, cache, log)

	riskService := risk.NewService(risk.Defaults{
		Simulations:    cfg.Simulations,
		BootstrapDraws: cfg.BootstrapDraws,
	}, log)

	sched, err := scheduler.New(cache, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create scheduler")
	}
	sched.Start()
	defer sched.Stop()

	srv := server.New(server.Config{
		Log:          log,
		Cfg:          cfg,
		RiskHandlers: riskhandlers.NewHandler(provider, store, riskService, log),
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatal().Err(err).Msg("Server failed")
		}
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}

	log.Info().Msg("riskcalc stopped")
}
