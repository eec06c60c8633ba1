package main

import (
	"context"
	"flag"
	stdlog "log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jwebster45206/tabletop-agents/internal/config"
	"github.com/jwebster45206/tabletop-agents/internal/logger"
	"github.com/jwebster45206/tabletop-agents/internal/services"
	"github.com/jwebster45206/tabletop-agents/internal/storage"
	"github.com/jwebster45206/tabletop-agents/pkg/scenario"
	"github.com/jwebster45206/tabletop-agents/pkg/session"
)

func main() {
	scenarioPath := flag.String("scenario", "", "path to the scenario file (.json or .yaml)")
	rounds := flag.Int("rounds", 0, "override MAX_ROUNDS for this session")
	flag.Parse()

	if *scenarioPath == "" {
		stdlog.Fatal("usage: session -scenario <file> [-rounds N]")
	}

	cfg, err := config.Load()
	if err != nil {
		stdlog.Fatal(err)
	}

	log := logger.Setup(cfg)

	log.Info("Starting tabletop session runner",
		"environment", cfg.Environment,
		"provider", cfg.OracleProvider,
		"scenario", *scenarioPath)

	sc, err := scenario.Load(*scenarioPath)
	if err != nil {
		log.Error("Failed to load scenario", "error", err)
		os.Exit(1)
	}

	oracleService, err := services.NewOracle(cfg, log)
	if err != nil {
		log.Error("Failed to create oracle", "error", err)
		os.Exit(1)
	}
	log.Info("Oracle service initialized", "provider", cfg.OracleProvider)

	storageService := storage.NewRedisStorage(cfg.RedisURL, log)
	defer func() {
		if err := storageService.Close(); err != nil {
			log.Error("Error closing storage", "error", err)
		}
	}()

	storageCtx, storageCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer storageCancel()
	if err := storageService.Ping(storageCtx); err != nil {
		log.Error("Failed to connect to storage", "error", err)
		os.Exit(1)
	}
	log.Info("Storage service initialized")

	maxRounds := cfg.MaxRounds
	if *rounds > 0 {
		maxRounds = *rounds
	}

	coord, err := session.NewCoordinator(session.Options{
		Scenario:   sc,
		Oracle:     oracleService,
		Logger:     log,
		MaxRounds:  maxRounds,
		Transcript: storageService,
	})
	if err != nil {
		logger.WithError(log, err).Error("Failed to create session")
		os.Exit(1)
	}
	log = logger.WithSessionID(log, coord.SessionID())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Info("Shutdown signal received", "signal", sig)
		coord.RequestEnd()
		cancel()
	}()

	if err := coord.Start(ctx); err != nil && err != context.Canceled {
		logger.WithError(log, err).Error("Session ended with error")
	}

	saveCtx, saveCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer saveCancel()
	if err := storageService.SaveSession(saveCtx, coord.SnapshotForSave()); err != nil {
		logger.WithError(log, err).Error("Failed to save session")
		os.Exit(1)
	}
	log.Info("Session saved", "rounds", coord.Round())
}
