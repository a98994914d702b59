package main

import (
	"context"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"PaperTrader/internal/advisory"
	"PaperTrader/internal/config"
	"PaperTrader/internal/ledger"
	"PaperTrader/internal/logging"
	"PaperTrader/internal/recorder"
	"PaperTrader/internal/scheduler"
	"PaperTrader/internal/simulator"
	"PaperTrader/internal/strategy"
)

func main() {
	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		os.Stderr.WriteString("load config: " + err.Error() + "\n")
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		os.Stderr.WriteString("config validation: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		os.Stderr.WriteString("init logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	logger.Info("PaperTrader starting...")

	// Init simulator
	seed := cfg.Simulator.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	sim := simulator.New(rand.New(rand.NewSource(seed)), logger)

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, logger)
		if err != nil {
			logger.WithError(err).Warn("init sqlite recorder failed, using noop")
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	// Init advisor: only when an API key is configured, and always behind
	// the rate-limit gate.
	var advisor advisory.Advisor
	if cfg.Advisory.APIKey != "" {
		client := advisory.NewClient(
			cfg.Advisory.BaseURL,
			cfg.Advisory.APIKey,
			cfg.Advisory.Model,
			time.Duration(cfg.Advisory.TimeoutSeconds)*time.Second,
			logger,
		)
		gate := advisory.NewGate(cfg.Advisory.RateLimit, time.Duration(cfg.Advisory.RateWindowSeconds)*time.Second)
		advisor = &advisory.Limited{Advisor: client, Gate: gate}
		logger.WithField("model", cfg.Advisory.Model).Info("advisory client enabled")
	} else {
		logger.Info("no advisory API key, running on local signals only")
	}

	// Init strategy engine
	engine := strategy.NewEngine(sim, advisor, rec, strategy.Options{
		Periods:         cfg.Simulator.Periods,
		CacheTTL:        time.Duration(cfg.Cache.TTLMinutes) * time.Minute,
		AdvisoryTimeout: time.Duration(cfg.Advisory.TimeoutSeconds) * time.Second,
	}, logger)

	// Init ledger and the paper account
	lg := ledger.New(sim, rec, logger)
	lg.CreateAccount(cfg.Account.ID, cfg.Account.StartingBalance)

	auto := ledger.NewAutoTradeController(engine, lg, cfg.Simulator.Timeframe, logger)

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init scheduler
	sched := scheduler.NewScheduler(ctx, engine, lg, auto, logger)
	sched.Instruments = cfg.Simulator.Instruments
	sched.Timeframe = cfg.Simulator.Timeframe
	sched.AutoEnabled = cfg.AutoTrade.Enabled
	sched.AutoAmount = cfg.AutoTrade.Amount
	sched.AutoAccount = cfg.Account.ID
	if err := sched.RegisterAll(cfg.Schedule.AnalysisCron, cfg.AutoTrade.Cron, cfg.Schedule.ExpiryCron); err != nil {
		logger.WithError(err).Fatal("register cron tasks")
	}
	sched.Start()
	defer sched.Stop()

	// Optional: run immediately on start
	if os.Getenv("RUN_ON_START") == "true" {
		logger.Info("RUN_ON_START enabled, executing analysis now")
		go sched.RunAnalysisNow()
	}

	logger.Info("PaperTrader is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutdown signal received, stopping...")
	cancel()
	logger.Info("PaperTrader stopped")
}
