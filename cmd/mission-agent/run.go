package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/stake-plus/mission-agent/src/agent"
	"github.com/stake-plus/mission-agent/src/config"
	"github.com/stake-plus/mission-agent/src/cooldown"
	"github.com/stake-plus/mission-agent/src/data"
	"github.com/stake-plus/mission-agent/src/logging"
	"github.com/stake-plus/mission-agent/src/notify"
	"github.com/stake-plus/mission-agent/src/remote"
	"github.com/stake-plus/mission-agent/src/solver"
	"github.com/stake-plus/mission-agent/src/status"
	"github.com/stake-plus/mission-agent/src/webclient"
)

func run(ctx context.Context, opts *options) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := logging.New("main")

	src, err := loadSource(logger, opts.configPath)
	if err != nil {
		return err
	}
	cfg, err := config.Load(src)
	if err != nil {
		logger.Printf("Configuration error: %v", err)
		return err
	}

	printSummary(logger, cfg)
	if exp, ok := config.BearerExpiry(cfg.BearerToken); ok && exp.Before(time.Now()) {
		logger.Printf("WARN: bearer token expired at %s", exp.Format(time.RFC3339))
	}
	if opts.dryRun {
		return nil
	}

	a, closeDeps, err := buildAgent(ctx, cfg)
	if err != nil {
		logger.Printf("Failed to build agent: %v", err)
		return err
	}
	defer closeDeps()

	if opts.once {
		return runOnce(ctx, logger, a)
	}
	return runLoop(ctx, logger, cfg, a)
}

func loadSource(logger *log.Logger, path string) (config.Source, error) {
	file, err := config.LoadFile(path)
	if err != nil {
		return config.Source{}, fmt.Errorf("load config file: %w", err)
	}
	src := config.Source{File: file}

	dsn, err := data.GetMySQLDSN()
	if errors.Is(err, data.ErrNoDSN) {
		return src, nil
	}
	db, err := data.ConnectMySQL(dsn)
	if err != nil {
		return src, fmt.Errorf("connect mysql: %w", err)
	}
	settings, err := data.LoadSettings(db)
	if err != nil {
		logger.Printf("Failed to load settings: %v", err)
		return src, nil
	}
	src.Settings = settings
	return src, nil
}

func printSummary(logger *log.Logger, cfg config.Config) {
	summary := cfg.Summary()
	keys := make([]string, 0, len(summary))
	for k := range summary {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	logger.Println("Configuration:")
	for _, k := range keys {
		logger.Printf("  %s: %v", k, summary[k])
	}
}

func buildAgent(ctx context.Context, cfg config.Config) (*agent.Agent, func(), error) {
	closers := []func(){}
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	transport := webclient.New(cfg.BaseURL, cfg.BearerToken, webclient.NewDefault(cfg.HTTPTimeout))
	client := remote.NewClient(transport, logging.New("remote"))

	var store cooldown.Store = cooldown.NewMemoryStore()
	if cfg.RedisURL != "" {
		rdb, err := data.ConnectRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect redis: %w", err)
		}
		closers = append(closers, func() { _ = rdb.Close() })
		store = cooldown.NewRedisStore(rdb, cfg.BearerToken)
	}

	var notifier notify.Notifier = notify.Nop{}
	if cfg.DiscordToken != "" {
		d, err := notify.NewDiscord(cfg.DiscordToken, cfg.DiscordChannelID)
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("discord notifier: %w", err)
		}
		notifier = d
	}

	registry := solver.NewDefault()
	agentLogger := logging.New("agent")
	agentLogger.Printf("Registered solvers: %s", strings.Join(registry.Types(), ", "))

	a, err := agent.New(agent.Config{
		Delay:               cfg.Delay,
		PreferredDifficulty: cfg.PreferredDifficulty,
		EnergyThreshold:     cfg.EnergyThreshold,
		ErrorBackoff:        cfg.ErrorBackoff,
		RateLimitCooldown:   cfg.RateLimitCooldown,
	}, agent.Deps{
		Remote:   client,
		Solver:   registry,
		Cooldown: store,
		Notifier: notifier,
		Logger:   agentLogger,
	})
	if err != nil {
		closeAll()
		return nil, nil, err
	}
	return a, closeAll, nil
}

func runOnce(ctx context.Context, logger *log.Logger, a *agent.Agent) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	outcome, err := a.RunCycle(ctx)
	logger.Printf("Cycle finished: %s", outcome)
	return err
}

func runLoop(ctx context.Context, logger *log.Logger, cfg config.Config, a *agent.Agent) error {
	var srv *status.Server
	if cfg.StatusAddr != "" {
		srv = status.New(cfg.StatusAddr, a, logging.New("status"))
		srv.Start()
	}

	a.Start(ctx)
	logger.Println("Agent is running. Press CTRL-C to exit.")

	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	defer signal.Stop(sc)
	select {
	case <-sc:
	case <-ctx.Done():
	}

	logger.Println("Stopping agent; waiting for the current cycle to finish...")
	a.Stop()
	a.Wait()

	if srv != nil {
		shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutCtx); err != nil {
			logger.Printf("Status server shutdown: %v", err)
		}
	}
	logger.Println("Agent stopped gracefully")
	return nil
}
