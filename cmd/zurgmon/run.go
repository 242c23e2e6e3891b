package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/dkotenko/zurgmon/internal/config"
	"github.com/dkotenko/zurgmon/internal/domain/torrent"
	"github.com/dkotenko/zurgmon/internal/obs"
	"github.com/dkotenko/zurgmon/internal/ratelimit"
	kafkarepo "github.com/dkotenko/zurgmon/internal/repository/kafka"
	"github.com/dkotenko/zurgmon/internal/services/monitor"
	"github.com/dkotenko/zurgmon/internal/zurg"
)

func run(opts options) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	// CLI flags override the file.
	if opts.baseURL != "" {
		cfg.Zurg.URL = opts.baseURL
	}
	if opts.interval > 0 {
		cfg.Monitor.Interval = opts.interval
	}
	if opts.dryRun {
		cfg.Monitor.DryRun = true
	}

	l, err := obs.NewLogger(cfg.Log.AsLoggerConfig(version))
	if err != nil {
		return err
	}
	defer func() { _ = l.Sync() }()

	l.Info("starting zurgmon",
		zap.String("zurg_url", cfg.Zurg.URL),
		zap.Duration("interval", cfg.Monitor.Interval),
		zap.Bool("run_once", opts.once),
		zap.Bool("auth", cfg.Zurg.Username != ""))
	if cfg.Monitor.DryRun {
		l.Warn("dry run mode: no repairs will be triggered")
	}

	tracing, err := obs.SetupTracing(ctx, cfg.OTEL.AsTraceConfig())
	if err != nil {
		l.Error("tracing init failed", zap.Error(err))
		return err
	}
	defer func() { _ = tracing.Shutdown(context.Background()) }()

	lim := ratelimit.New(cfg.RateLimit.AsLimiterConfig(), l)
	client := zurg.NewClient(zurg.Config{
		BaseURL:   strings.TrimRight(cfg.Zurg.URL, "/"),
		Username:  cfg.Zurg.Username,
		Password:  cfg.Zurg.Password,
		Timeout:   cfg.Zurg.Timeout,
		VerifyTLS: cfg.Zurg.VerifyTLS,
		UserAgent: cfg.Zurg.UserAgent,
		DryRun:    cfg.Monitor.DryRun,
	}, lim, l)

	// Refuse to start monitoring a server we cannot reach.
	if err := client.Ping(ctx); err != nil {
		l.Error("cannot reach zurg", zap.Error(err))
		return err
	}
	l.Info("connected to zurg")

	tracker := monitor.NewStatsTracker()

	var events monitor.Events
	if cfg.Kafka.Enabled {
		prod := kafkarepo.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic, l)
		defer func() { _ = prod.Close() }()
		events = kafkarepo.NewMonitorEvents(prod, l)
	}

	engine := &monitor.Engine{
		API:    client,
		Stats:  tracker,
		Events: events,
		Clock:  monitor.SystemClock{},
		Log:    l,
	}
	runner := &monitor.Runner{
		Log:      l,
		Engine:   engine,
		Interval: cfg.Monitor.Interval,
		Once:     opts.once,
	}

	ms := obs.BootstrapMetricsServer(cfg.Server.MetricsAddr, tracker.Health,
		func() any { return tracker.Snapshot() }, l)

	errCh := make(chan error, 1)
	go func() { errCh <- runner.Run(ctx) }()

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
	}

	shCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_ = ms.Shutdown(shCtx)

	logOverallStats(l, tracker.Snapshot())

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		l.Error("monitor stopped with error", zap.Error(runErr))
		return runErr
	}
	l.Info("monitoring stopped")
	return nil
}

func logOverallStats(l *zap.Logger, s torrent.RunStats) {
	l.Info("overall statistics",
		zap.Int64("checks_performed", s.ChecksPerformed),
		zap.Int64("total_broken_seen", s.TotalBrokenSeen),
		zap.Int64("total_repairs_triggered", s.TotalRepairsTriggered),
		zap.String("last_check", fmtTime(s.LastCheckAt)),
		zap.String("last_broken_found", fmtTime(s.LastBrokenAt)))
}

func fmtTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Format(time.RFC3339)
}
