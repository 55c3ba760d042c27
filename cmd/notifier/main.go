package main

import (
	"context"
	"os"
	"time"

	"bybitnotifier/config"
	"bybitnotifier/internal/account"
	"bybitnotifier/internal/metrics"
	"bybitnotifier/internal/scheduler"
	"bybitnotifier/internal/server"
	"bybitnotifier/logger"
	"bybitnotifier/pkg/bybit"
	"bybitnotifier/pkg/telegram"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

func main() {
	fx.New(
		fx.Provide(
			loadConfig,
			newLogger,
			newRegistry,
			func(reg *prometheus.Registry) *metrics.Metrics { return metrics.New(reg) },
			newBybitClient,
			newAccountService,
			newTelegramClient,
			newScheduler,
		),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Named("fx")}
		}),
		fx.Invoke(runScheduler, runStatusServer),
	).Run()
}

// viper config; CONFIG_DIR is searched before the default location
func loadConfig() (*config.Config, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	var dirs []string
	if dir := os.Getenv("CONFIG_DIR"); dir != "" {
		dirs = append(dirs, dir)
	}
	return config.Load(ctx, dirs...)
}

// zap logger
func newLogger(lc fx.Lifecycle, cfg *config.Config) (*zap.Logger, error) {
	log, err := logger.New(cfg.Log)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.StopHook(func() { _ = log.Sync() }))
	return log, nil
}

func newRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func newBybitClient(cfg *config.Config) *bybit.RESTClient {
	rest := cfg.Bybit.REST
	return bybit.NewRESTClient(rest.BaseURL, rest.Timeout,
		bybit.Credentials{APIKey: cfg.Bybit.APIKey, APISecret: []byte(cfg.Bybit.APISecret)},
		bybit.WithRecvWindow(rest.RecvWindow),
		bybit.WithRateLimit(rest.RateLimit, rest.RateBurst),
	)
}

func newAccountService(cfg *config.Config, client *bybit.RESTClient) *account.Service {
	return account.NewService(client, cfg.Bybit.AccountType)
}

func newTelegramClient(cfg *config.Config) *telegram.Client {
	tg := cfg.Telegram
	return telegram.NewClient(tg.BaseURL, tg.BotToken, tg.GroupID, tg.Timeout)
}

func newScheduler(cfg *config.Config, svc *account.Service, tg *telegram.Client,
	m *metrics.Metrics, log *zap.Logger) (*scheduler.Scheduler, error) {
	return scheduler.New(scheduler.Options{
		Interval:       cfg.Scheduler.Interval(),
		StageTimeout:   cfg.Scheduler.StageTimeout,
		PositionsLimit: cfg.Scheduler.PositionsLimit,
		ClosedPnlLimit: cfg.Scheduler.ClosedPnlLimit,
		AccountLabel:   svc.AccountType(),
		Timeframe:      cfg.Report.Timeframe,
	}, svc, tg, m, log.Named("scheduler"))
}

func runScheduler(lc fx.Lifecycle, s *scheduler.Scheduler) {
	lc.Append(fx.Hook{
		// The loop outlives OnStart's context, so it gets its own.
		OnStart: func(context.Context) error { return s.Start(context.Background()) },
		OnStop:  s.Stop,
	})
}

func runStatusServer(lc fx.Lifecycle, cfg *config.Config, s *scheduler.Scheduler,
	reg *prometheus.Registry, log *zap.Logger) {
	if cfg.Server.Addr == "" {
		return
	}
	srv := server.New(cfg.Server.Addr, server.NewMux(s, reg), log.Named("server"))
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error { return srv.Start() },
		OnStop:  srv.Stop,
	})
}
