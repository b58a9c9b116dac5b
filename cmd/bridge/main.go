package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Emrix/digistar-qlcplus-dmx-integration/internal/adapter/httpserver"
	"github.com/Emrix/digistar-qlcplus-dmx-integration/internal/app"
	"github.com/Emrix/digistar-qlcplus-dmx-integration/internal/console"
	"github.com/Emrix/digistar-qlcplus-dmx-integration/internal/dispatch"
	"github.com/Emrix/digistar-qlcplus-dmx-integration/internal/domain"
	"github.com/Emrix/digistar-qlcplus-dmx-integration/internal/platform/config"
	"github.com/Emrix/digistar-qlcplus-dmx-integration/internal/platform/logging"
	"github.com/Emrix/digistar-qlcplus-dmx-integration/internal/platform/version"
	"github.com/Emrix/digistar-qlcplus-dmx-integration/internal/source"
	"github.com/jonboulle/clockwork"
	goredis "github.com/redis/go-redis/v9"
)

const shutdownTimeout = 10 * time.Second

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// slog is not configured yet
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupConsole(ctx context.Context, cfg *config.Config, mode dispatch.Mode, clock clockwork.Clock) (domain.Console, []httpserver.HealthCheck) {
	opts := console.Options{
		SendTimeout:    cfg.SendTimeout(),
		ReconnectDelay: cfg.ReconnectDelay(),
		SendRate:       cfg.SendRatePerSecond,
	}

	if mode == dispatch.ModeOneShot {
		return console.NewOneShot(cfg.ConsoleURL, opts, clock, slog.Default()), nil
	}

	client := console.NewClient(cfg.ConsoleURL, opts, clock, slog.Default())
	go client.Run(ctx)
	return client, []httpserver.HealthCheck{{Name: "console", Check: client.Ready}}
}

func setupSource(ctx context.Context, cfg *config.Config) (domain.CommandSource, *source.Queue, *goredis.Client) {
	switch cfg.CommandSource {
	case config.SourceRedis:
		rdb, err := source.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			slog.Error("Failed to connect to Redis", "error", err)
			os.Exit(1)
		}
		return source.NewRedisSource(rdb, cfg.RedisQueueKey), nil, rdb
	case config.SourceHTTP:
		q := source.NewQueue(cfg.QueueCapacity)
		return q, q, nil
	default:
		return source.NewLineSource(os.Stdin), nil, nil
	}
}

func setupServer(cfg *config.Config, queue *source.Queue, checks []httpserver.HealthCheck) *httpserver.Server {
	if cfg.HTTPAddr == "" {
		return nil
	}

	opts := []httpserver.Option{httpserver.WithHealthChecks(checks...)}
	if queue != nil {
		opts = append(opts, httpserver.WithCommandQueue(queue))
	}
	srv := httpserver.NewServer(cfg.HTTPAddr, opts...)

	go func() {
		if err := srv.Start(); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()
	return srv
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)

	mode, err := dispatch.ParseMode(cfg.DispatchMode)
	if err != nil {
		slog.Error("Invalid dispatch mode", "error", err)
		os.Exit(1)
	}

	info := version.Get()
	slog.Info("Bridge starting", append([]any{
		"console", cfg.ConsoleURL,
		"mode", mode,
		"source", cfg.CommandSource,
		"poll_interval", cfg.PollInterval(),
	}, info.LogAttrs()...)...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	flag := domain.NewRunFlag()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-flag.Done():
			cancel()
		case <-ctx.Done():
		}
	}()

	conn, checks := setupConsole(ctx, cfg, mode, clock)

	src, queue, rdb := setupSource(ctx, cfg)
	if rdb != nil {
		defer func() { _ = rdb.Close() }()
		checks = append(checks, httpserver.HealthCheck{Name: "redis", Check: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}})
	}

	srv := setupServer(cfg, queue, checks)

	dispatcher := dispatch.NewDispatcher(mode, conn, flag, slog.Default())
	bridge := app.NewBridge(src, dispatcher, flag, clock, cfg.PollInterval())

	slog.Info("Bridge started")
	bridge.Run(ctx)

	if flag.Running() {
		slog.Info("Shutdown signal received, cleaning up")
		flag.Stop()
	}

	if err := conn.Close(); err != nil {
		slog.Error("Console close error", "error", err)
	}

	if srv != nil {
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancelShutdown()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("HTTP server shutdown error", "error", err)
		}
	}

	slog.Info("Bridge stopped")
}
