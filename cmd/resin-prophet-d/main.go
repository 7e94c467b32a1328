package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/openclaw/resinprophet/pkg/api"
	"github.com/openclaw/resinprophet/pkg/prophet"
	"github.com/openclaw/resinprophet/pkg/reports"
	"github.com/openclaw/resinprophet/pkg/store"
	redisstore "github.com/openclaw/resinprophet/pkg/store/redis"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	logger.Info("system_started", "component", "resin-prophet-d")

	config, err := LoadConfig(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		logger.Error("failed_to_load_config", "error", err)
		os.Exit(1)
	}

	st, err := store.NewStore(config.DBPath)
	if err != nil {
		logger.Error("failed_to_init_store", "error", err)
		os.Exit(1)
	}
	defer st.Close()
	logger.Info("store_initialized", "path", config.DBPath)

	var cache prophet.PredictionCache
	if config.RedisAddr != "" {
		client := goredis.NewClient(&goredis.Options{Addr: config.RedisAddr})
		defer client.Close()

		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := client.Ping(pingCtx).Err(); err != nil {
			logger.Warn("prediction_cache_disabled", "addr", config.RedisAddr, "error", err)
		} else {
			cache = redisstore.NewPredictionCache(client)
			logger.Info("prediction_cache_enabled", "addr", config.RedisAddr)
		}
		cancel()
	}

	engine := prophet.New(st, prophet.DefaultCatalog(), cache)

	var usage reports.ReportStore = st
	server := api.NewServer(engine, st, usage, config.Addr)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigs:
		logger.Info("shutdown_initiated", "signal", sig.String())
	case err := <-errCh:
		if err != nil {
			logger.Error("api_server_failed", "error", err)
			os.Exit(1)
		}
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("failed_to_shutdown_server", "error", err)
	}
	logger.Info("shutdown_complete")
}
