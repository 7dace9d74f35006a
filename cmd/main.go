package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/wb-go/wbf/config"
	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/zlog"

	"clubevents/cmd/buildCFG"
	"clubevents/internal/api/api"
	"clubevents/internal/cache"
	rabbitReader "clubevents/internal/consumerWorker"
	"clubevents/internal/rabbit"
	"clubevents/internal/repo"
	"clubevents/internal/service"
)

func main() {
	zlog.Init()
	log := zlog.Logger

	cfg := config.New()
	if err := cfg.Load("config.yaml", "", "'"); err != nil {
		log.Fatal().Msgf("failed to load configuration: %v", err)
	}
	serverCfg := buildCFG.BuildServerConfig(cfg, &log)
	port := serverCfg.Port

	masterDSN, slaveDSNs, poolOptions, err := buildCFG.BuildDBConfig(cfg, &log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build DB config")
	}
	db, err := dbpg.New(masterDSN, slaveDSNs, poolOptions)
	if err != nil {
		log.Fatal().Msgf("failed to connect to DB: %v", err)
	}
	log.Info().Msg("Database connected successfully")

	repository, err := repo.NewRepository(db, &log)
	if err != nil {
		log.Fatal().Msgf("failed to initialize repository: %v", err)
	}
	cwd, err := os.Getwd()
	if err != nil {
		log.Fatal().Err(err).Msg("cannot get working directory")
	}
	migrationPath := filepath.Join(cwd, "migrations/postgres")
	if err := repository.MigrateUp(migrationPath); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}

	var eventCache service.EventCache
	redisCfg := buildCFG.BuildRedisConfig(cfg, &log)
	if redisCfg.Addr != "" {
		rdb, err := cache.NewRedisClient(context.Background(), redisCfg.Addr, redisCfg.Password, redisCfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to Redis")
		}
		defer rdb.Close()
		eventCache = cache.NewEventCache(rdb, redisCfg.TTL)
		log.Info().Str("addr", redisCfg.Addr).Msg("Redis connected")
	}

	rabbitCfg, err := buildCFG.BuildRabbitConfig(cfg, &log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load RabbitMQ config")
	}
	var (
		publisher service.Publisher
		rmq       *rabbit.Client
	)
	if rabbitCfg.Url != "" {
		rmq, err = rabbit.NewRabbit(rabbitCfg.Url, rabbitCfg.Exchange, rabbitCfg.Queue)
		if err != nil {
			log.Fatal().Msgf("Failed to connect to RabbitMQ: %v", err)
		}
		defer rmq.Close()
		publisher = rmq
	}

	events := service.NewEventService(repository, &log, publisher, eventCache)
	app := api.NewRouters(&api.Routers{
		Events:        events,
		Registrations: service.NewRegistrationService(repository, &log),
		Users:         service.NewUserService(repository, &log),
		Settings:      service.NewSettingsService(repository, &log),
		Books:         service.NewBookService(repository, &log),
		AdminToken:    serverCfg.AdminToken,
		Log:           &log,
	})

	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	var reader *rabbitReader.Reader
	if rmq != nil {
		reader = rabbitReader.NewReader(rmq, events)
		reader.Start(workerCtx)
	}

	serverErrChan := make(chan error, 1)
	go func() {
		log.Info().Msgf("Starting server on %s", port)
		if err := app.Run(":" + port); err != nil {
			serverErrChan <- fmt.Errorf("failed to start server: %w", err)
		}
	}()

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-signalChan:
		log.Info().Msgf("Received signal %s. Initiating shutdown...", sig)
	case err := <-serverErrChan:
		log.Error().Msgf("Server error: %v", err)
	}

	cancelWorkers()
	if reader != nil {
		reader.Stop()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if closer, ok := interface{}(app).(interface{ Close(context.Context) error }); ok {
		if err := closer.Close(shutdownCtx); err != nil {
			log.Error().Msgf("Error shutting down server: %v", err)
		}
	}

	log.Info().Msg("Shutdown complete")
}
