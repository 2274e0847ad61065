package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"caixinha/internal/amqp"
	"caixinha/internal/assistant"
	"caixinha/internal/cache"
	"caixinha/internal/cli"
	"caixinha/internal/config"
	"caixinha/internal/core"
	apphttp "caixinha/internal/http"
	"caixinha/internal/ledger"
	"caixinha/internal/log"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	logger.Info("Starting caixinha", log.FieldOperation, log.OpStartup,
		"port", cfg.Port, "reference_date", cfg.ReferenceDate, log.FieldModel, cfg.LLMModel)

	readiness := map[string]apphttp.ReadinessCheck{}
	cacheManager := cache.NewManager(logger)

	// Answers are shared through Redis when configured, otherwise kept in
	// a per-process LRU.
	var (
		answers cache.Cache[string]
		redis   *cache.RedisCache
	)
	switch {
	case cfg.RedisAddr != "":
		redis = cache.NewRedisCache(cfg.RedisAddr, cfg.AnswerCacheTTL, logger)
		answers = redis
		readiness["redis"] = redis.Ping
		logger.Info("Answer cache backed by Redis", "addr", cfg.RedisAddr)
	case cfg.AnswerCacheSize > 0:
		lru := cache.NewLRUCache[string](cfg.AnswerCacheSize, cfg.AnswerCacheTTL)
		cacheManager.Register(lru)
		cacheManager.StartCleanup(time.Minute)
		answers = lru
	default:
		logger.Info("Answer cache disabled")
	}

	var gen assistant.Generator = assistant.NewOpenAIGenerator(cfg.LLMAPIKey, cfg.LLMBaseURL, cfg.LLMModel)
	if cfg.LLMAPIKey == "" {
		logger.Warn("No LLM API key configured; the assistant will answer with the connection error message")
	}
	if answers != nil {
		gen = assistant.NewCachingGenerator(gen, answers, cfg.LLMModel, logger)
	}
	chat := assistant.NewSession(assistant.New(gen, cfg.AssistantTimeout, logger))

	amqpClient := connectAMQP(cfg, logger)
	var publisher ledger.EventPublisher
	if amqpClient != nil {
		publisher = amqpClient
	}

	initial := core.NewRoster()
	if cfg.SeedRoster {
		initial = core.SeedRoster()
	}
	svc := ledger.NewService(context.Background(), initial, cfg.Reference(), publisher, logger)

	srv := apphttp.NewServer(apphttp.Options{
		Addr:               ":" + cfg.Port,
		Ledger:             svc,
		Chat:               chat,
		Logger:             logger,
		AllowedOrigins:     cfg.CORSAllowedOrigins,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		ReadinessChecks:    readiness,
	})
	srv.ReadTimeout = 10 * time.Second
	// chat requests wait on the model, so the write deadline follows its timeout
	srv.WriteTimeout = cfg.AssistantTimeout + 10*time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(shutdownCtx context.Context) {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		if err := svc.Close(shutdownCtx); err != nil {
			logger.Warn("Ledger events still queued at shutdown", log.FieldError, err)
		}
		cacheManager.Stop()
		if redis != nil {
			_ = redis.Close()
		}
		if amqpClient != nil {
			_ = amqpClient.Close()
		}
	})

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}

// connectAMQP returns nil when events are disabled or the broker is
// unreachable; the dashboard keeps working without them.
func connectAMQP(cfg *config.Config, logger *log.Logger) *amqp.Client {
	if cfg.AMQPURL == "" {
		logger.Info("AMQP disabled - ledger events will not be published")
		return nil
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Warn("Failed to initialize AMQP client, continuing without ledger events", log.FieldError, err)
		return nil
	}
	logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	return client
}
