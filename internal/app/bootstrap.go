package app

import (
	"context"
	"log/slog"
	"time"

	"tokenAggApp/config"
	"tokenAggApp/internal/domain/repository"
	"tokenAggApp/internal/domain/service"
	"tokenAggApp/internal/domain/useCases"
	ws "tokenAggApp/internal/handlers/websocket"
	cacherepo "tokenAggApp/internal/infrastructure/cache"
	"tokenAggApp/internal/infrastructure/queue"
	"tokenAggApp/internal/infrastructure/upstream"
)

// AppContext holds all app dependencies
type AppContext struct {
	Config      *config.Config
	Aggregator  *service.AggregatorService
	Broadcaster *ws.WebSocketBroadcaster
	Scheduler   *Scheduler
	Cache       repository.Cache
	KafkaSink   *queue.KafkaEventSink

	memoryCache *cacherepo.MemoryCache
	redisCache  *cacherepo.RedisRepository
}

// NewApp initializes the app context with all dependencies
func NewApp(ctx context.Context, log *slog.Logger, cfg *config.Config) (*AppContext, error) {
	app := &AppContext{Config: cfg}
	log.Info("Configuration loaded")

	// Cache backend by config flag; an unreachable Redis degrades to the
	// process-local backend rather than failing startup.
	app.Cache = app.buildCache(ctx, log, cfg)

	// Event sinks: websocket always, Kafka mirror only when configured.
	app.Broadcaster = ws.NewWebSocketBroadcaster()
	var sink useCases.EventSink = app.Broadcaster
	if kafkaSink := queue.NewKafkaEventSink(queue.KafkaConfig{
		Brokers: cfg.KafkaBrokers,
		Topic:   cfg.KafkaTopic,
	}); kafkaSink != nil {
		app.KafkaSink = kafkaSink
		sink = queue.NewMultiSink(app.Broadcaster, kafkaSink)
		log.Info("Kafka event mirror enabled", slog.String("topic", cfg.KafkaTopic))
	}

	// Source adapters, each with its own admission control.
	window := time.Duration(cfg.RateLimitWindowSeconds) * time.Second
	adapters := []repository.SourceAdapter{
		upstream.NewDexScreenerAdapter(cfg.DexScreenerURL,
			upstream.NewRateLimiter(cfg.RateLimitCapacity, window), cfg.RetryMaxAttempts),
		upstream.NewGeckoTerminalAdapter(cfg.GeckoTerminalURL,
			upstream.NewRateLimiter(cfg.RateLimitCapacity, window), cfg.RetryMaxAttempts),
		upstream.NewRaydiumAdapter(cfg.RaydiumURL,
			upstream.NewRateLimiter(cfg.RateLimitCapacity, window), cfg.RetryMaxAttempts),
	}

	rateSource := upstream.NewSolPriceClient(cfg.CoinGeckoURL, cfg.RetryMaxAttempts)

	app.Aggregator = service.NewAggregatorService(
		app.Cache,
		rateSource,
		adapters,
		sink,
		time.Duration(cfg.CacheTTLSeconds)*time.Second,
	)
	log.Info("Aggregation engine initialized",
		slog.Int("sources", len(adapters)),
		slog.String("cache_backend", cfg.CacheBackend),
	)

	app.Scheduler = NewScheduler(
		app.Aggregator,
		app.Broadcaster,
		time.Duration(cfg.RefreshInterval)*time.Second,
		time.Duration(cfg.BroadcastInterval)*time.Second,
	)

	return app, nil
}

func (a *AppContext) buildCache(ctx context.Context, log *slog.Logger, cfg *config.Config) repository.Cache {
	if cfg.CacheBackend == "redis" {
		redisCache := cacherepo.NewRedisRepository(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if redisCache.IsConnected(ctx) {
			log.Info("Redis cache initialized", slog.String("addr", cfg.RedisAddr))
			a.redisCache = redisCache
			return redisCache
		}
		log.Warn("Redis unreachable, falling back to in-memory cache", slog.String("addr", cfg.RedisAddr))
		_ = redisCache.Close()
	}

	a.memoryCache = cacherepo.NewMemoryCache(time.Minute)
	log.Info("In-memory cache initialized")
	return a.memoryCache
}

// Cleanup performs graceful shutdown of all components
func (a *AppContext) Cleanup(ctx context.Context) {
	if a.KafkaSink != nil {
		if err := a.KafkaSink.Close(); err != nil {
			slog.Error("Error closing Kafka sink", slog.Any("error", err))
		}
	}
	if a.memoryCache != nil {
		a.memoryCache.Close()
	}
	if a.redisCache != nil {
		if err := a.redisCache.Close(); err != nil {
			slog.Error("Error closing Redis client", slog.Any("error", err))
		}
	}
}
