package setup

import (
	"context"
	"time"

	"github.com/jpperkins30-ai/real-estate-platform-sub012/internal/config"
	"github.com/jpperkins30-ai/real-estate-platform-sub012/internal/core/collector/stmarys"
	"github.com/jpperkins30-ai/real-estate-platform-sub012/internal/core/lib/network/qos"
	"github.com/jpperkins30-ai/real-estate-platform-sub012/internal/core/lib/network/retry"
	"github.com/jpperkins30-ai/real-estate-platform-sub012/internal/core/transform"
	"github.com/jpperkins30-ai/real-estate-platform-sub012/internal/pkg/client"
	"github.com/jpperkins30-ai/real-estate-platform-sub012/internal/pkg/database"
	"github.com/jpperkins30-ai/real-estate-platform-sub012/internal/pkg/logger"
	colService "github.com/jpperkins30-ai/real-estate-platform-sub012/internal/service/collection"
	"github.com/jpperkins30-ai/real-estate-platform-sub012/internal/service/geocode"
	"github.com/jpperkins30-ai/real-estate-platform-sub012/internal/service/ingestor"
)

// geocoderLimiterKey 地理编码服务的限速键
const geocoderLimiterKey = "geocoder"

// SetupCore 初始化采集核心: 存储、限速、重试、采集器、地理编码、管理器，并写入配置中的数据源
func SetupCore(ctx context.Context, cfg *config.Config, storeMode string) (*CoreModule, error) {
	stores, err := SetupStores(ctx, cfg, storeMode)
	if err != nil {
		return nil, err
	}
	module := &CoreModule{Stores: stores}

	limiters := qos.NewRegistry(func(key string) (time.Duration, int) {
		rl := cfg.Collector.RateLimitFor(key)
		return rl.Window, rl.MaxRequests
	})

	policy := retry.NewPolicy(cfg.Collector.Retry.MaxAttempts, cfg.Collector.Retry.DelayUnit)
	policy.OnRetry = func(attempt int, err error, next time.Duration) {
		logger.WithField("attempt", attempt).Warnf("Request failed, retrying in %s: %v", next, err)
	}

	var archiver ingestor.SnapshotArchiver = ingestor.NopArchiver{}
	if cfg.Collector.ArchiveDir != "" {
		archiver = ingestor.NewFileArchiver(cfg.Collector.ArchiveDir)
	}

	stMarysLimiter, err := limiters.Get(stmarys.Name)
	if err != nil {
		_ = module.Close(ctx)
		return nil, err
	}

	manager := colService.NewManager(stores.Properties, stores.Sources, stores.Runs, colService.Options{
		Pipeline:         transform.NewPipeline(),
		Geocoder:         setupGeocoder(ctx, cfg, stores, limiters, policy),
		ConcurrencyLimit: cfg.Collector.ConcurrencyLimit,
		Health: colService.HealthOptions{
			Lookback:     cfg.Health.Lookback,
			StaleAfter:   cfg.Health.StaleAfter,
			WarningRatio: cfg.Health.WarningRatio,
		},
	})

	manager.Register(stmarys.Name, stmarys.New(stmarys.Options{
		Client: client.NewHTTPClient(client.Options{
			Timeout:   cfg.Collector.HTTPTimeout,
			UserAgent: cfg.Collector.UserAgent,
			Limiter:   stMarysLimiter,
			Retry:     policy,
		}),
		Archiver:       archiver,
		SampleFallback: cfg.Collector.SampleFallback,
	}))

	if err := colService.SeedSources(ctx, stores.Sources, colService.SourcesFromConfig(cfg.Sources)); err != nil {
		_ = module.Close(ctx)
		return nil, err
	}

	module.Manager = manager
	return module, nil
}

// setupGeocoder 初始化地理编码，Redis 可用时加缓存，缓存连接随存储模块一起关闭
func setupGeocoder(ctx context.Context, cfg *config.Config, stores *StoreModule, limiters *qos.Registry, policy *retry.Policy) geocode.Geocoder {
	if cfg.Geocoder == nil || !cfg.Geocoder.Enabled {
		return nil
	}

	limiter, err := limiters.Get(geocoderLimiterKey)
	if err != nil {
		logger.Warnf("Geocoding disabled: %v", err)
		return nil
	}

	var g geocode.Geocoder = geocode.NewHTTPGeocoder(client.NewHTTPClient(client.Options{
		Timeout:   cfg.Collector.HTTPTimeout,
		UserAgent: cfg.Collector.UserAgent,
		Limiter:   limiter,
		Retry:     policy,
	}), cfg.Geocoder.BaseURL)

	if cfg.Redis == nil || !cfg.Redis.Enabled {
		return g
	}
	rdb, err := database.NewRedisConnection(ctx, cfg.Redis)
	if err != nil {
		logger.Warnf("Geocode cache disabled: %v", err)
		return g
	}
	stores.addCloser(func(context.Context) error { return rdb.Close() })
	return geocode.NewCachedGeocoder(g, rdb, cfg.Geocoder.CacheTTL)
}
