package setup

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jpperkins30-ai/real-estate-platform-sub012/internal/config"
	"github.com/jpperkins30-ai/real-estate-platform-sub012/internal/core/collector/stmarys"
	"github.com/jpperkins30-ai/real-estate-platform-sub012/internal/core/lib/network/qos"
	"github.com/jpperkins30-ai/real-estate-platform-sub012/internal/core/lib/network/retry"
	colModel "github.com/jpperkins30-ai/real-estate-platform-sub012/internal/model/collection"
	"github.com/jpperkins30-ai/real-estate-platform-sub012/internal/service/geocode"
)

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		Server: &config.ServerConfig{Host: "127.0.0.1", Port: 0, Mode: "test"},
		Collector: &config.CollectorConfig{
			DefaultRateLimit: config.RateLimitConfig{Window: time.Second, MaxRequests: 1},
			Retry:            config.RetryConfig{MaxAttempts: 1},
			ConcurrencyLimit: 2,
			SampleFallback:   true,
			ArchiveDir:       t.TempDir(),
			HTTPTimeout:      time.Second,
		},
		Geocoder: &config.GeocoderConfig{Enabled: false},
		Health:   &config.HealthConfig{Lookback: 24 * time.Hour, StaleAfter: 7 * 24 * time.Hour, WarningRatio: 0.2},
		Sources: []config.SourceConfig{{
			ID:            "md-st-marys",
			Name:          "St. Mary's County Tax Sale",
			URL:           "https://www.stmaryscountymd.gov/treasurer/taxsale",
			State:         "MD",
			County:        "St. Mary's",
			CollectorType: stmarys.Name,
			Frequency:     "weekly",
			Hour:          6,
		}},
	}
}

func TestSetupCore_MemoryStores(t *testing.T) {
	ctx := context.Background()
	core, err := SetupCore(ctx, testConfig(t), StoreMemory)
	require.NoError(t, err)
	defer core.Close(ctx)

	assert.Equal(t, []string{stmarys.Name}, core.Manager.Names())

	src, err := core.Stores.Sources.Get(ctx, "md-st-marys")
	require.NoError(t, err)
	require.NotNil(t, src)
	assert.Equal(t, colModel.SourceStatusActive, src.Status)
	assert.Equal(t, stmarys.Name, src.CollectorType)
}

func TestSetupStores_UnknownMode(t *testing.T) {
	_, err := SetupStores(context.Background(), testConfig(t), "sqlite")
	assert.Error(t, err)
}

func TestSetupServer(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	core, err := SetupCore(ctx, cfg, StoreMemory)
	require.NoError(t, err)

	srv := SetupServer(cfg, core.Manager)
	assert.Equal(t, "127.0.0.1:0", srv.HTTPServer.Addr)
	assert.NotNil(t, srv.Router)
}

func geocoderConfig(t *testing.T, redisAddr string) *config.Config {
	cfg := testConfig(t)
	cfg.Geocoder = &config.GeocoderConfig{Enabled: true, BaseURL: "http://geocoder.test", CacheTTL: time.Hour}
	cfg.Redis = &config.RedisConfig{Enabled: true, Addr: redisAddr}
	return cfg
}

func testLimiters() *qos.Registry {
	return qos.NewRegistry(func(string) (time.Duration, int) { return time.Second, 10 })
}

func TestSetupGeocoder_UnreachableRedisFallsBack(t *testing.T) {
	ctx := context.Background()
	stores := &StoreModule{}

	g := setupGeocoder(ctx, geocoderConfig(t, "127.0.0.1:1"), stores, testLimiters(), retry.NewPolicy(1, 0))
	require.NotNil(t, g)
	_, cached := g.(*geocode.CachedGeocoder)
	assert.False(t, cached)
	assert.Empty(t, stores.closers)
}

// 需要设置 TAXSALE_TEST_REDIS_ADDR，否则跳过
func TestSetupGeocoder_RedisClosedWithCore(t *testing.T) {
	addr := os.Getenv("TAXSALE_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TAXSALE_TEST_REDIS_ADDR not set, skipping Redis integration test")
	}
	ctx := context.Background()
	stores := &StoreModule{}

	g := setupGeocoder(ctx, geocoderConfig(t, addr), stores, testLimiters(), retry.NewPolicy(1, 0))
	_, cached := g.(*geocode.CachedGeocoder)
	assert.True(t, cached)
	require.Len(t, stores.closers, 1)

	core := &CoreModule{Stores: stores}
	assert.NoError(t, core.Close(ctx))
	assert.Error(t, stores.closers[0](ctx), "client already closed")
}
