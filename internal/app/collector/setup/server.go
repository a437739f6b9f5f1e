package setup

import (
	"fmt"
	"net/http"
	"time"

	"github.com/jpperkins30-ai/real-estate-platform-sub012/internal/app/collector/middleware"
	"github.com/jpperkins30-ai/real-estate-platform-sub012/internal/app/collector/router"
	"github.com/jpperkins30-ai/real-estate-platform-sub012/internal/config"
	colHandler "github.com/jpperkins30-ai/real-estate-platform-sub012/internal/handler/collection"
)

// SetupServer 初始化服务器模块
func SetupServer(cfg *config.Config, service colHandler.CollectionService) *ServerModule {
	r := router.NewRouter(&router.RouterConfig{
		Mode:       cfg.Server.Mode,
		ArchiveDir: cfg.Collector.ArchiveDir,
		Logging: &middleware.LoggingConfig{
			SkipPaths:            []string{"/health"},
			SlowRequestThreshold: 2 * time.Second,
		},
	}, service)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return &ServerModule{
		Router:     r,
		HTTPServer: httpServer,
	}
}
