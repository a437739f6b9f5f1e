/**
 * 采集服务路由注册
 * @author: sun977
 * @date: 2025.11.12
 * @description: 统一管理中间件与路由
 */
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jpperkins30-ai/real-estate-platform-sub012/internal/app/collector/middleware"
	colHandler "github.com/jpperkins30-ai/real-estate-platform-sub012/internal/handler/collection"
	"github.com/jpperkins30-ai/real-estate-platform-sub012/internal/handler/system"
	"github.com/jpperkins30-ai/real-estate-platform-sub012/internal/pkg/logger"
	"github.com/jpperkins30-ai/real-estate-platform-sub012/internal/pkg/version"
)

// RouterConfig 路由配置
type RouterConfig struct {
	// 运行模式 (debug/release/test)
	Mode string `json:"mode"`

	// API版本
	APIVersion string `json:"api_version"`

	// 路由前缀
	Prefix string `json:"prefix"`

	// 原始快照目录，用于系统信息中的磁盘统计
	ArchiveDir string `json:"archive_dir"`

	// 日志中间件配置，为空时使用默认值
	Logging *middleware.LoggingConfig `json:"logging"`
}

// Router 采集服务路由器
type Router struct {
	engine *gin.Engine
	config *RouterConfig

	collectionHandler *colHandler.CollectionHandler
	systemHandler     *system.SystemHandler
}

// NewRouter 创建路由器并注册全部路由
func NewRouter(config *RouterConfig, service colHandler.CollectionService) *Router {
	if config == nil {
		config = &RouterConfig{}
	}
	if config.APIVersion == "" {
		config.APIVersion = version.APIVersion
	}
	if config.Prefix == "" {
		config.Prefix = "/api"
	}

	switch config.Mode {
	case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
		gin.SetMode(config.Mode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := &Router{
		engine:            gin.New(),
		config:            config,
		collectionHandler: colHandler.NewCollectionHandler(service),
		systemHandler:     system.NewSystemHandler(config.ArchiveDir),
	}
	r.registerRoutes()
	return r
}

// Engine 返回底层 gin 引擎
func (r *Router) Engine() *gin.Engine {
	return r.engine
}

// ServeHTTP 实现 http.Handler
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.engine.ServeHTTP(w, req)
}

// registerRoutes 注册路由
func (r *Router) registerRoutes() {
	r.engine.Use(gin.Recovery())
	r.engine.Use(middleware.RequestID())
	r.engine.Use(middleware.NewLoggingMiddleware(r.config.Logging).Handler())

	r.setupHealthRoutes()

	api := r.engine.Group(r.config.Prefix + "/" + r.config.APIVersion)
	r.setupSystemRoutes(api)
	r.setupCollectionRoutes(api)

	logger.Debugf("Routes registered under %s/%s", r.config.Prefix, r.config.APIVersion)
}
