/**
 * 采集服务应用
 * @author: sun977
 * @date: 2025.11.12
 * @description: 组装存储、采集管理器、HTTP服务、定时调度与配置热更新
 */
package collector

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jpperkins30-ai/real-estate-platform-sub012/internal/app/collector/setup"
	"github.com/jpperkins30-ai/real-estate-platform-sub012/internal/config"
	"github.com/jpperkins30-ai/real-estate-platform-sub012/internal/pkg/logger"
	"github.com/jpperkins30-ai/real-estate-platform-sub012/internal/service/scheduler"
)

// App 采集服务应用
type App struct {
	config     *config.Config
	configPath string
	core       *setup.CoreModule
	server     *setup.ServerModule
	scheduler  scheduler.SchedulerService
	watcher    *config.ConfigWatcher
}

// NewApp 创建采集服务应用
// configPath 为空时不启用配置热更新
func NewApp(ctx context.Context, cfg *config.Config, configPath, storeMode string) (*App, error) {
	core, err := setup.SetupCore(ctx, cfg, storeMode)
	if err != nil {
		return nil, fmt.Errorf("failed to setup core: %w", err)
	}

	app := &App{
		config:     cfg,
		configPath: configPath,
		core:       core,
		server:     setup.SetupServer(cfg, core.Manager),
	}

	if cfg.Scheduler != nil && cfg.Scheduler.Enabled {
		s, err := scheduler.NewSchedulerService(core.Manager, core.Stores.Sources, cfg.Scheduler.Timezone)
		if err != nil {
			_ = core.Close(ctx)
			return nil, fmt.Errorf("failed to setup scheduler: %w", err)
		}
		app.scheduler = s
	}

	return app, nil
}

// Core 返回采集核心模块
func (a *App) Core() *setup.CoreModule {
	return a.core
}

// HTTPServer 返回HTTP服务器
func (a *App) HTTPServer() *http.Server {
	return a.server.HTTPServer
}

// Start 启动HTTP服务、调度器与配置监听
func (a *App) Start(ctx context.Context) error {
	go func() {
		if err := a.server.HTTPServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.LogError(err, "", "", "", map[string]interface{}{"operation": "http_listen"})
		}
	}()
	logger.LogSystemEvent("app", "start", "http server listening", logger.InfoLevel, map[string]interface{}{
		"addr": a.server.HTTPServer.Addr,
	})

	if a.scheduler != nil {
		if err := a.scheduler.Start(ctx); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
		logger.Infof("Scheduler started with %d jobs", len(a.scheduler.Entries()))
	}

	if a.configPath != "" {
		if err := a.startWatcher(); err != nil {
			// 热更新不可用不影响服务
			logger.Warnf("Config watcher disabled: %v", err)
		}
	}
	return nil
}

func (a *App) startWatcher() error {
	w, err := config.NewConfigWatcher(a.configPath)
	if err != nil {
		return err
	}
	w.SetErrorHandler(func(err error) {
		logger.LogError(err, "", "", "", map[string]interface{}{"operation": "config_reload"})
	})
	w.AddCallback(config.ValidateConfigChange)
	w.AddCallback(func(_, newConfig *config.Config) error {
		if logger.LoggerInstance == nil || newConfig.Log == nil {
			return nil
		}
		return logger.LoggerInstance.UpdateConfig(newConfig.Log)
	})
	w.AddCallback(func(_, _ *config.Config) error {
		logger.LogSystemEvent("config", "reload", "configuration reloaded", logger.InfoLevel, nil)
		return nil
	})
	if err := w.Start(); err != nil {
		return err
	}
	a.watcher = w
	return nil
}

// Stop 依次停止配置监听、调度器、HTTP服务与存储连接
func (a *App) Stop(ctx context.Context) error {
	if a.watcher != nil {
		if err := a.watcher.Stop(); err != nil {
			logger.Warnf("Failed to stop config watcher: %v", err)
		}
	}
	if a.scheduler != nil {
		a.scheduler.Stop()
	}

	var errs []error
	if err := a.server.HTTPServer.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("failed to stop HTTP server: %w", err))
	}
	if err := a.core.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("failed to close stores: %w", err))
	}

	logger.LogSystemEvent("app", "stop", "collector service stopped", logger.InfoLevel, nil)
	return errors.Join(errs...)
}
