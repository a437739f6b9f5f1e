package setup

import (
	"context"
	"net/http"

	"github.com/jpperkins30-ai/real-estate-platform-sub012/internal/app/collector/router"
	colService "github.com/jpperkins30-ai/real-estate-platform-sub012/internal/service/collection"
)

// StoreModule 存储模块
type StoreModule struct {
	Properties colService.PropertyStore
	Sources    SourceStore
	Runs       colService.RunStore
	closers    []func(ctx context.Context) error
}

func (s *StoreModule) addCloser(fn func(ctx context.Context) error) {
	s.closers = append(s.closers, fn)
}

// SourceStore 可查询、回写、写入定义的数据源存储
type SourceStore interface {
	colService.SourceStore
	colService.SourceSeeder
}

// CoreModule 采集核心模块
type CoreModule struct {
	Stores  *StoreModule
	Manager *colService.Manager
}

// Close 释放存储连接
func (m *CoreModule) Close(ctx context.Context) error {
	var firstErr error
	for _, c := range m.Stores.closers {
		if err := c(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// ServerModule 服务器模块
type ServerModule struct {
	Router     *router.Router
	HTTPServer *http.Server
}
