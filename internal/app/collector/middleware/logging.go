/**
 * 日志中间件
 * @author: sun977
 * @date: 2025.11.12
 * @description: 请求ID注入与HTTP访问日志
 */
package middleware

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jpperkins30-ai/real-estate-platform-sub012/internal/pkg/logger"
)

// RequestIDHeader 请求ID头
const RequestIDHeader = "X-Request-ID"

// LoggingConfig 日志中间件配置
type LoggingConfig struct {
	// 跳过日志的路径
	SkipPaths []string `json:"skip_paths"`

	// 慢请求阈值
	SlowRequestThreshold time.Duration `json:"slow_request_threshold"`
}

// LoggingMiddleware 日志中间件
type LoggingMiddleware struct {
	config *LoggingConfig
	skip   map[string]struct{}
}

// NewLoggingMiddleware 创建日志中间件
func NewLoggingMiddleware(config *LoggingConfig) *LoggingMiddleware {
	if config == nil {
		config = &LoggingConfig{
			SkipPaths:            []string{"/health"},
			SlowRequestThreshold: 2 * time.Second,
		}
	}
	skip := make(map[string]struct{}, len(config.SkipPaths))
	for _, p := range config.SkipPaths {
		skip[p] = struct{}{}
	}
	return &LoggingMiddleware{config: config, skip: skip}
}

// RequestID 透传或生成请求ID，写回响应头
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
			c.Request.Header.Set(RequestIDHeader, id)
		}
		c.Set("request_id", id)
		c.Writer.Header().Set(RequestIDHeader, id)
		c.Next()
	}
}

// Handler 记录访问日志，状态码>=400时追加错误日志
func (m *LoggingMiddleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		path := c.Request.URL.Path

		c.Next()

		if _, ok := m.skip[path]; ok {
			return
		}

		requestID := c.GetHeader(RequestIDHeader)
		logger.LogAccessRequest(c, startTime, requestID)

		status := c.Writer.Status()
		if status >= 400 {
			err := c.Errors.Last()
			var cause error = fmt.Errorf("request failed with status %d", status)
			if err != nil {
				cause = err.Err
			}
			logger.LogError(cause, requestID, path, c.Request.Method, map[string]interface{}{
				"status_code": status,
				"client_ip":   c.ClientIP(),
			})
		}

		if m.config.SlowRequestThreshold > 0 {
			if d := time.Since(startTime); d > m.config.SlowRequestThreshold {
				logger.LogWarn("Slow request", requestID, path, c.Request.Method, map[string]interface{}{
					"duration_ms": d.Milliseconds(),
				})
			}
		}
	}
}
