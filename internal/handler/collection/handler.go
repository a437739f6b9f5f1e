/**
 * 处理器:采集
 * @author: sun977
 * @date: 2025.11.11
 * @description: 健康检查、单采集器触发与批量触发
 */
package collection

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jpperkins30-ai/real-estate-platform-sub012/internal/model"
	colModel "github.com/jpperkins30-ai/real-estate-platform-sub012/internal/model/collection"
	"github.com/jpperkins30-ai/real-estate-platform-sub012/internal/pkg/logger"
	colService "github.com/jpperkins30-ai/real-estate-platform-sub012/internal/service/collection"
)

// CollectionService 处理器依赖的采集能力
type CollectionService interface {
	RunCollection(ctx context.Context, name string) (*colModel.CollectionResult, error)
	ExecuteParallelCollections(ctx context.Context, sourceIDs []string, concurrencyLimit int) (map[string]*colModel.CollectionResult, error)
	CheckHealth(ctx context.Context, lookback time.Duration) *colModel.HealthCheckResult
}

// CollectionHandler 采集处理器
type CollectionHandler struct {
	service CollectionService
}

// NewCollectionHandler 创建采集处理器
func NewCollectionHandler(service CollectionService) *CollectionHandler {
	return &CollectionHandler{service: service}
}

// CheckHealth 采集管线健康检查
// GET /api/v1/health?lookback=24h
func (h *CollectionHandler) CheckHealth(c *gin.Context) {
	var lookback time.Duration
	if v := c.Query("lookback"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			c.JSON(http.StatusBadRequest, model.APIResponse{Code: http.StatusBadRequest, Status: "error", Message: "invalid lookback duration"})
			return
		}
		lookback = d
	}

	res := h.service.CheckHealth(c.Request.Context(), lookback)
	code := http.StatusOK
	if res.Status == colModel.HealthStatusUnhealthy {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, res)
}

// RunCollection 触发单个采集器
// POST /api/v1/collections/:name/run
func (h *CollectionHandler) RunCollection(c *gin.Context) {
	name := c.Param("name")

	res, err := h.service.RunCollection(c.Request.Context(), name)
	if err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, colService.ErrCollectorNotFound) || errors.Is(err, colService.ErrSourceNotFound) {
			code = http.StatusNotFound
		}
		logger.LogError(err, c.GetHeader("X-Request-ID"), c.Request.URL.Path, c.Request.Method, map[string]interface{}{
			"operation": "run_collection",
			"collector": name,
		})
		c.JSON(code, model.APIResponse{Code: code, Status: "error", Message: "collection could not be started", Error: err.Error()})
		return
	}

	code := http.StatusOK
	status := "success"
	if !res.Success {
		code = http.StatusBadGateway
		status = "error"
	}
	c.JSON(code, model.APIResponse{Code: code, Status: status, Message: res.Message, Data: res})
}

// RunBatch 分批并发触发数据源
// POST /api/v1/collections/batch
func (h *CollectionHandler) RunBatch(c *gin.Context) {
	var req model.BatchRunRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, model.APIResponse{Code: http.StatusBadRequest, Status: "error", Message: "invalid request body", Error: err.Error()})
			return
		}
	}
	if req.Concurrency < 0 {
		c.JSON(http.StatusBadRequest, model.APIResponse{Code: http.StatusBadRequest, Status: "error", Message: "concurrency must not be negative"})
		return
	}

	results, err := h.service.ExecuteParallelCollections(c.Request.Context(), req.SourceIDs, req.Concurrency)
	if err != nil && len(results) == 0 {
		logger.LogError(err, c.GetHeader("X-Request-ID"), c.Request.URL.Path, c.Request.Method, map[string]interface{}{
			"operation": "run_batch",
		})
		c.JSON(http.StatusInternalServerError, model.APIResponse{Code: http.StatusInternalServerError, Status: "error", Message: "batch collection failed", Error: err.Error()})
		return
	}

	failed := 0
	for _, r := range results {
		if !r.Success {
			failed++
		}
	}
	c.JSON(http.StatusOK, model.APIResponse{
		Code:    http.StatusOK,
		Status:  "success",
		Message: batchMessage(len(results), failed),
		Data:    results,
	})
}

func batchMessage(total, failed int) string {
	if failed == 0 {
		return fmt.Sprintf("%d collections completed", total)
	}
	return fmt.Sprintf("%d collections completed, %d failed", total-failed, failed)
}
