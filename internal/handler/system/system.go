package system

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jpperkins30-ai/real-estate-platform-sub012/internal/model"
	"github.com/jpperkins30-ai/real-estate-platform-sub012/internal/pkg/logger"
	"github.com/jpperkins30-ai/real-estate-platform-sub012/internal/pkg/monitor"
	"github.com/jpperkins30-ai/real-estate-platform-sub012/internal/pkg/version"
)

// SystemHandler 系统信息处理器
type SystemHandler struct {
	archiveDir string
}

// NewSystemHandler 创建系统信息处理器
// archiveDir 用于统计原始快照所在磁盘的使用率
func NewSystemHandler(archiveDir string) *SystemHandler {
	return &SystemHandler{archiveDir: archiveDir}
}

// Liveness 存活检查
// GET /health
func (h *SystemHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "alive",
		"timestamp": logger.NowFormatted(),
	})
}

// SystemInfo 主机与版本信息
// GET /api/v1/system/info
func (h *SystemHandler) SystemInfo(c *gin.Context) {
	c.JSON(http.StatusOK, model.APIResponse{
		Code:    http.StatusOK,
		Status:  "success",
		Message: "system info",
		Data: gin.H{
			"version": version.Get(),
			"host":    monitor.GetSystemSnapshot(c.Request.Context(), h.archiveDir),
		},
	})
}
