package monitor

import (
	"context"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/jpperkins30-ai/real-estate-platform-sub012/internal/pkg/logger"
)

// processStart 进程启动时间
var processStart = time.Now()

// SystemSnapshot 采集服务所在主机的状态快照
type SystemSnapshot struct {
	Hostname    string  `json:"hostname"`
	OS          string  `json:"os"`
	Platform    string  `json:"platform"`
	Arch        string  `json:"arch"`
	CPUCores    int     `json:"cpuCores"`
	CPUUsage    float64 `json:"cpuUsage"`
	MemoryUsage float64 `json:"memoryUsage"`
	DiskPath    string  `json:"diskPath"`
	DiskUsage   float64 `json:"diskUsage"`
	DiskFree    uint64  `json:"diskFree"`
	Goroutines  int     `json:"goroutines"`
	Uptime      string  `json:"uptime"`
}

// GetSystemSnapshot 获取主机快照
// diskPath 为原始快照归档所在路径，单项指标失败只记录告警
func GetSystemSnapshot(ctx context.Context, diskPath string) *SystemSnapshot {
	snap := &SystemSnapshot{
		OS:         runtime.GOOS,
		Arch:       runtime.GOARCH,
		CPUCores:   runtime.NumCPU(),
		Goroutines: runtime.NumGoroutine(),
		Uptime:     time.Since(processStart).Round(time.Second).String(),
		DiskPath:   diskPath,
	}

	if hInfo, err := host.InfoWithContext(ctx); err != nil {
		logger.LogSystemEvent("Monitor", "GetSystemSnapshot", "Failed to get host info: "+err.Error(), logger.WarnLevel, nil)
	} else {
		snap.Hostname = hInfo.Hostname
		snap.Platform = hInfo.Platform
	}

	// 100ms 采样
	if pct, err := cpu.PercentWithContext(ctx, 100*time.Millisecond, false); err != nil {
		logger.LogSystemEvent("Monitor", "GetSystemSnapshot", "Failed to get CPU usage: "+err.Error(), logger.WarnLevel, nil)
	} else if len(pct) > 0 {
		snap.CPUUsage = pct[0]
	}

	if vMem, err := mem.VirtualMemoryWithContext(ctx); err != nil {
		logger.LogSystemEvent("Monitor", "GetSystemSnapshot", "Failed to get memory usage: "+err.Error(), logger.WarnLevel, nil)
	} else {
		snap.MemoryUsage = vMem.UsedPercent
	}

	if diskPath == "" {
		diskPath = "/"
		snap.DiskPath = diskPath
	}
	if usage, err := disk.UsageWithContext(ctx, diskPath); err != nil {
		logger.LogSystemEvent("Monitor", "GetSystemSnapshot", "Failed to get disk usage: "+err.Error(), logger.WarnLevel, nil)
	} else {
		snap.DiskUsage = usage.UsedPercent
		snap.DiskFree = usage.Free
	}

	return snap
}
