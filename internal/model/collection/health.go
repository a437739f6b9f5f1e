package collection

import (
	"time"
)

// HealthStatus 整体健康状态
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusDegraded  HealthStatus = "degraded"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// IssueSeverity 问题严重度
type IssueSeverity string

const (
	SeverityWarning  IssueSeverity = "warning"
	SeverityError    IssueSeverity = "error"
	SeverityCritical IssueSeverity = "critical"
)

// HealthIssue 健康检查发现的问题
type HealthIssue struct {
	Severity  IssueSeverity `json:"severity"`
	SourceID  string        `json:"sourceId,omitempty"`
	Message   string        `json:"message"`
	Timestamp time.Time     `json:"timestamp"`
}

// SourceCounts 数据源计数
type SourceCounts struct {
	Total   int `json:"total"`
	Active  int `json:"active"`
	Warning int `json:"warning"`
	Error   int `json:"error"`
}

// CollectorCounts 采集器计数
type CollectorCounts struct {
	Total  int `json:"total"`
	Active int `json:"active"`
}

// RecentCollectionCounts 近期运行计数
type RecentCollectionCounts struct {
	Total      int `json:"total"`
	Successful int `json:"successful"`
	Failed     int `json:"failed"`
}

// HealthCheckResult 健康检查结果
type HealthCheckResult struct {
	Healthy           bool                   `json:"healthy"`
	Status            HealthStatus           `json:"status"`
	Issues            []HealthIssue          `json:"issues"`
	Sources           SourceCounts           `json:"sources"`
	Collectors        CollectorCounts        `json:"collectors"`
	RecentCollections RecentCollectionCounts `json:"recentCollections"`
	LastChecked       time.Time              `json:"lastChecked"`
}
