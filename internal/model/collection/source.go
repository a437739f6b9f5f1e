/**
 * 采集模型:数据源
 * @author: sun977
 * @date: 2025.11.04
 * @description: 外部政府数据源定义,核心流程只读取并回写状态字段
 */
package collection

import (
	"time"
)

// SourceStatus 数据源状态
type SourceStatus string

const (
	SourceStatusActive  SourceStatus = "active"
	SourceStatusWarning SourceStatus = "warning"
	SourceStatusError   SourceStatus = "error"
)

// Frequency 采集频率
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
	FrequencyManual  Frequency = "manual"
)

// Region 数据源所属行政区
type Region struct {
	State  string `json:"state" bson:"state"`
	County string `json:"county" bson:"county"`
}

// Schedule 数据源采集计划
type Schedule struct {
	Frequency  Frequency `json:"frequency" bson:"frequency"`
	DayOfWeek  *int      `json:"dayOfWeek,omitempty" bson:"dayOfWeek,omitempty"`   // 0=周日
	DayOfMonth *int      `json:"dayOfMonth,omitempty" bson:"dayOfMonth,omitempty"` // 1-31
	Hour       int       `json:"hour" bson:"hour"`
}

// Source 外部数据源
type Source struct {
	ID            string                 `json:"id" bson:"_id"`
	Name          string                 `json:"name" bson:"name"`
	Kind          string                 `json:"type" bson:"type"` // county-website
	URL           string                 `json:"url" bson:"url"`
	Region        Region                 `json:"region" bson:"region"`
	CollectorType string                 `json:"collectorType" bson:"collectorType"`
	Schedule      Schedule               `json:"schedule" bson:"schedule"`
	Metadata      map[string]interface{} `json:"metadata,omitempty" bson:"metadata,omitempty"`
	Status        SourceStatus           `json:"status" bson:"status"`
	LastCollected *time.Time             `json:"lastCollected,omitempty" bson:"lastCollected,omitempty"`
}

// 元数据键
const (
	MetaLastWarning      = "lastWarning"
	MetaLastError        = "lastError"
	MetaDefaultLatitude  = "default_latitude"
	MetaDefaultLongitude = "default_longitude"
)

// IsActive 是否为活跃数据源
func (s *Source) IsActive() bool {
	return s.Status == SourceStatusActive
}

// MetaFloat 读取数值型元数据
func (s *Source) MetaFloat(key string) (float64, bool) {
	if s.Metadata == nil {
		return 0, false
	}
	switch v := s.Metadata[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case int32:
		return float64(v), true
	default:
		return 0, false
	}
}

// SourceStatusUpdate 采集结束后回写的数据源状态
type SourceStatusUpdate struct {
	Status        SourceStatus
	LastCollected time.Time
	LastWarning   string // 为空时清除
	LastError     string // 为空时清除
}
