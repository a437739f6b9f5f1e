package collection

import (
	"time"
)

// RunStatus 采集运行状态
type RunStatus string

const (
	RunStatusSuccess RunStatus = "success"
	RunStatusPartial RunStatus = "partial"
	RunStatusError   RunStatus = "error"
)

// RunStats 单次运行统计
type RunStats struct {
	Fetched          int `json:"fetched" bson:"fetched"`
	Transformed      int `json:"transformed" bson:"transformed"`
	Invalid          int `json:"invalid" bson:"invalid"`
	Saved            int `json:"saved" bson:"saved"`
	Created          int `json:"created" bson:"created"`
	Updated          int `json:"updated" bson:"updated"`
	Failed           int `json:"failed" bson:"failed"`
	Enriched         int `json:"enriched" bson:"enriched"`
	EnrichmentFailed int `json:"enrichmentFailed" bson:"enrichmentFailed"`
}

// RunError 运行期错误
type RunError struct {
	Message   string    `json:"message" bson:"message"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
}

// CollectionRun 单次采集的不可变记录
type CollectionRun struct {
	ID            string     `json:"id" bson:"_id"`
	SourceID      string     `json:"sourceId" bson:"sourceId"`
	CollectorName string     `json:"collectorName" bson:"collectorName"`
	Timestamp     time.Time  `json:"timestamp" bson:"timestamp"`
	Status        RunStatus  `json:"status" bson:"status"`
	Message       string     `json:"message" bson:"message"`
	Stats         RunStats   `json:"stats" bson:"stats"`
	Errors        []RunError `json:"errors,omitempty" bson:"errors,omitempty"`
	PropertyKeys  []string   `json:"propertyKeys,omitempty" bson:"propertyKeys,omitempty"`
	Synthetic     bool       `json:"synthetic" bson:"synthetic"`
	RawDataPath   string     `json:"rawDataPath,omitempty" bson:"rawDataPath,omitempty"`
	DurationMS    int64      `json:"durationMs" bson:"durationMs"`
}

// CollectionResult 采集器与管理器的单次结果
type CollectionResult struct {
	SourceID    string      `json:"sourceId"`
	Timestamp   time.Time   `json:"timestamp"`
	Success     bool        `json:"success"`
	Message     string      `json:"message"`
	Data        []RawRecord `json:"-"`
	RawDataPath string      `json:"rawDataPath,omitempty"`
	Partial     bool        `json:"partial,omitempty"`
	Synthetic   bool        `json:"synthetic,omitempty"`
	Stats       RunStats    `json:"stats"`
	RunID       string      `json:"runId,omitempty"`
}

// Status 根据结果推导运行状态
func (r *CollectionResult) Status() RunStatus {
	switch {
	case !r.Success:
		return RunStatusError
	case r.Partial || r.Synthetic || r.Stats.Failed > 0:
		return RunStatusPartial
	default:
		return RunStatusSuccess
	}
}

// ErrorResult 构造失败结果
func ErrorResult(sourceID string, err error) *CollectionResult {
	return &CollectionResult{
		SourceID:  sourceID,
		Timestamp: time.Now(),
		Success:   false,
		Message:   err.Error(),
	}
}
