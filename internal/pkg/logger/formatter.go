// 结构化日志辅助函数
package logger

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// FormatTimestamp 格式化时间戳为统一的毫秒精度格式
func FormatTimestamp(t time.Time) string {
	return t.Format(timestampFormat)
}

// NowFormatted 返回当前时间的格式化字符串
func NowFormatted() string {
	return FormatTimestamp(time.Now())
}

// LogType 日志类型枚举
type LogType string

const (
	// AccessLog 访问日志 - 记录HTTP请求
	AccessLog LogType = "access"
	// ErrorLog 错误日志 - 记录系统错误和异常
	ErrorLog LogType = "error"
	// SystemLog 系统日志 - 记录组件启停与状态变化
	SystemLog LogType = "system"
	// CollectionLog 采集日志 - 记录采集运行结果
	CollectionLog LogType = "collection"
)

// LogLevel 日志级别
type LogLevel string

const (
	DebugLevel LogLevel = "debug"
	InfoLevel  LogLevel = "info"
	WarnLevel  LogLevel = "warn"
	ErrorLevel LogLevel = "error"
)

// toLogrusLevel 转换为logrus级别
func toLogrusLevel(level LogLevel) logrus.Level {
	switch level {
	case DebugLevel:
		return logrus.DebugLevel
	case WarnLevel:
		return logrus.WarnLevel
	case ErrorLevel:
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// CollectionLogEntry 采集日志条目
type CollectionLogEntry struct {
	SourceID    string `json:"source_id"`    // 数据源ID
	Collector   string `json:"collector"`    // 采集器名称
	Status      string `json:"status"`       // success/partial/error
	Fetched     int    `json:"fetched"`      // 抓取记录数
	Created     int    `json:"created"`      // 新建记录数
	Updated     int    `json:"updated"`      // 更新记录数
	Failed      int    `json:"failed"`       // 失败记录数
	DurationMS  int64  `json:"duration_ms"`  // 耗时(毫秒)
	Description string `json:"description"`  // 结果描述
}

func mergeFields(fields logrus.Fields, extra map[string]interface{}) logrus.Fields {
	for k, v := range extra {
		fields[k] = v
	}
	return fields
}

// LogAccessRequest 记录HTTP访问日志
func LogAccessRequest(c *gin.Context, startTime time.Time, requestID string) {
	if LoggerInstance == nil {
		return
	}

	LoggerInstance.logger.WithFields(logrus.Fields{
		"type":          AccessLog,
		"method":        c.Request.Method,
		"path":          c.Request.URL.Path,
		"query":         c.Request.URL.RawQuery,
		"status_code":   c.Writer.Status(),
		"response_time": time.Since(startTime).Milliseconds(),
		"client_ip":     c.ClientIP(),
		"user_agent":    c.Request.UserAgent(),
		"request_id":    requestID,
		"response_size": c.Writer.Size(),
	}).Info("HTTP request processed")
}

// LogError 记录错误日志
func LogError(err error, requestID, path, method string, extraFields map[string]interface{}) {
	if LoggerInstance == nil || err == nil {
		return
	}

	fields := mergeFields(logrus.Fields{
		"type":       ErrorLog,
		"error":      err.Error(),
		"request_id": requestID,
		"path":       path,
		"method":     method,
	}, extraFields)

	LoggerInstance.logger.WithFields(fields).Errorf("System error occurred: %s", err.Error())
}

// LogInfo 记录信息日志
func LogInfo(message, requestID, path, method string, extraFields map[string]interface{}) {
	if LoggerInstance == nil || message == "" {
		return
	}

	fields := mergeFields(logrus.Fields{
		"type":       "info",
		"request_id": requestID,
		"path":       path,
		"method":     method,
	}, extraFields)

	LoggerInstance.logger.WithFields(fields).Info(message)
}

// LogWarn 记录警告日志
func LogWarn(message, requestID, path, method string, extraFields map[string]interface{}) {
	if LoggerInstance == nil || message == "" {
		return
	}

	fields := mergeFields(logrus.Fields{
		"type":       "warn",
		"request_id": requestID,
		"path":       path,
		"method":     method,
	}, extraFields)

	LoggerInstance.logger.WithFields(fields).Warn(message)
}

// LogSystemEvent 记录系统事件日志
// 用于记录组件启动、关闭、配置重载等系统级事件
func LogSystemEvent(component, event, message string, level LogLevel, extraFields map[string]interface{}) {
	if LoggerInstance == nil {
		return
	}

	lv := toLogrusLevel(level)
	fields := mergeFields(logrus.Fields{
		"type":      SystemLog,
		"component": component,
		"event":     event,
		"detail":    message,
	}, extraFields)

	LoggerInstance.logger.WithFields(fields).Log(lv, fmt.Sprintf("System event: %s - %s", component, event))
}

// LogCollectionOperation 记录一次采集运行的结果
// 日志级别随状态变化: success→info, partial→warn, error→error
func LogCollectionOperation(entry CollectionLogEntry, extraFields map[string]interface{}) {
	if LoggerInstance == nil {
		return
	}

	fields := mergeFields(logrus.Fields{
		"type":        CollectionLog,
		"source_id":   entry.SourceID,
		"collector":   entry.Collector,
		"status":      entry.Status,
		"fetched":     entry.Fetched,
		"created":     entry.Created,
		"updated":     entry.Updated,
		"failed":      entry.Failed,
		"duration_ms": entry.DurationMS,
	}, extraFields)

	e := LoggerInstance.logger.WithFields(fields)
	switch entry.Status {
	case "success":
		e.Info(fmt.Sprintf("Collection completed: %s (%s)", entry.SourceID, entry.Description))
	case "partial":
		e.Warn(fmt.Sprintf("Collection partially completed: %s (%s)", entry.SourceID, entry.Description))
	case "error":
		e.Error(fmt.Sprintf("Collection failed: %s (%s)", entry.SourceID, entry.Description))
	default:
		e.Info(fmt.Sprintf("Collection %s: %s", entry.Status, entry.SourceID))
	}
}
