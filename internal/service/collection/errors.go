// 错误定义与分类
package collection

import (
	"context"
	"errors"
	"net"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
)

var (
	// ErrCollectorNotFound 采集器未注册
	ErrCollectorNotFound = errors.New("collector not found")
	// ErrSourceNotFound 数据源不存在或没有数据源绑定到采集器
	ErrSourceNotFound = errors.New("source not found")
)

// ErrorType 错误类型
type ErrorType int

const (
	ErrorTypeUnknown    ErrorType = iota
	ErrorTypeTransient            // 瞬时错误 (可重试)
	ErrorTypePersistent           // 持久错误 (不可重试)
)

func (t ErrorType) String() string {
	switch t {
	case ErrorTypeTransient:
		return "transient"
	case ErrorTypePersistent:
		return "persistent"
	default:
		return "unknown"
	}
}

// ClassifyError 对采集与入库过程中的错误分类
func ClassifyError(err error) ErrorType {
	if err == nil {
		return ErrorTypeUnknown
	}

	if errors.Is(err, ErrCollectorNotFound) || errors.Is(err, ErrSourceNotFound) ||
		errors.Is(err, context.Canceled) {
		return ErrorTypePersistent
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorTypeTransient
	}

	// 并发首次写入同一身份键，重试即转为更新
	if mongo.IsDuplicateKeyError(err) || mongo.IsTimeout(err) || mongo.IsNetworkError(err) {
		return ErrorTypeTransient
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return ErrorTypeTransient
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "broken pipe") {
		return ErrorTypeTransient
	}

	return ErrorTypeUnknown
}

// IsTransient 判断是否为瞬时错误
func IsTransient(err error) bool {
	return ClassifyError(err) == ErrorTypeTransient
}
