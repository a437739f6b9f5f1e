// Package collector 定义数据源采集器能力
package collector

import (
	"context"
	"errors"

	"github.com/jpperkins30-ai/real-estate-platform-sub012/internal/model/collection"
)

// ErrEmptyListing 列表页没有任何记录
var ErrEmptyListing = errors.New("listing contains no records")

// Collector 数据源采集器
// Execute 返回的记录尚未规范化，由管理器送入转换管线
type Collector interface {
	Name() string
	Execute(ctx context.Context, src *collection.Source) (*collection.CollectionResult, error)
}

// Authenticator 需要登录的采集器可选实现
// 管理器在 Execute 之前调用
type Authenticator interface {
	Authenticate(ctx context.Context) error
}
