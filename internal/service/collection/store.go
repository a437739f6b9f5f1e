package collection

import (
	"context"
	"time"

	colModel "github.com/jpperkins30-ai/real-estate-platform-sub012/internal/model/collection"
)

// PropertyStore 房产存储
// Upsert 按身份键新建或原地更新，created 表示是否新建
type PropertyStore interface {
	Upsert(ctx context.Context, p *colModel.Property) (created bool, err error)
}

// SourceStore 数据源存储，Get 未找到时返回 nil, nil
type SourceStore interface {
	List(ctx context.Context) ([]*colModel.Source, error)
	Get(ctx context.Context, id string) (*colModel.Source, error)
	UpdateStatus(ctx context.Context, id string, u colModel.SourceStatusUpdate) error
}

// SourceSeeder 可写入数据源定义的存储
type SourceSeeder interface {
	Seed(ctx context.Context, s *colModel.Source) error
}

// RunStore 采集运行记录存储
type RunStore interface {
	Insert(ctx context.Context, run *colModel.CollectionRun) error
	ListSince(ctx context.Context, since time.Time) ([]*colModel.CollectionRun, error)
}
