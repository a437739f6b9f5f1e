/**
 * 采集管理器
 * @author: sun977
 * @date: 2025.11.09
 * @description: 注册采集器,按单个/全部/批量方式运行,规范化后按身份键入库,记录运行结果并回写数据源状态
 * @func:
 * 	1.RunCollection 按采集器运行
 * 	2.RunSource 按数据源运行
 * 	3.RunAllCollectors 顺序运行全部采集器
 * 	4.ExecuteParallelCollections 分批并发运行
 * 	5.CheckHealth 健康检查
 */
package collection

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jpperkins30-ai/real-estate-platform-sub012/internal/core/collector"
	"github.com/jpperkins30-ai/real-estate-platform-sub012/internal/core/transform"
	colModel "github.com/jpperkins30-ai/real-estate-platform-sub012/internal/model/collection"
	"github.com/jpperkins30-ai/real-estate-platform-sub012/internal/service/geocode"
)

const (
	DefaultConcurrencyLimit = 3
	DefaultLookback         = 24 * time.Hour
	DefaultStaleAfter       = 7 * 24 * time.Hour
	DefaultWarningRatio     = 0.2

	// maxRunErrors 单次运行记录的错误条数上限
	maxRunErrors = 50
)

// HealthOptions 健康检查阈值
type HealthOptions struct {
	Lookback     time.Duration
	StaleAfter   time.Duration
	WarningRatio float64
}

// Options 管理器参数
type Options struct {
	Pipeline         *transform.Pipeline
	Geocoder         geocode.Geocoder // 为空时不做地理编码
	ConcurrencyLimit int
	Health           HealthOptions
	Now              func() time.Time
}

// Manager 采集管理器
type Manager struct {
	mu         sync.RWMutex
	collectors map[string]collector.Collector

	properties PropertyStore
	sources    SourceStore
	runs       RunStore

	pipeline    *transform.Pipeline
	geocoder    geocode.Geocoder
	concurrency int
	health      HealthOptions
	now         func() time.Time
}

// NewManager 创建采集管理器
func NewManager(properties PropertyStore, sources SourceStore, runs RunStore, opts Options) *Manager {
	if opts.Pipeline == nil {
		opts.Pipeline = transform.NewPipeline()
	}
	if opts.ConcurrencyLimit <= 0 {
		opts.ConcurrencyLimit = DefaultConcurrencyLimit
	}
	if opts.Health.Lookback <= 0 {
		opts.Health.Lookback = DefaultLookback
	}
	if opts.Health.StaleAfter <= 0 {
		opts.Health.StaleAfter = DefaultStaleAfter
	}
	if opts.Health.WarningRatio <= 0 {
		opts.Health.WarningRatio = DefaultWarningRatio
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Manager{
		collectors:  make(map[string]collector.Collector),
		properties:  properties,
		sources:     sources,
		runs:        runs,
		pipeline:    opts.Pipeline,
		geocoder:    opts.Geocoder,
		concurrency: opts.ConcurrencyLimit,
		health:      opts.Health,
		now:         opts.Now,
	}
}

// Register 注册采集器，同名覆盖
func (m *Manager) Register(name string, c collector.Collector) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.collectors[name] = c
}

// Get 获取采集器
func (m *Manager) Get(name string) (collector.Collector, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.collectors[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCollectorNotFound, name)
	}
	return c, nil
}

// Names 已注册采集器名称(有序)
func (m *Manager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.collectors))
	for name := range m.collectors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RunCollection 运行指定采集器
// 数据源取 CollectorType 与采集器同名者，优先活跃数据源
func (m *Manager) RunCollection(ctx context.Context, name string) (*colModel.CollectionResult, error) {
	c, err := m.Get(name)
	if err != nil {
		return nil, err
	}

	src, err := m.sourceForCollector(ctx, name)
	if err != nil {
		return nil, err
	}

	return m.run(ctx, c, src), nil
}

// RunSource 运行指定数据源
func (m *Manager) RunSource(ctx context.Context, sourceID string) (*colModel.CollectionResult, error) {
	src, err := m.sources.Get(ctx, sourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load source %s: %w", sourceID, err)
	}
	if src == nil {
		return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, sourceID)
	}

	c, err := m.Get(src.CollectorType)
	if err != nil {
		return nil, err
	}

	return m.run(ctx, c, src), nil
}

// RunAllCollectors 顺序运行全部已注册采集器，单个失败不影响其他
func (m *Manager) RunAllCollectors(ctx context.Context) map[string]*colModel.CollectionResult {
	results := make(map[string]*colModel.CollectionResult)
	for _, name := range m.Names() {
		if ctx.Err() != nil {
			break
		}
		res, err := m.RunCollection(ctx, name)
		if err != nil {
			res = colModel.ErrorResult("", err)
		}
		results[name] = res
	}
	return results
}

// ExecuteParallelCollections 分批并发运行数据源
// sourceIDs 为空时运行全部活跃数据源，重复的ID只运行一次；每批最多 concurrencyLimit 个，上一批全部结束后才开始下一批。
// 上下文取消后不再调度新批次，返回已完成的结果与取消原因。
func (m *Manager) ExecuteParallelCollections(ctx context.Context, sourceIDs []string, concurrencyLimit int) (map[string]*colModel.CollectionResult, error) {
	if concurrencyLimit <= 0 {
		concurrencyLimit = m.concurrency
	}

	if len(sourceIDs) == 0 {
		ids, err := m.activeSourceIDs(ctx)
		if err != nil {
			return nil, err
		}
		sourceIDs = ids
	}
	sourceIDs = uniqueIDs(sourceIDs)

	results := make(map[string]*colModel.CollectionResult, len(sourceIDs))
	for start := 0; start < len(sourceIDs); start += concurrencyLimit {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		end := start + concurrencyLimit
		if end > len(sourceIDs) {
			end = len(sourceIDs)
		}
		batch := sourceIDs[start:end]
		batchResults := make([]*colModel.CollectionResult, len(batch))

		var g errgroup.Group
		for i, id := range batch {
			g.Go(func() error {
				res, err := m.RunSource(ctx, id)
				if err != nil {
					res = colModel.ErrorResult(id, err)
				}
				batchResults[i] = res
				return nil
			})
		}
		_ = g.Wait()

		for i, id := range batch {
			results[id] = batchResults[i]
		}
	}
	return results, nil
}

// uniqueIDs 去重并保持首次出现的顺序
func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func (m *Manager) sourceForCollector(ctx context.Context, name string) (*colModel.Source, error) {
	sources, err := m.sources.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list sources: %w", err)
	}

	var fallback *colModel.Source
	for _, s := range sources {
		if s.CollectorType != name {
			continue
		}
		if s.IsActive() {
			return s, nil
		}
		if fallback == nil {
			fallback = s
		}
	}
	if fallback == nil {
		return nil, fmt.Errorf("%w: no source configured for collector %s", ErrSourceNotFound, name)
	}
	return fallback, nil
}

func (m *Manager) activeSourceIDs(ctx context.Context) ([]string, error) {
	sources, err := m.sources.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list sources: %w", err)
	}
	ids := make([]string, 0, len(sources))
	for _, s := range sources {
		if s.IsActive() {
			ids = append(ids, s.ID)
		}
	}
	return ids, nil
}
