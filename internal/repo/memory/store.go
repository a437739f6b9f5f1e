/**
 * 仓库层:内存存储
 * @author: sun977
 * @date: 2025.11.06
 * @description: 与 internal/repo/mongo 行为一致的内存实现(单实例、试运行与测试使用)
 * @note: 进程退出即丢失
 */
package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/tiendc/go-deepcopy"

	"github.com/jpperkins30-ai/real-estate-platform-sub012/internal/model/collection"
)

// PropertyRepository 内存房产仓库
type PropertyRepository struct {
	properties map[string]*collection.Property
	mutex      sync.RWMutex
}

// NewPropertyRepository 创建内存房产仓库
func NewPropertyRepository() *PropertyRepository {
	return &PropertyRepository{properties: make(map[string]*collection.Property)}
}

// Upsert 按身份键写入
func (r *PropertyRepository) Upsert(ctx context.Context, p *collection.Property) (bool, error) {
	if p == nil {
		return false, errors.New("property is nil")
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if p.IdentityKey == "" {
		key, err := p.ComputeIdentityKey()
		if err != nil {
			return false, err
		}
		p.IdentityKey = key
	}
	if p.LastUpdated.IsZero() {
		p.LastUpdated = time.Now()
	}

	var stored collection.Property
	if err := deepcopy.Copy(&stored, p); err != nil {
		return false, fmt.Errorf("copy property: %w", err)
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()
	_, exists := r.properties[p.IdentityKey]
	r.properties[p.IdentityKey] = &stored
	return !exists, nil
}

// GetByIdentityKey 根据身份键获取房产，不存在返回 nil
func (r *PropertyRepository) GetByIdentityKey(ctx context.Context, key string) (*collection.Property, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	p, ok := r.properties[key]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

// Count 记录总数
func (r *PropertyRepository) Count() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return len(r.properties)
}

// SourceRepository 内存数据源仓库
type SourceRepository struct {
	sources map[string]*collection.Source
	mutex   sync.RWMutex
}

// NewSourceRepository 创建内存数据源仓库
func NewSourceRepository(sources ...*collection.Source) *SourceRepository {
	r := &SourceRepository{sources: make(map[string]*collection.Source)}
	for _, s := range sources {
		_ = r.Seed(context.Background(), s)
	}
	return r
}

func copySource(s *collection.Source) *collection.Source {
	var out collection.Source
	if err := deepcopy.Copy(&out, s); err != nil {
		cp := *s
		return &cp
	}
	return &out
}

// List 列出全部数据源，按ID排序
func (r *SourceRepository) List(ctx context.Context) ([]*collection.Source, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	out := make([]*collection.Source, 0, len(r.sources))
	for _, s := range r.sources {
		out = append(out, copySource(s))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Get 根据ID获取数据源，不存在返回 nil
func (r *SourceRepository) Get(ctx context.Context, id string) (*collection.Source, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	s, ok := r.sources[id]
	if !ok {
		return nil, nil
	}
	return copySource(s), nil
}

// UpdateStatus 回写采集后的数据源状态
func (r *SourceRepository) UpdateStatus(ctx context.Context, id string, u collection.SourceStatusUpdate) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	s, ok := r.sources[id]
	if !ok {
		return fmt.Errorf("source %s not found", id)
	}
	s.Status = u.Status
	t := u.LastCollected
	s.LastCollected = &t
	if s.Metadata == nil {
		s.Metadata = make(map[string]interface{})
	}
	setOrDelete(s.Metadata, collection.MetaLastWarning, u.LastWarning)
	setOrDelete(s.Metadata, collection.MetaLastError, u.LastError)
	return nil
}

func setOrDelete(m map[string]interface{}, key, value string) {
	if value == "" {
		delete(m, key)
		return
	}
	m[key] = value
}

// Seed 写入数据源定义，已存在时保留运行状态
func (r *SourceRepository) Seed(ctx context.Context, s *collection.Source) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	incoming := copySource(s)
	if existing, ok := r.sources[s.ID]; ok {
		incoming.Status = existing.Status
		incoming.LastCollected = existing.LastCollected
		for k, v := range existing.Metadata {
			if _, set := incoming.Metadata[k]; !set {
				if incoming.Metadata == nil {
					incoming.Metadata = make(map[string]interface{})
				}
				incoming.Metadata[k] = v
			}
		}
	} else if incoming.Status == "" {
		incoming.Status = collection.SourceStatusActive
	}
	r.sources[s.ID] = incoming
	return nil
}

// RunRepository 内存运行记录仓库
type RunRepository struct {
	runs  []*collection.CollectionRun
	mutex sync.RWMutex
}

// NewRunRepository 创建内存运行记录仓库
func NewRunRepository() *RunRepository {
	return &RunRepository{}
}

// Insert 追加运行记录
func (r *RunRepository) Insert(ctx context.Context, run *collection.CollectionRun) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	cp := *run
	r.runs = append(r.runs, &cp)
	return nil
}

// ListSince 列出指定时间之后的运行记录，按时间倒序
func (r *RunRepository) ListSince(ctx context.Context, since time.Time) ([]*collection.CollectionRun, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	var out []*collection.CollectionRun
	for _, run := range r.runs {
		if !run.Timestamp.Before(since) {
			cp := *run
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out, nil
}
