/**
 * 转换管线
 * @author: sun977
 * @date: 2025.11.05
 * @description: 固定顺序的规范化阶段，每个阶段在输入的深拷贝上运行
 * @func: 校验 -> 地址规范化 -> 数值抽取 -> 房产类型标准化
 */
package transform

import (
	"errors"
	"fmt"

	"github.com/tiendc/go-deepcopy"

	"github.com/jpperkins30-ai/real-estate-platform-sub012/internal/model/collection"
)

// StageFunc 单个转换阶段，可以原地修改传入的副本
type StageFunc func(rec collection.RawRecord) error

// Stage 命名阶段
type Stage struct {
	Name  string
	Apply StageFunc
}

// 阶段名称
const (
	StageValidate       = "validate_required"
	StageNormalizeAddr  = "normalize_address"
	StageExtractNumeric = "extract_numeric"
	StagePropertyType   = "standardize_property_type"
)

// Pipeline 转换管线
// Process 满足幂等: Process(Process(x)) == Process(x)
type Pipeline struct {
	stages []Stage
}

// NewPipeline 创建标准管线
func NewPipeline() *Pipeline {
	return newPipeline([]Stage{
		{Name: StageValidate, Apply: ValidateRequired},
		{Name: StageNormalizeAddr, Apply: NormalizeAddress},
		{Name: StageExtractNumeric, Apply: ExtractNumeric},
		{Name: StagePropertyType, Apply: StandardizePropertyType},
	})
}

func newPipeline(stages []Stage) *Pipeline {
	return &Pipeline{stages: stages}
}

// Process 依次执行各阶段，任一阶段失败则后续阶段不再执行
// 输入记录不会被修改
func (p *Pipeline) Process(rec collection.RawRecord) (collection.RawRecord, error) {
	current := rec
	for _, stage := range p.stages {
		next, err := clone(current)
		if err != nil {
			return nil, &StageError{Stage: stage.Name, Err: err}
		}
		if err := stage.Apply(next); err != nil {
			var verr *ValidationError
			if errors.As(err, &verr) {
				return nil, err
			}
			return nil, &StageError{Stage: stage.Name, Err: err}
		}
		current = next
	}
	return current, nil
}

// Transform Process + ToProperty
func (p *Pipeline) Transform(rec collection.RawRecord) (*collection.Property, error) {
	normalized, err := p.Process(rec)
	if err != nil {
		return nil, err
	}
	return ToProperty(normalized)
}

func clone(rec collection.RawRecord) (collection.RawRecord, error) {
	if rec == nil {
		return collection.RawRecord{}, nil
	}
	var dst collection.RawRecord
	if err := deepcopy.Copy(&dst, &rec); err != nil {
		return nil, fmt.Errorf("deep copy record: %w", err)
	}
	return dst, nil
}
