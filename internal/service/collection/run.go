package collection

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/jpperkins30-ai/real-estate-platform-sub012/internal/core/collector"
	"github.com/jpperkins30-ai/real-estate-platform-sub012/internal/core/transform"
	colModel "github.com/jpperkins30-ai/real-estate-platform-sub012/internal/model/collection"
	"github.com/jpperkins30-ai/real-estate-platform-sub012/internal/pkg/logger"
)

// runState 单次运行的累积状态
type runState struct {
	errors []colModel.RunError
	keys   []string
}

func (s *runState) addError(m *Manager, format string, args ...interface{}) {
	if len(s.errors) >= maxRunErrors {
		return
	}
	s.errors = append(s.errors, colModel.RunError{Message: fmt.Sprintf(format, args...), Timestamp: m.now()})
}

// run 执行一次完整采集: 认证 -> 抓取 -> 规范化 -> 入库 -> 记录 -> 回写状态
// 总是返回结果，采集器错误转为失败结果
func (m *Manager) run(ctx context.Context, c collector.Collector, src *colModel.Source) *colModel.CollectionResult {
	started := m.now()
	state := &runState{}

	res, err := m.execute(ctx, c, src)
	if err != nil {
		res = colModel.ErrorResult(src.ID, fmt.Errorf("collector %s failed: %w", c.Name(), err))
		state.addError(m, "%v", err)
	} else {
		m.persist(ctx, src, res, state)
	}
	res.SourceID = src.ID
	res.Timestamp = started

	run := &colModel.CollectionRun{
		ID:            uuid.NewString(),
		SourceID:      src.ID,
		CollectorName: c.Name(),
		Timestamp:     started,
		Status:        res.Status(),
		Message:       res.Message,
		Stats:         res.Stats,
		Errors:        state.errors,
		PropertyKeys:  state.keys,
		Synthetic:     res.Synthetic,
		RawDataPath:   res.RawDataPath,
		DurationMS:    m.now().Sub(started).Milliseconds(),
	}
	res.RunID = run.ID

	// 记录与回写不受调用方取消影响
	bg := context.WithoutCancel(ctx)
	if err := m.runs.Insert(bg, run); err != nil {
		logger.LogError(err, "", "record_collection_run", "SERVICE", map[string]interface{}{
			"operation": "record_collection_run",
			"source_id": src.ID,
			"run_id":    run.ID,
		})
	}
	if err := m.sources.UpdateStatus(bg, src.ID, statusUpdate(run)); err != nil {
		logger.LogError(err, "", "update_source_status", "SERVICE", map[string]interface{}{
			"operation": "update_source_status",
			"source_id": src.ID,
		})
	}

	logger.LogCollectionOperation(logger.CollectionLogEntry{
		SourceID:    src.ID,
		Collector:   c.Name(),
		Status:      string(run.Status),
		Fetched:     run.Stats.Fetched,
		Created:     run.Stats.Created,
		Updated:     run.Stats.Updated,
		Failed:      run.Stats.Failed,
		DurationMS:  run.DurationMS,
		Description: run.Message,
	}, map[string]interface{}{
		"run_id":    run.ID,
		"synthetic": run.Synthetic,
		"invalid":   run.Stats.Invalid,
	})

	return res
}

func (m *Manager) execute(ctx context.Context, c collector.Collector, src *colModel.Source) (*colModel.CollectionResult, error) {
	if auth, ok := c.(collector.Authenticator); ok {
		if err := auth.Authenticate(ctx); err != nil {
			return nil, fmt.Errorf("authenticate: %w", err)
		}
	}
	res, err := c.Execute(ctx, src)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, errors.New("collector returned no result")
	}
	if !res.Success {
		return nil, errors.New(res.Message)
	}
	return res, nil
}

// persist 逐条规范化并入库，瞬时错误重试一次，单条失败只计数
func (m *Manager) persist(ctx context.Context, src *colModel.Source, res *colModel.CollectionResult, state *runState) {
	for i, rec := range res.Data {
		if ctx.Err() != nil {
			state.addError(m, "persistence interrupted: %v", ctx.Err())
			res.Stats.Failed += len(res.Data) - i
			break
		}

		p, err := m.pipeline.Transform(rec)
		if err != nil {
			res.Stats.Invalid++
			var verr *transform.ValidationError
			if errors.As(err, &verr) {
				logger.WithField("source_id", src.ID).Debugf("Skipping invalid record %d: %v", i, err)
			} else {
				logger.WithField("source_id", src.ID).Warnf("Failed to transform record %d: %v", i, err)
			}
			state.addError(m, "record %d: %v", i, err)
			continue
		}
		res.Stats.Transformed++

		if p.Location == nil {
			p.Location = m.locate(ctx, src, p)
		}
		p.SourceID = src.ID
		p.LastUpdated = m.now()

		created, err := m.properties.Upsert(ctx, p)
		if err != nil && IsTransient(err) {
			logger.WithField("source_id", src.ID).Warnf("Retrying upsert of %s after transient error: %v", p.IdentityKey, err)
			created, err = m.properties.Upsert(ctx, p)
		}
		if err != nil {
			res.Stats.Failed++
			state.addError(m, "upsert %s (%s): %v", p.IdentityKey, ClassifyError(err), err)
			continue
		}
		res.Stats.Saved++
		if created {
			res.Stats.Created++
		} else {
			res.Stats.Updated++
		}
		state.keys = append(state.keys, p.IdentityKey)
	}

	res.Message = fmt.Sprintf("%s; saved %d (created %d, updated %d), invalid %d, failed %d",
		res.Message, res.Stats.Saved, res.Stats.Created, res.Stats.Updated, res.Stats.Invalid, res.Stats.Failed)
}

// locate 地理编码，失败或未命中时回退到县中心点(近似)
func (m *Manager) locate(ctx context.Context, src *colModel.Source, p *colModel.Property) *colModel.Location {
	if m.geocoder == nil {
		return nil
	}

	loc, err := m.geocoder.Geocode(ctx, p.PropertyAddress, p.City, p.State)
	if err == nil && loc != nil {
		return loc
	}
	if err != nil {
		logger.WithField("source_id", src.ID).Warnf("Geocoding failed for %s: %v", p.IdentityKey, err)
	}

	lat, okLat := src.MetaFloat(colModel.MetaDefaultLatitude)
	lon, okLon := src.MetaFloat(colModel.MetaDefaultLongitude)
	if !okLat || !okLon {
		return nil
	}
	return &colModel.Location{Latitude: lat, Longitude: lon, Approximate: true}
}

// statusUpdate 根据运行状态生成数据源回写
func statusUpdate(run *colModel.CollectionRun) colModel.SourceStatusUpdate {
	u := colModel.SourceStatusUpdate{LastCollected: run.Timestamp}
	switch run.Status {
	case colModel.RunStatusError:
		u.Status = colModel.SourceStatusError
		u.LastError = run.Message
	case colModel.RunStatusPartial:
		u.Status = colModel.SourceStatusWarning
		u.LastWarning = run.Message
	default:
		u.Status = colModel.SourceStatusActive
	}
	return u
}
