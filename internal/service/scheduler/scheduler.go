/**
 * 数据源定时调度
 * @author: sun977
 * @date: 2025.11.10
 * @description: 将数据源的 daily/weekly/monthly 计划编译为 cron 表达式并按时触发采集,手动数据源不参与调度
 */
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	colModel "github.com/jpperkins30-ai/real-estate-platform-sub012/internal/model/collection"
	"github.com/jpperkins30-ai/real-estate-platform-sub012/internal/pkg/logger"
)

// ErrManualSchedule 手动数据源没有 cron 表达式
var ErrManualSchedule = errors.New("manual sources are not scheduled")

// Runner 按数据源运行采集
type Runner interface {
	RunSource(ctx context.Context, sourceID string) (*colModel.CollectionResult, error)
}

// SourceLister 数据源列表
type SourceLister interface {
	List(ctx context.Context) ([]*colModel.Source, error)
}

// ScheduledSource 已登记的调度项
type ScheduledSource struct {
	SourceID string
	Spec     string
	Next     time.Time
}

// SchedulerService 调度服务接口
type SchedulerService interface {
	Start(ctx context.Context) error
	Stop()
	Entries() []ScheduledSource
}

type schedulerService struct {
	runner  Runner
	sources SourceLister
	cron    *cron.Cron

	mu      sync.Mutex
	ctx     context.Context
	entries map[cron.EntryID]string
}

// NewSchedulerService 创建调度服务
// timezone 为空时使用本地时区
func NewSchedulerService(runner Runner, sources SourceLister, timezone string) (SchedulerService, error) {
	loc := time.Local
	if timezone != "" {
		l, err := time.LoadLocation(timezone)
		if err != nil {
			return nil, fmt.Errorf("invalid scheduler timezone %q: %w", timezone, err)
		}
		loc = l
	}

	cl := cron.PrintfLogger(cronLogger())
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(cl),
		// 同一数据源上一次未结束时跳过本次
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)

	return &schedulerService{
		runner:  runner,
		sources: sources,
		cron:    c,
		entries: make(map[cron.EntryID]string),
	}, nil
}

func cronLogger() *logrus.Logger {
	if logger.LoggerInstance != nil {
		return logger.LoggerInstance.GetLogger()
	}
	return logrus.StandardLogger()
}

// Start 加载数据源并启动调度
func (s *schedulerService) Start(ctx context.Context) error {
	sources, err := s.sources.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list sources: %w", err)
	}

	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()

	scheduled := 0
	for _, src := range sources {
		spec, err := CronSpec(src.Schedule)
		if errors.Is(err, ErrManualSchedule) {
			continue
		}
		if err != nil {
			logger.LogWarn("Skipping source with invalid schedule", "", "", "scheduler.Start", map[string]interface{}{
				"source_id": src.ID,
				"error":     err.Error(),
			})
			continue
		}

		id, err := s.cron.AddJob(spec, s.job(src.ID, spec))
		if err != nil {
			return fmt.Errorf("failed to schedule source %s: %w", src.ID, err)
		}
		s.mu.Lock()
		s.entries[id] = src.ID
		s.mu.Unlock()
		scheduled++
	}

	s.cron.Start()
	logger.LogSystemEvent("scheduler", "start", fmt.Sprintf("%d sources scheduled", scheduled), logger.InfoLevel, nil)
	return nil
}

// Stop 停止调度并等待运行中的采集结束
func (s *schedulerService) Stop() {
	<-s.cron.Stop().Done()
	logger.LogSystemEvent("scheduler", "stop", "scheduler stopped", logger.InfoLevel, nil)
}

// Entries 当前调度项
func (s *schedulerService) Entries() []ScheduledSource {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]ScheduledSource, 0, len(s.entries))
	for _, e := range s.cron.Entries() {
		sourceID, ok := s.entries[e.ID]
		if !ok {
			continue
		}
		out = append(out, ScheduledSource{SourceID: sourceID, Spec: specOf(e), Next: e.Next})
	}
	return out
}

func specOf(e cron.Entry) string {
	if j, ok := e.Job.(*sourceJob); ok {
		return j.spec
	}
	return ""
}

// sourceJob 单个数据源的采集任务
type sourceJob struct {
	s        *schedulerService
	sourceID string
	spec     string
}

func (s *schedulerService) job(sourceID, spec string) *sourceJob {
	return &sourceJob{s: s, sourceID: sourceID, spec: spec}
}

// Run 实现 cron.Job
func (j *sourceJob) Run() {
	j.s.mu.Lock()
	ctx := j.s.ctx
	j.s.mu.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}
	if ctx.Err() != nil {
		return
	}

	res, err := j.s.runner.RunSource(ctx, j.sourceID)
	if err != nil {
		logger.LogError(err, "", "", "scheduler.Run", map[string]interface{}{"source_id": j.sourceID})
		return
	}
	logger.Debugf("Scheduled collection for %s finished: %s", j.sourceID, res.Status())
}

// CronSpec 将数据源计划编译为标准五段 cron 表达式
// weekly 未指定星期时为周一，monthly 未指定日期时为 1 号
func CronSpec(s colModel.Schedule) (string, error) {
	if s.Hour < 0 || s.Hour > 23 {
		return "", fmt.Errorf("invalid hour %d", s.Hour)
	}

	switch s.Frequency {
	case colModel.FrequencyDaily:
		return fmt.Sprintf("0 %d * * *", s.Hour), nil
	case colModel.FrequencyWeekly:
		dow := 1
		if s.DayOfWeek != nil {
			dow = *s.DayOfWeek
		}
		if dow < 0 || dow > 6 {
			return "", fmt.Errorf("invalid day of week %d", dow)
		}
		return fmt.Sprintf("0 %d * * %d", s.Hour, dow), nil
	case colModel.FrequencyMonthly:
		dom := 1
		if s.DayOfMonth != nil {
			dom = *s.DayOfMonth
		}
		if dom < 1 || dom > 31 {
			return "", fmt.Errorf("invalid day of month %d", dom)
		}
		return fmt.Sprintf("0 %d %d * *", s.Hour, dom), nil
	case colModel.FrequencyManual, "":
		return "", ErrManualSchedule
	default:
		return "", fmt.Errorf("unknown frequency %q", s.Frequency)
	}
}
