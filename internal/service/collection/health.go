package collection

import (
	"context"
	"fmt"
	"time"

	colModel "github.com/jpperkins30-ai/real-estate-platform-sub012/internal/model/collection"
	"github.com/jpperkins30-ai/real-estate-platform-sub012/internal/pkg/logger"
)

// CheckHealth 汇总数据源状态与近期运行情况
// 存储不可读或近期运行全部失败为 critical；任一 critical 为 unhealthy，
// 存在 error 或 warning 数超过数据源总数的阈值比例为 degraded。
func (m *Manager) CheckHealth(ctx context.Context, lookback time.Duration) *colModel.HealthCheckResult {
	if lookback <= 0 {
		lookback = m.health.Lookback
	}
	now := m.now()
	result := &colModel.HealthCheckResult{
		Issues:      make([]colModel.HealthIssue, 0),
		LastChecked: now,
	}
	issue := func(sev colModel.IssueSeverity, sourceID, format string, args ...interface{}) {
		result.Issues = append(result.Issues, colModel.HealthIssue{
			Severity:  sev,
			SourceID:  sourceID,
			Message:   fmt.Sprintf(format, args...),
			Timestamp: now,
		})
	}

	names := m.Names()
	registered := make(map[string]bool, len(names))
	for _, n := range names {
		registered[n] = true
	}
	result.Collectors.Total = len(names)

	sources, err := m.sources.List(ctx)
	if err != nil {
		issue(colModel.SeverityCritical, "", "Failed to read data sources: %v", err)
		logger.LogError(err, "", "check_health", "SERVICE", map[string]interface{}{"operation": "list_sources"})
	}

	activeCollectors := make(map[string]bool)
	for _, s := range sources {
		result.Sources.Total++
		switch s.Status {
		case colModel.SourceStatusActive:
			result.Sources.Active++
		case colModel.SourceStatusWarning:
			result.Sources.Warning++
			issue(colModel.SeverityWarning, s.ID, "Source %s reported a warning: %s", s.Name, metaString(s, colModel.MetaLastWarning))
		case colModel.SourceStatusError:
			result.Sources.Error++
			issue(colModel.SeverityError, s.ID, "Source %s is in error state: %s", s.Name, metaString(s, colModel.MetaLastError))
		}

		if !s.IsActive() {
			continue
		}
		if !registered[s.CollectorType] {
			issue(colModel.SeverityError, s.ID, "No collector registered for source %s (type %s)", s.Name, s.CollectorType)
		} else {
			activeCollectors[s.CollectorType] = true
		}
		if s.Schedule.Frequency != colModel.FrequencyManual && s.LastCollected != nil {
			if age := now.Sub(*s.LastCollected); age > m.health.StaleAfter {
				issue(colModel.SeverityWarning, s.ID, "Source %s has not been collected for %d days", s.Name, int(age.Hours()/24))
			}
		}
	}
	result.Collectors.Active = len(activeCollectors)

	runs, err := m.runs.ListSince(ctx, now.Add(-lookback))
	if err != nil {
		issue(colModel.SeverityCritical, "", "Failed to read recent collection runs: %v", err)
		logger.LogError(err, "", "check_health", "SERVICE", map[string]interface{}{"operation": "list_runs"})
	}

	// 每个数据源只报告最近一次失败
	reported := make(map[string]bool)
	for _, r := range runs {
		result.RecentCollections.Total++
		if r.Status != colModel.RunStatusError {
			result.RecentCollections.Successful++
			continue
		}
		result.RecentCollections.Failed++
		if !reported[r.SourceID] {
			reported[r.SourceID] = true
			issue(colModel.SeverityError, r.SourceID, "Recent collection for %s failed: %s", r.SourceID, r.Message)
		}
	}
	if rc := result.RecentCollections; rc.Total > 0 && rc.Failed == rc.Total {
		issue(colModel.SeverityCritical, "", "All %d collections in the last %s failed", rc.Total, lookback)
	}

	result.Status = m.healthStatus(result)
	result.Healthy = result.Status == colModel.HealthStatusHealthy
	return result
}

func (m *Manager) healthStatus(result *colModel.HealthCheckResult) colModel.HealthStatus {
	var critical, errs, warnings int
	for _, is := range result.Issues {
		switch is.Severity {
		case colModel.SeverityCritical:
			critical++
		case colModel.SeverityError:
			errs++
		case colModel.SeverityWarning:
			warnings++
		}
	}

	switch {
	case critical > 0:
		return colModel.HealthStatusUnhealthy
	case errs > 0:
		return colModel.HealthStatusDegraded
	case result.Sources.Total > 0 && float64(warnings) > m.health.WarningRatio*float64(result.Sources.Total):
		return colModel.HealthStatusDegraded
	default:
		return colModel.HealthStatusHealthy
	}
}

func metaString(s *colModel.Source, key string) string {
	if v, ok := s.Metadata[key].(string); ok && v != "" {
		return v
	}
	return "no details"
}
